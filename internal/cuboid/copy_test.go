package cuboid_test

import (
	"bytes"
	"testing"

	"github.com/annel0/voxelcore/internal/cuboid"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyIntersection(t *testing.T) {
	src := cuboid.NewMaterialBuffer(cube(t, vec.Vec3{}, 4))
	for i := range src.RawID() {
		x, y, z := src.Region().Coords(i)
		src.RawID()[i] = uint16(x + 10*y + 100*z)
		src.RawData()[i] = uint16(y)
	}

	dst := cuboid.NewMaterialBuffer(cube(t, vec.Vec3{X: 2, Y: 1, Z: -1}, 4))
	dst.FloodRaw(999, 9)

	n, err := cuboid.Copy(dst, src)
	require.NoError(t, err)
	assert.Equal(t, 2*3*3, n)

	for i := range dst.RawID() {
		x, y, z := dst.Region().Coords(i)
		id, data, _ := dst.Get(x, y, z)
		if src.Region().Contains(x, y, z) {
			assert.Equal(t, uint16(x+10*y+100*z), id, "(%d, %d, %d)", x, y, z)
			assert.Equal(t, uint16(y), data)
		} else {
			assert.Equal(t, uint16(999), id, "(%d, %d, %d) вне пересечения", x, y, z)
		}
	}
}

func TestCopyDisjoint(t *testing.T) {
	src := cuboid.NewMaterialBuffer(cube(t, vec.Vec3{}, 2))
	dst := cuboid.NewMaterialBuffer(cube(t, vec.Vec3{X: 10}, 2))
	n, err := cuboid.Copy(dst, src)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyIncompatible(t *testing.T) {
	region := cube(t, vec.Vec3{}, 2)
	_, err := cuboid.Copy(cuboid.NewLightBuffer(region), cuboid.NewMaterialBuffer(region))
	assert.ErrorIs(t, err, cuboid.ErrIncompatibleSource)
}

func TestLightBuffer(t *testing.T) {
	region := cube(t, vec.Vec3{}, 3)
	src := cuboid.NewLightBuffer(region)
	src.Flood(12)
	require.NoError(t, src.Set(1, 1, 1, cuboid.MaxLight))
	assert.Error(t, src.Set(0, 0, 0, 16))
	assert.ErrorIs(t, src.Set(3, 0, 0, 1), cuboid.ErrOutOfBounds)

	level, ok := src.Get(1, 1, 1)
	require.True(t, ok)
	assert.Equal(t, cuboid.MaxLight, level)

	dst := cuboid.NewLightBuffer(region)
	n, err := cuboid.Copy(dst, src)
	require.NoError(t, err)
	assert.Equal(t, region.Volume(), n)

	level, _ = dst.Get(1, 1, 1)
	assert.Equal(t, cuboid.MaxLight, level)
	level, _ = dst.Get(2, 2, 2)
	assert.Equal(t, uint8(12), level)

	err = dst.CopyElement(cuboid.NewMaterialBuffer(region), 0, 0, 1)
	assert.ErrorIs(t, err, cuboid.ErrIncompatibleSource)
}

func TestEncodeDecode(t *testing.T) {
	buf := cuboid.NewMaterialBuffer(cube(t, vec.Vec3{X: -3, Y: 60, Z: 7}, 5))
	buf.FloodRaw(1, 0)
	require.NoError(t, buf.SetRaw(-1, 62, 9, 42, 6))

	encoded, err := cuboid.Encode(buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(encoded, []byte("VXMB")))

	again, err := cuboid.Encode(buf.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, encoded, again, "кодирование детерминировано")

	decoded, err := cuboid.Decode(encoded, cuboid.WithBackBuffer())
	require.NoError(t, err)
	assert.Equal(t, buf.Region(), decoded.Region())
	assert.Equal(t, buf.RawID(), decoded.RawID())
	assert.Equal(t, buf.RawData(), decoded.RawData())
	assert.True(t, decoded.HasBackBuffer())

	_, err = cuboid.Decode([]byte("not a buffer"))
	assert.Error(t, err)
}

func TestEncodeEmpty(t *testing.T) {
	empty, err := cuboid.NewRegion(vec.Vec3{}, vec.Vec3{X: 0, Y: 3, Z: 3})
	require.NoError(t, err)

	encoded, err := cuboid.Encode(cuboid.NewMaterialBuffer(empty))
	require.NoError(t, err)
	decoded, err := cuboid.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
}
