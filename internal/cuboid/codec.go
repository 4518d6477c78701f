package cuboid

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/codec"
	"github.com/annel0/voxelcore/internal/vec"
)

const (
	bufferMagic   = "VXMB"
	bufferVersion = 1
)

type bufferRecord struct {
	Version int      `cbor:"1,keyasint"`
	Base    [3]int   `cbor:"2,keyasint"`
	Size    [3]int   `cbor:"3,keyasint"`
	ID      []uint16 `cbor:"4,keyasint"`
	Data    []uint16 `cbor:"5,keyasint"`
}

// Encode сериализует содержимое буфера материалов: сигнатура VXMB, затем
// сжатая zstd CBOR-запись с областью и массивами id/data.
func Encode(v View) ([]byte, error) {
	r := v.Region()
	rec := bufferRecord{
		Version: bufferVersion,
		Base:    [3]int{r.Base.X, r.Base.Y, r.Base.Z},
		Size:    [3]int{r.Size.X, r.Size.Y, r.Size.Z},
	}

	if id, data, ok := materialArrays(v); ok {
		rec.ID, rec.Data = id, data
	} else {
		n := r.Volume()
		rec.ID, rec.Data = make([]uint16, n), make([]uint16, n)
		for i := 0; i < n; i++ {
			x, y, z := r.Coords(i)
			rec.ID[i], rec.Data[i], _ = v.Get(x, y, z)
		}
	}

	out, err := codec.Seal(bufferMagic, rec)
	if err != nil {
		return nil, fmt.Errorf("cuboid: encode %s: %w", r, err)
	}
	return out, nil
}

// Decode восстанавливает буфер из Encode
func Decode(b []byte, opts ...BufferOption) (*MaterialBuffer, error) {
	var rec bufferRecord
	if err := codec.Open(bufferMagic, b, &rec); err != nil {
		return nil, fmt.Errorf("cuboid: decode: %w", err)
	}
	if rec.Version != bufferVersion {
		return nil, fmt.Errorf("cuboid: decode: unsupported version %d", rec.Version)
	}

	region, err := NewRegion(
		vec.Vec3{X: rec.Base[0], Y: rec.Base[1], Z: rec.Base[2]},
		vec.Vec3{X: rec.Size[0], Y: rec.Size[1], Z: rec.Size[2]},
	)
	if err != nil {
		return nil, fmt.Errorf("cuboid: decode: %w", err)
	}

	// CBOR декодирует пустые массивы в nil
	if rec.ID == nil {
		rec.ID = []uint16{}
	}
	if rec.Data == nil {
		rec.Data = []uint16{}
	}
	return NewMaterialBufferFromArrays(region, rec.ID, rec.Data, opts...)
}
