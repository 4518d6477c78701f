package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/annel0/voxelcore/internal/config"
	"github.com/annel0/voxelcore/internal/cuboid"
	"github.com/annel0/voxelcore/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferStore(t *testing.T) {
	store, err := OpenBufferStore(filepath.Join(t.TempDir(), "buffers"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	region, err := cuboid.NewRegion(vec.Vec3{X: 16, Y: 0, Z: -16}, vec.Vec3{X: 4, Y: 8, Z: 4})
	require.NoError(t, err)
	buf := cuboid.NewMaterialBuffer(region)
	buf.FloodRaw(2, 0)
	require.NoError(t, buf.SetRaw(17, 7, -15, 9, 3))

	require.NoError(t, store.SaveBuffer(ctx, "spawn", buf))

	loaded, ok, err := store.LoadBuffer(ctx, "spawn")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, region, loaded.Region())
	id, data, _ := loaded.Get(17, 7, -15)
	assert.Equal(t, uint16(9), id)
	assert.Equal(t, uint16(3), data)

	_, ok, err = store.LoadBuffer(ctx, "nowhere")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.DeleteBuffer(ctx, "spawn"))
	_, ok, err = store.LoadBuffer(ctx, "spawn")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBufferStoreSharesNameStoreDB(t *testing.T) {
	names := NewBadgerNameStore(StaticWorldRoot(t.TempDir()), quiet())
	ctx := context.Background()
	require.NoError(t, names.Load(ctx))
	defer names.Close()

	_, err := names.Register(ctx, "stone")
	require.NoError(t, err)

	buffers := NewBufferStore(names.DB())
	region, err := cuboid.NewRegion(vec.Vec3{}, vec.Vec3{X: 2, Y: 2, Z: 2})
	require.NoError(t, err)
	require.NoError(t, buffers.SaveBuffer(ctx, "tiny", cuboid.NewMaterialBuffer(region)))
	require.NoError(t, buffers.Close(), "чужую базу не закрываем")

	got, err := names.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint16{"stone": 1}, got, "ключи буферов не попадают в таблицу имен")
}

func TestOpenNameStore(t *testing.T) {
	t.Setenv("VOXEL_REGISTRY_BACKEND", "")
	ctx := context.Background()
	root := StaticWorldRoot(t.TempDir())

	cfg := config.Default().Registry
	cases := map[string]any{
		config.BackendMemory: &MemoryNameStore{},
		config.BackendFile:   &FileNameStore{},
		config.BackendBadger: &BadgerNameStore{},
		config.BackendRedis:  &RedisNameStore{},
	}
	for backend, want := range cases {
		cfg.Backend = backend
		store, err := OpenNameStore(ctx, &cfg, root, quiet())
		require.NoError(t, err, backend)
		assert.IsType(t, want, store, backend)
		store.Close()
	}

	cfg.Backend = "tape"
	_, err := OpenNameStore(ctx, &cfg, root)
	assert.Error(t, err)

	cfg.Backend = config.BackendMemory
	cfg.MinID, cfg.MaxID = 100, 101
	store, err := OpenNameStore(ctx, &cfg, root, quiet())
	require.NoError(t, err)
	id, err := store.Register(ctx, "stone")
	require.NoError(t, err)
	assert.Equal(t, uint16(100), id)
}
