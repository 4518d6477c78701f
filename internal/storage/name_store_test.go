package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() StoreOption {
	return WithStoreLogger(logging.NewConsoleLogger("storage", io.Discard, logging.ERROR))
}

// testNameStore общие проверки для любого пустого хранилища
func testNameStore(t *testing.T, store NameStore) {
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	t.Run("Register allocates sequentially", func(t *testing.T) {
		id, err := store.Register(ctx, "stone")
		require.NoError(t, err)
		assert.Equal(t, uint16(1), id)

		again, err := store.Register(ctx, "stone")
		require.NoError(t, err)
		assert.Equal(t, id, again, "повторная регистрация возвращает тот же id")

		id, err = store.Register(ctx, "dirt")
		require.NoError(t, err)
		assert.Equal(t, uint16(2), id)
	})

	t.Run("RegisterWithID pins", func(t *testing.T) {
		require.NoError(t, store.RegisterWithID(ctx, "air", 0))
		require.NoError(t, store.RegisterWithID(ctx, "air", 0), "та же пара повторно")

		err := store.RegisterWithID(ctx, "void", 0)
		assert.ErrorIs(t, err, ErrIDTaken)

		err = store.RegisterWithID(ctx, "stone", 5)
		assert.ErrorIs(t, err, ErrNameBound)
	})

	t.Run("Register skips pinned ids", func(t *testing.T) {
		require.NoError(t, store.RegisterWithID(ctx, "bedrock", 3))
		id, err := store.Register(ctx, "sand")
		require.NoError(t, err)
		assert.Equal(t, uint16(4), id)
	})

	t.Run("Lookup and Names", func(t *testing.T) {
		id, ok, err := store.Lookup(ctx, "sand")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint16(4), id)

		_, ok, err = store.Lookup(ctx, "unobtainium")
		require.NoError(t, err)
		assert.False(t, ok)

		names, err := store.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]uint16{"air": 0, "stone": 1, "dirt": 2, "bedrock": 3, "sand": 4}, names)
	})
}

func TestMemoryNameStore(t *testing.T) {
	store := NewMemoryNameStore(quiet())
	testNameStore(t, store)

	require.NoError(t, store.Close())
	_, err := store.Register(context.Background(), "late")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryNameStoreExhaustion(t *testing.T) {
	store := NewMemoryNameStore(WithIDRange(IDRange{Min: 10, Max: 11}))
	ctx := context.Background()

	id, err := store.Register(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, uint16(10), id)
	id, err = store.Register(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, uint16(11), id)

	_, err = store.Register(ctx, "c")
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)

	// закрепление вне диапазона допустимо
	require.NoError(t, store.RegisterWithID(ctx, "air", 0))
}

func TestMemoryNameStoreTopOfRange(t *testing.T) {
	store := NewMemoryNameStore(WithIDRange(IDRange{Min: 65534, Max: 65535}))
	ctx := context.Background()

	for _, want := range []uint16{65534, 65535} {
		id, err := store.Register(ctx, fmt.Sprintf("m%d", want))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	_, err := store.Register(ctx, "overflow")
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
}

func TestMemoryNameStoreCancelled(t *testing.T) {
	store := NewMemoryNameStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Register(ctx, "stone")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryNameStoreConcurrent(t *testing.T) {
	store := NewMemoryNameStore()
	ctx := context.Background()

	const workers = 32
	ids := make([]uint16, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Register(ctx, fmt.Sprintf("material_%d", i))
			if err != nil {
				t.Errorf("регистрация %d: %v", i, err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[uint16]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d выдан дважды", id)
		seen[id] = true
	}
}

func TestFileNameStore(t *testing.T) {
	root := t.TempDir()
	store := NewFileNameStore(StaticWorldRoot(root), quiet())
	testNameStore(t, store)

	assert.Equal(t, filepath.Join(root, "worlds", "materials.dat"), store.Path())
	require.NoError(t, store.Close())

	// таблица переживает перезапуск
	reopened := NewFileNameStore(StaticWorldRoot(root), quiet())
	ctx := context.Background()
	require.NoError(t, reopened.Load(ctx))

	names, err := reopened.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint16{"air": 0, "stone": 1, "dirt": 2, "bedrock": 3, "sand": 4}, names)

	id, err := reopened.Register(ctx, "gravel")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), id)

	entries, err := os.ReadDir(filepath.Join(root, "worlds"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "временные файлы не остаются")
}

func TestFileNameStoreRequiresLoad(t *testing.T) {
	store := NewFileNameStore(StaticWorldRoot(t.TempDir()), quiet())
	_, err := store.Register(context.Background(), "stone")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestFileNameStoreCorruptFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "worlds"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "worlds", "materials.dat"), []byte("garbage"), 0o644))

	store := NewFileNameStore(StaticWorldRoot(root), quiet())
	assert.Error(t, store.Load(context.Background()))
}

func TestStaticWorldRootEmpty(t *testing.T) {
	_, err := MaterialsFile(StaticWorldRoot(""))
	assert.Error(t, err)
}

func TestBadgerNameStore(t *testing.T) {
	root := t.TempDir()
	store := NewBadgerNameStore(StaticWorldRoot(root), quiet())
	testNameStore(t, store)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "повторное закрытие")

	reopened := NewBadgerNameStore(StaticWorldRoot(root), quiet())
	ctx := context.Background()
	require.NoError(t, reopened.Load(ctx))
	defer reopened.Close()

	id, ok, err := reopened.Lookup(ctx, "bedrock")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(3), id)

	id, err = reopened.Register(ctx, "gravel")
	require.NoError(t, err)
	assert.Equal(t, uint16(5), id)
}

func TestBadgerNameStoreConcurrent(t *testing.T) {
	store := NewBadgerNameStore(StaticWorldRoot(t.TempDir()), quiet())
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))
	defer store.Close()

	const workers = 16
	ids := make([]uint16, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Register(ctx, fmt.Sprintf("material_%d", i))
			if err != nil {
				t.Errorf("регистрация %d: %v", i, err)
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Len(t, names, workers)

	seen := make(map[uint16]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "id %d выдан дважды", id)
		seen[id] = true
	}
}
