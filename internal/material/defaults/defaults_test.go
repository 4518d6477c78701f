package defaults

import (
	"context"
	"io"
	"testing"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/annel0/voxelcore/internal/material"
	"github.com/annel0/voxelcore/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, store material.NameStore) *material.Registry {
	t.Helper()
	r := material.NewRegistry(store,
		material.WithLogger(logging.NewConsoleLogger("registry", io.Discard, logging.ERROR)))
	require.NoError(t, r.Setup(context.Background()))
	return r
}

func TestRegisterDefaults(t *testing.T) {
	r := newRegistry(t, storage.NewMemoryNameStore())

	set, err := RegisterDefaults(context.Background(), r)
	require.NoError(t, err)

	air, ok := r.Get(0)
	require.True(t, ok)
	assert.Same(t, set.Air, air)

	assert.Equal(t, 7, r.Count(), "воздух и шесть корней")
	assert.Len(t, set.Wool.SubMaterials(), 15)

	red, ok := r.GetByName("Red Wool")
	require.True(t, ok)
	assert.Equal(t, set.Wool.ID(), red.ID())
	assert.Equal(t, uint16(14), red.Data())

	grass, ok := r.GetByName("grass block")
	require.True(t, ok)
	assert.Same(t, set.Grass, grass)

	mask, err := r.MinimumDataMask(set.Wool)
	require.NoError(t, err)
	assert.Equal(t, uint16(15), mask)
}

func TestDefaultsSurviveRestart(t *testing.T) {
	root := storage.StaticWorldRoot(t.TempDir())
	ctx := context.Background()

	first := newRegistry(t, storage.NewFileNameStore(root))
	set, err := RegisterDefaults(ctx, first)
	require.NoError(t, err)

	// второй процесс регистрирует корни в другом порядке и получает те же id
	store := storage.NewFileNameStore(root)
	second := newRegistry(t, store)
	again := New()
	require.NoError(t, second.RegisterWithID(ctx, again.Air, AirID))
	roots := again.Roots()
	for i := len(roots) - 1; i >= 0; i-- {
		_, err := second.Register(ctx, roots[i])
		require.NoError(t, err)
	}

	for i, m := range set.Roots() {
		assert.Equal(t, m.ID(), roots[i].ID(), "материал %s", m.Name())
	}
	assert.Equal(t, first.Digest(), second.Digest())
}

func TestRegisterDefaultsTwice(t *testing.T) {
	r := newRegistry(t, storage.NewMemoryNameStore())
	_, err := RegisterDefaults(context.Background(), r)
	require.NoError(t, err)

	_, err = RegisterDefaults(context.Background(), r)
	assert.ErrorIs(t, err, material.ErrDuplicateRegistration)
}
