package storage

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Хранилища на внешних серверах проверяются, только если задан адрес:
//
//	VOXEL_TEST_REDIS=localhost:6379
//	VOXEL_TEST_MARIA=user:pass@tcp(localhost:3306)/voxel_test
//	VOXEL_TEST_MONGO=mongodb://localhost:27017

func TestRedisNameStore(t *testing.T) {
	addr := os.Getenv("VOXEL_TEST_REDIS")
	if addr == "" {
		t.Skipf("VOXEL_TEST_REDIS не задан, пропускаем")
	}

	store := NewRedisNameStore(&RedisConfig{
		Addr:      addr,
		KeyPrefix: "voxel:test:" + strings.ReplaceAll(t.Name(), "/", ":") + ":",
	}, quiet())
	ctx := context.Background()
	require.NoError(t, store.reset(ctx))
	defer func() {
		store.reset(ctx)
		store.Close()
	}()

	testNameStore(t, store)
}

func TestMariaNameStore(t *testing.T) {
	dsn := os.Getenv("VOXEL_TEST_MARIA")
	if dsn == "" {
		t.Skipf("VOXEL_TEST_MARIA не задан, пропускаем")
	}

	store, err := NewMariaNameStore(dsn, "material_ids_test", quiet())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.reset(ctx))
	defer func() {
		store.reset(ctx)
		store.Close()
	}()

	testNameStore(t, store)
}

func TestMariaNameStoreRejectsTableName(t *testing.T) {
	_, err := NewMariaNameStore("user:pass@tcp(localhost:3306)/db", "ids; DROP TABLE x")
	require.Error(t, err)
}

func TestMongoNameStore(t *testing.T) {
	uri := os.Getenv("VOXEL_TEST_MONGO")
	if uri == "" {
		t.Skipf("VOXEL_TEST_MONGO не задан, пропускаем")
	}

	ctx := context.Background()
	store, err := NewMongoNameStore(ctx, MongoConfig{
		URI:        uri,
		Database:   "voxelcore_test",
		Collection: "materials_" + strings.ReplaceAll(t.Name(), "/", "_"),
		Counters:   "counters_" + strings.ReplaceAll(t.Name(), "/", "_"),
		Timeout:    5 * time.Second,
	}, quiet())
	require.NoError(t, err)
	require.NoError(t, store.reset(ctx))
	defer func() {
		store.reset(ctx)
		store.Close()
	}()

	testNameStore(t, store)
}
