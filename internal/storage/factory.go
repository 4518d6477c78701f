package storage

import (
	"context"
	"fmt"

	"github.com/annel0/voxelcore/internal/config"
)

// OpenNameStore создает хранилище таблицы имен по конфигурации.
// Load вызывает реестр при Setup. extra применяются после диапазона из cfg.
func OpenNameStore(ctx context.Context, cfg *config.RegistryConfig, root WorldRootFunc, extra ...StoreOption) (NameStore, error) {
	lo, hi, err := cfg.IDRange()
	if err != nil {
		return nil, err
	}
	opts := append([]StoreOption{WithIDRange(IDRange{Min: lo, Max: hi})}, extra...)

	switch backend := cfg.GetBackend(); backend {
	case config.BackendMemory:
		return NewMemoryNameStore(opts...), nil
	case config.BackendFile:
		return NewFileNameStore(root, opts...), nil
	case config.BackendBadger:
		return NewBadgerNameStore(root, opts...), nil
	case config.BackendRedis:
		return NewRedisNameStore(&RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, opts...), nil
	case config.BackendMaria:
		return NewMariaNameStore(cfg.Maria.DSN, cfg.Maria.Table, opts...)
	case config.BackendMongo:
		return NewMongoNameStore(ctx, MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
			Counters:   cfg.Mongo.Counters,
			Timeout:    cfg.Mongo.Timeout,
		}, opts...)
	default:
		return nil, fmt.Errorf("storage: unknown registry backend %q", backend)
	}
}
