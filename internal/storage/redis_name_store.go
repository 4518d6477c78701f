package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisNameStore хранит таблицу имен в Redis, общую для нескольких
// процессов. Ключи:
//
//	<prefix>names  hash name -> id
//	<prefix>ids    hash id -> name
//	<prefix>next   счетчик выданных id
//
// Слот id занимается HSETNX, поэтому два процесса не получат один id.
type RedisNameStore struct {
	client    *redis.Client
	keyPrefix string
	rng       IDRange
	logger    *logging.Logger
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string // Адрес Redis сервера
	Password  string // Пароль (пустой если не требуется)
	DB        int    // Номер базы данных
	KeyPrefix string // Префикс для ключей
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "voxel:materials:",
	}
}

// NewRedisNameStore создает хранилище; соединение проверяется в Load
func NewRedisNameStore(config *RedisConfig, opts ...StoreOption) *RedisNameStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	o := newStoreOptions(opts)

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisNameStore{
		client:    client,
		keyPrefix: config.KeyPrefix,
		rng:       o.rng,
		logger:    o.logger,
	}
}

func (s *RedisNameStore) namesKey() string { return s.keyPrefix + "names" }
func (s *RedisNameStore) idsKey() string   { return s.keyPrefix + "ids" }
func (s *RedisNameStore) nextKey() string  { return s.keyPrefix + "next" }

// Load проверяет подключение
func (s *RedisNameStore) Load(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	n, err := s.client.HLen(ctx, s.namesKey()).Result()
	if err != nil {
		return fmt.Errorf("storage: redis hlen: %w", err)
	}
	s.logger.Info("Подключено к Redis, материалов в таблице: %d", n)
	return nil
}

func (s *RedisNameStore) Register(ctx context.Context, name string) (uint16, error) {
	if id, ok, err := s.Lookup(ctx, name); err != nil || ok {
		return id, err
	}

	span := int64(s.rng.Max) - int64(s.rng.Min) + 1
	for {
		seq, err := s.client.Incr(ctx, s.nextKey()).Result()
		if err != nil {
			return 0, fmt.Errorf("storage: redis incr: %w", err)
		}
		if seq > span {
			return 0, fmt.Errorf("%w: range [%d, %d]", ErrIDSpaceExhausted, s.rng.Min, s.rng.Max)
		}
		candidate := uint16(int64(s.rng.Min) + seq - 1)

		claimed, err := s.client.HSetNX(ctx, s.idsKey(), idField(candidate), name).Result()
		if err != nil {
			return 0, fmt.Errorf("storage: redis hsetnx: %w", err)
		}
		if !claimed {
			// id закреплен через RegisterWithID
			continue
		}

		bound, err := s.client.HSetNX(ctx, s.namesKey(), name, idField(candidate)).Result()
		if err != nil {
			return 0, fmt.Errorf("storage: redis hsetnx: %w", err)
		}
		if bound {
			return candidate, nil
		}

		// имя параллельно зарегистрировал другой процесс
		s.releaseID(ctx, candidate)
		id, ok, err := s.Lookup(ctx, name)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("storage: redis lost binding for %q", name)
		}
		return id, nil
	}
}

func (s *RedisNameStore) RegisterWithID(ctx context.Context, name string, id uint16) error {
	claimed, err := s.client.HSetNX(ctx, s.idsKey(), idField(id), name).Result()
	if err != nil {
		return fmt.Errorf("storage: redis hsetnx: %w", err)
	}
	if !claimed {
		owner, err := s.client.HGet(ctx, s.idsKey(), idField(id)).Result()
		if err != nil {
			return fmt.Errorf("storage: redis hget: %w", err)
		}
		if owner != name {
			return fmt.Errorf("%w: %d belongs to %q", ErrIDTaken, id, owner)
		}
	}

	bound, err := s.client.HSetNX(ctx, s.namesKey(), name, idField(id)).Result()
	if err != nil {
		return fmt.Errorf("storage: redis hsetnx: %w", err)
	}
	if bound {
		return nil
	}
	existing, ok, err := s.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if ok && existing != id {
		if claimed {
			s.releaseID(ctx, id)
		}
		return fmt.Errorf("%w: %q has id %d", ErrNameBound, name, existing)
	}
	return nil
}

// releaseID снимает резерв id, занятый без привязки имени. При ошибке id
// остается занятым без имени; об этом пишем в лог.
func (s *RedisNameStore) releaseID(ctx context.Context, id uint16) {
	if err := s.client.HDel(ctx, s.idsKey(), idField(id)).Err(); err != nil {
		s.logger.Warn("Не удалось освободить id %d в %s: %v", id, s.idsKey(), err)
	}
}

func (s *RedisNameStore) Lookup(ctx context.Context, name string) (uint16, bool, error) {
	val, err := s.client.HGet(ctx, s.namesKey(), name).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage: redis hget: %w", err)
	}
	id, err := parseID([]byte(val))
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *RedisNameStore) Names(ctx context.Context) (map[string]uint16, error) {
	all, err := s.client.HGetAll(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: redis hgetall: %w", err)
	}
	out := make(map[string]uint16, len(all))
	for name, val := range all {
		id, err := parseID([]byte(val))
		if err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, nil
}

// Close закрывает соединение с Redis
func (s *RedisNameStore) Close() error {
	return s.client.Close()
}

// reset удаляет все ключи таблицы (для тестов)
func (s *RedisNameStore) reset(ctx context.Context) error {
	return s.client.Del(ctx, s.namesKey(), s.idsKey(), s.nextKey()).Err()
}

func idField(id uint16) string {
	return strconv.FormatUint(uint64(id), 10)
}
