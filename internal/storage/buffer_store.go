package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/voxelcore/internal/cuboid"
	"github.com/dgraph-io/badger/v3"
)

const bufferKeyPrefix = "buffer:"

// BufferStore хранит закодированные буферы материалов в BadgerDB под
// ключами buffer:<name>.
type BufferStore struct {
	db    *badger.DB
	owned bool
}

// NewBufferStore работает поверх уже открытой базы (например,
// BadgerNameStore.DB()); закрывать ее остается владельцу.
func NewBufferStore(db *badger.DB) *BufferStore {
	return &BufferStore{db: db}
}

// OpenBufferStore открывает отдельную базу в каталоге path
func OpenBufferStore(path string) (*BufferStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	return &BufferStore{db: db, owned: true}, nil
}

// SaveBuffer кодирует и сохраняет содержимое буфера
func (s *BufferStore) SaveBuffer(ctx context.Context, name string, v cuboid.View) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	data, err := cuboid.Encode(v)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bufferKey(name), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения буфера %q в BadgerDB: %w", name, err)
	}
	return nil
}

// LoadBuffer читает буфер; отсутствующий ключ дает (nil, false, nil)
func (s *BufferStore) LoadBuffer(ctx context.Context, name string, opts ...cuboid.BufferOption) (*cuboid.MaterialBuffer, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, false, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(bufferKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения буфера %q из BadgerDB: %w", name, err)
	}

	buf, err := cuboid.Decode(data, opts...)
	if err != nil {
		return nil, false, err
	}
	return buf, true, nil
}

// DeleteBuffer удаляет буфер; отсутствующий ключ не ошибка
func (s *BufferStore) DeleteBuffer(ctx context.Context, name string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(bufferKey(name))
	})
}

// Close закрывает базу, если она открыта через OpenBufferStore
func (s *BufferStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func bufferKey(name string) []byte {
	return []byte(bufferKeyPrefix + name)
}
