package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/annel0/voxelcore/internal/logging"
	"github.com/dgraph-io/badger/v3"
)

const (
	badgerNamePrefix = "material:name:"
	badgerIDPrefix   = "material:id:"
	badgerNextKey    = "material:next"
)

// BadgerNameStore хранит таблицу имен в BadgerDB <root>/worlds/materials.db.
// Ключи:
//
//	material:name:<name> -> id
//	material:id:<id>     -> name
//	material:next        -> подсказка следующего свободного id
type BadgerNameStore struct {
	mu      sync.RWMutex
	allocMu sync.Mutex // выдача id внутри процесса идет по очереди
	root    WorldRootFunc
	db      *badger.DB
	rng     IDRange
	logger  *logging.Logger
	closed  bool
}

// NewBadgerNameStore создает хранилище; база открывается при Load
func NewBadgerNameStore(root WorldRootFunc, opts ...StoreOption) *BadgerNameStore {
	o := newStoreOptions(opts)
	return &BadgerNameStore{root: root, rng: o.rng, logger: o.logger}
}

// DB открытая база (nil до Load). Через нее BufferStore делит тот же каталог.
func (s *BadgerNameStore) DB() *badger.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

func (s *BadgerNameStore) Load(ctx context.Context) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.db != nil {
		return nil
	}

	path, err := MaterialsDB(s.root)
	if err != nil {
		return err
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}
	s.db = db
	s.logger.Info("Таблица материалов открыта в %s", path)
	return nil
}

func (s *BadgerNameStore) Register(ctx context.Context, name string) (uint16, error) {
	s.allocMu.Lock()
	defer s.allocMu.Unlock()

	var id uint16
	err := s.update(ctx, func(txn *badger.Txn) error {
		existing, ok, err := badgerGetID(txn, name)
		if err != nil || ok {
			id = existing
			return err
		}

		next, err := badgerGetNext(txn, s.rng.Min)
		if err != nil {
			return err
		}
		for candidate := next; candidate <= uint32(s.rng.Max); candidate++ {
			_, err := txn.Get(badgerIDKey(uint16(candidate)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				id = uint16(candidate)
				if err := badgerPut(txn, name, id); err != nil {
					return err
				}
				return txn.Set([]byte(badgerNextKey), []byte(strconv.FormatUint(uint64(candidate+1), 10)))
			}
			if err != nil {
				return err
			}
		}
		return fmt.Errorf("%w: range [%d, %d]", ErrIDSpaceExhausted, s.rng.Min, s.rng.Max)
	})
	return id, err
}

func (s *BadgerNameStore) RegisterWithID(ctx context.Context, name string, id uint16) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		owner, ok, err := badgerGetName(txn, id)
		if err != nil {
			return err
		}
		if ok {
			if owner == name {
				return nil
			}
			return fmt.Errorf("%w: %d belongs to %q", ErrIDTaken, id, owner)
		}
		existing, ok, err := badgerGetID(txn, name)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%w: %q has id %d", ErrNameBound, name, existing)
		}
		return badgerPut(txn, name, id)
	})
}

func (s *BadgerNameStore) Lookup(ctx context.Context, name string) (uint16, bool, error) {
	var (
		id    uint16
		found bool
	)
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		id, found, err = badgerGetID(txn, name)
		return err
	})
	return id, found, err
}

func (s *BadgerNameStore) Names(ctx context.Context) (map[string]uint16, error) {
	out := make(map[string]uint16)
	err := s.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerNamePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), badgerNamePrefix)
			err := item.Value(func(val []byte) error {
				id, err := parseID(val)
				if err != nil {
					return err
				}
				out[name] = id
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close закрывает базу
func (s *BadgerNameStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerNameStore) ready() error {
	if s.closed {
		return ErrStoreClosed
	}
	if s.db == nil {
		return ErrNotLoaded
	}
	return nil
}

// update выполняет fn в транзакции, повторяя при конфликте
func (s *BadgerNameStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	return retryConflicts(ctx, s.logger, "транзакция BadgerDB", isBadgerConflict, func() error {
		return s.db.Update(fn)
	})
}

func isBadgerConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}

func (s *BadgerNameStore) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func badgerNameKey(name string) []byte {
	return []byte(badgerNamePrefix + name)
}

func badgerIDKey(id uint16) []byte {
	return []byte(badgerIDPrefix + strconv.FormatUint(uint64(id), 10))
}

func badgerPut(txn *badger.Txn, name string, id uint16) error {
	if err := txn.Set(badgerNameKey(name), []byte(strconv.FormatUint(uint64(id), 10))); err != nil {
		return err
	}
	return txn.Set(badgerIDKey(id), []byte(name))
}

func badgerGetID(txn *badger.Txn, name string) (uint16, bool, error) {
	item, err := txn.Get(badgerNameKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var id uint16
	err = item.Value(func(val []byte) error {
		id, err = parseID(val)
		return err
	})
	return id, err == nil, err
}

func badgerGetName(txn *badger.Txn, id uint16) (string, bool, error) {
	item, err := txn.Get(badgerIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

func badgerGetNext(txn *badger.Txn, min uint16) (uint32, error) {
	item, err := txn.Get([]byte(badgerNextKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return uint32(min), nil
	}
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	next, err := strconv.ParseUint(string(val), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("storage: corrupt %s: %w", badgerNextKey, err)
	}
	if uint32(next) < uint32(min) {
		return uint32(min), nil
	}
	return uint32(next), nil
}

func parseID(val []byte) (uint16, error) {
	id, err := strconv.ParseUint(string(val), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("storage: corrupt material id %q: %w", val, err)
	}
	return uint16(id), nil
}
