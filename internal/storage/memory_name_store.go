package storage

import (
	"context"
	"sync"
)

// MemoryNameStore реализует NameStore в памяти.
// Используется в тестах и для временных миров.
// ВНИМАНИЕ: Таблица теряется при перезапуске!
type MemoryNameStore struct {
	mu     sync.RWMutex
	table  *nameTable
	closed bool
}

// NewMemoryNameStore создает пустое хранилище имен в памяти
func NewMemoryNameStore(opts ...StoreOption) *MemoryNameStore {
	o := newStoreOptions(opts)
	return &MemoryNameStore{table: newNameTable(o.rng)}
}

// Load для памяти ничего не читает
func (s *MemoryNameStore) Load(ctx context.Context) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *MemoryNameStore) Register(ctx context.Context, name string) (uint16, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}
	id, _, err := s.table.allocate(name)
	return id, err
}

func (s *MemoryNameStore) RegisterWithID(ctx context.Context, name string, id uint16) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.table.bind(name, id)
	return err
}

func (s *MemoryNameStore) Lookup(ctx context.Context, name string) (uint16, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, false, ErrStoreClosed
	}
	id, ok := s.table.lookup(name)
	return id, ok, nil
}

func (s *MemoryNameStore) Names(ctx context.Context) (map[string]uint16, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.table.snapshot(), nil
}

func (s *MemoryNameStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
