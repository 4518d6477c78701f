package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/annel0/voxelcore/internal/logging"
)

// Ошибки хранилищ таблицы имен
var (
	ErrIDTaken          = errors.New("storage: id already bound to another name")
	ErrNameBound        = errors.New("storage: name already bound to another id")
	ErrIDSpaceExhausted = errors.New("storage: no free material ids left")
	ErrIDOutOfRange     = errors.New("storage: id outside allowed range")
	ErrStoreClosed      = errors.New("storage: store closed")
	ErrNotLoaded        = errors.New("storage: store not loaded")
	ErrAllocConflict    = errors.New("storage: id allocation kept conflicting")
)

// maxAllocRetries число повторов выдачи id при конфликте транзакций
// (badger ErrConflict, дубликат ключа в MariaDB)
const maxAllocRetries = 8

// NameStore постоянная таблица имя -> идентификатор материала.
// Изменения сохраняются сразу, отдельного Save нет.
type NameStore interface {
	// Load открывает хранилище и читает сохраненную таблицу
	Load(ctx context.Context) error

	// Register возвращает id имени; для нового имени выделяет наименьший
	// свободный id из диапазона.
	Register(ctx context.Context, name string) (uint16, error)

	// RegisterWithID закрепляет имя за id. Повторная привязка той же пары
	// не ошибка; занятый id дает ErrIDTaken, другой id у имени ErrNameBound.
	RegisterWithID(ctx context.Context, name string, id uint16) error

	// Lookup возвращает id имени, если оно известно
	Lookup(ctx context.Context, name string) (uint16, bool, error)

	// Names копия всей таблицы
	Names(ctx context.Context) (map[string]uint16, error)

	Close() error
}

// IDRange диапазон идентификаторов, выдаваемых Register. RegisterWithID
// может закреплять и id вне диапазона (например, воздух за 0).
type IDRange struct {
	Min uint16
	Max uint16
}

// DefaultIDRange 0 зарезервирован для закрепленного воздуха
var DefaultIDRange = IDRange{Min: 1, Max: 65535}

func (r IDRange) contains(id uint16) bool {
	return id >= r.Min && id <= r.Max
}

type storeOptions struct {
	rng    IDRange
	logger *logging.Logger
}

// StoreOption настраивает хранилище имен
type StoreOption func(*storeOptions)

// WithIDRange задает диапазон выдаваемых идентификаторов
func WithIDRange(rng IDRange) StoreOption {
	return func(o *storeOptions) {
		o.rng = rng
	}
}

// WithStoreLogger задает логгер хранилища
func WithStoreLogger(logger *logging.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

func newStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{rng: DefaultIDRange, logger: logging.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// nameTable таблица в памяти, общая для локальных хранилищ.
// Синхронизация на стороне владельца.
type nameTable struct {
	ids   map[string]uint16
	names map[uint16]string
	rng   IDRange
	next  uint32 // подсказка для поиска свободного id
}

func newNameTable(rng IDRange) *nameTable {
	return &nameTable{
		ids:   make(map[string]uint16),
		names: make(map[uint16]string),
		rng:   rng,
		next:  uint32(rng.Min),
	}
}

func (t *nameTable) lookup(name string) (uint16, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// allocate возвращает id имени; created=true, если имя добавлено
func (t *nameTable) allocate(name string) (id uint16, created bool, err error) {
	if id, ok := t.ids[name]; ok {
		return id, false, nil
	}
	for candidate := t.next; candidate <= uint32(t.rng.Max); candidate++ {
		if _, taken := t.names[uint16(candidate)]; !taken {
			t.put(name, uint16(candidate))
			t.next = candidate + 1
			return uint16(candidate), true, nil
		}
	}
	return 0, false, fmt.Errorf("%w: range [%d, %d]", ErrIDSpaceExhausted, t.rng.Min, t.rng.Max)
}

// bind закрепляет имя за id; created=true, если пара новая
func (t *nameTable) bind(name string, id uint16) (created bool, err error) {
	if owner, ok := t.names[id]; ok {
		if owner == name {
			return false, nil
		}
		return false, fmt.Errorf("%w: %d belongs to %q", ErrIDTaken, id, owner)
	}
	if existing, ok := t.ids[name]; ok {
		return false, fmt.Errorf("%w: %q has id %d", ErrNameBound, name, existing)
	}
	t.put(name, id)
	return true, nil
}

func (t *nameTable) put(name string, id uint16) {
	t.ids[name] = id
	t.names[id] = name
}

func (t *nameTable) remove(name string) {
	if id, ok := t.ids[name]; ok {
		delete(t.ids, name)
		delete(t.names, id)
		if uint32(id) < t.next && t.rng.contains(id) {
			t.next = uint32(id)
		}
	}
}

func (t *nameTable) snapshot() map[string]uint16 {
	out := make(map[string]uint16, len(t.ids))
	for name, id := range t.ids {
		out[name] = id
	}
	return out
}

// load заменяет содержимое таблицы; конфликтующие записи отвергаются
func (t *nameTable) load(entries map[string]uint16) error {
	t.ids = make(map[string]uint16, len(entries))
	t.names = make(map[uint16]string, len(entries))
	t.next = uint32(t.rng.Min)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := t.bind(name, entries[name]); err != nil {
			return fmt.Errorf("storage: corrupt name table: %w", err)
		}
	}
	return nil
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// retryConflicts повторяет fn, пока она падает с ошибкой конфликта, не
// больше maxAllocRetries раз. Прочие ошибки возвращаются сразу.
func retryConflicts(ctx context.Context, logger *logging.Logger, what string, conflict func(error) bool, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAllocRetries; attempt++ {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		err = fn()
		if err == nil || !conflict(err) {
			return err
		}
		logger.Debug("Конфликт: %s, попытка %d", what, attempt+1)
	}
	return fmt.Errorf("%w: %s: %v", ErrAllocConflict, what, err)
}
