package material

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/annel0/voxelcore/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NameStore постоянная таблица имя -> идентификатор, авторитетная для
// выдачи идентификаторов между перезапусками процесса. Реализации лежат в
// internal/storage.
type NameStore interface {
	// Load загружает сохраненную таблицу
	Load(ctx context.Context) error
	// Register возвращает id имени, выделяя следующий свободный при необходимости
	Register(ctx context.Context, name string) (uint16, error)
	// RegisterWithID закрепляет имя за конкретным id
	RegisterWithID(ctx context.Context, name string, id uint16) error
}

// Registry таблица материалов процесса: name <-> id <-> *Material.
//
// Слоты таблицы занимаются ровно один раз через compare-and-set и никогда не
// освобождаются. Чтение (Get*) не блокируется и не зависит от параллельных
// регистраций.
type Registry struct {
	store   NameStore
	slots   [TableSize]atomic.Pointer[Material]
	names   sync.Map // canonical name -> *Material
	count   atomic.Int32
	setup   atomic.Bool
	ready   atomic.Bool
	logger  *logging.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// RegistryOption настраивает Registry
type RegistryOption func(*Registry)

// WithLogger задает логгер реестра
func WithLogger(logger *logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithMetrics подключает Prometheus-метрики
func WithMetrics(metrics *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// WithTracer задает трассировщик OpenTelemetry
func WithTracer(tracer trace.Tracer) RegistryOption {
	return func(r *Registry) {
		r.tracer = tracer
	}
}

// NewRegistry создает пустой реестр поверх хранилища имен.
// Перед регистрацией материалов нужно вызвать Setup.
func NewRegistry(store NameStore, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:  store,
		logger: logging.Default(),
		tracer: otel.Tracer("github.com/annel0/voxelcore/internal/material"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Setup загружает сохраненную таблицу имен. Повторный вызов возвращает
// ErrAlreadyInitialized. Если загрузка не удалась, Setup можно повторить.
func (r *Registry) Setup(ctx context.Context) error {
	if !r.setup.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}

	ctx, span := r.tracer.Start(ctx, "material.Registry.Setup")
	defer span.End()

	if err := r.store.Load(ctx); err != nil {
		r.setup.Store(false)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("material: load name table: %w", err)
	}

	r.ready.Store(true)
	r.logger.Info("Реестр материалов инициализирован")
	return nil
}

// Register регистрирует материал и возвращает его идентификатор.
//
// Корневой материал получает id из хранилища имен и занимает слот таблицы;
// если слот уже занят, возвращается *DuplicateError. Подматериал
// добавляется в набор родителя и получает id родителя, слот не занимает.
func (r *Registry) Register(ctx context.Context, m *Material) (uint16, error) {
	if m == nil {
		return 0, fmt.Errorf("material: register nil material")
	}
	if !r.ready.Load() {
		return 0, ErrNotInitialized
	}

	if m.IsSubMaterial() {
		return r.registerSub(m)
	}
	if m.data != 0 {
		return 0, fmt.Errorf("%w: root material %q has data %d", ErrInvariantViolation, m.name, m.data)
	}
	if id := m.ID(); id != Unregistered {
		return 0, &DuplicateError{Material: m, ID: uint16(id), Incumbent: r.slots[id].Load()}
	}

	ctx, span := r.tracer.Start(ctx, "material.Registry.Register",
		trace.WithAttributes(attribute.String("material.name", m.name)))
	defer span.End()

	id, err := r.store.Register(ctx, CanonicalName(m.name))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("material: allocate id for %q: %w", m.name, err)
	}
	span.SetAttributes(attribute.Int("material.id", int(id)))

	if err := r.claim(m, id); err != nil {
		span.RecordError(err)
		return 0, err
	}
	return id, nil
}

// RegisterWithID закрепляет корневой материал за конкретным id (например,
// воздух за 0) в хранилище и в таблице.
func (r *Registry) RegisterWithID(ctx context.Context, m *Material, id uint16) error {
	if m == nil {
		return fmt.Errorf("material: register nil material")
	}
	if !r.ready.Load() {
		return ErrNotInitialized
	}
	if m.IsSubMaterial() {
		return fmt.Errorf("material: sub-material %q cannot be pinned to id %d", m.name, id)
	}
	if m.data != 0 {
		return fmt.Errorf("%w: root material %q has data %d", ErrInvariantViolation, m.name, m.data)
	}
	if current := m.ID(); current != Unregistered {
		return &DuplicateError{Material: m, ID: id, Incumbent: r.slots[current].Load()}
	}

	ctx, span := r.tracer.Start(ctx, "material.Registry.RegisterWithID",
		trace.WithAttributes(attribute.String("material.name", m.name), attribute.Int("material.id", int(id))))
	defer span.End()

	if err := r.store.RegisterWithID(ctx, CanonicalName(m.name), id); err != nil {
		span.RecordError(err)
		r.metrics.conflict()
		r.logger.Warn("Хранилище отклонило %q -> %d: %v", m.name, id, err)
		return &DuplicateError{Material: m, ID: id, Incumbent: r.slots[id].Load(), Err: err}
	}
	return r.claim(m, id)
}

func (r *Registry) registerSub(m *Material) (uint16, error) {
	parent := m.parent
	if !parent.IsRegistered() {
		return 0, fmt.Errorf("%w: parent %q of %q", ErrNotRegistered, parent.name, m.name)
	}
	if err := parent.registerSubMaterial(m); err != nil {
		r.metrics.conflict()
		return 0, err
	}

	r.index(m)
	r.metrics.registered(kindSub)
	r.logger.Debug("Подматериал %q зарегистрирован: %d:%d", m.name, parent.ID(), m.data)
	return uint16(parent.ID()), nil
}

// claim занимает слот id. Выигрывает ровно один из параллельных вызовов.
func (r *Registry) claim(m *Material, id uint16) error {
	if !r.slots[id].CompareAndSwap(nil, m) {
		incumbent := r.slots[id].Load()
		r.metrics.conflict()
		r.logger.Warn("Конфликт регистрации: %q не может занять id %d (занят %q)", m.name, id, incumbent.name)
		return &DuplicateError{Material: m, ID: id, Incumbent: incumbent}
	}

	m.setID(id)
	r.count.Add(1)
	r.index(m)
	r.metrics.registered(kindRoot)
	r.logger.Debug("Материал %q зарегистрирован с id %d", m.name, id)
	return nil
}

// index записывает материал в индекс имен. Выполняется после захвата слота;
// короткое окно, когда id занят, а имя еще не видно, допустимо.
// Занятое имя остается за первым материалом.
func (r *Registry) index(m *Material) {
	r.indexName(CanonicalName(m.name), m)
	if m.displayName != m.name {
		r.indexName(CanonicalName(m.displayName), m)
	}
}

func (r *Registry) indexName(key string, m *Material) {
	if prev, loaded := r.names.LoadOrStore(key, m); loaded && prev.(*Material) != m {
		r.logger.Warn("Имя %q уже занято материалом %s, %s доступен только по id", key, prev.(*Material), m)
	}
}

// Get возвращает корневой материал по идентификатору
func (r *Registry) Get(id int) (*Material, bool) {
	if id < 0 || id >= TableSize {
		r.metrics.miss(lookupID)
		return nil, false
	}
	m := r.slots[id].Load()
	if m == nil {
		r.metrics.miss(lookupID)
		return nil, false
	}
	return m, true
}

// GetState возвращает материал для упакованного состояния, включая
// подматериал, выбранный по данным варианта.
func (r *Registry) GetState(s State) (*Material, bool) {
	root, ok := r.Get(int(s.ID()))
	if !ok {
		return nil, false
	}
	return root.SubMaterial(s.Data()), true
}

// GetByName ищет материал по имени без учета регистра, пробелов и "_"
func (r *Registry) GetByName(name string) (*Material, bool) {
	v, ok := r.names.Load(CanonicalName(name))
	if !ok {
		r.metrics.miss(lookupName)
		return nil, false
	}
	return v.(*Material), true
}

// Values возвращает все зарегистрированные корневые материалы в порядке
// возрастания id. Подматериалы доступны через родителя.
func (r *Registry) Values() []*Material {
	values := make([]*Material, 0, r.count.Load())
	for id := range r.slots {
		if m := r.slots[id].Load(); m != nil {
			values = append(values, m)
		}
	}
	return values
}

// Count возвращает число занятых слотов
func (r *Registry) Count() int {
	return int(r.count.Load())
}

// MinimumDataMask возвращает минимальную маску данных, покрывающую все
// подматериалы корня m. Корень с ненулевыми данными дает ErrInvariantViolation.
func (r *Registry) MinimumDataMask(m *Material) (uint16, error) {
	mask, err := minimumDataMask(m)
	if err != nil {
		r.logger.Error("Нарушен инвариант корневого материала: %v", err)
	}
	return mask, err
}
