package material

import (
	"fmt"
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"
)

// Unregistered значение ID() до регистрации материала
const Unregistered = -1

// Material описывает материал вокселя. Корневой материал занимает слот в
// таблице идентификаторов и всегда имеет нулевые данные варианта.
// Подматериал разделяет идентификатор родителя и отличается данными.
type Material struct {
	name        string
	displayName string
	data        uint16
	dataMask    uint16
	lowDataBits bool
	parent      *Material

	id atomic.Int32

	// набор подматериалов публикуется целиком (copy-on-write), чтение без блокировок
	mu   sync.Mutex
	subs atomic.Pointer[map[uint16]*Material]
}

// Option настраивает материал при создании
type Option func(*Material)

// WithDisplayName задает отображаемое имя (по умолчанию совпадает с name)
func WithDisplayName(displayName string) Option {
	return func(m *Material) {
		m.displayName = displayName
	}
}

// WithLowDataBits указывает, что данные вариантов занимают младшие биты,
// и минимальная маска округляется до 2^k-1.
func WithLowDataBits() Option {
	return func(m *Material) {
		m.lowDataBits = true
	}
}

// WithDataMask задает маску, применяемую к данным при поиске подматериала
func WithDataMask(mask uint16) Option {
	return func(m *Material) {
		m.dataMask = mask
	}
}

// WithData задает данные варианта. Для корневого материала допустим только
// ноль; другие значения отвергаются при регистрации и вычислении маски.
func WithData(data uint16) Option {
	return func(m *Material) {
		m.data = data
	}
}

// NewMaterial создает корневой материал
func NewMaterial(name string, opts ...Option) *Material {
	m := &Material{
		name:        name,
		displayName: name,
		dataMask:    dataBits,
	}
	m.id.Store(Unregistered)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewSubMaterial создает подматериал parent с данными data. Если parent сам
// является подматериалом, новый материал привязывается к его корню.
// Флаг младших битов наследуется от родителя.
func NewSubMaterial(name string, parent *Material, data uint16, opts ...Option) *Material {
	root := parent.Root()
	m := &Material{
		name:        name,
		displayName: name,
		data:        data,
		dataMask:    dataBits,
		lowDataBits: root.lowDataBits,
		parent:      root,
	}
	m.id.Store(Unregistered)
	for _, opt := range opts {
		opt(m)
	}
	m.data = data
	return m
}

func (m *Material) Name() string        { return m.name }
func (m *Material) DisplayName() string { return m.displayName }
func (m *Material) Data() uint16        { return m.data }
func (m *Material) Parent() *Material   { return m.parent }
func (m *Material) IsSubMaterial() bool { return m.parent != nil }
func (m *Material) UsesLowDataBits() bool {
	return m.lowDataBits
}

// ID возвращает идентификатор материала или Unregistered.
// Подматериал возвращает идентификатор родителя.
func (m *Material) ID() int {
	if m.parent != nil {
		return m.parent.ID()
	}
	return int(m.id.Load())
}

// IsRegistered сообщает, получил ли материал идентификатор
func (m *Material) IsRegistered() bool {
	return m.ID() != Unregistered
}

// State упаковывает (ID, Data). Для незарегистрированного материала
// результат не имеет смысла, проверяйте IsRegistered.
func (m *Material) State() State {
	return Pack(uint16(m.ID()), m.data)
}

// Root возвращает корневой материал
func (m *Material) Root() *Material {
	root := m
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// SubMaterial находит подматериал корня по данным (с учетом маски корня).
// Если подходящего нет, возвращается корень.
func (m *Material) SubMaterial(data uint16) *Material {
	root := m.Root()

	sub, ok := root.subSet()[data&root.dataMask]
	if ok {
		return sub
	}
	return root
}

// SubMaterials возвращает подматериалы корня, отсортированные по данным
func (m *Material) SubMaterials() []*Material {
	root := m.Root()

	set := root.subSet()
	subs := make([]*Material, 0, len(set))
	for _, sub := range set {
		subs = append(subs, sub)
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].data < subs[j].data })
	return subs
}

func (m *Material) String() string {
	if m.parent != nil {
		return fmt.Sprintf("%s{%d:%d}", m.name, m.ID(), m.data)
	}
	return fmt.Sprintf("%s{%d}", m.name, m.ID())
}

// registerSubMaterial добавляет sub в набор подматериалов корня
func (m *Material) registerSubMaterial(sub *Material) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.subSet()
	if existing, ok := current[sub.data]; ok {
		if existing == sub {
			return nil
		}
		return &DuplicateError{Material: sub, ID: uint16(m.ID()), Incumbent: existing,
			Err: fmt.Errorf("data %d of %q already taken", sub.data, m.name)}
	}

	next := make(map[uint16]*Material, len(current)+1)
	for data, existing := range current {
		next[data] = existing
	}
	next[sub.data] = sub
	m.subs.Store(&next)
	return nil
}

// subSet текущий опубликованный набор подматериалов; не изменять
func (m *Material) subSet() map[uint16]*Material {
	if set := m.subs.Load(); set != nil {
		return *set
	}
	return nil
}

func (m *Material) setID(id uint16) {
	m.id.Store(int32(id))
}

// minimumDataMask вычисляет минимальную маску данных, покрывающую все
// подматериалы корня m.
func minimumDataMask(m *Material) (uint16, error) {
	root := m.Root()
	if root.data != 0 {
		return 0, fmt.Errorf("%w: root material %q has data %d, must be zero", ErrInvariantViolation, root.name, root.data)
	}

	var mask uint16
	for _, sub := range root.subSet() {
		mask |= sub.data
	}

	if m.lowDataBits && mask != 0 {
		mask = uint16(uint32(1)<<bits.Len16(mask) - 1)
	}
	return mask, nil
}
