package cuboid

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/material"
	"github.com/annel0/voxelcore/internal/vec"
)

// MaterialBuffer изменяемый буфер упакованных состояний над областью.
// Массивы id и data всегда читаются и пишутся парой по одному индексу.
//
// Буфер не синхронизирован: писатель в каждый момент один. Для
// согласованного чтения во время записи используйте BackBuffer или Snapshot.
type MaterialBuffer struct {
	region Region
	id     []uint16
	data   []uint16
	back   *MaterialSnapshot
}

type bufferOptions struct {
	backBuffer bool
}

// BufferOption настраивает создание буфера
type BufferOption func(*bufferOptions)

// WithBackBuffer снимает неизменяемую копию содержимого при создании
func WithBackBuffer() BufferOption {
	return func(o *bufferOptions) {
		o.backBuffer = true
	}
}

// NewMaterialBuffer создает буфер, заполненный нулевым состоянием
func NewMaterialBuffer(region Region, opts ...BufferOption) *MaterialBuffer {
	n := region.Volume()
	return newMaterialBuffer(region, make([]uint16, n), make([]uint16, n), opts)
}

// NewMaterialBufferFromArrays оборачивает готовые массивы без копирования
func NewMaterialBufferFromArrays(region Region, id, data []uint16, opts ...BufferOption) (*MaterialBuffer, error) {
	n := region.Volume()
	if len(id) != n || len(data) != n {
		return nil, fmt.Errorf("%w: region %s needs %d, got id=%d data=%d", ErrSizeMismatch, region, n, len(id), len(data))
	}
	return newMaterialBuffer(region, id, data, opts), nil
}

// CloneMaterialBuffer копирует область и содержимое другого буфера
func CloneMaterialBuffer(src View, opts ...BufferOption) *MaterialBuffer {
	region := src.Region()
	n := region.Volume()
	id, data := make([]uint16, n), make([]uint16, n)

	if srcID, srcData, ok := materialArrays(src); ok {
		copy(id, srcID)
		copy(data, srcData)
	} else {
		for i := 0; i < n; i++ {
			x, y, z := region.Coords(i)
			id[i], data[i], _ = src.Get(x, y, z)
		}
	}
	return newMaterialBuffer(region, id, data, opts)
}

// NewMaterialBufferFloat создает буфер над наименьшей целочисленной
// областью, содержащей вещественную область.
func NewMaterialBufferFloat(base, size vec.Vec3Float, opts ...BufferOption) (*MaterialBuffer, error) {
	region, err := EnclosingRegion(base, size)
	if err != nil {
		return nil, err
	}
	return NewMaterialBuffer(region, opts...), nil
}

func newMaterialBuffer(region Region, id, data []uint16, opts []BufferOption) *MaterialBuffer {
	var o bufferOptions
	for _, opt := range opts {
		opt(&o)
	}

	b := &MaterialBuffer{region: region, id: id, data: data}
	if o.backBuffer {
		b.back = b.Snapshot()
	}
	return b
}

func (b *MaterialBuffer) Region() Region { return b.region }
func (b *MaterialBuffer) Len() int       { return len(b.id) }

// Index линейный индекс ячейки или -1
func (b *MaterialBuffer) Index(x, y, z int) int {
	return b.region.Index(x, y, z)
}

// Set записывает состояние зарегистрированного материала
func (b *MaterialBuffer) Set(x, y, z int, m *material.Material) error {
	if !m.IsRegistered() {
		return fmt.Errorf("cuboid: set %s: %w", m.Name(), material.ErrNotRegistered)
	}
	return b.SetRaw(x, y, z, uint16(m.ID()), m.Data())
}

// SetState записывает упакованное состояние
func (b *MaterialBuffer) SetState(x, y, z int, s material.State) error {
	return b.SetRaw(x, y, z, s.ID(), s.Data())
}

// SetRaw записывает пару (id, data)
func (b *MaterialBuffer) SetRaw(x, y, z int, id, data uint16) error {
	i := b.region.Index(x, y, z)
	if i < 0 {
		return fmt.Errorf("%w: (%d, %d, %d) outside %s", ErrOutOfBounds, x, y, z, b.region)
	}
	b.id[i] = id
	b.data[i] = data
	return nil
}

// Get читает пару (id, data); ok=false вне области
func (b *MaterialBuffer) Get(x, y, z int) (id, data uint16, ok bool) {
	i := b.region.Index(x, y, z)
	if i < 0 {
		return 0, 0, false
	}
	return b.id[i], b.data[i], true
}

// State читает упакованное состояние
func (b *MaterialBuffer) State(x, y, z int) (material.State, bool) {
	id, data, ok := b.Get(x, y, z)
	return material.Pack(id, data), ok
}

// Flood заполняет весь буфер материалом
func (b *MaterialBuffer) Flood(m *material.Material) error {
	if !m.IsRegistered() {
		return fmt.Errorf("cuboid: flood %s: %w", m.Name(), material.ErrNotRegistered)
	}
	b.FloodRaw(uint16(m.ID()), m.Data())
	return nil
}

// FloodRaw заполняет весь буфер парой (id, data)
func (b *MaterialBuffer) FloodRaw(id, data uint16) {
	for i := range b.id {
		b.id[i] = id
		b.data[i] = data
	}
}

// CopyElement копирует run подряд идущих состояний из src, начиная с
// srcIndex, в этот буфер, начиная с destIndex. src должен быть буфером
// материалов (*MaterialBuffer или *MaterialSnapshot), иначе
// ErrIncompatibleSource. Перекрывающиеся отрезки одного буфера допустимы.
func (b *MaterialBuffer) CopyElement(src Buffer, destIndex, srcIndex, run int) error {
	srcID, srcData, ok := materialArrays(src)
	if !ok {
		return fmt.Errorf("%w: %T into material buffer", ErrIncompatibleSource, src)
	}
	if !checkRun(destIndex, run, len(b.id)) || !checkRun(srcIndex, run, len(srcID)) {
		return fmt.Errorf("%w: copy run %d from %d to %d", ErrOutOfBounds, run, srcIndex, destIndex)
	}
	copy(b.id[destIndex:destIndex+run], srcID[srcIndex:srcIndex+run])
	copy(b.data[destIndex:destIndex+run], srcData[srcIndex:srcIndex+run])
	return nil
}

// RawID общий с буфером массив идентификаторов. Длину менять нельзя,
// запись допустима только вместе с RawData по тем же индексам.
func (b *MaterialBuffer) RawID() []uint16 { return b.id }

// RawData общий с буфером массив данных вариантов
func (b *MaterialBuffer) RawData() []uint16 { return b.data }

// BackBuffer снимок, сделанный при создании, или сам буфер, если снимок
// не запрашивался.
func (b *MaterialBuffer) BackBuffer() View {
	if b.back != nil {
		return b.back
	}
	return b
}

// HasBackBuffer сообщает, был ли снят снимок при создании
func (b *MaterialBuffer) HasBackBuffer() bool {
	return b.back != nil
}

// Snapshot новая неизменяемая копия текущего содержимого
func (b *MaterialBuffer) Snapshot() *MaterialSnapshot {
	s := &MaterialSnapshot{
		region: b.region,
		id:     make([]uint16, len(b.id)),
		data:   make([]uint16, len(b.data)),
	}
	copy(s.id, b.id)
	copy(s.data, b.data)
	return s
}
