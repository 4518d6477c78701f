package cuboid

import (
	"fmt"
)

// MaxLight наибольший уровень освещенности
const MaxLight uint8 = 15

// LightBuffer буфер уровней освещенности 0..15 над областью, по байту на
// ячейку. С буферами материалов несовместим.
type LightBuffer struct {
	region Region
	levels []uint8
}

// NewLightBuffer создает темный буфер
func NewLightBuffer(region Region) *LightBuffer {
	return &LightBuffer{region: region, levels: make([]uint8, region.Volume())}
}

func (b *LightBuffer) Region() Region { return b.region }
func (b *LightBuffer) Len() int       { return len(b.levels) }

// Set записывает уровень освещенности
func (b *LightBuffer) Set(x, y, z int, level uint8) error {
	if level > MaxLight {
		return fmt.Errorf("cuboid: light level %d above %d", level, MaxLight)
	}
	i := b.region.Index(x, y, z)
	if i < 0 {
		return fmt.Errorf("%w: (%d, %d, %d) outside %s", ErrOutOfBounds, x, y, z, b.region)
	}
	b.levels[i] = level
	return nil
}

// Get читает уровень освещенности; ok=false вне области
func (b *LightBuffer) Get(x, y, z int) (uint8, bool) {
	i := b.region.Index(x, y, z)
	if i < 0 {
		return 0, false
	}
	return b.levels[i], true
}

// Flood заполняет весь буфер уровнем
func (b *LightBuffer) Flood(level uint8) {
	if level > MaxLight {
		level = MaxLight
	}
	for i := range b.levels {
		b.levels[i] = level
	}
}

// CopyElement копирует run уровней из другого LightBuffer
func (b *LightBuffer) CopyElement(src Buffer, destIndex, srcIndex, run int) error {
	s, ok := src.(*LightBuffer)
	if !ok {
		return fmt.Errorf("%w: %T into light buffer", ErrIncompatibleSource, src)
	}
	if !checkRun(destIndex, run, len(b.levels)) || !checkRun(srcIndex, run, len(s.levels)) {
		return fmt.Errorf("%w: copy run %d from %d to %d", ErrOutOfBounds, run, srcIndex, destIndex)
	}
	copy(b.levels[destIndex:destIndex+run], s.levels[srcIndex:srcIndex+run])
	return nil
}
