// Package cuboid содержит буферы состояний над прямоугольными 3D-областями.
package cuboid

import (
	"errors"
	"fmt"
	"math"

	"github.com/annel0/voxelcore/internal/vec"
)

// Ошибки буферов
var (
	ErrOutOfBounds        = errors.New("cuboid: coordinate out of bounds")
	ErrIncompatibleSource = errors.New("cuboid: incompatible source buffer")
	ErrSizeMismatch       = errors.New("cuboid: array length does not match region volume")
	ErrNegativeSize       = errors.New("cuboid: negative region size")
	ErrRegionTooLarge     = errors.New("cuboid: region volume overflows int")
)

// Region прямоугольная область: базовая точка и размеры по осям.
// Точка внутри, если смещение от Base по каждой оси лежит в [0, Size).
type Region struct {
	Base vec.Vec3
	Size vec.Vec3
}

// NewRegion создает область. Размеры неотрицательны, объем и верхняя
// граница Base+Size помещаются в int.
func NewRegion(base, size vec.Vec3) (Region, error) {
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return Region{}, fmt.Errorf("%w: %s", ErrNegativeSize, size)
	}

	if size.X != 0 && size.Y != 0 && size.Z != 0 {
		volume := 1
		for _, n := range []int{size.X, size.Y, size.Z} {
			if volume > math.MaxInt/n {
				return Region{}, fmt.Errorf("%w: %s", ErrRegionTooLarge, size)
			}
			volume *= n
		}
	}
	for _, axis := range [][2]int{{base.X, size.X}, {base.Y, size.Y}, {base.Z, size.Z}} {
		if axis[0] > 0 && axis[1] > math.MaxInt-axis[0] {
			return Region{}, fmt.Errorf("%w: %s + %s", ErrRegionTooLarge, base, size)
		}
	}
	return Region{Base: base, Size: size}, nil
}

// EnclosingRegion наименьшая целочисленная область, содержащая
// вещественную область [base, base+size).
func EnclosingRegion(base, size vec.Vec3Float) (Region, error) {
	lo := base.Floor()
	hi := base.Add(size).Ceil()
	return NewRegion(lo, hi.Sub(lo))
}

// Volume количество ячеек
func (r Region) Volume() int {
	return r.Size.X * r.Size.Y * r.Size.Z
}

// Top точка сразу за областью (не включается)
func (r Region) Top() vec.Vec3 {
	return r.Base.Add(r.Size)
}

// Contains сообщает, лежит ли точка внутри области
func (r Region) Contains(x, y, z int) bool {
	return r.Index(x, y, z) >= 0
}

// Index линейный индекс ячейки или -1, если точка вне области.
// X меняется быстрее всего, затем Z, затем Y.
func (r Region) Index(x, y, z int) int {
	dx, dy, dz := x-r.Base.X, y-r.Base.Y, z-r.Base.Z
	if dx < 0 || dx >= r.Size.X || dy < 0 || dy >= r.Size.Y || dz < 0 || dz >= r.Size.Z {
		return -1
	}
	return (dy*r.Size.Z+dz)*r.Size.X + dx
}

// Coords обратное преобразование индекса в мировые координаты
func (r Region) Coords(i int) (x, y, z int) {
	x = i % r.Size.X
	i /= r.Size.X
	z = i % r.Size.Z
	y = i / r.Size.Z
	return r.Base.X + x, r.Base.Y + y, r.Base.Z + z
}

// Intersect пересечение двух областей; false, если оно пусто
func (r Region) Intersect(other Region) (Region, bool) {
	lo := r.Base.Max(other.Base)
	hi := r.Top().Min(other.Top())
	if lo.X >= hi.X || lo.Y >= hi.Y || lo.Z >= hi.Z {
		return Region{}, false
	}
	return Region{Base: lo, Size: hi.Sub(lo)}, true
}

func (r Region) String() string {
	return fmt.Sprintf("%s+%s", r.Base, r.Size)
}
