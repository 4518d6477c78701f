package cuboid

import (
	"github.com/annel0/voxelcore/internal/material"
)

// Buffer любой буфер над областью
type Buffer interface {
	Region() Region
	Len() int
}

// View чтение состояний материалов
type View interface {
	Buffer
	Get(x, y, z int) (id, data uint16, ok bool)
	State(x, y, z int) (material.State, bool)
}

// Target буфер, принимающий блочное копирование
type Target interface {
	Buffer
	CopyElement(src Buffer, destIndex, srcIndex, run int) error
}

// materialArrays возвращает массивы id/data для буферов материалов
func materialArrays(b Buffer) (id, data []uint16, ok bool) {
	switch s := b.(type) {
	case *MaterialBuffer:
		return s.id, s.data, true
	case *MaterialSnapshot:
		return s.id, s.data, true
	}
	return nil, nil, false
}

// checkRun проверяет, что отрезок [start, start+run) лежит в массиве длины n
func checkRun(start, run, n int) bool {
	return start >= 0 && run >= 0 && start <= n-run
}
