package cuboid

import (
	"github.com/annel0/voxelcore/internal/material"
)

// MaterialSnapshot неизменяемая копия буфера материалов. После создания не
// меняется, поэтому читать можно из любого числа горутин без блокировок.
type MaterialSnapshot struct {
	region Region
	id     []uint16
	data   []uint16
}

func (s *MaterialSnapshot) Region() Region { return s.region }
func (s *MaterialSnapshot) Len() int       { return len(s.id) }

// Index линейный индекс ячейки или -1
func (s *MaterialSnapshot) Index(x, y, z int) int {
	return s.region.Index(x, y, z)
}

// Get читает пару (id, data); ok=false вне области
func (s *MaterialSnapshot) Get(x, y, z int) (id, data uint16, ok bool) {
	i := s.region.Index(x, y, z)
	if i < 0 {
		return 0, 0, false
	}
	return s.id[i], s.data[i], true
}

// State читает упакованное состояние
func (s *MaterialSnapshot) State(x, y, z int) (material.State, bool) {
	id, data, ok := s.Get(x, y, z)
	return material.Pack(id, data), ok
}
