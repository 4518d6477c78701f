// Package defaults содержит стандартный набор материалов мира.
package defaults

import (
	"context"
	"fmt"

	"github.com/annel0/voxelcore/internal/material"
)

// AirID закрепленный идентификатор воздуха
const AirID uint16 = 0

// WoolColors цвета шерсти в порядке данных варианта (0 = белая шерсть = сам корень)
var WoolColors = []string{
	"white", "orange", "magenta", "light_blue", "yellow", "lime", "pink", "gray",
	"light_gray", "cyan", "purple", "blue", "brown", "green", "red", "black",
}

// Set стандартные материалы. Материал регистрируется один раз, поэтому
// каждому реестру нужен свой Set.
type Set struct {
	Air   *material.Material
	Stone *material.Material
	Dirt  *material.Material
	Grass *material.Material
	Sand  *material.Material
	Water *material.Material
	Wool  *material.Material

	// WoolColors цветные варианты шерсти, данные 1..15
	WoolColors []*material.Material
}

// New создает незарегистрированный набор
func New() *Set {
	s := &Set{
		Air:   material.NewMaterial("air"),
		Stone: material.NewMaterial("stone"),
		Dirt:  material.NewMaterial("dirt"),
		Grass: material.NewMaterial("grass", material.WithDisplayName("Grass Block")),
		Sand:  material.NewMaterial("sand"),
		Water: material.NewMaterial("water"),
		Wool:  material.NewMaterial("wool", material.WithLowDataBits()),
	}
	for data := 1; data < len(WoolColors); data++ {
		name := WoolColors[data] + "_wool"
		s.WoolColors = append(s.WoolColors, material.NewSubMaterial(name, s.Wool, uint16(data)))
	}
	return s
}

// Roots корневые материалы, кроме воздуха, в порядке регистрации
func (s *Set) Roots() []*material.Material {
	return []*material.Material{s.Stone, s.Dirt, s.Grass, s.Sand, s.Water, s.Wool}
}

// Register регистрирует воздух с id 0, затем корни и варианты шерсти
func (s *Set) Register(ctx context.Context, r *material.Registry) error {
	if err := r.RegisterWithID(ctx, s.Air, AirID); err != nil {
		return fmt.Errorf("register air: %w", err)
	}
	for _, m := range s.Roots() {
		if _, err := r.Register(ctx, m); err != nil {
			return fmt.Errorf("register %s: %w", m.Name(), err)
		}
	}
	for _, sub := range s.WoolColors {
		if _, err := r.Register(ctx, sub); err != nil {
			return fmt.Errorf("register %s: %w", sub.Name(), err)
		}
	}
	return nil
}

// RegisterDefaults создает стандартный набор и регистрирует его в r
func RegisterDefaults(ctx context.Context, r *material.Registry) (*Set, error) {
	s := New()
	if err := s.Register(ctx, r); err != nil {
		return nil, err
	}
	return s, nil
}
