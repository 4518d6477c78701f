// Package generator заполняет буферы материалов ландшафтом по шуму Перлина.
package generator

import (
	"fmt"

	"github.com/annel0/voxelcore/internal/cuboid"
	"github.com/annel0/voxelcore/internal/material"
	"github.com/aquilax/go-perlin"
)

// Palette материалы слоев ландшафта. Все должны быть зарегистрированы.
type Palette struct {
	Air   *material.Material
	Stone *material.Material
	Dirt  *material.Material
	Grass *material.Material
	Sand  *material.Material
	Water *material.Material
}

// Generator генерирует ландшафт
type Generator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб шума высоты
	MinHeight  int     // Высота поверхности при шуме 0
	MaxHeight  int     // Высота поверхности при шуме 1
	SeaLevel   int     // Ниже этого уровня пустота заливается водой
	DirtDepth  int     // Толщина слоя земли под поверхностью

	noise *perlin.Perlin
}

// NewGenerator создаёт генератор с настройками по умолчанию
func NewGenerator(seed int64) *Generator {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав

	return &Generator{
		Seed:       seed,
		NoiseScale: 0.05,
		MinHeight:  48,
		MaxHeight:  80,
		SeaLevel:   62,
		DirtDepth:  3,
		noise:      perlin.NewPerlin(alpha, beta, n, seed),
	}
}

// Height высота поверхности столбца (x, z): первый блок воздуха или воды над землей
func (g *Generator) Height(x, z int) int {
	// шум от -1 до 1, переводим в 0..1
	h := (g.noise.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale) + 1.0) / 2.0
	if h < 0 {
		h = 0
	} else if h > 1 {
		h = 1
	}
	return g.MinHeight + int(h*float64(g.MaxHeight-g.MinHeight))
}

// Fill заполняет буфер: камень, земля, поверхность из травы (или песка у
// воды), вода до уровня моря, выше воздух.
func (g *Generator) Fill(buf *cuboid.MaterialBuffer, p Palette) error {
	for _, m := range []*material.Material{p.Air, p.Stone, p.Dirt, p.Grass, p.Sand, p.Water} {
		if m == nil || !m.IsRegistered() {
			return fmt.Errorf("generator: palette material %v: %w", m, material.ErrNotRegistered)
		}
	}

	if err := buf.Flood(p.Air); err != nil {
		return err
	}

	region := buf.Region()
	top := region.Top()
	for x := region.Base.X; x < top.X; x++ {
		for z := region.Base.Z; z < top.Z; z++ {
			height := g.Height(x, z)
			for y := region.Base.Y; y < top.Y; y++ {
				m := g.layer(y, height, p)
				if m == p.Air {
					continue
				}
				if err := buf.SetState(x, y, z, m.State()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// layer материал на высоте y в столбце с поверхностью height
func (g *Generator) layer(y, height int, p Palette) *material.Material {
	surface := height - 1
	switch {
	case y < surface-g.DirtDepth:
		return p.Stone
	case y < surface:
		return p.Dirt
	case y == surface:
		if surface < g.SeaLevel+1 {
			return p.Sand
		}
		return p.Grass
	case y < g.SeaLevel:
		return p.Water
	default:
		return p.Air
	}
}
