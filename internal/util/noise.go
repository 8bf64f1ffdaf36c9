package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество октав
)

// Noise2D детерминированный генератор шума Перлина для одного сида.
// Не потокобезопасен.
type Noise2D struct {
	seed  int64
	noise *perlin.Perlin
}

// NewNoise2D создаёт генератор шума с указанным сидом
func NewNoise2D(seed int64) *Noise2D {
	return &Noise2D{
		seed:  seed,
		noise: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (n *Noise2D) Seed() int64 {
	return n.seed
}

// Sample возвращает значение шума для координат в диапазоне [0, 1]
func (n *Noise2D) Sample(x, y float64) float64 {
	// Значение шума примерно в [-1, 1]
	v := (n.noise.Noise2D(x, y) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
