package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoise2D_DeterministicAndBounded(t *testing.T) {
	a := NewNoise2D(42)
	b := NewNoise2D(42)

	for y := 0.0; y < 5; y += 0.37 {
		for x := 0.0; x < 5; x += 0.41 {
			va := a.Sample(x, y)
			assert.Equal(t, va, b.Sample(x, y), "одинаковый сид должен давать одинаковый шум")
			assert.GreaterOrEqual(t, va, 0.0)
			assert.LessOrEqual(t, va, 1.0)
		}
	}
	assert.Equal(t, int64(42), a.Seed())
}
