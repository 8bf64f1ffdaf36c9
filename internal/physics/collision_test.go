package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/mmo-navgrid/internal/vec"
)

func TestBoxColliderBounds(t *testing.T) {
	c := NewBoxCollider(3, 2)
	lo, hi := c.Bounds(vec.Vec2{X: 5, Y: 5})
	assert.Equal(t, vec.Vec2{X: 4, Y: 4}, lo)
	assert.Equal(t, vec.Vec2{X: 7, Y: 6}, hi)

	assert.True(t, c.Contains(vec.Vec2{X: 5, Y: 5}, vec.Vec2{X: 6, Y: 5}))
	assert.False(t, c.Contains(vec.Vec2{X: 5, Y: 5}, vec.Vec2{X: 7, Y: 5}))

	zero := NewBoxCollider(0, -2)
	assert.Equal(t, 1, zero.Width)
	assert.Equal(t, 1, zero.Height)
}

func TestFootprint(t *testing.T) {
	cells := Footprint(vec.Vec2{X: 1, Y: 1}, NewBoxCollider(2, 2))
	assert.Equal(t, []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, cells)

	assert.Len(t, Footprint(vec.Vec2{}, NewBoxCollider(1, 1)), 1)
}

func TestOverlaps(t *testing.T) {
	a := NewBoxCollider(2, 2)
	b := NewBoxCollider(2, 2)

	assert.True(t, Overlaps(vec.Vec2{X: 0, Y: 0}, a, vec.Vec2{X: 1, Y: 1}, b))
	assert.False(t, Overlaps(vec.Vec2{X: 0, Y: 0}, a, vec.Vec2{X: 2, Y: 0}, b), "touching edges do not overlap")
}

func TestCanMoveToPosition(t *testing.T) {
	wall := vec.Vec2{X: 3, Y: 3}
	free := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < 8 && y < 8 && (vec.Vec2{X: x, Y: y}) != wall
	}

	big := NewBoxCollider(3, 3)
	assert.False(t, CanMoveToPosition(vec.Vec2{X: 4, Y: 4}, big, free))
	assert.True(t, CanMoveToPosition(vec.Vec2{X: 5, Y: 5}, big, free))
	assert.False(t, CanMoveToPosition(vec.Vec2{X: 0, Y: 0}, big, free), "footprint leaves the grid")

	assert.True(t, CanMoveToPosition(vec.Vec2{X: 1, Y: 1}, nil, free))
	assert.False(t, CanMoveToPosition(wall, nil, free))
}
