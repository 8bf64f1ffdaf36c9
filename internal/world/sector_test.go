package world

import (
	"testing"

	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectors_RegisterLoadUnload(t *testing.T) {
	g := newTestGrid(t, 64, 64, 1, projection.Orthogonal)
	rev := g.Revision()

	g.RegisterSector(0, 0, 32, 32)
	g.RegisterSector(32, 0, 32, 32)

	s, ok := g.SectorAt(32, 0)
	require.True(t, ok)
	assert.Equal(t, Sector{X: 32, Y: 0, Width: 32, Height: 32}, s)

	require.True(t, g.LoadSector(32, 0))
	s, _ = g.SectorAt(32, 0)
	assert.True(t, s.Loaded)
	assert.True(t, s.Active)

	other, _ := g.SectorAt(0, 0)
	assert.False(t, other.Loaded, "загрузка одного сектора не трогает другие")

	require.True(t, g.UnloadSector(32, 0))
	s, _ = g.SectorAt(32, 0)
	assert.False(t, s.Loaded)
	assert.False(t, s.Active)

	assert.False(t, g.LoadSector(7, 7), "неизвестный сектор")
	assert.Equal(t, rev, g.Revision(), "сектора не меняют тайлы")

	// Тайлы не затрагиваются
	rec, _ := g.GetTilePropertiesLayer(40, 10, LayerGround)
	assert.True(t, rec.Navigable)
}

func TestSectors_DuplicatesAreKept(t *testing.T) {
	g := newTestGrid(t, 8, 8, 1, projection.Orthogonal)

	g.RegisterSector(1, 1, 4, 4)
	g.RegisterSector(1, 1, 2, 2)

	sectors := g.Sectors()
	require.Len(t, sectors, 2)
	assert.Equal(t, 4, sectors[0].Width)
	assert.Equal(t, 2, sectors[1].Width)

	s, _ := g.SectorAt(1, 1)
	assert.Equal(t, 4, s.Width, "SectorAt возвращает первую регистрацию")

	require.True(t, g.LoadSector(1, 1))
	for _, s := range g.Sectors() {
		assert.True(t, s.Loaded)
	}
}

func TestSectors_ObserverReceivesSector(t *testing.T) {
	g := newTestGrid(t, 8, 8, 1, projection.Orthogonal)

	var got []GridEvent
	g.SetObserver(func(ev GridEvent) { got = append(got, ev) })

	g.RegisterSector(2, 3, 4, 4)
	g.LoadSector(2, 3)
	g.UnloadSector(2, 3)
	g.UnloadSector(9, 9)

	require.Len(t, got, 3)
	assert.Equal(t, EventSectorRegistered, got[0].Type)
	assert.Equal(t, EventSectorLoaded, got[1].Type)
	assert.True(t, got[1].Sector.Loaded)
	assert.Equal(t, EventSectorUnloaded, got[2].Type)
	assert.Equal(t, "sector.unloaded", got[2].Type.String())
}
