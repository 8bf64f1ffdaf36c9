package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// collect подписывается на bus и собирает события в канал
func collect(t *testing.T, bus EventBus, f Filter) <-chan *Envelope {
	t.Helper()
	ch := make(chan *Envelope, 64)
	_, err := bus.Subscribe(context.Background(), f, func(ctx context.Context, ev *Envelope) {
		ch <- ev
	})
	require.NoError(t, err)
	return ch
}

func receive(t *testing.T, ch <-chan *Envelope, n int) []*Envelope {
	t.Helper()
	out := make([]*Envelope, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("received %d of %d events", len(out), n)
		}
	}
	return out
}

func TestMemoryBusFilters(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()

	all := collect(t, bus, Filter{})
	sectors := collect(t, bus, Filter{Types: []string{"sector.loaded"}})

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &Envelope{ID: "1", EventType: "grid.cleared", Source: "a"}))
	require.NoError(t, bus.Publish(ctx, &Envelope{ID: "2", EventType: "sector.loaded", Source: "a"}))

	got := receive(t, all, 2)
	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{"1", "2"}, ids)

	only := receive(t, sectors, 1)
	assert.Equal(t, "2", only[0].ID)

	select {
	case ev := <-sectors:
		t.Fatalf("unexpected event %s", ev.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBusCloseDrainsBuffer(t *testing.T) {
	bus := NewMemoryBus(8)

	var mu sync.Mutex
	seen := 0
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		mu.Lock()
		seen++
		mu.Unlock()
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "grid.cleared", Priority: 9}))
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	assert.Equal(t, 5, seen)
	mu.Unlock()

	stats := bus.Metrics()
	assert.Equal(t, uint64(5), stats.Published)
	assert.Equal(t, uint64(5), stats.Consumed)

	assert.ErrorIs(t, bus.Publish(context.Background(), &Envelope{}), ErrBusClosed)
	_, err = bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {})
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.NoError(t, bus.Close())
}

func TestUnsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	defer bus.Close()

	ch := make(chan *Envelope, 4)
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) { ch <- ev })
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "x"}))
	select {
	case <-ch:
		t.Fatal("handler called after Unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGridObserverPublishesSectorEvents(t *testing.T) {
	bus := NewMemoryBus(16)
	defer bus.Close()
	ch := collect(t, bus, Filter{Sources: []string{"navgrid-test"}})

	g := world.NewGrid()
	g.SetObserver(GridObserver(bus, "navgrid-test"))
	require.NoError(t, g.Initialize(world.GridOptions{
		Width: 4, Height: 4, Projection: projection.HexAxial, CellW: 10, CellH: 10, Layers: 1,
	}))
	g.RegisterSector(0, 0, 2, 2)
	require.True(t, g.LoadSector(0, 0))

	events := receive(t, ch, 3)
	byType := make(map[string]*Envelope)
	for _, env := range events {
		byType[env.EventType] = env
		assert.NotEmpty(t, env.ID)
		assert.Equal(t, GridEventVersion, env.Version)
	}

	initEnv, ok := byType["grid.initialized"]
	require.True(t, ok)
	assert.Equal(t, 7, initEnv.Priority)
	ev, err := DecodeGridEvent(initEnv)
	require.NoError(t, err)
	assert.Equal(t, world.EventGridInitialized, ev.Type)
	assert.Equal(t, projection.HexAxial, ev.Projection)
	assert.Equal(t, 4, ev.Width)

	loaded, ok := byType["sector.loaded"]
	require.True(t, ok)
	ev, err = DecodeGridEvent(loaded)
	require.NoError(t, err)
	require.NotNil(t, ev.Sector)
	assert.True(t, ev.Sector.Loaded)
	assert.True(t, ev.Sector.Active)
	assert.Equal(t, 2, ev.Sector.Width)
}

func TestDecodeGridEventRejectsUnknownType(t *testing.T) {
	_, err := DecodeGridEvent(&Envelope{EventType: "chat.message", Payload: []byte("{}")})
	assert.Error(t, err)

	_, err = DecodeGridEvent(&Envelope{EventType: "grid.cleared", Payload: []byte("{")})
	assert.Error(t, err)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "navgrid.sector.loaded", subjectFor("navgrid", "sector.loaded"))
	assert.Equal(t, "navgrid.>", subjectFor("navgrid", ""))
}

type fixedStatsBus struct {
	EventBus
	stats Stats
}

func (b *fixedStatsBus) Metrics() Stats { return b.stats }

func TestMetricsExporterCollect(t *testing.T) {
	bus := &fixedStatsBus{stats: Stats{Published: 4, Consumed: 3, Dropped: 1, InFlight: 2}}
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	me.Collect()
	bus.stats = Stats{Published: 10, Consumed: 9, Dropped: 1, InFlight: 0}
	me.Collect()

	assert.Equal(t, 10.0, testutil.ToFloat64(me.published))
	assert.Equal(t, 9.0, testutil.ToFloat64(me.consumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(me.dropped))
	assert.Equal(t, 0.0, testutil.ToFloat64(me.inflight))

	me.Start(10 * time.Millisecond)
	me.Stop()
	me.Stop()
}
