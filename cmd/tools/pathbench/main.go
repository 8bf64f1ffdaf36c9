package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/annel0/mmo-navgrid/internal/navigation"
	"github.com/annel0/mmo-navgrid/internal/pathfind"
	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/vec"
	"github.com/annel0/mmo-navgrid/internal/world"
)

func main() {
	var (
		width      = flag.Int("width", 256, "Grid width in cells")
		height     = flag.Int("height", 256, "Grid height in cells")
		kindName   = flag.String("projection", "orthogonal", "Projection: orthogonal, isometric, hex")
		searches   = flag.Int("n", 1000, "Number of random searches")
		seed       = flag.Int64("seed", 42, "Seed for start/goal sampling and the cost generator")
		maxIter    = flag.Int("max-iterations", pathfind.DefaultMaxIterations, "Iteration budget per search")
		noise      = flag.Bool("noise", true, "Seed traversal costs from perlin noise")
		blockLevel = flag.Float64("block", 0.78, "Noise level that blocks a cell (0 disables)")
	)
	flag.Parse()

	kind, err := projection.ParseKind(*kindName)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	grid := world.NewGrid()
	if err := grid.Initialize(world.GridOptions{
		Width:      *width,
		Height:     *height,
		Projection: kind,
		CellW:      32,
		CellH:      32,
		Layers:     1,
	}); err != nil {
		log.Fatalf("❌ Ошибка инициализации сетки: %v", err)
	}

	if *noise {
		gen := world.NewCostGenerator(*seed)
		gen.BlockThreshold = *blockLevel
		blocked := gen.Apply(grid, world.LayerGround)
		fmt.Printf("grid %dx%d %s, blocked cells: %d\n", *width, *height, kind, blocked)
	}

	nav := navigation.New(grid, navigation.WithSeed(*seed))
	report := run(nav, *searches, *maxIter, rand.New(rand.NewSource(*seed)))
	report.print(os.Stdout)
}

type benchReport struct {
	total      int
	byStatus   map[pathfind.Status]int
	iterations int
	elapsed    time.Duration
	latencies  []time.Duration
}

func run(nav *navigation.Navigator, n, maxIter int, rng *rand.Rand) benchReport {
	grid := nav.Grid()
	r := benchReport{byStatus: make(map[pathfind.Status]int), latencies: make([]time.Duration, 0, n)}

	ctx := context.Background()
	for i := 0; i < n; i++ {
		req := navigation.PathRequest{
			Start:         vec.Vec2{X: rng.Intn(grid.Width()), Y: rng.Intn(grid.Height())},
			Goal:          vec.Vec2{X: rng.Intn(grid.Width()), Y: rng.Intn(grid.Height())},
			Layer:         world.LayerGround,
			MaxIterations: maxIter,
		}

		start := time.Now()
		res := nav.FindPathContext(ctx, req)
		d := time.Since(start)

		r.total++
		r.byStatus[res.Status]++
		r.iterations += res.Iterations
		r.elapsed += d
		r.latencies = append(r.latencies, d)
	}
	return r
}

func (r benchReport) print(w io.Writer) {
	if r.total == 0 {
		fmt.Fprintln(w, "no searches")
		return
	}
	sort.Slice(r.latencies, func(i, j int) bool { return r.latencies[i] < r.latencies[j] })

	fmt.Fprintf(w, "searches: %d\n", r.total)
	statuses := []pathfind.Status{pathfind.StatusFound, pathfind.StatusInvalidEndpoint, pathfind.StatusExhausted, pathfind.StatusIterationLimit}
	for _, s := range statuses {
		fmt.Fprintf(w, "  %-18s %d\n", s.String()+":", r.byStatus[s])
	}
	fmt.Fprintf(w, "mean iterations: %.1f\n", float64(r.iterations)/float64(r.total))
	fmt.Fprintf(w, "mean latency:    %s\n", r.elapsed/time.Duration(r.total))
	fmt.Fprintf(w, "p50 / p99:       %s / %s\n", percentile(r.latencies, 0.50), percentile(r.latencies, 0.99))
	fmt.Fprintln(w, strings.Repeat("-", 32))
}

// percentile ожидает отсортированный срез
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
