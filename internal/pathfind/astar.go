// Package pathfind реализует A* по сетке тайлов с ограничением числа итераций.
//
// Узлы поиска живут в арене (срез node) и ссылаются на родителя по индексу,
// поэтому ни один узел не переживает вызов Search. Открытый список - двоичная
// куча без decrease-key: при улучшении gCost узел кладётся в кучу повторно,
// и в ней одновременно могут лежать несколько записей для одной позиции.
// Устаревшие записи отбрасываются при извлечении по закрытому множеству,
// а не при вставке.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/vec"
)

const (
	// DefaultMaxIterations используется, если в запросе лимит <= 0
	DefaultMaxIterations = 10000

	// UnreachableCost стоимость, начиная с которой ячейка считается непроходимой.
	// +Inf и NaN тоже отсекаются этой проверкой.
	UnreachableCost = 1e9
)

// Graph слой сетки, по которому идёт поиск
type Graph interface {
	Width() int
	Height() int
	Projection() projection.Projection
	IsNavigable(x, y int) bool
	TraversalCost(x, y int) float64
}

// CostBounded необязательное расширение Graph: нижняя граница стоимости
// входа в любую проходимую ячейку
type CostBounded interface {
	MinTraversalCost() float64
}

// Request параметры одного поиска
type Request struct {
	Start         vec.Vec2
	Goal          vec.Vec2
	MaxIterations int
}

type node struct {
	pos    vec.Vec2
	g      float64
	h      float64
	parent int32 // -1 у стартового узла
}

// Searcher переиспользуемое состояние поиска.
// Не потокобезопасен: одному вызову - один Searcher.
type Searcher struct {
	nodes  []node
	open   openList
	closed map[int]struct{}
	best   map[int]int32
	seq    uint64
	nbuf   []vec.Vec2
}

// NewSearcher создаёт пустое состояние поиска
func NewSearcher() *Searcher {
	return &Searcher{
		closed: make(map[int]struct{}, 256),
		best:   make(map[int]int32, 256),
		nbuf:   make([]vec.Vec2, 0, 6),
	}
}

// Reset освобождает все узлы, сохраняя ёмкость буферов
func (s *Searcher) Reset() {
	s.nodes = s.nodes[:0]
	s.open = s.open[:0]
	clear(s.closed)
	clear(s.best)
	s.seq = 0
}

// Search выполняет A* на новом Searcher
func Search(g Graph, req Request) Result {
	return NewSearcher().Search(g, req)
}

// Search ищет путь от req.Start до req.Goal.
//
// Эвристика проекции считает шаги и допустима при стоимостях >= 1.
// Если граф реализует CostBounded и сообщает минимум меньше 1,
// эвристика умножается на этот минимум (при нуле поиск вырождается в Дейкстру).
func (s *Searcher) Search(g Graph, req Request) Result {
	s.Reset()
	defer s.Reset()

	maxIterations := req.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	start, goal := req.Start, req.Goal
	if !g.IsNavigable(start.X, start.Y) || !g.IsNavigable(goal.X, goal.Y) {
		return Result{Status: StatusInvalidEndpoint}
	}

	proj := g.Projection()
	if start == goal {
		return Result{
			Status:    StatusFound,
			Cells:     []vec.Vec2{start},
			Waypoints: []vec.Vec2Float{proj.GridToWorld(start)},
			Costs:     []float64{0},
		}
	}

	width, height := g.Width(), g.Height()

	hScale := 1.0
	if cb, ok := g.(CostBounded); ok {
		if m := cb.MinTraversalCost(); m < 1 {
			hScale = math.Max(m, 0)
		}
	}

	root := s.alloc(start, 0, hScale*proj.Heuristic(start, goal), -1)
	s.best[start.Index(width)] = root
	s.push(root)

	iterations := 0
	for len(s.open) > 0 {
		if iterations >= maxIterations {
			return Result{Status: StatusIterationLimit, Iterations: iterations}
		}
		iterations++

		entry := heap.Pop(&s.open).(openEntry)
		cur := s.nodes[entry.node]
		curKey := cur.pos.Index(width)

		// Устаревшая запись: позиция уже закрыта более дешёвым путём
		if _, done := s.closed[curKey]; done {
			continue
		}
		s.closed[curKey] = struct{}{}

		if cur.pos == goal {
			res := s.reconstruct(proj, entry.node)
			res.Iterations = iterations
			return res
		}

		s.nbuf = proj.AppendNeighbors(s.nbuf[:0], cur.pos)
		for _, nb := range s.nbuf {
			if nb.X < 0 || nb.Y < 0 || nb.X >= width || nb.Y >= height {
				continue
			}
			if !g.IsNavigable(nb.X, nb.Y) {
				continue
			}
			nbKey := nb.Index(width)
			if _, done := s.closed[nbKey]; done {
				continue
			}

			cost := g.TraversalCost(nb.X, nb.Y)
			if !(cost >= 0 && cost < UnreachableCost) {
				continue
			}
			tentative := cur.g + cost

			if idx, seen := s.best[nbKey]; seen {
				if tentative >= s.nodes[idx].g {
					continue
				}
				s.nodes[idx].g = tentative
				s.nodes[idx].parent = entry.node
				s.push(idx)
				continue
			}

			idx := s.alloc(nb, tentative, hScale*proj.Heuristic(nb, goal), entry.node)
			s.best[nbKey] = idx
			s.push(idx)
		}
	}

	return Result{Status: StatusExhausted, Iterations: iterations}
}

func (s *Searcher) alloc(pos vec.Vec2, g, h float64, parent int32) int32 {
	s.nodes = append(s.nodes, node{pos: pos, g: g, h: h, parent: parent})
	return int32(len(s.nodes) - 1)
}

func (s *Searcher) push(idx int32) {
	n := s.nodes[idx]
	heap.Push(&s.open, openEntry{f: n.g + n.h, h: n.h, seq: s.seq, node: idx})
	s.seq++
}

// reconstruct проходит по родителям от цели к старту и разворачивает путь
func (s *Searcher) reconstruct(proj projection.Projection, goal int32) Result {
	length := 0
	for i := goal; i >= 0; i = s.nodes[i].parent {
		length++
	}

	res := Result{
		Status:    StatusFound,
		Cells:     make([]vec.Vec2, length),
		Waypoints: make([]vec.Vec2Float, length),
		Costs:     make([]float64, length),
		TotalCost: s.nodes[goal].g,
	}

	pos := length - 1
	for i := goal; i >= 0; i = s.nodes[i].parent {
		n := s.nodes[i]
		res.Cells[pos] = n.pos
		res.Waypoints[pos] = proj.GridToWorld(n.pos)
		res.Costs[pos] = n.g
		pos--
	}
	return res
}
