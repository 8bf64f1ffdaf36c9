package pathfind

// openEntry запись открытого списка. Узел хранится по индексу в арене.
type openEntry struct {
	f    float64
	h    float64
	seq  uint64
	node int32
}

// openList реализует heap.Interface.
// Порядок: меньший fCost, затем меньший hCost, затем более ранняя вставка.
type openList []openEntry

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	a, b := o[i], o[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (o openList) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openList) Push(x any) {
	*o = append(*o, x.(openEntry))
}

func (o *openList) Pop() any {
	old := *o
	n := len(old)
	e := old[n-1]
	*o = old[:n-1]
	return e
}
