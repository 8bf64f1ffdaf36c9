package pathfind

import "github.com/annel0/mmo-navgrid/internal/vec"

// Status итог одного поиска
type Status uint8

const (
	StatusFound           Status = iota // Цель извлечена из открытого списка
	StatusInvalidEndpoint               // Старт или цель вне сетки либо непроходимы
	StatusExhausted                     // Открытый список пуст - пути нет
	StatusIterationLimit                // Исчерпан лимит итераций
)

// String возвращает имя статуса (используется как метка метрик)
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusInvalidEndpoint:
		return "invalid_endpoint"
	case StatusExhausted:
		return "exhausted"
	case StatusIterationLimit:
		return "iteration_limit"
	default:
		return "unknown"
	}
}

// Result путь и статистика поиска.
// Costs[i] - gCost ячейки Cells[i], Waypoints[i] - её мировая позиция.
type Result struct {
	Status     Status          `json:"status"`
	Cells      []vec.Vec2      `json:"cells,omitempty"`
	Waypoints  []vec.Vec2Float `json:"waypoints,omitempty"`
	Costs      []float64       `json:"costs,omitempty"`
	TotalCost  float64         `json:"total_cost"`
	Iterations int             `json:"iterations"`
}

// Found сообщает об успешном поиске
func (r Result) Found() bool {
	return r.Status == StatusFound
}
