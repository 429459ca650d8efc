package entity

// TrackedPoint дедуплицированная точка капли со счётчиком появлений
type TrackedPoint struct {
	Point
	Count int // сколько раз точка была замечена, всегда >= 1
}

// NewTrackedPoint регистрирует новую точку с первым появлением
func NewTrackedPoint(p Point) TrackedPoint {
	return TrackedPoint{Point: p, Count: 1}
}

// FilterByCount оставляет точки со счётчиком строго больше minCount, порядок сохраняется
func FilterByCount(points []TrackedPoint, minCount int) []TrackedPoint {
	out := make([]TrackedPoint, 0, len(points))
	for _, p := range points {
		if p.Count > minCount {
			out = append(out, p)
		}
	}
	return out
}
