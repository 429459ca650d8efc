package app

import (
	"drip-station/internal/domain/entity"
)

// DefaultTolerance допуск совпадения точек по каждой оси, в пикселях
const DefaultTolerance = 1

// NoMatch возвращается Match, если совпадения нет
const NoMatch = -1

// Resolver сопоставляет новое наблюдение с уже известными точками
type Resolver struct {
	Tolerance int
}

// NewResolver создаёт резолвер; отрицательный допуск заменяется значением по умолчанию
func NewResolver(tolerance int) *Resolver {
	if tolerance < 0 {
		tolerance = DefaultTolerance
	}
	return &Resolver{Tolerance: tolerance}
}

// Match возвращает индекс первой точки, у которой обе разницы координат
// не превышают допуск, либо NoMatch. Порядок списка определяет приоритет.
func (r *Resolver) Match(p entity.Point, existing []entity.TrackedPoint) int {
	for i, e := range existing {
		if absInt(e.X-p.X) <= r.Tolerance && absInt(e.Y-p.Y) <= r.Tolerance {
			return i
		}
	}
	return NoMatch
}

// Resolve возвращает координаты совпавшей точки
func (r *Resolver) Resolve(p entity.Point, existing []entity.TrackedPoint) (entity.Point, bool) {
	i := r.Match(p, existing)
	if i == NoMatch {
		return entity.Point{}, false
	}
	return existing[i].Point, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
