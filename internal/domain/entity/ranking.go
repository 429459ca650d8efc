package entity

import "sort"

// RankedPoint точка с местом в рейтинге (нумерация с 1)
type RankedPoint struct {
	Rank int
	TrackedPoint
}

// Ranking итог сессии: лучшие точки и сумма счётчиков всех прошедших фильтр
type Ranking struct {
	Points []RankedPoint
	Total  int
}

// Empty сообщает, что ни одна точка не прошла фильтр
func (r Ranking) Empty() bool {
	return len(r.Points) == 0
}

// Top возвращает лучшую точку рейтинга
func (r Ranking) Top() (RankedPoint, bool) {
	if r.Empty() {
		return RankedPoint{}, false
	}
	return r.Points[0], true
}

// RankTrackedPoints фильтрует точки по minCount, сортирует по убыванию счётчика
// и обрезает до top. При равных счётчиках сохраняется порядок обнаружения.
// Total считается по всем прошедшим фильтр точкам, до обрезки.
func RankTrackedPoints(points []TrackedPoint, minCount, top int) Ranking {
	survivors := FilterByCount(points, minCount)
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Count > survivors[j].Count
	})

	total := 0
	for _, p := range survivors {
		total += p.Count
	}

	if top >= 0 && len(survivors) > top {
		survivors = survivors[:top]
	}

	ranked := make([]RankedPoint, 0, len(survivors))
	for i, p := range survivors {
		ranked = append(ranked, RankedPoint{Rank: i + 1, TrackedPoint: p})
	}

	return Ranking{Points: ranked, Total: total}
}
