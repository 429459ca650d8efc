package entity

// Candidate одно наблюдение движения на кадре до определения идентичности
type Candidate struct {
	X     int     // координата X (в координатах области или кадра)
	Y     int     // координата Y
	Area  float64 // площадь контура
	Frame int     // номер кадра в сессии
}

// Position возвращает координату кандидата
func (c Candidate) Position() Point {
	return Point{X: c.X, Y: c.Y}
}

// Translate переводит кандидата из координат области в координаты кадра
func (c Candidate) Translate(origin Point) Candidate {
	c.X += origin.X
	c.Y += origin.Y
	return c
}

// AreaRange допустимый диапазон площади контура
type AreaRange struct {
	Lower float64
	Upper float64
}

// Contains проверяет, что площадь строго внутри диапазона
func (r AreaRange) Contains(area float64) bool {
	return area > r.Lower && area < r.Upper
}
