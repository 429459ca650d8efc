package entity

// Point координата в пикселях полного кадра
type Point struct {
	X int
	Y int
}

// FrameSize размер кадра в пикселях
type FrameSize struct {
	Width  int
	Height int
}

// Valid сообщает, что обе стороны кадра положительны
func (s FrameSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect прямоугольная область кадра
type Rect struct {
	X      int // координата X левого верхнего угла
	Y      int // координата Y левого верхнего угла
	Width  int // ширина области в пикселях
	Height int // высота области в пикселях
}

// Origin возвращает левый верхний угол области
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center возвращает координаты центра области
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// CenteredRect строит область размером width×height с центром в точке c
func CenteredRect(c Point, width, height int) Rect {
	return Rect{X: c.X - width/2, Y: c.Y - height/2, Width: width, Height: height}
}

// Empty сообщает, что у области нет площади
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Clamp обрезает область по границам кадра.
// Результат может оказаться пустым, если область целиком вне кадра.
func (r Rect) Clamp(size FrameSize) Rect {
	x0 := maxInt(r.X, 0)
	y0 := maxInt(r.Y, 0)
	x1 := minInt(r.X+r.Width, size.Width)
	y1 := minInt(r.Y+r.Height, size.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
