package viewport

import "math"

// Point is a position or a 2D vector
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Bounds describes the scrollable content and the visible viewport
type Bounds struct {
	ContentWidth   float64
	ContentHeight  float64
	ViewportWidth  float64
	ViewportHeight float64
}

// Max returns the largest valid scroll offset
func (b Bounds) Max() Point {
	return Point{
		X: math.Max(0, b.ContentWidth-b.ViewportWidth),
		Y: math.Max(0, b.ContentHeight-b.ViewportHeight),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
