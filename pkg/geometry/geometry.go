// Package geometry provides the integer point, size and region arithmetic
// used to map between the stripe, frame and tile grids of a slide level.
//
// Division truncates toward zero, matching what the grid math expects for
// the non-negative coordinates used throughout. CeilDiv variants round up
// and are used when a region must be over-covered.
package geometry

import "fmt"

// Point is a coordinate on an integer lattice. Depending on context one
// unit is one pixel, one tile or one stripe.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Add returns the point translated by another point.
func (p Point) Add(v Point) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// AddSize returns the point translated by a size.
func (p Point) AddSize(s Size) Point {
	return Point{X: p.X + s.Width, Y: p.Y + s.Height}
}

// Sub returns the difference of two points.
func (p Point) Sub(v Point) Point {
	return Point{X: p.X - v.X, Y: p.Y - v.Y}
}

// Mul returns the point scaled by an integer factor.
func (p Point) Mul(factor int) Point {
	return Point{X: factor * p.X, Y: factor * p.Y}
}

// MulSize returns the point scaled componentwise by a size. This is the
// tile-coordinate to pixel-coordinate mapping.
func (p Point) MulSize(s Size) Point {
	return Point{X: p.X * s.Width, Y: p.Y * s.Height}
}

// Div returns the point divided componentwise by a size, truncated
// toward zero.
func (p Point) Div(s Size) Point {
	return Point{X: p.X / s.Width, Y: p.Y / s.Height}
}

// CeilDiv returns the point divided componentwise by a size, rounded up.
func (p Point) CeilDiv(s Size) Point {
	return Point{X: ceilDiv(p.X, s.Width), Y: ceilDiv(p.Y, s.Height)}
}

// Mod returns the point reduced componentwise modulo a size.
func (p Point) Mod(s Size) Point {
	return Point{X: p.X % s.Width, Y: p.Y % s.Height}
}

// MaxPoint returns the componentwise maximum of two points.
func MaxPoint(a, b Point) Point {
	return Point{X: max(a.X, b.X), Y: max(a.Y, b.Y)}
}

// MinPoint returns the componentwise minimum of two points.
func MinPoint(a, b Point) Point {
	return Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
}

// Size is a non-negative integer extent.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Add returns the size grown by an integer in both dimensions.
func (s Size) Add(v int) Size {
	return Size{Width: s.Width + v, Height: s.Height + v}
}

// Mul returns the size scaled by an integer factor.
func (s Size) Mul(factor int) Size {
	return Size{Width: factor * s.Width, Height: factor * s.Height}
}

// MulSize returns the size scaled componentwise by another size.
func (s Size) MulSize(v Size) Size {
	return Size{Width: s.Width * v.Width, Height: s.Height * v.Height}
}

// Div returns the size divided componentwise by another size, truncated
// toward zero.
func (s Size) Div(v Size) Size {
	return Size{Width: s.Width / v.Width, Height: s.Height / v.Height}
}

// CeilDiv returns the size divided componentwise, rounded up.
func (s Size) CeilDiv(v Size) Size {
	return Size{
		Width:  ceilDiv(s.Width, v.Width),
		Height: ceilDiv(s.Height, v.Height),
	}
}

// Area returns width times height.
func (s Size) Area() int {
	return s.Width * s.Height
}

// ToPoint reinterprets the size as a point offset from the origin.
func (s Size) ToPoint() Point {
	return Point{X: s.Width, Y: s.Height}
}

// MaxSize returns the componentwise maximum of two sizes.
func MaxSize(a, b Size) Size {
	return Size{Width: max(a.Width, b.Width), Height: max(a.Height, b.Height)}
}

// Region is a half-open rectangle [Start, End) on the lattice.
type Region struct {
	Position Point
	Size     Size
}

func (r Region) String() string {
	return fmt.Sprintf("from %v to %v", r.Start(), r.End())
}

// Start returns the inclusive top-left corner.
func (r Region) Start() Point {
	return r.Position
}

// End returns the exclusive bottom-right corner.
func (r Region) End() Point {
	return r.Position.AddSize(r.Size)
}

// Box returns start x, start y, end x, end y.
func (r Region) Box() (int, int, int, int) {
	return r.Start().X, r.Start().Y, r.End().X, r.End().Y
}

// RegionFromPoints returns the region spanning two corner points.
func RegionFromPoints(start, end Point) Region {
	return Region{
		Position: start,
		Size:     Size{Width: end.X - start.X, Height: end.Y - start.Y},
	}
}

// IterateAll returns every lattice point in the region in row-major
// order (y outer, x inner). The stitch logic relies on this order for
// contiguous restart-marker numbering. With includeEnd the exclusive
// boundary row and column are included as well.
func (r Region) IterateAll(includeEnd bool) []Point {
	offset := 0
	if includeEnd {
		offset = 1
	}
	points := make([]Point, 0, (r.Size.Height+offset)*(r.Size.Width+offset))
	for y := r.Start().Y; y < r.End().Y+offset; y++ {
		for x := r.Start().X; x < r.End().X+offset; x++ {
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points
}

// Contains reports whether the region fully contains another region.
func (r Region) Contains(inner Region) bool {
	return inner.Start().X >= r.Start().X &&
		inner.Start().Y >= r.Start().Y &&
		inner.End().X <= r.End().X &&
		inner.End().Y <= r.End().Y
}

// Crop returns the intersection of the region with another, clamped to
// this region's bounds.
func (r Region) Crop(other Region) Region {
	start := MinPoint(MaxPoint(other.Position, r.Position), r.End())
	end := MaxPoint(MinPoint(other.End(), r.End()), r.Position)
	return RegionFromPoints(start, end)
}

// ceilDiv rounds the quotient up for non-negative operands.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
