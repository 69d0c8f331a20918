// Package geom provides the 2D primitives shared by the manhattanization
// and GDSII export stages: points, closed rings, grid snapping, area and
// centroid computation, and degenerate-vertex cleanup.
//
// Coordinate convention: X increases to the right, Y increases up the page.
// All coordinates are user units (typically microns); quantization to
// database units happens later, in the GDSII encoder.
package geom

import "math"

// Point is a 2D coordinate in user units.
type Point struct {
	X float64
	Y float64
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns the translation of p by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Cross returns the z component of the cross product p × q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Ring is an ordered vertex list describing a closed polygon boundary.
// A ring is closed when its first and last vertex are equal; rings that
// are not explicitly closed are treated as implicitly closed.
type Ring []Point

// IsClosed reports whether the ring's first and last vertex coincide.
func (r Ring) IsClosed() bool {
	if len(r) < 2 {
		return false
	}
	return r[0] == r[len(r)-1]
}

// Close returns r with a closing copy of the first vertex appended if the
// ring is not already closed. Rings shorter than two vertices are returned
// unchanged.
func (r Ring) Close() Ring {
	if len(r) < 2 || r.IsClosed() {
		return r
	}
	return append(r, r[0])
}

// open returns the ring without its duplicate closing vertex.
func (r Ring) open() Ring {
	if r.IsClosed() {
		return r[:len(r)-1]
	}
	return r
}

// SnapValue rounds v to the nearest multiple of grid. Ties round half away
// from zero (math.Round semantics): SnapValue(0.5, 1) == 1 and
// SnapValue(-0.5, 1) == -1. The tie-break is deterministic and covered by
// tests; callers must not rely on banker's rounding.
func SnapValue(v, grid float64) float64 {
	return math.Round(v/grid) * grid
}

// Snap returns a copy of r with every coordinate snapped to the nearest
// multiple of grid, closed if the snapped endpoints no longer coincide.
func Snap(r Ring, grid float64) Ring {
	out := make(Ring, 0, len(r)+1)
	for _, p := range r {
		out = append(out, Point{X: SnapValue(p.X, grid), Y: SnapValue(p.Y, grid)})
	}
	return out.Close()
}

// Area returns the signed shoelace area of the ring: positive for
// counter-clockwise winding, negative for clockwise.
func Area(r Ring) float64 {
	v := r.open()
	if len(v) < 3 {
		return 0
	}
	sum := 0.0
	for i := range v {
		j := (i + 1) % len(v)
		sum += v[i].X*v[j].Y - v[j].X*v[i].Y
	}
	return sum / 2
}

// Centroid returns the arithmetic mean of the ring's vertices (the closing
// duplicate excluded). This is an approximation of an interior point: it is
// not guaranteed to lie inside highly concave polygons. The manhattanizer
// uses it as its default interior reference and documents the limitation.
func Centroid(r Ring) Point {
	v := r.open()
	if len(v) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range v {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(v))
	return Point{X: sx / n, Y: sy / n}
}

// IsOrthogonal reports whether every edge of the ring (wrapping around) is
// axis-aligned: for each consecutive vertex pair either |dx| <= eps or
// |dy| <= eps. Zero-length edges count as orthogonal.
func IsOrthogonal(r Ring, eps float64) bool {
	v := r.open()
	for i := range v {
		j := (i + 1) % len(v)
		dx := math.Abs(v[j].X - v[i].X)
		dy := math.Abs(v[j].Y - v[i].Y)
		if dx > eps && dy > eps {
			return false
		}
	}
	return true
}

// DistinctCount returns the number of vertices in r that differ from every
// earlier vertex by more than eps in either coordinate. Used to detect
// degenerate (all-coincident) input after snapping.
func DistinctCount(r Ring, eps float64) int {
	v := r.open()
	n := 0
	for i, p := range v {
		dup := false
		for _, q := range v[:i] {
			if math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps {
				dup = true
				break
			}
		}
		if !dup {
			n++
		}
	}
	return n
}
