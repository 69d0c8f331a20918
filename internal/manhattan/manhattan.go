// Package manhattan converts arbitrary closed polygons into orthogonal
// ("Manhattan") polygons snapped to a fabrication grid.
//
// The transform is pure: it takes a ring, a grid size and a bias mode and
// returns a new ring, with no shared state. Diagonal edges are decomposed
// into staircases of grid-sized steps; the corner chosen at each step is
// biased outward (Grow) or inward (Shrink) relative to an interior
// reference point, so the orthogonalized boundary is a superset or subset
// of the snapped shape. A cleanup pass then removes the collinear vertices
// the staircase introduces.
package manhattan

import (
	"fmt"
	"math"

	"github.com/litho-tools/maskprep/internal/geom"
)

// InteriorPointFunc picks the reference point used to decide which side of
// a diagonal edge is "inside". The default is geom.Centroid, the vertex
// arithmetic mean: cheap and stable, but for highly concave polygons the
// mean can fall outside the boundary, in which case the grow/shrink bias
// of edges facing the excursion is not guaranteed. This matches the
// behaviour of previously fabricated masks and is deliberately not
// "fixed"; supply a custom strategy if a shape needs one.
type InteriorPointFunc func(geom.Ring) geom.Point

// Manhattanize converts ring into an orthogonal polygon on the given grid
// using the default interior-point strategy. See ManhattanizeWith.
func Manhattanize(ring geom.Ring, grid float64, mode Mode) (geom.Ring, error) {
	return ManhattanizeWith(ring, grid, mode, geom.Centroid)
}

// ManhattanizeWith converts ring into an orthogonal polygon snapped to
// grid, biased per mode, using interior to resolve staircase corners.
//
// The returned ring is closed and contains no three consecutive collinear
// vertices. For Grow and Shrink every edge is axis-aligned; SnapOnly only
// snaps coordinates and leaves diagonal edges in place.
func ManhattanizeWith(ring geom.Ring, grid float64, mode Mode, interior InteriorPointFunc) (geom.Ring, error) {
	if mode != Grow && mode != Shrink && mode != SnapOnly {
		return nil, &InvalidModeError{Mode: mode}
	}
	if grid <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %v", grid)
	}
	if len(ring) < 3 {
		return nil, &DegeneratePolygonError{Distinct: len(ring)}
	}
	if interior == nil {
		interior = geom.Centroid
	}

	snapped := geom.Snap(ring, grid)
	if n := geom.DistinctCount(snapped, grid/2); n < 3 {
		return nil, &DegeneratePolygonError{Distinct: n}
	}
	if mode == SnapOnly {
		return geom.Cleanup(snapped), nil
	}

	// Snapped coordinates are multiples of grid, so any nonzero delta is
	// at least one grid unit; half a grid separates zero from nonzero.
	axisEps := grid / 2
	ref := interior(snapped)

	out := make(geom.Ring, 0, 4*len(snapped))
	for i := 0; i+1 < len(snapped); i++ {
		cur, next := snapped[i], snapped[i+1]
		out = append(out, cur)
		dx, dy := next.X-cur.X, next.Y-cur.Y
		if math.Abs(dx) <= axisEps || math.Abs(dy) <= axisEps {
			continue // already axis-aligned
		}
		out = append(out, staircase(cur, next, grid, mode, ref)...)
	}
	out = append(out, snapped[len(snapped)-1])

	clean := geom.Cleanup(out.Close())
	if !geom.IsOrthogonal(clean, axisEps) {
		return nil, fmt.Errorf("internal: %s manhattanization left a non-orthogonal edge", mode)
	}
	return clean, nil
}

// staircase decomposes the diagonal edge cur→next into grid-unit steps,
// returning the intermediate corner and step-end vertices (excluding cur
// and next themselves). The number of steps comes from the smaller of the
// two deltas, so the minor axis advances exactly one grid unit per step.
func staircase(cur, next geom.Point, grid float64, mode Mode, ref geom.Point) []geom.Point {
	dx, dy := next.X-cur.X, next.Y-cur.Y
	minor := math.Min(math.Abs(dx), math.Abs(dy))
	steps := int(math.Round(minor / grid))
	if steps < 1 {
		steps = 1
	}
	step := geom.Point{X: dx / float64(steps), Y: dy / float64(steps)}

	// A step's x-first corner (advance x, then y) sits on the side of the
	// step vector given by the sign of cross(step, rightward)·step.X; the
	// interior sits on the side given by cross(step, ref-p). When the two
	// agree the x-first corner cuts into the shape, so Grow takes the
	// y-first corner instead.
	right := geom.Point{X: 1}
	cornerSide := step.Cross(right) * step.X

	verts := make([]geom.Point, 0, 2*steps)
	p := cur
	for s := 0; s < steps; s++ {
		interiorSide := step.Cross(ref.Sub(p))
		xFirst := (cornerSide > 0) == (interiorSide > 0)
		if mode == Grow {
			xFirst = !xFirst
		}
		end := geom.Point{X: p.X + step.X, Y: p.Y + step.Y}
		if s == steps-1 {
			end = next // avoid accumulated rounding drift on the last step
		}
		if xFirst {
			verts = append(verts, geom.Point{X: end.X, Y: p.Y})
		} else {
			verts = append(verts, geom.Point{X: p.X, Y: end.Y})
		}
		if s < steps-1 {
			verts = append(verts, end)
		}
		p = end
	}
	return verts
}
