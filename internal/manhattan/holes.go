package manhattan

import (
	"fmt"

	"github.com/litho-tools/maskprep/internal/geom"
)

// Polygon is a simple polygon with holes: one outer boundary and zero or
// more inner rings fully contained by it. Boolean decomposition into this
// form is the caller's job (see the dataprep package).
type Polygon struct {
	Outer geom.Ring
	Holes []geom.Ring
}

// holeMode returns the bias applied to inner rings for a given outer
// bias. Growing the filled area means shrinking its voids and vice
// versa; SnapOnly applies uniformly.
func holeMode(mode Mode) Mode {
	switch mode {
	case Grow:
		return Shrink
	case Shrink:
		return Grow
	default:
		return mode
	}
}

// ManhattanizePolygon orthogonalizes a polygon-with-holes. The mode
// biases the filled area as a whole: Grow orthogonalizes the outer ring
// outward and every hole inward, so the result covers at least the
// snapped original; Shrink inverts both biases; SnapOnly snaps every
// ring without orthogonalizing.
func ManhattanizePolygon(p Polygon, grid float64, mode Mode) (Polygon, error) {
	outer, err := Manhattanize(p.Outer, grid, mode)
	if err != nil {
		return Polygon{}, fmt.Errorf("outer ring: %w", err)
	}
	out := Polygon{Outer: outer}
	hm := holeMode(mode)
	for i, h := range p.Holes {
		inner, err := Manhattanize(h, grid, hm)
		if err != nil {
			return Polygon{}, fmt.Errorf("hole %d: %w", i, err)
		}
		out.Holes = append(out.Holes, inner)
	}
	return out, nil
}
