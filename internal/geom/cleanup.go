package geom

import "math"

// Tolerances for the cleanup pass. The collinearity test scales with the
// magnitude of the edge deltas so that long edges do not fail the test on
// accumulated floating-point error; CoincidentTol is the floor below which
// two vertices are merged.
const (
	CoincidentTol   = 1e-9
	CollinearRelTol = 1e-9
)

// coincident reports whether a and b are within CoincidentTol of each other
// in both coordinates.
func coincident(a, b Point) bool {
	return math.Abs(a.X-b.X) <= CoincidentTol && math.Abs(a.Y-b.Y) <= CoincidentTol
}

// collinear reports whether b lies on the line through a and c, within a
// tolerance relative to the edge lengths. The cross product of (b-a) and
// (c-a) grows with the product of the two edge lengths, so the threshold
// scales with it rather than using an absolute epsilon alone.
func collinear(a, b, c Point) bool {
	ab := b.Sub(a)
	ac := c.Sub(a)
	scale := math.Hypot(ab.X, ab.Y) * math.Hypot(ac.X, ac.Y)
	return math.Abs(ab.Cross(ac)) <= CoincidentTol+CollinearRelTol*scale
}

// Cleanup removes coincident and collinear vertices from the ring,
// re-scanning until a full pass makes no removals (a fixed point: running
// Cleanup twice yields the same result as running it once). The returned
// ring is closed. Rings that collapse below three vertices are returned
// as-is, closed; callers decide whether that is an error.
func Cleanup(r Ring) Ring {
	v := append(Ring(nil), r.open()...)
	for {
		removed := false
		i := 0
		for len(v) >= 3 && i < len(v) {
			prev := v[(i+len(v)-1)%len(v)]
			next := v[(i+1)%len(v)]
			if coincident(v[i], next) || collinear(prev, v[i], next) {
				v = append(v[:i], v[i+1:]...)
				removed = true
				continue
			}
			i++
		}
		if !removed {
			break
		}
	}
	return v.Close()
}
