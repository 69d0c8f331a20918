package manhattan

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litho-tools/maskprep/internal/geom"
	"github.com/litho-tools/maskprep/internal/testutil"
)

func TestManhattanizeDiamondGrow(t *testing.T) {
	// 45°-rotated square: every edge diagonal, area 200.
	got, err := Manhattanize(testutil.Diamond(), 1, Grow)
	require.NoError(t, err)

	assert.True(t, got.IsClosed(), "output ring must be closed")
	assert.True(t, geom.IsOrthogonal(got, 0.5), "grow output must be orthogonal")

	snapArea := math.Abs(geom.Area(geom.Snap(testutil.Diamond(), 1)))
	growArea := math.Abs(geom.Area(got))
	assert.GreaterOrEqual(t, growArea, snapArea,
		"grow must not lose area (snap %v, grow %v)", snapArea, growArea)
	assert.GreaterOrEqual(t, growArea, 200.0)
}

func TestManhattanizeDiamondShrink(t *testing.T) {
	got, err := Manhattanize(testutil.Diamond(), 1, Shrink)
	require.NoError(t, err)

	assert.True(t, geom.IsOrthogonal(got, 0.5), "shrink output must be orthogonal")

	snapArea := math.Abs(geom.Area(geom.Snap(testutil.Diamond(), 1)))
	shrinkArea := math.Abs(geom.Area(got))
	assert.LessOrEqual(t, shrinkArea, snapArea,
		"shrink must not gain area (snap %v, shrink %v)", snapArea, shrinkArea)
	assert.Greater(t, shrinkArea, 0.0)
}

func TestAreaMonotonicity(t *testing.T) {
	// area(grow) >= area(snap) >= area(shrink) for convex fixtures.
	fixtures := []struct {
		name string
		ring geom.Ring
		grid float64
	}{
		{"diamond", testutil.Diamond(), 1},
		{"diamond fine grid", testutil.Diamond(), 0.5},
		{"triangle", geom.Ring{{X: 0, Y: 0}, {X: 7.3, Y: 0.2}, {X: 3.1, Y: 5.9}}, 0.5},
		{"skewed quad", geom.Ring{{X: 0, Y: 0}, {X: 8.2, Y: 1.1}, {X: 9, Y: 6.4}, {X: 1.3, Y: 7}}, 0.25},
	}
	for _, tc := range fixtures {
		t.Run(tc.name, func(t *testing.T) {
			grow, err := Manhattanize(tc.ring, tc.grid, Grow)
			require.NoError(t, err)
			shrink, err := Manhattanize(tc.ring, tc.grid, Shrink)
			require.NoError(t, err)
			snapArea := math.Abs(geom.Area(geom.Snap(tc.ring, tc.grid)))

			growArea := math.Abs(geom.Area(grow))
			shrinkArea := math.Abs(geom.Area(shrink))
			assert.GreaterOrEqual(t, growArea, snapArea-1e-9)
			assert.LessOrEqual(t, shrinkArea, snapArea+1e-9)
		})
	}
}

func TestManhattanizeKeepsOrthogonalInput(t *testing.T) {
	rect := testutil.UnitSquare(10)
	got, err := Manhattanize(rect, 1, Grow)
	require.NoError(t, err)
	if diff := cmp.Diff(rect, got); diff != "" {
		t.Errorf("orthogonal input changed (-want +got):\n%s", diff)
	}
}

func TestManhattanizeSnapOnly(t *testing.T) {
	t.Run("leaves diagonals in place", func(t *testing.T) {
		got, err := Manhattanize(testutil.Diamond(), 1, SnapOnly)
		require.NoError(t, err)
		assert.False(t, geom.IsOrthogonal(got, 0.5), "snap-only must not orthogonalize")
		assert.True(t, got.IsClosed())
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := Manhattanize(geom.Ring{{X: 0.3, Y: 0.4}, {X: 9.7, Y: 0.1}, {X: 5.2, Y: 8.6}}, 1, SnapOnly)
		require.NoError(t, err)
		twice, err := Manhattanize(once, 1, SnapOnly)
		require.NoError(t, err)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("snap-only not idempotent (-once +twice):\n%s", diff)
		}
	})
}

func TestManhattanizeNoCollinearRuns(t *testing.T) {
	got, err := Manhattanize(testutil.Diamond(), 1, Grow)
	require.NoError(t, err)
	v := got[:len(got)-1]
	require.GreaterOrEqual(t, len(v), 4)
	for i := range v {
		a := v[(i+len(v)-1)%len(v)]
		b := v[i]
		c := v[(i+1)%len(v)]
		ab := b.Sub(a)
		ac := c.Sub(a)
		assert.NotZero(t, ab.Cross(ac), "vertices %v %v %v are collinear", a, b, c)
	}
}

func TestManhattanizeErrors(t *testing.T) {
	t.Run("invalid mode", func(t *testing.T) {
		_, err := Manhattanize(testutil.Diamond(), 1, Mode(42))
		var modeErr *InvalidModeError
		require.ErrorAs(t, err, &modeErr)
	})

	t.Run("coincident points", func(t *testing.T) {
		r := geom.Ring{{X: 1.1, Y: 1.1}, {X: 1.1, Y: 1.1}, {X: 1.1, Y: 1.1}}
		_, err := Manhattanize(r, 1, Grow)
		var degErr *DegeneratePolygonError
		require.ErrorAs(t, err, &degErr)
	})

	t.Run("collapses under snapping", func(t *testing.T) {
		// Distinct inputs, but all within half a grid of the origin.
		r := geom.Ring{{X: 0, Y: 0}, {X: 0.1, Y: 0}, {X: 0, Y: 0.1}}
		_, err := Manhattanize(r, 1, Grow)
		var degErr *DegeneratePolygonError
		require.ErrorAs(t, err, &degErr)
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := Manhattanize(geom.Ring{{X: 0, Y: 0}, {X: 1, Y: 1}}, 1, Grow)
		require.Error(t, err)
	})

	t.Run("non-positive grid", func(t *testing.T) {
		_, err := Manhattanize(testutil.Diamond(), 0, Grow)
		require.Error(t, err)
		_, err = Manhattanize(testutil.Diamond(), -1, Grow)
		require.Error(t, err)
	})
}

func TestManhattanizeWithCustomInterior(t *testing.T) {
	// A strategy that pins the reference point still produces orthogonal
	// closed output; only the corner bias may differ.
	fixed := func(geom.Ring) geom.Point { return geom.Point{X: 10, Y: 0} }
	got, err := ManhattanizeWith(testutil.Diamond(), 1, Grow, fixed)
	require.NoError(t, err)
	assert.True(t, geom.IsOrthogonal(got, 0.5))
	assert.True(t, got.IsClosed())
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"grow", Grow, true},
		{"inc", Grow, true},
		{"shrink", Shrink, true},
		{"dec", Shrink, true},
		{"snap", SnapOnly, true},
		{"non", SnapOnly, true},
		{"bogus", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.ok {
			assert.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			var modeErr *InvalidModeError
			assert.True(t, errors.As(err, &modeErr), "ParseMode(%q) error type", tc.in)
		}
	}
}

func TestManhattanizePolygonHoles(t *testing.T) {
	outer := testutil.UnitSquare(20)
	hole := geom.Ring{{X: 5, Y: 10}, {X: 10, Y: 15}, {X: 15, Y: 10}, {X: 10, Y: 5}}
	got, err := ManhattanizePolygon(Polygon{Outer: outer, Holes: []geom.Ring{hole}}, 1, Grow)
	require.NoError(t, err)

	assert.True(t, geom.IsOrthogonal(got.Outer, 0.5))
	require.Len(t, got.Holes, 1)
	assert.True(t, geom.IsOrthogonal(got.Holes[0], 0.5))

	// Outer grown, hole shrunk: net area must not fall below the snapped
	// original's net area.
	holeSnapArea := math.Abs(geom.Area(geom.Snap(hole, 1)))
	assert.GreaterOrEqual(t, math.Abs(geom.Area(got.Outer)), 400.0-1e-9)
	assert.LessOrEqual(t, math.Abs(geom.Area(got.Holes[0])), holeSnapArea+1e-9)
}

func TestManhattanizePolygonShrink(t *testing.T) {
	outer := testutil.UnitSquare(20)
	hole := geom.Ring{{X: 5, Y: 10}, {X: 10, Y: 15}, {X: 15, Y: 10}, {X: 10, Y: 5}}
	got, err := ManhattanizePolygon(Polygon{Outer: outer, Holes: []geom.Ring{hole}}, 1, Shrink)
	require.NoError(t, err)

	// Shrink inverts both biases: outer at most the snapped area, hole at
	// least it.
	holeSnapArea := math.Abs(geom.Area(geom.Snap(hole, 1)))
	assert.LessOrEqual(t, math.Abs(geom.Area(got.Outer)), 400.0+1e-9)
	require.Len(t, got.Holes, 1)
	assert.GreaterOrEqual(t, math.Abs(geom.Area(got.Holes[0])), holeSnapArea-1e-9)
}

func TestManhattanizePolygonSnapOnly(t *testing.T) {
	outer := testutil.UnitSquare(20)
	hole := geom.Ring{{X: 5, Y: 10}, {X: 10, Y: 15}, {X: 15, Y: 10}, {X: 10, Y: 5}}
	got, err := ManhattanizePolygon(Polygon{Outer: outer, Holes: []geom.Ring{hole}}, 1, SnapOnly)
	require.NoError(t, err)

	// Diagonal hole edges survive a snap-only pass.
	require.Len(t, got.Holes, 1)
	assert.False(t, geom.IsOrthogonal(got.Holes[0], 0.5))
	assert.InDelta(t, math.Abs(geom.Area(geom.Snap(hole, 1))), math.Abs(geom.Area(got.Holes[0])), 1e-9)
}

func TestManhattanizePolygonBadHole(t *testing.T) {
	outer := testutil.UnitSquare(20)
	bad := geom.Ring{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}
	_, err := ManhattanizePolygon(Polygon{Outer: outer, Holes: []geom.Ring{bad}}, 1, Grow)
	var degErr *DegeneratePolygonError
	require.ErrorAs(t, err, &degErr)
}
