// Package dataprep prepares drawn layout geometry for mask export. Raw
// polygons on each layer are boolean-merged into disjoint
// polygons-with-holes (delegated to the clipper library), then
// manhattanized on the fabrication grid. The bias is configurable per
// layer; the grow default keeps outer boundaries grown and holes shrunk.
package dataprep

import (
	"fmt"
	"math"
	"sort"

	clipper "github.com/ctessum/go.clipper"

	"github.com/litho-tools/maskprep/internal/geom"
	"github.com/litho-tools/maskprep/internal/manhattan"
)

// coordScale converts user-unit floats into clipper's integer coordinate
// space. 1e4 gives 0.1nm resolution for micron coordinates, well below
// any fabrication grid.
const coordScale = 1e4

// LayerKey identifies a drawing layer: the GDSII layer number plus the
// purpose (datatype) number.
type LayerKey struct {
	Layer   int16
	Purpose int16
}

func (k LayerKey) String() string {
	return fmt.Sprintf("%d/%d", k.Layer, k.Purpose)
}

// ParseLayerKey parses the "layer/purpose" form used by job configs,
// e.g. "10/0".
func ParseLayerKey(s string) (LayerKey, error) {
	var k LayerKey
	if _, err := fmt.Sscanf(s, "%d/%d", &k.Layer, &k.Purpose); err != nil {
		return LayerKey{}, fmt.Errorf("invalid layer key %q (want layer/purpose): %w", s, err)
	}
	return k, nil
}

// Modes selects the manhattanization bias per layer. The zero value
// applies Grow everywhere.
type Modes struct {
	Default  manhattan.Mode
	PerLayer map[LayerKey]manhattan.Mode
}

// For returns the mode for a layer: the per-layer override if present,
// otherwise the default.
func (m Modes) For(k LayerKey) manhattan.Mode {
	if mode, ok := m.PerLayer[k]; ok {
		return mode
	}
	return m.Default
}

// toClipperPath scales a ring into clipper integer space, dropping the
// closing duplicate vertex (clipper treats paths as implicitly closed).
func toClipperPath(r geom.Ring) clipper.Path {
	if r.IsClosed() {
		r = r[:len(r)-1]
	}
	p := make(clipper.Path, 0, len(r))
	for _, pt := range r {
		p = append(p, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X * coordScale)),
			Y: clipper.CInt(math.Round(pt.Y * coordScale)),
		})
	}
	return p
}

// fromClipperPath converts a clipper path back to a closed ring in user
// units.
func fromClipperPath(p clipper.Path) geom.Ring {
	r := make(geom.Ring, 0, len(p)+1)
	for _, pt := range p {
		r = append(r, geom.Point{
			X: float64(pt.X) / coordScale,
			Y: float64(pt.Y) / coordScale,
		})
	}
	return r.Close()
}

// Merge unions the given rings into disjoint polygons-with-holes. Rings
// may overlap, abut or be nested arbitrarily; the result's outer rings
// are disjoint and each hole is fully contained by its outer ring.
func Merge(rings []geom.Ring) ([]manhattan.Polygon, error) {
	if len(rings) == 0 {
		return nil, nil
	}
	subject := clipper.NewPaths()
	for i, r := range rings {
		p := toClipperPath(r)
		if len(p) < 3 {
			return nil, fmt.Errorf("ring %d has fewer than 3 vertices", i)
		}
		subject = append(subject, p)
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPaths(subject, clipper.PtSubject, true)
	tree, ok := c.Execute2(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil, fmt.Errorf("clipper union failed on %d rings", len(rings))
	}

	var polys []manhattan.Polygon
	collectPolygons(tree.Childs(), &polys)
	return polys, nil
}

// collectPolygons walks a clipper result tree. Each outer node becomes a
// polygon; its hole children attach to it and any islands nested inside
// holes recurse as new outers.
func collectPolygons(outers []*clipper.PolyNode, polys *[]manhattan.Polygon) {
	for _, outer := range outers {
		poly := manhattan.Polygon{Outer: fromClipperPath(outer.Contour())}
		for _, hole := range outer.Childs() {
			poly.Holes = append(poly.Holes, fromClipperPath(hole.Contour()))
			collectPolygons(hole.Childs(), polys)
		}
		*polys = append(*polys, poly)
	}
}

// PrepLayer merges one layer's rings and manhattanizes every resulting
// polygon on the given grid with the given bias.
func PrepLayer(rings []geom.Ring, grid float64, mode manhattan.Mode) ([]manhattan.Polygon, error) {
	merged, err := Merge(rings)
	if err != nil {
		return nil, err
	}
	out := make([]manhattan.Polygon, 0, len(merged))
	for i, p := range merged {
		m, err := manhattan.ManhattanizePolygon(p, grid, mode)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// LayerStats summarises one layer's dataprep pass for reporting.
type LayerStats struct {
	Key      LayerKey
	InRings  int
	OutPolys int
	InVerts  int
	OutVerts int
	InArea   float64 // merged area before manhattanization
	OutArea  float64 // net area after (holes subtracted)
}

// Run executes dataprep over every layer of a design and returns the
// prepared polygons plus per-layer statistics, layers sorted by key.
// Each layer's bias comes from modes (default plus per-layer overrides).
func Run(layers map[LayerKey][]geom.Ring, grid float64, modes Modes) (map[LayerKey][]manhattan.Polygon, []LayerStats, error) {
	keys := make([]LayerKey, 0, len(layers))
	for k := range layers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Layer != keys[j].Layer {
			return keys[i].Layer < keys[j].Layer
		}
		return keys[i].Purpose < keys[j].Purpose
	})

	out := make(map[LayerKey][]manhattan.Polygon, len(layers))
	stats := make([]LayerStats, 0, len(keys))
	for _, k := range keys {
		rings := layers[k]
		mode := modes.For(k)
		merged, err := Merge(rings)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %s: %w", k, err)
		}
		st := LayerStats{Key: k, InRings: len(rings)}
		prepped := make([]manhattan.Polygon, 0, len(merged))
		for i, p := range merged {
			st.InVerts += len(p.Outer)
			st.InArea += math.Abs(geom.Area(p.Outer))
			for _, h := range p.Holes {
				st.InVerts += len(h)
				st.InArea -= math.Abs(geom.Area(h))
			}
			m, err := manhattan.ManhattanizePolygon(p, grid, mode)
			if err != nil {
				return nil, nil, fmt.Errorf("layer %s polygon %d: %w", k, i, err)
			}
			st.OutVerts += len(m.Outer)
			st.OutArea += math.Abs(geom.Area(m.Outer))
			for _, h := range m.Holes {
				st.OutVerts += len(h)
				st.OutArea -= math.Abs(geom.Area(h))
			}
			prepped = append(prepped, m)
		}
		st.OutPolys = len(prepped)
		out[k] = prepped
		stats = append(stats, st)
	}
	return out, stats, nil
}
