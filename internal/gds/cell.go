package gds

import (
	"math"

	"github.com/litho-tools/maskprep/internal/geom"
)

// Shape is a primitive element that knows how to emit its own
// self-contained GDSII record sequence (BOUNDARY/PATH elements bracketed
// by ENDEL). All coordinates are user units, local to the owning cell;
// at encode time origin translates them and unitMul converts them to
// database units.
type Shape interface {
	encode(w *recordWriter, unitMul float64, origin geom.Point)
}

// dbu quantizes a user-unit coordinate to database units.
func dbu(v, unitMul float64) int32 {
	return int32(math.Round(v * unitMul))
}

// encodeXY frames an XY record for the given cell-local points.
func encodeXY(w *recordWriter, pts []geom.Point, unitMul float64, origin geom.Point) {
	coords := make([]int32, 0, 2*len(pts))
	for _, p := range pts {
		coords = append(coords, dbu(p.X+origin.X, unitMul), dbu(p.Y+origin.Y, unitMul))
	}
	w.i32(recXY, coords...)
}

// Boundary is a filled polygon on a layer/datatype pair. The ring is
// closed at encode time if the caller left it open.
type Boundary struct {
	Layer    int16
	Datatype int16
	Ring     geom.Ring
}

func (b Boundary) encode(w *recordWriter, unitMul float64, origin geom.Point) {
	w.i16(recBoundary)
	w.i16(recLayer, b.Layer)
	w.i16(recDatatype, b.Datatype)
	encodeXY(w, b.Ring.Close(), unitMul, origin)
	w.i16(recEndEl)
}

// NewRect returns a Boundary covering the axis-aligned rectangle with
// lower-left and upper-right corners ll and ur.
func NewRect(layer, datatype int16, ll, ur geom.Point) Boundary {
	return Boundary{
		Layer:    layer,
		Datatype: datatype,
		Ring: geom.Ring{
			ll,
			{X: ur.X, Y: ll.Y},
			ur,
			{X: ll.X, Y: ur.Y},
			ll,
		},
	}
}

// Path is a wire element: an open centerline with a drawn width.
type Path struct {
	Layer    int16
	Datatype int16
	Width    float64 // user units
	Points   []geom.Point
}

func (p Path) encode(w *recordWriter, unitMul float64, origin geom.Point) {
	w.i16(recPath)
	w.i16(recLayer, p.Layer)
	w.i16(recDatatype, p.Datatype)
	w.i32(recWidth, dbu(p.Width, unitMul))
	encodeXY(w, p.Points, unitMul, origin)
	w.i16(recEndEl)
}

// Label is a text annotation pinned to a point.
type Label struct {
	Layer    int16
	Texttype int16
	At       geom.Point
	Text     string
}

func (l Label) encode(w *recordWriter, unitMul float64, origin geom.Point) {
	w.i16(recText)
	w.i16(recLayer, l.Layer)
	w.i16(recTextType, l.Texttype)
	encodeXY(w, []geom.Point{l.At}, unitMul, origin)
	w.str(recString, l.Text)
	w.i16(recEndEl)
}

// Instance places a named cell inside another cell. Rotation is in
// degrees; Magnification zero means the default of 1.0. XReflection
// mirrors about the x axis before rotating.
type Instance struct {
	Ref           string
	At            geom.Point
	Rotation      float64
	Magnification float64
	XReflection   bool
}

// isDefaultTransform reports whether the placement needs no STRANS record.
func (inst Instance) isDefaultTransform() bool {
	return !inst.XReflection && inst.Rotation == 0 &&
		(inst.Magnification == 0 || inst.Magnification == 1)
}

// Cell is a named structure: primitive shapes, labels and placements of
// other cells. Element coordinates are local to the cell; Origin
// translates them at encode time. Cells are populated through the Add
// methods and treated as read-only during stream emission.
type Cell struct {
	Name   string
	Origin geom.Point

	shapes    []Shape
	labels    []Label
	instances []Instance
}

// NewCell creates an empty cell with the given name and origin.
func NewCell(name string, origin geom.Point) *Cell {
	return &Cell{Name: name, Origin: origin}
}

// AddShape appends a primitive shape to the cell.
func (c *Cell) AddShape(s Shape) {
	c.shapes = append(c.shapes, s)
}

// AddLabel appends a text annotation to the cell.
func (c *Cell) AddLabel(l Label) {
	c.labels = append(c.labels, l)
}

// AddInstance appends a subcell placement to the cell.
func (c *Cell) AddInstance(inst Instance) {
	c.instances = append(c.instances, inst)
}

// Instances returns the cell's subcell placements.
func (c *Cell) Instances() []Instance {
	return c.instances
}
