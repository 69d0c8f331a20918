package gds

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litho-tools/maskprep/internal/geom"
)

// tagsOf extracts the record tag sequence from a scanned stream.
func tagsOf(recs []RawRecord) []uint16 {
	tags := make([]uint16, len(recs))
	for i, r := range recs {
		tags[i] = r.Tag
	}
	return tags
}

func TestEncodeStructureRectCell(t *testing.T) {
	cell := NewCell("A", geom.Point{})
	cell.AddShape(NewRect(10, 0, geom.Point{}, geom.Point{X: 2, Y: 1}))

	b, err := EncodeStructure(cell, 1000)
	require.NoError(t, err)

	// BGNSTR: length 28 (4 header + 2×6 int16 timestamps), type 0x0502.
	require.GreaterOrEqual(t, len(b), 28)
	assert.Equal(t, uint16(28), binary.BigEndian.Uint16(b[0:2]))
	assert.Equal(t, uint16(0x0502), binary.BigEndian.Uint16(b[2:4]))

	// STRNAME: length 4+2, payload "A\0".
	assert.Equal(t, uint16(6), binary.BigEndian.Uint16(b[28:30]))
	assert.Equal(t, uint16(0x0606), binary.BigEndian.Uint16(b[30:32]))
	assert.Equal(t, "A\x00", string(b[32:34]))

	// Trailing ENDSTR: 4-byte 0x0700 record.
	assert.Equal(t, []byte{0x00, 0x04, 0x07, 0x00}, b[len(b)-4:])

	recs, err := ScanRecords(b)
	require.NoError(t, err)
	assert.Equal(t, []uint16{
		recBgnStr, recStrName,
		recBoundary, recLayer, recDatatype, recXY, recEndEl,
		recEndStr,
	}, tagsOf(recs))

	// XY: 5 closed-ring points scaled by the unit multiplier.
	var xy RawRecord
	for _, r := range recs {
		if r.Tag == recXY {
			xy = r
		}
	}
	require.Len(t, xy.Data, 5*8)
	assert.Equal(t, int32(0), int32(binary.BigEndian.Uint32(xy.Data[0:4])))
	assert.Equal(t, int32(2000), int32(binary.BigEndian.Uint32(xy.Data[8:12])))
	assert.Equal(t, int32(1000), int32(binary.BigEndian.Uint32(xy.Data[20:24])))
}

func TestEncodeStructureOriginOffset(t *testing.T) {
	cell := NewCell("A", geom.Point{X: 5, Y: -3})
	cell.AddShape(NewRect(10, 0, geom.Point{}, geom.Point{X: 2, Y: 1}))
	cell.AddLabel(Label{Layer: 10, Texttype: 1, At: geom.Point{X: 1, Y: 1}, Text: "pin"})
	cell.AddInstance(Instance{Ref: "SUB", At: geom.Point{X: 10, Y: 20}})

	b, err := EncodeStructure(cell, 1000)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)

	// Every XY record is translated by the cell origin before scaling.
	var xys []RawRecord
	for _, r := range recs {
		if r.Tag == recXY {
			xys = append(xys, r)
		}
	}
	require.Len(t, xys, 3)

	// Boundary: first point (0,0) lands at the origin.
	assert.Equal(t, int32(5000), int32(binary.BigEndian.Uint32(xys[0].Data[0:4])))
	assert.Equal(t, int32(-3000), int32(binary.BigEndian.Uint32(xys[0].Data[4:8])))
	// Label anchor (1,1).
	assert.Equal(t, int32(6000), int32(binary.BigEndian.Uint32(xys[1].Data[0:4])))
	assert.Equal(t, int32(-2000), int32(binary.BigEndian.Uint32(xys[1].Data[4:8])))
	// Placement point (10,20).
	assert.Equal(t, int32(15000), int32(binary.BigEndian.Uint32(xys[2].Data[0:4])))
	assert.Equal(t, int32(17000), int32(binary.BigEndian.Uint32(xys[2].Data[4:8])))
}

func TestEncodeStructureSRefNoTransform(t *testing.T) {
	cell := NewCell("B", geom.Point{})
	cell.AddInstance(Instance{Ref: "A", At: geom.Point{X: 1000, Y: 2000}})

	b, err := EncodeStructure(cell, 10)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)

	assert.Equal(t, []uint16{
		recBgnStr, recStrName,
		recSRef, recSName, recXY, recEndEl,
		recEndStr,
	}, tagsOf(recs), "default transform must emit no STRANS/MAG/ANGLE")

	assert.Equal(t, "A\x00", string(recs[3].Data))
	xy := recs[4].Data
	require.Len(t, xy, 8)
	assert.Equal(t, int32(10000), int32(binary.BigEndian.Uint32(xy[0:4])))
	assert.Equal(t, int32(20000), int32(binary.BigEndian.Uint32(xy[4:8])))
}

func TestEncodeStructureSRefTransform(t *testing.T) {
	cell := NewCell("B", geom.Point{})
	cell.AddInstance(Instance{
		Ref:           "A",
		At:            geom.Point{X: -1.5, Y: 2.5},
		Rotation:      90,
		Magnification: 2,
		XReflection:   true,
	})

	b, err := EncodeStructure(cell, 1000)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)

	assert.Equal(t, []uint16{
		recBgnStr, recStrName,
		recSRef, recSName, recSTrans, recMag, recAngle, recXY, recEndEl,
		recEndStr,
	}, tagsOf(recs))

	// STRANS: bit 15 x-reflection, bit 2 mag present, bit 1 rot present.
	flags := binary.BigEndian.Uint16(recs[4].Data)
	assert.Equal(t, uint16(0x8006), flags)

	var mag, angle [8]byte
	copy(mag[:], recs[5].Data)
	copy(angle[:], recs[6].Data)
	assert.Equal(t, 2.0, decodeReal8(mag))
	assert.Equal(t, 90.0, decodeReal8(angle))

	xy := recs[7].Data
	assert.Equal(t, int32(-1500), int32(binary.BigEndian.Uint32(xy[0:4])))
	assert.Equal(t, int32(2500), int32(binary.BigEndian.Uint32(xy[4:8])))
}

func TestEncodeStructureMagnificationOnly(t *testing.T) {
	cell := NewCell("B", geom.Point{})
	cell.AddInstance(Instance{Ref: "A", Magnification: 0.5})

	b, err := EncodeStructure(cell, 1)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)
	assert.Equal(t, []uint16{
		recBgnStr, recStrName,
		recSRef, recSName, recSTrans, recMag, recXY, recEndEl,
		recEndStr,
	}, tagsOf(recs))
	assert.Equal(t, uint16(stransMagPresent), binary.BigEndian.Uint16(recs[4].Data))
}

func TestEncodeStructureUnitMagnitudeIsDefault(t *testing.T) {
	// Magnification 1.0 is the default and must not trigger STRANS.
	cell := NewCell("B", geom.Point{})
	cell.AddInstance(Instance{Ref: "A", Magnification: 1})
	b, err := EncodeStructure(cell, 1)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, recSTrans, r.Tag)
	}
}

func TestEncodeStructurePathAndLabel(t *testing.T) {
	cell := NewCell("WIRES", geom.Point{})
	cell.AddShape(Path{
		Layer:  3,
		Width:  0.1,
		Points: []geom.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}},
	})
	cell.AddLabel(Label{Layer: 3, Texttype: 1, At: geom.Point{X: 1, Y: 1}, Text: "net0"})

	b, err := EncodeStructure(cell, 1000)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)
	assert.Equal(t, []uint16{
		recBgnStr, recStrName,
		recPath, recLayer, recDatatype, recWidth, recXY, recEndEl,
		recText, recLayer, recTextType, recXY, recString, recEndEl,
		recEndStr,
	}, tagsOf(recs))

	// Width scaled to database units.
	var width RawRecord
	for _, r := range recs {
		if r.Tag == recWidth {
			width = r
		}
	}
	assert.Equal(t, int32(100), int32(binary.BigEndian.Uint32(width.Data)))
}

func TestEncodeStructureCoordinateRounding(t *testing.T) {
	// round(origin * unit_multiplier) to nearest integer.
	cell := NewCell("B", geom.Point{})
	cell.AddInstance(Instance{Ref: "A", At: geom.Point{X: 0.0015, Y: -0.0015}})
	b, err := EncodeStructure(cell, 1000)
	require.NoError(t, err)
	recs, err := ScanRecords(b)
	require.NoError(t, err)
	xy := recs[4].Data
	assert.Equal(t, int32(2), int32(binary.BigEndian.Uint32(xy[0:4])))
	assert.Equal(t, int32(-2), int32(binary.BigEndian.Uint32(xy[4:8])))
}

func TestEncodeStructureOverflowAbortsWhole(t *testing.T) {
	cell := NewCell(strings.Repeat("N", 70000), geom.Point{})
	b, err := EncodeStructure(cell, 1)
	var overflow *RecordOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Nil(t, b, "failed encode must not return partial bytes")
}
