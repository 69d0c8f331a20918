package gds

import (
	"time"

	"github.com/litho-tools/maskprep/internal/geom"
)

// STRANS flag bits. Only emitted when a placement has a non-default
// transform.
const (
	stransXReflect   uint16 = 1 << 15
	stransMagPresent uint16 = 1 << 2
	stransRotPresent uint16 = 1 << 1
)

// timestampFields flattens t into the 6-field int16 layout BGNSTR and
// BGNLIB expect: year, month, day, hour, minute, second.
func timestampFields(t time.Time) []int16 {
	return []int16{
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
	}
}

// EncodeStructure serializes a cell into its GDSII structure record
// sequence: BGNSTR, STRNAME, every shape and label, one SREF block per
// subcell placement, ENDSTR. unitMul is the database-units-per-user-unit
// scale applied to every coordinate, after the cell origin translates it.
//
// Both BGNSTR timestamps (creation and modification) are set to the
// encode time, so re-encoding the same cell twice produces different
// bytes. That is a known limitation of the format usage, not a defect;
// byte-stable output would need an injected clock.
//
// Encoding either succeeds completely or fails with no output: any
// framing error (see RecordOverflowError, UnpaddedNameError) aborts the
// whole structure.
func EncodeStructure(c *Cell, unitMul float64) ([]byte, error) {
	w := &recordWriter{}
	now := timestampFields(time.Now())
	w.i16(recBgnStr, append(now, now...)...)
	w.str(recStrName, c.Name)
	for _, s := range c.shapes {
		s.encode(w, unitMul, c.Origin)
	}
	for _, l := range c.labels {
		l.encode(w, unitMul, c.Origin)
	}
	for _, inst := range c.instances {
		encodeSRef(w, inst, unitMul, c.Origin)
	}
	w.i16(recEndStr)
	return w.bytesAndErr()
}

// encodeSRef emits one structure-reference block: SREF, SNAME, an
// optional STRANS/MAG/ANGLE group, XY, ENDEL.
func encodeSRef(w *recordWriter, inst Instance, unitMul float64, origin geom.Point) {
	w.i16(recSRef)
	w.str(recSName, inst.Ref)
	if !inst.isDefaultTransform() {
		flags := uint16(0)
		if inst.XReflection {
			flags |= stransXReflect
		}
		magSet := inst.Magnification != 0 && inst.Magnification != 1
		rotSet := inst.Rotation != 0
		if magSet {
			flags |= stransMagPresent
		}
		if rotSet {
			flags |= stransRotPresent
		}
		w.i16(recSTrans, int16(flags))
		if magSet {
			w.real8(recMag, inst.Magnification)
		}
		if rotSet {
			w.real8(recAngle, inst.Rotation)
		}
	}
	encodeXY(w, []geom.Point{inst.At}, unitMul, origin)
	w.i16(recEndEl)
}
