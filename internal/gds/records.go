// Package gds serializes layout cells into the GDSII binary stream format.
//
// GDSII Stream Record Framing
//
// Every record is framed as:
//
//	├── Length (2 bytes, big-endian) — includes the 4 header bytes, always even
//	├── Record type (1 byte) + data type (1 byte)
//	└── Payload (Length-4 bytes)
//
// Payloads hold big-endian signed 16/32-bit integers, ASCII strings
// NUL-padded to even length, or 8-byte excess-64 reals (see real8.go).
// The encoder below is a thin builder over a byte buffer; any framing
// failure (odd payload, 16-bit length overflow) latches an error and
// turns subsequent appends into no-ops, so a failed encode never yields
// partial output.
package gds

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Record tags: record type in the high byte, data type in the low byte.
// Data types: 0x00 none, 0x01 bit array, 0x02 int16, 0x03 int32,
// 0x05 real8, 0x06 ASCII string.
const (
	recHeader   uint16 = 0x0002 // stream format version (int16)
	recBgnLib   uint16 = 0x0102 // library begin + mod/access timestamps
	recLibName  uint16 = 0x0206 // library name
	recUnits    uint16 = 0x0305 // user unit and database unit (real8 pair)
	recEndLib   uint16 = 0x0400 // library end
	recBgnStr   uint16 = 0x0502 // structure begin + creation/mod timestamps
	recStrName  uint16 = 0x0606 // structure name
	recEndStr   uint16 = 0x0700 // structure end
	recBoundary uint16 = 0x0800 // filled polygon element
	recPath     uint16 = 0x0900 // wire element
	recSRef     uint16 = 0x0A00 // structure reference element
	recText     uint16 = 0x0C00 // text annotation element
	recLayer    uint16 = 0x0D02 // element layer number (int16)
	recDatatype uint16 = 0x0E02 // element datatype number (int16)
	recWidth    uint16 = 0x0F03 // path width in database units (int32)
	recXY       uint16 = 0x1003 // coordinate list (int32 pairs)
	recEndEl    uint16 = 0x1100 // element end
	recSName    uint16 = 0x1206 // referenced structure name
	recTextType uint16 = 0x1602 // text purpose number (int16)
	recString   uint16 = 0x1906 // text body
	recSTrans   uint16 = 0x1A01 // reference transform flags (bit array)
	recMag      uint16 = 0x1B05 // reference magnification (real8)
	recAngle    uint16 = 0x1C05 // reference rotation in degrees (real8)
)

// maxRecordLen is the largest value the 16-bit length field can carry.
const maxRecordLen = 0xFFFF

// streamVersion is the GDSII format version written in HEADER records.
const streamVersion int16 = 600

// RecordOverflowError reports a record whose framed length exceeds the
// 16-bit length field. The caller must fragment oversized payloads before
// they reach this codec.
type RecordOverflowError struct {
	Tag    uint16
	Length int
}

func (e *RecordOverflowError) Error() string {
	return fmt.Sprintf("gds: record 0x%04X length %d exceeds 16-bit length field", e.Tag, e.Length)
}

// UnpaddedNameError reports a string payload that reached the framing
// layer with odd length. String writers pad to even length first, so this
// is a defensive check that should never surface.
type UnpaddedNameError struct {
	Name string
}

func (e *UnpaddedNameError) Error() string {
	return fmt.Sprintf("gds: string %q not padded to even length", e.Name)
}

// recordWriter accumulates framed records. The first error latches and
// suppresses all further writes.
type recordWriter struct {
	buf bytes.Buffer
	err error
}

// record frames a single raw record. The payload must already have even
// length.
func (w *recordWriter) record(tag uint16, payload []byte) {
	if w.err != nil {
		return
	}
	if len(payload)%2 != 0 {
		w.err = &UnpaddedNameError{Name: string(payload)}
		return
	}
	total := 4 + len(payload)
	if total > maxRecordLen {
		w.err = &RecordOverflowError{Tag: tag, Length: total}
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[0:2], uint16(total))
	binary.BigEndian.PutUint16(hdr[2:4], tag)
	w.buf.Write(hdr[:])
	w.buf.Write(payload)
}

// i16 frames a record of big-endian signed 16-bit values.
func (w *recordWriter) i16(tag uint16, vals ...int16) {
	payload := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(payload[2*i:], uint16(v))
	}
	w.record(tag, payload)
}

// i32 frames a record of big-endian signed 32-bit values.
func (w *recordWriter) i32(tag uint16, vals ...int32) {
	payload := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(payload[4*i:], uint32(v))
	}
	w.record(tag, payload)
}

// str frames an ASCII string record, NUL-padding to even length.
func (w *recordWriter) str(tag uint16, s string) {
	b := []byte(s)
	if len(b)%2 != 0 {
		b = append(b, 0)
	}
	w.record(tag, b)
}

// real8 frames a record of 8-byte excess-64 reals.
func (w *recordWriter) real8(tag uint16, vals ...float64) {
	payload := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		b := encodeReal8(v)
		payload = append(payload, b[:]...)
	}
	w.record(tag, payload)
}

// bytesAndErr returns the accumulated stream, or nil and the latched
// error if any record failed to frame.
func (w *recordWriter) bytesAndErr() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}
