package gds

import (
	"encoding/binary"
	"fmt"
)

// RawRecord is one framed record split out of a stream: the combined
// record-type/data-type tag and the raw payload. The scanner is a debug
// and test aid only; it does not interpret payloads and is not a GDSII
// reader.
type RawRecord struct {
	Tag  uint16
	Data []byte
}

// ScanRecords splits a byte stream into framed records, validating the
// length fields. Payloads alias the input slice.
func ScanRecords(b []byte) ([]RawRecord, error) {
	var recs []RawRecord
	for off := 0; off < len(b); {
		if len(b)-off < 4 {
			return nil, fmt.Errorf("gds: truncated record header at offset %d", off)
		}
		length := int(binary.BigEndian.Uint16(b[off:]))
		tag := binary.BigEndian.Uint16(b[off+2:])
		if length < 4 || length%2 != 0 {
			return nil, fmt.Errorf("gds: bad record length %d at offset %d", length, off)
		}
		if off+length > len(b) {
			return nil, fmt.Errorf("gds: record 0x%04X at offset %d overruns stream", tag, off)
		}
		recs = append(recs, RawRecord{Tag: tag, Data: b[off+4 : off+length]})
		off += length
	}
	return recs, nil
}
