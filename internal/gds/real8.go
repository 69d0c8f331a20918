package gds

import "math"

// GDSII 8-byte real ("excess-64" format):
//
//	├── Bit 63: sign
//	├── Bits 62-56: exponent, power of 16, biased by 64
//	└── Bits 55-0: mantissa fraction, value = mantissa / 2^56
//
// value = (-1)^sign * (mantissa / 2^56) * 16^(exponent - 64)
//
// The mantissa is normalized to [1/16, 1). This layout predates IEEE 754
// and must be reproduced bit-exactly for interoperability with existing
// GDSII readers.

// encodeReal8 converts f to the GDSII 8-byte real format.
func encodeReal8(f float64) [8]byte {
	var out [8]byte
	if f == 0 {
		return out
	}
	sign := byte(0)
	if f < 0 {
		sign = 0x80
		f = -f
	}
	exp := 0
	for f >= 1 {
		f /= 16
		exp++
	}
	for f < 1.0/16 {
		f *= 16
		exp--
	}
	mant := uint64(math.Round(f * (1 << 56)))
	if mant >= 1<<56 {
		// rounding pushed the mantissa to 1.0; renormalize
		mant >>= 4
		exp++
	}
	out[0] = sign | byte(exp+64)
	for i := 6; i >= 0; i-- {
		out[1+i] = byte(mant)
		mant >>= 8
	}
	return out
}

// decodeReal8 converts a GDSII 8-byte real back to a float64. Used by the
// record scanner and tests.
func decodeReal8(b [8]byte) float64 {
	mant := uint64(0)
	for i := 1; i < 8; i++ {
		mant = mant<<8 | uint64(b[i])
	}
	if mant == 0 {
		return 0
	}
	exp := int(b[0]&0x7F) - 64
	v := float64(mant) / (1 << 56) * math.Pow(16, float64(exp))
	if b[0]&0x80 != 0 {
		v = -v
	}
	return v
}
