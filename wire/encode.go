package wire

import (
	"encoding/base64"
	"math"
)

// Append helpers build single fields of a tag/value message. They cover the
// subset needed to construct browse tab-selector parameters and to exercise
// the decoder round-trip in tests.

// AppendUintField appends a varint field.
func AppendUintField(b []byte, field uint64, v uint64) []byte {
	b = appendUvarint(b, field<<3|typeVarint)
	return appendUvarint(b, v)
}

// AppendFixed64Field appends an 8-byte little-endian IEEE-754 field.
func AppendFixed64Field(b []byte, field uint64, v float64) []byte {
	b = appendUvarint(b, field<<3|typeFixed64)
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		b = append(b, byte(bits>>(8*i)))
	}
	return b
}

// AppendFixed32Field appends a 4-byte little-endian IEEE-754 field.
func AppendFixed32Field(b []byte, field uint64, v float32) []byte {
	b = appendUvarint(b, field<<3|typeFixed32)
	bits := math.Float32bits(v)
	for i := 0; i < 4; i++ {
		b = append(b, byte(bits>>(8*i)))
	}
	return b
}

// AppendBytesField appends a length-delimited field.
func AppendBytesField(b []byte, field uint64, v []byte) []byte {
	b = appendUvarint(b, field<<3|typeLen)
	b = appendUvarint(b, uint64(len(v)))
	return append(b, v...)
}

// AppendStringField appends a length-delimited field holding a string.
func AppendStringField(b []byte, field uint64, s string) []byte {
	return AppendBytesField(b, field, []byte(s))
}

// EncodeBase64 renders an encoded buffer the way browse parameters are sent:
// URL-safe base64 without padding.
func EncodeBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func appendUvarint(b []byte, u uint64) []byte {
	for u >= 0x80 {
		b = append(b, byte(u)|0x80)
		u >>= 7
	}
	return append(b, byte(u))
}
