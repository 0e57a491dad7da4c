// Package wire decodes length-prefixed tag/value binary messages without a
// schema. YouTube's browse continuation and tab-selector parameters are
// opaque blobs in this format; decoding them yields a generic tree keyed by
// field number, which is enough to build and inspect pagination parameters.
package wire

import (
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Wire types as encoded in the low three bits of a tag.
const (
	typeVarint  = 0
	typeFixed64 = 1
	typeLen     = 2
	typeSGroup  = 3 // deprecated group start, rejected
	typeEGroup  = 4 // deprecated group end, rejected
	typeFixed32 = 5
)

// Sentinel errors for decoding failures.
var (
	// ErrTruncated indicates the buffer ended inside a tag or value.
	ErrTruncated = errors.New("wire: truncated message")
	// ErrWireType indicates a tag carried an unsupported wire type.
	ErrWireType = errors.New("wire: unsupported wire type")
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindUint is a varint field decoded as an unsigned integer.
	KindUint Kind = iota
	// KindFloat is a fixed32 or fixed64 field decoded as IEEE-754.
	KindFloat
	// KindText is a length-delimited field holding printable UTF-8.
	KindText
	// KindMessage is a length-delimited field holding a nested message.
	KindMessage
	// KindRaw is a length-delimited field that is neither printable text
	// nor a decodable message; the raw bytes are kept as a best effort.
	KindRaw
	// KindList collects repeated occurrences of one field number.
	KindList
)

// Value is one decoded field value. Exactly the variant named by Kind is
// populated.
type Value struct {
	Kind  Kind
	Uint  uint64
	Float float64
	Text  string
	Msg   Message
	Raw   []byte
	List  []Value
}

// Message is a decoded tree keyed by decimal field number. String keys keep
// the tree schema-free and directly serializable for diagnostics.
type Message map[string]Value

// Get returns the value stored under the given field number.
func (m Message) Get(field uint64) (Value, bool) {
	v, ok := m[strconv.FormatUint(field, 10)]
	return v, ok
}

// Decode parses a complete tag/value buffer. It fails on a truncated tag or
// value and on the deprecated group wire types; an empty buffer decodes to
// an empty message.
func Decode(data []byte) (Message, error) {
	msg, pos, err := decodeMessage(data)
	if err != nil {
		return nil, err
	}
	if pos != len(data) {
		return nil, ErrTruncated
	}
	return msg, nil
}

// DecodeBase64 decodes a base64 parameter blob. Tokens are usually URL-safe
// base64 without padding, but standard encoding is accepted as a fallback.
func DecodeBase64(s string) (Message, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

func decodeMessage(data []byte) (Message, int, error) {
	msg := make(Message)
	pos := 0

	for pos < len(data) {
		tag, n, err := readUvarint(data[pos:])
		if err != nil {
			return nil, pos, err
		}
		pos += n

		field := strconv.FormatUint(tag>>3, 10)

		var v Value
		switch tag & 0b111 {
		case typeVarint:
			u, n, err := readUvarint(data[pos:])
			if err != nil {
				return nil, pos, err
			}
			pos += n
			v = Value{Kind: KindUint, Uint: u}

		case typeFixed64:
			if pos+8 > len(data) {
				return nil, pos, ErrTruncated
			}
			bits := uint64(0)
			for i := 7; i >= 0; i-- {
				bits = bits<<8 | uint64(data[pos+i])
			}
			pos += 8
			v = Value{Kind: KindFloat, Float: math.Float64frombits(bits)}

		case typeFixed32:
			if pos+4 > len(data) {
				return nil, pos, ErrTruncated
			}
			bits := uint32(0)
			for i := 3; i >= 0; i-- {
				bits = bits<<8 | uint32(data[pos+i])
			}
			pos += 4
			v = Value{Kind: KindFloat, Float: float64(math.Float32frombits(bits))}

		case typeLen:
			length, n, err := readUvarint(data[pos:])
			if err != nil {
				return nil, pos, err
			}
			pos += n
			if length > uint64(len(data)-pos) {
				return nil, pos, ErrTruncated
			}
			v = classify(data[pos : pos+int(length)])
			pos += int(length)

		default: // typeSGroup, typeEGroup, or out of range
			return nil, pos, ErrWireType
		}

		store(msg, field, v)
	}

	return msg, pos, nil
}

// classify decides how a length-delimited payload is represented: printable
// UTF-8 becomes text, otherwise a nested message parse is attempted, and the
// raw bytes are kept when that fails too.
func classify(payload []byte) Value {
	if isPrintable(payload) {
		return Value{Kind: KindText, Text: string(payload)}
	}

	if sub, pos, err := decodeMessage(payload); err == nil && pos == len(payload) {
		return Value{Kind: KindMessage, Msg: sub}
	}

	raw := make([]byte, len(payload))
	copy(raw, payload)
	return Value{Kind: KindRaw, Raw: raw}
}

// isPrintable reports whether b is valid UTF-8 with no control characters.
func isPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// store inserts a field value, promoting repeated occurrences: the first is
// stored directly, the second wraps both into a list, later ones append.
func store(msg Message, field string, v Value) {
	prev, ok := msg[field]
	switch {
	case !ok:
		msg[field] = v
	case prev.Kind == KindList:
		prev.List = append(prev.List, v)
		msg[field] = prev
	default:
		msg[field] = Value{Kind: KindList, List: []Value{prev, v}}
	}
}

// readUvarint decodes a little-endian base-128 varint. A buffer that ends
// while the continuation bit is still set is treated as truncated.
func readUvarint(data []byte) (uint64, int, error) {
	var u uint64
	for i := 0; i < len(data); i++ {
		b := data[i]
		u |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return u, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}
