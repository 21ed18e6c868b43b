// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package codec implements the wire-level frame codec: a tag-length-value
// (TLV) field map serialization and a length-prefixed frame envelope on top
// of it. It is the lowest layer of the transfer protocol — stateless and
// pure, with no knowledge of connections, sockets, or business paths.
//
// Wire format:
//
//	Frame = Magic(u32 LE) || PayloadLen(u32 LE) || Payload
//	Payload = Field*
//	Field = NameLen(u16 LE) || NameBytes || ValueLen(u32 LE) || ValueBytes
//
// All integers are little-endian. A FieldMap's wire encoding is a total
// function of its logical contents up to field ordering: decoders accept any
// field order but preserve insertion order on a round trip through Encode.
package codec

import (
	"encoding/binary"
)

// Magic is the fixed frame sentinel ("DJ01" — DaneJoe, revision 01).
// Decoders reject any frame lacking it with a ReasonBadMagic ProtocolError.
const Magic uint32 = 0x444A3031

// DefaultMaxPayloadLen is the default cap on a frame's payload length.
const DefaultMaxPayloadLen = 16 * 1024 * 1024

const (
	nameLenSize  = 2 // u16
	valueLenSize = 4 // u32
)

// Field is one TLV entry: a short name bound to raw value bytes. Typed
// helpers on FieldMap interpret the bytes; Field itself carries no type tag
// on the wire (callers and schemas agree on types out of band, per
// envelope's body schemas).
type Field struct {
	Name  string
	Value []byte
}

// FieldMap is an ordered mapping from field name to value, as it appears on
// the wire. Insertion order is preserved.
type FieldMap struct {
	fields []Field
	index  map[string]int
}

// NewFieldMap returns an empty FieldMap ready for Put* calls.
func NewFieldMap() *FieldMap {
	return &FieldMap{index: make(map[string]int, 8)}
}

// Len returns the number of fields.
func (m *FieldMap) Len() int { return len(m.fields) }

// Fields returns the fields in insertion order. The returned slice must not
// be mutated by the caller.
func (m *FieldMap) Fields() []Field { return m.fields }

func (m *FieldMap) put(name string, value []byte) {
	if m.index == nil {
		m.index = make(map[string]int, 8)
	}
	if i, ok := m.index[name]; ok {
		m.fields[i].Value = value
		return
	}
	m.index[name] = len(m.fields)
	m.fields = append(m.fields, Field{Name: name, Value: value})
}

// PutUint writes an unsigned integer of the given byte width (1, 2, 4, or 8)
// using little-endian encoding.
func (m *FieldMap) PutUint(name string, width int, v uint64) {
	buf := make([]byte, width)
	switch width {
	case 1:
		buf[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf, v)
	default:
		panic("codec: unsupported integer width")
	}
	m.put(name, buf)
}

// PutInt64 writes a signed 64-bit integer using little-endian encoding.
func (m *FieldMap) PutInt64(name string, v int64) { m.PutUint(name, 8, uint64(v)) }

// PutString writes a UTF-8 string field (no terminator).
func (m *FieldMap) PutString(name, v string) { m.put(name, []byte(v)) }

// PutBytes writes a raw byte-array field.
func (m *FieldMap) PutBytes(name string, v []byte) { m.put(name, v) }

// PutBool writes a single-byte boolean field.
func (m *FieldMap) PutBool(name string, v bool) {
	if v {
		m.put(name, []byte{1})
	} else {
		m.put(name, []byte{0})
	}
}

func (m *FieldMap) get(name string) ([]byte, bool) {
	if m.index == nil {
		return nil, false
	}
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.fields[i].Value, true
}

// GetUint reads an unsigned integer field of the given byte width.
// It returns (0, false) when the field is absent or its width doesn't match.
func (m *FieldMap) GetUint(name string, width int) (uint64, bool) {
	v, ok := m.get(name)
	if !ok || len(v) != width {
		return 0, false
	}
	switch width {
	case 1:
		return uint64(v[0]), true
	case 2:
		return uint64(binary.LittleEndian.Uint16(v)), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(v)), true
	case 8:
		return binary.LittleEndian.Uint64(v), true
	default:
		return 0, false
	}
}

// GetInt64 reads a signed 64-bit integer field.
func (m *FieldMap) GetInt64(name string) (int64, bool) {
	u, ok := m.GetUint(name, 8)
	return int64(u), ok
}

// GetString reads a UTF-8 string field.
func (m *FieldMap) GetString(name string) (string, bool) {
	v, ok := m.get(name)
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetBytes reads a raw byte-array field.
func (m *FieldMap) GetBytes(name string) ([]byte, bool) { return m.get(name) }

// GetBool reads a single-byte boolean field.
func (m *FieldMap) GetBool(name string) (bool, bool) {
	v, ok := m.get(name)
	if !ok || len(v) != 1 {
		return false, false
	}
	return v[0] != 0, true
}

// EncodeFields serializes a FieldMap to its TLV byte representation. Pure;
// never fails.
func EncodeFields(m *FieldMap) []byte {
	size := 0
	for _, f := range m.fields {
		size += nameLenSize + len(f.Name) + valueLenSize + len(f.Value)
	}
	out := make([]byte, 0, size)
	var tmp [valueLenSize]byte
	for _, f := range m.fields {
		binary.LittleEndian.PutUint16(tmp[:nameLenSize], uint16(len(f.Name)))
		out = append(out, tmp[:nameLenSize]...)
		out = append(out, f.Name...)
		binary.LittleEndian.PutUint32(tmp[:valueLenSize], uint32(len(f.Value)))
		out = append(out, tmp[:valueLenSize]...)
		out = append(out, f.Value...)
	}
	return out
}

// DecodeFields parses a TLV byte sequence into a FieldMap. It fails with a
// *ProtocolError: ReasonTruncated when the input ends inside a length prefix
// or a name, ReasonMalformedField when a value's declared length overruns
// the buffer, and ReasonDuplicateField when a field name repeats.
func DecodeFields(data []byte) (*FieldMap, error) {
	m := NewFieldMap()
	off := 0
	for off < len(data) {
		if off+nameLenSize > len(data) {
			return nil, newProtocolError(ReasonTruncated)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[off : off+nameLenSize]))
		off += nameLenSize
		if off+nameLen > len(data) {
			return nil, newProtocolError(ReasonTruncated)
		}
		name := string(data[off : off+nameLen])
		off += nameLen

		if off+valueLenSize > len(data) {
			return nil, newProtocolError(ReasonTruncated)
		}
		valueLen := binary.LittleEndian.Uint32(data[off : off+valueLenSize])
		off += valueLenSize
		if int64(off)+int64(valueLen) > int64(len(data)) {
			return nil, newProtocolError(ReasonMalformedField)
		}
		value := data[off : off+int(valueLen)]
		off += int(valueLen)

		if _, dup := m.index[name]; dup {
			return nil, newProtocolError(ReasonDuplicateField)
		}
		m.index[name] = len(m.fields)
		m.fields = append(m.fields, Field{Name: name, Value: value})
	}
	return m, nil
}
