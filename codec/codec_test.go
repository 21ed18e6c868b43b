// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldMapRoundTrip(t *testing.T) {
	m := NewFieldMap()
	m.PutInt64("file_id", 7)
	m.PutString("message", "hello")
	m.PutBytes("data", []byte{1, 2, 3, 4})
	m.PutBool("ok", true)

	encoded := EncodeFields(m)
	decoded, err := DecodeFields(encoded)
	require.NoError(t, err)
	require.Equal(t, m.Len(), decoded.Len())

	for i, f := range m.Fields() {
		require.Equal(t, f.Name, decoded.Fields()[i].Name)
		require.Equal(t, f.Value, decoded.Fields()[i].Value)
	}

	v, ok := decoded.GetInt64("file_id")
	require.True(t, ok)
	require.EqualValues(t, 7, v)

	s, ok := decoded.GetString("message")
	require.True(t, ok)
	require.Equal(t, "hello", s)
}

func TestDecodeFieldsAcceptsAnyOrder(t *testing.T) {
	a := NewFieldMap()
	a.PutString("b", "2")
	a.PutString("a", "1")

	decoded, err := DecodeFields(EncodeFields(a))
	require.NoError(t, err)

	bv, _ := decoded.GetString("b")
	av, _ := decoded.GetString("a")
	require.Equal(t, "2", bv)
	require.Equal(t, "1", av)
}

func TestDecodeFieldsRejectsTruncated(t *testing.T) {
	m := NewFieldMap()
	m.PutString("message", "hello")
	encoded := EncodeFields(m)

	_, err := DecodeFields(encoded[:len(encoded)-2])
	require.Error(t, err)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
}

func TestDecodeFieldsRejectsDuplicateNames(t *testing.T) {
	m := NewFieldMap()
	m.PutString("a", "1")
	encoded := EncodeFields(m)
	// Duplicate the field manually at the byte level.
	dup := append(append([]byte{}, encoded...), encoded...)

	_, err := DecodeFields(dup)
	require.Error(t, err)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, ReasonDuplicateField, perr.Reason)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	payload := []byte("some payload bytes")
	frame := Wrap(payload)
	got, err := Unwrap(frame)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestUnwrapRejectsBadMagic(t *testing.T) {
	frame := Wrap([]byte("x"))
	frame[0] ^= 0xFF
	_, err := Unwrap(frame)
	require.Error(t, err)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, ReasonBadMagic, perr.Reason)
}

func TestUnwrapRejectsOversizePayload(t *testing.T) {
	frame := Wrap([]byte("x"))
	_, err := Unwrap(frame, WithMaxPayloadLen(0))
	require.NoError(t, err) // zero means default cap, not zero cap

	_, err = Unwrap(Wrap(make([]byte, 100)), WithMaxPayloadLen(10))
	require.Error(t, err)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, ReasonTooLong, perr.Reason)
}

func TestUnwrapRejectsTruncatedFrame(t *testing.T) {
	frame := Wrap([]byte("hello"))
	_, err := Unwrap(frame[:frameHeaderLen+2])
	require.Error(t, err)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	require.Equal(t, ReasonTruncated, perr.Reason)
}
