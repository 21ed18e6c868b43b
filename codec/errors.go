// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package codec

import "errors"

// ProtocolReason classifies why a frame or field map was rejected.
type ProtocolReason uint8

const (
	ReasonTruncated ProtocolReason = iota + 1
	ReasonMalformedField
	ReasonDuplicateField
	ReasonBadMagic
	ReasonTooLong
)

func (r ProtocolReason) String() string {
	switch r {
	case ReasonTruncated:
		return "truncated"
	case ReasonMalformedField:
		return "malformed field"
	case ReasonDuplicateField:
		return "duplicate field"
	case ReasonBadMagic:
		return "bad magic"
	case ReasonTooLong:
		return "too long"
	default:
		return "unknown"
	}
}

// ProtocolError reports a malformed frame or field map. It wraps ErrProtocol
// so callers can test with errors.Is(err, ErrProtocol) without caring about
// the specific reason.
type ProtocolError struct {
	Reason ProtocolReason
}

func (e *ProtocolError) Error() string { return "codec: protocol: " + e.Reason.String() }

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

func newProtocolError(reason ProtocolReason) error { return &ProtocolError{Reason: reason} }

var (
	// ErrProtocol is the sentinel every *ProtocolError wraps.
	ErrProtocol = errors.New("codec: protocol error")

	// ErrInvalidArgument reports a nil or otherwise unusable argument.
	ErrInvalidArgument = errors.New("codec: invalid argument")
)
