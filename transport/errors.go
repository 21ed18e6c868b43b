// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import "errors"

var (
	// ErrTimeout reports that a request's deadline elapsed before a
	// response arrived.
	ErrTimeout = errors.New("transport: request timed out")

	// ErrDisconnected reports that the underlying connection closed while
	// a request was outstanding.
	ErrDisconnected = errors.New("transport: connection disconnected")

	// ErrCancelled reports that Client.Cancel was called for a request
	// before it completed.
	ErrCancelled = errors.New("transport: request cancelled")
)
