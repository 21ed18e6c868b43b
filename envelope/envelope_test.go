// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DaneJoe001/ProjectTrans-sub001/codec"
)

func TestRequestResponseRoundTrip(t *testing.T) {
	body := DownloadRequestBody{FileID: 7, TaskID: 100}
	req := NewRequest(2, PathDownload, body.Encode())

	frame := EncodeRequest(req)
	payload, err := codec.Unwrap(frame)
	require.NoError(t, err)

	decoded, err := DecodeRequest(payload)
	require.NoError(t, err)
	require.Equal(t, req.RequestID, decoded.RequestID)
	require.Equal(t, req.Path, decoded.Path)

	decodedBody, err := DecodeDownloadRequestBody(decoded.Body)
	require.NoError(t, err)
	require.Equal(t, body, decodedBody)
}

func TestResponseRoundTrip(t *testing.T) {
	body := DownloadResponseBody{TaskID: 100, FileID: 7, FileName: "a.bin", FileSize: 1536, MD5Code: "abc"}
	resp := NewResponse(2, StatusOK, body.Encode())

	frame := EncodeResponse(resp)
	payload, err := codec.Unwrap(frame)
	require.NoError(t, err)

	decoded, err := DecodeResponse(payload)
	require.NoError(t, err)
	require.Equal(t, resp.RequestID, decoded.RequestID)
	require.Equal(t, resp.Status, decoded.Status)

	decodedBody, err := DecodeDownloadResponseBody(decoded.Body)
	require.NoError(t, err)
	require.Equal(t, body, decodedBody)
}

func TestBlockBodyRoundTrip(t *testing.T) {
	body := BlockResponseBody{BlockID: 1, FileID: 7, TaskID: 100, Offset: 512, BlockSize: 512, Data: []byte("0123456789")}
	encoded := body.Encode()
	decoded, err := DecodeBlockResponseBody(encoded)
	require.NoError(t, err)
	require.Equal(t, body, decoded)
}
