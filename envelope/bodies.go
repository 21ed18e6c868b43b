// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package envelope

import "github.com/DaneJoe001/ProjectTrans-sub001/codec"

// TestRequestBody is the /test request body: { message: string }.
type TestRequestBody struct {
	Message string
}

func (b TestRequestBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutString("message", b.Message)
	return codec.EncodeFields(m)
}

func DecodeTestRequestBody(body []byte) (TestRequestBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return TestRequestBody{}, err
	}
	msg, _ := m.GetString("message")
	return TestRequestBody{Message: msg}, nil
}

// TestResponseBody is the /test response body: { message: string }.
type TestResponseBody struct {
	Message string
}

func (b TestResponseBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutString("message", b.Message)
	return codec.EncodeFields(m)
}

func DecodeTestResponseBody(body []byte) (TestResponseBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return TestResponseBody{}, err
	}
	msg, _ := m.GetString("message")
	return TestResponseBody{Message: msg}, nil
}

// DownloadRequestBody is the /download request body: { file_id, task_id }.
type DownloadRequestBody struct {
	FileID int64
	TaskID int64
}

func (b DownloadRequestBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("file_id", b.FileID)
	m.PutInt64("task_id", b.TaskID)
	return codec.EncodeFields(m)
}

func DecodeDownloadRequestBody(body []byte) (DownloadRequestBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return DownloadRequestBody{}, err
	}
	fid, _ := m.GetInt64("file_id")
	tid, _ := m.GetInt64("task_id")
	return DownloadRequestBody{FileID: fid, TaskID: tid}, nil
}

// DownloadResponseBody is the /download response body:
// { task_id, file_id, file_name, file_size, md5_code }.
type DownloadResponseBody struct {
	TaskID   int64
	FileID   int64
	FileName string
	FileSize int64
	MD5Code  string
}

func (b DownloadResponseBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("task_id", b.TaskID)
	m.PutInt64("file_id", b.FileID)
	m.PutString("file_name", b.FileName)
	m.PutInt64("file_size", b.FileSize)
	m.PutString("md5_code", b.MD5Code)
	return codec.EncodeFields(m)
}

func DecodeDownloadResponseBody(body []byte) (DownloadResponseBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return DownloadResponseBody{}, err
	}
	tid, _ := m.GetInt64("task_id")
	fid, _ := m.GetInt64("file_id")
	name, _ := m.GetString("file_name")
	size, _ := m.GetInt64("file_size")
	md5, _ := m.GetString("md5_code")
	return DownloadResponseBody{TaskID: tid, FileID: fid, FileName: name, FileSize: size, MD5Code: md5}, nil
}

// BlockRequestBody is the /block request body:
// { block_id, file_id, task_id, offset, block_size }.
type BlockRequestBody struct {
	BlockID   int64
	FileID    int64
	TaskID    int64
	Offset    int64
	BlockSize int64
}

func (b BlockRequestBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("block_id", b.BlockID)
	m.PutInt64("file_id", b.FileID)
	m.PutInt64("task_id", b.TaskID)
	m.PutInt64("offset", b.Offset)
	m.PutInt64("block_size", b.BlockSize)
	return codec.EncodeFields(m)
}

func DecodeBlockRequestBody(body []byte) (BlockRequestBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return BlockRequestBody{}, err
	}
	var b BlockRequestBody
	b.BlockID, _ = m.GetInt64("block_id")
	b.FileID, _ = m.GetInt64("file_id")
	b.TaskID, _ = m.GetInt64("task_id")
	b.Offset, _ = m.GetInt64("offset")
	b.BlockSize, _ = m.GetInt64("block_size")
	return b, nil
}

// BlockResponseBody is the /block response body:
// { block_id, file_id, task_id, offset, block_size, data }.
type BlockResponseBody struct {
	BlockID   int64
	FileID    int64
	TaskID    int64
	Offset    int64
	BlockSize int64
	Data      []byte
}

func (b BlockResponseBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("block_id", b.BlockID)
	m.PutInt64("file_id", b.FileID)
	m.PutInt64("task_id", b.TaskID)
	m.PutInt64("offset", b.Offset)
	m.PutInt64("block_size", b.BlockSize)
	m.PutBytes("data", b.Data)
	return codec.EncodeFields(m)
}

func DecodeBlockResponseBody(body []byte) (BlockResponseBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return BlockResponseBody{}, err
	}
	var b BlockResponseBody
	b.BlockID, _ = m.GetInt64("block_id")
	b.FileID, _ = m.GetInt64("file_id")
	b.TaskID, _ = m.GetInt64("task_id")
	b.Offset, _ = m.GetInt64("offset")
	b.BlockSize, _ = m.GetInt64("block_size")
	b.Data, _ = m.GetBytes("data")
	return b, nil
}

// UploadRequestBody is the /upload request body: { file_id, offset, data }.
// NEW path recovered from original_source's RequestType::Put (see
// SPEC_FULL.md §5); mirrors /block in the opposite direction.
type UploadRequestBody struct {
	FileID int64
	Offset int64
	Data   []byte
}

func (b UploadRequestBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("file_id", b.FileID)
	m.PutInt64("offset", b.Offset)
	m.PutBytes("data", b.Data)
	return codec.EncodeFields(m)
}

func DecodeUploadRequestBody(body []byte) (UploadRequestBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return UploadRequestBody{}, err
	}
	var b UploadRequestBody
	b.FileID, _ = m.GetInt64("file_id")
	b.Offset, _ = m.GetInt64("offset")
	b.Data, _ = m.GetBytes("data")
	return b, nil
}

// UploadResponseBody is the /upload response body: { file_id, offset, written }.
type UploadResponseBody struct {
	FileID  int64
	Offset  int64
	Written int64
}

func (b UploadResponseBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("file_id", b.FileID)
	m.PutInt64("offset", b.Offset)
	m.PutInt64("written", b.Written)
	return codec.EncodeFields(m)
}

func DecodeUploadResponseBody(body []byte) (UploadResponseBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return UploadResponseBody{}, err
	}
	var b UploadResponseBody
	b.FileID, _ = m.GetInt64("file_id")
	b.Offset, _ = m.GetInt64("offset")
	b.Written, _ = m.GetInt64("written")
	return b, nil
}

// CancelRequestBody is the /cancel request body: { task_id }. NEW path
// recovered from original_source's RequestType::Delete.
type CancelRequestBody struct {
	TaskID int64
}

func (b CancelRequestBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("task_id", b.TaskID)
	return codec.EncodeFields(m)
}

func DecodeCancelRequestBody(body []byte) (CancelRequestBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return CancelRequestBody{}, err
	}
	tid, _ := m.GetInt64("task_id")
	return CancelRequestBody{TaskID: tid}, nil
}

// CancelResponseBody is the /cancel response body: { task_id, cancelled }.
type CancelResponseBody struct {
	TaskID    int64
	Cancelled bool
}

func (b CancelResponseBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("task_id", b.TaskID)
	m.PutBool("cancelled", b.Cancelled)
	return codec.EncodeFields(m)
}

func DecodeCancelResponseBody(body []byte) (CancelResponseBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return CancelResponseBody{}, err
	}
	tid, _ := m.GetInt64("task_id")
	cancelled, _ := m.GetBool("cancelled")
	return CancelResponseBody{TaskID: tid, Cancelled: cancelled}, nil
}

// PingResponseBody is the /ping response body: { server_time }. NEW path
// recovered from original_source's RequestType::Head; a lightweight
// liveness probe answered by the business worker.
type PingResponseBody struct {
	ServerTime int64
}

func (b PingResponseBody) Encode() []byte {
	m := codec.NewFieldMap()
	m.PutInt64("server_time", b.ServerTime)
	return codec.EncodeFields(m)
}

func DecodePingResponseBody(body []byte) (PingResponseBody, error) {
	m, err := codec.DecodeFields(body)
	if err != nil {
		return PingResponseBody{}, err
	}
	t, _ := m.GetInt64("server_time")
	return PingResponseBody{ServerTime: t}, nil
}
