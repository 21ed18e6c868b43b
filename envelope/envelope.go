// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package envelope defines the fixed outer field set carried by every
// request/response frame, and the per-path body schemas layered on top of
// it. It sits directly on codec: envelopes are encoded/decoded as
// codec.FieldMap values, never as hand-rolled structs on the wire.
package envelope

import (
	"github.com/DaneJoe001/ProjectTrans-sub001/codec"
)

// ContentType identifies how a body is encoded. The core speaks only the
// native TLV encoding; Json is reserved for the (out-of-scope) HTTP adapter
// mentioned in spec.md §9.
type ContentType uint8

const (
	ContentDaneJoe ContentType = iota + 1
	ContentJSON
)

// RequestType mirrors original_source's Protocol::RequestType, kept for
// parity with the wire even though the core only ever issues Get-shaped
// requests over the native envelope.
type RequestType uint8

const (
	RequestGet RequestType = iota + 1
	RequestPost
	RequestPut
	RequestDelete
	RequestHead
)

// Status is the tagged-variant response status, per spec.md §9's
// Design Note ("render these as tagged variants ... rather than open
// polymorphism").
type Status uint16

const (
	StatusOK                  Status = 200
	StatusNotFound            Status = 404
	StatusBadRequest          Status = 400
	StatusInternalServerError Status = 500
)

// Path identifies a request/response's business route.
type Path string

const (
	PathTest     Path = "/test"
	PathDownload Path = "/download"
	PathBlock    Path = "/block"
	PathUpload   Path = "/upload"
	PathCancel   Path = "/cancel"
	PathPing     Path = "/ping"
)

const protocolVersion uint16 = 1

// Request is the envelope's fixed field set for a request frame. Field
// order on the wire: version, request_id, request_type, path, content_type,
// body.
type Request struct {
	Version     uint16
	RequestID   uint64
	RequestType RequestType
	Path        Path
	ContentType ContentType
	Body        []byte
}

// Response is the envelope's fixed field set for a response frame. Field
// order on the wire: version, request_id, status, content_type, body.
type Response struct {
	Version     uint16
	RequestID   uint64
	Status      Status
	ContentType ContentType
	Body        []byte
}

// NewRequest builds a Request with the protocol's current version and the
// native content type.
func NewRequest(requestID uint64, path Path, body []byte) Request {
	return Request{
		Version:     protocolVersion,
		RequestID:   requestID,
		RequestType: RequestGet,
		Path:        path,
		ContentType: ContentDaneJoe,
		Body:        body,
	}
}

// NewResponse builds a Response with the protocol's current version and the
// native content type.
func NewResponse(requestID uint64, status Status, body []byte) Response {
	return Response{
		Version:     protocolVersion,
		RequestID:   requestID,
		Status:      status,
		ContentType: ContentDaneJoe,
		Body:        body,
	}
}

// EncodeRequest serializes a Request to its field-map and frame bytes.
func EncodeRequest(r Request) []byte {
	m := codec.NewFieldMap()
	m.PutUint("version", 2, uint64(r.Version))
	m.PutUint("request_id", 8, r.RequestID)
	m.PutUint("request_type", 1, uint64(r.RequestType))
	m.PutString("path", string(r.Path))
	m.PutUint("content_type", 1, uint64(r.ContentType))
	m.PutBytes("body", r.Body)
	return codec.Wrap(codec.EncodeFields(m))
}

// DecodeRequest parses a frame payload (post codec.Unwrap) into a Request.
func DecodeRequest(payload []byte) (Request, error) {
	m, err := codec.DecodeFields(payload)
	if err != nil {
		return Request{}, err
	}
	var r Request
	v, _ := m.GetUint("version", 2)
	r.Version = uint16(v)
	r.RequestID, _ = m.GetUint("request_id", 8)
	rt, _ := m.GetUint("request_type", 1)
	r.RequestType = RequestType(rt)
	path, _ := m.GetString("path")
	r.Path = Path(path)
	ct, _ := m.GetUint("content_type", 1)
	r.ContentType = ContentType(ct)
	r.Body, _ = m.GetBytes("body")
	return r, nil
}

// EncodeResponse serializes a Response to its field-map and frame bytes.
func EncodeResponse(r Response) []byte {
	m := codec.NewFieldMap()
	m.PutUint("version", 2, uint64(r.Version))
	m.PutUint("request_id", 8, r.RequestID)
	m.PutUint("status", 2, uint64(r.Status))
	m.PutUint("content_type", 1, uint64(r.ContentType))
	m.PutBytes("body", r.Body)
	return codec.Wrap(codec.EncodeFields(m))
}

// DecodeResponse parses a frame payload (post codec.Unwrap) into a Response.
func DecodeResponse(payload []byte) (Response, error) {
	m, err := codec.DecodeFields(payload)
	if err != nil {
		return Response{}, err
	}
	var r Response
	v, _ := m.GetUint("version", 2)
	r.Version = uint16(v)
	r.RequestID, _ = m.GetUint("request_id", 8)
	st, _ := m.GetUint("status", 2)
	r.Status = Status(st)
	ct, _ := m.GetUint("content_type", 1)
	r.ContentType = ContentType(ct)
	r.Body, _ = m.GetBytes("body")
	return r, nil
}
