// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package protocol

import (
	"errors"
	"io"

	"github.com/algorand/go-codec/codec"
)

// ErrInvalidObject is used to state that an object decoding has failed because it's invalid.
var ErrInvalidObject = errors.New("unmarshalled object is invalid")

// CodecHandle is the msgpack handle for every wire message and hashed object.
// It is canonical, so equal objects always encode to equal bytes.
var CodecHandle = newMsgpackHandle()

// JSONHandle is the JSON handle used for diagnostics and scenario files.
var JSONHandle = newJSONHandle()

// Decoder is our interface for a thing that can decode objects.
type Decoder interface {
	Decode(objptr interface{}) error
}

func newMsgpackHandle() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.ErrorIfNoField = true
	h.ErrorIfNoArrayExpand = true
	h.Canonical = true
	h.RecursiveEmptyCheck = true
	h.WriteExt = true
	h.PositiveIntUnsigned = true
	h.Raw = true
	return h
}

func newJSONHandle() *codec.JsonHandle {
	h := new(codec.JsonHandle)
	h.ErrorIfNoField = true
	h.ErrorIfNoArrayExpand = true
	h.Canonical = true
	h.RecursiveEmptyCheck = true
	h.Indent = 2
	h.HTMLCharsAsIs = true
	return h
}

// Encode returns the canonical msgpack encoding of obj.
// Envelope ids and object hashes are computed over these bytes.
func Encode(obj interface{}) []byte {
	var b []byte
	codec.NewEncoderBytes(&b, CodecHandle).MustEncode(obj)
	return b
}

// Decode decodes msgpack bytes into objptr. Unknown fields are an error.
func Decode(b []byte, objptr interface{}) error {
	return codec.NewDecoderBytes(b, CodecHandle).Decode(objptr)
}

// EncodeJSON returns the indented JSON encoding of obj.
func EncodeJSON(obj interface{}) []byte {
	var b []byte
	codec.NewEncoderBytes(&b, JSONHandle).MustEncode(obj)
	return b
}

// DecodeJSON decodes JSON bytes into objptr. Unknown fields are an error.
func DecodeJSON(b []byte, objptr interface{}) error {
	return codec.NewDecoderBytes(b, JSONHandle).Decode(objptr)
}

// NewJSONEncoder returns an encoder writing JSON into w.
func NewJSONEncoder(w io.Writer) *codec.Encoder {
	return codec.NewEncoder(w, JSONHandle)
}

// NewJSONDecoder returns a decoder reading JSON from r.
func NewJSONDecoder(r io.Reader) Decoder {
	return codec.NewDecoder(r, JSONHandle)
}
