// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

import "io"

// Codec converts whole values to and from their encoded bytes, either one at
// a time or as a sequence over an io.Reader or io.Writer.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes the single value held in data. Trailing bytes are an
	// error.
	Unmarshal(data []byte) (interface{}, error)

	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder
}

// NewCodecFunc builds a Codec whose decoded values have the type of proto.
type NewCodecFunc func(proto interface{}) Codec

type Encoder interface {
	Encode(v interface{}) error
}

// Decoder returns io.EOF once the reader ends on a value boundary.
type Decoder interface {
	Decode() (interface{}, error)
}
