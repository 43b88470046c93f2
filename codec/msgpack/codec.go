// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"io"
	"reflect"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/iostream"
	"github.com/edgeofmagic/util-sub000/membuf"
)

// New creates a msgpack codec that decodes into values of type tipe.
// If tipe is a pointer, decoded values are pointers too. A nil tipe decodes
// into plain Go values.
func New(tipe interface{}) bstream.Codec {
	if tipe == nil {
		return &mpCodec{any: true}
	}

	t := reflect.TypeOf(tipe)
	isPtr := t.Kind() == reflect.Ptr
	if isPtr {
		t = t.Elem()
	}

	return &mpCodec{
		tipe:  t,
		asPtr: isPtr,
	}
}

var _ bstream.NewCodecFunc = New

type mpCodec struct {
	tipe  reflect.Type
	asPtr bool
	any   bool
}

func (*mpCodec) Marshal(v interface{}) ([]byte, error) {
	sink := membuf.NewSink(64)
	if err := NewEncoder(sink).Encode(v); err != nil {
		return nil, err
	}
	return sink.Bytes(), nil
}

func (c *mpCodec) Unmarshal(data []byte) (interface{}, error) {
	src := membuf.NewBorrowedSource(data)
	v, err := c.decode(NewDecoder(src))
	if err != nil {
		return nil, err
	}
	if rest := src.Size() - src.Position(); rest > 0 {
		return nil, bstream.NewError(bstream.InvalidArgument, "msgpack/unmarshal", "%d trailing bytes", rest)
	}
	return v, nil
}

func (c *mpCodec) decode(dec *Decoder) (interface{}, error) {
	if c.any {
		var v interface{}
		err := dec.Decode(&v)
		return v, err
	}

	v := reflect.New(c.tipe)
	if err := dec.Decode(v.Interface()); err != nil {
		return nil, err
	}
	if c.asPtr {
		return v.Interface(), nil
	}
	return v.Elem().Interface(), nil
}

func (*mpCodec) NewEncoder(w io.Writer) bstream.Encoder {
	return &encoder{enc: NewEncoder(iostream.NewSink(w))}
}

func (c *mpCodec) NewDecoder(r io.Reader) bstream.Decoder {
	return &decoder{c: c, dec: NewDecoder(iostream.NewSource(r))}
}

// encoder flushes after every value so each one reaches the writer.
type encoder struct {
	enc *Encoder
}

func (e *encoder) Encode(v interface{}) error {
	if err := e.enc.Encode(v); err != nil {
		return err
	}
	return e.enc.Flush()
}

type decoder struct {
	c   *mpCodec
	dec *Decoder
}

// Decode returns io.EOF when the reader ends between values.
func (d *decoder) Decode() (interface{}, error) {
	if _, err := d.dec.PeekCode(); bstream.IsReadPastEnd(err) {
		return nil, io.EOF
	}
	return d.c.decode(d.dec)
}
