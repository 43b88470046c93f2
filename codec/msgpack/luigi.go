// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"context"

	"github.com/pkg/errors"
	"github.com/ssbc/go-luigi"

	bstream "github.com/edgeofmagic/util-sub000"
)

type streamSource struct {
	dec *Decoder
	c   *mpCodec
}

// NewStreamSource returns a source that yields the values in dec one at a
// time, decoded like New(tipe) does, and luigi.EOS{} at the end of the stream.
func NewStreamSource(dec *Decoder, tipe interface{}) luigi.Source {
	return &streamSource{dec: dec, c: New(tipe).(*mpCodec)}
}

func (src *streamSource) Next(ctx context.Context) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := src.dec.PeekCode(); err != nil {
		if bstream.IsReadPastEnd(err) {
			return nil, luigi.EOS{}
		}
		return nil, err
	}
	v, err := src.c.decode(src.dec)
	if err != nil {
		return nil, errors.Wrapf(err, "msgpack: decoding value at %d", src.dec.Position())
	}
	return v, nil
}

type streamSink struct {
	enc    *Encoder
	closed bool
}

// NewStreamSink returns a sink that encodes every poured value with enc.
// Closing the sink flushes it.
func NewStreamSink(enc *Encoder) luigi.Sink {
	return &streamSink{enc: enc}
}

func (sink *streamSink) Pour(ctx context.Context, v interface{}) error {
	if sink.closed {
		return errors.New("msgpack: pour to closed sink")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return sink.enc.Encode(v)
}

func (sink *streamSink) Close() error {
	if sink.closed {
		return nil
	}
	sink.closed = true
	return sink.enc.Flush()
}
