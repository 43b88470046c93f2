// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/membuf"
)

// encode runs fn against a fresh encoder and returns what it wrote.
func encode(t *testing.T, fn func(*Encoder) error) []byte {
	sink := membuf.NewSink(16)
	require.NoError(t, fn(NewEncoder(sink)))
	return append([]byte{}, sink.Bytes()...)
}

func decoderFor(b []byte) *Decoder {
	return NewDecoder(membuf.NewSource(b))
}

func hdr(b ...byte) []byte { return b }

func TestWriteIntWidths(t *testing.T) {
	type testcase struct {
		v    int64
		want []byte
	}

	tcs := []testcase{
		{0, hdr(0x00)},
		{1, hdr(0x01)},
		{127, hdr(0x7f)},
		{128, hdr(0xcc, 0x80)},
		{255, hdr(0xcc, 0xff)},
		{256, hdr(0xcd, 0x01, 0x00)},
		{math.MaxUint16, hdr(0xcd, 0xff, 0xff)},
		{math.MaxUint16 + 1, hdr(0xce, 0x00, 0x01, 0x00, 0x00)},
		{math.MaxUint32, hdr(0xce, 0xff, 0xff, 0xff, 0xff)},
		{math.MaxUint32 + 1, hdr(0xcf, 0, 0, 0, 0x01, 0, 0, 0, 0)},
		{math.MaxInt64, hdr(0xcf, 0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)},
		{-1, hdr(0xff)},
		{-32, hdr(0xe0)},
		{-33, hdr(0xd0, 0xdf)},
		{math.MinInt8, hdr(0xd0, 0x80)},
		{math.MinInt8 - 1, hdr(0xd1, 0xff, 0x7f)},
		{math.MinInt16, hdr(0xd1, 0x80, 0x00)},
		{math.MinInt16 - 1, hdr(0xd2, 0xff, 0xff, 0x7f, 0xff)},
		{math.MinInt32, hdr(0xd2, 0x80, 0, 0, 0)},
		{math.MinInt32 - 1, hdr(0xd3, 0xff, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff)},
		{math.MinInt64, hdr(0xd3, 0x80, 0, 0, 0, 0, 0, 0, 0)},
	}

	for _, tc := range tcs {
		got := encode(t, func(e *Encoder) error { return e.WriteInt(tc.v) })
		assert.Equal(t, tc.want, got, "WriteInt(%d)", tc.v)

		v, err := decoderFor(got).ReadInt64()
		assert.NoError(t, err, "ReadInt64 of %d", tc.v)
		assert.Equal(t, tc.v, v)
	}

	got := encode(t, func(e *Encoder) error { return e.WriteUint(math.MaxUint64) })
	assert.Equal(t, hdr(0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff), got)
}

func TestWriteScalars(t *testing.T) {
	a := assert.New(t)

	a.Equal(hdr(0xc0), encode(t, func(e *Encoder) error { return e.WriteNil() }))
	a.Equal(hdr(0xc3), encode(t, func(e *Encoder) error { return e.WriteBool(true) }))
	a.Equal(hdr(0xc2), encode(t, func(e *Encoder) error { return e.WriteBool(false) }))
	a.Equal(hdr(0xca, 0x3f, 0xc0, 0, 0), encode(t, func(e *Encoder) error { return e.WriteFloat32(1.5) }))
	a.Equal(hdr(0xcb, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0), encode(t, func(e *Encoder) error { return e.WriteFloat64(1.5) }))
	a.Equal(hdr(0xa2, 'h', 'i'), encode(t, func(e *Encoder) error { return e.WriteString("hi") }))
	a.Equal(hdr(0xc4, 0x02, 1, 2), encode(t, func(e *Encoder) error { return e.WriteBlob([]byte{1, 2}) }))
	a.Equal(hdr(0xc4, 0x00), encode(t, func(e *Encoder) error { return e.WriteBlob(nil) }))
}

func TestHeaderForms(t *testing.T) {
	type testcase struct {
		name  string
		write func(*Encoder, int) error
		read  func(*Decoder) (int, error)
		n     int
		want  []byte
	}

	str := func(e *Encoder, n int) error { return e.WriteStringHeader(n) }
	blob := func(e *Encoder, n int) error { return e.WriteBlobHeader(n) }
	array := func(e *Encoder, n int) error { return e.WriteArrayHeader(n) }
	mapp := func(e *Encoder, n int) error { return e.WriteMapHeader(n) }

	readStr := (*Decoder).ReadStringHeader
	readBlob := (*Decoder).ReadBlobHeader
	readArray := (*Decoder).ReadArrayHeader
	readMap := (*Decoder).ReadMapHeader

	tcs := []testcase{
		{"fixstr0", str, readStr, 0, hdr(0xa0)},
		{"fixstr31", str, readStr, 31, hdr(0xbf)},
		{"str8", str, readStr, 32, hdr(0xd9, 32)},
		{"str8max", str, readStr, 255, hdr(0xd9, 0xff)},
		{"str16", str, readStr, 256, hdr(0xda, 0x01, 0x00)},
		{"str32", str, readStr, 65536, hdr(0xdb, 0, 0x01, 0, 0)},
		{"bin8", blob, readBlob, 0, hdr(0xc4, 0)},
		{"bin16", blob, readBlob, 256, hdr(0xc5, 0x01, 0x00)},
		{"bin32", blob, readBlob, 65536, hdr(0xc6, 0, 0x01, 0, 0)},
		{"fixarray", array, readArray, 15, hdr(0x9f)},
		{"array16", array, readArray, 16, hdr(0xdc, 0, 16)},
		{"array32", array, readArray, 65536, hdr(0xdd, 0, 0x01, 0, 0)},
		{"fixmap", mapp, readMap, 15, hdr(0x8f)},
		{"map16", mapp, readMap, 16, hdr(0xde, 0, 16)},
		{"map32", mapp, readMap, 65536, hdr(0xdf, 0, 0x01, 0, 0)},
	}

	for _, tc := range tcs {
		got := encode(t, func(e *Encoder) error { return tc.write(e, tc.n) })
		assert.Equal(t, tc.want, got, tc.name)

		n, err := tc.read(decoderFor(got))
		if assert.NoError(t, err, tc.name) {
			assert.Equal(t, tc.n, n, tc.name)
		}
	}

	sink := membuf.NewSink(8)
	err := NewEncoder(sink).WriteArrayHeader(-1)
	assert.ErrorIs(t, err, bstream.InvalidArgument)
	assert.Equal(t, bstream.Position(0), sink.Size())
}

func TestExtForms(t *testing.T) {
	type testcase struct {
		n    int
		want []byte
	}

	tcs := []testcase{
		{1, hdr(0xd4, 7)},
		{2, hdr(0xd5, 7)},
		{4, hdr(0xd6, 7)},
		{8, hdr(0xd7, 7)},
		{16, hdr(0xd8, 7)},
		{0, hdr(0xc7, 0, 7)},
		{3, hdr(0xc7, 3, 7)},
		{256, hdr(0xc8, 0x01, 0x00, 7)},
		{65536, hdr(0xc9, 0, 0x01, 0, 0, 7)},
	}

	for _, tc := range tcs {
		got := encode(t, func(e *Encoder) error { return e.WriteExtHeader(7, tc.n) })
		assert.Equal(t, tc.want, got, "ext of %d bytes", tc.n)

		typ, n, err := decoderFor(got).ReadExtHeader()
		if assert.NoError(t, err) {
			assert.Equal(t, int8(7), typ)
			assert.Equal(t, tc.n, n)
		}
	}

	got := encode(t, func(e *Encoder) error { return e.WriteExt(-3, []byte("abc")) })
	typ, data, err := decoderFor(got).ReadExt()
	require.NoError(t, err)
	assert.Equal(t, int8(-3), typ)
	assert.Equal(t, []byte("abc"), data)
}

func TestEncoderRollback(t *testing.T) {
	r := require.New(t)

	sink := membuf.NewFixedSink(4)
	enc := NewEncoder(sink)
	r.NoError(enc.WriteInt(1))

	r.ErrorIs(enc.WriteString("hello"), bstream.NoBufferSpace)
	r.Equal(bstream.Position(1), sink.Position())
	r.Equal([]byte{0x01}, sink.Bytes())

	r.ErrorIs(enc.Encode([]int{1, 2, 3, 4}), bstream.NoBufferSpace)
	r.Equal(bstream.Position(1), sink.Position())

	r.NoError(enc.Encode([]int{2, 3}))
	r.Equal([]byte{0x01, 0x92, 0x02, 0x03}, sink.Bytes())

	long := strings.Repeat("x", 40)
	r.ErrorIs(NewEncoder(membuf.NewFixedSink(41)).WriteString(long), bstream.NoBufferSpace)
}
