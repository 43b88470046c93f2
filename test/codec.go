// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/codec/msgpack"
)

// CodecTestRoundTrip encodes a mixed set of values into a sink, copies the
// bytes into a source and decodes them again.
func CodecTestRoundTrip(newSink NewSinkFunc, newSource NewSourceFunc) func(*testing.T) {
	return func(t *testing.T) {
		a := assert.New(t)
		r := require.New(t)

		sink, readBack, err := newSink(t.Name() + "-sink")
		r.NoError(err)
		defer cleanup(t, sink)

		blob := testData(70000)
		long := strings.Repeat("segmented ", 40)

		enc := msgpack.NewEncoder(sink)
		r.NoError(enc.WriteNil())
		r.NoError(enc.WriteBool(true))
		r.NoError(enc.WriteInt(-33))
		r.NoError(enc.WriteUint(math.MaxUint64))
		r.NoError(enc.WriteInt(math.MinInt64))
		r.NoError(enc.WriteFloat32(1.5))
		r.NoError(enc.WriteFloat64(math.Pi))
		r.NoError(enc.WriteString(long))
		r.NoError(enc.WriteBlob(blob))
		r.NoError(enc.Encode(map[string][]int{"a": {1, 2, 3}, "b": nil}))
		r.NoError(enc.WriteExt(7, []byte{1, 2, 3, 4}))
		r.NoError(enc.Flush())

		data, err := readBack()
		r.NoError(err)

		src, err := newSource(t.Name()+"-source", data)
		r.NoError(err)
		defer cleanup(t, src)

		dec := msgpack.NewDecoder(src)
		r.NoError(dec.ReadNil())

		b, err := dec.ReadBool()
		r.NoError(err)
		a.True(b)

		i8, err := dec.ReadInt8()
		r.NoError(err)
		a.EqualValues(-33, i8)

		_, err = dec.ReadInt64()
		a.ErrorIs(err, bstream.RangeError64)
		u, err := dec.ReadUint64()
		r.NoError(err)
		a.EqualValues(uint64(math.MaxUint64), u)

		i, err := dec.ReadInt64()
		r.NoError(err)
		a.EqualValues(math.MinInt64, i)

		f32, err := dec.ReadFloat32()
		r.NoError(err)
		a.EqualValues(1.5, f32)

		f64, err := dec.ReadFloat64()
		r.NoError(err)
		a.Equal(math.Pi, f64)

		s, err := dec.ReadString()
		r.NoError(err)
		a.Equal(long, s)

		sh, err := dec.ReadSharedBlob()
		r.NoError(err)
		a.Equal(blob, sh.Bytes())
		sh.Release()

		var m map[string][]int
		r.NoError(dec.Decode(&m))
		a.Equal(map[string][]int{"a": {1, 2, 3}, "b": nil}, m)

		typ, ext, err := dec.ReadExt()
		r.NoError(err)
		a.EqualValues(7, typ)
		a.Equal([]byte{1, 2, 3, 4}, ext)

		_, err = dec.PeekCode()
		a.True(bstream.IsReadPastEnd(err))

		// everything again, generically
		r.NoError(src.Rewind())
		var n int
		for {
			if _, err := dec.PeekCode(); err != nil {
				r.True(bstream.IsReadPastEnd(err), "unexpected error %v", err)
				break
			}
			r.NoError(dec.Skip())
			n++
		}
		a.Equal(11, n)
	}
}
