// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vmsgpack "github.com/vmihailenco/msgpack/v5"
)

// the reference encoder also picks the smallest integer form
func TestIntsMatchReference(t *testing.T) {
	ints := []int64{0, 1, 127, 128, 255, 256, -1, -32, -33, -128, -129, -32768, -32769,
		math.MaxInt16, math.MaxUint16, math.MaxUint16 + 1, math.MinInt32, math.MaxUint32, math.MinInt64, math.MaxInt64}

	for _, v := range ints {
		var ref bytes.Buffer
		require.NoError(t, vmsgpack.NewEncoder(&ref).EncodeInt(v))
		got := encode(t, func(e *Encoder) error { return e.WriteInt(v) })
		assert.Equal(t, ref.Bytes(), got, "%d", v)
	}
}

func TestHeadersMatchReference(t *testing.T) {
	for _, n := range []int{0, 31, 32, 255, 256, 65535, 65536} {
		s := strings.Repeat("s", n)
		blob := bytes.Repeat([]byte("b"), n)

		var ref bytes.Buffer
		enc := vmsgpack.NewEncoder(&ref)
		require.NoError(t, enc.EncodeString(s))
		require.NoError(t, enc.EncodeBytes(blob))
		require.NoError(t, enc.EncodeArrayLen(n))
		require.NoError(t, enc.EncodeMapLen(n))

		got := encode(t, func(e *Encoder) error {
			if err := e.WriteString(s); err != nil {
				return err
			}
			if err := e.WriteBlob(blob); err != nil {
				return err
			}
			if err := e.WriteArrayHeader(n); err != nil {
				return err
			}
			return e.WriteMapHeader(n)
		})
		assert.Equal(t, ref.Bytes(), got, "length %d", n)
	}
}

func TestReadReference(t *testing.T) {
	r := require.New(t)

	var ref bytes.Buffer
	enc := vmsgpack.NewEncoder(&ref)
	r.NoError(enc.EncodeArrayLen(7))
	r.NoError(enc.EncodeInt(-33))
	r.NoError(enc.EncodeUint(300))
	r.NoError(enc.EncodeString("hi"))
	r.NoError(enc.EncodeBytes([]byte{9}))
	r.NoError(enc.EncodeBool(false))
	r.NoError(enc.EncodeNil())
	r.NoError(enc.EncodeFloat64(2.5))
	r.NoError(enc.EncodeMapLen(1))
	r.NoError(enc.EncodeString("k"))
	r.NoError(enc.EncodeFloat32(0.5))

	dec := decoderFor(ref.Bytes())
	r.NoError(dec.CheckArrayHeader(7))
	i8, err := dec.ReadInt8()
	r.NoError(err)
	r.Equal(int8(-33), i8)
	u16, err := dec.ReadUint16()
	r.NoError(err)
	r.Equal(uint16(300), u16)
	s, err := dec.ReadString()
	r.NoError(err)
	r.Equal("hi", s)
	b, err := dec.ReadBlob()
	r.NoError(err)
	r.Equal([]byte{9}, b)
	v, err := dec.ReadBool()
	r.NoError(err)
	r.False(v)
	r.NoError(dec.ReadNil())
	f, err := dec.ReadFloat64()
	r.NoError(err)
	r.Equal(2.5, f)

	var m map[string]float32
	r.NoError(dec.Decode(&m))
	r.Equal(map[string]float32{"k": 0.5}, m)
}

func TestReferenceReads(t *testing.T) {
	r := require.New(t)

	b := encode(t, func(e *Encoder) error {
		if err := e.Encode(map[string]interface{}{"a": -70000, "b": []string{"x"}}); err != nil {
			return err
		}
		return e.WriteExt(3, []byte{1, 2, 3, 4})
	})

	dec := vmsgpack.NewDecoder(bytes.NewReader(b))
	n, err := dec.DecodeMapLen()
	r.NoError(err)
	r.Equal(2, n)
	k, err := dec.DecodeString()
	r.NoError(err)
	r.Equal("a", k)
	i, err := dec.DecodeInt64()
	r.NoError(err)
	r.Equal(int64(-70000), i)
	k, err = dec.DecodeString()
	r.NoError(err)
	r.Equal("b", k)
	l, err := dec.DecodeArrayLen()
	r.NoError(err)
	r.Equal(1, l)
	s, err := dec.DecodeString()
	r.NoError(err)
	r.Equal("x", s)

	typ, ln, err := dec.DecodeExtHeader()
	r.NoError(err)
	r.Equal(int8(3), typ)
	r.Equal(4, ln)
}
