// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/membuf"
)

type point struct {
	X, Y int
	Name string
	Tags []string
}

func TestEncodeDecodeValues(t *testing.T) {
	type testcase struct {
		name string
		in   interface{}
		out  interface{}
	}

	tcs := []testcase{
		{"bool", true, new(bool)},
		{"int", -1234, new(int)},
		{"uint16", uint16(65000), new(uint16)},
		{"float32", float32(2.5), new(float32)},
		{"string", "hello", new(string)},
		{"bytes", []byte("raw"), new([]byte)},
		{"array", [3]int16{1, -2, 3}, new([3]int16)},
		{"byte array", [4]byte{1, 2, 3, 4}, new([4]byte)},
		{"slice", []string{"a", "b"}, new([]string)},
		{"map", map[string]int{"one": 1, "two": 2}, new(map[string]int)},
		{"pointer", &point{X: 1, Y: 2, Name: "p"}, new(*point)},
		{"struct", point{X: -5, Y: 300, Name: "q", Tags: []string{"t"}}, new(point)},
		{"structs", []point{{X: 1}, {Y: 2}}, new([]point)},
	}

	mkTest := func(tc testcase) func(*testing.T) {
		return func(t *testing.T) {
			r := require.New(t)
			b := encode(t, func(e *Encoder) error { return e.Encode(tc.in) })

			dec := decoderFor(b)
			r.NoError(dec.Decode(tc.out))
			r.Equal(bstream.Position(len(b)), dec.Position())

			switch tc.in.(type) {
			case *point:
				r.Equal(tc.in, *(tc.out.(**point)))
			default:
				r.Equal(tc.in, deref(tc.out))
			}
		}
	}

	for _, tc := range tcs {
		t.Run(tc.name, mkTest(tc))
	}
}

func deref(p interface{}) interface{} {
	switch v := p.(type) {
	case *bool:
		return *v
	case *int:
		return *v
	case *uint16:
		return *v
	case *float32:
		return *v
	case *string:
		return *v
	case *[]byte:
		return *v
	case *[3]int16:
		return *v
	case *[4]byte:
		return *v
	case *[]string:
		return *v
	case *map[string]int:
		return *v
	case *point:
		return *v
	case *[]point:
		return *v
	}
	panic("unhandled type")
}

func TestMapKeysSorted(t *testing.T) {
	a := assert.New(t)

	b := encode(t, func(e *Encoder) error { return e.Encode(map[string]int{"b": 2, "a": 1, "c": 3}) })
	a.Equal(hdr(0x83, 0xa1, 'a', 1, 0xa1, 'b', 2, 0xa1, 'c', 3), b)

	b = encode(t, func(e *Encoder) error { return e.Encode(map[int]bool{10: true, -1: false}) })
	a.Equal(hdr(0x82, 0xff, 0xc2, 0x0a, 0xc3), b)
}

func TestDecodeErrors(t *testing.T) {
	a := assert.New(t)

	b := encode(t, func(e *Encoder) error { return e.Encode([]int{1, 2, 300}) })

	var notPtr []int
	a.ErrorIs(decoderFor(b).Decode(notPtr), bstream.InvalidArgument)

	var arr [2]int
	a.ErrorIs(decoderFor(b).Decode(&arr), bstream.LengthMismatch)

	var small []int8
	dec := decoderFor(b)
	a.ErrorIs(dec.Decode(&small), bstream.RangeError8)
	a.Equal(bstream.Position(0), dec.Position())

	var s string
	a.ErrorIs(decoderFor(b).Decode(&s), bstream.ExpectedString)

	var ch chan int
	a.ErrorIs(decoderFor(b).Decode(&ch), bstream.InvalidArgument)
	sink := membuf.NewSink(8)
	a.ErrorIs(NewEncoder(sink).Encode([]interface{}{1, make(chan int)}), bstream.InvalidArgument)
	a.Equal(bstream.Position(0), sink.Size())
}

func TestDecodeInterface(t *testing.T) {
	r := require.New(t)

	b := encode(t, func(e *Encoder) error {
		return e.Encode(map[string]interface{}{"n": -3, "s": "str", "l": []interface{}{1, nil}})
	})

	var v interface{}
	r.NoError(decoderFor(b).Decode(&v))
	r.Equal(map[string]interface{}{
		"n": int64(-3),
		"s": "str",
		"l": []interface{}{uint64(1), nil},
	}, v)

	var p *point
	b = encode(t, func(e *Encoder) error { return e.Encode(p) })
	r.Equal(hdr(0xc0), b)
	p = &point{}
	r.NoError(decoderFor(b).Decode(&p))
	r.Nil(p)
}

func TestStructsInterop(t *testing.T) {
	r := require.New(t)

	want := point{X: 7, Y: -1, Name: "ugorji", Tags: []string{"a", "b"}}

	// written by the struct codec directly
	var raw []byte
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	r.NoError(codec.NewEncoderBytes(&raw, h).Encode(want))

	raw = append(raw, 0xc3)
	dec := decoderFor(raw)
	var got point
	r.NoError(dec.Decode(&got))
	r.Equal(want, got)
	ok, err := dec.ReadBool()
	r.NoError(err)
	r.True(ok, "decoding the struct consumes exactly its bytes")

	// and read back as a generic value
	v, err := decoderFor(raw).ReadValue()
	r.NoError(err)
	r.Equal(KindMap, v.Kind)
	r.Len(v.Pairs, 4)
	r.Equal("X", v.Pairs[0].Key.Str)
	r.Equal(uint64(7), v.Pairs[0].Val.Uint)

	// a struct written here reads with the struct codec
	b := encode(t, func(e *Encoder) error { return e.Encode(want) })
	var back point
	r.NoError(codec.NewDecoderBytes(b, h).Decode(&back))
	r.Equal(want, back)
}
