// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"fmt"
	"math"

	bstream "github.com/edgeofmagic/util-sub000"
)

// Value is a decoded value of any kind, with the offset it was read from.
type Value struct {
	Kind Kind
	Code Code
	Pos  bstream.Position

	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	// Str holds strings; Bytes holds blobs and extension payloads.
	Str     string
	Bytes   []byte
	ExtType int8

	Items []Value
	Pairs []Pair
}

// Pair is one map entry.
type Pair struct {
	Key, Val Value
}

// Interface converts v to plain Go values: nil, bool, int64, uint64, float64,
// string, []byte, []interface{} and map[string]interface{} or, when a key is
// not a string, map[interface{}]interface{}. Extension values become *Ext.
func (v Value) Interface() (interface{}, error) {
	switch v.Kind {
	case KindNil:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindUint:
		return v.Uint, nil
	case KindFloat:
		return v.Float, nil
	case KindString:
		return v.Str, nil
	case KindBlob:
		return v.Bytes, nil
	case KindExt:
		return &Ext{Type: v.ExtType, Data: v.Bytes}, nil
	case KindArray:
		out := make([]interface{}, len(v.Items))
		for i, it := range v.Items {
			x, err := it.Interface()
			if err != nil {
				return nil, err
			}
			out[i] = x
		}
		return out, nil
	case KindMap:
		return v.mapInterface()
	}
	return nil, bstream.NewError(bstream.InvalidState, "msgpack/value", "invalid kind %s", v.Kind)
}

func (v Value) mapInterface() (interface{}, error) {
	strKeys := true
	for _, p := range v.Pairs {
		if p.Key.Kind != KindString {
			strKeys = false
			break
		}
	}
	if strKeys {
		out := make(map[string]interface{}, len(v.Pairs))
		for _, p := range v.Pairs {
			x, err := p.Val.Interface()
			if err != nil {
				return nil, err
			}
			out[p.Key.Str] = x
		}
		return out, nil
	}
	out := make(map[interface{}]interface{}, len(v.Pairs))
	for _, p := range v.Pairs {
		switch p.Key.Kind {
		case KindArray, KindMap, KindBlob, KindExt:
			return nil, bstream.NewError(bstream.InvalidArgument, "msgpack/value", "map key of kind %s at %d cannot be used as a Go map key", p.Key.Kind, p.Key.Pos)
		}
		k, err := p.Key.Interface()
		if err != nil {
			return nil, err
		}
		x, err := p.Val.Interface()
		if err != nil {
			return nil, err
		}
		out[k] = x
	}
	return out, nil
}

func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return fmt.Sprint(v.Bool)
	case KindInt:
		return fmt.Sprint(v.Int)
	case KindUint:
		return fmt.Sprint(v.Uint)
	case KindFloat:
		return fmt.Sprint(v.Float)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindBlob:
		return fmt.Sprintf("blob[%d] %x", len(v.Bytes), v.Bytes)
	case KindExt:
		return fmt.Sprintf("ext(%d)[%d] %x", v.ExtType, len(v.Bytes), v.Bytes)
	case KindArray:
		return fmt.Sprintf("array[%d]", len(v.Items))
	case KindMap:
		return fmt.Sprintf("map[%d]", len(v.Pairs))
	}
	return v.Kind.String()
}

// MarshalMsgpack writes v back in the form it was read in, apart from
// integer and header widths, which are made minimal.
func (v Value) MarshalMsgpack(e *Encoder) error {
	switch v.Kind {
	case KindNil:
		return e.WriteNil()
	case KindBool:
		return e.WriteBool(v.Bool)
	case KindInt:
		return e.WriteInt(v.Int)
	case KindUint:
		return e.WriteUint(v.Uint)
	case KindFloat:
		if v.Code == Float32 {
			return e.WriteFloat32(float32(v.Float))
		}
		return e.WriteFloat64(v.Float)
	case KindString:
		return e.WriteString(v.Str)
	case KindBlob:
		return e.WriteBlob(v.Bytes)
	case KindExt:
		return e.WriteExt(v.ExtType, v.Bytes)
	case KindArray:
		return e.atomic(func() error {
			if err := e.WriteArrayHeader(len(v.Items)); err != nil {
				return err
			}
			for _, it := range v.Items {
				if err := it.MarshalMsgpack(e); err != nil {
					return err
				}
			}
			return nil
		})
	case KindMap:
		return e.atomic(func() error {
			if err := e.WriteMapHeader(len(v.Pairs)); err != nil {
				return err
			}
			for _, p := range v.Pairs {
				if err := p.Key.MarshalMsgpack(e); err != nil {
					return err
				}
				if err := p.Val.MarshalMsgpack(e); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return bstream.NewError(bstream.InvalidArgument, "msgpack/value", "invalid kind %s", v.Kind)
}

func (v *Value) UnmarshalMsgpack(d *Decoder) error {
	val, err := d.ReadValue()
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Ext is an extension value.
type Ext struct {
	Type int8
	Data []byte
}

func (x *Ext) MarshalMsgpack(e *Encoder) error { return e.WriteExt(x.Type, x.Data) }

func (x *Ext) UnmarshalMsgpack(d *Decoder) error {
	typ, data, err := d.ReadExt()
	if err != nil {
		return err
	}
	x.Type, x.Data = typ, data
	return nil
}

// ReadValue decodes the next value of any kind.
func (d *Decoder) ReadValue() (Value, error) {
	m := d.s.Mark()
	v, err := d.readValue()
	if err != nil {
		return Value{}, d.fail(m, err)
	}
	return v, nil
}

func (d *Decoder) readValue() (Value, error) {
	v := Value{Pos: d.s.Position()}
	leave, err := d.nest("msgpack/value")
	if err != nil {
		return v, err
	}
	defer leave()
	c, err := d.PeekCode()
	if err != nil {
		return v, err
	}
	v.Code, v.Kind = c, c.Kind()
	switch v.Kind {
	case KindNil:
		err = d.ReadNil()
	case KindBool:
		v.Bool, err = d.ReadBool()
	case KindInt:
		v.Int, err = d.ReadInt64()
	case KindUint:
		v.Uint, err = d.ReadUint64()
	case KindFloat:
		v.Float, err = d.ReadFloat64()
	case KindString:
		v.Str, err = d.ReadString()
	case KindBlob:
		v.Bytes, err = d.ReadBlob()
	case KindExt:
		v.ExtType, v.Bytes, err = d.ReadExt()
	case KindArray:
		var n int
		if n, err = d.ReadArrayHeader(); err != nil {
			return v, err
		}
		v.Items = make([]Value, 0, capHint(n))
		for i := 0; i < n; i++ {
			it, err := d.readValue()
			if err != nil {
				return v, err
			}
			v.Items = append(v.Items, it)
		}
	case KindMap:
		var n int
		if n, err = d.ReadMapHeader(); err != nil {
			return v, err
		}
		v.Pairs = make([]Pair, 0, capHint(n))
		for i := 0; i < n; i++ {
			var p Pair
			if p.Key, err = d.readValue(); err != nil {
				return v, err
			}
			if p.Val, err = d.readValue(); err != nil {
				return v, err
			}
			v.Pairs = append(v.Pairs, p)
		}
	default:
		err = bstream.NewError(bstream.InvalidArgument, "msgpack/value", "invalid code %s at %d", c, v.Pos)
	}
	return v, err
}

// capHint bounds preallocation by headers that may claim more elements than
// the stream holds.
func capHint(n int) int {
	if n > 1024 {
		return 1024
	}
	return n
}

// Skip advances past the next value, including everything nested in it.
func (d *Decoder) Skip() error {
	m := d.s.Mark()
	for pending := uint64(1); pending > 0; pending-- {
		n, err := d.skipOne()
		if err != nil {
			return d.fail(m, err)
		}
		pending += n
		if pending > math.MaxUint32*3 {
			return d.fail(m, bstream.NewError(bstream.InvalidArgument, "msgpack/skip", "nesting too large"))
		}
	}
	return nil
}

// skipOne skips the next code and its payload, returning how many nested
// values follow it.
func (d *Decoder) skipOne() (uint64, error) {
	c, err := d.PeekCode()
	if err != nil {
		return 0, err
	}
	switch c.Kind() {
	case KindArray:
		n, err := d.ReadArrayHeader()
		return uint64(n), err
	case KindMap:
		n, err := d.ReadMapHeader()
		return 2 * uint64(n), err
	case KindString:
		n, err := d.ReadStringHeader()
		if err != nil {
			return 0, err
		}
		return 0, d.s.Skip(n)
	case KindBlob:
		n, err := d.ReadBlobHeader()
		if err != nil {
			return 0, err
		}
		return 0, d.s.Skip(n)
	case KindExt:
		_, n, err := d.ReadExtHeader()
		if err != nil {
			return 0, err
		}
		return 0, d.s.Skip(n)
	case KindInvalid:
		return 0, bstream.NewError(bstream.InvalidArgument, "msgpack/skip", "invalid code %s", c)
	}
	// scalars: code byte plus fixed payload
	n := 1
	if w := intWidth(c); w > 0 {
		n += w / 8
	} else if c == Float32 {
		n += 4
	} else if c == Float64 {
		n += 8
	}
	return 0, d.s.Skip(n)
}
