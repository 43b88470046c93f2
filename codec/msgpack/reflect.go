// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"

	bstream "github.com/edgeofmagic/util-sub000"
)

// Marshaler is implemented by types that write themselves.
type Marshaler interface {
	MarshalMsgpack(*Encoder) error
}

// Unmarshaler is implemented by types that read themselves.
type Unmarshaler interface {
	UnmarshalMsgpack(*Decoder) error
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

// structHandle encodes structs as maps keyed by field name, with the same
// integer and string forms the Encoder produces.
var structHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.PositiveIntUnsigned = true
	h.RawToString = true
	return h
}()

// Encode writes v. Marshalers write themselves; booleans, numbers, strings,
// byte slices, slices, arrays, maps and pointers are mapped onto the
// corresponding MessagePack forms, and structs are written as maps of their
// exported fields.
func (e *Encoder) Encode(v interface{}) error {
	return e.atomic(func() error { return e.encode(reflect.ValueOf(v)) })
}

func (e *Encoder) encode(rv reflect.Value) error {
	if !rv.IsValid() {
		return e.WriteNil()
	}
	t := rv.Type()
	if t.Implements(marshalerType) {
		if (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil() {
			return e.WriteNil()
		}
		return rv.Interface().(Marshaler).MarshalMsgpack(e)
	}
	if rv.CanAddr() && reflect.PointerTo(t).Implements(marshalerType) {
		return rv.Addr().Interface().(Marshaler).MarshalMsgpack(e)
	}

	switch rv.Kind() {
	case reflect.Bool:
		return e.WriteBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.WriteInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.WriteUint(rv.Uint())
	case reflect.Float32:
		return e.WriteFloat32(float32(rv.Float()))
	case reflect.Float64:
		return e.WriteFloat64(rv.Float())
	case reflect.String:
		return e.WriteString(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return e.WriteNil()
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return e.WriteBlob(rv.Bytes())
		}
		return e.encodeList(rv)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return e.WriteBlob(b)
		}
		return e.encodeList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return e.WriteNil()
		}
		return e.encodeMap(rv)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return e.WriteNil()
		}
		return e.encode(rv.Elem())
	case reflect.Struct:
		var raw []byte
		if err := codec.NewEncoderBytes(&raw, structHandle).Encode(rv.Interface()); err != nil {
			return errors.Wrapf(err, "msgpack: failed to encode %s", t)
		}
		return e.s.PutN(raw)
	}
	return bstream.NewError(bstream.InvalidArgument, "msgpack/encode", "cannot encode %s", t)
}

func (e *Encoder) encodeList(rv reflect.Value) error {
	n := rv.Len()
	if err := e.WriteArrayHeader(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := e.encode(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMap(rv reflect.Value) error {
	keys := rv.MapKeys()
	sortKeys(keys)
	if err := e.WriteMapHeader(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := e.encode(k); err != nil {
			return err
		}
		if err := e.encode(rv.MapIndex(k)); err != nil {
			return err
		}
	}
	return nil
}

// sortKeys orders string and numeric keys so maps encode deterministically.
func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	var less func(a, b reflect.Value) bool
	switch keys[0].Kind() {
	case reflect.String:
		less = func(a, b reflect.Value) bool { return a.String() < b.String() }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		less = func(a, b reflect.Value) bool { return a.Int() < b.Int() }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		less = func(a, b reflect.Value) bool { return a.Uint() < b.Uint() }
	case reflect.Float32, reflect.Float64:
		less = func(a, b reflect.Value) bool { return a.Float() < b.Float() }
	default:
		return
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
}

// Decode reads the next value into the value v points to, using the mapping
// of Encode. Decoding into an empty interface yields the values described at
// Value.Interface.
func (d *Decoder) Decode(v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return bstream.NewError(bstream.InvalidArgument, "msgpack/decode", "need a non-nil pointer, got %T", v)
	}
	m := d.s.Mark()
	if err := d.decode(rv.Elem()); err != nil {
		return d.fail(m, err)
	}
	return nil
}

func (d *Decoder) decode(rv reflect.Value) error {
	leave, err := d.nest("msgpack/decode")
	if err != nil {
		return err
	}
	defer leave()

	t := rv.Type()
	if rv.CanAddr() && reflect.PointerTo(t).Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalMsgpack(d)
	}

	switch rv.Kind() {
	case reflect.Bool:
		b, err := d.ReadBool()
		if err != nil {
			return err
		}
		rv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, err := d.readInt(t.Bits())
		if err != nil {
			return err
		}
		rv.SetInt(x)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		x, err := d.readUint(t.Bits())
		if err != nil {
			return err
		}
		rv.SetUint(x)
	case reflect.Float32:
		f, err := d.ReadFloat32()
		if err != nil {
			return err
		}
		rv.SetFloat(float64(f))
	case reflect.Float64:
		f, err := d.ReadFloat64()
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.String:
		s, err := d.ReadString()
		if err != nil {
			return err
		}
		rv.SetString(s)
	case reflect.Slice:
		return d.decodeSlice(rv)
	case reflect.Array:
		return d.decodeArray(rv)
	case reflect.Map:
		return d.decodeMap(rv)
	case reflect.Ptr:
		isNil, err := d.TryReadNil()
		if err != nil {
			return err
		}
		if isNil {
			rv.Set(reflect.Zero(t))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(t.Elem()))
		}
		return d.decode(rv.Elem())
	case reflect.Interface:
		if t.NumMethod() != 0 {
			if !rv.IsNil() && rv.Elem().Kind() == reflect.Ptr {
				return d.decode(rv.Elem().Elem())
			}
			return bstream.NewError(bstream.InvalidArgument, "msgpack/decode", "cannot decode into %s", t)
		}
		val, err := d.readValue()
		if err != nil {
			return err
		}
		x, err := val.Interface()
		if err != nil {
			return err
		}
		if x == nil {
			rv.Set(reflect.Zero(t))
		} else {
			rv.Set(reflect.ValueOf(x))
		}
	case reflect.Struct:
		return d.decodeStruct(rv)
	default:
		return bstream.NewError(bstream.InvalidArgument, "msgpack/decode", "cannot decode into %s", t)
	}
	return nil
}

func (d *Decoder) decodeSlice(rv reflect.Value) error {
	t := rv.Type()
	isNil, err := d.TryReadNil()
	if err != nil {
		return err
	}
	if isNil {
		rv.Set(reflect.Zero(t))
		return nil
	}
	if t.Elem().Kind() == reflect.Uint8 {
		b, err := d.ReadBlob()
		if err != nil {
			return err
		}
		rv.SetBytes(b)
		return nil
	}
	n, err := d.ReadArrayHeader()
	if err != nil {
		return err
	}
	s := reflect.MakeSlice(t, 0, capHint(n))
	for i := 0; i < n; i++ {
		el := reflect.New(t.Elem()).Elem()
		if err := d.decode(el); err != nil {
			return err
		}
		s = reflect.Append(s, el)
	}
	rv.Set(s)
	return nil
}

func (d *Decoder) decodeArray(rv reflect.Value) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		m := d.s.Mark()
		b, err := d.ReadBlob()
		if err != nil {
			return err
		}
		if len(b) != rv.Len() {
			return d.fail(m, bstream.NewError(bstream.LengthMismatch, "msgpack/decode", "expected %d bytes, found %d", rv.Len(), len(b)))
		}
		reflect.Copy(rv, reflect.ValueOf(b))
		return nil
	}
	if err := d.CheckArrayHeader(rv.Len()); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := d.decode(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeMap(rv reflect.Value) error {
	t := rv.Type()
	isNil, err := d.TryReadNil()
	if err != nil {
		return err
	}
	if isNil {
		rv.Set(reflect.Zero(t))
		return nil
	}
	n, err := d.ReadMapHeader()
	if err != nil {
		return err
	}
	mp := reflect.MakeMapWithSize(t, capHint(n))
	for i := 0; i < n; i++ {
		k := reflect.New(t.Key()).Elem()
		if err := d.decode(k); err != nil {
			return err
		}
		v := reflect.New(t.Elem()).Elem()
		if err := d.decode(v); err != nil {
			return err
		}
		mp.SetMapIndex(k, v)
	}
	rv.Set(mp)
	return nil
}

// decodeStruct measures the next value with Skip and hands its bytes to the
// struct decoder.
func (d *Decoder) decodeStruct(rv reflect.Value) error {
	start := d.s.Mark()
	if err := d.Skip(); err != nil {
		return err
	}
	n := int(d.s.Position() - start.Pos)
	if err := d.s.Restore(start); err != nil {
		return err
	}
	raw, err := d.s.GetSlice(n)
	if err != nil {
		return err
	}
	target, copyBack := rv, !rv.CanAddr()
	if copyBack {
		target = reflect.New(rv.Type()).Elem()
	}
	if err := codec.NewDecoderBytes(raw, structHandle).Decode(target.Addr().Interface()); err != nil {
		return errors.Wrapf(err, "msgpack: failed to decode %s", rv.Type())
	}
	if copyBack {
		rv.Set(target)
	}
	return nil
}
