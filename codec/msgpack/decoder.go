// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"encoding/binary"
	"math"

	bstream "github.com/edgeofmagic/util-sub000"
)

// Decoder reads MessagePack values from a source.
// A failed read leaves the source at the start of the value it was reading.
type Decoder struct {
	s     bstream.Source
	buf   [8]byte
	depth int
}

// MaxDepth is how deeply ReadValue and Decode let containers nest.
const MaxDepth = 1000

// nest enters one level of nesting. The returned func leaves it again.
func (d *Decoder) nest(op string) (func(), error) {
	if d.depth >= MaxDepth {
		return nil, bstream.NewError(bstream.InvalidArgument, op, "values nested deeper than %d at %d", MaxDepth, d.s.Position())
	}
	d.depth++
	return func() { d.depth-- }, nil
}

// NewDecoder returns a decoder reading from s.
func NewDecoder(s bstream.Source) *Decoder {
	return &Decoder{s: s}
}

// Source returns the underlying source.
func (d *Decoder) Source() bstream.Source { return d.s }

// Reset points the decoder at a different source.
func (d *Decoder) Reset(s bstream.Source) { d.s = s }

// Position returns the offset of the next value.
func (d *Decoder) Position() bstream.Position { return d.s.Position() }

// fail restores m and returns err.
func (d *Decoder) fail(m bstream.Mark, err error) error {
	_ = d.s.Restore(m)
	return err
}

// PeekCode returns the code of the next value without consuming it.
func (d *Decoder) PeekCode() (Code, error) {
	c, err := d.s.Peek()
	return Code(c), err
}

func (d *Decoder) readCode() (Code, error) {
	c, err := d.s.Get()
	return Code(c), err
}

func (d *Decoder) readN(n int) ([]byte, error) {
	b := d.buf[:n]
	if err := d.s.GetFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// readSized reads the big-endian payload of a sized code, n bytes wide.
func (d *Decoder) readSized(n int) (uint64, error) {
	b, err := d.readN(n)
	if err != nil {
		return 0, err
	}
	switch n {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(b)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(b)), nil
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *Decoder) ReadNil() error {
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return err
	}
	if c != Nil {
		return d.fail(m, bstream.NewError(bstream.ExpectedNil, "msgpack/nil", "found %s", c))
	}
	return nil
}

// TryReadNil consumes a nil value if one is next and reports whether it did.
func (d *Decoder) TryReadNil() (bool, error) {
	c, err := d.PeekCode()
	if err != nil || c != Nil {
		return false, err
	}
	_, err = d.readCode()
	return err == nil, err
}

func (d *Decoder) ReadBool() (bool, error) {
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return false, err
	}
	switch c {
	case True:
		return true, nil
	case False:
		return false, nil
	}
	return false, d.fail(m, bstream.NewError(bstream.ExpectedBool, "msgpack/bool", "found %s", c))
}

// readInt decodes an integer for a signed destination of the given width.
//
// Fixints decode directly and booleans decode as 0 or 1. A sized code is
// accepted only if its natural width is at most bits, and its value must then
// fit the destination. Codes of other kinds are type errors.
func (d *Decoder) readInt(bits int) (int64, error) {
	const op = "msgpack/int"
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return 0, err
	}
	var v int64
	switch {
	case c.IsPositiveFixInt():
		v = int64(c)
	case c.IsNegativeFixInt():
		v = int64(int8(c))
	case c == True:
		v = 1
	case c == False:
		v = 0
	default:
		w := intWidth(c)
		if w == 0 {
			return 0, d.fail(m, bstream.NewError(bstream.TypeError(bits), op, "found %s", c))
		}
		if w > bits {
			return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "%s does not fit %d bits", c, bits))
		}
		u, err := d.readSized(w / 8)
		if err != nil {
			return 0, d.fail(m, err)
		}
		if c >= Int8 {
			switch w {
			case 8:
				v = int64(int8(u))
			case 16:
				v = int64(int16(u))
			case 32:
				v = int64(int32(u))
			default:
				v = int64(u)
			}
		} else {
			if u > math.MaxInt64 {
				return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "%d overflows %d bits", u, bits))
			}
			v = int64(u)
		}
	}
	lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
	if v < lo || v > hi {
		return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "%d overflows %d bits", v, bits))
	}
	return v, nil
}

// readUint is readInt for unsigned destinations. Negative values, fixints
// included, are range errors.
func (d *Decoder) readUint(bits int) (uint64, error) {
	const op = "msgpack/uint"
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return 0, err
	}
	var v uint64
	switch {
	case c.IsPositiveFixInt():
		v = uint64(c)
	case c.IsNegativeFixInt():
		return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "negative value %d", int8(c)))
	case c == True:
		v = 1
	case c == False:
		v = 0
	default:
		w := intWidth(c)
		if w == 0 {
			return 0, d.fail(m, bstream.NewError(bstream.TypeError(bits), op, "found %s", c))
		}
		if w > bits {
			return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "%s does not fit %d bits", c, bits))
		}
		u, err := d.readSized(w / 8)
		if err != nil {
			return 0, d.fail(m, err)
		}
		if c >= Int8 {
			neg := false
			switch w {
			case 8:
				neg = int8(u) < 0
			case 16:
				neg = int16(u) < 0
			case 32:
				neg = int32(u) < 0
			default:
				neg = int64(u) < 0
			}
			if neg {
				return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "negative value"))
			}
		}
		v = u
	}
	if bits < 64 && v > uint64(1)<<bits-1 {
		return 0, d.fail(m, bstream.NewError(bstream.RangeError(bits), op, "%d overflows %d bits", v, bits))
	}
	return v, nil
}

func (d *Decoder) ReadInt8() (int8, error) {
	v, err := d.readInt(8)
	return int8(v), err
}

func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.readInt(16)
	return int16(v), err
}

func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.readInt(32)
	return int32(v), err
}

func (d *Decoder) ReadInt64() (int64, error) { return d.readInt(64) }

func (d *Decoder) ReadUint8() (uint8, error) {
	v, err := d.readUint(8)
	return uint8(v), err
}

func (d *Decoder) ReadUint16() (uint16, error) {
	v, err := d.readUint(16)
	return uint16(v), err
}

func (d *Decoder) ReadUint32() (uint32, error) {
	v, err := d.readUint(32)
	return uint32(v), err
}

func (d *Decoder) ReadUint64() (uint64, error) { return d.readUint(64) }

// ReadFloat32 accepts a float32, or a float64 that float32 represents exactly.
func (d *Decoder) ReadFloat32() (float32, error) {
	const op = "msgpack/float32"
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return 0, err
	}
	switch c {
	case Float32:
		u, err := d.readSized(4)
		if err != nil {
			return 0, d.fail(m, err)
		}
		return math.Float32frombits(uint32(u)), nil
	case Float64:
		u, err := d.readSized(8)
		if err != nil {
			return 0, d.fail(m, err)
		}
		f := math.Float64frombits(u)
		if f32 := float32(f); float64(f32) == f || math.IsNaN(f) {
			return f32, nil
		}
		return 0, d.fail(m, bstream.NewError(bstream.ExpectedFloat, op, "%g loses precision as float32", f))
	}
	return 0, d.fail(m, bstream.NewError(bstream.ExpectedFloat, op, "found %s", c))
}

func (d *Decoder) ReadFloat64() (float64, error) {
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return 0, err
	}
	switch c {
	case Float32:
		u, err := d.readSized(4)
		if err != nil {
			return 0, d.fail(m, err)
		}
		return float64(math.Float32frombits(uint32(u))), nil
	case Float64:
		u, err := d.readSized(8)
		if err != nil {
			return 0, d.fail(m, err)
		}
		return math.Float64frombits(u), nil
	}
	return 0, d.fail(m, bstream.NewError(bstream.ExpectedDouble, "msgpack/float64", "found %s", c))
}

// header reads a length header. inline extracts the length from fixed codes,
// sized maps the explicit forms to their length width in bytes.
func (d *Decoder) header(op string, expected bstream.Code, inline func(Code) (int, bool), sized map[Code]int) (int, error) {
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return 0, err
	}
	if inline != nil {
		if n, ok := inline(c); ok {
			return n, nil
		}
	}
	w, ok := sized[c]
	if !ok {
		return 0, d.fail(m, bstream.NewError(expected, op, "found %s", c))
	}
	u, err := d.readSized(w)
	if err != nil {
		return 0, d.fail(m, err)
	}
	return int(u), nil
}

var (
	strSizes   = map[Code]int{Str8: 1, Str16: 2, Str32: 4}
	binSizes   = map[Code]int{Bin8: 1, Bin16: 2, Bin32: 4}
	arraySizes = map[Code]int{Array16: 2, Array32: 4}
	mapSizes   = map[Code]int{Map16: 2, Map32: 4}
)

func fixStr(c Code) (int, bool)   { return int(c & fixStrMask), c.IsFixStr() }
func fixArray(c Code) (int, bool) { return int(c & fixArrayMask), c.IsFixArray() }
func fixMap(c Code) (int, bool)   { return int(c & fixMapMask), c.IsFixMap() }

func (d *Decoder) ReadStringHeader() (int, error) {
	return d.header("msgpack/string", bstream.ExpectedString, fixStr, strSizes)
}

func (d *Decoder) ReadBlobHeader() (int, error) {
	return d.header("msgpack/blob", bstream.ExpectedBlob, nil, binSizes)
}

func (d *Decoder) ReadArrayHeader() (int, error) {
	return d.header("msgpack/array", bstream.ExpectedArray, fixArray, arraySizes)
}

func (d *Decoder) ReadMapHeader() (int, error) {
	return d.header("msgpack/map", bstream.ExpectedMap, fixMap, mapSizes)
}

// ReadExtHeader returns the type and payload length of an extension value.
func (d *Decoder) ReadExtHeader() (int8, int, error) {
	m := d.s.Mark()
	c, err := d.readCode()
	if err != nil {
		return 0, 0, err
	}
	var n int
	switch c {
	case FixExt1:
		n = 1
	case FixExt2:
		n = 2
	case FixExt4:
		n = 4
	case FixExt8:
		n = 8
	case FixExt16:
		n = 16
	case Ext8, Ext16, Ext32:
		w := map[Code]int{Ext8: 1, Ext16: 2, Ext32: 4}[c]
		u, err := d.readSized(w)
		if err != nil {
			return 0, 0, d.fail(m, err)
		}
		n = int(u)
	default:
		return 0, 0, d.fail(m, bstream.NewError(bstream.ExpectedExt, "msgpack/ext", "found %s", c))
	}
	typ, err := d.s.Get()
	if err != nil {
		return 0, 0, d.fail(m, err)
	}
	return int8(typ), n, nil
}

// checked reads a header with read and fails with LengthMismatch unless it
// holds want.
func (d *Decoder) checked(op string, want int, read func() (int, error)) error {
	m := d.s.Mark()
	n, err := read()
	if err != nil {
		return err
	}
	if n != want {
		return d.fail(m, bstream.NewError(bstream.LengthMismatch, op, "expected %d, found %d", want, n))
	}
	return nil
}

func (d *Decoder) CheckStringHeader(n int) error {
	return d.checked("msgpack/string", n, d.ReadStringHeader)
}

func (d *Decoder) CheckBlobHeader(n int) error {
	return d.checked("msgpack/blob", n, d.ReadBlobHeader)
}

func (d *Decoder) CheckArrayHeader(n int) error {
	return d.checked("msgpack/array", n, d.ReadArrayHeader)
}

func (d *Decoder) CheckMapHeader(n int) error {
	return d.checked("msgpack/map", n, d.ReadMapHeader)
}

// CheckExtHeader reads an extension header and requires it to match typ and n.
func (d *Decoder) CheckExtHeader(typ int8, n int) error {
	m := d.s.Mark()
	t, l, err := d.ReadExtHeader()
	if err != nil {
		return err
	}
	if t != typ {
		return d.fail(m, bstream.NewError(bstream.ExtTypeMismatch, "msgpack/ext", "expected type %d, found %d", typ, t))
	}
	if l != n {
		return d.fail(m, bstream.NewError(bstream.LengthMismatch, "msgpack/ext", "expected %d, found %d", n, l))
	}
	return nil
}

func (d *Decoder) ReadString() (string, error) {
	m := d.s.Mark()
	n, err := d.ReadStringHeader()
	if err != nil {
		return "", err
	}
	b, err := d.s.GetSlice(n)
	if err != nil {
		return "", d.fail(m, err)
	}
	return string(b), nil
}

// ReadBlob returns a copy of the next blob.
func (d *Decoder) ReadBlob() ([]byte, error) {
	m := d.s.Mark()
	n, err := d.ReadBlobHeader()
	if err != nil {
		return nil, err
	}
	b, err := d.s.GetCopy(n)
	if err != nil {
		return nil, d.fail(m, err)
	}
	return b, nil
}

// ReadSharedBlob returns the next blob as a shared handle. When the stream
// holds the blob contiguously in shareable storage no bytes are copied.
func (d *Decoder) ReadSharedBlob() (*bstream.Shared, error) {
	m := d.s.Mark()
	n, err := d.ReadBlobHeader()
	if err != nil {
		return nil, err
	}
	sh, err := d.s.GetSharedSlice(n)
	if err != nil {
		return nil, d.fail(m, err)
	}
	return sh, nil
}

// ReadExt returns the type and a copy of the payload of an extension value.
func (d *Decoder) ReadExt() (int8, []byte, error) {
	m := d.s.Mark()
	typ, n, err := d.ReadExtHeader()
	if err != nil {
		return 0, nil, err
	}
	b, err := d.s.GetCopy(n)
	if err != nil {
		return 0, nil, d.fail(m, err)
	}
	return typ, b, nil
}
