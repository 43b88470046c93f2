// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"encoding/binary"
	"math"

	bstream "github.com/edgeofmagic/util-sub000"
)

// Encoder writes MessagePack values to a sink.
// Integers and headers always use the smallest form that holds them.
// A failed write leaves the sink where it was before the value was started.
type Encoder struct {
	s   bstream.Sink
	buf [9]byte
}

// NewEncoder returns an encoder writing to s.
func NewEncoder(s bstream.Sink) *Encoder {
	return &Encoder{s: s}
}

// Sink returns the underlying sink.
func (e *Encoder) Sink() bstream.Sink { return e.s }

// Reset points the encoder at a different sink.
func (e *Encoder) Reset(s bstream.Sink) { e.s = s }

// Flush flushes the sink.
func (e *Encoder) Flush() error { return e.s.Flush() }

// atomic runs fn and rolls the sink back if it fails.
func (e *Encoder) atomic(fn func() error) error {
	m := e.s.Mark()
	if err := fn(); err != nil {
		// the sink's own error is more useful than a failed rollback
		_ = e.s.Restore(m)
		return err
	}
	return nil
}

func (e *Encoder) code(c Code) error { return e.s.Put(byte(c)) }

func (e *Encoder) code1(c Code, v uint8) error {
	e.buf[0] = byte(c)
	e.buf[1] = v
	return e.s.PutN(e.buf[:2])
}

func (e *Encoder) code2(c Code, v uint16) error {
	e.buf[0] = byte(c)
	binary.BigEndian.PutUint16(e.buf[1:], v)
	return e.s.PutN(e.buf[:3])
}

func (e *Encoder) code4(c Code, v uint32) error {
	e.buf[0] = byte(c)
	binary.BigEndian.PutUint32(e.buf[1:], v)
	return e.s.PutN(e.buf[:5])
}

func (e *Encoder) code8(c Code, v uint64) error {
	e.buf[0] = byte(c)
	binary.BigEndian.PutUint64(e.buf[1:], v)
	return e.s.PutN(e.buf[:9])
}

func (e *Encoder) WriteNil() error { return e.code(Nil) }

func (e *Encoder) WriteBool(b bool) error {
	if b {
		return e.code(True)
	}
	return e.code(False)
}

// WriteInt writes v. Non-negative values are written as unsigned.
func (e *Encoder) WriteInt(v int64) error {
	switch {
	case v >= 0:
		return e.WriteUint(uint64(v))
	case v >= -32:
		return e.s.Put(byte(int8(v)))
	case v >= math.MinInt8:
		return e.code1(Int8, uint8(int8(v)))
	case v >= math.MinInt16:
		return e.code2(Int16, uint16(int16(v)))
	case v >= math.MinInt32:
		return e.code4(Int32, uint32(int32(v)))
	}
	return e.code8(Int64, uint64(v))
}

func (e *Encoder) WriteUint(v uint64) error {
	switch {
	case v <= uint64(PosFixIntMax):
		return e.s.Put(byte(v))
	case v <= math.MaxUint8:
		return e.code1(Uint8, uint8(v))
	case v <= math.MaxUint16:
		return e.code2(Uint16, uint16(v))
	case v <= math.MaxUint32:
		return e.code4(Uint32, uint32(v))
	}
	return e.code8(Uint64, v)
}

func (e *Encoder) WriteFloat32(f float32) error {
	return e.code4(Float32, math.Float32bits(f))
}

func (e *Encoder) WriteFloat64(f float64) error {
	return e.code8(Float64, math.Float64bits(f))
}

func checkLength(op string, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return bstream.NewError(bstream.InvalidArgument, op, "length %d cannot be encoded", n)
	}
	return nil
}

func (e *Encoder) WriteStringHeader(n int) error {
	if err := checkLength("msgpack/string", n); err != nil {
		return err
	}
	switch {
	case n <= fixStrMax:
		return e.code(FixStrLow | Code(n))
	case n <= math.MaxUint8:
		return e.code1(Str8, uint8(n))
	case n <= math.MaxUint16:
		return e.code2(Str16, uint16(n))
	}
	return e.code4(Str32, uint32(n))
}

func (e *Encoder) WriteString(s string) error {
	return e.atomic(func() error {
		if err := e.WriteStringHeader(len(s)); err != nil {
			return err
		}
		return e.s.PutN([]byte(s))
	})
}

func (e *Encoder) WriteBlobHeader(n int) error {
	if err := checkLength("msgpack/blob", n); err != nil {
		return err
	}
	switch {
	case n <= math.MaxUint8:
		return e.code1(Bin8, uint8(n))
	case n <= math.MaxUint16:
		return e.code2(Bin16, uint16(n))
	}
	return e.code4(Bin32, uint32(n))
}

func (e *Encoder) WriteBlob(p []byte) error {
	return e.atomic(func() error {
		if err := e.WriteBlobHeader(len(p)); err != nil {
			return err
		}
		return e.s.PutN(p)
	})
}

func (e *Encoder) WriteArrayHeader(n int) error {
	if err := checkLength("msgpack/array", n); err != nil {
		return err
	}
	switch {
	case n <= fixArrayMax:
		return e.code(FixArrayLow | Code(n))
	case n <= math.MaxUint16:
		return e.code2(Array16, uint16(n))
	}
	return e.code4(Array32, uint32(n))
}

func (e *Encoder) WriteMapHeader(n int) error {
	if err := checkLength("msgpack/map", n); err != nil {
		return err
	}
	switch {
	case n <= fixMapMax:
		return e.code(FixMapLow | Code(n))
	case n <= math.MaxUint16:
		return e.code2(Map16, uint16(n))
	}
	return e.code4(Map32, uint32(n))
}

// WriteExtHeader writes the header of an extension value of type typ
// carrying n bytes.
func (e *Encoder) WriteExtHeader(typ int8, n int) error {
	if err := checkLength("msgpack/ext", n); err != nil {
		return err
	}
	var fixed Code
	switch n {
	case 1:
		fixed = FixExt1
	case 2:
		fixed = FixExt2
	case 4:
		fixed = FixExt4
	case 8:
		fixed = FixExt8
	case 16:
		fixed = FixExt16
	}
	if fixed != 0 {
		return e.code1(fixed, uint8(typ))
	}
	switch {
	case n <= math.MaxUint8:
		e.buf[0], e.buf[1], e.buf[2] = byte(Ext8), uint8(n), uint8(typ)
		return e.s.PutN(e.buf[:3])
	case n <= math.MaxUint16:
		e.buf[0] = byte(Ext16)
		binary.BigEndian.PutUint16(e.buf[1:], uint16(n))
		e.buf[3] = uint8(typ)
		return e.s.PutN(e.buf[:4])
	}
	e.buf[0] = byte(Ext32)
	binary.BigEndian.PutUint32(e.buf[1:], uint32(n))
	e.buf[5] = uint8(typ)
	return e.s.PutN(e.buf[:6])
}

func (e *Encoder) WriteExt(typ int8, data []byte) error {
	return e.atomic(func() error {
		if err := e.WriteExtHeader(typ, len(data)); err != nil {
			return err
		}
		return e.s.PutN(data)
	})
}

// WriteRaw copies already encoded bytes to the sink.
func (e *Encoder) WriteRaw(p []byte) error { return e.s.PutN(p) }
