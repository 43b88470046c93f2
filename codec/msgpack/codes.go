// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import "fmt"

// Code is the leading byte of an encoded value.
type Code byte

const (
	PosFixIntMin Code = 0x00
	PosFixIntMax Code = 0x7f

	FixMapLow    Code = 0x80
	FixMapHigh   Code = 0x8f
	FixArrayLow  Code = 0x90
	FixArrayHigh Code = 0x9f
	FixStrLow    Code = 0xa0
	FixStrHigh   Code = 0xbf

	Nil       Code = 0xc0
	NeverUsed Code = 0xc1
	False     Code = 0xc2
	True      Code = 0xc3

	Bin8  Code = 0xc4
	Bin16 Code = 0xc5
	Bin32 Code = 0xc6

	Ext8  Code = 0xc7
	Ext16 Code = 0xc8
	Ext32 Code = 0xc9

	Float32 Code = 0xca
	Float64 Code = 0xcb

	Uint8  Code = 0xcc
	Uint16 Code = 0xcd
	Uint32 Code = 0xce
	Uint64 Code = 0xcf

	Int8  Code = 0xd0
	Int16 Code = 0xd1
	Int32 Code = 0xd2
	Int64 Code = 0xd3

	FixExt1  Code = 0xd4
	FixExt2  Code = 0xd5
	FixExt4  Code = 0xd6
	FixExt8  Code = 0xd7
	FixExt16 Code = 0xd8

	Str8  Code = 0xd9
	Str16 Code = 0xda
	Str32 Code = 0xdb

	Array16 Code = 0xdc
	Array32 Code = 0xdd

	Map16 Code = 0xde
	Map32 Code = 0xdf

	NegFixIntMin Code = 0xe0
	NegFixIntMax Code = 0xff
)

const (
	fixMapMask   = 0x0f
	fixArrayMask = 0x0f
	fixStrMask   = 0x1f

	fixStrMax   = 31
	fixArrayMax = 15
	fixMapMax   = 15
)

func (c Code) IsPositiveFixInt() bool { return c <= PosFixIntMax }
func (c Code) IsNegativeFixInt() bool { return c >= NegFixIntMin }
func (c Code) IsFixMap() bool         { return c >= FixMapLow && c <= FixMapHigh }
func (c Code) IsFixArray() bool       { return c >= FixArrayLow && c <= FixArrayHigh }
func (c Code) IsFixStr() bool         { return c >= FixStrLow && c <= FixStrHigh }

// IsUnsignedInt reports whether c starts a non-negative integer.
// A dedup index in a pointer payload is always one of these.
func (c Code) IsUnsignedInt() bool {
	return c.IsPositiveFixInt() || (c >= Uint8 && c <= Uint64)
}

// Kind returns the kind of value c introduces.
func (c Code) Kind() Kind {
	switch {
	case c.IsPositiveFixInt():
		return KindUint
	case c.IsNegativeFixInt():
		return KindInt
	case c.IsFixMap():
		return KindMap
	case c.IsFixArray():
		return KindArray
	case c.IsFixStr():
		return KindString
	}
	switch c {
	case Nil:
		return KindNil
	case False, True:
		return KindBool
	case Bin8, Bin16, Bin32:
		return KindBlob
	case Ext8, Ext16, Ext32, FixExt1, FixExt2, FixExt4, FixExt8, FixExt16:
		return KindExt
	case Float32, Float64:
		return KindFloat
	case Uint8, Uint16, Uint32, Uint64:
		return KindUint
	case Int8, Int16, Int32, Int64:
		return KindInt
	case Str8, Str16, Str32:
		return KindString
	case Array16, Array32:
		return KindArray
	case Map16, Map32:
		return KindMap
	}
	return KindInvalid
}

func (c Code) String() string {
	switch {
	case c.IsPositiveFixInt():
		return fmt.Sprintf("posfixint(%d)", int(c))
	case c.IsNegativeFixInt():
		return fmt.Sprintf("negfixint(%d)", int(int8(c)))
	case c.IsFixMap():
		return fmt.Sprintf("fixmap(%d)", int(c&fixMapMask))
	case c.IsFixArray():
		return fmt.Sprintf("fixarray(%d)", int(c&fixArrayMask))
	case c.IsFixStr():
		return fmt.Sprintf("fixstr(%d)", int(c&fixStrMask))
	}
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%#02x)", byte(c))
}

var codeNames = map[Code]string{
	Nil: "nil", NeverUsed: "never-used", False: "false", True: "true",
	Bin8: "bin8", Bin16: "bin16", Bin32: "bin32",
	Ext8: "ext8", Ext16: "ext16", Ext32: "ext32",
	Float32: "float32", Float64: "float64",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64",
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	FixExt1: "fixext1", FixExt2: "fixext2", FixExt4: "fixext4", FixExt8: "fixext8", FixExt16: "fixext16",
	Str8: "str8", Str16: "str16", Str32: "str32",
	Array16: "array16", Array32: "array32",
	Map16: "map16", Map32: "map32",
}

// intWidth returns the natural bit width of a sized integer code, or 0.
func intWidth(c Code) int {
	switch c {
	case Uint8, Int8:
		return 8
	case Uint16, Int16:
		return 16
	case Uint32, Int32:
		return 32
	case Uint64, Int64:
		return 64
	}
	return 0
}

// Kind classifies encoded values.
type Kind int

const (
	KindInvalid Kind = iota
	KindNil
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindBlob
	KindArray
	KindMap
	KindExt
)

var kindNames = [...]string{"invalid", "nil", "bool", "int", "uint", "float", "string", "blob", "array", "map", "ext"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}
