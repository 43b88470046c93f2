// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies a class of stream or codec failure.
// A Code is itself an error, so errors.Is(err, ReadPastEnd) works on anything
// returned by this module.
type Code int

const (
	ReadPastEnd Code = iota + 1
	InvalidArgument
	InvalidState

	TypeError8
	TypeError16
	TypeError32
	TypeError64
	RangeError8
	RangeError16
	RangeError32
	RangeError64

	ExpectedNil
	ExpectedBool
	ExpectedFloat
	ExpectedDouble
	ExpectedString
	ExpectedBlob
	ExpectedArray
	ExpectedMap
	ExpectedExt
	LengthMismatch
	ExtTypeMismatch

	InvalidHeaderForPointer
	AbstractNonPolyClass
	DynamicTypeMismatch
	StaticTypeMismatch
	InvalidPtrDowncast
	ContextMismatch

	NoBufferSpace
	OperationNotSupported
)

var codeNames = map[Code]string{
	ReadPastEnd:     "read past end of stream",
	InvalidArgument: "invalid argument",
	InvalidState:    "invalid state",

	TypeError8:   "type error (8 bit destination)",
	TypeError16:  "type error (16 bit destination)",
	TypeError32:  "type error (32 bit destination)",
	TypeError64:  "type error (64 bit destination)",
	RangeError8:  "range error (8 bit destination)",
	RangeError16: "range error (16 bit destination)",
	RangeError32: "range error (32 bit destination)",
	RangeError64: "range error (64 bit destination)",

	ExpectedNil:     "expected nil",
	ExpectedBool:    "expected bool",
	ExpectedFloat:   "expected float",
	ExpectedDouble:  "expected double",
	ExpectedString:  "expected string",
	ExpectedBlob:    "expected blob",
	ExpectedArray:   "expected array",
	ExpectedMap:     "expected map",
	ExpectedExt:     "expected extension",
	LengthMismatch:  "length mismatch",
	ExtTypeMismatch: "extension type mismatch",

	InvalidHeaderForPointer: "invalid header for pointer",
	AbstractNonPolyClass:    "abstract type without dynamic type information",
	DynamicTypeMismatch:     "dynamic type mismatch in saved pointer",
	StaticTypeMismatch:      "static type mismatch in saved pointer",
	InvalidPtrDowncast:      "invalid pointer downcast",
	ContextMismatch:         "context mismatch",

	NoBufferSpace:         "no buffer space",
	OperationNotSupported: "operation not supported",
}

func (c Code) Error() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("bstream error %d", int(c))
}

func (c Code) String() string { return c.Error() }

// TypeError returns the type error code for a destination of the given bit width.
func TypeError(bits int) Code {
	return widthCode(TypeError8, bits)
}

// RangeError returns the range error code for a destination of the given bit width.
func RangeError(bits int) Code {
	return widthCode(RangeError8, bits)
}

func widthCode(base Code, bits int) Code {
	switch bits {
	case 8:
		return base
	case 16:
		return base + 1
	case 32:
		return base + 2
	case 64:
		return base + 3
	}
	panic(fmt.Sprintf("bstream: unsupported integer width %d", bits))
}

// Error is a failure of a single stream or codec operation.
type Error struct {
	Code Code
	Op   string
	msg  string
}

// NewError returns an *Error for op. The format arguments are optional detail.
func NewError(code Code, op string, format string, args ...interface{}) error {
	e := &Error{Code: code, Op: op}
	if format != "" {
		e.msg = fmt.Sprintf(format, args...)
	}
	return e
}

func (e *Error) Error() string {
	s := e.Code.Error()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.msg != "" {
		s += ": " + e.msg
	}
	return s
}

// Is reports whether target is the same Code or an *Error with the same Code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return e.Code == t
	case *Error:
		return e.Code == t.Code
	}
	return false
}

// CodeOf returns the Code carried by err, or 0 if err is not a bstream error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return 0
}

// IsReadPastEnd returns whether err signals the end of a stream.
func IsReadPastEnd(err error) bool {
	return errors.Is(err, ReadPastEnd)
}
