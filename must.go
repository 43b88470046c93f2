// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

// panicked wraps errors raised by Must and Check so Recover does not swallow
// unrelated panics.
type panicked struct{ err error }

// Must returns v, or panics if err is not nil.
// It is the throwing form of any (value, error) operation in this module; the
// state of the stream after the panic is the same as after the error return.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(panicked{err})
	}
	return v
}

// Check panics if err is not nil.
func Check(err error) {
	if err != nil {
		panic(panicked{err})
	}
}

// Recover turns a panic raised by Must or Check back into an error.
// It must be deferred directly:
//
//	defer bstream.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	p, ok := r.(panicked)
	if !ok {
		panic(r)
	}
	if errp != nil {
		*errp = p.err
	}
}
