// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package cursor implements the buffered read and write cursors shared by all
// stream endpoints.
//
// A cursor works on a Window over whatever storage its backing currently has
// mapped and only calls into the backing when the window runs out: Underflow
// on read, Overflow on write, and Flush to hand over written bytes. Seeks are
// deferred: SetPosition only records the target, and the backing is asked to
// relocate the window by the next primitive that needs it.
package cursor

import (
	bstream "github.com/edgeofmagic/util-sub000"
)

// Window is a cursor's view onto the storage a backing has mapped.
// Invariant: 0 <= Next <= End <= len(Buf), and Base+Next is the stream position.
type Window struct {
	Buf  []byte
	Next int
	End  int
	// Base is the logical stream offset of Buf[0].
	Base bstream.Position
	// Shared is set when Buf is exactly Shared.Bytes(), which lets slices be
	// handed out without copying.
	Shared *bstream.Shared
}

// Position returns the logical offset of Buf[Next].
func (w *Window) Position() bstream.Position {
	return w.Base + bstream.Position(w.Next)
}

// Remaining returns the number of bytes between Next and End.
func (w *Window) Remaining() int { return w.End - w.Next }

// Contains reports whether pos can be reached by moving Next alone.
func (w *Window) Contains(pos bstream.Position) bool {
	return pos >= w.Base && pos <= w.Base+bstream.Position(w.End)
}

// Set maps buf at logical offset base.
func (w *Window) Set(buf []byte, base bstream.Position, next, end int) {
	w.Buf, w.Base, w.Next, w.End = buf, base, next, end
	w.Shared = nil
}

// SetShared maps all of s at logical offset base.
func (w *Window) SetShared(s *bstream.Shared, base bstream.Position, next int) {
	buf := s.Bytes()
	w.Set(buf, base, next, len(buf))
	w.Shared = s
}

// Clear unmaps the window, leaving it empty at base.
func (w *Window) Clear(base bstream.Position) {
	w.Set(nil, base, 0, 0)
}
