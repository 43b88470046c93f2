// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package cursor

import (
	bstream "github.com/edgeofmagic/util-sub000"
)

// SinkBacking supplies storage to a write cursor and receives what was written.
type SinkBacking interface {
	// Overflow is called when the window is full and clean. It must make at
	// least one byte writable at w.Next, and should try for n, or fail with
	// NoBufferSpace.
	Overflow(w *Window, n int) error

	// Flush commits w.Buf[from:w.Next], which sits at logical offset
	// w.Base+from.
	Flush(w *Window, from int) error

	// SeekTo maps the storage for pos, with w.Position() == pos afterwards.
	SeekTo(w *Window, pos bstream.Position) error

	// Growable reports whether the sink may be positioned, and written, past
	// its current size.
	Growable() bool
}

// Sink is a buffered write cursor over a SinkBacking.
//
// Written bytes form a dirty range [dirty, Next) in the window until they are
// flushed. The high-water mark is the largest position ever flushed and is the
// size of the stream, regardless of later backward seeks.
type Sink struct {
	w Window
	b SinkBacking

	// dirty is the window index of the first unflushed byte, -1 when clean.
	dirty int
	hwm   bstream.Position

	jumping bool
	jumpTo  bstream.Position
}

var _ bstream.Sink = (*Sink)(nil)

// NewSink returns a cursor positioned at the start of b, which already holds
// size bytes.
func NewSink(b SinkBacking, size bstream.Position) *Sink {
	return &Sink{b: b, dirty: -1, hwm: size, jumping: true}
}

func (s *Sink) Size() bstream.Position {
	if s.dirty >= 0 {
		if p := s.w.Position(); p > s.hwm {
			return p
		}
	}
	return s.hwm
}

func (s *Sink) Position() bstream.Position {
	if s.jumping {
		return s.jumpTo
	}
	return s.w.Position()
}

// Dirty reports whether there are unflushed bytes.
func (s *Sink) Dirty() bool { return s.dirty >= 0 }

func (s *Sink) SetPosition(pos bstream.Position) error {
	if pos < 0 || (!s.b.Growable() && pos > s.Size()) {
		return bstream.NewError(bstream.InvalidArgument, "sink/seek", "position %d outside [0, %d]", pos, s.Size())
	}
	if sc, ok := s.b.(SeekChecker); ok {
		if err := sc.CheckSeek(pos); err != nil {
			return err
		}
	}
	if pos == s.Position() {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	s.jumping = true
	s.jumpTo = pos
	return nil
}

func (s *Sink) Seek(offset int64, anchor bstream.Anchor) (bstream.Position, error) {
	target, err := bstream.Resolve(s.Position(), s.Size(), offset, anchor)
	if err != nil {
		return s.Position(), err
	}
	if err := s.SetPosition(target); err != nil {
		return s.Position(), err
	}
	return target, nil
}

func (s *Sink) Rewind() error { return s.SetPosition(0) }

func (s *Sink) Mark() bstream.Mark {
	return bstream.NewMark(s.Position(), s.Size())
}

// Restore discards everything written after m was taken.
// Pending bytes written before m are flushed first.
func (s *Sink) Restore(m bstream.Mark) error {
	if s.dirty >= 0 {
		keep := int(m.Pos - s.w.Base)
		if keep > s.dirty && keep <= s.w.Next {
			next := s.w.Next
			s.w.Next = keep
			err := s.Flush()
			s.w.Next = next
			if err != nil {
				return err
			}
		}
	}
	s.dirty = -1
	s.hwm = m.Size()
	s.jumping = true
	s.jumpTo = m.Pos
	return nil
}

func (s *Sink) Flush() error {
	if s.dirty < 0 {
		return nil
	}
	if err := s.b.Flush(&s.w, s.dirty); err != nil {
		return err
	}
	if p := s.w.Position(); p > s.hwm {
		s.hwm = p
	}
	s.dirty = -1
	return nil
}

// reserve makes room for at least one byte, asking the backing for n.
func (s *Sink) reserve(op string, n int) error {
	if s.jumping {
		if err := s.b.SeekTo(&s.w, s.jumpTo); err != nil {
			return err
		}
		s.jumping = false
	}
	if s.w.Next < s.w.End {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.b.Overflow(&s.w, n); err != nil {
		return err
	}
	if s.w.Next >= s.w.End {
		return bstream.NewError(bstream.InvalidState, op, "overflow left no room in the window")
	}
	return nil
}

func (s *Sink) abort(m bstream.Mark) {
	// the failed operation is not pending; its error is the one reported
	_ = s.Restore(m)
}

func (s *Sink) Put(c byte) error {
	m := s.Mark()
	if err := s.reserve("sink/put", 1); err != nil {
		s.abort(m)
		return err
	}
	if s.dirty < 0 {
		s.dirty = s.w.Next
	}
	s.w.Buf[s.w.Next] = c
	s.w.Next++
	return nil
}

func (s *Sink) PutN(p []byte) error {
	m := s.Mark()
	for len(p) > 0 {
		if err := s.reserve("sink/putn", len(p)); err != nil {
			s.abort(m)
			return err
		}
		if s.dirty < 0 {
			s.dirty = s.w.Next
		}
		c := copy(s.w.Buf[s.w.Next:s.w.End], p)
		s.w.Next += c
		p = p[c:]
	}
	return nil
}

func (s *Sink) FillN(c byte, n int) error {
	if n < 0 {
		return bstream.NewError(bstream.InvalidArgument, "sink/filln", "negative count %d", n)
	}
	m := s.Mark()
	for n > 0 {
		if err := s.reserve("sink/filln", n); err != nil {
			s.abort(m)
			return err
		}
		if s.dirty < 0 {
			s.dirty = s.w.Next
		}
		k := s.w.Remaining()
		if k > n {
			k = n
		}
		region := s.w.Buf[s.w.Next : s.w.Next+k]
		for i := range region {
			region[i] = c
		}
		s.w.Next += k
		n -= k
	}
	return nil
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	if err := s.PutN(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (s *Sink) WriteByte(c byte) error { return s.Put(c) }
