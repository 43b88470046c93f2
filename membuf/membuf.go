// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package membuf implements streams over a single contiguous buffer.
package membuf

import (
	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/cursor"
)

// Source reads from one contiguous buffer.
type Source struct {
	*cursor.Source
	bk *source
}

type source struct {
	data   []byte
	shared *bstream.Shared
}

func (b *source) Size() bstream.Position { return bstream.Position(len(b.data)) }

// Underflow never has more to offer: the window always spans the whole buffer.
func (b *source) Underflow(w *cursor.Window) (int, error) { return 0, nil }

func (b *source) SeekTo(w *cursor.Window, pos bstream.Position) error {
	if b.shared != nil {
		w.SetShared(b.shared, 0, int(pos))
		return nil
	}
	w.Set(b.data, 0, int(pos), len(b.data))
	return nil
}

// NewSource returns a source reading data. The source takes ownership of data
// and shares it with slices obtained through GetSharedSlice.
func NewSource(data []byte) *Source {
	return NewSharedSource(bstream.NewShared(data))
}

// NewSharedSource returns a source reading the bytes of sh.
func NewSharedSource(sh *bstream.Shared) *Source {
	bk := &source{data: sh.Bytes(), shared: sh}
	return &Source{Source: cursor.NewSource(bk), bk: bk}
}

// NewBorrowedSource returns a source over memory it must not hand out
// references to, such as a mapped file. Shared slices are always copies.
func NewBorrowedSource(data []byte) *Source {
	bk := &source{data: data}
	return &Source{Source: cursor.NewSource(bk), bk: bk}
}

// Bytes returns the whole underlying buffer.
func (s *Source) Bytes() []byte { return s.bk.data }

// Sink writes into a single buffer, growing it when the buffer allows.
type Sink struct {
	*cursor.Sink
	bk *sink
}

type sink struct {
	buf *bstream.Buffer
}

// NewSink returns a sink over a growable buffer with the given initial capacity.
func NewSink(capacity int) *Sink {
	return NewBufferSink(bstream.NewBuffer(capacity))
}

// NewFixedSink returns a sink that fails with NoBufferSpace past capacity bytes.
func NewFixedSink(capacity int) *Sink {
	return NewBufferSink(bstream.NewFixedBuffer(capacity))
}

// NewBufferSink returns a sink writing into buf from its start. The existing
// contents of buf count towards the size of the stream.
func NewBufferSink(buf *bstream.Buffer) *Sink {
	bk := &sink{buf: buf}
	return &Sink{Sink: cursor.NewSink(bk, bstream.Position(buf.Size())), bk: bk}
}

func (b *sink) Growable() bool { return b.buf.Growable() }

func (b *sink) Overflow(w *cursor.Window, n int) error {
	if !b.buf.Growable() {
		return bstream.NewError(bstream.NoBufferSpace, "membuf/overflow", "capacity %d exhausted", b.buf.Capacity())
	}
	if err := b.grow(w.Position() + bstream.Position(n)); err != nil {
		return err
	}
	w.Set(b.buf.Data(), 0, w.Next, b.buf.Capacity())
	return nil
}

func (b *sink) grow(need bstream.Position) error {
	capacity := b.buf.Capacity()
	if need <= bstream.Position(capacity) {
		return nil
	}
	newCap := 2 * capacity
	if newCap < 64 {
		newCap = 64
	}
	if bstream.Position(newCap) < need {
		newCap = int(need)
	}
	return b.buf.Expand(newCap)
}

// Flush has nothing to do: the bytes are written in place.
func (b *sink) Flush(w *cursor.Window, from int) error { return nil }

func (b *sink) SeekTo(w *cursor.Window, pos bstream.Position) error {
	if pos > bstream.Position(b.buf.Capacity()) {
		if err := b.grow(pos); err != nil {
			return err
		}
	}
	w.Set(b.buf.Data(), 0, int(pos), b.buf.Capacity())
	return nil
}

// Bytes flushes and returns the written contents. The slice aliases the
// buffer and is valid until the next write.
func (s *Sink) Bytes() []byte {
	s.sync()
	return s.bk.buf.Bytes()
}

// Buffer flushes and returns the underlying buffer, sized to the stream.
func (s *Sink) Buffer() *bstream.Buffer {
	s.sync()
	return s.bk.buf
}

// Release moves the written contents into a shared handle and resets the sink
// to an empty growable buffer.
func (s *Sink) Release() *bstream.Shared {
	s.sync()
	sh := s.bk.buf.Share()
	s.bk.buf = bstream.NewBuffer(0)
	s.Sink = cursor.NewSink(s.bk, 0)
	return sh
}

func (s *Sink) sync() {
	// flushing in place cannot fail
	_ = s.Flush()
	_ = s.bk.buf.SetSize(int(s.Size()))
}
