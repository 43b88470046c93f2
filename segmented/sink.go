// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package segmented

import (
	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/cursor"
)

// Option configures a Sink.
type Option func(*writer) error

// WithGrowth makes the sink append a new segment of n bytes whenever it runs
// out of room, instead of failing with NoBufferSpace.
func WithGrowth(n int) Option {
	return func(w *writer) error {
		if n <= 0 {
			return bstream.NewError(bstream.InvalidArgument, "segmented/growth", "segment size %d", n)
		}
		w.grow = n
		return nil
	}
}

// Sink writes in place into a sequence of mutable segments.
// The whole capacity of every segment is writable.
type Sink struct {
	*cursor.Sink
	bk *writer
}

type writer struct {
	t    *table
	grow int
}

// NewSink returns a sink over segs, positioned at the start.
// The stream starts out empty; the segments only provide room.
func NewSink(segs []*bstream.Buffer, opts ...Option) (*Sink, error) {
	st := make([]bstream.Storage, len(segs))
	for i, seg := range segs {
		if err := seg.SetSize(seg.Capacity()); err != nil {
			return nil, err
		}
		st[i] = seg
	}
	bk := &writer{t: &table{}}
	if err := bk.t.use(st); err != nil {
		return nil, err
	}
	for _, o := range opts {
		if err := o(bk); err != nil {
			return nil, err
		}
	}
	return &Sink{Sink: cursor.NewSink(bk, 0), bk: bk}, nil
}

func (w *writer) Growable() bool { return w.grow > 0 }

func (w *writer) addSegment() {
	seg := bstream.NewFixedBuffer(w.grow)
	_ = seg.SetSize(w.grow)
	// a fresh non-empty segment always passes the table checks
	_ = w.t.append([]bstream.Storage{seg})
}

func (w *writer) Overflow(win *cursor.Window, n int) error {
	t := w.t
	next := t.current + 1
	if len(t.segs) == 0 {
		next = 0
	}
	if next >= len(t.segs) {
		if w.grow <= 0 {
			return bstream.NewError(bstream.NoBufferSpace, "segmented/overflow", "all %d segments are full", len(t.segs))
		}
		w.addSegment()
	}
	t.mapSegment(win, next, 0)
	return nil
}

// Flush has nothing to do: segments are written in place.
func (w *writer) Flush(win *cursor.Window, from int) error { return nil }

func (w *writer) SeekTo(win *cursor.Window, pos bstream.Position) error {
	for pos > w.t.size {
		if w.grow <= 0 {
			return bstream.NewError(bstream.InvalidArgument, "segmented/seek", "position %d past capacity %d", pos, w.t.size)
		}
		w.addSegment()
	}
	return w.t.seekTo(win, pos)
}

// Len returns the number of segments, including ones added by growth.
func (s *Sink) Len() int { return len(s.bk.t.segs) }

// Detach flushes and hands over the written bytes as shared segments, the
// last one cut at the size of the stream. The sink is left empty.
func (s *Sink) Detach() ([]*bstream.Shared, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}
	size := s.Size()
	t := s.bk.t
	var out []*bstream.Shared
	for i, seg := range t.segs {
		if t.offsets[i] >= size {
			break
		}
		n := seg.Size()
		if rest := size - t.offsets[i]; rest < bstream.Position(n) {
			n = int(rest)
		}
		out = append(out, bstream.NewShared(seg.Bytes()[:n:n]))
	}
	s.bk.t = &table{}
	s.Sink = cursor.NewSink(s.bk, 0)
	return out, nil
}
