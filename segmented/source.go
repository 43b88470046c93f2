// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package segmented

import (
	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/cursor"
)

// Source reads a sequence of segments as one stream.
// Segments may be added while reading, for example one per received buffer.
type Source struct {
	*cursor.Source
	t *table
}

type reader struct{ t *table }

func (r reader) Size() bstream.Position { return r.t.size }

func (r reader) Underflow(w *cursor.Window) (int, error) {
	t := r.t
	if len(t.segs) == 0 || t.current >= len(t.segs)-1 {
		return 0, nil
	}
	// a window left behind by a seek past the current segment is not ours to advance
	if w.Position() != t.offsets[t.current]+bstream.Position(t.segs[t.current].Size()) {
		return 0, bstream.NewError(bstream.InvalidState, "segmented/underflow", "window at %d is not at the end of segment %d", w.Position(), t.current)
	}
	t.mapSegment(w, t.current+1, 0)
	return t.segs[t.current].Size(), nil
}

func (r reader) SeekTo(w *cursor.Window, pos bstream.Position) error {
	return r.t.seekTo(w, pos)
}

// NewSource returns a source over segs.
func NewSource(segs ...bstream.Storage) (*Source, error) {
	t := &table{}
	if err := t.use(segs); err != nil {
		return nil, err
	}
	return &Source{Source: cursor.NewSource(reader{t}), t: t}, nil
}

// NewSharedSource is NewSource for shared segments.
func NewSharedSource(segs ...*bstream.Shared) (*Source, error) {
	return NewSource(sharedStorage(segs)...)
}

func sharedStorage(segs []*bstream.Shared) []bstream.Storage {
	st := make([]bstream.Storage, len(segs))
	for i, s := range segs {
		st[i] = s
	}
	return st
}

// Use replaces all segments and rewinds to the start.
func (s *Source) Use(segs ...bstream.Storage) error {
	if err := s.t.use(segs); err != nil {
		return err
	}
	s.Remap(0)
	return nil
}

// Append adds segments after the current last one. The position is kept,
// except on an empty stream where Append is Use.
func (s *Source) Append(segs ...bstream.Storage) error {
	if len(s.t.segs) == 0 {
		return s.Use(segs...)
	}
	return s.t.append(segs)
}

// Trim discards the segments before the one holding the current position.
// Offsets are rebased so the remaining first segment starts at 0.
func (s *Source) Trim() error {
	if len(s.t.segs) == 0 {
		return nil
	}
	pos := s.Position()
	i, err := s.t.locate(pos)
	if err != nil {
		return err
	}
	removed := s.t.trim(i)
	s.Remap(pos - removed)
	return nil
}

// Locate returns the index of the segment holding pos.
func (s *Source) Locate(pos bstream.Position) (int, error) {
	return s.t.locate(pos)
}

// Current returns the index of the segment the window is mapped to.
func (s *Source) Current() int { return s.t.current }

// Len returns the number of segments.
func (s *Source) Len() int { return len(s.t.segs) }

// Segments returns the segments in stream order.
func (s *Source) Segments() []bstream.Storage {
	return append([]bstream.Storage(nil), s.t.segs...)
}

// Offset returns the logical offset segment i starts at.
func (s *Source) Offset(i int) bstream.Position { return s.t.offsets[i] }
