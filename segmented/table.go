// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package segmented presents an ordered collection of disjoint storage
// segments as one seekable stream.
//
// Segments are kept with a parallel table of starting offsets, so locating
// the segment for a position is a binary search. Reading past the end of one
// segment advances to the next. Zero-length segments are rejected because
// they would make two segments claim the same offset.
package segmented

import (
	"sort"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/cursor"
)

type table struct {
	segs []bstream.Storage
	// offsets[i] is the sum of the sizes of segs[:i]
	offsets []bstream.Position
	size    bstream.Position
	current int
}

func checkSegments(op string, segs []bstream.Storage) error {
	for i, seg := range segs {
		if seg == nil || seg.Size() == 0 {
			return bstream.NewError(bstream.InvalidArgument, op, "segment %d is empty", i)
		}
	}
	return nil
}

func (t *table) use(segs []bstream.Storage) error {
	if err := checkSegments("segmented/use", segs); err != nil {
		return err
	}
	t.segs = append([]bstream.Storage(nil), segs...)
	t.offsets = make([]bstream.Position, len(segs))
	t.size = 0
	for i, seg := range t.segs {
		t.offsets[i] = t.size
		t.size += bstream.Position(seg.Size())
	}
	t.current = 0
	return nil
}

func (t *table) append(segs []bstream.Storage) error {
	if len(t.segs) == 0 {
		return t.use(segs)
	}
	if err := checkSegments("segmented/append", segs); err != nil {
		return err
	}
	for _, seg := range segs {
		t.segs = append(t.segs, seg)
		t.offsets = append(t.offsets, t.size)
		t.size += bstream.Position(seg.Size())
	}
	return nil
}

// trim drops the segments before index i and rebases the offsets so that
// segment i starts at 0. It returns the offset that was removed.
func (t *table) trim(i int) bstream.Position {
	if i <= 0 || i >= len(t.segs) {
		return 0
	}
	removed := t.offsets[i]
	t.segs = append([]bstream.Storage(nil), t.segs[i:]...)
	offsets := make([]bstream.Position, len(t.segs))
	for j := range offsets {
		offsets[j] = t.offsets[i+j] - removed
	}
	t.offsets = offsets
	t.size -= removed
	t.current -= i
	if t.current < 0 {
		t.current = 0
	}
	return removed
}

// locate returns the index of the segment holding pos. The last segment also
// owns the position just past its end.
func (t *table) locate(pos bstream.Position) (int, error) {
	if pos < 0 || pos > t.size || len(t.segs) == 0 {
		return -1, bstream.NewError(bstream.InvalidArgument, "segmented/locate", "position %d outside [0, %d]", pos, t.size)
	}
	i := sort.Search(len(t.offsets), func(i int) bool { return t.offsets[i] > pos }) - 1
	if i < 0 {
		return -1, bstream.NewError(bstream.InvalidState, "segmented/locate", "offset table does not start at 0")
	}
	end := t.offsets[i] + bstream.Position(t.segs[i].Size())
	if pos < end || (i == len(t.segs)-1 && pos == end) {
		return i, nil
	}
	return -1, bstream.NewError(bstream.InvalidState, "segmented/locate", "offset table has a gap at %d", pos)
}

// mapSegment points w at segment i, positioned rel bytes into it.
func (t *table) mapSegment(w *cursor.Window, i int, rel int) {
	t.current = i
	seg := t.segs[i]
	if sh, ok := seg.(*bstream.Shared); ok {
		w.SetShared(sh, t.offsets[i], rel)
		return
	}
	buf := seg.Bytes()
	w.Set(buf, t.offsets[i], rel, len(buf))
}

func (t *table) seekTo(w *cursor.Window, pos bstream.Position) error {
	if len(t.segs) == 0 && pos == 0 {
		w.Clear(0)
		return nil
	}
	i, err := t.locate(pos)
	if err != nil {
		return err
	}
	t.mapSegment(w, i, int(pos-t.offsets[i]))
	return nil
}
