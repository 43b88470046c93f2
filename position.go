// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

import "fmt"

// Position is an absolute byte offset from the logical start of a stream.
type Position int64

// Anchor selects what a seek offset is relative to.
// The values match io.SeekStart, io.SeekCurrent and io.SeekEnd.
type Anchor int

const (
	Start Anchor = iota
	Current
	End
)

func (a Anchor) String() string {
	switch a {
	case Start:
		return "start"
	case Current:
		return "current"
	case End:
		return "end"
	}
	return fmt.Sprintf("anchor(%d)", int(a))
}

// Resolve computes the target of a seek by offset relative to anchor, given
// the current position and size of a stream.
// It only rejects targets before the start of the stream; the upper bound
// depends on the endpoint and is checked by the caller.
func Resolve(pos, size Position, offset int64, anchor Anchor) (Position, error) {
	var base Position
	switch anchor {
	case Start:
	case Current:
		base = pos
	case End:
		base = size
	default:
		return pos, NewError(InvalidArgument, "seek", "invalid anchor %d", int(anchor))
	}

	target := base + Position(offset)
	if offset < 0 && target > base {
		return pos, NewError(InvalidArgument, "seek", "offset %d overflows", offset)
	}
	if target < 0 {
		return pos, NewError(InvalidArgument, "seek", "offset %d from %s is before start", offset, anchor)
	}
	return target, nil
}
