// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

import "io"

// Mark is a saved cursor state that Restore returns to.
type Mark struct {
	Pos  Position
	size Position
}

// NewMark is used by cursor implementations to build marks.
func NewMark(pos, size Position) Mark {
	return Mark{Pos: pos, size: size}
}

// Size returns the stream size recorded in the mark.
func (m Mark) Size() Position { return m.size }

// Stream is the positioning contract shared by sources and sinks.
type Stream interface {
	// Size returns the logical size of the stream.
	Size() Position
	// Position returns the offset of the next byte to be read or written.
	Position() Position
	// SetPosition moves the cursor. On failure the position is unchanged.
	SetPosition(Position) error
	// Seek moves the cursor relative to anchor and returns the new position.
	Seek(offset int64, anchor Anchor) (Position, error)
	// Rewind is SetPosition(0).
	Rewind() error

	// Mark saves the cursor state.
	Mark() Mark
	// Restore returns the cursor to a state saved by Mark, discarding
	// anything written since that has not been flushed.
	Restore(Mark) error
}

// Source is a readable stream.
type Source interface {
	Stream
	io.Reader
	io.ByteReader

	// Get reads one byte.
	Get() (byte, error)
	// Peek returns the next byte without consuming it.
	Peek() (byte, error)
	// GetN copies up to len(dst) bytes and returns how many were copied.
	// A short count means the end of the stream was reached.
	GetN(dst []byte) (int, error)
	// GetFull fills dst completely or fails with ReadPastEnd, leaving the
	// position where it was.
	GetFull(dst []byte) error
	// Skip advances over n bytes.
	Skip(n int) error
	// GetSlice returns the next n bytes. When they are contiguous in the
	// backing storage the result aliases it and is only valid until the
	// stream is modified.
	GetSlice(n int) ([]byte, error)
	// GetCopy returns the next n bytes in a newly allocated slice.
	GetCopy(n int) ([]byte, error)
	// GetSharedSlice returns the next n bytes as a shared handle, without
	// copying when the backing storage is shareable and holds them contiguously.
	GetSharedSlice(n int) (*Shared, error)
}

// Sink is a writable stream.
type Sink interface {
	Stream
	io.Writer
	io.ByteWriter

	Put(byte) error
	PutN([]byte) error
	// FillN writes n copies of b.
	FillN(b byte, n int) error
	// Flush hands pending bytes to the backing storage.
	Flush() error
}
