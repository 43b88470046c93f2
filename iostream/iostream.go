// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package iostream adapts plain io.Reader and io.Writer values to streams.
//
// Neither side can seek freely: a Source can only move within the bytes it
// currently holds, and a Sink only to where it already is. Anything else
// fails with OperationNotSupported.
package iostream

import (
	"io"

	"github.com/pkg/errors"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/cursor"
)

// DefaultBufferSize is the window size used by NewSource and NewSink.
const DefaultBufferSize = 4096

// Source reads an io.Reader.
// Its size is the number of bytes read from the reader so far.
type Source struct {
	*cursor.Source
}

type reader struct {
	r    io.Reader
	buf  []byte
	base bstream.Position
	n    int
	eof  bool
}

// NewSource returns a source reading r.
func NewSource(r io.Reader) *Source {
	return NewSourceSize(r, DefaultBufferSize)
}

// NewSourceSize returns a source reading r through a window of size bytes.
func NewSourceSize(r io.Reader, size int) *Source {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Source{Source: cursor.NewSource(&reader{r: r, buf: make([]byte, size)})}
}

func (r *reader) Size() bstream.Position { return r.base + bstream.Position(r.n) }

// Unsized marks the size as a running count of bytes read.
func (r *reader) Unsized() {}

func (r *reader) Underflow(w *cursor.Window) (int, error) {
	if r.eof {
		return 0, nil
	}
	r.base += bstream.Position(r.n)
	r.n = 0
	for r.n == 0 {
		n, err := r.r.Read(r.buf)
		r.n = n
		if err == io.EOF {
			r.eof = true
			break
		}
		if err != nil {
			w.Set(r.buf, r.base, 0, r.n)
			return r.n, errors.Wrap(err, "iostream: read failed")
		}
	}
	w.Set(r.buf, r.base, 0, r.n)
	return r.n, nil
}

func (r *reader) CheckSeek(pos bstream.Position) error {
	if pos < r.base || pos > r.base+bstream.Position(r.n) {
		return bstream.NewError(bstream.OperationNotSupported, "iostream/seek", "position %d is outside the buffered range [%d, %d]", pos, r.base, r.base+bstream.Position(r.n))
	}
	return nil
}

func (r *reader) SeekTo(w *cursor.Window, pos bstream.Position) error {
	if err := r.CheckSeek(pos); err != nil {
		return err
	}
	w.Set(r.buf, r.base, int(pos-r.base), r.n)
	return nil
}

// Sink writes to an io.Writer. Bytes are passed on when the window fills up
// and on Flush.
type Sink struct {
	*cursor.Sink
	bk *writer
}

type writer struct {
	w   io.Writer
	buf []byte
	// off counts the bytes handed to w
	off bstream.Position
}

// NewSink returns a sink writing to w.
func NewSink(w io.Writer) *Sink {
	return NewSinkSize(w, DefaultBufferSize)
}

// NewSinkSize returns a sink writing to w through a window of size bytes.
func NewSinkSize(w io.Writer, size int) *Sink {
	if size <= 0 {
		size = DefaultBufferSize
	}
	bk := &writer{w: w, buf: make([]byte, size)}
	return &Sink{Sink: cursor.NewSink(bk, 0), bk: bk}
}

func (wr *writer) Growable() bool { return true }

func (wr *writer) Overflow(w *cursor.Window, n int) error {
	w.Set(wr.buf, w.Position(), 0, len(wr.buf))
	return nil
}

func (wr *writer) Flush(w *cursor.Window, from int) error {
	at := w.Base + bstream.Position(from)
	if at != wr.off {
		return bstream.NewError(bstream.OperationNotSupported, "iostream/flush", "cannot write at %d, writer is at %d", at, wr.off)
	}
	n, err := wr.w.Write(w.Buf[from:w.Next])
	wr.off += bstream.Position(n)
	if err != nil {
		return errors.Wrap(err, "iostream: write failed")
	}
	return nil
}

func (wr *writer) CheckSeek(pos bstream.Position) error {
	return bstream.NewError(bstream.OperationNotSupported, "iostream/seek", "cannot seek a writer")
}

func (wr *writer) SeekTo(w *cursor.Window, pos bstream.Position) error {
	if pos != wr.off {
		return bstream.NewError(bstream.OperationNotSupported, "iostream/seek", "cannot move writer from %d to %d", wr.off, pos)
	}
	w.Set(wr.buf, pos, 0, len(wr.buf))
	return nil
}

// Written returns the number of bytes passed on to the writer.
func (s *Sink) Written() bstream.Position { return s.bk.off }
