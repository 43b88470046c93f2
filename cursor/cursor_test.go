// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package cursor

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
)

// chunked serves data in windows of chunk bytes and counts the calls it gets.
type chunked struct {
	data  []byte
	chunk int

	underflows, seeks int
}

func (c *chunked) Size() bstream.Position { return bstream.Position(len(c.data)) }

func (c *chunked) mapAt(w *Window, pos bstream.Position) int {
	end := int(pos) + c.chunk
	if end > len(c.data) {
		end = len(c.data)
	}
	w.Set(c.data[pos:end], pos, 0, end-int(pos))
	return end - int(pos)
}

func (c *chunked) Underflow(w *Window) (int, error) {
	c.underflows++
	return c.mapAt(w, w.Position()), nil
}

func (c *chunked) SeekTo(w *Window, pos bstream.Position) error {
	c.seeks++
	c.mapAt(w, pos)
	return nil
}

func TestSourceChunks(t *testing.T) {
	r := require.New(t)

	bk := &chunked{data: []byte("abcdefghij"), chunk: 3}
	s := NewSource(bk)

	got, err := io.ReadAll(s)
	r.NoError(err)
	r.Equal(bk.data, got)
	r.Equal(bstream.Position(10), s.Position())

	_, err = s.Get()
	r.ErrorIs(err, bstream.ReadPastEnd)

	// inside one window the slice aliases the backing data
	r.NoError(s.SetPosition(3))
	sl, err := s.GetSlice(2)
	r.NoError(err)
	r.Equal([]byte("de"), sl)
	r.Same(&bk.data[3], &sl[0])

	// across windows it is a copy
	sl, err = s.GetSlice(4)
	r.NoError(err)
	r.Equal([]byte("fghi"), sl)
	r.NotSame(&bk.data[5], &sl[0])

	c, err := s.Peek()
	r.NoError(err)
	r.Equal(byte('j'), c)
	r.Equal(bstream.Position(9), s.Position())
}

// unsized is a chunked backing whose size is not known up front.
type unsized struct{ chunked }

func (*unsized) Unsized() {}

func TestSourceGetCopy(t *testing.T) {
	r := require.New(t)

	bk := &chunked{data: []byte("abcdefghij"), chunk: 3}
	s := NewSource(bk)
	r.NoError(s.Skip(2))
	before := bk.underflows

	_, err := s.GetCopy(1 << 30)
	r.ErrorIs(err, bstream.ReadPastEnd)
	r.Equal(before, bk.underflows, "a sized stream is checked before reading")
	r.Equal(bstream.Position(2), s.Position())

	cp, err := s.GetCopy(2)
	r.NoError(err)
	r.Equal([]byte("cd"), cp)
	r.NotSame(&bk.data[2], &cp[0])

	ub := &unsized{chunked{data: []byte("abcdefghij"), chunk: 3}}
	s = NewSource(ub)
	r.NoError(s.Skip(1))

	_, err = s.GetCopy(1 << 30)
	r.ErrorIs(err, bstream.ReadPastEnd)
	r.Equal(bstream.Position(1), s.Position())

	cp, err = s.GetCopy(8)
	r.NoError(err)
	r.Equal([]byte("bcdefghi"), cp)

	_, err = s.GetCopy(-1)
	r.ErrorIs(err, bstream.InvalidArgument)
}

func TestSourceDeferredSeek(t *testing.T) {
	r := require.New(t)

	bk := &chunked{data: []byte("0123456789"), chunk: 4}
	s := NewSource(bk)
	r.Equal(0, bk.seeks, "nothing mapped before the first read")

	r.NoError(s.SetPosition(7))
	r.NoError(s.SetPosition(2))
	r.NoError(s.SetPosition(5))
	r.Equal(0, bk.seeks)
	r.Equal(bstream.Position(5), s.Position())

	c, err := s.Get()
	r.NoError(err)
	r.Equal(byte('5'), c)
	r.Equal(1, bk.seeks)

	// moving inside the window needs no backing call
	r.NoError(s.SetPosition(8))
	c, err = s.Get()
	r.NoError(err)
	r.Equal(byte('8'), c)
	r.Equal(1, bk.seeks)

	r.ErrorIs(s.SetPosition(11), bstream.InvalidArgument)
	r.Equal(bstream.Position(9), s.Position())

	pos, err := s.Seek(-3, bstream.End)
	r.NoError(err)
	r.Equal(bstream.Position(7), pos)
}

func TestSourceRestoreOnShortRead(t *testing.T) {
	r := require.New(t)

	bk := &chunked{data: []byte("0123456789"), chunk: 4}
	s := NewSource(bk)
	r.NoError(s.SetPosition(6))

	err := s.GetFull(make([]byte, 5))
	r.ErrorIs(err, bstream.ReadPastEnd)
	r.Equal(bstream.Position(6), s.Position())

	r.ErrorIs(s.Skip(5), bstream.ReadPastEnd)
	r.Equal(bstream.Position(6), s.Position())

	m := s.Mark()
	r.NoError(s.Skip(4))
	r.Equal(bstream.Position(10), s.Position())
	r.NoError(s.Restore(m))
	c, err := s.Get()
	r.NoError(err)
	r.Equal(byte('6'), c)
}

// liar reports bytes from underflow without mapping any.
type liar struct{}

func (liar) Size() bstream.Position           { return 10 }
func (liar) Underflow(w *Window) (int, error) { return 5, nil }

func (liar) SeekTo(w *Window, pos bstream.Position) error {
	w.Clear(pos)
	return nil
}

func TestSourceEmptyUnderflow(t *testing.T) {
	s := NewSource(liar{})
	_, err := s.Get()
	assert.ErrorIs(t, err, bstream.InvalidState)
}

type flushed struct {
	pos  bstream.Position
	data string
}

// recorder hands out windows of chunk bytes and records every flush.
type recorder struct {
	chunk   int
	limit   bstream.Position
	flushes []flushed
}

func (rc *recorder) Growable() bool { return true }

func (rc *recorder) Overflow(w *Window, n int) error {
	pos := w.Position()
	if rc.limit > 0 && pos >= rc.limit {
		return bstream.NewError(bstream.NoBufferSpace, "recorder", "")
	}
	w.Set(make([]byte, rc.chunk), pos, 0, rc.chunk)
	return nil
}

func (rc *recorder) Flush(w *Window, from int) error {
	rc.flushes = append(rc.flushes, flushed{
		pos:  w.Base + bstream.Position(from),
		data: string(w.Buf[from:w.Next]),
	})
	return nil
}

func (rc *recorder) SeekTo(w *Window, pos bstream.Position) error {
	w.Set(make([]byte, rc.chunk), pos, 0, rc.chunk)
	return nil
}

func TestSinkFlushesDirtyRange(t *testing.T) {
	r := require.New(t)

	rc := &recorder{chunk: 4}
	s := NewSink(rc, 0)

	r.NoError(s.PutN([]byte("abc")))
	r.True(s.Dirty())
	r.Equal(bstream.Position(3), s.Size())
	r.NoError(s.Flush())
	r.False(s.Dirty())
	r.Equal([]flushed{{0, "abc"}}, rc.flushes)

	r.NoError(s.PutN([]byte("de")))
	r.NoError(s.Flush())
	r.NoError(s.Flush())
	r.Equal([]flushed{{0, "abc"}, {3, "d"}, {4, "e"}}, rc.flushes)

	// going back does not shrink the stream
	r.NoError(s.SetPosition(1))
	r.NoError(s.Put('X'))
	r.NoError(s.Flush())
	r.Equal(flushed{1, "X"}, rc.flushes[3])
	r.Equal(bstream.Position(2), s.Position())
	r.Equal(bstream.Position(5), s.Size())

	// past the end on a growable backing
	pos, err := s.Seek(3, bstream.End)
	r.NoError(err)
	r.Equal(bstream.Position(8), pos)
	r.NoError(s.Put('Z'))
	r.NoError(s.Flush())
	r.Equal(flushed{8, "Z"}, rc.flushes[4])
	r.Equal(bstream.Position(9), s.Size())
}

func TestSinkRestore(t *testing.T) {
	r := require.New(t)

	rc := &recorder{chunk: 8}
	s := NewSink(rc, 0)

	r.NoError(s.PutN([]byte("ab")))
	m := s.Mark()
	r.NoError(s.PutN([]byte("cd")))
	r.NoError(s.Restore(m))

	r.NoError(s.Flush())
	r.Equal([]flushed{{0, "ab"}}, rc.flushes)
	r.Equal(bstream.Position(2), s.Position())
	r.Equal(bstream.Position(2), s.Size())
}

func TestSinkNoSpaceRestores(t *testing.T) {
	r := require.New(t)

	rc := &recorder{chunk: 4, limit: 4}
	s := NewSink(rc, 0)

	for _, c := range []byte("abcd") {
		r.NoError(s.Put(c))
	}
	err := s.Put('e')
	r.ErrorIs(err, bstream.NoBufferSpace)
	r.False(s.Dirty())
	r.Equal(bstream.Position(4), s.Position())
	r.Equal(bstream.Position(4), s.Size())
	r.Equal([]flushed{{0, "abcd"}}, rc.flushes)

	r.ErrorIs(s.FillN(0, -1), bstream.InvalidArgument)
}
