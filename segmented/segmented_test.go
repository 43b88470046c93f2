// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package segmented

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
)

var sizes = []int{32, 16, 1, 4, 2, 1, 1}

// split cuts a counting pattern into shared segments of the given sizes.
func split(sizes []int) ([]byte, []*bstream.Shared) {
	var total int
	for _, n := range sizes {
		total += n
	}
	data := make([]byte, total)
	for i := range data {
		data[i] = byte(i)
	}
	segs := make([]*bstream.Shared, len(sizes))
	off := 0
	for i, n := range sizes {
		segs[i] = bstream.CopyShared(data[off : off+n])
		off += n
	}
	return data, segs
}

func TestLocate(t *testing.T) {
	r := require.New(t)

	_, segs := split(sizes)
	src, err := NewSharedSource(segs...)
	r.NoError(err)
	r.Equal(bstream.Position(57), src.Size())
	r.Equal(7, src.Len())

	for pos, want := range map[bstream.Position]int{
		0: 0, 31: 0, 32: 1, 47: 1, 48: 2, 49: 3, 53: 4, 55: 5, 56: 6, 57: 6,
	} {
		i, err := src.Locate(pos)
		r.NoError(err, "pos %d", pos)
		r.Equal(want, i, "pos %d", pos)
	}
	_, err = src.Locate(58)
	r.ErrorIs(err, bstream.InvalidArgument)
	r.Equal(bstream.Position(53), src.Offset(4))
}

func TestSeekAndRead(t *testing.T) {
	r := require.New(t)

	data, segs := split(sizes)
	src, err := NewSharedSource(segs...)
	r.NoError(err)

	for _, pos := range []bstream.Position{31, 32, 56, 48, 0, 50} {
		r.NoError(src.SetPosition(pos))
		c, err := src.Get()
		r.NoError(err)
		r.Equal(data[pos], c, "pos %d", pos)
	}

	r.NoError(src.SetPosition(57))
	_, err = src.Get()
	r.ErrorIs(err, bstream.ReadPastEnd)
	r.Equal(bstream.Position(57), src.Position())
	r.ErrorIs(src.SetPosition(58), bstream.InvalidArgument)

	r.NoError(src.Rewind())
	all, err := io.ReadAll(src)
	r.NoError(err)
	r.Equal(data, all)

	// a read spanning every small segment
	r.NoError(src.SetPosition(47))
	buf := make([]byte, 10)
	r.NoError(src.GetFull(buf))
	r.Equal(data[47:57], buf)
}

func TestSharedSlices(t *testing.T) {
	r := require.New(t)

	data, segs := split(sizes)
	src, err := NewSharedSource(segs...)
	r.NoError(err)

	r.NoError(src.SetPosition(4))
	sh, err := src.GetSharedSlice(20)
	r.NoError(err)
	r.True(sh.SameStorage(segs[0]), "slice inside one segment shares it")
	r.Equal(data[4:24], sh.Bytes())
	r.Equal(2, segs[0].UseCount())
	sh.Release()
	r.Equal(1, segs[0].UseCount())

	r.NoError(src.SetPosition(30))
	sh, err = src.GetSharedSlice(4)
	r.NoError(err)
	r.False(sh.SameStorage(segs[0]))
	r.False(sh.SameStorage(segs[1]))
	r.Equal(data[30:34], sh.Bytes())

	// plain buffers can be read but not shared
	buf := bstream.WrapBuffer([]byte("plain"))
	src2, err := NewSource(buf)
	r.NoError(err)
	sh, err = src2.GetSharedSlice(3)
	r.NoError(err)
	r.Equal([]byte("pla"), sh.Bytes())
	sh.Bytes()[0] = 'X'
	r.Equal([]byte("plain"), buf.Bytes())
}

func TestAppendTrim(t *testing.T) {
	r := require.New(t)

	src, err := NewSource()
	r.NoError(err)
	_, err = src.Get()
	r.ErrorIs(err, bstream.ReadPastEnd)

	r.NoError(src.Append(bstream.WrapBuffer([]byte("abc"))))
	r.NoError(src.Append(bstream.WrapBuffer([]byte("de")), bstream.WrapBuffer([]byte("f"))))
	r.Equal(bstream.Position(6), src.Size())

	buf := make([]byte, 4)
	r.NoError(src.GetFull(buf))
	r.Equal([]byte("abcd"), buf)
	r.Equal(1, src.Current())

	r.NoError(src.Trim())
	r.Equal(2, src.Len())
	r.Equal(bstream.Position(3), src.Size())
	r.Equal(bstream.Position(1), src.Position())
	c, err := src.Get()
	r.NoError(err)
	r.Equal(byte('e'), c)

	r.ErrorIs(src.Append(bstream.NewBuffer(4)), bstream.InvalidArgument)
	r.Equal(2, src.Len())

	r.NoError(src.Use(bstream.WrapBuffer([]byte("xyz"))))
	r.Equal(bstream.Position(0), src.Position())
	c, err = src.Get()
	r.NoError(err)
	r.Equal(byte('x'), c)
}

func TestZeroLengthRejected(t *testing.T) {
	a := assert.New(t)

	_, err := NewSource(bstream.WrapBuffer([]byte("a")), bstream.NewBuffer(0))
	a.ErrorIs(err, bstream.InvalidArgument)

	_, err = NewSink([]*bstream.Buffer{bstream.NewFixedBuffer(0)})
	a.ErrorIs(err, bstream.InvalidArgument)

	_, err = NewSink(nil, WithGrowth(0))
	a.ErrorIs(err, bstream.InvalidArgument)
}

func TestSinkSegments(t *testing.T) {
	r := require.New(t)

	sink, err := NewSink([]*bstream.Buffer{bstream.NewFixedBuffer(4), bstream.NewFixedBuffer(2)})
	r.NoError(err)

	r.NoError(sink.PutN([]byte("abcde")))
	r.NoError(sink.Put('f'))
	r.ErrorIs(sink.Put('g'), bstream.NoBufferSpace)
	r.Equal(bstream.Position(6), sink.Size())

	r.NoError(sink.SetPosition(2))
	r.NoError(sink.PutN([]byte("CDE")))

	segs, err := sink.Detach()
	r.NoError(err)
	r.Len(segs, 2)
	r.Equal([]byte("abCD"), segs[0].Bytes())
	r.Equal([]byte("Ef"), segs[1].Bytes())
	r.Equal(bstream.Position(0), sink.Size())
	r.Equal(0, sink.Len())
}

func TestSinkGrowth(t *testing.T) {
	r := require.New(t)

	sink, err := NewSink(nil, WithGrowth(3))
	r.NoError(err)

	r.NoError(sink.PutN([]byte("0123456")))
	r.Equal(3, sink.Len())

	// seeking past the end adds room
	r.NoError(sink.SetPosition(11))
	r.NoError(sink.Put('X'))
	r.Equal(4, sink.Len())

	segs, err := sink.Detach()
	r.NoError(err)
	r.Len(segs, 4)

	src, err := NewSharedSource(segs...)
	r.NoError(err)
	got, err := io.ReadAll(src)
	r.NoError(err)
	r.Equal([]byte("0123456\x00\x00\x00\x00X"), got)
}
