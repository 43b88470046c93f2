// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
)

func SourceTestRead(f NewSourceFunc) func(*testing.T) {
	type testcase struct {
		size  int
		chunk int
	}

	mkTest := func(tc testcase) func(*testing.T) {
		return func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)

			data := testData(tc.size)
			src, err := f(t.Name(), data)
			r.NoError(err, "error creating source")
			r.NotNil(src, "returned source is nil")
			defer cleanup(t, src)

			r.EqualValues(tc.size, src.Size())
			r.EqualValues(0, src.Position())

			if tc.size > 0 {
				c, err := src.Peek()
				r.NoError(err)
				a.Equal(data[0], c)
				a.EqualValues(0, src.Position(), "peek moved the cursor")
			}

			got := make([]byte, 0, tc.size)
			buf := make([]byte, tc.chunk)
			for {
				n, err := src.GetN(buf)
				r.NoError(err)
				got = append(got, buf[:n]...)
				if n < len(buf) {
					break
				}
			}
			a.Equal(data, got)
			a.EqualValues(tc.size, src.Position())

			_, err = src.Get()
			a.True(bstream.IsReadPastEnd(err), "expected read past end, got %v", err)
			_, err = src.Peek()
			a.True(bstream.IsReadPastEnd(err), "expected read past end, got %v", err)

			r.NoError(src.Rewind())
			all, err := io.ReadAll(src)
			r.NoError(err)
			a.Equal(data, all)

			// a failed GetFull leaves the cursor alone
			r.NoError(src.Rewind())
			err = src.GetFull(make([]byte, tc.size+1))
			a.True(bstream.IsReadPastEnd(err), "expected read past end, got %v", err)
			a.EqualValues(0, src.Position())

			if tc.size < 3 {
				return
			}
			mid := tc.size / 2
			r.NoError(src.Skip(mid))
			sl, err := src.GetSlice(tc.size - mid)
			r.NoError(err)
			a.Equal(data[mid:], sl)

			_, err = src.Seek(int64(mid), bstream.Start)
			r.NoError(err)
			sh, err := src.GetSharedSlice(tc.size - mid)
			r.NoError(err)
			a.Equal(data[mid:], sh.Bytes())
			sh.Release()

			_, err = src.Seek(-1, bstream.End)
			r.NoError(err)
			err = src.Skip(2)
			a.True(bstream.IsReadPastEnd(err), "expected read past end, got %v", err)
			a.EqualValues(tc.size-1, src.Position(), "failed skip moved the cursor")
		}
	}

	tcs := []testcase{
		{size: 0, chunk: 4},
		{size: 1, chunk: 4},
		{size: 57, chunk: 5},
		{size: 300, chunk: 64},
		{size: 5000, chunk: 999},
	}

	return func(t_ *testing.T) {
		for _, tc := range tcs {
			t_.Run(fmt.Sprintf("%d/%d", tc.size, tc.chunk), mkTest(tc))
		}
	}
}

func SourceTestSeek(f NewSourceFunc) func(*testing.T) {
	type testcase struct {
		offset int64
		anchor bstream.Anchor
		from   bstream.Position
		want   bstream.Position
		errIs  error
	}

	const size = 100

	mkTest := func(tc testcase) func(*testing.T) {
		return func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)

			data := testData(size)
			src, err := f(t.Name(), data)
			r.NoError(err, "error creating source")
			defer cleanup(t, src)

			r.NoError(src.SetPosition(tc.from))
			pos, err := src.Seek(tc.offset, tc.anchor)
			if tc.errIs != nil {
				a.ErrorIs(err, tc.errIs)
				a.Equal(tc.from, src.Position(), "failed seek moved the cursor")
				return
			}
			r.NoError(err)
			a.Equal(tc.want, pos)
			a.Equal(tc.want, src.Position())

			if tc.want == size {
				_, err := src.Get()
				a.True(bstream.IsReadPastEnd(err))
				return
			}
			c, err := src.Get()
			r.NoError(err)
			a.Equal(data[tc.want], c)

			m := src.Mark()
			_, err = src.GetSlice(int(size - tc.want - 1))
			r.NoError(err)
			r.NoError(src.Restore(m))
			a.Equal(tc.want+1, src.Position())
		}
	}

	tcs := []testcase{
		{offset: 10, anchor: bstream.Start, want: 10},
		{offset: 0, anchor: bstream.End, want: size},
		{offset: -1, anchor: bstream.End, want: size - 1},
		{offset: -5, anchor: bstream.Current, from: 50, want: 45},
		{offset: 7, anchor: bstream.Current, from: 50, want: 57},
		{offset: -1, anchor: bstream.Start, errIs: bstream.InvalidArgument},
		{offset: 1, anchor: bstream.End, errIs: bstream.InvalidArgument},
		{offset: -51, anchor: bstream.Current, from: 50, errIs: bstream.InvalidArgument},
	}

	return func(t_ *testing.T) {
		for i, tc := range tcs {
			t_.Run(fmt.Sprint(i), mkTest(tc))
		}
	}
}

// SourceTestConcurrent reads independent sources from several goroutines.
func SourceTestConcurrent(f NewSourceFunc) func(*testing.T) {
	return func(t *testing.T) {
		const workers = 4
		data := testData(1000)

		errs := make(chan error, workers)
		for w := 0; w < workers; w++ {
			go func(w int) {
				src, err := f(fmt.Sprintf("%s-%d", t.Name(), w), data)
				if err != nil {
					errs <- err
					return
				}
				defer cleanup(t, src)

				if _, err := src.Seek(int64(w*100), bstream.Start); err != nil {
					errs <- err
					return
				}
				got, err := io.ReadAll(src)
				if err != nil {
					errs <- err
					return
				}
				if string(got) != string(data[w*100:]) {
					errs <- fmt.Errorf("worker %d read different bytes", w)
					return
				}
				errs <- nil
			}(w)
		}
		for w := 0; w < workers; w++ {
			if err := <-errs; err != nil {
				t.Error(err)
			}
		}
	}
}
