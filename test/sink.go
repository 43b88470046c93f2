// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
)

func SinkTestWrite(f NewSinkFunc) func(*testing.T) {
	type testcase struct {
		name  string
		write func(bstream.Sink) error
		want  []byte
	}

	mkTest := func(tc testcase) func(*testing.T) {
		return func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)

			sink, readBack, err := f(t.Name())
			r.NoError(err, "error creating sink")
			r.NotNil(sink, "returned sink is nil")
			defer cleanup(t, sink)

			r.NoError(tc.write(sink))
			r.NoError(sink.Flush())
			a.EqualValues(len(tc.want), sink.Size())

			got, err := readBack()
			r.NoError(err)
			a.Equal(tc.want, got)
		}
	}

	big := testData(10000)

	tcs := []testcase{
		{
			name:  "empty",
			write: func(bstream.Sink) error { return nil },
			want:  []byte{},
		},
		{
			name: "bytes",
			write: func(s bstream.Sink) error {
				for _, c := range []byte("hello") {
					if err := s.Put(c); err != nil {
						return err
					}
				}
				return nil
			},
			want: []byte("hello"),
		},
		{
			name: "big",
			write: func(s bstream.Sink) error {
				_, err := s.Write(big)
				return err
			},
			want: big,
		},
		{
			name: "fill",
			write: func(s bstream.Sink) error {
				if err := s.PutN([]byte("ab")); err != nil {
					return err
				}
				return s.FillN('x', 300)
			},
			want: append([]byte("ab"), bytes.Repeat([]byte("x"), 300)...),
		},
		{
			name: "overwrite",
			write: func(s bstream.Sink) error {
				if err := s.PutN([]byte("0123456789")); err != nil {
					return err
				}
				if _, err := s.Seek(2, bstream.Start); err != nil {
					return err
				}
				if err := s.PutN([]byte("ab")); err != nil {
					return err
				}
				if _, err := s.Seek(-1, bstream.End); err != nil {
					return err
				}
				return s.Put('Z')
			},
			want: []byte("01ab45678Z"),
		},
		{
			name: "gap",
			write: func(s bstream.Sink) error {
				if err := s.Put('a'); err != nil {
					return err
				}
				if err := s.SetPosition(5); err != nil {
					return err
				}
				return s.Put('b')
			},
			want: []byte{'a', 0, 0, 0, 0, 'b'},
		},
		{
			name: "restore",
			write: func(s bstream.Sink) error {
				if err := s.PutN([]byte("keep")); err != nil {
					return err
				}
				m := s.Mark()
				if err := s.PutN([]byte("drop")); err != nil {
					return err
				}
				return s.Restore(m)
			},
			want: []byte("keep"),
		},
	}

	return func(t_ *testing.T) {
		for _, tc := range tcs {
			t_.Run(tc.name, mkTest(tc))
		}
	}
}

// SinkTestHighWaterMark writes n bytes, seeks back and writes m more. The
// size stays n as long as the second write ends inside the first.
func SinkTestHighWaterMark(f NewSinkFunc) func(*testing.T) {
	type testcase struct {
		n, back, m int
	}

	mkTest := func(tc testcase) func(*testing.T) {
		return func(t *testing.T) {
			a := assert.New(t)
			r := require.New(t)

			sink, readBack, err := f(t.Name())
			r.NoError(err, "error creating sink")
			defer cleanup(t, sink)

			first := testData(tc.n)
			r.NoError(sink.PutN(first))
			_, err = sink.Seek(-int64(tc.back), bstream.Current)
			r.NoError(err)
			second := bytes.Repeat([]byte{0xff}, tc.m)
			r.NoError(sink.PutN(second))
			r.NoError(sink.Flush())

			want := tc.n
			if end := tc.n - tc.back + tc.m; end > want {
				want = end
			}
			a.EqualValues(want, sink.Size())

			got, err := readBack()
			r.NoError(err)
			r.Len(got, want)
			exp := append([]byte(nil), first...)
			exp = append(exp[:tc.n-tc.back], second...)
			if len(exp) < tc.n {
				exp = append(exp, first[len(exp):]...)
			}
			a.Equal(exp, got)
		}
	}

	tcs := []testcase{
		{n: 10, back: 10, m: 10},
		{n: 10, back: 10, m: 3},
		{n: 100, back: 50, m: 20},
		{n: 100, back: 5, m: 20},
		{n: 9000, back: 8000, m: 4000},
	}

	return func(t_ *testing.T) {
		for _, tc := range tcs {
			t_.Run(fmt.Sprintf("%d-%d+%d", tc.n, tc.back, tc.m), mkTest(tc))
		}
	}
}
