// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package msgpack

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/ssbc/go-luigi"
	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/membuf"
)

func TestCodecMarshal(t *testing.T) {
	r := require.New(t)

	c := New(point{})
	b, err := c.Marshal(point{X: 1, Name: "one"})
	r.NoError(err)

	v, err := c.Unmarshal(b)
	r.NoError(err)
	r.Equal(point{X: 1, Name: "one"}, v)

	v, err = New(&point{}).Unmarshal(b)
	r.NoError(err)
	r.Equal(&point{X: 1, Name: "one"}, v)

	v, err = New(nil).Unmarshal(b)
	r.NoError(err)
	m := v.(map[string]interface{})
	r.Equal("one", m["Name"])

	_, err = New(0).Unmarshal(b)
	r.Error(err)

	_, err = c.Unmarshal(append(b, 0x01))
	r.ErrorIs(err, bstream.InvalidArgument)
}

func TestCodecStream(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	c := New(int64(0))
	enc := c.NewEncoder(&buf)
	for _, v := range []int64{1, -300, 1 << 40} {
		r.NoError(enc.Encode(v))
	}

	dec := c.NewDecoder(&buf)
	var got []int64
	for {
		v, err := dec.Decode()
		if err == io.EOF {
			break
		}
		r.NoError(err)
		got = append(got, v.(int64))
	}
	r.Equal([]int64{1, -300, 1 << 40}, got)
}

type collect struct {
	vals   []interface{}
	closed bool
}

func (c *collect) Pour(ctx context.Context, v interface{}) error {
	c.vals = append(c.vals, v)
	return nil
}

func (c *collect) Close() error {
	c.closed = true
	return nil
}

func TestLuigiPump(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	sink := membuf.NewSink(32)
	out := NewStreamSink(NewEncoder(sink))
	for _, s := range []string{"a", "bb", "ccc"} {
		r.NoError(out.Pour(ctx, s))
	}
	r.NoError(out.Close())
	r.Error(out.Pour(ctx, "late"))

	src := NewStreamSource(NewDecoder(membuf.NewSource(sink.Bytes())), "")
	var got collect
	r.NoError(luigi.Pump(ctx, &got, src))
	r.Equal([]interface{}{"a", "bb", "ccc"}, got.vals)

	_, err := src.Next(ctx)
	r.True(luigi.IsEOS(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewStreamSource(NewDecoder(membuf.NewSource([]byte{0x01})), 0).Next(cancelled)
	r.ErrorIs(err, context.Canceled)
}
