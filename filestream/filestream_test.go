// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package filestream

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	bstream "github.com/edgeofmagic/util-sub000"
)

func TestSinkPages(t *testing.T) {
	r := require.New(t)

	p := filepath.Join(t.TempDir(), "pages")
	s, err := Create(p, WithPageSize(8))
	r.NoError(err)

	r.NoError(s.PutN([]byte("0123456789abcdefghij")))
	r.NoError(s.SetPosition(6))
	r.NoError(s.PutN([]byte("XYZ")))
	r.NoError(s.SetPosition(0))
	r.NoError(s.Put('-'))
	r.Equal(bstream.Position(20), s.Size())
	r.NoError(s.Close())

	data, err := os.ReadFile(p)
	r.NoError(err)
	r.Equal([]byte("-12345XYZ9abcdefghij"), data)

	src, err := Open(p, WithPageSize(8))
	r.NoError(err)
	defer src.Close()
	r.Equal(bstream.Position(20), src.Size())

	got, err := io.ReadAll(src)
	r.NoError(err)
	r.Equal(data, got)

	r.NoError(src.SetPosition(5))
	buf := make([]byte, 7)
	r.NoError(src.GetFull(buf))
	r.Equal([]byte("5XYZ9ab"), buf)

	r.NoError(src.SetPosition(20))
	_, err = src.Get()
	r.ErrorIs(err, bstream.ReadPastEnd)
}

func TestSinkKeepsSkippedBytes(t *testing.T) {
	r := require.New(t)

	p := filepath.Join(t.TempDir(), "existing")
	r.NoError(os.WriteFile(p, []byte("0123456789"), 0600))

	f, err := os.OpenFile(p, os.O_RDWR, 0)
	r.NoError(err)
	s, err := NewSink(f, WithPageSize(4))
	r.NoError(err)
	r.Equal(bstream.Position(10), s.Size())

	r.NoError(s.SetPosition(3))
	r.NoError(s.Put('x'))
	r.NoError(s.SetPosition(12))
	r.NoError(s.Put('z'))
	r.NoError(s.Close())

	data, err := os.ReadFile(p)
	r.NoError(err)
	r.Equal([]byte("012x456789\x00\x00z"), data)
}

func TestCloseTruncates(t *testing.T) {
	r := require.New(t)

	p := filepath.Join(t.TempDir(), "trunc")
	r.NoError(os.WriteFile(p, []byte("a longer previous content"), 0600))

	s, err := Create(p)
	r.NoError(err)
	r.NoError(s.PutN([]byte("short")))
	r.NoError(s.Close())

	data, err := os.ReadFile(p)
	r.NoError(err)
	r.Equal([]byte("short"), data)
}

func TestMap(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no mmap")
	}
	r := require.New(t)

	dir := t.TempDir()
	p := filepath.Join(dir, "mapped")
	r.NoError(os.WriteFile(p, []byte("mapped contents"), 0600))

	m, err := Map(p)
	r.NoError(err)

	r.NoError(m.SetPosition(7))
	sh, err := m.GetSharedSlice(8)
	r.NoError(err)
	r.Equal([]byte("contents"), sh.Bytes())
	r.NoError(m.Close())
	r.Equal([]byte("contents"), sh.Bytes(), "shared slices outlive the mapping")

	empty := filepath.Join(dir, "empty")
	r.NoError(os.WriteFile(empty, nil, 0600))
	m, err = Map(empty)
	r.NoError(err)
	_, err = m.Get()
	r.ErrorIs(err, bstream.ReadPastEnd)
	r.NoError(m.Close())
}
