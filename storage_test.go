// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	r := require.New(t)

	b := NewBuffer(4)
	r.True(b.Growable())
	r.Equal(0, b.Size())
	r.Equal(4, b.Capacity())

	copy(b.Data(), "abcd")
	r.NoError(b.SetSize(3))
	r.Equal([]byte("abc"), b.Bytes())
	r.ErrorIs(b.SetSize(5), InvalidArgument)

	r.NoError(b.Expand(16))
	r.Equal(16, b.Capacity())
	r.Equal([]byte("abc"), b.Bytes(), "expand keeps contents")

	sl, err := b.Slice(1, 2)
	r.NoError(err)
	r.Equal([]byte("bc"), sl.Bytes())
	sl.Bytes()[0] = 'B'
	r.Equal([]byte("aBc"), b.Bytes(), "slices alias")
	r.ErrorIs(sl.Expand(10), OperationNotSupported)

	_, err = b.Slice(2, 2)
	r.ErrorIs(err, InvalidArgument)

	fixed := NewFixedBuffer(2)
	r.False(fixed.Growable())
	r.ErrorIs(fixed.Expand(4), OperationNotSupported)
}

func TestShareMovesSize(t *testing.T) {
	r := require.New(t)

	b := NewBuffer(64)
	copy(b.Data(), "hello")
	r.NoError(b.SetSize(5))

	sh := b.Share()
	r.Equal(5, sh.Size())
	r.Equal(5, sh.Capacity())
	r.Equal([]byte("hello"), sh.Bytes())
	r.Equal(0, b.Size())
	r.Equal(0, b.Capacity())

	back := sh.Unshare()
	r.Equal([]byte("hello"), back.Bytes())
	r.Equal(0, sh.Size())
}

func TestSharedRefs(t *testing.T) {
	r := require.New(t)

	sh := NewShared([]byte("0123456789"))
	r.Equal(1, sh.UseCount())

	sl, err := sh.Slice(2, 3)
	r.NoError(err)
	r.Equal([]byte("234"), sl.Bytes())
	r.True(sl.SameStorage(sh))
	r.Equal(2, sh.UseCount())

	sub, err := sl.Slice(1, 2)
	r.NoError(err)
	r.Equal([]byte("34"), sub.Bytes())
	r.Equal(3, sh.UseCount())

	_, err = sl.Slice(2, 2)
	r.ErrorIs(err, InvalidArgument)

	sub.Release()
	sub.Release()
	r.Equal(2, sh.UseCount(), "double release is a no-op")

	cp := CopyShared(sl.Bytes())
	r.False(cp.SameStorage(sl))
	r.Equal(sl.Bytes(), cp.Bytes())

	// shared twice, so unsharing copies
	b := sl.Unshare()
	b.Data()[0] = 'X'
	r.Equal([]byte("0123456789"), sh.Bytes())
	r.Equal(1, sh.UseCount())
}
