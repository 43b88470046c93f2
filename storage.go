// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package bstream

import (
	"sync/atomic"
)

// Storage is a unit of contiguous byte storage a stream can be backed by.
type Storage interface {
	// Bytes returns the valid contents, Size() bytes long.
	Bytes() []byte
	Size() int
	Capacity() int
}

var (
	_ Storage = (*Buffer)(nil)
	_ Storage = (*Shared)(nil)
)

// Buffer is mutable storage with a size and a capacity.
// A growable Buffer can be expanded; a fixed one cannot.
type Buffer struct {
	data  []byte
	size  int
	fixed bool
}

// NewBuffer returns an empty growable buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// NewFixedBuffer returns an empty buffer that can hold exactly capacity bytes.
func NewFixedBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity), fixed: true}
}

// WrapBuffer returns a fixed buffer over data, sized len(data).
// The buffer aliases data.
func WrapBuffer(data []byte) *Buffer {
	return &Buffer{data: data, size: len(data), fixed: true}
}

func (b *Buffer) Bytes() []byte { return b.data[:b.size] }

// Data returns the whole capacity region.
func (b *Buffer) Data() []byte { return b.data }

func (b *Buffer) Size() int      { return b.size }
func (b *Buffer) Capacity() int  { return len(b.data) }
func (b *Buffer) Growable() bool { return !b.fixed }

// SetSize sets the number of valid bytes.
func (b *Buffer) SetSize(n int) error {
	if n < 0 || n > len(b.data) {
		return NewError(InvalidArgument, "buffer/set-size", "size %d outside capacity %d", n, len(b.data))
	}
	b.size = n
	return nil
}

// Expand grows the capacity to at least newCap, keeping the contents.
func (b *Buffer) Expand(newCap int) error {
	if b.fixed {
		return NewError(OperationNotSupported, "buffer/expand", "buffer is not growable")
	}
	if newCap <= len(b.data) {
		return nil
	}
	data := make([]byte, newCap)
	copy(data, b.data)
	b.data = data
	return nil
}

// Slice returns a fixed buffer aliasing n bytes starting at off.
func (b *Buffer) Slice(off, n int) (*Buffer, error) {
	if off < 0 || n < 0 || off+n > b.size {
		return nil, NewError(InvalidArgument, "buffer/slice", "[%d:%d] outside size %d", off, off+n, b.size)
	}
	return WrapBuffer(b.data[off : off+n : off+n]), nil
}

// Share moves the contents into a new Shared handle. b is left empty.
// The size, not the capacity, carries over.
func (b *Buffer) Share() *Shared {
	s := NewShared(b.data[:b.size:b.size])
	b.data, b.size = nil, 0
	return s
}

type sharedStorage struct {
	data []byte
	refs atomic.Int32
}

// Shared is an immutable, reference counted view of storage.
// Slices taken from a Shared handle share its storage instead of copying.
type Shared struct {
	st      *sharedStorage
	off, n  int
	release atomic.Bool
}

// NewShared takes ownership of data and returns the first handle to it.
func NewShared(data []byte) *Shared {
	st := &sharedStorage{data: data}
	st.refs.Store(1)
	return &Shared{st: st, n: len(data)}
}

// CopyShared returns a handle to a private copy of data.
func CopyShared(data []byte) *Shared {
	cp := make([]byte, len(data))
	copy(cp, data)
	return NewShared(cp)
}

func (s *Shared) Bytes() []byte {
	if s.st == nil {
		return nil
	}
	return s.st.data[s.off : s.off+s.n : s.off+s.n]
}

func (s *Shared) Size() int     { return s.n }
func (s *Shared) Capacity() int { return s.n }

// Slice returns a new handle to n bytes starting at off, sharing storage.
func (s *Shared) Slice(off, n int) (*Shared, error) {
	if off < 0 || n < 0 || off+n > s.n {
		return nil, NewError(InvalidArgument, "shared/slice", "[%d:%d] outside size %d", off, off+n, s.n)
	}
	if s.st == nil {
		return NewShared(nil), nil
	}
	s.st.refs.Add(1)
	return &Shared{st: s.st, off: s.off + off, n: n}, nil
}

// Ref returns another handle to the same bytes.
func (s *Shared) Ref() *Shared {
	sl, _ := s.Slice(0, s.n)
	return sl
}

// Release drops this handle's reference. Releasing twice is a no-op.
func (s *Shared) Release() {
	if s.st == nil || s.release.Swap(true) {
		return
	}
	s.st.refs.Add(-1)
}

// UseCount returns the number of live handles sharing this storage.
func (s *Shared) UseCount() int {
	if s.st == nil {
		return 0
	}
	return int(s.st.refs.Load())
}

// SameStorage reports whether s and o are views of the same storage.
func (s *Shared) SameStorage(o *Shared) bool {
	return s.st != nil && o != nil && s.st == o.st
}

// Unshare moves the bytes back into a mutable buffer.
// The storage is reused when s is its only handle and copied otherwise.
func (s *Shared) Unshare() *Buffer {
	var b *Buffer
	if s.st != nil && s.UseCount() == 1 && !s.release.Load() {
		b = &Buffer{data: s.st.data[s.off : s.off+s.n], size: s.n}
	} else {
		b = NewBuffer(s.n)
		b.size = copy(b.data, s.Bytes())
	}
	s.Release()
	s.st, s.off, s.n = nil, 0, 0
	return b
}
