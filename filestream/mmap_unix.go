// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

//go:build unix

package filestream

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/edgeofmagic/util-sub000/membuf"
)

// Mapped is a read-only source over a memory mapped file.
// Shared slices taken from it are copies, since the mapping goes away on Close.
type Mapped struct {
	*membuf.Source
	data []byte
}

// Map maps the file at path read-only.
func Map(path string) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "filestream: failed to open %s", path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "filestream: stat error")
	}
	if fi.Size() == 0 {
		return &Mapped{Source: membuf.NewBorrowedSource(nil)}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "filestream: failed to map %s", path)
	}
	return &Mapped{Source: membuf.NewBorrowedSource(data), data: data}, nil
}

// Close unmaps the file.
func (m *Mapped) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return errors.Wrap(err, "filestream: failed to unmap")
}
