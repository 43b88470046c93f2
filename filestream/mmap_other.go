// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

//go:build !unix

package filestream

import (
	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/membuf"
)

// Mapped is a read-only source over a memory mapped file.
type Mapped struct {
	*membuf.Source
}

// Map is not available on this platform.
func Map(path string) (*Mapped, error) {
	return nil, bstream.NewError(bstream.OperationNotSupported, "filestream/map", "no mmap on this platform")
}

func (m *Mapped) Close() error { return nil }
