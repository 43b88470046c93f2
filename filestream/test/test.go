// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/filestream"
	mtest "github.com/edgeofmagic/util-sub000/test"
)

// pageSize is small so streams cross many pages.
const pageSize = 64

func path(name string) (string, error) {
	p := filepath.Join("testrun", strings.ReplaceAll(name, "/", "_"))
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return "", errors.Wrap(err, "error creating test directory")
	}
	return p, nil
}

func init() {
	mtest.RegisterSource("filestream", func(name string, data []byte) (bstream.Source, error) {
		p, err := path(name)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, data, 0600); err != nil {
			return nil, errors.Wrap(err, "error writing test file")
		}
		return filestream.Open(p, filestream.WithPageSize(pageSize))
	})

	mtest.RegisterSource("filestream-mmap", func(name string, data []byte) (bstream.Source, error) {
		p, err := path(name)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, data, 0600); err != nil {
			return nil, errors.Wrap(err, "error writing test file")
		}
		m, err := filestream.Map(p)
		if err != nil {
			return nil, err
		}
		return &mapped{Mapped: m, name: p}, nil
	})

	mtest.RegisterSink("filestream", func(name string) (bstream.Sink, mtest.ReadBackFunc, error) {
		p, err := path(name)
		if err != nil {
			return nil, nil, err
		}
		s, err := filestream.Create(p, filestream.WithPageSize(pageSize))
		if err != nil {
			return nil, nil, err
		}
		return s, func() ([]byte, error) {
			if err := s.Flush(); err != nil {
				return nil, err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, err
			}
			return append([]byte{}, data[:s.Size()]...), nil
		}, nil
	})
}

// mapped lets the suites remove the file behind a mapping.
type mapped struct {
	*filestream.Mapped
	name string
}

func (m *mapped) FileName() string { return m.name }
