// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package fs keeps each persisted item in its own file, named by the hex
// encoding of its key.
package fs

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/edgeofmagic/util-sub000/internal/persist"
)

type Saver struct {
	base string
}

var _ persist.Saver = (*Saver)(nil)

func New(base string) *Saver {
	return &Saver{base: base}
}

var errEmptyKey = errors.New("persist/fs: empty key")

func (s Saver) path(key persist.Key) (string, error) {
	if len(key) == 0 {
		return "", errEmptyKey
	}
	return filepath.Join(s.base, hex.EncodeToString(key)), nil
}

// Put replaces the file for key through a rename, so readers never see a
// partial item.
func (s Saver) Put(key persist.Key, data []byte) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.base, 0700); err != nil {
		return errors.Wrap(err, "persist/fs: failed to create base directory")
	}
	tmp, err := os.CreateTemp(s.base, ".put-*")
	if err != nil {
		return errors.Wrap(err, "persist/fs: failed to create temporary file")
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "persist/fs: failed to write item")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "persist/fs: failed to move item into place")
	}
	return nil
}

func (s Saver) Get(key persist.Key) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "persist/fs: failed to read item")
	}
	return data, nil
}

func (s Saver) List() ([]persist.Key, error) {
	entries, err := os.ReadDir(s.base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "persist/fs: failed to read base directory")
	}
	var keys []persist.Key
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		k, err := hex.DecodeString(e.Name())
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i]) < string(keys[j]) })
	return keys, nil
}

func (s Saver) Delete(key persist.Key) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "persist/fs: failed to delete item")
}
