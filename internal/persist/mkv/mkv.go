// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package mkv keeps persisted items in a modernc.org/kv database file.
//
// Values are stored behind a one byte prefix, since kv reports a missing key
// and an empty value the same way.
package mkv

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"modernc.org/kv"

	"github.com/edgeofmagic/util-sub000/internal/persist"
)

const valuePrefix = 0

type Saver struct {
	db *kv.DB
}

var _ persist.Saver = (*Saver)(nil)

// New opens the database file at path, creating it if it does not exist.
func New(path string) (*Saver, error) {
	opts := &kv.Options{}
	var (
		db  *kv.DB
		err error
	)
	switch _, statErr := os.Stat(path); {
	case os.IsNotExist(statErr):
		db, err = kv.Create(path, opts)
	case statErr != nil:
		return nil, errors.Wrapf(statErr, "persist/mkv: cannot stat %s", path)
	default:
		db, err = kv.Open(path, opts)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "persist/mkv: cannot open %s", path)
	}
	return &Saver{db: db}, nil
}

func (s *Saver) Close() error { return s.db.Close() }

func (s *Saver) Put(key persist.Key, data []byte) error {
	v := make([]byte, 1+len(data))
	v[0] = valuePrefix
	copy(v[1:], data)
	return errors.Wrap(s.db.Set(key, v), "persist/mkv: set failed")
}

func (s *Saver) Get(key persist.Key) ([]byte, error) {
	v, err := s.db.Get(nil, key)
	if err != nil {
		return nil, errors.Wrap(err, "persist/mkv: get failed")
	}
	if len(v) == 0 {
		return nil, persist.ErrNotFound
	}
	return v[1:], nil
}

// List returns the keys in the database's (bytewise) order.
func (s *Saver) List() ([]persist.Key, error) {
	enum, err := s.db.SeekFirst()
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "persist/mkv: seek failed")
	}
	var keys []persist.Key
	for {
		k, _, err := enum.Next()
		if err == io.EOF {
			return keys, nil
		} else if err != nil {
			return nil, errors.Wrap(err, "persist/mkv: iteration failed")
		}
		keys = append(keys, append(persist.Key(nil), k...))
	}
}

func (s *Saver) Delete(key persist.Key) error {
	return errors.Wrap(s.db.Delete(key), "persist/mkv: delete failed")
}
