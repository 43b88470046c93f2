// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package badger keeps persisted items in a badger database. Several savers
// can share one database by giving each its own key prefix.
package badger

import (
	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/edgeofmagic/util-sub000/internal/persist"
)

type Saver struct {
	db     *badger.DB
	prefix []byte

	// owned is false for savers built on a database someone else opened.
	owned bool
}

var _ persist.Saver = (*Saver)(nil)

// Options returns the badger options New uses for dir.
// An empty dir keeps the database in memory.
func Options(dir string) badger.Options {
	return badger.DefaultOptions(dir).
		WithInMemory(dir == "").
		WithCompactL0OnClose(true).
		WithLogger(nil)
}

// New opens the database in dir, creating it if needed, or an in-memory
// database when dir is empty.
func New(dir string) (*Saver, error) {
	db, err := badger.Open(Options(dir))
	if err != nil {
		return nil, errors.Wrapf(err, "persist/badger: cannot open %q", dir)
	}
	return &Saver{db: db, owned: true}, nil
}

// NewShared returns a saver keeping its items in db under prefix.
// Closing the saver leaves db open.
func NewShared(db *badger.DB, prefix []byte) (*Saver, error) {
	if len(prefix) == 0 {
		return nil, errors.New("persist/badger: shared saver needs a prefix")
	}
	return &Saver{db: db, prefix: append([]byte(nil), prefix...)}, nil
}

func (s *Saver) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
