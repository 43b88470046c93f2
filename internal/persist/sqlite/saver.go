// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package sqlite keeps persisted items in a table of a sqlite database.
package sqlite

import (
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/edgeofmagic/util-sub000/internal/persist"
)

type SqliteSaver struct {
	db *sql.DB
}

var _ persist.Saver = (*SqliteSaver)(nil)

const schema = `CREATE TABLE IF NOT EXISTS persisted_segments (
	key text PRIMARY KEY,
	data blob NOT NULL
)`

// New opens the database file at path, creating it and its directory if needed.
func New(path string) (*SqliteSaver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "persist/sqlite: failed to create parent directory")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "persist/sqlite: failed to open database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "persist/sqlite: failed to create schema")
	}
	return &SqliteSaver{db: db}, nil
}

func (s SqliteSaver) Close() error {
	return s.db.Close()
}

// keys are stored hex encoded so their text order is their byte order
func (s SqliteSaver) Put(key persist.Key, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO persisted_segments (key, data) VALUES (?, ?)`, hex.EncodeToString(key), data)
	if err != nil {
		return errors.Wrap(err, "persist/sqlite/put: failed to insert value")
	}
	return nil
}

func (s SqliteSaver) Get(key persist.Key) ([]byte, error) {
	var data []byte
	hexKey := hex.EncodeToString(key)
	err := s.db.QueryRow(`SELECT data FROM persisted_segments WHERE key = ?`, hexKey).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, persist.ErrNotFound
		}
		return nil, errors.Wrapf(err, "persist/sqlite/get(%s): failed to execute query", hexKey)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (s SqliteSaver) List() ([]persist.Key, error) {
	var keys []persist.Key
	rows, err := s.db.Query(`SELECT key FROM persisted_segments ORDER BY key`)
	if err != nil {
		return nil, errors.Wrap(err, "persist/sqlite/list: failed to execute rows query")
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "persist/sqlite/list: failed to scan row result")
		}
		bk, err := hex.DecodeString(k)
		if err != nil {
			return nil, errors.Wrapf(err, "persist/sqlite/list: invalid key: %q", k)
		}
		keys = append(keys, bk)
	}

	return keys, rows.Err()
}

func (s SqliteSaver) Delete(key persist.Key) error {
	_, err := s.db.Exec(`DELETE FROM persisted_segments WHERE key = ?`, hex.EncodeToString(key))
	return errors.Wrap(err, "persist/sqlite/delete: failed to delete value")
}
