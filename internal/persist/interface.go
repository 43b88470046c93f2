// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package persist is a minimal key-value interface over the databases that
// segment stores are kept in.
package persist

import "github.com/pkg/errors"

type Key []byte

var ErrNotFound = errors.New("persist: item not found")

type Saver interface {
	Put(Key, []byte) error
	Get(Key) ([]byte, error)

	// List returns all keys in ascending byte order.
	List() ([]Key, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(Key) error
}
