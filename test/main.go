// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package test holds conformance suites for stream implementations.
// Implementations register constructors from their own test packages and
// test/all runs every suite against every registration.
package test // import "github.com/edgeofmagic/util-sub000/test"

import (
	"os"
	"testing"

	bstream "github.com/edgeofmagic/util-sub000"
)

// NewSourceFunc returns a source over a copy of data.
type NewSourceFunc func(name string, data []byte) (bstream.Source, error)

// ReadBackFunc flushes a sink and returns everything it holds.
type ReadBackFunc func() ([]byte, error)

// NewSinkFunc returns an empty, growable sink and a way to read it back.
type NewSinkFunc func(name string) (bstream.Sink, ReadBackFunc, error)

func SourceTest(f NewSourceFunc) func(*testing.T) {
	return func(t *testing.T) {
		t.Run("Read", SourceTestRead(f))
		t.Run("Seek", SourceTestSeek(f))
		t.Run("Concurrent", SourceTestConcurrent(f))
	}
}

func SinkTest(f NewSinkFunc) func(*testing.T) {
	return func(t *testing.T) {
		t.Run("Write", SinkTestWrite(f))
		t.Run("HighWaterMark", SinkTestHighWaterMark(f))
	}
}

// testData returns n bytes that differ from their neighbours.
func testData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + i/251)
	}
	return data
}

// cleanup closes s and removes the file behind it, if any.
func cleanup(t *testing.T, s interface{}) {
	if c, ok := s.(interface{ Close() error }); ok {
		c.Close()
	}
	if namer, ok := s.(interface{ FileName() string }); ok {
		if err := os.Remove(namer.FileName()); err != nil && !os.IsNotExist(err) {
			t.Log("error deleting stream file:", err)
		}
	}
}
