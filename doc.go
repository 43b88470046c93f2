// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package bstream defines positionable byte streams and the storage they are
// backed by.
//
// A Source is read from and a Sink is written to. Both keep a window over
// their current backing storage and only call into the backing
// implementation when that window is exhausted. The concrete endpoints live
// in sub-packages: membuf (one contiguous buffer), segmented (many disjoint
// segments), filestream (files) and iostream (plain io.Reader/io.Writer).
//
// Values are encoded onto streams by codec/msgpack; polymorphic object graphs
// by codec/graph.
package bstream // import "github.com/edgeofmagic/util-sub000"
