// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package segstore persists segment sequences in a key-value store and
// reopens them as segmented sources.
//
// A sequence called name is kept as one item per segment plus a manifest
// holding the segment sizes and BLAKE3 digests. Segments are checked
// against the manifest when they are loaded.
package segstore

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
	"go.mindeco.de/log"
	"go.mindeco.de/log/level"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/codec/msgpack"
	"github.com/edgeofmagic/util-sub000/internal/persist"
	"github.com/edgeofmagic/util-sub000/membuf"
	"github.com/edgeofmagic/util-sub000/segmented"
)

const (
	manifestPrefix = "m/"
	segmentPrefix  = "s/"
)

// Store keeps named segment sequences in a persist.Saver.
type Store struct {
	s   persist.Saver
	log log.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger for store events. The default discards them.
func WithLogger(l log.Logger) Option {
	return func(s *Store) error {
		if l == nil {
			return errors.New("segstore: nil logger")
		}
		s.log = l
		return nil
	}
}

// New returns a store keeping its items in s.
func New(s persist.Saver, opts ...Option) (*Store, error) {
	st := &Store{s: s, log: log.NewNopLogger()}
	for i, o := range opts {
		if err := o(st); err != nil {
			return nil, errors.Wrapf(err, "segstore: option %d failed", i)
		}
	}
	return st, nil
}

func checkName(op, name string) error {
	if name == "" || strings.ContainsRune(name, '/') {
		return bstream.NewError(bstream.InvalidArgument, op, "invalid name %q", name)
	}
	return nil
}

func manifestKey(name string) persist.Key {
	return persist.Key(manifestPrefix + name)
}

func segmentKey(name string, i int) persist.Key {
	k := make([]byte, 0, len(segmentPrefix)+len(name)+9)
	k = append(k, segmentPrefix...)
	k = append(k, name...)
	k = append(k, '/')
	return binary.BigEndian.AppendUint64(k, uint64(i))
}

// Put stores segs under name, replacing any earlier sequence of that name.
// The manifest is written last, so an interrupted Put leaves the previous
// sequence readable unless its segments were overwritten.
func (st *Store) Put(name string, segs ...bstream.Storage) error {
	const op = "segstore/put"
	if err := checkName(op, name); err != nil {
		return err
	}
	for i, seg := range segs {
		if seg == nil || seg.Size() == 0 {
			return bstream.NewError(bstream.InvalidArgument, op, "segment %d is empty", i)
		}
	}

	old, err := st.Stat(name)
	if err != nil && !errors.Is(err, persist.ErrNotFound) {
		return err
	}

	m := newManifest(name)
	for i, seg := range segs {
		data := seg.Bytes()[:seg.Size()]
		if err := st.s.Put(segmentKey(name, i), data); err != nil {
			return errors.Wrapf(err, "segstore: failed to store segment %d of %s", i, name)
		}
		m.add(data)
	}

	if err := st.writeManifest(m); err != nil {
		return err
	}

	if old != nil {
		for _, idx := range old.Stored.ToArray() {
			i := int(idx)
			if i < len(segs) {
				continue
			}
			if err := st.s.Delete(segmentKey(name, i)); err != nil {
				level.Warn(st.log).Log("event", "stale segment not removed", "name", name, "segment", i, "err", err)
			}
		}
	}
	level.Debug(st.log).Log("event", "put", "name", name, "segments", len(segs), "size", m.Size())
	return nil
}

// PutSegment stores seg as segment i of name, for sequences that arrive a
// segment at a time. Segments may come in any order; until every index below
// the highest one is present the sequence is incomplete and Open refuses it.
func (st *Store) PutSegment(name string, i int, seg bstream.Storage) error {
	const op = "segstore/put-segment"
	if err := checkName(op, name); err != nil {
		return err
	}
	if i < 0 {
		return bstream.NewError(bstream.InvalidArgument, op, "negative segment index %d", i)
	}
	if seg == nil || seg.Size() == 0 {
		return bstream.NewError(bstream.InvalidArgument, op, "segment %d is empty", i)
	}

	m, err := st.Stat(name)
	if errors.Is(err, persist.ErrNotFound) {
		m, err = newManifest(name), nil
	}
	if err != nil {
		return err
	}

	data := seg.Bytes()[:seg.Size()]
	if err := st.s.Put(segmentKey(name, i), data); err != nil {
		return errors.Wrapf(err, "segstore: failed to store segment %d of %s", i, name)
	}
	m.set(i, data)
	if err := st.writeManifest(m); err != nil {
		return err
	}
	level.Debug(st.log).Log("event", "put segment", "name", name, "segment", i, "stored", m.Stored.GetCardinality(), "of", m.Len())
	return nil
}

func (st *Store) writeManifest(m *Manifest) error {
	sink := membuf.NewSink(64 + 48*m.Len())
	if err := msgpack.NewEncoder(sink).Encode(m); err != nil {
		return errors.Wrap(err, "segstore: failed to encode manifest")
	}
	if err := st.s.Put(manifestKey(m.Name), sink.Bytes()); err != nil {
		return errors.Wrapf(err, "segstore: failed to store manifest of %s", m.Name)
	}
	return nil
}

// PutStream reads src from its current position to the end and stores it
// under name in segments of segSize bytes.
func (st *Store) PutStream(name string, src bstream.Source, segSize int) error {
	if segSize <= 0 {
		return bstream.NewError(bstream.InvalidArgument, "segstore/put-stream", "segment size %d", segSize)
	}
	var segs []bstream.Storage
	for {
		buf := make([]byte, segSize)
		n, err := src.GetN(buf)
		if err != nil {
			return errors.Wrap(err, "segstore: failed to read source")
		}
		if n == 0 {
			break
		}
		segs = append(segs, bstream.WrapBuffer(buf[:n]))
		if n < segSize {
			break
		}
	}
	return st.Put(name, segs...)
}

// Stat returns the manifest of name, or an error wrapping persist.ErrNotFound.
func (st *Store) Stat(name string) (*Manifest, error) {
	if err := checkName("segstore/stat", name); err != nil {
		return nil, err
	}
	data, err := st.s.Get(manifestKey(name))
	if err != nil {
		return nil, errors.Wrapf(err, "segstore: no manifest for %s", name)
	}
	var m Manifest
	if err := msgpack.NewDecoder(membuf.NewBorrowedSource(data)).Decode(&m); err != nil {
		return nil, errors.Wrapf(err, "segstore: corrupt manifest for %s", name)
	}
	if err := m.check(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Open loads and verifies every segment of name and returns them as one
// stream. The segments are shareable, so blobs read from the stream can
// reference them without copying. An incomplete sequence fails with
// InvalidState.
func (st *Store) Open(name string) (*segmented.Source, error) {
	m, err := st.Stat(name)
	if err != nil {
		return nil, err
	}
	if !m.Complete() {
		return nil, bstream.NewError(bstream.InvalidState, "segstore/open", "%s has %d of %d segments, segment %d is missing", name, m.Stored.GetCardinality(), m.Len(), m.Prefix())
	}
	return st.load(m, m.Len())
}

// OpenPrefix opens the segments of name that are stored without a gap from
// the start, which may be none.
func (st *Store) OpenPrefix(name string) (*segmented.Source, error) {
	m, err := st.Stat(name)
	if err != nil {
		return nil, err
	}
	return st.load(m, m.Prefix())
}

func (st *Store) load(m *Manifest, n int) (*segmented.Source, error) {
	segs := make([]*bstream.Shared, 0, n)
	for i := 0; i < n; i++ {
		data, err := st.s.Get(segmentKey(m.Name, i))
		if err != nil {
			return nil, errors.Wrapf(err, "segstore: failed to load segment %d of %s", i, m.Name)
		}
		if err := m.verify(i, data); err != nil {
			level.Error(st.log).Log("event", "corrupt segment", "name", m.Name, "segment", i, "err", err)
			return nil, err
		}
		segs = append(segs, bstream.NewShared(data))
	}
	level.Debug(st.log).Log("event", "open", "name", m.Name, "segments", n, "of", m.Len())
	return segmented.NewSharedSource(segs...)
}

// List returns the names of all stored sequences in ascending order.
func (st *Store) List() ([]string, error) {
	keys, err := st.s.List()
	if err != nil {
		return nil, errors.Wrap(err, "segstore: failed to list items")
	}
	var names []string
	for _, k := range keys {
		if s := string(k); strings.HasPrefix(s, manifestPrefix) {
			names = append(names, strings.TrimPrefix(s, manifestPrefix))
		}
	}
	return names, nil
}

// Delete removes name and its segments.
func (st *Store) Delete(name string) error {
	m, err := st.Stat(name)
	if err != nil {
		return err
	}
	if err := st.s.Delete(manifestKey(name)); err != nil {
		return errors.Wrapf(err, "segstore: failed to delete manifest of %s", name)
	}
	for _, i := range m.Stored.ToArray() {
		if err := st.s.Delete(segmentKey(name, int(i))); err != nil {
			return errors.Wrapf(err, "segstore: failed to delete segment %d of %s", i, name)
		}
	}
	level.Debug(st.log).Log("event", "delete", "name", name)
	return nil
}
