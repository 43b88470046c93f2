// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package segstore

import (
	"github.com/dgraph-io/sroar"
	"github.com/zeebo/blake3"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/codec/msgpack"
)

// Manifest describes a stored segment sequence.
type Manifest struct {
	Name    string
	Sizes   []int64
	Digests [][32]byte

	// Stored has a bit set for every segment index written. Segments put
	// one at a time may leave gaps; their Sizes and Digests entries are zero.
	Stored *sroar.Bitmap
}

func newManifest(name string) *Manifest {
	return &Manifest{Name: name, Stored: sroar.NewBitmap()}
}

// Len returns the number of segments.
func (m *Manifest) Len() int { return len(m.Sizes) }

// Size returns the total size of the stored segments.
func (m *Manifest) Size() int64 {
	var n int64
	for _, s := range m.Sizes {
		n += s
	}
	return n
}

func (m *Manifest) add(data []byte) { m.set(len(m.Sizes), data) }

// set records data as segment i, extending the manifest with unstored
// placeholders when i is past the end.
func (m *Manifest) set(i int, data []byte) {
	for len(m.Sizes) <= i {
		m.Sizes = append(m.Sizes, 0)
		m.Digests = append(m.Digests, [32]byte{})
	}
	m.Sizes[i] = int64(len(data))
	m.Digests[i] = blake3.Sum256(data)
	m.Stored.Set(uint64(i))
}

// Complete reports whether every segment below Len has been stored.
func (m *Manifest) Complete() bool { return m.Stored.GetCardinality() == m.Len() }

// Prefix returns the number of leading segments stored without a gap.
func (m *Manifest) Prefix() int {
	n := 0
	for _, i := range m.Stored.ToArray() {
		if i != uint64(n) {
			break
		}
		n++
	}
	return n
}

// check reports structural inconsistencies of a decoded manifest.
func (m *Manifest) check() error {
	const op = "segstore/manifest"
	if len(m.Digests) != len(m.Sizes) {
		return bstream.NewError(bstream.InvalidState, op, "%s lists %d sizes and %d digests", m.Name, len(m.Sizes), len(m.Digests))
	}
	stored := m.Stored.ToArray()
	if len(stored) > 0 && stored[len(stored)-1] >= uint64(len(m.Sizes)) {
		return bstream.NewError(bstream.InvalidState, op, "%s: segment %d stored beyond %d segments", m.Name, stored[len(stored)-1], len(m.Sizes))
	}
	if len(m.Sizes) > 0 && (len(stored) == 0 || stored[len(stored)-1] != uint64(len(m.Sizes)-1)) {
		return bstream.NewError(bstream.InvalidState, op, "%s: last segment %d is not stored", m.Name, len(m.Sizes)-1)
	}
	return nil
}

// verify checks segment i against its recorded size and digest.
func (m *Manifest) verify(i int, data []byte) error {
	if int64(len(data)) != m.Sizes[i] {
		return bstream.NewError(bstream.InvalidState, "segstore/verify", "%s segment %d has %d bytes, expected %d", m.Name, i, len(data), m.Sizes[i])
	}
	if blake3.Sum256(data) != m.Digests[i] {
		return bstream.NewError(bstream.InvalidState, "segstore/verify", "%s segment %d digest mismatch", m.Name, i)
	}
	return nil
}

// MarshalMsgpack writes the manifest as [name, [size...], [digest...], bitmap].
func (m *Manifest) MarshalMsgpack(e *msgpack.Encoder) error {
	if err := e.WriteArrayHeader(4); err != nil {
		return err
	}
	if err := e.WriteString(m.Name); err != nil {
		return err
	}
	if err := e.WriteArrayHeader(len(m.Sizes)); err != nil {
		return err
	}
	for _, s := range m.Sizes {
		if err := e.WriteInt(s); err != nil {
			return err
		}
	}
	if err := e.WriteArrayHeader(len(m.Digests)); err != nil {
		return err
	}
	for i := range m.Digests {
		if err := e.WriteBlob(m.Digests[i][:]); err != nil {
			return err
		}
	}
	return e.WriteBlob(m.Stored.ToBuffer())
}

func (m *Manifest) UnmarshalMsgpack(d *msgpack.Decoder) error {
	if err := d.CheckArrayHeader(4); err != nil {
		return err
	}
	name, err := d.ReadString()
	if err != nil {
		return err
	}
	n, err := d.ReadArrayHeader()
	if err != nil {
		return err
	}
	sizes := make([]int64, n)
	for i := range sizes {
		if sizes[i], err = d.ReadInt64(); err != nil {
			return err
		}
	}
	if err := d.CheckArrayHeader(n); err != nil {
		return err
	}
	digests := make([][32]byte, n)
	for i := range digests {
		if err := d.CheckBlobHeader(32); err != nil {
			return err
		}
		if err := d.Source().GetFull(digests[i][:]); err != nil {
			return err
		}
	}
	bm, err := d.ReadBlob()
	if err != nil {
		return err
	}
	m.Name, m.Sizes, m.Digests = name, sizes, digests
	if len(bm) == 0 {
		m.Stored = sroar.NewBitmap()
	} else {
		m.Stored = sroar.FromBuffer(bm)
	}
	return nil
}
