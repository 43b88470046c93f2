// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package cursor

import (
	"io"

	bstream "github.com/edgeofmagic/util-sub000"
)

// SourceBacking supplies storage to a read cursor.
type SourceBacking interface {
	// Size returns the logical size of the stream.
	Size() bstream.Position

	// Underflow is called when the window is exhausted. It maps the storage
	// that follows and returns the number of newly readable bytes, or 0 at
	// the end of the stream.
	Underflow(w *Window) (int, error)

	// SeekTo maps the storage holding pos, with w.Position() == pos afterwards.
	// pos is within [0, Size()].
	SeekTo(w *Window, pos bstream.Position) error
}

// SeekChecker is implemented by backings that cannot reach every offset
// inside the stream, such as forward-only readers.
type SeekChecker interface {
	CheckSeek(pos bstream.Position) error
}

// Unsized is implemented by backings whose Size only counts the bytes seen
// so far, so it cannot bound a read that is still to come.
type Unsized interface {
	Unsized()
}

// copyChunk caps the first allocation of a copy from an unsized backing.
const copyChunk = 64 << 10

// Source is a buffered read cursor over a SourceBacking.
type Source struct {
	w Window
	b SourceBacking

	jumping bool
	jumpTo  bstream.Position
}

var _ bstream.Source = (*Source)(nil)

// NewSource returns a cursor positioned at the start of b.
func NewSource(b SourceBacking) *Source {
	return &Source{b: b, jumping: true}
}

func (s *Source) Size() bstream.Position { return s.b.Size() }

func (s *Source) Position() bstream.Position {
	if s.jumping {
		return s.jumpTo
	}
	return s.w.Position()
}

func (s *Source) SetPosition(pos bstream.Position) error {
	if pos < 0 || pos > s.b.Size() {
		return bstream.NewError(bstream.InvalidArgument, "source/seek", "position %d outside [0, %d]", pos, s.b.Size())
	}
	if sc, ok := s.b.(SeekChecker); ok {
		if err := sc.CheckSeek(pos); err != nil {
			return err
		}
	}
	s.moveTo(pos)
	return nil
}

// moveTo repositions without validation, staying inside the window when it can.
func (s *Source) moveTo(pos bstream.Position) {
	if !s.jumping && s.w.Contains(pos) {
		s.w.Next = int(pos - s.w.Base)
		return
	}
	s.Remap(pos)
}

// Remap schedules a jump to pos through the backing.
// Backings call it after changing the storage layout underneath the window.
func (s *Source) Remap(pos bstream.Position) {
	s.jumping = true
	s.jumpTo = pos
}

func (s *Source) Seek(offset int64, anchor bstream.Anchor) (bstream.Position, error) {
	target, err := bstream.Resolve(s.Position(), s.Size(), offset, anchor)
	if err != nil {
		return s.Position(), err
	}
	if err := s.SetPosition(target); err != nil {
		return s.Position(), err
	}
	return target, nil
}

func (s *Source) Rewind() error { return s.SetPosition(0) }

func (s *Source) Mark() bstream.Mark {
	return bstream.NewMark(s.Position(), s.Size())
}

func (s *Source) Restore(m bstream.Mark) error {
	if m.Pos < 0 || m.Pos > s.b.Size() {
		return bstream.NewError(bstream.InvalidArgument, "source/restore", "mark %d outside [0, %d]", m.Pos, s.b.Size())
	}
	s.moveTo(m.Pos)
	return nil
}

func (s *Source) ready() error {
	if !s.jumping {
		return nil
	}
	if err := s.b.SeekTo(&s.w, s.jumpTo); err != nil {
		return err
	}
	s.jumping = false
	return nil
}

// fill makes at least one byte available in the window.
func (s *Source) fill(op string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if s.w.Next < s.w.End {
		return nil
	}
	n, err := s.b.Underflow(&s.w)
	if err != nil {
		return err
	}
	if n == 0 {
		return bstream.NewError(bstream.ReadPastEnd, op, "")
	}
	if s.w.Next >= s.w.End {
		return bstream.NewError(bstream.InvalidState, op, "underflow reported %d bytes but the window is empty", n)
	}
	return nil
}

func (s *Source) Get() (byte, error) {
	if err := s.fill("source/get"); err != nil {
		return 0, err
	}
	c := s.w.Buf[s.w.Next]
	s.w.Next++
	return c, nil
}

func (s *Source) Peek() (byte, error) {
	if err := s.fill("source/peek"); err != nil {
		return 0, err
	}
	return s.w.Buf[s.w.Next], nil
}

func (s *Source) GetN(dst []byte) (int, error) {
	var total int
	for total < len(dst) {
		if err := s.fill("source/getn"); err != nil {
			if bstream.IsReadPastEnd(err) {
				break
			}
			return total, err
		}
		c := copy(dst[total:], s.w.Buf[s.w.Next:s.w.End])
		s.w.Next += c
		total += c
	}
	return total, nil
}

func (s *Source) GetFull(dst []byte) error {
	start := s.Position()
	n, err := s.GetN(dst)
	if err == nil && n < len(dst) {
		err = bstream.NewError(bstream.ReadPastEnd, "source/getfull", "wanted %d bytes, stream had %d", len(dst), n)
	}
	if err != nil {
		s.moveTo(start)
	}
	return err
}

// Skip advances over n bytes.
func (s *Source) Skip(n int) error {
	if n < 0 {
		return bstream.NewError(bstream.InvalidArgument, "source/skip", "negative count %d", n)
	}
	start := s.Position()
	for n > 0 {
		if err := s.fill("source/skip"); err != nil {
			s.moveTo(start)
			return err
		}
		c := s.w.Remaining()
		if c > n {
			c = n
		}
		s.w.Next += c
		n -= c
	}
	return nil
}

func (s *Source) GetSlice(n int) ([]byte, error) {
	if n < 0 {
		return nil, bstream.NewError(bstream.InvalidArgument, "source/slice", "negative length %d", n)
	}
	if n == 0 {
		return []byte{}, nil
	}
	if err := s.fill("source/slice"); err != nil {
		return nil, err
	}
	if s.w.Remaining() >= n {
		sl := s.w.Buf[s.w.Next : s.w.Next+n : s.w.Next+n]
		s.w.Next += n
		return sl, nil
	}
	return s.copyOut("source/slice", n)
}

// GetCopy returns the next n bytes in a new slice.
func (s *Source) GetCopy(n int) ([]byte, error) {
	if n < 0 {
		return nil, bstream.NewError(bstream.InvalidArgument, "source/copy", "negative length %d", n)
	}
	if n == 0 {
		return []byte{}, nil
	}
	return s.copyOut("source/copy", n)
}

// copyOut reads n bytes into a new slice. On sized backings n is checked
// against the bytes left before allocating. Unsized backings are read into a
// slice that grows as bytes arrive, so a length that overstates the stream
// costs no more than the stream holds.
func (s *Source) copyOut(op string, n int) ([]byte, error) {
	if _, ok := s.b.(Unsized); !ok {
		if left := s.Size() - s.Position(); bstream.Position(n) > left {
			return nil, bstream.NewError(bstream.ReadPastEnd, op, "wanted %d bytes, stream has %d", n, left)
		}
		buf := make([]byte, n)
		if err := s.GetFull(buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	start := s.Position()
	buf := make([]byte, 0, min(n, copyChunk))
	for len(buf) < n {
		if err := s.fill(op); err != nil {
			s.moveTo(start)
			return nil, err
		}
		c := min(s.w.Remaining(), n-len(buf))
		buf = append(buf, s.w.Buf[s.w.Next:s.w.Next+c]...)
		s.w.Next += c
	}
	return buf, nil
}

func (s *Source) GetSharedSlice(n int) (*bstream.Shared, error) {
	if n < 0 {
		return nil, bstream.NewError(bstream.InvalidArgument, "source/shared-slice", "negative length %d", n)
	}
	if n == 0 {
		return bstream.NewShared(nil), nil
	}
	if err := s.fill("source/shared-slice"); err != nil {
		return nil, err
	}
	if s.w.Remaining() >= n {
		var (
			sh  *bstream.Shared
			err error
		)
		if s.w.Shared != nil {
			sh, err = s.w.Shared.Slice(s.w.Next, n)
			if err != nil {
				return nil, err
			}
		} else {
			sh = bstream.CopyShared(s.w.Buf[s.w.Next : s.w.Next+n])
		}
		s.w.Next += n
		return sh, nil
	}
	buf, err := s.copyOut("source/shared-slice", n)
	if err != nil {
		return nil, err
	}
	return bstream.NewShared(buf), nil
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.GetN(p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// ReadByte implements io.ByteReader.
func (s *Source) ReadByte() (byte, error) {
	c, err := s.Get()
	if bstream.IsReadPastEnd(err) {
		return 0, io.EOF
	}
	return c, err
}
