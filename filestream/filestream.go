// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package filestream implements streams backed by files.
//
// Source and Sink keep one page of the file in memory as their window.
// The sink only writes back the dirty range of that page, so bytes of an
// existing file that are skipped over by a seek are left alone. Map offers a
// read-only alternative that maps the whole file.
package filestream

import (
	"io"
	"os"

	"github.com/pkg/errors"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/cursor"
)

// DefaultPageSize is the default size of the in-memory window.
const DefaultPageSize = 4096

type options struct {
	pageSize int
}

// Option configures a file stream.
type Option func(*options) error

// WithPageSize sets the size of the in-memory window.
func WithPageSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return bstream.NewError(bstream.InvalidArgument, "filestream/page-size", "page size %d", n)
		}
		o.pageSize = n
		return nil
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{pageSize: DefaultPageSize}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	return o, nil
}

// Source reads a file one page at a time.
type Source struct {
	*cursor.Source
	bk *fileReader
}

type fileReader struct {
	f    *os.File
	size bstream.Position
	page []byte
}

// Open opens the file at path for reading.
func Open(path string, opts ...Option) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "filestream: failed to open %s", path)
	}
	src, err := NewSource(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// NewSource returns a source reading f. The size is taken once, when the
// source is created.
func NewSource(f *os.File, opts ...Option) (*Source, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "filestream: failed to seek to end of file")
	}
	bk := &fileReader{f: f, size: bstream.Position(end), page: make([]byte, o.pageSize)}
	return &Source{Source: cursor.NewSource(bk), bk: bk}, nil
}

func (r *fileReader) Size() bstream.Position { return r.size }

func (r *fileReader) load(w *cursor.Window, start bstream.Position, rel int) (int, error) {
	want := len(r.page)
	if rest := r.size - start; rest < bstream.Position(want) {
		want = int(rest)
	}
	n, err := r.f.ReadAt(r.page[:want], int64(start))
	if err != nil && !(err == io.EOF && n == want) {
		return 0, errors.Wrapf(err, "filestream: failed to read page at %d", start)
	}
	w.Set(r.page, start, rel, n)
	return n, nil
}

func (r *fileReader) Underflow(w *cursor.Window) (int, error) {
	start := w.Base + bstream.Position(w.End)
	if start >= r.size {
		return 0, nil
	}
	return r.load(w, start, 0)
}

func (r *fileReader) SeekTo(w *cursor.Window, pos bstream.Position) error {
	page := bstream.Position(len(r.page))
	start := pos - pos%page
	if start >= r.size {
		w.Clear(pos)
		return nil
	}
	_, err := r.load(w, start, int(pos-start))
	return err
}

// Close closes the file.
func (s *Source) Close() error {
	return s.bk.f.Close()
}

// FileName returns the name of the underlying file.
func (s *Source) FileName() string { return s.bk.f.Name() }

// Sink writes a file through a one page window.
type Sink struct {
	*cursor.Sink
	bk *fileWriter
}

type fileWriter struct {
	f    *os.File
	page []byte
}

// Create creates or truncates the file at path and returns a sink writing it.
func Create(path string, opts ...Option) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "filestream: failed to create %s", path)
	}
	snk, err := NewSink(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return snk, nil
}

// NewSink returns a sink positioned at the start of f. The current contents
// of f count towards the size of the stream.
func NewSink(f *os.File, opts ...Option) (*Sink, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "filestream: failed to seek to end of file")
	}
	bk := &fileWriter{f: f, page: make([]byte, o.pageSize)}
	return &Sink{Sink: cursor.NewSink(bk, bstream.Position(end)), bk: bk}, nil
}

func (fw *fileWriter) Growable() bool { return true }

func (fw *fileWriter) Overflow(w *cursor.Window, n int) error {
	w.Set(fw.page, w.Position(), 0, len(fw.page))
	return nil
}

func (fw *fileWriter) Flush(w *cursor.Window, from int) error {
	at := int64(w.Base) + int64(from)
	if _, err := fw.f.WriteAt(w.Buf[from:w.Next], at); err != nil {
		return errors.Wrapf(err, "filestream: failed to write %d bytes at %d", w.Next-from, at)
	}
	return nil
}

func (fw *fileWriter) SeekTo(w *cursor.Window, pos bstream.Position) error {
	w.Set(fw.page, pos, 0, len(fw.page))
	return nil
}

// Close flushes, cuts the file to the size of the stream and closes it.
func (s *Sink) Close() error {
	if err := s.Flush(); err != nil {
		s.bk.f.Close()
		return err
	}
	if err := s.bk.f.Truncate(int64(s.Size())); err != nil {
		s.bk.f.Close()
		return errors.Wrap(err, "filestream: failed to truncate to stream size")
	}
	return s.bk.f.Close()
}

// FileName returns the name of the underlying file.
func (s *Sink) FileName() string { return s.bk.f.Name() }
