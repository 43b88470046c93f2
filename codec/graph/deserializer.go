// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package graph

import (
	"reflect"

	"github.com/pkg/errors"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/codec/msgpack"
)

type entry struct {
	typ reflect.Type
	obj Object
}

// Deserializer reads one pass of an object graph.
type Deserializer struct {
	*msgpack.Decoder

	ctx   Context
	dedup bool
	table []entry
}

// Option configures a Deserializer.
type Option func(*Deserializer)

// WithoutDedup makes the deserializer keep no table of shared objects.
// Any back reference then fails with ContextMismatch.
func WithoutDedup() Option {
	return func(d *Deserializer) { d.dedup = false }
}

// NewDeserializer returns a deserializer reading from src. ctx may be nil when
// every pointer was written with NoTag.
func NewDeserializer(src bstream.Source, ctx Context, opts ...Option) *Deserializer {
	d := &Deserializer{
		Decoder: msgpack.NewDecoder(src),
		ctx:     ctx,
		dedup:   true,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Context returns the context the deserializer was created with.
func (d *Deserializer) Context() Context { return d.ctx }

// Reset forgets the shared objects read so far.
func (d *Deserializer) Reset() {
	for i := range d.table {
		d.table[i] = entry{}
	}
	d.table = d.table[:0]
}

// Rewind resets the deserializer and moves its source back to the start.
func (d *Deserializer) Rewind() error {
	d.Reset()
	return d.Source().Rewind()
}

// Len returns the number of shared objects read in this pass.
func (d *Deserializer) Len() int { return len(d.table) }

// ReadShared reads a pointer written by WriteShared. Back references resolve
// to the instance created when the object was first read.
func ReadShared[T Object](d *Deserializer) (T, error) {
	return read[T](d, true)
}

// ReadUnique reads a pointer written by WriteUnique.
func ReadUnique[T Object](d *Deserializer) (T, error) {
	return read[T](d, false)
}

func read[T Object](d *Deserializer, shared bool) (T, error) {
	var zero T
	src := d.Source()
	m := src.Mark()
	known := len(d.table)

	rollback := func(err error) (T, error) {
		_ = src.Restore(m)
		for i := known; i < len(d.table); i++ {
			d.table[i] = entry{}
		}
		d.table = d.table[:known]
		return zero, err
	}

	obj, err := d.readPointer(reflect.TypeFor[T](), shared)
	if err != nil {
		return rollback(err)
	}
	if obj == nil {
		return zero, nil
	}
	t, ok := obj.(T)
	if !ok {
		return rollback(bstream.NewError(bstream.InvalidPtrDowncast, "graph/read", "%T is not a %s", obj, reflect.TypeFor[T]()))
	}
	return t, nil
}

func (d *Deserializer) readPointer(static reflect.Type, shared bool) (Object, error) {
	const op = "graph/read"

	if err := d.CheckArrayHeader(2); err != nil {
		switch bstream.CodeOf(err) {
		case bstream.ExpectedArray, bstream.LengthMismatch:
			return nil, bstream.NewError(bstream.InvalidHeaderForPointer, op, "%v", err)
		}
		return nil, err
	}
	raw, err := d.ReadInt64()
	if err != nil {
		if bstream.IsReadPastEnd(err) {
			return nil, err
		}
		return nil, bstream.NewError(bstream.InvalidHeaderForPointer, op, "bad tag: %v", err)
	}
	if raw < int64(NoTag) {
		return nil, bstream.NewError(bstream.InvalidHeaderForPointer, op, "bad tag %d", raw)
	}
	tag := Tag(raw)
	if tag != NoTag && d.ctx == nil {
		return nil, bstream.NewError(bstream.ContextMismatch, op, "tag %d but no context", tag)
	}

	c, err := d.PeekCode()
	if err != nil {
		return nil, err
	}
	switch {
	case c == msgpack.Nil:
		return nil, d.ReadNil()
	case c.IsUnsignedInt():
		return d.lookup(op, tag, static, shared)
	}
	return d.construct(op, tag, static, shared)
}

func (d *Deserializer) lookup(op string, tag Tag, static reflect.Type, shared bool) (Object, error) {
	if !shared {
		return nil, bstream.NewError(bstream.InvalidHeaderForPointer, op, "back reference to a unique pointer")
	}
	if !d.dedup {
		return nil, bstream.NewError(bstream.ContextMismatch, op, "back reference without a dedup table")
	}
	idx, err := d.ReadUint64()
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(d.table)) {
		return nil, bstream.NewError(bstream.InvalidArgument, op, "back reference %d, only %d objects read", idx, len(d.table))
	}
	e := d.table[idx]
	if tag != NoTag {
		rt, ok := d.ctx.TypeOf(tag)
		if !ok || rt != e.typ || !d.ctx.CanDowncast(tag, static) {
			return nil, bstream.NewError(bstream.DynamicTypeMismatch, op, "object %d is a %s, tag %d names %v (reading %s)", idx, e.typ, tag, rt, static)
		}
	} else if e.typ != static {
		return nil, bstream.NewError(bstream.StaticTypeMismatch, op, "object %d is a %s, reading %s", idx, e.typ, static)
	}
	return e.obj, nil
}

func (d *Deserializer) construct(op string, tag Tag, static reflect.Type, shared bool) (Object, error) {
	var obj Object
	if tag != NoTag {
		if !d.ctx.CanDowncast(tag, static) {
			rt, _ := d.ctx.TypeOf(tag)
			return nil, bstream.NewError(bstream.InvalidPtrDowncast, op, "tag %d names %v, not a %s", tag, rt, static)
		}
		var err error
		if obj, err = d.ctx.Create(tag); err != nil {
			return nil, err
		}
	} else {
		if static.Kind() != reflect.Ptr {
			return nil, bstream.NewError(bstream.AbstractNonPolyClass, op, "cannot create a %s without a tag", static)
		}
		obj = reflect.New(static.Elem()).Interface().(Object)
	}

	if shared && d.dedup {
		d.table = append(d.table, entry{typ: reflect.TypeOf(obj), obj: obj})
	}
	if err := obj.DecodeGraph(d); err != nil {
		return nil, errors.Wrapf(err, "graph: decoding %T", obj)
	}
	return obj, nil
}
