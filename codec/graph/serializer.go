// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package graph

import (
	"reflect"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/codec/msgpack"
)

// Serializer writes one pass of an object graph.
// Objects reached through WriteShared are written once per pass; later
// references to the same object are written as its index.
type Serializer struct {
	*msgpack.Encoder

	ctx  Context
	lead *leadSink

	ids   map[Object]int
	order []Object
}

// NewSerializer returns a serializer writing to s. ctx may be nil, in which
// case every tag is NoTag and readers must know the concrete types.
func NewSerializer(s bstream.Sink, ctx Context) *Serializer {
	p := &leadSink{Sink: s}
	return &Serializer{
		Encoder: msgpack.NewEncoder(p),
		ctx:     ctx,
		lead:    p,
		ids:     make(map[Object]int),
	}
}

// Context returns the context the serializer was created with.
func (s *Serializer) Context() Context { return s.ctx }

// Reset forgets every object written so far and starts a new pass.
func (s *Serializer) Reset() {
	s.ids = make(map[Object]int)
	s.order = s.order[:0]
}

// Len returns the number of shared objects written in this pass.
func (s *Serializer) Len() int { return len(s.order) }

// WriteShared writes a pointer that may be referenced more than once.
func (s *Serializer) WriteShared(obj Object) error { return s.write(obj, true) }

// WriteUnique writes a pointer that is not referenced anywhere else.
// It never takes part in deduplication.
func (s *Serializer) WriteUnique(obj Object) error { return s.write(obj, false) }

func (s *Serializer) write(obj Object, shared bool) error {
	const op = "graph/write"
	sink := s.Sink()
	m := sink.Mark()
	known := len(s.order)
	err := s.writePointer(op, obj, shared)
	if err != nil {
		_ = sink.Restore(m)
		for _, o := range s.order[known:] {
			delete(s.ids, o)
		}
		s.order = s.order[:known]
	}
	return err
}

func (s *Serializer) writePointer(op string, obj Object, shared bool) error {
	if err := s.WriteArrayHeader(2); err != nil {
		return err
	}

	null := isNil(obj)
	tag := NoTag
	if s.ctx != nil && !null {
		t := reflect.TypeOf(obj)
		var ok bool
		if tag, ok = s.ctx.TagOf(t); !ok {
			return bstream.NewError(bstream.InvalidArgument, op, "%s is not registered", t)
		}
	}
	if err := s.WriteInt(int64(tag)); err != nil {
		return err
	}

	if null {
		return s.WriteNil()
	}
	if reflect.TypeOf(obj).Kind() != reflect.Ptr {
		return bstream.NewError(bstream.InvalidArgument, op, "%T is not a pointer", obj)
	}
	if shared {
		if idx, ok := s.ids[obj]; ok {
			return s.WriteUint(uint64(idx))
		}
		s.ids[obj] = len(s.order)
		s.order = append(s.order, obj)
	}
	return s.writeBody(op, obj)
}

func (s *Serializer) writeBody(op string, obj Object) error {
	saved := *s.lead
	s.lead.arm()
	err := obj.EncodeGraph(s)
	first, seen := s.lead.first, s.lead.seen
	*s.lead = saved
	if err != nil {
		return err
	}
	if !seen {
		return bstream.NewError(bstream.InvalidArgument, op, "%T wrote nothing", obj)
	}
	if c := msgpack.Code(first); c == msgpack.Nil || c.IsUnsignedInt() {
		return bstream.NewError(bstream.InvalidArgument, op, "%T encoding starts with %s", obj, c)
	}
	return nil
}

// leadSink records the first byte written after it is armed.
type leadSink struct {
	bstream.Sink

	armed bool
	seen  bool
	first byte
}

func (p *leadSink) arm() {
	p.armed, p.seen, p.first = true, false, 0
}

func (p *leadSink) note(c byte) {
	if p.armed {
		p.armed, p.seen, p.first = false, true, c
	}
}

func (p *leadSink) Put(c byte) error {
	if err := p.Sink.Put(c); err != nil {
		return err
	}
	p.note(c)
	return nil
}

func (p *leadSink) PutN(b []byte) error {
	if err := p.Sink.PutN(b); err != nil {
		return err
	}
	if len(b) > 0 {
		p.note(b[0])
	}
	return nil
}

func (p *leadSink) FillN(c byte, n int) error {
	if err := p.Sink.FillN(c, n); err != nil {
		return err
	}
	if n > 0 {
		p.note(c)
	}
	return nil
}

func (p *leadSink) Write(b []byte) (int, error) {
	if err := p.PutN(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *leadSink) WriteByte(c byte) error { return p.Put(c) }
