// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// Package graph serializes object graphs held together by pointers.
//
// Every pointer is written as a two element array [tag, payload]. The tag
// names the runtime type in a Context, or is NoTag when there is none. The
// payload is nil for a nil pointer, the index of an object already written in
// the same pass when a shared pointer is seen again, or else the object's own
// encoding. Objects must not encode themselves starting with nil or a
// non-negative integer, since those are the other two payload forms.
package graph

import (
	"fmt"
	"reflect"

	bstream "github.com/edgeofmagic/util-sub000"
)

// Tag identifies a runtime type in a Context.
type Tag int

// NoTag is written when the type is taken from the reader's static type.
const NoTag Tag = -1

// Object is implemented by pointer types that can appear in a graph.
type Object interface {
	EncodeGraph(*Serializer) error
	DecodeGraph(*Deserializer) error
}

// Context resolves tags to types and creates instances.
type Context interface {
	// Create returns a new zero instance of the type registered for tag.
	Create(tag Tag) (Object, error)
	// TypeOf returns the type registered for tag.
	TypeOf(tag Tag) (reflect.Type, bool)
	// TagOf returns the tag registered for t.
	TagOf(t reflect.Type) (Tag, bool)
	// CanDowncast reports whether an instance of the type registered for
	// from may be returned as a to.
	CanDowncast(from Tag, to reflect.Type) bool
}

// Registry is a Context backed by explicit registrations.
type Registry struct {
	byTag  map[Tag]reflect.Type
	byType map[reflect.Type]Tag
}

var _ Context = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		byTag:  make(map[Tag]reflect.Type),
		byType: make(map[reflect.Type]Tag),
	}
}

// Register associates tag with the type of proto, which must be a pointer,
// typically a nil one:
//
//	r.Register(1, (*Circle)(nil))
func (r *Registry) Register(tag Tag, proto Object) error {
	const op = "graph/register"
	if tag < 0 {
		return bstream.NewError(bstream.InvalidArgument, op, "tag %d is negative", tag)
	}
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() != reflect.Ptr {
		return bstream.NewError(bstream.InvalidArgument, op, "%v is not a pointer type", t)
	}
	if old, ok := r.byTag[tag]; ok {
		return bstream.NewError(bstream.InvalidArgument, op, "tag %d already registered for %s", tag, old)
	}
	if old, ok := r.byType[t]; ok {
		return bstream.NewError(bstream.InvalidArgument, op, "%s already registered as %d", t, old)
	}
	r.byTag[tag] = t
	r.byType[t] = tag
	return nil
}

// MustRegister is Register for package initialization.
func (r *Registry) MustRegister(tag Tag, proto Object) *Registry {
	if err := r.Register(tag, proto); err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Create(tag Tag) (Object, error) {
	t, ok := r.byTag[tag]
	if !ok {
		return nil, bstream.NewError(bstream.InvalidArgument, "graph/create", "unknown tag %d", tag)
	}
	return reflect.New(t.Elem()).Interface().(Object), nil
}

func (r *Registry) TypeOf(tag Tag) (reflect.Type, bool) {
	t, ok := r.byTag[tag]
	return t, ok
}

func (r *Registry) TagOf(t reflect.Type) (Tag, bool) {
	tag, ok := r.byType[t]
	return tag, ok
}

func (r *Registry) CanDowncast(from Tag, to reflect.Type) bool {
	t, ok := r.byTag[from]
	return ok && t.AssignableTo(to)
}

func (r *Registry) String() string {
	return fmt.Sprintf("graph.Registry(%d types)", len(r.byTag))
}

// isNil reports whether obj is nil or a typed nil pointer.
func isNil(obj Object) bool {
	if obj == nil {
		return true
	}
	rv := reflect.ValueOf(obj)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}
