package paramblock

import (
	"maps"
	"reflect"
)

// ReadFunc reads the parser's current value into dst, which is a *T.
type ReadFunc func(p Parser, dst any) bool

// WriteFunc writes v, a T, at stack.
type WriteFunc func(p Parser, v any, stack NameStack) bool

// InspectFunc reports a leaf of type T at stack with its cardinality and
// optional legal values.
type InspectFunc func(p Parser, stack NameStack, min, max int, values []string)

// Funcs is the per-type function triple a parser supports.
type Funcs struct {
	Read    ReadFunc
	Write   WriteFunc
	Inspect InspectFunc
}

// Registry maps leaf types to their Funcs.
//
// Each parser package builds its default Registry once and shares it between
// instances. A Registry must not be modified after it has been handed to a
// parser; extend a copy from Clone instead.
type Registry struct {
	funcs map[reflect.Type]Funcs
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[reflect.Type]Funcs{}}
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	return &Registry{funcs: maps.Clone(r.funcs)}
}

// Lookup returns the Funcs registered for t.
func (r *Registry) Lookup(t reflect.Type) (Funcs, bool) {
	if r == nil {
		return Funcs{}, false
	}
	f, ok := r.funcs[t]
	return f, ok
}

// Set installs the Funcs for t, replacing earlier ones.
func (r *Registry) Set(t reflect.Type, f Funcs) { r.funcs[t] = f }

// RegisterParserFuncs installs typed read and write functions for T. Either
// may be nil; an existing inspect function is kept.
func RegisterParserFuncs[T any](r *Registry, read func(Parser, *T) bool, write func(Parser, T, NameStack) bool) {
	t := reflect.TypeFor[T]()
	f := r.funcs[t]
	if read != nil {
		f.Read = func(p Parser, dst any) bool { return read(p, dst.(*T)) }
	}
	if write != nil {
		f.Write = func(p Parser, v any, stack NameStack) bool { return write(p, v.(T), stack) }
	}
	r.funcs[t] = f
}

// RegisterInspectFunc installs the inspect function for T.
func RegisterInspectFunc[T any](r *Registry, inspect InspectFunc) {
	t := reflect.TypeFor[T]()
	f := r.funcs[t]
	f.Inspect = inspect
	r.funcs[t] = f
}
