package paramblock

import "reflect"

// Unbounded is the Max of a repeatable slot.
const Unbounded = int(^uint(0) >> 1)

// Flag is a presence-only leaf. In markup it is written as an empty element
// and read back from one; it never carries a value.
type Flag struct{}

// ValueNamer is implemented (on the pointer) by leaf types that also accept
// symbolic names in place of a literal value, such as "red" for a Color.
type ValueNamer interface {
	ValueNames() []string
	SetFromName(name string) bool
}

// occurrence identifies the parse and generation that produced a value.
type occurrence struct {
	epoch uint64
	gen   int
}

// slotField is implemented by *Mandatory[T], *Optional[T] and *Multiple[T].
type slotField interface {
	cardinality() (min, max int)
	elemType() reflect.Type
	isProvided() bool
	// target returns the addressable element for o, staging a new element
	// when o starts a new occurrence of a repeatable slot.
	target(o occurrence) (v reflect.Value, fresh bool)
	rollback()
	store(o occurrence, v reflect.Value, name string)
	markProvided(o occurrence)
	elems() []reflect.Value
	nameAt(i int) string
}

// single holds the state shared by Mandatory and Optional.
type single[T any] struct {
	value    T
	provided bool
	name     string
}

// Get returns the current value, which is the default when not provided.
func (s single[T]) Get() T { return s.value }

// IsProvided reports whether the value was read or Set.
func (s single[T]) IsProvided() bool { return s.provided }

// ValueName returns the symbolic name the value was read from, if any.
func (s single[T]) ValueName() string { return s.name }

// Set assigns v and marks the slot as provided.
func (s *single[T]) Set(v T) {
	s.value = v
	s.provided = true
	s.name = ""
}

// SetDefault assigns v without marking the slot as provided.
func (s *single[T]) SetDefault(v T) {
	s.value = v
	s.name = ""
}

// Ref returns a pointer to the value for in-place edits of nested blocks.
// Edits through Ref do not mark the slot itself as provided, but a block
// slot is written and validated as present once any of its values is.
func (s *single[T]) Ref() *T { return &s.value }

// Reset clears the value and the provided mark.
func (s *single[T]) Reset() {
	var zero T
	s.value = zero
	s.provided = false
	s.name = ""
}

func (s *single[T]) elemType() reflect.Type { return reflect.TypeFor[T]() }
func (s *single[T]) isProvided() bool       { return s.provided }

func (s *single[T]) target(occurrence) (reflect.Value, bool) {
	return reflect.ValueOf(&s.value).Elem(), false
}

func (s *single[T]) rollback() {}

func (s *single[T]) store(_ occurrence, v reflect.Value, name string) {
	s.value = v.Interface().(T)
	s.provided = true
	s.name = name
}

func (s *single[T]) markProvided(occurrence) { s.provided = true }

func (s *single[T]) elems() []reflect.Value {
	return []reflect.Value{reflect.ValueOf(&s.value).Elem()}
}

func (s *single[T]) nameAt(int) string { return s.name }

// Mandatory is a slot that must occur exactly once.
type Mandatory[T any] struct{ single[T] }

func (*Mandatory[T]) cardinality() (int, int) { return 1, 1 }

// Optional is a slot that may occur at most once.
type Optional[T any] struct{ single[T] }

func (*Optional[T]) cardinality() (int, int) { return 0, 1 }

// Multiple is a repeatable slot. Its bounds default to zero or more and can
// be narrowed with a `count:"min..max"` tag.
type Multiple[T any] struct {
	values []T
	names  []string
	last   occurrence
}

// Len returns the number of values.
func (m Multiple[T]) Len() int { return len(m.values) }

// At returns the i-th value.
func (m Multiple[T]) At(i int) T { return m.values[i] }

// Values returns the values in input order. The slice is shared.
func (m Multiple[T]) Values() []T { return m.values }

// IsProvided reports whether at least one value is present.
func (m Multiple[T]) IsProvided() bool { return len(m.values) > 0 }

// Add appends v.
func (m *Multiple[T]) Add(v ...T) {
	for _, x := range v {
		m.values = append(m.values, x)
		m.names = append(m.names, "")
	}
	m.last = occurrence{}
}

// Ref returns a pointer to the i-th value.
func (m *Multiple[T]) Ref(i int) *T { return &m.values[i] }

// Reset drops all values.
func (m *Multiple[T]) Reset() {
	m.values = nil
	m.names = nil
	m.last = occurrence{}
}

func (*Multiple[T]) cardinality() (int, int)  { return 0, Unbounded }
func (m *Multiple[T]) elemType() reflect.Type { return reflect.TypeFor[T]() }
func (m *Multiple[T]) isProvided() bool       { return len(m.values) > 0 }

func (m *Multiple[T]) target(o occurrence) (reflect.Value, bool) {
	if len(m.values) > 0 && o == m.last {
		return reflect.ValueOf(&m.values[len(m.values)-1]).Elem(), false
	}
	var zero T
	m.values = append(m.values, zero)
	m.names = append(m.names, "")
	return reflect.ValueOf(&m.values[len(m.values)-1]).Elem(), true
}

func (m *Multiple[T]) rollback() {
	m.values = m.values[:len(m.values)-1]
	m.names = m.names[:len(m.names)-1]
}

func (m *Multiple[T]) store(o occurrence, v reflect.Value, name string) {
	if len(m.values) > 0 && o == m.last {
		m.values[len(m.values)-1] = v.Interface().(T)
		m.names[len(m.names)-1] = name
		return
	}
	m.values = append(m.values, v.Interface().(T))
	m.names = append(m.names, name)
	m.last = o
}

func (m *Multiple[T]) markProvided(o occurrence) { m.last = o }

func (m *Multiple[T]) elems() []reflect.Value {
	out := make([]reflect.Value, len(m.values))
	for i := range m.values {
		out[i] = reflect.ValueOf(&m.values[i]).Elem()
	}
	return out
}

func (m *Multiple[T]) nameAt(i int) string { return m.names[i] }

// Deprecated marks a slot name that is still accepted on input but ignored.
// Reading one records a CodeDeprecated issue; it is never written.
type Deprecated struct{}
