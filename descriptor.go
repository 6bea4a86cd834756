package paramblock

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// SlotKind tells leaves, nested blocks and deprecated names apart.
type SlotKind int

const (
	KindLeaf SlotKind = iota
	KindBlock
	KindDeprecated
)

// Slot describes one field of a block.
type Slot struct {
	Name    string
	Aliases []string
	Min     int
	Max     int
	// Enum lists the legal values of a leaf, empty when unrestricted.
	Enum []string
	Kind SlotKind
	// Type is the element type: the leaf type, or the nested block's struct.
	Type  reflect.Type
	Block *Descriptor

	index []int
	named bool // *Type implements ValueNamer
}

// Exactly reports whether the slot must occur exactly once.
func (s *Slot) Exactly() bool { return s.Min == 1 && s.Max == 1 }

// Repeatable reports whether the slot may occur more than once.
func (s *Slot) Repeatable() bool { return s.Max > 1 }

// ValueNames returns the symbolic names accepted by a named-value leaf.
func (s *Slot) ValueNames() []string {
	if !s.named {
		return nil
	}
	return reflect.New(s.Type).Interface().(ValueNamer).ValueNames()
}

func (s *Slot) allows(v reflect.Value) bool {
	if len(s.Enum) == 0 {
		return true
	}
	return slices.Contains(s.Enum, fmt.Sprint(v.Interface()))
}

// Descriptor is the reflected shape of a block type. Descriptors are built
// once per type, cached, and never modified afterwards.
type Descriptor struct {
	Type  reflect.Type
	Slots []*Slot

	byName map[string]*Slot
}

// Lookup finds a slot by name or alias.
func (d *Descriptor) Lookup(name string) *Slot { return d.byName[name] }

// Names returns the primary slot names in declaration order.
func (d *Descriptor) Names() []string {
	out := make([]string, 0, len(d.Slots))
	for _, s := range d.Slots {
		out = append(out, s.Name)
	}
	return out
}

var (
	slotFieldType  = reflect.TypeFor[slotField]()
	valueNamerType = reflect.TypeFor[ValueNamer]()
	deprecatedType = reflect.TypeFor[Deprecated]()

	descMu    sync.Mutex
	descCache sync.Map // reflect.Type -> *Descriptor
)

// Describe returns the Descriptor of the block pointed to by block.
func Describe(block any) (*Descriptor, error) {
	t := reflect.TypeOf(block)
	if t == nil {
		return nil, ErrNotBlock
	}
	return DescriptorOf(t)
}

// DescriptorOf returns the Descriptor for a struct type or a pointer to one.
func DescriptorOf(t reflect.Type) (*Descriptor, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := descCache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	descMu.Lock()
	defer descMu.Unlock()
	if d, ok := descCache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	building := map[reflect.Type]*Descriptor{}
	d, err := buildDescriptor(t, building)
	if err != nil {
		return nil, err
	}
	for bt, bd := range building {
		descCache.Store(bt, bd)
	}
	return d, nil
}

// IsBlockType reports whether t is a struct with at least one slot field.
func IsBlockType(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if isSlotType(sf.Type) {
			return true
		}
		if sf.Anonymous && IsBlockType(sf.Type) {
			return true
		}
	}
	return false
}

func isSlotType(t reflect.Type) bool {
	return t == deprecatedType || reflect.PointerTo(t).Implements(slotFieldType)
}

func buildDescriptor(t reflect.Type, building map[reflect.Type]*Descriptor) (*Descriptor, error) {
	if d, ok := building[t]; ok {
		return d, nil
	}
	if d, ok := descCache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	if !IsBlockType(t) {
		return nil, fmt.Errorf("%w: %v", ErrNotBlock, t)
	}
	d := &Descriptor{Type: t, byName: map[string]*Slot{}}
	building[t] = d
	if err := collectSlots(d, t, nil, building); err != nil {
		delete(building, t)
		return nil, err
	}
	return d, nil
}

func collectSlots(d *Descriptor, t reflect.Type, prefix []int, building map[reflect.Type]*Descriptor) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		index := append(slices.Clone(prefix), i)
		if !isSlotType(sf.Type) {
			// embedded blocks contribute their slots
			if sf.Anonymous && IsBlockType(sf.Type) {
				if err := collectSlots(d, sf.Type, index, building); err != nil {
					return err
				}
			}
			continue
		}
		name := ResolveSlotName(sf)
		if name == "-" {
			continue
		}
		s, err := newSlot(sf, name, index, building)
		if err != nil {
			return fmt.Errorf("%v.%s: %w", t, sf.Name, err)
		}
		for _, n := range append([]string{s.Name}, s.Aliases...) {
			if _, dup := d.byName[n]; dup {
				return fmt.Errorf("%v: duplicate slot name %q", t, n)
			}
			d.byName[n] = s
		}
		d.Slots = append(d.Slots, s)
	}
	return nil
}

func newSlot(sf reflect.StructField, name string, index []int, building map[reflect.Type]*Descriptor) (*Slot, error) {
	s := &Slot{
		Name:    name,
		Aliases: tagList(sf.Tag.Get("alias")),
		Enum:    tagList(sf.Tag.Get("enum")),
		index:   index,
	}
	if sf.Type == deprecatedType {
		s.Kind = KindDeprecated
		s.Max = Unbounded
		return s, nil
	}
	f := reflect.New(sf.Type).Interface().(slotField)
	s.Min, s.Max = f.cardinality()
	if s.Max > 1 {
		lo, hi, err := parseCount(sf.Tag.Get("count"))
		if err != nil {
			return nil, err
		}
		s.Min, s.Max = lo, hi
	}
	s.Type = f.elemType()
	if IsBlockType(s.Type) {
		bd, err := buildDescriptor(s.Type, building)
		if err != nil {
			return nil, err
		}
		s.Kind = KindBlock
		s.Block = bd
		return s, nil
	}
	s.named = reflect.PointerTo(s.Type).Implements(valueNamerType)
	return s, nil
}

// field returns the slot wrapper of s inside block value v.
func (s *Slot) field(v reflect.Value) slotField {
	return v.FieldByIndex(s.index).Addr().Interface().(slotField)
}
