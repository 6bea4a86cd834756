package paramblock

import (
	"fmt"
	"reflect"
	"strings"
)

// Outcome is the result of submitting one value to a block.
type Outcome int

const (
	// Consumed means a slot accepted the value.
	Consumed Outcome = iota
	// NotMember means the name stack does not address any slot.
	NotMember
	// InvalidValue means the slot exists but the value did not convert.
	InvalidValue
	// InvalidEnum means the value converted but is not a legal value.
	InvalidEnum
)

// OK reports whether the value was consumed.
func (o Outcome) OK() bool { return o == Consumed }

func (o Outcome) String() string {
	switch o {
	case Consumed:
		return "consumed"
	case NotMember:
		return "not_member"
	case InvalidValue:
		return "invalid_value"
	case InvalidEnum:
		return "invalid_enum"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Block binds a block value to its Descriptor.
type Block struct {
	desc *Descriptor
	v    reflect.Value
}

// BlockOf binds ptr, which must be a non-nil pointer to a block struct.
func BlockOf(ptr any) (Block, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return Block{}, fmt.Errorf("%w: want non-nil pointer, got %T", ErrNotBlock, ptr)
	}
	d, err := DescriptorOf(rv.Type())
	if err != nil {
		return Block{}, err
	}
	return Block{desc: d, v: rv.Elem()}, nil
}

// MustBlockOf is BlockOf that panics on error.
func MustBlockOf(ptr any) Block {
	b, err := BlockOf(ptr)
	if err != nil {
		panic(err)
	}
	return b
}

// Descriptor returns the block's Descriptor.
func (b Block) Descriptor() *Descriptor { return b.desc }

// Valid reports whether b is bound.
func (b Block) Valid() bool { return b.desc != nil }

// Submit routes the parser's current value to the leaf addressed by stack.
func (b Block) Submit(stack NameStack, p Parser) Outcome {
	return submitBlock(b.desc, b.v, stack, p)
}

// SubmitValue is Submit followed by Note, returning whether the value was
// consumed.
func (b Block) SubmitValue(stack NameStack, p Parser, silent bool) bool {
	out := b.Submit(stack, p)
	p.base().Note(b, stack, out, silent)
	return out.OK()
}

func submitBlock(d *Descriptor, v reflect.Value, stack NameStack, p Parser) Outcome {
	if len(stack) == 0 {
		return NotMember
	}
	head := stack[0]
	s := d.Lookup(head.Name)
	if s == nil {
		return NotMember
	}
	bs := p.base()
	if s.Kind == KindDeprecated {
		bs.AddIssue(Issue{Path: stack.Path(), Code: CodeDeprecated, Offset: -1})
		return Consumed
	}
	f := s.field(v)
	o := occurrence{epoch: bs.epoch, gen: head.Generation}
	if s.Kind == KindBlock {
		elem, fresh := f.target(o)
		out := submitBlock(s.Block, elem, stack[1:], p)
		switch {
		case out == Consumed:
			f.markProvided(o)
		case fresh:
			f.rollback()
		}
		return out
	}
	if len(stack) != 1 {
		return NotMember
	}
	return readLeaf(s, f, o, p)
}

var stringType = reflect.TypeFor[string]()

func readLeaf(s *Slot, f slotField, o occurrence, p Parser) Outcome {
	reg := p.base().registry
	tmp := reflect.New(s.Type)
	ok := false
	if fn, found := reg.Lookup(s.Type); found && fn.Read != nil {
		ok = fn.Read(p, tmp.Interface())
	}
	name := ""
	if !ok && s.named {
		var str string
		if fn, found := reg.Lookup(stringType); found && fn.Read != nil && fn.Read(p, &str) {
			if tmp.Interface().(ValueNamer).SetFromName(str) {
				ok, name = true, str
			}
		}
	}
	if !ok {
		return InvalidValue
	}
	if !s.allows(tmp.Elem()) {
		return InvalidEnum
	}
	f.store(o, tmp.Elem(), name)
	return Consumed
}

// Serialize writes every provided value of b through p, under stack. When
// diff is non-nil it must point to a block of the same type; values equal to
// its provided values are skipped. It reports whether anything was written.
func (b Block) Serialize(p Parser, stack NameStack, diff any) bool {
	var dv reflect.Value
	if diff != nil {
		rv := reflect.ValueOf(diff)
		if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Type() == b.desc.Type {
			dv = rv.Elem()
		}
	}
	return serializeBlock(b.desc, b.v, dv, stack, p)
}

func serializeBlock(d *Descriptor, v, diff reflect.Value, stack NameStack, p Parser) bool {
	bs := p.base()
	wrote := false
	for _, s := range d.Slots {
		if s.Kind == KindDeprecated {
			continue
		}
		f := s.field(v)
		if !slotProvided(s, f) {
			continue
		}
		var diffElems []reflect.Value
		if diff.IsValid() {
			if df := s.field(diff); slotProvided(s, df) {
				diffElems = df.elems()
			}
		}
		for i, e := range f.elems() {
			var de reflect.Value
			if i < len(diffElems) {
				de = diffElems[i]
			}
			st := stack.With(Entry{Name: s.Name, Generation: bs.NextGeneration()})
			if s.Kind == KindBlock {
				if serializeBlock(s.Block, e, de, st, p) {
					wrote = true
				}
				continue
			}
			if de.IsValid() && reflect.DeepEqual(e.Interface(), de.Interface()) {
				continue
			}
			if writeLeaf(s, e, f.nameAt(i), st, p) {
				wrote = true
			}
		}
	}
	return wrote
}

func writeLeaf(s *Slot, v reflect.Value, name string, stack NameStack, p Parser) bool {
	reg := p.base().registry
	if name != "" {
		if fn, ok := reg.Lookup(stringType); ok && fn.Write != nil {
			return fn.Write(p, name, stack)
		}
	}
	fn, ok := reg.Lookup(s.Type)
	if !ok || fn.Write == nil {
		p.base().Debug("no writer for leaf type", "path", stack.Path(), "type", s.Type.String())
		return false
	}
	return fn.Write(p, v.Interface(), stack)
}

// BlockInspector is implemented by parsers that want to see nested block
// slots, not only leaves, during Inspect.
type BlockInspector interface {
	InspectBlock(stack NameStack, min, max int)
}

// Inspect reports every leaf reachable from the block type of b to p's
// inspect functions. Recursive block types are visited once per path.
func (b Block) Inspect(p Parser) {
	InspectDescriptor(b.desc, p)
}

// InspectDescriptor is Inspect for a Descriptor without a value.
func InspectDescriptor(d *Descriptor, p Parser) {
	inspectBlock(d, nil, p, map[*Descriptor]bool{})
}

func inspectBlock(d *Descriptor, stack NameStack, p Parser, onPath map[*Descriptor]bool) {
	if onPath[d] {
		return
	}
	onPath[d] = true
	defer delete(onPath, d)

	reg := p.base().registry
	for _, s := range d.Slots {
		if s.Kind == KindDeprecated {
			continue
		}
		st := stack.With(Entry{Name: s.Name})
		if s.Kind == KindBlock {
			if bi, ok := p.(BlockInspector); ok {
				bi.InspectBlock(st, s.Min, s.Max)
			}
			inspectBlock(s.Block, st, p, onPath)
			continue
		}
		if fn, ok := reg.Lookup(s.Type); ok && fn.Inspect != nil {
			fn.Inspect(p, st, s.Min, s.Max, s.Enum)
		}
		if names := s.ValueNames(); len(names) > 0 {
			if fn, ok := reg.Lookup(stringType); ok && fn.Inspect != nil {
				fn.Inspect(p, st, s.Min, s.Max, names)
			}
		}
	}
}

// Validate checks mandatory slots and repeat counts of b and of every
// provided nested block.
func (b Block) Validate() error {
	var iss Issues
	validateBlock(b.desc, b.v, nil, &iss)
	if len(iss) == 0 {
		return nil
	}
	return iss
}

func validateBlock(d *Descriptor, v reflect.Value, path []string, iss *Issues) {
	for _, s := range d.Slots {
		if s.Kind == KindDeprecated {
			continue
		}
		f := s.field(v)
		n := 0
		if slotProvided(s, f) {
			n = len(f.elems())
		}
		p := strings.Join(append(path, s.Name), ".")
		switch {
		case n < s.Min && s.Exactly():
			*iss = AppendIssues(*iss, Issue{Path: p, Code: CodeRequired, Offset: -1})
		case n < s.Min:
			*iss = AppendIssues(*iss, Issue{Path: p, Code: CodeTooSmall, Offset: -1,
				Params: map[string]any{"min": s.Min, "got": n}})
		case n > s.Max:
			*iss = AppendIssues(*iss, Issue{Path: p, Code: CodeTooBig, Offset: -1,
				Params: map[string]any{"max": s.Max, "got": n}})
		}
		if s.Kind == KindBlock && n > 0 {
			for i, e := range f.elems() {
				sub := append(append([]string(nil), path...), s.Name)
				if s.Repeatable() {
					sub[len(sub)-1] = fmt.Sprintf("%s[%d]", s.Name, i)
				}
				validateBlock(s.Block, e, sub, iss)
			}
		}
	}
}

// slotProvided reports whether f holds a value. A block slot that was never
// set itself still counts once any value below it is provided.
func slotProvided(s *Slot, f slotField) bool {
	if f.isProvided() {
		return true
	}
	if s.Kind != KindBlock {
		return false
	}
	for _, e := range f.elems() {
		if blockProvided(s.Block, e) {
			return true
		}
	}
	return false
}

func blockProvided(d *Descriptor, v reflect.Value) bool {
	for _, s := range d.Slots {
		if s.Kind != KindDeprecated && slotProvided(s, s.field(v)) {
			return true
		}
	}
	return false
}

// suggest returns a "did you mean" hint for an unknown name in stack.
func (b Block) suggest(stack NameStack) string {
	d := b.desc
	for _, e := range stack {
		s := d.Lookup(e.Name)
		if s == nil {
			if c := closestName(e.Name, d.Names()); c != "" {
				return "did you mean " + c + "?"
			}
			return ""
		}
		if s.Block == nil {
			return ""
		}
		d = s.Block
	}
	return ""
}

// legalValues lists the allowed values of the leaf at stack, if restricted.
func (b Block) legalValues(stack NameStack) string {
	d := b.desc
	for i, e := range stack {
		s := d.Lookup(e.Name)
		if s == nil {
			return ""
		}
		if i == len(stack)-1 {
			vals := append(append([]string(nil), s.Enum...), s.ValueNames()...)
			if len(vals) == 0 {
				return ""
			}
			return "one of " + strings.Join(vals, ", ")
		}
		if s.Block == nil {
			return ""
		}
		d = s.Block
	}
	return ""
}
