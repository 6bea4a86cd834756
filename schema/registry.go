package schema

import "slices"

// ElementRegistry maps element names to the blocks they parse into and to
// the child elements each may contain.
type ElementRegistry interface {
	// Block returns a pointer to a zero block for name.
	Block(name string) (any, bool)
	// Children lists the element names allowed inside name.
	Children(name string) []string
}

// MapRegistry is an ElementRegistry built by Register calls.
type MapRegistry struct {
	names    []string
	blocks   map[string]func() any
	children map[string][]string
}

// NewMapRegistry returns an empty MapRegistry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{blocks: map[string]func() any{}, children: map[string][]string{}}
}

// Register binds name to the block type returned by newBlock and sets its
// legal children. Registering a name again replaces it.
func (r *MapRegistry) Register(name string, newBlock func() any, children ...string) *MapRegistry {
	if _, ok := r.blocks[name]; !ok {
		r.names = append(r.names, name)
	}
	r.blocks[name] = newBlock
	r.children[name] = slices.Clone(children)
	return r
}

// Block implements ElementRegistry.
func (r *MapRegistry) Block(name string) (any, bool) {
	fn, ok := r.blocks[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// Children implements ElementRegistry.
func (r *MapRegistry) Children(name string) []string { return r.children[name] }

// Names returns the registered names in registration order.
func (r *MapRegistry) Names() []string { return slices.Clone(r.names) }
