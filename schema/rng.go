package schema

import (
	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/markup"
)

const (
	// RelaxNGNamespace is the namespace of RELAX NG grammar elements.
	RelaxNGNamespace = "http://relaxng.org/ns/structure/1.0"
	// XSDDatatypes is the datatype library data patterns refer to.
	XSDDatatypes = "http://www.w3.org/2001/XMLSchema-datatypes"
)

// RNGWriter writes a RELAX NG grammar for a family of elements described
// by an ElementRegistry. Every element gets one define; children are
// referenced by name, so cyclic registries terminate. Use one RNGWriter per
// goroutine.
type RNGWriter struct {
	paramblock.Base

	doc     *markup.Document
	reg     ElementRegistry
	defined map[string]bool
	attrs   map[markup.NodeID]map[string]*rngAttr

	// state of the define being written
	content markup.NodeID
	nested  map[string]markup.NodeID
}

type rngAttr struct {
	node markup.NodeID
	sig  string
}

// NewRNGWriter returns an RNGWriter using InspectRegistry.
func NewRNGWriter(opts ...paramblock.ParseOpt) *RNGWriter {
	return &RNGWriter{Base: paramblock.NewBase(inspectRegistry(), opts...)}
}

// Write returns a grammar whose start pattern is rootElement. Every element
// reachable through reg.Children is defined once.
func (w *RNGWriter) Write(rootElement string, reg ElementRegistry, namespace string) *markup.Document {
	w.Begin()
	d := markup.NewDocument("grammar")
	w.doc, w.reg = d, reg
	w.defined = map[string]bool{}
	w.attrs = map[markup.NodeID]map[string]*rngAttr{}

	root := d.Root()
	d.SetAttr(root, "xmlns", RelaxNGNamespace)
	d.SetAttr(root, "datatypeLibrary", XSDDatatypes)
	d.SetAttr(root, "ns", namespace)
	start := d.NewChild(root, "start")
	d.SetAttr(d.NewChild(start, "ref"), "name", rootElement)

	w.define(rootElement)
	return d
}

func (w *RNGWriter) define(name string) {
	if w.defined[name] {
		return
	}
	w.defined[name] = true

	d := w.doc
	def := d.NewChild(d.Root(), "define")
	d.SetAttr(def, "name", name)
	el := d.NewChild(def, "element")
	d.SetAttr(el, "name", name)
	content := newContent(d, el)

	if block, ok := w.reg.Block(name); !ok {
		w.Logger().Warn("schema: element not registered", "element", name)
	} else if desc, err := paramblock.Describe(block); err != nil {
		w.Logger().Warn("schema: cannot describe block", "element", name, "error", err)
	} else {
		w.content = content
		w.nested = map[string]markup.NodeID{}
		paramblock.InspectDescriptor(desc, w)
	}

	children := w.reg.Children(name)
	if len(children) == 0 {
		return
	}
	choice := d.NewChild(d.NewChild(content, "zeroOrMore"), "choice")
	for _, c := range children {
		d.SetAttr(d.NewChild(choice, "ref"), "name", c)
	}
	for _, c := range children {
		w.define(c)
	}
}

// newContent adds the interleave holding the attributes, text and child
// patterns of el.
func newContent(d *markup.Document, el markup.NodeID) markup.NodeID {
	c := d.NewChild(el, "interleave")
	d.NewChild(c, "text")
	return c
}

// InspectBlock implements paramblock.BlockInspector.
func (w *RNGWriter) InspectBlock(stack paramblock.NameStack, min, max int) {
	el := w.doc.NewChild(w.repeat(w.container(stack[:len(stack)-1]), min, max), "element")
	w.doc.SetAttr(el, "name", stack.Top())
	w.nested[stack.Path()] = newContent(w.doc, el)
}

func (w *RNGWriter) leaf(tag typeTag, stack paramblock.NameStack, min, max int, values []string) {
	parent := w.container(stack[:len(stack)-1])
	if isFlag(tag) || max > 1 {
		el := w.doc.NewChild(w.repeat(parent, min, max), "element")
		w.doc.SetAttr(el, "name", stack.Top())
		if isFlag(tag) {
			w.doc.NewChild(el, "empty")
		} else {
			w.value(el, tag, values)
		}
		return
	}
	mandatory := min == 1 && max == 1 && len(stack) == 1
	w.attribute(w.content, stack.Path(), tag, mandatory, values)
	if len(stack) > 1 {
		w.attribute(parent, stack.Top(), tag, false, values)
	}
}

// container returns the content pattern of the nested element at prefix.
func (w *RNGWriter) container(prefix paramblock.NameStack) markup.NodeID {
	if len(prefix) == 0 {
		return w.content
	}
	if c, ok := w.nested[prefix.Path()]; ok {
		return c
	}
	return w.content
}

// repeat wraps a pattern added under parent according to its cardinality.
func (w *RNGWriter) repeat(parent markup.NodeID, min, max int) markup.NodeID {
	switch {
	case max > 1 && min > 0:
		return w.doc.NewChild(parent, "oneOrMore")
	case max > 1:
		return w.doc.NewChild(parent, "zeroOrMore")
	case min == 0:
		return w.doc.NewChild(parent, "optional")
	}
	return parent
}

func (w *RNGWriter) value(parent markup.NodeID, tag typeTag, values []string) {
	d := w.doc
	if len(values) > 0 {
		choice := d.NewChild(parent, "choice")
		for _, v := range values {
			d.SetText(d.NewChild(choice, "value"), v)
		}
		return
	}
	d.SetAttr(d.NewChild(parent, "data"), "type", tag.rng)
}

func (w *RNGWriter) attribute(parent markup.NodeID, name string, tag typeTag, mandatory bool, values []string) {
	sig := tag.rng
	if len(values) > 0 {
		sig = "enum"
	}
	decl := w.attrs[parent]
	if decl == nil {
		decl = map[string]*rngAttr{}
		w.attrs[parent] = decl
	}
	if a, ok := decl[name]; ok {
		if sig == a.sig && sig != "enum" {
			return
		}
		w.Debug("widening attribute to string", "name", name)
		for _, c := range w.doc.Children(a.node) {
			w.doc.Unlink(c)
		}
		w.doc.SetAttr(w.doc.NewChild(a.node, "data"), "type", "string")
		a.sig = "string"
		return
	}

	at := parent
	if !mandatory {
		at = w.doc.NewChild(parent, "optional")
	}
	a := w.doc.NewChild(at, "attribute")
	w.doc.SetAttr(a, "name", name)
	w.value(a, tag, values)
	decl[name] = &rngAttr{node: a, sig: sig}
}
