// Package schema describes block types as XML Schema, RELAX NG and JSON
// Schema documents.
//
// The writers are parsers in the paramblock sense: each embeds
// paramblock.Base with a registry of inspect functions and is driven by
// paramblock.InspectDescriptor, which reports every leaf and nested block
// slot together with its cardinality. Schema generation never fails; blocks
// that cannot be described are logged and produce an empty type.
package schema

import (
	"strconv"
	"strings"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/markup"
)

// XMLSchemaNamespace is the namespace bound to the xs prefix.
const XMLSchemaNamespace = "http://www.w3.org/2001/XMLSchema"

// XSDWriter writes an XML Schema for the markup form of a block type.
//
// Leaves become attributes on the type's complexType. A dotted leaf such as
// rect.left is declared twice: flattened on the type, and as left on the
// nested rect element, since the markup reader accepts both spellings.
// Repeatable leaves and flags become elements. Use one XSDWriter per
// goroutine.
type XSDWriter struct {
	paramblock.Base

	doc      *markup.Document
	typ      markup.NodeID
	choice   markup.NodeID
	declared map[markup.NodeID]map[string]markup.NodeID
}

// NewXSDWriter returns an XSDWriter using InspectRegistry.
func NewXSDWriter(opts ...paramblock.ParseOpt) *XSDWriter {
	return &XSDWriter{Base: paramblock.NewBase(inspectRegistry(), opts...)}
}

// Write returns an xs:schema declaring complexType typeName for block, a
// pointer to a block struct, and a root element of that type.
func (w *XSDWriter) Write(typeName string, block any, namespace string) *markup.Document {
	w.Begin()
	d := markup.NewDocument("xs:schema")
	w.doc = d
	w.declared = map[markup.NodeID]map[string]markup.NodeID{}

	root := d.Root()
	d.SetAttr(root, "attributeFormDefault", "unqualified")
	d.SetAttr(root, "elementFormDefault", "qualified")
	d.SetAttr(root, "targetNamespace", namespace)
	d.SetAttr(root, "xmlns:xs", XMLSchemaNamespace)
	d.SetAttr(root, "xmlns", namespace)

	w.typ = d.NewChild(root, "xs:complexType")
	d.SetAttr(w.typ, "name", typeName)
	d.SetAttr(w.typ, "mixed", "true")
	w.choice = d.NewChild(w.typ, "xs:choice")
	d.SetAttr(w.choice, "minOccurs", "0")
	d.SetAttr(w.choice, "maxOccurs", "unbounded")

	if desc, err := paramblock.Describe(block); err != nil {
		w.Logger().Warn("schema: cannot describe block", "type", typeName, "error", err)
	} else {
		paramblock.InspectDescriptor(desc, w)
	}

	// every child element may also be spelled typeName.child
	for _, el := range d.ChildrenNamed(w.choice, "xs:element") {
		cp := d.CopyTo(el, w.choice)
		name, _ := d.Attr(cp, "name")
		d.SetAttr(cp, "name", typeName+"."+name)
	}

	el := d.NewChild(root, "xs:element")
	d.SetAttr(el, "name", typeName)
	d.SetAttr(el, "type", typeName)
	return d
}

// WriteXUI is Write for the block registered as typeName in reg. It also
// includes the schema of every legal child, by the file name child.xsd, and
// admits those children in the element choice.
func (w *XSDWriter) WriteXUI(typeName string, reg ElementRegistry, namespace string) *markup.Document {
	block, ok := reg.Block(typeName)
	if !ok {
		w.Logger().Warn("schema: element not registered", "type", typeName)
	}
	d := w.Write(typeName, block, namespace)

	children := reg.Children(typeName)
	for i := len(children) - 1; i >= 0; i-- {
		if children[i] == typeName {
			continue
		}
		inc := d.NewChildFirst(d.Root(), "xs:include")
		d.SetAttr(inc, "schemaLocation", children[i]+".xsd")
	}
	for _, c := range children {
		el := d.NewChild(w.choice, "xs:element")
		d.SetAttr(el, "name", c)
		d.SetAttr(el, "type", c)
	}
	return d
}

// InspectBlock implements paramblock.BlockInspector.
func (w *XSDWriter) InspectBlock(stack paramblock.NameStack, min, max int) {
	w.nestedType(stack.Path(), min, max)
}

func (w *XSDWriter) leaf(tag typeTag, stack paramblock.NameStack, min, max int, values []string) {
	names := stack.Names()
	last := names[len(names)-1]
	prefix := strings.Join(names[:len(names)-1], ".")

	if isFlag(tag) || max > 1 {
		if prefix == "" {
			w.element(w.choice, last, tag.xsd, min, max)
			return
		}
		w.element(w.innerChoice(w.nestedType(prefix, min, max)), last, tag.xsd, min, max)
		return
	}

	// nested attributes have two spellings, so only top-level ones can be
	// required
	mandatory := min == 1 && max == 1 && prefix == ""
	w.attribute(w.typ, stack.Path(), tag.xsd, mandatory, values)
	if prefix != "" {
		w.attribute(w.nestedType(prefix, min, max), last, tag.xsd, false, values)
	}
}

// nestedType returns the complexType of the element named name in the
// top-level choice, creating the element when missing.
func (w *XSDWriter) nestedType(name string, min, max int) markup.NodeID {
	d := w.doc
	for el := d.LastChild(w.choice); el != markup.NoNode; el = d.PrevSibling(el) {
		if n, _ := d.Attr(el, "name"); n == name {
			if t := d.FindChild(el, "xs:complexType", "", ""); t != markup.NoNode {
				return t
			}
			return d.NewChild(el, "xs:complexType")
		}
	}
	el := d.NewChild(w.choice, "xs:element")
	d.SetAttr(el, "name", name)
	d.SetAttr(el, "minOccurs", strconv.Itoa(min))
	d.SetAttr(el, "maxOccurs", occurs(max))
	return d.NewChild(el, "xs:complexType")
}

// innerChoice returns the element choice of a nested complexType. It is
// kept first, ahead of the attribute declarations.
func (w *XSDWriter) innerChoice(typ markup.NodeID) markup.NodeID {
	if c := w.doc.FindChild(typ, "xs:choice", "", ""); c != markup.NoNode {
		return c
	}
	c := w.doc.NewChildFirst(typ, "xs:choice")
	w.doc.SetAttr(c, "minOccurs", "0")
	w.doc.SetAttr(c, "maxOccurs", "unbounded")
	return c
}

// element declares a child element. An empty typ declares an element with
// no content.
func (w *XSDWriter) element(parent markup.NodeID, name, typ string, min, max int) {
	d := w.doc
	if d.FindChild(parent, "xs:element", "name", name) != markup.NoNode {
		w.Debug("element already declared", "name", name)
		return
	}
	el := d.NewChild(parent, "xs:element")
	d.SetAttr(el, "name", name)
	if typ != "" {
		d.SetAttr(el, "type", typ)
	} else {
		d.NewChild(el, "xs:complexType")
	}
	d.SetAttr(el, "minOccurs", strconv.Itoa(min))
	d.SetAttr(el, "maxOccurs", occurs(max))
}

func (w *XSDWriter) attribute(typ markup.NodeID, name, xsdType string, mandatory bool, values []string) {
	d := w.doc
	decl := w.declared[typ]
	if decl == nil {
		decl = map[string]markup.NodeID{}
		w.declared[typ] = decl
	}
	if a, ok := decl[name]; ok {
		w.widen(a, xsdType, len(values) > 0)
		return
	}

	a := d.NewChild(typ, "xs:attribute")
	d.SetAttr(a, "name", name)
	if len(values) > 0 {
		st := d.NewChild(a, "xs:simpleType")
		r := d.NewChild(st, "xs:restriction")
		d.SetAttr(r, "base", "xs:string")
		for _, v := range values {
			e := d.NewChild(r, "xs:enumeration")
			d.SetAttr(e, "value", v)
		}
	} else {
		d.SetAttr(a, "type", xsdType)
	}
	if mandatory {
		d.SetAttr(a, "use", "required")
	} else {
		d.SetAttr(a, "use", "optional")
	}
	decl[name] = a
}

// widen resolves a second declaration of the same attribute. Any
// enumeration on either side, or two different types, yields xs:string.
func (w *XSDWriter) widen(a markup.NodeID, xsdType string, enum bool) {
	d := w.doc
	existing, typed := d.Attr(a, "type")
	if !enum && typed && existing == xsdType {
		return
	}
	name, _ := d.Attr(a, "name")
	w.Debug("widening attribute to xs:string", "name", name)
	d.SetAttr(a, "type", "xs:string")
	for _, st := range d.ChildrenNamed(a, "xs:simpleType") {
		d.Unlink(st)
	}
}

func occurs(max int) string {
	if max >= paramblock.Unbounded {
		return "unbounded"
	}
	return strconv.Itoa(max)
}
