package markup

// NodeID addresses a node inside its Document.
type NodeID int32

// NoNode is the NodeID of a missing parent, child or sibling.
const NoNode NodeID = -1

// Attr is one attribute in document order.
type Attr struct {
	Name  string
	Value string
}

type node struct {
	name   string
	attrs  []Attr
	text   string
	line   int
	parent NodeID
	first  NodeID
	last   NodeID
	prev   NodeID
	next   NodeID
}

// Document is an element tree stored in one arena. Nodes refer to each other
// by index; unlinking a node detaches it without freeing its slot.
type Document struct {
	nodes []node
	root  NodeID
}

// NewDocument returns a Document holding a single root element.
func NewDocument(rootName string) *Document {
	d := &Document{}
	d.root = d.alloc(rootName, NoNode)
	return d
}

func (d *Document) alloc(name string, parent NodeID) NodeID {
	d.nodes = append(d.nodes, node{name: name, parent: parent, first: NoNode, last: NoNode, prev: NoNode, next: NoNode})
	return NodeID(len(d.nodes) - 1)
}

// Root returns the root element.
func (d *Document) Root() NodeID { return d.root }

// Name returns the element name of n.
func (d *Document) Name(n NodeID) string { return d.nodes[n].name }

// Line returns the 1-based source line of n, or 0 for built nodes.
func (d *Document) Line(n NodeID) int { return d.nodes[n].line }

// Text returns the text content of n.
func (d *Document) Text(n NodeID) string { return d.nodes[n].text }

// SetText replaces the text content of n.
func (d *Document) SetText(n NodeID, s string) { d.nodes[n].text = s }

// Attrs returns the attributes of n in document order.
func (d *Document) Attrs(n NodeID) []Attr { return d.nodes[n].attrs }

// Attr returns the value of the named attribute.
func (d *Document) Attr(n NodeID, name string) (string, bool) {
	for _, a := range d.nodes[n].attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, keeping its position when it already exists.
func (d *Document) SetAttr(n NodeID, name, value string) {
	nd := &d.nodes[n]
	for i := range nd.attrs {
		if nd.attrs[i].Name == name {
			nd.attrs[i].Value = value
			return
		}
	}
	nd.attrs = append(nd.attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes the named attribute and reports whether it existed.
func (d *Document) RemoveAttr(n NodeID, name string) bool {
	nd := &d.nodes[n]
	for i := range nd.attrs {
		if nd.attrs[i].Name == name {
			nd.attrs = append(nd.attrs[:i], nd.attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Parent returns the parent of n.
func (d *Document) Parent(n NodeID) NodeID { return d.nodes[n].parent }

// FirstChild returns the first child of n.
func (d *Document) FirstChild(n NodeID) NodeID { return d.nodes[n].first }

// LastChild returns the last child of n.
func (d *Document) LastChild(n NodeID) NodeID { return d.nodes[n].last }

// NextSibling returns the sibling after n.
func (d *Document) NextSibling(n NodeID) NodeID { return d.nodes[n].next }

// PrevSibling returns the sibling before n.
func (d *Document) PrevSibling(n NodeID) NodeID { return d.nodes[n].prev }

// Children returns the children of n in order.
func (d *Document) Children(n NodeID) []NodeID {
	var out []NodeID
	for c := d.nodes[n].first; c != NoNode; c = d.nodes[c].next {
		out = append(out, c)
	}
	return out
}

// ChildrenNamed returns the children of n with the given name.
func (d *Document) ChildrenNamed(n NodeID, name string) []NodeID {
	var out []NodeID
	for c := d.nodes[n].first; c != NoNode; c = d.nodes[c].next {
		if d.nodes[c].name == name {
			out = append(out, c)
		}
	}
	return out
}

// FindChild returns the first child of n named name whose attribute attr
// equals value; attr may be empty to match on name alone.
func (d *Document) FindChild(n NodeID, name, attr, value string) NodeID {
	for c := d.nodes[n].first; c != NoNode; c = d.nodes[c].next {
		if d.nodes[c].name != name {
			continue
		}
		if attr == "" {
			return c
		}
		if v, ok := d.Attr(c, attr); ok && v == value {
			return c
		}
	}
	return NoNode
}

// NewChild appends a new element named name under parent.
func (d *Document) NewChild(parent NodeID, name string) NodeID {
	c := d.alloc(name, parent)
	d.link(parent, c, d.nodes[parent].last)
	return c
}

// NewChildFirst inserts a new element named name as the first child of
// parent.
func (d *Document) NewChildFirst(parent NodeID, name string) NodeID {
	c := d.alloc(name, parent)
	d.link(parent, c, NoNode)
	return c
}

// link inserts c under parent after sibling (NoNode means at the front).
func (d *Document) link(parent, c, after NodeID) {
	nd := &d.nodes[c]
	nd.parent = parent
	nd.prev = after
	if after == NoNode {
		nd.next = d.nodes[parent].first
		d.nodes[parent].first = c
	} else {
		nd.next = d.nodes[after].next
		d.nodes[after].next = c
	}
	if nd.next == NoNode {
		d.nodes[parent].last = c
	} else {
		d.nodes[nd.next].prev = c
	}
}

// Unlink detaches n from its parent. The node and its subtree stay valid
// and can still be inspected.
func (d *Document) Unlink(n NodeID) {
	nd := &d.nodes[n]
	if nd.parent == NoNode {
		return
	}
	p := &d.nodes[nd.parent]
	if nd.prev == NoNode {
		p.first = nd.next
	} else {
		d.nodes[nd.prev].next = nd.next
	}
	if nd.next == NoNode {
		p.last = nd.prev
	} else {
		d.nodes[nd.next].prev = nd.prev
	}
	nd.parent, nd.prev, nd.next = NoNode, NoNode, NoNode
}

// IsEmpty reports whether n has no attributes, no children and only blank
// text.
func (d *Document) IsEmpty(n NodeID) bool {
	nd := &d.nodes[n]
	return len(nd.attrs) == 0 && nd.first == NoNode && isBlank(nd.text)
}

// CopyTo appends a deep copy of n, with its attributes, text and subtree,
// under parent and returns the copy.
func (d *Document) CopyTo(n, parent NodeID) NodeID {
	c := d.NewChild(parent, d.nodes[n].name)
	d.nodes[c].attrs = append([]Attr(nil), d.nodes[n].attrs...)
	d.nodes[c].text = d.nodes[n].text
	d.nodes[c].line = d.nodes[n].line
	for k := d.nodes[n].first; k != NoNode; k = d.nodes[k].next {
		d.CopyTo(k, c)
	}
	return c
}
