package markup

import (
	"strconv"
	"strings"

	"github.com/reoring/paramblock"
)

const (
	// MaxAttributeLength is the longest string written as an attribute;
	// longer strings become child elements.
	MaxAttributeLength = 40
	// ValueName is the implicit leaf name of element text content.
	ValueName = "value"
)

// Parser maps an element tree onto a block and back.
//
// Reading applies, per element, every attribute in document order, then the
// text content, then each child element in order. The last submission to a
// leaf wins, so a nested element overrides a flattened attribute for the
// same leaf.
type Parser struct {
	paramblock.Base

	doc *Document
	blk paramblock.Block

	// read state
	rootName string
	depth    int
	cur      string
	flag     bool

	// write state
	writeRoot NodeID
	targets   map[string]target
	repeats   map[attrKey]attrState
}

// NewParser returns a Parser using the default markup Registry.
func NewParser(opts ...paramblock.ParseOpt) *Parser {
	return &Parser{Base: paramblock.NewBase(defaultRegistry(), opts...)}
}

// Read fills block from node and its subtree. Children that supplied at least
// one value are unlinked from doc; the rest are left for the caller, which
// usually builds them as nested widgets.
//
// The returned error is nil or paramblock.Issues describing skipped values.
func (p *Parser) Read(doc *Document, node NodeID, block any) error {
	blk, err := paramblock.BlockOf(block)
	if err != nil {
		return err
	}
	p.Begin()
	p.doc, p.blk = doc, blk
	p.rootName = doc.Name(node)
	p.depth = 0
	p.readNode(node, nil)
	return p.Err()
}

func (p *Parser) readNode(n NodeID, stack paramblock.NameStack) bool {
	d := p.doc
	silent := p.depth > 0
	if d.IsEmpty(n) {
		p.setFlag()
		return p.submit(stack, silent)
	}

	consumed := p.readAttributes(n, stack, silent)

	if text := strings.TrimSpace(d.Text(n)); text != "" {
		p.setValue(text)
		valueStack := stack.With(paramblock.Entry{Name: ValueName, Generation: p.NextGeneration()})
		out := p.blk.Submit(valueStack, p)
		if !out.OK() {
			// Any failure falls back to the element itself. A rejected value
			// is reported against value when the fallback fails too.
			fb := paramblock.NotMember
			if len(stack) > 0 {
				fb = p.blk.Submit(stack, p)
			}
			switch {
			case fb.OK():
				out = fb
			case out == paramblock.NotMember:
				if len(stack) > 0 {
					p.Note(p.blk, stack, fb, silent)
				}
			default:
				p.Note(p.blk, valueStack, out, silent)
			}
		}
		if out.OK() {
			consumed = true
		}
	}

	scope := stack.Top()
	if len(stack) == 0 {
		scope = p.rootName
	}
	p.depth++
	for c := d.FirstChild(n); c != NoNode; {
		next := d.NextSibling(c)
		tokens, ok := paramblock.Decompose(d.Name(c), scope)
		if !ok {
			p.Debug("skipping foreign element", "element", d.Name(c), "scope", scope, "line", d.Line(c))
			c = next
			continue
		}
		if p.readNode(c, stack.WithNames(p.NextGeneration(), tokens...)) {
			d.Unlink(c)
			consumed = true
		}
		c = next
	}
	p.depth--
	return consumed
}

func (p *Parser) readAttributes(n NodeID, stack paramblock.NameStack, silent bool) bool {
	consumed := false
	for _, a := range p.doc.Attrs(n) {
		if a.Name == "xmlns" || strings.HasPrefix(a.Name, "xmlns:") {
			continue
		}
		tokens := paramblock.SplitName(a.Name)
		if len(tokens) == 0 {
			continue
		}
		p.setValue(a.Value)
		if p.submit(stack.WithNames(p.NextGeneration(), tokens...), silent) {
			consumed = true
		}
	}
	return consumed
}

func (p *Parser) submit(stack paramblock.NameStack, silent bool) bool {
	if len(stack) == 0 {
		return false
	}
	return p.blk.SubmitValue(stack, p, silent)
}

func (p *Parser) setValue(s string) { p.cur, p.flag = s, false }
func (p *Parser) setFlag()          { p.cur, p.flag = "", true }

// current implements cursor.
func (p *Parser) current() (string, bool) { return p.cur, p.flag }

// target is where one leaf is written: an attribute of node, or the node
// itself when attr is empty.
type target struct {
	node NodeID
	attr string
}

type attrKey struct {
	node NodeID
	name string
}

type attrState int

const (
	asAttribute attrState = iota + 1
	asElements
)

// Write serializes block under node. When diff is non-nil, values equal to
// its provided values are skipped.
func (p *Parser) Write(doc *Document, node NodeID, block, diff any) error {
	blk, err := paramblock.BlockOf(block)
	if err != nil {
		return err
	}
	p.Begin()
	p.doc, p.blk = doc, blk
	p.writeRoot = node
	p.targets = map[string]target{}
	p.repeats = map[attrKey]attrState{}
	blk.Serialize(p, nil, diff)
	return p.Err()
}

func prefixKey(stack paramblock.NameStack) string {
	b := &strings.Builder{}
	for _, e := range stack {
		b.WriteString(e.Name)
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(e.Generation))
		b.WriteByte('/')
	}
	return b.String()
}

// targetFor returns the location of the leaf at stack, creating one element
// per distinct (name, generation) prefix. The last entry becomes an
// attribute unless asElement is set.
func (p *Parser) targetFor(stack paramblock.NameStack, asElement bool) target {
	cur := p.writeRoot
	for i, e := range stack {
		if e.Name == "" {
			continue
		}
		key := prefixKey(stack[:i+1])
		last := i == len(stack)-1
		if t, ok := p.targets[key]; ok && (last || t.attr == "") {
			if last {
				return t
			}
			cur = t.node
			continue
		}
		if last && !asElement {
			t := target{node: cur, attr: e.Name}
			p.targets[key] = t
			return t
		}
		child := p.doc.NewChild(cur, e.Name)
		p.targets[key] = target{node: child}
		cur = child
	}
	return target{node: cur}
}

// WriteString stores s for the leaf at stack. Custom write functions call
// it after formatting their value.
func (p *Parser) WriteString(stack paramblock.NameStack, s string) bool {
	if len(stack) == 0 {
		return false
	}
	t := p.targetFor(stack, false)
	if t.attr == "" {
		p.doc.SetText(t.node, s)
		return true
	}
	k := attrKey{node: t.node, name: t.attr}
	switch p.repeats[k] {
	case asAttribute:
		// a repeated leaf cannot stay an attribute; move the earlier one out
		// first so input order is kept
		old, _ := p.doc.Attr(t.node, t.attr)
		p.doc.RemoveAttr(t.node, t.attr)
		p.textChild(t.node, t.attr, old)
		p.textChild(t.node, t.attr, s)
		p.repeats[k] = asElements
	case asElements:
		p.textChild(t.node, t.attr, s)
	default:
		if strings.Contains(s, "\n") || len(s) > MaxAttributeLength {
			if t.attr == ValueName {
				p.doc.SetText(t.node, s)
			} else {
				p.textChild(t.node, t.attr, s)
			}
			p.repeats[k] = asElements
			return true
		}
		p.doc.SetAttr(t.node, t.attr, s)
		p.repeats[k] = asAttribute
	}
	return true
}

// WriteFlag creates an empty element for the flag at stack.
func (p *Parser) WriteFlag(stack paramblock.NameStack) bool {
	if len(stack) == 0 {
		return false
	}
	p.targetFor(stack, true)
	return true
}

func (p *Parser) textChild(parent NodeID, name, s string) {
	c := p.doc.NewChild(parent, name)
	p.doc.SetText(c, s)
}
