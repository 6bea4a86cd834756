package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/reoring/paramblock"
)

// ElementHook is called by StreamParser at every start tag. A non-nil block
// becomes the target of the element and its subtree.
type ElementHook func(p *StreamParser, name string) any

type outFrame struct {
	blk   paramblock.Block
	count int
	base  int // name stack depth when the block was pushed
}

// StreamParser reads markup one tag at a time without building a Document.
//
// It keeps a stack of output blocks, each with the number of elements open
// inside it. The element that opens a block is that block's root and adds
// nothing to the name stack. Use one StreamParser per input.
type StreamParser struct {
	paramblock.Base

	hook ElementHook

	outputs     []outFrame
	stack       paramblock.NameStack
	scopes      []string
	tokenCounts []int
	empty       []bool
	foreign     int
	closed      bool
	text        strings.Builder

	cur  string
	flag bool
}

// NewStreamParser returns a StreamParser. hook may be nil.
func NewStreamParser(hook ElementHook, opts ...paramblock.ParseOpt) *StreamParser {
	return &StreamParser{Base: paramblock.NewBase(streamRegistry(), opts...), hook: hook}
}

// Read parses r into block. Syntax errors stop the read and are returned
// wrapped; values read before the error stay in the blocks.
func (p *StreamParser) Read(r io.Reader, block any) error {
	if err := p.Reset(block); err != nil {
		return err
	}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			if iss := p.Issues(); len(iss) > 0 {
				return fmt.Errorf("markup: stream line %d: %w (%w)", line, err, iss)
			}
			return fmt.Errorf("markup: stream line %d: %w", line, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if p.closed || len(p.outputs) == 0 {
				return fmt.Errorf("markup: stream: element <%s> after the root element", t.Name.Local)
			}
			attrs := make([]Attr, 0, len(t.Attr))
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				attrs = append(attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			p.StartElement(t.Name.Local, attrs)
		case xml.EndElement:
			p.EndElement(t.Name.Local)
		case xml.CharData:
			p.CharData(string(t))
		}
	}
	return p.Err()
}

// Reset prepares the parser for a new input whose root element fills block.
func (p *StreamParser) Reset(block any) error {
	blk, err := paramblock.BlockOf(block)
	if err != nil {
		return err
	}
	p.Begin()
	p.outputs = []outFrame{{blk: blk}}
	p.stack = nil
	p.scopes = nil
	p.tokenCounts = nil
	p.empty = nil
	p.foreign = 0
	p.closed = false
	p.text.Reset()
	return nil
}

// Depth returns the number of open elements.
func (p *StreamParser) Depth() int { return len(p.scopes) + p.foreign }

// StartElement handles an open tag.
func (p *StreamParser) StartElement(name string, attrs []Attr) {
	p.processText()
	if p.foreign > 0 {
		p.foreign++
		return
	}
	if p.closed || len(p.outputs) == 0 {
		panic(fmt.Sprintf("markup: <%s> after the root element", name))
	}
	if p.hook != nil {
		if b := p.hook(p, name); b != nil {
			blk, err := paramblock.BlockOf(b)
			if err != nil {
				panic(fmt.Sprintf("markup: element hook for <%s>: %v", name, err))
			}
			p.outputs = append(p.outputs, outFrame{blk: blk, base: len(p.stack)})
		}
	}
	top := &p.outputs[len(p.outputs)-1]
	top.count++

	pushed := 0
	scope := name
	if top.count > 1 {
		tokens, ok := paramblock.Decompose(name, p.scope())
		if !ok {
			p.Debug("skipping foreign element", "element", name, "scope", p.scope())
			top.count--
			p.foreign = 1
			return
		}
		p.stack = p.stack.WithNames(p.NextGeneration(), tokens...)
		pushed = len(tokens)
		if pushed > 0 {
			scope = p.stack.Top()
		} else {
			scope = p.scope()
		}
	}
	p.scopes = append(p.scopes, scope)
	if n := len(p.empty); n > 0 {
		p.empty[n-1] = false
	}
	p.empty = append(p.empty, len(attrs) == 0)
	p.tokenCounts = append(p.tokenCounts, pushed)

	silent := top.count > 1
	for _, a := range attrs {
		tokens := paramblock.SplitName(a.Name)
		if len(tokens) == 0 {
			continue
		}
		p.setValue(a.Value)
		p.submit(p.stack.WithNames(p.NextGeneration(), tokens...), silent)
	}
}

// EndElement handles a close tag. It panics when no element is open.
func (p *StreamParser) EndElement(name string) {
	hadText := p.processText()
	if p.foreign > 0 {
		p.foreign--
		return
	}
	n := len(p.scopes)
	if n == 0 || len(p.outputs) == 0 {
		panic(fmt.Sprintf("markup: </%s> with no open element", name))
	}
	top := &p.outputs[len(p.outputs)-1]
	if !hadText && p.empty[n-1] {
		p.setFlag()
		p.submit(p.stack, top.count > 1)
	}
	top.count--
	if top.count == 0 {
		p.outputs = p.outputs[:len(p.outputs)-1]
	}
	p.stack = p.stack[:len(p.stack)-p.tokenCounts[n-1]]
	p.tokenCounts = p.tokenCounts[:n-1]
	p.scopes = p.scopes[:n-1]
	p.empty = p.empty[:n-1]
	if n == 1 {
		p.closed = true
	}
}

// CharData accumulates text until the next tag.
func (p *StreamParser) CharData(s string) { p.text.WriteString(s) }

// processText submits pending text and reports whether there was any.
func (p *StreamParser) processText() bool {
	if p.text.Len() == 0 {
		return false
	}
	s := strings.TrimSpace(p.text.String())
	p.text.Reset()
	if s == "" {
		return false
	}
	if p.foreign > 0 || len(p.outputs) == 0 || len(p.scopes) == 0 {
		return true
	}
	p.empty[len(p.empty)-1] = false
	top := p.outputs[len(p.outputs)-1]
	p.setValue(s)
	valueStack := p.stack[top.base:].With(paramblock.Entry{Name: ValueName, Generation: p.NextGeneration()})
	out := top.blk.Submit(valueStack, p)
	if out.OK() {
		return true
	}
	rel := p.stack[top.base:]
	fb := paramblock.NotMember
	if len(rel) > 0 {
		fb = top.blk.Submit(rel, p)
	}
	switch {
	case fb.OK():
	case out == paramblock.NotMember:
		if len(rel) > 0 {
			p.Note(top.blk, rel, fb, top.count > 1)
		}
	default:
		p.Note(top.blk, valueStack, out, false)
	}
	return true
}

// submit sends the value at stack, made relative to the current output
// block, to that block.
func (p *StreamParser) submit(stack paramblock.NameStack, silent bool) bool {
	top := p.outputs[len(p.outputs)-1]
	rel := stack[top.base:]
	if len(rel) == 0 {
		return false
	}
	return top.blk.SubmitValue(rel, p, silent)
}

func (p *StreamParser) scope() string {
	if len(p.scopes) == 0 {
		return ""
	}
	return p.scopes[len(p.scopes)-1]
}

func (p *StreamParser) setValue(s string) { p.cur, p.flag = s, false }
func (p *StreamParser) setFlag()          { p.cur, p.flag = "", true }

// current implements cursor.
func (p *StreamParser) current() (string, bool) { return p.cur, p.flag }
