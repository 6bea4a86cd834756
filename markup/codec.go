package markup

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Header is written before the root element by Encode.
const Header = `<?xml version="1.0" encoding="utf-8" standalone="yes" ?>`

// Decode reads one XML document into a Document. Comments, processing
// instructions and directives are dropped; namespace prefixes are kept on
// names as written.
func Decode(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	d := &Document{root: NoNode}
	var open []NodeID
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("markup: decode: %w", err)
		}
		line, _ := dec.InputPos()
		switch t := tok.(type) {
		case xml.StartElement:
			var n NodeID
			switch {
			case len(open) > 0:
				n = d.NewChild(open[len(open)-1], qualified(t.Name))
			case d.root == NoNode:
				n = d.alloc(qualified(t.Name), NoNode)
				d.root = n
			default:
				return nil, fmt.Errorf("markup: decode: line %d: second root element <%s>", line, t.Name.Local)
			}
			d.nodes[n].line = line
			for _, a := range t.Attr {
				d.nodes[n].attrs = append(d.nodes[n].attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			open = append(open, n)
		case xml.EndElement:
			if len(open) == 0 {
				return nil, fmt.Errorf("markup: decode: line %d: unexpected </%s>", line, t.Name.Local)
			}
			top := open[len(open)-1]
			if d.nodes[top].name != qualified(t.Name) {
				return nil, fmt.Errorf("markup: decode: line %d: </%s> closes <%s>", line, qualified(t.Name), d.nodes[top].name)
			}
			open = open[:len(open)-1]
		case xml.CharData:
			if len(open) > 0 {
				d.nodes[open[len(open)-1]].text += string(t)
			}
		}
	}
	if d.root == NoNode {
		return nil, errors.New("markup: decode: no root element")
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("markup: decode: unclosed <%s>", d.nodes[open[len(open)-1]].name)
	}
	return d, nil
}

// DecodeString is Decode for an in-memory document.
func DecodeString(s string) (*Document, error) { return Decode(strings.NewReader(s)) }

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Encode writes doc as indented XML preceded by Header.
func Encode(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Header)
	bw.WriteByte('\n')
	doc.writeNode(bw, doc.root, 0)
	return bw.Flush()
}

// String renders doc without the header, for logs and tests.
func (d *Document) String() string {
	var b bytes.Buffer
	bw := bufio.NewWriter(&b)
	d.writeNode(bw, d.root, 0)
	bw.Flush()
	return b.String()
}

func (d *Document) writeNode(w *bufio.Writer, n NodeID, depth int) {
	nd := &d.nodes[n]
	indent := strings.Repeat("\t", depth)
	w.WriteString(indent)
	w.WriteByte('<')
	w.WriteString(nd.name)
	for _, a := range nd.attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		writeEscaped(w, a.Value, true)
		w.WriteByte('"')
	}
	text := nd.text
	if isBlank(text) {
		text = ""
	}
	switch {
	case nd.first == NoNode && text == "":
		w.WriteString(" />\n")
		return
	case nd.first == NoNode:
		w.WriteByte('>')
		writeEscaped(w, text, false)
	default:
		w.WriteString(">\n")
		if text != "" {
			w.WriteString(indent + "\t")
			writeEscaped(w, strings.TrimSpace(text), false)
			w.WriteByte('\n')
		}
		for c := nd.first; c != NoNode; c = d.nodes[c].next {
			d.writeNode(w, c, depth+1)
		}
		w.WriteString(indent)
	}
	w.WriteString("</")
	w.WriteString(nd.name)
	w.WriteString(">\n")
}

func writeEscaped(w *bufio.Writer, s string, attr bool) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '>':
			w.WriteString("&gt;")
		case '"':
			if attr {
				w.WriteString("&quot;")
			} else {
				w.WriteRune(r)
			}
		case '\n':
			if attr {
				w.WriteString("&#xA;")
			} else {
				w.WriteRune(r)
			}
		case '\t':
			if attr {
				w.WriteString("&#x9;")
			} else {
				w.WriteRune(r)
			}
		default:
			w.WriteRune(r)
		}
	}
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
