package markup

import (
	"strings"
	"testing"
)

func TestDecode_TreeAndLines(t *testing.T) {
	src := `<?xml version="1.0"?>
<!-- comment -->
<panel name="p" xmlns:ui="urn:ui">
	<button name="a &amp; b"/>
	<ui:label>hi</ui:label>
</panel>`
	d, err := DecodeString(src)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	root := d.Root()
	if d.Name(root) != "panel" || d.Line(root) != 3 {
		t.Fatalf("root = %q line %d", d.Name(root), d.Line(root))
	}
	kids := d.Children(root)
	if len(kids) != 2 {
		t.Fatalf("children = %d", len(kids))
	}
	if v, _ := d.Attr(kids[0], "name"); v != "a & b" {
		t.Fatalf("attr = %q", v)
	}
	if d.Name(kids[1]) != "ui:label" || d.Text(kids[1]) != "hi" {
		t.Fatalf("prefixed child = %q %q", d.Name(kids[1]), d.Text(kids[1]))
	}
	if d.Parent(kids[1]) != root || d.PrevSibling(kids[1]) != kids[0] {
		t.Fatalf("links broken")
	}
}

func TestDecode_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"second root": `<a/><b/>`,
		"no root":     `<!-- nothing -->`,
		"mismatch":    `<a><b></a></b>`,
		"unclosed":    `<a><b/>`,
	} {
		if _, err := DecodeString(src); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDocument_EditAndUnlink(t *testing.T) {
	d := NewDocument("root")
	r := d.Root()
	b := d.NewChild(r, "b")
	c := d.NewChild(r, "c")
	a := d.NewChildFirst(r, "a")
	if got := names(d, d.Children(r)); got != "a,b,c" {
		t.Fatalf("order = %s", got)
	}
	d.Unlink(b)
	if got := names(d, d.Children(r)); got != "a,c" {
		t.Fatalf("after unlink = %s", got)
	}
	if d.Parent(b) != NoNode || d.NextSibling(a) != c || d.PrevSibling(c) != a {
		t.Fatalf("sibling links not repaired")
	}
	d.Unlink(c)
	if d.LastChild(r) != a {
		t.Fatalf("last child not repaired")
	}

	d.SetAttr(a, "x", "1")
	d.SetAttr(a, "y", "2")
	d.SetAttr(a, "x", "3")
	if v, _ := d.Attr(a, "x"); v != "3" || d.Attrs(a)[0].Name != "x" {
		t.Fatalf("SetAttr should keep position")
	}
	if !d.RemoveAttr(a, "x") || d.RemoveAttr(a, "x") {
		t.Fatalf("RemoveAttr")
	}
	if d.IsEmpty(a) {
		t.Fatalf("a still has y")
	}
	d.RemoveAttr(a, "y")
	d.SetText(a, " \n\t")
	if !d.IsEmpty(a) {
		t.Fatalf("blank text should count as empty")
	}
	if d.FindChild(r, "a", "", "") != a || d.FindChild(r, "a", "y", "2") != NoNode {
		t.Fatalf("FindChild")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	d := NewDocument("w")
	d.SetAttr(d.Root(), "q", "say \"hi\"\nnow <ok>")
	c := d.NewChild(d.Root(), "body")
	d.SetText(c, "a < b & c\nnext")
	d.NewChild(d.Root(), "flag")

	var b strings.Builder
	if err := Encode(&b, d); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := b.String()
	if !strings.HasPrefix(out, Header+"\n") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "\t<flag />\n") {
		t.Fatalf("empty element not self-closed: %q", out)
	}

	back, err := DecodeString(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v, _ := back.Attr(back.Root(), "q"); v != "say \"hi\"\nnow <ok>" {
		t.Fatalf("attr = %q", v)
	}
	body := back.FindChild(back.Root(), "body", "", "")
	if back.Text(body) != "a < b & c\nnext" {
		t.Fatalf("text = %q", back.Text(body))
	}
	if back.String() != d.String() {
		t.Fatalf("re-encode differs:\n%s\n%s", back.String(), d.String())
	}
}

func names(d *Document, ids []NodeID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = d.Name(id)
	}
	return strings.Join(s, ",")
}

func TestDocument_CopyTo(t *testing.T) {
	d := NewDocument("root")
	src := d.NewChild(d.Root(), "a")
	d.SetAttr(src, "k", "v")
	d.SetText(d.NewChild(src, "b"), "text")
	d.NewChild(d.NewChild(src, "c"), "d")

	cp := d.CopyTo(src, d.Root())
	if got := names(d, d.Children(d.Root())); got != "a,a" {
		t.Fatalf("root children = %s", got)
	}
	d.SetAttr(cp, "k", "changed")
	if v, _ := d.Attr(src, "k"); v != "v" {
		t.Fatalf("copy shares attributes with the source: %q", v)
	}
	if got := names(d, d.Children(cp)); got != "b,c" {
		t.Fatalf("copied children = %s", got)
	}
	if d.Text(d.FirstChild(cp)) != "text" || d.Name(d.FirstChild(d.LastChild(cp))) != "d" {
		t.Fatalf("subtree not copied: %s", d.String())
	}
}
