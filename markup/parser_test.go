package markup_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/markup"
)

var quiet = paramblock.ParseOpt{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

type Rect struct {
	Left   paramblock.Optional[int32] `param:"left"`
	Top    paramblock.Optional[int32] `param:"top"`
	Width  paramblock.Optional[int32] `param:"width"`
	Height paramblock.Optional[int32] `param:"height"`
}

type Item struct {
	Label paramblock.Optional[string] `param:"label"`
	Value paramblock.Optional[int32]  `param:"value"`
}

type Button struct {
	Name    paramblock.Mandatory[string]          `param:"name"`
	Label   paramblock.Optional[string]           `param:"label"`
	Rect    paramblock.Optional[Rect]             `param:"rect"`
	Enabled paramblock.Optional[bool]             `param:"enabled"`
	Color   paramblock.Optional[paramblock.Color] `param:"color"`
	Visible paramblock.Optional[paramblock.Flag]  `param:"visible"`
	Tooltip paramblock.Optional[string]           `param:"tool_tip"`
	Items   paramblock.Multiple[Item]             `param:"item"`
	Tags    paramblock.Multiple[string]           `param:"tag"`
	Scale   paramblock.Optional[float32]          `param:"scale"`
	ID      paramblock.Optional[paramblock.UUID]  `param:"id"`
}

type Text struct {
	Value paramblock.Optional[string] `param:"value"`
	Font  paramblock.Optional[string] `param:"font"`
}

type Holder struct {
	Text paramblock.Optional[Text]   `param:"text"`
	Body paramblock.Optional[string] `param:"body"`
}

func readDoc(t *testing.T, src string, block any) (*markup.Document, error) {
	t.Helper()
	doc, err := markup.DecodeString(src)
	require.NoError(t, err)
	return doc, markup.NewParser(quiet).Read(doc, doc.Root(), block)
}

func TestRead_AttributesChildrenAndText(t *testing.T) {
	var b Button
	doc, err := readDoc(t, `
<button name="ok" rect.left="3" enabled="true" color="1 0 0">
  <button.rect top="4" width="50"/>
  <item label="a" value="1"/>
  <item label="b"/>
  <tag>x</tag>
  <tag>y</tag>
  <tool_tip>
    hover text
  </tool_tip>
  <panel name="child widget"/>
</button>`, &b)
	require.NoError(t, err)
	require.Equal(t, "ok", b.Name.Get())
	r := b.Rect.Get()
	require.Equal(t, int32(3), r.Left.Get())
	require.Equal(t, int32(4), r.Top.Get())
	require.Equal(t, int32(50), r.Width.Get())
	require.True(t, b.Enabled.Get())
	require.Equal(t, paramblock.Color{R: 1, A: 1}, b.Color.Get())
	require.Equal(t, 2, b.Items.Len())
	require.Equal(t, "a", b.Items.At(0).Label.Get())
	require.Equal(t, int32(1), b.Items.At(0).Value.Get())
	require.Equal(t, "b", b.Items.At(1).Label.Get())
	require.Equal(t, []string{"x", "y"}, b.Tags.Values())
	require.Equal(t, "hover text", b.Tooltip.Get())

	// only the unrelated child is left for widget construction
	kids := doc.Children(doc.Root())
	require.Len(t, kids, 1)
	require.Equal(t, "panel", doc.Name(kids[0]))
}

func TestRead_FlagIsNotEmptyString(t *testing.T) {
	var b Button
	_, err := readDoc(t, `<button name="n"><visible/></button>`, &b)
	require.NoError(t, err)
	require.True(t, b.Visible.IsProvided())

	var b2 Button
	_, err = readDoc(t, `<button name="n" visible=""/>`, &b2)
	require.False(t, b2.Visible.IsProvided())
	iss, ok := paramblock.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, []string{paramblock.CodeInvalidValue}, iss.Codes())

	// an empty element addressed to a string leaf is a flag, not ""
	var b3 Button
	_, err = readDoc(t, `<button name="n"><label/></button>`, &b3)
	require.False(t, b3.Label.IsProvided())
	iss, _ = paramblock.AsIssues(err)
	require.Equal(t, []string{paramblock.CodeInvalidValue}, iss.Codes())
	require.Equal(t, "label", iss[0].Path)
	var b4 Button
	_, err = readDoc(t, `<button name="n" label=""/>`, &b4)
	require.NoError(t, err)
	require.True(t, b4.Label.IsProvided())
	require.Equal(t, "", b4.Label.Get())
}

// Attributes apply in document order before child elements, and a dotted
// attribute is resolved relative to the element that carries it.
func TestRead_DuplicateLeftPrecedence(t *testing.T) {
	var r Rect
	doc, err := markup.DecodeString(`<rect left="0" top="1" rect.left="10"/>`)
	require.NoError(t, err)
	err = markup.NewParser(quiet).Read(doc, doc.Root(), &r)
	require.Equal(t, int32(0), r.Left.Get(), "rect.left on <rect> addresses rect.rect.left")
	require.Equal(t, int32(1), r.Top.Get())
	iss, _ := paramblock.AsIssues(err)
	require.Equal(t, []string{paramblock.CodeUnknownKey}, iss.Codes())
	require.Equal(t, "rect.left", iss[0].Path)

	var b Button
	_, err = readDoc(t, `<button name="n" rect.left="10"><rect left="0" top="1" rect.left="10"/></button>`, &b)
	require.Equal(t, int32(0), b.Rect.Get().Left.Get(), "the nested element overrides the flattened attribute")
	require.NoError(t, err)

	var b2 Button
	_, err = readDoc(t, `<button name="n" rect.left="1" rect.left2="x"><button.rect left="2"/><rect left="3"/></button>`, &b2)
	require.Equal(t, int32(3), b2.Rect.Get().Left.Get(), "later children win")
	iss, _ = paramblock.AsIssues(err)
	require.Equal(t, "did you mean left?", iss[0].Hint)
}

func TestRead_ValueText(t *testing.T) {
	var h Holder
	_, err := readDoc(t, `<holder><text font="big">hello</text><body>long body</body></holder>`, &h)
	require.NoError(t, err)
	require.Equal(t, "hello", h.Text.Get().Value.Get())
	require.Equal(t, "big", h.Text.Get().Font.Get())
	require.Equal(t, "long body", h.Body.Get())
}

type Gauge struct {
	Value paramblock.Optional[int32]  `param:"value"`
	Unit  paramblock.Optional[string] `param:"unit"`
}

type Meter struct {
	Gauge paramblock.Optional[Gauge]  `param:"gauge"`
	Label paramblock.Optional[string] `param:"label"`
}

func TestRead_RejectedValueText(t *testing.T) {
	const src = `<meter><gauge unit="px">abc</gauge><label>plain</label></meter>`

	var dom Meter
	_, err := readDoc(t, src, &dom)
	var st Meter
	serr := markup.NewStreamParser(nil, quiet).Read(strings.NewReader(src), &st)

	for _, c := range []struct {
		m   Meter
		err error
	}{{dom, err}, {st, serr}} {
		iss, ok := paramblock.AsIssues(c.err)
		require.True(t, ok)
		require.Equal(t, []string{paramblock.CodeInvalidValue}, iss.Codes(), "reported once, against value")
		require.Equal(t, "gauge.value", iss[0].Path)
		require.False(t, c.m.Gauge.Get().Value.IsProvided())
		require.Equal(t, "px", c.m.Gauge.Get().Unit.Get())
		require.Equal(t, "plain", c.m.Label.Get(), "text falls back to the element itself")
	}
}

func TestRead_InvalidValueContinues(t *testing.T) {
	var b Button
	_, err := readDoc(t, `<button name="n" scale="wide" label="still read"><rect left="x" top="2"/></button>`, &b)
	iss, ok := paramblock.AsIssues(err)
	require.True(t, ok)
	require.Equal(t, []string{paramblock.CodeInvalidValue, paramblock.CodeInvalidValue}, iss.Codes())
	require.Equal(t, "scale", iss[0].Path)
	require.Equal(t, "rect.left", iss[1].Path)
	require.Equal(t, "still read", b.Label.Get())
	require.Equal(t, int32(2), b.Rect.Get().Top.Get())
}

func writeDoc(t *testing.T, root string, block any) *markup.Document {
	t.Helper()
	doc := markup.NewDocument(root)
	require.NoError(t, markup.NewParser(quiet).Write(doc, doc.Root(), block, nil))
	return doc
}

func TestWrite_Shapes(t *testing.T) {
	var b Button
	b.Name.Set("ok")
	b.Rect.Ref().Left.Set(1)
	b.Rect.Ref().Top.Set(2)
	b.Visible.Set(paramblock.Flag{})
	b.Tooltip.Set("a tooltip that is certainly longer than forty characters")
	b.Tags.Add("x", "y")
	b.Enabled.Set(false)

	got := writeDoc(t, "button", &b).String()
	want := `<button name="ok" enabled="false">
	<rect left="1" top="2" />
	<visible />
	<tool_tip>a tooltip that is certainly longer than forty characters</tool_tip>
	<tag>x</tag>
	<tag>y</tag>
</button>
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_ValueCollapsesOntoParent(t *testing.T) {
	var h Holder
	h.Text.Ref().Value.Set("line one\nline two")
	h.Text.Ref().Font.Set("small")
	doc := writeDoc(t, "holder", &h)
	text := doc.FindChild(doc.Root(), "text", "", "")
	require.NotEqual(t, markup.NoNode, text)
	require.Equal(t, "line one\nline two", doc.Text(text))
	v, _ := doc.Attr(text, "font")
	require.Equal(t, "small", v)
	require.Empty(t, doc.ChildrenNamed(text, "value"))
}

func TestWrite_ReadRoundTrip(t *testing.T) {
	var b Button
	b.Name.Set("round")
	b.Label.Set("multi\nline")
	b.Rect.Ref().Width.Set(30)
	b.Rect.Ref().Height.Set(40)
	b.Enabled.Set(true)
	b.Color.Set(paramblock.Color{R: 0.5, G: 0.25, B: 1, A: 1})
	b.Visible.Set(paramblock.Flag{})
	b.Items.Add(Item{}, Item{})
	b.Items.Ref(0).Label.Set("first")
	b.Items.Ref(0).Value.Set(7)
	b.Items.Ref(1).Label.Set("second")
	b.Tags.Add("one")
	b.Scale.Set(1.5)
	id, err := paramblock.ParseUUID("0123abcd-4567-89ab-cdef-0123456789ab")
	require.NoError(t, err)
	b.ID.Set(id)

	doc := writeDoc(t, "button", &b)
	var buf strings.Builder
	require.NoError(t, markup.Encode(&buf, doc))
	first := buf.String()

	parsed, err := markup.DecodeString(first)
	require.NoError(t, err)
	var back Button
	require.NoError(t, markup.NewParser(quiet).Read(parsed, parsed.Root(), &back))

	require.Equal(t, b.Name.Get(), back.Name.Get())
	require.Equal(t, b.Label.Get(), back.Label.Get())
	require.Equal(t, int32(30), back.Rect.Get().Width.Get())
	require.Equal(t, int32(40), back.Rect.Get().Height.Get())
	require.False(t, back.Rect.Get().Left.IsProvided())
	require.Equal(t, b.Color.Get(), back.Color.Get())
	require.True(t, back.Visible.IsProvided())
	require.Equal(t, 2, back.Items.Len())
	require.Equal(t, int32(7), back.Items.At(0).Value.Get())
	require.Equal(t, "second", back.Items.At(1).Label.Get())
	require.Equal(t, []string{"one"}, back.Tags.Values())
	require.Equal(t, float32(1.5), back.Scale.Get())
	require.Equal(t, id, back.ID.Get())

	again := writeDoc(t, "button", &back)
	buf.Reset()
	require.NoError(t, markup.Encode(&buf, again))
	if diff := cmp.Diff(first, buf.String()); diff != "" {
		t.Fatalf("second write differs (-first +second):\n%s", diff)
	}
}

func TestWrite_Diff(t *testing.T) {
	var def, b Button
	def.Name.Set("same")
	def.Label.Set("default label")
	b.Name.Set("same")
	b.Label.Set("changed")
	doc := markup.NewDocument("button")
	require.NoError(t, markup.NewParser(quiet).Write(doc, doc.Root(), &b, &def))
	require.Equal(t, "<button label=\"changed\" />\n", doc.String())
}
