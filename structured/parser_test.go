package structured_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/reoring/paramblock"
	_ "github.com/reoring/paramblock/source"
	jsonsrc "github.com/reoring/paramblock/source/json"
	"github.com/reoring/paramblock/structured"
)

var quiet = paramblock.ParseOpt{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

type Rect struct {
	Left paramblock.Optional[int32] `param:"left"`
	Top  paramblock.Optional[int32] `param:"top"`
}

type Item struct {
	Name  paramblock.Optional[string] `param:"name"`
	Value paramblock.Optional[int32]  `param:"value"`
	Tags  paramblock.Multiple[string] `param:"tag"`
}

type Widget struct {
	Name    paramblock.Mandatory[string]          `param:"name"`
	Rect    paramblock.Optional[Rect]             `param:"rect"`
	Items   paramblock.Multiple[Item]             `param:"item"`
	Tags    paramblock.Multiple[string]           `param:"tag"`
	Visible paramblock.Optional[paramblock.Flag]  `param:"visible"`
	Scale   paramblock.Optional[float32]          `param:"scale"`
	Small   paramblock.Optional[int8]             `param:"small"`
	Color   paramblock.Optional[paramblock.Color] `param:"color"`
}

func sampleWidget() *Widget {
	var w Widget
	w.Name.Set("w")
	r := w.Rect.Ref()
	r.Left.Set(1)
	r.Top.Set(2)
	w.Items.Add(Item{}, Item{})
	w.Items.Ref(0).Name.Set("a")
	w.Items.Ref(0).Value.Set(1)
	w.Items.Ref(0).Tags.Add("x")
	w.Items.Ref(1).Name.Set("b")
	w.Items.Ref(1).Tags.Add("y", "z")
	w.Tags.Add("t")
	w.Visible.Set(paramblock.Flag{})
	w.Scale.Set(0.5)
	return &w
}

func marshal(t *testing.T, o *structured.Object) string {
	t.Helper()
	b, err := o.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestWrite_NestedObjectBytes(t *testing.T) {
	type inner struct {
		B paramblock.Optional[int32] `param:"b"`
	}
	type outer struct {
		A paramblock.Optional[inner] `param:"a"`
	}
	var v outer
	v.A.Ref().B.Set(1)

	o, err := structured.NewParser(quiet).Write(&v, nil)
	require.NoError(t, err)
	if got := marshal(t, o); got != `{"a":{"b":1}}` {
		t.Fatalf("got %s", got)
	}
}

func TestWrite_ArrayPromotion(t *testing.T) {
	o, err := structured.NewParser(quiet).Write(sampleWidget(), nil)
	require.NoError(t, err)
	want := `{"name":"w","rect":{"left":1,"top":2},` +
		`"item":[{"name":"a","value":1,"tag":"x"},{"name":"b","tag":["y","z"]}],` +
		`"tag":"t","visible":null,"scale":0.5}`
	if diff := cmp.Diff(want, marshal(t, o)); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"name", "rect", "item", "tag", "visible", "scale"}, o.Keys())
}

func TestWrite_Diff(t *testing.T) {
	def := sampleWidget()
	w := sampleWidget()
	w.Scale.Set(2)
	o, err := structured.NewParser(quiet).Write(w, def)
	require.NoError(t, err)
	require.Equal(t, `{"scale":2}`, marshal(t, o))
}

func TestWrite_MapAndYAML(t *testing.T) {
	o, err := structured.NewParser(quiet).Write(sampleWidget(), nil)
	require.NoError(t, err)

	m := o.Map()
	items, ok := m["item"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	require.Equal(t, []any{"y", "z"}, items[1].(map[string]any)["tag"])

	out, err := yaml.Marshal(o)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(out), "name: w\nrect:\n"), "declaration order is kept:\n%s", out)

	var back Widget
	require.NoError(t, structured.NewParser(quiet).ReadYAML(strings.NewReader(string(out)), &back))
	again, err := structured.NewParser(quiet).Write(&back, nil)
	require.NoError(t, err)
	require.Equal(t, marshal(t, o), marshal(t, again))
}

func TestRead_Tree(t *testing.T) {
	tree := map[string]any{
		"name":     "tree",
		"rect":     map[string]any{"left": 3, "top": 4.0},
		"item":     []any{map[string]any{"name": "a", "tag": []string{"p", "q"}}, map[string]any{"name": "b"}},
		"tag":      "solo",
		"visible":  nil,
		"color":    "1 0 0",
		"rect.top": 5,
	}
	var w Widget
	require.NoError(t, structured.NewParser(quiet).Read(tree, &w))
	require.Equal(t, "tree", w.Name.Get())
	require.Equal(t, int32(3), w.Rect.Get().Left.Get())
	require.Equal(t, int32(5), w.Rect.Get().Top.Get(), "sorted keys put rect.top after rect")
	require.Equal(t, 2, w.Items.Len())
	require.Equal(t, []string{"p", "q"}, w.Items.At(0).Tags.Values())
	require.Equal(t, "b", w.Items.At(1).Name.Get())
	require.Equal(t, []string{"solo"}, w.Tags.Values())
	require.True(t, w.Visible.IsProvided())
	require.Equal(t, paramblock.Color{R: 1, A: 1}, w.Color.Get())
}

func TestRead_Issues(t *testing.T) {
	var w Widget
	err := structured.NewParser(quiet).Read(map[string]any{
		"name":  7,
		"small": 300,
		"rect":  map[string]any{"left": "x", "top": 1.5},
		"scael": 1,
	}, &w)
	iss, ok := paramblock.AsIssues(err)
	require.True(t, ok)
	got := map[string]string{}
	for _, it := range iss {
		got[it.Path] = it.Code
	}
	require.Equal(t, map[string]string{
		"name":      paramblock.CodeInvalidValue,
		"small":     paramblock.CodeInvalidValue,
		"rect.left": paramblock.CodeInvalidValue,
		"rect.top":  paramblock.CodeInvalidValue,
		"scael":     paramblock.CodeUnknownKey,
	}, got)
	require.False(t, w.Name.IsProvided())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	orig := sampleWidget()
	orig.Color.Set(paramblock.Color{R: 0.25, G: 0.5, B: 1, A: 1})
	o, err := structured.NewParser(quiet).Write(orig, nil)
	require.NoError(t, err)
	first := marshal(t, o)

	var fromTree Widget
	require.NoError(t, structured.NewParser(quiet).Read(o, &fromTree))
	var fromJSON Widget
	require.NoError(t, structured.NewParser(quiet).ReadJSON(strings.NewReader(first), &fromJSON))

	for _, w := range []*Widget{&fromTree, &fromJSON} {
		again, err := structured.NewParser(quiet).Write(w, nil)
		require.NoError(t, err)
		require.Equal(t, first, marshal(t, again))
	}
	require.Equal(t, "go-json", structured.JSONDriverName())
}

func TestReadSource_Enforcement(t *testing.T) {
	src := `{"name":"a","name":"b"}`

	var w Widget
	err := structured.NewParser(quiet).ReadSource(jsonsrc.NewReader(strings.NewReader(src)), &w)
	iss, _ := paramblock.AsIssues(err)
	require.Equal(t, []string{paramblock.CodeDuplicateKey}, iss.Codes())
	require.Equal(t, "name", iss[0].Path)
	require.Equal(t, "b", w.Name.Get(), "the later value wins when duplicates only warn")

	strict := quiet
	strict.Strictness.OnDuplicateKey = paramblock.Error
	var w2 Widget
	err = structured.NewParser(strict).ReadJSON(strings.NewReader(src), &w2)
	iss, _ = paramblock.AsIssues(err)
	require.Equal(t, []string{paramblock.CodeDuplicateKey}, iss.Codes())
	require.Equal(t, "a", w2.Name.Get())

	deep := quiet
	deep.MaxDepth = 2
	var w3 Widget
	err = structured.NewParser(deep).ReadJSON(strings.NewReader(`{"name":"d","rect":{"left":{"x":1}}}`), &w3)
	iss, _ = paramblock.AsIssues(err)
	require.Equal(t, []string{paramblock.CodeParseError}, iss.Codes())
	require.Equal(t, "rect.left", iss[0].Path)
	require.Equal(t, "d", w3.Name.Get())

	var w4 Widget
	err = structured.NewParser(quiet).ReadJSON(strings.NewReader(`{"name":"e","tag":["x",`), &w4)
	require.Error(t, err)
	_, isIssues := paramblock.AsIssues(err)
	require.False(t, isIssues)
	require.Equal(t, "e", w4.Name.Get())
}

func TestReadSource_DocumentOrder(t *testing.T) {
	var w Widget
	err := structured.NewParser(quiet).ReadJSON(strings.NewReader(
		`{"rect.top":9,"rect":{"top":1},"item":[{"name":"a"},{"name":"b","tag":"c"}],"name":"n","visible":null}`), &w)
	require.NoError(t, err)
	require.Equal(t, int32(1), w.Rect.Get().Top.Get(), "the later key wins")
	require.Equal(t, 2, w.Items.Len())
	require.Equal(t, []string{"c"}, w.Items.At(1).Tags.Values())
	require.True(t, w.Visible.IsProvided())
}

func TestReadYAML(t *testing.T) {
	src := `name: y
item:
  - name: first
    value: 1
  - name: second
tag: [a, b]
visible:
scale: 1.25
`
	var w Widget
	require.NoError(t, structured.NewParser(quiet).ReadYAML(strings.NewReader(src), &w))
	require.Equal(t, "y", w.Name.Get())
	require.Equal(t, "first", w.Items.At(0).Name.Get())
	require.Equal(t, int32(1), w.Items.At(0).Value.Get())
	require.Equal(t, "second", w.Items.At(1).Name.Get())
	require.Equal(t, []string{"a", "b"}, w.Tags.Values())
	require.True(t, w.Visible.IsProvided())
	require.Equal(t, float32(1.25), w.Scale.Get())

	err := structured.NewParser(quiet).ReadYAML(strings.NewReader("name: [unclosed"), &w)
	require.ErrorContains(t, err, "structured: yaml")
}

func TestReadHCL(t *testing.T) {
	src := `
name  = "h"
scale = 2
rect {
  left = 3
}
item "one" {
  value = 1
  tag   = ["p", "q"]
}
item "two" {}
visible = null
`
	var w Widget
	require.NoError(t, structured.NewParser(quiet).ReadHCL([]byte(src), "widget.hcl", nil, &w))
	require.Equal(t, "h", w.Name.Get())
	require.Equal(t, float32(2), w.Scale.Get())
	require.Equal(t, int32(3), w.Rect.Get().Left.Get())
	require.Equal(t, 2, w.Items.Len())
	require.Equal(t, "one", w.Items.At(0).Name.Get())
	require.Equal(t, []string{"p", "q"}, w.Items.At(0).Tags.Values())
	require.Equal(t, "two", w.Items.At(1).Name.Get())
	require.True(t, w.Visible.IsProvided())

	err := structured.NewParser(quiet).ReadHCL([]byte(`name = `), "bad.hcl", nil, &w)
	require.ErrorContains(t, err, "structured: hcl")
}
