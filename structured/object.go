package structured

import (
	"bytes"
	"slices"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/paramblock"
)

// Object is a string-keyed map that remembers insertion order. Values are
// scalars, nil, *Object or []any.
//
// Write produces Objects; Read accepts them as well as plain maps.
type Object struct {
	keys []string
	vals map[string]any
	gens map[string]int // generation of the last occurrence, during Write
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: map[string]any{}, gens: map[string]int{}}
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string { return slices.Clone(o.keys) }

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Set stores v under key. An existing key keeps its position.
func (o *Object) Set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Add stores v under key, turning an existing value into an array of
// occurrences first.
func (o *Object) Add(key string, v any) {
	cur, ok := o.vals[key]
	if !ok {
		o.Set(key, v)
		return
	}
	if arr, isArr := cur.([]any); isArr {
		o.vals[key] = append(arr, v)
		return
	}
	o.vals[key] = []any{cur, v}
}

// child returns the container for entry e, creating a new occurrence when
// e's generation differs from the one recorded for its name.
func (o *Object) child(e paramblock.Entry) *Object {
	if cur, ok := o.vals[e.Name]; ok && o.gens[e.Name] == e.Generation {
		if c := lastObject(cur); c != nil {
			return c
		}
	}
	c := NewObject()
	o.Add(e.Name, c)
	o.gens[e.Name] = e.Generation
	return c
}

// put stores a leaf value for entry e. A repeated name with a new
// generation promotes the slot to an array.
func (o *Object) put(e paramblock.Entry, v any) {
	cur, ok := o.vals[e.Name]
	switch {
	case !ok:
		o.Set(e.Name, v)
	case o.gens[e.Name] == e.Generation:
		if arr, isArr := cur.([]any); isArr {
			arr[len(arr)-1] = v
		} else {
			o.vals[e.Name] = v
		}
	default:
		o.Add(e.Name, v)
	}
	o.gens[e.Name] = e.Generation
}

func lastObject(v any) *Object {
	switch t := v.(type) {
	case *Object:
		return t
	case []any:
		if len(t) > 0 {
			c, _ := t[len(t)-1].(*Object)
			return c
		}
	}
	return nil
}

// MarshalJSON writes the keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := gojson.MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := gojson.MarshalNoEscape(o.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML returns an ordered mapping node.
func (o *Object) MarshalYAML() (any, error) { return o.yamlNode() }

func (o *Object) yamlNode() (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range o.keys {
		vn, err := yamlValue(o.vals[k])
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
	}
	return n, nil
}

func yamlValue(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *Object:
		return t.yamlNode()
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			en, err := yamlValue(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// Map converts o into plain map[string]any and []any values.
func (o *Object) Map() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = plain(o.vals[k])
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	}
	return v
}
