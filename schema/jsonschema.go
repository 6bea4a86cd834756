package schema

import (
	"reflect"
	"strconv"

	"github.com/reoring/paramblock"
	"github.com/reoring/paramblock/jsonschema"
)

// JSONSchemaWriter describes the structured-data form of a block type.
//
// A repeatable slot accepts either one item or an array of items, the
// shapes structured.Parser writes for one and for several values. Exactly-one
// slots are required. Use one JSONSchemaWriter per goroutine.
type JSONSchemaWriter struct {
	paramblock.Base

	root    *jsonschema.Schema
	objects map[string]*jsonschema.Schema
}

// NewJSONSchemaWriter returns a JSONSchemaWriter using InspectRegistry.
func NewJSONSchemaWriter(opts ...paramblock.ParseOpt) *JSONSchemaWriter {
	return &JSONSchemaWriter{Base: paramblock.NewBase(inspectRegistry(), opts...)}
}

// Write returns the schema of block, a pointer to a block struct.
func (w *JSONSchemaWriter) Write(block any) *jsonschema.Schema {
	w.Begin()
	w.root = object()
	w.root.Dialect = jsonschema.Draft202012
	w.objects = map[string]*jsonschema.Schema{"": w.root}

	desc, err := paramblock.Describe(block)
	if err != nil {
		w.Logger().Warn("schema: cannot describe block", "error", err)
		return w.root
	}
	w.root.Title = desc.Type.Name()
	paramblock.InspectDescriptor(desc, w)
	return w.root
}

func object() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
}

// InspectBlock implements paramblock.BlockInspector.
func (w *JSONSchemaWriter) InspectBlock(stack paramblock.NameStack, min, max int) {
	obj := object()
	w.objects[stack.Path()] = obj
	w.property(stack, obj, min, max)
}

func (w *JSONSchemaWriter) leaf(tag typeTag, stack paramblock.NameStack, min, max int, values []string) {
	s := &jsonschema.Schema{Type: tag.json}
	for _, v := range values {
		s.Enum = append(s.Enum, enumValue(tag.json, v))
	}
	w.property(stack, s, min, max)
}

func (w *JSONSchemaWriter) property(stack paramblock.NameStack, s *jsonschema.Schema, min, max int) {
	parent, ok := w.objects[stack[:len(stack)-1].Path()]
	if !ok {
		parent = w.root
	}
	name := stack.Top()
	if max > 1 {
		arr := &jsonschema.Schema{Type: "array", Items: s}
		if min > 0 {
			arr.MinItems = &min
		}
		if max < paramblock.Unbounded {
			arr.MaxItems = &max
		}
		s = &jsonschema.Schema{OneOf: []*jsonschema.Schema{s, arr}}
	}
	if old, dup := parent.Properties[name]; dup {
		if !reflect.DeepEqual(old, s) {
			parent.Properties[name] = &jsonschema.Schema{OneOf: []*jsonschema.Schema{old, s}}
		}
		return
	}
	parent.Properties[name] = s
	if min == 1 && max == 1 {
		parent.Required = append(parent.Required, name)
	}
}

// enumValue converts a legal value to the JSON type of its leaf.
func enumValue(typ, v string) any {
	switch typ {
	case "integer":
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case "number":
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return v
}
