package schema

import (
	"reflect"
	"sync"

	"github.com/reoring/paramblock"
)

// typeTag names a leaf type in each schema language.
type typeTag struct {
	xsd  string
	rng  string
	json string
}

var flagTag = typeTag{json: "null"}

var leafTags = map[reflect.Type]typeTag{
	reflect.TypeFor[bool]():    {"xs:boolean", "boolean", "boolean"},
	reflect.TypeFor[string]():  {"xs:string", "string", "string"},
	reflect.TypeFor[uint8]():   {"xs:unsignedByte", "unsignedByte", "integer"},
	reflect.TypeFor[int8]():    {"xs:signedByte", "byte", "integer"},
	reflect.TypeFor[uint16]():  {"xs:unsignedShort", "unsignedShort", "integer"},
	reflect.TypeFor[int16]():   {"xs:signedShort", "short", "integer"},
	reflect.TypeFor[uint32]():  {"xs:unsignedInt", "unsignedInt", "integer"},
	reflect.TypeFor[int32]():   {"xs:integer", "int", "integer"},
	reflect.TypeFor[int]():     {"xs:long", "long", "integer"},
	reflect.TypeFor[int64]():   {"xs:long", "long", "integer"},
	reflect.TypeFor[uint]():    {"xs:unsignedLong", "unsignedLong", "integer"},
	reflect.TypeFor[uint64]():  {"xs:unsignedLong", "unsignedLong", "integer"},
	reflect.TypeFor[float32](): {"xs:float", "float", "number"},
	reflect.TypeFor[float64](): {"xs:double", "double", "number"},

	reflect.TypeFor[paramblock.Color](): {"xs:string", "string", "string"},
	reflect.TypeFor[paramblock.UUID]():  {"xs:string", "string", "string"},
	reflect.TypeFor[paramblock.Flag]():  flagTag,
}

// leafSink receives the leaves a writer's registry reports.
type leafSink interface {
	leaf(tag typeTag, stack paramblock.NameStack, min, max int, values []string)
}

var inspectRegistry = sync.OnceValue(func() *paramblock.Registry {
	r := paramblock.NewRegistry()
	for t, tag := range leafTags {
		r.Set(t, inspectFuncs(tag))
	}
	return r
})

// InspectRegistry returns the Registry shared by the schema writers. Clone
// it and call RegisterLeafType to describe more leaf types, then pass the
// clone in ParseOpt.Registry.
func InspectRegistry() *paramblock.Registry { return inspectRegistry() }

// RegisterLeafType describes leaf type T with an XSD type, an RNG datatype
// and a JSON Schema type.
func RegisterLeafType[T any](r *paramblock.Registry, xsd, rng, json string) {
	r.Set(reflect.TypeFor[T](), inspectFuncs(typeTag{xsd: xsd, rng: rng, json: json}))
}

// inspectFuncs forwards a leaf, with its tags, to the writer being driven.
func inspectFuncs(tag typeTag) paramblock.Funcs {
	return paramblock.Funcs{
		Inspect: func(p paramblock.Parser, stack paramblock.NameStack, min, max int, values []string) {
			if s, ok := p.(leafSink); ok {
				s.leaf(tag, stack, min, max, values)
			}
		},
	}
}

func isFlag(tag typeTag) bool { return tag == flagTag }
