package markup

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/reoring/paramblock"
)

// cursor exposes the value a parser is currently submitting. flag is true
// for an empty element, which carries presence but no value.
type cursor interface {
	current() (value string, flag bool)
}

func text(p paramblock.Parser) (string, bool) {
	s, flag := p.(cursor).current()
	return s, !flag
}

var (
	defaultRegistry = sync.OnceValue(func() *paramblock.Registry { return newRegistry(false) })
	streamRegistry  = sync.OnceValue(func() *paramblock.Registry { return newRegistry(true) })
)

// DefaultRegistry returns the Registry used by Parser. Clone it to add
// types.
func DefaultRegistry() *paramblock.Registry { return defaultRegistry() }

// StreamRegistry returns the Registry used by StreamParser.
func StreamRegistry() *paramblock.Registry { return streamRegistry() }

// newRegistry builds the leaf table. strict is the streaming dialect: bools
// must be true/false, integers plain decimal, colors four components.
func newRegistry(strict bool) *paramblock.Registry {
	r := paramblock.NewRegistry()

	paramblock.RegisterParserFuncs(r, readString, writeString)
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *bool) bool {
			s, ok := text(p)
			if !ok {
				return false
			}
			s = strings.TrimSpace(s)
			if strict {
				switch s {
				case "true":
					*dst = true
					return true
				case "false":
					*dst = false
					return true
				}
				return false
			}
			v, err := strconv.ParseBool(s)
			if err != nil {
				return false
			}
			*dst = v
			return true
		},
		func(p paramblock.Parser, v bool, st paramblock.NameStack) bool {
			return writeString(p, strconv.FormatBool(v), st)
		})

	registerInt[int8](r, strict)
	registerInt[int16](r, strict)
	registerInt[int32](r, strict)
	registerInt[int64](r, strict)
	registerInt[int](r, strict)
	registerUint[uint8](r, strict)
	registerUint[uint16](r, strict)
	registerUint[uint32](r, strict)
	registerUint[uint64](r, strict)
	registerUint[uint](r, strict)
	registerFloat[float32](r)
	registerFloat[float64](r)

	minColor := 3
	if strict {
		minColor = 4
	}
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *paramblock.Color) bool {
			s, ok := text(p)
			if !ok {
				return false
			}
			c, ok := paramblock.ParseColor(s, minColor)
			if ok {
				*dst = c
			}
			return ok
		},
		func(p paramblock.Parser, v paramblock.Color, st paramblock.NameStack) bool {
			return writeString(p, v.String(), st)
		})
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *paramblock.UUID) bool {
			s, ok := text(p)
			if !ok {
				return false
			}
			u, err := paramblock.ParseUUID(strings.TrimSpace(s))
			if err != nil {
				return false
			}
			*dst = u
			return true
		},
		func(p paramblock.Parser, v paramblock.UUID, st paramblock.NameStack) bool {
			return writeString(p, v.String(), st)
		})
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, _ *paramblock.Flag) bool {
			_, flag := p.(cursor).current()
			return flag
		},
		func(p paramblock.Parser, _ paramblock.Flag, st paramblock.NameStack) bool {
			w, ok := p.(*Parser)
			return ok && w.WriteFlag(st)
		})
	return r
}

func readString(p paramblock.Parser, dst *string) bool {
	s, ok := text(p)
	if !ok {
		return false
	}
	*dst = s
	return true
}

func writeString(p paramblock.Parser, v string, st paramblock.NameStack) bool {
	w, ok := p.(*Parser)
	return ok && w.WriteString(st, v)
}

func bitSize[T any]() int { return int(reflect.TypeFor[T]().Size()) * 8 }

func registerInt[T ~int | ~int8 | ~int16 | ~int32 | ~int64](r *paramblock.Registry, strict bool) {
	base := 0
	if strict {
		base = 10
	}
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *T) bool {
			s, ok := text(p)
			if !ok {
				return false
			}
			n, err := strconv.ParseInt(strings.TrimSpace(s), base, bitSize[T]())
			if err != nil {
				return false
			}
			*dst = T(n)
			return true
		},
		func(p paramblock.Parser, v T, st paramblock.NameStack) bool {
			return writeString(p, strconv.FormatInt(int64(v), 10), st)
		})
}

func registerUint[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](r *paramblock.Registry, strict bool) {
	base := 0
	if strict {
		base = 10
	}
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *T) bool {
			s, ok := text(p)
			if !ok {
				return false
			}
			n, err := strconv.ParseUint(strings.TrimSpace(s), base, bitSize[T]())
			if err != nil {
				return false
			}
			*dst = T(n)
			return true
		},
		func(p paramblock.Parser, v T, st paramblock.NameStack) bool {
			return writeString(p, strconv.FormatUint(uint64(v), 10), st)
		})
}

func registerFloat[T ~float32 | ~float64](r *paramblock.Registry) {
	bits := bitSize[T]()
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *T) bool {
			s, ok := text(p)
			if !ok {
				return false
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(s), bits)
			if err != nil {
				return false
			}
			*dst = T(f)
			return true
		},
		func(p paramblock.Parser, v T, st paramblock.NameStack) bool {
			return writeString(p, strconv.FormatFloat(float64(v), 'g', -1, bits), st)
		})
}
