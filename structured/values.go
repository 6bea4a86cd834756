package structured

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/reoring/paramblock"
)

// cursor exposes the value a parser is currently submitting.
type cursor interface {
	value() any
}

func current(p paramblock.Parser) any { return p.(cursor).value() }

var defaultRegistry = sync.OnceValue(newRegistry)

// DefaultRegistry returns the Registry used by Parser. Clone it to add
// types.
func DefaultRegistry() *paramblock.Registry { return defaultRegistry() }

func newRegistry() *paramblock.Registry {
	r := paramblock.NewRegistry()

	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *string) bool {
			s, ok := current(p).(string)
			if ok {
				*dst = s
			}
			return ok
		}, writeValue[string])
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *bool) bool {
			switch v := current(p).(type) {
			case bool:
				*dst = v
				return true
			case string:
				b, err := strconv.ParseBool(strings.TrimSpace(v))
				if err != nil {
					return false
				}
				*dst = b
				return true
			}
			return false
		}, writeValue[bool])

	registerInt[int8](r)
	registerInt[int16](r)
	registerInt[int32](r)
	registerInt[int64](r)
	registerInt[int](r)
	registerUint[uint8](r)
	registerUint[uint16](r)
	registerUint[uint32](r)
	registerUint[uint64](r)
	registerUint[uint](r)
	registerFloat[float32](r)
	registerFloat[float64](r)

	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *paramblock.Color) bool {
			s, ok := current(p).(string)
			if !ok {
				return false
			}
			c, ok := paramblock.ParseColor(s, 3)
			if ok {
				*dst = c
			}
			return ok
		},
		func(p paramblock.Parser, v paramblock.Color, st paramblock.NameStack) bool {
			return writeValue(p, v.String(), st)
		})
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *paramblock.UUID) bool {
			s, ok := current(p).(string)
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
			return writeValue(p, v.String(), st)
		})
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, _ *paramblock.Flag) bool {
			v := current(p)
			return v == nil || v == true
		},
		func(p paramblock.Parser, _ paramblock.Flag, st paramblock.NameStack) bool {
			return writeValue[any](p, nil, st)
		})
	return r
}

func writeValue[T any](p paramblock.Parser, v T, st paramblock.NameStack) bool {
	w, ok := p.(*Parser)
	return ok && w.WriteValue(st, v)
}

// toInt64 accepts Go integers, integral floats, and numbers in string form
// (including JSON number literals).
func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		return int64(u), u <= math.MaxInt64
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func toUint64(v any) (uint64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.String:
		if n, err := strconv.ParseUint(strings.TrimSpace(rv.String()), 10, 64); err == nil {
			return n, true
		}
	}
	n, ok := toInt64(v)
	return uint64(n), ok && n >= 0
}

func toFloat64(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return f, err == nil
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func registerInt[T ~int | ~int8 | ~int16 | ~int32 | ~int64](r *paramblock.Registry) {
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *T) bool {
			n, ok := toInt64(current(p))
			if !ok || int64(T(n)) != n {
				return false
			}
			*dst = T(n)
			return true
		}, writeValue[T])
}

func registerUint[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](r *paramblock.Registry) {
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *T) bool {
			n, ok := toUint64(current(p))
			if !ok || uint64(T(n)) != n {
				return false
			}
			*dst = T(n)
			return true
		}, writeValue[T])
}

func registerFloat[T ~float32 | ~float64](r *paramblock.Registry) {
	paramblock.RegisterParserFuncs(r,
		func(p paramblock.Parser, dst *T) bool {
			f, ok := toFloat64(current(p))
			if !ok {
				return false
			}
			if reflect.TypeFor[T]().Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
				return false
			}
			*dst = T(f)
			return true
		}, writeValue[T])
}
