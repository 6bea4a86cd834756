package paramblock

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// ResolveSlotName applies the repository-wide rule to resolve a struct
// field's external name.
// Priority: param tag > snake_case field name; "-" disables the field.
func ResolveSlotName(sf reflect.StructField) string {
	if pt, ok := sf.Tag.Lookup("param"); ok {
		if i := strings.IndexByte(pt, ','); i >= 0 {
			pt = pt[:i]
		}
		if pt != "" {
			return strings.TrimSpace(pt)
		}
	}
	return snakeCase(sf.Name)
}

// snakeCase converts a Go identifier to lower snake case ("TabStop" ->
// "tab_stop", "HTMLText" -> "html_text").
func snakeCase(s string) string {
	rs := []rune(s)
	b := &strings.Builder{}
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]) && unicode.IsUpper(rs[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// tagList splits a comma-separated tag value, trimming blanks.
func tagList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseCount parses a `count:"min..max"` tag. Either bound may be omitted;
// a single number means exactly that many.
func parseCount(v string) (lo, hi int, err error) {
	lo, hi = 0, Unbounded
	if v == "" {
		return lo, hi, nil
	}
	a, b, ranged := strings.Cut(v, "..")
	if !ranged {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("count %q: want n or min..max", v)
		}
		return n, n, nil
	}
	if a = strings.TrimSpace(a); a != "" {
		if lo, err = strconv.Atoi(a); err != nil || lo < 0 {
			return 0, 0, fmt.Errorf("count %q: bad minimum", v)
		}
	}
	if b = strings.TrimSpace(b); b != "" {
		if hi, err = strconv.Atoi(b); err != nil || hi < lo {
			return 0, 0, fmt.Errorf("count %q: bad maximum", v)
		}
	}
	return lo, hi, nil
}
