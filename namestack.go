package paramblock

import "strings"

// Entry is one step of a name stack.
type Entry struct {
	Name string
	// Generation tells repeated occurrences of the same path apart. Two
	// entries with equal names and generations address the same occurrence.
	Generation int
}

// NameStack is the path of one leaf occurrence through a block tree.
//
// A NameStack is treated as immutable: With returns a new stack and never
// writes into the receiver's backing array, so callers can hand the same
// prefix to several recursive calls.
type NameStack []Entry

// With returns s extended by entries.
func (s NameStack) With(entries ...Entry) NameStack {
	out := make(NameStack, len(s), len(s)+len(entries))
	copy(out, s)
	return append(out, entries...)
}

// WithNames extends s by one entry per name, each with the same generation.
func (s NameStack) WithNames(gen int, names ...string) NameStack {
	out := make(NameStack, len(s), len(s)+len(names))
	copy(out, s)
	for _, n := range names {
		out = append(out, Entry{Name: n, Generation: gen})
	}
	return out
}

// Regenerate returns s with the generation of its last entry replaced.
func (s NameStack) Regenerate(gen int) NameStack {
	if len(s) == 0 {
		return s
	}
	out := make(NameStack, len(s))
	copy(out, s)
	out[len(out)-1].Generation = gen
	return out
}

// Top returns the name of the last entry, or "" for an empty stack.
func (s NameStack) Top() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1].Name
}

// Names returns the entry names in order.
func (s NameStack) Names() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Name
	}
	return out
}

// Path renders the stack as a dotted path.
func (s NameStack) Path() string {
	return strings.Join(s.Names(), ".")
}

// Decompose splits a possibly dotted markup name into the tokens to push
// under scope.
//
// An undotted name is a single token relative to scope. A dotted name must
// start with scope (when scope is non-empty); its remaining tokens are
// returned. ok is false when the prefix does not match, meaning the name
// belongs to unrelated content rather than to the current block.
func Decompose(raw, scope string) (tokens []string, ok bool) {
	if !strings.Contains(raw, ".") {
		return []string{raw}, true
	}
	parts := splitDotted(raw)
	if len(parts) == 0 {
		return nil, false
	}
	if scope != "" && parts[0] != scope {
		return nil, false
	}
	return parts[1:], true
}

// splitDotted splits on '.' and drops empty tokens.
func splitDotted(raw string) []string {
	fields := strings.Split(raw, ".")
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// SplitName splits a dotted attribute name into its tokens.
func SplitName(raw string) []string { return splitDotted(raw) }
