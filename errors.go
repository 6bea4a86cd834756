package paramblock

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidValue = "invalid_value"
	CodeInvalidEnum  = "invalid_enum"
	CodeUnknownKey   = "unknown_key"
	CodeDuplicateKey = "duplicate_key"
	CodeRequired     = "required"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeDeprecated   = "deprecated"
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
)

// Issue represents a single non-fatal problem found while reading or
// validating a block.
type Issue struct {
	Path    string // Dotted name path (for example: rect.left).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: "did you mean" suggestions, legal values, etc.
	Cause   error  // Optional: underlying error.
	Offset  int64  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"min":1, "got":3}).
	Params map[string]any
}

// Issues is a collection of issues that implements error.
//
// Readers return Issues alongside a partially filled block: every value that
// parsed is kept, and each skipped value is reported here.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		path := it.Path
		if path == "" {
			path = "<root>"
		}
		fmt.Fprintf(b, "%s at %s", it.Code, path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Codes lists the issue codes in order, mostly for tests and logs.
func (iss Issues) Codes() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ErrNotBlock is returned when a value handed to the framework is not a
// pointer to a struct with at least one slot field.
var ErrNotBlock = errors.New("paramblock: not a block")
