package paramblock

import "log/slog"

// Severity expresses how a recoverable input problem is treated. The zero
// value is Warn.
type Severity int

const (
	Warn Severity = iota
	Ignore
	Error
)

// Strictness configures enforcement for structured token input.
type Strictness struct {
	OnDuplicateKey Severity // duplicate map keys; Warn records an issue and keeps the later value
}

// ParseOpt bundles parser options. Parser constructors take them variadically;
// the last one wins.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int   // Structured token input nesting limit (0 = unlimited).
	MaxBytes   int64 // Structured token input size limit (0 = unlimited).
	FailFast   bool  // Stop structured token input at the first enforcement issue.
	// Verbose logs foreign content and other scope decisions at Debug level.
	Verbose bool
	// Logger receives warnings; nil means slog.Default().
	Logger *slog.Logger
	// Registry replaces the parser's default Registry.
	Registry *Registry
}

func lastOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}
