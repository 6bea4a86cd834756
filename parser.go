package paramblock

import (
	"log/slog"
	"sync/atomic"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/reoring/paramblock/i18n"
)

// Parser is implemented by every concrete parser and schema writer by
// embedding Base.
type Parser interface {
	base() *Base
}

// Base carries the state every parser shares: its Registry, the generation
// counter, options and the issues collected by the current run.
type Base struct {
	registry *Registry
	opt      ParseOpt
	logger   *slog.Logger
	epoch    uint64
	gen      int
	issues   Issues
}

var epochs atomic.Uint64

// NewBase returns a Base using def unless opts name another Registry.
func NewBase(def *Registry, opts ...ParseOpt) Base {
	opt := lastOpt(opts)
	reg := def
	if opt.Registry != nil {
		reg = opt.Registry
	}
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}
	return Base{registry: reg, opt: opt, logger: lg}
}

func (b *Base) base() *Base { return b }

// Begin starts a new run: generations restart, earlier issues are dropped,
// and occurrences recorded by previous runs can no longer match.
func (b *Base) Begin() {
	b.epoch = epochs.Add(1)
	b.gen = 0
	b.issues = nil
}

// NextGeneration returns a generation not handed out before in this run.
func (b *Base) NextGeneration() int {
	b.gen++
	return b.gen
}

// Registry returns the parser's Registry.
func (b *Base) Registry() *Registry { return b.registry }

// Options returns the options the parser was built with.
func (b *Base) Options() ParseOpt { return b.opt }

// Logger returns the parser's logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Verbose reports whether diagnostic logging is on.
func (b *Base) Verbose() bool { return b.opt.Verbose }

// Issues returns the issues collected since Begin.
func (b *Base) Issues() Issues { return b.issues }

// Err returns the collected issues as an error, or nil when there are none.
func (b *Base) Err() error {
	if len(b.issues) == 0 {
		return nil
	}
	return b.issues
}

// AddIssue records it and logs it at Warn level.
func (b *Base) AddIssue(it Issue) {
	if it.Message == "" {
		it.Message = i18n.T(it.Code, nil)
	}
	b.issues = AppendIssues(b.issues, it)
	attrs := []any{"code", it.Code, "path", it.Path}
	if it.Hint != "" {
		attrs = append(attrs, "hint", it.Hint)
	}
	b.logger.Warn(it.Message, attrs...)
}

// Debug logs msg when the parser is verbose.
func (b *Base) Debug(msg string, args ...any) {
	if b.opt.Verbose {
		b.logger.Debug(msg, args...)
	}
}

// Note records the outcome of a submission. Unmatched names are reported
// only when silent is false; rejected values are always reported.
func (b *Base) Note(blk Block, stack NameStack, out Outcome, silent bool) {
	switch out {
	case Consumed:
	case NotMember:
		if silent {
			b.Debug("ignoring unknown name", "path", stack.Path())
			return
		}
		b.AddIssue(Issue{
			Path:   stack.Path(),
			Code:   CodeUnknownKey,
			Hint:   blk.suggest(stack),
			Offset: -1,
		})
	case InvalidValue, InvalidEnum:
		code := CodeInvalidValue
		if out == InvalidEnum {
			code = CodeInvalidEnum
		}
		b.AddIssue(Issue{
			Path:   stack.Path(),
			Code:   code,
			Hint:   blk.legalValues(stack),
			Offset: -1,
		})
	}
}

// closestName returns the candidate nearest to name, or "".
func closestName(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		// fall back to the reverse direction for short typos like "widht"
		best, bestDist := "", -1
		for _, c := range candidates {
			d := fuzzy.LevenshteinDistance(name, c)
			if d <= 2 && (bestDist < 0 || d < bestDist) {
				best, bestDist = c, d
			}
		}
		return best
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
