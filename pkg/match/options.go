package match

import (
	"io"
	"log/slog"
)

// DefaultCommutativeOperators lists the operator tokens whose two operands
// may be matched in either order.
var DefaultCommutativeOperators = []string{"+", "*", "==", "!=", "and", "or", "&", "|", "^"}

type options struct {
	commutative map[string]struct{}
	stretchy    bool
	trimRoot    bool
	maxResults  int
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		commutative: operatorSet(DefaultCommutativeOperators),
		stretchy:    true,
		trimRoot:    true,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func operatorSet(ops []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ops))

	for _, op := range ops {
		set[op] = struct{}{}
	}

	return set
}

// Option configures a Matcher.
type Option func(*options)

// WithCommutative replaces the set of commutative operator tokens.
// Calling it with no operators disables operand swapping.
func WithCommutative(ops ...string) Option {
	return func(o *options) {
		o.commutative = operatorSet(ops)
	}
}

// WithStretchyBlocks controls whether pattern statements in a block embed
// in order into the subject block (true) or must line up one to one apart
// from explicit pass gaps (false).
func WithStretchyBlocks(enabled bool) Option {
	return func(o *options) {
		o.stretchy = enabled
	}
}

// WithTrimRoot controls whether single-statement wrappers are stripped from
// the pattern root before searching.
func WithTrimRoot(enabled bool) Option {
	return func(o *options) {
		o.trimRoot = enabled
	}
}

// WithMaxResults caps the number of matches FindMatches returns.
// Zero means unlimited.
func WithMaxResults(n int) Option {
	return func(o *options) {
		o.maxResults = max(n, 0)
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
