package checker

import (
	"time"

	"github.com/Sumatoshi-tech/shapematch/pkg/match"
)

// Result is the outcome of one pattern search.
type Result struct {
	// Pattern is the pattern name, or a digest prefix for anonymous patterns.
	Pattern string
	// Matches are the conflict-free matches in discovery order.
	Matches  []*match.AstMap
	Duration time.Duration
}

// Matched reports whether at least one match was found.
func (r *Result) Matched() bool {
	return r != nil && len(r.Matches) > 0
}

// Best returns the first match, or nil.
func (r *Result) Best() *match.AstMap {
	if !r.Matched() {
		return nil
	}

	return r.Matches[0]
}

// Bindings maps each metavariable of the first match to its identifier.
func (r *Result) Bindings() map[string]string {
	best := r.Best()
	if best == nil {
		return map[string]string{}
	}

	names := best.SymbolNames()
	bound := make(map[string]string, len(names))

	for _, name := range names {
		if ident, ok := best.Bound(name); ok {
			bound[name] = ident
		}
	}

	return bound
}
