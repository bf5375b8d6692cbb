package match

import (
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// FindMatches matches pattern against every node of subject with a
// one-off Matcher.
func FindMatches(patternRoot, subject *node.Node, opts ...Option) []*AstMap {
	return New(patternRoot, opts...).FindMatches(subject)
}

// FindMatches roots the pattern at every node of the subject tree in
// pre-order and returns the conflict-free results in discovery order.
func (m *Matcher) FindMatches(subject *node.Node) []*AstMap {
	if subject == nil {
		panic(ErrNilNode)
	}

	candidates := m.candidates(subject)

	var (
		results    []*AstMap
		conflicted int
	)

	for _, candidate := range candidates {
		for _, am := range m.shallowMatch(m.root, candidate, true) {
			if am.HasConflicts() {
				conflicted++

				continue
			}

			results = append(results, am)

			if m.opts.maxResults > 0 && len(results) >= m.opts.maxResults {
				m.logSearch(len(candidates), len(results), conflicted, true)

				return results
			}
		}
	}

	m.logSearch(len(candidates), len(results), conflicted, false)

	return results
}

// candidates lists the subject nodes the pattern root is tried against.
func (m *Matcher) candidates(subject *node.Node) []*node.Node {
	return subject.PreOrder()
}

func (m *Matcher) logSearch(candidates, matches, conflicted int, truncated bool) {
	m.opts.logger.Debug("pattern search finished",
		"root_kind", string(m.root.Kind),
		"candidates", candidates,
		"matches", matches,
		"conflicted", conflicted,
		"truncated", truncated,
	)
}
