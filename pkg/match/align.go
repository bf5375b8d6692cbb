package match

import (
	"github.com/Sumatoshi-tech/shapematch/pkg/pattern"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// alignment is the state of one child-list alignment run.
type alignment struct {
	matcher  *Matcher
	ps       []*node.Node
	ss       []*node.Node
	stretchy bool
	out      []*AstMap
}

// align matches the pattern list ps against the subject list ss and returns
// acc extended by every successful alignment. acc is never modified.
//
// In strict mode positions are matched pairwise, except that each pass gap
// absorbs every possible contiguous run of subject elements. In stretchy
// mode each pattern element may skip any number of subject elements before
// it and trailing subject elements are ignored, so explicit gaps absorb
// nothing on their own.
func (m *Matcher) align(acc *AstMap, ps, ss []*node.Node, stretchy bool) []*AstMap {
	run := &alignment{matcher: m, ps: ps, ss: ss, stretchy: stretchy}
	run.step(acc, 0, 0)

	return run.out
}

func (a *alignment) step(acc *AstMap, pi, si int) {
	if pi == len(a.ps) {
		if si == len(a.ss) || a.stretchy {
			a.out = append(a.out, acc.Clone())
		}

		return
	}

	current := a.ps[pi]

	if pattern.IsGap(current) {
		if a.stretchy {
			a.step(acc, pi+1, si)

			return
		}

		for end := si; end <= len(a.ss); end++ {
			a.step(acc, pi+1, end)
		}

		return
	}

	last := si
	if a.stretchy {
		last = len(a.ss) - 1
	}

	for k := si; k <= last && k < len(a.ss); k++ {
		for _, sub := range a.matcher.shallowMatch(current, a.ss[k], true) {
			next := acc.Clone()
			next.MergeMapWith(sub)
			a.step(next, pi+1, k+1)
		}
	}
}
