// Package match implements structural matching of pattern trees against
// subject trees: the node matcher, the sequence aligner for child lists,
// subtree search and the AstMap binding store.
package match

import (
	"errors"
	"slices"

	"github.com/Sumatoshi-tech/shapematch/pkg/pattern"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// ErrNilNode is the panic value raised when a nil tree is passed to the
// matcher. An empty result, not a panic, signals "no match".
var ErrNilNode = errors.New("match: nil node")

// Matcher matches one pattern tree against subject trees.
// It is immutable after New and safe for concurrent use.
type Matcher struct {
	pattern *node.Node
	root    *node.Node
	opts    options
}

// New creates a Matcher for the given pattern tree.
func New(patternRoot *node.Node, opts ...Option) *Matcher {
	if patternRoot == nil {
		panic(ErrNilNode)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	root := patternRoot
	if cfg.trimRoot {
		root = trimRoot(patternRoot)
	}

	return &Matcher{pattern: patternRoot, root: root, opts: cfg}
}

// Pattern returns the pattern tree the matcher was built from.
func (m *Matcher) Pattern() *node.Node {
	return m.pattern
}

// Root returns the node that is matched against each candidate subject node.
func (m *Matcher) Root() *node.Node {
	return m.root
}

// trimRoot descends through Block and Expr wrappers that have a single child.
func trimRoot(root *node.Node) *node.Node {
	for (root.Kind == node.KindBlock || root.Kind == node.KindExpr) && len(root.Children) == 1 {
		root = root.Children[0]
	}

	return root
}

// ShallowMatch matches pattern node p against subject node s with default
// options.
func ShallowMatch(p, s *node.Node, requireSameKind bool) []*AstMap {
	return (&Matcher{opts: defaultOptions()}).ShallowMatch(p, s, requireSameKind)
}

// ShallowMatch compares p against s and returns one AstMap per way the two
// trees can be aligned. An empty result means no match.
func (m *Matcher) ShallowMatch(p, s *node.Node, requireSameKind bool) []*AstMap {
	if p == nil || s == nil {
		panic(ErrNilNode)
	}

	return m.shallowMatch(p, s, requireSameKind)
}

func (m *Matcher) shallowMatch(p, s *node.Node, requireSameKind bool) []*AstMap {
	kind, name := pattern.Classify(p)

	switch kind {
	case pattern.Wildcard, pattern.StatementGap:
		// A gap outside a child list stands for exactly one node.
		am := NewAstMap()
		am.AddPair(p, s)

		return []*AstMap{am}

	case pattern.VarMeta:
		if s.Kind != node.KindName {
			return nil
		}

		am := NewAstMap()
		am.AddPair(p, s)
		am.AddVarToSymTable(name, s.Token, s)

		return []*AstMap{am}

	case pattern.ExprMeta:
		am := NewAstMap()
		am.AddPair(p, s)
		am.SetExp(name, s)

		return []*AstMap{am}

	case pattern.Ordinary:
	}

	if requireSameKind && p.Kind != s.Kind {
		return nil
	}

	if p.Token != s.Token {
		return nil
	}

	base := NewAstMap()
	base.AddPair(p, s)

	if m.isCommutative(p, s) {
		direct := m.align(base, p.Children, s.Children, false)
		swapped := m.align(base, p.Children, []*node.Node{s.Children[1], s.Children[0]}, false)

		return append(direct, swapped...)
	}

	return m.align(base, p.Children, s.Children, m.opts.stretchy && p.Kind == node.KindBlock)
}

var operatorKinds = []node.Kind{node.KindBinOp, node.KindBoolOp, node.KindCompare}

// isCommutative reports whether both nodes are the same binary operator
// drawn from the commutative set, each with exactly two operands.
func (m *Matcher) isCommutative(p, s *node.Node) bool {
	if p.Kind != s.Kind || !slices.Contains(operatorKinds, p.Kind) {
		return false
	}

	if _, ok := m.opts.commutative[p.Token]; !ok {
		return false
	}

	return len(p.Children) == 2 && len(s.Children) == 2
}
