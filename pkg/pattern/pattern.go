// Package pattern classifies pattern tree nodes into ordinary nodes and the
// placeholder forms understood by the matcher.
package pattern

import (
	"strings"

	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// Kind is the placeholder category of a pattern node.
type Kind int

// Placeholder kinds.
const (
	// Ordinary nodes must match structurally.
	Ordinary Kind = iota
	// Wildcard (___) matches any single node and binds nothing.
	Wildcard
	// VarMeta (_X_) matches a Name and records the identifier it stands for.
	VarMeta
	// ExprMeta (__X__) matches any node and captures it.
	ExprMeta
	// StatementGap (pass) absorbs zero or more sibling statements.
	StatementGap
)

const (
	wildcardText = "___"
	metaMarker   = "_"
	exprMarker   = "__"
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Ordinary:
		return "ordinary"
	case Wildcard:
		return "wildcard"
	case VarMeta:
		return "var-meta"
	case ExprMeta:
		return "expr-meta"
	case StatementGap:
		return "statement-gap"
	default:
		return "unknown"
	}
}

// IsPlaceholder reports whether the kind is anything other than Ordinary.
func (k Kind) IsPlaceholder() bool {
	return k != Ordinary
}

// Placeholder is a classified pattern node.
type Placeholder struct {
	Kind Kind
	Name string
}

// ClassifyName classifies identifier text. The returned name is the
// metavariable name with its underscores stripped, or empty for kinds that
// carry no name.
func ClassifyName(name string) (Kind, string) {
	if name == wildcardText {
		return Wildcard, ""
	}

	if inner, ok := stripMarker(name, exprMarker); ok {
		return ExprMeta, inner
	}

	if inner, ok := stripMarker(name, metaMarker); ok {
		return VarMeta, inner
	}

	return Ordinary, ""
}

// stripMarker removes marker from both ends of name. The remainder must be
// non-empty and must not itself start or end with an underscore.
func stripMarker(name, marker string) (string, bool) {
	if len(name) <= 2*len(marker) || !strings.HasPrefix(name, marker) || !strings.HasSuffix(name, marker) {
		return "", false
	}

	inner := name[len(marker) : len(name)-len(marker)]
	if strings.HasPrefix(inner, metaMarker) || strings.HasSuffix(inner, metaMarker) {
		return "", false
	}

	return inner, true
}

// Classify classifies a pattern node.
//
// Name leaves are classified by their text and Pass statements are gaps.
// An expression statement whose only child is a wildcard or expression
// metavariable stands for a whole statement and takes that child's kind.
func Classify(n *node.Node) (Kind, string) {
	if n == nil {
		return Ordinary, ""
	}

	switch n.Kind {
	case node.KindName:
		return ClassifyName(n.Token)
	case node.KindPass:
		return StatementGap, ""
	case node.KindExpr:
		if len(n.Children) != 1 || n.Children[0].Kind != node.KindName {
			return Ordinary, ""
		}

		kind, name := ClassifyName(n.Children[0].Token)
		if kind == Wildcard || kind == ExprMeta {
			return kind, name
		}
	}

	return Ordinary, ""
}

// Of returns the placeholder view of a pattern node.
func Of(n *node.Node) Placeholder {
	kind, name := Classify(n)

	return Placeholder{Kind: kind, Name: name}
}

// IsGap reports whether the node is a statement gap.
func IsGap(n *node.Node) bool {
	kind, _ := Classify(n)

	return kind == StatementGap
}
