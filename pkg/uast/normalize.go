package uast

import (
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/shapematch/pkg/safeconv"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/mapping"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

const errorNodeType = "ERROR"

// Origin is stored in node.Node.Raw. It identifies the tree-sitter node a
// normalized node came from; the tree itself is released after parsing.
type Origin struct {
	Type      string
	StartByte uint
	EndByte   uint
}

type normalizer struct {
	table  *mapping.Table
	source []byte
}

func (nz *normalizer) convert(tsNode sitter.Node, field string) (*node.Node, error) {
	tsType := tsNode.Type()
	if tsType == errorNodeType {
		start := tsNode.StartPoint()

		return nil, fmt.Errorf("%w at %d:%d near %q", ErrSyntax, start.Row+1, start.Column+1, nz.excerpt(tsNode))
	}

	children := nz.namedChildren(tsNode)

	if len(children) == 1 && nz.table.ShouldUnwrap(tsType, children[0].Type()) {
		return nz.convert(children[0], field)
	}

	builder := node.NewBuilder().
		WithKind(nz.table.KindFor(tsType)).
		WithField(field).
		WithPosition(positions(tsNode)).
		WithRaw(Origin{Type: tsType, StartByte: tsNode.StartByte(), EndByte: tsNode.EndByte()})

	if nz.table.IsLeaf(tsType) {
		return builder.WithToken(nz.text(tsNode)).Build(), nil
	}

	if nz.table.IsOperator(tsType) {
		builder.WithToken(operatorText(tsNode))
	}

	fields := nz.fieldNames(tsNode, children)
	converted := make([]*node.Node, 0, len(children))

	for idx, child := range children {
		normalized, err := nz.convert(child, fields[idx])
		if err != nil {
			return nil, err
		}

		converted = append(converted, normalized)
	}

	return builder.WithChildren(converted...).Build(), nil
}

// namedChildren returns the named children that are not dropped.
func (nz *normalizer) namedChildren(tsNode sitter.Node) []sitter.Node {
	children := make([]sitter.Node, 0, tsNode.NamedChildCount())

	for idx := range tsNode.NamedChildCount() {
		child := tsNode.NamedChild(idx)
		if child.IsNull() || nz.table.IsDropped(child.Type()) {
			continue
		}

		children = append(children, child)
	}

	return children
}

// fieldNames resolves the tree-sitter field name of each child. Only the
// fields listed in the table for the parent type are looked up.
func (nz *normalizer) fieldNames(tsNode sitter.Node, children []sitter.Node) []string {
	names := make([]string, len(children))

	for _, fieldName := range nz.table.FieldsFor(tsNode.Type()) {
		fieldNode := tsNode.ChildByFieldName(fieldName)
		if fieldNode.IsNull() {
			continue
		}

		for idx, child := range children {
			if names[idx] == "" && sameNode(child, fieldNode) {
				names[idx] = fieldName

				break
			}
		}
	}

	return names
}

func sameNode(a, b sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// operatorText joins the anonymous children of an operator node, so
// "a not in b" yields "not in".
func operatorText(tsNode sitter.Node) string {
	var parts []string

	for idx := range tsNode.ChildCount() {
		child := tsNode.Child(idx)
		if child.IsNull() || child.IsNamed() {
			continue
		}

		parts = append(parts, child.Type())
	}

	return strings.Join(parts, " ")
}

func (nz *normalizer) text(tsNode sitter.Node) string {
	start := tsNode.StartByte()
	end := tsNode.EndByte()

	if safeconv.MustUintToInt(end) <= len(nz.source) && start <= end {
		return string(nz.source[start:end])
	}

	return ""
}

// maxExcerpt bounds the source quoted in syntax errors.
const maxExcerpt = 40

func (nz *normalizer) excerpt(tsNode sitter.Node) string {
	text := nz.text(tsNode)
	if line, _, found := strings.Cut(text, "\n"); found {
		text = line
	}

	if len(text) > maxExcerpt {
		text = text[:maxExcerpt]
	}

	return text
}

func positions(tsNode sitter.Node) *node.Positions {
	start := tsNode.StartPoint()
	end := tsNode.EndPoint()

	return node.NewPositions(
		start.Row+1,
		start.Column+1,
		tsNode.StartByte(),
		end.Row+1,
		end.Column+1,
		tsNode.EndByte(),
	)
}
