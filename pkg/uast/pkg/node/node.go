// Package node provides the normalized tree structure shared by pattern and
// subject programs, together with traversal and debugging helpers.
package node

import (
	"strconv"
	"strings"
)

// Kind is the syntactic category of a normalized node.
type Kind string

// Normalized kinds produced by the embedded Python mapping.
const (
	KindBlock     Kind = "Block"
	KindExpr      Kind = "Expr"
	KindAssign    Kind = "Assign"
	KindAugAssign Kind = "AugAssign"
	KindFor       Kind = "For"
	KindWhile     Kind = "While"
	KindIf        Kind = "If"
	KindElif      Kind = "Elif"
	KindElse      Kind = "Else"
	KindFunction  Kind = "FunctionDef"
	KindReturn    Kind = "Return"
	KindPass      Kind = "Pass"
	KindName      Kind = "Name"
	KindConstant  Kind = "Constant"
	KindBinOp     Kind = "BinOp"
	KindBoolOp    Kind = "BoolOp"
	KindCompare   Kind = "Compare"
	KindUnaryOp   Kind = "UnaryOp"
	KindCall      Kind = "Call"
	KindArguments Kind = "Arguments"
	KindAttribute Kind = "Attribute"
	KindSubscript Kind = "Subscript"
	KindList      Kind = "List"
	KindTuple     Kind = "Tuple"
	KindDict      Kind = "Dict"
)

// Positions represents the byte and line/col offsets for a node.
// All fields are 1-based except StartOffset/EndOffset, which are byte offsets.
type Positions struct {
	StartLine   uint `json:"start_line,omitempty"`
	StartCol    uint `json:"start_col,omitempty"`
	StartOffset uint `json:"start_offset,omitempty"`
	EndLine     uint `json:"end_line,omitempty"`
	EndCol      uint `json:"end_col,omitempty"`
	EndOffset   uint `json:"end_offset,omitempty"`
}

// NewPositions creates a Positions value.
func NewPositions(startLine, startCol, startOffset, endLine, endCol, endOffset uint) *Positions {
	return &Positions{
		StartLine:   startLine,
		StartCol:    startCol,
		StartOffset: startOffset,
		EndLine:     endLine,
		EndCol:      endCol,
		EndOffset:   endOffset,
	}
}

// String renders the start of the range as "line:col".
func (pos *Positions) String() string {
	if pos == nil {
		return "?:?"
	}

	return strconv.FormatUint(uint64(pos.StartLine), 10) + ":" + strconv.FormatUint(uint64(pos.StartCol), 10)
}

// Node is a normalized tree node.
//
// Fields:
//
//	Kind: syntactic category (e.g., "Assign", "Name").
//	Field: name of the parent attribute that produced this child. Display only.
//	Token: literal payload (identifier name, constant text, operator).
//	Children: ordered child nodes. Never nil for constructed nodes.
//	Pos: source position (optional).
//	Raw: the originating parser node. Never compared.
type Node struct {
	Kind     Kind       `json:"kind"`
	Field    string     `json:"field,omitempty"`
	Token    string     `json:"token,omitempty"`
	Children []*Node    `json:"children"`
	Pos      *Positions `json:"pos,omitempty"`
	Raw      any        `json:"-"`
}

// Allocation constants.
const (
	initialChildCap = 4
	defaultStackCap = 64
)

// New creates a leaf node with the given kind and token.
func New(kind Kind, token string) *Node {
	return &Node{
		Kind:     kind,
		Token:    token,
		Children: make([]*Node, 0, initialChildCap),
	}
}

// NodeBuilder provides a fluent interface for building Node instances.
type NodeBuilder struct {
	node *Node
}

// NewBuilder creates a new NodeBuilder.
func NewBuilder() *NodeBuilder {
	return &NodeBuilder{node: &Node{}}
}

// WithKind sets the node kind.
func (builder *NodeBuilder) WithKind(kind Kind) *NodeBuilder {
	builder.node.Kind = kind

	return builder
}

// WithField sets the parent field name.
func (builder *NodeBuilder) WithField(field string) *NodeBuilder {
	builder.node.Field = field

	return builder
}

// WithToken sets the literal payload.
func (builder *NodeBuilder) WithToken(token string) *NodeBuilder {
	builder.node.Token = token

	return builder
}

// WithPosition sets the node position.
func (builder *NodeBuilder) WithPosition(pos *Positions) *NodeBuilder {
	builder.node.Pos = pos

	return builder
}

// WithRaw attaches the originating parser node.
func (builder *NodeBuilder) WithRaw(raw any) *NodeBuilder {
	builder.node.Raw = raw

	return builder
}

// WithChildren sets the children. A nil slice becomes an empty one.
func (builder *NodeBuilder) WithChildren(children ...*Node) *NodeBuilder {
	builder.node.Children = append(make([]*Node, 0, len(children)), children...)

	return builder
}

// Build returns the final Node.
func (builder *NodeBuilder) Build() *Node {
	if builder.node.Children == nil {
		builder.node.Children = make([]*Node, 0, initialChildCap)
	}

	return builder.node
}

// AddChild appends a child node.
func (targetNode *Node) AddChild(child *Node) {
	targetNode.Children = append(targetNode.Children, child)
}

// IsLeaf reports whether the node has no children.
func (targetNode *Node) IsLeaf() bool {
	return len(targetNode.Children) == 0
}

// PreOrder returns every node of the tree (root first, children left to
// right). Returns nil if the node is nil.
func (targetNode *Node) PreOrder() []*Node {
	if targetNode == nil {
		return nil
	}

	var result []*Node

	stack := make([]*Node, 0, defaultStackCap)
	stack = append(stack, targetNode)

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if curr == nil {
			continue
		}

		result = append(result, curr)
		stack = pushChildrenReversed(stack, curr.Children)
	}

	return result
}

func pushChildrenReversed(stack, children []*Node) []*Node {
	for idx := len(children) - 1; idx >= 0; idx-- {
		stack = append(stack, children[idx])
	}

	return stack
}

// VisitPreOrder calls fn for every node in pre-order.
func (targetNode *Node) VisitPreOrder(fn func(*Node)) {
	for _, visitNode := range targetNode.PreOrder() {
		fn(visitNode)
	}
}

// Find returns all nodes in the tree (including root) for which predicate is true.
// Traversal is pre-order. Returns nil if the node is nil.
func (targetNode *Node) Find(predicate func(*Node) bool) []*Node {
	var result []*Node

	for _, candidate := range targetNode.PreOrder() {
		if predicate(candidate) {
			result = append(result, candidate)
		}
	}

	return result
}

// Count returns the number of nodes in the tree.
func (targetNode *Node) Count() int {
	return len(targetNode.PreOrder())
}

// ToMap converts the node to a JSON-ready map.
func (targetNode *Node) ToMap() map[string]any {
	if targetNode == nil {
		return nil
	}

	result := map[string]any{
		"kind": string(targetNode.Kind),
	}

	if targetNode.Field != "" {
		result["field"] = targetNode.Field
	}

	if targetNode.Token != "" {
		result["token"] = targetNode.Token
	}

	if targetNode.Pos != nil {
		result["pos"] = map[string]any{
			"start_line": targetNode.Pos.StartLine,
			"start_col":  targetNode.Pos.StartCol,
			"end_line":   targetNode.Pos.EndLine,
			"end_col":    targetNode.Pos.EndCol,
		}
	}

	if len(targetNode.Children) > 0 {
		children := make([]map[string]any, len(targetNode.Children))

		for idx, child := range targetNode.Children {
			children[idx] = child.ToMap()
		}

		result["children"] = children
	}

	return result
}

// String returns a compact s-expression, e.g. (Assign (Name x) (Constant 0)).
func (targetNode *Node) String() string {
	var buf strings.Builder

	writeSExpr(&buf, targetNode)

	return buf.String()
}

func writeSExpr(buf *strings.Builder, targetNode *Node) {
	if targetNode == nil {
		buf.WriteString("nil")

		return
	}

	buf.WriteString("(")
	buf.WriteString(string(targetNode.Kind))

	if targetNode.Token != "" {
		buf.WriteString(" ")
		buf.WriteString(targetNode.Token)
	}

	for _, child := range targetNode.Children {
		buf.WriteString(" ")
		writeSExpr(buf, child)
	}

	buf.WriteString(")")
}

// Indented renders the tree one node per line, indented by depth, with
// field names and positions. Used by the CLI tree view.
func (targetNode *Node) Indented() string {
	var buf strings.Builder

	writeIndented(&buf, targetNode, 0)

	return buf.String()
}

func writeIndented(buf *strings.Builder, targetNode *Node, depth int) {
	if targetNode == nil {
		return
	}

	buf.WriteString(strings.Repeat("  ", depth))

	if targetNode.Field != "" {
		buf.WriteString(targetNode.Field)
		buf.WriteString(": ")
	}

	buf.WriteString(string(targetNode.Kind))

	if targetNode.Token != "" {
		buf.WriteString(" ")
		buf.WriteString(strconv.Quote(targetNode.Token))
	}

	if targetNode.Pos != nil {
		buf.WriteString(" @")
		buf.WriteString(targetNode.Pos.String())
	}

	buf.WriteString("\n")

	for _, child := range targetNode.Children {
		writeIndented(buf, child, depth+1)
	}
}
