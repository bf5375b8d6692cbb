package match

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// Pair links a pattern node to the subject node it matched.
type Pair struct {
	Pattern *node.Node
	Subject *node.Node
}

// Binding is one occurrence of a variable metavariable and the subject
// identifier it was matched against.
type Binding struct {
	Name string
	Node *node.Node
}

// AstMap accumulates the result of one match attempt: node pairings,
// metavariable occurrences, captured expressions and conflicting names.
//
// Symbol bindings are kept in an index-keyed arena: names holds the
// metavariables in order of first occurrence and bindings[i] is the
// occurrence list of names[i].
type AstMap struct {
	mappings  []Pair
	seen      map[Pair]struct{}
	names     []string
	index     map[string]int
	bindings  [][]Binding
	exp       map[string]*node.Node
	conflicts map[string]struct{}
}

// NewAstMap creates an empty map.
func NewAstMap() *AstMap {
	return &AstMap{
		seen:      make(map[Pair]struct{}),
		index:     make(map[string]int),
		exp:       make(map[string]*node.Node),
		conflicts: make(map[string]struct{}),
	}
}

// AddPair records that pattern node p matched subject node s. Identical
// pairs are stored once.
func (am *AstMap) AddPair(p, s *node.Node) {
	pair := Pair{Pattern: p, Subject: s}
	if _, dup := am.seen[pair]; dup {
		return
	}

	am.seen[pair] = struct{}{}
	am.mappings = append(am.mappings, pair)
}

// AddVarToSymTable appends an occurrence of metavar bound to the identifier
// ident. The metavariable becomes conflicting when an earlier occurrence was
// bound to a different identifier.
func (am *AstMap) AddVarToSymTable(metavar, ident string, bound *node.Node) {
	idx, ok := am.index[metavar]
	if !ok {
		idx = len(am.names)
		am.index[metavar] = idx
		am.names = append(am.names, metavar)
		am.bindings = append(am.bindings, nil)
	}

	// Earlier occurrences either all agree or the key is already conflicting,
	// so the first one is enough to compare against.
	if existing := am.bindings[idx]; len(existing) > 0 && existing[0].Name != ident {
		am.conflicts[metavar] = struct{}{}
	}

	am.bindings[idx] = append(am.bindings[idx], Binding{Name: ident, Node: bound})
}

// SetExp captures a subject subtree under an expression metavariable.
// Later captures of the same name replace earlier ones.
func (am *AstMap) SetExp(name string, captured *node.Node) {
	am.exp[name] = captured
}

// MergeMapWith folds other into am. Pairs are unioned, occurrence lists are
// concatenated in order, conflicts are re-evaluated and captures from other
// win. other is not modified.
func (am *AstMap) MergeMapWith(other *AstMap) {
	if other == nil {
		return
	}

	for _, pair := range other.mappings {
		am.AddPair(pair.Pattern, pair.Subject)
	}

	for idx, name := range other.names {
		for _, binding := range other.bindings[idx] {
			am.AddVarToSymTable(name, binding.Name, binding.Node)
		}
	}

	for name, captured := range other.exp {
		am.exp[name] = captured
	}
}

// Clone returns a deep copy that shares only the tree nodes.
func (am *AstMap) Clone() *AstMap {
	clone := &AstMap{
		mappings:  slices.Clone(am.mappings),
		seen:      make(map[Pair]struct{}, len(am.seen)),
		names:     slices.Clone(am.names),
		index:     make(map[string]int, len(am.index)),
		bindings:  make([][]Binding, len(am.bindings)),
		exp:       make(map[string]*node.Node, len(am.exp)),
		conflicts: make(map[string]struct{}, len(am.conflicts)),
	}

	for pair := range am.seen {
		clone.seen[pair] = struct{}{}
	}

	for name, idx := range am.index {
		clone.index[name] = idx
	}

	for idx, list := range am.bindings {
		clone.bindings[idx] = slices.Clone(list)
	}

	for name, captured := range am.exp {
		clone.exp[name] = captured
	}

	for name := range am.conflicts {
		clone.conflicts[name] = struct{}{}
	}

	return clone
}

// Mappings returns the recorded pairs in the order they were matched.
func (am *AstMap) Mappings() []Pair {
	return slices.Clone(am.mappings)
}

// Len returns the number of recorded pairs.
func (am *AstMap) Len() int {
	return len(am.mappings)
}

// SymbolTable returns a copy of the occurrence lists keyed by metavariable.
func (am *AstMap) SymbolTable() map[string][]Binding {
	table := make(map[string][]Binding, len(am.names))

	for idx, name := range am.names {
		table[name] = slices.Clone(am.bindings[idx])
	}

	return table
}

// SymbolNames returns the bound metavariable names, sorted.
func (am *AstMap) SymbolNames() []string {
	names := slices.Clone(am.names)
	slices.Sort(names)

	return names
}

// Occurrences returns how many times metavar was matched.
func (am *AstMap) Occurrences(metavar string) int {
	idx, ok := am.index[metavar]
	if !ok {
		return 0
	}

	return len(am.bindings[idx])
}

// Bound returns the identifier the first occurrence of metavar was bound to.
func (am *AstMap) Bound(metavar string) (string, bool) {
	idx, ok := am.index[metavar]
	if !ok || len(am.bindings[idx]) == 0 {
		return "", false
	}

	return am.bindings[idx][0].Name, true
}

// ExpTable returns a copy of the captured expressions.
func (am *AstMap) ExpTable() map[string]*node.Node {
	table := make(map[string]*node.Node, len(am.exp))

	for name, captured := range am.exp {
		table[name] = captured
	}

	return table
}

// ConflictKeys returns the conflicting metavariable names, sorted.
func (am *AstMap) ConflictKeys() []string {
	keys := make([]string, 0, len(am.conflicts))

	for name := range am.conflicts {
		keys = append(keys, name)
	}

	slices.Sort(keys)

	return keys
}

// HasConflicts reports whether any metavariable was bound inconsistently.
func (am *AstMap) HasConflicts() bool {
	return len(am.conflicts) > 0
}

// String renders a one-line summary, e.g.
// AstMap{pairs=3 sym=[x:total*2] exp=[e:(Constant 0)] conflicts=[]}.
func (am *AstMap) String() string {
	var buf strings.Builder

	buf.WriteString("AstMap{pairs=")
	buf.WriteString(strconv.Itoa(len(am.mappings)))
	buf.WriteString(" sym=[")

	for pos, name := range am.SymbolNames() {
		if pos > 0 {
			buf.WriteString(" ")
		}

		ident, _ := am.Bound(name)

		buf.WriteString(name)
		buf.WriteString(":")
		buf.WriteString(ident)
		buf.WriteString("*")
		buf.WriteString(strconv.Itoa(am.Occurrences(name)))
	}

	buf.WriteString("] exp=[")

	expNames := make([]string, 0, len(am.exp))
	for name := range am.exp {
		expNames = append(expNames, name)
	}

	slices.Sort(expNames)

	for pos, name := range expNames {
		if pos > 0 {
			buf.WriteString(" ")
		}

		buf.WriteString(name)
		buf.WriteString(":")
		buf.WriteString(am.exp[name].String())
	}

	buf.WriteString("] conflicts=[")
	buf.WriteString(strings.Join(am.ConflictKeys(), " "))
	buf.WriteString("]}")

	return buf.String()
}
