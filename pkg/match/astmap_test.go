package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/shapematch/pkg/match"
)

func TestAstMap_AddPairDeduplicates(t *testing.T) {
	t.Parallel()

	p, s, other := name("_x_"), name("x"), name("y")

	am := match.NewAstMap()
	am.AddPair(p, s)
	am.AddPair(p, s)
	am.AddPair(p, other)

	require.Equal(t, 2, am.Len())
	assert.Equal(t, []match.Pair{{Pattern: p, Subject: s}, {Pattern: p, Subject: other}}, am.Mappings())
}

func TestAstMap_AddVarToSymTable(t *testing.T) {
	t.Parallel()

	am := match.NewAstMap()
	am.AddVarToSymTable("x", "total", name("total"))
	am.AddVarToSymTable("y", "total", name("total"))
	am.AddVarToSymTable("x", "total", name("total"))

	assert.False(t, am.HasConflicts(), "many-to-one must not conflict")
	assert.Equal(t, 2, am.Occurrences("x"))
	assert.Equal(t, 1, am.Occurrences("y"))
	assert.Equal(t, 0, am.Occurrences("z"))

	am.AddVarToSymTable("x", "count", name("count"))
	am.AddVarToSymTable("x", "other", name("other"))

	assert.True(t, am.HasConflicts())
	assert.Equal(t, []string{"x"}, am.ConflictKeys())
	assert.Equal(t, []string{"x", "y"}, am.SymbolNames())

	ident, ok := am.Bound("x")
	require.True(t, ok)
	assert.Equal(t, "total", ident)

	_, ok = am.Bound("missing")
	assert.False(t, ok)

	table := am.SymbolTable()
	require.Len(t, table["x"], 4)
	assert.Equal(t, "count", table["x"][2].Name)
	assert.Equal(t, "other", table["x"][3].Name)
}

func TestAstMap_ConflictKeysSubsetOfSymbols(t *testing.T) {
	t.Parallel()

	am := match.NewAstMap()
	am.AddVarToSymTable("a", "x", name("x"))
	am.AddVarToSymTable("a", "y", name("y"))
	am.AddVarToSymTable("b", "x", name("x"))
	am.AddVarToSymTable("b", "z", name("z"))

	table := am.SymbolTable()
	for _, key := range am.ConflictKeys() {
		assert.Contains(t, table, key)
	}

	assert.Equal(t, []string{"a", "b"}, am.ConflictKeys())
}

func TestAstMap_SetExpLastWriteWins(t *testing.T) {
	t.Parallel()

	first, second := constant("1"), constant("2")

	am := match.NewAstMap()
	am.SetExp("e", first)
	am.SetExp("e", second)

	assert.Same(t, second, am.ExpTable()["e"])
}

func TestAstMap_MergeMapWith(t *testing.T) {
	t.Parallel()

	p1, s1 := name("_a_"), name("x")
	p2, s2 := name("_a_"), name("y")

	left := match.NewAstMap()
	left.AddPair(p1, s1)
	left.AddVarToSymTable("a", "x", s1)
	left.SetExp("e", s1)

	right := match.NewAstMap()
	right.AddPair(p1, s1)
	right.AddPair(p2, s2)
	right.AddVarToSymTable("a", "y", s2)
	right.SetExp("e", s2)

	left.MergeMapWith(right)

	assert.Equal(t, 2, left.Len())
	assert.Equal(t, 2, left.Occurrences("a"))
	assert.Equal(t, []string{"a"}, left.ConflictKeys())
	assert.Same(t, s2, left.ExpTable()["e"])

	assert.Equal(t, 2, right.Len(), "merge must not touch its argument")
	assert.Equal(t, 1, right.Occurrences("a"))
	assert.False(t, right.HasConflicts())

	left.MergeMapWith(nil)
	assert.Equal(t, 2, left.Len())
}

func TestAstMap_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := match.NewAstMap()
	orig.AddPair(name("p"), name("s"))
	orig.AddVarToSymTable("a", "x", name("x"))

	clone := orig.Clone()
	clone.AddPair(name("q"), name("t"))
	clone.AddVarToSymTable("a", "y", name("y"))
	clone.SetExp("e", constant("0"))

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, 1, orig.Occurrences("a"))
	assert.False(t, orig.HasConflicts())
	assert.Empty(t, orig.ExpTable())

	assert.Equal(t, 2, clone.Len())
	assert.True(t, clone.HasConflicts())
}

func TestAstMap_String(t *testing.T) {
	t.Parallel()

	am := match.NewAstMap()
	am.AddPair(name("_x_"), name("total"))
	am.AddVarToSymTable("x", "total", name("total"))
	am.AddVarToSymTable("x", "total", name("total"))
	am.SetExp("e", constant("0"))

	assert.Equal(t, "AstMap{pairs=1 sym=[x:total*2] exp=[e:(Constant 0)] conflicts=[]}", am.String())
}
