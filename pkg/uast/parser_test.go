package uast_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/shapematch/pkg/uast"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/mapping"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

func newParser(t *testing.T, opts ...uast.Option) *uast.Parser {
	t.Helper()

	parser, err := uast.NewParser(opts...)
	require.NoError(t, err)

	return parser
}

func TestParse_Normalization(t *testing.T) {
	t.Parallel()

	parser := newParser(t)

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"assignment", "x = 0", "(Block (Assign (Name x) (Constant 0)))"},
		{"call statement", "print(x)", "(Block (Expr (Call (Name print) (Arguments (Name x)))))"},
		{"binary operator", "y = a + b", "(Block (Assign (Name y) (BinOp + (Name a) (Name b))))"},
		{"parentheses unwrapped", "y = (a)", "(Block (Assign (Name y) (Name a)))"},
		{"augmented assignment", "n += 1", "(Block (AugAssign += (Name n) (Constant 1)))"},
		{"comparison", "ok = a not in b", "(Block (Assign (Name ok) (Compare not in (Name a) (Name b))))"},
		{"boolean operator", "ok = a and b", "(Block (Assign (Name ok) (BoolOp and (Name a) (Name b))))"},
		{"string constant", `s = "hi"`, `(Block (Assign (Name s) (Constant "hi")))`},
		{"comment dropped", "x = 1  # note", "(Block (Assign (Name x) (Constant 1)))"},
		{"list", "xs = [1, 2]", "(Block (Assign (Name xs) (List (Constant 1) (Constant 2))))"},
		{
			"for loop",
			"for n in numbers:\n    pass\n",
			"(Block (For (Name n) (Name numbers) (Block (Pass))))",
		},
		{"placeholders", "___ = __e__", "(Block (Assign (Name ___) (Name __e__)))"},
		{"empty source", "", "(Block)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, err := parser.ParseString(context.Background(), tt.src)
			require.NoError(t, err)

			assert.Equal(t, tt.want, root.String())
		})
	}
}

func TestParse_FieldsAndPositions(t *testing.T) {
	t.Parallel()

	root, err := newParser(t).ParseString(context.Background(), "total = 0\nfor n in xs:\n    total = total + n\n")
	require.NoError(t, err)

	require.Len(t, root.Children, 2)

	loop := root.Children[1]
	require.Equal(t, node.KindFor, loop.Kind)
	require.Len(t, loop.Children, 3)

	assert.Equal(t, "left", loop.Children[0].Field)
	assert.Equal(t, "right", loop.Children[1].Field)
	assert.Equal(t, "body", loop.Children[2].Field)

	require.NotNil(t, loop.Pos)
	assert.Equal(t, uint(2), loop.Pos.StartLine)
	assert.Equal(t, uint(1), loop.Pos.StartCol)

	origin, ok := loop.Raw.(uast.Origin)
	require.True(t, ok)
	assert.Equal(t, "for_statement", origin.Type)

	for _, n := range root.PreOrder() {
		assert.NotNil(t, n.Children, "children must never be nil")
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	parser := newParser(t, uast.WithMaxSourceSize(16))
	ctx := context.Background()

	_, err := parser.Parse(ctx, "", nil)
	require.ErrorIs(t, err, uast.ErrNilContent)

	_, err = parser.ParseString(ctx, strings.Repeat("x", 17))
	require.ErrorIs(t, err, uast.ErrSourceTooLarge)

	_, err = parser.ParseString(ctx, "x = = 1")
	require.ErrorIs(t, err, uast.ErrSyntax)

	_, err = parser.ParseString(ctx, "x = 1\x00")
	require.ErrorIs(t, err, uast.ErrBinaryContent)

	_, err = parser.Parse(ctx, "main.go", []byte("package main\n"))
	require.ErrorIs(t, err, uast.ErrUnsupportedLanguage)

	canceled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = parser.ParseString(canceled, "x = 1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestParse_AcceptsPythonAndUnknownFiles(t *testing.T) {
	t.Parallel()

	parser := newParser(t)

	for _, filename := range []string{"solution.py", "notes.txt"} {
		_, err := parser.Parse(context.Background(), filename, []byte("x = 1\n"))
		assert.NoError(t, err, filename)
	}
}

func TestParse_IgnoresByteOrderMark(t *testing.T) {
	t.Parallel()

	parser := newParser(t)

	plain, err := parser.ParseString(context.Background(), "x = 1\n")
	require.NoError(t, err)

	marked, err := parser.ParseString(context.Background(), "\xEF\xBB\xBFx = 1\n")
	require.NoError(t, err)

	assert.Equal(t, plain.String(), marked.String())
}

func TestNewParser_CustomMapping(t *testing.T) {
	t.Parallel()

	table, err := mapping.Load(strings.NewReader("language: python\nrename:\n  identifier: Ident\n  module: Block\nleaf: [identifier, integer]\n"))
	require.NoError(t, err)

	parser := newParser(t, uast.WithMapping(table))

	root, err := parser.ParseString(context.Background(), "x = 1")
	require.NoError(t, err)

	assert.Equal(t, "(Block (ExpressionStatement (Assignment (Ident x) (Integer 1))))", root.String())
	assert.Same(t, table, parser.Table())
	assert.Equal(t, "python", parser.Language())
}

func TestNewParser_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	table, err := mapping.Load(strings.NewReader("language: cobol\nrename:\n  identifier: Name\n"))
	require.NoError(t, err)

	_, err = uast.NewParser(uast.WithMapping(table))
	require.ErrorIs(t, err, uast.ErrUnsupportedLanguage)
}

func TestParser_ConcurrentUse(t *testing.T) {
	t.Parallel()

	parser := newParser(t)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			root, err := parser.ParseString(context.Background(), "for i in xs:\n    print(i)\n")
			assert.NoError(t, err)
			assert.Equal(t, 10, root.Count())
		}()
	}

	wg.Wait()
}

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "python", uast.DetectLanguage("main.py", []byte("print(1)\n")))
	assert.Contains(t, uast.SupportedLanguages(), "python")
	assert.NotNil(t, uast.GetLanguage("python"))
	assert.Nil(t, uast.GetLanguage("cobol"))
}
