package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
	"github.com/Sumatoshi-tech/shapematch/pkg/mcp"
)

const accumulatorPattern = `_accu_ = 0
for _item_ in _iList_:
    _accu_ = _accu_ + _item_
`

const accumulatorSubmission = `total = 0
for n in numbers:
    total = total + n
print(total)
`

func newServer(t *testing.T, deps mcp.ServerDeps) *mcp.Server {
	t.Helper()

	chk, err := checker.New(nil)
	require.NoError(t, err)

	deps.Checker = chk

	return mcp.NewServer(deps)
}

// connect runs srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *mcp.Server) (context.Context, *mcpsdk.ClientSession) {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return ctx, session
}

func callTool(t *testing.T, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	ctx, session := connect(t, newServer(t, mcp.ServerDeps{}))

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	return result
}

func firstText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestNewServer_ToolsRegistered(t *testing.T) {
	t.Parallel()

	srv := newServer(t, mcp.ServerDeps{})

	assert.Equal(t, []string{mcp.ToolNameCheckAll, mcp.ToolNameMatch, mcp.ToolNameParse}, srv.ListToolNames())
}

func TestServer_ToolsList(t *testing.T) {
	t.Parallel()

	ctx, session := connect(t, newServer(t, mcp.ServerDeps{}))

	toolsResult, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, toolsResult.Tools, 3)

	for _, tool := range toolsResult.Tools {
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}
}

func TestServer_Run_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := newServer(t, mcp.ServerDeps{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, srv.Run(ctx))
}

func TestMatchTool(t *testing.T) {
	t.Parallel()

	result := callTool(t, mcp.ToolNameMatch, map[string]any{
		"pattern": accumulatorPattern,
		"code":    accumulatorSubmission,
	})
	require.False(t, result.IsError, firstText(t, result))

	var outcome mcp.PatternOutcome

	require.NoError(t, json.Unmarshal([]byte(firstText(t, result)), &outcome))
	assert.True(t, outcome.Matched)
	require.Len(t, outcome.Matches, 1)
	assert.Equal(t, "total", outcome.Matches[0].Bindings["accu"])
}

func TestMatchTool_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"empty code", map[string]any{"pattern": "x", "code": ""}, mcp.ErrEmptyCode.Error()},
		{"empty pattern", map[string]any{"pattern": "", "code": "x = 1"}, mcp.ErrEmptyPattern.Error()},
		{"syntax error", map[string]any{"pattern": "x = = 1", "code": "x = 1"}, "syntax error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := callTool(t, mcp.ToolNameMatch, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, firstText(t, result), tt.want)
		})
	}
}

func TestCheckAllTool(t *testing.T) {
	t.Parallel()

	result := callTool(t, mcp.ToolNameCheckAll, map[string]any{
		"code": accumulatorSubmission,
		"patterns": map[string]any{
			"accumulator": accumulatorPattern,
			"while-loop":  "while ___:\n    pass\n",
		},
	})
	require.False(t, result.IsError, firstText(t, result))

	var outcomes map[string]mcp.PatternOutcome

	require.NoError(t, json.Unmarshal([]byte(firstText(t, result)), &outcomes))
	assert.True(t, outcomes["accumulator"].Matched)
	assert.False(t, outcomes["while-loop"].Matched)
	assert.Empty(t, outcomes["while-loop"].Matches)

	empty := callTool(t, mcp.ToolNameCheckAll, map[string]any{"code": "x = 1", "patterns": map[string]any{}})
	assert.True(t, empty.IsError)
}

func TestParseTool(t *testing.T) {
	t.Parallel()

	sexpr := callTool(t, mcp.ToolNameParse, map[string]any{"code": "x = 0", "format": "sexpr"})
	require.False(t, sexpr.IsError)
	assert.Equal(t, "(Block (Assign (Name x) (Constant 0)))", firstText(t, sexpr))

	tree := callTool(t, mcp.ToolNameParse, map[string]any{"code": "x = 0"})
	require.False(t, tree.IsError)

	var root map[string]any

	require.NoError(t, json.Unmarshal([]byte(firstText(t, tree)), &root))
	assert.Equal(t, "Block", root["kind"])
}

func TestWithTracing_AppendsTraceID(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	ctx, session := connect(t, newServer(t, mcp.ServerDeps{Tracer: tp.Tracer("test")}))

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      mcp.ToolNameParse,
		Arguments: map[string]any{"code": "x = 0", "format": "sexpr"},
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 2)

	traceText, ok := result.Content[1].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, traceText.Text, "trace_id=")

	names := make([]string, 0)
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}

	assert.Contains(t, names, "mcp."+mcp.ToolNameParse)
}
