package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
)

// Tool name constants.
const (
	ToolNameMatch    = "shapematch_match"
	ToolNameCheckAll = "shapematch_check_all"
	ToolNameParse    = "shapematch_parse"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

const formatSExpr = "sexpr"

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrEmptyPattern indicates the pattern parameter is empty.
	ErrEmptyPattern = errors.New("pattern parameter is required and must not be empty")
	// ErrNoPatterns indicates the patterns parameter is empty.
	ErrNoPatterns = errors.New("patterns parameter must name at least one pattern")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
)

// Input types (auto-generate JSON schemas via struct tags).

// MatchInput is the input schema for the shapematch_match tool.
type MatchInput struct {
	Code    string `json:"code"    jsonschema:"Python source to search"`
	Pattern string `json:"pattern" jsonschema:"Python pattern with placeholders"`
}

// CheckAllInput is the input schema for the shapematch_check_all tool.
type CheckAllInput struct {
	Code     string            `json:"code"     jsonschema:"Python source to search"`
	Patterns map[string]string `json:"patterns" jsonschema:"patterns keyed by name"`
}

// ParseInput is the input schema for the shapematch_parse tool.
type ParseInput struct {
	Code   string `json:"code"             jsonschema:"Python source to parse"`
	Format string `json:"format,omitempty" jsonschema:"json (default) or sexpr"`
}

// Output type (used as structured output for generic AddTool).

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// PatternOutcome is the per-pattern result returned by the tools.
type PatternOutcome struct {
	Pattern string                `json:"pattern"`
	Matched bool                  `json:"matched"`
	Matches []checker.MatchReport `json:"matches"`
}

func newOutcome(name string, result *checker.Result) PatternOutcome {
	return PatternOutcome{
		Pattern: name,
		Matched: result.Matched(),
		Matches: result.Reports(),
	}
}

func (s *Server) handleMatch(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input MatchInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	if input.Pattern == "" {
		return errorResult(ErrEmptyPattern)
	}

	result, err := s.checker.Check(ctx, input.Pattern, input.Code)
	if err != nil {
		return errorResult(fmt.Errorf("check: %w", err))
	}

	return jsonResult(newOutcome(result.Pattern, result))
}

func (s *Server) handleCheckAll(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input CheckAllInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	if len(input.Patterns) == 0 {
		return errorResult(ErrNoPatterns)
	}

	results, err := s.checker.CheckAll(ctx, input.Patterns, input.Code)
	if err != nil {
		return errorResult(fmt.Errorf("check: %w", err))
	}

	outcomes := make(map[string]PatternOutcome, len(results))
	for name, result := range results {
		outcomes[name] = newOutcome(name, result)
	}

	return jsonResult(outcomes)
}

func (s *Server) handleParse(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ParseInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	root, err := s.checker.Parser().ParseString(ctx, input.Code)
	if err != nil {
		return errorResult(fmt.Errorf("parse code: %w", err))
	}

	if input.Format == formatSExpr {
		return textResult(root.String())
	}

	return jsonResult(root.ToMap())
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func textResult(text string) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
	}, ToolOutput{Data: text}, nil
}

// validateCode checks common code input constraints.
func validateCode(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
