// Package uast parses source text with tree-sitter and normalizes the
// resulting syntax tree into node.Node values using a mapping table.
package uast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/shapematch/pkg/textutil"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/mapping"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

// DefaultMaxSourceSize is the largest source accepted when no limit is configured.
const DefaultMaxSourceSize = 1 << 20

const defaultLanguage = "python"

// Sentinel errors.
var (
	ErrSourceTooLarge      = errors.New("source too large")
	ErrSyntax              = errors.New("syntax error")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNilContent          = errors.New("nil content")
	ErrBinaryContent       = errors.New("binary content")
	errNoRootNode          = errors.New("parser: no root node")
	errPoolType            = errors.New("parser: pool returned unexpected type")
)

// Parser turns source text into normalized trees. It is safe for
// concurrent use: tree-sitter parsers are pooled.
type Parser struct {
	table         *mapping.Table
	language      *sitter.Language
	tsParserPool  sync.Pool
	maxSourceSize int64
	logger        *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithMapping replaces the embedded mapping table.
func WithMapping(table *mapping.Table) Option {
	return func(parser *Parser) {
		parser.table = table
	}
}

// WithMaxSourceSize limits the size of accepted sources in bytes.
func WithMaxSourceSize(limit int64) Option {
	return func(parser *Parser) {
		parser.maxSourceSize = limit
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(parser *Parser) {
		if logger != nil {
			parser.logger = logger
		}
	}
}

// NewParser creates a parser. Without WithMapping the embedded Python table is used.
func NewParser(opts ...Option) (*Parser, error) {
	parser := &Parser{
		maxSourceSize: DefaultMaxSourceSize,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(parser)
	}

	if parser.table == nil {
		table, err := mapping.Embedded(defaultLanguage)
		if err != nil {
			return nil, fmt.Errorf("load embedded mapping: %w", err)
		}

		parser.table = table
	}

	lang := GetLanguage(parser.table.Language)
	if lang == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, parser.table.Language)
	}

	parser.language = lang
	parser.tsParserPool = sync.Pool{
		New: func() any {
			tsParser := sitter.NewParser()
			tsParser.SetLanguage(lang)

			return tsParser
		},
	}

	return parser, nil
}

// Table returns the active mapping table.
func (parser *Parser) Table() *mapping.Table {
	return parser.table
}

// Language returns the name of the parsed language.
func (parser *Parser) Language() string {
	return parser.table.Language
}

// ParseString parses source text that has no file name.
func (parser *Parser) ParseString(ctx context.Context, src string) (*node.Node, error) {
	return parser.Parse(ctx, "", []byte(src))
}

// Parse parses content and returns the normalized tree. When filename is
// set, files recognized as another programming language are rejected.
func (parser *Parser) Parse(ctx context.Context, filename string, content []byte) (*node.Node, error) {
	if content == nil {
		return nil, ErrNilContent
	}

	if parser.maxSourceSize > 0 && int64(len(content)) > parser.maxSourceSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrSourceTooLarge, len(content), parser.maxSourceSize)
	}

	if textutil.IsBinary(content) {
		return nil, fmt.Errorf("%w: %s", ErrBinaryContent, displayName(filename))
	}

	content = textutil.StripBOM(content)

	if filename != "" && !parser.table.HasExtension(filepath.Ext(filename)) &&
		isForeignProgram(filename, content, parser.table.Language) {
		return nil, fmt.Errorf("%w: %s is not %s", ErrUnsupportedLanguage, filename, parser.table.Language)
	}

	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	tsParser, ok := parser.tsParserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parser.tsParserPool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", displayName(filename), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	nz := &normalizer{table: parser.table, source: content}

	normalized, err := nz.convert(root, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(filename), err)
	}

	parser.logger.Debug("parsed source",
		"file", displayName(filename),
		"bytes", len(content),
		"lines", textutil.CountLines(content),
		"nodes", normalized.Count(),
	)

	return normalized, nil
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}

	return filename
}
