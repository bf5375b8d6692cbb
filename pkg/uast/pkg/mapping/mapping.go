// Package mapping provides the tables that turn tree-sitter node types into
// normalized node kinds.
package mapping

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

//go:embed tables/*.yaml tables/schema.json
var tablesFS embed.FS

const schemaPath = "tables/schema.json"

// maxReportedViolations caps how many schema violations are listed in an error.
const maxReportedViolations = 3

// Sentinel errors.
var (
	ErrInvalidMapping  = errors.New("invalid mapping table")
	ErrMappingNotFound = errors.New("mapping table not found")
)

// Table describes how one tree-sitter grammar is normalized.
//
// Rename maps tree-sitter types to kinds; types not listed become the
// CamelCase form of their name. Leaf types keep their source text as the
// token and lose their children. Operator types take the text of their
// anonymous children as the token. Unwrap types are replaced by their only
// named child, and UnwrapWhenChild does the same only for the listed child
// types. Drop types are omitted. Fields lists, per type, the tree-sitter
// field names recorded on children.
type Table struct {
	Language        string              `yaml:"language"`
	Extensions      []string            `yaml:"extensions"`
	Rename          map[string]string   `yaml:"rename"`
	Leaf            []string            `yaml:"leaf"`
	Operator        []string            `yaml:"operator"`
	Unwrap          []string            `yaml:"unwrap"`
	UnwrapWhenChild map[string][]string `yaml:"unwrap_when_child"`
	Drop            []string            `yaml:"drop"`
	Fields          map[string][]string `yaml:"fields"`
}

// Embedded returns the built-in table for language.
func Embedded(language string) (*Table, error) {
	data, err := tablesFS.ReadFile("tables/" + language + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMappingNotFound, language)
	}

	return Load(bytes.NewReader(data))
}

// Languages lists the languages with a built-in table.
func Languages() []string {
	entries, err := tablesFS.ReadDir("tables")
	if err != nil {
		return nil
	}

	var langs []string

	for _, entry := range entries {
		if lang, ok := strings.CutSuffix(entry.Name(), ".yaml"); ok {
			langs = append(langs, lang)
		}
	}

	return langs
}

// LoadFile reads a table from a YAML file.
func LoadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMappingNotFound, path)
		}

		return nil, fmt.Errorf("open mapping %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Load decodes a table and validates it against the table schema.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var raw any

	err = yaml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	err = validate(raw)
	if err != nil {
		return nil, err
	}

	var table Table

	err = yaml.Unmarshal(data, &table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	return &table, nil
}

func validate(raw any) error {
	schema, err := tablesFS.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("read mapping schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, maxReportedViolations)

	for _, verr := range result.Errors() {
		if len(violations) == maxReportedViolations {
			break
		}

		violations = append(violations, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidMapping, strings.Join(violations, "; "))
}

// KindFor returns the normalized kind for a tree-sitter type.
func (t *Table) KindFor(tsType string) node.Kind {
	if kind, ok := t.Rename[tsType]; ok {
		return node.Kind(kind)
	}

	return node.Kind(camelCase(tsType))
}

// IsLeaf reports whether the type keeps its text and drops its children.
func (t *Table) IsLeaf(tsType string) bool {
	return slices.Contains(t.Leaf, tsType)
}

// IsOperator reports whether the type takes its operator text as token.
func (t *Table) IsOperator(tsType string) bool {
	return slices.Contains(t.Operator, tsType)
}

// ShouldUnwrap reports whether a node of tsType with the single named
// child childType is replaced by that child.
func (t *Table) ShouldUnwrap(tsType, childType string) bool {
	if slices.Contains(t.Unwrap, tsType) {
		return true
	}

	return slices.Contains(t.UnwrapWhenChild[tsType], childType)
}

// IsDropped reports whether nodes of the type are omitted.
func (t *Table) IsDropped(tsType string) bool {
	return slices.Contains(t.Drop, tsType)
}

// FieldsFor returns the field names recorded for children of tsType.
func (t *Table) FieldsFor(tsType string) []string {
	return t.Fields[tsType]
}

// HasExtension reports whether the file extension belongs to the language.
func (t *Table) HasExtension(ext string) bool {
	return slices.Contains(t.Extensions, strings.ToLower(ext))
}

// camelCase turns snake_case into CamelCase.
func camelCase(s string) string {
	var buf strings.Builder

	for part := range strings.SplitSeq(s, "_") {
		if part == "" {
			continue
		}

		buf.WriteString(strings.ToUpper(part[:1]))
		buf.WriteString(part[1:])
	}

	return buf.String()
}
