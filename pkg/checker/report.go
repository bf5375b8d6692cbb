package checker

import (
	"time"

	"github.com/Sumatoshi-tech/shapematch/pkg/match"
)

//go:generate go run ../../tools/schemagen -o ../../docs/schemas

// MatchReport is a serializable summary of one match.
type MatchReport struct {
	// Location is the line:col of the subject node the pattern root matched.
	Location    string            `json:"location"              yaml:"location"`
	Bindings    map[string]string `json:"bindings"              yaml:"bindings"`
	Occurrences map[string]int    `json:"occurrences"           yaml:"occurrences"`
	Expressions map[string]string `json:"expressions,omitempty" yaml:"expressions,omitempty"`
}

// Describe summarizes m. Captured expressions are rendered as s-expressions.
func Describe(m *match.AstMap) MatchReport {
	report := MatchReport{
		Location:    "?:?",
		Bindings:    make(map[string]string),
		Occurrences: make(map[string]int),
	}

	// The first pair is the search root.
	if pairs := m.Mappings(); len(pairs) > 0 {
		report.Location = pairs[0].Subject.Pos.String()
	}

	for _, name := range m.SymbolNames() {
		ident, _ := m.Bound(name)
		report.Bindings[name] = ident
		report.Occurrences[name] = m.Occurrences(name)
	}

	exps := m.ExpTable()
	if len(exps) > 0 {
		report.Expressions = make(map[string]string, len(exps))

		for name, captured := range exps {
			report.Expressions[name] = captured.String()
		}
	}

	return report
}

// Reports describes every match of r in discovery order.
func (r *Result) Reports() []MatchReport {
	if r == nil {
		return []MatchReport{}
	}

	reports := make([]MatchReport, 0, len(r.Matches))
	for _, m := range r.Matches {
		reports = append(reports, Describe(m))
	}

	return reports
}

// SubjectReport is the serialized outcome of one pattern against one
// submission file.
type SubjectReport struct {
	File       string        `json:"file"       yaml:"file"`
	Pattern    string        `json:"pattern"    yaml:"pattern"`
	Matched    bool          `json:"matched"    yaml:"matched"`
	DurationMS float64       `json:"durationMs" yaml:"durationMs"`
	Matches    []MatchReport `json:"matches"    yaml:"matches"`
}

// NewSubjectReport summarizes result for the submission at path.
func NewSubjectReport(path string, result *Result) SubjectReport {
	report := SubjectReport{
		File:    path,
		Matched: result.Matched(),
		Matches: result.Reports(),
	}

	if result != nil {
		report.Pattern = result.Pattern
		report.DurationMS = float64(result.Duration) / float64(time.Millisecond)
	}

	return report
}
