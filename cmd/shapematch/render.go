package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/shapematch/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
)

const yamlIndent = 2

func renderReports(out io.Writer, format string, reports []checker.SubjectReport) error {
	switch format {
	case formatJSON:
		return writeJSON(out, reports)
	case formatYAML:
		return writeYAML(out, reports)
	default:
		fmt.Fprintln(out, renderTable(reports))

		return nil
	}
}

// renderTable lists one row per placeholder of every match.
func renderTable(reports []checker.SubjectReport) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendHeader(table.Row{"File", "Match", "Location", "Placeholder", "Bound To", "Occurrences"})

	total := 0

	for _, report := range reports {
		if !report.Matched {
			tbl.AppendRow(table.Row{report.File, "-", "", "", "no match", ""})

			continue
		}

		for idx, m := range report.Matches {
			total++

			matchNo := strconv.Itoa(idx + 1)
			rows := 0

			for _, name := range mapx.SortedKeys(m.Bindings) {
				tbl.AppendRow(table.Row{
					report.File, matchNo, m.Location,
					"_" + name + "_", sanitizeForTerminal(m.Bindings[name]), m.Occurrences[name],
				})

				rows++
			}

			for _, name := range mapx.SortedKeys(m.Expressions) {
				tbl.AppendRow(table.Row{
					report.File, matchNo, m.Location,
					"__" + name + "__", sanitizeForTerminal(m.Expressions[name]), 1,
				})

				rows++
			}

			if rows == 0 {
				tbl.AppendRow(table.Row{report.File, matchNo, m.Location, "", "", ""})
			}
		}
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d matches", total)})

	return tbl.Render()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return nil
}
