package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
	"github.com/Sumatoshi-tech/shapematch/pkg/levenshtein"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
)

var (
	// ErrNoPattern indicates neither --pattern nor --pattern-file was given.
	ErrNoPattern = errors.New("a pattern is required (--pattern or --pattern-file)")
	// ErrBothPatterns indicates both --pattern and --pattern-file were given.
	ErrBothPatterns = errors.New("--pattern and --pattern-file are mutually exclusive")
	// ErrNoMatch is returned with --fail-on-miss when a subject has no match.
	ErrNoMatch = errors.New("pattern not found")
	// ErrUnsupportedFormat indicates an unknown --format value.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

const inlinePatternName = "inline"

type matchOptions struct {
	pattern     string
	patternFile string
	format      string
	failOnMiss  bool
}

func matchCmd(root *rootOptions) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match SUBJECT...",
		Short: "Search Python files for a structural pattern",
		Long: `Search Python files for a structural pattern.

Examples:
  shapematch match -p 'print(___)' solution.py
  shapematch match --pattern-file accumulator.py a.py b.py
  cat solution.py | shapematch match -p '_x_ += 1' -
  shapematch match -P loop.py --format json --fail-on-miss solution.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "pattern source code")
	cmd.Flags().StringVarP(&opts.patternFile, "pattern-file", "P", "", "file holding the pattern")
	cmd.Flags().StringVarP(&opts.format, "format", "o", formatTable, "output format (table, json, yaml)")
	cmd.Flags().BoolVar(&opts.failOnMiss, "fail-on-miss", false, "exit with an error when a subject has no match")

	return cmd
}

func runMatch(cmd *cobra.Command, root *rootOptions, opts *matchOptions, subjects []string) error {
	switch opts.format {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: %s%s", ErrUnsupportedFormat, opts.format,
			levenshtein.Suggest(opts.format, []string{formatTable, formatJSON, formatYAML}))
	}

	patternSrc, patternName, err := loadPattern(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, root, observability.ModeCLI)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	defer sess.close(ctx)

	matcher, err := sess.checker.Compile(ctx, patternSrc)
	if err != nil {
		return fmt.Errorf("pattern %s: %w", patternName, err)
	}

	reports := make([]checker.SubjectReport, 0, len(subjects))

	var totalBytes uint64

	for _, path := range subjects {
		content, name, readErr := readSource(path, cmd.InOrStdin())
		if readErr != nil {
			return readErr
		}

		subject, parseErr := sess.checker.Parser().Parse(ctx, name, content)
		if parseErr != nil {
			return fmt.Errorf("%s: %w", path, parseErr)
		}

		result, checkErr := sess.checker.CheckTree(ctx, patternName, matcher, subject)
		if checkErr != nil {
			return fmt.Errorf("%s: %w", path, checkErr)
		}

		totalBytes += uint64(len(content))
		reports = append(reports, checker.NewSubjectReport(path, result))
	}

	out := cmd.OutOrStdout()

	err = renderReports(out, opts.format, reports)
	if err != nil {
		return err
	}

	missed := 0

	for _, report := range reports {
		if !report.Matched {
			missed++
		}
	}

	if opts.format == formatTable {
		writeSummary(out, len(reports), missed, totalBytes)
	}

	if opts.failOnMiss && missed > 0 {
		return fmt.Errorf("%w in %d of %d subjects", ErrNoMatch, missed, len(reports))
	}

	return nil
}

func loadPattern(stdin io.Reader, opts *matchOptions) (src, name string, err error) {
	switch {
	case opts.pattern != "" && opts.patternFile != "":
		return "", "", ErrBothPatterns
	case opts.pattern != "":
		return opts.pattern, inlinePatternName, nil
	case opts.patternFile != "":
		content, _, readErr := readSource(opts.patternFile, stdin)
		if readErr != nil {
			return "", "", readErr
		}

		return string(content), filepath.Base(opts.patternFile), nil
	default:
		return "", "", ErrNoPattern
	}
}

func writeSummary(out io.Writer, files, missed int, totalBytes uint64) {
	matched := files - missed

	line := fmt.Sprintf("%d of %d subjects matched (%s scanned)", matched, files, humanize.Bytes(totalBytes))
	if missed == 0 {
		color.New(color.FgGreen).Fprintln(out, line)

		return
	}

	color.New(color.FgYellow).Fprintln(out, line)
}
