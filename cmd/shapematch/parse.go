package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/shapematch/pkg/levenshtein"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

func parseCmd(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print the normalized tree of a Python file",
		Long: `Print the normalized tree that patterns are matched against.

Examples:
  shapematch parse solution.py
  shapematch parse --format sexpr pattern.py
  echo 'x = 0' | shapematch parse -f json -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, root, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTree, "output format (tree, sexpr, json)")

	return cmd
}

func runParse(cmd *cobra.Command, root *rootOptions, path, format string) error {
	switch format {
	case formatTree, formatSExpr, formatJSON:
	default:
		return fmt.Errorf("%w: %s%s", ErrUnsupportedFormat, format,
			levenshtein.Suggest(format, []string{formatTree, formatSExpr, formatJSON}))
	}

	content, name, err := readSource(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	sess, err := newSession(cmd, root, observability.ModeCLI)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	defer sess.close(ctx)

	tree, err := sess.checker.Parser().Parse(ctx, name, content)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	sess.providers.Logger.DebugContext(ctx, "parsed",
		"file", path,
		"size", humanize.Bytes(uint64(len(content))),
		"nodes", humanize.Comma(int64(tree.Count())),
	)

	return writeTree(cmd.OutOrStdout(), tree, format)
}

func writeTree(out io.Writer, tree *node.Node, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(out, tree.ToMap())
	case formatSExpr:
		fmt.Fprintln(out, tree.String())
	default:
		fmt.Fprint(out, tree.Indented())
	}

	return nil
}
