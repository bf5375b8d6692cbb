package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
)

func kindsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "Print the active kind mapping table as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := newSession(cmd, root, observability.ModeCLI)
			if err != nil {
				return err
			}

			defer sess.close(cmd.Context())

			return writeYAML(cmd.OutOrStdout(), sess.checker.Parser().Table())
		},
	}
}
