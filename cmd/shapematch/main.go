// Package main provides the shapematch CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
	"github.com/Sumatoshi-tech/shapematch/pkg/config"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
	"github.com/Sumatoshi-tech/shapematch/pkg/version"
)

// Output format names shared by the subcommands.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTree  = "tree"
	formatSExpr = "sexpr"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	cfgFile   string
	logFormat string
	verbose   bool

	// metricsAddr is set by the mcp subcommand's --metrics-addr flag.
	metricsAddr string
}

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "shapematch",
		Short: "Structural pattern matching for Python submissions",
		Long: `shapematch searches Python source for structural patterns written in
Python with placeholders:

  ___      matches any single node
  _X_      binds an identifier to metavariable X
  __X__    captures any expression as X
  pass     stands for a run of statements`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./shapematch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(matchCmd(opts))
	rootCmd.AddCommand(parseCmd(opts))
	rootCmd.AddCommand(kindsCmd(opts))
	rootCmd.AddCommand(mcpCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// session is the per-invocation wiring shared by the subcommands.
type session struct {
	cfg       *config.Config
	checker   *checker.Checker
	providers observability.Providers
}

func newSession(cmd *cobra.Command, opts *rootOptions, mode observability.AppMode) (*session, error) {
	cfg, err := config.LoadConfig(opts.cfgFile)
	if err != nil {
		return nil, err
	}

	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	if opts.metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = opts.metricsAddr
	}

	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat

		err = cfg.Validate()
		if err != nil {
			return nil, fmt.Errorf("invalid --log-format: %w", err)
		}
	}

	obsCfg := cfg.Observability(version.Get().Version, mode)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	chk, err := checker.New(cfg,
		checker.WithLogger(providers.Logger),
		checker.WithTracer(providers.Tracer),
		checker.WithMeter(providers.Meter),
	)
	if err != nil {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}

		return nil, err
	}

	return &session{cfg: cfg, checker: chk, providers: providers}, nil
}

// close flushes telemetry. Failures are logged, not returned.
func (sess *session) close(ctx context.Context) {
	err := sess.providers.Shutdown(ctx)
	if err != nil {
		sess.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "shapematch %s (commit: %s, built: %s, %s)\n",
				info.Version, info.Commit, info.Date, info.GoVersion)
		},
	}
}
