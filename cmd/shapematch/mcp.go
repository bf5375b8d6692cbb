package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/shapematch/pkg/mcp"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
)

func mcpCmd(root *rootOptions) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the checker as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
shapematch_match, shapematch_check_all and shapematch_parse tools.
Logs go to stderr so they never corrupt the protocol stream.

With --metrics-addr (or telemetry.metrics_addr) Prometheus metrics are
served at /metrics on that address for the lifetime of the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if metricsAddr != "" {
				root.metricsAddr = metricsAddr
			}

			sess, err := newSession(cmd, root, observability.ModeMCP)
			if err != nil {
				return err
			}

			defer sess.close(cmd.Context())

			if sess.providers.MetricsHandler != nil {
				_, stop, serveErr := serveMetrics(cmd.Context(), sess)
				if serveErr != nil {
					return serveErr
				}

				defer stop()
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Checker: sess.checker,
				Logger:  sess.providers.Logger,
				Tracer:  sess.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

// serveMetrics binds the scrape endpoint and serves it in the background.
// It returns the bound address and a function that shuts the server down.
func serveMetrics(ctx context.Context, sess *session) (string, func(), error) {
	addr := sess.cfg.Telemetry.MetricsAddr
	logger := sess.providers.Logger

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	server := observability.NewMetricsServer(addr, sess.providers.MetricsHandler)

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", serveErr)
		}
	}()

	bound := listener.Addr().String()
	logger.Info("serving metrics", "addr", bound)

	return bound, func() {
		shutdownErr := server.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			logger.Warn("metrics server shutdown", "error", shutdownErr)
		}
	}, nil
}
