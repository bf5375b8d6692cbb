package main

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/shapematch/pkg/config"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
)

func TestServeMetrics(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Telemetry.MetricsAddr = "127.0.0.1:0"

	obsCfg := cfg.Observability("test", observability.ModeMCP)
	obsCfg.LogOutput = io.Discard

	providers, err := observability.Init(obsCfg)
	require.NoError(t, err)
	require.NotNil(t, providers.MetricsHandler)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	sess := &session{cfg: cfg, providers: providers}

	addr, stop, err := serveMetrics(context.Background(), sess)
	require.NoError(t, err)

	defer stop()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://"+addr+"/metrics", http.NoBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "target_info")
}

func TestServeMetrics_BadAddress(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Telemetry.MetricsAddr = "not-an-address"

	sess := &session{cfg: cfg, providers: observability.Providers{Logger: observability.NewLogger(observability.DefaultConfig())}}

	_, _, err := serveMetrics(context.Background(), sess)
	require.Error(t, err)
}
