package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricChecksTotal   = "shapematch.checks.total"
	metricCheckDuration = "shapematch.check.duration.seconds"
	metricMatchesTotal  = "shapematch.matches.total"
	metricCacheLookups  = "shapematch.pattern_cache.lookups.total"
	metricInflight      = "shapematch.checks.inflight"

	attrPattern = "pattern"
	attrStatus  = "status"
	attrResult  = "result"
)

// Check statuses recorded by RecordCheck.
const (
	StatusMatched = "matched"
	StatusMissed  = "missed"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// durationBucketBoundaries covers 100µs to 10s; a check is a parse plus a
// tree search and usually completes in milliseconds.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// MatchMetrics holds the instruments recorded by the checker.
type MatchMetrics struct {
	checksTotal   metric.Int64Counter
	checkDuration metric.Float64Histogram
	matchesTotal  metric.Int64Counter
	cacheLookups  metric.Int64Counter
	inflight      metric.Int64UpDownCounter
}

// NewMatchMetrics creates the checker instruments from the given meter.
func NewMatchMetrics(mt metric.Meter) (*MatchMetrics, error) {
	checksTotal, err := mt.Int64Counter(metricChecksTotal,
		metric.WithDescription("Total number of pattern checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricChecksTotal, err)
	}

	checkDuration, err := mt.Float64Histogram(metricCheckDuration,
		metric.WithDescription("Pattern check duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCheckDuration, err)
	}

	matchesTotal, err := mt.Int64Counter(metricMatchesTotal,
		metric.WithDescription("Total number of conflict-free matches returned"),
		metric.WithUnit("{match}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricMatchesTotal, err)
	}

	cacheLookups, err := mt.Int64Counter(metricCacheLookups,
		metric.WithDescription("Compiled pattern cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheLookups, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflight,
		metric.WithDescription("Number of checks in progress"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflight, err)
	}

	return &MatchMetrics{
		checksTotal:   checksTotal,
		checkDuration: checkDuration,
		matchesTotal:  matchesTotal,
		cacheLookups:  cacheLookups,
		inflight:      inflight,
	}, nil
}

// RecordCheck records one completed check. Safe to call on a nil receiver.
func (mm *MatchMetrics) RecordCheck(ctx context.Context, pattern, status string, matches int, duration time.Duration) {
	if mm == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrPattern, pattern),
		attribute.String(attrStatus, status),
	)

	mm.checksTotal.Add(ctx, 1, attrs)
	mm.checkDuration.Record(ctx, duration.Seconds(), attrs)

	if matches > 0 {
		mm.matchesTotal.Add(ctx, int64(matches), metric.WithAttributes(attribute.String(attrPattern, pattern)))
	}
}

// RecordCacheLookup records a compiled-pattern cache hit or miss.
func (mm *MatchMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if mm == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	mm.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// TrackInflight increments the in-flight gauge and returns a function to decrement it.
func (mm *MatchMetrics) TrackInflight(ctx context.Context) func() {
	if mm == nil {
		return func() {}
	}

	mm.inflight.Add(ctx, 1)

	return func() {
		mm.inflight.Add(ctx, -1)
	}
}
