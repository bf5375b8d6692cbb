// Package checker runs structural patterns against submitted Python source.
// It compiles and caches patterns, bounds every search with a timeout and
// reports each check through spans, metrics and debug logs.
package checker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/shapematch/pkg/alg/lru"
	"github.com/Sumatoshi-tech/shapematch/pkg/config"
	"github.com/Sumatoshi-tech/shapematch/pkg/match"
	"github.com/Sumatoshi-tech/shapematch/pkg/observability"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/mapping"
	"github.com/Sumatoshi-tech/shapematch/pkg/uast/pkg/node"
)

const instrumentationName = "github.com/Sumatoshi-tech/shapematch/pkg/checker"

// patternIDLength is the number of hex digits of the source digest used to
// name anonymous patterns.
const patternIDLength = 12

// Sentinel errors.
var (
	ErrTimeout      = errors.New("check timed out")
	ErrEmptyPattern = errors.New("pattern has no statements")
)

type patternKey [sha256.Size]byte

// Checker compiles patterns and searches submissions for them. It is safe
// for concurrent use.
type Checker struct {
	cfg       *config.Config
	parser    *uast.Parser
	patterns  *lru.Cache[patternKey, *match.Matcher]
	matchOpts []match.Option
	logger    *slog.Logger
	tracer    trace.Tracer
	meter     metric.Meter
	metrics   *observability.MatchMetrics
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger used by the checker, its parser and its matchers.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the tracer for check spans. The global tracer is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Checker) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithMeter sets the meter for check metrics. The global meter is used otherwise.
func WithMeter(meter metric.Meter) Option {
	return func(c *Checker) {
		if meter != nil {
			c.meter = meter
		}
	}
}

// WithParser replaces the parser built from the configuration.
func WithParser(parser *uast.Parser) Option {
	return func(c *Checker) {
		c.parser = parser
	}
}

// New creates a Checker. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Checker, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("checker config: %w", err)
	}

	chk := &Checker{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	for _, opt := range opts {
		opt(chk)
	}

	if chk.parser == nil {
		chk.parser, err = newParser(cfg, chk.logger)
		if err != nil {
			return nil, err
		}
	}

	chk.metrics, err = observability.NewMatchMetrics(chk.meter)
	if err != nil {
		return nil, fmt.Errorf("checker metrics: %w", err)
	}

	chk.patterns = lru.New(lru.WithMaxEntries[patternKey, *match.Matcher](cfg.Checker.PatternCacheSize))
	chk.matchOpts = append(cfg.MatcherOptions(), match.WithLogger(chk.logger))

	return chk, nil
}

func newParser(cfg *config.Config, logger *slog.Logger) (*uast.Parser, error) {
	maxSize, err := cfg.MaxSourceBytes()
	if err != nil {
		return nil, err
	}

	var table *mapping.Table
	if cfg.Parser.MappingFile != "" {
		table, err = mapping.LoadFile(cfg.Parser.MappingFile)
	} else {
		table, err = mapping.Embedded(cfg.Parser.Language)
	}

	if err != nil {
		return nil, fmt.Errorf("checker mapping: %w", err)
	}

	parser, err := uast.NewParser(
		uast.WithMapping(table),
		uast.WithMaxSourceSize(maxSize),
		uast.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("checker parser: %w", err)
	}

	return parser, nil
}

// Parser returns the parser used for patterns and submissions.
func (c *Checker) Parser() *uast.Parser {
	return c.parser
}

// Stats returns pattern cache statistics.
func (c *Checker) Stats() lru.Stats {
	return c.patterns.Stats()
}

// Compile parses patternSrc and returns its matcher. Matchers are cached by
// the SHA-256 digest of the source; parse failures are not cached.
func (c *Checker) Compile(ctx context.Context, patternSrc string) (*match.Matcher, error) {
	key := patternKey(sha256.Sum256([]byte(patternSrc)))

	matcher, hit, err := c.patterns.GetOrCreate(key, func() (*match.Matcher, error) {
		return c.compile(ctx, patternSrc)
	})

	c.metrics.RecordCacheLookup(ctx, hit)

	if err != nil {
		return nil, err
	}

	return matcher, nil
}

func (c *Checker) compile(ctx context.Context, patternSrc string) (*match.Matcher, error) {
	root, err := c.parser.ParseString(ctx, patternSrc)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}

	if root.Kind == node.KindBlock && len(root.Children) == 0 {
		return nil, ErrEmptyPattern
	}

	return match.New(root, c.matchOpts...), nil
}

// Check searches subjectSrc for patternSrc. Finding no match is not an error.
func (c *Checker) Check(ctx context.Context, patternSrc, subjectSrc string) (*Result, error) {
	name := patternID(patternSrc)

	matcher, err := c.Compile(ctx, patternSrc)
	if err != nil {
		return nil, c.fail(ctx, name, err)
	}

	subject, err := c.parser.ParseString(ctx, subjectSrc)
	if err != nil {
		return nil, c.fail(ctx, name, fmt.Errorf("parse submission: %w", err))
	}

	return c.search(ctx, name, matcher, subject)
}

// CheckTree searches an already parsed subject with a compiled matcher.
func (c *Checker) CheckTree(ctx context.Context, name string, matcher *match.Matcher, subject *node.Node) (*Result, error) {
	return c.search(ctx, name, matcher, subject)
}

// search runs FindMatches on its own goroutine so the configured timeout can
// be enforced. On timeout the search goroutine runs to completion unobserved.
func (c *Checker) search(ctx context.Context, name string, matcher *match.Matcher, subject *node.Node) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "shapematch.check",
		trace.WithAttributes(
			attribute.String("shapematch.pattern", name),
			attribute.Int("subject.nodes", subject.Count()),
		))
	defer span.End()

	done := c.metrics.TrackInflight(ctx)
	defer done()

	start := time.Now()

	searchCtx, cancel := context.WithTimeout(ctx, c.cfg.Checker.Timeout)
	defer cancel()

	err := searchCtx.Err()
	if err != nil {
		return nil, c.finish(ctx, span, name, start, nil, err)
	}

	found := make(chan []*match.AstMap, 1)

	go func() {
		found <- matcher.FindMatches(subject)
	}()

	select {
	case matches := <-found:
		result := &Result{Pattern: name, Matches: matches, Duration: time.Since(start)}

		return result, c.finish(ctx, span, name, start, result, nil)
	case <-searchCtx.Done():
		return nil, c.finish(ctx, span, name, start, nil, searchCtx.Err())
	}
}

// finish records telemetry for a completed or failed search and returns
// the error to surface, with deadline errors mapped to ErrTimeout.
func (c *Checker) finish(
	ctx context.Context, span trace.Span, name string, start time.Time, result *Result, err error,
) error {
	duration := time.Since(start)

	if err != nil {
		err = classify(err)
		status, errType := statusOf(err)

		observability.RecordSpanError(span, err, errType, observability.ErrSourceServer)
		c.metrics.RecordCheck(ctx, name, status, 0, duration)
		c.logger.DebugContext(ctx, "pattern check failed", "pattern", name, "error", err)

		return err
	}

	status := observability.StatusMissed
	if result.Matched() {
		status = observability.StatusMatched
	}

	span.SetAttributes(attribute.Int("shapematch.matches", len(result.Matches)))
	c.metrics.RecordCheck(ctx, name, status, len(result.Matches), duration)
	c.logger.DebugContext(ctx, "pattern check finished",
		"pattern", name,
		"matches", len(result.Matches),
		"duration", duration,
	)

	return nil
}

// fail records telemetry for a check that failed before searching.
func (c *Checker) fail(ctx context.Context, name string, err error) error {
	_, span := c.tracer.Start(ctx, "shapematch.check",
		trace.WithAttributes(attribute.String("shapematch.pattern", name)))
	defer span.End()

	err = classify(err)
	status, errType := statusOf(err)

	observability.RecordSpanError(span, err, errType, observability.ErrSourceClient)
	c.metrics.RecordCheck(ctx, name, status, 0, 0)
	c.logger.DebugContext(ctx, "pattern check failed", "pattern", name, "error", err)

	return err
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return err
}

func statusOf(err error) (status, errType string) {
	switch {
	case errors.Is(err, ErrTimeout):
		return observability.StatusTimeout, observability.ErrTypeTimeout
	case errors.Is(err, context.Canceled):
		return observability.StatusError, observability.ErrTypeCanceled
	case errors.Is(err, uast.ErrSyntax):
		return observability.StatusError, observability.ErrTypeSyntax
	case errors.Is(err, uast.ErrSourceTooLarge),
		errors.Is(err, uast.ErrUnsupportedLanguage),
		errors.Is(err, ErrEmptyPattern):
		return observability.StatusError, observability.ErrTypeValidation
	default:
		return observability.StatusError, observability.ErrTypeInternal
	}
}

func patternID(src string) string {
	sum := sha256.Sum256([]byte(src))

	return hex.EncodeToString(sum[:])[:patternIDLength]
}
