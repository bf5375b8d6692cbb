package checker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/shapematch/pkg/alg/mapx"
)

// CheckAll parses subjectSrc once and searches it for every named pattern,
// running at most Checker.Workers searches at a time. The first failure
// cancels the remaining searches and is returned.
func (c *Checker) CheckAll(ctx context.Context, patterns map[string]string, subjectSrc string) (map[string]*Result, error) {
	subject, err := c.parser.ParseString(ctx, subjectSrc)
	if err != nil {
		return nil, c.fail(ctx, "batch", fmt.Errorf("parse submission: %w", err))
	}

	names := mapx.SortedKeys(patterns)
	results := make([]*Result, len(names))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.cfg.Checker.Workers)

	for idx, name := range names {
		group.Go(func() error {
			matcher, compileErr := c.Compile(groupCtx, patterns[name])
			if compileErr != nil {
				return fmt.Errorf("pattern %s: %w", name, c.fail(groupCtx, name, compileErr))
			}

			result, searchErr := c.search(groupCtx, name, matcher, subject)
			if searchErr != nil {
				return fmt.Errorf("pattern %s: %w", name, searchErr)
			}

			results[idx] = result

			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Result, len(names))
	for idx, name := range names {
		byName[name] = results[idx]
	}

	return byName, nil
}
