package compiler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/metrics"
	"github.com/roach88/vizintent/internal/source"
	"github.com/roach88/vizintent/internal/vis"
)

// Build compiles in against src: validate, expand, compile every option,
// drop skipped options and deduplicate. The result preserves expansion
// order regardless of how options were scheduled.
//
// An empty intent yields an empty list. Validation failures return
// ValidationErrors; source failures propagate unchanged.
func (c *Compiler) Build(ctx context.Context, in intent.Intent, src source.Source) (*vis.List, error) {
	start := time.Now()
	id := c.ids.Generate()
	log := c.logger.With(zap.String("build_id", id), zap.String("source", src.Name()))

	if len(in) == 0 {
		c.metrics.ObserveBuild(metrics.OutcomeOK, 0, 0, time.Since(start))
		return vis.NewList(id, in, nil), nil
	}

	// Statistics are shared by every stage of this build only.
	memo := source.NewMemo(src)

	normalized, err := c.Validate(ctx, in, memo)
	if err != nil {
		c.fail(log, err, start)
		return nil, err
	}
	options, err := c.Expand(ctx, normalized, memo)
	if err != nil {
		c.fail(log, err, start)
		return nil, err
	}

	results := make([]*vis.Vis, len(options))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallelism)
	for i, opt := range options {
		g.Go(func() error {
			v, err := c.Compile(gctx, opt, memo)
			var skipped *SkippedOption
			if errors.As(err, &skipped) {
				log.Debug("option skipped",
					zap.String("option", opt.String()),
					zap.String("reason", string(skipped.Reason)),
					zap.String("detail", skipped.Detail))
				c.metrics.ObserveSkip(string(skipped.Reason))
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.fail(log, err, start)
		return nil, err
	}

	list := vis.NewList(id, in, results)
	c.metrics.ObserveBuild(metrics.OutcomeOK, len(options), list.Len(), time.Since(start))
	log.Info("build finished",
		zap.String("intent", in.String()),
		zap.Int("options", len(options)),
		zap.Int("vis", list.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return list, nil
}

func (c *Compiler) fail(log *zap.Logger, err error, start time.Time) {
	outcome := metrics.OutcomeError
	if _, ok := AsValidationErrors(err); ok {
		outcome = metrics.OutcomeInvalid
	}
	c.metrics.ObserveBuild(outcome, 0, 0, time.Since(start))
	log.Warn("build failed", zap.String("outcome", outcome), zap.Error(err))
}
