package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/dataset"
	"github.com/roach88/vizintent/internal/testutil"
)

// Option configures Run.
type Option func(*options)

type options struct {
	logger *zap.Logger
	base   config.Config
}

// WithLogger sets the compiler logger. Logs are discarded by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConfig sets the configuration scenario overrides apply to.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.base = cfg
	}
}

// Run executes a scenario and returns the result.
//
// Each run opens the dataset afresh and builds with a fixed build ID.
// The returned error covers setup problems only (dataset, configuration);
// a failed build is recorded in Result.BuildErr and checked by the
// assertions.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: zap.NewNop(), base: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := scenario.Config.Apply(o.base)
	cfg.Dataset = scenario.Dataset
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	ds, err := dataset.Open(ctx, cfg.Dataset, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	defer ds.Close()

	c, err := compiler.New(cfg,
		compiler.WithLogger(o.logger.With(zap.String("scenario", scenario.Name))),
		compiler.WithBuildIDs(testutil.NewFixedBuildIDs(scenario.BuildID)),
	)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.List, result.BuildErr = c.Build(ctx, scenario.Intent.Intent(), ds)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
