// Package compiler turns visualization intents into compiled charts.
//
// A build runs four stages against one data source:
//
//  1. Validate checks the intent against the schema and normalizes it.
//  2. Expand enumerates every concrete option a wildcard intent implies.
//  3. Compile infers mark, channels, sort and title for one option.
//  4. Build runs the stages, compiles options concurrently and returns a
//     deduplicated vis.List in expansion order.
//
// The Compiler is stateless between builds and safe for concurrent use.
// Source statistics are memoized per build, never across builds.
package compiler

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/metrics"
)

// BuildIDGenerator generates build identifiers for log correlation.
// Implemented by UUIDv7Generator (production) and testutil.FixedBuildIDs.
type BuildIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 build IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Compiler holds the configuration shared by every build.
type Compiler struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Build
	ids     BuildIDGenerator
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records build metrics. Default: none.
func WithMetrics(m *metrics.Build) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// WithBuildIDs sets the build ID generator. Default: UUIDv7Generator.
func WithBuildIDs(g BuildIDGenerator) Option {
	return func(c *Compiler) {
		if g != nil {
			c.ids = g
		}
	}
}

// New creates a Compiler. cfg must pass config.Validate.
func New(cfg config.Config, opts ...Option) (*Compiler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c := &Compiler{
		cfg:    cfg,
		logger: zap.NewNop(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the compiler configuration.
func (c *Compiler) Config() config.Config { return c.cfg }
