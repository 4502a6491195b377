// Package config holds every tunable of the compiler and its data sources.
//
// A Config is an explicit value passed to compiler.New and dataset.Open;
// nothing in this module reads process-wide settings.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "VIZINTENT"

// Config is the complete compiler configuration.
type Config struct {
	// SortCardinalityThreshold is the largest category count left unsorted.
	SortCardinalityThreshold int `mapstructure:"sort_cardinality_threshold" json:"sort_cardinality_threshold"`

	// HeatmapRowThreshold is the row count above which an in-memory
	// scatter plot becomes a heatmap.
	HeatmapRowThreshold int `mapstructure:"heatmap_row_threshold" json:"heatmap_row_threshold"`

	// RemoteHeatmapRowThreshold is the same policy for SQL sources.
	// The default of 0 bins every non-empty SQL scatter plot.
	RemoteHeatmapRowThreshold int `mapstructure:"remote_heatmap_row_threshold" json:"remote_heatmap_row_threshold"`

	// MaxWildcardValues caps value-wildcard enumeration; 0 is unbounded.
	MaxWildcardValues int `mapstructure:"max_wildcard_values" json:"max_wildcard_values"`

	// Parallelism bounds concurrent option compilation.
	Parallelism int `mapstructure:"parallelism" json:"parallelism"`

	Source  Source  `mapstructure:"source" json:"source"`
	Dataset Dataset `mapstructure:"dataset" json:"dataset"`
	Log     Log     `mapstructure:"log" json:"log"`
}

// Source tunes semantic inference and statistics.
type Source struct {
	NominalCardinalityCutoff int `mapstructure:"nominal_cardinality_cutoff" json:"nominal_cardinality_cutoff"`
	ExactCardinalityLimit    int `mapstructure:"exact_cardinality_limit" json:"exact_cardinality_limit"`
	StatsCacheSize           int `mapstructure:"stats_cache_size" json:"stats_cache_size"`

	// DataTypes overrides inferred types by column name.
	DataTypes map[string]string `mapstructure:"data_types" json:"data_types,omitempty"`
}

// Dataset kinds understood by dataset.Open.
const (
	DatasetCSV    = "csv"
	DatasetArrow  = "arrow"
	DatasetSQLite = "sqlite"
)

// Dataset names the data to compile against.
type Dataset struct {
	// Kind is csv, arrow or sqlite. Empty infers from the path extension.
	Kind  string `mapstructure:"kind" json:"kind,omitempty"`
	Path  string `mapstructure:"path" json:"path,omitempty"`
	Table string `mapstructure:"table" json:"table,omitempty"`
}

// Log configures the process logger.
type Log struct {
	Level      string `mapstructure:"level" json:"level"`
	Format     string `mapstructure:"format" json:"format"`
	File       string `mapstructure:"file" json:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	Compress   bool   `mapstructure:"compress" json:"compress"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		SortCardinalityThreshold:  5,
		HeatmapRowThreshold:       5000,
		RemoteHeatmapRowThreshold: 0,
		MaxWildcardValues:         0,
		Parallelism:               4,
		Source: Source{
			NominalCardinalityCutoff: 20,
			ExactCardinalityLimit:    1_000_000,
			StatsCacheSize:           256,
		},
		Log: Log{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Validate returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	nonNegative := func(field string, v int) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %d", field, v))
		}
	}
	nonNegative("sort_cardinality_threshold", c.SortCardinalityThreshold)
	nonNegative("heatmap_row_threshold", c.HeatmapRowThreshold)
	nonNegative("remote_heatmap_row_threshold", c.RemoteHeatmapRowThreshold)
	nonNegative("max_wildcard_values", c.MaxWildcardValues)
	nonNegative("source.exact_cardinality_limit", c.Source.ExactCardinalityLimit)
	if c.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be >= 1, got %d", c.Parallelism))
	}
	if c.Source.NominalCardinalityCutoff < 1 {
		errs = append(errs, fmt.Errorf("source.nominal_cardinality_cutoff must be >= 1, got %d", c.Source.NominalCardinalityCutoff))
	}
	if c.Source.StatsCacheSize < 1 {
		errs = append(errs, fmt.Errorf("source.stats_cache_size must be >= 1, got %d", c.Source.StatsCacheSize))
	}
	switch c.Dataset.Kind {
	case "", DatasetCSV, DatasetArrow, DatasetSQLite:
	default:
		errs = append(errs, fmt.Errorf("dataset.kind %q must be one of csv, arrow, sqlite", c.Dataset.Kind))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SetDefaults registers Default() with v so that Unmarshal fills unset keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("sort_cardinality_threshold", d.SortCardinalityThreshold)
	v.SetDefault("heatmap_row_threshold", d.HeatmapRowThreshold)
	v.SetDefault("remote_heatmap_row_threshold", d.RemoteHeatmapRowThreshold)
	v.SetDefault("max_wildcard_values", d.MaxWildcardValues)
	v.SetDefault("parallelism", d.Parallelism)
	v.SetDefault("source.nominal_cardinality_cutoff", d.Source.NominalCardinalityCutoff)
	v.SetDefault("source.exact_cardinality_limit", d.Source.ExactCardinalityLimit)
	v.SetDefault("source.stats_cache_size", d.Source.StatsCacheSize)
	v.SetDefault("dataset.kind", "")
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.table", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.compress", d.Log.Compress)
}

// Load reads configuration from v: an optional config file (already set
// with SetConfigFile), VIZINTENT_* environment variables and any flags
// bound by the caller. The result is validated.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
