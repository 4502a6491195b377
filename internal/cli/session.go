package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/roach88/vizintent/internal/compiler"
	"github.com/roach88/vizintent/internal/config"
	"github.com/roach88/vizintent/internal/dataset"
	"github.com/roach88/vizintent/internal/intent"
	"github.com/roach88/vizintent/internal/intentfile"
	"github.com/roach88/vizintent/internal/logging"
	"github.com/roach88/vizintent/internal/metrics"
)

// IntentOptions holds the flags of commands that take an intent.
type IntentOptions struct {
	IntentFile string // YAML, JSON or CUE intent file
}

func (o *IntentOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.IntentFile, "intent", "i", "", "read the intent from a YAML, JSON or CUE file")
}

// load returns the intent given as clause arguments or in --intent.
// The dataset is non-nil when the intent file names one.
func (o *IntentOptions) load(args []string) (intent.Intent, *config.Dataset, error) {
	if o.IntentFile == "" {
		in, err := intent.ParseIntent(args...)
		return in, nil, err
	}
	if len(args) > 0 {
		return nil, nil, errors.New("pass clauses as arguments or with --intent, not both")
	}
	f, err := intentfile.Load(o.IntentFile)
	if err != nil {
		return nil, nil, err
	}
	return f.Intent.Intent(), f.Dataset, nil
}

// session is the runtime shared by every command: configuration, logger
// and a private metrics registry.
type session struct {
	cfg         config.Config
	logger      *zap.Logger
	closeLog    func() error
	registry    *prometheus.Registry
	metrics     *metrics.Build
	metricsFile string
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadConfig layers explicit flags over the config file, VIZINTENT_*
// environment variables and defaults.
func (o *RootOptions) loadConfig() (config.Config, error) {
	v := viper.New()
	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
	}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("dataset.path", o.Data)
	set("dataset.table", o.Table)
	set("dataset.kind", o.Kind)
	set("log.level", o.LogLevel)
	set("log.file", o.LogFile)
	if o.Verbose && o.LogLevel == "" {
		v.Set("log.level", "debug")
	}
	return config.Load(v)
}

// open starts a session. Failures are reported through f.
func (o *RootOptions) open(cmd *cobra.Command, f *OutputFormatter) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	reg := prometheus.NewRegistry()
	return &session{
		cfg:         cfg,
		logger:      logger.With(zap.String("command", cmd.Name())),
		closeLog:    closeLog,
		registry:    reg,
		metrics:     metrics.NewBuild(reg),
		metricsFile: o.MetricsFile,
	}, nil
}

// finish closes the session and returns err, or the close error when err
// is nil.
func (s *session) finish(f *OutputFormatter, err error) error {
	var errs []error
	if s.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(s.metricsFile, s.registry); werr != nil {
			errs = append(errs, werr)
		}
	}
	if cerr := s.closeLog(); cerr != nil {
		errs = append(errs, cerr)
	}
	if err != nil || len(errs) == 0 {
		return err
	}
	return f.Fail(ExitCommandError, ErrCodeWriteFailed, errors.Join(errs...))
}

func (s *session) compiler() (*compiler.Compiler, error) {
	return compiler.New(s.cfg,
		compiler.WithLogger(s.logger),
		compiler.WithMetrics(s.metrics),
	)
}

// openDataset opens the configured dataset. Failures are reported through f.
func (s *session) openDataset(ctx context.Context, f *OutputFormatter) (*dataset.Dataset, error) {
	if s.cfg.Dataset.Path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeDataset,
			errors.New("no dataset: pass --data or set dataset.path"))
	}
	ds, err := dataset.Open(ctx, s.cfg.Dataset, s.cfg.Source)
	if err != nil {
		code := ErrCodeDataset
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, f.Fail(ExitCommandError, code, err)
	}
	f.VerboseLog("Opened %s dataset %s (%s)", ds.Kind(), ds.Name(), s.cfg.Dataset.Path)
	return ds, nil
}

// overrideDataset applies the explicit dataset flags to ds.
func (o *RootOptions) overrideDataset(ds config.Dataset) config.Dataset {
	if o.Table != "" {
		ds.Table = o.Table
	}
	if o.Kind != "" {
		ds.Kind = o.Kind
	}
	return ds
}

// intentRun is the common setup of commands that compile an intent
// against a dataset.
type intentRun struct {
	f  *OutputFormatter
	s  *session
	c  *compiler.Compiler
	ds *dataset.Dataset
	in intent.Intent
}

// start loads the intent, opens a session and the dataset. The dataset
// named by an intent file replaces the configured one unless --data is
// given; --table and --kind still apply on top of it.
func (o *RootOptions) start(cmd *cobra.Command, iopts *IntentOptions, args []string) (*intentRun, error) {
	f := o.formatter(cmd)

	in, fileDataset, err := iopts.load(args)
	if err != nil {
		code := ErrCodeIntent
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, f.Fail(ExitCommandError, code, err)
	}

	s, err := o.open(cmd, f)
	if err != nil {
		return nil, err
	}
	if fileDataset != nil && o.Data == "" {
		s.cfg.Dataset = o.overrideDataset(*fileDataset)
	}

	c, err := s.compiler()
	if err != nil {
		return nil, s.finish(f, f.Fail(ExitCommandError, ErrCodeConfig, err))
	}
	ds, err := s.openDataset(cmd.Context(), f)
	if err != nil {
		return nil, s.finish(f, err)
	}
	return &intentRun{f: f, s: s, c: c, ds: ds, in: in}, nil
}

// close releases the dataset and session, keeping err if set.
func (r *intentRun) close(err error) error {
	if cerr := r.ds.Close(); cerr != nil && err == nil {
		err = r.f.Fail(ExitCommandError, ErrCodeDataset, cerr)
	}
	return r.s.finish(r.f, err)
}

// buildFailure reports an error returned by the compiler: validation
// problems exit 1, anything else (source failures, cancellation) exits 2.
func buildFailure(f *OutputFormatter, err error) error {
	if ves, ok := compiler.AsValidationErrors(err); ok {
		return f.Invalid(ves)
	}
	return f.Fail(ExitCommandError, ErrCodeBuildFailed, err)
}
