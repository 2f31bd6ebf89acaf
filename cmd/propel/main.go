// Command propel compiles schema documents into Go data-access code and SQL.
//
//	propel build                    generate code and CREATE scripts
//	propel sql [--dsn DSN]          print, or apply, the CREATE scripts
//	propel diff old.xml new.xml     print the ALTER script between two schemas
//	propel watch                    rebuild when a schema document changes
//	propel behaviors                list the known behaviors
//	propel graphql                  print the GraphQL schema
//	propel dump schema.yml          print a document as XML
//
// Settings are read from propel.yaml, propel.json or propel.toml in the
// working directory, or the file given with --config, and from PROPEL_
// environment variables. Command line flags win over both.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler"
	"github.com/syssam/propel/compiler/gen"
	"github.com/syssam/propel/compiler/load"
	"github.com/syssam/propel/config"
	"github.com/syssam/propel/locator"
)

// Build information, set with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// keyAnnotation marks a flag that overrides a configuration key.
const keyAnnotation = "propel/config-key"

// schemaPatterns are the documents searched in the schema directory when a
// command gets no arguments.
var schemaPatterns = []string{"*schema.xml", "*schema.yml", "*schema.yaml", "*schema.json"}

// app holds the state shared by the commands of one run.
type app struct {
	configFile string
	props      *config.Properties
	logger     *slog.Logger
	// metrics gathers the generation metrics when generator.metrics is set.
	metrics *prometheus.Registry
}

// newRootCmd returns the propel command tree.
func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "propel",
		Short: "Schema to code compiler",
		Long: "propel reads XML, YAML or JSON schema documents, applies their behaviors and generates " +
			"Go object models, queries and repositories along with the SQL DDL of the target platform.",
		Version:       Version + " (" + GitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "path to the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	bindKey(rootCmd.PersistentFlags(), "log-level", config.KeyLogLevel)

	setupCommands(rootCmd, a)
	return rootCmd
}

// bindKey ties a flag to a configuration key.
func bindKey(fs *pflag.FlagSet, flag, key string) {
	_ = fs.SetAnnotation(flag, keyAnnotation, []string{key})
}

// init loads the configuration, applies the flags of cmd and builds the
// logger.
func (a *app) init(cmd *cobra.Command) error {
	props, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[keyAnnotation]; ok {
			for _, key := range keys {
				if err := props.BindFlag(key, f); err != nil {
					errs = append(errs, err)
				}
			}
		}
	})
	if len(errs) > 0 {
		return errs[0]
	}
	level, err := props.LogLevel()
	if err != nil {
		return err
	}
	a.props = props
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if f := props.File(); f != "" {
		a.logger.Debug("configuration loaded", "file", f)
	}
	return nil
}

// compiler returns a compiler over the current configuration. Behavior
// manifests are discovered in the configured behavior directories.
func (a *app) compiler(extra ...compiler.Option) (*compiler.Compiler, error) {
	gopts, err := a.props.ToOptions()
	if err != nil {
		return nil, err
	}
	gopts = append(gopts, gen.WithLogger(a.logger))
	if a.props.MetricsFile() != "" {
		a.metrics = prometheus.NewRegistry()
		gopts = append(gopts, gen.WithMetrics(gen.NewMetrics(a.metrics)))
	}
	cfg, err := gen.NewConfig(gopts...)
	if err != nil {
		return nil, err
	}
	opts := []compiler.Option{
		compiler.WithConfig(cfg),
		compiler.WithLogger(a.logger),
		compiler.WithReader(a.reader()),
		compiler.WithDiscovery(locator.NewDir(a.props.BehaviorDirs()...)),
	}
	return compiler.New(append(opts, extra...)...)
}

// writeMetrics writes the gathered metrics to the configured file. It does
// nothing when metrics are off.
func (a *app) writeMetrics() error {
	path := a.props.MetricsFile()
	if path == "" || a.metrics == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.metrics); err != nil {
		return propel.NewIOError("write", path, err)
	}
	a.logger.Debug("metrics written", "file", path)
	return nil
}

func (a *app) reader() *load.Reader {
	return load.NewReader(load.WithReaderLogger(a.logger))
}

// schemaPaths returns args, or the schema documents of the schema directory.
func (a *app) schemaPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	dir := a.props.SchemaDir()
	var paths []string
	for _, pattern := range schemaPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, propel.NewInvalidArgumentError("", config.KeySchemaDir, "%v", err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, propel.NewInvalidArgumentError("", config.KeySchemaDir, "no schema documents in %q", dir)
	}
	slices.Sort(paths)
	return paths, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("propel failed", "error", err)
		os.Exit(1)
	}
}
