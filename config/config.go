// Package config reads the build properties of a project from propel.yaml,
// propel.json or propel.toml and PROPEL_ environment variables.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/gen"
)

const (
	// FileName is the base name searched in the working directory.
	FileName = "propel"
	// EnvPrefix prefixes environment overrides: generator.platform is read
	// from PROPEL_GENERATOR_PLATFORM.
	EnvPrefix = "PROPEL"
)

// Keys of the known properties.
const (
	KeyPlatform     = "generator.platform"
	KeyPluralizer   = "generator.pluralizer"
	KeyPackage      = "generator.targetPackage"
	KeyWorkers      = "generator.workers"
	KeyFormat       = "generator.format"
	KeyMetrics      = "generator.metrics"
	KeyBuilderTypes = "generator.objectModel.builderTypes"
	KeyBuilders     = "generator.objectModel.builders"
	KeyOutputDir    = "paths.outputDir"
	KeySQLDir       = "paths.sqlDir"
	KeySchemaDir    = "paths.schemaDir"
	KeyBehaviorDirs = "paths.behaviorDirs"
	KeyLogLevel     = "log.level"
)

// Properties is a dotted-path view over the merged configuration.
type Properties struct {
	v    *viper.Viper
	file string
}

// New returns properties holding the defaults and environment overrides.
func New() *Properties {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Properties{v: v}
}

// Load reads the file at path. An empty path searches propel.{yaml,json,toml}
// in the working directory, and a missing file leaves the defaults.
func Load(path string) (*Properties, error) {
	p := New()
	if path == "" {
		p.v.SetConfigName(FileName)
		p.v.AddConfigPath(".")
	} else {
		if _, err := os.Stat(path); err != nil {
			return nil, propel.NewIOError("read", path, err)
		}
		p.v.SetConfigFile(path)
	}
	if err := p.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var parse viper.ConfigParseError
		switch {
		case errors.As(err, &notFound):
			return p, nil
		case errors.As(err, &parse):
			return nil, propel.NewParseError(format(path), path, err, err.Error())
		case errors.Is(err, fs.ErrNotExist):
			return nil, propel.NewIOError("read", path, err)
		default:
			return nil, propel.NewParseError(format(path), path, err, err.Error())
		}
	}
	p.file = p.v.ConfigFileUsed()
	return p, nil
}

func format(path string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		return ext
	}
	return "config"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPlatform, "mysql")
	v.SetDefault(KeyPluralizer, "standard")
	v.SetDefault(KeyPackage, "model")
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyFormat, true)
	v.SetDefault(KeyMetrics, "")
	types := make([]string, len(gen.AllBuilders))
	for i, t := range gen.AllBuilders {
		types[i] = string(t)
		v.SetDefault(KeyBuilders+"."+string(t), gen.Components(t))
	}
	v.SetDefault(KeyBuilderTypes, types)
	v.SetDefault(KeyOutputDir, "generated")
	v.SetDefault(KeySQLDir, "generated-sql")
	v.SetDefault(KeySchemaDir, ".")
	v.SetDefault(KeyBehaviorDirs, []string{"."})
	v.SetDefault(KeyLogLevel, "info")
}

// File returns the file the properties were read from, or "".
func (p *Properties) File() string { return p.file }

// Get returns the value at a dotted path, or nil.
func (p *Properties) Get(key string) any { return p.v.Get(key) }

// GetString returns the value at key as a string.
func (p *Properties) GetString(key string) string { return p.v.GetString(key) }

// GetStringSlice returns the value at key as a string list.
func (p *Properties) GetStringSlice(key string) []string { return p.v.GetStringSlice(key) }

// GetBool returns the value at key as a bool.
func (p *Properties) GetBool(key string) bool { return p.v.GetBool(key) }

// GetInt returns the value at key as an int.
func (p *Properties) GetInt(key string) int { return p.v.GetInt(key) }

// IsSet reports if key has a value, defaults included.
func (p *Properties) IsSet(key string) bool { return p.v.IsSet(key) }

// Set overrides key, for example with a command line flag.
func (p *Properties) Set(key string, value any) { p.v.Set(key, value) }

// BindFlag reads key from f when the flag is set on the command line. An
// unset flag does not shadow the file, the environment or the defaults.
func (p *Properties) BindFlag(key string, f *pflag.Flag) error {
	if err := p.v.BindPFlag(key, f); err != nil {
		return propel.NewInvalidArgumentError("", key, "bind flag: %v", err)
	}
	return nil
}

// OutputDir returns the root directory of the generated code.
func (p *Properties) OutputDir() string { return p.GetString(KeyOutputDir) }

// SQLDir returns the directory of the generated scripts.
func (p *Properties) SQLDir() string { return p.GetString(KeySQLDir) }

// SchemaDir returns the directory searched for schema documents.
func (p *Properties) SchemaDir() string { return p.GetString(KeySchemaDir) }

// BehaviorDirs returns the directories searched for behavior manifests.
func (p *Properties) BehaviorDirs() []string { return p.GetStringSlice(KeyBehaviorDirs) }

// MetricsFile returns the file receiving the generation metrics in the
// Prometheus text format, or "" when they are not recorded.
func (p *Properties) MetricsFile() string { return p.GetString(KeyMetrics) }

// LogLevel returns the configured log level.
func (p *Properties) LogLevel() (slog.Level, error) {
	var l slog.Level
	s := p.GetString(KeyLogLevel)
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, propel.NewInvalidArgumentError("", KeyLogLevel, "unknown log level %q", s)
	}
	return l, nil
}

// ToOptions maps the generator and path properties to gen options. Builder
// component lists are only passed on when they differ from the defaults.
func (p *Properties) ToOptions() ([]gen.Option, error) {
	pl, err := gen.PluralizerByName(p.GetString(KeyPluralizer))
	if err != nil {
		return nil, err
	}
	opts := []gen.Option{
		gen.WithPlatform(p.GetString(KeyPlatform)),
		gen.WithPluralizer(pl),
		gen.WithPackage(p.GetString(KeyPackage)),
		gen.WithOutputDir(p.OutputDir()),
		gen.WithFormat(p.GetBool(KeyFormat)),
	}
	if n := p.GetInt(KeyWorkers); n > 0 {
		opts = append(opts, gen.WithWorkers(n))
	}
	var types []gen.BuilderType
	for _, s := range p.GetStringSlice(KeyBuilderTypes) {
		t, err := gen.ParseBuilderType(s)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	opts = append(opts, gen.WithBuilders(types...))
	for _, t := range gen.AllBuilders {
		names := p.GetStringSlice(KeyBuilders + "." + string(t))
		if len(names) > 0 && !slices.Equal(names, gen.Components(t)) {
			opts = append(opts, gen.WithComponents(t, names...))
		}
	}
	return opts, nil
}
