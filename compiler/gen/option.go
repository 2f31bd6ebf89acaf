package gen

import (
	"errors"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/syssam/propel/dialect/sql/platform"
)

// DefaultHeader is the comment on top of every generated file.
const DefaultHeader = "Code generated by propel, DO NOT EDIT."

// Config holds the code generation settings. It is passed explicitly to every
// stage; there is no global state.
type Config struct {
	// OutputDir is the root directory of the generated packages.
	OutputDir string
	// Package is the Go package name of entities without a namespace.
	Package string
	// Header is the comment on top of each file.
	Header string
	// Platform renders the SQL embedded in repositories.
	Platform platform.Platform
	// Pluralizer names collections.
	Pluralizer Pluralizer
	// Builders lists the generated file kinds per entity.
	Builders []BuilderType
	// Components overrides the component pipeline of a builder type.
	Components map[BuilderType][]string
	// Workers bounds parallel file writes.
	Workers int
	// Format runs goimports on every file before writing.
	Format bool
	// Logger receives progress records.
	Logger *slog.Logger
	// Metrics is optional.
	Metrics *Metrics
}

// Option configures code generation.
type Option func(*Config) error

// WithOutputDir sets the output root directory.
func WithOutputDir(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("OutputDir", nil, "output directory cannot be empty")
		}
		c.OutputDir = dir
		return nil
	}
}

// WithPackage sets the package name used for entities without a namespace.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPlatform selects the SQL platform by name: mysql, pgsql, sqlite,
// oracle or mssql.
func WithPlatform(name string) Option {
	return func(c *Config) error {
		p, err := platform.ByName(name)
		if err != nil {
			return NewConfigError("Platform", name, "unknown platform; use one of "+strings.Join(platform.Names(), ", "))
		}
		c.Platform = p
		return nil
	}
}

// WithPlatformInstance sets an already constructed platform, for example one
// returned by platform.Detect.
func WithPlatformInstance(p platform.Platform) Option {
	return func(c *Config) error {
		if p == nil {
			return NewConfigError("Platform", nil, "platform cannot be nil")
		}
		c.Platform = p
		return nil
	}
}

// WithPluralizer sets the pluralizer.
func WithPluralizer(p Pluralizer) Option {
	return func(c *Config) error {
		if p == nil {
			return NewConfigError("Pluralizer", nil, "pluralizer cannot be nil")
		}
		c.Pluralizer = p
		return nil
	}
}

// WithBuilders restricts generation to the given builder types.
func WithBuilders(types ...BuilderType) Option {
	return func(c *Config) error {
		if len(types) == 0 {
			return NewConfigError("Builders", nil, "at least one builder is required")
		}
		for _, t := range types {
			if _, ok := pipelines[t]; !ok {
				return NewConfigError("Builders", t, "unknown builder type")
			}
		}
		c.Builders = slices.Clone(types)
		return nil
	}
}

// WithComponents replaces the component pipeline of one builder type. The
// components run in the given order.
func WithComponents(t BuilderType, names ...string) Option {
	return func(c *Config) error {
		known, ok := pipelines[t]
		if !ok {
			return NewConfigError("Components", t, "unknown builder type")
		}
		for _, name := range names {
			if !slices.ContainsFunc(known, func(cp Component) bool { return cp.Name == name }) {
				return NewConfigError("Components", name, "unknown "+string(t)+" component")
			}
		}
		if c.Components == nil {
			c.Components = make(map[BuilderType][]string)
		}
		c.Components[t] = slices.Clone(names)
		return nil
	}
}

// WithWorkers sets the number of parallel file writers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithFormat enables or disables goimports formatting.
func WithFormat(enabled bool) Option {
	return func(c *Config) error {
		c.Format = enabled
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithMetrics records generation metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) error {
		c.Metrics = m
		return nil
	}
}

// Apply applies options to the config and stops at the first error.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HasBuilder reports if files of type t are generated.
func (c *Config) HasBuilder(t BuilderType) bool {
	return slices.Contains(c.Builders, t)
}

// NewConfig creates a config with defaults overridden by opts.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		OutputDir:  "generated",
		Package:    "model",
		Header:     DefaultHeader,
		Platform:   platform.NewMySQL(),
		Pluralizer: StandardPluralizer{},
		Builders:   slices.Clone(AllBuilders),
		Workers:    runtime.GOMAXPROCS(0),
		Format:     true,
		Logger:     slog.Default(),
	}
	if err := c.ApplyAll(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig is like NewConfig but panics on error.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
