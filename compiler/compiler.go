// Package compiler runs schema documents through the whole pipeline:
// load, link, behaviors, validation, then SQL and Go code.
package compiler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/propel"
	"github.com/syssam/propel/behavior"
	"github.com/syssam/propel/compiler/gen"
	"github.com/syssam/propel/compiler/load"
	"github.com/syssam/propel/dialect/sql/platform"
	"github.com/syssam/propel/locator"
	"github.com/syssam/propel/schema"
)

// Compiler turns schema documents into DDL and generated code.
type Compiler struct {
	cfg      *gen.Config
	reader   *load.Reader
	registry *behavior.Registry
	logger   *slog.Logger
	sqlDir   string
	code     bool

	discovery    locator.Locator
	discoverOpts []behavior.DiscoverOption
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithConfig sets the code generation config.
func WithConfig(cfg *gen.Config) Option {
	return func(c *Compiler) { c.cfg = cfg }
}

// WithReader sets the schema reader.
func WithReader(r *load.Reader) Option {
	return func(c *Compiler) { c.reader = r }
}

// WithRegistry sets the behavior registry.
func WithRegistry(r *behavior.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithSQLDir writes the CREATE script of each document into dir. An empty
// dir keeps the script in the Result only.
func WithSQLDir(dir string) Option {
	return func(c *Compiler) { c.sqlDir = dir }
}

// WithoutCode skips Go code generation.
func WithoutCode() Option {
	return func(c *Compiler) { c.code = false }
}

// WithDiscovery reads behavior manifests through loc when the compiler is
// created and binds the announced classes.
func WithDiscovery(loc locator.Locator, opts ...behavior.DiscoverOption) Option {
	return func(c *Compiler) {
		c.discovery = loc
		c.discoverOpts = opts
	}
}

// New returns a compiler. Without WithConfig, the gen defaults are used.
func New(opts ...Option) (*Compiler, error) {
	c := &Compiler{logger: slog.Default(), code: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg == nil {
		cfg, err := gen.NewConfig(gen.WithLogger(c.logger))
		if err != nil {
			return nil, err
		}
		c.cfg = cfg
	}
	if c.reader == nil {
		c.reader = load.NewReader(load.WithReaderLogger(c.logger))
	}
	if c.registry == nil {
		c.registry = behavior.NewRegistry()
	}
	if c.discovery != nil {
		opts := append([]behavior.DiscoverOption{behavior.WithDiscoverLogger(c.logger)}, c.discoverOpts...)
		ds, err := c.registry.Discover(c.discovery, opts...)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("behaviors discovered", "count", len(ds))
	}
	return c, nil
}

// Config returns the code generation config.
func (c *Compiler) Config() *gen.Config { return c.cfg }

// Registry returns the behavior registry.
func (c *Compiler) Registry() *behavior.Registry { return c.registry }

// Result is the output of one schema document.
type Result struct {
	Path     string
	Database *schema.Database
	Platform platform.Platform
	// SQL is the CREATE script of every entity.
	SQL string
	// SQLFile is the written script, empty without an SQL directory.
	SQLFile string
	// Files is empty when code generation is disabled.
	Files []*gen.File
}

// Prepare reads the document at path, applies its behaviors and validates
// the result. The engine links the model once the behaviors have added their
// fields and entities. The returned engine holds the hook fragments of the
// prepared model.
func (c *Compiler) Prepare(path string) (*schema.Database, *behavior.Engine, error) {
	db, err := c.reader.Read(path)
	if err != nil {
		return nil, nil, err
	}
	engine := behavior.NewEngine(c.registry, behavior.WithEngineLogger(c.logger))
	if err := engine.Prepare(db); err != nil {
		return nil, nil, err
	}
	if err := db.Validate(); err != nil {
		return nil, nil, err
	}
	return db, engine, nil
}

// configFor returns the config of db. A platform declared by the document
// replaces the configured one.
func (c *Compiler) configFor(db *schema.Database) (*gen.Config, error) {
	if db.Platform == "" || db.Platform == c.cfg.Platform.Name() {
		return c.cfg, nil
	}
	p, err := platform.ByName(db.Platform)
	if err != nil {
		return nil, propel.WrapBuildError("prepare", "", err, "database %q", db.Name)
	}
	cfg := *c.cfg
	cfg.Platform = p
	return &cfg, nil
}

// Generate runs one document through the pipeline. The first error aborts
// the run.
func (c *Compiler) Generate(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	c.logger.Info("compile schema", "path", path)
	db, engine, err := c.Prepare(path)
	if err != nil {
		return nil, err
	}
	cfg, err := c.configFor(db)
	if err != nil {
		return nil, err
	}
	res := &Result{Path: path, Database: db, Platform: cfg.Platform}
	if c.code {
		g, err := gen.New(cfg, engine)
		if err != nil {
			return nil, err
		}
		if res.Files, err = g.Generate(ctx, db); err != nil {
			return nil, err
		}
	}
	// The script is written only once the code built.
	res.SQL = cfg.Platform.AddEntitiesDDL(db)
	if c.sqlDir != "" {
		if res.SQLFile, err = c.writeSQL(db, res.SQL); err != nil {
			return nil, err
		}
	}
	c.logger.Info("compiled schema", "path", path, "entities", len(db.Entities), "files", len(res.Files), "duration", time.Since(start))
	return res, nil
}

// GenerateAll runs independent documents in parallel, at most Workers at a
// time. Results keep the order of paths.
func (c *Compiler) GenerateAll(ctx context.Context, paths ...string) ([]*Result, error) {
	results := make([]*Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.cfg.Workers, 1))
	for i, p := range paths {
		g.Go(func() error {
			res, err := c.Generate(ctx, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SQLFileName returns the script name of db.
func SQLFileName(db *schema.Database) string {
	if db.Name == "" {
		return "schema.sql"
	}
	return db.Name + ".sql"
}

func (c *Compiler) writeSQL(db *schema.Database, script string) (string, error) {
	if err := os.MkdirAll(c.sqlDir, 0o755); err != nil {
		return "", propel.NewIOError("write", c.sqlDir, err)
	}
	p := filepath.Join(c.sqlDir, SQLFileName(db))
	if err := os.WriteFile(p, []byte(script), 0o644); err != nil {
		return "", propel.NewIOError("write", p, err)
	}
	c.logger.Info("wrote file", "path", p, "bytes", len(script))
	return p, nil
}
