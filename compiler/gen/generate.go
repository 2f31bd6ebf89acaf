package gen

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel"
	"github.com/syssam/propel/behavior"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// File is one generated source file.
type File struct {
	// Path is relative to the output directory, with forward slashes.
	Path    string
	Package string
	// Entity and Builder are empty for the shared file of a package.
	Entity  string
	Builder BuilderType

	file *jen.File
}

// Bytes renders the unformatted source.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.file.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GoString renders the source, or the render error.
func (f *File) GoString() string { return f.file.GoString() }

func (f *File) builderLabel() string {
	if f.Builder == "" {
		return "shared"
	}
	return string(f.Builder)
}

// namespaceSegments splits a namespace such as Acme\Library or acme.library
// into directory names.
func namespaceSegments(ns string) []string {
	parts := strings.FieldsFunc(ns, func(r rune) bool { return r == '\\' || r == '/' || r == '.' })
	for i, p := range parts {
		parts[i] = naming.Snake(p)
	}
	return parts
}

// packageDir returns the directory of e relative to the output root.
func packageDir(e *schema.Entity) string {
	return path.Join(namespaceSegments(e.PackageNamespace())...)
}

// packageName returns the Go package of e: the last namespace segment, or the
// configured package.
func packageName(e *schema.Entity, cfg *Config) string {
	segs := namespaceSegments(e.PackageNamespace())
	if len(segs) == 0 {
		return cfg.Package
	}
	return strings.ReplaceAll(segs[len(segs)-1], "_", "")
}

// outputPath returns the file of (e, t).
func outputPath(e *schema.Entity, t BuilderType) string {
	return path.Join(packageDir(e), naming.Snake(e.Name)+t.suffix()+".go")
}

// Generator builds and writes the code of a database.
type Generator struct {
	cfg     *Config
	builder *Builder
}

// New returns a generator. engine must be the one that prepared the database
// so hook fragments are found; nil means no behaviors.
func New(cfg *Config, engine *behavior.Engine) (*Generator, error) {
	if cfg == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	b, err := NewBuilder(cfg, engine)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, builder: b}, nil
}

// Files builds every file of db without writing them.
func (g *Generator) Files(db *schema.Database) ([]*File, error) {
	var (
		files  []*File
		seen   = make(map[string]string)
		shared []*File
		dirs   = make(map[string]bool)
	)
	claim := func(p, owner string) error {
		if prev, ok := seen[p]; ok {
			return propel.NewBuildError("build", owner, "output file %q is also produced by %s", p, prev)
		}
		seen[p] = owner
		return nil
	}
	for _, e := range db.Entities {
		if err := CheckRelationNames(e, g.cfg.Pluralizer); err != nil {
			return nil, err
		}
		for _, t := range g.cfg.Builders {
			def, err := g.builder.Build(e, t)
			if err != nil {
				return nil, err
			}
			p := outputPath(e, t)
			if err := claim(p, e.Name); err != nil {
				return nil, err
			}
			f := g.newFile(def.Package, p)
			def.Render(f.file)
			f.Entity, f.Builder = e.Name, t
			files = append(files, f)
		}
		if m := g.cfg.Metrics; m != nil {
			m.Entities.Inc()
		}
		if dir := packageDir(e); !dirs[dir] {
			dirs[dir] = true
			p := path.Join(dir, SharedFile)
			if err := claim(p, "package "+packageName(e, g.cfg)); err != nil {
				return nil, err
			}
			f := g.newFile(packageName(e, g.cfg), p)
			renderShared(f.file, g.cfg.Platform)
			shared = append(shared, f)
		}
	}
	return append(shared, files...), nil
}

func (g *Generator) newFile(pkg, p string) *File {
	jf := jen.NewFile(pkg)
	if g.cfg.Header != "" {
		jf.HeaderComment(g.cfg.Header)
	}
	return &File{Path: p, Package: pkg, file: jf}
}

// Generate builds and writes every file of db.
func (g *Generator) Generate(ctx context.Context, db *schema.Database) ([]*File, error) {
	start := time.Now()
	g.cfg.Logger.Info("generate code", "database", db.Name, "output", g.cfg.OutputDir)
	files, err := g.Files(db)
	if err != nil {
		return nil, err
	}
	if err := NewWriter(g.cfg).Write(ctx, files); err != nil {
		return nil, err
	}
	if m := g.cfg.Metrics; m != nil {
		m.Duration.Observe(time.Since(start).Seconds())
	}
	g.cfg.Logger.Info("generated code", "database", db.Name, "files", len(files), "duration", time.Since(start))
	return files, nil
}
