package load

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/propel"
	"github.com/syssam/propel/locator"
	"github.com/syssam/propel/schema"
)

// Reader reads schema documents into the model, following external schema
// includes.
type Reader struct {
	loaders []Loader
	locator locator.Locator
	logger  *slog.Logger
	fsys    fs.FS // nil reads from disk
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLocator sets the locator used for includes that are not found next to
// the including file.
func WithLocator(l locator.Locator) ReaderOption {
	return func(r *Reader) { r.locator = l }
}

// WithReaderLogger sets the logger.
func WithReaderLogger(l *slog.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// WithFS reads documents from fsys instead of the local disk.
func WithFS(fsys fs.FS) ReaderOption {
	return func(r *Reader) { r.fsys = fsys }
}

// WithLoaders replaces the format loaders.
func WithLoaders(loaders ...Loader) ReaderOption {
	return func(r *Reader) { r.loaders = loaders }
}

// NewReader returns a Reader with the default loaders.
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{loaders: Loaders(), logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read reads the document at path and every external schema it includes.
// Entities pulled in by several includes are kept once, first wins.
func (r *Reader) Read(path string) (*schema.Database, error) {
	return r.read(path, make(map[string]bool))
}

// ReadAll reads several independent documents in parallel. Results keep the
// order of paths.
func (r *Reader) ReadAll(ctx context.Context, paths ...string) ([]*schema.Database, error) {
	dbs := make([]*schema.Database, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			db, err := r.Read(p)
			if err != nil {
				return err
			}
			dbs[i] = db
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dbs, nil
}

// Mapping loads the raw mapping of one document without building the model.
func (r *Reader) Mapping(path string) (map[string]any, error) {
	l, err := loaderFor(r.loaders, path)
	if err != nil {
		return nil, err
	}
	if r.fsys == nil {
		return l.Load(path)
	}
	data, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		return nil, propel.NewIOError("read", path, err)
	}
	return l.Parse(path, data)
}

func (r *Reader) read(p string, visited map[string]bool) (*schema.Database, error) {
	visited[r.clean(p)] = true
	m, err := r.Mapping(p)
	if err != nil {
		return nil, err
	}
	db, err := Database(m)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("schema loaded", "path", p, "entities", len(db.Entities))
	for _, inc := range db.ExternalSchemas {
		ip, err := r.resolve(p, inc)
		if err != nil {
			return nil, err
		}
		if visited[r.clean(ip)] {
			continue
		}
		ext, err := r.read(ip, visited)
		if err != nil {
			return nil, err
		}
		for _, e := range ext.Entities {
			if db.HasEntity(e.Name) {
				r.logger.Debug("skipping duplicate external entity", "entity", e.Name, "path", ip)
				continue
			}
			if err := db.AddEntity(e); err != nil {
				return nil, err
			}
		}
	}
	return db, nil
}

// resolve finds an include next to the including file, then via the locator.
func (r *Reader) resolve(from, name string) (string, error) {
	var candidate string
	if r.fsys != nil {
		candidate = path.Join(path.Dir(from), name)
		if _, err := fs.Stat(r.fsys, candidate); err == nil {
			return candidate, nil
		}
	} else {
		candidate = name
		if !filepath.IsAbs(name) {
			candidate = filepath.Join(filepath.Dir(from), name)
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if r.locator != nil {
		if p, err := r.locator.Locate(name); err == nil {
			return p, nil
		}
	}
	return "", propel.NewIOError("read", candidate, fs.ErrNotExist)
}

func (r *Reader) clean(p string) string {
	if r.fsys != nil {
		return path.Clean(p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
