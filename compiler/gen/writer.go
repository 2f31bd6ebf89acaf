package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer writes generated files below the output directory, in parallel.
type Writer struct {
	cfg *Config
}

// NewWriter returns a writer for cfg.
func NewWriter(cfg *Config) *Writer {
	return &Writer{cfg: cfg}
}

// Write renders and writes files. Paths are disjoint, so the files are
// written concurrently, at most Workers at a time. The first error cancels
// the remaining writes.
func (w *Writer) Write(ctx context.Context, files []*File) error {
	if err := os.MkdirAll(w.cfg.OutputDir, 0o755); err != nil {
		return NewGenerationError("write", w.cfg.OutputDir, "create output directory", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(w.cfg.Workers, 1))
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeFile(f)
			}
		})
	}
	return eg.Wait()
}

// writeFile renders, formats and writes a single file.
func (w *Writer) writeFile(f *File) error {
	// 1. Render
	var buf bytes.Buffer
	if err := f.file.Render(&buf); err != nil {
		return NewGenerationError("render", f.Path, "render source", err)
	}
	src := buf.Bytes()

	// 2. Format using goimports
	fullPath := filepath.Join(w.cfg.OutputDir, f.Path)
	if w.cfg.Format {
		formatted, err := imports.Process(fullPath, src, nil)
		if err != nil {
			// Write unformatted file for debugging; errors are ignored as we are already failing.
			debugPath := fullPath + ".error"
			_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
			_ = os.WriteFile(debugPath, src, 0o644)
			return NewGenerationError("format", f.Path, "unformatted source written to "+debugPath, err)
		}
		src = formatted
	}

	// 3. Write
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return NewGenerationError("write", f.Path, "create directory", err)
	}
	if err := os.WriteFile(fullPath, src, 0o644); err != nil {
		return NewGenerationError("write", f.Path, "write file", err)
	}

	w.cfg.Logger.Info("wrote file", "path", fullPath, "bytes", len(src))
	if m := w.cfg.Metrics; m != nil {
		m.Files.WithLabelValues(f.builderLabel()).Inc()
		m.Bytes.Add(float64(len(src)))
	}
	return nil
}
