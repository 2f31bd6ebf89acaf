// Package locator finds files by name across a list of search locations.
// Behavior discovery uses it to find manifests and the schema reader uses it
// to resolve external schema includes.
package locator

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/syssam/propel"
)

// Locator resolves a file name to a readable path.
type Locator interface {
	Locate(name string) (string, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(name string) (string, error)

// Locate calls f(name).
func (f LocatorFunc) Locate(name string) (string, error) { return f(name) }

// Dir searches directories on disk in order. Absolute names are returned
// as-is when they exist.
type Dir struct {
	Dirs []string
}

// NewDir returns a Dir locator over the given directories.
func NewDir(dirs ...string) *Dir {
	return &Dir{Dirs: dirs}
}

// Locate returns the first existing dir/name.
func (d *Dir) Locate(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", propel.NewIOError("stat", name, err)
		}
		return name, nil
	}
	for _, dir := range d.Dirs {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", propel.NewIOError("locate", name, fs.ErrNotExist)
}

// FS searches directories inside a file system.
type FS struct {
	FS   fs.FS
	Dirs []string // Defaults to the root "."
}

// Locate returns the first existing dir/name within the file system.
func (l *FS) Locate(name string) (string, error) {
	dirs := l.Dirs
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for _, dir := range dirs {
		p := path.Join(dir, name)
		if _, err := fs.Stat(l.FS, p); err == nil {
			return p, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", propel.NewIOError("stat", p, err)
		}
	}
	return "", propel.NewIOError("locate", name, fs.ErrNotExist)
}

// Chain tries each locator in order and returns the first hit.
type Chain []Locator

// Locate returns the first successful lookup, or the last error.
func (c Chain) Locate(name string) (string, error) {
	err := propel.NewIOError("locate", name, fs.ErrNotExist)
	for _, l := range c {
		p, lerr := l.Locate(name)
		if lerr == nil {
			return p, nil
		}
		err = propel.NewIOError("locate", name, lerr)
	}
	return "", err
}
