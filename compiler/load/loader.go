// Package load reads XML, YAML and JSON schema documents into the schema model.
//
// Loading happens in two steps. A format Loader turns a document into a
// plain mapping with plural collection keys (entities, fields, relations,
// references, behaviors, parameters, indices, uniques, vendors,
// externalSchemas). A Reader then builds a *schema.Database from the mapping
// and pulls in external schemas.
package load

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syssam/propel"
)

// Loader decodes one document format into a mapping.
type Loader interface {
	// Supports reports if the loader handles the resource, by extension.
	Supports(path string) bool
	// Load reads and decodes the resource.
	Load(path string) (map[string]any, error)
	// Parse decodes already-read content. path is used for diagnostics.
	Parse(path string, data []byte) (map[string]any, error)
}

// Loaders returns the default loaders in dispatch order.
func Loaders() []Loader {
	return []Loader{XMLLoader{}, YAMLLoader{}, JSONLoader{}}
}

// Load dispatches path to the first loader supporting it.
func Load(path string) (map[string]any, error) {
	l, err := loaderFor(Loaders(), path)
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}

func loaderFor(loaders []Loader, path string) (Loader, error) {
	for _, l := range loaders {
		if l.Supports(path) {
			return l, nil
		}
	}
	return nil, propel.NewInvalidArgumentError("", "", "no loader supports %q (expected .xml, .yml, .yaml or .json)", path)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, propel.NewIOError("read", path, err)
	}
	return data, nil
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func diagnostic(line, col int, msg string) string {
	if col > 0 {
		return fmt.Sprintf("line %d, column %d: %s", line, col, msg)
	}
	return fmt.Sprintf("line %d: %s", line, msg)
}
