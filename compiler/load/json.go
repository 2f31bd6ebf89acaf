package load

import (
	"encoding/json"
	"errors"

	"github.com/syssam/propel"
)

// JSONLoader loads .json schema documents.
type JSONLoader struct{}

// Supports reports if path has a .json extension.
func (JSONLoader) Supports(path string) bool {
	return hasExt(path, ".json")
}

// Load reads and decodes a JSON schema document.
func (l JSONLoader) Load(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(path, data)
}

// Parse decodes JSON content. A top-level "database" key is unwrapped.
func (JSONLoader) Parse(path string, data []byte) (map[string]any, error) {
	if isBlank(data) {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		var (
			serr *json.SyntaxError
			terr *json.UnmarshalTypeError
		)
		switch {
		case errors.As(err, &serr):
			line, col := position(data, serr.Offset)
			return nil, propel.NewParseError("json", path, err, diagnostic(line, col, serr.Error()))
		case errors.As(err, &terr):
			line, col := position(data, terr.Offset)
			return nil, propel.NewParseError("json", path, err, diagnostic(line, col, "document root must be an object"))
		default:
			return nil, propel.NewParseError("json", path, err)
		}
	}
	if m == nil {
		return map[string]any{}, nil
	}
	return unwrapDatabase(m), nil
}
