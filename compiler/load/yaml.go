package load

import (
	"errors"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/syssam/propel"
)

// YAMLLoader loads .yml and .yaml schema documents.
type YAMLLoader struct{}

// Supports reports if path has a .yml or .yaml extension.
func (YAMLLoader) Supports(path string) bool {
	return hasExt(path, ".yml", ".yaml")
}

// Load reads and decodes a YAML schema document.
func (l YAMLLoader) Load(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(path, data)
}

// Parse decodes YAML content. A top-level "database" key is unwrapped.
func (YAMLLoader) Parse(path string, data []byte) (map[string]any, error) {
	if isBlank(data) {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		var terr *yaml.TypeError
		if errors.As(err, &terr) {
			return nil, propel.NewParseError("yaml", path, err, terr.Errors...)
		}
		return nil, propel.NewParseError("yaml", path, err, yamlDiagnostic(err))
	}
	if m == nil {
		return map[string]any{}, nil
	}
	return unwrapDatabase(m), nil
}

var yamlLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// yamlDiagnostic rewrites "yaml: line N: msg" into the shared diagnostic form.
func yamlDiagnostic(err error) string {
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		return diagnostic(line, 0, m[2])
	}
	return err.Error()
}

func unwrapDatabase(m map[string]any) map[string]any {
	if len(m) == 1 {
		if db, ok := m["database"].(map[string]any); ok {
			return db
		}
	}
	return m
}
