package load

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// str returns the first present key as a string.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			switch v := v.(type) {
			case string:
				return v
			case []any:
				if len(v) == 1 {
					if s, ok := v[0].(string); ok {
						return s
					}
				}
			default:
				return fmt.Sprint(v)
			}
		}
	}
	return ""
}

// has reports if any key is present.
func has(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// boolean parses the first present key. Accepts true/false, 1/0, yes/no, on/off.
func boolean(m map[string]any, def bool, keys ...string) (bool, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if b, ok := v.(bool); ok {
			return b, nil
		}
		switch strings.ToLower(strings.TrimSpace(fmt.Sprint(v))) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off", "":
			return false, nil
		default:
			return def, fmt.Errorf("%s: invalid boolean %q", k, v)
		}
	}
	return def, nil
}

// integer parses the first present key.
func integer(m map[string]any, keys ...string) (int, error) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch v := v.(type) {
		case int:
			return v, nil
		case float64:
			return int(v), nil
		default:
			s := strings.TrimSpace(fmt.Sprint(v))
			if s == "" {
				return 0, nil
			}
			n, err := strconv.Atoi(s)
			if err != nil {
				return 0, fmt.Errorf("%s: invalid integer %q", k, s)
			}
			return n, nil
		}
	}
	return 0, nil
}

// list returns a collection as mappings. A single mapping is a one-element
// list, and a mapping of mappings is keyed by name (YAML shorthand):
//
//	fields:
//	  id: {type: INTEGER, primaryKey: true}
func list(m map[string]any, keys ...string) []map[string]any {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch v := v.(type) {
		case []any:
			out := make([]map[string]any, 0, len(v))
			for _, item := range v {
				switch item := item.(type) {
				case map[string]any:
					out = append(out, item)
				case string:
					out = append(out, map[string]any{"name": item, "filename": item})
				}
			}
			return out
		case map[string]any:
			if named := namedMap(v); named != nil {
				return named
			}
			return []map[string]any{v}
		case string:
			return []map[string]any{{"name": v, "filename": v}}
		}
	}
	return nil
}

// namedMap converts {name: {...}} to [{name: name, ...}] when every value is
// a mapping. Keys are sorted for a stable order.
func namedMap(m map[string]any) []map[string]any {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if _, ok := v.(map[string]any); !ok && v != nil {
			return nil
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		item, _ := m[k].(map[string]any)
		c := make(map[string]any, len(item)+1)
		for ik, iv := range item {
			c[ik] = iv
		}
		if _, ok := c["name"]; !ok {
			c["name"] = k
		}
		out = append(out, c)
	}
	return out
}

// parameters reads behavior or vendor parameters given either as a list of
// {name, value} or as a plain mapping.
func parameters(m map[string]any) map[string]string {
	params := make(map[string]string)
	switch v := m["parameters"].(type) {
	case []any:
		for _, item := range v {
			if p, ok := item.(map[string]any); ok {
				params[str(p, "name")] = str(p, "value")
			}
		}
	case map[string]any:
		for k, pv := range v {
			if pm, ok := pv.(map[string]any); ok {
				params[k] = str(pm, "value")
				continue
			}
			params[k] = str(map[string]any{"v": pv}, "v")
		}
	}
	return params
}

// stringList returns a string list, splitting comma-separated scalars.
func stringList(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if mm, ok := item.(map[string]any); ok {
					out = append(out, str(mm, "value", "name"))
					continue
				}
				out = append(out, strings.TrimSpace(fmt.Sprint(item)))
			}
			return out
		case string:
			var out []string
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}
