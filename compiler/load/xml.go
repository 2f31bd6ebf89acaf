package load

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/syssam/propel"
)

// XMLLoader loads .xml schema documents.
type XMLLoader struct{}

// rootElement wraps the document so that anything before <database>
// (doctype, processing instructions, comments) is dropped cleanly.
const rootElement = "propel-root"

// pluralKeys maps XML element names to mapping collection keys.
var pluralKeys = map[string]string{
	"entity":          "entities",
	"table":           "entities",
	"field":           "fields",
	"column":          "fields",
	"relation":        "relations",
	"foreign-key":     "relations",
	"reference":       "references",
	"behavior":        "behaviors",
	"parameter":       "parameters",
	"index":           "indices",
	"unique":          "uniques",
	"vendor":          "vendors",
	"external-schema": "externalSchemas",
	"index-column":    "columns",
	"unique-column":   "columns",
	"value":           "valueSet",
}

// requiredAttrs lists, per element, attributes without which the element is
// meaningless. Missing ones are reported together.
var requiredAttrs = map[string][]string{
	"database":        {"name"},
	"entity":          {"name"},
	"field":           {"name"},
	"behavior":        {"name"},
	"parameter":       {"name"},
	"reference":       {"local", "foreign"},
	"external-schema": {"filename"},
	"index-column":    {"name"},
	"unique-column":   {"name"},
}

// Supports reports if path has an .xml extension.
func (XMLLoader) Supports(path string) bool {
	return hasExt(path, ".xml")
}

// Load reads and decodes an XML schema document.
func (l XMLLoader) Load(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(path, data)
}

// Parse decodes XML content. The mapping returned is the <database> element.
func (XMLLoader) Parse(path string, data []byte) (map[string]any, error) {
	if isBlank(data) {
		return map[string]any{}, nil
	}
	start := databaseOffset(data)
	if start < 0 {
		return nil, propel.NewParseError("xml", path, propel.ErrInvalidContent, "no <database> element found")
	}
	baseLine, baseCol := position(data, int64(start))
	shift := func(line, col int) (int, int) {
		if line == 1 {
			col = col - len("<"+rootElement+">") + baseCol - 1
		}
		return line + baseLine - 1, col
	}

	var buf bytes.Buffer
	buf.Grow(len(data) - start + 2*len(rootElement) + 5)
	buf.WriteString("<" + rootElement + ">")
	buf.Write(data[start:])
	buf.WriteString("</" + rootElement + ">")

	dec := xml.NewDecoder(&buf)
	root, err := decodeTree(dec)
	if err != nil {
		line, col := shift(dec.InputPos())
		msg := err.Error()
		var serr *xml.SyntaxError
		if errors.As(err, &serr) {
			msg = serr.Msg
		}
		return nil, propel.NewParseError("xml", path, err, diagnostic(line, col, msg))
	}
	var db *node
	for _, c := range root.children {
		if c.name == "database" {
			db = c
			break
		}
	}
	if db == nil {
		return nil, propel.NewParseError("xml", path, propel.ErrInvalidContent, "no <database> element found")
	}
	var diags []string
	db.walk(func(n *node) {
		for _, attr := range requiredAttrs[n.name] {
			if _, ok := n.attr(attr); !ok {
				line, col := shift(n.line, n.col)
				diags = append(diags, diagnostic(line, col, "<"+n.name+"> is missing required attribute \""+attr+"\""))
			}
		}
	})
	if len(diags) > 0 {
		return nil, propel.NewParseError("xml", path, nil, diags...)
	}
	return db.mapping(), nil
}

// databaseOffset returns the offset of the first <database tag, or -1.
func databaseOffset(data []byte) int {
	const tag = "<database"
	for off := 0; ; {
		i := bytes.Index(data[off:], []byte(tag))
		if i < 0 {
			return -1
		}
		i += off
		end := i + len(tag)
		if end == len(data) || strings.IndexByte(" \t\r\n>/", data[end]) >= 0 {
			return i
		}
		off = end
	}
}

type node struct {
	name      string
	attrs     []xml.Attr
	children  []*node
	text      strings.Builder
	line, col int
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}

// mapping converts the element into a generic mapping. Attributes become
// scalar keys and children are grouped under plural keys. Children with
// neither attributes nor children collapse to their text.
func (n *node) mapping() map[string]any {
	m := make(map[string]any, len(n.attrs)+len(n.children))
	for _, a := range n.attrs {
		m[a.Name.Local] = a.Value
	}
	for _, c := range n.children {
		key, ok := pluralKeys[c.name]
		if !ok {
			key = c.name + "s"
		}
		var v any
		if len(c.attrs) == 0 && len(c.children) == 0 {
			v = strings.TrimSpace(c.text.String())
		} else {
			v = c.mapping()
		}
		list, _ := m[key].([]any)
		m[key] = append(list, v)
	}
	return m
}

func decodeTree(dec *xml.Decoder) (*node, error) {
	var (
		root  *node
		stack []*node
	)
	for {
		line, col := dec.InputPos()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Copy().Attr, line: line, col: col}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	if root == nil {
		return nil, &xml.SyntaxError{Msg: "empty document", Line: 1}
	}
	return root, nil
}
