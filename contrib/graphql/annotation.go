package graphql

import (
	"strings"

	"github.com/syssam/propel"
	"github.com/syssam/propel/schema"
)

// VendorType is the vendor block read for GraphQL settings:
//
//	<vendor type="graphql">
//	  <parameter name="skip" value="mutations"/>
//	  <parameter name="name" value="Novel"/>
//	</vendor>
const VendorType = "graphql"

// SkipMode defines what to skip in GraphQL generation.
type SkipMode uint

const (
	// SkipType skips the entity entirely, including relations pointing to it.
	SkipType SkipMode = 1 << iota
	// SkipQuery skips the root query fields of the entity.
	SkipQuery
	// SkipMutationCreate skips the create mutation and its input.
	SkipMutationCreate
	// SkipMutationUpdate skips the update mutation and its input.
	SkipMutationUpdate
	// SkipMutationDelete skips the delete mutation.
	SkipMutationDelete

	// SkipMutations skips all mutations.
	SkipMutations = SkipMutationCreate | SkipMutationUpdate | SkipMutationDelete
	// SkipAll skips everything.
	SkipAll = SkipType | SkipQuery | SkipMutations
)

var skipNames = map[string]SkipMode{
	"type":      SkipType,
	"query":     SkipQuery,
	"create":    SkipMutationCreate,
	"update":    SkipMutationUpdate,
	"delete":    SkipMutationDelete,
	"mutations": SkipMutations,
	"all":       SkipAll,
	"true":      SkipAll,
}

// Is reports whether m includes all bits of s.
func (m SkipMode) Is(s SkipMode) bool { return m&s == s }

// ParseSkipMode parses a comma separated list such as "query,delete".
func ParseSkipMode(s string) (SkipMode, error) { return parseSkip("", s) }

func parseSkip(owner, s string) (SkipMode, error) {
	var m SkipMode
	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "false" {
			continue
		}
		bit, ok := skipNames[part]
		if !ok {
			return 0, propel.NewInvalidArgumentError(owner, "skip", "unknown graphql skip mode %q", part)
		}
		m |= bit
	}
	return m, nil
}

// Annotation holds the settings of one entity or field.
type Annotation struct {
	// Skip is the skip mode. Fields only honor SkipType.
	Skip SkipMode
	// Name overrides the type or field name.
	Name string
	// Type overrides the GraphQL type of a field, for example "Email!".
	Type string
}

func annotation(owner string, v *schema.Vendor) (Annotation, error) {
	if v == nil {
		return Annotation{}, nil
	}
	skip, err := parseSkip(owner, v.Parameter("skip"))
	if err != nil {
		return Annotation{}, err
	}
	return Annotation{
		Skip: skip,
		Name: v.Parameter("name"),
		Type: v.Parameter("type"),
	}, nil
}

// EntityAnnotation returns the GraphQL settings of e.
func EntityAnnotation(e *schema.Entity) (Annotation, error) {
	return annotation(e.Name, e.Vendor(VendorType))
}

// FieldAnnotation returns the GraphQL settings of f.
func FieldAnnotation(f *schema.Field) (Annotation, error) {
	owner := f.Name
	if e := f.Entity(); e != nil {
		owner = e.Name
	}
	return annotation(owner, f.Vendor(VendorType))
}
