package behavior

import (
	"regexp"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/schema"
)

// SluggableBehavior stores a URL-friendly unique slug computed from other
// fields. The pattern names fields in braces, e.g. "{title}-{id}". Without a
// pattern the first textual non-key field is used.
type SluggableBehavior struct {
	Base
}

// NewSluggable returns the behavior with its defaults.
func NewSluggable() *SluggableBehavior {
	return &SluggableBehavior{Base: NewBase(Sluggable, map[string]string{
		"slug_column":  "slug",
		"slug_pattern": "",
		"replacement":  "-",
		"separator":    "-",
		"permanent":    "false",
	})}
}

// Clone implements Behavior.
func (b *SluggableBehavior) Clone() Behavior {
	return &SluggableBehavior{Base: b.CloneBase()}
}

// ModifyEntity adds the slug field and its unique index.
func (b *SluggableBehavior) ModifyEntity(e *schema.Entity) error {
	col := b.Parameter("slug_column")
	if e.FieldByColumn(col) != nil {
		return nil
	}
	f, err := ensureField(e, col, schema.TypeVarchar)
	if err != nil {
		return err
	}
	f.Size = 255
	return e.AddIndex(schema.NewUnique(f.Name))
}

var patternToken = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// sources returns the literal parts and the fields of the pattern, in order.
// parts has one more element than fields.
func (b *SluggableBehavior) sources(e *schema.Entity) (parts []string, fields []*schema.Field, err error) {
	pattern := b.Parameter("slug_pattern")
	if pattern == "" {
		for _, f := range e.Fields {
			if f.Type.Textual() && !f.PrimaryKey && f.ColumnName() != b.Parameter("slug_column") {
				return []string{"", ""}, []*schema.Field{f}, nil
			}
		}
		return nil, nil, propel.NewBuildError("generate", e.Name, "sluggable needs a slug_pattern: no textual field")
	}
	last := 0
	for _, m := range patternToken.FindAllStringSubmatchIndex(pattern, -1) {
		name := pattern[m[2]:m[3]]
		f := e.Field(name)
		if f == nil {
			f = e.FieldByColumn(name)
		}
		if f == nil {
			return nil, nil, propel.NewBuildError("generate", e.Name, "slug_pattern refers to unknown field %q", name)
		}
		parts = append(parts, pattern[last:m[0]])
		fields = append(fields, f)
		last = m[1]
	}
	return append(parts, pattern[last:]), fields, nil
}

// ObjectMethods adds CreateSlug.
func (b *SluggableBehavior) ObjectMethods(h Hook, def *class.Definition) error {
	parts, fields, err := b.sources(h.Entity)
	if err != nil {
		return err
	}
	recv := def.Recv()
	m := &class.Method{
		Name:    "CreateSlug",
		Comment: "CreateSlug computes the slug from the object fields.",
		Results: []jen.Code{jen.String()},
	}
	m.Append(jen.Var().Id("builder").Qual("strings", "Builder"))
	for i, f := range fields {
		if parts[i] != "" {
			m.Append(jen.Id("builder").Dot("WriteString").Call(jen.Lit(parts[i])))
		}
		v := jen.Id(recv).Dot(class.FieldName(f))
		if class.Pointer(f) {
			m.Append(jen.If(v.Clone().Op("!=").Nil()).Block(
				jen.Qual("fmt", "Fprint").Call(jen.Op("&").Id("builder"), jen.Op("*").Add(v.Clone())),
			))
		} else {
			m.Append(jen.Qual("fmt", "Fprint").Call(jen.Op("&").Id("builder"), v))
		}
	}
	if tail := parts[len(parts)-1]; tail != "" {
		m.Append(jen.Id("builder").Dot("WriteString").Call(jen.Lit(tail)))
	}
	sep := jen.Lit(b.Parameter("separator"))
	m.Append(
		jen.Id("slug").Op(":=").Qual("strings", "ToLower").Call(jen.Id("builder").Dot("String").Call()),
		jen.Id("slug").Op("=").Qual("regexp", "MustCompile").Call(jen.Lit(`[^a-z0-9]+`)).Dot("ReplaceAllString").Call(jen.Id("slug"), jen.Lit(b.Parameter("replacement"))),
		jen.Return(jen.Qual("strings", "Trim").Call(jen.Id("slug"), sep)),
	)
	return def.AddMethod(m)
}

// PreSave fills the slug unless it was set explicitly. Permanent slugs are
// only computed for new objects.
func (b *SluggableBehavior) PreSave(h Hook) []jen.Code {
	f := h.Entity.FieldByColumn(b.Parameter("slug_column"))
	if f == nil {
		return nil
	}
	cond := jen.Op("!").Id(h.Object).Dot("IsColumnModified").Call(jen.Id(class.ColumnConst(h.Entity, f)))
	if b.BoolParameter("permanent") {
		cond = jen.Id(h.Object).Dot("IsNew").Call().Op("&&").Add(cond)
	}
	return []jen.Code{
		jen.If(cond).Block(class.AssignValue(h.Object, f, jen.Id(h.Object).Dot("CreateSlug").Call())),
	}
}

// QueryMethods adds FilterBySlug when the slug column has another name.
func (b *SluggableBehavior) QueryMethods(h Hook, def *class.Definition) error {
	f := h.Entity.FieldByColumn(b.Parameter("slug_column"))
	if f == nil || def.HasMethod("FilterBySlug") {
		return nil
	}
	return def.AddMethod(&class.Method{
		Name:    "FilterBySlug",
		Comment: "FilterBySlug filters on the slug column.",
		Params:  []class.Param{{Name: "slug", Type: jen.String()}},
		Results: []jen.Code{jen.Op("*").Id(def.Name)},
		Body: []jen.Code{
			jen.Return(jen.Id(def.Recv()).Dot("Where").Call(jen.Id(class.ColumnConst(h.Entity, f)), jen.Lit("="), jen.Id("slug"))),
		},
	})
}
