package behavior

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// TimestampableBehavior maintains creation and update timestamps.
type TimestampableBehavior struct {
	Base
}

// NewTimestampable returns the behavior with its defaults.
func NewTimestampable() *TimestampableBehavior {
	return &TimestampableBehavior{Base: NewBase(Timestampable, map[string]string{
		"create_column":      "created_at",
		"update_column":      "updated_at",
		"disable_created_at": "false",
		"disable_updated_at": "false",
	})}
}

// Clone implements Behavior.
func (b *TimestampableBehavior) Clone() Behavior {
	return &TimestampableBehavior{Base: b.CloneBase()}
}

// ModifyEntity adds the timestamp fields that are missing.
func (b *TimestampableBehavior) ModifyEntity(e *schema.Entity) error {
	if !b.BoolParameter("disable_created_at") {
		if _, err := ensureField(e, b.Parameter("create_column"), schema.TypeTimestamp); err != nil {
			return err
		}
	}
	if !b.BoolParameter("disable_updated_at") {
		if _, err := ensureField(e, b.Parameter("update_column"), schema.TypeTimestamp); err != nil {
			return err
		}
	}
	return nil
}

func (b *TimestampableBehavior) created(e *schema.Entity) *schema.Field {
	if b.BoolParameter("disable_created_at") {
		return nil
	}
	return e.FieldByColumn(b.Parameter("create_column"))
}

func (b *TimestampableBehavior) updated(e *schema.Entity) *schema.Field {
	if b.BoolParameter("disable_updated_at") {
		return nil
	}
	return e.FieldByColumn(b.Parameter("update_column"))
}

// PreInsert sets both timestamps unless they were set explicitly.
func (b *TimestampableBehavior) PreInsert(h Hook) []jen.Code {
	var out []jen.Code
	for _, f := range []*schema.Field{b.created(h.Entity), b.updated(h.Entity)} {
		if f == nil {
			continue
		}
		out = append(out, jen.If(jen.Op("!").Id(h.Object).Dot("IsColumnModified").Call(jen.Id(class.ColumnConst(h.Entity, f)))).Block(
			class.AssignValue(h.Object, f, jen.Qual("time", "Now").Call()),
		))
	}
	return out
}

// PreUpdate refreshes the update timestamp of modified objects.
func (b *TimestampableBehavior) PreUpdate(h Hook) []jen.Code {
	f := b.updated(h.Entity)
	if f == nil {
		return nil
	}
	return []jen.Code{
		jen.If(
			jen.Id(h.Object).Dot("IsModified").Call().Op("&&").
				Op("!").Id(h.Object).Dot("IsColumnModified").Call(jen.Id(class.ColumnConst(h.Entity, f))),
		).Block(
			class.AssignValue(h.Object, f, jen.Qual("time", "Now").Call()),
		),
	}
}

// QueryMethods adds recency filters and orderings.
func (b *TimestampableBehavior) QueryMethods(h Hook, def *class.Definition) error {
	type entry struct {
		field *schema.Field
		label string
	}
	for _, x := range []entry{{b.updated(h.Entity), "Updated"}, {b.created(h.Entity), "Created"}} {
		if x.field == nil {
			continue
		}
		if err := recencyMethods(h, def, x.field, x.label); err != nil {
			return err
		}
	}
	return nil
}

func recencyMethods(h Hook, def *class.Definition, f *schema.Field, label string) error {
	q, col := def.Recv(), jen.Id(class.ColumnConst(h.Entity, f))
	self := jen.Op("*").Id(def.Name)
	methods := []*class.Method{
		{
			Name:    "Recently" + label,
			Comment: "Recently" + label + " filters rows " + strings.ToLower(label) + " within the last d.",
			Params:  []class.Param{{Name: "d", Type: jen.Qual("time", "Duration")}},
			Results: []jen.Code{self},
			Body: []jen.Code{
				jen.Return(jen.Id(q).Dot("Where").Call(col, jen.Lit(">="), jen.Qual("time", "Now").Call().Dot("Add").Call(jen.Op("-").Id("d")))),
			},
		},
		{
			Name:    "Last" + label + "First",
			Comment: "Last" + label + "First orders by the " + strings.ToLower(label) + " timestamp, newest first.",
			Results: []jen.Code{self},
			Body:    []jen.Code{jen.Return(jen.Id(q).Dot("OrderBy").Call(col, jen.True()))},
		},
		{
			Name:    "First" + label + "First",
			Comment: "First" + label + "First orders by the " + strings.ToLower(label) + " timestamp, oldest first.",
			Results: []jen.Code{self},
			Body:    []jen.Code{jen.Return(jen.Id(q).Dot("OrderBy").Call(col, jen.False()))},
		},
	}
	for _, m := range methods {
		if err := def.AddMethod(m); err != nil {
			return err
		}
	}
	return nil
}

// ensureField returns the field stored in column, adding a nullable field of
// type t when the entity has none.
func ensureField(e *schema.Entity, column string, t schema.FieldType) (*schema.Field, error) {
	if f := e.FieldByColumn(column); f != nil {
		return f, nil
	}
	f := &schema.Field{Name: naming.Camel(column), Column: column, Type: t, Nullable: true}
	if err := e.AddField(f); err != nil {
		return nil, err
	}
	return f, nil
}
