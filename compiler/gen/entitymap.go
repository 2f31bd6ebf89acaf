package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/schema"
)

// fieldConst names the schema field name constant, e.g. BookFieldTitle.
func fieldConst(e *schema.Entity, f *schema.Field) string {
	return class.TypeName(e) + "Field" + class.FieldName(f)
}

// mapConstants declares the schema field names. Table and column names are
// declared with the object.
func mapConstants(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	for _, f := range e.Fields {
		if err := def.AddConstant(&class.Constant{Name: fieldConst(e, f), Value: jen.Lit(f.Name)}); err != nil {
			return err
		}
	}
	return nil
}

func mapStruct(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	def.Comment = def.Name + " describes the " + e.Table() + " table at run time."
	methods := []*class.Method{
		{
			Name:          "Name",
			Comment:       "Name returns the entity name.",
			Results:       []jen.Code{jen.String()},
			Body:          []jen.Code{jen.Return(jen.Lit(e.Name))},
			ValueReceiver: true,
		},
		{
			Name:          "Table",
			Comment:       "Table returns the table name.",
			Results:       []jen.Code{jen.String()},
			Body:          []jen.Code{jen.Return(jen.Id(class.TableConst(e)))},
			ValueReceiver: true,
		},
		{
			Name:          "IsReadOnly",
			Comment:       "IsReadOnly reports if rows may not be deleted.",
			Results:       []jen.Code{jen.Bool()},
			Body:          []jen.Code{jen.Return(jen.Lit(e.ReadOnly))},
			ValueReceiver: true,
		},
	}
	for _, meth := range methods {
		if err := def.AddMethod(meth); err != nil {
			return err
		}
	}
	return nil
}

func mapColumns(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	return def.AddMethod(&class.Method{
		Name:    "Columns",
		Comment: "Columns returns the column names in table order.",
		Results: []jen.Code{jen.Index().String()},
		Body: []jen.Code{
			jen.Return(jen.Index().String().ValuesFunc(func(g *jen.Group) {
				for _, f := range e.Fields {
					g.Id(class.ColumnConst(e, f))
				}
			})),
		},
		ValueReceiver: true,
	})
}

// mapFields adds HasField and ColumnOf, keyed by schema field name.
func mapFields(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	has := jen.Switch(jen.Id("name")).BlockFunc(func(g *jen.Group) {
		if len(e.Fields) == 0 {
			return
		}
		g.CaseFunc(func(c *jen.Group) {
			for _, f := range e.Fields {
				c.Id(fieldConst(e, f))
			}
		}).Block(jen.Return(jen.True()))
	})
	column := jen.Switch(jen.Id("name")).BlockFunc(func(g *jen.Group) {
		for _, f := range e.Fields {
			g.Case(jen.Id(fieldConst(e, f))).Block(jen.Return(jen.Id(class.ColumnConst(e, f)), jen.True()))
		}
	})
	methods := []*class.Method{
		{
			Name:          "HasField",
			Comment:       "HasField reports if the entity has a field with the given name.",
			Params:        []class.Param{{Name: "name", Type: jen.String()}},
			Results:       []jen.Code{jen.Bool()},
			Body:          []jen.Code{has, jen.Return(jen.False())},
			ValueReceiver: true,
		},
		{
			Name:          "ColumnOf",
			Comment:       "ColumnOf returns the column of a field.",
			Params:        []class.Param{{Name: "name", Type: jen.String()}},
			Results:       []jen.Code{jen.String(), jen.Bool()},
			Body:          []jen.Code{column, jen.Return(jen.Lit(""), jen.False())},
			ValueReceiver: true,
		},
	}
	for _, m := range methods {
		if err := def.AddMethod(m); err != nil {
			return err
		}
	}
	return nil
}

func mapPrimaryKey(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	var body jen.Code = jen.Return(jen.Nil())
	if e.HasPrimaryKey() {
		body = jen.Return(jen.Index().String().ValuesFunc(func(g *jen.Group) {
			for _, f := range e.PrimaryKey() {
				g.Id(class.ColumnConst(e, f))
			}
		}))
	}
	return def.AddMethod(&class.Method{
		Name:          "PrimaryKeyColumns",
		Comment:       "PrimaryKeyColumns returns the key columns, or nil.",
		Results:       []jen.Code{jen.Index().String()},
		Body:          []jen.Code{body},
		ValueReceiver: true,
	})
}

// mapRelations adds Relations, mapping each relation name to its foreign
// table.
func mapRelations(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	return def.AddMethod(&class.Method{
		Name:    "Relations",
		Comment: "Relations maps relation names to foreign tables.",
		Results: []jen.Code{jen.Map(jen.String()).String()},
		Body: []jen.Code{
			jen.Return(jen.Map(jen.String()).String().Values(jen.DictFunc(func(d jen.Dict) {
				for _, r := range e.Relations {
					d[jen.Lit(RelationName(r))] = jen.Lit(r.ForeignTable())
				}
			}))),
		},
		ValueReceiver: true,
	})
}
