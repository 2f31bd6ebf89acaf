package gen

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

func queryStruct(ctx *BuildContext, def *class.Definition) error {
	def.Comment = def.Name + " builds SELECT statements over " + ctx.Entity.Table() + "."
	for _, p := range []*class.Property{
		{Name: "where", Type: jen.Index().String()},
		{Name: "args", Type: jen.Index().Any()},
		{Name: "order", Type: jen.Index().String()},
		{Name: "joins", Type: jen.Index().String()},
		{Name: "limit", Type: jen.Int()},
	} {
		if err := def.AddProperty(p); err != nil {
			return err
		}
	}
	return nil
}

func queryConstructor(_ *BuildContext, def *class.Definition) error {
	name := class.Constructor(def.Name)
	return def.AddFunc(&class.Func{
		Name:    name,
		Comment: name + " returns a query matching every row.",
		Results: []jen.Code{jen.Op("*").Id(def.Name)},
		Body:    []jen.Code{jen.Return(jen.Op("&").Id(def.Name).Values())},
	})
}

// qualify prefixes bare column names with the table constant.
func qualify(e *schema.Entity, column jen.Code) jen.Code {
	return jen.If(jen.Op("!").Qual("strings", "Contains").Call(column, jen.Lit("."))).Block(
		jen.Add(column).Op("=").Id(class.TableConst(e)).Op("+").Lit(".").Op("+").Add(column),
	)
}

func queryConditions(ctx *BuildContext, def *class.Definition) error {
	e, q := ctx.Entity, def.Recv()
	self := jen.Op("*").Id(def.Name)
	methods := []*class.Method{
		{
			Name:    "Where",
			Comment: "Where adds a condition comparing column with value through op.",
			Params:  []class.Param{{Name: "column", Type: jen.String()}, {Name: "op", Type: jen.String()}, {Name: "value", Type: jen.Any()}},
			Results: []jen.Code{self},
			Body: []jen.Code{
				qualify(e, jen.Id("column")),
				jen.Id(q).Dot("where").Op("=").Append(
					jen.Id(q).Dot("where"),
					jen.Id("column").Op("+").Lit(" ").Op("+").Id("op").Op("+").Lit(" ").Op("+").
						Id("placeholder").Call(jen.Len(jen.Id(q).Dot("args")).Op("+").Lit(1)),
				),
				jen.Id(q).Dot("args").Op("=").Append(jen.Id(q).Dot("args"), jen.Id("value")),
				jen.Return(jen.Id(q)),
			},
		},
		{
			Name:    "OrderBy",
			Comment: "OrderBy sorts by column, ascending unless desc is set.",
			Params:  []class.Param{{Name: "column", Type: jen.String()}, {Name: "desc", Type: jen.Bool()}},
			Results: []jen.Code{self},
			Body: []jen.Code{
				qualify(e, jen.Id("column")),
				jen.If(jen.Id("desc")).Block(
					jen.Id("column").Op("+=").Lit(" DESC"),
				).Else().Block(
					jen.Id("column").Op("+=").Lit(" ASC"),
				),
				jen.Id(q).Dot("order").Op("=").Append(jen.Id(q).Dot("order"), jen.Id("column")),
				jen.Return(jen.Id(q)),
			},
		},
		{
			Name:    "Limit",
			Comment: "Limit caps the number of rows; 0 means no limit.",
			Params:  []class.Param{{Name: "n", Type: jen.Int()}},
			Results: []jen.Code{self},
			Body: []jen.Code{
				jen.Id(q).Dot("limit").Op("=").Id("n"),
				jen.Return(jen.Id(q)),
			},
		},
	}
	for _, m := range methods {
		if err := def.AddMethod(m); err != nil {
			return err
		}
	}
	return nil
}

// filterable reports if equality filters make sense on f.
func filterable(f *schema.Field) bool {
	switch f.Type {
	case schema.TypeBlob, schema.TypeArray, schema.TypeObject, schema.TypeJSON, schema.TypeClob:
		return false
	}
	return true
}

func queryFilters(ctx *BuildContext, def *class.Definition) error {
	e, q := ctx.Entity, def.Recv()
	for _, f := range e.Fields {
		if !filterable(f) {
			continue
		}
		name := "FilterBy" + class.FieldName(f)
		if err := def.AddMethod(&class.Method{
			Name:    name,
			Comment: name + " keeps rows whose " + f.ColumnName() + " equals value.",
			Params:  []class.Param{{Name: "value", Type: class.BaseType(f)}},
			Results: []jen.Code{jen.Op("*").Id(def.Name)},
			Body: []jen.Code{
				jen.Return(jen.Id(q).Dot("Where").Call(jen.Id(class.ColumnConst(e, f)), jen.Lit("="), jen.Id("value"))),
			},
		}); err != nil {
			return err
		}
		if !f.NotNull() {
			name := "Filter" + class.FieldName(f) + "IsNull"
			if err := def.AddMethod(&class.Method{
				Name:    name,
				Comment: name + " keeps rows without a " + f.ColumnName() + ".",
				Results: []jen.Code{jen.Op("*").Id(def.Name)},
				Body: []jen.Code{
					jen.Id(q).Dot("where").Op("=").Append(
						jen.Id(q).Dot("where"),
						jen.Id(class.TableConst(e)).Op("+").Lit(".").Op("+").Id(class.ColumnConst(e, f)).Op("+").Lit(" IS NULL"),
					),
					jen.Return(jen.Id(q)),
				},
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func queryOrderings(ctx *BuildContext, def *class.Definition) error {
	e, q := ctx.Entity, def.Recv()
	for _, f := range e.Fields {
		if !filterable(f) {
			continue
		}
		name := "OrderBy" + class.FieldName(f)
		if err := def.AddMethod(&class.Method{
			Name:    name,
			Comment: name + " sorts by " + f.ColumnName() + ".",
			Params:  []class.Param{{Name: "desc", Type: jen.Bool()}},
			Results: []jen.Code{jen.Op("*").Id(def.Name)},
			Body: []jen.Code{
				jen.Return(jen.Id(q).Dot("OrderBy").Call(jen.Id(class.ColumnConst(e, f)), jen.Id("desc"))),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// joinClause renders the JOIN of a relation. Self references join an alias
// named after the relation.
func joinClause(ctx *BuildContext, r *schema.Relation) string {
	p, e, fe := ctx.Platform(), ctx.Entity, r.ForeignEntity()
	kind := strings.ToUpper(strings.TrimSpace(r.DefaultJoin))
	if kind == "" {
		kind = "INNER JOIN"
	}
	target, alias := p.Quote(fe.Table()), fe.Table()
	if fe == e {
		alias = naming.Snake(RelationName(r))
		target += " " + p.Quote(alias)
	}
	var on []string
	locals, foreigns := r.LocalColumns(), r.ForeignColumns()
	for i := range locals {
		if i >= len(foreigns) {
			break
		}
		on = append(on, p.Quote(e.Table())+"."+p.Quote(locals[i])+" = "+p.Quote(alias)+"."+p.Quote(foreigns[i]))
	}
	return kind + " " + target + " ON " + strings.Join(on, " AND ")
}

func queryJoins(ctx *BuildContext, def *class.Definition) error {
	q := def.Recv()
	for _, r := range ctx.Entity.Relations {
		if r.ForeignEntity() == nil {
			continue
		}
		name := "Join" + RelationName(r)
		if err := def.AddMethod(&class.Method{
			Name:    name,
			Comment: name + " joins the related " + class.TypeName(r.ForeignEntity()) + " rows.",
			Results: []jen.Code{jen.Op("*").Id(def.Name)},
			Body: []jen.Code{
				jen.Id(q).Dot("joins").Op("=").Append(jen.Id(q).Dot("joins"), jen.Lit(joinClause(ctx, r))),
				jen.Return(jen.Id(q)),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// selectSQL returns the SELECT and FROM clauses with qualified columns.
func selectSQL(ctx *BuildContext) string {
	p, e := ctx.Platform(), ctx.Entity
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = p.Quote(e.Table()) + "." + p.Quote(f.ColumnName())
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + p.Quote(e.Table())
}

// limitClause returns the row limit syntax of the platform, with %d for n.
func limitClause(ctx *BuildContext) string {
	switch ctx.Platform().Name() {
	case dialect.Oracle, dialect.MSSQL:
		return " OFFSET 0 ROWS FETCH NEXT %d ROWS ONLY"
	}
	return " LIMIT %d"
}

func querySQL(ctx *BuildContext, def *class.Definition) error {
	for _, prop := range []string{"where", "args", "order", "joins", "limit"} {
		if err := requireProperty(ctx, def, prop, "struct"); err != nil {
			return err
		}
	}
	q := def.Recv()
	return def.AddMethod(&class.Method{
		Name:    "SQL",
		Comment: "SQL returns the statement and its arguments.",
		Results: []jen.Code{jen.String(), jen.Index().Any()},
		Body: []jen.Code{
			jen.Var().Id("b").Qual("strings", "Builder"),
			jen.Id("b").Dot("WriteString").Call(jen.Lit(selectSQL(ctx))),
			jen.For(jen.List(jen.Id("_"), jen.Id("j")).Op(":=").Range().Id(q).Dot("joins")).Block(
				jen.Id("b").Dot("WriteString").Call(jen.Lit(" ").Op("+").Id("j")),
			),
			jen.If(jen.Len(jen.Id(q).Dot("where")).Op(">").Lit(0)).Block(
				jen.Id("b").Dot("WriteString").Call(jen.Lit(" WHERE ").Op("+").Qual("strings", "Join").Call(jen.Id(q).Dot("where"), jen.Lit(" AND "))),
			),
			jen.If(jen.Len(jen.Id(q).Dot("order")).Op(">").Lit(0)).Block(
				jen.Id("b").Dot("WriteString").Call(jen.Lit(" ORDER BY ").Op("+").Qual("strings", "Join").Call(jen.Id(q).Dot("order"), jen.Lit(", "))),
			),
			jen.If(jen.Id(q).Dot("limit").Op(">").Lit(0)).Block(
				jen.Qual("fmt", "Fprintf").Call(jen.Op("&").Id("b"), jen.Lit(limitClause(ctx)), jen.Id(q).Dot("limit")),
			),
			jen.Return(jen.Id("b").Dot("String").Call(), jen.Id(q).Dot("args")),
		},
	})
}

func queryBehaviors(ctx *BuildContext, def *class.Definition) error {
	return ctx.Chain.QueryMethods(ctx.Hook, def)
}
