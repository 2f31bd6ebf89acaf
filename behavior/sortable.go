package behavior

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/schema"
)

// SortableBehavior keeps objects in a user-defined order through a rank
// column. With use_scope, ranks are counted per value of scope_column.
type SortableBehavior struct {
	Base
}

// NewSortable returns the behavior with its defaults.
func NewSortable() *SortableBehavior {
	return &SortableBehavior{Base: NewBase(Sortable, map[string]string{
		"rank_column":  "sortable_rank",
		"use_scope":    "false",
		"scope_column": "",
	})}
}

// Clone implements Behavior.
func (b *SortableBehavior) Clone() Behavior {
	return &SortableBehavior{Base: b.CloneBase()}
}

// ModifyEntity adds the rank field.
func (b *SortableBehavior) ModifyEntity(e *schema.Entity) error {
	if _, err := ensureField(e, b.Parameter("rank_column"), schema.TypeInteger); err != nil {
		return err
	}
	if _, err := b.scope(e); err != nil {
		return err
	}
	return nil
}

func (b *SortableBehavior) rank(e *schema.Entity) *schema.Field {
	return e.FieldByColumn(b.Parameter("rank_column"))
}

func (b *SortableBehavior) scope(e *schema.Entity) (*schema.Field, error) {
	if !b.BoolParameter("use_scope") {
		return nil, nil
	}
	col := b.Parameter("scope_column")
	if f := e.FieldByColumn(col); f != nil {
		return f, nil
	}
	if f := e.Field(col); f != nil {
		return f, nil
	}
	return nil, propel.NewBuildError("modify", e.Name, "sortable scope column %q not found", col)
}

// PreInsert assigns the next rank to objects without one.
func (b *SortableBehavior) PreInsert(h Hook) []jen.Code {
	f := b.rank(h.Entity)
	if f == nil {
		return nil
	}
	args := []jen.Code{jen.Id(h.Context)}
	if sf, _ := b.scope(h.Entity); sf != nil {
		args = append(args, jen.Id(h.Object).Dot(class.FieldName(sf)))
	}
	return []jen.Code{
		jen.If(jen.Op("!").Id(h.Object).Dot("IsColumnModified").Call(jen.Id(class.ColumnConst(h.Entity, f)))).Block(
			jen.List(jen.Id("rank"), jen.Err()).Op(":=").Id(h.Receiver).Dot("MaxRank").Call(args...),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
			class.AssignValue(h.Object, f, jen.Id("rank").Op("+").Lit(1)),
		),
	}
}

// QueryMethods adds OrderByRank.
func (b *SortableBehavior) QueryMethods(h Hook, def *class.Definition) error {
	f := b.rank(h.Entity)
	if f == nil {
		return nil
	}
	return def.AddMethod(&class.Method{
		Name:    "OrderByRank",
		Comment: "OrderByRank orders by rank, ascending unless desc is set.",
		Params:  []class.Param{{Name: "desc", Type: jen.Bool()}},
		Results: []jen.Code{jen.Op("*").Id(def.Name)},
		Body: []jen.Code{
			jen.Return(jen.Id(def.Recv()).Dot("OrderBy").Call(jen.Id(class.ColumnConst(h.Entity, f)), jen.Id("desc"))),
		},
	})
}

// RepositoryMethods adds MaxRank.
func (b *SortableBehavior) RepositoryMethods(h Hook, def *class.Definition) error {
	f := b.rank(h.Entity)
	if f == nil {
		return nil
	}
	sf, err := b.scope(h.Entity)
	if err != nil {
		return err
	}
	recv := def.Recv()
	query := "SELECT MAX(" + f.ColumnName() + ") FROM " + h.Entity.Table()
	params := []class.Param{{Name: "ctx", Type: jen.Qual("context", "Context")}}
	args := []jen.Code{jen.Id("ctx"), jen.Id("query")}
	if sf != nil {
		query += " WHERE " + sf.ColumnName() + " = " + "%s"
		params = append(params, class.Param{Name: "scope", Type: class.GoType(sf)})
		args = append(args, jen.Id("scope"))
	}
	var build jen.Code = jen.Id("query").Op(":=").Lit(query)
	if sf != nil {
		build = jen.Id("query").Op(":=").Qual("fmt", "Sprintf").Call(jen.Lit(query), jen.Id("placeholder").Call(jen.Lit(1)))
	}
	return def.AddMethod(&class.Method{
		Name:    "MaxRank",
		Comment: "MaxRank returns the highest rank in use, or 0.",
		Params:  params,
		Results: []jen.Code{jen.Int(), jen.Error()},
		Body: []jen.Code{
			build,
			jen.Var().Id("rank").Qual("database/sql", "NullInt64"),
			jen.If(
				jen.Err().Op(":=").Id(recv).Dot("db").Dot("QueryRowContext").Call(args...).Dot("Scan").Call(jen.Op("&").Id("rank")),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Lit(0), jen.Err())),
			jen.Return(jen.Int().Call(jen.Id("rank").Dot("Int64")), jen.Nil()),
		},
	})
}
