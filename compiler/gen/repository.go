package gen

import (
	"errors"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/dialect/sql/platform"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// Names shared by the repository methods and the behavior fragments.
const (
	dbProp  = "db"
	objVar  = "obj"
	ctxVar  = "ctx"
	scanFn  = "scan"
	insertM = "insert"
	updateM = "update"
)

// statement names the unexported SQL constant of an entity, e.g. bookInsertSQL.
func statement(e *schema.Entity, kind string) string {
	return naming.LowerFirst(class.TypeName(e)) + kind + "SQL"
}

func ctxParam() class.Param { return class.Param{Name: ctxVar, Type: jen.Qual("context", "Context")} }

func objParam(e *schema.Entity) class.Param {
	return class.Param{Name: objVar, Type: jen.Op("*").Id(class.TypeName(e))}
}

// returnErr renders `if err != nil { return err }`.
func returnErr() jen.Code {
	return jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
}

func fieldArgs(fs []*schema.Field) []jen.Code {
	args := make([]jen.Code, len(fs))
	for i, f := range fs {
		args[i] = jen.Id(objVar).Dot(class.FieldName(f))
	}
	return args
}

func repositoryStruct(ctx *BuildContext, def *class.Definition) error {
	def.Comment = def.Name + " loads and persists " + class.TypeName(ctx.Entity) + " objects."
	return def.AddProperty(&class.Property{Name: dbProp, Type: jen.Id("Executor")})
}

func repositoryConstructor(_ *BuildContext, def *class.Definition) error {
	name := class.Constructor(def.Name)
	return def.AddFunc(&class.Func{
		Name:    name,
		Comment: name + " returns a repository running statements on db.",
		Params:  []class.Param{{Name: "db", Type: jen.Id("Executor")}},
		Results: []jen.Code{jen.Op("*").Id(def.Name)},
		Body:    []jen.Code{jen.Return(jen.Op("&").Id(def.Name).Values(jen.Dict{jen.Id(dbProp): jen.Id("db")}))},
	})
}

// generatesKey reports if the database assigns the key of new rows.
func generatesKey(e *schema.Entity) *schema.Field {
	ai := e.AutoIncrementField()
	if ai == nil || e.EffectiveIDMethod() == schema.IDMethodNone {
		return nil
	}
	return ai
}

func repositoryStatements(ctx *BuildContext, def *class.Definition) error {
	p, e := ctx.Platform(), ctx.Entity
	stmts := []struct{ kind, sql string }{
		{"Insert", p.InsertSQL(e)},
		{"Update", p.UpdateSQL(e)},
		{"SelectByPK", p.SelectByPKSQL(e)},
	}
	if q, err := p.DeleteSQL(e); err == nil {
		stmts = append(stmts, struct{ kind, sql string }{"Delete", q})
	}
	if generatesKey(e) != nil && p.IDStrategy() == platform.Sequence {
		stmts = append(stmts, struct{ kind, sql string }{"Sequence", p.SequenceSQL(e)})
	}
	for _, s := range stmts {
		if s.sql == "" {
			continue
		}
		if err := def.AddConstant(&class.Constant{Name: statement(e, s.kind), Value: jen.Lit(s.sql)}); err != nil {
			return err
		}
	}
	return nil
}

func repositorySave(ctx *BuildContext, def *class.Definition) error {
	e, h := ctx.Entity, ctx.Hook
	m := &class.Method{
		Name:    "Save",
		Comment: "Save inserts a new object or updates a modified one.",
		Params:  []class.Param{ctxParam(), objParam(e)},
		Results: []jen.Code{jen.Error()},
	}
	m.Append(ctx.Chain.PreSave(h)...)
	m.Append(
		jen.If(jen.Id(objVar).Dot("IsNew").Call()).Block(
			jen.If(jen.Err().Op(":=").Id(def.Recv()).Dot(insertM).Call(jen.Id(ctxVar), jen.Id(objVar)), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		).Else().If(jen.Id(objVar).Dot("IsModified").Call()).Block(
			jen.If(jen.Err().Op(":=").Id(def.Recv()).Dot(updateM).Call(jen.Id(ctxVar), jen.Id(objVar)), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		),
	)
	m.Append(ctx.Chain.PostSave(h)...)
	m.Append(
		jen.Id(objVar).Dot(isNewProp).Op("=").False(),
		jen.Id(objVar).Dot("ResetModified").Call(),
		jen.Return(jen.Nil()),
	)
	return def.AddMethod(m)
}

func repositoryInsert(ctx *BuildContext, def *class.Definition) error {
	p, e, h := ctx.Platform(), ctx.Entity, ctx.Hook
	recv := def.Recv()
	db := jen.Id(recv).Dot(dbProp)
	key := generatesKey(e)
	var cols []*schema.Field
	for _, f := range e.Fields {
		if f.AutoIncrement && p.IDStrategy() != platform.Sequence {
			continue
		}
		cols = append(cols, f)
	}
	args := append([]jen.Code{jen.Id(ctxVar), jen.Id(statement(e, "Insert"))}, fieldArgs(cols)...)

	m := &class.Method{
		Name:    insertM,
		Params:  []class.Param{ctxParam(), objParam(e)},
		Results: []jen.Code{jen.Error()},
	}
	m.Append(ctx.Chain.PreInsert(h)...)
	switch {
	case key == nil:
		m.Append(
			jen.If(jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(db.Clone()).Dot("ExecContext").Call(args...), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		)
	case p.IDStrategy() == platform.Returning:
		m.Append(
			jen.If(
				jen.Err().Op(":=").Add(db.Clone()).Dot("QueryRowContext").Call(args...).Dot("Scan").Call(jen.Op("&").Id(objVar).Dot(class.FieldName(key))),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())),
		)
	case p.IDStrategy() == platform.Sequence:
		m.Append(
			jen.If(
				jen.Err().Op(":=").Add(db.Clone()).Dot("QueryRowContext").Call(jen.Id(ctxVar), jen.Id(statement(e, "Sequence"))).Dot("Scan").Call(jen.Op("&").Id(objVar).Dot(class.FieldName(key))),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err())),
			jen.If(jen.List(jen.Id("_"), jen.Err()).Op(":=").Add(db.Clone()).Dot("ExecContext").Call(args...), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		)
	default:
		m.Append(
			jen.List(jen.Id("res"), jen.Err()).Op(":=").Add(db.Clone()).Dot("ExecContext").Call(args...),
			returnErr(),
			jen.List(jen.Id("id"), jen.Err()).Op(":=").Id("res").Dot("LastInsertId").Call(),
			returnErr(),
			jen.Id(objVar).Dot(class.FieldName(key)).Op("=").Add(class.BaseType(key)).Call(jen.Id("id")),
		)
	}
	m.Append(ctx.Chain.PostInsert(h)...)
	m.Append(jen.Return(jen.Nil()))
	return def.AddMethod(m)
}

func repositoryUpdate(ctx *BuildContext, def *class.Definition) error {
	p, e, h := ctx.Platform(), ctx.Entity, ctx.Hook
	m := &class.Method{
		Name:    updateM,
		Params:  []class.Param{ctxParam(), objParam(e)},
		Results: []jen.Code{jen.Error()},
	}
	m.Append(ctx.Chain.PreUpdate(h)...)
	if p.UpdateSQL(e) != "" {
		var sets []*schema.Field
		for _, f := range e.Fields {
			if !f.PrimaryKey {
				sets = append(sets, f)
			}
		}
		args := append([]jen.Code{jen.Id(ctxVar), jen.Id(statement(e, "Update"))}, fieldArgs(sets)...)
		args = append(args, fieldArgs(e.PrimaryKey())...)
		m.Append(
			jen.If(jen.List(jen.Id("_"), jen.Err()).Op(":=").Id(def.Recv()).Dot(dbProp).Dot("ExecContext").Call(args...), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Err()),
			),
		)
	}
	m.Append(ctx.Chain.PostUpdate(h)...)
	m.Append(jen.Return(jen.Nil()))
	return def.AddMethod(m)
}

// repositoryDelete adds Delete. Read-only entities get a method that always
// fails; entities without a primary key get none.
func repositoryDelete(ctx *BuildContext, def *class.Definition) error {
	p, e, h := ctx.Platform(), ctx.Entity, ctx.Hook
	m := &class.Method{
		Name:    "Delete",
		Comment: "Delete removes the row of obj.",
		Params:  []class.Param{ctxParam(), objParam(e)},
		Results: []jen.Code{jen.Error()},
	}
	_, err := p.DeleteSQL(e)
	switch {
	case errors.Is(err, platform.ErrReadOnlyEntity):
		m.Comment = "Delete always fails: " + e.Name + " is read-only."
		m.Params[0].Name, m.Params[1].Name = "_", "_"
		m.Append(jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("cannot delete read-only entity "+e.Name+": %w"), jen.Id("ErrReadOnlyEntity"))))
		return def.AddMethod(m)
	case err != nil:
		return nil
	}
	args := append([]jen.Code{jen.Id(ctxVar), jen.Id(statement(e, "Delete"))}, fieldArgs(e.PrimaryKey())...)
	m.Append(ctx.Chain.PreDelete(h)...)
	m.Append(
		jen.If(jen.List(jen.Id("_"), jen.Err()).Op(":=").Id(def.Recv()).Dot(dbProp).Dot("ExecContext").Call(args...), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Err()),
		),
	)
	m.Append(ctx.Chain.PostDelete(h)...)
	m.Append(jen.Return(jen.Nil()))
	return def.AddMethod(m)
}

// keyParam names the FindByPK parameter of a key field.
func keyParam(f *schema.Field) string {
	name := naming.Camel(f.Name)
	switch name {
	case ctxVar, "r", "obj", "err":
		return name + "Key"
	}
	return name
}

func repositoryFind(ctx *BuildContext, def *class.Definition) error {
	p, e := ctx.Platform(), ctx.Entity
	recv, typ := def.Recv(), class.TypeName(e)
	targets := make([]jen.Code, len(e.Fields))
	for i, f := range e.Fields {
		targets[i] = jen.Op("&").Id(objVar).Dot(class.FieldName(f))
	}
	methods := []*class.Method{{
		Name:    scanFn,
		Params:  []class.Param{{Name: "row", Type: jen.Id("scanner")}},
		Results: []jen.Code{jen.Op("*").Id(typ), jen.Error()},
		Body: []jen.Code{
			jen.Id(objVar).Op(":=").Op("&").Id(typ).Values(jen.Dict{jen.Id(modifiedProp): jen.Make(jen.Map(jen.String()).Bool())}),
			jen.If(jen.Err().Op(":=").Id("row").Dot("Scan").Call(targets...), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			),
			jen.Return(jen.Id(objVar), jen.Nil()),
		},
	}}
	if p.SelectByPKSQL(e) != "" {
		params := []class.Param{ctxParam()}
		args := []jen.Code{jen.Id(ctxVar), jen.Id(statement(e, "SelectByPK"))}
		for _, f := range e.PrimaryKey() {
			params = append(params, class.Param{Name: keyParam(f), Type: class.BaseType(f)})
			args = append(args, jen.Id(keyParam(f)))
		}
		methods = append(methods, &class.Method{
			Name:    "FindByPK",
			Comment: "FindByPK loads the object with the given key, or returns ErrNotFound.",
			Params:  params,
			Results: []jen.Code{jen.Op("*").Id(typ), jen.Error()},
			Body: []jen.Code{
				jen.List(jen.Id(objVar), jen.Err()).Op(":=").Id(recv).Dot(scanFn).Call(jen.Id(recv).Dot(dbProp).Dot("QueryRowContext").Call(args...)),
				jen.If(jen.Qual("errors", "Is").Call(jen.Err(), jen.Qual("database/sql", "ErrNoRows"))).Block(
					jen.Return(jen.Nil(), jen.Id("ErrNotFound")),
				),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
				jen.Return(jen.Id(objVar), jen.Nil()),
			},
		})
	}
	if ctx.Config.HasBuilder(Query) {
		methods = append(methods, &class.Method{
			Name:    "Find",
			Comment: "Find returns the objects matching q.",
			Params:  []class.Param{ctxParam(), {Name: "q", Type: jen.Op("*").Id(class.QueryName(e))}},
			Results: []jen.Code{jen.Index().Op("*").Id(typ), jen.Error()},
			Body: []jen.Code{
				jen.List(jen.Id("query"), jen.Id("args")).Op(":=").Id("q").Dot("SQL").Call(),
				jen.List(jen.Id("rows"), jen.Err()).Op(":=").Id(recv).Dot(dbProp).Dot("QueryContext").Call(jen.Id(ctxVar), jen.Id("query"), jen.Id("args").Op("...")),
				jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
				jen.Defer().Id("rows").Dot("Close").Call(),
				jen.Var().Id("out").Index().Op("*").Id(typ),
				jen.For(jen.Id("rows").Dot("Next").Call()).Block(
					jen.List(jen.Id(objVar), jen.Err()).Op(":=").Id(recv).Dot(scanFn).Call(jen.Id("rows")),
					jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
					jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id(objVar)),
				),
				jen.Return(jen.Id("out"), jen.Id("rows").Dot("Err").Call()),
			},
		})
	}
	for _, m := range methods {
		if err := def.AddMethod(m); err != nil {
			return err
		}
	}
	return nil
}

func repositoryBehaviors(ctx *BuildContext, def *class.Definition) error {
	return ctx.Chain.RepositoryMethods(ctx.Hook, def)
}
