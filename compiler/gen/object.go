package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/internal/naming"
)

// Properties every object carries for persistence state.
const (
	isNewProp    = "isNew"
	modifiedProp = "modified"
)

func objectStruct(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	def.Comment = def.Name + " is a row of table " + e.Table() + "."
	if e.Description != "" {
		def.Comment += " " + e.Description
	}
	for _, f := range e.Fields {
		p := &class.Property{
			Name:    class.FieldName(f),
			Type:    class.GoType(f),
			Tags:    map[string]string{"json": f.ColumnName()},
			Comment: f.Description,
		}
		if err := def.AddProperty(p); err != nil {
			return err
		}
	}
	for _, p := range []*class.Property{
		{Name: isNewProp, Type: jen.Bool()},
		{Name: modifiedProp, Type: jen.Map(jen.String()).Bool()},
	} {
		if err := def.AddProperty(p); err != nil {
			return err
		}
	}

	recv := def.Recv()
	values := jen.Dict{
		jen.Id(isNewProp):    jen.True(),
		jen.Id(modifiedProp): jen.Make(jen.Map(jen.String()).Bool()),
	}
	if err := def.AddFunc(&class.Func{
		Name:    class.Constructor(def.Name),
		Comment: class.Constructor(def.Name) + " returns a new, unsaved " + def.Name + ".",
		Results: []jen.Code{jen.Op("*").Id(def.Name)},
		Body:    []jen.Code{jen.Return(jen.Op("&").Id(def.Name).Values(values))},
	}); err != nil {
		return err
	}
	methods := []*class.Method{
		{
			Name:    "IsNew",
			Comment: "IsNew reports if the object was never saved or loaded.",
			Results: []jen.Code{jen.Bool()},
			Body:    []jen.Code{jen.Return(jen.Id(recv).Dot(isNewProp))},
		},
		{
			Name:    "IsModified",
			Comment: "IsModified reports if any column changed since the last save.",
			Results: []jen.Code{jen.Bool()},
			Body:    []jen.Code{jen.Return(jen.Len(jen.Id(recv).Dot(modifiedProp)).Op(">").Lit(0))},
		},
		{
			Name:    "IsColumnModified",
			Comment: "IsColumnModified reports if the column changed since the last save.",
			Params:  []class.Param{{Name: "column", Type: jen.String()}},
			Results: []jen.Code{jen.Bool()},
			Body:    []jen.Code{jen.Return(jen.Id(recv).Dot(modifiedProp).Index(jen.Id("column")))},
		},
		{
			Name:    "ModifiedColumns",
			Comment: "ModifiedColumns returns the changed columns in table order.",
			Results: []jen.Code{jen.Index().String()},
			Body: []jen.Code{
				jen.Var().Id("columns").Index().String(),
				jen.For(jen.List(jen.Id("_"), jen.Id("col")).Op(":=").Range().Index().String().ValuesFunc(func(g *jen.Group) {
					for _, f := range e.Fields {
						g.Id(class.ColumnConst(e, f))
					}
				})).Block(
					jen.If(jen.Id(recv).Dot(modifiedProp).Index(jen.Id("col"))).Block(
						jen.Id("columns").Op("=").Append(jen.Id("columns"), jen.Id("col")),
					),
				),
				jen.Return(jen.Id("columns")),
			},
		},
		{
			Name:    "ResetModified",
			Comment: "ResetModified forgets the changed columns.",
			Body:    []jen.Code{jen.Id("clear").Call(jen.Id(recv).Dot(modifiedProp))},
		},
		{
			Name:   "markModified",
			Params: []class.Param{{Name: "column", Type: jen.String()}},
			Body: []jen.Code{
				jen.If(jen.Id(recv).Dot(modifiedProp).Op("==").Nil()).Block(
					jen.Id(recv).Dot(modifiedProp).Op("=").Make(jen.Map(jen.String()).Bool()),
				),
				jen.Id(recv).Dot(modifiedProp).Index(jen.Id("column")).Op("=").True(),
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

func objectConstants(ctx *BuildContext, def *class.Definition) error {
	e := ctx.Entity
	if err := def.AddConstant(&class.Constant{
		Name:    class.TableConst(e),
		Value:   jen.Lit(e.Table()),
		Comment: class.TableConst(e) + " is the table of " + def.Name + ".",
	}); err != nil {
		return err
	}
	for _, f := range e.Fields {
		if err := def.AddConstant(&class.Constant{Name: class.ColumnConst(e, f), Value: jen.Lit(f.ColumnName())}); err != nil {
			return err
		}
	}
	return nil
}

func objectAccessors(ctx *BuildContext, def *class.Definition) error {
	recv := def.Recv()
	for _, f := range ctx.Entity.Fields {
		if err := def.AddMethod(&class.Method{
			Name:    class.Getter(f),
			Comment: class.Getter(f) + " returns the " + f.ColumnName() + " column.",
			Results: []jen.Code{class.GoType(f)},
			Body:    []jen.Code{jen.Return(jen.Id(recv).Dot(class.FieldName(f)))},
		}); err != nil {
			return err
		}
	}
	return nil
}

func objectSetters(ctx *BuildContext, def *class.Definition) error {
	if err := requireProperty(ctx, def, modifiedProp, "struct"); err != nil {
		return err
	}
	e, recv := ctx.Entity, def.Recv()
	for _, f := range e.Fields {
		if err := def.AddMethod(&class.Method{
			Name:    class.Setter(f),
			Comment: class.Setter(f) + " sets the " + f.ColumnName() + " column and marks it modified.",
			Params:  []class.Param{{Name: "value", Type: class.GoType(f)}},
			Body: []jen.Code{
				jen.Id(recv).Dot(class.FieldName(f)).Op("=").Id("value"),
				jen.Id(recv).Dot("markModified").Call(jen.Id(class.ColumnConst(e, f))),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// objectRelations adds Get and Set for every relation. Set copies the
// referenced key into the local columns.
func objectRelations(ctx *BuildContext, def *class.Definition) error {
	recv := def.Recv()
	for _, r := range ctx.Entity.Relations {
		fe := r.ForeignEntity()
		if fe == nil {
			continue
		}
		name := RelationName(r)
		prop := naming.LowerFirst(name)
		typ := jen.Op("*").Id(class.TypeName(fe))
		if err := def.AddProperty(&class.Property{Name: prop, Type: typ}); err != nil {
			return err
		}
		set := &class.Method{
			Name:    "Set" + name,
			Comment: "Set" + name + " links the related " + class.TypeName(fe) + " and copies its key.",
			Params:  []class.Param{{Name: "value", Type: typ.Clone()}},
		}
		set.Append(jen.Id(recv).Dot(prop).Op("=").Id("value"))
		var copies, clears []jen.Code
		locals, foreigns := r.LocalFields(), r.ForeignFields()
		for i := range locals {
			if i >= len(foreigns) {
				break
			}
			copies = append(copies, class.CopyField(recv, locals[i], "value", foreigns[i]))
			if class.Pointer(locals[i]) {
				clears = append(clears, jen.Id(recv).Dot(class.Setter(locals[i])).Call(jen.Nil()))
			}
		}
		if len(clears) > 0 {
			set.Append(jen.If(jen.Id("value").Op("==").Nil()).Block(clears...).Else().Block(copies...))
		} else if len(copies) > 0 {
			set.Append(jen.If(jen.Id("value").Op("!=").Nil()).Block(copies...))
		}
		methods := []*class.Method{
			{
				Name:    "Get" + name,
				Comment: "Get" + name + " returns the related " + class.TypeName(fe) + " if it was set or loaded.",
				Results: []jen.Code{typ.Clone()},
				Body:    []jen.Code{jen.Return(jen.Id(recv).Dot(prop))},
			},
			set,
		}
		for _, m := range methods {
			if err := def.AddMethod(m); err != nil {
				return err
			}
		}
	}
	return nil
}

// objectReferrers adds the collections of objects pointing at this one, and
// the collections of many-to-many targets.
func objectReferrers(ctx *BuildContext, def *class.Definition) error {
	e, recv, p := ctx.Entity, def.Recv(), ctx.Pluralizer()
	for _, r := range e.Referrers {
		src := class.TypeName(r.Entity())
		coll := ReferrerCollection(r, p)
		prop := naming.LowerFirst(coll)
		if err := def.AddProperty(&class.Property{Name: prop, Type: jen.Index().Op("*").Id(src)}); err != nil {
			return err
		}
		methods := []*class.Method{
			{
				Name:    "Get" + coll,
				Comment: "Get" + coll + " returns the " + src + " objects attached to " + def.Name + ".",
				Results: []jen.Code{jen.Index().Op("*").Id(src)},
				Body:    []jen.Code{jen.Return(jen.Id(recv).Dot(prop))},
			},
			{
				Name:    "Add" + ReferrerName(r),
				Comment: "Add" + ReferrerName(r) + " attaches value and points it back at " + def.Name + ".",
				Params:  []class.Param{{Name: "value", Type: jen.Op("*").Id(src)}},
				Body: []jen.Code{
					jen.Id(recv).Dot(prop).Op("=").Append(jen.Id(recv).Dot(prop), jen.Id("value")),
					jen.Id("value").Dot("Set" + RelationName(r)).Call(jen.Id(recv)),
				},
			},
		}
		for _, m := range methods {
			if err := def.AddMethod(m); err != nil {
				return err
			}
		}
	}
	for _, cr := range e.CrossRelations {
		if cr.Target() == nil {
			continue
		}
		coll := CrossCollection(cr, p)
		prop := naming.LowerFirst(coll)
		target := class.TypeName(cr.Target())
		if err := def.AddProperty(&class.Property{Name: prop, Type: jen.Index().Op("*").Id(target)}); err != nil {
			return err
		}
		if err := def.AddMethod(&class.Method{
			Name:    "Get" + coll,
			Comment: "Get" + coll + " returns the " + target + " objects linked through " + cr.Middle.Name + ".",
			Results: []jen.Code{jen.Index().Op("*").Id(target)},
			Body:    []jen.Code{jen.Return(jen.Id(recv).Dot(prop))},
		}); err != nil {
			return err
		}
	}
	return nil
}

// objectCrossRelations adds the many-to-many adders. They append to the
// collections declared by the referrers component.
func objectCrossRelations(ctx *BuildContext, def *class.Definition) error {
	recv, p := def.Recv(), ctx.Pluralizer()
	for _, cr := range ctx.Entity.CrossRelations {
		if cr.Target() == nil {
			continue
		}
		prop := naming.LowerFirst(CrossCollection(cr, p))
		if err := requireProperty(ctx, def, prop, "referrers"); err != nil {
			return err
		}
		target := class.TypeName(cr.Target())
		name := "Add" + p.Singular(CrossCollection(cr, p))
		if def.HasMethod(name) {
			name = "Add" + target + "Via" + class.TypeName(cr.Middle)
		}
		if err := def.AddMethod(&class.Method{
			Name:    name,
			Comment: name + " links value through " + cr.Middle.Name + ".",
			Params:  []class.Param{{Name: "value", Type: jen.Op("*").Id(target)}},
			Body: []jen.Code{
				jen.Id(recv).Dot(prop).Op("=").Append(jen.Id(recv).Dot(prop), jen.Id("value")),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func objectBehaviors(ctx *BuildContext, def *class.Definition) error {
	return ctx.Chain.ObjectMethods(ctx.Hook, def)
}
