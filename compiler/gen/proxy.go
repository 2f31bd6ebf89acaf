package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
)

// Proxy members.
const (
	loaderProp = "loader"
	loadedProp = "loaded"
	errProp    = "err"
	ensureM    = "ensureLoaded"
)

func proxyStruct(ctx *BuildContext, def *class.Definition) error {
	typ := class.TypeName(ctx.Entity)
	def.Comment = def.Name + " is a " + typ + " filled on first access."
	for _, p := range []*class.Property{
		{Name: typ, Type: jen.Op("*").Id(typ), Embedded: true},
		{Name: loaderProp, Type: jen.Func().Params(jen.Op("*").Id(typ)).Error()},
		{Name: loadedProp, Type: jen.Bool()},
		{Name: errProp, Type: jen.Error()},
	} {
		if err := def.AddProperty(p); err != nil {
			return err
		}
	}
	name := class.Constructor(def.Name)
	return def.AddFunc(&class.Func{
		Name:    name,
		Comment: name + " returns a proxy calling load once, before the first field access.",
		Params:  []class.Param{{Name: "load", Type: jen.Func().Params(jen.Op("*").Id(typ)).Error()}},
		Results: []jen.Code{jen.Op("*").Id(def.Name)},
		Body: []jen.Code{
			jen.Return(jen.Op("&").Id(def.Name).Values(jen.Dict{
				jen.Id(typ):        jen.Id(class.Constructor(typ)).Call(),
				jen.Id(loaderProp): jen.Id("load"),
			})),
		},
	})
}

func proxyLoader(ctx *BuildContext, def *class.Definition) error {
	if err := requireProperty(ctx, def, loaderProp, "struct"); err != nil {
		return err
	}
	p, typ := def.Recv(), class.TypeName(ctx.Entity)
	methods := []*class.Method{
		{
			Name: ensureM,
			Body: []jen.Code{
				jen.If(jen.Id(p).Dot(loadedProp)).Block(jen.Return()),
				jen.Id(p).Dot(loadedProp).Op("=").True(),
				jen.If(jen.Id(p).Dot(loaderProp).Op("!=").Nil()).Block(
					jen.Id(p).Dot(errProp).Op("=").Id(p).Dot(loaderProp).Call(jen.Id(p).Dot(typ)),
				),
			},
		},
		{
			Name:    "IsLoaded",
			Comment: "IsLoaded reports if the loader ran.",
			Results: []jen.Code{jen.Bool()},
			Body:    []jen.Code{jen.Return(jen.Id(p).Dot(loadedProp))},
		},
		{
			Name:    "Err",
			Comment: "Err loads the object if needed and returns the loader error.",
			Results: []jen.Code{jen.Error()},
			Body: []jen.Code{
				jen.Id(p).Dot(ensureM).Call(),
				jen.Return(jen.Id(p).Dot(errProp)),
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

// proxyAccessors shadows every getter of the embedded object.
func proxyAccessors(ctx *BuildContext, def *class.Definition) error {
	p, typ := def.Recv(), class.TypeName(ctx.Entity)
	for _, f := range ctx.Entity.Fields {
		if err := def.AddMethod(&class.Method{
			Name:    class.Getter(f),
			Comment: class.Getter(f) + " loads the object if needed and returns the " + f.ColumnName() + " column.",
			Results: []jen.Code{class.GoType(f)},
			Body: []jen.Code{
				jen.Id(p).Dot(ensureM).Call(),
				jen.Return(jen.Id(p).Dot(typ).Dot(class.FieldName(f))),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}
