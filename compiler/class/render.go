package class

import (
	"slices"

	"github.com/dave/jennifer/jen"
)

// Render writes the definition into f: imports, the const block, the type,
// then functions and methods in declaration order.
func (d *Definition) Render(f *jen.File) {
	paths := make([]string, 0, len(d.Imports))
	for p := range d.Imports {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		switch alias := d.Imports[p]; alias {
		case "_":
			f.Anon(p)
		case "":
			// Qualified references import themselves.
		default:
			f.ImportAlias(p, alias)
		}
	}

	if len(d.Constants) > 0 {
		f.Const().DefsFunc(func(g *jen.Group) {
			for _, c := range d.Constants {
				if c.Comment != "" {
					g.Comment(c.Comment)
				}
				g.Id(c.Name).Op("=").Add(c.Value)
			}
		})
	}

	if d.Comment != "" {
		f.Comment(d.Comment)
	}
	f.Type().Id(d.Name).StructFunc(func(g *jen.Group) {
		for _, p := range d.Properties {
			if p.Comment != "" {
				g.Comment(p.Comment)
			}
			var s *jen.Statement
			if p.Embedded {
				s = g.Add(p.Type)
			} else {
				s = g.Id(p.Name).Add(p.Type)
			}
			if len(p.Tags) > 0 {
				s.Tag(p.Tags)
			}
		}
	})

	for _, fn := range d.Funcs {
		f.Line()
		if fn.Comment != "" {
			f.Comment(fn.Comment)
		}
		results(f.Func().Id(fn.Name).Params(params(fn.Params)...), fn.Results).Block(fn.Body...)
	}

	recv := d.Recv()
	for _, m := range d.Methods {
		f.Line()
		if m.Comment != "" {
			f.Comment(m.Comment)
		}
		rt := jen.Op("*").Id(d.Name)
		if m.ValueReceiver {
			rt = jen.Id(d.Name)
		}
		results(f.Func().Params(jen.Id(recv).Add(rt)).Id(m.Name).Params(params(m.Params)...), m.Results).Block(m.Body...)
	}
}

func params(ps []Param) []jen.Code {
	out := make([]jen.Code, len(ps))
	for i, p := range ps {
		s := jen.Id(p.Name)
		if p.Variadic {
			s.Op("...")
		}
		out[i] = s.Add(p.Type)
	}
	return out
}

func results(s *jen.Statement, rs []jen.Code) *jen.Statement {
	switch len(rs) {
	case 0:
		return s
	case 1:
		return s.Add(rs[0])
	default:
		return s.Params(rs...)
	}
}
