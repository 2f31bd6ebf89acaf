// Package class provides the in-memory definition of one generated Go type.
//
// Builder components never write source text. Each one adds constants,
// properties, methods and functions to a shared Definition, and a single
// Render call turns the finished definition into jennifer statements:
//
//	def := class.New("model", "Book")
//	def.AddProperty(&class.Property{Name: "Title", Type: jen.String()})
//	def.AddMethod(&class.Method{
//		Name:    "GetTitle",
//		Results: []jen.Code{jen.String()},
//		Body:    []jen.Code{jen.Return(jen.Id("b").Dot("Title"))},
//	})
//	f := jen.NewFile("model")
//	def.Render(f)
package class

import (
	"slices"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel"
	"github.com/syssam/propel/internal/naming"
)

// Constant is a named constant in the definition's const block.
type Constant struct {
	Name    string
	Value   jen.Code
	Comment string
}

// Property is a struct field.
type Property struct {
	Name     string
	Type     jen.Code
	Tags     map[string]string
	Comment  string
	Embedded bool
}

// Param is a function or method parameter.
type Param struct {
	Name     string
	Type     jen.Code
	Variadic bool
}

// Method is a method on the defined type.
type Method struct {
	Name          string
	Comment       string
	Params        []Param
	Results       []jen.Code
	Body          []jen.Code
	ValueReceiver bool
}

// Prepend inserts statements at the start of the body.
func (m *Method) Prepend(code ...jen.Code) {
	m.Body = append(slices.Clone(code), m.Body...)
}

// Append adds statements at the end of the body.
func (m *Method) Append(code ...jen.Code) {
	m.Body = append(m.Body, code...)
}

// Func is a package-level function emitted next to the type, typically a
// constructor.
type Func struct {
	Name    string
	Comment string
	Params  []Param
	Results []jen.Code
	Body    []jen.Code
}

// Definition is a mutable description of one generated type.
type Definition struct {
	Package  string
	Name     string
	Comment  string
	Receiver string // Defaults to naming.Receiver(Name)

	Constants  []*Constant
	Properties []*Property
	Methods    []*Method
	Funcs      []*Func
	Imports    map[string]string // path => alias ("" for the default name)
}

// New returns an empty definition.
func New(pkg, name string) *Definition {
	return &Definition{Package: pkg, Name: name, Imports: make(map[string]string)}
}

// Recv returns the receiver name used by methods.
func (d *Definition) Recv() string {
	if d.Receiver != "" {
		return d.Receiver
	}
	return naming.Receiver(d.Name)
}

// Use registers an import. Qualified jennifer references import themselves;
// Use is for aliases and blank imports.
func (d *Definition) Use(path, alias string) {
	d.Imports[path] = alias
}

// AddConstant adds a constant. Duplicate names fail with BuildError.
func (d *Definition) AddConstant(c *Constant) error {
	if d.HasConstant(c.Name) {
		return d.duplicate("constant", c.Name)
	}
	d.Constants = append(d.Constants, c)
	return nil
}

// HasConstant reports if a constant is declared.
func (d *Definition) HasConstant(name string) bool {
	return slices.ContainsFunc(d.Constants, func(c *Constant) bool { return c.Name == name })
}

// AddProperty adds a struct field. Duplicate names fail with BuildError.
func (d *Definition) AddProperty(p *Property) error {
	if d.HasProperty(p.Name) {
		return d.duplicate("property", p.Name)
	}
	d.Properties = append(d.Properties, p)
	return nil
}

// Property returns the named struct field, or nil.
func (d *Definition) Property(name string) *Property {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// HasProperty reports if a struct field is declared.
func (d *Definition) HasProperty(name string) bool {
	return d.Property(name) != nil
}

// AddMethod adds a method. Duplicate names fail with BuildError.
func (d *Definition) AddMethod(m *Method) error {
	if d.HasMethod(m.Name) {
		return d.duplicate("method", m.Name)
	}
	d.Methods = append(d.Methods, m)
	return nil
}

// Method returns the named method, or nil.
func (d *Definition) Method(name string) *Method {
	for _, m := range d.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// HasMethod reports if a method is declared.
func (d *Definition) HasMethod(name string) bool {
	return d.Method(name) != nil
}

// AddFunc adds a package-level function. Duplicate names fail with BuildError.
func (d *Definition) AddFunc(fn *Func) error {
	if d.HasFunc(fn.Name) {
		return d.duplicate("function", fn.Name)
	}
	d.Funcs = append(d.Funcs, fn)
	return nil
}

// HasFunc reports if a package-level function is declared.
func (d *Definition) HasFunc(name string) bool {
	return slices.ContainsFunc(d.Funcs, func(f *Func) bool { return f.Name == name })
}

// MethodNames returns method names in declaration order.
func (d *Definition) MethodNames() []string {
	names := make([]string, len(d.Methods))
	for i, m := range d.Methods {
		names[i] = m.Name
	}
	return names
}

func (d *Definition) duplicate(kind, name string) error {
	return propel.NewBuildError("build", d.Name, "duplicate %s %q", kind, name)
}
