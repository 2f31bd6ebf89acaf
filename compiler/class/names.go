package class

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// Identifiers of generated code. Builders and behaviors derive names through
// these helpers so fragments injected by behaviors refer to the same members
// the builders declare.

// TypeName returns the object type name of an entity.
func TypeName(e *schema.Entity) string { return naming.Pascal(e.Name) }

// QueryName returns the query builder type name.
func QueryName(e *schema.Entity) string { return TypeName(e) + "Query" }

// RepositoryName returns the repository type name.
func RepositoryName(e *schema.Entity) string { return TypeName(e) + "Repository" }

// MapName returns the entity map type name.
func MapName(e *schema.Entity) string { return TypeName(e) + "Map" }

// ProxyName returns the proxy type name.
func ProxyName(e *schema.Entity) string { return TypeName(e) + "Proxy" }

// Constructor returns the constructor name for a generated type name.
func Constructor(typeName string) string { return "New" + typeName }

// FieldName returns the Go struct field name of a schema field.
func FieldName(f *schema.Field) string { return naming.Pascal(f.Name) }

// Getter returns the getter method name.
func Getter(f *schema.Field) string { return "Get" + FieldName(f) }

// Setter returns the setter method name.
func Setter(f *schema.Field) string { return "Set" + FieldName(f) }

// ColumnConst returns the name of the column name constant, e.g. BookColumnTitle.
func ColumnConst(e *schema.Entity, f *schema.Field) string {
	return TypeName(e) + "Column" + FieldName(f)
}

// TableConst returns the name of the table name constant.
func TableConst(e *schema.Entity) string { return TypeName(e) + "Table" }

// BaseType returns the non-nullable Go type of a field.
func BaseType(f *schema.Field) jen.Code {
	switch f.Type {
	case schema.TypeBoolean:
		return jen.Bool()
	case schema.TypeTinyInt:
		return jen.Int8()
	case schema.TypeSmallInt:
		return jen.Int16()
	case schema.TypeInteger:
		return jen.Int()
	case schema.TypeBigInt:
		return jen.Int64()
	case schema.TypeFloat:
		return jen.Float32()
	case schema.TypeDouble, schema.TypeDecimal:
		return jen.Float64()
	case schema.TypeBlob:
		return jen.Index().Byte()
	case schema.TypeDate, schema.TypeTime, schema.TypeTimestamp:
		return jen.Qual("time", "Time")
	case schema.TypeArray:
		return jen.Index().String()
	case schema.TypeObject, schema.TypeJSON:
		return jen.Qual("encoding/json", "RawMessage")
	default:
		return jen.String()
	}
}

// GoType returns the Go type of the struct field: a pointer for nullable
// non-key columns.
func GoType(f *schema.Field) jen.Code {
	if Pointer(f) {
		return jen.Op("*").Add(BaseType(f))
	}
	return BaseType(f)
}

// Pointer reports if the struct field is a pointer.
func Pointer(f *schema.Field) bool {
	return !f.NotNull() && f.Type != schema.TypeBlob && f.Type != schema.TypeArray &&
		f.Type != schema.TypeObject && f.Type != schema.TypeJSON
}

// AssignValue sets a field of obj from a non-pointer expression.
//
//	obj.SetTitle(value)
//	{ v := value; obj.SetNote(&v) }
func AssignValue(obj string, f *schema.Field, value jen.Code) jen.Code {
	if !Pointer(f) {
		return jen.Id(obj).Dot(Setter(f)).Call(value)
	}
	return jen.Block(
		jen.Id("v").Op(":=").Add(value),
		jen.Id(obj).Dot(Setter(f)).Call(jen.Op("&").Id("v")),
	)
}

// CopyField copies src.sf into dst.df through the setter, converting between
// pointer and value forms.
func CopyField(dst string, df *schema.Field, src string, sf *schema.Field) jen.Code {
	from := jen.Id(src).Dot(FieldName(sf))
	switch dp, sp := Pointer(df), Pointer(sf); {
	case dp == sp:
		return jen.Id(dst).Dot(Setter(df)).Call(from)
	case dp:
		return AssignValue(dst, df, from)
	default:
		return jen.If(jen.Id(src).Dot(FieldName(sf)).Op("!=").Nil()).Block(
			jen.Id(dst).Dot(Setter(df)).Call(jen.Op("*").Add(from)),
		)
	}
}
