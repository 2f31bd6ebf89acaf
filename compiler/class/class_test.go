package class

import (
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel"
)

func TestDefinition_Members(t *testing.T) {
	d := New("model", "Book")
	require.NoError(t, d.AddProperty(&Property{Name: "Title", Type: jen.String()}))
	require.NoError(t, d.AddConstant(&Constant{Name: "TableName", Value: jen.Lit("book")}))
	require.NoError(t, d.AddMethod(&Method{Name: "GetTitle", Results: []jen.Code{jen.String()}}))
	require.NoError(t, d.AddFunc(&Func{Name: "NewBook"}))

	assert.True(t, d.HasProperty("Title"))
	assert.True(t, d.HasConstant("TableName"))
	assert.True(t, d.HasMethod("GetTitle"))
	assert.True(t, d.HasFunc("NewBook"))
	assert.Nil(t, d.Property("Missing"))
	assert.Nil(t, d.Method("Missing"))
	assert.Equal(t, []string{"GetTitle"}, d.MethodNames())
	assert.Equal(t, "b", d.Recv())

	for _, err := range []error{
		d.AddProperty(&Property{Name: "Title", Type: jen.String()}),
		d.AddConstant(&Constant{Name: "TableName", Value: jen.Lit("x")}),
		d.AddMethod(&Method{Name: "GetTitle"}),
		d.AddFunc(&Func{Name: "NewBook"}),
	} {
		require.Error(t, err)
		assert.True(t, propel.IsBuildError(err))
	}
}

func TestMethod_PrependAppend(t *testing.T) {
	m := &Method{Name: "Save", Body: []jen.Code{jen.Id("b")}}
	m.Prepend(jen.Id("a"))
	m.Append(jen.Id("c"))
	require.Len(t, m.Body, 3)
	assert.Equal(t, "a", jen.Add(m.Body[0]).GoString())
	assert.Equal(t, "c", jen.Add(m.Body[2]).GoString())
}

func TestRender(t *testing.T) {
	d := New("model", "Book")
	d.Comment = "Book is the object model for the book table."
	d.Use("database/sql", "")
	d.Use("github.com/lib/pq", "_")
	require.NoError(t, d.AddConstant(&Constant{Name: "BookTableName", Value: jen.Lit("book"), Comment: "BookTableName is the table name."}))
	require.NoError(t, d.AddProperty(&Property{Name: "ID", Type: jen.Int64(), Tags: map[string]string{"db": "id"}}))
	require.NoError(t, d.AddProperty(&Property{Name: "Title", Type: jen.Qual("database/sql", "NullString")}))
	require.NoError(t, d.AddProperty(&Property{Name: "base", Type: jen.Id("Base"), Embedded: true}))
	require.NoError(t, d.AddFunc(&Func{
		Name:    "NewBook",
		Comment: "NewBook returns an empty Book.",
		Results: []jen.Code{jen.Op("*").Id("Book")},
		Body:    []jen.Code{jen.Return(jen.Op("&").Id("Book").Values())},
	}))
	require.NoError(t, d.AddMethod(&Method{
		Name:    "SetTitle",
		Params:  []Param{{Name: "v", Type: jen.String()}},
		Results: []jen.Code{jen.Op("*").Id("Book")},
		Body: []jen.Code{
			jen.Id("b").Dot("Title").Op("=").Qual("database/sql", "NullString").Values(jen.Dict{
				jen.Id("String"): jen.Id("v"),
				jen.Id("Valid"):  jen.True(),
			}),
			jen.Return(jen.Id("b")),
		},
	}))
	require.NoError(t, d.AddMethod(&Method{
		Name:          "Scan",
		Params:        []Param{{Name: "dest", Type: jen.Id("any"), Variadic: true}},
		Results:       []jen.Code{jen.Int(), jen.Error()},
		Body:          []jen.Code{jen.Return(jen.Lit(0), jen.Nil())},
		ValueReceiver: true,
	}))

	f := jen.NewFile("model")
	d.Render(f)
	out := f.GoString()

	assert.Contains(t, out, `_ "github.com/lib/pq"`)
	assert.Contains(t, out, "// BookTableName is the table name.")
	assert.Contains(t, out, `BookTableName = "book"`)
	assert.Contains(t, out, "// Book is the object model for the book table.")
	assert.Contains(t, out, "type Book struct {")
	assert.Contains(t, out, "ID    int64 `db:\"id\"`")
	assert.Contains(t, out, "Title sql.NullString")
	assert.Contains(t, out, "\tBase\n")
	assert.Contains(t, out, "func NewBook() *Book {")
	assert.Contains(t, out, "func (b *Book) SetTitle(v string) *Book {")
	assert.Contains(t, out, "func (b Book) Scan(dest ...any) (int, error) {")
}
