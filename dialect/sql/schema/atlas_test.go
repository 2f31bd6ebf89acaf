package schema

import (
	"context"
	"strings"
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel"
	model "github.com/syssam/propel/schema"
)

func TestToAtlas(t *testing.T) {
	db := bookstore(t)
	db.Entity("Book").Field("title").SetDefault("'untitled'")

	realm, err := ToAtlas(db)
	require.NoError(t, err)
	require.Len(t, realm.Schemas, 1)
	s := realm.Schemas[0]
	assert.Equal(t, "bookstore", s.Name)
	require.Len(t, s.Tables, 2)

	book, ok := s.Table("book")
	require.True(t, ok)
	require.NotNil(t, book.PrimaryKey)
	require.Len(t, book.PrimaryKey.Parts, 1)
	assert.Equal(t, "id", book.PrimaryKey.Parts[0].C.Name)

	title, ok := book.Column("title")
	require.True(t, ok)
	assert.False(t, title.Type.Null)
	assert.Equal(t, &schema.StringType{T: "varchar", Size: 255}, title.Type.Type)
	assert.Equal(t, &schema.RawExpr{X: "'untitled'"}, title.Default)

	isbn, ok := book.Column("isbn")
	require.True(t, ok)
	assert.True(t, isbn.Type.Null)

	require.Len(t, book.Indexes, 1)
	assert.Equal(t, "title", book.Indexes[0].Parts[0].C.Name)

	require.Len(t, book.ForeignKeys, 1)
	fk := book.ForeignKeys[0]
	assert.Equal(t, "author", fk.RefTable.Name)
	assert.Equal(t, schema.SetNull, fk.OnDelete)
	assert.Equal(t, schema.NoAction, fk.OnUpdate)
	require.Len(t, fk.Columns, 1)
	assert.Equal(t, "author_id", fk.Columns[0].Name)
	assert.Equal(t, "id", fk.RefColumns[0].Name)
}

func TestToAtlas_Types(t *testing.T) {
	tests := []struct {
		field *model.Field
		want  schema.Type
	}{
		{&model.Field{Type: model.TypeBoolean}, &schema.BoolType{T: "boolean"}},
		{&model.Field{Type: model.TypeBigInt}, &schema.IntegerType{T: "bigint"}},
		{&model.Field{Type: model.TypeDecimal, Size: 10, Scale: 2}, &schema.DecimalType{T: "decimal", Precision: 10, Scale: 2}},
		{&model.Field{Type: model.TypeClob}, &schema.StringType{T: "text"}},
		{&model.Field{Type: model.TypeTimestamp}, &schema.TimeType{T: "timestamp"}},
		{&model.Field{Type: model.TypeEnum, ValueSet: []string{"a", "b"}}, &schema.EnumType{T: "enum", Values: []string{"a", "b"}}},
		{&model.Field{Type: model.TypeObject}, &schema.JSONType{T: "json"}},
		{&model.Field{Type: model.TypeUUID}, &schema.UUIDType{T: "uuid"}},
	}
	for _, tt := range tests {
		t.Run(tt.field.Type.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, atlasType(tt.field))
		})
	}
}

func TestToAtlas_UnknownIndexColumn(t *testing.T) {
	db := bookstore(t)
	require.NoError(t, db.Entity("Book").AddIndex(model.NewIndex("missing")))
	_, err := ToAtlas(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")
}

func TestAtlasPlan(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	require.True(t, from.Entity("Book").RemoveField("isbn"))
	from.Name = "previous"

	stmts, err := AtlasPlan(context.Background(), "sqlite", from, to)
	require.NoError(t, err)
	require.NotEmpty(t, stmts)
	script := strings.Join(stmts, ";\n")
	assert.Contains(t, script, "`isbn`")
	assert.NotContains(t, script, "previous")
	assert.NotContains(t, script, "DROP TABLE `author`")

	stmts, err = AtlasPlan(context.Background(), "sqlite", to, bookstore(t))
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestAtlasPlan_UnsupportedPlatform(t *testing.T) {
	_, err := AtlasPlan(context.Background(), "mssql", bookstore(t), bookstore(t))
	require.Error(t, err)
	assert.True(t, propel.IsInvalidArgumentError(err))
}
