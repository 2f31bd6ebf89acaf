package graphql

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/syssam/propel"
	"github.com/syssam/propel/schema"
)

func library(t *testing.T) *schema.Database {
	t.Helper()
	db := schema.NewDatabase("library")
	author := schema.NewEntity("Author")
	require.NoError(t, author.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, author.AddField(&schema.Field{Name: "name", Type: schema.TypeVarchar, Size: 128}))
	require.NoError(t, author.AddField(&schema.Field{Name: "bio", Type: schema.TypeClob, Nullable: true}))
	book := schema.NewEntity("Book")
	book.Description = "A published work."
	require.NoError(t, book.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, book.AddField(&schema.Field{Name: "title", Type: schema.TypeVarchar, Size: 255}))
	require.NoError(t, book.AddField(&schema.Field{Name: "format", Type: schema.TypeEnum, Nullable: true, ValueSet: []string{"hardcover", "paperback", "e-book"}}))
	price := &schema.Field{Name: "price", Type: schema.TypeDecimal, Size: 10, Scale: 2}
	price.SetDefault("0")
	require.NoError(t, book.AddField(price))
	require.NoError(t, book.AddField(&schema.Field{Name: "publishedAt", Type: schema.TypeTimestamp, Nullable: true}))
	require.NoError(t, book.AddField(&schema.Field{Name: "authorId", Type: schema.TypeInteger, Nullable: true}))
	require.NoError(t, book.AddRelation(&schema.Relation{
		Target:     "Author",
		References: []*schema.Reference{{Local: "authorId", Foreign: "id"}},
	}))
	tag := schema.NewEntity("Tag")
	require.NoError(t, tag.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, tag.AddField(&schema.Field{Name: "label", Type: schema.TypeVarchar, Size: 32}))
	bookTag := schema.NewEntity("BookTag")
	bookTag.IsCrossRef = true
	require.NoError(t, bookTag.AddField(&schema.Field{Name: "bookId", Type: schema.TypeInteger, PrimaryKey: true}))
	require.NoError(t, bookTag.AddField(&schema.Field{Name: "tagId", Type: schema.TypeInteger, PrimaryKey: true}))
	require.NoError(t, bookTag.AddRelation(&schema.Relation{Target: "Book", References: []*schema.Reference{{Local: "bookId", Foreign: "id"}}}))
	require.NoError(t, bookTag.AddRelation(&schema.Relation{Target: "Tag", References: []*schema.Reference{{Local: "tagId", Foreign: "id"}}}))
	for _, e := range []*schema.Entity{author, book, tag, bookTag} {
		require.NoError(t, db.AddEntity(e))
	}
	require.NoError(t, db.Link())
	return db
}

func emitter(opts ...Option) *Emitter {
	return NewEmitter(append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)...)
}

func load(t *testing.T, e *Emitter, db *schema.Database) *ast.Schema {
	t.Helper()
	sdl, err := e.Format(db)
	require.NoError(t, err)
	s, err := Validate(db.Name, sdl)
	require.NoError(t, err)
	return s
}

func typeOf(t *testing.T, def *ast.Definition, field string) string {
	t.Helper()
	require.NotNil(t, def)
	f := def.Fields.ForName(field)
	require.NotNil(t, f, "%s.%s", def.Name, field)
	return f.Type.String()
}

// =============================================================================
// Object Type Tests
// =============================================================================

func TestEmitter_Objects(t *testing.T) {
	s := load(t, emitter(), library(t))

	book := s.Types["Book"]
	require.NotNil(t, book)
	assert.Equal(t, ast.Object, book.Kind)
	assert.Equal(t, "A published work.", book.Description)
	assert.Equal(t, "ID!", typeOf(t, book, "id"))
	assert.Equal(t, "String!", typeOf(t, book, "title"))
	assert.Equal(t, "BookFormat", typeOf(t, book, "format"))
	assert.Equal(t, "Float!", typeOf(t, book, "price"))
	assert.Equal(t, "Time", typeOf(t, book, "publishedAt"))
	assert.Equal(t, "Int", typeOf(t, book, "authorID"))
	assert.Equal(t, "Author", typeOf(t, book, "author"), "nullable foreign key")
	assert.Equal(t, "[BookTag!]!", typeOf(t, book, "bookTags"))
	assert.Equal(t, "[Tag!]!", typeOf(t, book, "tags"))

	author := s.Types["Author"]
	assert.Equal(t, "String", typeOf(t, author, "bio"))
	assert.Equal(t, "[Book!]!", typeOf(t, author, "books"))

	bookTag := s.Types["BookTag"]
	assert.Equal(t, "Int!", typeOf(t, bookTag, "bookID"), "composite keys are not IDs")
	assert.Equal(t, "Book!", typeOf(t, bookTag, "book"))

	assert.Equal(t, ast.Scalar, s.Types[ScalarTime].Kind)
	assert.NotContains(t, s.Types, ScalarUUID, "unused scalars are not declared")
}

func TestEmitter_Enum(t *testing.T) {
	s := load(t, emitter(), library(t))
	format := s.Types["BookFormat"]
	require.NotNil(t, format)
	assert.Equal(t, ast.Enum, format.Kind)
	var values []string
	for _, v := range format.EnumValues {
		values = append(values, v.Name)
	}
	assert.Equal(t, []string{"HARDCOVER", "PAPERBACK", "E_BOOK"}, values)
}

func TestEnumValue(t *testing.T) {
	tests := map[string]string{
		"draft":     "DRAFT",
		"inStock":   "IN_STOCK",
		"e-book":    "E_BOOK",
		"3d":        "_3D",
		"true":      "_TRUE",
		"":          "_",
		"half.full": "HALF_FULL",
	}
	for in, want := range tests {
		assert.Equal(t, want, enumValue(in), in)
	}
}

func TestEmitter_Scalars(t *testing.T) {
	db := schema.NewDatabase("store")
	item := schema.NewEntity("Item")
	for _, f := range []*schema.Field{
		{Name: "id", Type: schema.TypeUUID, PrimaryKey: true},
		{Name: "ref", Type: schema.TypeUUID},
		{Name: "views", Type: schema.TypeBigInt},
		{Name: "attrs", Type: schema.TypeJSON, Nullable: true},
		{Name: "thumb", Type: schema.TypeBlob, Nullable: true},
		{Name: "tags", Type: schema.TypeArray, Nullable: true},
		{Name: "active", Type: schema.TypeBoolean},
	} {
		require.NoError(t, item.AddField(f))
	}
	require.NoError(t, db.AddEntity(item))
	require.NoError(t, db.Link())

	s := load(t, emitter(), db)
	def := s.Types["Item"]
	assert.Equal(t, "ID!", typeOf(t, def, "id"))
	assert.Equal(t, "UUID!", typeOf(t, def, "ref"))
	assert.Equal(t, "Int64!", typeOf(t, def, "views"))
	assert.Equal(t, "Map", typeOf(t, def, "attrs"))
	assert.Equal(t, "Bytes", typeOf(t, def, "thumb"))
	assert.Equal(t, "[String!]", typeOf(t, def, "tags"))
	assert.Equal(t, "Boolean!", typeOf(t, def, "active"))
	for _, name := range []string{ScalarUUID, ScalarInt64, ScalarMap, ScalarBytes} {
		assert.Contains(t, s.Types, name)
	}
}

// =============================================================================
// Root Type Tests
// =============================================================================

func TestEmitter_Query(t *testing.T) {
	s := load(t, emitter(), library(t))
	require.NotNil(t, s.Query)

	book := s.Query.Fields.ForName("book")
	require.NotNil(t, book)
	assert.Equal(t, "Book", book.Type.String())
	assert.Equal(t, "ID!", book.Arguments.ForName("id").Type.String())

	books := s.Query.Fields.ForName("books")
	require.NotNil(t, books)
	assert.Equal(t, "[Book!]!", books.Type.String())
	assert.Equal(t, "Int", books.Arguments.ForName("limit").Type.String())

	bookTag := s.Query.Fields.ForName("bookTag")
	require.NotNil(t, bookTag)
	require.Len(t, bookTag.Arguments, 2)
	assert.Equal(t, "Int!", bookTag.Arguments.ForName("tagID").Type.String())
	assert.NotNil(t, s.Query.Fields.ForName("bookTags"))
}

func TestEmitter_Mutation(t *testing.T) {
	s := load(t, emitter(), library(t))
	require.NotNil(t, s.Mutation)

	create := s.Mutation.Fields.ForName("createBook")
	require.NotNil(t, create)
	assert.Equal(t, "Book!", create.Type.String())
	assert.Equal(t, "CreateBookInput!", create.Arguments.ForName("input").Type.String())

	in := s.Types["CreateBookInput"]
	require.NotNil(t, in)
	assert.Equal(t, ast.InputObject, in.Kind)
	assert.Nil(t, in.Fields.ForName("id"), "auto increment keys are generated")
	assert.Equal(t, "String!", typeOf(t, in, "title"))
	assert.Equal(t, "Float", typeOf(t, in, "price"), "defaults make a column optional")

	update := s.Types["UpdateBookInput"]
	assert.Equal(t, "String", typeOf(t, update, "title"))
	assert.Nil(t, update.Fields.ForName("id"))
	up := s.Mutation.Fields.ForName("updateBook")
	require.NotNil(t, up)
	assert.Equal(t, "ID!", up.Arguments.ForName("id").Type.String())

	del := s.Mutation.Fields.ForName("deleteBook")
	require.NotNil(t, del)
	assert.Equal(t, "Boolean!", del.Type.String())

	assert.Equal(t, "Int!", typeOf(t, s.Types["CreateBookTagInput"], "bookID"))
	assert.Nil(t, s.Mutation.Fields.ForName("updateBookTag"), "nothing to update outside the key")
	assert.NotContains(t, s.Types, "UpdateBookTagInput")
	assert.Len(t, s.Mutation.Fields.ForName("deleteBookTag").Arguments, 2)
}

func TestEmitter_ReadOnly(t *testing.T) {
	db := library(t)
	db.Entity("Tag").ReadOnly = true
	s := load(t, emitter(), db)
	assert.Nil(t, s.Mutation.Fields.ForName("createTag"))
	assert.Nil(t, s.Mutation.Fields.ForName("deleteTag"))
	assert.NotNil(t, s.Query.Fields.ForName("tags"))
}

func TestEmitter_WithoutRoots(t *testing.T) {
	doc, err := emitter(WithoutQueries(), WithoutMutations()).Emit(library(t))
	require.NoError(t, err)
	assert.Nil(t, doc.Definitions.ForName("Query"))
	assert.Nil(t, doc.Definitions.ForName("Mutation"))
	assert.Nil(t, doc.Definitions.ForName("CreateBookInput"))
	assert.NotNil(t, doc.Definitions.ForName("Book"))
}

// =============================================================================
// Annotation Tests
// =============================================================================

func TestParseSkipMode(t *testing.T) {
	m, err := ParseSkipMode("query, delete")
	require.NoError(t, err)
	assert.True(t, m.Is(SkipQuery))
	assert.True(t, m.Is(SkipMutationDelete))
	assert.False(t, m.Is(SkipMutations))

	m, err = ParseSkipMode("mutations")
	require.NoError(t, err)
	assert.True(t, m.Is(SkipMutationCreate|SkipMutationUpdate))

	m, err = ParseSkipMode("")
	require.NoError(t, err)
	assert.Zero(t, m)

	_, err = ParseSkipMode("query,everything")
	assert.True(t, propel.IsInvalidArgumentError(err))
}

func TestEmitter_Annotations(t *testing.T) {
	db := library(t)
	db.Entity("Tag").Vendors = append(db.Entity("Tag").Vendors, &schema.Vendor{
		Type:       VendorType,
		Parameters: map[string]string{"skip": "query,delete", "name": "Label"},
	})
	author := db.Entity("Author")
	author.Field("name").Vendors = []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"name": "fullName"}}}
	author.Field("bio").Vendors = []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"skip": "true"}}}
	isbn := &schema.Field{Name: "isbn", Type: schema.TypeVarchar, Size: 13, Vendors: []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"type": "ISBN!"}}}}
	require.NoError(t, db.Entity("Book").AddField(isbn))

	s := load(t, emitter(), db)

	assert.NotContains(t, s.Types, "Tag")
	assert.Equal(t, "[Label!]!", typeOf(t, s.Types["Book"], "tags"))
	assert.Nil(t, s.Query.Fields.ForName("label"))
	assert.Nil(t, s.Mutation.Fields.ForName("deleteLabel"))
	assert.NotNil(t, s.Mutation.Fields.ForName("createLabel"))

	assert.Equal(t, "String!", typeOf(t, s.Types["Author"], "fullName"))
	assert.Nil(t, s.Types["Author"].Fields.ForName("bio"))
	assert.Equal(t, "ISBN!", typeOf(t, s.Types["Book"], "isbn"))
	assert.Equal(t, ast.Scalar, s.Types["ISBN"].Kind)
}

func TestEmitter_SkipType(t *testing.T) {
	db := library(t)
	db.Entity("Author").Vendors = []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"skip": "type"}}}
	s := load(t, emitter(), db)
	assert.NotContains(t, s.Types, "Author")
	assert.Nil(t, s.Types["Book"].Fields.ForName("author"))
	assert.Nil(t, s.Query.Fields.ForName("authors"))
}

func TestEmitter_ModelPackage(t *testing.T) {
	sdl, err := emitter(WithModelPackage("example.com/app/model")).Format(library(t))
	require.NoError(t, err)
	assert.Contains(t, sdl, "directive @goModel(")
	assert.Contains(t, sdl, `@goModel(model: "example.com/app/model.Book")`)

	s, err := Validate("library", sdl)
	require.NoError(t, err)
	d := s.Types["CreateBookInput"].Directives.ForName("goModel")
	require.NotNil(t, d)
	assert.Equal(t, "example.com/app/model.Book", d.Arguments.ForName("model").Value.Raw)
}

// =============================================================================
// Output and Error Tests
// =============================================================================

func TestEmitter_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, emitter().Write(&buf, library(t)))
	assert.Contains(t, buf.String(), "type Book {")
	assert.Contains(t, buf.String(), "enum BookFormat {")
	assert.Contains(t, buf.String(), "scalar Time")

	doc, err := parser.ParseSchema(&ast.Source{Input: buf.String()})
	require.NoError(t, err)
	assert.NotNil(t, doc.Definitions.ForName("Mutation"))
}

func TestEmitter_Errors(t *testing.T) {
	t.Run("type collision", func(t *testing.T) {
		db := library(t)
		db.Entity("Tag").Vendors = []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"name": "Book"}}}
		_, err := emitter().Emit(db)
		require.Error(t, err)
		assert.True(t, propel.IsBuildError(err))
		assert.Contains(t, err.Error(), `"Book"`)
	})
	t.Run("input collision", func(t *testing.T) {
		db := library(t)
		e := schema.NewEntity("CreateBookInput")
		require.NoError(t, e.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true}))
		require.NoError(t, db.AddEntity(e))
		require.NoError(t, db.Link())
		_, err := emitter().Emit(db)
		assert.True(t, propel.IsBuildError(err))
	})
	t.Run("enum collision", func(t *testing.T) {
		db := library(t)
		db.Entity("Book").Field("format").ValueSet = []string{"e book", "e-book"}
		_, err := emitter().Emit(db)
		assert.True(t, propel.IsBuildError(err))
	})
	t.Run("bad skip", func(t *testing.T) {
		db := library(t)
		db.Entity("Book").Vendors = []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"skip": "sometimes"}}}
		_, err := emitter().Emit(db)
		assert.True(t, propel.IsInvalidArgumentError(err))
	})
	t.Run("bad type", func(t *testing.T) {
		db := library(t)
		db.Entity("Book").Field("title").Vendors = []*schema.Vendor{{Type: VendorType, Parameters: map[string]string{"type": "[String"}}}
		_, err := emitter().Emit(db)
		assert.True(t, propel.IsInvalidArgumentError(err))
	})
	t.Run("relation names", func(t *testing.T) {
		db := library(t)
		require.NoError(t, db.Entity("Book").AddRelation(&schema.Relation{Target: "Author", References: []*schema.Reference{{Local: "authorId", Foreign: "id"}}}))
		require.NoError(t, db.Link())
		_, err := emitter().Emit(db)
		assert.True(t, propel.IsBuildError(err))
	})
	t.Run("invalid sdl", func(t *testing.T) {
		_, err := Validate("broken", "type Query { book: Missing }")
		require.Error(t, err)
		assert.True(t, propel.IsBuildError(err))
	})
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]string{
		"String":     "String",
		"Email!":     "Email!",
		"[Int]":      "[Int]",
		"[String!]!": "[String!]!",
	} {
		typ, err := parseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, typ.String())
	}
	for _, in := range []string{"", "!", "[Int", "1abc", "a-b"} {
		_, err := parseType(in)
		assert.Error(t, err, in)
	}
}
