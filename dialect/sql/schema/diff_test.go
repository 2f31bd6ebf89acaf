package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/syssam/propel/schema"
)

func strPtr(s string) *string { return &s }

// bookstore returns a linked two-entity database. Each call returns a fresh
// copy so tests can mutate one side of a diff.
func bookstore(t *testing.T) *model.Database {
	t.Helper()
	db := model.NewDatabase("bookstore")
	author := model.NewEntity("Author")
	require.NoError(t, author.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, author.AddField(&model.Field{Name: "name", Type: model.TypeVarchar, Size: 128}))
	book := model.NewEntity("Book")
	require.NoError(t, book.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, book.AddField(&model.Field{Name: "title", Type: model.TypeVarchar, Size: 255}))
	require.NoError(t, book.AddField(&model.Field{Name: "isbn", Type: model.TypeVarchar, Size: 24, Nullable: true}))
	require.NoError(t, book.AddField(&model.Field{Name: "authorId", Type: model.TypeInteger, Nullable: true}))
	require.NoError(t, book.AddIndex(model.NewIndex("title")))
	require.NoError(t, book.AddRelation(&model.Relation{
		Target:     "Author",
		OnDelete:   model.ActionSetNull,
		References: []*model.Reference{{Local: "authorId", Foreign: "id"}},
	}))
	require.NoError(t, db.AddEntity(author))
	require.NoError(t, db.AddEntity(book))
	require.NoError(t, db.Link())
	return db
}

// =============================================================================
// CompareEntities
// =============================================================================

func TestCompareEntities_Identical(t *testing.T) {
	a, b := bookstore(t), bookstore(t)
	d, changed := CompareEntities(a.Entity("Book"), b.Entity("Book"))
	assert.False(t, changed)
	assert.True(t, d.IsEmpty())
}

func TestCompareEntities_Fields(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	book := to.Entity("Book")
	require.True(t, book.RemoveField("isbn"))
	require.NoError(t, book.AddField(&model.Field{Name: "price", Type: model.TypeDecimal, Size: 10, Scale: 2}))
	book.Field("title").Size = 100
	book.Field("title").SetDefault("untitled")

	d, changed := CompareEntities(from.Entity("Book"), book)
	require.True(t, changed)
	require.Len(t, d.AddedFields, 1)
	assert.Equal(t, "price", d.AddedFields[0].Name)
	require.Len(t, d.RemovedFields, 1)
	assert.Equal(t, "isbn", d.RemovedFields[0].Name)
	require.Len(t, d.ModifiedFields, 1)
	assert.Equal(t, []string{"size", "default"}, d.ModifiedFields[0].Changed)
	assert.False(t, d.PKChanged)
}

func TestCompareEntities_ChangedAttributes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Field)
		want   []string
	}{
		{"type", func(f *model.Field) { f.Type = model.TypeLongVarchar }, []string{"type"}},
		{"nullable", func(f *model.Field) { f.Nullable = true }, []string{"nullable"}},
		{"scale", func(f *model.Field) { f.Scale = 2 }, []string{"scale"}},
		{"auto increment", func(f *model.Field) { f.AutoIncrement = true }, []string{"autoIncrement"}},
		{"default", func(f *model.Field) { f.Default = strPtr("") }, []string{"default"}},
		{"value set", func(f *model.Field) { f.ValueSet = []string{"a"} }, []string{"valueSet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := bookstore(t), bookstore(t)
			tt.mutate(to.Entity("Book").Field("title"))
			d, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
			require.True(t, changed)
			require.Len(t, d.ModifiedFields, 1)
			assert.Equal(t, tt.want, d.ModifiedFields[0].Changed)
		})
	}
}

func TestCompareEntities_ColumnRename(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	to.Entity("Book").Field("isbn").Column = "isbn13"

	d, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
	require.True(t, changed)
	require.Len(t, d.RenamedFields, 1)
	assert.Equal(t, "isbn", d.RenamedFields[0].From.ColumnName())
	assert.Equal(t, "isbn13", d.RenamedFields[0].To.ColumnName())
	assert.Empty(t, d.AddedFields)
	assert.Empty(t, d.RemovedFields)
}

func TestCompareEntities_RenameDetection(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	book := to.Entity("Book")
	require.True(t, book.RemoveField("isbn"))
	require.NoError(t, book.AddField(&model.Field{Name: "code", Type: model.TypeVarchar, Size: 24, Nullable: true}))

	d, _ := CompareEntities(from.Entity("Book"), book)
	assert.Len(t, d.AddedFields, 1)
	assert.Len(t, d.RemovedFields, 1)
	assert.Empty(t, d.RenamedFields)

	d, _ = CompareEntities(from.Entity("Book"), book, WithRenameDetection())
	assert.Empty(t, d.AddedFields)
	assert.Empty(t, d.RemovedFields)
	require.Len(t, d.RenamedFields, 1)
	assert.Equal(t, "isbn", d.RenamedFields[0].From.Name)
	assert.Equal(t, "code", d.RenamedFields[0].To.Name)
}

func TestCompareEntities_PrimaryKey(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	to.Entity("Book").Field("isbn").PrimaryKey = true

	d, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
	require.True(t, changed)
	assert.True(t, d.PKChanged)
}

func TestCompareEntities_Indices(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	book := to.Entity("Book")
	book.Indices[0].Name = "book_title"
	require.NoError(t, book.AddIndex(model.NewUnique("isbn")))

	d, changed := CompareEntities(from.Entity("Book"), book)
	require.True(t, changed)
	require.Len(t, d.AddedIndices, 2)
	assert.True(t, d.AddedIndices[0].Unique)
	require.Len(t, d.RemovedIndices, 1)
	assert.Empty(t, d.ModifiedIndices)
}

func TestCompareEntities_ModifiedIndex(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	from.Entity("Book").Indices[0].Name = "book_lookup"
	idx := to.Entity("Book").Indices[0]
	idx.Name = "book_lookup"
	idx.Columns = append(idx.Columns, model.IndexColumn{Name: "isbn"})

	d, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
	require.True(t, changed)
	require.Len(t, d.ModifiedIndices, 1)
	assert.Equal(t, []string{"title", "isbn"}, d.ModifiedIndices[0].To.ColumnNames())
}

func TestCompareEntities_Relations(t *testing.T) {
	t.Run("action change", func(t *testing.T) {
		from, to := bookstore(t), bookstore(t)
		to.Entity("Book").Relations[0].OnDelete = model.ActionCascade
		d, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
		require.True(t, changed)
		require.Len(t, d.ModifiedRelations, 1)
		assert.Equal(t, model.ActionCascade, d.ModifiedRelations[0].To.OnDelete)
	})
	t.Run("no action is the default", func(t *testing.T) {
		from, to := bookstore(t), bookstore(t)
		from.Entity("Book").Relations[0].OnUpdate = ""
		to.Entity("Book").Relations[0].OnUpdate = "no action"
		_, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
		assert.False(t, changed)
	})
	t.Run("removed", func(t *testing.T) {
		from, to := bookstore(t), bookstore(t)
		to.Entity("Book").Relations = nil
		d, changed := CompareEntities(from.Entity("Book"), to.Entity("Book"))
		require.True(t, changed)
		assert.Len(t, d.RemovedRelations, 1)
	})
}

func TestEntityDiff_Reverse(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	book := to.Entity("Book")
	require.True(t, book.RemoveField("isbn"))
	book.Field("title").Size = 100

	d, _ := CompareEntities(from.Entity("Book"), book)
	r := d.Reverse()
	assert.Same(t, book, r.From)
	require.Len(t, r.AddedFields, 1)
	assert.Equal(t, "isbn", r.AddedFields[0].Name)
	assert.Empty(t, r.RemovedFields)
	require.Len(t, r.ModifiedFields, 1)
	assert.Equal(t, 100, r.ModifiedFields[0].From.Size)
	assert.Equal(t, 255, r.ModifiedFields[0].To.Size)

	back, _ := CompareEntities(book, from.Entity("Book"))
	assert.Equal(t, len(back.AddedFields), len(r.AddedFields))
	assert.Equal(t, len(back.ModifiedFields), len(r.ModifiedFields))
}

// =============================================================================
// CompareDatabases
// =============================================================================

func TestCompareDatabases(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	assert.True(t, CompareDatabases(from, to).IsEmpty())

	publisher := model.NewEntity("Publisher")
	require.NoError(t, publisher.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true}))
	require.NoError(t, to.AddEntity(publisher))
	to.Entity("Book").Field("title").Nullable = true

	d := CompareDatabases(from, to)
	require.False(t, d.IsEmpty())
	require.Len(t, d.Added, 1)
	assert.Equal(t, "Publisher", d.Added[0].Name)
	assert.Empty(t, d.Removed)
	require.Len(t, d.Modified, 1)
	assert.Equal(t, "Book", d.Modified[0].To.Name)

	r := d.Reverse()
	require.Len(t, r.Removed, 1)
	assert.Equal(t, "Publisher", r.Removed[0].Name)
	assert.Empty(t, r.Added)
}

func TestCompareDatabases_TableRename(t *testing.T) {
	from, to := bookstore(t), bookstore(t)
	to.Entity("Author").TableName = "writer"
	require.NoError(t, to.Link())

	d := CompareDatabases(from, to)
	assert.Len(t, d.Added, 1)
	assert.Len(t, d.Removed, 1)
	assert.Empty(t, d.Renamed)

	d = CompareDatabases(from, to, WithTableRenameDetection())
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
	require.Len(t, d.Renamed, 1)
	assert.Equal(t, "author", d.Renamed[0].From.Table())
	assert.Equal(t, "writer", d.Renamed[0].To.Table())

	r := d.Reverse()
	require.Len(t, r.Renamed, 1)
	assert.Equal(t, "writer", r.Renamed[0].From.Table())
}
