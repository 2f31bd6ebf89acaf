package platform

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel"
	dsql "github.com/syssam/propel/dialect/sql"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// library returns a linked author/book database. Book carries a unique and a
// plain index on title and a cascading foreign key to author.
func library(t *testing.T) *model.Database {
	t.Helper()
	db := model.NewDatabase("library")
	author := model.NewEntity("Author")
	require.NoError(t, author.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, author.AddField(&model.Field{Name: "name", Type: model.TypeVarchar, Size: 128}))
	book := model.NewEntity("Book")
	require.NoError(t, book.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	require.NoError(t, book.AddField(&model.Field{Name: "title", Type: model.TypeVarchar, Size: 255}))
	require.NoError(t, book.AddField(&model.Field{Name: "isbn", Type: model.TypeVarchar, Size: 24, Nullable: true}))
	require.NoError(t, book.AddField(&model.Field{Name: "authorId", Type: model.TypeInteger, Nullable: true}))
	require.NoError(t, book.AddIndex(model.NewUnique("title")))
	require.NoError(t, book.AddIndex(model.NewIndex("title")))
	require.NoError(t, book.AddRelation(&model.Relation{
		Target:     "Author",
		OnDelete:   model.ActionCascade,
		References: []*model.Reference{{Local: "authorId", Foreign: "id"}},
	}))
	require.NoError(t, db.AddEntity(author))
	require.NoError(t, db.AddEntity(book))
	require.NoError(t, db.Link())
	return db
}

func bookDiff(t *testing.T, from, to *model.Database) *schema.EntityDiff {
	t.Helper()
	d, changed := schema.CompareEntities(from.Entity("Book"), to.Entity("Book"))
	require.True(t, changed)
	return d
}

// =============================================================================
// Registry
// =============================================================================

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mysql", "mysql"},
		{"MariaDB", "mysql"},
		{"postgres", "pgsql"},
		{"sqlite3", "sqlite"},
		{"oracle", "oracle"},
		{"sqlserver", "mssql"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestByName_Unknown(t *testing.T) {
	_, err := ByName("db2")
	require.Error(t, err)
	assert.True(t, propel.IsInvalidArgumentError(err))
	assert.Contains(t, err.Error(), `unknown platform "db2"`)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"mssql", "mysql", "oracle", "pgsql", "sqlite"}, Names())
}

// =============================================================================
// Quoting and types
// =============================================================================

func TestQuote(t *testing.T) {
	tests := []struct {
		p    Platform
		in   string
		want string
	}{
		{NewMySQL(), "book", "`book`"},
		{NewMySQL(), "shop.book", "`shop`.`book`"},
		{NewPostgreSQL(), `we"ird`, `"we""ird"`},
		{NewSQLite(), "book", `"book"`},
		{NewMSSQL(), "a]b", "[a]]b]"},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name()+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Quote(tt.in))
		})
	}
}

func TestNativeType(t *testing.T) {
	decimal := &model.Field{Name: "price", Type: model.TypeDecimal, Size: 10, Scale: 2}
	varchar := &model.Field{Name: "title", Type: model.TypeVarchar}
	enum := &model.Field{Name: "state", Type: model.TypeEnum, ValueSet: []string{"draft", "published"}}
	override := &model.Field{Name: "geo", Type: model.TypeVarchar, Vendors: []*model.Vendor{
		{Type: "mysql", Parameters: map[string]string{"sqlType": "POINT"}},
	}}

	tests := []struct {
		name string
		p    Platform
		f    *model.Field
		want string
	}{
		{"mysql decimal", NewMySQL(), decimal, "DECIMAL(10,2)"},
		{"mysql default size", NewMySQL(), varchar, "VARCHAR(255)"},
		{"mysql enum", NewMySQL(), enum, "ENUM('draft','published')"},
		{"mysql vendor override", NewMySQL(), override, "POINT"},
		{"pgsql vendor mismatch", NewPostgreSQL(), override, "VARCHAR(255)"},
		{"pgsql enum", NewPostgreSQL(), enum, "VARCHAR(9)"},
		{"pgsql decimal", NewPostgreSQL(), decimal, "NUMERIC(10,2)"},
		{"oracle varchar", NewOracle(), varchar, "NVARCHAR2(255)"},
		{"mssql boolean", NewMSSQL(), &model.Field{Type: model.TypeBoolean}, "BIT"},
		{"sqlite uuid", NewSQLite(), &model.Field{Type: model.TypeUUID}, "CHAR(36)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.NativeType(tt.f))
		})
	}
}

func TestColumnDDL_Defaults(t *testing.T) {
	mysql := NewMySQL()
	tests := []struct {
		name string
		f    *model.Field
		want string
	}{
		{"string", &model.Field{Name: "title", Type: model.TypeVarchar, Size: 10, Default: ptr("it's")}, "`title` VARCHAR(10) DEFAULT 'it''s' NOT NULL"},
		{"number", &model.Field{Name: "count", Type: model.TypeInteger, Default: ptr("0")}, "`count` INTEGER DEFAULT 0 NOT NULL"},
		{"boolean", &model.Field{Name: "active", Type: model.TypeBoolean, Default: ptr("true")}, "`active` TINYINT(1) DEFAULT 1 NOT NULL"},
		{"expression", &model.Field{Name: "createdAt", Type: model.TypeTimestamp, Nullable: true, Default: ptr("CURRENT_TIMESTAMP")}, "`created_at` DATETIME DEFAULT CURRENT_TIMESTAMP"},
		{"comment", &model.Field{Name: "note", Type: model.TypeLongVarchar, Nullable: true, Description: "free text"}, "`note` TEXT COMMENT 'free text'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mysql.ColumnDDL(tt.f))
		})
	}
	assert.Equal(t, `"active" BOOLEAN DEFAULT true NOT NULL`,
		NewPostgreSQL().ColumnDDL(&model.Field{Name: "active", Type: model.TypeBoolean, Default: ptr("1")}))
}

func ptr(s string) *string { return &s }

func TestIdentifier_Truncation(t *testing.T) {
	p := NewOracle()
	long := strings.Repeat("a", 40)
	got := p.identifier(long)
	assert.Len(t, got, 30)
	assert.Equal(t, got, p.identifier(long))
	assert.NotEqual(t, got, p.identifier(strings.Repeat("a", 39)+"b"))
	assert.Equal(t, "short", p.identifier("short"))
}

// =============================================================================
// CREATE TABLE
// =============================================================================

func TestMySQL_AddEntitiesDDL(t *testing.T) {
	db := library(t)
	book := db.Entity("Book")
	want := fmt.Sprintf(`
# This is a fix for InnoDB in MySQL >= 4.1.x
# It "suspends judgement" for fkey relationships until are tables are set.
SET FOREIGN_KEY_CHECKS = 0;

-- ---------------------------------------------------------------------
-- author
-- ---------------------------------------------------------------------

DROP TABLE IF EXISTS `+"`author`"+`;

CREATE TABLE `+"`author`"+`
(
    `+"`id`"+` INTEGER NOT NULL AUTO_INCREMENT,
    `+"`name`"+` VARCHAR(128) NOT NULL,
    PRIMARY KEY (`+"`id`"+`)
) ENGINE=InnoDB;

-- ---------------------------------------------------------------------
-- book
-- ---------------------------------------------------------------------

DROP TABLE IF EXISTS `+"`book`"+`;

CREATE TABLE `+"`book`"+`
(
    `+"`id`"+` INTEGER NOT NULL AUTO_INCREMENT,
    `+"`title`"+` VARCHAR(255) NOT NULL,
    `+"`isbn`"+` VARCHAR(24),
    `+"`author_id`"+` INTEGER,
    PRIMARY KEY (`+"`id`"+`),
    UNIQUE INDEX `+"`%s`"+` (`+"`title`"+`),
    INDEX `+"`%s`"+` (`+"`title`"+`),
    CONSTRAINT `+"`%s`"+`
        FOREIGN KEY (`+"`author_id`"+`)
        REFERENCES `+"`author`"+` (`+"`id`"+`)
        ON DELETE CASCADE
) ENGINE=InnoDB;

# This restores the fkey checks, after having unset them earlier
SET FOREIGN_KEY_CHECKS = 1;
`, book.Uniques[0].IndexName(), book.Indices[0].IndexName(), book.Relations[0].ConstraintName())

	assert.Equal(t, want, NewMySQL().AddEntitiesDDL(db))
}

func TestMySQL_TableOptions(t *testing.T) {
	db := library(t)
	db.Vendors = []*model.Vendor{{Type: "mysql", Parameters: map[string]string{"Charset": "utf8mb4"}}}
	author := db.Entity("Author")
	author.Vendors = []*model.Vendor{{Type: "mysql", Parameters: map[string]string{"Engine": "MyISAM"}}}
	author.Description = "Book authors"

	ddl := NewMySQL().AddEntityDDL(author)
	assert.True(t, strings.HasSuffix(ddl, ") ENGINE=MyISAM CHARACTER SET='utf8mb4' COMMENT='Book authors';\n"), ddl)
}

func TestPostgreSQL_AddEntitiesDDL(t *testing.T) {
	db := library(t)
	book := db.Entity("Book")
	fk := book.Relations[0].ConstraintName()
	ddl := NewPostgreSQL().AddEntitiesDDL(db)

	assert.Contains(t, ddl, "\nDROP TABLE IF EXISTS \"book\" CASCADE;\n")
	assert.Contains(t, ddl, `
CREATE TABLE "book"
(
    "id" SERIAL NOT NULL,
    "title" VARCHAR(255) NOT NULL,
    "isbn" VARCHAR(24),
    "author_id" INTEGER,
    PRIMARY KEY ("id")
);
`)
	assert.Contains(t, ddl, fmt.Sprintf("\nCREATE UNIQUE INDEX \"%s\" ON \"book\" (\"title\");\n", book.Uniques[0].IndexName()))
	assert.Contains(t, ddl, fmt.Sprintf("\nCREATE INDEX \"%s\" ON \"book\" (\"title\");\n", book.Indices[0].IndexName()))

	addFK := fmt.Sprintf("\nALTER TABLE \"book\" ADD CONSTRAINT \"%s\"\n    FOREIGN KEY (\"author_id\")\n    REFERENCES \"author\" (\"id\")\n    ON DELETE CASCADE;\n", fk)
	require.Contains(t, ddl, addFK)
	assert.Greater(t, strings.Index(ddl, addFK), strings.Index(ddl, `CREATE TABLE "book"`))
}

func TestSQLite_AddEntityDDL(t *testing.T) {
	db := library(t)
	book := db.Entity("Book")
	ddl := NewSQLite().AddEntityDDL(book)
	assert.Contains(t, ddl, fmt.Sprintf(`
CREATE TABLE "book"
(
    "id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
    "title" VARCHAR(255) NOT NULL,
    "isbn" VARCHAR(24),
    "author_id" INTEGER,
    CONSTRAINT "%s"
        FOREIGN KEY ("author_id")
        REFERENCES "author" ("id")
        ON DELETE CASCADE
);
`, book.Relations[0].ConstraintName()))
	assert.NotContains(t, ddl, "PRIMARY KEY (")
}

func TestOracle_AddEntityDDL(t *testing.T) {
	db := library(t)
	p := NewOracle()
	author := db.Entity("Author")
	ddl := p.AddEntityDDL(author)
	assert.Contains(t, ddl, `CONSTRAINT "author_pk" PRIMARY KEY ("id")`)
	assert.Contains(t, ddl, "\nCREATE SEQUENCE \"author_SEQ\"\n")
	assert.NotContains(t, ddl, "ON UPDATE")
	assert.Equal(t, `SELECT "author_SEQ".NEXTVAL FROM DUAL`, p.SequenceSQL(author))
	assert.Contains(t, p.DropEntityDDL(author), "\nDROP SEQUENCE \"author_SEQ\";\n")

	author.IDMethod = model.IDMethodNone
	assert.NotContains(t, p.AddEntityDDL(author), "SEQUENCE")
}

func TestMSSQL_AddEntityDDL(t *testing.T) {
	db := library(t)
	p := NewMSSQL()
	ddl := p.AddEntityDDL(db.Entity("Author"))
	assert.Contains(t, ddl, "[id] INT NOT NULL IDENTITY")
	assert.Contains(t, ddl, "CONSTRAINT [author_pk] PRIMARY KEY ([id])")
	assert.Equal(t, "\nIF OBJECT_ID('author', 'U') IS NOT NULL\n    DROP TABLE [author];\n", p.DropEntityDDL(db.Entity("Author")))
}

// =============================================================================
// Diffs
// =============================================================================

func TestMySQL_ModifyEntityDDL_Order(t *testing.T) {
	from, to := library(t), library(t)
	book := to.Entity("Book")
	require.True(t, book.RemoveField("isbn"))
	require.NoError(t, book.AddField(&model.Field{Name: "price", Type: model.TypeDecimal, Size: 10, Scale: 2, Nullable: true}))
	book.Indices[0].Name = "book_title"

	old := from.Entity("Book").Indices[0].IndexName()
	want := "\nDROP INDEX `" + old + "` ON `book`;\n" +
		"\nALTER TABLE `book` ADD `price` DECIMAL(10,2);\n" +
		"\nALTER TABLE `book` DROP `isbn`;\n" +
		"\nCREATE INDEX `book_title` ON `book` (`title`);\n"
	assert.Equal(t, want, NewMySQL().ModifyEntityDDL(bookDiff(t, from, to)))
}

func TestModifyEntityDDL_Keys(t *testing.T) {
	from, to := library(t), library(t)
	to.Entity("Book").Relations[0].OnDelete = model.ActionRestrict
	fk := from.Entity("Book").Relations[0].ConstraintName()

	ddl := NewPostgreSQL().ModifyEntityDDL(bookDiff(t, from, to))
	drop := fmt.Sprintf("\nALTER TABLE \"book\" DROP CONSTRAINT \"%s\";\n", fk)
	add := fmt.Sprintf("\nALTER TABLE \"book\" ADD CONSTRAINT \"%s\"\n    FOREIGN KEY (\"author_id\")\n    REFERENCES \"author\" (\"id\")\n    ON DELETE RESTRICT;\n", fk)
	assert.Equal(t, drop+add, ddl)

	ddl = NewMySQL().ModifyEntityDDL(bookDiff(t, from, to))
	assert.True(t, strings.HasPrefix(ddl, fmt.Sprintf("\nALTER TABLE `book` DROP FOREIGN KEY `%s`;\n", fk)), ddl)
}

func TestModifyEntityDDL_PrimaryKey(t *testing.T) {
	from, to := library(t), library(t)
	to.Entity("Book").Field("isbn").Nullable = false
	to.Entity("Book").Field("isbn").PrimaryKey = true

	ddl := NewPostgreSQL().ModifyEntityDDL(bookDiff(t, from, to))
	dropAt := strings.Index(ddl, `DROP CONSTRAINT "book_pkey"`)
	alterAt := strings.Index(ddl, `ALTER COLUMN "isbn" SET NOT NULL`)
	addAt := strings.Index(ddl, `ADD PRIMARY KEY ("id", "isbn")`)
	require.NotEqual(t, -1, dropAt, ddl)
	require.NotEqual(t, -1, alterAt, ddl)
	require.NotEqual(t, -1, addAt, ddl)
	assert.Less(t, dropAt, alterAt)
	assert.Less(t, alterAt, addAt)
}

func TestPostgreSQL_ModifyColumnDDL(t *testing.T) {
	from, to := library(t), library(t)
	title := to.Entity("Book").Field("title")
	title.Size = 100
	title.Nullable = true
	title.SetDefault("untitled")

	want := "\nALTER TABLE \"book\"\n" +
		"    ALTER COLUMN \"title\" TYPE VARCHAR(100),\n" +
		"    ALTER COLUMN \"title\" DROP NOT NULL,\n" +
		"    ALTER COLUMN \"title\" SET DEFAULT 'untitled';\n"
	assert.Equal(t, want, NewPostgreSQL().ModifyEntityDDL(bookDiff(t, from, to)))
}

func TestModifyColumnDDL_Variants(t *testing.T) {
	from, to := library(t), library(t)
	to.Entity("Book").Field("title").Size = 100
	d := bookDiff(t, from, to).ModifiedFields[0]

	assert.Equal(t, "\nALTER TABLE `book` CHANGE `title` `title` VARCHAR(100) NOT NULL;\n", NewMySQL().ModifyColumnDDL(d))
	assert.Equal(t, "\nALTER TABLE \"book\" MODIFY \"title\" NVARCHAR2(100) NOT NULL;\n", NewOracle().ModifyColumnDDL(d))
	assert.Equal(t, "\nALTER TABLE [book] ALTER COLUMN [title] NVARCHAR(100) NOT NULL;\n", NewMSSQL().ModifyColumnDDL(d))
}

func TestMSSQL_ModifyColumnDDL_Default(t *testing.T) {
	drop := "\nDECLARE @df_book_title NVARCHAR(128)\n" +
		"SELECT @df_book_title = [name] FROM sys.default_constraints\n" +
		"    WHERE [parent_object_id] = OBJECT_ID('book') AND [parent_column_id] = COLUMNPROPERTY(OBJECT_ID('book'), 'title', 'ColumnId')\n" +
		"IF @df_book_title IS NOT NULL EXEC('ALTER TABLE [book] DROP CONSTRAINT [' + @df_book_title + ']');\n"
	alter := "\nALTER TABLE [book] ALTER COLUMN [title] NVARCHAR(100) NOT NULL;\n"
	add := func(v string) string { return "\nALTER TABLE [book] ADD DEFAULT '" + v + "' FOR [title];\n" }

	tests := []struct {
		name   string
		modify func(from, to *model.Field)
		want   string
	}{
		{
			name:   "added",
			modify: func(_, to *model.Field) { to.SetDefault("untitled") },
			want:   add("untitled"),
		},
		{
			name: "changed",
			modify: func(from, to *model.Field) {
				from.SetDefault("untitled")
				to.SetDefault("draft")
			},
			want: drop + add("draft"),
		},
		{
			name:   "removed",
			modify: func(from, _ *model.Field) { from.SetDefault("untitled") },
			want:   drop,
		},
		{
			name: "kept across a type change",
			modify: func(from, to *model.Field) {
				from.SetDefault("untitled")
				to.SetDefault("untitled")
				to.Size = 100
			},
			want: drop + alter + add("untitled"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := library(t), library(t)
			tt.modify(from.Entity("Book").Field("title"), to.Entity("Book").Field("title"))
			d := bookDiff(t, from, to)
			require.Len(t, d.ModifiedFields, 1)
			assert.Equal(t, tt.want, NewMSSQL().ModifyColumnDDL(d.ModifiedFields[0]))
		})
	}
}

func TestRenameColumnDDL_Variants(t *testing.T) {
	from, to := library(t), library(t)
	to.Entity("Book").Field("isbn").Column = "isbn13"
	d := bookDiff(t, from, to)
	require.Len(t, d.RenamedFields, 1)
	fd := d.RenamedFields[0]

	assert.Equal(t, "\nALTER TABLE \"book\" RENAME COLUMN \"isbn\" TO \"isbn13\";\n", NewPostgreSQL().RenameColumnDDL(fd.From, fd.To))
	assert.Equal(t, "\nALTER TABLE `book` CHANGE `isbn` `isbn13` VARCHAR(24);\n", NewMySQL().RenameColumnDDL(fd.From, fd.To))
	assert.Equal(t, "\nEXEC sp_rename 'book.isbn', 'isbn13', 'COLUMN';\n", NewMSSQL().RenameColumnDDL(fd.From, fd.To))
}

func TestSQLite_ModifyEntityDDL_Rebuild(t *testing.T) {
	from, to := library(t), library(t)
	to.Entity("Book").Field("title").Size = 100
	require.True(t, to.Entity("Book").RemoveField("isbn"))

	ddl := NewSQLite().ModifyEntityDDL(bookDiff(t, from, to))
	steps := []string{
		"\nCREATE TEMPORARY TABLE \"book__temp__\" AS SELECT * FROM \"book\";\n",
		"\nDROP TABLE \"book\";\n",
		"\nCREATE TABLE \"book\"\n",
		"\nINSERT INTO \"book\" (\"id\", \"title\", \"author_id\") SELECT \"id\", \"title\", \"author_id\" FROM \"book__temp__\";\n",
		"\nDROP TABLE \"book__temp__\";\n",
	}
	last := -1
	for _, s := range steps {
		at := strings.Index(ddl, s)
		require.NotEqual(t, -1, at, "missing %q in\n%s", s, ddl)
		assert.Greater(t, at, last)
		last = at
	}
}

func TestSQLite_ModifyEntityDDL_InPlace(t *testing.T) {
	from, to := library(t), library(t)
	require.NoError(t, to.Entity("Book").AddField(&model.Field{Name: "summary", Type: model.TypeLongVarchar, Nullable: true}))

	ddl := NewSQLite().ModifyEntityDDL(bookDiff(t, from, to))
	assert.Equal(t, "\nALTER TABLE \"book\" ADD COLUMN \"summary\" TEXT;\n", ddl)
}

func TestModifyDatabaseDDL_Order(t *testing.T) {
	from, to := library(t), library(t)
	tag := model.NewEntity("Tag")
	require.NoError(t, tag.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true}))
	require.NoError(t, from.AddEntity(tag))
	publisher := model.NewEntity("Publisher")
	require.NoError(t, publisher.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true}))
	require.NoError(t, to.AddEntity(publisher))
	require.NoError(t, to.Entity("Book").AddField(&model.Field{Name: "summary", Type: model.TypeLongVarchar, Nullable: true}))

	ddl := NewMySQL().ModifyDatabaseDDL(schema.CompareDatabases(from, to))
	steps := []string{
		"SET FOREIGN_KEY_CHECKS = 0;",
		"\nDROP TABLE IF EXISTS `tag`;\n",
		"\nALTER TABLE `book` ADD `summary` TEXT;\n",
		"\nCREATE TABLE `publisher`\n",
		"SET FOREIGN_KEY_CHECKS = 1;",
	}
	last := -1
	for _, s := range steps {
		at := strings.Index(ddl, s)
		require.NotEqual(t, -1, at, "missing %q in\n%s", s, ddl)
		assert.Greater(t, at, last)
		last = at
	}
}

func TestModifyDatabaseDDL_Rename(t *testing.T) {
	from, to := library(t), library(t)
	to.Entity("Author").TableName = "writer"
	require.NoError(t, to.Link())

	d := schema.CompareDatabases(from, to, schema.WithTableRenameDetection())
	assert.Contains(t, NewMySQL().ModifyDatabaseDDL(d), "\nRENAME TABLE `author` TO `writer`;\n")
	assert.Contains(t, NewPostgreSQL().ModifyDatabaseDDL(d), "\nALTER TABLE \"author\" RENAME TO \"writer\";\n")
	assert.Contains(t, NewMSSQL().ModifyDatabaseDDL(d), "\nEXEC sp_rename 'author', 'writer';\n")
}

func TestModifyDatabaseDDL_Empty(t *testing.T) {
	for _, name := range Names() {
		p, err := ByName(name)
		require.NoError(t, err)
		assert.Empty(t, p.ModifyDatabaseDDL(schema.CompareDatabases(library(t), library(t))), name)
	}
}

// =============================================================================
// SQL fragments
// =============================================================================

func TestInsertSQL(t *testing.T) {
	author := library(t).Entity("Author")
	tests := []struct {
		p    Platform
		want string
	}{
		{NewMySQL(), "INSERT INTO `author` (`name`) VALUES (?)"},
		{NewPostgreSQL(), `INSERT INTO "author" ("name") VALUES ($1) RETURNING "id"`},
		{NewSQLite(), `INSERT INTO "author" ("name") VALUES (?)`},
		{NewOracle(), `INSERT INTO "author" ("id", "name") VALUES (:1, :2)`},
		{NewMSSQL(), "INSERT INTO [author] ([name]) OUTPUT INSERTED.[id] VALUES (@p1)"},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.InsertSQL(author))
		})
	}
}

func TestInsertSQL_OnlyKey(t *testing.T) {
	e := model.NewEntity("Counter")
	require.NoError(t, e.AddField(&model.Field{Name: "id", Type: model.TypeInteger, PrimaryKey: true, AutoIncrement: true}))
	assert.Equal(t, "INSERT INTO `counter` () VALUES ()", NewMySQL().InsertSQL(e))
	assert.Equal(t, `INSERT INTO "counter" DEFAULT VALUES RETURNING "id"`, NewPostgreSQL().InsertSQL(e))
	assert.Equal(t, "INSERT INTO [counter] OUTPUT INSERTED.[id] DEFAULT VALUES", NewMSSQL().InsertSQL(e))
}

func TestUpdateSelectDeleteSQL(t *testing.T) {
	author := library(t).Entity("Author")
	p := NewPostgreSQL()
	assert.Equal(t, `UPDATE "author" SET "name" = $1 WHERE "id" = $2`, p.UpdateSQL(author))
	assert.Equal(t, `SELECT "id", "name" FROM "author" WHERE "id" = $1`, p.SelectByPKSQL(author))
	del, err := p.DeleteSQL(author)
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "author" WHERE "id" = $1`, del)
}

func TestDeleteSQL_ReadOnly(t *testing.T) {
	author := library(t).Entity("Author")
	author.ReadOnly = true
	for _, name := range Names() {
		p, err := ByName(name)
		require.NoError(t, err)
		q, err := p.DeleteSQL(author)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrReadOnlyEntity)
		assert.Contains(t, err.Error(), "cannot delete read-only entity Author")
		assert.Empty(t, q)
	}
}

func TestDeleteSQL_NoPrimaryKey(t *testing.T) {
	e := model.NewEntity("Log")
	require.NoError(t, e.AddField(&model.Field{Name: "line", Type: model.TypeLongVarchar}))
	_, err := NewMySQL().DeleteSQL(e)
	require.Error(t, err)
	assert.True(t, propel.IsBuildError(err))
	assert.Empty(t, NewMySQL().SelectByPKSQL(e))
	assert.Empty(t, NewMySQL().UpdateSQL(e))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", NewMySQL().Placeholder(3))
	assert.Equal(t, "$3", NewPostgreSQL().Placeholder(3))
	assert.Equal(t, ":3", NewOracle().Placeholder(3))
	assert.Equal(t, "@p3", NewMSSQL().Placeholder(3))
	assert.Equal(t, Sequence, NewOracle().IDStrategy())
	assert.Equal(t, Returning, NewPostgreSQL().IDStrategy())
	assert.Equal(t, LastInsertID, NewSQLite().IDStrategy())
}

// =============================================================================
// Detect
// =============================================================================

func TestDetect_Driver(t *testing.T) {
	tests := []struct {
		driver string
		source string
		want   string
	}{
		{"mysql", "root@tcp(127.0.0.1:3306)/library", "mysql"},
		{"postgres", "postgres://localhost/library?sslmode=disable", "pgsql"},
		{"sqlite", filepath.Join(t.TempDir(), "library.db"), "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			db, err := sql.Open(tt.driver, tt.source)
			require.NoError(t, err)
			defer db.Close()
			p, err := Detect(context.Background(), db)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestDetect_Probe(t *testing.T) {
	failed := fmt.Errorf("syntax error")
	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		want   string
	}{
		{"postgres", func(m sqlmock.Sqlmock) {
			m.ExpectQuery("SELECT version()").WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("PostgreSQL 16.2 on x86_64"))
		}, "pgsql"},
		{"mysql", func(m sqlmock.Sqlmock) {
			m.ExpectQuery("SELECT version()").WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("8.0.36"))
		}, "mysql"},
		{"sqlite", func(m sqlmock.Sqlmock) {
			m.ExpectQuery("SELECT version()").WillReturnError(failed)
			m.ExpectQuery("SELECT sqlite_version()").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("3.45.1"))
		}, "sqlite"},
		{"mssql", func(m sqlmock.Sqlmock) {
			m.ExpectQuery("SELECT version()").WillReturnError(failed)
			m.ExpectQuery("SELECT sqlite_version()").WillReturnError(failed)
			m.ExpectQuery("SELECT @@VERSION").WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("Microsoft SQL Server 2022"))
		}, "mssql"},
		{"oracle", func(m sqlmock.Sqlmock) {
			m.ExpectQuery("SELECT version()").WillReturnError(failed)
			m.ExpectQuery("SELECT sqlite_version()").WillReturnError(failed)
			m.ExpectQuery("SELECT @@VERSION").WillReturnError(failed)
			m.ExpectQuery("SELECT banner FROM v$version").WillReturnRows(sqlmock.NewRows([]string{"banner"}).AddRow("Oracle Database 19c"))
		}, "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer db.Close()
			tt.expect(mock)

			p, err := Detect(context.Background(), db)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDetect_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	for _, q := range []string{"SELECT version()", "SELECT sqlite_version()", "SELECT @@VERSION", "SELECT banner FROM v$version"} {
		mock.ExpectQuery(q).WillReturnError(fmt.Errorf("nope"))
	}
	_, err = Detect(context.Background(), db)
	require.Error(t, err)
	assert.True(t, propel.IsInvalidArgumentError(err))
}

// =============================================================================
// SQLite execution
// =============================================================================

func TestSQLite_Apply(t *testing.T) {
	ctx := context.Background()
	drv, err := dsql.Open("sqlite", filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	defer drv.Close()

	p := NewSQLite()
	from := library(t)
	require.NoError(t, drv.Apply(ctx, p.AddEntitiesDDL(from)))
	require.NoError(t, drv.Apply(ctx, `INSERT INTO "author" ("name") VALUES ('Le Guin');
INSERT INTO "book" ("title", "isbn", "author_id") VALUES ('The Dispossessed', '978-0060512750', 1);`))

	to := library(t)
	to.Entity("Book").Field("title").Size = 100
	require.True(t, to.Entity("Book").RemoveField("isbn"))
	require.NoError(t, to.Entity("Book").AddField(&model.Field{Name: "summary", Type: model.TypeLongVarchar, Nullable: true}))
	require.NoError(t, drv.Apply(ctx, p.ModifyDatabaseDDL(schema.CompareDatabases(from, to))))

	var title string
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT "title" FROM "book" WHERE "id" = 1`).Scan(&title))
	assert.Equal(t, "The Dispossessed", title)

	rows, err := drv.DB().QueryContext(ctx, `SELECT name FROM pragma_table_info('book')`)
	require.NoError(t, err)
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		require.NoError(t, rows.Scan(&c))
		cols = append(cols, c)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id", "title", "author_id", "summary"}, cols)
	assert.Positive(t, drv.Stats().Snapshot().Statements)
}
