package platform

import (
	"fmt"
	"strings"

	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// SQLite renders DDL for SQLite 3. Foreign keys live inside CREATE TABLE,
// and alterations SQLite cannot express rebuild the table.
type SQLite struct {
	common
}

// NewSQLite returns the SQLite platform.
func NewSQLite() *SQLite {
	p := &SQLite{}
	p.common = common{self: p, settings: settings{
		name:          dialect.SQLite,
		open:          `"`,
		close:         `"`,
		maxIdent:      1024,
		autoIncrement: "AUTOINCREMENT",
		types: map[model.FieldType]typeDef{
			model.TypeBoolean:     {name: "BOOLEAN"},
			model.TypeTinyInt:     {name: "TINYINT"},
			model.TypeSmallInt:    {name: "SMALLINT"},
			model.TypeInteger:     {name: "INTEGER"},
			model.TypeBigInt:      {name: "BIGINT"},
			model.TypeFloat:       {name: "FLOAT"},
			model.TypeDouble:      {name: "DOUBLE"},
			model.TypeDecimal:     {name: "DECIMAL", sized: true},
			model.TypeChar:        {name: "CHAR", sized: true, defaultSize: 1},
			model.TypeVarchar:     {name: "VARCHAR", sized: true, defaultSize: 255},
			model.TypeLongVarchar: {name: "TEXT"},
			model.TypeClob:        {name: "TEXT"},
			model.TypeBlob:        {name: "BLOB"},
			model.TypeDate:        {name: "DATE"},
			model.TypeTime:        {name: "TIME"},
			model.TypeTimestamp:   {name: "TIMESTAMP"},
			model.TypeEnum:        {name: "VARCHAR", sized: true},
			model.TypeArray:       {name: "TEXT"},
			model.TypeObject:      {name: "BLOB"},
			model.TypeJSON:        {name: "TEXT"},
			model.TypeUUID:        {name: "CHAR(36)"},
		},
		boolTrue:     "1",
		boolFalse:    "0",
		placeholder:  questionMark,
		ids:          LastInsertID,
		addColumn:    "ADD COLUMN",
		dropColumn:   "DROP COLUMN",
		inlineFKs:    true,
		inlineAutoPK: true,
	}}
	return p
}

// BeginDDL implements Platform.
func (p *SQLite) BeginDDL() string {
	return "\nPRAGMA foreign_keys = OFF;\n"
}

// EndDDL implements Platform.
func (p *SQLite) EndDDL() string {
	return "\nPRAGMA foreign_keys = ON;\n"
}

// ColumnDDL implements Platform. A single auto-increment key is declared on
// its column, as SQLite requires.
func (p *SQLite) ColumnDDL(f *model.Field) string {
	if e := f.Entity(); e != nil && autoIncrementKey(e) == f {
		return p.Quote(f.ColumnName()) + " INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT"
	}
	if f.AutoIncrement {
		c := *f
		c.AutoIncrement = false
		return p.common.ColumnDDL(&c)
	}
	return p.common.ColumnDDL(f)
}

// AddForeignKeyDDL implements Platform. SQLite cannot add constraints to an
// existing table; ModifyEntityDDL rebuilds the table instead.
func (p *SQLite) AddForeignKeyDDL(*model.Relation) string { return "" }

// DropForeignKeyDDL implements Platform. See AddForeignKeyDDL.
func (p *SQLite) DropForeignKeyDDL(*model.Relation) string { return "" }

// AddPrimaryKeyDDL implements Platform. See AddForeignKeyDDL.
func (p *SQLite) AddPrimaryKeyDDL(*model.Entity) string { return "" }

// DropPrimaryKeyDDL implements Platform. See AddForeignKeyDDL.
func (p *SQLite) DropPrimaryKeyDDL(*model.Entity) string { return "" }

// ModifyEntityDDL implements Platform. Renames, added nullable or defaulted
// columns and index changes are altered in place; everything else copies the
// rows aside, recreates the table and copies them back.
func (p *SQLite) ModifyEntityDDL(d *schema.EntityDiff) string {
	if !needsRebuild(d) {
		return p.common.ModifyEntityDDL(d)
	}
	// Renames run before alterations, so the table already has its new name.
	table := d.To.Table()
	tmp := table + "__temp__"
	var b strings.Builder
	fmt.Fprintf(&b, "\nCREATE TEMPORARY TABLE %s AS SELECT * FROM %s;\n", p.Quote(tmp), p.Quote(table))
	fmt.Fprintf(&b, "\nDROP TABLE %s;\n", p.Quote(table))
	b.WriteString(p.AddEntityDDL(d.To))
	if src, dst := copyColumns(d); len(dst) > 0 {
		fmt.Fprintf(&b, "\nINSERT INTO %s (%s) SELECT %s FROM %s;\n", p.Quote(table), p.quoteAll(dst), p.quoteAll(src), p.Quote(tmp))
	}
	fmt.Fprintf(&b, "\nDROP TABLE %s;\n", p.Quote(tmp))
	return b.String()
}

func needsRebuild(d *schema.EntityDiff) bool {
	if len(d.ModifiedFields) > 0 || len(d.RemovedFields) > 0 || d.PKChanged ||
		len(d.AddedRelations) > 0 || len(d.RemovedRelations) > 0 || len(d.ModifiedRelations) > 0 {
		return true
	}
	for _, f := range d.AddedFields {
		if f.PrimaryKey || f.AutoIncrement || (f.NotNull() && !f.HasDefault()) {
			return true
		}
	}
	return false
}

// copyColumns pairs the old column of every kept field with its new column.
func copyColumns(d *schema.EntityDiff) (src, dst []string) {
	renamed := make(map[*model.Field]*model.Field, len(d.RenamedFields))
	for _, fd := range d.RenamedFields {
		renamed[fd.To] = fd.From
	}
	added := make(map[*model.Field]bool, len(d.AddedFields))
	for _, f := range d.AddedFields {
		added[f] = true
	}
	for _, f := range d.To.Fields {
		if added[f] {
			continue
		}
		old := renamed[f]
		if old == nil {
			old = d.From.Field(f.Name)
		}
		if old == nil {
			old = d.From.FieldByColumn(f.ColumnName())
		}
		if old != nil {
			src = append(src, old.ColumnName())
			dst = append(dst, f.ColumnName())
		}
	}
	return src, dst
}
