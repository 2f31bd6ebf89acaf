package platform

import (
	"fmt"
	"strings"

	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// MySQL renders DDL for MySQL and MariaDB with InnoDB tables. Indices and
// foreign keys are declared inside CREATE TABLE, and bulk alterations
// suspend foreign key checks.
type MySQL struct {
	common
}

// NewMySQL returns the MySQL platform.
func NewMySQL() *MySQL {
	p := &MySQL{}
	p.common = common{self: p, settings: settings{
		name:          dialect.MySQL,
		open:          "`",
		close:         "`",
		maxIdent:      64,
		autoIncrement: "AUTO_INCREMENT",
		types: map[model.FieldType]typeDef{
			model.TypeBoolean:     {name: "TINYINT(1)"},
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
			model.TypeClob:        {name: "LONGTEXT"},
			model.TypeBlob:        {name: "BLOB"},
			model.TypeDate:        {name: "DATE"},
			model.TypeTime:        {name: "TIME"},
			model.TypeTimestamp:   {name: "DATETIME"},
			model.TypeArray:       {name: "TEXT"},
			model.TypeObject:      {name: "BLOB"},
			model.TypeJSON:        {name: "JSON"},
			model.TypeUUID:        {name: "BINARY(16)"},
		},
		boolTrue:      "1",
		boolFalse:     "0",
		placeholder:   questionMark,
		ids:           LastInsertID,
		deleteTrigger: true,
		indexSize:     true,
		addColumn:     "ADD",
		dropColumn:    "DROP",
		inlineFKs:     true,
	}}
	return p
}

// BeginDDL implements Platform.
func (p *MySQL) BeginDDL() string {
	return `
# This is a fix for InnoDB in MySQL >= 4.1.x
# It "suspends judgement" for fkey relationships until are tables are set.
SET FOREIGN_KEY_CHECKS = 0;
`
}

// EndDDL implements Platform.
func (p *MySQL) EndDDL() string {
	return `
# This restores the fkey checks, after having unset them earlier
SET FOREIGN_KEY_CHECKS = 1;
`
}

// NativeType implements Platform. ENUM fields map to a native ENUM.
func (p *MySQL) NativeType(f *model.Field) string {
	if f.Type == model.TypeEnum && f.Vendor(p.name).Parameter("sqlType") == "" {
		vs := make([]string, len(f.ValueSet))
		for i, v := range f.ValueSet {
			vs[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return "ENUM(" + strings.Join(vs, ",") + ")"
	}
	return p.common.NativeType(f)
}

// ColumnDDL implements Platform. Descriptions become column comments.
func (p *MySQL) ColumnDDL(f *model.Field) string {
	ddl := p.common.ColumnDDL(f)
	if f.Description != "" {
		ddl += " COMMENT " + p.text(f.Description)
	}
	return ddl
}

func (p *MySQL) text(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

// tableOptions renders the engine, charset, collation and comment of e,
// reading the entity vendor block and then the database one.
func (p *MySQL) tableOptions(e *model.Entity) string {
	param := func(name string) string {
		if v := e.Vendor(p.name).Parameter(name); v != "" {
			return v
		}
		if db := e.Database(); db != nil {
			return db.Vendor(p.name).Parameter(name)
		}
		return ""
	}
	engine := param("Engine")
	if engine == "" {
		engine = "InnoDB"
	}
	opts := " ENGINE=" + engine
	if cs := param("Charset"); cs != "" {
		opts += " CHARACTER SET='" + cs + "'"
	}
	if co := param("Collate"); co != "" {
		opts += " COLLATE='" + co + "'"
	}
	if e.Description != "" {
		opts += " COMMENT=" + p.text(e.Description)
	}
	return opts
}

// AddEntityDDL implements Platform. The block lists columns, the primary
// key, uniques, indices and foreign keys, in that order.
func (p *MySQL) AddEntityDDL(e *model.Entity) string {
	lines := make([]string, 0, len(e.Fields)+1+len(e.Uniques)+len(e.Indices)+len(e.Relations))
	for _, f := range e.Fields {
		lines = append(lines, p.ColumnDDL(f))
	}
	if e.HasPrimaryKey() {
		lines = append(lines, p.primaryKeyDDL(e))
	}
	for _, idx := range e.Uniques {
		lines = append(lines, "UNIQUE INDEX "+p.indexName(idx)+" ("+p.indexColumns(idx)+")")
	}
	for _, idx := range e.Indices {
		lines = append(lines, "INDEX "+p.indexName(idx)+" ("+p.indexColumns(idx)+")")
	}
	for _, r := range e.Relations {
		lines = append(lines, indent(p.foreignKeyDDL(r)))
	}
	return p.createTable(e, lines, p.tableOptions(e))
}

// DropEntityDDL implements Platform.
func (p *MySQL) DropEntityDDL(e *model.Entity) string {
	return fmt.Sprintf("\nDROP TABLE IF EXISTS %s;\n", p.Quote(e.Table()))
}

// RenameEntityDDL implements Platform.
func (p *MySQL) RenameEntityDDL(from, to string) string {
	return fmt.Sprintf("\nRENAME TABLE %s TO %s;\n", p.Quote(from), p.Quote(to))
}

// DropIndexDDL implements Platform.
func (p *MySQL) DropIndexDDL(idx *model.Index) string {
	return fmt.Sprintf("\nDROP INDEX %s ON %s;\n", p.indexName(idx), p.Quote(idx.Entity().Table()))
}

// DropForeignKeyDDL implements Platform.
func (p *MySQL) DropForeignKeyDDL(r *model.Relation) string {
	return fmt.Sprintf("\nALTER TABLE %s DROP FOREIGN KEY %s;\n", p.Quote(r.Entity().Table()), p.Quote(p.identifier(r.ConstraintName())))
}

// DropPrimaryKeyDDL implements Platform.
func (p *MySQL) DropPrimaryKeyDDL(e *model.Entity) string {
	return fmt.Sprintf("\nALTER TABLE %s DROP PRIMARY KEY;\n", p.Quote(e.Table()))
}

// ModifyColumnDDL implements Platform. The column is redefined in place with
// CHANGE.
func (p *MySQL) ModifyColumnDDL(d *schema.FieldDiff) string {
	return fmt.Sprintf("\nALTER TABLE %s CHANGE %s %s;\n", p.Quote(d.To.Entity().Table()), p.Quote(d.To.ColumnName()), p.ColumnDDL(d.To))
}

// RenameColumnDDL implements Platform.
func (p *MySQL) RenameColumnDDL(from, to *model.Field) string {
	return fmt.Sprintf("\nALTER TABLE %s CHANGE %s %s;\n", p.Quote(to.Entity().Table()), p.Quote(from.ColumnName()), p.ColumnDDL(to))
}

// InsertSQL implements Platform.
func (p *MySQL) InsertSQL(e *model.Entity) string {
	table, cols, vals := p.insertParts(e)
	if cols == "" {
		return "INSERT INTO " + table + " () VALUES ()"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, vals)
}
