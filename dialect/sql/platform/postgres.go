package platform

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// PostgreSQL renders DDL for PostgreSQL. Auto-increment keys use SERIAL
// types and inserts return the generated key.
type PostgreSQL struct {
	common
}

// NewPostgreSQL returns the PostgreSQL platform.
func NewPostgreSQL() *PostgreSQL {
	p := &PostgreSQL{}
	p.common = common{self: p, settings: settings{
		name:     dialect.Postgres,
		open:     `"`,
		close:    `"`,
		maxIdent: 63,
		types: map[model.FieldType]typeDef{
			model.TypeBoolean:     {name: "BOOLEAN"},
			model.TypeTinyInt:     {name: "SMALLINT"},
			model.TypeSmallInt:    {name: "SMALLINT"},
			model.TypeInteger:     {name: "INTEGER"},
			model.TypeBigInt:      {name: "BIGINT"},
			model.TypeFloat:       {name: "REAL"},
			model.TypeDouble:      {name: "DOUBLE PRECISION"},
			model.TypeDecimal:     {name: "NUMERIC", sized: true},
			model.TypeChar:        {name: "CHAR", sized: true, defaultSize: 1},
			model.TypeVarchar:     {name: "VARCHAR", sized: true, defaultSize: 255},
			model.TypeLongVarchar: {name: "TEXT"},
			model.TypeClob:        {name: "TEXT"},
			model.TypeBlob:        {name: "BYTEA"},
			model.TypeDate:        {name: "DATE"},
			model.TypeTime:        {name: "TIME"},
			model.TypeTimestamp:   {name: "TIMESTAMP"},
			model.TypeEnum:        {name: "VARCHAR", sized: true},
			model.TypeArray:       {name: "TEXT"},
			model.TypeObject:      {name: "BYTEA"},
			model.TypeJSON:        {name: "JSON"},
			model.TypeUUID:        {name: "UUID"},
		},
		boolTrue:      "true",
		boolFalse:     "false",
		placeholder:   func(n int) string { return "$" + strconv.Itoa(n) },
		ids:           Returning,
		deleteTrigger: true,
		addColumn:     "ADD COLUMN",
		dropColumn:    "DROP COLUMN",
		dropCascade:   " CASCADE",
		pkSuffix:      "_pkey",
	}}
	return p
}

// serial returns the SERIAL type of an auto-increment field.
func serial(f *model.Field) string {
	switch f.Type {
	case model.TypeBigInt:
		return "BIGSERIAL"
	case model.TypeTinyInt, model.TypeSmallInt:
		return "SMALLSERIAL"
	default:
		return "SERIAL"
	}
}

// ColumnDDL implements Platform.
func (p *PostgreSQL) ColumnDDL(f *model.Field) string {
	if f.AutoIncrement {
		return p.Quote(f.ColumnName()) + " " + serial(f) + " NOT NULL"
	}
	return p.common.ColumnDDL(f)
}

// ModifyColumnDDL implements Platform. All changes of one column go into a
// single ALTER TABLE statement.
func (p *PostgreSQL) ModifyColumnDDL(d *schema.FieldDiff) string {
	col := "ALTER COLUMN " + p.Quote(d.To.ColumnName())
	var clauses []string
	if slices.ContainsFunc(d.Changed, func(c string) bool {
		return c == "type" || c == "size" || c == "scale" || c == "valueSet"
	}) {
		clauses = append(clauses, col+" TYPE "+p.NativeType(d.To))
	}
	if slices.Contains(d.Changed, "nullable") {
		if d.To.NotNull() {
			clauses = append(clauses, col+" SET NOT NULL")
		} else {
			clauses = append(clauses, col+" DROP NOT NULL")
		}
	}
	if slices.Contains(d.Changed, "default") {
		if d.To.HasDefault() {
			clauses = append(clauses, col+" SET "+p.defaultDDL(d.To))
		} else {
			clauses = append(clauses, col+" DROP DEFAULT")
		}
	}
	if len(clauses) == 0 {
		return ""
	}
	return fmt.Sprintf("\nALTER TABLE %s\n    %s;\n", p.Quote(d.To.Entity().Table()), strings.Join(clauses, ",\n    "))
}

// InsertSQL implements Platform. The auto-increment key is returned.
func (p *PostgreSQL) InsertSQL(e *model.Entity) string {
	q := p.common.InsertSQL(e)
	if ai := e.AutoIncrementField(); ai != nil {
		q += " RETURNING " + p.Quote(ai.ColumnName())
	}
	return q
}
