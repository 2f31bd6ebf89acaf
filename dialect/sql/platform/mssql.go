package platform

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// MSSQL renders DDL for Microsoft SQL Server.
type MSSQL struct {
	common
}

// NewMSSQL returns the SQL Server platform.
func NewMSSQL() *MSSQL {
	p := &MSSQL{}
	p.common = common{self: p, settings: settings{
		name:          dialect.MSSQL,
		open:          "[",
		close:         "]",
		maxIdent:      128,
		autoIncrement: "IDENTITY",
		types: map[model.FieldType]typeDef{
			model.TypeBoolean:     {name: "BIT"},
			model.TypeTinyInt:     {name: "TINYINT"},
			model.TypeSmallInt:    {name: "SMALLINT"},
			model.TypeInteger:     {name: "INT"},
			model.TypeBigInt:      {name: "BIGINT"},
			model.TypeFloat:       {name: "REAL"},
			model.TypeDouble:      {name: "FLOAT"},
			model.TypeDecimal:     {name: "DECIMAL", sized: true},
			model.TypeChar:        {name: "NCHAR", sized: true, defaultSize: 1},
			model.TypeVarchar:     {name: "NVARCHAR", sized: true, defaultSize: 255},
			model.TypeLongVarchar: {name: "NVARCHAR(MAX)"},
			model.TypeClob:        {name: "NVARCHAR(MAX)"},
			model.TypeBlob:        {name: "VARBINARY(MAX)"},
			model.TypeDate:        {name: "DATE"},
			model.TypeTime:        {name: "TIME"},
			model.TypeTimestamp:   {name: "DATETIME2"},
			model.TypeEnum:        {name: "NVARCHAR", sized: true},
			model.TypeArray:       {name: "NVARCHAR(MAX)"},
			model.TypeObject:      {name: "VARBINARY(MAX)"},
			model.TypeJSON:        {name: "NVARCHAR(MAX)"},
			model.TypeUUID:        {name: "UNIQUEIDENTIFIER"},
		},
		boolTrue:      "1",
		boolFalse:     "0",
		placeholder:   func(n int) string { return "@p" + strconv.Itoa(n) },
		ids:           Returning,
		deleteTrigger: true,
		addColumn:     "ADD",
		dropColumn:    "DROP COLUMN",
		pkSuffix:      "_pk",
		namedPK:       true,
	}}
	return p
}

// DropEntityDDL implements Platform.
func (p *MSSQL) DropEntityDDL(e *model.Entity) string {
	return fmt.Sprintf("\nIF OBJECT_ID('%s', 'U') IS NOT NULL\n    DROP TABLE %s;\n", e.Table(), p.Quote(e.Table()))
}

// RenameEntityDDL implements Platform.
func (p *MSSQL) RenameEntityDDL(from, to string) string {
	return fmt.Sprintf("\nEXEC sp_rename '%s', '%s';\n", from, to)
}

// RenameColumnDDL implements Platform.
func (p *MSSQL) RenameColumnDDL(from, to *model.Field) string {
	return fmt.Sprintf("\nEXEC sp_rename '%s.%s', '%s', 'COLUMN';\n", to.Entity().Table(), from.ColumnName(), to.ColumnName())
}

// ModifyColumnDDL implements Platform. SQL Server keeps a default as a
// separate constraint, usually with a generated name. The constraint is looked
// up and dropped before the column changes, and added back afterwards.
func (p *MSSQL) ModifyColumnDDL(d *schema.FieldDiff) string {
	alter := slices.ContainsFunc(d.Changed, func(c string) bool { return c != "default" })
	defaults := slices.Contains(d.Changed, "default")
	table, col := p.Quote(d.To.Entity().Table()), p.Quote(d.To.ColumnName())
	var b strings.Builder
	if d.From.HasDefault() && (alter || defaults) {
		b.WriteString(p.dropDefaultDDL(d.To.Entity().Table(), d.From.ColumnName()))
	}
	if alter {
		null := " NULL"
		if d.To.NotNull() {
			null = " NOT NULL"
		}
		fmt.Fprintf(&b, "\nALTER TABLE %s ALTER COLUMN %s %s%s;\n", table, col, p.NativeType(d.To), null)
	}
	if d.To.HasDefault() && (defaults || d.From.HasDefault() && alter) {
		fmt.Fprintf(&b, "\nALTER TABLE %s ADD %s FOR %s;\n", table, p.defaultDDL(d.To), col)
	}
	return b.String()
}

// dropDefaultDDL drops the default constraint of a column whatever its name.
// The variable is unique per column so one batch can hold several drops.
func (p *MSSQL) dropDefaultDDL(table, column string) string {
	v := "@" + p.identifier(variableName.ReplaceAllString("df_"+table+"_"+column, "_"))
	lit := func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }
	return fmt.Sprintf("\nDECLARE %[1]s NVARCHAR(128)\n"+
		"SELECT %[1]s = [name] FROM sys.default_constraints\n"+
		"    WHERE [parent_object_id] = OBJECT_ID(%[2]s) AND [parent_column_id] = COLUMNPROPERTY(OBJECT_ID(%[2]s), %[3]s, 'ColumnId')\n"+
		"IF %[1]s IS NOT NULL EXEC(%[4]s + %[1]s + ']');\n",
		v, lit(table), lit(column), lit("ALTER TABLE "+p.Quote(table)+" DROP CONSTRAINT ["))
}

var variableName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// DropIndexDDL implements Platform.
func (p *MSSQL) DropIndexDDL(idx *model.Index) string {
	return fmt.Sprintf("\nDROP INDEX %s ON %s;\n", p.indexName(idx), p.Quote(idx.Entity().Table()))
}

// InsertSQL implements Platform. The auto-increment key is returned through
// an OUTPUT clause.
func (p *MSSQL) InsertSQL(e *model.Entity) string {
	ai := e.AutoIncrementField()
	if ai == nil {
		return p.common.InsertSQL(e)
	}
	output := " OUTPUT INSERTED." + p.Quote(ai.ColumnName())
	table, cols, vals := p.insertParts(e)
	if cols == "" {
		return "INSERT INTO " + table + output + " DEFAULT VALUES"
	}
	return fmt.Sprintf("INSERT INTO %s (%s)%s VALUES (%s)", table, cols, output, vals)
}
