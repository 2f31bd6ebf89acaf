package platform

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/propel"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// typeDef is a native type name. Sized types take the field size, or
// precision and scale for decimals.
type typeDef struct {
	name        string
	sized       bool
	defaultSize int
}

// settings are the knobs variants set instead of overriding methods.
type settings struct {
	name          string
	open, close   string
	maxIdent      int
	autoIncrement string
	types         map[model.FieldType]typeDef
	boolTrue      string
	boolFalse     string
	placeholder   func(n int) string
	ids           IDStrategy
	deleteTrigger bool
	indexSize     bool
	addColumn     string // ADD or ADD COLUMN
	dropColumn    string // DROP or DROP COLUMN
	dropCascade   string // suffix of DROP TABLE
	pkSuffix      string // suffix of primary key constraint names
	inlineFKs     bool   // foreign keys go inside CREATE TABLE
	namedPK       bool   // PRIMARY KEY clauses carry a constraint name
	noOnUpdate    bool   // ON UPDATE is not supported
	inlineAutoPK  bool   // a single auto-increment key is declared on its column
}

// common renders the DDL shared by all variants. Calls that a variant may
// override go through self.
type common struct {
	settings
	self Platform
}

const banner = "-- ---------------------------------------------------------------------"

func commentBlock(name string) string {
	return fmt.Sprintf("\n%s\n-- %s\n%s\n", banner, name, banner)
}

func questionMark(int) string { return "?" }

func (c *common) Name() string                      { return c.name }
func (c *common) AutoIncrement() string             { return c.autoIncrement }
func (c *common) MaxIdentifierLength() int          { return c.maxIdent }
func (c *common) SupportsNativeDeleteTrigger() bool { return c.deleteTrigger }
func (c *common) SupportsIndexSize() bool           { return c.indexSize }
func (c *common) Placeholder(n int) string          { return c.placeholder(n) }
func (c *common) IDStrategy() IDStrategy            { return c.ids }
func (c *common) BeginDDL() string                  { return "" }
func (c *common) EndDDL() string                    { return "" }
func (c *common) SequenceSQL(*model.Entity) string  { return "" }

// Quote implements Platform.
func (c *common) Quote(id string) string {
	parts := strings.Split(id, ".")
	for i, p := range parts {
		parts[i] = c.open + strings.ReplaceAll(p, c.close, c.close+c.close) + c.close
	}
	return strings.Join(parts, ".")
}

func (c *common) quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, col := range cols {
		q[i] = c.self.Quote(col)
	}
	return strings.Join(q, ", ")
}

// identifier shortens generated names to the platform limit, keeping them
// unique with a hash suffix.
func (c *common) identifier(name string) string {
	if c.maxIdent == 0 || len(name) <= c.maxIdent {
		return name
	}
	sum := md5.Sum([]byte(name))
	return name[:c.maxIdent-7] + "_" + hex.EncodeToString(sum[:])[:6]
}

// NativeType implements Platform. A vendor parameter sqlType overrides the
// mapping.
func (c *common) NativeType(f *model.Field) string {
	if t := f.Vendor(c.name).Parameter("sqlType"); t != "" {
		return t
	}
	td, ok := c.types[f.Type]
	if !ok {
		td = c.types[model.TypeVarchar]
	}
	if !td.sized {
		return td.name
	}
	if f.Type == model.TypeDecimal {
		if f.Size > 0 {
			return fmt.Sprintf("%s(%d,%d)", td.name, f.Size, f.Scale)
		}
		return td.name
	}
	size := f.Size
	if size == 0 && f.Type == model.TypeEnum {
		for _, v := range f.ValueSet {
			size = max(size, len(v))
		}
	}
	if size == 0 {
		size = td.defaultSize
	}
	if size == 0 {
		return td.name
	}
	return fmt.Sprintf("%s(%d)", td.name, size)
}

// ColumnDDL implements Platform.
func (c *common) ColumnDDL(f *model.Field) string {
	parts := []string{c.self.Quote(f.ColumnName()), c.self.NativeType(f)}
	if d := c.defaultDDL(f); d != "" {
		parts = append(parts, d)
	}
	if f.NotNull() {
		parts = append(parts, "NOT NULL")
	}
	if ai := c.self.AutoIncrement(); f.AutoIncrement && ai != "" {
		parts = append(parts, ai)
	}
	return strings.Join(parts, " ")
}

func (c *common) defaultDDL(f *model.Field) string {
	if !f.HasDefault() {
		return ""
	}
	return "DEFAULT " + c.literal(f, f.DefaultValue())
}

var expressions = map[string]bool{
	"NULL":              true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"CURRENT_TIMESTAMP": true,
	"LOCALTIMESTAMP":    true,
}

func (c *common) literal(f *model.Field, v string) string {
	switch u := strings.ToUpper(strings.TrimSpace(v)); {
	case expressions[u] || strings.HasSuffix(u, ")"):
		return v
	case f.Type == model.TypeBoolean:
		switch u {
		case "TRUE", "1", "YES", "ON":
			return c.boolTrue
		default:
			return c.boolFalse
		}
	case f.Type.Numeric():
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func pkColumns(e *model.Entity) []string {
	pk := e.PrimaryKey()
	cols := make([]string, len(pk))
	for i, f := range pk {
		cols[i] = f.ColumnName()
	}
	return cols
}

// autoIncrementKey returns the primary key field when the key is a single
// auto-increment column.
func autoIncrementKey(e *model.Entity) *model.Field {
	if pk := e.PrimaryKey(); len(pk) == 1 && pk[0].AutoIncrement {
		return pk[0]
	}
	return nil
}

func (c *common) pkName(e *model.Entity) string {
	return c.identifier(e.Table() + c.pkSuffix)
}

func (c *common) primaryKeyDDL(e *model.Entity) string {
	ddl := "PRIMARY KEY (" + c.quoteAll(pkColumns(e)) + ")"
	if c.namedPK {
		ddl = "CONSTRAINT " + c.self.Quote(c.pkName(e)) + " " + ddl
	}
	return ddl
}

func (c *common) foreignKeyDDL(r *model.Relation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s\n    FOREIGN KEY (%s)\n    REFERENCES %s (%s)",
		c.self.Quote(c.identifier(r.ConstraintName())),
		c.quoteAll(r.LocalColumns()),
		c.self.Quote(r.ForeignTable()),
		c.quoteAll(r.ForeignColumns()))
	if a := referentialAction(r.OnUpdate); a != "" && !c.noOnUpdate {
		b.WriteString("\n    ON UPDATE " + a)
	}
	if a := referentialAction(r.OnDelete); a != "" {
		b.WriteString("\n    ON DELETE " + a)
	}
	return b.String()
}

func referentialAction(a string) string {
	a = strings.ToUpper(strings.TrimSpace(a))
	if a == "NONE" {
		return ""
	}
	return a
}

// indent shifts continuation lines of a clause inside a CREATE TABLE block.
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}

func (c *common) indexColumns(idx *model.Index) string {
	cols := idx.ColumnNames()
	q := make([]string, len(cols))
	for i, col := range cols {
		q[i] = c.self.Quote(col)
		if size := idx.Columns[i].Size; size > 0 && c.self.SupportsIndexSize() {
			q[i] += "(" + strconv.Itoa(size) + ")"
		}
	}
	return strings.Join(q, ", ")
}

func (c *common) indexName(idx *model.Index) string {
	return c.self.Quote(c.identifier(idx.IndexName()))
}

func (c *common) createTable(e *model.Entity, lines []string, options string) string {
	return fmt.Sprintf("\nCREATE TABLE %s\n(\n    %s\n)%s;\n", c.self.Quote(e.Table()), strings.Join(lines, ",\n    "), options)
}

// tableLines returns the column, primary key and, when inlined, foreign key
// clauses of a CREATE TABLE block.
func (c *common) tableLines(e *model.Entity) []string {
	lines := make([]string, 0, len(e.Fields)+1+len(e.Relations))
	for _, f := range e.Fields {
		lines = append(lines, c.self.ColumnDDL(f))
	}
	if e.HasPrimaryKey() && !(c.inlineAutoPK && autoIncrementKey(e) != nil) {
		lines = append(lines, c.primaryKeyDDL(e))
	}
	if c.inlineFKs {
		for _, r := range e.Relations {
			lines = append(lines, indent(c.foreignKeyDDL(r)))
		}
	}
	return lines
}

// AddEntityDDL implements Platform. It creates the table and its indices.
func (c *common) AddEntityDDL(e *model.Entity) string {
	var b strings.Builder
	b.WriteString(c.createTable(e, c.tableLines(e), ""))
	for _, idx := range e.AllIndices() {
		b.WriteString(c.self.AddIndexDDL(idx))
	}
	return b.String()
}

// AddEntitiesDDL implements Platform. Each table gets a banner, a drop and a
// create. Foreign keys that are not inlined follow once every table exists.
func (c *common) AddEntitiesDDL(db *model.Database) string {
	var b strings.Builder
	b.WriteString(c.self.BeginDDL())
	for _, e := range db.Entities {
		b.WriteString(commentBlock(e.Table()))
		b.WriteString(c.self.DropEntityDDL(e))
		b.WriteString(c.self.AddEntityDDL(e))
	}
	if !c.inlineFKs {
		for _, e := range db.Entities {
			c.addForeignKeys(&b, e.Relations)
		}
	}
	b.WriteString(c.self.EndDDL())
	return b.String()
}

func (c *common) addForeignKeys(b *strings.Builder, rs []*model.Relation) {
	for _, r := range rs {
		b.WriteString(c.self.AddForeignKeyDDL(r))
	}
}

// DropEntityDDL implements Platform.
func (c *common) DropEntityDDL(e *model.Entity) string {
	return fmt.Sprintf("\nDROP TABLE IF EXISTS %s%s;\n", c.self.Quote(e.Table()), c.dropCascade)
}

// RenameEntityDDL implements Platform.
func (c *common) RenameEntityDDL(from, to string) string {
	return fmt.Sprintf("\nALTER TABLE %s RENAME TO %s;\n", c.self.Quote(from), c.self.Quote(to))
}

// ModifyDatabaseDDL implements Platform. Statements follow a fixed order:
// drops, renames, alterations, creations, all inside the bulk banners. An
// empty diff renders nothing.
func (c *common) ModifyDatabaseDDL(d *schema.DatabaseDiff) string {
	var b strings.Builder
	for _, e := range d.Removed {
		b.WriteString(c.self.DropEntityDDL(e))
	}
	for _, r := range d.Renamed {
		b.WriteString(c.self.RenameEntityDDL(r.From.Table(), r.To.Table()))
	}
	for _, ed := range d.Modified {
		b.WriteString(c.self.ModifyEntityDDL(ed))
	}
	for _, e := range d.Added {
		b.WriteString(c.self.AddEntityDDL(e))
	}
	if !c.inlineFKs {
		for _, e := range d.Added {
			c.addForeignKeys(&b, e.Relations)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return c.self.BeginDDL() + b.String() + c.self.EndDDL()
}

// ModifyEntityDDL implements Platform. The order is fixed: drop foreign
// keys, drop indices, drop the primary key, then rename, modify, add and
// remove columns, then add the primary key, create indices and add foreign
// keys.
func (c *common) ModifyEntityDDL(d *schema.EntityDiff) string {
	var b strings.Builder
	for _, r := range d.RemovedRelations {
		b.WriteString(c.self.DropForeignKeyDDL(r))
	}
	for _, r := range d.ModifiedRelations {
		b.WriteString(c.self.DropForeignKeyDDL(r.From))
	}
	for _, idx := range d.RemovedIndices {
		b.WriteString(c.self.DropIndexDDL(idx))
	}
	for _, idx := range d.ModifiedIndices {
		b.WriteString(c.self.DropIndexDDL(idx.From))
	}
	if d.PKChanged && d.From.HasPrimaryKey() {
		b.WriteString(c.self.DropPrimaryKeyDDL(d.From))
	}
	for _, fd := range d.RenamedFields {
		b.WriteString(c.self.RenameColumnDDL(fd.From, fd.To))
	}
	for _, fd := range d.ModifiedFields {
		b.WriteString(c.self.ModifyColumnDDL(fd))
	}
	for _, f := range d.AddedFields {
		b.WriteString(c.self.AddColumnDDL(f))
	}
	for _, f := range d.RemovedFields {
		b.WriteString(c.self.RemoveColumnDDL(f))
	}
	if d.PKChanged && d.To.HasPrimaryKey() {
		b.WriteString(c.self.AddPrimaryKeyDDL(d.To))
	}
	for _, idx := range d.ModifiedIndices {
		b.WriteString(c.self.AddIndexDDL(idx.To))
	}
	for _, idx := range d.AddedIndices {
		b.WriteString(c.self.AddIndexDDL(idx))
	}
	for _, r := range d.ModifiedRelations {
		b.WriteString(c.self.AddForeignKeyDDL(r.To))
	}
	c.addForeignKeys(&b, d.AddedRelations)
	return b.String()
}

// AddIndexDDL implements Platform.
func (c *common) AddIndexDDL(idx *model.Index) string {
	kind := ""
	if idx.Unique {
		kind = "UNIQUE "
	}
	return fmt.Sprintf("\nCREATE %sINDEX %s ON %s (%s);\n", kind, c.indexName(idx), c.self.Quote(idx.Entity().Table()), c.indexColumns(idx))
}

// DropIndexDDL implements Platform.
func (c *common) DropIndexDDL(idx *model.Index) string {
	return fmt.Sprintf("\nDROP INDEX %s;\n", c.indexName(idx))
}

// AddForeignKeyDDL implements Platform.
func (c *common) AddForeignKeyDDL(r *model.Relation) string {
	return fmt.Sprintf("\nALTER TABLE %s ADD %s;\n", c.self.Quote(r.Entity().Table()), c.foreignKeyDDL(r))
}

// DropForeignKeyDDL implements Platform.
func (c *common) DropForeignKeyDDL(r *model.Relation) string {
	return fmt.Sprintf("\nALTER TABLE %s DROP CONSTRAINT %s;\n", c.self.Quote(r.Entity().Table()), c.self.Quote(c.identifier(r.ConstraintName())))
}

// AddPrimaryKeyDDL implements Platform.
func (c *common) AddPrimaryKeyDDL(e *model.Entity) string {
	return fmt.Sprintf("\nALTER TABLE %s ADD %s;\n", c.self.Quote(e.Table()), c.primaryKeyDDL(e))
}

// DropPrimaryKeyDDL implements Platform.
func (c *common) DropPrimaryKeyDDL(e *model.Entity) string {
	return fmt.Sprintf("\nALTER TABLE %s DROP CONSTRAINT %s;\n", c.self.Quote(e.Table()), c.self.Quote(c.pkName(e)))
}

// AddColumnDDL implements Platform.
func (c *common) AddColumnDDL(f *model.Field) string {
	return fmt.Sprintf("\nALTER TABLE %s %s %s;\n", c.self.Quote(f.Entity().Table()), c.addColumn, c.self.ColumnDDL(f))
}

// ModifyColumnDDL implements Platform.
func (c *common) ModifyColumnDDL(d *schema.FieldDiff) string {
	return fmt.Sprintf("\nALTER TABLE %s MODIFY %s;\n", c.self.Quote(d.To.Entity().Table()), c.self.ColumnDDL(d.To))
}

// RenameColumnDDL implements Platform.
func (c *common) RenameColumnDDL(from, to *model.Field) string {
	return fmt.Sprintf("\nALTER TABLE %s RENAME COLUMN %s TO %s;\n", c.self.Quote(to.Entity().Table()), c.self.Quote(from.ColumnName()), c.self.Quote(to.ColumnName()))
}

// RemoveColumnDDL implements Platform.
func (c *common) RemoveColumnDDL(f *model.Field) string {
	return fmt.Sprintf("\nALTER TABLE %s %s %s;\n", c.self.Quote(f.Entity().Table()), c.dropColumn, c.self.Quote(f.ColumnName()))
}

// insertParts returns the quoted table, columns and placeholders of an
// insert. Auto-increment columns are left to the database unless keys come
// from a sequence.
func (c *common) insertParts(e *model.Entity) (table, cols, vals string) {
	var cs, vs []string
	for _, f := range e.Fields {
		if f.AutoIncrement && c.ids != Sequence {
			continue
		}
		cs = append(cs, c.self.Quote(f.ColumnName()))
		vs = append(vs, c.self.Placeholder(len(vs)+1))
	}
	return c.self.Quote(e.Table()), strings.Join(cs, ", "), strings.Join(vs, ", ")
}

// InsertSQL implements Platform.
func (c *common) InsertSQL(e *model.Entity) string {
	table, cols, vals := c.insertParts(e)
	if cols == "" {
		return "INSERT INTO " + table + " DEFAULT VALUES"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, vals)
}

// wherePK returns the primary key condition, numbering placeholders from
// start.
func (c *common) wherePK(e *model.Entity, start int) string {
	pk := pkColumns(e)
	conds := make([]string, len(pk))
	for i, col := range pk {
		conds[i] = c.self.Quote(col) + " = " + c.self.Placeholder(start+i)
	}
	return strings.Join(conds, " AND ")
}

// UpdateSQL implements Platform. Every non-key column is set; an entity made
// only of key columns has nothing to update and yields "".
func (c *common) UpdateSQL(e *model.Entity) string {
	var sets []string
	for _, f := range e.Fields {
		if !f.PrimaryKey {
			sets = append(sets, c.self.Quote(f.ColumnName())+" = "+c.self.Placeholder(len(sets)+1))
		}
	}
	if len(sets) == 0 || !e.HasPrimaryKey() {
		return ""
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", c.self.Quote(e.Table()), strings.Join(sets, ", "), c.wherePK(e, len(sets)+1))
}

// DeleteSQL implements Platform. Read-only entities never get a DELETE
// statement.
func (c *common) DeleteSQL(e *model.Entity) (string, error) {
	if e.ReadOnly {
		return "", deleteReadOnly(e)
	}
	if !e.HasPrimaryKey() {
		return "", propel.NewBuildError("sql", e.Name, "cannot delete rows of an entity without a primary key")
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", c.self.Quote(e.Table()), c.wherePK(e, 1)), nil
}

// SelectByPKSQL implements Platform. It yields "" for entities without a
// primary key.
func (c *common) SelectByPKSQL(e *model.Entity) string {
	if !e.HasPrimaryKey() {
		return ""
	}
	cols := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = c.self.Quote(f.ColumnName())
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(cols, ", "), c.self.Quote(e.Table()), c.wherePK(e, 1))
}
