// Package platform renders SQL DDL and statement fragments for the supported
// database platforms.
//
// Every variant embeds a shared implementation that fixes statement order
// and the layout of CREATE and ALTER blocks; variants override quoting, type
// mapping and the clauses their database spells differently.
//
//	p, err := platform.ByName("mysql")
//	if err != nil {
//	    return err
//	}
//	fmt.Print(p.AddEntitiesDDL(db))
//
// Output strings are a compatibility contract: whitespace, banners and
// ordering are stable and tested literally.
package platform

import (
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/propel"
	"github.com/syssam/propel/dialect"
	"github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

// ErrReadOnlyEntity is returned when a delete is requested for a read-only
// entity.
var ErrReadOnlyEntity = errors.New("propel: read-only entity")

// IDStrategy tells generated code how to obtain an auto-increment key after
// an insert.
type IDStrategy uint8

// ID strategies.
const (
	// LastInsertID reads sql.Result.LastInsertId.
	LastInsertID IDStrategy = iota
	// Returning scans the key from the row returned by the insert.
	Returning
	// Sequence selects the next sequence value before the insert and binds
	// it as the key.
	Sequence
)

// Platform renders DDL and SQL for one database.
type Platform interface {
	// Name returns the canonical dialect name.
	Name() string
	// Quote quotes an identifier. Dotted identifiers are quoted per part.
	Quote(id string) string
	// NativeType returns the column type of f, including size and scale.
	NativeType(f *model.Field) string
	// AutoIncrement returns the auto-increment column keyword, or "".
	AutoIncrement() string
	// ColumnDDL returns the full column definition of f.
	ColumnDDL(f *model.Field) string
	MaxIdentifierLength() int
	SupportsNativeDeleteTrigger() bool
	SupportsIndexSize() bool
	// Placeholder returns the bind parameter for the n-th argument, from 1.
	Placeholder(n int) string
	IDStrategy() IDStrategy

	// BeginDDL and EndDDL wrap bulk alterations.
	BeginDDL() string
	EndDDL() string

	AddEntityDDL(e *model.Entity) string
	AddEntitiesDDL(db *model.Database) string
	DropEntityDDL(e *model.Entity) string
	RenameEntityDDL(from, to string) string
	ModifyEntityDDL(d *schema.EntityDiff) string
	ModifyDatabaseDDL(d *schema.DatabaseDiff) string

	AddIndexDDL(idx *model.Index) string
	DropIndexDDL(idx *model.Index) string
	AddForeignKeyDDL(r *model.Relation) string
	DropForeignKeyDDL(r *model.Relation) string
	AddPrimaryKeyDDL(e *model.Entity) string
	DropPrimaryKeyDDL(e *model.Entity) string

	AddColumnDDL(f *model.Field) string
	ModifyColumnDDL(d *schema.FieldDiff) string
	RenameColumnDDL(from, to *model.Field) string
	RemoveColumnDDL(f *model.Field) string

	InsertSQL(e *model.Entity) string
	UpdateSQL(e *model.Entity) string
	DeleteSQL(e *model.Entity) (string, error)
	SelectByPKSQL(e *model.Entity) string
	// SequenceSQL returns the statement selecting the next key of e, or ""
	// when the platform does not use sequences.
	SequenceSQL(e *model.Entity) string
}

var constructors = map[string]func() Platform{
	dialect.MySQL:    func() Platform { return NewMySQL() },
	dialect.Postgres: func() Platform { return NewPostgreSQL() },
	dialect.SQLite:   func() Platform { return NewSQLite() },
	dialect.Oracle:   func() Platform { return NewOracle() },
	dialect.MSSQL:    func() Platform { return NewMSSQL() },
}

// ByName returns the platform for a dialect name or alias.
func ByName(name string) (Platform, error) {
	if f, ok := constructors[dialect.Normalize(name)]; ok {
		return f(), nil
	}
	return nil, propel.NewInvalidArgumentError("", "", "unknown platform %q (supported: %v)", name, Names())
}

// Names returns the supported platform names, sorted.
func Names() []string {
	names := dialect.Names()
	slices.Sort(names)
	return names
}

// deleteReadOnly is the error of DeleteSQL for read-only entities.
func deleteReadOnly(e *model.Entity) error {
	return fmt.Errorf("cannot delete read-only entity %s: %w", e.Name, ErrReadOnlyEntity)
}
