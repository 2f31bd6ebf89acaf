package schema

import (
	"slices"
	"strings"

	"github.com/syssam/propel"
	"github.com/syssam/propel/internal/naming"
)

// ID methods.
const (
	IDMethodNative = "native"
	IDMethodNone   = "none"
)

// Entity is a table-like schema unit mapping to one generated type family.
type Entity struct {
	Name        string
	TableName   string // Defaults to snake(Name)
	Namespace   string // Defaults to the database namespace
	Description string
	IDMethod    string
	ReadOnly    bool
	IsCrossRef  bool

	Fields    []*Field
	Relations []*Relation
	Indices   []*Index
	Uniques   []*Index
	Behaviors []*BehaviorSpec
	Vendors   []*Vendor

	// Computed by Database.Link.
	Referrers      []*Relation
	CrossRelations []*CrossRelation

	database *Database
}

// NewEntity returns an entity with the given name.
func NewEntity(name string) *Entity {
	return &Entity{Name: name}
}

// Database returns the owning database, or nil when detached.
func (e *Entity) Database() *Database { return e.database }

// Table returns the physical table name.
func (e *Entity) Table() string {
	if e.TableName != "" {
		return e.TableName
	}
	return naming.Snake(e.Name)
}

// PackageNamespace returns the entity namespace, falling back to the
// database namespace.
func (e *Entity) PackageNamespace() string {
	if e.Namespace != "" || e.database == nil {
		return e.Namespace
	}
	return e.database.Namespace
}

// EffectiveIDMethod returns the id method, falling back to the database
// default and then to "native".
func (e *Entity) EffectiveIDMethod() string {
	switch {
	case e.IDMethod != "":
		return e.IDMethod
	case e.database != nil && e.database.DefaultIDMethod != "":
		return e.database.DefaultIDMethod
	default:
		return IDMethodNative
	}
}

// AddField appends a field. Duplicate names fail with InvalidArgumentError.
func (e *Entity) AddField(f *Field) error {
	if f.Name == "" {
		return propel.NewInvalidArgumentError(e.Name, "", "field without a name")
	}
	if e.Field(f.Name) != nil {
		return propel.NewInvalidArgumentError(e.Name, f.Name, "duplicate field")
	}
	f.entity = e
	e.Fields = append(e.Fields, f)
	return nil
}

// Field returns a field by name, case-insensitively.
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// FieldByColumn returns a field by column name, case-insensitively.
func (e *Entity) FieldByColumn(column string) *Field {
	for _, f := range e.Fields {
		if strings.EqualFold(f.ColumnName(), column) {
			return f
		}
	}
	return nil
}

// HasField reports if the entity has a field with the given name or column.
func (e *Entity) HasField(name string) bool {
	return e.lookupField(name) != nil
}

func (e *Entity) lookupField(name string) *Field {
	if e == nil {
		return nil
	}
	if f := e.Field(name); f != nil {
		return f
	}
	return e.FieldByColumn(name)
}

// RemoveField removes a field by name and reports if it existed.
func (e *Entity) RemoveField(name string) bool {
	f := e.Field(name)
	if f == nil {
		return false
	}
	e.Fields = slices.DeleteFunc(e.Fields, func(x *Field) bool { return x == f })
	f.entity = nil
	return true
}

// PrimaryKey returns the primary key fields in declaration order.
func (e *Entity) PrimaryKey() []*Field {
	var pk []*Field
	for _, f := range e.Fields {
		if f.PrimaryKey {
			pk = append(pk, f)
		}
	}
	return pk
}

// HasPrimaryKey reports if at least one field is a primary key.
func (e *Entity) HasPrimaryKey() bool {
	return slices.ContainsFunc(e.Fields, func(f *Field) bool { return f.PrimaryKey })
}

// HasCompositePrimaryKey reports if the primary key spans several fields.
func (e *Entity) HasCompositePrimaryKey() bool {
	return len(e.PrimaryKey()) > 1
}

// AutoIncrementField returns the auto-increment field, or nil.
func (e *Entity) AutoIncrementField() *Field {
	for _, f := range e.Fields {
		if f.AutoIncrement {
			return f
		}
	}
	return nil
}

// AddRelation appends an outgoing relation.
func (e *Entity) AddRelation(r *Relation) error {
	if r.Target == "" {
		return propel.NewInvalidArgumentError(e.Name, "", "relation without a target")
	}
	r.entity = e
	e.Relations = append(e.Relations, r)
	return nil
}

// RelationsTo returns the relations targeting the named entity.
func (e *Entity) RelationsTo(target string) []*Relation {
	var rs []*Relation
	for _, r := range e.Relations {
		if fe := r.ForeignEntity(); fe != nil && fe.Name == target || strings.EqualFold(r.Target, target) {
			rs = append(rs, r)
		}
	}
	return rs
}

// AddIndex appends an index, routing unique indices to Uniques.
func (e *Entity) AddIndex(idx *Index) error {
	if len(idx.Columns) == 0 {
		return propel.NewInvalidArgumentError(e.Name, "", "index %q without columns", idx.Name)
	}
	idx.entity = e
	if idx.Unique {
		e.Uniques = append(e.Uniques, idx)
	} else {
		e.Indices = append(e.Indices, idx)
	}
	return nil
}

// AllIndices returns uniques followed by indices.
func (e *Entity) AllIndices() []*Index {
	return append(slices.Clone(e.Uniques), e.Indices...)
}

// AddBehavior appends a behavior declaration.
func (e *Entity) AddBehavior(b *BehaviorSpec) {
	e.Behaviors = append(e.Behaviors, b)
}

// HasBehavior reports if a behavior with the given name is declared.
func (e *Entity) HasBehavior(name string) bool {
	return slices.ContainsFunc(e.Behaviors, func(b *BehaviorSpec) bool { return b.Name == name })
}

// Vendor returns the vendor block for the given platform, or nil.
func (e *Entity) Vendor(platform string) *Vendor {
	return findVendor(e.Vendors, platform)
}

// Clone returns a detached deep copy of the entity without computed
// referrers and cross relations.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		Name:        e.Name,
		TableName:   e.TableName,
		Namespace:   e.Namespace,
		Description: e.Description,
		IDMethod:    e.IDMethod,
		ReadOnly:    e.ReadOnly,
		IsCrossRef:  e.IsCrossRef,
		Behaviors:   cloneBehaviors(e.Behaviors),
		Vendors:     cloneVendors(e.Vendors),
	}
	for _, f := range e.Fields {
		nf := f.Clone()
		nf.entity = c
		c.Fields = append(c.Fields, nf)
	}
	for _, r := range e.Relations {
		nr := r.Clone()
		nr.entity = c
		c.Relations = append(c.Relations, nr)
	}
	for _, idx := range e.Indices {
		ni := idx.Clone()
		ni.entity = c
		c.Indices = append(c.Indices, ni)
	}
	for _, idx := range e.Uniques {
		ni := idx.Clone()
		ni.entity = c
		c.Uniques = append(c.Uniques, ni)
	}
	return c
}
