package schema

import (
	"errors"
	"slices"
	"strings"

	"github.com/syssam/propel"
)

// Database is the root of the schema model.
type Database struct {
	Name            string
	Platform        string
	Namespace       string
	Package         string
	DefaultIDMethod string
	Entities        []*Entity
	Behaviors       []*BehaviorSpec
	Vendors         []*Vendor
	ExternalSchemas []string
}

// NewDatabase returns an empty database.
func NewDatabase(name string) *Database {
	return &Database{Name: name}
}

// AddEntity appends an entity. Duplicate names fail with InvalidArgumentError.
func (d *Database) AddEntity(e *Entity) error {
	if e.Name == "" {
		return propel.NewInvalidArgumentError("", "", "entity without a name in database %q", d.Name)
	}
	if d.HasEntity(e.Name) {
		return propel.NewInvalidArgumentError(e.Name, "", "duplicate entity in database %q", d.Name)
	}
	e.database = d
	d.Entities = append(d.Entities, e)
	return nil
}

// Entity returns an entity by name, or nil.
func (d *Database) Entity(name string) *Entity {
	for _, e := range d.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// EntityByTable returns an entity by table name, case-insensitively.
func (d *Database) EntityByTable(table string) *Entity {
	for _, e := range d.Entities {
		if strings.EqualFold(e.Table(), table) {
			return e
		}
	}
	return nil
}

// HasEntity reports if an entity with the given name exists.
func (d *Database) HasEntity(name string) bool {
	return d.Entity(name) != nil
}

// RemoveEntity removes an entity by name and reports if it existed.
func (d *Database) RemoveEntity(name string) bool {
	e := d.Entity(name)
	if e == nil {
		return false
	}
	d.Entities = slices.DeleteFunc(d.Entities, func(x *Entity) bool { return x == e })
	e.database = nil
	return true
}

// AddBehavior appends a database-level behavior declaration.
func (d *Database) AddBehavior(b *BehaviorSpec) {
	d.Behaviors = append(d.Behaviors, b)
}

// Vendor returns the vendor block for the given platform, or nil.
func (d *Database) Vendor(platform string) *Vendor {
	return findVendor(d.Vendors, platform)
}

// Link resolves relation targets and recomputes Referrers and
// CrossRelations. It may be called again after the model changes.
func (d *Database) Link() error {
	for _, e := range d.Entities {
		e.Referrers = nil
		e.CrossRelations = nil
	}
	var errs []error
	for _, e := range d.Entities {
		for _, r := range e.Relations {
			r.entity = e
			fe := d.Entity(r.Target)
			if fe == nil {
				fe = d.EntityByTable(r.Target)
			}
			if fe == nil {
				errs = append(errs, propel.NewInvalidArgumentError(e.Name, "", "relation to unknown entity %q", r.Target))
				continue
			}
			r.foreign = fe
			if err := linkReferences(e, fe, r); err != nil {
				errs = append(errs, err)
				continue
			}
			fe.Referrers = append(fe.Referrers, r)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, e := range d.Entities {
		if !e.IsCrossRef || len(e.Relations) != 2 {
			continue
		}
		a, b := e.Relations[0], e.Relations[1]
		a.foreign.CrossRelations = append(a.foreign.CrossRelations, &CrossRelation{Middle: e, Incoming: a, Outgoing: b})
		b.foreign.CrossRelations = append(b.foreign.CrossRelations, &CrossRelation{Middle: e, Incoming: b, Outgoing: a})
	}
	return nil
}

func linkReferences(e, fe *Entity, r *Relation) error {
	if len(r.References) == 0 {
		return propel.NewInvalidArgumentError(e.Name, "", "relation to %q has no references", r.Target)
	}
	pkOnly := true
	for _, ref := range r.References {
		if e.lookupField(ref.Local) == nil {
			return propel.NewInvalidArgumentError(e.Name, ref.Local, "relation to %q references unknown local field", r.Target)
		}
		ff := fe.lookupField(ref.Foreign)
		if ff == nil {
			return propel.NewInvalidArgumentError(fe.Name, ref.Foreign, "relation from %q references unknown foreign field", e.Name)
		}
		pkOnly = pkOnly && ff.PrimaryKey
	}
	if pk := fe.PrimaryKey(); pkOnly && len(pk) != len(r.References) {
		return propel.NewInvalidArgumentError(e.Name, "", "relation to %q has %d references but the foreign primary key has %d columns",
			r.Target, len(r.References), len(pk))
	}
	return nil
}

// Validate checks the model invariants and reports every violation.
func (d *Database) Validate() error {
	var errs []error
	for _, e := range d.Entities {
		if e.EffectiveIDMethod() != IDMethodNone && !e.HasPrimaryKey() {
			errs = append(errs, propel.NewInvalidArgumentError(e.Name, "", "entity has no primary key"))
		}
		for _, f := range e.Fields {
			if !f.Type.Valid() {
				errs = append(errs, propel.NewInvalidArgumentError(e.Name, f.Name, "field has no type"))
			}
			if f.Type == TypeEnum && len(f.ValueSet) == 0 {
				errs = append(errs, propel.NewInvalidArgumentError(e.Name, f.Name, "ENUM field without values"))
			}
		}
		if e.IsCrossRef {
			if err := validateCrossRef(e); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func validateCrossRef(e *Entity) error {
	if len(e.Relations) != 2 {
		return propel.NewInvalidArgumentError(e.Name, "", "cross-reference entity must have exactly 2 relations, got %d", len(e.Relations))
	}
	var locals []string
	for _, r := range e.Relations {
		locals = append(locals, r.LocalColumns()...)
	}
	var pk []string
	for _, f := range e.PrimaryKey() {
		pk = append(pk, f.ColumnName())
	}
	slices.Sort(locals)
	slices.Sort(pk)
	if !slices.Equal(locals, pk) {
		return propel.NewInvalidArgumentError(e.Name, "", "cross-reference relations (%s) must form the primary key (%s)",
			strings.Join(locals, ", "), strings.Join(pk, ", "))
	}
	return nil
}

// Clone returns a deep copy of the database. The copy is linked when the
// source links cleanly.
func (d *Database) Clone() *Database {
	c := &Database{
		Name:            d.Name,
		Platform:        d.Platform,
		Namespace:       d.Namespace,
		Package:         d.Package,
		DefaultIDMethod: d.DefaultIDMethod,
		Behaviors:       cloneBehaviors(d.Behaviors),
		Vendors:         cloneVendors(d.Vendors),
		ExternalSchemas: slices.Clone(d.ExternalSchemas),
	}
	for _, e := range d.Entities {
		ne := e.Clone()
		ne.database = c
		c.Entities = append(c.Entities, ne)
	}
	_ = c.Link()
	return c
}

// Stats summarizes the model size.
type Stats struct {
	Entities  int
	Fields    int
	Relations int
	Indices   int
}

// Stats returns counts over all entities.
func (d *Database) Stats() Stats {
	var s Stats
	s.Entities = len(d.Entities)
	for _, e := range d.Entities {
		s.Fields += len(e.Fields)
		s.Relations += len(e.Relations)
		s.Indices += len(e.Indices) + len(e.Uniques)
	}
	return s
}
