package schema

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/syssam/propel/internal/naming"
)

// Referential actions.
const (
	ActionNone     = ""
	ActionCascade  = "CASCADE"
	ActionSetNull  = "SET NULL"
	ActionRestrict = "RESTRICT"
	ActionNoAction = "NO ACTION"
)

// Reference pairs a local field with the foreign field it points at. Both
// sides may name either the field or its column.
type Reference struct {
	Local   string
	Foreign string
}

// Relation is an outgoing foreign key of an entity.
type Relation struct {
	Name        string // Explicit relation name, used for generated accessors
	RefName     string // Explicit name of the inverse (referrer) side
	Target      string // Foreign entity name
	References  []*Reference
	OnDelete    string
	OnUpdate    string
	DefaultJoin string
	Constraint  string // Explicit constraint name
	Vendors     []*Vendor

	entity  *Entity
	foreign *Entity
}

// Entity returns the entity declaring the relation.
func (r *Relation) Entity() *Entity { return r.entity }

// ForeignEntity returns the referenced entity. It resolves through the owning
// database when the relation has not been linked yet.
func (r *Relation) ForeignEntity() *Entity {
	if r.foreign != nil {
		return r.foreign
	}
	if r.entity != nil && r.entity.database != nil {
		if e := r.entity.database.Entity(r.Target); e != nil {
			return e
		}
		return r.entity.database.EntityByTable(r.Target)
	}
	return nil
}

// ForeignTable returns the referenced table name.
func (r *Relation) ForeignTable() string {
	if e := r.ForeignEntity(); e != nil {
		return e.Table()
	}
	return naming.Snake(r.Target)
}

// LocalFields returns the local fields, in reference order. Unresolved
// references are skipped.
func (r *Relation) LocalFields() []*Field {
	var fs []*Field
	for _, ref := range r.References {
		if f := r.entity.lookupField(ref.Local); f != nil {
			fs = append(fs, f)
		}
	}
	return fs
}

// ForeignFields returns the referenced fields, in reference order.
func (r *Relation) ForeignFields() []*Field {
	fe := r.ForeignEntity()
	if fe == nil {
		return nil
	}
	var fs []*Field
	for _, ref := range r.References {
		if f := fe.lookupField(ref.Foreign); f != nil {
			fs = append(fs, f)
		}
	}
	return fs
}

// LocalColumns returns the local column names, in reference order.
func (r *Relation) LocalColumns() []string {
	cols := make([]string, len(r.References))
	for i, ref := range r.References {
		cols[i] = ref.Local
		if r.entity != nil {
			if f := r.entity.lookupField(ref.Local); f != nil {
				cols[i] = f.ColumnName()
			}
		}
	}
	return cols
}

// ForeignColumns returns the referenced column names, in reference order.
func (r *Relation) ForeignColumns() []string {
	fe := r.ForeignEntity()
	cols := make([]string, len(r.References))
	for i, ref := range r.References {
		cols[i] = ref.Foreign
		if fe != nil {
			if f := fe.lookupField(ref.Foreign); f != nil {
				cols[i] = f.ColumnName()
			}
		}
	}
	return cols
}

// ConstraintName returns the explicit constraint name or the deterministic
// generated one: {table}_fk_{hash}.
func (r *Relation) ConstraintName() string {
	if r.Constraint != "" {
		return r.Constraint
	}
	table := ""
	if r.entity != nil {
		table = r.entity.Table()
	}
	key := r.ForeignTable() + ":" + strings.Join(r.LocalColumns(), ",") + ":" + strings.Join(r.ForeignColumns(), ",")
	return table + "_fk_" + shortHash(key)
}

// ShapeKey identifies the relation by what it connects, independent of its
// name and declaration order.
func (r *Relation) ShapeKey() string {
	return strings.ToLower(r.ForeignTable() + "(" + strings.Join(r.LocalColumns(), ",") + ")->(" + strings.Join(r.ForeignColumns(), ",") + ")")
}

// IsLocalPrimaryKey reports if the local columns are exactly the entity's
// primary key, marking a one-to-one relation.
func (r *Relation) IsLocalPrimaryKey() bool {
	pk := r.entity.PrimaryKey()
	if len(pk) != len(r.References) || len(pk) == 0 {
		return false
	}
	for _, f := range r.LocalFields() {
		if !f.PrimaryKey {
			return false
		}
	}
	return true
}

// Clone returns a detached deep copy of the relation.
func (r *Relation) Clone() *Relation {
	c := *r
	c.entity, c.foreign = nil, nil
	c.References = make([]*Reference, len(r.References))
	for i, ref := range r.References {
		c.References[i] = &Reference{Local: ref.Local, Foreign: ref.Foreign}
	}
	c.Vendors = cloneVendors(r.Vendors)
	return &c
}

// CrossRelation is a many-to-many view derived from a cross-reference entity.
// For a junction C(a_id -> A, b_id -> B), A sees B through Middle C with
// Incoming the relation C->A and Outgoing the relation C->B.
type CrossRelation struct {
	Middle   *Entity
	Incoming *Relation
	Outgoing *Relation
}

// Target returns the entity reached through the junction.
func (c *CrossRelation) Target() *Entity {
	return c.Outgoing.ForeignEntity()
}

// shortHash returns the first 6 hex digits of the md5 of s.
func shortHash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:6]
}
