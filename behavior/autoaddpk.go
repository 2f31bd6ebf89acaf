package behavior

import (
	"github.com/syssam/propel"
	"github.com/syssam/propel/schema"
)

// Names of the built-in behaviors.
const (
	AutoAddPK     = "auto_add_pk"
	Timestampable = "timestampable"
	Archivable    = "archivable"
	Sluggable     = "sluggable"
	Sortable      = "sortable"
)

// AutoAddPKBehavior adds a primary key to entities that declare none.
// Entities with the "none" id method and cross-reference entities are left
// alone.
type AutoAddPKBehavior struct {
	Base
}

// NewAutoAddPK returns the behavior with its defaults.
func NewAutoAddPK() *AutoAddPKBehavior {
	return &AutoAddPKBehavior{Base: NewBase(AutoAddPK, map[string]string{
		"name":          "id",
		"autoIncrement": "true",
		"type":          "INTEGER",
	})}
}

// Clone implements Behavior.
func (b *AutoAddPKBehavior) Clone() Behavior {
	return &AutoAddPKBehavior{Base: b.CloneBase()}
}

// ModifyDatabase implements DatabaseModifier.
func (b *AutoAddPKBehavior) ModifyDatabase(db *schema.Database) error {
	for _, e := range db.Entities {
		if err := b.ModifyEntity(e); err != nil {
			return err
		}
	}
	return nil
}

// ModifyEntity implements EntityModifier.
func (b *AutoAddPKBehavior) ModifyEntity(e *schema.Entity) error {
	if e.HasPrimaryKey() || e.IsCrossRef || e.EffectiveIDMethod() == schema.IDMethodNone {
		return nil
	}
	name := b.Parameter("name")
	if f := e.Field(name); f != nil {
		f.PrimaryKey = true
		f.Nullable = false
		f.AutoIncrement = b.BoolParameter("autoIncrement")
		return nil
	}
	typ, err := schema.ParseFieldType(b.Parameter("type"))
	if err != nil {
		return propel.WrapBuildError("modify", e.Name, err, "auto_add_pk type")
	}
	f := &schema.Field{
		Name:          name,
		Type:          typ,
		PrimaryKey:    true,
		AutoIncrement: b.BoolParameter("autoIncrement"),
	}
	if err := e.AddField(f); err != nil {
		return err
	}
	// The key leads the column list.
	copy(e.Fields[1:], e.Fields[:len(e.Fields)-1])
	e.Fields[0] = f
	return nil
}
