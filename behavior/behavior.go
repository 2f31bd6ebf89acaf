// Package behavior implements the plugin system that extends schemas before
// code and DDL generation.
//
// A behavior is declared in a schema by name, resolved through a Registry to
// a Factory, attached to an entity (or to the database, in which case a clone
// is attached to every entity) and then given two chances to act:
//
//   - at model time, through ModifyDatabase and ModifyEntity, where it may add
//     fields, indices or whole entities;
//   - at generation time, through the optional hook interfaces below, where it
//     contributes statements to persistence methods or methods to generated
//     types.
//
// Hooks are small interfaces detected by type assertion. A behavior implements
// only those it needs.
package behavior

import (
	"maps"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/schema"
)

// Behavior is the common surface of every behavior instance.
type Behavior interface {
	Name() string
	ID() string
	SetID(string)
	AllowMultiple() bool
	Parameters() map[string]string
	Parameter(key string) string
	AddParameters(map[string]string)
	Entity() *schema.Entity
	SetEntity(*schema.Entity)
	Database() *schema.Database
	SetDatabase(*schema.Database)
	Clone() Behavior
}

// Factory creates a fresh behavior with its default parameters.
type Factory func() Behavior

// Hook is the generation context handed to fragment hooks. Fragments may refer
// to the identifiers it names; they are in scope in every persistence method.
type Hook struct {
	Entity   *schema.Entity
	Object   string // persisted object, e.g. "obj"
	Receiver string // repository receiver, e.g. "r"
	Context  string // context.Context parameter, e.g. "ctx"
	Exec     string // executor expression, e.g. "r.db"
}

// NewHook returns the hook context the repository builder uses.
func NewHook(e *schema.Entity) Hook {
	return Hook{Entity: e, Object: "obj", Receiver: "r", Context: "ctx", Exec: "r.db"}
}

type (
	// DatabaseModifier changes the model once, for a database-level behavior.
	DatabaseModifier interface {
		ModifyDatabase(*schema.Database) error
	}
	// EntityModifier changes the entity the behavior is attached to.
	EntityModifier interface {
		ModifyEntity(*schema.Entity) error
	}
	// PreInsertHook contributes statements run before an insert.
	PreInsertHook interface {
		PreInsert(Hook) []jen.Code
	}
	// PostInsertHook contributes statements run after an insert.
	PostInsertHook interface {
		PostInsert(Hook) []jen.Code
	}
	// PreUpdateHook contributes statements run before an update.
	PreUpdateHook interface {
		PreUpdate(Hook) []jen.Code
	}
	// PostUpdateHook contributes statements run after an update.
	PostUpdateHook interface {
		PostUpdate(Hook) []jen.Code
	}
	// PreSaveHook contributes statements run before insert or update.
	PreSaveHook interface {
		PreSave(Hook) []jen.Code
	}
	// PostSaveHook contributes statements run after insert or update.
	PostSaveHook interface {
		PostSave(Hook) []jen.Code
	}
	// PreDeleteHook contributes statements run before a delete.
	PreDeleteHook interface {
		PreDelete(Hook) []jen.Code
	}
	// PostDeleteHook contributes statements run after a delete.
	PostDeleteHook interface {
		PostDelete(Hook) []jen.Code
	}
	// ObjectMethodsHook adds methods to the generated object type.
	ObjectMethodsHook interface {
		ObjectMethods(Hook, *class.Definition) error
	}
	// QueryMethodsHook adds methods to the generated query type.
	QueryMethodsHook interface {
		QueryMethods(Hook, *class.Definition) error
	}
	// RepositoryMethodsHook adds methods to the generated repository type.
	RepositoryMethodsHook interface {
		RepositoryMethods(Hook, *class.Definition) error
	}
)

// Base implements the bookkeeping part of Behavior. Concrete behaviors embed
// it and provide Clone.
type Base struct {
	name     string
	id       string
	multiple bool
	params   map[string]string
	entity   *schema.Entity
	database *schema.Database
}

// NewBase returns a Base with the given defaults.
func NewBase(name string, defaults map[string]string) Base {
	return Base{name: name, params: maps.Clone(defaults)}
}

// Name returns the behavior name.
func (b *Base) Name() string { return b.name }

// ID returns the instance identifier, which defaults to the name.
func (b *Base) ID() string {
	if b.id == "" {
		return b.name
	}
	return b.id
}

// SetID sets the instance identifier.
func (b *Base) SetID(id string) { b.id = id }

// AllowMultiple reports if an entity may carry several instances.
func (b *Base) AllowMultiple() bool { return b.multiple }

// SetAllowMultiple is called by constructors of multi-instance behaviors.
func (b *Base) SetAllowMultiple(v bool) { b.multiple = v }

// Parameters returns a copy of the merged parameters.
func (b *Base) Parameters() map[string]string { return maps.Clone(b.params) }

// Parameter returns one parameter, or "".
func (b *Base) Parameter(key string) string { return b.params[key] }

// BoolParameter interprets a parameter as a boolean: "true", "1", "yes" and
// "on" are true.
func (b *Base) BoolParameter(key string) bool {
	switch b.params[key] {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// AddParameters merges params over the current values, key by key.
func (b *Base) AddParameters(params map[string]string) {
	if b.params == nil {
		b.params = make(map[string]string, len(params))
	}
	maps.Copy(b.params, params)
}

// Entity returns the entity the behavior is attached to, or nil for a
// database-level instance.
func (b *Base) Entity() *schema.Entity { return b.entity }

// SetEntity attaches the behavior to an entity.
func (b *Base) SetEntity(e *schema.Entity) {
	b.entity = e
	if e != nil && e.Database() != nil {
		b.database = e.Database()
	}
}

// Database returns the database of the behavior.
func (b *Base) Database() *schema.Database { return b.database }

// SetDatabase sets the database of the behavior.
func (b *Base) SetDatabase(db *schema.Database) { b.database = db }

// CloneBase returns a detached copy with its own parameter map. The copy is
// not attached to any entity.
func (b *Base) CloneBase() Base {
	c := *b
	c.params = maps.Clone(b.params)
	c.entity = nil
	return c
}
