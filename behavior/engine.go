package behavior

import (
	"log/slog"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/schema"
)

// Engine instantiates the behaviors declared by a schema and runs their model
// modifications.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
	database []Behavior
	chains   map[*schema.Entity]Chain
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an engine resolving names through reg. A nil reg means
// the Default registry.
func NewEngine(reg *Registry, opts ...EngineOption) *Engine {
	if reg == nil {
		reg = Default
	}
	e := &Engine{registry: reg, logger: slog.Default(), chains: make(map[*schema.Entity]Chain)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prepare attaches every declared behavior and applies the modifications.
//
// All instances are attached before any of them runs, so a duplicate
// declaration fails before the model changes. Database behaviors modify the
// database first, then entity behaviors modify their entity in attachment
// order. Entities added during modification have their own declarations
// attached and modified in the same pass. The model is linked again at the
// end.
func (g *Engine) Prepare(db *schema.Database) error {
	g.database = g.database[:0]
	clear(g.chains)
	for _, spec := range db.Behaviors {
		b, err := g.instantiate(spec)
		if err != nil {
			return err
		}
		b.SetDatabase(db)
		g.database = append(g.database, b)
	}
	for _, e := range db.Entities {
		if err := g.attachEntity(e, true); err != nil {
			return err
		}
	}
	for _, b := range g.database {
		m, ok := b.(DatabaseModifier)
		if !ok {
			continue
		}
		g.logger.Debug("modify database", "behavior", b.ID(), "database", db.Name)
		if err := m.ModifyDatabase(db); err != nil {
			return propel.WrapBuildError("modify", db.Name, err, "behavior %q", b.ID())
		}
	}
	done := make(map[*schema.Entity]bool, len(db.Entities))
	// db.Entities may grow while iterating.
	for i := 0; i < len(db.Entities); i++ {
		e := db.Entities[i]
		if _, ok := g.chains[e]; !ok {
			if err := g.attachEntity(e, false); err != nil {
				return err
			}
		}
		if done[e] {
			continue
		}
		done[e] = true
		for _, b := range g.chains[e] {
			m, ok := b.(EntityModifier)
			if !ok {
				continue
			}
			g.logger.Debug("modify entity", "behavior", b.ID(), "entity", e.Name)
			if err := m.ModifyEntity(e); err != nil {
				return propel.WrapBuildError("modify", e.Name, err, "behavior %q", b.ID())
			}
		}
	}
	return db.Link()
}

// attachEntity attaches the entity declarations, then the database ones the
// entity does not declare under the same ID.
func (g *Engine) attachEntity(e *schema.Entity, inherit bool) error {
	chain := Chain{}
	attach := func(b Behavior) error {
		for _, prev := range chain {
			if prev.Name() == b.Name() && (!b.AllowMultiple() || prev.ID() == b.ID()) {
				return propel.NewBuildError("attach", e.Name, "behavior %q is already registered on this entity", b.ID())
			}
		}
		b.SetEntity(e)
		chain = append(chain, b)
		return nil
	}
	for _, spec := range e.Behaviors {
		b, err := g.instantiate(spec)
		if err != nil {
			return propel.WrapBuildError("attach", e.Name, err, "behavior %q", spec.BehaviorID())
		}
		if err := attach(b); err != nil {
			return err
		}
	}
	if inherit {
		for _, db := range g.database {
			if chain.has(db.ID()) {
				continue
			}
			if err := attach(db.Clone()); err != nil {
				return err
			}
		}
	}
	g.chains[e] = chain
	return nil
}

func (g *Engine) instantiate(spec *schema.BehaviorSpec) (Behavior, error) {
	b, err := g.registry.Create(spec.Name)
	if err != nil {
		return nil, err
	}
	if spec.ID != "" {
		b.SetID(spec.ID)
	}
	b.AddParameters(spec.Parameters)
	return b, nil
}

// For returns the behaviors attached to e in attachment order.
func (g *Engine) For(e *schema.Entity) Chain { return g.chains[e] }

// DatabaseBehaviors returns the database-level instances.
func (g *Engine) DatabaseBehaviors() []Behavior { return g.database }

// Chain is the ordered list of behaviors of one entity. Its hook methods
// concatenate the contributions of every member that implements the hook.
type Chain []Behavior

func (c Chain) has(id string) bool {
	for _, b := range c {
		if b.ID() == id {
			return true
		}
	}
	return false
}

// Names returns the behavior IDs in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, b := range c {
		names[i] = b.ID()
	}
	return names
}

// PreInsert returns the pre-insert fragments.
func (c Chain) PreInsert(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PreInsertHook); ok {
			return x.PreInsert(h)
		}
		return nil
	})
}

// PostInsert returns the post-insert fragments.
func (c Chain) PostInsert(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PostInsertHook); ok {
			return x.PostInsert(h)
		}
		return nil
	})
}

// PreUpdate returns the pre-update fragments.
func (c Chain) PreUpdate(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PreUpdateHook); ok {
			return x.PreUpdate(h)
		}
		return nil
	})
}

// PostUpdate returns the post-update fragments.
func (c Chain) PostUpdate(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PostUpdateHook); ok {
			return x.PostUpdate(h)
		}
		return nil
	})
}

// PreSave returns the pre-save fragments.
func (c Chain) PreSave(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PreSaveHook); ok {
			return x.PreSave(h)
		}
		return nil
	})
}

// PostSave returns the post-save fragments.
func (c Chain) PostSave(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PostSaveHook); ok {
			return x.PostSave(h)
		}
		return nil
	})
}

// PreDelete returns the pre-delete fragments.
func (c Chain) PreDelete(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PreDeleteHook); ok {
			return x.PreDelete(h)
		}
		return nil
	})
}

// PostDelete returns the post-delete fragments.
func (c Chain) PostDelete(h Hook) []jen.Code {
	return collect(c, func(b Behavior) []jen.Code {
		if x, ok := b.(PostDeleteHook); ok {
			return x.PostDelete(h)
		}
		return nil
	})
}

// ObjectMethods lets every member add methods to the object definition.
func (c Chain) ObjectMethods(h Hook, def *class.Definition) error {
	for _, b := range c {
		if x, ok := b.(ObjectMethodsHook); ok {
			if err := x.ObjectMethods(h, def); err != nil {
				return err
			}
		}
	}
	return nil
}

// QueryMethods lets every member add methods to the query definition.
func (c Chain) QueryMethods(h Hook, def *class.Definition) error {
	for _, b := range c {
		if x, ok := b.(QueryMethodsHook); ok {
			if err := x.QueryMethods(h, def); err != nil {
				return err
			}
		}
	}
	return nil
}

// RepositoryMethods lets every member add methods to the repository
// definition.
func (c Chain) RepositoryMethods(h Hook, def *class.Definition) error {
	for _, b := range c {
		if x, ok := b.(RepositoryMethodsHook); ok {
			if err := x.RepositoryMethods(h, def); err != nil {
				return err
			}
		}
	}
	return nil
}

func collect(c Chain, f func(Behavior) []jen.Code) []jen.Code {
	var out []jen.Code
	for _, b := range c {
		out = append(out, f(b)...)
	}
	return out
}
