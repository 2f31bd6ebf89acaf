package gen

import (
	"github.com/syssam/propel"
	"github.com/syssam/propel/behavior"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/dialect/sql/platform"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// BuilderType identifies one generated file kind.
type BuilderType string

// Builder types.
const (
	Object     BuilderType = "object"
	Query      BuilderType = "query"
	Repository BuilderType = "repository"
	EntityMap  BuilderType = "entitymap"
	Proxy      BuilderType = "proxy"
)

// AllBuilders lists every builder type in generation order.
var AllBuilders = []BuilderType{Object, Query, Repository, EntityMap, Proxy}

// ParseBuilderType parses a builder type name.
func ParseBuilderType(s string) (BuilderType, error) {
	t := BuilderType(s)
	if _, ok := pipelines[t]; !ok {
		return "", propel.NewInvalidArgumentError("", "builder", "unknown builder type %q", s)
	}
	return t, nil
}

// suffix returns the file name suffix of t.
func (t BuilderType) suffix() string {
	switch t {
	case Query:
		return "_query"
	case Repository:
		return "_repository"
	case EntityMap:
		return "_map"
	case Proxy:
		return "_proxy"
	}
	return ""
}

// typeName returns the generated type name for an entity.
func (t BuilderType) typeName(e *schema.Entity) string {
	switch t {
	case Query:
		return class.QueryName(e)
	case Repository:
		return class.RepositoryName(e)
	case EntityMap:
		return class.MapName(e)
	case Proxy:
		return class.ProxyName(e)
	}
	return class.TypeName(e)
}

// receiver returns the fixed method receiver of t, or "" for the default.
// Object receivers derive from the type name unless that shadows an
// identifier the object methods use.
// Behavior fragments rely on the repository receiver.
func (t BuilderType) receiver(e *schema.Entity) string {
	switch t {
	case Query:
		return "q"
	case Repository:
		return behavior.NewHook(e).Receiver
	case EntityMap:
		return "m"
	case Proxy:
		return "p"
	}
	if r := naming.Receiver(t.typeName(e)); objectIdents[r] {
		return "o"
	}
	return ""
}

// objectIdents are the locals, builtins and package names referenced inside
// object methods. A derived receiver must not shadow any of them.
var objectIdents = map[string]bool{
	"col": true, "column": true, "columns": true, "value": true,
	"builder": true, "slug": true,
	"append": true, "len": true, "make": true, "clear": true, "delete": true,
	"nil": true, "true": true, "false": true, "new": true,
	"fmt": true, "strings": true, "regexp": true, "time": true, "sql": true,
}

// BuildContext is the input of every component.
type BuildContext struct {
	Config *Config
	Entity *schema.Entity
	Chain  behavior.Chain
	Hook   behavior.Hook
}

// Platform returns the configured SQL platform.
func (c *BuildContext) Platform() platform.Platform { return c.Config.Platform }

// Pluralizer returns the configured pluralizer.
func (c *BuildContext) Pluralizer() Pluralizer { return c.Config.Pluralizer }

// Component adds one concern to a definition.
type Component struct {
	Name  string
	Apply func(ctx *BuildContext, def *class.Definition) error
}

// pipelines holds the default components of every builder type, in order.
var pipelines = map[BuilderType][]Component{
	Object: {
		{"struct", objectStruct},
		{"constants", objectConstants},
		{"accessors", objectAccessors},
		{"setters", objectSetters},
		{"relations", objectRelations},
		{"referrers", objectReferrers},
		{"crossRelations", objectCrossRelations},
		{"behaviors", objectBehaviors},
	},
	Query: {
		{"struct", queryStruct},
		{"constructor", queryConstructor},
		{"conditions", queryConditions},
		{"filters", queryFilters},
		{"orderings", queryOrderings},
		{"joins", queryJoins},
		{"sql", querySQL},
		{"behaviors", queryBehaviors},
	},
	Repository: {
		{"struct", repositoryStruct},
		{"constructor", repositoryConstructor},
		{"statements", repositoryStatements},
		{"save", repositorySave},
		{"insert", repositoryInsert},
		{"update", repositoryUpdate},
		{"delete", repositoryDelete},
		{"find", repositoryFind},
		{"behaviors", repositoryBehaviors},
	},
	EntityMap: {
		{"constants", mapConstants},
		{"struct", mapStruct},
		{"columns", mapColumns},
		{"fields", mapFields},
		{"primaryKey", mapPrimaryKey},
		{"relations", mapRelations},
	},
	Proxy: {
		{"struct", proxyStruct},
		{"loader", proxyLoader},
		{"accessors", proxyAccessors},
	},
}

// Components returns the component names of t in default order.
func Components(t BuilderType) []string {
	names := make([]string, 0, len(pipelines[t]))
	for _, c := range pipelines[t] {
		names = append(names, c.Name)
	}
	return names
}

// Builder turns entities into class definitions.
type Builder struct {
	cfg    *Config
	engine *behavior.Engine
	lines  map[BuilderType][]Component
}

// NewBuilder returns a builder. engine may be nil when no behaviors apply.
func NewBuilder(cfg *Config, engine *behavior.Engine) (*Builder, error) {
	b := &Builder{cfg: cfg, engine: engine, lines: make(map[BuilderType][]Component, len(pipelines))}
	for t, defaults := range pipelines {
		names, ok := cfg.Components[t]
		if !ok {
			b.lines[t] = defaults
			continue
		}
		for _, name := range names {
			i := indexOf(defaults, name)
			if i < 0 {
				return nil, NewConfigError("Components", name, "unknown "+string(t)+" component")
			}
			b.lines[t] = append(b.lines[t], defaults[i])
		}
	}
	return b, nil
}

func indexOf(cs []Component, name string) int {
	for i, c := range cs {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Build runs the pipeline of t over e.
func (b *Builder) Build(e *schema.Entity, t BuilderType) (*class.Definition, error) {
	line, ok := b.lines[t]
	if !ok {
		return nil, NewConfigError("Builders", t, "unknown builder type")
	}
	def := class.New(packageName(e, b.cfg), t.typeName(e))
	def.Receiver = t.receiver(e)
	ctx := &BuildContext{Config: b.cfg, Entity: e, Hook: behavior.NewHook(e)}
	if b.engine != nil {
		ctx.Chain = b.engine.For(e)
	}
	for _, c := range line {
		b.cfg.Logger.Debug("apply component", "entity", e.Name, "builder", string(t), "component", c.Name)
		if err := c.Apply(ctx, def); err != nil {
			if propel.IsBuildError(err) {
				return nil, err
			}
			return nil, propel.WrapBuildError("build", e.Name, err, "%s component %q", t, c.Name)
		}
	}
	return def, nil
}

// requireProperty fails when a component runs before the one declaring name.
func requireProperty(ctx *BuildContext, def *class.Definition, name, component string) error {
	if def.HasProperty(name) {
		return nil
	}
	return propel.NewBuildError("build", ctx.Entity.Name, "%s requires property %q; run the %s component first", def.Name, name, component)
}
