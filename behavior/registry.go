package behavior

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/propel"
)

// CorePackage is the import path that qualifies built-in behavior classes.
const CorePackage = "github.com/syssam/propel/behavior"

// Registry maps behavior names and classes to factories.
//
// Resolution of a schema name goes through three probes, in order:
//
//  1. a qualified class name ("example.com/pkg.VersionableBehavior") is used
//     as is;
//  2. the core convention, CorePackage + "." + Studly(name) + "Behavior";
//  3. the classes announced by discovery manifests.
//
// Go cannot load code at run time, so every class must be bound to a Factory,
// either by the built-in table or by RegisterClass from the package that
// implements it (typically in an init function, like database/sql drivers).
type Registry struct {
	mu         sync.RWMutex
	classes    map[string]Factory
	discovered map[string]Discovered
}

// NewRegistry returns a registry holding the built-in behaviors.
func NewRegistry() *Registry {
	r := &Registry{
		classes:    make(map[string]Factory),
		discovered: make(map[string]Discovered),
	}
	r.Register(AutoAddPK, func() Behavior { return NewAutoAddPK() })
	r.Register(Timestampable, func() Behavior { return NewTimestampable() })
	r.Register(Archivable, func() Behavior { return NewArchivable() })
	r.Register(Sluggable, func() Behavior { return NewSluggable() })
	r.Register(Sortable, func() Behavior { return NewSortable() })
	return r
}

// Default is the registry used by package-level functions.
var Default = NewRegistry()

// RegisterClass binds a class to a factory on the Default registry.
func RegisterClass(class string, f Factory) { Default.RegisterClass(class, f) }

// Register binds a name under the core convention.
func (r *Registry) Register(name string, f Factory) {
	r.RegisterClass(CoreClass(name), f)
}

// RegisterClass binds a qualified class to a factory.
func (r *Registry) RegisterClass(class string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class] = f
}

// Bind adds discovered classes. Existing names are replaced.
func (r *Registry) Bind(ds ...Discovered) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range ds {
		r.discovered[d.Name] = d
	}
}

// Classes returns the bound classes, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.classes))
}

// Discovered returns the discovered entries keyed by behavior name.
func (r *Registry) Discovered() map[string]Discovered {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.discovered)
}

// GetClassForName resolves a schema name to a class.
func (r *Registry) GetClassForName(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if Qualified(name) {
		if _, ok := r.classes[name]; ok {
			return name, nil
		}
		return "", propel.NewBehaviorNotFoundError(name, name)
	}
	core := CoreClass(name)
	if _, ok := r.classes[core]; ok {
		return core, nil
	}
	tried := []string{core}
	if d, ok := r.discovered[name]; ok {
		return d.Class, nil
	}
	tried = append(tried, "discovered:"+name)
	return "", propel.NewBehaviorNotFoundError(name, tried...)
}

// Create resolves name and returns a new instance.
func (r *Registry) Create(name string) (Behavior, error) {
	class, err := r.GetClassForName(name)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	f, ok := r.classes[class]
	r.mu.RUnlock()
	if !ok {
		return nil, propel.NewBuildError("resolve", "", "behavior class %q for %q does not implement Behavior: no factory is registered", class, name)
	}
	b := f()
	if b == nil {
		return nil, propel.NewBuildError("resolve", "", "factory of behavior class %q returned nil", class)
	}
	return b, nil
}

// Qualified reports if a name already looks like a class.
func Qualified(name string) bool {
	return strings.ContainsAny(name, "./\\")
}

// CoreClass returns the conventional class of a built-in name.
func CoreClass(name string) string {
	return CorePackage + "." + Studly(name) + "Behavior"
}

// Studly converts snake, dashed or spaced names to StudlyCaps. Letters after
// the first of each word keep their case, so "autoAddPk" stays "AutoAddPk".
func Studly(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	// Casers are stateful and not safe for concurrent use.
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	return b.String()
}
