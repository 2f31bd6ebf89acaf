package gen

import (
	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// RelationName returns the name of the object accessor for a relation: its
// explicit name, or the foreign entity name.
func RelationName(r *schema.Relation) string {
	if r.Name != "" {
		return naming.Pascal(r.Name)
	}
	if fe := r.ForeignEntity(); fe != nil {
		return class.TypeName(fe)
	}
	return naming.Pascal(r.Target)
}

// ReferrerName returns the singular name of the inverse side of r, as seen
// from the foreign entity.
func ReferrerName(r *schema.Relation) string {
	if r.RefName != "" {
		return naming.Pascal(r.RefName)
	}
	return class.TypeName(r.Entity())
}

// ReferrerCollection returns the collection name of the inverse side of r.
func ReferrerCollection(r *schema.Relation, p Pluralizer) string {
	return p.Plural(ReferrerName(r))
}

// CrossCollection returns the collection name of a many-to-many relation.
func CrossCollection(cr *schema.CrossRelation, p Pluralizer) string {
	return p.Plural(class.TypeName(cr.Target()))
}

// CheckRelationNames reports ambiguous or colliding relation accessors of e.
func CheckRelationNames(e *schema.Entity, p Pluralizer) error {
	byTarget := make(map[string][]*schema.Relation)
	for _, r := range e.Relations {
		byTarget[r.Target] = append(byTarget[r.Target], r)
		if fe := r.ForeignEntity(); fe != nil && fe.PackageNamespace() != e.PackageNamespace() {
			return propel.NewBuildError("build", e.Name, "relation to %q crosses namespaces %q and %q", r.Target, e.PackageNamespace(), fe.PackageNamespace())
		}
	}
	for _, r := range e.Relations {
		rels := byTarget[r.Target]
		if len(rels) > 1 && r.Name == "" {
			return propel.NewBuildError("build", e.Name, "%d relations to %q need an explicit name each", len(rels), r.Target)
		}
	}
	bySource := make(map[string][]*schema.Relation)
	for _, r := range e.Referrers {
		src := r.Entity().Name
		bySource[src] = append(bySource[src], r)
	}
	for _, r := range e.Referrers {
		rels := bySource[r.Entity().Name]
		if len(rels) > 1 && r.RefName == "" {
			return propel.NewBuildError("build", e.Name, "%d relations from %q need an explicit refName each", len(rels), r.Entity().Name)
		}
	}
	used := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		used[class.FieldName(f)] = "field " + f.Name
	}
	claim := func(name, what string) error {
		if prev, ok := used[name]; ok {
			return propel.NewBuildError("build", e.Name, "%s name %q collides with %s", what, name, prev)
		}
		used[name] = what + " " + name
		return nil
	}
	for _, r := range e.Relations {
		if err := claim(RelationName(r), "relation"); err != nil {
			return err
		}
	}
	for _, r := range e.Referrers {
		if err := claim(ReferrerCollection(r, p), "referrer"); err != nil {
			return err
		}
	}
	for _, cr := range e.CrossRelations {
		if err := claim(CrossCollection(cr, p), "cross relation"); err != nil {
			return err
		}
	}
	return nil
}
