// Package schema computes structural differences between two versions of a
// schema model, validates them, and stores schema states for migration
// lineage.
package schema

import (
	"slices"
	"strings"

	model "github.com/syssam/propel/schema"
)

type (
	// FieldDiff pairs the old and new definition of a field.
	FieldDiff struct {
		From, To *model.Field
		Changed  []string // Attributes that differ: type, size, scale, nullable, default, autoIncrement, column
	}

	// IndexDiff pairs two indices sharing a name with different members.
	IndexDiff struct {
		From, To *model.Index
	}

	// RelationDiff pairs two relations of the same shape with different
	// referential actions.
	RelationDiff struct {
		From, To *model.Relation
	}

	// EntityDiff describes how one entity changed.
	EntityDiff struct {
		From, To *model.Entity

		AddedFields    []*model.Field
		RemovedFields  []*model.Field
		ModifiedFields []*FieldDiff
		RenamedFields  []*FieldDiff

		PKChanged bool

		AddedIndices    []*model.Index
		RemovedIndices  []*model.Index
		ModifiedIndices []*IndexDiff

		AddedRelations    []*model.Relation
		RemovedRelations  []*model.Relation
		ModifiedRelations []*RelationDiff
	}

	// EntityRename pairs an entity with its renamed counterpart.
	EntityRename struct {
		From, To *model.Entity
	}

	// DatabaseDiff describes how a database changed.
	DatabaseDiff struct {
		From, To *model.Database

		Added    []*model.Entity
		Removed  []*model.Entity
		Renamed  []*EntityRename
		Modified []*EntityDiff
	}
)

type compareConfig struct {
	renames      bool
	tableRenames bool
}

// CompareOption configures a comparison.
type CompareOption func(*compareConfig)

// WithRenameDetection pairs a removed and an added field of identical
// definition as a rename.
func WithRenameDetection() CompareOption {
	return func(c *compareConfig) { c.renames = true }
}

// WithTableRenameDetection pairs a removed and an added entity of identical
// structure as a table rename.
func WithTableRenameDetection() CompareOption {
	return func(c *compareConfig) { c.tableRenames = true }
}

// CompareEntities returns the difference from one entity version to the next,
// and whether there is any.
func CompareEntities(from, to *model.Entity, opts ...CompareOption) (*EntityDiff, bool) {
	cfg := &compareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	d := &EntityDiff{From: from, To: to}
	d.compareFields(cfg)
	d.PKChanged = !slices.Equal(pkColumns(from), pkColumns(to))
	d.compareIndices()
	d.compareRelations()
	return d, !d.IsEmpty()
}

func (d *EntityDiff) compareFields(cfg *compareConfig) {
	matched := make(map[*model.Field]bool, len(d.From.Fields))
	for _, nf := range d.To.Fields {
		of := matchField(d.From, nf, matched)
		if of == nil {
			d.AddedFields = append(d.AddedFields, nf)
			continue
		}
		matched[of] = true
		if !strings.EqualFold(of.ColumnName(), nf.ColumnName()) {
			d.RenamedFields = append(d.RenamedFields, &FieldDiff{From: of, To: nf, Changed: []string{"column"}})
		}
		if changed := fieldChanges(of, nf); len(changed) > 0 {
			d.ModifiedFields = append(d.ModifiedFields, &FieldDiff{From: of, To: nf, Changed: changed})
		}
	}
	for _, of := range d.From.Fields {
		if !matched[of] {
			d.RemovedFields = append(d.RemovedFields, of)
		}
	}
	if !cfg.renames {
		return
	}
	for i := 0; i < len(d.RemovedFields); i++ {
		of := d.RemovedFields[i]
		j := slices.IndexFunc(d.AddedFields, func(nf *model.Field) bool {
			return len(fieldChanges(of, nf)) == 0 && of.PrimaryKey == nf.PrimaryKey
		})
		if j < 0 {
			continue
		}
		d.RenamedFields = append(d.RenamedFields, &FieldDiff{From: of, To: d.AddedFields[j], Changed: []string{"column"}})
		d.AddedFields = slices.Delete(d.AddedFields, j, j+1)
		d.RemovedFields = slices.Delete(d.RemovedFields, i, i+1)
		i--
	}
}

// matchField finds the old counterpart of nf: same name, case-insensitively,
// or else same column.
func matchField(old *model.Entity, nf *model.Field, matched map[*model.Field]bool) *model.Field {
	for _, of := range old.Fields {
		if !matched[of] && strings.EqualFold(of.Name, nf.Name) {
			return of
		}
	}
	for _, of := range old.Fields {
		if !matched[of] && strings.EqualFold(of.ColumnName(), nf.ColumnName()) {
			return of
		}
	}
	return nil
}

func fieldChanges(a, b *model.Field) []string {
	var changed []string
	if a.Type != b.Type {
		changed = append(changed, "type")
	}
	if a.Size != b.Size {
		changed = append(changed, "size")
	}
	if a.Scale != b.Scale {
		changed = append(changed, "scale")
	}
	if a.NotNull() != b.NotNull() {
		changed = append(changed, "nullable")
	}
	if a.HasDefault() != b.HasDefault() || a.DefaultValue() != b.DefaultValue() {
		changed = append(changed, "default")
	}
	if a.AutoIncrement != b.AutoIncrement {
		changed = append(changed, "autoIncrement")
	}
	if !slices.Equal(a.ValueSet, b.ValueSet) {
		changed = append(changed, "valueSet")
	}
	return changed
}

func pkColumns(e *model.Entity) []string {
	pk := e.PrimaryKey()
	cols := make([]string, len(pk))
	for i, f := range pk {
		cols[i] = strings.ToLower(f.ColumnName())
	}
	return cols
}

func (d *EntityDiff) compareIndices() {
	old := make(map[string]*model.Index)
	for _, idx := range d.From.AllIndices() {
		old[strings.ToLower(idx.IndexName())] = idx
	}
	seen := make(map[string]bool)
	for _, idx := range d.To.AllIndices() {
		key := strings.ToLower(idx.IndexName())
		seen[key] = true
		prev, ok := old[key]
		switch {
		case !ok:
			d.AddedIndices = append(d.AddedIndices, idx)
		case !prev.SameMembers(idx):
			d.ModifiedIndices = append(d.ModifiedIndices, &IndexDiff{From: prev, To: idx})
		}
	}
	for _, idx := range d.From.AllIndices() {
		if !seen[strings.ToLower(idx.IndexName())] {
			d.RemovedIndices = append(d.RemovedIndices, idx)
		}
	}
}

func (d *EntityDiff) compareRelations() {
	old := make(map[string]*model.Relation)
	for _, r := range d.From.Relations {
		old[r.ShapeKey()] = r
	}
	seen := make(map[string]bool)
	for _, r := range d.To.Relations {
		key := r.ShapeKey()
		seen[key] = true
		prev, ok := old[key]
		switch {
		case !ok:
			d.AddedRelations = append(d.AddedRelations, r)
		case action(prev.OnDelete) != action(r.OnDelete) || action(prev.OnUpdate) != action(r.OnUpdate):
			d.ModifiedRelations = append(d.ModifiedRelations, &RelationDiff{From: prev, To: r})
		}
	}
	for _, r := range d.From.Relations {
		if !seen[r.ShapeKey()] {
			d.RemovedRelations = append(d.RemovedRelations, r)
		}
	}
}

// action normalizes a referential action; no action is the default.
func action(a string) string {
	a = strings.ToUpper(strings.TrimSpace(a))
	if a == model.ActionNoAction {
		return model.ActionNone
	}
	return a
}

// IsEmpty reports if the diff holds no change.
func (d *EntityDiff) IsEmpty() bool {
	return len(d.AddedFields) == 0 && len(d.RemovedFields) == 0 &&
		len(d.ModifiedFields) == 0 && len(d.RenamedFields) == 0 && !d.PKChanged &&
		len(d.AddedIndices) == 0 && len(d.RemovedIndices) == 0 && len(d.ModifiedIndices) == 0 &&
		len(d.AddedRelations) == 0 && len(d.RemovedRelations) == 0 && len(d.ModifiedRelations) == 0
}

// Reverse returns the diff that undoes d.
func (d *EntityDiff) Reverse() *EntityDiff {
	r := &EntityDiff{
		From:             d.To,
		To:               d.From,
		AddedFields:      slices.Clone(d.RemovedFields),
		RemovedFields:    slices.Clone(d.AddedFields),
		PKChanged:        d.PKChanged,
		AddedIndices:     slices.Clone(d.RemovedIndices),
		RemovedIndices:   slices.Clone(d.AddedIndices),
		AddedRelations:   slices.Clone(d.RemovedRelations),
		RemovedRelations: slices.Clone(d.AddedRelations),
	}
	for _, f := range d.ModifiedFields {
		r.ModifiedFields = append(r.ModifiedFields, &FieldDiff{From: f.To, To: f.From, Changed: slices.Clone(f.Changed)})
	}
	for _, f := range d.RenamedFields {
		r.RenamedFields = append(r.RenamedFields, &FieldDiff{From: f.To, To: f.From, Changed: slices.Clone(f.Changed)})
	}
	for _, i := range d.ModifiedIndices {
		r.ModifiedIndices = append(r.ModifiedIndices, &IndexDiff{From: i.To, To: i.From})
	}
	for _, rel := range d.ModifiedRelations {
		r.ModifiedRelations = append(r.ModifiedRelations, &RelationDiff{From: rel.To, To: rel.From})
	}
	return r
}

// CompareDatabases returns the difference from one database version to the
// next. Entities are matched by table name, case-insensitively.
func CompareDatabases(from, to *model.Database, opts ...CompareOption) *DatabaseDiff {
	cfg := &compareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	d := &DatabaseDiff{From: from, To: to}
	matched := make(map[*model.Entity]bool, len(from.Entities))
	for _, ne := range to.Entities {
		oe := from.EntityByTable(ne.Table())
		if oe == nil {
			d.Added = append(d.Added, ne)
			continue
		}
		matched[oe] = true
		if ed, changed := CompareEntities(oe, ne, opts...); changed {
			d.Modified = append(d.Modified, ed)
		}
	}
	for _, oe := range from.Entities {
		if !matched[oe] {
			d.Removed = append(d.Removed, oe)
		}
	}
	if !cfg.tableRenames {
		return d
	}
	for i := 0; i < len(d.Removed); i++ {
		oe := d.Removed[i]
		j := slices.IndexFunc(d.Added, func(ne *model.Entity) bool { return sameStructure(oe, ne) })
		if j < 0 {
			continue
		}
		d.Renamed = append(d.Renamed, &EntityRename{From: oe, To: d.Added[j]})
		d.Added = slices.Delete(d.Added, j, j+1)
		d.Removed = slices.Delete(d.Removed, i, i+1)
		i--
	}
	return d
}

// sameStructure compares two entities regardless of their table name.
// Generated index names embed the table, so indices are compared by members.
func sameStructure(a, b *model.Entity) bool {
	d := &EntityDiff{From: a, To: b}
	d.compareFields(&compareConfig{})
	d.compareRelations()
	if len(d.AddedFields)+len(d.RemovedFields)+len(d.ModifiedFields)+len(d.RenamedFields) > 0 ||
		len(d.AddedRelations)+len(d.RemovedRelations)+len(d.ModifiedRelations) > 0 ||
		!slices.Equal(pkColumns(a), pkColumns(b)) {
		return false
	}
	ai, bi := a.AllIndices(), b.AllIndices()
	if len(ai) != len(bi) {
		return false
	}
	for _, x := range ai {
		if !slices.ContainsFunc(bi, x.SameMembers) {
			return false
		}
	}
	return true
}

// IsEmpty reports if the diff holds no change.
func (d *DatabaseDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Renamed) == 0 && len(d.Modified) == 0
}

// Reverse returns the diff that undoes d.
func (d *DatabaseDiff) Reverse() *DatabaseDiff {
	r := &DatabaseDiff{
		From:    d.To,
		To:      d.From,
		Added:   slices.Clone(d.Removed),
		Removed: slices.Clone(d.Added),
	}
	for _, x := range d.Renamed {
		r.Renamed = append(r.Renamed, &EntityRename{From: x.To, To: x.From})
	}
	for _, m := range d.Modified {
		r.Modified = append(r.Modified, m.Reverse())
	}
	return r
}
