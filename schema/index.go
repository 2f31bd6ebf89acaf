package schema

import (
	"slices"
	"strconv"
	"strings"
)

// IndexColumn is a member of an index with an optional prefix size.
type IndexColumn struct {
	Name string
	Size int
}

// Index is an index or, when Unique is set, a unique constraint.
type Index struct {
	Name    string // Explicit name; generated when empty
	Unique  bool
	Columns []IndexColumn
	Vendors []*Vendor

	entity *Entity
}

// NewIndex returns a non-unique index over the given fields.
func NewIndex(fields ...string) *Index {
	idx := &Index{}
	for _, f := range fields {
		idx.Columns = append(idx.Columns, IndexColumn{Name: f})
	}
	return idx
}

// NewUnique returns a unique index over the given fields.
func NewUnique(fields ...string) *Index {
	idx := NewIndex(fields...)
	idx.Unique = true
	return idx
}

// Entity returns the entity owning the index.
func (i *Index) Entity() *Entity { return i.entity }

// ColumnNames returns the physical column names of the members.
func (i *Index) ColumnNames() []string {
	cols := make([]string, len(i.Columns))
	for k, c := range i.Columns {
		cols[k] = c.Name
		if i.entity != nil {
			if f := i.entity.lookupField(c.Name); f != nil {
				cols[k] = f.ColumnName()
			}
		}
	}
	return cols
}

// IndexName returns the explicit name or the deterministic generated one:
// {table}_{i|u}_{hash}, hashing lower(columns) and sizes.
func (i *Index) IndexName() string {
	if i.Name != "" {
		return i.Name
	}
	sizes := make([]string, len(i.Columns))
	for k, c := range i.Columns {
		if c.Size > 0 {
			sizes[k] = strconv.Itoa(c.Size)
		}
	}
	key := strings.ToLower(strings.Join(i.ColumnNames(), ",")) + ":" + strings.Join(sizes, ",")
	kind := "i"
	if i.Unique {
		kind = "u"
	}
	table := ""
	if i.entity != nil {
		table = i.entity.Table()
	}
	return table + "_" + kind + "_" + shortHash(key)
}

// SameMembers reports if both indices cover the same columns, in the same
// order with the same sizes.
func (i *Index) SameMembers(o *Index) bool {
	if i.Unique != o.Unique || len(i.Columns) != len(o.Columns) {
		return false
	}
	a, b := i.ColumnNames(), o.ColumnNames()
	for k := range a {
		if !strings.EqualFold(a[k], b[k]) || i.Columns[k].Size != o.Columns[k].Size {
			return false
		}
	}
	return true
}

// Clone returns a detached deep copy of the index.
func (i *Index) Clone() *Index {
	return &Index{Name: i.Name, Unique: i.Unique, Columns: slices.Clone(i.Columns), Vendors: cloneVendors(i.Vendors)}
}
