package schema

import (
	"slices"
	"strings"

	"github.com/syssam/propel"
	"github.com/syssam/propel/internal/naming"
)

// FieldType is the abstract SQL type of a field. Platforms map it to a
// native column type.
type FieldType uint8

// Field types.
const (
	TypeInvalid FieldType = iota
	TypeBoolean
	TypeTinyInt
	TypeSmallInt
	TypeInteger
	TypeBigInt
	TypeFloat
	TypeDouble
	TypeDecimal
	TypeChar
	TypeVarchar
	TypeLongVarchar
	TypeClob
	TypeBlob
	TypeDate
	TypeTime
	TypeTimestamp
	TypeEnum
	TypeArray
	TypeObject
	TypeJSON
	TypeUUID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:     "INVALID",
	TypeBoolean:     "BOOLEAN",
	TypeTinyInt:     "TINYINT",
	TypeSmallInt:    "SMALLINT",
	TypeInteger:     "INTEGER",
	TypeBigInt:      "BIGINT",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeDecimal:     "DECIMAL",
	TypeChar:        "CHAR",
	TypeVarchar:     "VARCHAR",
	TypeLongVarchar: "LONGVARCHAR",
	TypeClob:        "CLOB",
	TypeBlob:        "BLOB",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeTimestamp:   "TIMESTAMP",
	TypeEnum:        "ENUM",
	TypeArray:       "ARRAY",
	TypeObject:      "OBJECT",
	TypeJSON:        "JSON",
	TypeUUID:        "UUID",
}

// typeAliases are alternate spellings accepted by ParseFieldType.
var typeAliases = map[string]FieldType{
	"BOOL":     TypeBoolean,
	"INT":      TypeInteger,
	"NUMERIC":  TypeDecimal,
	"REAL":     TypeDouble,
	"TEXT":     TypeLongVarchar,
	"DATETIME": TypeTimestamp,
	"STRING":   TypeVarchar,
}

// String returns the upper-case SQL name of the type.
func (t FieldType) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the type is a known type.
func (t FieldType) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the type holds numbers.
func (t FieldType) Numeric() bool {
	return t >= TypeTinyInt && t <= TypeDecimal
}

// Integer reports if the type is an integer type.
func (t FieldType) Integer() bool {
	return t >= TypeTinyInt && t <= TypeBigInt
}

// Textual reports if the type holds character data.
func (t FieldType) Textual() bool {
	return t >= TypeChar && t <= TypeClob
}

// Temporal reports if the type holds dates or times.
func (t FieldType) Temporal() bool {
	return t >= TypeDate && t <= TypeTimestamp
}

// ParseFieldType parses a case-insensitive type name.
func ParseFieldType(s string) (FieldType, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range typeNames {
		if i > 0 && name == u {
			return FieldType(i), nil
		}
	}
	if t, ok := typeAliases[u]; ok {
		return t, nil
	}
	return TypeInvalid, propel.NewInvalidArgumentError("", "", "unknown field type %q", s)
}

// Field is a column of an entity.
type Field struct {
	Name          string
	Column        string // Defaults to snake(Name)
	Type          FieldType
	Size          int
	Scale         int
	Nullable      bool
	Default       *string
	AutoIncrement bool
	PrimaryKey    bool
	Description   string
	ValueSet      []string // ENUM members
	Vendors       []*Vendor

	entity *Entity
}

// Entity returns the entity owning the field, or nil when detached.
func (f *Field) Entity() *Entity { return f.entity }

// ColumnName returns the physical column name.
func (f *Field) ColumnName() string {
	if f.Column != "" {
		return f.Column
	}
	return naming.Snake(f.Name)
}

// NotNull reports if the column rejects NULL. Primary keys are always NOT NULL.
func (f *Field) NotNull() bool {
	return !f.Nullable || f.PrimaryKey
}

// HasDefault reports if the field declares a default value.
func (f *Field) HasDefault() bool { return f.Default != nil }

// DefaultValue returns the default value, or "" when none is declared.
func (f *Field) DefaultValue() string {
	if f.Default == nil {
		return ""
	}
	return *f.Default
}

// SetDefault sets the default value.
func (f *Field) SetDefault(v string) { f.Default = &v }

// Vendor returns the vendor block for the given platform, or nil.
func (f *Field) Vendor(platform string) *Vendor {
	return findVendor(f.Vendors, platform)
}

// Clone returns a detached deep copy of the field.
func (f *Field) Clone() *Field {
	c := *f
	c.entity = nil
	if f.Default != nil {
		d := *f.Default
		c.Default = &d
	}
	c.ValueSet = slices.Clone(f.ValueSet)
	c.Vendors = cloneVendors(f.Vendors)
	return &c
}
