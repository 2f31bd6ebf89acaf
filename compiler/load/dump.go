package load

import (
	"encoding/xml"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/propel"
	"github.com/syssam/propel/schema"
)

type (
	xmlDatabase struct {
		XMLName         xml.Name      `xml:"database"`
		Name            string        `xml:"name,attr"`
		Platform        string        `xml:"platform,attr,omitempty"`
		Namespace       string        `xml:"namespace,attr,omitempty"`
		Package         string        `xml:"package,attr,omitempty"`
		DefaultIDMethod string        `xml:"defaultIdMethod,attr,omitempty"`
		Vendors         []xmlVendor   `xml:"vendor"`
		Behaviors       []xmlBehavior `xml:"behavior"`
		Entities        []xmlEntity   `xml:"entity"`
	}
	xmlEntity struct {
		Name        string        `xml:"name,attr"`
		TableName   string        `xml:"tableName,attr,omitempty"`
		Namespace   string        `xml:"namespace,attr,omitempty"`
		IDMethod    string        `xml:"idMethod,attr,omitempty"`
		ReadOnly    bool          `xml:"readOnly,attr,omitempty"`
		IsCrossRef  bool          `xml:"isCrossRef,attr,omitempty"`
		Description string        `xml:"description,attr,omitempty"`
		Vendors     []xmlVendor   `xml:"vendor"`
		Fields      []xmlField    `xml:"field"`
		Relations   []xmlRelation `xml:"relation"`
		Indices     []xmlIndex    `xml:"index"`
		Uniques     []xmlUnique   `xml:"unique"`
		Behaviors   []xmlBehavior `xml:"behavior"`
	}
	xmlField struct {
		Name          string      `xml:"name,attr"`
		Column        string      `xml:"column,attr,omitempty"`
		Type          string      `xml:"type,attr"`
		Size          int         `xml:"size,attr,omitempty"`
		Scale         int         `xml:"scale,attr,omitempty"`
		PrimaryKey    bool        `xml:"primaryKey,attr,omitempty"`
		AutoIncrement bool        `xml:"autoIncrement,attr,omitempty"`
		Nullable      bool        `xml:"nullable,attr"`
		Default       *string     `xml:"default,attr,omitempty"`
		ValueSet      string      `xml:"valueSet,attr,omitempty"`
		Description   string      `xml:"description,attr,omitempty"`
		Vendors       []xmlVendor `xml:"vendor"`
	}
	xmlRelation struct {
		Target      string         `xml:"target,attr"`
		Name        string         `xml:"name,attr,omitempty"`
		RefName     string         `xml:"refName,attr,omitempty"`
		OnDelete    string         `xml:"onDelete,attr,omitempty"`
		OnUpdate    string         `xml:"onUpdate,attr,omitempty"`
		DefaultJoin string         `xml:"defaultJoin,attr,omitempty"`
		Constraint  string         `xml:"constraint,attr,omitempty"`
		References  []xmlReference `xml:"reference"`
		Vendors     []xmlVendor    `xml:"vendor"`
	}
	xmlReference struct {
		Local   string `xml:"local,attr"`
		Foreign string `xml:"foreign,attr"`
	}
	xmlIndex struct {
		Name    string      `xml:"name,attr,omitempty"`
		Columns []xmlColumn `xml:"index-column"`
	}
	xmlUnique struct {
		Name    string      `xml:"name,attr,omitempty"`
		Columns []xmlColumn `xml:"unique-column"`
	}
	xmlColumn struct {
		Name string `xml:"name,attr"`
		Size int    `xml:"size,attr,omitempty"`
	}
	xmlBehavior struct {
		Name       string         `xml:"name,attr"`
		ID         string         `xml:"id,attr,omitempty"`
		Parameters []xmlParameter `xml:"parameter"`
	}
	xmlVendor struct {
		Type       string         `xml:"type,attr"`
		Parameters []xmlParameter `xml:"parameter"`
	}
	xmlParameter struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value,attr"`
	}
)

// DumpXML serializes the model back to a schema document. Reading the output
// reproduces an equal model. External schemas are inlined.
func DumpXML(db *schema.Database) ([]byte, error) {
	x := xmlDatabase{
		Name:            db.Name,
		Platform:        db.Platform,
		Namespace:       db.Namespace,
		Package:         db.Package,
		DefaultIDMethod: db.DefaultIDMethod,
		Vendors:         dumpVendors(db.Vendors),
		Behaviors:       dumpBehaviors(db.Behaviors),
	}
	for _, e := range db.Entities {
		x.Entities = append(x.Entities, dumpEntity(e))
	}
	out, err := xml.MarshalIndent(x, "", "  ")
	if err != nil {
		return nil, propel.WrapBuildError("dump", db.Name, err, "marshal schema")
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func dumpEntity(e *schema.Entity) xmlEntity {
	x := xmlEntity{
		Name:        e.Name,
		TableName:   e.TableName,
		Namespace:   e.Namespace,
		IDMethod:    e.IDMethod,
		ReadOnly:    e.ReadOnly,
		IsCrossRef:  e.IsCrossRef,
		Description: e.Description,
		Vendors:     dumpVendors(e.Vendors),
		Behaviors:   dumpBehaviors(e.Behaviors),
	}
	for _, f := range e.Fields {
		x.Fields = append(x.Fields, xmlField{
			Name:          f.Name,
			Column:        f.Column,
			Type:          f.Type.String(),
			Size:          f.Size,
			Scale:         f.Scale,
			PrimaryKey:    f.PrimaryKey,
			AutoIncrement: f.AutoIncrement,
			Nullable:      f.Nullable,
			Default:       f.Default,
			ValueSet:      strings.Join(f.ValueSet, ","),
			Description:   f.Description,
			Vendors:       dumpVendors(f.Vendors),
		})
	}
	for _, r := range e.Relations {
		xr := xmlRelation{
			Target:      r.Target,
			Name:        r.Name,
			RefName:     r.RefName,
			OnDelete:    r.OnDelete,
			OnUpdate:    r.OnUpdate,
			DefaultJoin: r.DefaultJoin,
			Constraint:  r.Constraint,
			Vendors:     dumpVendors(r.Vendors),
		}
		for _, ref := range r.References {
			xr.References = append(xr.References, xmlReference{Local: ref.Local, Foreign: ref.Foreign})
		}
		x.Relations = append(x.Relations, xr)
	}
	for _, idx := range e.Indices {
		x.Indices = append(x.Indices, xmlIndex{Name: idx.Name, Columns: dumpColumns(idx)})
	}
	for _, idx := range e.Uniques {
		x.Uniques = append(x.Uniques, xmlUnique{Name: idx.Name, Columns: dumpColumns(idx)})
	}
	return x
}

func dumpColumns(idx *schema.Index) []xmlColumn {
	cols := make([]xmlColumn, len(idx.Columns))
	for i, c := range idx.Columns {
		cols[i] = xmlColumn{Name: c.Name, Size: c.Size}
	}
	return cols
}

func dumpBehaviors(bs []*schema.BehaviorSpec) []xmlBehavior {
	var out []xmlBehavior
	for _, b := range bs {
		out = append(out, xmlBehavior{Name: b.Name, ID: b.ID, Parameters: dumpParameters(b.Parameters)})
	}
	return out
}

func dumpVendors(vs []*schema.Vendor) []xmlVendor {
	var out []xmlVendor
	for _, v := range vs {
		out = append(out, xmlVendor{Type: v.Type, Parameters: dumpParameters(v.Parameters)})
	}
	return out
}

// dumpParameters sorts by name so the output is stable.
func dumpParameters(params map[string]string) []xmlParameter {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]xmlParameter, len(keys))
	for i, k := range keys {
		out[i] = xmlParameter{Name: k, Value: params[k]}
	}
	return out
}

// Summary is a comparable digest of a model, used to check that two reads of
// equivalent documents agree.
type Summary struct {
	Entities  []string
	Relations int
	Fields    map[string]string
}

// Summarize returns the digest of db. Field entries are keyed entity.field
// and hold every attribute that affects DDL.
func Summarize(db *schema.Database) Summary {
	s := Summary{Fields: make(map[string]string)}
	for _, e := range db.Entities {
		s.Entities = append(s.Entities, e.Name)
		s.Relations += len(e.Relations)
		for _, f := range e.Fields {
			s.Fields[e.Name+"."+f.Name] = strings.Join([]string{
				f.ColumnName(), f.Type.String(), strconv.Itoa(f.Size), strconv.Itoa(f.Scale),
				strconv.FormatBool(f.Nullable), strconv.FormatBool(f.PrimaryKey),
				strconv.FormatBool(f.AutoIncrement), f.DefaultValue(), strings.Join(f.ValueSet, ","),
			}, "|")
		}
	}
	return s
}
