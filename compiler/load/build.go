package load

import (
	"strings"

	"github.com/syssam/propel"
	"github.com/syssam/propel/schema"
)

// Database builds a schema.Database from a loaded mapping. External schemas
// are recorded but not resolved; Reader resolves them.
func Database(m map[string]any) (*schema.Database, error) {
	db := schema.NewDatabase(str(m, "name"))
	db.Platform = str(m, "platform")
	db.Namespace = str(m, "namespace")
	db.Package = str(m, "package")
	db.DefaultIDMethod = str(m, "defaultIdMethod", "idMethod")
	db.Vendors = vendors(m)
	for _, bm := range list(m, "behaviors") {
		db.AddBehavior(behaviorSpec(bm))
	}
	for _, xm := range list(m, "externalSchemas") {
		if f := str(xm, "filename", "name"); f != "" {
			db.ExternalSchemas = append(db.ExternalSchemas, f)
		}
	}
	for _, em := range list(m, "entities") {
		e, err := entity(em)
		if err != nil {
			return nil, err
		}
		if err := db.AddEntity(e); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func entity(m map[string]any) (*schema.Entity, error) {
	e := schema.NewEntity(str(m, "name", "phpName"))
	if e.Name == "" {
		return nil, propel.NewInvalidArgumentError("", "", "entity without a name")
	}
	e.TableName = str(m, "tableName", "table")
	e.Namespace = str(m, "namespace")
	e.Description = str(m, "description")
	e.IDMethod = str(m, "idMethod")
	var err error
	if e.ReadOnly, err = boolean(m, false, "readOnly"); err != nil {
		return nil, propel.NewInvalidArgumentError(e.Name, "", "%v", err)
	}
	if e.IsCrossRef, err = boolean(m, false, "isCrossRef", "crossRef"); err != nil {
		return nil, propel.NewInvalidArgumentError(e.Name, "", "%v", err)
	}
	e.Vendors = vendors(m)
	for _, fm := range list(m, "fields") {
		f, err := field(e.Name, fm)
		if err != nil {
			return nil, err
		}
		if err := e.AddField(f); err != nil {
			return nil, err
		}
	}
	for _, rm := range list(m, "relations") {
		r := &schema.Relation{
			Name:        str(rm, "name", "phpName"),
			RefName:     str(rm, "refName", "refPhpName"),
			Target:      str(rm, "target", "foreignTable", "foreignEntity"),
			OnDelete:    action(str(rm, "onDelete")),
			OnUpdate:    action(str(rm, "onUpdate")),
			DefaultJoin: str(rm, "defaultJoin"),
			Constraint:  str(rm, "constraint"),
			Vendors:     vendors(rm),
		}
		for _, ref := range list(rm, "references") {
			r.References = append(r.References, &schema.Reference{Local: str(ref, "local"), Foreign: str(ref, "foreign")})
		}
		if err := e.AddRelation(r); err != nil {
			return nil, err
		}
	}
	for _, key := range []string{"indices", "uniques"} {
		for _, im := range list(m, key) {
			idx, err := index(e.Name, im, key == "uniques")
			if err != nil {
				return nil, err
			}
			if err := e.AddIndex(idx); err != nil {
				return nil, err
			}
		}
	}
	for _, bm := range list(m, "behaviors") {
		e.AddBehavior(behaviorSpec(bm))
	}
	return e, nil
}

func field(entity string, m map[string]any) (*schema.Field, error) {
	f := &schema.Field{
		Name:        str(m, "name"),
		Column:      str(m, "column", "columnName"),
		Description: str(m, "description"),
		ValueSet:    stringList(m, "valueSet", "values"),
		Vendors:     vendors(m),
	}
	typ := str(m, "type")
	if typ == "" {
		typ = schema.TypeVarchar.String()
	}
	var err error
	if f.Type, err = schema.ParseFieldType(typ); err != nil {
		return nil, propel.NewInvalidArgumentError(entity, f.Name, "unknown field type %q", typ)
	}
	wrap := func(err error) error { return propel.NewInvalidArgumentError(entity, f.Name, "%v", err) }
	if f.Size, err = integer(m, "size"); err != nil {
		return nil, wrap(err)
	}
	if f.Scale, err = integer(m, "scale"); err != nil {
		return nil, wrap(err)
	}
	if f.PrimaryKey, err = boolean(m, false, "primaryKey"); err != nil {
		return nil, wrap(err)
	}
	if f.AutoIncrement, err = boolean(m, false, "autoIncrement"); err != nil {
		return nil, wrap(err)
	}
	required, err := boolean(m, false, "required")
	if err != nil {
		return nil, wrap(err)
	}
	if f.Nullable, err = boolean(m, !required && !f.PrimaryKey, "nullable"); err != nil {
		return nil, wrap(err)
	}
	if has(m, "default", "defaultValue") {
		f.SetDefault(str(m, "default", "defaultValue"))
	}
	return f, nil
}

func index(entity string, m map[string]any, unique bool) (*schema.Index, error) {
	idx := &schema.Index{Name: str(m, "name"), Unique: unique, Vendors: vendors(m)}
	if _, ok := m["columns"].(string); ok {
		// Shorthand: columns: "a, b"
		for _, c := range stringList(m, "columns") {
			idx.Columns = append(idx.Columns, schema.IndexColumn{Name: c})
		}
		return idx, nil
	}
	for _, cm := range list(m, "columns", "fields") {
		size, err := integer(cm, "size")
		if err != nil {
			return nil, propel.NewInvalidArgumentError(entity, str(cm, "name"), "%v", err)
		}
		idx.Columns = append(idx.Columns, schema.IndexColumn{Name: str(cm, "name"), Size: size})
	}
	return idx, nil
}

func behaviorSpec(m map[string]any) *schema.BehaviorSpec {
	return &schema.BehaviorSpec{Name: str(m, "name"), ID: str(m, "id"), Parameters: parameters(m)}
}

func vendors(m map[string]any) []*schema.Vendor {
	var vs []*schema.Vendor
	for _, vm := range list(m, "vendors") {
		vs = append(vs, &schema.Vendor{Type: str(vm, "type"), Parameters: parameters(vm)})
	}
	return vs
}

func action(s string) string {
	switch u := strings.ToUpper(strings.TrimSpace(s)); u {
	case "", "NONE":
		return schema.ActionNone
	case "SETNULL":
		return schema.ActionSetNull
	case "NOACTION":
		return schema.ActionNoAction
	default:
		return u
	}
}
