package schema

import (
	"context"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/propel"
	"github.com/syssam/propel/dialect"
	model "github.com/syssam/propel/schema"
)

// ToAtlas exports the model as an atlas realm with one schema named after
// the database. Column types use portable SQL names; the realm is meant for
// atlas' planners and inspectors, not for rendering DDL directly.
func ToAtlas(db *model.Database) (*schema.Realm, error) {
	s := &schema.Schema{Name: db.Name}
	tables := make(map[*model.Entity]*schema.Table, len(db.Entities))
	for _, e := range db.Entities {
		t := &schema.Table{Name: e.Table(), Schema: s}
		cols := make(map[string]*schema.Column, len(e.Fields))
		for _, f := range e.Fields {
			c := &schema.Column{
				Name: f.ColumnName(),
				Type: &schema.ColumnType{Type: atlasType(f), Null: !f.NotNull()},
			}
			if f.HasDefault() {
				c.Default = &schema.RawExpr{X: f.DefaultValue()}
			}
			t.Columns = append(t.Columns, c)
			cols[strings.ToLower(c.Name)] = c
		}
		if pk := e.PrimaryKey(); len(pk) > 0 {
			t.PrimaryKey = &schema.Index{Table: t, Unique: true}
			for i, f := range pk {
				t.PrimaryKey.Parts = append(t.PrimaryKey.Parts, &schema.IndexPart{SeqNo: i, C: cols[strings.ToLower(f.ColumnName())]})
			}
		}
		for _, idx := range e.AllIndices() {
			ai := &schema.Index{Name: idx.IndexName(), Unique: idx.Unique, Table: t}
			for i, name := range idx.ColumnNames() {
				c, ok := cols[strings.ToLower(name)]
				if !ok {
					return nil, propel.NewBuildError("atlas", e.Name, "index %q references unknown column %q", ai.Name, name)
				}
				ai.Parts = append(ai.Parts, &schema.IndexPart{SeqNo: i, C: c})
			}
			t.Indexes = append(t.Indexes, ai)
		}
		tables[e] = t
		s.Tables = append(s.Tables, t)
	}
	for _, e := range db.Entities {
		t := tables[e]
		for _, r := range e.Relations {
			fe := r.ForeignEntity()
			if fe == nil {
				return nil, propel.NewBuildError("atlas", e.Name, "relation target %q not found", r.Target)
			}
			ref := tables[fe]
			fk := &schema.ForeignKey{
				Symbol:   r.ConstraintName(),
				Table:    t,
				RefTable: ref,
				OnDelete: referenceOption(r.OnDelete),
				OnUpdate: referenceOption(r.OnUpdate),
			}
			for _, name := range r.LocalColumns() {
				if c, ok := column(t, name); ok {
					fk.Columns = append(fk.Columns, c)
				}
			}
			for _, name := range r.ForeignColumns() {
				if c, ok := column(ref, name); ok {
					fk.RefColumns = append(fk.RefColumns, c)
				}
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}
	return &schema.Realm{Schemas: []*schema.Schema{s}}, nil
}

// AtlasPlan returns the statements atlas plans for migrating from one
// database to the other on the named platform. Both sides are compared as
// the same schema, so renaming the database plans no change. Statements are
// not qualified with the schema name.
func AtlasPlan(ctx context.Context, platform string, from, to *model.Database) ([]string, error) {
	var (
		differ  schema.Differ
		planner migrate.PlanApplier
	)
	switch dialect.Normalize(platform) {
	case dialect.MySQL:
		differ, planner = mysql.DefaultDiff, mysql.DefaultPlan
	case dialect.Postgres:
		differ, planner = postgres.DefaultDiff, postgres.DefaultPlan
	case dialect.SQLite:
		differ, planner = sqlite.DefaultDiff, sqlite.DefaultPlan
	default:
		return nil, propel.NewInvalidArgumentError("", "platform", "atlas cannot plan for platform %q", platform)
	}
	cur, err := ToAtlas(from)
	if err != nil {
		return nil, err
	}
	want, err := ToAtlas(to)
	if err != nil {
		return nil, err
	}
	cur.Schemas[0].Name = want.Schemas[0].Name
	changes, err := differ.RealmDiff(cur, want)
	if err != nil {
		return nil, propel.WrapBuildError("atlas", "", err, "diff database %q", to.Name)
	}
	if len(changes) == 0 {
		return nil, nil
	}
	plan, err := planner.PlanChanges(ctx, to.Name, changes, func(o *migrate.PlanOptions) {
		o.SchemaQualifier = new(string)
	})
	if err != nil {
		return nil, propel.WrapBuildError("atlas", "", err, "plan database %q", to.Name)
	}
	stmts := make([]string, len(plan.Changes))
	for i, c := range plan.Changes {
		stmts[i] = c.Cmd
	}
	return stmts, nil
}

func column(t *schema.Table, name string) (*schema.Column, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

func referenceOption(a string) schema.ReferenceOption {
	switch action(a) {
	case model.ActionCascade:
		return schema.Cascade
	case model.ActionSetNull:
		return schema.SetNull
	case model.ActionRestrict:
		return schema.Restrict
	default:
		return schema.NoAction
	}
}

func atlasType(f *model.Field) schema.Type {
	t := strings.ToLower(f.Type.String())
	switch f.Type {
	case model.TypeBoolean:
		return &schema.BoolType{T: "boolean"}
	case model.TypeTinyInt, model.TypeSmallInt, model.TypeInteger, model.TypeBigInt:
		return &schema.IntegerType{T: t}
	case model.TypeFloat, model.TypeDouble:
		return &schema.FloatType{T: t}
	case model.TypeDecimal:
		return &schema.DecimalType{T: t, Precision: f.Size, Scale: f.Scale}
	case model.TypeChar, model.TypeVarchar:
		return &schema.StringType{T: t, Size: f.Size}
	case model.TypeLongVarchar, model.TypeClob:
		return &schema.StringType{T: "text"}
	case model.TypeBlob:
		return &schema.BinaryType{T: "blob"}
	case model.TypeDate, model.TypeTime, model.TypeTimestamp:
		return &schema.TimeType{T: t}
	case model.TypeEnum:
		return &schema.EnumType{T: "enum", Values: f.ValueSet}
	case model.TypeJSON, model.TypeObject, model.TypeArray:
		return &schema.JSONType{T: "json"}
	case model.TypeUUID:
		return &schema.UUIDType{T: "uuid"}
	default:
		return &schema.UnsupportedType{T: t}
	}
}
