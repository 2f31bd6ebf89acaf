package graphql

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/compiler/gen"
	"github.com/syssam/propel/internal/naming"
	"github.com/syssam/propel/schema"
)

// Custom scalars used by the default type mapping.
const (
	ScalarTime  = "Time"
	ScalarInt64 = "Int64"
	ScalarMap   = "Map"
	ScalarBytes = "Bytes"
	ScalarUUID  = "UUID"
)

var builtinScalars = []string{"ID", "Int", "Float", "String", "Boolean"}

var errTypeRef = errors.New("malformed type reference")

// Emitter builds GraphQL schema documents.
type Emitter struct {
	pluralizer gen.Pluralizer
	modelPkg   string
	queries    bool
	mutations  bool
	logger     *slog.Logger
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithPluralizer sets the pluralizer of list and relation field names.
func WithPluralizer(p gen.Pluralizer) Option {
	return func(e *Emitter) { e.pluralizer = p }
}

// WithModelPackage binds object types to the generated Go structs of pkg
// through gqlgen's @goModel directive.
func WithModelPackage(pkg string) Option {
	return func(e *Emitter) { e.modelPkg = pkg }
}

// WithoutQueries omits the Query root type.
func WithoutQueries() Option {
	return func(e *Emitter) { e.queries = false }
}

// WithoutMutations omits the Mutation root type and the input types.
func WithoutMutations() Option {
	return func(e *Emitter) { e.mutations = false }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Emitter) { e.logger = l }
}

// NewEmitter returns an emitter with queries and mutations enabled.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		pluralizer: gen.StandardPluralizer{},
		queries:    true,
		mutations:  true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// typeInfo is the resolved GraphQL view of one entity.
type typeInfo struct {
	entity *schema.Entity
	name   string
	skip   SkipMode
	fields []*fieldInfo
}

type fieldInfo struct {
	field *schema.Field
	name  string
	typ   *ast.Type
}

// build holds the state of one Emit call.
type build struct {
	*Emitter
	doc     *ast.SchemaDocument
	types   map[string]*typeInfo
	names   map[string]string
	scalars map[string]bool
}

// Emit returns the schema document of a linked database.
func (e *Emitter) Emit(db *schema.Database) (*ast.SchemaDocument, error) {
	b := &build{
		Emitter: e,
		doc:     &ast.SchemaDocument{},
		types:   make(map[string]*typeInfo),
		names:   make(map[string]string),
		scalars: make(map[string]bool),
	}
	var infos []*typeInfo
	for _, ent := range db.Entities {
		ti, err := b.resolve(ent)
		if err != nil {
			return nil, err
		}
		if ti.skip.Is(SkipType) {
			e.logger.Debug("graphql type skipped", "entity", ent.Name)
			continue
		}
		if err := gen.CheckRelationNames(ent, e.pluralizer); err != nil {
			return nil, err
		}
		if err := b.claim(ti.name, "entity "+ent.Name); err != nil {
			return nil, err
		}
		b.types[ent.Name] = ti
		infos = append(infos, ti)
	}
	var defs ast.DefinitionList
	for _, ti := range infos {
		enums, err := b.enums(ti)
		if err != nil {
			return nil, err
		}
		defs = append(defs, b.object(ti))
		defs = append(defs, enums...)
	}
	var roots ast.DefinitionList
	if e.queries {
		if q := b.query(infos); len(q.Fields) > 0 {
			roots = append(roots, q)
		}
	}
	if e.mutations {
		inputs, m, err := b.mutation(infos)
		if err != nil {
			return nil, err
		}
		defs = append(defs, inputs...)
		if len(m.Fields) > 0 {
			roots = append(roots, m)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(b.scalars)) {
		b.doc.Definitions = append(b.doc.Definitions, &ast.Definition{Kind: ast.Scalar, Name: name})
	}
	if e.modelPkg != "" {
		b.doc.Directives = append(b.doc.Directives, goModelDirective())
	}
	b.doc.Definitions = append(b.doc.Definitions, defs...)
	b.doc.Definitions = append(b.doc.Definitions, roots...)
	e.logger.Debug("graphql schema emitted", "database", db.Name, "types", len(infos), "definitions", len(b.doc.Definitions))
	return b.doc, nil
}

// Format returns the SDL of db. The text is validated before it is
// returned.
func (e *Emitter) Format(db *schema.Database) (string, error) {
	doc, err := e.Emit(db)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	sdl := buf.String()
	if _, err := Validate(db.Name, sdl); err != nil {
		return "", err
	}
	return sdl, nil
}

// Write writes the SDL of db to w.
func (e *Emitter) Write(w io.Writer, db *schema.Database) error {
	sdl, err := e.Format(db)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, sdl); err != nil {
		return propel.NewIOError("write", db.Name+".graphql", err)
	}
	return nil
}

// Validate loads sdl with the GraphQL built-ins and returns the schema.
func Validate(name, sdl string) (*ast.Schema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name + ".graphql", Input: sdl})
	if err != nil {
		return nil, propel.WrapBuildError("graphql", "", err, "invalid schema %q", name)
	}
	return s, nil
}

func (b *build) claim(name, owner string) error {
	if prev, ok := b.names[name]; ok {
		return propel.NewBuildError("graphql", "", "type name %q of %s collides with %s", name, owner, prev)
	}
	b.names[name] = owner
	return nil
}

func (b *build) resolve(ent *schema.Entity) (*typeInfo, error) {
	a, err := EntityAnnotation(ent)
	if err != nil {
		return nil, err
	}
	ti := &typeInfo{entity: ent, name: class.TypeName(ent), skip: a.Skip}
	if a.Name != "" {
		ti.name = a.Name
	}
	if ent.ReadOnly {
		ti.skip |= SkipMutations
	}
	pk := ent.PrimaryKey()
	for _, f := range ent.Fields {
		fa, err := FieldAnnotation(f)
		if err != nil {
			return nil, err
		}
		if fa.Skip.Is(SkipType) {
			continue
		}
		fi := &fieldInfo{field: f, name: naming.Camel(f.Name)}
		if fa.Name != "" {
			fi.name = fa.Name
		}
		switch {
		case fa.Type != "":
			if fi.typ, err = parseType(fa.Type); err != nil {
				return nil, propel.NewInvalidArgumentError(ent.Name, f.Name, "graphql type %q: %v", fa.Type, err)
			}
		default:
			fi.typ = b.fieldType(ti, f, len(pk) == 1 && f.PrimaryKey)
		}
		ti.fields = append(ti.fields, fi)
	}
	return ti, nil
}

// fieldType maps a column to its GraphQL type. The sole primary key of an
// entity is an ID.
func (b *build) fieldType(ti *typeInfo, f *schema.Field, id bool) *ast.Type {
	var name string
	switch {
	case id:
		name = "ID"
	case f.Type == schema.TypeBoolean:
		name = "Boolean"
	case f.Type == schema.TypeBigInt:
		name = ScalarInt64
	case f.Type.Integer():
		name = "Int"
	case f.Type.Numeric():
		name = "Float"
	case f.Type.Temporal():
		name = ScalarTime
	case f.Type == schema.TypeEnum:
		name = enumName(ti, f)
	case f.Type == schema.TypeBlob:
		name = ScalarBytes
	case f.Type == schema.TypeJSON, f.Type == schema.TypeObject:
		name = ScalarMap
	case f.Type == schema.TypeUUID:
		name = ScalarUUID
	case f.Type == schema.TypeArray:
		return nullable(f, ast.NonNullListType(ast.NonNullNamedType("String", nil), nil))
	default:
		name = "String"
	}
	return nullable(f, ast.NonNullNamedType(name, nil))
}

func nullable(f *schema.Field, t *ast.Type) *ast.Type {
	if !f.NotNull() {
		t.NonNull = false
	}
	return t
}

func enumName(ti *typeInfo, f *schema.Field) string {
	return ti.name + class.FieldName(f)
}

// parseType parses a type reference such as "[String!]!".
func parseType(s string) (*ast.Type, error) {
	s = strings.TrimSpace(s)
	nonNull := strings.HasSuffix(s, "!")
	s = strings.TrimSuffix(s, "!")
	var t *ast.Type
	switch {
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		elem, err := parseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		t = ast.ListType(elem, nil)
	case validName(s):
		t = ast.NamedType(s, nil)
	default:
		return nil, errTypeRef
	}
	t.NonNull = nonNull
	return t, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// use records the scalar behind t when it is not a built-in or known type.
func (b *build) use(t *ast.Type) {
	for t.Elem != nil {
		t = t.Elem
	}
	if slices.Contains(builtinScalars, t.NamedType) {
		return
	}
	if _, ok := b.names[t.NamedType]; ok {
		return
	}
	if b.isEnum(t.NamedType) {
		return
	}
	b.scalars[t.NamedType] = true
}

func (b *build) isEnum(name string) bool {
	for _, ti := range b.types {
		for _, fi := range ti.fields {
			if fi.field.Type == schema.TypeEnum && enumName(ti, fi.field) == name {
				return true
			}
		}
	}
	return false
}

func (b *build) object(ti *typeInfo) *ast.Definition {
	def := &ast.Definition{
		Kind:        ast.Object,
		Name:        ti.name,
		Description: ti.entity.Description,
	}
	if b.modelPkg != "" {
		def.Directives = append(def.Directives, goModel(b.modelPkg+"."+class.TypeName(ti.entity)))
	}
	for _, fi := range ti.fields {
		b.use(fi.typ)
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:        fi.name,
			Description: fi.field.Description,
			Type:        fi.typ,
		})
	}
	ent := ti.entity
	for _, r := range ent.Relations {
		target, ok := b.types[r.Target]
		if !ok {
			continue
		}
		t := ast.NamedType(target.name, nil)
		t.NonNull = !slices.ContainsFunc(r.LocalFields(), func(f *schema.Field) bool { return !f.NotNull() })
		def.Fields = append(def.Fields, &ast.FieldDefinition{Name: naming.Camel(gen.RelationName(r)), Type: t})
	}
	for _, r := range ent.Referrers {
		src, ok := b.types[r.Entity().Name]
		if !ok {
			continue
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name: naming.Camel(gen.ReferrerCollection(r, b.pluralizer)),
			Type: ast.NonNullListType(ast.NonNullNamedType(src.name, nil), nil),
		})
	}
	for _, cr := range ent.CrossRelations {
		target, ok := b.types[cr.Target().Name]
		if !ok {
			continue
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name: naming.Camel(gen.CrossCollection(cr, b.pluralizer)),
			Type: ast.NonNullListType(ast.NonNullNamedType(target.name, nil), nil),
		})
	}
	return def
}

func (b *build) enums(ti *typeInfo) (ast.DefinitionList, error) {
	var defs ast.DefinitionList
	for _, fi := range ti.fields {
		f := fi.field
		if f.Type != schema.TypeEnum || fi.typ.Name() != enumName(ti, f) {
			continue
		}
		name := enumName(ti, f)
		if err := b.claim(name, "enum "+ti.entity.Name+"."+f.Name); err != nil {
			return nil, err
		}
		def := &ast.Definition{Kind: ast.Enum, Name: name}
		seen := make(map[string]string, len(f.ValueSet))
		for _, v := range f.ValueSet {
			ev := enumValue(v)
			if prev, ok := seen[ev]; ok {
				return nil, propel.NewBuildError("graphql", ti.entity.Name, "enum values %q and %q of %s both map to %s", prev, v, f.Name, ev)
			}
			seen[ev] = v
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: ev})
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// enumValue converts a schema value set member to an upper snake enum value.
func enumValue(v string) string {
	var sb strings.Builder
	for _, r := range naming.Snake(strings.TrimSpace(v)) {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r - 'a' + 'A')
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	switch {
	case s == "":
		return "_"
	case s[0] >= '0' && s[0] <= '9', s == "TRUE", s == "FALSE", s == "NULL":
		return "_" + s
	}
	return s
}

func (b *build) query(infos []*typeInfo) *ast.Definition {
	q := &ast.Definition{Kind: ast.Object, Name: "Query"}
	for _, ti := range infos {
		if ti.skip.Is(SkipQuery) {
			continue
		}
		single := naming.LowerFirst(ti.name)
		if args := b.pkArgs(ti); len(args) > 0 {
			q.Fields = append(q.Fields, &ast.FieldDefinition{
				Name:      single,
				Arguments: args,
				Type:      ast.NamedType(ti.name, nil),
			})
		}
		q.Fields = append(q.Fields, &ast.FieldDefinition{
			Name: naming.LowerFirst(b.pluralizer.Plural(ti.name)),
			Arguments: ast.ArgumentDefinitionList{
				{Name: "limit", Type: ast.NamedType("Int", nil)},
				{Name: "offset", Type: ast.NamedType("Int", nil)},
			},
			Type: ast.NonNullListType(ast.NonNullNamedType(ti.name, nil), nil),
		})
	}
	return q
}

// pkArgs returns the lookup arguments of ti, one per primary key column.
func (b *build) pkArgs(ti *typeInfo) ast.ArgumentDefinitionList {
	var args ast.ArgumentDefinitionList
	for _, fi := range ti.fields {
		if !fi.field.PrimaryKey {
			continue
		}
		t := *fi.typ
		t.NonNull = true
		args = append(args, &ast.ArgumentDefinition{Name: fi.name, Type: &t})
	}
	if len(args) != len(ti.entity.PrimaryKey()) {
		return nil
	}
	return args
}

func (b *build) mutation(infos []*typeInfo) (ast.DefinitionList, *ast.Definition, error) {
	m := &ast.Definition{Kind: ast.Object, Name: "Mutation"}
	var inputs ast.DefinitionList
	for _, ti := range infos {
		args := b.pkArgs(ti)
		if !ti.skip.Is(SkipMutationCreate) {
			in, err := b.input(ti, "Create"+ti.name+"Input", true)
			if err != nil {
				return nil, nil, err
			}
			if len(in.Fields) > 0 {
				inputs = append(inputs, in)
				m.Fields = append(m.Fields, &ast.FieldDefinition{
					Name:      "create" + ti.name,
					Arguments: ast.ArgumentDefinitionList{{Name: "input", Type: ast.NonNullNamedType(in.Name, nil)}},
					Type:      ast.NonNullNamedType(ti.name, nil),
				})
			}
		}
		if len(args) == 0 {
			continue
		}
		if !ti.skip.Is(SkipMutationUpdate) {
			in, err := b.input(ti, "Update"+ti.name+"Input", false)
			if err != nil {
				return nil, nil, err
			}
			if len(in.Fields) > 0 {
				inputs = append(inputs, in)
				m.Fields = append(m.Fields, &ast.FieldDefinition{
					Name:      "update" + ti.name,
					Arguments: append(slices.Clone(args), &ast.ArgumentDefinition{Name: "input", Type: ast.NonNullNamedType(in.Name, nil)}),
					Type:      ast.NonNullNamedType(ti.name, nil),
				})
			}
		}
		if !ti.skip.Is(SkipMutationDelete) {
			m.Fields = append(m.Fields, &ast.FieldDefinition{
				Name:      "delete" + ti.name,
				Arguments: slices.Clone(args),
				Type:      ast.NonNullNamedType("Boolean", nil),
			})
		}
	}
	return inputs, m, nil
}

// input builds a create or update input. Create inputs require the non null
// columns without a default; update inputs are fully optional and leave the
// primary key out.
func (b *build) input(ti *typeInfo, name string, create bool) (*ast.Definition, error) {
	if err := b.claim(name, "input of "+ti.entity.Name); err != nil {
		return nil, err
	}
	def := &ast.Definition{Kind: ast.InputObject, Name: name}
	if b.modelPkg != "" {
		def.Directives = append(def.Directives, goModel(b.modelPkg+"."+class.TypeName(ti.entity)))
	}
	for _, fi := range ti.fields {
		f := fi.field
		if f.AutoIncrement || !create && f.PrimaryKey {
			continue
		}
		t := *fi.typ
		t.NonNull = create && f.NotNull() && !f.HasDefault()
		def.Fields = append(def.Fields, &ast.FieldDefinition{Name: fi.name, Type: &t})
	}
	return def, nil
}

func goModel(model string) *ast.Directive {
	return &ast.Directive{
		Name: "goModel",
		Arguments: ast.ArgumentList{
			{Name: "model", Value: &ast.Value{Kind: ast.StringValue, Raw: model}},
		},
	}
}

func goModelDirective() *ast.DirectiveDefinition {
	return &ast.DirectiveDefinition{
		Name: "goModel",
		Arguments: ast.ArgumentDefinitionList{
			{Name: "model", Type: ast.NamedType("String", nil)},
			{Name: "models", Type: ast.ListType(ast.NonNullNamedType("String", nil), nil)},
		},
		Locations: []ast.DirectiveLocation{
			ast.LocationObject,
			ast.LocationInputObject,
			ast.LocationScalar,
			ast.LocationEnum,
			ast.LocationInterface,
			ast.LocationUnion,
		},
	}
}
