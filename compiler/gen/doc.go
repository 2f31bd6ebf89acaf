// Package gen turns a linked, behavior-prepared schema into Go source.
//
// # Architecture
//
// Every entity is run through one pipeline per builder type:
//
//	schema.Entity
//	      ↓
//	Builder.Build(entity, BuilderType)  components add members in order
//	      ↓
//	class.Definition                     behaviors inject methods and hook code
//	      ↓
//	jen.File → goimports → Writer        parallel, one file per (entity, type)
//
// # Builder types
//
//   - Object: the row struct with accessors, modified tracking, relation
//     accessors and collections
//   - Query: a SELECT builder with Where, OrderBy, FilterBy and Join methods
//   - Repository: Save, Delete and FindByPK against an Executor
//   - EntityMap: table metadata available at run time
//   - Proxy: a lazily loaded object
//
// Each namespace package also gets a shared propel.go file declaring the
// Executor interface, ErrNotFound, ErrReadOnlyEntity and the placeholder
// helper the other files use.
//
// # Usage
//
//	cfg, err := gen.NewConfig(
//		gen.WithOutputDir("./model"),
//		gen.WithPlatform("pgsql"),
//	)
//	if err != nil {
//		return err
//	}
//	g, err := gen.New(cfg, engine)
//	if err != nil {
//		return err
//	}
//	files, err := g.Generate(ctx, db)
//
// The component list of a builder type can be replaced with WithComponents,
// for example to generate objects without relation accessors.
package gen
