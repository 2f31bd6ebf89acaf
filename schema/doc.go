// Package schema is the in-memory model every propel stage reads and writes.
//
// A Database owns its Entities in insertion order. Each Entity owns its
// Fields, outgoing Relations, Indices and Uniques. Referrers (incoming
// relations) and CrossRelations (many-to-many views through a cross-reference
// entity) are computed by [Database.Link] and never declared:
//
//	db := schema.NewDatabase("bookstore")
//	author := schema.NewEntity("Author")
//	author.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true, AutoIncrement: true})
//	book := schema.NewEntity("Book")
//	book.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true})
//	book.AddField(&schema.Field{Name: "authorId", Type: schema.TypeInteger})
//	book.AddRelation(&schema.Relation{Target: "Author", References: []*schema.Reference{{Local: "authorId", Foreign: "id"}}})
//	db.AddEntity(author)
//	db.AddEntity(book)
//	if err := db.Link(); err != nil { ... }
//	author.Referrers // => [book -> author]
//
// # Naming
//
// Table names default to the snake_case entity name and column names to the
// snake_case field name. Index, unique and foreign key names are derived from
// the table name plus a short md5 of the member columns, so the same
// definition always yields the same name and diffs can match by name:
//
//	book_i_4f2a1c   // index on book
//	book_u_0b9e77   // unique on book
//	book_fk_a31d90  // foreign key on book
//
// # Invariants
//
//   - Entity names are unique within a Database.
//   - Every entity has a primary key unless its id method is "none".
//   - A cross-reference entity has exactly two relations whose local columns
//     form its composite primary key.
//
// [Database.Validate] checks all of them and reports every violation.
package schema
