package behavior

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/class"
	"github.com/syssam/propel/schema"
)

// ArchivableBehavior keeps a copy of deleted rows in an archive entity.
//
// The archive entity copies every field of the source, without relations and
// without auto-increment, plus an optional archive timestamp. Indices are
// copied as plain indices.
type ArchivableBehavior struct {
	Base
}

// NewArchivable returns the behavior with its defaults.
func NewArchivable() *ArchivableBehavior {
	return &ArchivableBehavior{Base: NewBase(Archivable, map[string]string{
		"archive_table":      "",
		"archive_class":      "",
		"archived_at_column": "archived_at",
		"log_archived_at":    "true",
		"archive_on_delete":  "true",
	})}
}

// Clone implements Behavior.
func (b *ArchivableBehavior) Clone() Behavior {
	return &ArchivableBehavior{Base: b.CloneBase()}
}

// ArchiveName returns the archive entity name for e.
func (b *ArchivableBehavior) ArchiveName(e *schema.Entity) string {
	if n := b.Parameter("archive_class"); n != "" {
		return n
	}
	return e.Name + "Archive"
}

// ArchiveTable returns the archive table name for e.
func (b *ArchivableBehavior) ArchiveTable(e *schema.Entity) string {
	if t := b.Parameter("archive_table"); t != "" {
		return t
	}
	return e.Table() + "_archive"
}

// ModifyEntity adds the archive entity to the database. An entity already
// declared under the archive name is used as is.
func (b *ArchivableBehavior) ModifyEntity(e *schema.Entity) error {
	db := e.Database()
	if db == nil {
		return propel.NewBuildError("modify", e.Name, "archivable entity is not part of a database")
	}
	name := b.ArchiveName(e)
	if db.HasEntity(name) {
		return nil
	}
	ae := schema.NewEntity(name)
	ae.TableName = b.ArchiveTable(e)
	ae.Namespace = e.Namespace
	ae.IDMethod = e.IDMethod
	ae.Description = "Archive of " + e.Name + "."
	for _, f := range e.Fields {
		c := f.Clone()
		c.AutoIncrement = false
		if err := ae.AddField(c); err != nil {
			return err
		}
	}
	if b.BoolParameter("log_archived_at") {
		if _, err := ensureField(ae, b.Parameter("archived_at_column"), schema.TypeTimestamp); err != nil {
			return err
		}
	}
	for _, idx := range e.AllIndices() {
		c := idx.Clone()
		c.Name = ""
		c.Unique = false
		if err := ae.AddIndex(c); err != nil {
			return err
		}
	}
	return db.AddEntity(ae)
}

func (b *ArchivableBehavior) archive(e *schema.Entity) (*schema.Entity, error) {
	if db := e.Database(); db != nil {
		if ae := db.Entity(b.ArchiveName(e)); ae != nil {
			return ae, nil
		}
	}
	return nil, propel.NewBuildError("generate", e.Name, "archive entity %q not found", b.ArchiveName(e))
}

// PreDelete archives the object before it is removed.
func (b *ArchivableBehavior) PreDelete(h Hook) []jen.Code {
	if !b.BoolParameter("archive_on_delete") {
		return nil
	}
	return []jen.Code{
		jen.If(
			jen.List(jen.Id("_"), jen.Err()).Op(":=").Id(h.Receiver).Dot("Archive").Call(jen.Id(h.Context), jen.Id(h.Object)),
			jen.Err().Op("!=").Nil(),
		).Block(jen.Return(jen.Err())),
	}
}

// RepositoryMethods adds Archive, Restore and GetArchived.
func (b *ArchivableBehavior) RepositoryMethods(h Hook, def *class.Definition) error {
	e := h.Entity
	ae, err := b.archive(e)
	if err != nil {
		return err
	}
	var (
		obj, arc  = jen.Op("*").Id(class.TypeName(e)), jen.Op("*").Id(class.TypeName(ae))
		recv      = def.Recv()
		archRepo  = jen.Id(class.Constructor(class.RepositoryName(ae))).Call(jen.Id(recv).Dot("db"))
		ctxParam  = class.Param{Name: "ctx", Type: jen.Qual("context", "Context")}
		pkArgs    []jen.Code
		toArchive []jen.Code
		toSource  []jen.Code
	)
	if !e.HasPrimaryKey() {
		return propel.NewBuildError("generate", e.Name, "archivable requires a primary key")
	}
	for _, f := range e.PrimaryKey() {
		pkArgs = append(pkArgs, jen.Id("obj").Dot(class.FieldName(f)))
	}
	for _, f := range e.Fields {
		af := ae.FieldByColumn(f.ColumnName())
		if af == nil {
			continue
		}
		toArchive = append(toArchive, class.CopyField("archive", af, "obj", f))
		toSource = append(toSource, class.CopyField("obj", f, "archive", af))
	}
	if b.BoolParameter("log_archived_at") {
		if af := ae.FieldByColumn(b.Parameter("archived_at_column")); af != nil {
			toArchive = append(toArchive, class.AssignValue("archive", af, jen.Qual("time", "Now").Call()))
		}
	}

	archive := &class.Method{
		Name:    "Archive",
		Comment: "Archive copies obj into the archive table, updating a previous copy if any.",
		Params:  []class.Param{ctxParam, {Name: "obj", Type: obj}},
		Results: []jen.Code{arc, jen.Error()},
	}
	archive.Append(
		jen.Id("repo").Op(":=").Add(archRepo),
		jen.List(jen.Id("archive"), jen.Err()).Op(":=").Id("repo").Dot("FindByPK").Call(append([]jen.Code{jen.Id("ctx")}, pkArgs...)...),
		jen.Switch().Block(
			jen.Case(jen.Qual("errors", "Is").Call(jen.Err(), jen.Id("ErrNotFound"))).Block(
				jen.Id("archive").Op("=").Id(class.Constructor(class.TypeName(ae))).Call(),
			),
			jen.Case(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		),
	)
	archive.Append(toArchive...)
	archive.Append(
		jen.If(jen.Err().Op(":=").Id("repo").Dot("Save").Call(jen.Id("ctx"), jen.Id("archive")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("archive"), jen.Nil()),
	)

	restore := &class.Method{
		Name:    "Restore",
		Comment: "Restore saves a new object built from an archived copy.",
		Params:  []class.Param{ctxParam, {Name: "archive", Type: arc}},
		Results: []jen.Code{obj, jen.Error()},
	}
	restore.Append(jen.Id("obj").Op(":=").Id(class.Constructor(class.TypeName(e))).Call())
	restore.Append(toSource...)
	restore.Append(
		jen.If(jen.Err().Op(":=").Id(recv).Dot("Save").Call(jen.Id("ctx"), jen.Id("obj")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("obj"), jen.Nil()),
	)

	archived := &class.Method{
		Name:    "GetArchived",
		Comment: "GetArchived returns the archived copy of obj.",
		Params:  []class.Param{ctxParam, {Name: "obj", Type: obj}},
		Results: []jen.Code{arc, jen.Error()},
		Body: []jen.Code{
			jen.Return(archRepo.Clone().Dot("FindByPK").Call(append([]jen.Code{jen.Id("ctx")}, pkArgs...)...)),
		},
	}
	for _, m := range []*class.Method{archive, restore, archived} {
		if err := def.AddMethod(m); err != nil {
			return err
		}
	}
	return nil
}
