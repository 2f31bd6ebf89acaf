package gen

import (
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/propel/dialect/sql/platform"
)

// SharedFile is the name of the per-package file holding the runtime helpers
// of generated code.
const SharedFile = "propel.go"

// renderShared writes the Executor interface, the sentinel errors and the
// placeholder helper into f.
func renderShared(f *jen.File, p platform.Platform) {
	ctx := jen.Id("ctx").Qual("context", "Context")
	query := jen.Id("query").String()
	args := jen.Id("args").Op("...").Any()

	f.Comment("Executor runs statements. *sql.DB, *sql.Tx and *sql.Conn implement it.")
	f.Type().Id("Executor").Interface(
		jen.Id("ExecContext").Params(ctx, query, args).Params(jen.Qual("database/sql", "Result"), jen.Error()),
		jen.Id("QueryContext").Params(ctx.Clone(), query.Clone(), args.Clone()).Params(jen.Op("*").Qual("database/sql", "Rows"), jen.Error()),
		jen.Id("QueryRowContext").Params(ctx.Clone(), query.Clone(), args.Clone()).Op("*").Qual("database/sql", "Row"),
	)
	f.Line()
	f.Var().Defs(
		jen.Comment("ErrNotFound is returned by FindByPK when no row matches."),
		jen.Id("ErrNotFound").Op("=").Qual("errors", "New").Call(jen.Lit("propel: object not found")),
		jen.Comment("ErrReadOnlyEntity is returned when deleting a read-only object."),
		jen.Id("ErrReadOnlyEntity").Op("=").Qual("errors", "New").Call(jen.Lit("propel: read-only entity")),
	)
	f.Line()
	f.Type().Id("scanner").Interface(jen.Id("Scan").Params(jen.Id("dest").Op("...").Any()).Error())
	f.Line()

	f.Comment("placeholder returns the bind parameter for argument i, counting from 1.")
	first := p.Placeholder(1)
	if !strings.HasSuffix(first, "1") {
		f.Func().Id("placeholder").Params(jen.Int()).String().Block(jen.Return(jen.Lit(first)))
		return
	}
	prefix := strings.TrimSuffix(first, "1")
	f.Func().Id("placeholder").Params(jen.Id("i").Int()).String().Block(
		jen.Return(jen.Lit(prefix).Op("+").Qual("strconv", "Itoa").Call(jen.Id("i"))),
	)
}
