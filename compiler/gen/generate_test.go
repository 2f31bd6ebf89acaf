package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel"
	"github.com/syssam/propel/behavior"
	"github.com/syssam/propel/dialect/sql/platform"
	"github.com/syssam/propel/schema"
)

func paths(files []*File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func fileOf(t *testing.T, files []*File, p string) *File {
	t.Helper()
	for _, f := range files {
		if f.Path == p {
			return f
		}
	}
	require.Failf(t, "file not generated", "%s not in %v", p, paths(files))
	return nil
}

// =============================================================================
// Generator Tests
// =============================================================================

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestGenerator_Files(t *testing.T) {
	db := library(t)
	g, err := New(testConfig(t), nil)
	require.NoError(t, err)
	files, err := g.Files(db)
	require.NoError(t, err)

	require.Len(t, files, 1+len(db.Entities)*len(AllBuilders))
	assert.Equal(t, SharedFile, files[0].Path)
	assert.Empty(t, files[0].Builder)
	assert.Equal(t, "shared", files[0].builderLabel())
	assert.Subset(t, paths(files), []string{
		"book.go", "book_query.go", "book_repository.go", "book_map.go", "book_proxy.go",
		"book_tag.go", "author_repository.go",
	})

	book := fileOf(t, files, "book.go")
	assert.Equal(t, "model", book.Package)
	assert.Equal(t, "Book", book.Entity)
	assert.Equal(t, Object, book.Builder)
	out := book.GoString()
	assert.Contains(t, out, "// "+DefaultHeader)
	assert.Contains(t, out, "package model")

	src, err := book.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(src), "type Book struct {")
}

func TestGenerator_Namespace(t *testing.T) {
	db := library(t)
	db.Namespace = `Acme\Library`
	g, err := New(testConfig(t, WithBuilders(Object)), nil)
	require.NoError(t, err)
	files, err := g.Files(db)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"acme/library/propel.go",
		"acme/library/author.go",
		"acme/library/book.go",
		"acme/library/tag.go",
		"acme/library/book_tag.go",
	}, paths(files))
	for _, f := range files {
		assert.Equal(t, "library", f.Package, f.Path)
	}
}

func TestNamespaceSegments(t *testing.T) {
	assert.Equal(t, []string{"acme", "book_store"}, namespaceSegments(`Acme\BookStore`))
	assert.Equal(t, []string{"acme", "library"}, namespaceSegments("acme.library"))
	assert.Equal(t, []string{"acme", "library"}, namespaceSegments("/acme/library/"))
	assert.Empty(t, namespaceSegments(""))

	e := schema.NewEntity("Book")
	e.Namespace = `Acme\BookStore`
	assert.Equal(t, "bookstore", packageName(e, testConfig(t)))
	assert.Equal(t, "acme/book_store/book_repository.go", outputPath(e, Repository))
}

func TestGenerator_DuplicatePath(t *testing.T) {
	db := library(t)
	bq := schema.NewEntity("BookQuery")
	require.NoError(t, bq.AddField(&schema.Field{Name: "id", Type: schema.TypeInteger, PrimaryKey: true}))
	require.NoError(t, db.AddEntity(bq))
	require.NoError(t, db.Link())

	g, err := New(testConfig(t), nil)
	require.NoError(t, err)
	_, err = g.Files(db)
	require.Error(t, err)
	assert.True(t, propel.IsBuildError(err))
	assert.Contains(t, err.Error(), `"book_query.go"`)
}

func TestGenerator_RelationNameError(t *testing.T) {
	db := twoAuthors(t, "writer", "")
	g, err := New(testConfig(t), nil)
	require.NoError(t, err)
	_, err = g.Files(db)
	assert.True(t, propel.IsBuildError(err))
}

func TestShared_Placeholder(t *testing.T) {
	tests := []struct {
		platform string
		want     string
	}{
		{"mysql", "func placeholder(int) string {\n\treturn \"?\"\n}"},
		{"sqlite", "func placeholder(int) string {\n\treturn \"?\"\n}"},
		{"pgsql", `return "$" + strconv.Itoa(i)`},
		{"oracle", `return ":" + strconv.Itoa(i)`},
		{"mssql", `return "@p" + strconv.Itoa(i)`},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			p, err := platform.ByName(tt.platform)
			require.NoError(t, err)
			f := jen.NewFile("model")
			renderShared(f, p)
			out := f.GoString()
			assert.Contains(t, out, "type Executor interface {")
			assert.Regexp(t, `ErrNotFound\s+= errors.New\("propel: object not found"\)`, out)
			assert.Contains(t, out, "type scanner interface {")
			assert.Contains(t, out, tt.want)
		})
	}
}

// =============================================================================
// Behavior Integration Tests
// =============================================================================

func TestGenerator_Archivable(t *testing.T) {
	db := library(t)
	db.Entity("Book").AddBehavior(&schema.BehaviorSpec{Name: behavior.Archivable})
	engine := behavior.NewEngine(behavior.NewRegistry())
	require.NoError(t, engine.Prepare(db))

	archive := db.Entity("BookArchive")
	require.NotNil(t, archive)
	assert.Contains(t, platform.NewMySQL().AddEntityDDL(archive), "PRIMARY KEY")

	g, err := New(testConfig(t), engine)
	require.NoError(t, err)
	files, err := g.Files(db)
	require.NoError(t, err)

	m := fileOf(t, files, "book_archive_map.go").GoString()
	assert.Regexp(t, `BookArchiveFieldArchivedAt\s+= "archivedAt"`, m)
	assert.Contains(t, m, "BookArchiveFieldArchivedAt:")

	repo := fileOf(t, files, "book_repository.go").GoString()
	assert.Contains(t, repo, "func (r *BookRepository) Archive(")
	assert.Contains(t, repo, "func (r *BookRepository) Restore(")
	assert.Contains(t, repo, "if _, err := r.Archive(ctx, obj); err != nil {")
	assert.Contains(t, repo, "NewBookArchiveRepository(r.db)")

	archRepo := fileOf(t, files, "book_archive_repository.go").GoString()
	assert.Contains(t, archRepo, "func (r *BookArchiveRepository) FindByPK(ctx context.Context, id int) (*BookArchive, error) {")
	assert.NotContains(t, archRepo, "Archive(ctx, obj)")
}

// =============================================================================
// Writer Tests
// =============================================================================

func TestGenerator_Generate(t *testing.T) {
	db := library(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	cfg := testConfig(t, WithMetrics(metrics), WithWorkers(3))
	g, err := New(cfg, nil)
	require.NoError(t, err)

	files, err := g.Generate(context.Background(), db)
	require.NoError(t, err)
	for _, f := range files {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, filepath.FromSlash(f.Path)))
	}

	src, err := os.ReadFile(filepath.Join(cfg.OutputDir, "book_repository.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package model")
	assert.Contains(t, string(src), `"database/sql"`)

	assert.InDelta(t, float64(len(db.Entities)), testutil.ToFloat64(metrics.Files.WithLabelValues(string(Object))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Files.WithLabelValues("shared")), 0)
	assert.InDelta(t, float64(len(db.Entities)), testutil.ToFloat64(metrics.Entities), 0)
	assert.Positive(t, testutil.ToFloat64(metrics.Bytes))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Duration))
}

func TestWriter_RenderError(t *testing.T) {
	cfg := testConfig(t)
	jf := jen.NewFile("model")
	jf.Id("func {")
	err := NewWriter(cfg).Write(context.Background(), []*File{{Path: "broken.go", file: jf}})
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "render", ge.Phase)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "broken.go"))
}

func TestWriter_Unformatted(t *testing.T) {
	cfg := testConfig(t, WithFormat(false), WithHeader(""))
	jf := jen.NewFile("model")
	jf.Const().Id("Answer").Op("=").Lit(42)
	require.NoError(t, NewWriter(cfg).Write(context.Background(), []*File{{Path: "sub/answer.go", file: jf}}))

	src, err := os.ReadFile(filepath.Join(cfg.OutputDir, "sub", "answer.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "const Answer = 42")
}

func TestWriter_Canceled(t *testing.T) {
	cfg := testConfig(t, WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jf := jen.NewFile("model")
	err := NewWriter(cfg).Write(ctx, []*File{{Path: "a.go", file: jf}})
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkGenerator_Files(b *testing.B) {
	db := library(b)
	cfg := MustNewConfig(WithFormat(false))
	g, err := New(cfg, nil)
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		if _, err := g.Files(db); err != nil {
			b.Fatal(err)
		}
	}
}
