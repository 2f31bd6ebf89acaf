package sql

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/propel/dialect"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "empty",
			script: "\n  \n",
		},
		{
			name:   "comments and blanks",
			script: "\n-- ---\n-- book\n-- ---\n\nDROP TABLE IF EXISTS `book`;\n\nCREATE TABLE `book`\n(\n    `id` INTEGER\n);\n",
			want:   []string{"DROP TABLE IF EXISTS `book`", "CREATE TABLE `book`\n(\n    `id` INTEGER\n)"},
		},
		{
			name:   "quoted semicolons",
			script: "INSERT INTO t VALUES ('a;b'); CREATE TABLE \"x;y\" (id INTEGER);SELECT [a;b]",
			want:   []string{"INSERT INTO t VALUES ('a;b')", "CREATE TABLE \"x;y\" (id INTEGER)", "SELECT [a;b]"},
		},
		{
			name:   "hash comments",
			script: "\n# It \"suspends judgement\"\nSET FOREIGN_KEY_CHECKS = 0;\n",
			want:   []string{"SET FOREIGN_KEY_CHECKS = 0"},
		},
		{
			name:   "dash inside string",
			script: "SELECT '--not a comment';",
			want:   []string{"SELECT '--not a comment'"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}

func TestOpen_UnknownDialect(t *testing.T) {
	_, err := Open(dialect.Oracle, "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database driver")
}

func TestOpenDB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB("postgres", db)
	assert.Equal(t, dialect.Postgres, drv.Dialect())
	assert.Same(t, db, drv.DB())
}

func TestApply(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	drv := OpenDB(dialect.MySQL, db, quiet())

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS `book`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `book` (`id` INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	require.NoError(t, drv.Apply(context.Background(), "-- book\nDROP TABLE IF EXISTS `book`;\nCREATE TABLE `book` (`id` INTEGER);\n"))
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.Stats().Snapshot()
	assert.EqualValues(t, 2, s.Statements)
	assert.Zero(t, s.Errors)
	assert.Contains(t, s.String(), "statements=2")
}

func TestApply_Rollback(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	drv := OpenDB(dialect.Postgres, db, quiet())

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE "a" (id INTEGER)`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "a" (id INTEGER)`).WillReturnError(errors.New("relation exists"))
	mock.ExpectRollback()
	err = drv.Apply(context.Background(), `CREATE TABLE "a" (id INTEGER); CREATE TABLE "a" (id INTEGER);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")
	assert.Contains(t, err.Error(), "relation exists")
	require.NoError(t, mock.ExpectationsWereMet())
	assert.EqualValues(t, 1, drv.Stats().Snapshot().Errors)
}

func TestApply_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db, quiet())
	require.NoError(t, drv.Apply(context.Background(), "-- nothing\n"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApply_Slow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	drv := OpenDB(dialect.SQLite, db, quiet(), WithSlowThreshold(time.Nanosecond))

	mock.ExpectBegin()
	mock.ExpectExec("SELECT 1").WillDelayFor(time.Millisecond).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	require.NoError(t, drv.Apply(context.Background(), "SELECT 1"))
	assert.EqualValues(t, 1, drv.Stats().Snapshot().Slow)

	drv.Stats().Reset()
	assert.Zero(t, drv.Stats().Snapshot().Statements)
	assert.Zero(t, drv.Stats().Snapshot().Avg())
}
