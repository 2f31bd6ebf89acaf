package platform

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/syssam/propel"
	"github.com/syssam/propel/dialect"
)

// Detect returns the platform of an open database. Known drivers are
// recognized directly; otherwise the server is probed with version queries.
func Detect(ctx context.Context, db *sql.DB) (Platform, error) {
	switch db.Driver().(type) {
	case *mysql.MySQLDriver:
		return NewMySQL(), nil
	case *pq.Driver:
		return NewPostgreSQL(), nil
	case *sqlite.Driver:
		return NewSQLite(), nil
	}
	name, err := probe(ctx, db)
	if err != nil {
		return nil, err
	}
	return constructors[name](), nil
}

var probes = []struct {
	query string
	match func(version string) string
}{
	{"SELECT version()", func(v string) string {
		v = strings.ToLower(v)
		if strings.Contains(v, "postgres") || strings.Contains(v, "cockroach") {
			return dialect.Postgres
		}
		return dialect.MySQL
	}},
	{"SELECT sqlite_version()", func(string) string { return dialect.SQLite }},
	{"SELECT @@VERSION", func(v string) string {
		if strings.Contains(v, "Microsoft SQL Server") {
			return dialect.MSSQL
		}
		return ""
	}},
	{"SELECT banner FROM v$version", func(string) string { return dialect.Oracle }},
}

func probe(ctx context.Context, db *sql.DB) (string, error) {
	for _, p := range probes {
		var v string
		if err := db.QueryRowContext(ctx, p.query).Scan(&v); err != nil {
			continue
		}
		if name := p.match(v); name != "" {
			return name, nil
		}
	}
	return "", propel.NewInvalidArgumentError("", "", "cannot detect database platform")
}
