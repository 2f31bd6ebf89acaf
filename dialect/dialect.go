package dialect

import "strings"

// Dialect names.
const (
	MySQL    = "mysql"
	Postgres = "pgsql"
	SQLite   = "sqlite"
	Oracle   = "oracle"
	MSSQL    = "mssql"
)

var aliases = map[string]string{
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pg":         Postgres,
	"sqlite3":    SQLite,
	"sqlserver":  MSSQL,
	"oci8":       Oracle,
	"godror":     Oracle,
}

// Normalize returns the canonical dialect name for name, or name lower-cased
// when it is not a known alias.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// Names returns the canonical dialect names.
func Names() []string {
	return []string{MySQL, Postgres, SQLite, Oracle, MSSQL}
}
