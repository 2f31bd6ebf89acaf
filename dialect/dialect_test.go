package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"mysql":      MySQL,
		"MariaDB":    MySQL,
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"pgsql":      Postgres,
		"sqlite3":    SQLite,
		"sqlserver":  MSSQL,
		" Oracle ":   Oracle,
		"unknown":    "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestNames(t *testing.T) {
	for _, n := range Names() {
		assert.Equal(t, n, Normalize(n))
	}
}
