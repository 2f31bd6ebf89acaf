// Package dialect names the SQL platforms propel generates DDL for.
//
// # Supported Dialects
//
//   - MySQL: MySQL/MariaDB
//   - Postgres: PostgreSQL
//   - SQLite: SQLite 3
//   - Oracle: Oracle Database
//   - MSSQL: Microsoft SQL Server
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.MySQL    = "mysql"
//	dialect.Postgres = "pgsql"
//	dialect.SQLite   = "sqlite"
//	dialect.Oracle   = "oracle"
//	dialect.MSSQL    = "mssql"
//
// [Normalize] maps common aliases ("postgres", "postgresql", "sqlite3",
// "sqlserver", "mariadb") to these names.
//
// # Sub-packages
//
//   - dialect/sql: a thin DDL runner over database/sql
//   - dialect/sql/schema: schema diffs, breaking-change validation, snapshots
//   - dialect/sql/platform: per-platform DDL and SQL fragment generation
package dialect
