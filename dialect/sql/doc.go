// Package sql applies generated DDL scripts to a live database.
//
// A Driver wraps a *sql.DB, splits a script into statements and executes
// them inside one transaction, recording execution statistics and logging
// slow statements:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//	if err := drv.Apply(ctx, ddl); err != nil {
//	    return err
//	}
//	fmt.Println(drv.Stats().Snapshot())
//
// Only MySQL, PostgreSQL and SQLite have registered drivers.
package sql
