package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/propel/compiler"
	"github.com/syssam/propel/config"
	dsql "github.com/syssam/propel/dialect/sql"
)

func newSQLCmd(a *app) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "sql [schema...]",
		Short: "Print or apply the CREATE scripts",
		Long: "Print the CREATE script of each schema document. With --dsn, the scripts are executed " +
			"against the database instead, one transaction per document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.schemaPaths(args)
			if err != nil {
				return err
			}
			c, err := a.compiler(compiler.WithoutCode())
			if err != nil {
				return err
			}
			results, err := c.GenerateAll(cmd.Context(), paths...)
			if err != nil {
				return err
			}
			for _, res := range results {
				if dsn == "" {
					io.WriteString(cmd.OutOrStdout(), res.SQL)
					continue
				}
				if err := a.apply(cmd, res, dsn); err != nil {
					return err
				}
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.String("platform", "", "SQL platform: mssql, mysql, oracle, pgsql or sqlite")
	fs.StringVar(&dsn, "dsn", "", "data source to apply the scripts to")
	bindKey(fs, "platform", config.KeyPlatform)
	return cmd
}

func (a *app) apply(cmd *cobra.Command, res *compiler.Result, dsn string) error {
	drv, err := dsql.Open(res.Platform.Name(), dsn, dsql.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer drv.Close()
	if err := drv.Apply(cmd.Context(), res.SQL); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Path, drv.Stats().Snapshot())
	return nil
}
