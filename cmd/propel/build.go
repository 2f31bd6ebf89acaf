package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/propel/compiler"
	"github.com/syssam/propel/config"
)

func newBuildCmd(a *app) *cobra.Command {
	var noCode bool
	cmd := &cobra.Command{
		Use:   "build [schema...]",
		Short: "Generate code and SQL",
		Long: "Generate the object model and the CREATE script of each schema document. Without arguments, " +
			"the *schema.{xml,yml,yaml,json} documents of paths.schemaDir are built.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.schemaPaths(args)
			if err != nil {
				return err
			}
			opts := []compiler.Option{compiler.WithSQLDir(a.props.SQLDir())}
			if noCode {
				opts = append(opts, compiler.WithoutCode())
			}
			c, err := a.compiler(opts...)
			if err != nil {
				return err
			}
			results, err := c.GenerateAll(cmd.Context(), paths...)
			if err != nil {
				return err
			}
			for _, res := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entities, %d files, %s\n",
					res.Path, len(res.Database.Entities), len(res.Files), res.SQLFile)
			}
			return a.writeMetrics()
		},
	}
	fs := cmd.Flags()
	fs.String("platform", "", "SQL platform: mssql, mysql, oracle, pgsql or sqlite")
	fs.String("output", "", "output directory of the generated code")
	fs.String("sql-dir", "", "output directory of the SQL scripts")
	fs.String("package", "", "package name of entities without a namespace")
	fs.String("metrics", "", "file receiving the generation metrics in the Prometheus text format")
	fs.BoolVar(&noCode, "no-code", false, "only write the SQL scripts")
	bindKey(fs, "platform", config.KeyPlatform)
	bindKey(fs, "output", config.KeyOutputDir)
	bindKey(fs, "sql-dir", config.KeySQLDir)
	bindKey(fs, "package", config.KeyPackage)
	bindKey(fs, "metrics", config.KeyMetrics)
	return cmd
}
