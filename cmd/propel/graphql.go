package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler"
	"github.com/syssam/propel/compiler/gen"
	"github.com/syssam/propel/config"
	"github.com/syssam/propel/contrib/graphql"
)

func newGraphQLCmd(a *app) *cobra.Command {
	var (
		outDir      string
		modelPkg    string
		noMutations bool
	)
	cmd := &cobra.Command{
		Use:   "graphql [schema...]",
		Short: "Print the GraphQL schema",
		Long: "Emit the GraphQL SDL of each schema document after its behaviors ran. With --out-dir, " +
			"each schema is written to <database>.graphql in that directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.schemaPaths(args)
			if err != nil {
				return err
			}
			c, err := a.compiler(compiler.WithoutCode())
			if err != nil {
				return err
			}
			pl, err := gen.PluralizerByName(a.props.GetString(config.KeyPluralizer))
			if err != nil {
				return err
			}
			opts := []graphql.Option{graphql.WithPluralizer(pl), graphql.WithLogger(a.logger)}
			if modelPkg != "" {
				opts = append(opts, graphql.WithModelPackage(modelPkg))
			}
			if noMutations {
				opts = append(opts, graphql.WithoutMutations())
			}
			em := graphql.NewEmitter(opts...)
			for _, p := range paths {
				db, _, err := c.Prepare(p)
				if err != nil {
					return err
				}
				if outDir == "" {
					if err := em.Write(cmd.OutOrStdout(), db); err != nil {
						return err
					}
					continue
				}
				sdl, err := em.Format(db)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return propel.NewIOError("write", outDir, err)
				}
				name := db.Name
				if name == "" {
					name = "schema"
				}
				file := filepath.Join(outDir, name+".graphql")
				if err := os.WriteFile(file, []byte(sdl), 0o644); err != nil {
					return propel.NewIOError("write", file, err)
				}
				a.logger.Info("wrote file", "path", file, "bytes", len(sdl))
			}
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&outDir, "out-dir", "", "directory of the .graphql files")
	fs.StringVar(&modelPkg, "model-package", "", "Go package bound through @goModel")
	fs.BoolVar(&noMutations, "no-mutations", false, "omit the Mutation type and the inputs")
	return cmd
}
