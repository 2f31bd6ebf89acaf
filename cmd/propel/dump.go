package main

import (
	"github.com/spf13/cobra"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler/load"
	"github.com/syssam/propel/schema"
)

func newDumpCmd(a *app) *cobra.Command {
	var prepared bool
	cmd := &cobra.Command{
		Use:   "dump schema",
		Short: "Print a schema document as XML",
		Long: "Read a schema document in any supported format and print it as XML. With --prepared, " +
			"the model is printed after its behaviors ran.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				db  *schema.Database
				err error
			)
			if prepared {
				c, cerr := a.compiler()
				if cerr != nil {
					return cerr
				}
				db, _, err = c.Prepare(args[0])
			} else {
				db, err = a.reader().Read(args[0])
			}
			if err != nil {
				return err
			}
			out, err := load.DumpXML(db)
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return propel.NewIOError("write", "stdout", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prepared, "prepared", false, "apply behaviors before printing")
	return cmd
}
