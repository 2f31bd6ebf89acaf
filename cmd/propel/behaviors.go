package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/propel/behavior"
)

var builtinBehaviors = []string{
	behavior.AutoAddPK,
	behavior.Archivable,
	behavior.Sluggable,
	behavior.Sortable,
	behavior.Timestampable,
}

func newBehaviorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "behaviors",
		Short: "List the known behaviors",
		Long: "List the built-in behaviors and the ones announced by propel.lock and propel.json in " +
			"paths.behaviorDirs. A discovered class that no package registered is marked unbound.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.compiler()
			if err != nil {
				return err
			}
			reg := c.Registry()
			classes := reg.Classes()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCLASS\tSOURCE")
			for _, name := range builtinBehaviors {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", name, behavior.CoreClass(name), "built-in")
			}
			discovered := reg.Discovered()
			for _, name := range slices.Sorted(maps.Keys(discovered)) {
				d := discovered[name]
				source := d.Source
				if !slices.Contains(classes, d.Class) {
					source += " (unbound)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Class, source)
			}
			return tw.Flush()
		},
	}
}
