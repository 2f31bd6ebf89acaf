package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/propel"
	"github.com/syssam/propel/compiler"
	"github.com/syssam/propel/config"
	"github.com/syssam/propel/dialect/sql/platform"
	dschema "github.com/syssam/propel/dialect/sql/schema"
	model "github.com/syssam/propel/schema"
)

type diffOptions struct {
	reverse       bool
	allowBreaking bool
	renames       bool
	snapshot      string
	atlas         bool
}

func newDiffCmd(a *app) *cobra.Command {
	var opts diffOptions
	cmd := &cobra.Command{
		Use:   "diff [old] new",
		Short: "Print the ALTER script between two schemas",
		Long: "Compare two schema documents and print the DDL that migrates a database from the old one to " +
			"the new one. With --snapshot, the old state may come from a snapshot file, which is then " +
			"replaced by the new state. Breaking changes fail unless --allow-breaking is set.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.diff(cmd, args, opts)
		},
	}
	fs := cmd.Flags()
	fs.String("platform", "", "SQL platform: mssql, mysql, oracle, pgsql or sqlite")
	fs.BoolVar(&opts.reverse, "reverse", false, "print the script that migrates back from new to old")
	fs.BoolVar(&opts.allowBreaking, "allow-breaking", false, "report breaking changes as warnings")
	fs.BoolVar(&opts.renames, "detect-renames", false, "turn identical drop+add pairs into renames")
	fs.StringVar(&opts.snapshot, "snapshot", "", "snapshot file holding the last migrated state")
	fs.BoolVar(&opts.atlas, "atlas", false, "plan the script with atlas (mysql, pgsql and sqlite)")
	bindKey(fs, "platform", config.KeyPlatform)
	return cmd
}

func (a *app) diff(cmd *cobra.Command, args []string, opts diffOptions) error {
	c, err := a.compiler(compiler.WithoutCode())
	if err != nil {
		return err
	}
	to, _, err := c.Prepare(args[len(args)-1])
	if err != nil {
		return err
	}
	var parent *dschema.Snapshot
	if opts.snapshot != "" {
		if parent, err = readSnapshot(opts.snapshot); err != nil {
			return err
		}
	}
	var from *model.Database
	switch {
	case len(args) == 2:
		if from, _, err = c.Prepare(args[0]); err != nil {
			return err
		}
	case parent != nil:
		if from, err = parent.Database(); err != nil {
			return err
		}
	default:
		return propel.NewInvalidArgumentError("", "snapshot", "diff needs an old schema or an existing snapshot")
	}

	p, err := a.platform(to)
	if err != nil {
		return err
	}
	var copts []dschema.CompareOption
	if opts.renames {
		copts = append(copts, dschema.WithRenameDetection(), dschema.WithTableRenameDetection())
	}
	diff := dschema.CompareDatabases(from, to, copts...)
	var vopts []dschema.ValidateOption
	if opts.allowBreaking {
		vopts = append(vopts,
			dschema.AllowDropTable(),
			dschema.AllowDropColumn(),
			dschema.AllowDropIndex(),
			dschema.AllowNullToNotNull(),
			dschema.AllowNarrowing(),
		)
	}
	res := dschema.ValidateDiff(diff, vopts...)
	for _, w := range res.Warnings {
		a.logger.Warn("schema change", "change", w.Error(), "breaking", w.Breaking)
	}
	if err := res.Err(); err != nil {
		return err
	}

	switch {
	case diff.IsEmpty():
		a.logger.Info("schemas are in sync", "database", to.Name)
	case opts.atlas:
		src, dst := from, to
		if opts.reverse {
			src, dst = to, from
		}
		stmts, err := dschema.AtlasPlan(cmd.Context(), p.Name(), src, dst)
		if err != nil {
			return err
		}
		for _, s := range stmts {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s;\n", s)
		}
	default:
		d := diff
		if opts.reverse {
			d = diff.Reverse()
		}
		io.WriteString(cmd.OutOrStdout(), p.ModifyDatabaseDDL(d))
	}
	if opts.snapshot != "" {
		return writeSnapshot(opts.snapshot, dschema.NewSnapshot(to, parent))
	}
	return nil
}

// platform returns the platform of db: the one it declares, or the
// configured one.
func (a *app) platform(db *model.Database) (platform.Platform, error) {
	name := db.Platform
	if name == "" {
		name = a.props.GetString(config.KeyPlatform)
	}
	return platform.ByName(name)
}

// readSnapshot returns the snapshot at path, or nil when there is none yet.
func readSnapshot(path string) (*dschema.Snapshot, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, propel.NewIOError("read", path, err)
	}
	defer f.Close()
	return dschema.ReadSnapshot(f)
}

func writeSnapshot(path string, s *dschema.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return propel.NewIOError("write", path, err)
	}
	if err := dschema.WriteSnapshot(f, s); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return propel.NewIOError("write", path, err)
	}
	return nil
}
