package main

import (
	"context"
	"fmt"
	"io"

	"github.com/bcomnes/sqly"
	"github.com/bcomnes/sqly/internal/logging"
	"github.com/spf13/cobra"
)

var versionString = sqly.Version + " (" + sqly.GitCommit + ")"

// newRootCommand creates the sqly command tree.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sqly",
		Short:         "Dialect-aware SQL rendering and dependency-ordered migrations",
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addConfigFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRenderCommand())
	cmd.AddCommand(newMigrationCommand())
	cmd.AddCommand(newMigrationsCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// setup loads configuration and builds a Sqly for cmd. open controls whether
// a database connection is made; configure, when set, adjusts the library
// configuration first.
func setup(cmd *cobra.Command, open bool, configure func(*sqly.Config), opts ...sqly.Option) (*sqly.Sqly, func(), error) {
	cfg, err := loadConfig(cmd.Flags(), appFs)
	if err != nil {
		return nil, nil, err
	}
	scfg := cfg.sqlyConfig()
	if configure != nil {
		configure(&scfg)
	}
	logger := logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	opts = append([]sqly.Option{sqly.WithFs(appFs), sqly.WithLogger(logger)}, opts...)

	closeDB := func() {}
	var s *sqly.Sqly
	if open {
		db, err := cfg.openDB()
		if err != nil {
			return nil, nil, err
		}
		closeDB = func() { db.Close() }
		s, err = sqly.NewSqly(scfg, db, opts...)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
	} else {
		s, err = sqly.NewSqly(scfg, nil, opts...)
		if err != nil {
			return nil, nil, err
		}
	}
	logger.Debug("configured", "dialect", s.Dialect().String(), "dir", s.Config().MigrationDir)
	return s, closeDB, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "sqly version %s\n", versionString)
}
