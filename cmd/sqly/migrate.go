package main

import (
	"errors"
	"fmt"

	"github.com/bcomnes/sqly"
	"github.com/bcomnes/sqly/migration"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// newMigrateCommand creates the migrate command.
func newMigrateCommand() *cobra.Command {
	var (
		dryRun      bool
		lock        bool
		metricsFile string
	)
	cmd := &cobra.Command{
		Use:   "migrate KEY",
		Short: "Migrate the database to the given unit",
		Long: `Migrate reverts applied units that KEY does not depend on and then
applies KEY and everything it depends on, one transaction per unit.

KEY is app:ts_name, or ts_name together with --app. The first failing unit
stops the run; the units after it are reported as SKIPPED.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			s, closeDB, err := setup(cmd, true, func(c *sqly.Config) {
				c.DryRun = dryRun
				c.Lock = lock
			}, sqly.WithMetrics(migration.NewMetrics(reg)))
			if err != nil {
				return err
			}
			defer closeDB()

			outcomes, err := s.Migrate(commandContext(cmd), args[0])
			out := cmd.OutOrStdout()
			printOutcomes(out, outcomes)
			if metricsFile != "" {
				if werr := prometheus.WriteToTextfile(metricsFile, reg); werr != nil {
					return errors.Join(err, fmt.Errorf("write metrics: %w", werr))
				}
			}
			if err != nil {
				var ee *migration.ExecutionError
				if errors.As(err, &ee) {
					return fmt.Errorf("migration failed: %w", err)
				}
				return err
			}
			if len(outcomes) == 0 {
				fmt.Fprintln(out, "Nothing to migrate.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "print the plan without executing it")
	cmd.Flags().BoolVar(&lock, "lock", false, "hold an advisory lock on the ledger while migrating")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in the Prometheus text format to this file")
	return cmd
}
