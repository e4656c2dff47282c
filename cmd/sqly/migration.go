package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrationCommand creates the migration command.
func newMigrationCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "migration APP [OTHER_APPS...]",
		Short: "Create an empty migration unit",
		Long: `Migration writes <dir>/APP/<ts>_<name>.yaml. The new unit depends on
every unit of APP and OTHER_APPS that nothing else depends on yet, so it
applies after all of them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := setup(cmd, false, nil)
			if err != nil {
				return err
			}
			u, path, err := s.CreateUnit(commandContext(cmd), args[0], args[1:], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", u.Key(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "short description used in the unit name")
	return cmd
}
