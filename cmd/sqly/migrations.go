package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrationsCommand creates the migrations command.
func newMigrationsCommand() *cobra.Command {
	var includeDepends bool
	cmd := &cobra.Command{
		Use:   "migrations [APPS...]",
		Short: "List migration keys in apply order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := setup(cmd, false, nil)
			if err != nil {
				return err
			}
			units, err := s.UnitsFor(commandContext(cmd), args, includeDepends)
			if err != nil {
				return err
			}
			for _, u := range units {
				fmt.Fprintln(cmd.OutOrStdout(), u.Key())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeDepends, "include-depends", false, "also list the units the apps depend on")
	return cmd
}
