package main

import (
	"fmt"
	"strings"

	"github.com/bcomnes/sqly/query"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newRenderCommand creates the render command.
func newRenderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render TEMPLATE [KEY=VALUE...]",
		Short: "Render a query template for the configured dialect",
		Long: `Render replaces :name placeholders with the dialect's parameter
syntax and prints the SQL followed by one line per bound argument.

Values are parsed as YAML scalars, so 42 is an integer, true a boolean,
null a null and anything else text. Quote a value to force text.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := setup(cmd, false, nil)
			if err != nil {
				return err
			}
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			res, err := s.Render(args[0], values)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.SQL)
			for i, arg := range res.Args {
				fmt.Fprintf(out, "  %d %s = %s\n", i+1, arg.Name, arg.Value)
			}
			return nil
		},
	}
}

// parseAssignments turns KEY=VALUE arguments into values.
func parseAssignments(args []string) (*query.Values, error) {
	vs := query.NewValues()
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("bad assignment %q: want KEY=VALUE", arg)
		}
		var scalar any
		if err := yaml.Unmarshal([]byte(raw), &scalar); err != nil {
			scalar = raw
		}
		switch scalar.(type) {
		case map[string]any, []any:
			scalar = raw
		case nil:
			if raw != "null" && raw != "~" {
				scalar = raw
			}
		}
		v, err := query.Of(scalar)
		if err != nil {
			return nil, fmt.Errorf("value for %s: %w", key, err)
		}
		vs.Set(key, v)
	}
	return vs, nil
}
