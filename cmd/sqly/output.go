package main

import (
	"fmt"
	"io"

	"github.com/bcomnes/sqly/migration"
	"github.com/fatih/color"
)

var (
	okColor      = color.New(color.FgGreen, color.Bold)
	failedColor  = color.New(color.FgRed, color.Bold)
	skippedColor = color.New(color.FgYellow)
	dryRunColor  = color.New(color.FgCyan)
)

func statusColor(s migration.Status) *color.Color {
	switch s {
	case migration.OK:
		return okColor
	case migration.Failed:
		return failedColor
	case migration.DryRun:
		return dryRunColor
	default:
		return skippedColor
	}
}

// printOutcomes writes one line per step: status, key, direction.
func printOutcomes(w io.Writer, outcomes []migration.Outcome) {
	for _, o := range outcomes {
		status := statusColor(o.Status).Sprintf("%-8s", o.Status)
		fmt.Fprintf(w, "%s %s %s\n", status, o.Step.Unit.Key(), o.Step.Direction)
		if o.Err != nil {
			fmt.Fprintf(w, "         %v\n", o.Err)
		}
	}
}
