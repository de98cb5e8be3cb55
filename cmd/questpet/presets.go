package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/questpet/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the starter quests offered to new users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		presets, err := preset.Catalog()
		if err != nil {
			return err
		}
		return printPresets(cmd.OutOrStdout(), presets)
	},
}

func printPresets(w io.Writer, presets []preset.Quest) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DESCRIPTION\tTYPE\tDAYS")
	for _, p := range presets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Description, p.Type, strings.Join(p.RepeatDays, ","))
	}
	return tw.Flush()
}
