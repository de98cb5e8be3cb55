package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "questpet",
	Short: "Habit tracker that keeps a virtual pet alive",
	Long: `questpet turns recurring chores into quests. Completing quests earns
food for your pet; ignoring them lets its happiness and hunger decay.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "questpet.toml", "path to TOML config file")
	rootCmd.AddCommand(serveCmd, presetsCmd, backupCmd, adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
