package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/questpet/internal/clock"
	"github.com/dukerupert/questpet/internal/database"
	"github.com/dukerupert/questpet/internal/model"
	"github.com/dukerupert/questpet/internal/tracker"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminGrantCmd = &cobra.Command{
	Use:   "grant USERNAME",
	Short: "Give a user access to the admin API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], model.RoleAdmin)
	},
}

var adminRevokeCmd = &cobra.Command{
	Use:   "revoke USERNAME",
	Short: "Return an administrator to a regular account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], model.RoleUser)
	},
}

func init() {
	adminCmd.AddCommand(adminGrantCmd, adminRevokeCmd)
}

func setRole(cmd *cobra.Command, username, role string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := tracker.New(db, clock.NewReal(loc), tracker.Options{Location: loc}, logger.With("component", "tracker"))
	user, err := svc.SetRole(username, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Username, user.Role)
	return nil
}
