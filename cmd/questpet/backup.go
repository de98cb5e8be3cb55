package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/questpet/internal/backup"
	"github.com/dukerupert/questpet/internal/clock"
	"github.com/dukerupert/questpet/internal/config"
	"github.com/dukerupert/questpet/internal/database"
	"github.com/dukerupert/questpet/internal/logging"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage encrypted database snapshots in S3-compatible storage",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Take a snapshot now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		obj, err := newBackupManager(cfg, db, logger).RunNow(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%d bytes)\n", obj.Key, obj.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		objects, err := newBackupManager(cfg, nil, logger).List(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tTAKEN\tSIZE")
		for _, o := range objects {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", o.Key, o.TakenAt.Format("2006-01-02 15:04:05"), o.Size)
		}
		return tw.Flush()
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore KEY",
	Short: "Replace the database with a stored snapshot (stop the server first)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newBackupManager(cfg, nil, logger).Restore(cmd.Context(), args[0], cfg.DB.Path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", args[0], cfg.DB.Path)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupRunCmd, backupListCmd, backupRestoreCmd)
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.Setup(cfg.Log.Level, cfg.Log.Format), nil
}

func newBackupManager(cfg config.Config, db *sql.DB, logger *slog.Logger) *backup.Manager {
	_, retention, _ := cfg.BackupSchedule()
	bcfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
			Prefix:    cfg.Backup.Prefix,
		},
		Passphrase: cfg.Backup.Passphrase,
		Retention:  retention,
	}
	var client backup.ObjectStore
	if bcfg.Enabled() {
		client = backup.NewS3Client(bcfg.S3)
	}
	return backup.NewManager(bcfg, db, client, clock.NewReal(nil), logger.With("component", "backup"))
}
