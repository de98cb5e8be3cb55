package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/questpet/internal/backup"
	"github.com/dukerupert/questpet/internal/clock"
	"github.com/dukerupert/questpet/internal/database"
	"github.com/dukerupert/questpet/internal/pet"
	"github.com/dukerupert/questpet/internal/server"
	"github.com/dukerupert/questpet/internal/tracker"
)

const cleanupInterval = 15 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ttl, err := cfg.SessionDuration()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	decay := pet.DefaultDecay()
	decay.Scale = cfg.Game.DecayScale

	clk := clock.NewReal(loc)
	svc := tracker.New(db, clk, tracker.Options{
		Location:   loc,
		Decay:      decay,
		SessionTTL: ttl,
	}, logger.With("component", "tracker"))

	backups := newBackupManager(cfg, db, logger)
	srv := server.New(svc, clk, server.Options{
		SessionTTL:    ttl,
		SecureCookies: cfg.Server.SecureCookies,
		Backups:       backups,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.RunCleanup(ctx, cleanupInterval)

	if backups.Status().State == backup.StateDisabled {
		logger.Info("backups disabled")
	} else {
		interval, _, _ := cfg.BackupSchedule()
		go backups.Run(ctx, interval)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("questpet listening", "addr", httpServer.Addr, "db", cfg.DB.Path, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
