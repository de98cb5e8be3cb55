package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/questpet/internal/backup"
)

// Backups is the part of the backup manager the admin API drives.
type Backups interface {
	Status() backup.Status
	RunNow(ctx context.Context) (backup.Object, error)
	List(ctx context.Context) ([]backup.Object, error)
}

type BackupHandler struct {
	backups Backups
	logger  *slog.Logger
}

func NewBackupHandler(backups Backups, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{backups: backups, logger: logger}
}

type backupStatusResponse struct {
	Status  backup.Status   `json:"status"`
	History []backup.Object `json:"history"`
}

// Status reports the last run and the snapshots in the bucket.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := backupStatusResponse{Status: h.backups.Status(), History: []backup.Object{}}
	if resp.Status.State != backup.StateDisabled {
		history, err := h.backups.List(r.Context())
		if err != nil {
			h.logger.Error("list backups", "error", err)
			writeMessage(w, http.StatusBadGateway, "error", "failed to list backups")
			return
		}
		resp.History = history
	}
	writeJSON(w, http.StatusOK, resp)
}

// RunNow takes a snapshot immediately.
func (h *BackupHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	obj, err := h.backups.RunNow(r.Context())
	if errors.Is(err, backup.ErrDisabled) {
		writeMessage(w, http.StatusConflict, "error", err.Error())
		return
	}
	if err != nil {
		h.logger.Error("backup now", "error", err)
		writeMessage(w, http.StatusBadGateway, "error", "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, obj)
}
