// Package backup ships encrypted snapshots of the SQLite database to
// S3-compatible storage and restores them.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	_ "modernc.org/sqlite"

	"github.com/dukerupert/questpet/internal/clock"
)

const keyTimeLayout = "20060102T150405Z"

var ErrDisabled = errors.New("backup not configured: bucket, credentials and passphrase are required")

// ObjectStore is the slice of the S3 API the manager uses.
type ObjectStore interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3         S3Config
	Passphrase string
	Retention  time.Duration
}

// Enabled reports whether there is enough configuration to run backups.
func (c Config) Enabled() bool {
	return c.S3.complete() && c.Passphrase != ""
}

// NewS3Client builds a path-style client, which MinIO and R2 both accept.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastKey    string     `json:"last_key,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Object is one stored snapshot.
type Object struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	TakenAt time.Time `json:"taken_at"`
}

type Manager struct {
	mu     sync.Mutex
	cfg    Config
	status Status

	db     *sql.DB
	client ObjectStore
	clock  clock.Clock
	logger *slog.Logger
}

// NewManager wires a manager. With an incomplete Config it stays disabled
// and every operation returns ErrDisabled.
func NewManager(cfg Config, db *sql.DB, client ObjectStore, clk clock.Clock, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		db:     db,
		client: client,
		clock:  clk,
		logger: logger,
		status: Status{State: StateDisabled},
	}
	if cfg.Enabled() && client != nil {
		m.status.State = StateIdle
	}
	return m
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) enabled() bool {
	return m.Status().State != StateDisabled
}

func (m *Manager) keyFor(t time.Time) string {
	return m.cfg.S3.Prefix + "questpet-" + t.UTC().Format(keyTimeLayout) + ".db.enc"
}

// Run backs up every interval and prunes snapshots older than the
// retention window, until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if !m.enabled() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.RunNow(ctx); err != nil {
				m.logger.Error("scheduled backup failed", "error", err)
				continue
			}
			if m.cfg.Retention > 0 {
				if _, err := m.Cleanup(ctx, m.clock.Now().Add(-m.cfg.Retention)); err != nil {
					m.logger.Error("backup cleanup failed", "error", err)
				}
			}
		}
	}
}

// RunNow snapshots the database, seals it and uploads it.
func (m *Manager) RunNow(ctx context.Context) (Object, error) {
	if !m.enabled() {
		return Object{}, ErrDisabled
	}
	prev := m.Status()
	m.setStatus(Status{State: StateRunning, LastBackup: prev.LastBackup, LastKey: prev.LastKey})

	obj, err := m.runBackup(ctx)
	if err != nil {
		m.setStatus(Status{State: StateError, LastBackup: prev.LastBackup, LastKey: prev.LastKey, Error: err.Error()})
		return Object{}, err
	}
	m.setStatus(Status{State: StateIdle, LastBackup: &obj.TakenAt, LastKey: obj.Key})
	m.logger.Info("backup uploaded", "key", obj.Key, "size", obj.Size)
	return obj, nil
}

func (m *Manager) runBackup(ctx context.Context) (Object, error) {
	takenAt := m.clock.Now().UTC()

	dir, err := os.MkdirTemp("", "questpet-backup-")
	if err != nil {
		return Object{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return Object{}, fmt.Errorf("snapshot database: %w", err)
	}
	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return Object{}, fmt.Errorf("read snapshot: %w", err)
	}
	sealed, err := Seal(plaintext, m.cfg.Passphrase)
	if err != nil {
		return Object{}, fmt.Errorf("encrypt: %w", err)
	}

	key := m.keyFor(takenAt)
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload to s3: %w", err)
	}
	return Object{Key: key, Size: int64(len(sealed)), TakenAt: takenAt}, nil
}

// List returns stored snapshots, newest first. Keys under the prefix that
// do not look like snapshots are skipped.
func (m *Manager) List(ctx context.Context) ([]Object, error) {
	if !m.enabled() {
		return nil, ErrDisabled
	}

	var objects []Object
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Prefix: aws.String(m.cfg.S3.Prefix),
	}
	for {
		out, err := m.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, o := range out.Contents {
			key := aws.ToString(o.Key)
			takenAt, ok := m.parseKey(key)
			if !ok {
				continue
			}
			objects = append(objects, Object{Key: key, Size: aws.ToInt64(o.Size), TakenAt: takenAt})
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].TakenAt.After(objects[j].TakenAt) })
	return objects, nil
}

func (m *Manager) parseKey(key string) (time.Time, bool) {
	name := strings.TrimPrefix(key, m.cfg.S3.Prefix)
	if !strings.HasPrefix(name, "questpet-") || !strings.HasSuffix(name, ".db.enc") {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, "questpet-"), ".db.enc")
	t, err := time.Parse(keyTimeLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Cleanup deletes snapshots taken before cutoff and returns how many went.
func (m *Manager) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	objects, err := m.List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, o := range objects {
		if !o.TakenAt.Before(cutoff) {
			continue
		}
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(o.Key),
		}); err != nil {
			m.logger.Warn("delete snapshot", "key", o.Key, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Restore downloads snapshot key, checks its integrity and writes it over
// dbPath. The server must not have dbPath open.
func (m *Manager) Restore(ctx context.Context, key, dbPath string) error {
	if !m.enabled() {
		return ErrDisabled
	}

	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download from s3: %w", err)
	}
	defer out.Body.Close()

	sealed, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	plaintext, err := Open(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}

	staged := dbPath + ".restore"
	if err := os.WriteFile(staged, plaintext, 0o600); err != nil {
		return fmt.Errorf("write staged database: %w", err)
	}
	defer os.Remove(staged)

	if err := checkIntegrity(staged); err != nil {
		return err
	}
	if err := os.Rename(staged, dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	m.logger.Info("database restored", "key", key, "path", dbPath)
	return nil
}

func checkIntegrity(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
