package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"researchflow/internal/config"
	"researchflow/internal/storage"
	"researchflow/internal/types"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func init() {
	storage.RegisterFactory("sqlite", New)
}

type SQLiteStore struct {
	conn *sql.DB
}

func New(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	slog.Info("Initializing SQLite run store", "path", cfg.Path)

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", cfg.Path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &SQLiteStore{conn: conn}, nil
}

func runMigrations(conn *sql.DB) error {
	slog.Debug("Running database migrations")

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("Migrations completed successfully")
	return nil
}

func (s *SQLiteStore) SeenItem(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx, "SELECT 1 FROM items WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLiteStore) RememberItem(ctx context.Context, item *types.Item) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO items (id, source, fetched_at) VALUES (?, ?, ?)",
		item.ID, item.Source, item.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, report *types.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize run report: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, total_executors, successful, failed, total_items, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.StartedAt, report.FinishedAt, report.TotalExecutors,
		report.Successful, report.Failed, report.TotalItems, string(payload))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
