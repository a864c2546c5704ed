// Package storage persists the session credential between runs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"financeflow/internal/log"
	"financeflow/internal/ports"
)

var (
	_ ports.CredentialStore = (*SQLiteCredentialStore)(nil)
	_ ports.CredentialStore = (*MemoryCredentialStore)(nil)
)

// SQLiteCredentialStore keeps the single credential row in a local SQLite
// database.
type SQLiteCredentialStore struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

func NewSQLiteCredentialStore(dbPath string, logger *log.Logger) (*SQLiteCredentialStore, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("Credential store opened", log.FieldBackend, "sqlite", log.FieldPath, dbPath)

	return &SQLiteCredentialStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteCredentialStore) Load(ctx context.Context) (string, bool, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT token FROM credentials WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select credential: %w", err)
	}
	return token, true, nil
}

func (s *SQLiteCredentialStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		token, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.logger.InfoContext(ctx, "Credential saved")
	return nil
}

func (s *SQLiteCredentialStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.logger.InfoContext(ctx, "Credential cleared")
	return nil
}

func (s *SQLiteCredentialStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MemoryCredentialStore lives only as long as the process.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
	set   bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (m *MemoryCredentialStore) Load(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.set, nil
}

func (m *MemoryCredentialStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
	return nil
}

func (m *MemoryCredentialStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = "", false
	return nil
}

func (m *MemoryCredentialStore) Close() error { return nil }
