package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"havenhub/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// ErrCorrupt marks persisted identity data that can no longer be
// parsed; callers reset to anonymous instead of failing.
var ErrCorrupt = errors.New("persisted credentials are corrupt")

const (
	keyToken = "token"
	keyUser  = "user"
)

// Store persists the bearer token and serialized identity between runs.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to credentials store: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS credentials (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    )`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("error executing query %s: %w", query, err)
	}
	return nil
}

func (s *Store) Save(ctx context.Context, token string, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := `INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, upsert, keyToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, keyUser, string(data)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return tx.Commit()
}

// Load returns the persisted token and identity. A missing record
// yields empty values with no error; an unparsable identity yields
// ErrCorrupt.
func (s *Store) Load(ctx context.Context) (string, *models.User, error) {
	token, ok, err := s.get(ctx, keyToken)
	if err != nil {
		return "", nil, err
	}
	if !ok || token == "" {
		return "", nil, nil
	}

	raw, ok, err := s.get(ctx, keyUser)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrCorrupt
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil, ErrCorrupt
	}
	if user.ID == 0 {
		return "", nil, ErrCorrupt
	}

	return token, &user, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
