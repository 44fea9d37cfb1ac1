package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/forumsession/internal/client/migrations"
	"github.com/dmitrijs2005/forumsession/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (creating if needed) the session database at dsn and
// brings its schema up to date.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return db, nil
}

var errCredentialMismatch = errors.New("stored value differs from written value")

// SQLiteStore keeps the credential under TokenKey in the credentials table,
// so it survives process restarts.
type SQLiteStore struct {
	db  dbx.DBTX
	key string
}

// NewSQLiteStore accepts a *sql.DB, or a *sql.Tx to take part in a
// caller's transaction.
func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db, key: TokenKey}
}

func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, s.key).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credential[%s]: %w", s.key, err)
	}
	return token, nil
}

// Set replaces the stored credential. The upsert and its read-back run in
// one transaction when the store owns a *sql.DB; on a caller's *sql.Tx they
// join that transaction.
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyCredential
	}

	var err error
	if db, ok := s.db.(*sql.DB); ok {
		err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return s.set(ctx, tx, token)
		})
	} else {
		err = s.set(ctx, s.db, token)
	}
	if err != nil {
		return fmt.Errorf("failed to set credential[%s]: %w", s.key, err)
	}
	return nil
}

func (s *SQLiteStore) set(ctx context.Context, q dbx.DBTX, token string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.key, token)
	if err != nil {
		return err
	}

	var stored string
	if err := q.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, s.key).Scan(&stored); err != nil {
		return err
	}
	if stored != token {
		return errCredentialMismatch
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, s.key)
	if err != nil {
		return fmt.Errorf("failed to clear credential[%s]: %w", s.key, err)
	}
	return nil
}
