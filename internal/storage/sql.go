package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps values in the kv_store table. The same queries run on
// sqlite3 and postgres; sqlx rebinds placeholders per driver.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const upsertKV = `INSERT INTO kv_store (k, v, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.GetContext(ctx, &v, s.db.Rebind(`SELECT v FROM kv_store WHERE k = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return []byte(v), nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertKV), key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_store WHERE k = ?`), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Row locks cannot cover a key that has no row yet, so on postgres every
	// update of a key first takes a transaction-scoped advisory lock on it.
	// SQLite runs on a single connection and is already serialized.
	query := `SELECT v FROM kv_store WHERE k = ?`
	if s.db.DriverName() == "postgres" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
		query += ` FOR UPDATE`
	}

	var cur string
	found := true
	err = tx.GetContext(ctx, &cur, tx.Rebind(query), key)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
	} else if err != nil {
		return fmt.Errorf("select %s: %w", key, err)
	}

	var current []byte
	if found {
		current = []byte(cur)
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(upsertKV), key, string(next), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		s.db.Rebind(`SELECT k FROM kv_store WHERE k LIKE ? ESCAPE '\' ORDER BY k`),
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("list %s*: %w", prefix, err)
	}
	return keys, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
