package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/blogdeck/internal/apperror"
	"github.com/sakif/blogdeck/internal/repository"
)

// Compile-time check that *DB satisfies the storage contract.
var _ repository.KVStore = (*DB)(nil)

// Get returns the value stored under key, or a wrapped apperror.ErrNotFound
// when no row exists. The session store relies on that distinction: an
// absent key means "no saved state", any other error is a storage failure.
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv_state WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperror.NotFound("key", key)
		}
		return "", fmt.Errorf("sqlite: getting key %s: %w", key, err)
	}
	return value, nil
}

// Set inserts or overwrites the value under key.
func (db *DB) Set(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO kv_state (key, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting key %s: %w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error: the
// session store deletes keys unconditionally when state goes back to nil.
func (db *DB) Delete(ctx context.Context, key string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM kv_state WHERE key = ?`, key,
	); err != nil {
		return fmt.Errorf("sqlite: deleting key %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix. Logout uses this to
// clear the session namespace without touching unrelated entries.
func (db *DB) DeletePrefix(ctx context.Context, prefix string) error {
	// LIKE with an escaped pattern: % and _ in the prefix must not act as
	// wildcards, or a prefix like "blog_" would match more than intended.
	pattern := escapeLike(prefix) + "%"
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM kv_state WHERE key LIKE ? ESCAPE '\'`, pattern,
	); err != nil {
		return fmt.Errorf("sqlite: deleting prefix %s: %w", prefix, err)
	}
	return nil
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
