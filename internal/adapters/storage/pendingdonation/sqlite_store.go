// Package pendingdonation stages a donor's payload between the gateway redirect
// and the callback page. Entries are keyed by donation.StagingKey.
package pendingdonation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dq/internal/adapters/storage"
	"dq/internal/domain/donation"
)

// DefaultTTL bounds how long a staged payload is kept if the donor never returns.
const DefaultTTL = 24 * time.Hour

const timeLayout = time.RFC3339Nano

// SQLiteStore implements the staging buffer using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore creates a store. A non-positive ttl means DefaultTTL.
func NewSQLiteStore(db storage.SQLDB, ttl time.Duration) *SQLiteStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}
}

// Put stages p under key, replacing any previous payload.
// PRE: key is non-empty
// POST: Get(key) returns p until the TTL passes or Delete(key) is called
func (s *SQLiteStore) Put(ctx context.Context, key string, p donation.CachePayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending donation: %w", err)
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_donation (key, payload, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, created_at=excluded.created_at, expires_at=excluded.expires_at`,
		key, string(data), now.Format(timeLayout), now.Add(s.ttl).Format(timeLayout))
	return err
}

// Get returns the staged payload, or nil when none exists or it has expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*donation.CachePayload, error) {
	var data, expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM pending_donation WHERE key = ?`, key).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if exp, err := time.Parse(timeLayout, expiresAt); err == nil && !s.now().Before(exp) {
		return nil, nil
	}
	var p donation.CachePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode pending donation: %w", err)
	}
	return &p, nil
}

// Delete clears the staged payload. Missing keys are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_donation WHERE key = ?`, key)
	return err
}

// PurgeExpired removes expired entries and returns how many were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_donation WHERE expires_at <= ?`, s.now().UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
