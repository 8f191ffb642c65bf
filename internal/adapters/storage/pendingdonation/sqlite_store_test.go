package pendingdonation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"dq/internal/adapters/storage"
	"dq/internal/domain/donation"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatal(err)
	}
	return NewSQLiteStore(db, time.Hour)
}

// TestSQLiteStore_RoundTrip stores, reads back and clears a payload.
func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := donation.StagingKey("sid-1")
	p := donation.CachePayload{
		Purpose: "winter", Contact: "01711111111", Amount: 500,
		PurposeLabel: "Winter Relief", Behalf: "My parents", Name: "Karim",
	}

	if err := store.Put(ctx, key, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || *got != p {
		t.Errorf("Get = %+v, want %+v", got, p)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = store.Get(ctx, key)
	if err != nil || got != nil {
		t.Errorf("after Delete: %+v, %v; want nil, nil", got, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestSQLiteStore_PutReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Put(ctx, "k", donation.CachePayload{Amount: 100})
	store.Put(ctx, "k", donation.CachePayload{Amount: 200})
	got, _ := store.Get(ctx, "k")
	if got == nil || got.Amount != 200 {
		t.Errorf("Get = %+v, want amount 200", got)
	}
}

func TestSQLiteStore_Expiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Put(ctx, "old", donation.CachePayload{Amount: 1})
	now = now.Add(2 * time.Hour)
	store.Put(ctx, "fresh", donation.CachePayload{Amount: 2})

	if got, _ := store.Get(ctx, "old"); got != nil {
		t.Errorf("expired entry returned: %+v", got)
	}
	n, err := store.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("PurgeExpired = %d, %v; want 1", n, err)
	}
	if got, _ := store.Get(ctx, "fresh"); got == nil {
		t.Error("fresh entry should survive purge")
	}
}
