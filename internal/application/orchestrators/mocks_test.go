package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"dq/internal/adapters/backend"
	"dq/internal/adapters/email"
	"dq/internal/domain/donation"
	"dq/internal/domain/outbox"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// mockPendingStore implements PendingDonationStore.
type mockPendingStore struct {
	items  map[string]donation.CachePayload
	putErr error
}

func newMockPendingStore() *mockPendingStore {
	return &mockPendingStore{items: make(map[string]donation.CachePayload)}
}

func (m *mockPendingStore) Put(_ context.Context, key string, p donation.CachePayload) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.items[key] = p
	return nil
}

func (m *mockPendingStore) Get(_ context.Context, key string) (*donation.CachePayload, error) {
	p, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockPendingStore) Delete(_ context.Context, key string) error {
	delete(m.items, key)
	return nil
}

// mockDonations implements DonationCreator.
type mockDonations struct {
	url      string
	err      error
	received []donation.CachePayload
}

func (m *mockDonations) Create(_ context.Context, p donation.CachePayload) (string, error) {
	m.received = append(m.received, p)
	return m.url, m.err
}

// mockForwarder implements PaymentForwarder.
type mockForwarder struct {
	err   error
	calls []map[string]string
}

func (m *mockForwarder) SubmitAfterPayment(_ context.Context, fields map[string]string) (backend.Result, error) {
	m.calls = append(m.calls, maps.Clone(fields))
	if m.err != nil {
		return backend.Result{}, m.err
	}
	return backend.Result{Success: true, Message: "Payment recorded"}, nil
}

// mockOutbox implements OutboxStoreForOrchestrator and OutboxStoreForRetry.
type mockOutbox struct {
	entries map[string]outbox.Entry
	order   []string
}

func newMockOutbox() *mockOutbox {
	return &mockOutbox{entries: make(map[string]outbox.Entry)}
}

func (m *mockOutbox) Save(_ context.Context, e outbox.Entry) error {
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutbox) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, errors.New("not found")
	}
	return e, nil
}

func (m *mockOutbox) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// failingSender always fails.
type failingSender struct{}

func (failingSender) Send(context.Context, email.SendRequest) (email.SendResult, error) {
	return email.SendResult{}, errors.New("provider down")
}
