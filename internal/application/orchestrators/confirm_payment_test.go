package orchestrators

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"dq/internal/adapters/email"
	"dq/internal/domain/donation"
	"dq/internal/domain/outbox"
	"dq/internal/domain/payment"
)

func validQuery() url.Values {
	return url.Values{"tran_id": {"T100"}, "status": {"VALID"}, "amount": {"500.00"}, "val_id": {"V1"}, "card_type": {"bKash"}}
}

func confirmDeps(pending *mockPendingStore, fwd *mockForwarder, ob *mockOutbox, sender email.Sender) ConfirmPaymentDeps {
	return ConfirmPaymentDeps{
		Pending: pending, Forwarder: fwd, Outbox: ob, Email: sender,
		GenerateID: sequentialIDs(), Now: fixedNow,
	}
}

func TestExecuteConfirmPayment_RejectsUnverified(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  error
	}{
		{"missing tran_id", url.Values{"status": {"VALID"}}, payment.ErrMissingTransaction},
		{"failed status", url.Values{"tran_id": {"T1"}, "status": {"FAILED"}}, payment.ErrNotValidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd := &mockForwarder{}
			_, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{Query: tt.query},
				confirmDeps(newMockPendingStore(), fwd, newMockOutbox(), email.NewNoopSender()))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(fwd.calls) != 0 {
				t.Error("unverified callback must not be forwarded")
			}
		})
	}
}

// TestExecuteConfirmPayment_ForwardsAndClears forwards every field, sends a receipt
// to an email contact and clears the staged payload.
func TestExecuteConfirmPayment_ForwardsAndClears(t *testing.T) {
	pending := newMockPendingStore()
	key := donation.StagingKey("sid-1")
	pending.items[key] = donation.CachePayload{Purpose: "winter", Contact: "karim@example.com", Amount: 500, PurposeLabel: "Winter Relief", Name: "Karim"}
	fwd := &mockForwarder{}
	ob := newMockOutbox()
	sender := email.NewNoopSender()

	res, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{Query: validQuery(), SessionID: "sid-1"},
		confirmDeps(pending, fwd, ob, sender))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fwd.calls) != 1 || fwd.calls[0]["card_type"] != "bKash" || fwd.calls[0]["val_id"] != "V1" {
		t.Errorf("forwarded = %v", fwd.calls)
	}
	if res.Queued || res.TranID != "T100" || res.Amount != 500 || res.Donation == nil || !res.Receipt {
		t.Errorf("result = %+v", res)
	}
	if _, ok := pending.items[key]; ok {
		t.Error("staged payload should be cleared")
	}
	if len(sender.Sent()) != 1 {
		t.Errorf("receipts sent = %d, want 1", len(sender.Sent()))
	}
	if len(ob.entries) != 0 {
		t.Errorf("outbox = %v, want empty", ob.entries)
	}
}

// TestExecuteConfirmPayment_ForwardFailureQueuesOnce leaves exactly one pending entry.
func TestExecuteConfirmPayment_ForwardFailureQueuesOnce(t *testing.T) {
	fwd := &mockForwarder{err: errors.New("connection refused")}
	ob := newMockOutbox()

	res, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{Query: validQuery()},
		confirmDeps(newMockPendingStore(), fwd, ob, email.NewNoopSender()))
	if err != nil {
		t.Fatalf("forward failure should not surface: %v", err)
	}
	if !res.Queued {
		t.Error("result should report queued")
	}
	if len(ob.entries) != 1 {
		t.Fatalf("outbox entries = %d, want 1", len(ob.entries))
	}
	for _, e := range ob.entries {
		if e.ActionType != outbox.ActionPaymentSubmission || e.Status != outbox.StatusPending {
			t.Errorf("entry = %+v", e)
		}
	}
}

func TestExecuteConfirmPayment_PhoneContactNoReceipt(t *testing.T) {
	pending := newMockPendingStore()
	pending.items[donation.StagingKey("s")] = donation.CachePayload{Contact: "01711111111", Amount: 500}
	sender := email.NewNoopSender()

	res, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{Query: validQuery(), SessionID: "s"},
		confirmDeps(pending, &mockForwarder{}, newMockOutbox(), sender))
	if err != nil {
		t.Fatal(err)
	}
	if res.Receipt || len(sender.Sent()) != 0 {
		t.Errorf("phone contacts get no email receipt: %+v", res)
	}
}

func TestExecuteConfirmPayment_ReceiptFailureQueued(t *testing.T) {
	pending := newMockPendingStore()
	pending.items[donation.StagingKey("s")] = donation.CachePayload{Contact: "a@b.co", Amount: 500}
	ob := newMockOutbox()

	res, err := ExecuteConfirmPayment(context.Background(), ConfirmPaymentInput{Query: validQuery(), SessionID: "s"},
		confirmDeps(pending, &mockForwarder{}, ob, failingSender{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Receipt || len(ob.entries) != 1 {
		t.Fatalf("res = %+v, outbox = %v", res, ob.entries)
	}
	for _, e := range ob.entries {
		if e.ActionType != outbox.ActionDonationReceipt {
			t.Errorf("action = %s", e.ActionType)
		}
	}
}
