package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"dq/internal/adapters/email"
	"dq/internal/domain/outbox"
)

type countingExecutor struct {
	err   error
	calls int
}

func (c *countingExecutor) Execute(context.Context, string) error {
	c.calls++
	return c.err
}

func TestOutboxProcessor_ProcessPending(t *testing.T) {
	store := newMockOutbox()
	store.Save(context.Background(), outbox.New("ok", outbox.ActionPaymentSubmission, `{"tran_id":"T1"}`, fixedTime))
	store.Save(context.Background(), outbox.New("bad", outbox.ActionDonationReceipt, `{}`, fixedTime))

	okExec := &countingExecutor{}
	badExec := &countingExecutor{err: errors.New("still down")}
	now := fixedTime
	p := NewOutboxProcessor(store, map[string]ActionExecutor{
		outbox.ActionPaymentSubmission: okExec,
		outbox.ActionDonationReceipt:   badExec,
	}, func() time.Time { return now })

	stats, err := p.ProcessPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Attempted != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if store.entries["ok"].Status != outbox.StatusDone {
		t.Errorf("ok status = %s", store.entries["ok"].Status)
	}
	if e := store.entries["bad"]; e.Status != outbox.StatusRetrying || e.Attempts != 1 || e.ErrorMessage != "still down" {
		t.Errorf("bad entry = %+v", e)
	}

	// inside the backoff window nothing is retried
	now = now.Add(10 * time.Second)
	stats, _ = p.ProcessPending(context.Background())
	if stats.Attempted != 0 || stats.Skipped != 1 {
		t.Errorf("backoff stats = %+v", stats)
	}

	now = now.Add(2 * time.Minute)
	stats, _ = p.ProcessPending(context.Background())
	if stats.Attempted != 1 || badExec.calls != 2 {
		t.Errorf("after backoff stats = %+v calls = %d", stats, badExec.calls)
	}
}

func TestOutboxProcessor_UnknownActionFails(t *testing.T) {
	store := newMockOutbox()
	e := outbox.New("x", "mystery", "{}", fixedTime)
	e.MaxAttempts = 1
	store.Save(context.Background(), e)

	p := NewOutboxProcessor(store, nil, fixedNow)
	p.ProcessPending(context.Background())
	if store.entries["x"].Status != outbox.StatusFailed {
		t.Errorf("status = %s, want failed", store.entries["x"].Status)
	}
	if err := p.ProcessSingle(context.Background(), "x"); !errors.Is(err, ErrTerminalEntry) {
		t.Errorf("ProcessSingle err = %v, want ErrTerminalEntry", err)
	}
}

func TestOutboxProcessor_ProcessSingleIgnoresBackoff(t *testing.T) {
	store := newMockOutbox()
	e := outbox.New("a", outbox.ActionPaymentSubmission, "{}", fixedTime)
	e.MarkAttempt(fixedTime)
	store.Save(context.Background(), e)
	exec := &countingExecutor{}

	p := NewOutboxProcessor(store, map[string]ActionExecutor{outbox.ActionPaymentSubmission: exec}, fixedNow)
	if err := p.ProcessSingle(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if exec.calls != 1 || store.entries["a"].Status != outbox.StatusDone {
		t.Errorf("calls = %d status = %s", exec.calls, store.entries["a"].Status)
	}
}

func TestPaymentSubmissionExecutor(t *testing.T) {
	fwd := &mockForwarder{}
	if err := (PaymentSubmissionExecutor{Forwarder: fwd}).Execute(context.Background(), `{"tran_id":"T9"}`); err != nil {
		t.Fatal(err)
	}
	if len(fwd.calls) != 1 || fwd.calls[0]["tran_id"] != "T9" {
		t.Errorf("calls = %v", fwd.calls)
	}
	if err := (PaymentSubmissionExecutor{Forwarder: fwd}).Execute(context.Background(), `not json`); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestReceiptExecutor(t *testing.T) {
	sender := email.NewNoopSender()
	err := (ReceiptExecutor{Sender: sender}).Execute(context.Background(), `{"To":"a@b.co","Amount":500,"TranID":"T1"}`)
	if err != nil {
		t.Fatal(err)
	}
	if sent := sender.Sent(); len(sent) != 1 || sent[0].To[0] != "a@b.co" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestStartOutboxWorker_Stops(t *testing.T) {
	p := NewOutboxProcessor(newMockOutbox(), nil, fixedNow)
	stop := StartOutboxWorker(context.Background(), p, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	stop()
}
