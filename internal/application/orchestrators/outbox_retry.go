package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dq/internal/adapters/email"
	"dq/internal/domain/outbox"
)

// ErrTerminalEntry is returned when retrying an entry that is done or failed.
var ErrTerminalEntry = errors.New("outbox entry is not pending")

// OutboxStoreForRetry defines the store interface needed by the processor.
type OutboxStoreForRetry interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListPending(ctx context.Context, limit int) ([]outbox.Entry, error)
}

// ActionExecutor replays one kind of outbox action.
type ActionExecutor interface {
	Execute(ctx context.Context, payload string) error
}

// OutboxStats summarises one processing pass.
type OutboxStats struct {
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int // still backing off
}

// OutboxProcessor retries queued external actions with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStoreForRetry
	executors map[string]ActionExecutor
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a processor.
func NewOutboxProcessor(store OutboxStoreForRetry, executors map[string]ActionExecutor, now func() time.Time) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		now:       now,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 20,
	}
}

// ProcessPending attempts every due entry once.
// POST: each attempted entry is saved with its new status
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (OutboxStats, error) {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return OutboxStats{}, fmt.Errorf("list pending outbox entries: %w", err)
	}

	var stats OutboxStats
	for _, e := range entries {
		if !e.Due(p.now(), p.baseDelay, p.maxDelay) {
			stats.Skipped++
			continue
		}
		stats.Attempted++
		if err := p.attempt(ctx, &e); err != nil {
			stats.Failed++
		} else {
			stats.Succeeded++
		}
	}
	if stats.Attempted > 0 {
		slog.Info("outbox_pass", "attempted", stats.Attempted, "succeeded", stats.Succeeded, "failed", stats.Failed, "skipped", stats.Skipped)
	}
	return stats, nil
}

// ProcessSingle retries one entry immediately, ignoring backoff.
// PRE: id names a pending or retrying entry
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, id string) error {
	e, err := p.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if e.Status != outbox.StatusPending && e.Status != outbox.StatusRetrying {
		return ErrTerminalEntry
	}
	return p.attempt(ctx, &e)
}

// attempt runs the executor and saves the outcome. The returned error is the
// executor's; save failures are logged.
func (p *OutboxProcessor) attempt(ctx context.Context, e *outbox.Entry) error {
	e.MarkAttempt(p.now())

	var err error
	if exec, ok := p.executors[e.ActionType]; ok {
		err = exec.Execute(ctx, e.Payload)
	} else {
		err = fmt.Errorf("no executor registered for action type: %s", e.ActionType)
	}
	if err != nil {
		e.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", e.ID, "action", e.ActionType, "attempt", e.Attempts, "status", e.Status, "error", err)
	} else {
		e.MarkSuccess()
		slog.Info("outbox_action_succeeded", "entry_id", e.ID, "action", e.ActionType, "attempt", e.Attempts)
	}

	if saveErr := p.store.Save(ctx, *e); saveErr != nil {
		slog.Error("outbox_save_failed", "entry_id", e.ID, "error", saveErr)
	}
	return err
}

// StartOutboxWorker runs ProcessPending on a ticker until ctx is cancelled.
// POST: returns a stop function that cancels the worker and waits for it to exit
func StartOutboxWorker(ctx context.Context, p *OutboxProcessor, interval time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("outbox_worker_stopped")
				return
			case <-ticker.C:
				if _, err := p.ProcessPending(ctx); err != nil {
					slog.Error("outbox_worker_error", "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// --- Executors ---

// PaymentSubmissionExecutor replays a gateway callback to the backend.
type PaymentSubmissionExecutor struct {
	Forwarder PaymentForwarder
}

// Execute implements ActionExecutor.
func (x PaymentSubmissionExecutor) Execute(ctx context.Context, payload string) error {
	var fields map[string]string
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return fmt.Errorf("unmarshal payment payload: %w", err)
	}
	_, err := x.Forwarder.SubmitAfterPayment(ctx, fields)
	return err
}

// ReceiptExecutor re-sends a donation receipt.
type ReceiptExecutor struct {
	Sender email.Sender
}

// Execute implements ActionExecutor.
func (x ReceiptExecutor) Execute(ctx context.Context, payload string) error {
	var r email.Receipt
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return fmt.Errorf("unmarshal receipt payload: %w", err)
	}
	req, err := email.RenderReceipt(r)
	if err != nil {
		return err
	}
	_, err = x.Sender.Send(ctx, req)
	return err
}
