package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"dq/internal/adapters/backend"
	"dq/internal/adapters/email"
	"dq/internal/domain/donation"
	"dq/internal/domain/outbox"
	"dq/internal/domain/payment"
)

// PaymentForwarder finalises a payment at the backend.
type PaymentForwarder interface {
	SubmitAfterPayment(ctx context.Context, fields map[string]string) (backend.Result, error)
}

// OutboxStoreForOrchestrator is the outbox write used when an inline call fails.
type OutboxStoreForOrchestrator interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// ConfirmPaymentInput carries the gateway redirect query and the browser session.
type ConfirmPaymentInput struct {
	Query     url.Values
	SessionID string
}

// ConfirmPaymentResult describes what the success page shows.
type ConfirmPaymentResult struct {
	TranID   string
	Amount   float64
	Donation *donation.CachePayload // staged payload, when the session still had one
	Queued   bool                   // forward failed and was queued for retry
	Message  string                 // backend message, if any
	Receipt  bool                   // a receipt was sent or queued
}

// ConfirmPaymentDeps holds dependencies for ConfirmPayment.
type ConfirmPaymentDeps struct {
	Pending    PendingDonationStore
	Forwarder  PaymentForwarder
	Outbox     OutboxStoreForOrchestrator
	Email      email.Sender
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteConfirmPayment handles the gateway success redirect.
// PRE: input.Query is the raw redirect query
// POST: payment.ErrMissingTransaction / ErrNotValidated when the gateway did not
// confirm payment (nothing forwarded); otherwise every query field was forwarded
// to the backend or exactly one payment_submission entry was queued, and the
// staged payload for the session was cleared
func ExecuteConfirmPayment(ctx context.Context, input ConfirmPaymentInput, deps ConfirmPaymentDeps) (ConfirmPaymentResult, error) {
	cb := payment.ParseCallback(input.Query)
	if err := cb.Verify(); err != nil {
		slog.Info("payment_event", "event", "callback_rejected", "tran_id", cb.TranID, "status", cb.Status)
		return ConfirmPaymentResult{}, err
	}

	result := ConfirmPaymentResult{TranID: cb.TranID, Amount: cb.Amount}
	fields := cb.Fields()

	res, err := deps.Forwarder.SubmitAfterPayment(ctx, fields)
	if err != nil {
		slog.Warn("payment_event", "event", "forward_failed", "tran_id", cb.TranID, "error", err)
		if qerr := enqueue(ctx, deps, outbox.ActionPaymentSubmission, fields); qerr != nil {
			slog.Error("payment_event", "event", "outbox_save_failed", "tran_id", cb.TranID, "error", qerr)
		}
		result.Queued = true
	} else {
		result.Message = res.Message
		slog.Info("payment_event", "event", "payment_forwarded", "tran_id", cb.TranID)
	}

	if input.SessionID == "" || deps.Pending == nil {
		return result, nil
	}
	key := donation.StagingKey(input.SessionID)
	staged, err := deps.Pending.Get(ctx, key)
	if err != nil {
		slog.Warn("payment_event", "event", "staging_read_failed", "tran_id", cb.TranID, "error", err)
		return result, nil
	}
	if staged == nil {
		return result, nil
	}
	result.Donation = staged
	if result.Amount == 0 {
		result.Amount = staged.Amount
	}

	if donation.IsEmailContact(staged.Contact) && deps.Email != nil {
		result.Receipt = sendReceipt(ctx, deps, email.Receipt{
			To:           staged.Contact,
			Name:         staged.Name,
			PurposeLabel: staged.PurposeLabel,
			Behalf:       staged.Behalf,
			Amount:       result.Amount,
			TranID:       cb.TranID,
		})
	}

	if err := deps.Pending.Delete(ctx, key); err != nil {
		slog.Warn("payment_event", "event", "staging_clear_failed", "tran_id", cb.TranID, "error", err)
	}
	return result, nil
}

// sendReceipt sends inline and falls back to the outbox. It reports whether the
// receipt was sent or queued.
func sendReceipt(ctx context.Context, deps ConfirmPaymentDeps, r email.Receipt) bool {
	req, err := email.RenderReceipt(r)
	if err != nil {
		slog.Error("payment_event", "event", "receipt_render_failed", "tran_id", r.TranID, "error", err)
		return false
	}
	if _, err := deps.Email.Send(ctx, req); err == nil {
		return true
	}
	if err := enqueue(ctx, deps, outbox.ActionDonationReceipt, r); err != nil {
		slog.Error("payment_event", "event", "outbox_save_failed", "tran_id", r.TranID, "error", err)
		return false
	}
	return true
}

func enqueue(ctx context.Context, deps ConfirmPaymentDeps, action string, payload any) error {
	if deps.Outbox == nil {
		return fmt.Errorf("no outbox configured for %s", action)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", action, err)
	}
	e := outbox.New(deps.GenerateID(), action, string(data), deps.Now())
	if err := e.Validate(); err != nil {
		return err
	}
	return deps.Outbox.Save(ctx, e)
}
