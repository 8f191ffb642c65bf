package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dq/internal/domain/donation"
)

// ErrDonationFailed wraps any failure to obtain a gateway URL.
var ErrDonationFailed = errors.New("Could not start the payment, please try again")

// PendingDonationStore is the staging buffer keyed by donation.StagingKey.
type PendingDonationStore interface {
	Put(ctx context.Context, key string, p donation.CachePayload) error
	Get(ctx context.Context, key string) (*donation.CachePayload, error)
	Delete(ctx context.Context, key string) error
}

// DonationCreator records a donation and returns the gateway URL.
type DonationCreator interface {
	Create(ctx context.Context, p donation.CachePayload) (string, error)
}

// SubmitDonationInput carries the submitted form and the browser session.
type SubmitDonationInput struct {
	Form      *donation.Form
	SessionID string // empty skips staging
}

// SubmitDonationResult is where to send the donor next.
type SubmitDonationResult struct {
	RedirectURL string
	Payload     donation.CachePayload
}

// SubmitDonationDeps holds dependencies for SubmitDonation.
type SubmitDonationDeps struct {
	Pending   PendingDonationStore
	Donations DonationCreator
}

// ExecuteSubmitDonation validates the form, stages the payload and asks the
// backend for a gateway URL.
// Staging is best effort: a failure is logged and the donation still proceeds.
// PRE: input.Form is non-nil
// POST: donation.ValidationErrors when the form is invalid (no backend call made);
// an error wrapping ErrDonationFailed when the backend call fails;
// otherwise the gateway URL, with the payload staged under the session key
func ExecuteSubmitDonation(ctx context.Context, input SubmitDonationInput, deps SubmitDonationDeps) (SubmitDonationResult, error) {
	payload, err := input.Form.Submit()
	if err != nil {
		return SubmitDonationResult{}, err
	}

	if input.SessionID != "" && deps.Pending != nil {
		if err := deps.Pending.Put(ctx, donation.StagingKey(input.SessionID), payload); err != nil {
			slog.Warn("donation_event", "event", "staging_failed", "purpose", payload.Purpose, "error", err)
		}
	}

	url, err := deps.Donations.Create(ctx, payload)
	if err != nil {
		slog.Error("donation_event", "event", "create_failed", "purpose", payload.Purpose, "amount", payload.Amount, "error", err)
		return SubmitDonationResult{}, fmt.Errorf("%w: %w", ErrDonationFailed, err)
	}

	slog.Info("donation_event", "event", "redirect_to_gateway", "purpose", payload.Purpose, "amount", payload.Amount)
	return SubmitDonationResult{RedirectURL: url, Payload: payload}, nil
}
