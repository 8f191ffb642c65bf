// Package email delivers donor-facing mail. Resend is used in production;
// NoopSender logs and records messages everywhere else.
package email

import (
	"context"
	"time"
)

// SendRequest is one outgoing message.
type SendRequest struct {
	To       []string
	From     string // empty uses the sender's default
	Subject  string
	HTML     string
	ReplyTo  string
	Category string // provider tag, e.g. "donation_receipt"
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender sends email through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
