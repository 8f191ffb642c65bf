package web

import (
	"errors"
	"net/http"
	"net/url"

	"dq/internal/adapters/http/middleware"
	"dq/internal/application/orchestrators"
	"dq/internal/domain/donation"
	"dq/internal/domain/payment"
)

// defaultFailureReason is shown when the gateway sends no reason.
const defaultFailureReason = "Your payment was not completed. No money was taken."

type paymentSuccessPage struct {
	TranID   string
	Amount   float64
	Donation *donation.CachePayload
	Queued   bool
	Receipt  bool
	Message  string
}

type paymentFailedPage struct {
	TranID string
	Reason string
}

// callbackValues merges the query with a posted form. The gateway may use either.
func callbackValues(r *http.Request) url.Values {
	q := r.URL.Query()
	if r.Method != http.MethodPost {
		return q
	}
	if err := r.ParseForm(); err != nil {
		return q
	}
	for k, v := range r.PostForm {
		if _, ok := q[k]; !ok {
			q[k] = v
		}
	}
	return q
}

// handlePaymentSuccess reconciles the gateway redirect. A callback the gateway
// did not validate shows the failure page, still with status 200.
func (a *app) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	q := callbackValues(r)
	res, err := orchestrators.ExecuteConfirmPayment(r.Context(), orchestrators.ConfirmPaymentInput{
		Query:     q,
		SessionID: middleware.SessionIDFromContext(r.Context()),
	}, orchestrators.ConfirmPaymentDeps{
		Pending:    a.Pending,
		Forwarder:  a.Services.Donations,
		Outbox:     a.Outbox,
		Email:      a.Email,
		GenerateID: a.GenerateID,
		Now:        a.Now,
	})
	if err != nil {
		reason := defaultFailureReason
		if errors.Is(err, payment.ErrMissingTransaction) || errors.Is(err, payment.ErrNotValidated) {
			reason = err.Error()
		}
		renderTemplate(w, r, http.StatusOK, "payment_failed.html", paymentFailedPage{TranID: q.Get("tran_id"), Reason: reason})
		return
	}
	renderTemplate(w, r, http.StatusOK, "payment_success.html", paymentSuccessPage{
		TranID:   res.TranID,
		Amount:   res.Amount,
		Donation: res.Donation,
		Queued:   res.Queued,
		Receipt:  res.Receipt,
		Message:  res.Message,
	})
}

func (a *app) handlePaymentFailed(w http.ResponseWriter, r *http.Request) {
	q := callbackValues(r)
	reason := q.Get("reason")
	if reason == "" {
		reason = q.Get("error")
	}
	if reason == "" {
		reason = defaultFailureReason
	}
	renderTemplate(w, r, http.StatusOK, "payment_failed.html", paymentFailedPage{TranID: q.Get("tran_id"), Reason: reason})
}
