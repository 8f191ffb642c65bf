package orchestrators

import (
	"context"
	"errors"
	"testing"

	"dq/internal/adapters/backend"
	"dq/internal/domain/donation"
)

func winterForm(amount float64) *donation.Form {
	sel := donation.NewAmountSelector(donation.TabDaily, []float64{amount, 1000})
	return &donation.Form{
		Purpose:      "winter",
		PurposeLabel: "Winter Relief",
		Name:         "Karim",
		Contact:      "01711111111",
		Method:       donation.PaymentMethodOnline,
		Selector:     sel,
	}
}

// TestExecuteSubmitDonation_Winter stages the payload then redirects to the gateway.
func TestExecuteSubmitDonation_Winter(t *testing.T) {
	pending := newMockPendingStore()
	donations := &mockDonations{url: "https://sandbox.sslcommerz.com/gw/abc"}

	res, err := ExecuteSubmitDonation(context.Background(), SubmitDonationInput{
		Form: winterForm(500), SessionID: "sid-1",
	}, SubmitDonationDeps{Pending: pending, Donations: donations})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RedirectURL != "https://sandbox.sslcommerz.com/gw/abc" {
		t.Errorf("RedirectURL = %q", res.RedirectURL)
	}

	want := donation.CachePayload{Purpose: "winter", Contact: "01711111111", Amount: 500, PurposeLabel: "Winter Relief", Name: "Karim"}
	staged, ok := pending.items["dq:pendingDonation:sid-1"]
	if !ok || staged != want {
		t.Errorf("staged = %+v (ok=%v), want %+v", staged, ok, want)
	}
	if len(donations.received) != 1 || donations.received[0] != want {
		t.Errorf("posted = %+v", donations.received)
	}
}

func TestExecuteSubmitDonation_InvalidMakesNoCall(t *testing.T) {
	donations := &mockDonations{url: "x"}
	form := winterForm(500)
	form.Contact = "12345"

	_, err := ExecuteSubmitDonation(context.Background(), SubmitDonationInput{Form: form}, SubmitDonationDeps{Donations: donations})
	var verrs donation.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if verrs[donation.FieldContact] != "Phone number must be 7-14 digits" {
		t.Errorf("contact error = %q", verrs[donation.FieldContact])
	}
	if len(donations.received) != 0 {
		t.Error("backend should not be called for an invalid form")
	}
	if !form.Submitted {
		t.Error("form should be marked submitted")
	}
}

func TestExecuteSubmitDonation_StagingFailureSwallowed(t *testing.T) {
	pending := newMockPendingStore()
	pending.putErr = errors.New("disk full")
	donations := &mockDonations{url: "https://gw/1"}

	res, err := ExecuteSubmitDonation(context.Background(), SubmitDonationInput{Form: winterForm(500), SessionID: "sid"},
		SubmitDonationDeps{Pending: pending, Donations: donations})
	if err != nil || res.RedirectURL != "https://gw/1" {
		t.Errorf("res = %+v, err = %v; staging failure must not block the donation", res, err)
	}
}

func TestExecuteSubmitDonation_BackendFailure(t *testing.T) {
	donations := &mockDonations{err: &backend.APIError{Status: 500, Message: "gateway down"}}
	_, err := ExecuteSubmitDonation(context.Background(), SubmitDonationInput{Form: winterForm(500)}, SubmitDonationDeps{Donations: donations})
	if !errors.Is(err, ErrDonationFailed) {
		t.Errorf("err = %v, want ErrDonationFailed", err)
	}
	if backend.StatusOf(err) != 500 {
		t.Errorf("upstream status lost: %v", err)
	}
}
