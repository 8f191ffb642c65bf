package payment

import (
	"errors"
	"net/url"
	"strconv"
)

// Gateway status values that mean the payment went through.
const (
	StatusValid     = "VALID"
	StatusValidated = "VALIDATED"
)

// Callback errors. These are shown to the donor, never raised as server errors.
var (
	ErrMissingTransaction = errors.New("Payment could not be verified: missing transaction id")
	ErrNotValidated       = errors.New("Payment was not validated by the gateway")
)

// Callback is the query the gateway appends when redirecting back to the site.
type Callback struct {
	TranID string
	Status string
	Amount float64
	ValID  string
	Params url.Values // everything the gateway sent, forwarded verbatim
}

// ParseCallback reads a gateway redirect query.
// PRE: none
// POST: Returns a Callback; unknown amount text parses as 0
func ParseCallback(q url.Values) Callback {
	amount, _ := strconv.ParseFloat(q.Get("amount"), 64)
	params := make(url.Values, len(q))
	for k, v := range q {
		params[k] = append([]string(nil), v...)
	}
	return Callback{
		TranID: q.Get("tran_id"),
		Status: q.Get("status"),
		Amount: amount,
		ValID:  q.Get("val_id"),
		Params: params,
	}
}

// Verify reports whether the callback describes a successful payment.
// PRE: none
// POST: Returns nil only when tran_id is present and status is VALID or VALIDATED
func (c Callback) Verify() error {
	if c.TranID == "" {
		return ErrMissingTransaction
	}
	if c.Status != StatusValid && c.Status != StatusValidated {
		return ErrNotValidated
	}
	return nil
}

// Fields flattens Params to the first value per key for JSON forwarding.
func (c Callback) Fields() map[string]string {
	out := make(map[string]string, len(c.Params))
	for k, v := range c.Params {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
