package donation

// PendingKey is the staging key namespace for a donation awaiting the gateway.
const PendingKey = "dq:pendingDonation"

// PaymentMethodOnline is the only method wired to the backend.
const PaymentMethodOnline = "online"

// CachePayload is the donation record staged before the gateway redirect so the
// callback page can reconcile without another backend round trip.
type CachePayload struct {
	Purpose      string  `json:"purpose"`
	Contact      string  `json:"contact"`
	Amount       float64 `json:"amount"`
	PurposeLabel string  `json:"purposeLabel"`
	Behalf       string  `json:"behalf"`
	Name         string  `json:"name"`
}

// StagingKey returns the store key for a browser session.
func StagingKey(sessionID string) string {
	return PendingKey + ":" + sessionID
}
