package memberapplication

import (
	"errors"
	"slices"
)

// Membership types
const (
	TypeLifetime = "lifetime"
	TypeDonor    = "donor"
)

// Application statuses
const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// Payment statuses
const (
	PaymentPending             = "pending"
	PaymentCompleted           = "completed"
	PaymentPendingVerification = "pending_verification"
	PaymentFailed              = "failed"
)

// ValidTypes contains all valid membership types.
var ValidTypes = []string{TypeLifetime, TypeDonor}

// ValidStatuses contains all valid application statuses.
var ValidStatuses = []string{StatusPendingApproval, StatusApproved, StatusRejected}

// ValidPaymentStatuses contains all valid payment statuses.
var ValidPaymentStatuses = []string{PaymentPending, PaymentCompleted, PaymentPendingVerification, PaymentFailed}

// Domain errors
var (
	ErrEmptyName            = errors.New("applicant name cannot be empty")
	ErrInvalidType          = errors.New("membership type must be one of: lifetime, donor")
	ErrInvalidStatus        = errors.New("status must be one of: pending_approval, approved, rejected")
	ErrInvalidPaymentStatus = errors.New("payment status must be one of: pending, completed, pending_verification, failed")
	ErrNegativeAmount       = errors.New("amount cannot be negative")
	ErrEmptyStatusUpdate    = errors.New("status or paymentStatus is required")
)

// GatewayValidation holds what the payment gateway reported for the application fee.
type GatewayValidation struct {
	TranID     string `json:"tran_id,omitempty"`
	ValID      string `json:"val_id,omitempty"`
	BankTranID string `json:"bank_tran_id,omitempty"`
	CardType   string `json:"card_type,omitempty"`
	Status     string `json:"status,omitempty"`
}

// MemberApplication is a request to join the organisation as a member.
// Status changes are made by an admin; there are no automatic transitions.
type MemberApplication struct {
	ID             string             `json:"id,omitempty"`
	Name           string             `json:"name"`
	Email          string             `json:"email,omitempty"`
	Phone          string             `json:"phone,omitempty"`
	Address        string             `json:"address,omitempty"`
	MembershipType string             `json:"membershipType"`
	Amount         float64            `json:"amount"`
	Status         string             `json:"status"`
	PaymentStatus  string             `json:"paymentStatus"`
	Validation     *GatewayValidation `json:"validation,omitempty"`
}

// Validate checks if the MemberApplication has valid data.
// PRE: MemberApplication struct is populated
// POST: Returns nil if valid, error otherwise
func (m *MemberApplication) Validate() error {
	if m.Name == "" {
		return ErrEmptyName
	}
	if !slices.Contains(ValidTypes, m.MembershipType) {
		return ErrInvalidType
	}
	if !slices.Contains(ValidStatuses, m.Status) {
		return ErrInvalidStatus
	}
	if !slices.Contains(ValidPaymentStatuses, m.PaymentStatus) {
		return ErrInvalidPaymentStatus
	}
	if m.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// StatusUpdate is an admin's change to an application. Empty fields are left alone.
type StatusUpdate struct {
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

// Validate checks the update carries at least one known value.
func (u StatusUpdate) Validate() error {
	if u.Status == "" && u.PaymentStatus == "" {
		return ErrEmptyStatusUpdate
	}
	if u.Status != "" && !slices.Contains(ValidStatuses, u.Status) {
		return ErrInvalidStatus
	}
	if u.PaymentStatus != "" && !slices.Contains(ValidPaymentStatuses, u.PaymentStatus) {
		return ErrInvalidPaymentStatus
	}
	return nil
}
