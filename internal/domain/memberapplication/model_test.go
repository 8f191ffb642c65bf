package memberapplication_test

import (
	"testing"

	"dq/internal/domain/memberapplication"
)

// TestMemberApplication_Validate tests validation of MemberApplication.
func TestMemberApplication_Validate(t *testing.T) {
	valid := memberapplication.MemberApplication{
		Name: "Rahima", MembershipType: memberapplication.TypeDonor, Amount: 1000,
		Status: memberapplication.StatusPendingApproval, PaymentStatus: memberapplication.PaymentPending,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*memberapplication.MemberApplication)
		wantErr error
	}{
		{"empty name", func(m *memberapplication.MemberApplication) { m.Name = "" }, memberapplication.ErrEmptyName},
		{"bad type", func(m *memberapplication.MemberApplication) { m.MembershipType = "gold" }, memberapplication.ErrInvalidType},
		{"bad status", func(m *memberapplication.MemberApplication) { m.Status = "waiting" }, memberapplication.ErrInvalidStatus},
		{"bad payment status", func(m *memberapplication.MemberApplication) { m.PaymentStatus = "paid" }, memberapplication.ErrInvalidPaymentStatus},
		{"negative amount", func(m *memberapplication.MemberApplication) { m.Amount = -1 }, memberapplication.ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			if err := m.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestStatusUpdate_Validate accepts any known value without transition rules.
func TestStatusUpdate_Validate(t *testing.T) {
	ok := []memberapplication.StatusUpdate{
		{Status: memberapplication.StatusApproved},
		{Status: memberapplication.StatusRejected, PaymentStatus: memberapplication.PaymentFailed},
		{PaymentStatus: memberapplication.PaymentPendingVerification},
	}
	for _, u := range ok {
		if err := u.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v", u, err)
		}
	}
	if err := (memberapplication.StatusUpdate{}).Validate(); err == nil {
		t.Error("expected error for empty update")
	}
	if err := (memberapplication.StatusUpdate{Status: "done"}).Validate(); err != memberapplication.ErrInvalidStatus {
		t.Errorf("got %v, want ErrInvalidStatus", err)
	}
}
