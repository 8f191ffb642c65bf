package user_test

import (
	"testing"

	"dq/internal/domain/user"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    user.User
		wantErr error
	}{
		{"valid", user.User{Name: "Admin", Email: "a@dq.org", Role: user.RoleAdmin}, nil},
		{"no role", user.User{Name: "Volunteer"}, nil},
		{"blank name", user.User{Name: " "}, user.ErrEmptyName},
		{"bad email", user.User{Name: "X", Email: "nope"}, user.ErrInvalidEmail},
		{"bad role", user.User{Name: "X", Role: "owner"}, user.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.user.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
