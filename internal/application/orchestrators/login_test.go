package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeIssuer struct{}

func (fakeIssuer) Issue(subject string, now time.Time) (string, time.Time, error) {
	return "token-for-" + subject, now.Add(24 * time.Hour), nil
}

func loginDeps(t *testing.T) LoginDeps {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return LoginDeps{
		Credentials: AdminCredentials{Username: "admin", PasswordHash: hash},
		Tokens:      fakeIssuer{},
		Now:         fixedNow,
	}
}

func TestExecuteLogin(t *testing.T) {
	deps := loginDeps(t)
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "admin", "s3cret", nil},
		{"wrong password", "admin", "nope", ErrInvalidCredentials},
		{"wrong username", "root", "s3cret", ErrInvalidCredentials},
		{"empty password", "admin", "", ErrInvalidCredentials},
		{"empty username", "", "s3cret", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExecuteLogin(context.Background(), LoginInput{Username: tt.username, Password: tt.password}, deps)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if res.Token != "token-for-admin" || !res.ExpiresAt.Equal(fixedTime.Add(24*time.Hour)) {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestExecuteLogin_Unconfigured(t *testing.T) {
	_, err := ExecuteLogin(context.Background(), LoginInput{Username: "admin", Password: "x"}, LoginDeps{Tokens: fakeIssuer{}, Now: fixedNow})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestErrInvalidCredentials_Message(t *testing.T) {
	if ErrInvalidCredentials.Error() != "Invalid credentials" {
		t.Errorf("message = %q", ErrInvalidCredentials.Error())
	}
}
