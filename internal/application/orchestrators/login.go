package orchestrators

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is the only failure a login caller sees.
var ErrInvalidCredentials = errors.New("Invalid credentials")

// AdminCredentials is the single dashboard account configured from the environment.
type AdminCredentials struct {
	Username     string
	PasswordHash []byte // bcrypt
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(subject string, now time.Time) (token string, expiresAt time.Time, err error)
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult carries the signed session token.
type LoginResult struct {
	Subject   string
	Token     string
	ExpiresAt time.Time
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Credentials AdminCredentials
	Tokens      TokenIssuer
	Now         func() time.Time
}

// ExecuteLogin checks the credentials and issues a session token.
// The password hash is always compared so a wrong username costs the same as a wrong password.
// PRE: deps.Credentials.PasswordHash is a bcrypt hash
// POST: Returns a token valid from Now, or ErrInvalidCredentials
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Username == "" || input.Password == "" || deps.Credentials.Username == "" {
		slog.Info("auth_event", "event", "login_failed", "reason", "missing_fields")
		return LoginResult{}, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(deps.Credentials.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword(deps.Credentials.PasswordHash, []byte(input.Password))
	if !userOK || passErr != nil {
		slog.Info("auth_event", "event", "login_failed", "username", input.Username)
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := deps.Tokens.Issue(deps.Credentials.Username, deps.Now())
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "username", deps.Credentials.Username)
	return LoginResult{Subject: deps.Credentials.Username, Token: token, ExpiresAt: exp}, nil
}
