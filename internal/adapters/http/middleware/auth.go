package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/google/uuid"

	"dq/internal/adapters/backend"
)

// Cookie names.
const (
	TokenCookieName    = "dq_token"
	SessionCookieName  = "dq_sid"
	LanguageCookieName = "lang"
)

// TokenTTL is how long a dashboard login lasts.
const TokenTTL = 24 * time.Hour

// MinSecretBytes is the shortest HS256 secret accepted.
const MinSecretBytes = 32

// Token errors
var (
	ErrShortSecret  = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretBytes)
	ErrInvalidToken = errors.New("invalid or expired token")
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	subjectContextKey contextKey = "subject"
	sessionContextKey contextKey = "sid"
)

// Claims is what a verified token says about the caller.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenVerifier checks a dashboard token.
type TokenVerifier interface {
	Verify(token string, now time.Time) (Claims, error)
}

// JWTAuthority signs and verifies HS256 dashboard tokens.
type JWTAuthority struct {
	secret []byte
	ttl    time.Duration
	signer jose.Signer
}

// NewJWTAuthority creates an authority for secret. A non-positive ttl means TokenTTL.
// PRE: len(secret) >= MinSecretBytes
func NewJWTAuthority(secret []byte, ttl time.Duration) (*JWTAuthority, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrShortSecret
	}
	if ttl <= 0 {
		ttl = TokenTTL
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("create jwt signer: %w", err)
	}
	return &JWTAuthority{secret: secret, ttl: ttl, signer: signer}, nil
}

// Issue signs a token for subject valid from now for the authority's ttl.
// POST: Returns a compact JWT and its expiry
func (a *JWTAuthority) Issue(subject string, now time.Time) (string, time.Time, error) {
	exp := now.Add(a.ttl)
	claims := jwt.Claims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(exp),
		ID:       uuid.NewString(),
	}
	token, err := jwt.Signed(a.signer).Claims(claims).CompactSerialize()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// Verify checks signature, algorithm and expiry.
// POST: Returns ErrInvalidToken for anything that is not a live token from this authority
func (a *JWTAuthority) Verify(token string, now time.Time) (Claims, error) {
	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if len(parsed.Headers) != 1 || parsed.Headers[0].Algorithm != string(jose.HS256) {
		return Claims{}, ErrInvalidToken
	}
	var c jwt.Claims
	if err := parsed.Claims(a.secret, &c); err != nil {
		return Claims{}, ErrInvalidToken
	}
	if c.Expiry == nil || c.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	if err := c.ValidateWithLeeway(jwt.Expected{Time: now}, 0); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: c.Subject, ExpiresAt: c.Expiry.Time()}, nil
}

// tokenFromRequest reads the cookie, then an Authorization bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func authenticate(v TokenVerifier, now func() time.Time, r *http.Request) (*http.Request, bool) {
	token := tokenFromRequest(r)
	if token == "" {
		return r, false
	}
	claims, err := v.Verify(token, now())
	if err != nil {
		return r, false
	}
	return r.WithContext(ContextWithSubject(r.Context(), claims.Subject)), true
}

// RequireDashboardToken redirects callers without a live token to
// /login?next=<original path>.
func RequireDashboardToken(v TokenVerifier, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := authenticate(v, now, r)
			if !ok {
				http.Redirect(w, r, LoginRedirect(r.URL), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIToken answers 401 JSON to callers without a live token.
func RequireAPIToken(v TokenVerifier, now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := authenticate(v, now, r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRedirect builds the login URL that returns to u after signing in.
func LoginRedirect(u *url.URL) string {
	next := u.Path
	if u.RawQuery != "" {
		next += "?" + u.RawQuery
	}
	return "/login?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext returns next when it is a local dashboard path, else /dashboard.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/dashboard"
	}
	return next
}

// ContextWithSubject returns a context carrying the authenticated subject.
// Intended for use in tests as well as by the token middleware.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectContextKey).(string)
	return s, ok && s != ""
}

// SetTokenCookie stores a dashboard token on the response.
func SetTokenCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(TokenTTL / time.Second),
	})
}

// ClearTokenCookie removes the dashboard token.
func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// Language copies the lang cookie into the request context so upstream calls
// send it as Accept-Language.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(LanguageCookieName); err == nil && c.Value != "" {
			r = r.WithContext(backend.WithLanguage(r.Context(), c.Value))
		}
		next.ServeHTTP(w, r)
	})
}

// BrowserSession makes sure every browser carries a dq_sid cookie and exposes
// its value through SessionIDFromContext.
func BrowserSession(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    sid,
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSessionID(r.Context(), sid)))
		})
	}
}

// ContextWithSessionID returns a context carrying the browser session id.
func ContextWithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sid)
}

// SessionIDFromContext returns the browser session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionContextKey).(string)
	return sid
}
