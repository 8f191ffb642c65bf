package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"dq/internal/adapters/http/middleware"
	"dq/internal/application/orchestrators"
)

type loginPage struct {
	Next     string
	Username string
	Error    string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *app) loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{Credentials: a.Credentials, Tokens: a.Tokens, Now: a.Now}
}

// handleLoginPage shows the sign-in form. A caller that already holds a live
// token goes straight to next.
func (a *app) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := middleware.SafeNext(r.URL.Query().Get("next"))
	if c, err := r.Cookie(middleware.TokenCookieName); err == nil {
		if _, err := a.Tokens.Verify(c.Value, a.Now()); err == nil {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
	}
	renderTemplate(w, r, http.StatusOK, "login.html", loginPage{Next: next})
}

func (a *app) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	in := orchestrators.LoginInput{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")}
	next := middleware.SafeNext(r.PostFormValue("next"))

	res, err := orchestrators.ExecuteLogin(r.Context(), in, a.loginDeps())
	if err != nil {
		status, msg := loginFailure(err)
		renderTemplate(w, r, status, "login.html", loginPage{Next: next, Username: in.Username, Error: msg})
		return
	}
	middleware.SetTokenCookie(w, res.Token, a.SecureCookies)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleAPILogin is the JSON login. The token is set as a cookie and returned in
// the body for API clients.
func (a *app) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{Username: in.Username, Password: in.Password}, a.loginDeps())
	if err != nil {
		status, msg := loginFailure(err)
		writeFailure(w, status, msg)
		return
	}
	middleware.SetTokenCookie(w, res.Token, a.SecureCookies)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: loginData{Token: res.Token, ExpiresAt: res.ExpiresAt}})
}

func loginFailure(err error) (int, string) {
	if errors.Is(err, orchestrators.ErrInvalidCredentials) {
		return http.StatusUnauthorized, err.Error()
	}
	internalErrorLog(err)
	return http.StatusInternalServerError, "Login is unavailable, please try again"
}

func (a *app) handleLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w, a.SecureCookies)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *app) handleAPILogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w, a.SecureCookies)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Logged out"})
}
