//go:build browser

package web_test

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"dq/internal/adapters/backend"
	"dq/internal/adapters/email"
	web "dq/internal/adapters/http"
	"dq/internal/adapters/http/middleware"
	"dq/internal/adapters/storage"
	outboxStore "dq/internal/adapters/storage/outbox"
	"dq/internal/adapters/storage/pendingdonation"
	"dq/internal/application/orchestrators"
)

const (
	browserAdmin    = "admin"
	browserPassword = "TestPass123!"
)

// browserApp is a running server plus Playwright handles.
type browserApp struct {
	BaseURL string
	PW      *playwright.Playwright
	Browser playwright.Browser
}

func newBrowserApp(t *testing.T) *browserApp {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to init test DB: %v", err)
	}

	fake := http.NewServeMux()
	fake.HandleFunc("GET /programs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","title":"Clean water","tag":"health"}]`))
	})
	backendSrv := httptest.NewServer(fake)
	t.Cleanup(backendSrv.Close)

	tokens, err := middleware.NewJWTAuthority([]byte(strings.Repeat("b", 32)), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(browserPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	queue := outboxStore.NewSQLiteStore(db)
	handler := web.NewMux(ctx, web.Deps{
		Services:           backend.NewServices(backend.NewClient(backendSrv.URL)),
		Pending:            pendingdonation.NewSQLiteStore(db, time.Hour),
		Outbox:             queue,
		OutboxProcessor:    orchestrators.NewOutboxProcessor(queue, nil, time.Now),
		Email:              email.NewNoopSender(),
		Tokens:             tokens,
		Credentials:        orchestrators.AdminCredentials{Username: browserAdmin, PasswordHash: hash},
		CSRFKey:            []byte(strings.Repeat("c", 32)),
		RateLimitPerSecond: 1000,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
	})

	return &browserApp{BaseURL: srv.URL, PW: pw, Browser: browser}
}

func (a *browserApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// TestBrowser_DashboardGateRoundTrip opens a dashboard page signed out, signs in
// and lands back on the page that was asked for.
func TestBrowser_DashboardGateRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newBrowserApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/dashboard/programs"); err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}
	if !strings.HasPrefix(page.URL(), app.BaseURL+"/login?next=") {
		t.Fatalf("signed-out visit landed on %s, want the login page", page.URL())
	}

	if err := page.Locator("input[name=username]").Fill(browserAdmin); err != nil {
		t.Fatalf("failed to fill username: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(browserPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click sign in: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/dashboard/programs", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not return to the programs list: %v", err)
	}

	if err := page.Locator("text=Clean water").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("program row not shown: %v", err)
	}

	// Signing out drops the token; the dashboard is gated again.
	if err := page.Locator("button:has-text('Sign out')").Click(); err != nil {
		t.Fatalf("failed to click sign out: %v", err)
	}
	if err := page.WaitForURL(app.BaseURL+"/login", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("sign out did not return to login: %v", err)
	}
	if _, err := page.Goto(app.BaseURL + "/dashboard"); err != nil {
		t.Fatalf("failed to navigate: %v", err)
	}
	if !strings.HasPrefix(page.URL(), app.BaseURL+"/login") {
		t.Errorf("dashboard reachable after sign out: %s", page.URL())
	}
}

// TestBrowser_WrongPasswordStaysOnLogin shows the failure next to the form.
func TestBrowser_WrongPasswordStaysOnLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	app := newBrowserApp(t)
	page := app.newPage(t)

	if _, err := page.Goto(app.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=username]").Fill(browserAdmin); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("input[name=password]").Fill("wrong"); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("button[type=submit]").Click(); err != nil {
		t.Fatal(err)
	}
	if err := page.Locator("[role=alert] >> text=Invalid credentials").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("failure message not shown: %v", err)
	}
}
