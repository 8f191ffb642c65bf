package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"dq/internal/adapters/backend"
	"dq/internal/adapters/email"
	"dq/internal/adapters/http/middleware"
	"dq/internal/adapters/http/perf"
	outboxStore "dq/internal/adapters/storage/outbox"
	"dq/internal/application/contentstate"
	"dq/internal/application/orchestrators"
)

// DefaultRateLimitPerSecond is the per-IP request budget when Deps leaves it unset.
const DefaultRateLimitPerSecond = 10

// Deps holds everything the handlers talk to.
type Deps struct {
	Services        *backend.Services
	Pending         orchestrators.PendingDonationStore
	Outbox          outboxStore.Store
	OutboxProcessor *orchestrators.OutboxProcessor
	Email           email.Sender
	Tokens          *middleware.JWTAuthority
	Credentials     orchestrators.AdminCredentials
	Cache           *contentstate.Registry
	Feeds           *Feeds
	Collector       *perf.Collector

	CSRFKey            []byte
	TrustedOrigins     []string
	SecureCookies      bool
	RateLimitPerSecond int
	StaticDir          string

	Now        func() time.Time
	GenerateID func() string
}

// app binds handlers to their dependencies.
type app struct {
	Deps
	content orchestrators.ContentDeps
}

// NewMux wires HTTP handlers for the app. ctx bounds background work such as the
// rate limiter sweep.
func NewMux(ctx context.Context, d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.GenerateID == nil {
		d.GenerateID = uuid.NewString
	}
	if d.Cache == nil {
		d.Cache = contentstate.NewRegistry()
	}
	if d.Feeds == nil {
		d.Feeds = NewFeeds(d.Services, contentstate.DefaultMaxAge, d.Cache)
	}
	if d.RateLimitPerSecond <= 0 {
		d.RateLimitPerSecond = DefaultRateLimitPerSecond
	}
	a := &app{Deps: d, content: orchestrators.ContentDeps{Cache: d.Cache}}

	mux := http.NewServeMux()
	if d.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(d.StaticDir)))
	}
	a.registerRoutes(mux)

	limiter := middleware.NewRateLimiter(ctx, d.RateLimitPerSecond, time.Second)

	// Timing -> RateLimit -> BrowserSession -> Language -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(d.CSRFKey, middleware.CSRFOptions{
			Secure:         d.SecureCookies,
			TrustedOrigins: d.TrustedOrigins,
			ExemptPrefixes: []string{"/payment/"},
		}),
		middleware.Language,
		middleware.BrowserSession(d.SecureCookies),
		middleware.RateLimit(limiter),
		middleware.Timing(d.Collector),
	)
}

func (a *app) registerRoutes(mux *http.ServeMux) {
	dashboard := middleware.RequireDashboardToken(a.Tokens, a.Now)
	api := middleware.RequireAPIToken(a.Tokens, a.Now)
	page := wrapper(func(h http.HandlerFunc) http.Handler { return dashboard(h) })
	admin := wrapper(func(h http.HandlerFunc) http.Handler { return api(h) })
	resources := a.resources()

	mux.HandleFunc("GET /healthz", handleHealth)

	// Auth
	mux.HandleFunc("GET /login", a.handleLoginPage)
	mux.HandleFunc("POST /login", a.handleLoginForm)
	mux.HandleFunc("POST /logout", a.handleLogout)
	mux.HandleFunc("POST /api/auth/login", a.handleAPILogin)
	mux.HandleFunc("POST /api/auth/logout", a.handleAPILogout)

	// Donation checkout and gateway callbacks
	mux.HandleFunc("GET /donate/{slug}", a.handleDonatePage)
	mux.HandleFunc("POST /donate/{slug}", a.handleDonateSubmit)
	mux.HandleFunc("GET /payment/member-success", a.handlePaymentSuccess)
	mux.HandleFunc("POST /payment/member-success", a.handlePaymentSuccess)
	mux.HandleFunc("GET /payment/member-failed", a.handlePaymentFailed)
	mux.HandleFunc("POST /payment/member-failed", a.handlePaymentFailed)

	// Public reads
	mux.HandleFunc("GET /api/public/activities", a.handlePublicActivities)
	mux.HandleFunc("GET /api/public/blogs", a.handlePublicBlogs)
	mux.HandleFunc("GET /api/public/notices", a.handlePublicNotices)
	mux.HandleFunc("GET /api/public/notices/{id}", a.handlePublicNotice)
	mux.HandleFunc("GET /api/public/gallery", a.handlePublicGallery)
	mux.HandleFunc("GET /api/public/hero-images", a.handlePublicHeroImages)
	mux.HandleFunc("GET /api/public/programs", a.handlePublicPrograms)
	mux.HandleFunc("GET /api/public/programs/{slug}", a.handlePublicProgram)
	mux.HandleFunc("GET /api/public/donation-categories", a.handlePublicCategories)
	mux.HandleFunc("GET /api/public/donation-categories/{slug}", a.handlePublicCategory)

	// Admin JSON API
	for _, res := range resources {
		res.registerAPI(mux, admin)
	}
	mux.Handle("POST /api/admin/hero-images/{id}/toggle", admin(a.handleAPIToggleHeroImage))
	mux.Handle("PATCH /api/admin/member-applications/{id}/status", admin(a.handleAPIApplicationStatus))
	mux.Handle("GET /api/admin/perf", admin(a.handleAPIPerf))
	mux.Handle("GET /api/admin/outbox", admin(a.handleAPIOutbox))
	mux.Handle("POST /api/admin/outbox/{id}/retry", admin(a.handleAPIOutboxRetry))
	mux.Handle("GET /api/admin/feeds", admin(a.handleAPIFeeds))
	mux.Handle("/api/admin/", admin(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "Not found")
	}))

	// Dashboard pages
	mux.Handle("GET /dashboard", page(a.handleDashboardHome))
	for _, res := range resources {
		res.registerDashboard(mux, page)
	}
	mux.Handle("POST /dashboard/hero-images/{id}/toggle", page(a.handleDashboardToggleHeroImage))
	mux.Handle("POST /dashboard/member-applications/{id}/status", page(a.handleDashboardApplicationStatus))
	mux.Handle("POST /dashboard/outbox/{id}/retry", page(a.handleDashboardOutboxRetry))
	// anything else under /dashboard/ is gated before it is a 404
	mux.Handle("/dashboard/", page(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, http.StatusNotFound, "Page not found")
	}))
}

// muxer is the registration half of http.ServeMux.
type muxer interface {
	Handle(pattern string, h http.Handler)
}

// wrapper guards a handler, e.g. with a token check.
type wrapper func(http.HandlerFunc) http.Handler

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "ok"})
}
