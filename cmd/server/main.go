package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"dq/internal/adapters/backend"
	"dq/internal/adapters/email"
	web "dq/internal/adapters/http"
	"dq/internal/adapters/http/middleware"
	"dq/internal/adapters/http/perf"
	"dq/internal/adapters/storage"
	outboxStore "dq/internal/adapters/storage/outbox"
	"dq/internal/adapters/storage/pendingdonation"
	"dq/internal/application/contentstate"
	"dq/internal/application/orchestrators"
	"dq/internal/config"
	"dq/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// purgeInterval is how often expired staged donations are removed.
const purgeInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:          "dq",
		Short:        "Donation site web tier: checkout, public content and the admin dashboard",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), hashPasswordCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (the default command)",
		Long: `Start the HTTP server.

Settings come from DQ_* environment variables. A .env file in the working
directory is loaded first; variables already set win.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for DQ_ADMIN_PASSWORD_HASH",
		Long: `Print a bcrypt hash for DQ_ADMIN_PASSWORD_HASH.

Without an argument the password is read from the first line of stdin, which
keeps it out of shell history:

  echo -n 'secret' | dq hash-password`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			hash, err := config.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func serve(ctx context.Context) error {
	config.LoadDotEnv()
	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// WAL with a busy timeout so the outbox worker and request handlers can share the file
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.InitDB(db); err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)
	pending := pendingdonation.NewSQLiteStore(timedDB, cfg.PendingTTL)
	queue := outboxStore.NewSQLiteStore(timedDB)

	client := backend.NewClient(cfg.BackendURL,
		backend.WithTokenSource(backend.StaticToken(cfg.BackendToken)),
		backend.WithCollector(collector),
	)
	services := backend.NewServices(client)

	var sender email.Sender
	if cfg.ResendKey != "" {
		sender = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_configured", "provider", "resend", "from", cfg.EmailFrom)
	} else {
		sender = email.NewNoopSender()
		slog.Info("email_configured", "provider", "noop", "hint", "set DQ_RESEND_KEY for real delivery")
	}

	tokens, err := middleware.NewJWTAuthority(cfg.JWTSecret, middleware.TokenTTL)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	registry := contentstate.NewRegistry()
	feeds := web.NewFeeds(services, cfg.ContentMaxAge, registry)

	processor := orchestrators.NewOutboxProcessor(queue, map[string]orchestrators.ActionExecutor{
		outbox.ActionPaymentSubmission: orchestrators.PaymentSubmissionExecutor{Forwarder: services.Donations},
		outbox.ActionDonationReceipt:   orchestrators.ReceiptExecutor{Sender: sender},
	}, time.Now)
	stopWorker := orchestrators.StartOutboxWorker(ctx, processor, cfg.OutboxInterval)
	defer stopWorker()
	go purgeExpired(ctx, pending, purgeInterval)

	staticDir := cfg.StaticDir
	if fi, err := os.Stat(staticDir); err != nil || !fi.IsDir() {
		staticDir = ""
	}

	handler := web.NewMux(ctx, web.Deps{
		Services:        services,
		Pending:         pending,
		Outbox:          queue,
		OutboxProcessor: processor,
		Email:           sender,
		Tokens:          tokens,
		Credentials: orchestrators.AdminCredentials{
			Username:     cfg.AdminUsername,
			PasswordHash: cfg.AdminPasswordHash,
		},
		Cache:              registry,
		Feeds:              feeds,
		Collector:          collector,
		CSRFKey:            cfg.CSRFKey,
		TrustedOrigins:     cfg.TrustedOrigins,
		SecureCookies:      cfg.IsProduction(),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		StaticDir:          staticDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "backend", cfg.BackendURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping", "reason", ctx.Err())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeExpired drops staged donations past their TTL until ctx ends.
func purgeExpired(ctx context.Context, s *pendingdonation.SQLiteStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("staging_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("staging_purged", "removed", n)
			}
		}
	}
}
