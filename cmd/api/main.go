package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/pal-invoice-generator/cmd/mainconfig"
	"github.com/wolfman30/pal-invoice-generator/internal/api/router"
	"github.com/wolfman30/pal-invoice-generator/internal/archive"
	"github.com/wolfman30/pal-invoice-generator/internal/browser"
	"github.com/wolfman30/pal-invoice-generator/internal/clinic"
	appconfig "github.com/wolfman30/pal-invoice-generator/internal/config"
	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
	"github.com/wolfman30/pal-invoice-generator/internal/notify"
	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/internal/session"
	"github.com/wolfman30/pal-invoice-generator/internal/ui"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}
	logger.Info("starting PAL invoice generator",
		"env", cfg.Env,
		"port", cfg.Port,
		"session_store", cfg.SessionStore,
	)

	ctx := context.Background()
	handler, cleanup, err := buildHandler(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server. Writes wait on the PDF sidecar.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.PDFTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildHandler wires every component behind the router. The returned cleanup
// closes the Redis connection when one was opened.
func buildHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	metricsHandler, invoiceMetrics := setupMetrics()
	cleanup := func() {}

	rdb, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	if rdb != nil {
		cleanup = func() { _ = rdb.Close() }
	}

	sessions := setupSessions(cfg, rdb)

	var profiles clinic.ProfileSource = clinic.NewStaticSource(nil)
	var clinicHandler *clinic.Handler
	if rdb != nil {
		store := clinic.NewStore(rdb)
		profiles = store
		clinicHandler = clinic.NewHandler(store, logger)
	}

	renderer := invoice.NewRenderer(
		invoice.NewAssetLoader(nil, logger),
		profiles,
		invoice.Options{FilenamePrefix: cfg.FilenamePrefix, RawFreeText: cfg.RawFreeText},
		invoiceMetrics,
		logger,
	)

	pdf := browser.NewClient(cfg.BrowserSidecarURL,
		browser.WithHTTPClient(&http.Client{Timeout: cfg.PDFTimeout}),
		browser.WithPageSize(cfg.PDFWidthPx, cfg.PDFHeightPx),
		browser.WithMetrics(invoiceMetrics),
		browser.WithLogger(logger),
	)
	if !pdf.Configured() {
		logger.Warn("BROWSER_SIDECAR_URL not set, PDF download disabled")
	}

	var awsCfg *aws.Config
	if cfg.AWSEnabled() {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	archiveStore := setupArchive(cfg, awsCfg, logger)
	sender, provider := setupEmail(cfg, awsCfg, logger)
	mailer := notify.NewInvoiceMailer(sender, provider, profiles, invoiceMetrics, logger)

	uiHandler := ui.NewHandler(ui.Config{
		Sessions:     sessions,
		Renderer:     renderer,
		Clinic:       profiles,
		PDF:          pdf,
		Archive:      archiveStore,
		Mailer:       mailer,
		Metrics:      invoiceMetrics,
		Defaults:     session.Defaults{NumberPrefix: cfg.InvoiceNumberPrefix},
		SecureCookie: cfg.SessionCookieTLS,
		Logger:       logger,
	})

	checks := map[string]router.ReadinessCheck{}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if pdf.Configured() {
		checks["browser"] = func(ctx context.Context) error {
			if !pdf.IsReady(ctx) {
				return errors.New("browser sidecar not ready")
			}
			return nil
		}
	}

	return router.New(&router.Config{
		Logger:             logger,
		UIHandler:          uiHandler,
		InvoiceHandler:     invoice.NewHandler(renderer, logger),
		ClinicHandler:      clinicHandler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		ReadinessChecks:    checks,
	}), cleanup, nil
}

func setupMetrics() (http.Handler, *metrics.InvoiceMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewInvoiceMetrics(reg)
}

// connectRedis returns nil when sessions are kept in memory.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*redis.Client, error) {
	if cfg.SessionStore != "redis" {
		return nil, nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return client, nil
}

func setupSessions(cfg *appconfig.Config, rdb *redis.Client) session.Store {
	if rdb != nil {
		return session.NewRedisStore(rdb, cfg.SessionTTL)
	}
	return session.NewMemoryStore(cfg.SessionTTL)
}

func setupArchive(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *archive.Store {
	if cfg.ArchiveBucket == "" || awsCfg == nil {
		return archive.NewStore(nil, "", logger)
	}
	logger.Info("invoice archive enabled", "bucket", cfg.ArchiveBucket)
	return archive.NewStore(mainconfig.NewS3Client(*awsCfg, cfg), cfg.ArchiveBucket, logger)
}

// setupEmail returns a nil sender when email is off or misconfigured.
func setupEmail(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string) {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty, email disabled")
			return nil, ""
		}
		return sender, "sendgrid"
	case "ses":
		if awsCfg == nil || cfg.SESFromEmail == "" {
			logger.Warn("EMAIL_PROVIDER=ses but SES_FROM_EMAIL is empty, email disabled")
			return nil, ""
		}
		return notify.NewSESSender(mainconfig.NewSESClient(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger), "ses"
	case "stub":
		return notify.NewStubEmailSender(logger), "stub"
	default:
		return nil, ""
	}
}
