package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "SESSION_STORE", "SESSION_TTL",
		"INVOICE_FILENAME_PREFIX", "INVOICE_RAW_FREE_TEXT", "PDF_WIDTH_PX",
		"PDF_HEIGHT_PX", "CORS_ALLOWED_ORIGINS", "INVOICE_ARCHIVE_BUCKET", "EMAIL_PROVIDER",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SessionStore != "memory" {
		t.Fatalf("expected memory session store, got %s", cfg.SessionStore)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected default session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.FilenamePrefix != "PAL_Invoice" {
		t.Fatalf("expected default filename prefix, got %s", cfg.FilenamePrefix)
	}
	if cfg.RawFreeText {
		t.Fatalf("expected free text escaping by default")
	}
	if cfg.PDFWidthPx != 794 || cfg.PDFHeightPx != 1123 {
		t.Fatalf("expected A4 pixel defaults, got %dx%d", cfg.PDFWidthPx, cfg.PDFHeightPx)
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.AWSEnabled() {
		t.Fatalf("expected AWS features disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_STORE", " Redis ")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("INVOICE_RAW_FREE_TEXT", "true")
	t.Setenv("PDF_WIDTH_PX", "1000")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("INVOICE_ARCHIVE_BUCKET", "pal-invoices")
	t.Setenv("EMAIL_PROVIDER", "SES")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.SessionStore != "redis" {
		t.Fatalf("expected normalized session store, got %q", cfg.SessionStore)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if !cfg.RawFreeText {
		t.Fatalf("expected raw free text enabled")
	}
	if cfg.PDFWidthPx != 1000 {
		t.Fatalf("expected pdf width override, got %d", cfg.PDFWidthPx)
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitPerSecond)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.EmailProvider != "ses" {
		t.Fatalf("expected normalized email provider, got %q", cfg.EmailProvider)
	}
	if !cfg.AWSEnabled() {
		t.Fatalf("expected AWS features enabled")
	}
}

func TestInvalidNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("PDF_HEIGHT_PX", "tall")
	t.Setenv("SESSION_TTL", "forever")
	cfg := Load()
	if cfg.PDFHeightPx != 1123 {
		t.Fatalf("expected default height, got %d", cfg.PDFHeightPx)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.SessionTTL)
	}
}
