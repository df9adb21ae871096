package browser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

var fakePDF = []byte("%PDF-1.7\n%fake\n")

func TestNewClient(t *testing.T) {
	t.Run("creates client with defaults", func(t *testing.T) {
		client := NewClient("http://localhost:3000/")
		if client.baseURL != "http://localhost:3000" {
			t.Errorf("expected trailing slash trimmed, got %s", client.baseURL)
		}
		if client.widthPx != DefaultWidthPx || client.heightPx != DefaultHeightPx {
			t.Errorf("expected A4 defaults, got %dx%d", client.widthPx, client.heightPx)
		}
		if !client.Configured() {
			t.Error("expected client to be configured")
		}
	})

	t.Run("creates client with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		client := NewClient("http://localhost:3000", WithHTTPClient(customClient))
		if client.httpClient != customClient {
			t.Error("expected custom HTTP client to be set")
		}
	})

	t.Run("page size option ignores non-positive values", func(t *testing.T) {
		client := NewClient("http://localhost:3000", WithPageSize(1000, 0))
		if client.widthPx != 1000 || client.heightPx != DefaultHeightPx {
			t.Errorf("unexpected page size %dx%d", client.widthPx, client.heightPx)
		}
	})
}

func TestClient_Health(t *testing.T) {
	t.Run("successful health check", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("expected path /health, got %s", r.URL.Path)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET method, got %s", r.Method)
			}
			json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Version: "1.0.0", BrowserReady: true, Uptime: 100})
		}))
		defer server.Close()

		health, err := NewClient(server.URL).Health(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if health.Status != "ok" || !health.BrowserReady {
			t.Errorf("unexpected health %+v", health)
		}
	})

	t.Run("health check failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("service unavailable"))
		}))
		defer server.Close()

		if _, err := NewClient(server.URL).Health(context.Background()); err == nil {
			t.Fatal("expected error for unhealthy service")
		}
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("").Health(context.Background())
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
	})
}

func TestClient_IsReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ready" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if !NewClient(server.URL).IsReady(context.Background()) {
		t.Error("expected ready")
	}
	if NewClient("").IsReady(context.Background()) {
		t.Error("unconfigured client must not be ready")
	}
}

func TestClient_RenderPDF(t *testing.T) {
	t.Run("posts html with page size", func(t *testing.T) {
		var got PDFRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/pdf" || r.Method != http.MethodPost {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(fakePDF)
		}))
		defer server.Close()

		reg := prometheus.NewRegistry()
		client := NewClient(server.URL,
			WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
			WithMetrics(metrics.NewInvoiceMetrics(reg)),
			WithLogger(logging.Discard()),
		)
		pdf, err := client.RenderPDF(context.Background(), "<html><body>Invoice</body></html>")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(pdf) != string(fakePDF) {
			t.Errorf("unexpected pdf bytes %q", pdf)
		}
		if got.WidthPx != 794 || got.HeightPx != 1123 {
			t.Errorf("expected A4 at 96dpi, got %dx%d", got.WidthPx, got.HeightPx)
		}
		if !got.PrintBackground {
			t.Error("expected background printing")
		}
		if got.Timeout != 5000 {
			t.Errorf("expected timeout 5000ms, got %d", got.Timeout)
		}
		if !strings.Contains(got.HTML, "Invoice") {
			t.Errorf("html not forwarded: %q", got.HTML)
		}
	})

	t.Run("sidecar error message is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "chromium crashed"})
		}))
		defer server.Close()

		_, err := NewClient(server.URL, WithLogger(logging.Discard())).RenderPDF(context.Background(), "<p>x</p>")
		if err == nil || !strings.Contains(err.Error(), "chromium crashed") {
			t.Fatalf("expected sidecar error, got %v", err)
		}
	})

	t.Run("non pdf body is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>login</html>"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL, WithLogger(logging.Discard())).RenderPDF(context.Background(), "<p>x</p>")
		if err == nil || !strings.Contains(err.Error(), "not a PDF") {
			t.Fatalf("expected not-a-PDF error, got %v", err)
		}
	})

	t.Run("unreachable sidecar", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewClient(url, WithLogger(logging.Discard())).RenderPDF(context.Background(), "<p>x</p>")
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if !strings.Contains(Remediation(err), "Start the browser sidecar") {
			t.Errorf("unexpected remediation %q", Remediation(err))
		}
	})

	t.Run("not configured and empty document", func(t *testing.T) {
		if _, err := NewClient("").RenderPDF(context.Background(), "<p>x</p>"); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
		if _, err := NewClient("http://localhost:1").RenderPDF(context.Background(), "  "); !errors.Is(err, ErrEmptyDocument) {
			t.Fatalf("expected ErrEmptyDocument, got %v", err)
		}
	})
}

func TestRemediation(t *testing.T) {
	if !strings.Contains(Remediation(ErrNotConfigured), "BROWSER_SIDECAR_URL") {
		t.Error("expected configuration hint")
	}
	if !strings.Contains(Remediation(context.DeadlineExceeded), "timed out") {
		t.Error("expected timeout hint")
	}
	if !strings.Contains(Remediation(errors.New("boom")), "Print to PDF") {
		t.Error("expected print fallback hint")
	}
}
