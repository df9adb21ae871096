// Package browser provides a client for the headless browser sidecar that
// prints HTML documents to PDF.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

var tracer = otel.Tracer("pal.internal.browser")

// A4 at 96 dpi.
const (
	DefaultWidthPx  = 794
	DefaultHeightPx = 1123
)

// maxPDFBytes bounds the response read from the sidecar.
const maxPDFBytes = 32 << 20

var (
	// ErrNotConfigured is returned when no sidecar URL is set.
	ErrNotConfigured = errors.New("browser: sidecar URL not configured")

	// ErrUnavailable is returned when the sidecar cannot be reached.
	ErrUnavailable = errors.New("browser: sidecar unavailable")

	// ErrEmptyDocument is returned for a request without HTML.
	ErrEmptyDocument = errors.New("browser: html document is empty")
)

// PDFRequest asks the sidecar to print an HTML document.
type PDFRequest struct {
	HTML            string `json:"html"`
	WidthPx         int    `json:"widthPx"`
	HeightPx        int    `json:"heightPx"`
	PrintBackground bool   `json:"printBackground"`
	Timeout         int    `json:"timeout,omitempty"` // milliseconds
}

// errorResponse is the sidecar's JSON body on failure.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse is the health check response from the sidecar.
type HealthResponse struct {
	Status       string `json:"status"` // ok, degraded, error
	Version      string `json:"version"`
	BrowserReady bool   `json:"browserReady"`
	Uptime       int    `json:"uptime"` // seconds
}

// Client is an HTTP client for the browser sidecar service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	widthPx    int
	heightPx   int
	metrics    *metrics.InvoiceMetrics
	logger     *logging.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics records conversion counts and latency.
func WithMetrics(m *metrics.InvoiceMetrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithPageSize overrides the default A4 page size in CSS pixels.
func WithPageSize(widthPx, heightPx int) ClientOption {
	return func(c *Client) {
		if widthPx > 0 {
			c.widthPx = widthPx
		}
		if heightPx > 0 {
			c.heightPx = heightPx
		}
	}
}

// NewClient creates a new browser sidecar client.
// baseURL should be the sidecar service URL (e.g., "http://localhost:3000").
// An empty baseURL yields a client whose conversions fail with ErrNotConfigured.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		widthPx:  DefaultWidthPx,
		heightPx: DefaultHeightPx,
		logger:   logging.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured reports whether a sidecar URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Health checks the health of the browser sidecar.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("browser: create health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("browser: health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("browser: decode health response: %w", err)
	}

	return &health, nil
}

// IsReady checks if the browser sidecar is ready to accept requests.
func (c *Client) IsReady(ctx context.Context) bool {
	if !c.Configured() {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ready", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// RenderPDF prints html to a single PDF at the client's page size.
func (c *Client) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	return c.Convert(ctx, PDFRequest{HTML: html})
}

// Convert posts req to the sidecar and returns the PDF bytes. Zero page
// dimensions use the client's defaults.
func (c *Client) Convert(ctx context.Context, req PDFRequest) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, ErrEmptyDocument
	}
	if req.WidthPx == 0 {
		req.WidthPx = c.widthPx
	}
	if req.HeightPx == 0 {
		req.HeightPx = c.heightPx
	}
	if req.Timeout == 0 && c.httpClient.Timeout > 0 {
		req.Timeout = int(c.httpClient.Timeout.Milliseconds())
	}
	req.PrintBackground = true

	ctx, span := tracer.Start(ctx, "browser.pdf")
	defer span.End()
	span.SetAttributes(
		attribute.Int("pdf.width_px", req.WidthPx),
		attribute.Int("pdf.height_px", req.HeightPx),
		attribute.Int("pdf.html_bytes", len(req.HTML)),
	)

	start := time.Now()
	pdf, err := c.convert(ctx, req)
	c.metrics.ObservePDF(err == nil, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("pdf conversion failed", "error", err)
		return nil, err
	}

	c.logger.Info("pdf rendered", "bytes", len(pdf), "duration_ms", time.Since(start).Milliseconds())
	return pdf, nil
}

func (c *Client) convert(ctx context.Context, req PDFRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("browser: marshal pdf request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/pdf", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("browser: create pdf request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("browser: read pdf response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("browser: pdf failed with status %d: %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("browser: pdf failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("browser: sidecar returned %q, not a PDF", resp.Header.Get("Content-Type"))
	}

	return data, nil
}

// Remediation returns advice for a user whose conversion failed with err.
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "PDF export needs the browser sidecar. Set BROWSER_SIDECAR_URL, or download the HTML invoice and use your browser's Print to PDF (A4, background graphics on)."
	case errors.Is(err, context.DeadlineExceeded):
		return "PDF conversion timed out. Try again, or use the browser's Print to PDF on the downloaded HTML invoice."
	case errors.Is(err, ErrUnavailable):
		return "The browser sidecar could not be reached. Start the browser sidecar or use the browser's Print to PDF on the downloaded HTML invoice."
	default:
		return "PDF conversion failed. Start the browser sidecar or use the browser's Print to PDF on the downloaded HTML invoice."
	}
}
