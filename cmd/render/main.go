// Command render turns a JSON invoice request into the printable HTML file,
// and a PDF when a browser sidecar is configured.
//
//	render -in invoice.json -out ./invoices
//	cat invoice.json | render -pdf
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wolfman30/pal-invoice-generator/internal/browser"
	appconfig "github.com/wolfman30/pal-invoice-generator/internal/config"
	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: "text", Output: os.Stderr})

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}

type options struct {
	in      string
	outDir  string
	assets  string
	pdf     bool
	sidecar string
}

func parseFlags(args []string, cfg *appconfig.Config) (options, error) {
	opts := options{}
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.StringVar(&opts.in, "in", "-", "JSON render request, - for stdin")
	fs.StringVar(&opts.outDir, "out", ".", "output directory")
	fs.StringVar(&opts.assets, "assets", ".", "directory probed for logo, watermark and signature images")
	fs.BoolVar(&opts.pdf, "pdf", false, "also write a PDF through the browser sidecar")
	fs.StringVar(&opts.sidecar, "sidecar", cfg.BrowserSidecarURL, "browser sidecar URL")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// run renders one invoice and prints the written paths to stdout.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, cfg *appconfig.Config, logger *logging.Logger) error {
	opts, err := parseFlags(args, cfg)
	if err != nil {
		return err
	}

	req, err := readRequest(opts.in, stdin)
	if err != nil {
		return err
	}

	inv := req.Invoice()
	if err := inv.Validate(); err != nil {
		return err
	}

	renderer := invoice.NewRenderer(
		invoice.NewAssetLoader(os.DirFS(opts.assets), logger),
		nil,
		invoice.Options{FilenamePrefix: cfg.FilenamePrefix, RawFreeText: cfg.RawFreeText},
		nil,
		logger,
	)
	doc, err := renderer.Render(ctx, inv, "cli")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	htmlPath := filepath.Join(opts.outDir, doc.HTMLFilename())
	if err := os.WriteFile(htmlPath, []byte(doc.HTML), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	fmt.Fprintln(stdout, htmlPath)
	fmt.Fprintf(stdout, "total %s\n", doc.TotalDisplay())

	if !opts.pdf {
		return nil
	}

	client := browser.NewClient(opts.sidecar,
		browser.WithPageSize(cfg.PDFWidthPx, cfg.PDFHeightPx),
		browser.WithLogger(logger),
	)
	pdf, err := client.RenderPDF(ctx, doc.HTML)
	if err != nil {
		return fmt.Errorf("%w (%s)", err, browser.Remediation(err))
	}

	pdfPath := filepath.Join(opts.outDir, doc.PDFFilename())
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintln(stdout, pdfPath)
	return nil
}

func readRequest(path string, stdin io.Reader) (invoice.RenderRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return invoice.RenderRequest{}, fmt.Errorf("open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req invoice.RenderRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return invoice.RenderRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
