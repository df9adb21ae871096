package invoice

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/pal-invoice-generator/internal/clinic"
	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

var renderTracer = otel.Tracer("pal.internal.invoice")

var invoiceTemplate = template.Must(template.New("invoice").Parse(invoiceHTML))

// DefaultFilenamePrefix starts every downloaded invoice file name.
const DefaultFilenamePrefix = "PAL_Invoice"

const (
	evenRowBackground = template.CSS("#ffffff")
	oddRowBackground  = template.CSS("#f8f9fa")
)

// Options tunes rendering.
type Options struct {
	FilenamePrefix string

	// RawFreeText inserts the problem description and treatment notes without
	// HTML escaping, matching documents produced by the legacy tool. Leave it
	// off unless byte-for-byte compatibility is needed.
	RawFreeText bool
}

func (o Options) prefix() string {
	if o.FilenamePrefix == "" {
		return DefaultFilenamePrefix
	}
	return o.FilenamePrefix
}

// RenderInput is everything the pure render step consumes.
type RenderInput struct {
	Invoice Invoice
	Assets  Assets
	Clinic  *clinic.Profile
}

// Document is a rendered invoice.
type Document struct {
	HTML        string
	Total       decimal.Decimal
	BaseName    string
	InvoiceNo   string
	PatientName string
	InvoiceDate Date
	ItemCount   int
}

// HTMLFilename is the download name for the HTML document.
func (d *Document) HTMLFilename() string { return d.BaseName + ".html" }

// PDFFilename is the download name for the converted PDF.
func (d *Document) PDFFilename() string { return d.BaseName + ".pdf" }

// TotalDisplay is the grand total as printed, e.g. "₹1,300.00".
func (d *Document) TotalDisplay() string { return FormatCurrency(d.Total) }

type rowView struct {
	Number      int
	Background  template.CSS
	Description string
	Quantity    int
	UnitCost    string
	Total       string
}

type documentView struct {
	Title          string
	LogoSrc        template.URL
	WatermarkSrc   template.URL
	SignatureSrc   template.URL
	SignatureLabel string
	InvoiceNo      string
	InvoiceDate    string
	Patient        Patient
	Problem        any
	Treatment      any
	SessionStart   string
	SessionEnd     string
	Rows           []rowView
	Subtotal       string
	Total          string
	Clinic         *clinic.Profile
}

// RenderHTML turns an invoice into a self-contained HTML document. It has no
// side effects and the same input always yields the same bytes. Assets that
// are nil fall back to the placeholder logo and a text signature.
func RenderHTML(in RenderInput, opts Options) (*Document, error) {
	inv := in.Invoice
	profile := in.Clinic
	if profile == nil {
		profile = clinic.DefaultProfile()
	}

	total := inv.Total()
	view := documentView{
		Title:          profile.Name + " Invoice",
		InvoiceNo:      inv.Meta.Number,
		InvoiceDate:    inv.Meta.Date.Display(),
		Patient:        inv.Patient,
		SignatureLabel: profile.Doctor,
		Subtotal:       FormatCurrency(total),
		Total:          FormatCurrency(total),
		Clinic:         profile,
	}

	logo := PlaceholderLogoURI()
	if in.Assets.Logo != nil {
		logo = in.Assets.Logo.DataURI()
	}
	watermark := logo
	if in.Assets.Watermark != nil {
		watermark = in.Assets.Watermark.DataURI()
	}
	view.LogoSrc = template.URL(logo)
	view.WatermarkSrc = template.URL(watermark)
	if in.Assets.Signature != nil {
		view.SignatureSrc = template.URL(in.Assets.Signature.DataURI())
	}

	if opts.RawFreeText {
		view.Problem = template.HTML(inv.Patient.Problem())
		view.Treatment = template.HTML(inv.Patient.Treatment())
	} else {
		view.Problem = inv.Patient.Problem()
		view.Treatment = inv.Patient.Treatment()
	}

	if d := inv.Patient.SessionStart; d != nil && !d.IsZero() {
		view.SessionStart = d.Display()
	}
	if d := inv.Patient.SessionEnd; d != nil && !d.IsZero() {
		view.SessionEnd = d.Display()
	}

	view.Rows = make([]rowView, len(inv.Items))
	for i, item := range inv.Items {
		bg := evenRowBackground
		if i%2 == 1 {
			bg = oddRowBackground
		}
		view.Rows[i] = rowView{
			Number:      i + 1,
			Background:  bg,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitCost:    FormatCurrency(item.UnitCost),
			Total:       FormatCurrency(item.Total()),
		}
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("invoice: execute template: %w", err)
	}

	return &Document{
		HTML:        buf.String(),
		Total:       total,
		BaseName:    BaseFilename(opts.prefix(), inv.Patient.Name, inv.Meta.Date),
		InvoiceNo:   inv.Meta.Number,
		PatientName: inv.Patient.Name,
		InvoiceDate: inv.Meta.Date,
		ItemCount:   len(inv.Items),
	}, nil
}

// AssetSource supplies branding images for a render.
type AssetSource interface {
	Load() Assets
}

// Renderer loads assets and letterhead, then renders.
type Renderer struct {
	assets  AssetSource
	clinic  clinic.ProfileSource
	opts    Options
	metrics *metrics.InvoiceMetrics
	logger  *logging.Logger
}

// NewRenderer creates a renderer. Nil assets probe the working directory and a
// nil profile source uses the default letterhead.
func NewRenderer(assets AssetSource, profiles clinic.ProfileSource, opts Options, m *metrics.InvoiceMetrics, logger *logging.Logger) *Renderer {
	if logger == nil {
		logger = logging.Default()
	}
	if assets == nil {
		assets = NewAssetLoader(nil, logger)
	}
	if profiles == nil {
		profiles = clinic.NewStaticSource(nil)
	}
	return &Renderer{
		assets:  assets,
		clinic:  profiles,
		opts:    opts,
		metrics: m,
		logger:  logger,
	}
}

// Render produces the document for inv. source labels the caller ("ui",
// "api", "cli") in metrics.
func (r *Renderer) Render(ctx context.Context, inv Invoice, source string) (*Document, error) {
	ctx, span := renderTracer.Start(ctx, "invoice.render")
	defer span.End()
	span.SetAttributes(
		attribute.String("invoice.number", inv.Meta.Number),
		attribute.Int("invoice.items", len(inv.Items)),
		attribute.String("invoice.source", source),
	)

	start := time.Now()

	profile, err := r.clinic.Get(ctx)
	if err != nil {
		r.logger.Warn("clinic profile unavailable, using default letterhead", "error", err)
		profile = clinic.DefaultProfile()
	}

	assets := r.assets.Load()
	for _, kind := range assets.Missing() {
		r.metrics.ObserveAssetFallback(string(kind))
	}

	doc, err := RenderHTML(RenderInput{Invoice: inv, Assets: assets, Clinic: profile}, r.opts)
	if err != nil {
		span.RecordError(err)
		r.metrics.ObserveRender(source, "error", time.Since(start).Seconds())
		return nil, err
	}

	r.metrics.ObserveRender(source, "ok", time.Since(start).Seconds())
	r.logger.Info("invoice rendered",
		"invoice_no", doc.InvoiceNo,
		"items", doc.ItemCount,
		"total", doc.Total.StringFixed(2),
		"source", source,
	)
	return doc, nil
}
