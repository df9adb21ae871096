package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/wolfman30/pal-invoice-generator/internal/clinic"
	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

var (
	// ErrInvalidRecipient is returned for a malformed email address.
	ErrInvalidRecipient = errors.New("notify: invalid recipient email address")

	// ErrEmailDisabled is returned when no sender is configured.
	ErrEmailDisabled = errors.New("notify: email delivery is not configured")
)

// InvoiceMailer emails rendered invoices to patients.
type InvoiceMailer struct {
	sender   EmailSender
	provider string
	clinic   clinic.ProfileSource
	metrics  *metrics.InvoiceMetrics
	logger   *logging.Logger
}

// NewInvoiceMailer creates a mailer. provider labels metrics ("sendgrid",
// "ses", "stub"). A nil sender disables delivery.
func NewInvoiceMailer(sender EmailSender, provider string, profiles clinic.ProfileSource, m *metrics.InvoiceMetrics, logger *logging.Logger) *InvoiceMailer {
	if logger == nil {
		logger = logging.Default()
	}
	if profiles == nil {
		profiles = clinic.NewStaticSource(nil)
	}
	return &InvoiceMailer{
		sender:   sender,
		provider: provider,
		clinic:   profiles,
		metrics:  m,
		logger:   logger,
	}
}

// Enabled reports whether invoices can be emailed.
func (m *InvoiceMailer) Enabled() bool {
	return m != nil && m.sender != nil
}

// SendInvoice emails doc to the given address. The HTML document is both the
// message body and an attachment; extra attachments (such as the PDF) are
// appended.
func (m *InvoiceMailer) SendInvoice(ctx context.Context, to, name string, doc *invoice.Document, extra ...Attachment) error {
	if !m.Enabled() {
		return ErrEmailDisabled
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(to))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, to)
	}

	profile, err := m.clinic.Get(ctx)
	if err != nil {
		m.logger.Warn("clinic profile unavailable, using default letterhead", "error", err)
		profile = clinic.DefaultProfile()
	}

	msg := EmailMessage{
		To:      addr.Address,
		ToName:  name,
		Subject: InvoiceSubject(doc, profile),
		Body:    InvoiceSummary(doc, name, profile),
		HTML:    doc.HTML,
		Attachments: append([]Attachment{{
			Filename:    doc.HTMLFilename(),
			ContentType: "text/html",
			Content:     []byte(doc.HTML),
		}}, extra...),
	}

	err = m.sender.Send(ctx, msg)
	m.metrics.ObserveEmail(m.provider, err == nil)
	if err != nil {
		return err
	}

	m.logger.Info("invoice emailed", "invoice_no", doc.InvoiceNo, "provider", m.provider)
	return nil
}

// InvoiceSubject is e.g. "Invoice PAL-PT-2025-001 from PAL Physiotherapy & Sports Rehab".
func InvoiceSubject(doc *invoice.Document, profile *clinic.Profile) string {
	return fmt.Sprintf("Invoice %s from %s", doc.InvoiceNo, profile.Name)
}

// InvoiceSummary is the plain-text body accompanying the document.
func InvoiceSummary(doc *invoice.Document, name string, profile *clinic.Profile) string {
	greeting := "Hello"
	if n := strings.TrimSpace(name); n != "" {
		greeting = "Dear " + n
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s,\n\n", greeting)
	fmt.Fprintf(&b, "Please find attached invoice %s dated %s for %d session(s), totalling %s.\n\n",
		doc.InvoiceNo, doc.InvoiceDate.Display(), doc.ItemCount, doc.TotalDisplay())
	fmt.Fprintf(&b, "Thank you for choosing %s.\n", profile.Name)
	if profile.Doctor != "" {
		b.WriteString(profile.Doctor + "\n")
	}
	if profile.Phone != "" {
		b.WriteString(profile.Phone + "\n")
	}
	return b.String()
}
