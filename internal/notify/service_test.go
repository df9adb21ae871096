package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

func testDocument() *invoice.Document {
	return &invoice.Document{
		HTML:        "<!DOCTYPE html><html><body>Invoice</body></html>",
		Total:       decimal.NewFromInt(1300),
		BaseName:    "PAL_Invoice_jane_doe_20250910",
		InvoiceNo:   "PAL-PT-2025-001",
		PatientName: "Jane Doe",
		InvoiceDate: invoice.MustDate("2025-09-10"),
		ItemCount:   2,
	}
}

type failingSender struct{}

func (failingSender) Send(context.Context, EmailMessage) error { return errors.New("smtp down") }

func TestInvoiceMailer_SendInvoice(t *testing.T) {
	stub := NewStubEmailSender(logging.Discard())
	mailer := NewInvoiceMailer(stub, "stub", nil, nil, logging.Discard())

	pdf := Attachment{Filename: "PAL_Invoice_jane_doe_20250910.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.7")}
	err := mailer.SendInvoice(context.Background(), " Jane <jane@example.com> ", "Jane Doe", testDocument(), pdf)
	require.NoError(t, err)

	require.Len(t, stub.Sent(), 1)
	msg := stub.Sent()[0]
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Jane Doe", msg.ToName)
	assert.Equal(t, "Invoice PAL-PT-2025-001 from PAL Physiotherapy & Sports Rehab", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Jane Doe,")
	assert.Contains(t, msg.Body, "dated 10/09/2025 for 2 session(s), totalling ₹1,300.00")
	assert.Contains(t, msg.Body, "Dr. Bhuvana")
	assert.Equal(t, testDocument().HTML, msg.HTML)

	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "PAL_Invoice_jane_doe_20250910.html", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[1].ContentType)
}

func TestInvoiceMailer_InvalidRecipient(t *testing.T) {
	stub := NewStubEmailSender(logging.Discard())
	mailer := NewInvoiceMailer(stub, "stub", nil, nil, logging.Discard())

	err := mailer.SendInvoice(context.Background(), "not-an-email", "", testDocument())
	assert.True(t, errors.Is(err, ErrInvalidRecipient))
	assert.Empty(t, stub.Sent())
}

func TestInvoiceMailer_Disabled(t *testing.T) {
	mailer := NewInvoiceMailer(nil, "", nil, nil, logging.Discard())
	assert.False(t, mailer.Enabled())

	err := mailer.SendInvoice(context.Background(), "jane@example.com", "", testDocument())
	assert.True(t, errors.Is(err, ErrEmailDisabled))
}

func TestInvoiceMailer_SenderFailureRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	mailer := NewInvoiceMailer(failingSender{}, "sendgrid", nil, metrics.NewInvoiceMetrics(reg), logging.Discard())

	err := mailer.SendInvoice(context.Background(), "jane@example.com", "", testDocument())
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "pal_delivery_email_total" {
			for _, m := range mf.GetMetric() {
				labels := map[string]string{}
				for _, lp := range m.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
				if labels["provider"] == "sendgrid" && labels["status"] == "error" {
					found = m.GetCounter().GetValue() == 1
				}
			}
		}
	}
	assert.True(t, found, "expected one failed sendgrid email")
}

func TestInvoiceSummaryWithoutName(t *testing.T) {
	mailer := NewInvoiceMailer(NewStubEmailSender(logging.Discard()), "stub", nil, nil, logging.Discard())
	profile, err := mailer.clinic.Get(context.Background())
	require.NoError(t, err)

	body := InvoiceSummary(testDocument(), "  ", profile)
	assert.True(t, strings.HasPrefix(body, "Hello,"))
}
