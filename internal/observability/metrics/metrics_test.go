package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, lp := range metric.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestInvoiceMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInvoiceMetrics(reg)

	m.ObserveRender("ui", "ok", 0.01)
	m.ObserveRender("ui", "ok", 0.02)
	m.ObserveRender("api", "error", 0.01)
	m.ObserveAssetFallback("logo")
	m.ObservePDF(false, 1.5)
	m.ObserveEmail("sendgrid", true)
	m.ObserveArchive(true)
	m.ObserveSessionAction("add_item")

	if got := counterValue(t, reg, "pal_invoice_render_total", map[string]string{"source": "ui", "status": "ok"}); got != 2 {
		t.Fatalf("ui renders = %v, want 2", got)
	}
	if got := counterValue(t, reg, "pal_invoice_render_total", map[string]string{"source": "api", "status": "error"}); got != 1 {
		t.Fatalf("api errors = %v, want 1", got)
	}
	if got := counterValue(t, reg, "pal_invoice_asset_fallback_total", map[string]string{"asset": "logo"}); got != 1 {
		t.Fatalf("logo fallbacks = %v, want 1", got)
	}
	if got := counterValue(t, reg, "pal_pdf_conversions_total", map[string]string{"status": "error"}); got != 1 {
		t.Fatalf("pdf errors = %v, want 1", got)
	}
	if got := counterValue(t, reg, "pal_delivery_email_total", map[string]string{"provider": "sendgrid", "status": "ok"}); got != 1 {
		t.Fatalf("emails = %v, want 1", got)
	}
	if got := counterValue(t, reg, "pal_ui_session_actions_total", map[string]string{"action": "add_item"}); got != 1 {
		t.Fatalf("session actions = %v, want 1", got)
	}
}

func TestInvoiceMetricsNilSafe(t *testing.T) {
	var m *InvoiceMetrics
	m.ObserveRender("ui", "ok", 0.1)
	m.ObserveAssetFallback("watermark")
	m.ObservePDF(true, 0.1)
	m.ObserveEmail("ses", false)
	m.ObserveArchive(false)
	m.ObserveSessionAction("preview")
}
