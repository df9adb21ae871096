package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "pal"

// InvoiceMetrics exposes counters/histograms for invoice rendering and delivery.
type InvoiceMetrics struct {
	renderTotal    *prometheus.CounterVec
	renderLatency  *prometheus.HistogramVec
	assetFallbacks *prometheus.CounterVec
	pdfTotal       *prometheus.CounterVec
	pdfLatency     prometheus.Histogram
	emailTotal     *prometheus.CounterVec
	archiveTotal   *prometheus.CounterVec
	sessionActions *prometheus.CounterVec
}

func NewInvoiceMetrics(reg prometheus.Registerer) *InvoiceMetrics {
	m := &InvoiceMetrics{
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invoice",
			Name:      "render_total",
			Help:      "Total invoice renders",
		}, []string{"source", "status"}),
		renderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "invoice",
			Name:      "render_latency_seconds",
			Help:      "Latency of invoice rendering including asset probing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		assetFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invoice",
			Name:      "asset_fallback_total",
			Help:      "Renders that fell back because a branding image was missing",
		}, []string{"asset"}),
		pdfTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pdf",
			Name:      "conversions_total",
			Help:      "Total HTML to PDF conversions",
		}, []string{"status"}),
		pdfLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pdf",
			Name:      "conversion_latency_seconds",
			Help:      "Latency of HTML to PDF conversion",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		emailTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "email_total",
			Help:      "Invoice emails attempted",
		}, []string{"provider", "status"}),
		archiveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "archive_total",
			Help:      "Invoice archive uploads attempted",
		}, []string{"status"}),
		sessionActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ui",
			Name:      "session_actions_total",
			Help:      "Form actions handled by the web UI",
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.renderTotal, m.renderLatency, m.assetFallbacks,
		m.pdfTotal, m.pdfLatency,
		m.emailTotal, m.archiveTotal,
		m.sessionActions,
	)
	return m
}

func (m *InvoiceMetrics) ObserveRender(source, status string, seconds float64) {
	if m == nil {
		return
	}
	m.renderTotal.WithLabelValues(source, status).Inc()
	m.renderLatency.WithLabelValues(source).Observe(seconds)
}

func (m *InvoiceMetrics) ObserveAssetFallback(asset string) {
	if m == nil {
		return
	}
	m.assetFallbacks.WithLabelValues(asset).Inc()
}

func (m *InvoiceMetrics) ObservePDF(success bool, seconds float64) {
	if m == nil {
		return
	}
	m.pdfTotal.WithLabelValues(statusLabel(success)).Inc()
	m.pdfLatency.Observe(seconds)
}

func (m *InvoiceMetrics) ObserveEmail(provider string, success bool) {
	if m == nil {
		return
	}
	m.emailTotal.WithLabelValues(provider, statusLabel(success)).Inc()
}

func (m *InvoiceMetrics) ObserveArchive(success bool) {
	if m == nil {
		return
	}
	m.archiveTotal.WithLabelValues(statusLabel(success)).Inc()
}

func (m *InvoiceMetrics) ObserveSessionAction(action string) {
	if m == nil {
		return
	}
	m.sessionActions.WithLabelValues(action).Inc()
}

func statusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
