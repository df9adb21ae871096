package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/pal-invoice-generator/internal/archive"
	"github.com/wolfman30/pal-invoice-generator/internal/browser"
	"github.com/wolfman30/pal-invoice-generator/internal/clinic"
	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
	"github.com/wolfman30/pal-invoice-generator/internal/notify"
	"github.com/wolfman30/pal-invoice-generator/internal/observability/metrics"
	"github.com/wolfman30/pal-invoice-generator/internal/session"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

// CookieName holds the session id.
const CookieName = "pal_session"

const (
	maxFormBytes = 1 << 20
	renderSource = "ui"
)

// PDFConverter turns a rendered document into PDF bytes.
type PDFConverter interface {
	Configured() bool
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// Archiver stores downloaded documents.
type Archiver interface {
	Enabled() bool
	ArchiveInvoice(ctx context.Context, rec archive.InvoiceRecord) (string, error)
}

// Mailer emails a rendered invoice.
type Mailer interface {
	Enabled() bool
	SendInvoice(ctx context.Context, to, name string, doc *invoice.Document, extra ...notify.Attachment) error
}

// Config wires the form UI. Sessions and Renderer are required; PDF, Archive
// and Mailer are optional.
type Config struct {
	Sessions     session.Store
	Renderer     invoice.DocumentRenderer
	Clinic       clinic.ProfileSource
	PDF          PDFConverter
	Archive      Archiver
	Mailer       Mailer
	Metrics      *metrics.InvoiceMetrics
	Defaults     session.Defaults
	SecureCookie bool
	Logger       *logging.Logger
}

// Handler serves the dashboard, form and preview pages plus downloads.
type Handler struct {
	sessions     session.Store
	renderer     invoice.DocumentRenderer
	clinic       clinic.ProfileSource
	pdf          PDFConverter
	archive      Archiver
	mailer       Mailer
	metrics      *metrics.InvoiceMetrics
	defaults     session.Defaults
	secureCookie bool
	logger       *logging.Logger
	now          func() time.Time
}

// NewHandler creates the UI handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clinic == nil {
		cfg.Clinic = clinic.NewStaticSource(nil)
	}
	return &Handler{
		sessions:     cfg.Sessions,
		renderer:     cfg.Renderer,
		clinic:       cfg.Clinic,
		pdf:          cfg.PDF,
		archive:      cfg.Archive,
		mailer:       cfg.Mailer,
		metrics:      cfg.Metrics,
		defaults:     cfg.Defaults,
		secureCookie: cfg.SecureCookie,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

// Routes returns a chi router with the UI routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Post("/invoices/new", h.NewInvoice)
	r.Post("/form", h.SubmitForm)
	r.Post("/back", h.Back)
	r.Route("/invoice", func(r chi.Router) {
		r.Get("/preview", h.Preview)
		r.Get("/download.html", h.DownloadHTML)
		r.Get("/download.pdf", h.DownloadPDF)
		r.Post("/email", h.Email)
	})
	return r
}

// Index renders the page for the session's current state.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	st, ok := h.load(w, r)
	if !ok {
		return
	}
	if !h.save(w, r, st) {
		return
	}
	h.renderState(w, r, http.StatusOK, st, nil)
}

// NewInvoice discards the current invoice and opens an empty form.
func (h *Handler) NewInvoice(w http.ResponseWriter, r *http.Request) {
	st, ok := h.load(w, r)
	if !ok {
		return
	}
	st.StartInvoice(h.now())
	h.metrics.ObserveSessionAction("new")
	if h.save(w, r, st) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// Back moves the session one page toward the dashboard.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	st, ok := h.load(w, r)
	if !ok {
		return
	}
	st.Back()
	h.metrics.ObserveSessionAction("back")
	if h.save(w, r, st) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// SubmitForm stores the submitted fields and runs the requested action:
// add_item, remove_item (with index), preview or back.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	st, ok := h.load(w, r)
	if !ok {
		return
	}

	action := r.FormValue("action")
	if action == "" {
		action = "preview"
	}

	items, verr := session.ParseItems(itemRows(r))
	if len(items) == 0 {
		items = nil
	}
	st.ApplyForm(formValues(r), items)

	switch action {
	case "add_item":
		if verr.Empty() {
			st.AddItem()
		}
	case "remove_item":
		if !verr.Empty() {
			break
		}
		i, err := strconv.Atoi(r.FormValue("index"))
		if err != nil {
			http.Error(w, "invalid item index", http.StatusBadRequest)
			return
		}
		if err := st.RemoveItem(i); err != nil {
			if !errors.Is(err, session.ErrLastItem) && !errors.Is(err, session.ErrItemIndex) {
				h.serverError(w, "remove item", err)
				return
			}
			verr.Add("items", err)
		}
	case "preview":
		if err := st.Submit(); err != nil {
			var fields *invoice.ValidationError
			if errors.As(err, &fields) {
				verr.Merge(fields)
			}
		}
	case "back":
		verr = nil
		st.Back()
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	h.metrics.ObserveSessionAction(action)

	if !verr.Empty() {
		st.Reject(verr)
		if !h.save(w, r, st) {
			return
		}
		h.renderState(w, r, http.StatusUnprocessableEntity, st, nil)
		return
	}

	if h.save(w, r, st) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// Preview serves the rendered document inline for the preview iframe.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	_, doc, ok := h.document(w, r)
	if !ok {
		return
	}
	writeDocument(w, "text/html; charset=utf-8", "inline", doc.HTMLFilename(), []byte(doc.HTML))
}

// DownloadHTML serves the rendered document as an attachment and archives it.
func (h *Handler) DownloadHTML(w http.ResponseWriter, r *http.Request) {
	st, doc, ok := h.document(w, r)
	if !ok {
		return
	}
	body := []byte(doc.HTML)
	h.metrics.ObserveSessionAction("download_html")
	h.archiveDocument(r.Context(), st, doc, "html", doc.HTMLFilename(), "text/html; charset=utf-8", body)
	writeDocument(w, "text/html; charset=utf-8", "attachment", doc.HTMLFilename(), body)
}

// DownloadPDF converts the document through the browser sidecar. A failed
// conversion re-renders the preview with a remediation hint.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	st, doc, ok := h.document(w, r)
	if !ok {
		return
	}
	h.metrics.ObserveSessionAction("download_pdf")

	pdf, err := h.convert(r.Context(), doc)
	if err != nil {
		h.logger.Warn("pdf download failed", "invoice_no", doc.InvoiceNo, "error", err)
		h.renderPreview(w, r, http.StatusBadGateway, st, doc, &flash{
			Kind:    "error",
			Message: "PDF conversion failed: " + err.Error(),
			Hint:    browser.Remediation(err),
		})
		return
	}

	h.archiveDocument(r.Context(), st, doc, "pdf", doc.PDFFilename(), "application/pdf", pdf)
	writeDocument(w, "application/pdf", "attachment", doc.PDFFilename(), pdf)
}

// Email sends the document to the address in the "email" field. The PDF is
// attached when the sidecar can produce it.
func (h *Handler) Email(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	st, doc, ok := h.document(w, r)
	if !ok {
		return
	}
	h.metrics.ObserveSessionAction("email")

	if !h.emailEnabled() {
		h.renderPreview(w, r, http.StatusServiceUnavailable, st, doc, &flash{
			Kind:    "error",
			Message: "Email delivery is not configured.",
			Hint:    "Download the invoice and send it from your mail client.",
		})
		return
	}

	var extra []notify.Attachment
	if h.pdfEnabled() {
		pdf, err := h.pdf.RenderPDF(r.Context(), doc.HTML)
		if err != nil {
			h.logger.Warn("sending invoice without pdf", "invoice_no", doc.InvoiceNo, "error", err)
		} else {
			extra = append(extra, notify.Attachment{
				Filename:    doc.PDFFilename(),
				ContentType: "application/pdf",
				Content:     pdf,
			})
		}
	}

	to := r.FormValue("email")
	err := h.mailer.SendInvoice(r.Context(), to, doc.PatientName, doc, extra...)
	switch {
	case err == nil:
		h.renderPreview(w, r, http.StatusOK, st, doc, &flash{Kind: "success", Message: "Invoice emailed to " + to + "."})
	case errors.Is(err, notify.ErrInvalidRecipient):
		h.renderPreview(w, r, http.StatusBadRequest, st, doc, &flash{Kind: "error", Message: "Enter a valid email address."})
	default:
		h.logger.Error("invoice email failed", "invoice_no", doc.InvoiceNo, "error", err)
		h.renderPreview(w, r, http.StatusBadGateway, st, doc, &flash{
			Kind:    "error",
			Message: "The invoice could not be emailed.",
			Hint:    "Try again later, or download the invoice and send it from your mail client.",
		})
	}
}

func (h *Handler) convert(ctx context.Context, doc *invoice.Document) ([]byte, error) {
	if !h.pdfEnabled() {
		return nil, browser.ErrNotConfigured
	}
	return h.pdf.RenderPDF(ctx, doc.HTML)
}

func (h *Handler) pdfEnabled() bool   { return h.pdf != nil && h.pdf.Configured() }
func (h *Handler) emailEnabled() bool { return h.mailer != nil && h.mailer.Enabled() }

func (h *Handler) archiveDocument(ctx context.Context, st *session.State, doc *invoice.Document, format, filename, contentType string, body []byte) {
	if h.archive == nil || !h.archive.Enabled() {
		return
	}
	var phone string
	if st.Invoice != nil {
		phone = st.Invoice.Patient.Phone
	}
	key, err := h.archive.ArchiveInvoice(ctx, archive.InvoiceRecord{
		Filename:     filename,
		Format:       format,
		ContentType:  contentType,
		Body:         body,
		InvoiceNo:    doc.InvoiceNo,
		InvoiceDate:  doc.InvoiceDate.ISO(),
		PatientName:  doc.PatientName,
		PatientPhone: phone,
		Total:        doc.Total.StringFixed(2),
	})
	h.metrics.ObserveArchive(err == nil)
	if err != nil {
		h.logger.Warn("invoice archive failed", "invoice_no", doc.InvoiceNo, "format", format, "error", err)
		return
	}
	h.logger.Debug("invoice archived", "invoice_no", doc.InvoiceNo, "key", key)
}

// load returns the session named by the cookie, starting a new one when the
// cookie is absent, malformed or expired.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			st, err := h.sessions.Get(r.Context(), c.Value)
			if err == nil {
				return st, true
			}
			if !errors.Is(err, session.ErrNotFound) {
				h.serverError(w, "load session", err)
				return nil, false
			}
		}
	}

	st := session.New(uuid.NewString(), h.now(), h.defaults)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    st.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Debug("session started", "session_id", st.ID)
	return st, true
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, st *session.State) bool {
	if err := h.sessions.Save(r.Context(), st); err != nil {
		h.serverError(w, "save session", err)
		return false
	}
	return true
}

// document renders the session's submitted invoice.
func (h *Handler) document(w http.ResponseWriter, r *http.Request) (*session.State, *invoice.Document, bool) {
	st, ok := h.load(w, r)
	if !ok {
		return nil, nil, false
	}
	inv, err := st.Current()
	if err != nil {
		http.Error(w, "no invoice has been generated yet", http.StatusNotFound)
		return nil, nil, false
	}
	doc, err := h.renderer.Render(r.Context(), *inv, renderSource)
	if err != nil {
		h.serverError(w, "render invoice", err)
		return nil, nil, false
	}
	return st, doc, true
}

func (h *Handler) renderState(w http.ResponseWriter, r *http.Request, status int, st *session.State, f *flash) {
	if st.Page != session.PagePreview {
		h.renderPage(w, r, status, h.view(r.Context(), st, nil, f))
		return
	}
	inv, err := st.Current()
	if err != nil {
		st.Page = session.PageForm
		h.renderPage(w, r, status, h.view(r.Context(), st, nil, f))
		return
	}
	doc, err := h.renderer.Render(r.Context(), *inv, renderSource)
	if err != nil {
		h.serverError(w, "render invoice", err)
		return
	}
	h.renderPage(w, r, status, h.view(r.Context(), st, doc, f))
}

func (h *Handler) renderPreview(w http.ResponseWriter, r *http.Request, status int, st *session.State, doc *invoice.Document, f *flash) {
	st.Page = session.PagePreview
	h.renderPage(w, r, status, h.view(r.Context(), st, doc, f))
}

func (h *Handler) view(ctx context.Context, st *session.State, doc *invoice.Document, f *flash) pageView {
	profile, err := h.clinic.Get(ctx)
	if err != nil {
		h.logger.Warn("clinic profile unavailable, using default letterhead", "error", err)
		profile = clinic.DefaultProfile()
	}
	return pageView{
		Page:         st.Page,
		Clinic:       profile,
		Form:         st.Form,
		Items:        itemViews(st.Items),
		Errors:       st.Errors,
		RunningTotal: invoice.FormatCurrency(st.Total()),
		Sexes:        invoice.Sexes,
		Modes:        invoice.TreatmentModes,
		Doc:          doc,
		PDFEnabled:   h.pdfEnabled(),
		EmailEnabled: h.emailEnabled(),
		Flash:        f,
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, v pageView) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "layout", v); err != nil {
		h.serverError(w, "render page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("ui request failed", "op", op, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeDocument(w http.ResponseWriter, contentType, disposition, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func formValues(r *http.Request) session.FormValues {
	return session.FormValues{
		InvoiceNo:      r.PostFormValue("invoice_no"),
		InvoiceDate:    r.PostFormValue("invoice_date"),
		PatientName:    r.PostFormValue("patient_name"),
		PatientAge:     r.PostFormValue("patient_age"),
		PatientSex:     r.PostFormValue("patient_sex"),
		PatientPhone:   r.PostFormValue("patient_phone"),
		ProblemDesc:    r.PostFormValue("problem_desc"),
		TreatmentNotes: r.PostFormValue("treatment_notes"),
		TreatmentMode:  r.PostFormValue("treatment_mode"),
		SessionStart:   r.PostFormValue("session_start_date"),
		SessionEnd:     r.PostFormValue("session_end_date"),
	}
}

// itemRows zips the repeated item_* fields into rows.
func itemRows(r *http.Request) []session.ItemValues {
	desc := r.PostForm["item_description"]
	qty := r.PostForm["item_quantity"]
	cost := r.PostForm["item_unit_cost"]

	n := max(len(desc), len(qty), len(cost))
	rows := make([]session.ItemValues, n)
	for i := range rows {
		rows[i] = session.ItemValues{
			Description: at(desc, i),
			Quantity:    at(qty, i),
			UnitCost:    at(cost, i),
		}
	}
	return rows
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
