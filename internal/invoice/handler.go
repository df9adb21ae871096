package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

const maxRenderBody = 1 << 20

// DocumentRenderer renders an invoice for a named caller.
type DocumentRenderer interface {
	Render(ctx context.Context, inv Invoice, source string) (*Document, error)
}

// Handler serves the JSON render API.
type Handler struct {
	renderer DocumentRenderer
	logger   *logging.Logger
}

// NewHandler creates a render API handler.
func NewHandler(renderer DocumentRenderer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{renderer: renderer, logger: logger}
}

// Routes returns a chi router with the render routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/render", h.Render)
	return r
}

// RenderRequest is the body of POST /api/v1/invoices/render. Items and
// LegacyItems may be combined; legacy rows are appended after items.
type RenderRequest struct {
	InvoiceNo   string           `json:"invoice_no"`
	InvoiceDate Date             `json:"invoice_date"`
	Patient     Patient          `json:"patient"`
	Items       []LineItem       `json:"items"`
	LegacyItems []LegacyLineItem `json:"legacy_items,omitempty"`
}

// Invoice converts the request into the renderer's input.
func (req RenderRequest) Invoice() Invoice {
	items := make([]LineItem, 0, len(req.Items)+len(req.LegacyItems))
	items = append(items, req.Items...)
	for _, legacy := range req.LegacyItems {
		items = append(items, legacy.LineItem())
	}
	return Invoice{
		Meta:    Meta{Number: req.InvoiceNo, Date: req.InvoiceDate},
		Patient: req.Patient,
		Items:   items,
	}
}

// RenderResponse is the JSON result of a render.
type RenderResponse struct {
	Filename     string `json:"filename"`
	Total        string `json:"total"`
	TotalDisplay string `json:"total_display"`
	HTML         string `json:"html"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Render validates and renders an invoice.
// POST /api/v1/invoices/render[?format=html]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBody))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, ErrInvalidDate) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	inv := req.Invoice()
	if err := inv.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	doc, err := h.renderer.Render(r.Context(), inv, "api")
	if err != nil {
		h.logger.Error("failed to render invoice", "error", err, "invoice_no", inv.Meta.Number)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to render invoice"})
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="`+doc.HTMLFilename()+`"`)
		w.Header().Set("X-Invoice-Total", doc.Total.StringFixed(2))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc.HTML))
		return
	}

	writeJSON(w, http.StatusOK, RenderResponse{
		Filename:     doc.HTMLFilename(),
		Total:        doc.Total.StringFixed(2),
		TotalDisplay: doc.TotalDisplay(),
		HTML:         doc.HTML,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
