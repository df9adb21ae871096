package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

// ProfileStore reads and writes the clinic profile.
type ProfileStore interface {
	ProfileSource
	Set(ctx context.Context, p *Profile) error
}

// Handler provides HTTP endpoints for the clinic letterhead.
type Handler struct {
	store  ProfileStore
	logger *logging.Logger
}

// NewHandler creates a new clinic profile HTTP handler.
func NewHandler(store ProfileStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// Routes returns a chi router with the profile routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	return r
}

// GetProfile returns the clinic profile.
// GET /admin/clinic/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get clinic profile", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.logger.Error("failed to encode clinic profile", "error", err)
	}
}

// UpdateProfileRequest is the request body for a partial profile update.
type UpdateProfileRequest struct {
	Name         string   `json:"name,omitempty"`
	Tagline      string   `json:"tagline,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Doctor       string   `json:"doctor,omitempty"`
	AddressLines []string `json:"address_lines,omitempty"`
	Registration string   `json:"registration,omitempty"`
	Terms        []string `json:"terms,omitempty"`
}

// UpdateProfile applies a partial update to the clinic profile.
// PUT /admin/clinic/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	p, err := h.store.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get clinic profile", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Tagline != "" {
		p.Tagline = req.Tagline
	}
	if req.Phone != "" {
		p.Phone = req.Phone
	}
	if req.Doctor != "" {
		p.Doctor = req.Doctor
	}
	if req.AddressLines != nil {
		p.AddressLines = req.AddressLines
	}
	if req.Registration != "" {
		p.Registration = req.Registration
	}
	if req.Terms != nil {
		p.Terms = req.Terms
	}

	if err := h.store.Set(r.Context(), p); err != nil {
		if errors.Is(err, ErrInvalidProfile) {
			http.Error(w, `{"error": "name and doctor are required"}`, http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to save clinic profile", "error", err)
		http.Error(w, `{"error": "failed to save profile"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("clinic profile updated", "name", p.Name)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.logger.Error("failed to encode clinic profile", "error", err)
	}
}
