package clinic

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h := NewHandler(NewStore(setupTestRedis(t)), logging.Discard())
	return h.Routes()
}

func TestGetProfileReturnsDefault(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var p Profile
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if p.Doctor != "Dr. Bhuvana" {
		t.Errorf("expected default doctor, got %s", p.Doctor)
	}
}

func TestUpdateProfilePartialUpdate(t *testing.T) {
	r := newTestRouter(t)

	body := `{"phone": "+91 9999999999", "doctor": "Dr. Rao"}`
	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var p Profile
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if p.Doctor != "Dr. Rao" || p.Phone != "+91 9999999999" {
		t.Errorf("update not persisted: %+v", p)
	}
	if p.Name != "PAL Physiotherapy & Sports Rehab" {
		t.Errorf("expected untouched name, got %s", p.Name)
	}
}

func TestUpdateProfileInvalidJSON(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
