package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
)

// Page is the screen the UI shows for a session.
type Page string

const (
	PageDashboard Page = "dashboard"
	PageForm      Page = "form"
	PagePreview   Page = "preview"
)

var (
	// ErrLastItem is returned when removing the only remaining line item.
	ErrLastItem = errors.New("session: at least one session row must remain")

	// ErrItemIndex is returned for a line item index outside the list.
	ErrItemIndex = errors.New("session: line item index out of range")

	// ErrNoInvoice is returned when a document is requested before a successful submit.
	ErrNoInvoice = errors.New("session: no submitted invoice")
)

// DefaultPhonePrefix pre-fills the phone field.
const DefaultPhonePrefix = "+91 "

// Defaults seeds new invoices.
type Defaults struct {
	NumberPrefix string `json:"number_prefix"`
}

// InvoiceNumber returns the suggested number for an invoice started at now,
// e.g. "PAL-PT-2025-001".
func (d Defaults) InvoiceNumber(now time.Time) string {
	prefix := d.NumberPrefix
	if prefix == "" {
		prefix = "PAL-PT"
	}
	return fmt.Sprintf("%s-%d-001", prefix, now.Year())
}

// FormValues mirrors the invoice form as submitted. Dates are kept as the raw
// YYYY-MM-DD strings so an invalid entry survives a re-render.
type FormValues struct {
	InvoiceNo      string `json:"invoice_no"`
	InvoiceDate    string `json:"invoice_date"`
	PatientName    string `json:"patient_name"`
	PatientAge     string `json:"patient_age"`
	PatientSex     string `json:"patient_sex"`
	PatientPhone   string `json:"patient_phone"`
	ProblemDesc    string `json:"problem_desc"`
	TreatmentNotes string `json:"treatment_notes"`
	TreatmentMode  string `json:"treatment_mode"`
	SessionStart   string `json:"session_start_date"`
	SessionEnd     string `json:"session_end_date"`
}

// DefaultFormValues returns the pre-filled form for a new invoice.
func DefaultFormValues(now time.Time, d Defaults) FormValues {
	today := invoice.NewDate(now).ISO()
	return FormValues{
		InvoiceNo:     d.InvoiceNumber(now),
		InvoiceDate:   today,
		PatientSex:    string(invoice.SexMale),
		PatientPhone:  DefaultPhonePrefix,
		TreatmentMode: string(invoice.ModeClinicVisit),
		SessionStart:  today,
		SessionEnd:    today,
	}
}

// State is everything the UI remembers for one browser session.
type State struct {
	ID        string             `json:"id"`
	Page      Page               `json:"page"`
	Defaults  Defaults           `json:"defaults"`
	Form      FormValues         `json:"form"`
	Items     []invoice.LineItem `json:"items"`
	Invoice   *invoice.Invoice   `json:"invoice,omitempty"`
	Errors    map[string]string  `json:"errors,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// New creates a session on the dashboard with a pre-filled form and one
// default line item.
func New(id string, now time.Time, d Defaults) *State {
	return &State{
		ID:        id,
		Page:      PageDashboard,
		Defaults:  d,
		Form:      DefaultFormValues(now, d),
		Items:     []invoice.LineItem{invoice.NewDefaultLineItem()},
		UpdatedAt: now,
	}
}

// StartInvoice discards any previous form, items and invoice and opens the form.
func (s *State) StartInvoice(now time.Time) {
	s.Form = DefaultFormValues(now, s.Defaults)
	s.Items = []invoice.LineItem{invoice.NewDefaultLineItem()}
	s.Invoice = nil
	s.Errors = nil
	s.Page = PageForm
}

// ApplyForm overwrites form values and, when any are given, the line items.
// Previous errors are cleared.
func (s *State) ApplyForm(values FormValues, items []invoice.LineItem) {
	s.Form = values
	if len(items) > 0 {
		s.Items = items
	}
	s.Errors = nil
}

// AddItem appends a default line item.
func (s *State) AddItem() {
	s.Items = append(s.Items, invoice.NewDefaultLineItem())
}

// UpdateItem replaces the item at i.
func (s *State) UpdateItem(i int, item invoice.LineItem) error {
	if i < 0 || i >= len(s.Items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	s.Items[i] = item
	return nil
}

// RemoveItem deletes the item at i, keeping the order of the rest.
func (s *State) RemoveItem(i int) error {
	if i < 0 || i >= len(s.Items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	if len(s.Items) == 1 {
		return ErrLastItem
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return nil
}

// Reject records validation failures and keeps the user on the form.
func (s *State) Reject(verr *invoice.ValidationError) {
	s.Invoice = nil
	s.Page = PageForm
	if verr.Empty() {
		s.Errors = nil
		return
	}
	s.Errors = make(map[string]string, len(verr.Fields))
	for k, v := range verr.Fields {
		s.Errors[k] = v
	}
}

// Submit validates the form. On success the built invoice is stored and the
// session moves to the preview page; otherwise the field errors are recorded
// and the session stays on the form.
func (s *State) Submit() error {
	inv, verr := s.build()
	if err := inv.Validate(); err != nil {
		var fields *invoice.ValidationError
		if errors.As(err, &fields) {
			verr.Merge(fields)
		}
	}
	if !verr.Empty() {
		s.Reject(verr)
		return verr
	}

	s.Invoice = &inv
	s.Errors = nil
	s.Page = PagePreview
	return nil
}

// Back moves one page toward the dashboard.
func (s *State) Back() {
	switch s.Page {
	case PagePreview:
		s.Page = PageForm
	case PageForm:
		s.Page = PageDashboard
	}
}

// Current returns the submitted invoice.
func (s *State) Current() (*invoice.Invoice, error) {
	if s.Invoice == nil {
		return nil, ErrNoInvoice
	}
	return s.Invoice, nil
}

// Total is the running total of the items on the form.
func (s *State) Total() decimal.Decimal {
	return invoice.Total(s.Items)
}

// build converts the form into an invoice. Date parse failures are returned
// as field errors; other checks are left to Invoice.Validate.
func (s *State) build() (invoice.Invoice, *invoice.ValidationError) {
	verr := &invoice.ValidationError{}
	f := s.Form

	var date invoice.Date
	if strings.TrimSpace(f.InvoiceDate) != "" {
		d, err := invoice.ParseDate(f.InvoiceDate)
		if err != nil {
			verr.Add("invoice_date", invoice.ErrInvalidDate)
		}
		date = d
	}

	start := optionalDate(f.SessionStart, "session_start_date", verr)
	end := optionalDate(f.SessionEnd, "session_end_date", verr)

	patient := invoice.Patient{
		Name:           strings.TrimSpace(f.PatientName),
		Age:            strings.TrimSpace(f.PatientAge),
		Sex:            invoice.Sex(f.PatientSex),
		Phone:          strings.TrimSpace(f.PatientPhone),
		ProblemDesc:    strings.TrimSpace(f.ProblemDesc),
		TreatmentNotes: strings.TrimSpace(f.TreatmentNotes),
		TreatmentMode:  invoice.TreatmentMode(f.TreatmentMode),
		SessionStart:   start,
		SessionEnd:     end,
	}
	patient.ProblemDesc = patient.Problem()
	patient.TreatmentNotes = patient.Treatment()

	items := make([]invoice.LineItem, len(s.Items))
	copy(items, s.Items)

	return invoice.Invoice{
		Meta:    invoice.Meta{Number: strings.TrimSpace(f.InvoiceNo), Date: date},
		Patient: patient,
		Items:   items,
	}, verr
}

func optionalDate(raw, field string, verr *invoice.ValidationError) *invoice.Date {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d, err := invoice.ParseDate(raw)
	if err != nil {
		verr.Add(field, invoice.ErrInvalidDate)
		return nil
	}
	return &d
}

// ItemValues is one submitted form row before parsing.
type ItemValues struct {
	Description string
	Quantity    string
	UnitCost    string
}

// ParseItems converts submitted rows to line items. Unparseable numbers are
// reported per row and replaced by zero so the row still re-renders.
func ParseItems(rows []ItemValues) ([]invoice.LineItem, *invoice.ValidationError) {
	verr := &invoice.ValidationError{}
	items := make([]invoice.LineItem, 0, len(rows))
	for i, row := range rows {
		item := invoice.LineItem{Description: strings.TrimSpace(row.Description)}

		qty, err := strconv.Atoi(strings.TrimSpace(row.Quantity))
		if err != nil {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), invoice.ErrInvalidQuantity)
		}
		item.Quantity = qty

		cost := strings.TrimSpace(row.UnitCost)
		if cost == "" {
			cost = "0"
		}
		d, err := decimal.NewFromString(cost)
		if err != nil {
			verr.Add(fmt.Sprintf("items[%d].unit_cost", i), invoice.ErrInvalidUnitCost)
			d = decimal.Zero
		}
		item.UnitCost = d

		items = append(items, item)
	}
	return items, verr
}
