package invoice

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrMissingPatientName is returned when the patient name is blank
	ErrMissingPatientName = errors.New("patient name is required")

	// ErrMissingPatientAge is returned when the patient age is blank
	ErrMissingPatientAge = errors.New("patient age is required")

	// ErrInvalidSex is returned when sex is not one of Male, Female, Others
	ErrInvalidSex = errors.New("patient sex must be Male, Female or Others")

	// ErrInvalidTreatmentMode is returned for an unknown mode of treatment
	ErrInvalidTreatmentMode = errors.New("unknown mode of treatment")

	// ErrNoLineItems is returned when an invoice has no billable rows
	ErrNoLineItems = errors.New("at least one session is required")

	// ErrInvalidQuantity is returned when a quantity is below 1
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrInvalidUnitCost is returned when a unit cost is not a number
	ErrInvalidUnitCost = errors.New("per session cost must be a number")

	// ErrNegativeUnitCost is returned when a unit cost is below zero
	ErrNegativeUnitCost = errors.New("per session cost cannot be negative")

	// ErrMissingInvoiceDate is returned when the invoice date is unset
	ErrMissingInvoiceDate = errors.New("invoice date is required")

	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

	// ErrSessionRange is returned when the session end date precedes the start date
	ErrSessionRange = errors.New("session end date is before the start date")
)

// ValidationError collects per-field validation failures.
type ValidationError struct {
	Fields map[string]string
	errs   []error
	byName map[string]error
}

// Add records a failure for field. The first failure per field wins.
func (e *ValidationError) Add(field string, err error) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if e.byName == nil {
		e.byName = make(map[string]error)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = err.Error()
	e.byName[field] = err
	e.errs = append(e.errs, err)
}

// Merge adds the failures from other for fields not yet recorded.
func (e *ValidationError) Merge(other *ValidationError) {
	if other.Empty() {
		return
	}
	keys := make([]string, 0, len(other.byName))
	for k := range other.byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e.Add(k, other.byName[k])
	}
}

// Empty reports whether no failures were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invoice: validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying sentinel errors to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return e.errs
}
