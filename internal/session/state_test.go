package session

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
)

var testNow = time.Date(2025, time.September, 10, 9, 30, 0, 0, time.UTC)

func filledState() *State {
	s := New("abc", testNow, Defaults{})
	s.StartInvoice(testNow)
	s.Form.PatientName = "Jane Doe"
	s.Form.PatientAge = "34"
	return s
}

func TestNewState(t *testing.T) {
	s := New("abc", testNow, Defaults{NumberPrefix: "PAL-PT"})

	assert.Equal(t, PageDashboard, s.Page)
	assert.Equal(t, "PAL-PT-2025-001", s.Form.InvoiceNo)
	assert.Equal(t, "2025-09-10", s.Form.InvoiceDate)
	assert.Equal(t, "Male", s.Form.PatientSex)
	assert.Equal(t, "+91 ", s.Form.PatientPhone)
	assert.Equal(t, "Clinic visit", s.Form.TreatmentMode)
	assert.Equal(t, "2025-09-10", s.Form.SessionStart)
	assert.Equal(t, "2025-09-10", s.Form.SessionEnd)
	require.Len(t, s.Items, 1)
	assert.Equal(t, invoice.NewDefaultLineItem(), s.Items[0])
}

func TestCustomNumberPrefix(t *testing.T) {
	s := New("abc", testNow, Defaults{NumberPrefix: "KND"})
	assert.Equal(t, "KND-2025-001", s.Form.InvoiceNo)
}

func TestStartInvoiceDiscardsPreviousWork(t *testing.T) {
	s := filledState()
	s.AddItem()
	s.AddItem()
	require.NoError(t, s.Submit())
	require.NotNil(t, s.Invoice)

	s.StartInvoice(testNow.AddDate(1, 0, 0))

	assert.Equal(t, PageForm, s.Page)
	assert.Nil(t, s.Invoice)
	assert.Len(t, s.Items, 1)
	assert.Empty(t, s.Form.PatientName)
	assert.Equal(t, "PAL-PT-2026-001", s.Form.InvoiceNo)
}

func TestAddUpdateRemoveItems(t *testing.T) {
	s := filledState()
	s.AddItem()
	s.AddItem()
	require.Len(t, s.Items, 3)

	require.NoError(t, s.UpdateItem(0, invoice.LineItem{Description: "A", Quantity: 1, UnitCost: decimal.NewFromInt(1)}))
	require.NoError(t, s.UpdateItem(1, invoice.LineItem{Description: "B", Quantity: 1, UnitCost: decimal.NewFromInt(2)}))
	require.NoError(t, s.UpdateItem(2, invoice.LineItem{Description: "C", Quantity: 1, UnitCost: decimal.NewFromInt(3)}))

	require.NoError(t, s.RemoveItem(1))
	require.Len(t, s.Items, 2)
	assert.Equal(t, "A", s.Items[0].Description)
	assert.Equal(t, "C", s.Items[1].Description)
	assert.Equal(t, "4", s.Total().String())

	assert.True(t, errors.Is(s.UpdateItem(5, invoice.LineItem{}), ErrItemIndex))
	assert.True(t, errors.Is(s.RemoveItem(-1), ErrItemIndex))
}

func TestRemoveLastItemFails(t *testing.T) {
	s := filledState()
	err := s.RemoveItem(0)
	assert.True(t, errors.Is(err, ErrLastItem))
	assert.Len(t, s.Items, 1)
}

func TestSubmitSuccessMovesToPreview(t *testing.T) {
	s := filledState()
	s.Form.PatientName = "  Jane Doe  "
	s.Items = []invoice.LineItem{
		{Description: "60 Mins Physiotherapy Session", Quantity: 2, UnitCost: decimal.NewFromInt(500)},
		{Description: "Consultation", Quantity: 1, UnitCost: decimal.NewFromInt(300)},
	}

	require.NoError(t, s.Submit())

	assert.Equal(t, PagePreview, s.Page)
	require.NotNil(t, s.Invoice)
	assert.Equal(t, "Jane Doe", s.Invoice.Patient.Name)
	assert.Equal(t, invoice.DefaultProblemDescription, s.Invoice.Patient.ProblemDesc)
	assert.Equal(t, invoice.DefaultTreatmentNotes, s.Invoice.Patient.TreatmentNotes)
	assert.Equal(t, "10/09/2025", s.Invoice.Meta.Date.Display())
	require.NotNil(t, s.Invoice.Patient.SessionStart)
	assert.Equal(t, "1300.00", s.Invoice.Total().StringFixed(2))
	assert.Empty(t, s.Errors)

	// later edits to the form do not leak into the submitted invoice
	s.Items[0].Quantity = 9
	assert.Equal(t, 2, s.Invoice.Items[0].Quantity)
}

func TestSubmitBlankNameAndAgeStaysOnForm(t *testing.T) {
	s := filledState()
	s.Form.PatientName = "   "
	s.Form.PatientAge = ""

	err := s.Submit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, invoice.ErrMissingPatientName))

	assert.Equal(t, PageForm, s.Page)
	assert.Nil(t, s.Invoice)
	assert.Contains(t, s.Errors, "patient_name")
	assert.Contains(t, s.Errors, "patient_age")
}

func TestSubmitInvalidDates(t *testing.T) {
	s := filledState()
	s.Form.InvoiceDate = "10-09-2025"
	s.Form.SessionStart = "soon"

	err := s.Submit()
	require.Error(t, err)
	assert.Equal(t, invoice.ErrInvalidDate.Error(), s.Errors["invoice_date"])
	assert.Equal(t, invoice.ErrInvalidDate.Error(), s.Errors["session_start_date"])
}

func TestSubmitBlankSessionDatesAreOptional(t *testing.T) {
	s := filledState()
	s.Form.SessionStart = ""
	s.Form.SessionEnd = ""

	require.NoError(t, s.Submit())
	assert.Nil(t, s.Invoice.Patient.SessionStart)
	assert.Nil(t, s.Invoice.Patient.SessionEnd)
}

func TestSubmitRejectsBadItems(t *testing.T) {
	s := filledState()
	s.Items = []invoice.LineItem{{Description: "x", Quantity: 0, UnitCost: decimal.NewFromInt(-5)}}

	require.Error(t, s.Submit())
	assert.Contains(t, s.Errors, "items[0].quantity")
	assert.Contains(t, s.Errors, "items[0].unit_cost")
}

func TestApplyFormClearsErrors(t *testing.T) {
	s := filledState()
	s.Form.PatientName = ""
	require.Error(t, s.Submit())
	require.NotEmpty(t, s.Errors)

	values := s.Form
	values.PatientName = "Ravi"
	s.ApplyForm(values, nil)

	assert.Empty(t, s.Errors)
	assert.Equal(t, "Ravi", s.Form.PatientName)
	assert.Len(t, s.Items, 1, "nil items keep the existing rows")
}

func TestBackNavigation(t *testing.T) {
	s := filledState()
	require.NoError(t, s.Submit())
	require.Equal(t, PagePreview, s.Page)

	s.Back()
	assert.Equal(t, PageForm, s.Page)
	s.Back()
	assert.Equal(t, PageDashboard, s.Page)
	s.Back()
	assert.Equal(t, PageDashboard, s.Page)
}

func TestCurrentBeforeSubmit(t *testing.T) {
	s := filledState()
	_, err := s.Current()
	assert.True(t, errors.Is(err, ErrNoInvoice))
}

func TestParseItems(t *testing.T) {
	items, verr := ParseItems([]ItemValues{
		{Description: " Session ", Quantity: "2", UnitCost: "500.50"},
		{Description: "Bad", Quantity: "two", UnitCost: "abc"},
		{Description: "Free", Quantity: "1", UnitCost: ""},
	})

	require.Len(t, items, 3)
	assert.Equal(t, "Session", items[0].Description)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "500.5", items[0].UnitCost.String())
	assert.True(t, items[2].UnitCost.IsZero())

	require.False(t, verr.Empty())
	assert.Contains(t, verr.Fields, "items[1].quantity")
	assert.Contains(t, verr.Fields, "items[1].unit_cost")
	assert.Len(t, verr.Fields, 2)
}

func TestReject(t *testing.T) {
	s := filledState()
	verr := &invoice.ValidationError{}
	verr.Add("items[0].unit_cost", invoice.ErrInvalidUnitCost)

	s.Reject(verr)
	assert.Equal(t, PageForm, s.Page)
	assert.Equal(t, invoice.ErrInvalidUnitCost.Error(), s.Errors["items[0].unit_cost"])
}
