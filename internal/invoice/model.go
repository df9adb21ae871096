package invoice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultProblemDescription replaces a blank problem description.
	DefaultProblemDescription = "General consultation"

	// DefaultTreatmentNotes replaces blank treatment notes.
	DefaultTreatmentNotes = "As per treatment plan"

	// DefaultItemDescription is the description of a freshly added session row.
	DefaultItemDescription = "60 Mins Physiotherapy Session"
)

// DefaultItemCost is the per session cost of a freshly added row.
var DefaultItemCost = decimal.NewFromInt(500)

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{t}, nil
}

// MustDate parses a YYYY-MM-DD string and panics on error.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ISO returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Display returns the date as DD/MM/YYYY.
func (d Date) Display() string {
	return d.Format("02/01/2006")
}

// Compact returns the date as YYYYMMDD.
func (d Date) Compact() string {
	return d.Format("20060102")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.ISO())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(data))
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Sex is the patient's recorded sex.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOthers Sex = "Others"
)

// Sexes lists the accepted values in display order.
var Sexes = []Sex{SexMale, SexFemale, SexOthers}

// Valid reports whether s is one of the accepted values.
func (s Sex) Valid() bool {
	for _, v := range Sexes {
		if s == v {
			return true
		}
	}
	return false
}

// TreatmentMode is how the sessions were delivered.
type TreatmentMode string

const (
	ModeClinicVisit TreatmentMode = "Clinic visit"
	ModeHomeVisit   TreatmentMode = "Home Visit"
	ModeOnline      TreatmentMode = "Online Treatment"
)

// TreatmentModes lists the accepted values in display order.
var TreatmentModes = []TreatmentMode{ModeClinicVisit, ModeHomeVisit, ModeOnline}

// Valid reports whether m is empty (not recorded) or a known mode.
func (m TreatmentMode) Valid() bool {
	if m == "" {
		return true
	}
	for _, v := range TreatmentModes {
		if m == v {
			return true
		}
	}
	return false
}

// LineItem is one billable row on the invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// NewDefaultLineItem returns the placeholder row added by the form.
func NewDefaultLineItem() LineItem {
	return LineItem{
		Description: DefaultItemDescription,
		Quantity:    1,
		UnitCost:    DefaultItemCost,
	}
}

// Total returns quantity × unit cost.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitCost.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LegacyLineItem is the older flat row shape: one dated charge with an amount.
type LegacyLineItem struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// LineItem converts the legacy row to the canonical shape with quantity 1.
func (l LegacyLineItem) LineItem() LineItem {
	desc := strings.TrimSpace(l.Description)
	if date := strings.TrimSpace(l.Date); date != "" {
		if parsed, err := ParseDate(date); err == nil {
			date = parsed.Display()
		}
		desc = fmt.Sprintf("%s (%s)", desc, date)
	}
	return LineItem{
		Description: desc,
		Quantity:    1,
		UnitCost:    l.Amount,
	}
}

// Total sums quantity × unit cost over items. It is the only source of an
// invoice total; nothing stores it.
func Total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total())
	}
	return sum
}

// Patient holds the patient and medical details printed on the invoice.
type Patient struct {
	Name           string        `json:"name"`
	Age            string        `json:"age"`
	Sex            Sex           `json:"sex"`
	Phone          string        `json:"phone"`
	ProblemDesc    string        `json:"problem_desc"`
	TreatmentNotes string        `json:"treatment_notes"`
	TreatmentMode  TreatmentMode `json:"treatment_mode,omitempty"`
	SessionStart   *Date         `json:"session_start_date,omitempty"`
	SessionEnd     *Date         `json:"session_end_date,omitempty"`
}

// Problem returns the problem description or its default when blank.
func (p Patient) Problem() string {
	if strings.TrimSpace(p.ProblemDesc) == "" {
		return DefaultProblemDescription
	}
	return p.ProblemDesc
}

// Treatment returns the treatment notes or their default when blank.
func (p Patient) Treatment() string {
	if strings.TrimSpace(p.TreatmentNotes) == "" {
		return DefaultTreatmentNotes
	}
	return p.TreatmentNotes
}

// Meta identifies the invoice.
type Meta struct {
	Number string `json:"invoice_no"`
	Date   Date   `json:"invoice_date"`
}

// Invoice is everything the renderer needs besides assets and letterhead.
type Invoice struct {
	Meta    Meta       `json:"meta"`
	Patient Patient    `json:"patient"`
	Items   []LineItem `json:"items"`
}

// Total is the derived grand total.
func (inv *Invoice) Total() decimal.Decimal {
	return Total(inv.Items)
}

// Validate performs the caller-side checks that must pass before rendering.
func (inv *Invoice) Validate() error {
	verr := &ValidationError{}

	if inv.Meta.Date.IsZero() {
		verr.Add("invoice_date", ErrMissingInvoiceDate)
	}
	if strings.TrimSpace(inv.Patient.Name) == "" {
		verr.Add("patient_name", ErrMissingPatientName)
	}
	if strings.TrimSpace(inv.Patient.Age) == "" {
		verr.Add("patient_age", ErrMissingPatientAge)
	}
	if !inv.Patient.Sex.Valid() {
		verr.Add("patient_sex", ErrInvalidSex)
	}
	if !inv.Patient.TreatmentMode.Valid() {
		verr.Add("treatment_mode", ErrInvalidTreatmentMode)
	}
	if start, end := inv.Patient.SessionStart, inv.Patient.SessionEnd; start != nil && end != nil && end.Before(start.Time) {
		verr.Add("session_end_date", ErrSessionRange)
	}

	if len(inv.Items) == 0 {
		verr.Add("items", ErrNoLineItems)
	}
	for i, item := range inv.Items {
		if item.Quantity < 1 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), ErrInvalidQuantity)
		}
		if item.UnitCost.IsNegative() {
			verr.Add(fmt.Sprintf("items[%d].unit_cost", i), ErrNegativeUnitCost)
		}
	}

	return verr.OrNil()
}
