package ui

import (
	"fmt"
	"html/template"

	"github.com/wolfman30/pal-invoice-generator/internal/clinic"
	"github.com/wolfman30/pal-invoice-generator/internal/invoice"
	"github.com/wolfman30/pal-invoice-generator/internal/session"
)

var pageFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"itemErr": func(errs map[string]string, i int, field string) string {
		return errs[itemField(i, field)]
	},
}

var pages = template.Must(template.New("layout").Funcs(pageFuncs).Parse(layoutHTML))

func init() {
	template.Must(pages.New("dashboard").Parse(dashboardHTML))
	template.Must(pages.New("form").Parse(formHTML))
	template.Must(pages.New("preview").Parse(previewHTML))
}

// flash is a one-shot message shown above the page content.
type flash struct {
	Kind    string // "error" | "success"
	Message string
	Hint    string
}

type itemView struct {
	Index       int
	Description string
	Quantity    int
	UnitCost    string
	LineTotal   string
}

type pageView struct {
	Page         session.Page
	Clinic       *clinic.Profile
	Form         session.FormValues
	Items        []itemView
	Errors       map[string]string
	RunningTotal string
	Sexes        []invoice.Sex
	Modes        []invoice.TreatmentMode
	Doc          *invoice.Document
	PDFEnabled   bool
	EmailEnabled bool
	Flash        *flash
}

func (v pageView) Content() string { return string(v.Page) }

func itemViews(items []invoice.LineItem) []itemView {
	out := make([]itemView, len(items))
	for i, item := range items {
		out[i] = itemView{
			Index:       i,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitCost:    item.UnitCost.StringFixed(2),
			LineTotal:   invoice.FormatCurrency(item.Total()),
		}
	}
	return out
}

func itemField(i int, field string) string {
	return fmt.Sprintf("items[%d].%s", i, field)
}

const layoutHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Clinic.Name}} - Invoice Generator</title>
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; background: #f4f6f9; margin: 0; color: #2c3e50; }
header { background: linear-gradient(135deg, #2c5aa0, #1e3d6f); color: #fff; padding: 18px 32px; }
header h1 { margin: 0; font-size: 22px; }
header p { margin: 4px 0 0; opacity: .85; font-size: 13px; }
main { max-width: 1100px; margin: 24px auto; padding: 0 16px; }
.card { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.08); padding: 20px 24px; margin-bottom: 20px; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 14px; }
label { display: block; font-size: 13px; font-weight: 600; margin-bottom: 4px; }
input, select, textarea { width: 100%; box-sizing: border-box; padding: 8px; border: 1px solid #ccd3dc; border-radius: 4px; font-size: 14px; }
textarea { min-height: 70px; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 8px; border-bottom: 1px solid #e5e9ef; text-align: left; font-size: 14px; }
button, .button { background: #2c5aa0; color: #fff; border: 0; border-radius: 4px; padding: 9px 16px; font-size: 14px; cursor: pointer; text-decoration: none; display: inline-block; }
button.secondary, .button.secondary { background: #6c7a89; }
button.danger { background: #c0392b; padding: 6px 10px; }
.field-error { color: #c0392b; font-size: 12px; margin-top: 3px; }
.flash { padding: 12px 16px; border-radius: 6px; margin-bottom: 16px; }
.flash.error { background: #fdecea; border: 1px solid #f5c6cb; }
.flash.success { background: #e8f6ee; border: 1px solid #b7e1c7; }
.flash .hint { font-size: 13px; margin-top: 6px; }
.metric { text-align: center; }
.metric .value { font-size: 22px; font-weight: 700; color: #2c5aa0; }
.metric .label { font-size: 12px; color: #6c7a89; text-transform: uppercase; }
.actions { display: flex; gap: 10px; flex-wrap: wrap; align-items: center; }
iframe.preview { width: 100%; height: 1200px; border: 1px solid #e5e9ef; border-radius: 6px; background: #fff; }
</style>
</head>
<body>
<header>
<h1>{{.Clinic.Name}}</h1>
<p>Invoice Generator · {{.Clinic.Phone}}</p>
</header>
<main>
{{with .Flash}}<div class="flash {{.Kind}}" role="alert"><div class="message">{{.Message}}</div>{{with .Hint}}<div class="hint">{{.}}</div>{{end}}</div>{{end}}
{{if eq .Content "dashboard"}}{{template "dashboard" .}}{{else if eq .Content "form"}}{{template "form" .}}{{else}}{{template "preview" .}}{{end}}
</main>
</body>
</html>`

const dashboardHTML = `<section class="card" id="dashboard">
<h2>Welcome</h2>
<p>Create professional invoices for physiotherapy sessions with the clinic letterhead, signature and watermark embedded.</p>
<form method="post" action="/invoices/new"><button type="submit">Create New Invoice</button></form>
</section>
<section class="card">
<div class="grid">
<div><strong>Patient details</strong><p>Name, age, sex, phone and the treatment given.</p></div>
<div><strong>Session rows</strong><p>Add, edit and remove sessions; totals update on every save.</p></div>
<div><strong>Print ready</strong><p>Download as HTML, or as PDF when the browser sidecar is running.</p></div>
</div>
</section>`

const formHTML = `<form method="post" action="/form" class="card" id="invoice-form">
<button type="submit" name="action" value="preview" tabindex="-1" aria-hidden="true" style="position:absolute;left:-9999px"></button>
<h2>Invoice Details</h2>
<div class="grid">
<div><label for="invoice_no">Invoice No</label><input id="invoice_no" name="invoice_no" value="{{.Form.InvoiceNo}}">{{with index .Errors "invoice_no"}}<div class="field-error" data-field="invoice_no">{{.}}</div>{{end}}</div>
<div><label for="invoice_date">Invoice Date</label><input type="date" id="invoice_date" name="invoice_date" value="{{.Form.InvoiceDate}}">{{with index .Errors "invoice_date"}}<div class="field-error" data-field="invoice_date">{{.}}</div>{{end}}</div>
</div>
<h2>Patient Details</h2>
<div class="grid">
<div><label for="patient_name">Patient Name *</label><input id="patient_name" name="patient_name" value="{{.Form.PatientName}}">{{with index .Errors "patient_name"}}<div class="field-error" data-field="patient_name">{{.}}</div>{{end}}</div>
<div><label for="patient_age">Age *</label><input id="patient_age" name="patient_age" value="{{.Form.PatientAge}}">{{with index .Errors "patient_age"}}<div class="field-error" data-field="patient_age">{{.}}</div>{{end}}</div>
<div><label for="patient_sex">Sex</label><select id="patient_sex" name="patient_sex">{{$sex := .Form.PatientSex}}{{range .Sexes}}<option value="{{.}}"{{if eq (print .) $sex}} selected{{end}}>{{.}}</option>{{end}}</select>{{with index .Errors "patient_sex"}}<div class="field-error" data-field="patient_sex">{{.}}</div>{{end}}</div>
<div><label for="patient_phone">Phone</label><input id="patient_phone" name="patient_phone" value="{{.Form.PatientPhone}}"></div>
</div>
<div class="grid" style="margin-top:14px">
<div><label for="problem_desc">Problem Description</label><textarea id="problem_desc" name="problem_desc" placeholder="General consultation">{{.Form.ProblemDesc}}</textarea></div>
<div><label for="treatment_notes">Treatment Notes</label><textarea id="treatment_notes" name="treatment_notes" placeholder="As per treatment plan">{{.Form.TreatmentNotes}}</textarea></div>
</div>
<div class="grid" style="margin-top:14px">
<div><label for="treatment_mode">Mode of Treatment</label><select id="treatment_mode" name="treatment_mode">{{$mode := .Form.TreatmentMode}}{{range .Modes}}<option value="{{.}}"{{if eq (print .) $mode}} selected{{end}}>{{.}}</option>{{end}}</select>{{with index .Errors "treatment_mode"}}<div class="field-error" data-field="treatment_mode">{{.}}</div>{{end}}</div>
<div><label for="session_start_date">Session Start</label><input type="date" id="session_start_date" name="session_start_date" value="{{.Form.SessionStart}}">{{with index .Errors "session_start_date"}}<div class="field-error" data-field="session_start_date">{{.}}</div>{{end}}</div>
<div><label for="session_end_date">Session End</label><input type="date" id="session_end_date" name="session_end_date" value="{{.Form.SessionEnd}}">{{with index .Errors "session_end_date"}}<div class="field-error" data-field="session_end_date">{{.}}</div>{{end}}</div>
</div>
<h2>Sessions</h2>
{{with index .Errors "items"}}<div class="field-error" data-field="items">{{.}}</div>{{end}}
<table id="items">
<thead><tr><th>S.No</th><th>Description</th><th>Quantity</th><th>Per Session (₹)</th><th>Line Total</th><th></th></tr></thead>
<tbody>
{{$errs := .Errors}}{{range .Items}}<tr class="item-row">
<td>{{inc .Index}}</td>
<td><input name="item_description" value="{{.Description}}"></td>
<td><input type="number" min="1" name="item_quantity" value="{{.Quantity}}">{{with itemErr $errs .Index "quantity"}}<div class="field-error">{{.}}</div>{{end}}</td>
<td><input type="number" min="0" step="0.01" name="item_unit_cost" value="{{.UnitCost}}">{{with itemErr $errs .Index "unit_cost"}}<div class="field-error">{{.}}</div>{{end}}</td>
<td class="line-total">{{.LineTotal}}</td>
<td><button type="submit" class="danger" formaction="/form?action=remove_item&amp;index={{.Index}}">Remove</button></td>
</tr>{{end}}
</tbody>
</table>
<p><strong>Running total: <span id="running-total">{{.RunningTotal}}</span></strong></p>
<div class="actions">
<button type="submit" name="action" value="add_item" class="secondary">Add Session</button>
<button type="submit" name="action" value="preview">Generate Invoice</button>
<button type="submit" name="action" value="back" class="secondary">Back</button>
</div>
</form>`

const previewHTML = `<section class="card" id="summary">
<div class="grid">
<div class="metric"><div class="value">{{.Doc.PatientName}}</div><div class="label">Patient</div></div>
<div class="metric"><div class="value">{{.Doc.InvoiceNo}}</div><div class="label">Invoice No</div></div>
<div class="metric"><div class="value">{{.Doc.ItemCount}}</div><div class="label">Sessions</div></div>
<div class="metric"><div class="value" id="total">{{.Doc.TotalDisplay}}</div><div class="label">Total</div></div>
</div>
</section>
<section class="card">
<div class="actions">
<a class="button" href="/invoice/download.html">Download HTML</a>
{{if .PDFEnabled}}<a class="button" href="/invoice/download.pdf">Download PDF</a>{{else}}<span>PDF export is off. Open the HTML invoice and use your browser's Print to PDF (A4).</span>{{end}}
<form method="post" action="/back"><button type="submit" class="secondary">Edit Invoice</button></form>
<form method="post" action="/invoices/new"><button type="submit" class="secondary">New Invoice</button></form>
</div>
{{if .EmailEnabled}}<form method="post" action="/invoice/email" class="actions" style="margin-top:14px">
<input type="email" name="email" placeholder="patient@example.com" style="max-width:320px" required>
<button type="submit">Email Invoice</button>
</form>{{end}}
</section>
<section class="card">
<iframe class="preview" src="/invoice/preview" title="{{.Doc.HTMLFilename}}"></iframe>
</section>`
