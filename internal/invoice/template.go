package invoice

// invoiceHTML is the printable A4 invoice. Every image is inlined so the
// document renders offline.
const invoiceHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 0.5in; }
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Arial, sans-serif; background: white; color: #333; line-height: 1.4; font-size: 14px; }
.invoice-container { width: 100%; margin: 0 auto; background: white; position: relative; padding: 30px; min-height: 100vh; }
.watermark { position: fixed; top: 50%; left: 50%; transform: translate(-50%, -50%); z-index: 0; pointer-events: none; }
.invoice-content { position: relative; z-index: 1; }
.header { display: flex; justify-content: space-between; align-items: flex-start; margin-bottom: 20px; padding-bottom: 15px; border-bottom: 3px solid #30b392; }
.logo-section img { width: 300px; height: auto; object-fit: contain; }
.invoice-header { text-align: right; }
.invoice-title { font-size: 28px; font-weight: 700; color: #0a2a43; margin-bottom: 8px; }
.invoice-meta { font-size: 14px; color: #666; }
.invoice-number { color: #f39c12; font-weight: 600; font-size: 16px; }
.patient-clinic-row { display: flex; width: 100%; margin: 15px 0; }
.patient-section, .clinic-section { width: 50%; padding-right: 20px; }
.clinic-section { padding-right: 0; padding-left: 20px; }
.section-title { font-size: 14px; font-weight: 600; color: #0a2a43; margin-bottom: 8px; padding-bottom: 5px; border-bottom: 2px solid #30b392; }
.section-content p { margin: 3px 0; font-size: 14px; color: #333; line-height: 1.3; }
.section-content strong { font-weight: 600; }
.medical-details { background: #f8f9fa; border-left: 3px solid #30b392; padding: 12px; margin: 15px 0; border-radius: 0 4px 4px 0; }
.medical-details h4 { font-size: 14px; font-weight: 600; color: #0a2a43; margin-bottom: 6px; }
.medical-details p { font-size: 14px; color: #333; margin: 3px 0; line-height: 1.3; }
.sessions-section { margin: 15px 0; }
.sessions-title { font-size: 14px; font-weight: 600; color: #0a2a43; margin-bottom: 8px; border-bottom: 1px solid #30b392; padding-bottom: 5px; }
.session-dates { margin: 8px 0; font-size: 14px; color: #333; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th { background: #0a2a43; color: white; padding: 10px 8px; text-align: left; font-size: 14px; font-weight: 600; border: 1px solid #ddd; }
th:last-child { text-align: right; }
td { border: 1px solid #ddd; padding: 10px 8px; color: #333; font-size: 14px; }
td.qty { text-align: center; }
td.amount { text-align: right; }
td.line-total { text-align: right; font-weight: 600; }
.totals-section { margin: 15px 0; display: flex; justify-content: flex-end; }
.subtotal-box { width: 200px; padding: 8px; background: #f8f9fa; border-radius: 4px; font-size: 14px; color: #333; }
.subtotal-row { display: flex; justify-content: space-between; margin: 3px 0; }
.total-box { width: 200px; margin-top: 6px; padding: 10px; background: #27ae60; color: white; border-radius: 4px; display: flex; justify-content: space-between; align-items: center; font-size: 16px; font-weight: 600; }
.sales-tax { text-align: right; font-size: 12px; color: #666; margin: 8px 0; }
.signature-section { margin: 20px 0 15px; text-align: right; }
.signature-wrapper { display: inline-block; text-align: center; }
.signature-image { max-width: 150px; max-height: 60px; object-fit: contain; }
.signature-text { font-family: cursive; font-size: 24px; color: #333; margin-bottom: 5px; }
.signature-line { border-bottom: 1px solid #0a2a43; width: 200px; margin: 8px auto 4px; }
.signature-label { font-size: 12px; color: #666; font-weight: 500; }
.terms-section { margin-top: 40px; padding: 12px; background: #f8f9fa; border-radius: 4px; border: 1px solid #e0e0e0; page-break-before: always; page-break-inside: avoid; }
.terms-title { font-size: 12px; font-weight: 600; color: #0a2a43; margin-bottom: 6px; }
.terms-content { font-size: 10px; color: #666; line-height: 1.3; }
.terms-content li { margin: 3px 0; list-style-position: inside; }
@media print {
  body { margin: 0; -webkit-print-color-adjust: exact; print-color-adjust: exact; }
  .invoice-container { padding: 20px; min-height: auto; }
  .watermark { position: fixed !important; }
}
</style>
</head>
<body>
<div class="invoice-container">
<div class="watermark">
<img src="{{.WatermarkSrc}}" alt="" style="width: 400px; height: 400px; opacity: 0.05;">
</div>
<div class="invoice-content">
<div class="header">
<div class="logo-section">
<img src="{{.LogoSrc}}" alt="Clinic Logo">
</div>
<div class="invoice-header">
<div class="invoice-title">INVOICE</div>
<div class="invoice-meta">
Invoice number: <span class="invoice-number">{{.InvoiceNo}}</span><br>
Date: <strong>{{.InvoiceDate}}</strong>
</div>
</div>
</div>
<div class="patient-clinic-row">
<div class="patient-section">
<div class="section-title">Patient Details:</div>
<div class="section-content">
<p><strong>Name:</strong> {{.Patient.Name}}</p>
<p><strong>Age:</strong> {{.Patient.Age}}</p>
<p><strong>Sex:</strong> {{.Patient.Sex}}</p>
<p><strong>Phone:</strong> {{.Patient.Phone}}</p>
</div>
</div>
<div class="clinic-section">
<div class="section-title">Clinic Details:</div>
<div class="section-content">
<p><strong>{{.Clinic.Name}}</strong></p>
<p><strong>Phone:</strong> {{.Clinic.Phone}}</p>
<p><strong>Doctor:</strong> {{.Clinic.Doctor}}</p>
{{- with .Clinic.AddressLines}}
<p><strong>Address:</strong> {{range $i, $line := .}}{{if $i}}<br>
{{end}}{{$line}}{{end}}</p>
{{- end}}
{{- with .Clinic.Registration}}
<p><strong>Registration:</strong> {{.}}</p>
{{- end}}
</div>
</div>
</div>
<div class="medical-details">
<h4>Medical Details:</h4>
<p><strong>Problem Description:</strong><br>{{.Problem}}</p>
<p><strong>Treatment Notes:</strong><br>{{.Treatment}}</p>
{{- with .Patient.TreatmentMode}}
<p><strong>Mode of Treatment:</strong> {{.}}</p>
{{- end}}
</div>
<div class="sessions-section">
<div class="sessions-title">Session Details</div>
{{- if or .SessionStart .SessionEnd}}
<div class="session-dates">
{{- with .SessionStart}}
<strong>Session Start Date:</strong> {{.}}{{if $.SessionEnd}} | {{end}}
{{- end}}
{{- with .SessionEnd}}
<strong>Session End Date:</strong> {{.}}
{{- end}}
</div>
{{- end}}
<table>
<thead>
<tr>
<th style="width: 60px;">S.No</th>
<th>Description of Services</th>
<th style="width: 80px;">QTY</th>
<th style="width: 120px;">Per Session Cost</th>
<th style="width: 120px;">Total</th>
</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr style="background: {{.Background}};">
<td>{{.Number}}</td>
<td>{{.Description}}</td>
<td class="qty">{{.Quantity}}</td>
<td class="amount">{{.UnitCost}}</td>
<td class="line-total">{{.Total}}</td>
</tr>
{{- end}}
</tbody>
</table>
</div>
<div class="totals-section">
<div>
<div class="subtotal-box">
<div class="subtotal-row">
<span>Subtotal</span>
<span class="subtotal-amount">{{.Subtotal}}</span>
</div>
</div>
<div class="total-box">
<span>Total</span>
<span class="total-amount">{{.Total}}</span>
</div>
</div>
</div>
<p class="sales-tax">Sales Tax: <strong>Nil</strong></p>
<div class="signature-section">
<div class="signature-wrapper">
{{- if .SignatureSrc}}
<img src="{{.SignatureSrc}}" alt="Signature" class="signature-image">
{{- else}}
<div class="signature-text">{{.SignatureLabel}}</div>
{{- end}}
<div class="signature-line"></div>
<div class="signature-label">Authorized Signature</div>
</div>
</div>
{{- with .Clinic.Terms}}
<div class="terms-section">
<div class="terms-title">Terms &amp; Conditions</div>
<div class="terms-content">
<ol>
{{- range .}}
<li>{{.}}</li>
{{- end}}
</ol>
</div>
</div>
{{- end}}
</div>
</div>
</body>
</html>
`
