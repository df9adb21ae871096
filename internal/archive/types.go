package archive

import "time"

// InvoiceRecord is one rendered invoice document to archive.
type InvoiceRecord struct {
	Filename     string    `json:"filename"`
	Format       string    `json:"format"` // html|pdf
	ContentType  string    `json:"content_type"`
	Body         []byte    `json:"-"`
	InvoiceNo    string    `json:"invoice_no"`
	InvoiceDate  string    `json:"invoice_date"` // YYYY-MM-DD
	PatientName  string    `json:"-"`
	PatientPhone string    `json:"-"`
	Total        string    `json:"total"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// ManifestEntry is one JSONL line in the monthly manifest file. Patient
// details are only stored hashed.
type ManifestEntry struct {
	InvoiceNo   string `json:"invoice_no"`
	S3Key       string `json:"s3_key"`
	Filename    string `json:"filename"`
	Format      string `json:"format"`
	InvoiceDate string `json:"invoice_date"`
	Total       string `json:"total"`
	PatientHash string `json:"patient_hash"`
	PhoneMasked string `json:"phone_masked,omitempty"`
	Bytes       int    `json:"bytes"`
	ArchivedAt  string `json:"archived_at"`
}
