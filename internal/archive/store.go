package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/pal-invoice-generator/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives downloaded invoice documents to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ObjectKey is where a document archived at t is stored.
func ObjectKey(t time.Time, filename string) string {
	return fmt.Sprintf("invoices/v1/by-date/%d/%02d/%02d/%s",
		t.Year(), t.Month(), t.Day(), path.Base(filename))
}

// ManifestKey is the monthly manifest for documents archived at t.
func ManifestKey(t time.Time) string {
	return fmt.Sprintf("invoices/v1/manifests/%d-%02d.jsonl", t.Year(), t.Month())
}

// ArchiveInvoice writes the document to S3 and appends to the manifest. It
// returns the object key, or "" when archiving is disabled.
func (s *Store) ArchiveInvoice(ctx context.Context, rec InvoiceRecord) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if rec.Filename == "" || len(rec.Body) == 0 {
		return "", errors.New("archive: filename and body are required")
	}

	now := rec.ArchivedAt
	if now.IsZero() {
		now = s.now().UTC()
	}
	contentType := rec.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}

	key := ObjectKey(now, rec.Filename)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(rec.Body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"invoice-no":   rec.InvoiceNo,
			"invoice-date": rec.InvoiceDate,
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived invoice to S3",
		"invoice_no", rec.InvoiceNo,
		"s3_key", key,
		"format", rec.Format,
		"bytes", len(rec.Body),
	)

	entry := ManifestEntry{
		InvoiceNo:   rec.InvoiceNo,
		S3Key:       key,
		Filename:    path.Base(rec.Filename),
		Format:      rec.Format,
		InvoiceDate: rec.InvoiceDate,
		Total:       rec.Total,
		PatientHash: HashPatient(rec.PatientName, rec.PatientPhone),
		PhoneMasked: MaskPhone(rec.PatientPhone),
		Bytes:       len(rec.Body),
		ArchivedAt:  now.Format(time.RFC3339),
	}

	if err := s.appendManifest(ctx, ManifestKey(now), entry); err != nil {
		// the document itself is already stored
		s.logger.Warn("failed to append manifest", "error", err, "invoice_no", rec.InvoiceNo)
	}

	return key, nil
}

// AppendManifest appends a JSONL line to the current month's manifest.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}
	return s.appendManifest(ctx, ManifestKey(s.now().UTC()), entry)
}

// appendManifest does a read-modify-write since S3 doesn't support append.
func (s *Store) appendManifest(ctx context.Context, manifestKey string, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	if err != nil {
		if !isNotFoundErr(err) {
			return fmt.Errorf("archive: s3 get manifest: %w", err)
		}
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	} else {
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}

	return nil
}

// isNotFoundErr reports whether err means the object does not exist yet.
func isNotFoundErr(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "StatusCode: 404") || strings.Contains(msg, "not found")
}
