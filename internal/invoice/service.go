package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotConfirmed is returned when a document is requested before review
var ErrNotConfirmed = errors.New("no data to generate the invoice")

// TextSource turns an uploaded image into raw OCR text. Implementations
// never fail: an unreadable image yields "".
type TextSource interface {
	ExtractTextFromBytes(ctx context.Context, data []byte, contentType string) string
}

// IDGenerator generates unique IDs for invoices
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles invoice operations
type Service struct {
	db          DB
	text        TextSource
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID ids and the wall clock
func NewService(db DB, text TextSource, storage Storage) *Service {
	return NewServiceWithDeps(db, text, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, text TextSource, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		text:        text,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
	safeExtension       = regexp.MustCompile(`^\.[a-z0-9]+$`)
)

// sanitizeFilename removes special characters and truncates long phone-generated names
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "invoice"
	}
	if ext != "" && !safeExtension.MatchString(ext) {
		ext = ""
	}

	return base + ext
}

// ProcessInvoice stores an uploaded image, OCRs it and parses the text.
// An unreadable image still produces an invoice with the default record.
func (s *Service) ProcessInvoice(ctx context.Context, filename string, data []byte, contentType string) (*Invoice, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	rawText := s.text.ExtractTextFromBytes(ctx, data, contentType)
	record := Parse(rawText)
	if record.IsEmpty() {
		slog.Warn("No invoice fields recognized", "id", id, "filename", filename, "text_length", len(rawText))
	}

	invoice := &Invoice{
		ID:          id,
		Filename:    savedName,
		ContentType: contentType,
		RawText:     rawText,
		Extracted:   record,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveInvoice(invoice); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedName)
		return nil, fmt.Errorf("saving invoice to database: %w", err)
	}

	slog.Info("Processed invoice", "id", id, "vendor", record.Vendor, "items", len(record.Items), "total", record.Total)
	return invoice, nil
}

// ParseText parses raw text directly, without an upload
func (s *Service) ParseText(rawText string) Record {
	return Parse(rawText)
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id string) (*Invoice, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoices returns all invoices, newest first
func (s *Service) ListInvoices() ([]*Invoice, error) {
	invoices, err := s.db.ListInvoices()
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

// DeleteInvoice removes an invoice and its file
func (s *Service) DeleteInvoice(id string) error {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return fmt.Errorf("getting invoice for deletion: %w", err)
	}

	if err := s.storage.Delete(invoice.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", invoice.Filename, "error", err)
	}

	if err := s.db.DeleteInvoice(id); err != nil {
		return fmt.Errorf("deleting invoice from database: %w", err)
	}
	return nil
}

// GetInvoiceFile retrieves the uploaded file for an invoice
func (s *Service) GetInvoiceFile(id string) ([]byte, string, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice: %w", err)
	}

	data, err := s.storage.Get(invoice.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice file: %w", err)
	}

	return data, invoice.ContentType, nil
}

// ConfirmInvoice stores the reviewed data as a new confirmed record.
// The extracted record is kept as it was.
func (s *Service) ConfirmInvoice(id string, req ConfirmRequest) (*Invoice, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	confirmed, err := req.Record()
	if err != nil {
		return nil, err
	}

	invoice.Confirmed = &confirmed
	invoice.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveInvoice(invoice); err != nil {
		return nil, fmt.Errorf("saving confirmed invoice: %w", err)
	}
	return invoice, nil
}

// RenderInvoice renders the confirmed record as an invoice document
func (s *Service) RenderInvoice(id string) ([]byte, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	if invoice.Confirmed == nil {
		return nil, fmt.Errorf("%w: invoice %s has not been confirmed", ErrNotConfirmed, id)
	}

	doc, err := Render(*invoice.Confirmed, invoice.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("rendering invoice: %w", err)
	}
	return doc, nil
}
