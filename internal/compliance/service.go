package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/gst-assistant/internal/scanning"
)

// IDGenerator generates unique record IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator issues time-ordered UUIDs so bucket order follows insertion
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service manages stored invoices and answers the compliance queries the
// assistant needs
type Service struct {
	db          DB
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

var _ Source = (*Service)(nil)

// NewService creates a Service. storage may be nil, in which case images
// are not archived.
func NewService(db DB, storage Storage) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename strips the long, symbol-heavy names phones and scanners produce
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}

	return base + unsafeFilenameChars.ReplaceAllString(ext, "")
}

// Archive stores an analyzed invoice and, when storage is configured, the
// image it was read from
func (s *Service) Archive(ctx context.Context, filename string, data []byte, contentType string, receipt *scanning.Receipt) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := RecordFromReceipt(s.idGenerator.Generate(), s.timeSource.Now(), receipt)

	if s.storage != nil && len(data) > 0 {
		savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", record.ID, sanitizeFilename(filename)), data)
		if err != nil {
			return nil, fmt.Errorf("saving file: %w", err)
		}
		record.Filename = savedName
		record.ContentType = contentType
	}

	if err := s.db.SaveRecord(&record); err != nil {
		if record.Filename != "" {
			if delErr := s.storage.Delete(record.Filename); delErr != nil {
				slog.Warn("Failed to clean up file", "filename", record.Filename, "error", delErr)
			}
		}
		return nil, fmt.Errorf("saving record to database: %w", err)
	}

	slog.Info("Archived invoice",
		"id", record.ID,
		"vendor", record.VendorName,
		"status", record.Status,
	)
	return &record, nil
}

// GetRecord retrieves a record by ID
func (s *Service) GetRecord(id string) (*Record, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}
	return record, nil
}

// GetRecordFile returns the archived image for a record
func (s *Service) GetRecordFile(id string) ([]byte, string, error) {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting record: %w", err)
	}
	if s.storage == nil || record.Filename == "" {
		return nil, "", fmt.Errorf("no file archived for record %s", id)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting record file: %w", err)
	}
	return data, record.ContentType, nil
}

// DeleteRecord removes a record and its archived image
func (s *Service) DeleteRecord(id string) error {
	record, err := s.db.GetRecord(id)
	if err != nil {
		return fmt.Errorf("getting record for deletion: %w", err)
	}

	if s.storage != nil && record.Filename != "" {
		if err := s.storage.Delete(record.Filename); err != nil {
			// The record goes regardless
			slog.Warn("Failed to delete file", "filename", record.Filename, "error", err)
		}
	}

	if err := s.db.DeleteRecord(id); err != nil {
		return fmt.Errorf("deleting record from database: %w", err)
	}
	return nil
}

// GetComplianceRecords returns every stored record, most recent first
func (s *Service) GetComplianceRecords(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := s.db.ListRecords()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	records := make([]Record, len(stored))
	for i, r := range stored {
		records[i] = *r
	}
	return records, nil
}

// GetStats totals the stored records by status
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	records, err := s.GetComplianceRecords(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records), nil
}
