package compliance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zombor/gst-assistant/internal/scanning"
)

// Record is a stored invoice with its compliance verdict
type Record struct {
	ID            string          `json:"id"`
	VendorName    string          `json:"vendor_name"`
	Amount        decimal.Decimal `json:"amount"` // Invoice total in rupees, tax included
	Status        scanning.Status `json:"status"`
	GSTIN         string          `json:"gstin"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	InvoiceDate   string          `json:"invoice_date,omitempty"`
	Filename      string          `json:"filename,omitempty"`
	ContentType   string          `json:"content_type,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Stats summarizes what is owed across all records
type Stats struct {
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	ITCAtRisk        decimal.Decimal `json:"itc_at_risk"`
	SafeToPay        decimal.Decimal `json:"safe_to_pay"`
}

// Source supplies the live compliance data a chat prompt is built from
type Source interface {
	GetStats(ctx context.Context) (Stats, error)
	// GetComplianceRecords returns records most recent first
	GetComplianceRecords(ctx context.Context) ([]Record, error)
}

// ComputeStats totals every record and splits the sum by status
func ComputeStats(records []Record) Stats {
	stats := Stats{
		TotalOutstanding: decimal.Zero,
		ITCAtRisk:        decimal.Zero,
		SafeToPay:        decimal.Zero,
	}
	for _, r := range records {
		stats.TotalOutstanding = stats.TotalOutstanding.Add(r.Amount)
		switch r.Status {
		case scanning.StatusFailed:
			stats.ITCAtRisk = stats.ITCAtRisk.Add(r.Amount)
		case scanning.StatusSafe:
			stats.SafeToPay = stats.SafeToPay.Add(r.Amount)
		}
	}
	return stats
}

// RecordFromReceipt builds a record from a normalized receipt
func RecordFromReceipt(id string, createdAt time.Time, r *scanning.Receipt) Record {
	record := Record{
		ID:          id,
		VendorName:  r.VendorName,
		Amount:      decimal.NewFromFloat(r.TotalAmount),
		Status:      r.Status,
		GSTIN:       r.GSTIN,
		InvoiceDate: r.InvoiceDate,
		CreatedAt:   createdAt,
	}
	if r.InvoiceNumber != nil {
		record.InvoiceNumber = *r.InvoiceNumber
	}
	return record
}
