package scanning

// Status is the GST compliance verdict for an invoice
type Status string

const (
	// StatusSafe means the vendor GSTIN is present and input tax credit can be claimed
	StatusSafe Status = "Safe"
	// StatusFailed means the invoice puts input tax credit at risk
	StatusFailed Status = "Failed"
)

// Extraction is the untyped object a model returns for a receipt. Keys vary
// in casing, spacing and naming between calls.
type Extraction map[string]any

// Receipt is the fixed-shape record every extraction is normalized into
type Receipt struct {
	VendorName    string  `json:"vendor_name"`
	GSTIN         string  `json:"gstin"`
	InvoiceDate   string  `json:"invoice_date"`
	TotalAmount   float64 `json:"total_amount"`
	Status        Status  `json:"status"`
	InvoiceNumber *string `json:"invoice_number"`
	PlaceOfSupply *string `json:"place_of_supply"`
	TaxableValue  float64 `json:"taxable_value"`
	CGSTAmount    float64 `json:"cgst_amount"`
	SGSTAmount    float64 `json:"sgst_amount"`
	IGSTAmount    float64 `json:"igst_amount"`
	CessAmount    float64 `json:"cess_amount"`
}
