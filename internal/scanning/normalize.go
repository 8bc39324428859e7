package scanning

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Candidate keys per field, in precedence order
var (
	vendorNameKeys    = []string{"vendor_name", "vendor name", "seller_name", "supplier_name"}
	gstinKeys         = []string{"gstin", "gstin_no", "gst_number"}
	invoiceDateKeys   = []string{"invoice_date", "invoice date", "date", "inv_date"}
	totalAmountKeys   = []string{"total_amount", "total amount", "total", "grand_total", "amount"}
	invoiceNumberKeys = []string{"invoice_number", "invoice_no", "inv_no", "bill_no", "invoice no", "bill no"}
	placeOfSupplyKeys = []string{"place_of_supply", "pos", "place of supply"}
	taxableValueKeys  = []string{"taxable_value", "taxable value", "taxable_value_before_tax", "assessable_value"}
	cgstAmountKeys    = []string{"cgst_amount", "cgst", "cgst amount"}
	sgstAmountKeys    = []string{"sgst_amount", "sgst", "sgst amount"}
	igstAmountKeys    = []string{"igst_amount", "igst", "igst amount"}
	cessAmountKeys    = []string{"cess_amount", "cess", "cess amount"}
)

// normalizeKey lowercases a key and collapses whitespace runs to underscores
func normalizeKey(key string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToLower(key) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// keyIndex resolves candidate keys against one extraction
type keyIndex struct {
	raw        Extraction
	normalized map[string]any
}

func newKeyIndex(raw Extraction) *keyIndex {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Sorted so colliding keys ("GSTIN", "gstin ") resolve the same way every time
	sort.Strings(keys)

	normalized := make(map[string]any, len(raw))
	for _, k := range keys {
		v := raw[k]
		if v == nil {
			continue
		}
		nk := normalizeKey(k)
		if _, taken := normalized[nk]; !taken {
			normalized[nk] = v
		}
	}

	return &keyIndex{raw: raw, normalized: normalized}
}

// pick returns the first non-null value among the candidates. Each candidate
// is tried as an exact key, then through the normalized index, before moving
// on to the next one.
func (idx *keyIndex) pick(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := idx.raw[key]; ok && v != nil {
			return v, true
		}
		if v, ok := idx.normalized[normalizeKey(key)]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// PickFirst returns the first present, non-null value in raw for the given
// candidate keys. The boolean is false when no candidate matched, which is
// distinct from a match on a falsy value.
func PickFirst(raw Extraction, keys ...string) (any, bool) {
	return newKeyIndex(raw).pick(keys...)
}

// Normalize maps an extraction onto the fixed Receipt shape. It never fails:
// missing strings become empty or nil, missing or non-numeric amounts become 0.
func Normalize(raw Extraction) *Receipt {
	idx := newKeyIndex(raw)

	return &Receipt{
		VendorName:    stringWithFallback(raw, "vendor_name", idx, vendorNameKeys),
		GSTIN:         stringWithFallback(raw, "gstin", idx, gstinKeys),
		InvoiceDate:   stringWithFallback(raw, "invoice_date", idx, invoiceDateKeys),
		TotalAmount:   toNumber(idx.pick(totalAmountKeys...)),
		Status:        deriveStatus(raw),
		InvoiceNumber: optionalString(idx.pick(invoiceNumberKeys...)),
		PlaceOfSupply: optionalString(idx.pick(placeOfSupplyKeys...)),
		TaxableValue:  toNumber(idx.pick(taxableValueKeys...)),
		CGSTAmount:    toNumber(idx.pick(cgstAmountKeys...)),
		SGSTAmount:    toNumber(idx.pick(sgstAmountKeys...)),
		IGSTAmount:    toNumber(idx.pick(igstAmountKeys...)),
		CessAmount:    toNumber(idx.pick(cessAmountKeys...)),
	}
}

// stringWithFallback resolves a required string field. When lookup yields
// nothing usable the raw value under the canonical key is kept untrimmed if
// it is a string; otherwise the field is empty.
func stringWithFallback(raw Extraction, field string, idx *keyIndex, keys []string) string {
	if s := optionalString(idx.pick(keys...)); s != nil {
		return *s
	}
	if s, ok := raw[field].(string); ok {
		return s
	}
	return ""
}

// deriveStatus trusts the model's status only when it is one of the two
// known values; otherwise the raw gstin decides
func deriveStatus(raw Extraction) Status {
	if s, ok := raw["status"].(string); ok {
		switch Status(s) {
		case StatusSafe, StatusFailed:
			return Status(s)
		}
	}
	if truthy(raw["gstin"]) {
		return StatusSafe
	}
	return StatusFailed
}

func optionalString(v any, ok bool) *string {
	if !ok || v == nil {
		return nil
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return nil
	}
	return &s
}

// toNumber coerces numbers and numeric strings; anything else is 0
func toNumber(v any, ok bool) float64 {
	if !ok {
		return 0
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case bool:
		if t {
			f = 1
		}
	default:
		s := strings.TrimSpace(stringify(v))
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// stringify renders a decoded JSON value as text
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

// truthy reports whether a decoded JSON value counts as present
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	default:
		return true
	}
}
