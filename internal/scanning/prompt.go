package scanning

// ExtractionPrompt asks a vision model for the GST fields of an invoice as bare JSON
const ExtractionPrompt = `This image is an Indian GST invoice or bill. Analyze it and extract the following details.

WHERE TO FIND EACH FIELD:
- Invoice number: Look at the top of the invoice for "Invoice No.", "Bill No.", "Inv No.", or similar. Extract the full number or reference.
- Place of supply: Look for "Place of Supply", "POS", or state name/code (e.g. "Maharashtra", "27"). Use state name or code as found.
- Taxable value: Total value before GST, often in a tax summary or table (e.g. "Taxable Value", "Assessable Value").
- CGST / SGST: From the tax breakdown table. Use 0 if not present (e.g. inter-state supply uses IGST only).
- IGST: From the tax breakdown. Use 0 if not present (e.g. intra-state supply uses CGST+SGST only).
- CESS: From the tax breakdown. Use 0 if not present.

OUTPUT: Return a single JSON object with exactly these keys. Use raw JSON only (no markdown, no ` + "```json" + ` or surrounding text).
Keys: vendor_name, gstin, invoice_date, total_amount, status, invoice_number, place_of_supply, taxable_value, cgst_amount, sgst_amount, igst_amount, cess_amount.

RULES:
- vendor_name: string (seller/supplier name).
- gstin: string (vendor GSTIN, 15 chars if present).
- invoice_date: string in YYYY-MM-DD.
- total_amount: number (invoice total including tax).
- status: "Safe" if GSTIN is present and valid-looking, else "Failed".
- invoice_number: string or null if not found.
- place_of_supply: string (state name or code) or null if not found.
- taxable_value, cgst_amount, sgst_amount, igst_amount, cess_amount: numbers only; use 0 when missing or not applicable.`
