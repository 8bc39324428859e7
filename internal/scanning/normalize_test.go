package scanning

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PickFirst", func() {
	It("prefers candidates in order", func() {
		v, ok := PickFirst(Extraction{"total": "5", "grand_total": "9"}, "grand_total", "total")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("9"))
	})

	It("matches keys regardless of case and spacing", func() {
		v, ok := PickFirst(Extraction{"GST  Number": "27ABCDE1234F1Z5"}, "gstin", "gst_number")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("27ABCDE1234F1Z5"))
	})

	It("skips null values", func() {
		v, ok := PickFirst(Extraction{"gstin": nil, "gstin_no": "X"}, "gstin", "gstin_no")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("X"))
	})

	It("returns falsy values that are present", func() {
		v, ok := PickFirst(Extraction{"cess": json.Number("0")}, "cess_amount", "cess")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(json.Number("0")))
	})

	It("reports no match", func() {
		v, ok := PickFirst(Extraction{"other": 1.0}, "gstin")
		Expect(ok).To(BeFalse())
		Expect(v).To(BeNil())
	})

	It("prefers an exact key over a normalized one", func() {
		v, _ := PickFirst(Extraction{"GSTIN": "upper", "gstin": "exact"}, "gstin")
		Expect(v).To(Equal("exact"))
	})
})

var _ = Describe("Normalize", func() {
	var (
		raw     Extraction
		receipt *Receipt
	)

	JustBeforeEach(func() {
		receipt = Normalize(raw)
	})

	When("keys use synonyms and odd casing", func() {
		BeforeEach(func() {
			raw = Extraction{
				"Vendor Name": "Acme",
				"gstin":       "27ABCDE1234F1Z5",
				"total":       "1200.50",
			}
		})

		It("resolves each field", func() {
			Expect(receipt.VendorName).To(Equal("Acme"))
			Expect(receipt.GSTIN).To(Equal("27ABCDE1234F1Z5"))
			Expect(receipt.TotalAmount).To(Equal(1200.5))
		})

		It("derives Safe from the gstin", func() {
			Expect(receipt.Status).To(Equal(StatusSafe))
		})

		It("leaves the optional strings null", func() {
			Expect(receipt.InvoiceNumber).To(BeNil())
			Expect(receipt.PlaceOfSupply).To(BeNil())
		})

		It("zeroes the missing amounts", func() {
			Expect(receipt.TaxableValue).To(BeZero())
			Expect(receipt.CGSTAmount).To(BeZero())
			Expect(receipt.SGSTAmount).To(BeZero())
			Expect(receipt.IGSTAmount).To(BeZero())
			Expect(receipt.CessAmount).To(BeZero())
		})

		It("serializes nulls for the optional strings", func() {
			out, err := json.Marshal(receipt)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchJSON(`{
				"vendor_name": "Acme",
				"gstin": "27ABCDE1234F1Z5",
				"invoice_date": "",
				"total_amount": 1200.5,
				"status": "Safe",
				"invoice_number": null,
				"place_of_supply": null,
				"taxable_value": 0,
				"cgst_amount": 0,
				"sgst_amount": 0,
				"igst_amount": 0,
				"cess_amount": 0
			}`))
		})
	})

	When("the extraction is empty", func() {
		BeforeEach(func() {
			raw = Extraction{}
		})

		It("produces a well-typed receipt", func() {
			Expect(*receipt).To(Equal(Receipt{Status: StatusFailed}))
		})
	})

	When("the model fills every field", func() {
		BeforeEach(func() {
			var err error
			raw, err = ParseExtraction(`{
				"vendor_name": " Sharma Traders ",
				"gstin": "27AAAPS1234A1Z5",
				"invoice_date": "2025-01-15",
				"total_amount": 1180,
				"status": "Safe",
				"invoice_number": 4521,
				"place_of_supply": "Maharashtra",
				"taxable_value": "1,000",
				"cgst_amount": 90,
				"sgst_amount": "90.00",
				"igst_amount": 0,
				"cess_amount": null
			}`)
			Expect(err).NotTo(HaveOccurred())
		})

		It("trims strings", func() {
			Expect(receipt.VendorName).To(Equal("Sharma Traders"))
		})

		It("stringifies a numeric invoice number", func() {
			Expect(receipt.InvoiceNumber).To(HaveValue(Equal("4521")))
			Expect(receipt.PlaceOfSupply).To(HaveValue(Equal("Maharashtra")))
		})

		It("coerces numbers and numeric strings", func() {
			Expect(receipt.TotalAmount).To(Equal(1180.0))
			Expect(receipt.CGSTAmount).To(Equal(90.0))
			Expect(receipt.SGSTAmount).To(Equal(90.0))
		})

		It("zeroes values that do not parse", func() {
			Expect(receipt.TaxableValue).To(BeZero())
			Expect(receipt.CessAmount).To(BeZero())
		})
	})

	Describe("status", func() {
		It("passes Failed through even with a gstin", func() {
			Expect(Normalize(Extraction{"status": "Failed", "gstin": "X"}).Status).To(Equal(StatusFailed))
		})

		It("ignores unknown values and falls back to the gstin", func() {
			Expect(Normalize(Extraction{"status": "safe", "gstin": "X"}).Status).To(Equal(StatusSafe))
			Expect(Normalize(Extraction{"status": "Pending"}).Status).To(Equal(StatusFailed))
		})

		It("treats an empty gstin as missing", func() {
			Expect(Normalize(Extraction{"gstin": ""}).Status).To(Equal(StatusFailed))
		})

		It("only consults the exact gstin key", func() {
			r := Normalize(Extraction{"GST Number": "X"})
			Expect(r.GSTIN).To(Equal("X"))
			Expect(r.Status).To(Equal(StatusFailed))
		})
	})

	When("a required string is blank", func() {
		BeforeEach(func() {
			raw = Extraction{"vendor_name": "   ", "invoice_date": 20250115.0}
		})

		It("falls back to the raw string", func() {
			Expect(receipt.VendorName).To(Equal("   "))
		})

		It("renders numbers as text", func() {
			Expect(receipt.InvoiceDate).To(Equal("20250115"))
		})
	})

	When("amounts are booleans or objects", func() {
		BeforeEach(func() {
			raw = Extraction{"total": true, "cgst": map[string]any{"value": 9.0}}
		})

		It("coerces them", func() {
			Expect(receipt.TotalAmount).To(Equal(1.0))
			Expect(receipt.CGSTAmount).To(BeZero())
		})
	})
})
