package compliance

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/gst-assistant/internal/scanning"
)

var _ = Describe("BoltDB", func() {
	var (
		db   *BoltDB
		base time.Time
	)

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
		base = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newRecord := func(id string, at time.Time) *Record {
		return &Record{
			ID:         id,
			VendorName: "Vendor " + id,
			Amount:     decimal.RequireFromString("1180.50"),
			Status:     scanning.StatusSafe,
			GSTIN:      "27AAAPS1234A1Z5",
			CreatedAt:  at,
		}
	}

	Describe("SaveRecord", func() {
		It("stores the record", func() {
			Expect(db.SaveRecord(newRecord("a", base))).To(Succeed())

			saved, err := db.GetRecord("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.VendorName).To(Equal("Vendor a"))
			Expect(saved.Amount.Equal(decimal.RequireFromString("1180.5"))).To(BeTrue())
			Expect(saved.CreatedAt.Equal(base)).To(BeTrue())
		})

		It("replaces an existing record", func() {
			r := newRecord("a", base)
			Expect(db.SaveRecord(r)).To(Succeed())
			r.Status = scanning.StatusFailed
			Expect(db.SaveRecord(r)).To(Succeed())

			saved, err := db.GetRecord("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Status).To(Equal(scanning.StatusFailed))
		})

		It("requires an ID", func() {
			Expect(db.SaveRecord(newRecord("", base))).To(MatchError("record ID is required"))
		})
	})

	Describe("GetRecord", func() {
		It("returns ErrNotFound for unknown IDs", func() {
			_, err := db.GetRecord("nonexistent")
			Expect(err).To(MatchError(ErrNotFound))
			Expect(err).To(MatchError(ContainSubstring("nonexistent")))
		})
	})

	Describe("ListRecords", func() {
		When("the database is empty", func() {
			It("returns an empty list", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			})
		})

		When("records were created at different times", func() {
			BeforeEach(func() {
				Expect(db.SaveRecord(newRecord("a", base.Add(2*time.Hour)))).To(Succeed())
				Expect(db.SaveRecord(newRecord("b", base))).To(Succeed())
				Expect(db.SaveRecord(newRecord("c", base.Add(time.Hour)))).To(Succeed())
			})

			It("returns the most recent first", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, len(records))
				for i, r := range records {
					ids[i] = r.ID
				}
				Expect(ids).To(Equal([]string{"a", "c", "b"}))
			})
		})

		When("records share a timestamp", func() {
			BeforeEach(func() {
				Expect(db.SaveRecord(newRecord("a", base))).To(Succeed())
				Expect(db.SaveRecord(newRecord("b", base))).To(Succeed())
			})

			It("returns them in reverse key order", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records[0].ID).To(Equal("b"))
				Expect(records[1].ID).To(Equal("a"))
			})
		})
	})

	Describe("DeleteRecord", func() {
		It("removes the record", func() {
			Expect(db.SaveRecord(newRecord("a", base))).To(Succeed())
			Expect(db.DeleteRecord("a")).To(Succeed())

			_, err := db.GetRecord("a")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("reports unknown IDs", func() {
			Expect(db.DeleteRecord("missing")).To(MatchError(ErrNotFound))
		})
	})
})
