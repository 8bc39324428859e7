package compliance

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("writes the file and returns its name", func() {
			name, err := storage.Save("invoice.jpg", []byte("pixels"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("invoice.jpg"))
			Expect(filepath.Join(tmpDir, "invoice.jpg")).To(BeAnExistingFile())
		})

		It("keeps writes inside the base directory", func() {
			name, err := storage.Save("../../escape.jpg", []byte("pixels"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("escape.jpg"))
			Expect(filepath.Join(tmpDir, "escape.jpg")).To(BeAnExistingFile())
		})

		It("rejects names with no file component", func() {
			_, err := storage.Save("..", []byte("pixels"))
			Expect(err).To(MatchError(ContainSubstring("invalid file name")))
		})
	})

	Describe("Get", func() {
		It("returns saved data", func() {
			_, err := storage.Save("invoice.jpg", []byte("pixels"))
			Expect(err).NotTo(HaveOccurred())

			data, err := storage.Get("invoice.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("pixels"))
		})

		It("returns an error for missing files", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(MatchError(ContainSubstring("reading file")))
		})
	})

	Describe("Delete", func() {
		It("removes the file", func() {
			_, err := storage.Save("invoice.jpg", []byte("pixels"))
			Expect(err).NotTo(HaveOccurred())

			Expect(storage.Delete("invoice.jpg")).To(Succeed())
			_, statErr := os.Stat(filepath.Join(tmpDir, "invoice.jpg"))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})

		It("returns an error for missing files", func() {
			Expect(storage.Delete("missing.jpg")).To(MatchError(ContainSubstring("deleting file")))
		})
	})
})
