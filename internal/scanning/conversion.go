package scanning

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// DefaultMIMEType is assumed when the caller does not say what the image is
const DefaultMIMEType = "image/jpeg"

// passthroughTypes are formats every supported vision endpoint accepts as-is
var passthroughTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// pdfToImage renders the first page of a PDF as PNG
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Invoices are almost always single page
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts HEIC or any registered image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported image format %q. Supported formats: JPEG, PNG, GIF, WebP, HEIC, HEIF, PDF: %w", mimeType, err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// sniffHEIC decodes only the leading bytes of a base64 payload; phones
// sometimes label HEIC photos as JPEG
func sniffHEIC(payload string) bool {
	if len(payload) < 16 {
		return false
	}
	head, err := base64.StdEncoding.DecodeString(payload[:16])
	if err != nil {
		return false
	}
	return isHEICFormat(head)
}

// NormalizeMIMEType lowercases and trims a content type, defaulting to JPEG
func NormalizeMIMEType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		return DefaultMIMEType
	}
	return mimeType
}

// PrepareImage makes a base64 image payload acceptable to a vision model.
// JPEG, PNG, GIF and WebP are returned untouched; PDF and HEIC/HEIF are
// converted to PNG. It returns the payload and MIME type to send and whether
// a conversion happened.
func PrepareImage(payload string, contentType string) (string, string, bool, error) {
	mimeType := NormalizeMIMEType(contentType)

	if passthroughTypes[mimeType] && !sniffHEIC(payload) {
		return payload, mimeType, false, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", false, fmt.Errorf("decoding image payload: %w", err)
	}

	var pngData []byte
	if mimeType == "application/pdf" {
		pngData, err = pdfToImage(data)
		if err != nil {
			return "", "", false, fmt.Errorf("converting PDF to image: %w", err)
		}
	} else {
		pngData, err = imageToPNG(data, mimeType)
		if err != nil {
			return "", "", false, fmt.Errorf("converting image to PNG: %w", err)
		}
	}

	return base64.StdEncoding.EncodeToString(pngData), "image/png", true, nil
}
