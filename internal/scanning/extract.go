package scanning

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotObject is returned when the model answers with valid JSON that is not an object
var ErrNotObject = errors.New("extraction is not a JSON object")

// StripCodeFences removes Markdown code fence markers wherever they appear
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseExtraction decodes model output into a raw extraction. Numbers are
// kept as json.Number so long invoice numbers survive intact.
func ParseExtraction(text string) (Extraction, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(StripCodeFences(text))))
	dec.UseNumber()

	var raw Extraction
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshaling json: unexpected data after object")
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	return raw, nil
}
