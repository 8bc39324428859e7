package assistant

import (
	"context"
	"errors"
	"log/slog"

	"github.com/zombor/gst-assistant/internal/llm"
	"github.com/zombor/gst-assistant/internal/scanning"
)

const (
	// ParseFailedMessage is reported when the model's answer is not a JSON object
	ParseFailedMessage = "Failed to parse receipt data"
	// NoAnalysisMessage is reported when the model answers with no content
	NoAnalysisMessage = "No analysis returned"
)

// AnalyzeReceipt extracts GST invoice fields from a base64 image. An empty
// mimeType means JPEG. PDF and HEIC inputs are converted to PNG first.
func (s *Service) AnalyzeReceipt(ctx context.Context, base64Image, mimeType string) (*scanning.Receipt, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	payload, sendType, converted, err := scanning.PrepareImage(base64Image, mimeType)
	if err != nil {
		slog.Error("Failed to prepare image", "content_type", mimeType, "error", err)
		return nil, newError(KindInput, err)
	}
	if converted {
		slog.Info("Converted image for analysis", "from", mimeType, "to", sendType)
	}

	content, err := s.model.Complete(ctx, llm.Request{
		Prompt: scanning.ExtractionPrompt,
		Image:  &llm.Image{Base64: payload, MIMEType: sendType},
	})
	if err != nil {
		slog.Error("Receipt analysis failed", "provider", s.model.Name(), "error", err)
		return nil, newError(KindTransport, err)
	}
	if content == "" {
		return nil, newError(KindTransport, errors.New(NoAnalysisMessage))
	}

	raw, err := scanning.ParseExtraction(content)
	if err != nil {
		slog.Error("Failed to parse receipt JSON", "content", content, "error", err)
		return nil, &Error{Kind: KindParse, Message: ParseFailedMessage, Err: err}
	}

	return scanning.Normalize(raw), nil
}
