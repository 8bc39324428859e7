package assistant

import (
	"github.com/zombor/gst-assistant/internal/compliance"
	"github.com/zombor/gst-assistant/internal/llm"
)

// Service answers chat questions about the business's GST position and
// reads invoices. It keeps no state between calls.
type Service struct {
	model  llm.Model
	source compliance.Source
}

// NewService creates a Service. A nil source gives the chat an empty context.
func NewService(model llm.Model, source compliance.Source) *Service {
	return &Service{model: model, source: source}
}

func (s *Service) ready() error {
	if err := s.model.Ready(); err != nil {
		return newError(KindConfiguration, err)
	}
	return nil
}
