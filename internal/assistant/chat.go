package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/gst-assistant/internal/compliance"
	"github.com/zombor/gst-assistant/internal/llm"
)

// FallbackReply is returned when the model answers with no content
const FallbackReply = "I apologize, I couldn't generate a response."

// maxContextRecords caps how many invoices are put in the prompt
const maxContextRecords = 10

// BuildChatContext renders the system prompt for a chat turn
func BuildChatContext(stats compliance.Stats, records []compliance.Record) string {
	if len(records) > maxContextRecords {
		records = records[:maxContextRecords]
	}

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("- %s: ₹%s (%s) [GSTIN: %s]", r.VendorName, r.Amount.String(), r.Status, r.GSTIN)
	}

	prompt := fmt.Sprintf(`
You are an AI CFO assistant for Indian MSMEs using Khatabook.
Current Financial Status:
- Total Outstanding: ₹%s
- ITC at Risk: ₹%s
- Safe to Pay: ₹%s

Recent Invoices:
%s

INSTRUCTIONS:
1. Answer questions based on the above real-time data if relevant.
2. CRITICAL: Do NOT use any markdown formatting (no bold **, no headers #, no lists -).
3. Write completely plain text.
4. Keep answers concise and professional.
`, stats.TotalOutstanding.String(), stats.ITCAtRisk.String(), stats.SafeToPay.String(), strings.Join(lines, "\n"))

	return strings.TrimSpace(prompt)
}

// loadContext reads stats and records concurrently. A failed read is logged
// and leaves zero stats or no records in the prompt.
func (s *Service) loadContext(ctx context.Context) (compliance.Stats, []compliance.Record) {
	stats := compliance.Stats{}
	records := []compliance.Record{}
	if s.source == nil {
		return stats, records
	}

	var g errgroup.Group
	g.Go(func() error {
		loaded, err := s.source.GetStats(ctx)
		if err != nil {
			slog.Warn("Failed to load stats, using zero totals", "error", err)
			return nil
		}
		stats = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := s.source.GetComplianceRecords(ctx)
		if err != nil {
			slog.Warn("Failed to load compliance records, using none", "error", err)
			return nil
		}
		records = loaded
		return nil
	})
	_ = g.Wait()

	return stats, records
}

// Chat answers a user message with the current compliance data as context.
// The reply is plain text.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	stats, records := s.loadContext(ctx)

	slog.Debug("Sending chat", "provider", s.model.Name(), "records", len(records))

	reply, err := s.model.Complete(ctx, llm.Request{
		System: BuildChatContext(stats, records),
		Prompt: message,
	})
	if err != nil {
		slog.Error("Chat completion failed", "provider", s.model.Name(), "error", err)
		return "", newError(KindTransport, err)
	}

	if reply == "" {
		return FallbackReply, nil
	}
	return reply, nil
}
