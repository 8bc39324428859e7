package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultFastRouterURL is the OpenAI-compatible FastRouter endpoint
	DefaultFastRouterURL = "https://go.fastrouter.ai/api/v1"
	// DefaultFastRouterModel is the model routed to when none is configured
	DefaultFastRouterModel = "anthropic/claude-sonnet-4-20250514"
)

// FastRouter implements Model against FastRouter's OpenAI-compatible API
type FastRouter struct {
	apiKey    string
	model     string
	maxTokens int
	client    *openai.Client
}

// NewFastRouter creates a FastRouter client. A missing API key is not an
// error here; it is reported by Ready so callers can fail before any I/O.
func NewFastRouter(cfg Config) *FastRouter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultFastRouterURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultFastRouterModel
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = baseURL

	return &FastRouter{
		apiKey:    cfg.APIKey,
		model:     modelName,
		maxTokens: maxTokens(cfg.MaxTokens),
		client:    openai.NewClientWithConfig(config),
	}
}

// Name returns the provider name
func (f *FastRouter) Name() string {
	return "FastRouter"
}

// Ready fails when no API key is configured
func (f *FastRouter) Ready() error {
	if f.apiKey == "" {
		return &MissingKeyError{Provider: f.Name()}
	}
	return nil
}

// Complete sends one chat completion request
func (f *FastRouter) Complete(ctx context.Context, req Request) (string, error) {
	if err := f.Ready(); err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, userMessage(req))

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     f.model,
		Messages:  messages,
		MaxTokens: f.maxTokens,
	})
	if err != nil {
		return "", unwrapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// userMessage builds the user turn, switching to multi-part content when an
// image is attached
func userMessage(req Request) openai.ChatCompletionMessage {
	if req.Image == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		}
	}

	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: req.Prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: dataURL(req.Image),
				},
			},
		},
	}
}

func dataURL(img *Image) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, img.Base64)
}

// unwrapAPIError surfaces the provider's own message so it can be passed
// through to callers unchanged
func unwrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s (status %d)", apiErr.Message, apiErr.HTTPStatusCode)
	}
	return err
}

// Close is a no-op; the HTTP client holds no resources that need releasing
func (f *FastRouter) Close() error {
	return nil
}
