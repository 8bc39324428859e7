package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no Gemini model name is configured
const DefaultGeminiModel = "gemini-2.5-pro"

// Gemini implements Model using Google Gemini
type Gemini struct {
	client    *genai.Client
	modelName string
	maxTokens int
}

// NewGemini creates a new Gemini Model. With an empty API key no client is
// created and Ready reports the missing key.
func NewGemini(cfg Config) (*Gemini, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	g := &Gemini{
		modelName: modelName,
		maxTokens: maxTokens(cfg.MaxTokens),
	}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	g.client = client

	return g, nil
}

// Name returns the provider name
func (g *Gemini) Name() string {
	return "Gemini"
}

// Ready fails when the client could not be created for lack of a key
func (g *Gemini) Ready() error {
	if g.client == nil {
		return &MissingKeyError{Provider: g.Name()}
	}
	return nil
}

// Complete generates content for one request
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if err := g.Ready(); err != nil {
		return "", err
	}

	// GenerativeModel is not safe to mutate concurrently, so build one per call
	model := g.client.GenerativeModel(g.modelName)
	model.SetMaxOutputTokens(int32(g.maxTokens))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	parts := []genai.Part{}
	if req.Image != nil {
		data, err := base64.StdEncoding.DecodeString(req.Image.Base64)
		if err != nil {
			return "", fmt.Errorf("decoding image: %w", err)
		}
		// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
		parts = append(parts, genai.ImageData(strings.TrimPrefix(req.Image.MIMEType, "image/"), data))
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return text.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
