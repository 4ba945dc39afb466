package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Request is one completion call: role instructions plus the context message.
type Request struct {
	Role         string
	Instructions string
	Message      string
	Tier         ModelTier
	Temperature  float32
	Timeout      time.Duration
	JSON         bool // Ask the provider for application/json output
}

// CompletionService returns generated text for a request.
// Failures are *TransientError (retryable) or *FatalError.
type CompletionService interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewService creates a completion service based on configuration.
func NewService(ctx context.Context, config *Config, apiKey string) (*GeminiService, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiService(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

// GeminiService implements CompletionService for Google Gemini.
type GeminiService struct {
	client *genai.Client
	config *Config
}

// NewGeminiService creates a new Gemini completion service.
func NewGeminiService(ctx context.Context, config *Config, apiKey string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client: client,
		config: config,
	}, nil
}

// Complete sends the role instructions as the system instruction and the message as user content.
func (s *GeminiService) Complete(ctx context.Context, req Request) (string, error) {
	modelName := s.config.GetModel(req.Tier)
	if modelName == "" {
		return "", &FatalError{Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	model := s.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	if req.Instructions != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.Instructions)}}
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Message))
	if err != nil {
		return "", classify("failed to generate content", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	if req.JSON {
		return CleanJSONBlock(text), nil
	}
	return text, nil
}

// Model returns the model name for a tier.
func (s *GeminiService) Model(tier ModelTier) string {
	return s.config.GetModel(tier)
}

// Close releases resources held by the client.
func (s *GeminiService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
// An empty or blocked response is permanent for the given prompt.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &FatalError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &FatalError{Message: fmt.Sprintf("no content in response (finish reason %s)", candidate.FinishReason)}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &FatalError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
