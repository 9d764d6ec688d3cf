// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Request/response format for Gemini API
// - System instruction handling via config

package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client  *genai.Client
	initErr error // Stores client initialization error for deferred reporting
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey string) *GeminiProvider {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return &GeminiProvider{initErr: fmt.Errorf("failed to initialize Gemini client: %w", err)}
	}
	return &GeminiProvider{client: client}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// ModelFor returns the model ID for a model class.
func (p *GeminiProvider) ModelFor(class ModelClass) string {
	if class == ClassFlagship {
		return ModelGeminiFlagship
	}
	return ModelGeminiFast
}

// Generate sends a completion request.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (Result, error) {
	if p.initErr != nil {
		return Result{}, p.initErr
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	response, err := p.client.Models.GenerateContent(ctx, opts.Model, contents, config)
	if err != nil {
		return Result{}, mapGeminiError(err)
	}

	content := response.Text()
	if content == "" {
		return Result{}, &APIError{Provider: "gemini", StatusCode: 500, Message: "empty response"}
	}

	usage := TokenUsage{}
	if response.UsageMetadata != nil {
		usage = TokenUsage{
			PromptTokens:     int(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(response.UsageMetadata.TotalTokenCount),
		}
	}

	return Result{Text: content, Usage: usage}, nil
}

// mapGeminiError converts genai API errors into APIError.
func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	return &APIError{
		Provider:   "gemini",
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
	}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
