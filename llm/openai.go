// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Error-to-status mapping for retry classification

package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey)}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ModelFor returns the model ID for a model class.
func (p *OpenAIProvider) ModelFor(class ModelClass) string {
	if class == ClassFlagship {
		return ModelOpenAIFlagship
	}
	return ModelOpenAIFast
}

// Generate sends a completion request.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (Result, error) {
	messages := []openai.ChatCompletionMessage{}
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return Result{}, mapOpenAIError("openai", err)
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return Result{
		Text: content,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// mapOpenAIError converts go-openai errors into APIError so the status
// survives for classification. Shared with the DeepSeek adapter.
func mapOpenAIError(provider string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   provider,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{
			Provider:   provider,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
		}
	}
	// No response received (network error, timeout, cancellation):
	// returned unchanged so context sentinels stay detectable.
	return err
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
