// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Error-to-status mapping for retry classification

package llm

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// ModelFor returns the model ID for a model class.
func (p *AnthropicProvider) ModelFor(class ModelClass) string {
	if class == ClassFlagship {
		return ModelAnthropicFlagship
	}
	return ModelAnthropicFast
}

// Generate sends a completion request.
func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (Result, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: int64(opts.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(float64(opts.Temperature)),
	}
	if opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: opts.SystemPrompt},
		}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return Result{}, mapAnthropicError(err)
	}

	content := ""
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += variant.Text
		}
	}

	return Result{
		Text: content,
		Usage: TokenUsage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}

// mapAnthropicError converts SDK errors into APIError, carrying any
// retry-after hint the API supplied.
func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	mapped := &APIError{
		Provider:   "anthropic",
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Error(),
	}
	if apiErr.Response != nil {
		mapped.RetryAfter = parseRetryAfter(apiErr.Response.Header)
	}
	return mapped
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
