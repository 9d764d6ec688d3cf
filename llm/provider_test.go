package llm

import (
	"os"
	"testing"
)

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderType
		wantErr bool
	}{
		{"openai", ProviderOpenAI, false},
		{"OpenAI", ProviderOpenAI, false},
		{"gpt", ProviderOpenAI, false},
		{"anthropic", ProviderAnthropic, false},
		{"claude", ProviderAnthropic, false},
		{"deepseek", ProviderDeepSeek, false},
		{"gemini", ProviderGemini, false},
		{"google", ProviderGemini, false},
		{"cohere", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseProviderType(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProviderType(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFromEnvMissingKey(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	if _, err := ProviderOpenAI.FromEnv(); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestModelForClasses(t *testing.T) {
	providers := []Provider{
		NewOpenAIProvider("test"),
		NewAnthropicProvider("test"),
		NewDeepSeekProvider("test"),
	}
	for _, p := range providers {
		if p.ModelFor(ClassFast) == "" {
			t.Errorf("%s: empty fast model", p.Name())
		}
		if p.ModelFor(ClassFlagship) == "" {
			t.Errorf("%s: empty flagship model", p.Name())
		}
	}
}

func TestAPIErrorStatus(t *testing.T) {
	err := &APIError{Provider: "openai", StatusCode: 429, Message: "rate limited"}
	if err.HTTPStatus() != 429 {
		t.Errorf("expected status 429, got %d", err.HTTPStatus())
	}
	if err.Error() == "" {
		t.Error("expected non-empty error string")
	}

	noResponse := &APIError{Provider: "openai", Message: "connection reset"}
	if noResponse.HTTPStatus() != 0 {
		t.Errorf("expected status 0 for no-response error, got %d", noResponse.HTTPStatus())
	}
}
