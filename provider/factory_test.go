package provider

import (
	"strings"
	"testing"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantErr  string
		validate func(t *testing.T, got any)
	}{
		{
			name: "ollama with defaults",
			cfg:  Config{Type: ProviderTypeOllama},
			validate: func(t *testing.T, got any) {
				p, ok := got.(*OllamaProvider)
				if !ok {
					t.Fatalf("got %T, want *OllamaProvider", got)
				}
				if p.GetModel() != "llama3.1:latest" {
					t.Errorf("default model = %q", p.GetModel())
				}
			},
		},
		{
			name:    "ollama invalid url",
			cfg:     Config{Type: ProviderTypeOllama, BaseURL: "://bad"},
			wantErr: "Ollama",
		},
		{
			name:    "openai without key",
			cfg:     Config{Type: ProviderTypeOpenAI},
			wantErr: "API key is required",
		},
		{
			name:    "openrouter without key",
			cfg:     Config{Type: ProviderTypeOpenRouter},
			wantErr: "API key is required",
		},
		{
			name:    "anthropic without key",
			cfg:     Config{Type: ProviderTypeAnthropic},
			wantErr: "API key is required",
		},
		{
			name: "openai with key",
			cfg:  Config{Type: ProviderTypeOpenAI, APIKey: "sk-test"},
			validate: func(t *testing.T, got any) {
				p, ok := got.(*OpenAIProvider)
				if !ok {
					t.Fatalf("got %T, want *OpenAIProvider", got)
				}
				if p.GetModel() != "gpt-4o-mini" {
					t.Errorf("default model = %q", p.GetModel())
				}
			},
		},
		{
			name: "anthropic model round trip",
			cfg:  Config{Type: ProviderTypeAnthropic, APIKey: "sk-test", Model: "claude-3-5-haiku-20241022"},
			validate: func(t *testing.T, got any) {
				p := got.(*AnthropicProvider)
				if p.GetModel() != "claude-3-5-haiku-20241022" {
					t.Errorf("model = %q", p.GetModel())
				}
			},
		},
		{
			name:    "unknown type",
			cfg:     Config{Type: "mystery"},
			wantErr: "unknown provider type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestMapProviderIDToType(t *testing.T) {
	tests := []struct {
		id   string
		want ProviderType
	}{
		{"ollama", ProviderTypeOllama},
		{"openrouter", ProviderTypeOpenRouter},
		{"openai", ProviderTypeOpenAI},
		{"anthropic", ProviderTypeAnthropic},
		{"custom", ProviderType("custom")},
	}

	for _, tt := range tests {
		if got := MapProviderIDToType(tt.id); got != tt.want {
			t.Errorf("MapProviderIDToType(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestStripProviderPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"meta-llama/llama-3.2-90b-instruct", "llama-3.2-90b-instruct"},
		{"anthropic/claude-sonnet-4", "claude-sonnet-4"},
		{"no-prefix", "no-prefix"},
	}

	for _, tt := range tests {
		if got := StripProviderPrefix(tt.in); got != tt.want {
			t.Errorf("StripProviderPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParamHelpers(t *testing.T) {
	params := map[string]any{
		"temperature": 0.7,
		"max_tokens":  float64(2048), // JSON-decoded numbers arrive as float64
		"count":       3,
	}

	if v, ok := floatParam(params, "temperature"); !ok || v != 0.7 {
		t.Errorf("floatParam(temperature) = %v, %v", v, ok)
	}
	if v, ok := intParam(params, "max_tokens"); !ok || v != 2048 {
		t.Errorf("intParam(max_tokens) = %v, %v", v, ok)
	}
	if v, ok := intParam(params, "count"); !ok || v != 3 {
		t.Errorf("intParam(count) = %v, %v", v, ok)
	}
	if _, ok := floatParam(params, "missing"); ok {
		t.Error("floatParam found missing key")
	}
	if _, ok := floatParam(nil, "temperature"); ok {
		t.Error("floatParam on nil map")
	}
}
