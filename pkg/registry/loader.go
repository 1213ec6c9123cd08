package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading model configurations
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// LoadRegistry loads the model registry from the configuration file.
// The MODELS_CONFIG environment variable overrides the configured path.
// A missing file yields the built-in default registry.
func (l *Loader) LoadRegistry() (*Registry, error) {
	if configPath := os.Getenv("MODELS_CONFIG"); configPath != "" {
		l.configPath = configPath
	}

	if l.configPath == "" {
		l.configPath = "models.yaml"
	}

	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		return DefaultRegistry(), nil
	}

	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", l.configPath, err)
	}

	return LoadRegistryFromBytes(data)
}

// LoadRegistryFromBytes loads a registry from raw YAML
func LoadRegistryFromBytes(data []byte) (*Registry, error) {
	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	for _, model := range registry.Models {
		if !model.Family.Valid() {
			return nil, fmt.Errorf("model %s: unknown family %q", model.ID, model.Family)
		}
		if model.Fallback != "" && registry.FindModel(model.Fallback) == nil {
			return nil, fmt.Errorf("model %s: fallback %q not registered", model.ID, model.Fallback)
		}
	}

	return &registry, nil
}

// DefaultRegistry returns a registry with the platform's default models
func DefaultRegistry() *Registry {
	return &Registry{
		Models: []ModelConfig{
			{
				ID:        "openai:gpt-4o",
				Family:    FamilyOpenAIChat,
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
				Fallback:  "openai:gpt-4o-mini",
				Pricing: Pricing{
					Currency:    "USD",
					InputPer1K:  0.005,
					OutputPer1K: 0.015,
				},
				Defaults: Params{
					MaxTokens:   4096,
					Temperature: 0.7,
				},
				MaxRPM: 5000,
			},
			{
				ID:        "openai:gpt-4o-mini",
				Family:    FamilyOpenAIChat,
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
				Pricing: Pricing{
					Currency:    "USD",
					InputPer1K:  0.00015,
					OutputPer1K: 0.0006,
				},
				Defaults: Params{
					MaxTokens:   4096,
					Temperature: 0.7,
				},
				MaxRPM: 10000,
			},
			{
				ID:        "anthropic:claude-3-5-sonnet-20241022",
				Family:    FamilyAnthropicChat,
				BaseURL:   "https://api.anthropic.com",
				APIKeyEnv: "ANTHROPIC_API_KEY",
				Fallback:  "openai:gpt-4o-mini",
				Pricing: Pricing{
					Currency:    "USD",
					InputPer1K:  0.003,
					OutputPer1K: 0.015,
				},
				Defaults: Params{
					MaxTokens:   4096,
					Temperature: 0.7,
				},
				MaxRPM: 5000,
			},
			{
				ID:        "openai:text-embedding-3-small",
				Family:    FamilyOpenAIEmbedding,
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
				Pricing: Pricing{
					Currency:   "USD",
					InputPer1K: 0.00002,
				},
				Defaults: Params{
					Dimensions:     1536,
					MaxInputTokens: 8192,
				},
				MaxRPM: 10000,
			},
			{
				ID:        "openai:dall-e-3",
				Family:    FamilyOpenAIImage,
				BaseURL:   "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
				Pricing: Pricing{
					Currency: "USD",
					PerImage: 0.04,
				},
				Defaults: Params{
					ImageSize: "1024x1024",
				},
				MaxRPM: 500,
			},
		},
	}
}
