package registry

// Family identifies a class of external models sharing one request/response
// shape. Adapters are resolved from this closed set, never from model IDs.
type Family string

const (
	FamilyOpenAIChat      Family = "openai-chat"
	FamilyOpenAIEmbedding Family = "openai-embedding"
	FamilyOpenAIImage     Family = "openai-image"
	FamilyAnthropicChat   Family = "anthropic-chat"
)

// Families returns all supported model families
func Families() []Family {
	return []Family{
		FamilyOpenAIChat,
		FamilyOpenAIEmbedding,
		FamilyOpenAIImage,
		FamilyAnthropicChat,
	}
}

// Valid reports whether f is a known family
func (f Family) Valid() bool {
	switch f {
	case FamilyOpenAIChat, FamilyOpenAIEmbedding, FamilyOpenAIImage, FamilyAnthropicChat:
		return true
	}
	return false
}

// Pricing represents pricing information for a model
type Pricing struct {
	Currency    string  `json:"currency" yaml:"currency"`
	InputPer1K  float64 `json:"input_per_1k" yaml:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k" yaml:"output_per_1k"`
	PerImage    float64 `json:"per_image" yaml:"per_image"`
}

// Params holds per-model default generation parameters
type Params struct {
	MaxTokens      int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature    float32 `json:"temperature" yaml:"temperature"`
	TopP           float32 `json:"top_p" yaml:"top_p"`
	Dimensions     int     `json:"dimensions" yaml:"dimensions"`
	MaxInputTokens int     `json:"max_input_tokens" yaml:"max_input_tokens"`
	ImageSize      string  `json:"image_size" yaml:"image_size"`
}

// ModelConfig represents configuration for a model
type ModelConfig struct {
	ID        string `json:"id" yaml:"id"` // "openai:gpt-4o-mini"
	Family    Family `json:"family" yaml:"family"`
	BaseURL   string `json:"base_url" yaml:"base_url"`
	APIKeyEnv string `json:"api_key_env" yaml:"api_key_env"`
	// Fallback names the model substituted after the primary exhausts its
	// retry budget. Empty means no fallback.
	Fallback string  `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Pricing  Pricing `json:"pricing" yaml:"pricing"`
	Defaults Params  `json:"defaults" yaml:"defaults"`
	MaxRPM   int     `json:"max_rpm,omitempty" yaml:"max_rpm,omitempty"` // requests per minute
}

// Registry represents the model registry
type Registry struct {
	Models []ModelConfig `json:"models" yaml:"models"`
}

// FindModel returns a model configuration by ID
func (r *Registry) FindModel(id string) *ModelConfig {
	for i := range r.Models {
		if r.Models[i].ID == id {
			return &r.Models[i]
		}
	}
	return nil
}

// ModelsByFamily returns all models of a specific family
func (r *Registry) ModelsByFamily(family Family) []ModelConfig {
	var models []ModelConfig
	for _, model := range r.Models {
		if model.Family == family {
			models = append(models, model)
		}
	}
	return models
}

// ModelIDs returns the IDs of all registered models
func (r *Registry) ModelIDs() []string {
	ids := make([]string, 0, len(r.Models))
	for _, model := range r.Models {
		ids = append(ids, model.ID)
	}
	return ids
}

// TotalModels returns the total number of models
func (r *Registry) TotalModels() int {
	return len(r.Models)
}
