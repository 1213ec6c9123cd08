package core

// Operation identifies the kind of generation performed
type Operation string

const (
	OperationText      Operation = "text"
	OperationImage     Operation = "image"
	OperationEmbedding Operation = "embedding"
)

// Operations returns all supported operations
func Operations() []Operation {
	return []Operation{OperationText, OperationImage, OperationEmbedding}
}

// Payload is the family-independent request body. Which fields matter
// depends on the operation: Prompt and System drive text, Input drives
// embeddings, Prompt plus the image fields drive image generation. Zero
// values defer to the model's configured defaults.
type Payload struct {
	Prompt      string  `json:"prompt,omitempty"`
	System      string  `json:"system,omitempty"`
	Input       string  `json:"input,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	TopP        float32 `json:"top_p,omitempty"`
	ImageCount  int     `json:"image_count,omitempty"`
	ImageSize   string  `json:"image_size,omitempty"`
	Style       string  `json:"style,omitempty"`
}

// Usage counts the billable units one call consumed. Units are tokens for
// text and embedding operations and images for image generation.
type Usage struct {
	InputUnits  int `json:"input_units"`
	OutputUnits int `json:"output_units"`
	ImageCount  int `json:"image_count"`
}

// Result is the family-independent output of one successful invocation.
// Exactly one of Text, Embedding, or Images is populated, matching the
// operation that produced it.
type Result struct {
	Text      string    `json:"text,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Usage     Usage     `json:"usage"`
}

// Response is the envelope returned to callers. Model names the model that
// actually served the call, which differs from the requested one after a
// fallback substitution. Cost is the amount recorded for this call, or the
// originally recorded amount on a cache hit.
type Response struct {
	Result

	Model     string  `json:"model"`
	RequestID string  `json:"request_id"`
	Cached    bool    `json:"cached"`
	Cost      float64 `json:"cost"`
}
