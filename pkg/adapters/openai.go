package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/registry"
	"github.com/skillpath/gateway/pkg/tokens"
)

// OpenAIChatAdapter serves the openai-chat family
type OpenAIChatAdapter struct{}

// NewOpenAIChatAdapter creates an adapter for OpenAI chat models
func NewOpenAIChatAdapter() *OpenAIChatAdapter {
	return &OpenAIChatAdapter{}
}

// Family returns the model family this adapter serves
func (a *OpenAIChatAdapter) Family() registry.Family {
	return registry.FamilyOpenAIChat
}

// Invoke performs a chat completion attempt
func (a *OpenAIChatAdapter) Invoke(ctx context.Context, mc registry.ModelConfig, op core.Operation, payload core.Payload) (core.Result, error) {
	if op != core.OperationText {
		return core.Result{}, fmt.Errorf("openai-chat family does not support %s operations", op)
	}

	response, err := clientFor(mc).CreateChatCompletion(ctx, buildChatRequest(mc, payload))
	if err != nil {
		return core.Result{}, fmt.Errorf("openai chat completion failed: %w", err)
	}

	return extractChatResult(response)
}

// buildChatRequest translates the generic payload, filling unset generation
// parameters from the model's configured defaults
func buildChatRequest(mc registry.ModelConfig, payload core.Payload) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if payload.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: payload.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: payload.Prompt,
	})

	maxTokens := payload.MaxTokens
	if maxTokens <= 0 {
		maxTokens = mc.Defaults.MaxTokens
	}
	temperature := payload.Temperature
	if temperature == 0 {
		temperature = mc.Defaults.Temperature
	}
	topP := payload.TopP
	if topP == 0 {
		topP = mc.Defaults.TopP
	}

	return openai.ChatCompletionRequest{
		Model:       modelName(mc.ID),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}
}

// extractChatResult pulls text and usage out of a chat response. Usage
// fields missing upstream read as zero.
func extractChatResult(response openai.ChatCompletionResponse) (core.Result, error) {
	if len(response.Choices) == 0 {
		return core.Result{}, fmt.Errorf("openai chat completion returned no choices")
	}

	return core.Result{
		Text: response.Choices[0].Message.Content,
		Usage: core.Usage{
			InputUnits:  response.Usage.PromptTokens,
			OutputUnits: response.Usage.CompletionTokens,
		},
	}, nil
}

// OpenAIEmbeddingAdapter serves the openai-embedding family
type OpenAIEmbeddingAdapter struct{}

// NewOpenAIEmbeddingAdapter creates an adapter for OpenAI embedding models
func NewOpenAIEmbeddingAdapter() *OpenAIEmbeddingAdapter {
	return &OpenAIEmbeddingAdapter{}
}

// Family returns the model family this adapter serves
func (a *OpenAIEmbeddingAdapter) Family() registry.Family {
	return registry.FamilyOpenAIEmbedding
}

// Invoke performs an embedding attempt
func (a *OpenAIEmbeddingAdapter) Invoke(ctx context.Context, mc registry.ModelConfig, op core.Operation, payload core.Payload) (core.Result, error) {
	if op != core.OperationEmbedding {
		return core.Result{}, fmt.Errorf("openai-embedding family does not support %s operations", op)
	}

	response, err := clientFor(mc).CreateEmbeddings(ctx, buildEmbeddingRequest(mc, payload))
	if err != nil {
		return core.Result{}, fmt.Errorf("openai embedding failed: %w", err)
	}

	return extractEmbeddingResult(response)
}

func buildEmbeddingRequest(mc registry.ModelConfig, payload core.Payload) openai.EmbeddingRequest {
	input := payload.Input
	if mc.Defaults.MaxInputTokens > 0 {
		input = truncateInput(input, mc.Defaults.MaxInputTokens)
	}

	req := openai.EmbeddingRequest{
		Input: []string{input},
		Model: openai.EmbeddingModel(modelName(mc.ID)),
	}
	if mc.Defaults.Dimensions > 0 {
		req.Dimensions = mc.Defaults.Dimensions
	}
	return req
}

func extractEmbeddingResult(response openai.EmbeddingResponse) (core.Result, error) {
	if len(response.Data) == 0 {
		return core.Result{}, fmt.Errorf("openai embedding returned no data")
	}

	embedding := response.Data[0].Embedding
	vector := make([]float32, len(embedding))
	copy(vector, embedding)

	return core.Result{
		Embedding: vector,
		Usage: core.Usage{
			InputUnits: response.Usage.PromptTokens,
		},
	}, nil
}

// truncateInput cuts the text to the model's token ceiling, preferring an
// exact tiktoken count and falling back to the character heuristic
func truncateInput(text string, maxTokens int) string {
	encoder, err := tokens.Default()
	if err != nil {
		return tokens.TruncateApprox(text, maxTokens)
	}
	return encoder.Truncate(text, maxTokens)
}

// OpenAIImageAdapter serves the openai-image family
type OpenAIImageAdapter struct{}

// NewOpenAIImageAdapter creates an adapter for OpenAI image models
func NewOpenAIImageAdapter() *OpenAIImageAdapter {
	return &OpenAIImageAdapter{}
}

// Family returns the model family this adapter serves
func (a *OpenAIImageAdapter) Family() registry.Family {
	return registry.FamilyOpenAIImage
}

// Invoke performs an image generation attempt
func (a *OpenAIImageAdapter) Invoke(ctx context.Context, mc registry.ModelConfig, op core.Operation, payload core.Payload) (core.Result, error) {
	if op != core.OperationImage {
		return core.Result{}, fmt.Errorf("openai-image family does not support %s operations", op)
	}

	response, err := clientFor(mc).CreateImage(ctx, buildImageRequest(mc, payload))
	if err != nil {
		return core.Result{}, fmt.Errorf("openai image generation failed: %w", err)
	}

	return extractImageResult(response), nil
}

func buildImageRequest(mc registry.ModelConfig, payload core.Payload) openai.ImageRequest {
	count := payload.ImageCount
	if count <= 0 {
		count = 1
	}
	size := payload.ImageSize
	if size == "" {
		size = mc.Defaults.ImageSize
	}

	return openai.ImageRequest{
		Model:          modelName(mc.ID),
		Prompt:         payload.Prompt,
		N:              count,
		Size:           size,
		Style:          payload.Style,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	}
}

func extractImageResult(response openai.ImageResponse) core.Result {
	images := make([]string, 0, len(response.Data))
	for _, data := range response.Data {
		if data.URL != "" {
			images = append(images, data.URL)
		} else if data.B64JSON != "" {
			images = append(images, data.B64JSON)
		}
	}

	return core.Result{
		Images: images,
		Usage: core.Usage{
			ImageCount: len(images),
		},
	}
}

// clientFor builds an OpenAI client pointed at the model's base URL
func clientFor(mc registry.ModelConfig) *openai.Client {
	config := openai.DefaultConfig(os.Getenv(mc.APIKeyEnv))
	if mc.BaseURL != "" {
		config.BaseURL = mc.BaseURL
	}
	return openai.NewClientWithConfig(config)
}
