package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/registry"
)

func TestForFamilyResolvesAllFamilies(t *testing.T) {
	for _, family := range registry.Families() {
		adapter, err := ForFamily(family)
		require.NoError(t, err, "family %s", family)
		assert.Equal(t, family, adapter.Family())
	}
}

func TestForFamilyUnknown(t *testing.T) {
	_, err := ForFamily(registry.Family("cohere-chat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported model family")
}

func TestModelName(t *testing.T) {
	cases := map[string]string{
		"openai:gpt-4o":    "gpt-4o",
		"anthropic:claude": "claude",
		"bare-model":       "bare-model",
		"a:b:c":            "b:c",
	}
	for id, want := range cases {
		assert.Equal(t, want, modelName(id))
	}
}

func TestAdaptersRejectMismatchedOperation(t *testing.T) {
	mc := registry.ModelConfig{ID: "x:y"}
	ctx := context.Background()

	_, err := NewOpenAIChatAdapter().Invoke(ctx, mc, core.OperationImage, core.Payload{})
	assert.Error(t, err)
	_, err = NewOpenAIEmbeddingAdapter().Invoke(ctx, mc, core.OperationText, core.Payload{})
	assert.Error(t, err)
	_, err = NewOpenAIImageAdapter().Invoke(ctx, mc, core.OperationEmbedding, core.Payload{})
	assert.Error(t, err)
	_, err = NewAnthropicChatAdapter().Invoke(ctx, mc, core.OperationEmbedding, core.Payload{})
	assert.Error(t, err)
}

func TestBuildChatRequestFillsDefaults(t *testing.T) {
	mc := registry.ModelConfig{
		ID: "openai:gpt-4o",
		Defaults: registry.Params{
			MaxTokens:   2048,
			Temperature: 0.7,
			TopP:        0.9,
		},
	}

	req := buildChatRequest(mc, core.Payload{System: "be brief", Prompt: "hello"})

	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be brief", req.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[1].Role)
	assert.Equal(t, 2048, req.MaxTokens)
	assert.Equal(t, float32(0.7), req.Temperature)
	assert.Equal(t, float32(0.9), req.TopP)
}

func TestBuildChatRequestPayloadOverridesDefaults(t *testing.T) {
	mc := registry.ModelConfig{
		ID:       "openai:gpt-4o",
		Defaults: registry.Params{MaxTokens: 2048, Temperature: 0.7},
	}

	req := buildChatRequest(mc, core.Payload{Prompt: "hi", MaxTokens: 100, Temperature: 0.2})

	require.Len(t, req.Messages, 1, "no system message when unset")
	assert.Equal(t, 100, req.MaxTokens)
	assert.Equal(t, float32(0.2), req.Temperature)
}

func TestExtractChatResult(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "answer"}},
		},
		Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 34},
	}

	result, err := extractChatResult(resp)
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Text)
	assert.Equal(t, 12, result.Usage.InputUnits)
	assert.Equal(t, 34, result.Usage.OutputUnits)
}

func TestExtractChatResultNoChoices(t *testing.T) {
	_, err := extractChatResult(openai.ChatCompletionResponse{})
	assert.Error(t, err)
}

func TestBuildEmbeddingRequest(t *testing.T) {
	mc := registry.ModelConfig{
		ID:       "openai:text-embedding-3-small",
		Defaults: registry.Params{Dimensions: 256},
	}

	req := buildEmbeddingRequest(mc, core.Payload{Input: "embed this"})

	assert.Equal(t, openai.EmbeddingModel("text-embedding-3-small"), req.Model)
	assert.Equal(t, []string{"embed this"}, req.Input)
	assert.Equal(t, 256, req.Dimensions)
}

func TestExtractEmbeddingResultCopiesVector(t *testing.T) {
	source := []float32{0.1, 0.2, 0.3}
	resp := openai.EmbeddingResponse{
		Data:  []openai.Embedding{{Embedding: source}},
		Usage: openai.Usage{PromptTokens: 7},
	}

	result, err := extractEmbeddingResult(resp)
	require.NoError(t, err)
	assert.Equal(t, source, result.Embedding)
	assert.Equal(t, 7, result.Usage.InputUnits)

	source[0] = 99
	assert.Equal(t, float32(0.1), result.Embedding[0], "result does not alias the response slice")
}

func TestExtractEmbeddingResultNoData(t *testing.T) {
	_, err := extractEmbeddingResult(openai.EmbeddingResponse{})
	assert.Error(t, err)
}

func TestBuildImageRequestDefaults(t *testing.T) {
	mc := registry.ModelConfig{
		ID:       "openai:dall-e-3",
		Defaults: registry.Params{ImageSize: "1024x1024"},
	}

	req := buildImageRequest(mc, core.Payload{Prompt: "a lighthouse"})

	assert.Equal(t, "dall-e-3", req.Model)
	assert.Equal(t, 1, req.N)
	assert.Equal(t, "1024x1024", req.Size)
	assert.Equal(t, openai.CreateImageResponseFormatURL, req.ResponseFormat)
}

func TestExtractImageResult(t *testing.T) {
	resp := openai.ImageResponse{
		Data: []openai.ImageResponseDataInner{
			{URL: "https://img.example/1.png"},
			{B64JSON: "aGVsbG8="},
		},
	}

	result := extractImageResult(resp)
	assert.Equal(t, []string{"https://img.example/1.png", "aGVsbG8="}, result.Images)
	assert.Equal(t, 2, result.Usage.ImageCount)
}

func TestBuildAnthropicRequest(t *testing.T) {
	mc := registry.ModelConfig{
		ID:       "anthropic:claude-3-5-sonnet",
		Defaults: registry.Params{MaxTokens: 4096, Temperature: 0.5},
	}

	req := buildAnthropicRequest(mc, core.Payload{System: "sys", Prompt: "hi"})

	assert.Equal(t, "claude-3-5-sonnet", req.Model)
	assert.Equal(t, 4096, req.MaxTokens)
	assert.Equal(t, "sys", req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, float32(0.5), req.Temperature)
}

func TestExtractAnthropicResultConcatenatesTextBlocks(t *testing.T) {
	var resp anthropicResponse
	require.NoError(t, json.Unmarshal([]byte(`{
		"content": [
			{"type": "text", "text": "first "},
			{"type": "tool_use", "text": "ignored"},
			{"type": "text", "text": "second"}
		],
		"usage": {"input_tokens": 10, "output_tokens": 20}
	}`), &resp))

	result := extractAnthropicResult(resp)
	assert.Equal(t, "first second", result.Text)
	assert.Equal(t, 10, result.Usage.InputUnits)
	assert.Equal(t, 20, result.Usage.OutputUnits)
}

func TestExtractAnthropicResultMissingUsageReadsZero(t *testing.T) {
	var resp anthropicResponse
	require.NoError(t, json.Unmarshal([]byte(`{"content": [{"type": "text", "text": "hi"}]}`), &resp))

	result := extractAnthropicResult(resp)
	assert.Equal(t, "hi", result.Text)
	assert.Zero(t, result.Usage.InputUnits)
	assert.Zero(t, result.Usage.OutputUnits)
}

func TestAnthropicInvokeAgainstStubServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet", req.Model)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "pong"}},
			"usage":   map[string]int{"input_tokens": 3, "output_tokens": 1},
		})
	}))
	defer server.Close()

	mc := registry.ModelConfig{
		ID:       "anthropic:claude-3-5-sonnet",
		Family:   registry.FamilyAnthropicChat,
		BaseURL:  server.URL,
		Defaults: registry.Params{MaxTokens: 1024},
	}

	result, err := NewAnthropicChatAdapter().Invoke(context.Background(), mc, core.OperationText, core.Payload{Prompt: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Text)
	assert.Equal(t, 3, result.Usage.InputUnits)
}

func TestAnthropicInvokeNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	mc := registry.ModelConfig{ID: "anthropic:claude", BaseURL: server.URL}

	_, err := NewAnthropicChatAdapter().Invoke(context.Background(), mc, core.OperationText, core.Payload{Prompt: "ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
