package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/registry"
)

const anthropicVersion = "2023-06-01"

// AnthropicChatAdapter serves the anthropic-chat family through the Messages
// API over plain HTTP
type AnthropicChatAdapter struct {
	client *http.Client
}

// NewAnthropicChatAdapter creates an adapter for Anthropic chat models
func NewAnthropicChatAdapter() *AnthropicChatAdapter {
	return &AnthropicChatAdapter{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Family returns the model family this adapter serves
func (a *AnthropicChatAdapter) Family() registry.Family {
	return registry.FamilyAnthropicChat
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float32            `json:"temperature,omitempty"`
	TopP        float32            `json:"top_p,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	StopReason string `json:"stop_reason"`
}

// Invoke performs a chat completion attempt against the Anthropic API
func (a *AnthropicChatAdapter) Invoke(ctx context.Context, mc registry.ModelConfig, op core.Operation, payload core.Payload) (core.Result, error) {
	if op != core.OperationText {
		return core.Result{}, fmt.Errorf("anthropic-chat family does not support %s operations", op)
	}

	reqBody, err := json.Marshal(buildAnthropicRequest(mc, payload))
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, mc.BaseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return core.Result{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", os.Getenv(mc.APIKeyEnv))
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return core.Result{}, fmt.Errorf("anthropic API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Result{}, fmt.Errorf("anthropic API returned status %d", resp.StatusCode)
	}

	var apiResp anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return core.Result{}, fmt.Errorf("failed to decode anthropic response: %w", err)
	}

	return extractAnthropicResult(apiResp), nil
}

func buildAnthropicRequest(mc registry.ModelConfig, payload core.Payload) anthropicRequest {
	maxTokens := payload.MaxTokens
	if maxTokens <= 0 {
		maxTokens = mc.Defaults.MaxTokens
	}
	temperature := payload.Temperature
	if temperature == 0 {
		temperature = mc.Defaults.Temperature
	}

	return anthropicRequest{
		Model:       modelName(mc.ID),
		MaxTokens:   maxTokens,
		System:      payload.System,
		Messages:    []anthropicMessage{{Role: "user", Content: payload.Prompt}},
		Temperature: temperature,
		TopP:        payload.TopP,
	}
}

// extractAnthropicResult concatenates the text content blocks and maps
// usage. Missing usage fields read as zero; extraction never fails.
func extractAnthropicResult(resp anthropicResponse) core.Result {
	var text string
	for _, content := range resp.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}

	return core.Result{
		Text: text,
		Usage: core.Usage{
			InputUnits:  resp.Usage.InputTokens,
			OutputUnits: resp.Usage.OutputTokens,
		},
	}
}
