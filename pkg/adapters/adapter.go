package adapters

import (
	"context"
	"fmt"

	"github.com/skillpath/gateway/pkg/core"
	"github.com/skillpath/gateway/pkg/registry"
)

// Adapter translates the generic invocation envelope into one model family's
// wire format, performs the external call, and extracts output and usage
// counts from the family-specific response.
type Adapter interface {
	// Family returns the model family this adapter serves
	Family() registry.Family

	// Invoke performs a single attempt against the external API
	Invoke(ctx context.Context, mc registry.ModelConfig, op core.Operation, payload core.Payload) (core.Result, error)
}

// ForFamily resolves the adapter for a model family. The set of families is
// closed; unknown values are a configuration error, not a fallthrough.
func ForFamily(family registry.Family) (Adapter, error) {
	switch family {
	case registry.FamilyOpenAIChat:
		return NewOpenAIChatAdapter(), nil
	case registry.FamilyOpenAIEmbedding:
		return NewOpenAIEmbeddingAdapter(), nil
	case registry.FamilyOpenAIImage:
		return NewOpenAIImageAdapter(), nil
	case registry.FamilyAnthropicChat:
		return NewAnthropicChatAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported model family: %s", family)
	}
}

// modelName strips the "provider:" prefix used in registry IDs, leaving the
// upstream model name ("openai:gpt-4o" -> "gpt-4o")
func modelName(id string) string {
	for i := 0; i < len(id); i++ {
		if id[i] == ':' {
			return id[i+1:]
		}
	}
	return id
}
