package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/skillpath/gateway/pkg/core"
)

// Key generates a deterministic cache key for a request. The key is a pure
// function of (model, operation, payload): identical logical requests collide
// regardless of where they originate.
func Key(model string, op core.Operation, payload core.Payload) string {
	normalized := struct {
		Model     string         `json:"model"`
		Operation core.Operation `json:"operation"`
		Payload   core.Payload   `json:"payload"`
	}{
		Model:     model,
		Operation: op,
		Payload:   payload,
	}

	// Struct fields marshal in declaration order, so the JSON is canonical
	data, _ := json.Marshal(normalized)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
