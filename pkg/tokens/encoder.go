package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used for all OpenAI-family models handled here
const DefaultEncoding = "cl100k_base"

// Encoder counts and truncates text by token count
type Encoder struct {
	encoding *tiktoken.Tiktoken
}

var (
	defaultEncoder     *Encoder
	defaultEncoderErr  error
	defaultEncoderOnce sync.Once
)

// NewEncoder creates an encoder for the named tiktoken encoding
func NewEncoder(encodingName string) (*Encoder, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}
	return &Encoder{encoding: encoding}, nil
}

// Default returns the shared cl100k_base encoder
func Default() (*Encoder, error) {
	defaultEncoderOnce.Do(func() {
		defaultEncoder, defaultEncoderErr = NewEncoder(DefaultEncoding)
	})
	return defaultEncoder, defaultEncoderErr
}

// Count returns the number of tokens in text
func (e *Encoder) Count(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}

// Truncate cuts text down to at most maxTokens tokens
func (e *Encoder) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	encoded := e.encoding.Encode(text, nil, nil)
	if len(encoded) <= maxTokens {
		return text
	}
	return e.encoding.Decode(encoded[:maxTokens])
}

// TruncateApprox is the fallback used when no tiktoken encoding is
// available: roughly 4 characters per token, cut at a word boundary.
func TruncateApprox(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}

	truncated := text[:maxChars]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}
	return truncated
}
