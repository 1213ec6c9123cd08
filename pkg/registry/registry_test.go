package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegistryFromBytes(t *testing.T) {
	data := []byte(`
models:
  - id: "openai:gpt-4o-mini"
    family: openai-chat
    base_url: "https://api.openai.com/v1"
    api_key_env: OPENAI_API_KEY
    pricing:
      currency: USD
      input_per_1k: 0.00015
      output_per_1k: 0.0006
    defaults:
      max_tokens: 4096
      temperature: 0.7
    max_rpm: 10000
  - id: "openai:gpt-4o"
    family: openai-chat
    fallback: "openai:gpt-4o-mini"
    pricing:
      currency: USD
      input_per_1k: 0.005
      output_per_1k: 0.015
`)

	reg, err := LoadRegistryFromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, 2, reg.TotalModels())

	mini := reg.FindModel("openai:gpt-4o-mini")
	require.NotNil(t, mini)
	assert.Equal(t, FamilyOpenAIChat, mini.Family)
	assert.Equal(t, 0.00015, mini.Pricing.InputPer1K)
	assert.Equal(t, 4096, mini.Defaults.MaxTokens)
	assert.Equal(t, 10000, mini.MaxRPM)

	assert.Equal(t, "openai:gpt-4o-mini", reg.FindModel("openai:gpt-4o").Fallback)
}

func TestLoadRegistryFromBytesUnknownFamily(t *testing.T) {
	_, err := LoadRegistryFromBytes([]byte(`
models:
  - id: "mistral:large"
    family: mistral-chat
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown family")
}

func TestLoadRegistryFromBytesUnregisteredFallback(t *testing.T) {
	_, err := LoadRegistryFromBytes([]byte(`
models:
  - id: "openai:gpt-4o"
    family: openai-chat
    fallback: "openai:ghost"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestLoadRegistryFromBytesInvalidYAML(t *testing.T) {
	_, err := LoadRegistryFromBytes([]byte("models: [broken"))
	assert.Error(t, err)
}

func TestLoaderMissingFileUsesDefaults(t *testing.T) {
	reg, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, DefaultRegistry().TotalModels(), reg.TotalModels())
}

func TestLoaderReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - id: "openai:gpt-4o-mini"
    family: openai-chat
`), 0o644))

	reg, err := NewLoader(path).LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.TotalModels())
}

func TestLoaderEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - id: "anthropic:claude-3-5-sonnet-20241022"
    family: anthropic-chat
`), 0o644))
	t.Setenv("MODELS_CONFIG", path)

	reg, err := NewLoader("ignored.yaml").LoadRegistry()
	require.NoError(t, err)
	require.Equal(t, 1, reg.TotalModels())
	assert.Equal(t, FamilyAnthropicChat, reg.Models[0].Family)
}

func TestDefaultRegistryIsInternallyConsistent(t *testing.T) {
	reg := DefaultRegistry()

	for _, model := range reg.Models {
		assert.True(t, model.Family.Valid(), "model %s", model.ID)
		if model.Fallback != "" {
			assert.NotNil(t, reg.FindModel(model.Fallback),
				"model %s names fallback %s", model.ID, model.Fallback)
		}
	}
}

func TestFindModelUnknown(t *testing.T) {
	assert.Nil(t, DefaultRegistry().FindModel("openai:nope"))
}

func TestModelsByFamily(t *testing.T) {
	reg := DefaultRegistry()

	chat := reg.ModelsByFamily(FamilyOpenAIChat)
	assert.Len(t, chat, 2)

	images := reg.ModelsByFamily(FamilyOpenAIImage)
	require.Len(t, images, 1)
	assert.Equal(t, "openai:dall-e-3", images[0].ID)
}

func TestFamilyValid(t *testing.T) {
	for _, family := range Families() {
		assert.True(t, family.Valid())
	}
	assert.False(t, Family("openai-audio").Valid())
}

func TestModelIDs(t *testing.T) {
	reg := &Registry{Models: []ModelConfig{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, []string{"a", "b"}, reg.ModelIDs())
}
