// Package provider selects and constructs the LLM chat backend used to
// answer questions about uploaded documents.
// Supported backends: Perplexity, OpenAI, Azure OpenAI, Ollama, Google Gemini.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendPerplexity selects the Perplexity API (default).
	BackendPerplexity Backend = "perplexity"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// ProviderPerplexity configures the Perplexity backend.
type ProviderPerplexity struct {
	// APIKey authenticates against the Perplexity API.
	APIKey string
	// Model is the Perplexity model name (e.g. "sonar").
	Model string
	// BaseURL overrides the default API endpoint.
	BaseURL string
}

// ProviderOpenAI configures the OpenAI backend.
type ProviderOpenAI struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string
	// Model is the model name (e.g. "gpt-4o").
	Model string
}

// ProviderAzureOpenAI configures the Azure OpenAI backend.
type ProviderAzureOpenAI struct {
	// APIKey authenticates against the Azure OpenAI resource.
	APIKey string
	// Endpoint is the resource endpoint (https://<name>.openai.azure.com).
	Endpoint string
	// Deployment is the deployment name to invoke.
	Deployment string
	// APIVersion is the REST API version (e.g. "2024-02-01").
	APIVersion string
}

// ProviderOllama configures the Ollama backend.
type ProviderOllama struct {
	// Host is the Ollama server URL.
	Host string
	// Model is the local model name (e.g. "llama3").
	Model string
}

// ProviderGemini configures the Google Gemini backend.
type ProviderGemini struct {
	// APIKey authenticates against Google AI Studio.
	APIKey string
	// Model is the Gemini model name (e.g. "gemini-1.5-pro").
	Model string
}

// SharedTuning holds generation parameters common to all backends.
type SharedTuning struct {
	// MaxTokens caps the number of tokens the model may generate per answer.
	MaxTokens int
	// Temperature controls response randomness. Grounded answering wants 0.
	Temperature float32
}

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values. Only the section matching
// Backend is consulted.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	Perplexity  ProviderPerplexity
	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Ollama      ProviderOllama
	Gemini      ProviderGemini
	Tuning      SharedTuning
}

// Validate checks that the section matching cfg.Backend carries everything
// its constructor needs, naming the missing environment variable in the
// error so startup failures are self-explanatory.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPerplexity:
		if c.Perplexity.APIKey == "" {
			return fmt.Errorf("provider: PPLX_API_KEY is required for perplexity backend")
		}
		if c.Perplexity.Model == "" {
			return fmt.Errorf("provider: PPLX_MODEL is required for perplexity backend")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("provider: OPENAI_API_KEY is required for openai backend")
		}
		if c.OpenAI.Model == "" {
			return fmt.Errorf("provider: OPENAI_MODEL is required for openai backend")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_API_KEY is required for azure backend")
		}
		if c.AzureOpenAI.Endpoint == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_ENDPOINT is required for azure backend")
		}
		if c.AzureOpenAI.Deployment == "" {
			return fmt.Errorf("provider: AZURE_OPENAI_DEPLOYMENT is required for azure backend")
		}
	case BackendOllama:
		if c.Ollama.Model == "" {
			return fmt.Errorf("provider: OLLAMA_MODEL is required for ollama backend")
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("provider: GOOGLE_API_KEY is required for gemini backend")
		}
		if c.Gemini.Model == "" {
			return fmt.Errorf("provider: GEMINI_MODEL is required for gemini backend")
		}
	default:
		return fmt.Errorf("provider: unknown backend %q — valid values: perplexity, openai, azure, ollama, gemini", c.Backend)
	}
	return nil
}

// isAzureReasoningModel reports whether the deployment name looks like an
// o-series or codex-class reasoning model. Those deployments reject the
// temperature and max_tokens parameters, so the Azure constructor omits them.
func isAzureReasoningModel(deployment string) bool {
	d := strings.ToLower(deployment)
	for _, prefix := range []string{"o1", "o3", "o4", "codex"} {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}

// Factory is the interface for constructing a ChatModel from a Config.
// Implementations must be safe to call from multiple goroutines.
type Factory interface {
	// New constructs and returns a ready-to-use ChatModel for the given config.
	New(ctx context.Context, cfg *Config) (model.ToolCallingChatModel, error)
}
