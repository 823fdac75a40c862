package providers

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"whatsfordinner/internal/config"
)

// GitHubModelsBaseURL is the OpenAI-compatible endpoint of GitHub Models.
const GitHubModelsBaseURL = "https://models.inference.ai.azure.com"

// DefaultAzureAPIVersion is used when llm.api_version is empty.
const DefaultAzureAPIVersion = "2024-02-01"

// NewModel initialises the langchaingo model for the configured provider.
// All three providers speak the OpenAI chat-completions protocol.
func NewModel(cfg config.LLMConfig) (llms.Model, error) {
	var opts []openai.Option
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts = openAIOptions(cfg)
	case config.ProviderGitHubModels:
		opts = gitHubModelsOptions(cfg)
	case config.ProviderAzure:
		opts = azureOptions(cfg)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s model: %w", cfg.Provider, err)
	}
	return llm, nil
}

func openAIOptions(cfg config.LLMConfig) []openai.Option {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return opts
}

func gitHubModelsOptions(cfg config.LLMConfig) []openai.Option {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = GitHubModelsBaseURL
	}
	return []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(baseURL),
	}
}

// azureOptions treats llm.model as the deployment name.
func azureOptions(cfg config.LLMConfig) []openai.Option {
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAzureAPIVersion
	}
	return []openai.Option{
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithAPIVersion(version),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
}
