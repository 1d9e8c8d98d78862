package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
)

// Choices offered by the provider prompts, default first.
var (
	embeddingProviders = []domain.AIProvider{domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderHashing}
	llmProviders       = []domain.AIProvider{
		domain.AIProviderNone, domain.AIProviderOllama, domain.AIProviderOpenAI, domain.AIProviderAnthropic,
	}
)

// apiKeyHint names where a provider's key is read from. Keys are never
// typed into the prompt.
var apiKeyHint = map[string]string{
	"embedding": "PROMETHEAN_EMBED_API_KEY (or embedding.api_key in config.toml)",
	"llm":       "PROMETHEAN_LLM_API_KEY (or llm.api_key in config.toml)",
}

// askBaseURL prompts for the endpoint of providers that talk to a server.
func askBaseURL(cmd *cobra.Command, provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOllama:
		return ask(cmd, "Enter Ollama URL", provider.DefaultBaseURL())
	case domain.AIProviderOpenAI, domain.AIProviderAnthropic:
		return ask(cmd, "Enter API base URL", provider.DefaultBaseURL())
	default:
		return ""
	}
}

func printKeyHint(cmd *cobra.Command, provider domain.AIProvider, kind string) {
	switch provider {
	case domain.AIProviderOpenAI:
		cmd.Printf("API key (optional for local servers): %s\n", apiKeyHint[kind])
	case domain.AIProviderAnthropic:
		cmd.Printf("API key (required): %s\n", apiKeyHint[kind])
	}
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure embedding and LLM providers.

Settings live in config.toml under the data directory. PROMETHEAN_*
environment variables override them for a single run.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Configure the embedding provider and then the LLM provider.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider for semantic search.

Changing the model after documents are stored leaves existing vectors at
the old dimensions; the vector store refuses to open until it is rebuilt.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used by chat and summaries.`,
	RunE:  runSettingsLLM,
}

func init() {
	for _, c := range []*cobra.Command{settingsCmd, settingsShowCmd, settingsWizardCmd, settingsEmbeddingCmd, settingsLLMCmd} {
		requires(c, needsConfig)
	}
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.IsModelBacked() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	if settings.LLM.IsConfigured() {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Chunk size: %d\n", settings.Ingest.ChunkSize)
	cmd.Printf("  Text duplicate threshold: %.2f\n", settings.Ingest.TextThreshold)
	cmd.Printf("  Email duplicate threshold: %.2f\n", settings.Ingest.EmailThreshold)
	cmd.Println()

	cmd.Println("[Organizer]")
	cmd.Printf("  Interval: %s\n", settings.Organizer.Interval)
	cmd.Printf("  Reducer: %s\n", settings.Organizer.Reducer)
	cmd.Printf("  Min cluster size: %d\n", settings.Organizer.Clustering.MinClusterSize)
	cmd.Println()

	cmd.Println("[Daemon]")
	if len(settings.Watch.Directories) > 0 {
		cmd.Printf("  Watch: %s\n", strings.Join(settings.Watch.Directories, ", "))
	} else {
		cmd.Println("  Watch: (none)")
	}
	cmd.Printf("  Email poll: %s\n", settings.Email.PollInterval)
	if settings.API.Enabled {
		cmd.Printf("  API: http://%s\n", settings.API.Addr)
	} else {
		cmd.Println("  API: disabled")
	}
	if settings.MCP.Enabled {
		cmd.Printf("  MCP: http://%s\n", settings.MCP.Addr)
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'promethean settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Promethean Settings Wizard")
	cmd.Println("==========================")
	cmd.Println()

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureEmbeddingProvider(cmd); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("Chat and summaries need an LLM. Choose Disabled to skip.")
	cmd.Println()
	if err := configureLLMProvider(cmd); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureEmbeddingProvider(cmd)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureLLMProvider(cmd)
}

// chooseProvider lists providers and returns the selected one.
func chooseProvider(cmd *cobra.Command, title string, providers []domain.AIProvider) domain.AIProvider {
	cmd.Println(title)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(input(cmd)), len(providers), 1)
	return providers[idx-1]
}

func configureEmbeddingProvider(cmd *cobra.Command) error {
	provider := chooseProvider(cmd, "Select Embedding Provider", embeddingProviders)

	model := ask(cmd, "Enter model name", provider.DefaultEmbeddingModel())
	baseURL := askBaseURL(cmd, provider)
	printKeyHint(cmd, provider, "embedding")

	if err := settingsService.SetEmbeddingProvider(provider, model, baseURL); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}

func configureLLMProvider(cmd *cobra.Command) error {
	provider := chooseProvider(cmd, "Select LLM Provider", llmProviders)
	if provider == domain.AIProviderNone {
		if err := settingsService.SetLLMProvider(provider, "", ""); err != nil {
			return fmt.Errorf("failed to configure LLM provider: %w", err)
		}
		cmd.Println("LLM disabled. Chat and LLM summaries are unavailable.")
		cmd.Println()
		return nil
	}

	model := ask(cmd, "Enter model name", provider.DefaultChatModel())
	baseURL := askBaseURL(cmd, provider)
	printKeyHint(cmd, provider, "llm")

	if err := settingsService.SetLLMProvider(provider, model, baseURL); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", provider.Description(), model)
	return nil
}
