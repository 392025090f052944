package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .paperchat.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to paperchat! Let's configure your research assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Model name.
	defaultModel := map[ProviderType]string{
		ProviderOpenAI:    "gpt-4o-mini",
		ProviderAnthropic: "claude-sonnet-4-20250514",
		ProviderOllama:    "llama3.1",
	}[cfg.Provider]
	modelPrompt := promptui.Prompt{
		Label:   "Model",
		Default: defaultModel,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model prompt: %w", err)
	}

	// Embeddings come from OpenAI unless the local provider is selected.
	if cfg.Provider == ProviderOllama {
		cfg.EmbeddingProvider = ProviderOllama
		cfg.EmbeddingModel = "nomic-embed-text"
	}

	// 3. Papers per topic.
	maxPapersPrompt := promptui.Prompt{
		Label:   "Maximum papers to fetch per topic",
		Default: strconv.Itoa(cfg.MaxPapers),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	maxPapersStr, err := maxPapersPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("max papers prompt: %w", err)
	}
	cfg.MaxPapers, _ = strconv.Atoi(maxPapersStr)

	// 4. Keep downloaded PDFs?
	persistPrompt := promptui.Select{
		Label: "Keep downloaded PDFs after the index is built",
		Items: []string{"no", "yes"},
	}
	_, persistStr, err := persistPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("persist prompt: %w", err)
	}
	cfg.Persist = persistStr == "yes"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(".paperchat.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration saved to .paperchat.yml")

	return cfg, nil
}
