package config

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		StorageDir:        ".paperchat",
		PapersDir:         ".papers",
		Persist:           false,
		MaxPapers:         10,
		RetrievalBreadth:  10,
		TopResults:        5,
		MaxAgentSteps:     20,
		RequestsPerMinute: 0,
		ListenAddr:        "127.0.0.1:8787",
	}
}
