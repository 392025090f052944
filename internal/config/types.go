package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level paperchat configuration, corresponding to .paperchat.yml.
// A Config value is threaded explicitly into the session at construction time;
// there is no process-wide singleton.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`

	// StorageDir is the root under which per-paper indices, summaries and
	// the paper catalog are persisted.
	StorageDir string `yaml:"storage_dir" koanf:"storage_dir"`
	// PapersDir is where downloaded PDFs land during a corpus build.
	PapersDir string `yaml:"papers_dir" koanf:"papers_dir"`
	// Persist keeps downloaded PDFs on disk after the build completes.
	Persist bool `yaml:"persist" koanf:"persist"`

	// MaxPapers caps how many search results are fetched per topic.
	MaxPapers int `yaml:"max_papers" koanf:"max_papers"`
	// RetrievalBreadth is the top-K candidate count fetched from the tool
	// index before reranking. Must be >= TopResults.
	RetrievalBreadth int `yaml:"retrieval_breadth" koanf:"retrieval_breadth"`
	// TopResults is the final top-N tool count after reranking.
	TopResults int `yaml:"top_results" koanf:"top_results"`
	// MaxAgentSteps bounds the reasoning loop per chat turn.
	MaxAgentSteps int `yaml:"max_agent_steps" koanf:"max_agent_steps"`

	// RequestsPerMinute rate-limits LLM calls; 0 disables the limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	// ListenAddr is the bind address for the web chat front-end.
	ListenAddr string `yaml:"listen_addr" koanf:"listen_addr"`
}
