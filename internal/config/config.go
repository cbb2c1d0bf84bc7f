// Package config loads configuration from environment variables and .env files.
package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the repository QA service
type Config struct {
	// Server
	Port           int      `env:"PORT" envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// GitHub (forge)
	GitHubAPIURL string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	GitHubRawURL string `env:"GITHUB_RAW_URL" envDefault:"https://raw.githubusercontent.com"`
	GitHubToken  string `env:"GITHUB_TOKEN"`

	// Qdrant
	QdrantURL            string `env:"QDRANT_URL" envDefault:"localhost:6334"`
	VectorMaxCollections int    `env:"VECTOR_MAX_COLLECTIONS" envDefault:"5"`
	VectorSharedPrefix   string `env:"VECTOR_SHARED_PREFIX" envDefault:"repoqa"`

	// Ollama embeddings
	OllamaURL      string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"all-minilm"`

	// Groq LLM
	GroqAPIKey string `env:"GROQ_API_KEY"`
	APIKey     string `env:"API_KEY"`
	GroqAPIURL string `env:"GROQ_API_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel  string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`

	// Retrieval defaults
	DefaultTopFiles  int `env:"DEFAULT_TOP_FILES" envDefault:"8"`
	DefaultTopChunks int `env:"DEFAULT_TOP_CHUNKS" envDefault:"12"`
}

// LLMKey returns the configured LLM credential. GROQ_API_KEY wins over the
// legacy API_KEY name. An empty result means answers degrade to raw context.
func (c *Config) LLMKey() string {
	if c.GroqAPIKey != "" {
		return c.GroqAPIKey
	}
	return c.APIKey
}

// Load loads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
