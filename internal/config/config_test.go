package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.QdrantURL != "localhost:6334" {
		t.Errorf("QdrantURL = %q", cfg.QdrantURL)
	}
	if cfg.EmbeddingModel != "all-minilm" {
		t.Errorf("EmbeddingModel = %q", cfg.EmbeddingModel)
	}
	if cfg.VectorMaxCollections != 5 {
		t.Errorf("VectorMaxCollections = %d, want 5", cfg.VectorMaxCollections)
	}
	if cfg.DefaultTopFiles != 8 || cfg.DefaultTopChunks != 12 {
		t.Errorf("retrieval defaults = %d/%d, want 8/12", cfg.DefaultTopFiles, cfg.DefaultTopChunks)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("GROQ_MODEL", "other-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.GroqModel != "other-model" {
		t.Errorf("GroqModel = %q", cfg.GroqModel)
	}
}

func TestLLMKey(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"groq key wins", Config{GroqAPIKey: "g", APIKey: "a"}, "g"},
		{"legacy key fallback", Config{APIKey: "a"}, "a"},
		{"no key", Config{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.LLMKey(); got != tt.want {
				t.Errorf("LLMKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
