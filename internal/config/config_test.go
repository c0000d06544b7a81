package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "RAG_API_KEY", "CHUNK_SIZE", "CHUNK_OVERLAP",
	"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_BATCH_SIZE", "EMBEDDING_CACHE_SIZE", "EMBEDDING_RATE_LIMIT", "GEMINI_API_KEY",
	"VECTOR_STORE_DIR", "VECTOR_STORE_COLLECTION", "TOP_K",
	"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", "GENERATION_MAX_TOKENS", "GENERATION_TEMPERATURE", "PROMPTS_FILE",
	"WORKER_COUNT", "MAX_QUEUE_SIZE", "MAX_UPLOAD_BYTES", "JOB_TTL", "PDF_FALLBACK_PDFTOTEXT",
	"RETRY_MAX", "RETRY_INITIAL_DELAY", "RETRY_MAX_DELAY",
}

// cleanEnv blanks every variable Load reads and points RAG_CONFIG at path.
func cleanEnv(t *testing.T, path string) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("RAG_CONFIG", path)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retrieval_config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 700 || cfg.ChunkOverlap != 100 {
		t.Errorf("chunking: got %d/%d, want 700/100", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.EmbeddingBatchSize != 64 {
		t.Errorf("batch size: got %d, want 64", cfg.EmbeddingBatchSize)
	}
	if cfg.VectorStoreCollection != "aged_care_docs" {
		t.Errorf("collection: got %q", cfg.VectorStoreCollection)
	}
	if cfg.TopK != 5 {
		t.Errorf("top k: got %d, want 5", cfg.TopK)
	}
	if len(cfg.SectionPatterns) != 3 {
		t.Errorf("expected 3 default section patterns, got %v", cfg.SectionPatterns)
	}
	if cfg.EmbeddingRateLimit != 10 {
		t.Errorf("rate limit: got %v, want 10", cfg.EmbeddingRateLimit)
	}
	if cfg.Port != "8090" {
		t.Errorf("port: got %q", cfg.Port)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
chunking:
  chunk_size: 500
  chunk_overlap: 50
sections:
  patterns:
    - 'Clause\s+\d+'
embedding:
  provider: static
  batch_size: 16
vector_store:
  persist_directory: /tmp/store
  collection_name: test_docs
retrieval:
  top_k_vector: 3
generation:
  temperature: 0
`)
	cleanEnv(t, path)
	t.Setenv("CHUNK_OVERLAP", "80")
	t.Setenv("JOB_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ChunkSize != 500 {
		t.Errorf("chunk size from file: got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 80 {
		t.Errorf("env should override file: got %d", cfg.ChunkOverlap)
	}
	if len(cfg.SectionPatterns) != 1 || cfg.SectionPatterns[0] != `Clause\s+\d+` {
		t.Errorf("patterns: got %v", cfg.SectionPatterns)
	}
	if cfg.EmbeddingProvider != "static" || cfg.EmbeddingBatchSize != 16 {
		t.Errorf("embedding: got %q/%d", cfg.EmbeddingProvider, cfg.EmbeddingBatchSize)
	}
	if cfg.EmbeddingModel != "text-embedding-004" {
		t.Errorf("unset file values keep defaults: got %q", cfg.EmbeddingModel)
	}
	if cfg.VectorStoreDir != "/tmp/store" || cfg.VectorStoreCollection != "test_docs" {
		t.Errorf("store: got %q/%q", cfg.VectorStoreDir, cfg.VectorStoreCollection)
	}
	if cfg.TopK != 3 {
		t.Errorf("top k: got %d", cfg.TopK)
	}
	if cfg.GenerationTemperature != 0 {
		t.Errorf("explicit zero temperature should be kept, got %v", cfg.GenerationTemperature)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("job ttl: got %v", cfg.JobTTL)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	cleanEnv(t, writeFile(t, "chunking: [unclosed"))

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_ClampsOperationalValues(t *testing.T) {
	cleanEnv(t, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("WORKER_COUNT", "-1")
	t.Setenv("EMBEDDING_BATCH_SIZE", "0")
	t.Setenv("RETRY_MAX_DELAY", "1ms")
	t.Setenv("EMBEDDING_RATE_LIMIT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("worker count: got %d", cfg.WorkerCount)
	}
	if cfg.EmbeddingBatchSize != 64 {
		t.Errorf("batch size: got %d", cfg.EmbeddingBatchSize)
	}
	if cfg.EmbeddingRateLimit != 0 {
		t.Errorf("negative rate limit should disable throttling, got %v", cfg.EmbeddingRateLimit)
	}
	if cfg.RetryMaxDelay != cfg.RetryInitialDelay {
		t.Errorf("max delay should be raised to initial delay, got %v", cfg.RetryMaxDelay)
	}
}

func TestValidate(t *testing.T) {
	base := Defaults()
	base.EmbeddingProvider = "static"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero overlap", func(c *Config) { c.ChunkOverlap = 0 }, "CHUNK_OVERLAP"},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 700 }, "less than"},
		{"top k too large", func(c *Config) { c.TopK = 11 }, "TOP_K"},
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "word2vec" }, "EMBEDDING_PROVIDER"},
		{"gemini without key", func(c *Config) { c.EmbeddingProvider = "gemini" }, "GEMINI_API_KEY"},
		{"gemini with key", func(c *Config) { c.EmbeddingProvider = "gemini"; c.GeminiAPIKey = "k" }, ""},
		{"bad pattern", func(c *Config) { c.SectionPatterns = []string{"Standard("} }, "section pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.SectionPatterns = append([]string(nil), base.SectionPatterns...)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := Defaults()
	cfg.EmbeddingProvider = "static"

	if err := cfg.ValidateServe(); err == nil {
		t.Fatal("expected error without API keys")
	}
	cfg.RAGAPIKey = "secret"
	if err := cfg.ValidateServe(); err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected ANTHROPIC_API_KEY error, got %v", err)
	}
	cfg.AnthropicAPIKey = "key"
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFrom_IgnoresRAGConfig(t *testing.T) {
	cleanEnv(t, writeFile(t, "chunking:\n  chunk_size: 300\n"))
	explicit := writeFile(t, "chunking:\n  chunk_size: 900\n")

	cfg, err := LoadFrom(explicit)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.ChunkSize != 900 {
		t.Errorf("chunk size: got %d, want 900", cfg.ChunkSize)
	}
}
