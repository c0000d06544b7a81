package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when RAG_CONFIG is unset. A missing file is not an error.
const DefaultFile = "config/retrieval_config.yaml"

// DefaultSectionPatterns match the structural labels of the aged care
// quality standards.
var DefaultSectionPatterns = []string{
	`Standard\s+\d+`,
	`Outcome\s+\d+\.\d+`,
	`Action\s+\d+\.\d+\.\d+`,
}

type Config struct {
	Port string

	// Auth
	RAGAPIKey string

	// Chunking, in approximate tokens
	ChunkSize    int
	ChunkOverlap int

	// Section detection
	SectionPatterns []string

	// Embeddings
	EmbeddingProvider  string // "gemini" or "static"
	EmbeddingModel     string
	EmbeddingBatchSize int
	EmbeddingCacheSize int
	EmbeddingRateLimit float64 // Gemini requests per second; 0 disables throttling
	GeminiAPIKey       string

	// Vector store
	VectorStoreDir        string
	VectorStoreCollection string

	// Retrieval
	TopK int

	// Claude generation
	AnthropicAPIKey       string
	AnthropicModel        string
	GenerationMaxTokens   int
	GenerationTemperature float64
	PromptsFile           string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool

	// Retry around embedding, store and generation calls
	RetryMax          int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration
}

// fileConfig mirrors the layout of retrieval_config.yaml.
type fileConfig struct {
	Chunking struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"chunking"`
	Sections struct {
		Patterns []string `yaml:"patterns"`
	} `yaml:"sections"`
	Embedding struct {
		Provider  string  `yaml:"provider"`
		Model     string  `yaml:"model"`
		BatchSize int     `yaml:"batch_size"`
		CacheSize int     `yaml:"cache_size"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"embedding"`
	VectorStore struct {
		PersistDirectory string `yaml:"persist_directory"`
		CollectionName   string `yaml:"collection_name"`
	} `yaml:"vector_store"`
	Retrieval struct {
		TopKVector int `yaml:"top_k_vector"`
	} `yaml:"retrieval"`
	Generation struct {
		Model       string   `yaml:"model"`
		MaxTokens   int      `yaml:"max_tokens"`
		Temperature *float64 `yaml:"temperature"`
		PromptsFile string   `yaml:"prompts_file"`
	} `yaml:"generation"`
}

// Defaults returns the built-in configuration before any file or
// environment overrides.
func Defaults() Config {
	return Config{
		Port: "8090",

		ChunkSize:    700,
		ChunkOverlap: 100,

		SectionPatterns: append([]string(nil), DefaultSectionPatterns...),

		EmbeddingProvider:  "gemini",
		EmbeddingModel:     "text-embedding-004",
		EmbeddingBatchSize: 64,
		EmbeddingCacheSize: 1000,
		EmbeddingRateLimit: 10,

		VectorStoreDir:        "data/vectorstore",
		VectorStoreCollection: "aged_care_docs",

		TopK: 5,

		AnthropicModel:        "claude-sonnet-4-5-20250929",
		GenerationMaxTokens:   1024,
		GenerationTemperature: 0.1,
		PromptsFile:           "config/prompts.yaml",

		WorkerCount:  2,
		MaxQueueSize: 100,

		MaxUploadBytes: 52428800, // 50MB

		JobTTL: 1 * time.Hour,

		PDFFallbackPdftotext: true,

		RetryMax:          3,
		RetryInitialDelay: 1 * time.Second,
		RetryMaxDelay:     16 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// RAG_CONFIG (or DefaultFile), then environment variables.
func Load() (Config, error) {
	return LoadFrom(envOr("RAG_CONFIG", DefaultFile))
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an
// error.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()
	if err := cfg.mergeFile(path); err != nil {
		return cfg, err
	}

	cfg.applyEnv()
	cfg.clamp()
	return cfg, nil
}

// mergeFile overlays non-zero values from a YAML file.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setInt(&c.ChunkSize, f.Chunking.ChunkSize)
	setInt(&c.ChunkOverlap, f.Chunking.ChunkOverlap)
	if len(f.Sections.Patterns) > 0 {
		c.SectionPatterns = f.Sections.Patterns
	}
	setString(&c.EmbeddingProvider, f.Embedding.Provider)
	setString(&c.EmbeddingModel, f.Embedding.Model)
	setInt(&c.EmbeddingBatchSize, f.Embedding.BatchSize)
	setInt(&c.EmbeddingCacheSize, f.Embedding.CacheSize)
	if f.Embedding.RateLimit != 0 {
		c.EmbeddingRateLimit = f.Embedding.RateLimit
	}
	setString(&c.VectorStoreDir, f.VectorStore.PersistDirectory)
	setString(&c.VectorStoreCollection, f.VectorStore.CollectionName)
	setInt(&c.TopK, f.Retrieval.TopKVector)
	setString(&c.AnthropicModel, f.Generation.Model)
	setInt(&c.GenerationMaxTokens, f.Generation.MaxTokens)
	if f.Generation.Temperature != nil {
		c.GenerationTemperature = *f.Generation.Temperature
	}
	setString(&c.PromptsFile, f.Generation.PromptsFile)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.RAGAPIKey = envOr("RAG_API_KEY", c.RAGAPIKey)

	c.ChunkSize = envInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = envInt("CHUNK_OVERLAP", c.ChunkOverlap)

	c.EmbeddingProvider = envOr("EMBEDDING_PROVIDER", c.EmbeddingProvider)
	c.EmbeddingModel = envOr("EMBEDDING_MODEL", c.EmbeddingModel)
	c.EmbeddingBatchSize = envInt("EMBEDDING_BATCH_SIZE", c.EmbeddingBatchSize)
	c.EmbeddingCacheSize = envInt("EMBEDDING_CACHE_SIZE", c.EmbeddingCacheSize)
	c.EmbeddingRateLimit = envFloat("EMBEDDING_RATE_LIMIT", c.EmbeddingRateLimit)
	c.GeminiAPIKey = envOr("GEMINI_API_KEY", c.GeminiAPIKey)

	c.VectorStoreDir = envOr("VECTOR_STORE_DIR", c.VectorStoreDir)
	c.VectorStoreCollection = envOr("VECTOR_STORE_COLLECTION", c.VectorStoreCollection)

	c.TopK = envInt("TOP_K", c.TopK)

	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.AnthropicModel = envOr("ANTHROPIC_MODEL", c.AnthropicModel)
	c.GenerationMaxTokens = envInt("GENERATION_MAX_TOKENS", c.GenerationMaxTokens)
	c.GenerationTemperature = envFloat("GENERATION_TEMPERATURE", c.GenerationTemperature)
	c.PromptsFile = envOr("PROMPTS_FILE", c.PromptsFile)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.RetryMax = envInt("RETRY_MAX", c.RetryMax)
	c.RetryInitialDelay = envDuration("RETRY_INITIAL_DELAY", c.RetryInitialDelay)
	c.RetryMaxDelay = envDuration("RETRY_MAX_DELAY", c.RetryMaxDelay)
}

// clamp restores defaults for operational knobs that must be positive.
// Chunking values are left alone so Validate can report them.
func (c *Config) clamp() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.EmbeddingBatchSize <= 0 {
		c.EmbeddingBatchSize = d.EmbeddingBatchSize
	}
	if c.EmbeddingCacheSize < 0 {
		c.EmbeddingCacheSize = 0
	}
	if c.EmbeddingRateLimit < 0 {
		c.EmbeddingRateLimit = 0
	}
	if c.GenerationMaxTokens <= 0 {
		c.GenerationMaxTokens = d.GenerationMaxTokens
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryInitialDelay <= 0 {
		c.RetryInitialDelay = d.RetryInitialDelay
	}
	if c.RetryMaxDelay < c.RetryInitialDelay {
		c.RetryMaxDelay = c.RetryInitialDelay
	}
}

// Validate checks everything ingestion and retrieval need.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap <= 0 {
		return fmt.Errorf("CHUNK_OVERLAP must be positive, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be less than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("TOP_K must be between 1 and 10, got %d", c.TopK)
	}
	switch c.EmbeddingProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini embedding provider")
		}
	case "static":
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	for _, p := range c.SectionPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("section pattern %q: %w", p, err)
		}
	}
	return nil
}

// ValidateServe additionally requires the keys the HTTP service uses.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.RAGAPIKey == "" {
		return fmt.Errorf("RAG_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
