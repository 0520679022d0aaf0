package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	LLM        LLMConfig
	Extraction ExtractionConfig
	OCR        OCRConfig
	Cache      CacheConfig
	Storage    StorageConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	GenerateRPH int // per-IP hourly budget for the AI create/edit routes
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type LLMConfig struct {
	OpenAIKey        string
	AnthropicKey     string
	OllamaURL        string
	DefaultProvider  string
	DefaultModel     string
	FallbackProvider string
	MaxRetries       int
}

// ExtractionConfig controls the document text-extraction pipeline.
type ExtractionConfig struct {
	UseCache        bool
	HighQuality     bool
	OCRQualityCheck bool          // run the quality gate on OCR output, flagging low confidence
	Concurrency     int           // documents processed in parallel per batch; 1 = sequential
	DocTimeout      time.Duration // per-document deadline; 0 = none
}

type OCRConfig struct {
	Engine       string // "cli" or "cgo"
	TesseractBin string
	PdftoppmBin  string
	Languages    string
	Preprocess   bool // clean up rendered pages before recognition
	DPIHigh      int
	DPIStandard  int
}

type CacheConfig struct {
	Backend string // "disk" or "redis"
	Dir     string
	TTL     time.Duration // redis entry TTL; 0 = no expiry
	MaxAge  time.Duration // disk sweep age; 0 = never sweep
}

type StorageConfig struct {
	DataDir string
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	generateRPH, err := getEnvInt("GENERATE_RATE_PER_HOUR", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATE_RATE_PER_HOUR: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxRetries, err := getEnvInt("LLM_MAX_RETRIES", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_RETRIES: %w", err)
	}

	concurrency, err := getEnvInt("EXTRACT_CONCURRENCY", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid EXTRACT_CONCURRENCY: %w", err)
	}

	docTimeout, err := getEnvDuration("EXTRACT_DOC_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid EXTRACT_DOC_TIMEOUT: %w", err)
	}

	dpiHigh, err := getEnvInt("OCR_DPI_HIGH", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_DPI_HIGH: %w", err)
	}

	dpiStd, err := getEnvInt("OCR_DPI_STANDARD", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid OCR_DPI_STANDARD: %w", err)
	}

	cacheTTL, err := getEnvDuration("CACHE_TTL", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	cacheMaxAge, err := getEnvDuration("CACHE_MAX_AGE", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_MAX_AGE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			GenerateRPH: generateRPH,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", getEnv("CLAUDE_API_KEY", "")),
			OllamaURL:        getEnv("OLLAMA_URL", ""),
			DefaultProvider:  getEnv("LLM_DEFAULT_PROVIDER", "anthropic"),
			DefaultModel:     getEnv("LLM_DEFAULT_MODEL", "claude-sonnet-4-20250514"),
			FallbackProvider: getEnv("LLM_FALLBACK_PROVIDER", ""),
			MaxRetries:       maxRetries,
		},
		Extraction: ExtractionConfig{
			UseCache:        getEnvBool("EXTRACT_USE_CACHE", true),
			HighQuality:     getEnvBool("EXTRACT_HIGH_QUALITY", true),
			OCRQualityCheck: getEnvBool("OCR_QUALITY_CHECK", false),
			Concurrency:     concurrency,
			DocTimeout:      docTimeout,
		},
		OCR: OCRConfig{
			Engine:       getEnv("OCR_ENGINE", "cli"),
			TesseractBin: getEnv("TESSERACT_BIN", "tesseract"),
			PdftoppmBin:  getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Languages:    getEnv("OCR_LANGUAGES", "eng"),
			Preprocess:   getEnvBool("OCR_PREPROCESS", true),
			DPIHigh:      dpiHigh,
			DPIStandard:  dpiStd,
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", "disk"),
			Dir:     getEnv("CACHE_DIR", "/tmp/formflow_ocr_cache"),
			TTL:     cacheTTL,
			MaxAge:  cacheMaxAge,
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "/var/lib/formflow"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if c.Cache.Backend != "disk" && c.Cache.Backend != "redis" {
		return fmt.Errorf("invalid CACHE_BACKEND %q (want disk or redis)", c.Cache.Backend)
	}
	if c.OCR.Engine != "cli" && c.OCR.Engine != "cgo" {
		return fmt.Errorf("invalid OCR_ENGINE %q (want cli or cgo)", c.OCR.Engine)
	}
	if c.Extraction.Concurrency < 1 {
		return fmt.Errorf("EXTRACT_CONCURRENCY must be >= 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
