package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Signatures SignatureConfig
	Extraction ExtractionConfig
	AI         AIConfig
	Archive    ArchiveConfig
	Ingest     IngestConfig
}

// SignatureConfig holds signature-store configuration
type SignatureConfig struct {
	StorePath string
}

// ExtractionConfig holds the heuristic confidence constants.
// These are tuning knobs, not derived values: the discovery formula
// rewards extraction richness, not correctness.
type ExtractionConfig struct {
	EscalationThreshold float64 // below this, escalate to AI
	LearnThreshold      float64 // above this, cache AI-validated rules
	DiscoveryBase       float64 // discovery-mode confidence floor
	DiscoveryStep       float64 // per-field confidence bonus
	DiscoveryCap        float64 // discovery-mode confidence ceiling
	GuidedMatch         float64 // per-field confidence when a learned rule hits
	GuidedMiss          float64 // per-field confidence when a learned rule misses
}

// AIConfig holds AI-collaborator configuration
type AIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	Timeout      time.Duration
	MaxChars     int // character budget for text sent to the AI
	CostPerToken float64
}

// ArchiveConfig holds record-archive configuration
type ArchiveConfig struct {
	DSN string // postgres:// DSN or a sqlite file path
}

// IngestConfig holds watch-folder configuration
type IngestConfig struct {
	Debounce time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Signatures: SignatureConfig{
			StorePath: getEnv("SIGNATURE_STORE_PATH", "data/signatures.json"),
		},
		Extraction: ExtractionConfig{
			EscalationThreshold: getEnvAsFloat64("ESCALATION_THRESHOLD", 0.7),
			LearnThreshold:      getEnvAsFloat64("LEARN_THRESHOLD", 0.8),
			DiscoveryBase:       getEnvAsFloat64("DISCOVERY_BASE_CONFIDENCE", 0.3),
			DiscoveryStep:       getEnvAsFloat64("DISCOVERY_STEP_CONFIDENCE", 0.1),
			DiscoveryCap:        getEnvAsFloat64("DISCOVERY_CAP_CONFIDENCE", 0.9),
			GuidedMatch:         getEnvAsFloat64("GUIDED_MATCH_CONFIDENCE", 0.9),
			GuidedMiss:          getEnvAsFloat64("GUIDED_MISS_CONFIDENCE", 0.5),
		},
		AI: AIConfig{
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature:  getEnvAsFloat64("OPENAI_TEMPERATURE", 0.0),
			Timeout:      getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxChars:     getEnvAsInt("AI_MAX_CHARS", 4000),
			CostPerToken: getEnvAsFloat64("AI_COST_PER_TOKEN", 0.000001),
		},
		Archive: ArchiveConfig{
			DSN: getEnv("ARCHIVE_DSN", ""),
		},
		Ingest: IngestConfig{
			Debounce: getEnvAsDuration("INGEST_DEBOUNCE", 500*time.Millisecond),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Signatures.StorePath == "" {
		return NewAppError("CONFIG_ERROR", "SIGNATURE_STORE_PATH is required", ErrInvalidInput)
	}
	if c.Extraction.EscalationThreshold < 0 || c.Extraction.EscalationThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "ESCALATION_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.Extraction.LearnThreshold < 0 || c.Extraction.LearnThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "LEARN_THRESHOLD must be in [0,1]", ErrInvalidInput)
	}
	if c.AI.MaxChars <= 0 {
		return NewAppError("CONFIG_ERROR", "AI_MAX_CHARS must be positive", ErrInvalidInput)
	}
	return nil
}
