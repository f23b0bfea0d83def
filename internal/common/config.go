package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Workspace WorkspaceConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Consensus ConsensusConfig
	Matching  MatchingConfig
}

// WorkspaceConfig holds study-workspace and database configuration
type WorkspaceConfig struct {
	StudiesDir string
	DBPath     string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm string
	Engines  []string // priority order, first available wins
	DPI      int
	MaxPages int
	Timeout  time.Duration
}

// LLMConfig holds language-model configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
}

// ConsensusConfig holds merge tuning knobs. Defaults, not law: the threshold
// and weights may need retuning against a labelled corpus.
type ConsensusConfig struct {
	SimilarityThreshold float64
	WeightLLM           int
	WeightOCR           int
	WeightHeuristic     int
}

// MatchingConfig holds the placeholder eligibility rule configuration
type MatchingConfig struct {
	MinAge int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			StudiesDir: getEnv("STUDIES_DIR", "./studies"),
			DBPath:     getEnv("DB_PATH", "./clinvara.db"),
		},
		OCR: OCRConfig{
			Pdftoppm: getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Engines:  splitCSV(getEnv("OCR_ENGINES", "paddleocr,easyocr,tesseract")),
			DPI:      getEnvAsInt("OCR_DPI", 300),
			MaxPages: getEnvAsInt("OCR_MAX_PAGES", 0),
			Timeout:  getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxAttempts: getEnvAsInt("OPENAI_MAX_ATTEMPTS", 3),
		},
		Consensus: ConsensusConfig{
			SimilarityThreshold: getEnvAsFloat64("CONSENSUS_SIMILARITY", 0.80),
			WeightLLM:           getEnvAsInt("CONSENSUS_WEIGHT_LLM", 3),
			WeightOCR:           getEnvAsInt("CONSENSUS_WEIGHT_OCR", 2),
			WeightHeuristic:     getEnvAsInt("CONSENSUS_WEIGHT_HEURISTIC", 1),
		},
		Matching: MatchingConfig{
			MinAge: getEnvAsInt("MATCHING_MIN_AGE", 18),
		},
	}
}

// Validate checks the loaded configuration. The LLM key is not required:
// the pipeline degrades that strategy to empty output when it is missing.
func (c *Config) Validate() error {
	if c.Workspace.StudiesDir == "" {
		return NewAppError("CONFIG_ERROR", "STUDIES_DIR is required", ErrInvalidInput)
	}
	if c.Workspace.DBPath == "" {
		return NewAppError("CONFIG_ERROR", "DB_PATH is required", ErrInvalidInput)
	}
	if c.Consensus.SimilarityThreshold <= 0 || c.Consensus.SimilarityThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "CONSENSUS_SIMILARITY must be in (0,1]", ErrInvalidInput)
	}
	return nil
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
