package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Processing  ProcessingConfig `toml:"processing"`
	Report      ReportConfig     `toml:"report"`
	Analysis    AnalysisConfig   `toml:"analysis"`
	Logging     LoggingConfig    `toml:"logging"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
	// SubmissionRate is the number of document submissions per second accepted
	// across all users. Zero disables the limiter.
	SubmissionRate  float64 `toml:"submission_rate" validate:"gte=0"`
	SubmissionBurst int     `toml:"submission_burst" validate:"gte=0"`
}

// StorageConfig selects where agreement state lives.
type StorageConfig struct {
	Type   string       `toml:"type" validate:"oneof=memory badger"` // "memory" or "badger"
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// ProcessingConfig holds the document pipeline thresholds.
type ProcessingConfig struct {
	MinTextLength   int    `toml:"min_text_length" validate:"gte=1"`    // Minimum extracted characters required for analysis
	MaxFileSizeMB   int    `toml:"max_file_size_mb" validate:"gte=1"`   // Maximum accepted upload size
	DefaultLanguage string `toml:"default_language" validate:"required"` // Fallback when language detection is inconclusive
	TempDir         string `toml:"temp_dir" validate:"required"`         // Root for per-case working directories
	ReportsDir      string `toml:"reports_dir" validate:"required"`      // Where rendered reports wait for delivery
}

// MaxFileSizeBytes returns the upload limit in bytes
func (p ProcessingConfig) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMB) * 1024 * 1024
}

type ReportConfig struct {
	Title    string `toml:"title"`     // Report title line
	FontPath string `toml:"font_path"` // Optional TTF for non Latin-1 text
}

type AnalysisConfig struct {
	PromptFile string `toml:"prompt_file"` // Optional override of the built-in instruction template
	Timeout    string `toml:"timeout"`     // Overall deadline for the analysis call; empty means none
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the analysis backend
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            8085,
			Host:            "localhost",
			SubmissionRate:  2,
			SubmissionBurst: 4,
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				Path: "./data/agreements",
			},
		},
		Processing: ProcessingConfig{
			MinTextLength:   50,
			MaxFileSizeMB:   20,
			DefaultLanguage: "en",
			TempDir:         "./temp_files",
			ReportsDir:      "./data/generated_reports",
		},
		Report: ReportConfig{
			Title: "Political Case Analysis Report",
		},
		Analysis: AnalysisConfig{
			Timeout: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.4,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0.4,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration using its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Analysis.Timeout != "" {
		if _, err := time.ParseDuration(c.Analysis.Timeout); err != nil {
			return fmt.Errorf("invalid analysis.timeout '%s': %w", c.Analysis.Timeout, err)
		}
	}
	return nil
}

// AnalysisTimeout returns the configured analysis deadline, zero when unset
func (c *Config) AnalysisTimeout() time.Duration {
	if c.Analysis.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Analysis.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CASEBOT_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CASEBOT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CASEBOT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if storageType := os.Getenv("CASEBOT_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("CASEBOT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Processing configuration
	if minLength := os.Getenv("CASEBOT_MIN_TEXT_LENGTH"); minLength != "" {
		if ml, err := strconv.Atoi(minLength); err == nil {
			config.Processing.MinTextLength = ml
		}
	}
	if maxSize := os.Getenv("CASEBOT_MAX_FILE_SIZE_MB"); maxSize != "" {
		if ms, err := strconv.Atoi(maxSize); err == nil {
			config.Processing.MaxFileSizeMB = ms
		}
	}
	if lang := os.Getenv("CASEBOT_DEFAULT_LANGUAGE"); lang != "" {
		config.Processing.DefaultLanguage = lang
	}
	if tempDir := os.Getenv("CASEBOT_TEMP_DIR"); tempDir != "" {
		config.Processing.TempDir = tempDir
	}
	if reportsDir := os.Getenv("CASEBOT_REPORTS_DIR"); reportsDir != "" {
		config.Processing.ReportsDir = reportsDir
	}

	// Logging configuration
	if level := os.Getenv("CASEBOT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CASEBOT_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("CASEBOT_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("CASEBOT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}

	// Claude configuration
	if apiKey := os.Getenv("CASEBOT_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("CASEBOT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	if provider := os.Getenv("CASEBOT_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variables -> config fallback -> error.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"CASEBOT_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"CASEBOT_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
