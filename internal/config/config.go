package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	Version         string        `json:"version"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`
	MaxUploadSize   int64         `json:"max_upload_size"`

	// AI Configuration
	AIApiKey     string        `json:"-"`
	AIModel      string        `json:"ai_model"`
	AIImageModel string        `json:"ai_image_model"`
	AIBaseURL    string        `json:"ai_base_url"`
	AITimeout    time.Duration `json:"ai_timeout"`
	AIRateLimit  int           `json:"ai_rate_limit"` // calls per minute, 0 disables

	// Export
	ExportDir    string        `json:"export_dir"`
	FontRegular  string        `json:"font_regular"`
	FontBold     string        `json:"font_bold"`
	MediaTimeout time.Duration `json:"media_timeout"`
	MaxMediaSize int64         `json:"max_media_size"`

	// MediaAllowPrivate lets exports fetch media from internal addresses
	MediaAllowPrivate bool `json:"media_allow_private"`

	// CloudFlare R2 Configuration
	R2Endpoint  string `json:"r2_endpoint"`
	R2AccessKey string `json:"-"`
	R2SecretKey string `json:"-"`
	R2Bucket    string `json:"r2_bucket"`
	R2AccountID string `json:"r2_account_id"`
	R2Prefix    string `json:"r2_prefix"`

	// Editor surface
	Surface SurfaceConfig `json:"surface"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	LogPretty bool   `json:"log_pretty"`
}

// SurfaceConfig parameterizes the editor chrome instead of keeping one
// screen variant per deployment.
type SurfaceConfig struct {
	ShowStatusBar    bool   `json:"show_status_bar" yaml:"show_status_bar"`
	DiagnosticBanner string `json:"diagnostic_banner,omitempty" yaml:"diagnostic_banner,omitempty"`
	FooterText       string `json:"footer_text" yaml:"footer_text"`
}

// Load loads configuration from environment variables and validates it
func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// FromEnv reads the configuration from the process environment without
// touching .env files.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 120*time.Second),
		MaxUploadSize:   getEnvAsInt64("MAX_UPLOAD_SIZE", 20<<20),

		AIApiKey:     getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		AIModel:      getEnv("AI_MODEL", "gemini-2.5-flash"),
		AIImageModel: getEnv("AI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		AIBaseURL:    getEnv("AI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		AITimeout:    getEnvAsDuration("AI_TIMEOUT", 90*time.Second),
		AIRateLimit:  getEnvAsInt("AI_RATE_LIMIT", 0),

		ExportDir:    getEnv("EXPORT_DIR", ""),
		FontRegular:  getEnv("FONT_REGULAR", ""),
		FontBold:     getEnv("FONT_BOLD", ""),
		MediaTimeout: getEnvAsDuration("MEDIA_TIMEOUT", 30*time.Second),
		MaxMediaSize: getEnvAsInt64("MAX_MEDIA_SIZE", 25<<20),

		MediaAllowPrivate: getEnvAsBool("MEDIA_ALLOW_PRIVATE", false),

		R2Endpoint:  getEnv("R2_ENDPOINT", ""),
		R2AccessKey: getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:    getEnv("R2_BUCKET", ""),
		R2AccountID: getEnv("CLOUDFLARE_ACCOUNT_ID", ""),
		R2Prefix:    getEnv("R2_PREFIX", "exports/"),

		Surface: SurfaceConfig{
			ShowStatusBar:    getEnvAsBool("SURFACE_STATUS_BAR", true),
			DiagnosticBanner: getEnv("SURFACE_DIAGNOSTIC_BANNER", ""),
			FooterText:       getEnv("SURFACE_FOOTER", "NewsInsight"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.AIRateLimit < 0 {
		return fmt.Errorf("AI_RATE_LIMIT must not be negative")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if c.R2Bucket != "" && (c.R2AccessKey == "" || c.R2SecretKey == "") {
		return fmt.Errorf("R2_BUCKET is set but R2 credentials are missing")
	}
	return nil
}

// R2Enabled reports whether exports should also be uploaded to R2.
func (c *Config) R2Enabled() bool {
	return c.R2Bucket != "" && (c.R2Endpoint != "" || c.R2AccountID != "")
}

// CredentialConfigured reports whether the AI credential is usable.
func (c *Config) CredentialConfigured() bool {
	return IsCredentialConfigured(c.AIApiKey)
}

var placeholderKeys = map[string]bool{
	"test-key":            true,
	"your-api-key":        true,
	"your_api_key":        true,
	"your_api_key_here":   true,
	"placeholder_api_key": true,
	"gemini_api_key":      true,
	"api_key":             true,
	"undefined":           true,
	"null":                true,
	"changeme":            true,
}

// IsCredentialConfigured reports whether key looks like a real credential:
// not empty and not an obvious placeholder.
func IsCredentialConfigured(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	if placeholderKeys[lower] {
		return false
	}
	return !strings.HasPrefix(lower, "<") && !strings.Contains(lower, "xxxx")
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
