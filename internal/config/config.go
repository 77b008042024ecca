package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/collections-tracker/")
	v.AddConfigPath("$HOME/.collections-tracker")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("COLLECTIONS_TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Mail provider defaults
	v.SetDefault("mail.provider", "gmail")
	v.SetDefault("mail.account", "")
	v.SetDefault("mail.credentials_file", "")
	// Substrings identifying mail sent from our own account. The account
	// address itself is always included alongside these.
	v.SetDefault("mail.self_identifiers", []string{})
	v.SetDefault("mail.page_size", 100)

	// Email cache defaults
	v.SetDefault("cache.path", "data/email_cache.json")
	v.SetDefault("cache.max_age", "168h")

	// Case roster defaults
	v.SetDefault("roster.path", "data/cases.csv")

	// Tracking store defaults
	v.SetDefault("tracker.store", "json")
	v.SetDefault("tracker.json_path", "data/collections_tracking.json")
	v.SetDefault("tracker.sqlite_path", "data/collections_tracking.db")
	v.SetDefault("tracker.mysql_dsn", "user:password@tcp(localhost:3306)/collections")

	// Sent-email ledger defaults
	v.SetDefault("ledger.path", "logs/sent_emails.log")

	// Acknowledgment ledger defaults
	v.SetDefault("ack.path", "data/acknowledged_cases.json")

	// Classifier defaults
	v.SetDefault("classifier.result_ttl", "1h")
	v.SetDefault("classifier.critical_days", 90)
	v.SetDefault("classifier.high_priority_days", 60)
	v.SetDefault("classifier.follow_up_days", 30)
	v.SetDefault("classifier.statute_years", 2.0)
	v.SetDefault("classifier.doi_sentinel_year", 2099)
	v.SetDefault("classifier.litigation_keywords", []string{
		"litigation", "lawsuit", "filed", "settled", "settlement",
		"pending", "court", "dismissed", "trial", "arbitration",
	})

	// Drafting defaults
	v.SetDefault("drafting.provider", "openai")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.3)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_history_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_history_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_history_size", 4096)

	// SMTP fallback sender defaults
	v.SetDefault("smtp.address", "smtp.gmail.com:587")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	// Service loop defaults
	v.SetDefault("service.refresh_interval", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
