package config

import "time"

// MailConfig represents the configuration for the mail provider
type MailConfig struct {
	Provider        string
	Account         string
	CredentialsFile string
	SelfIdentifiers []string
	PageSize        int
}

// TrackerConfig represents the configuration for the case tracking store
type TrackerConfig struct {
	Store      string
	JSONPath   string
	SQLitePath string
	MySQLDSN   string
}

// ClassifierConfig represents the configuration for the stale-case classifier
type ClassifierConfig struct {
	ResultTTL          time.Duration
	CriticalDays       int
	HighPriorityDays   int
	FollowUpDays       int
	StatuteYears       float64
	DOISentinelYear    int
	LitigationKeywords []string
}

// DraftingConfig represents the configuration for the email drafting service
type DraftingConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region         string
	ModelID        string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxHistorySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxHistorySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	ModelName      string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxHistorySize int
}

// SMTPConfig represents the configuration for the outbound SMTP fallback
type SMTPConfig struct {
	Address  string
	Username string
	Password string
	From     string
}

// GetMail returns the mail provider configuration
func (c *Config) GetMail() MailConfig {
	return MailConfig{
		Provider:        c.GetString("mail.provider"),
		Account:         c.GetString("mail.account"),
		CredentialsFile: c.GetString("mail.credentials_file"),
		SelfIdentifiers: c.GetStringSlice("mail.self_identifiers"),
		PageSize:        c.GetInt("mail.page_size"),
	}
}

// GetTracker returns the tracking store configuration
func (c *Config) GetTracker() TrackerConfig {
	return TrackerConfig{
		Store:      c.GetString("tracker.store"),
		JSONPath:   c.GetString("tracker.json_path"),
		SQLitePath: c.GetString("tracker.sqlite_path"),
		MySQLDSN:   c.GetString("tracker.mysql_dsn"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() (ClassifierConfig, error) {
	ttl, err := c.GetDuration("classifier.result_ttl")
	if err != nil {
		return ClassifierConfig{}, err
	}
	return ClassifierConfig{
		ResultTTL:          ttl,
		CriticalDays:       c.GetInt("classifier.critical_days"),
		HighPriorityDays:   c.GetInt("classifier.high_priority_days"),
		FollowUpDays:       c.GetInt("classifier.follow_up_days"),
		StatuteYears:       c.GetFloat64("classifier.statute_years"),
		DOISentinelYear:    c.GetInt("classifier.doi_sentinel_year"),
		LitigationKeywords: c.GetStringSlice("classifier.litigation_keywords"),
	}, nil
}

// GetDrafting returns the drafting service configuration
func (c *Config) GetDrafting() DraftingConfig {
	return DraftingConfig{
		Provider: c.GetString("drafting.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:         c.GetString("bedrock.region"),
		ModelID:        c.GetString("bedrock.model_id"),
		MaxTokens:      c.GetInt("bedrock.max_tokens"),
		Temperature:    float32(c.GetFloat64("bedrock.temperature")),
		TopP:           float32(c.GetFloat64("bedrock.top_p")),
		MaxHistorySize: c.GetInt("bedrock.max_history_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
		MaxHistorySize: c.GetInt("gemini.max_history_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		ModelName:      c.GetString("openai.model_name"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
		MaxHistorySize: c.GetInt("openai.max_history_size"),
	}
}

// GetSMTP returns the outbound SMTP configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("smtp.address"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
	}
}
