// Package config provides application configuration loaded from the
// environment. This is part of the platform layer and contains no business
// logic. Modules depend on the narrow per-concern interfaces below rather
// than on the full Config struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig exposes database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig exposes HTTP server and CORS settings.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// OpenAIConfig exposes language-model provider settings.
type OpenAIConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIDefaultModel() string
	GetProviderTimeout() time.Duration
}

// TwilioConfig exposes telephony/messaging provider settings.
type TwilioConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioPhoneNumber() string
	GetTwilioBaseURL() string
	GetPublicBaseURL() string
	GetProviderTimeout() time.Duration
}

// SMTPConfig exposes email transport settings.
type SMTPConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SchedulerConfig exposes the Redis-backed job scheduler settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetFollowUpDelay() time.Duration
}

// OfficeHoursConfig exposes the out-of-office window.
type OfficeHoursConfig interface {
	GetOfficeHoursStart() int
	GetOfficeHoursEnd() int
	GetOfficeTimezone() *time.Location
}

// StorageConfig exposes object storage settings for recording archival.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketCallRecordings() string
}

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	OpenAIAPIKey       string
	OpenAIDefaultModel string
	ProviderTimeout    time.Duration

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	TwilioBaseURL     string
	PublicBaseURL     string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	FollowUpDelay    time.Duration

	OfficeHoursStart int
	OfficeHoursEnd   int
	OfficeTimezone   *time.Location

	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinioBucketCallRecordings string
}

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	tz, err := time.LoadLocation(getEnv("OFFICE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid OFFICE_TIMEZONE: %w", err)
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	smtpHost := getEnv("SMTP_HOST", "")

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIDefaultModel: getEnv("OPENAI_DEFAULT_MODEL", "gpt-3.5-turbo"),
		ProviderTimeout:    mustDuration(getEnv("PROVIDER_TIMEOUT", "30s")),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioBaseURL:     getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "BusinessOn"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		FollowUpDelay:    mustDuration(getEnv("FOLLOWUP_DELAY", "24h")),

		OfficeHoursStart: mustInt(getEnv("OFFICE_HOURS_START", "9"), 9),
		OfficeHoursEnd:   mustInt(getEnv("OFFICE_HOURS_END", "18"), 18),
		OfficeTimezone:   tz,

		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketCallRecordings: getEnv("MINIO_BUCKET_CALL_RECORDINGS", "call-recordings"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.OfficeHoursStart < 0 || cfg.OfficeHoursEnd > 24 || cfg.OfficeHoursStart >= cfg.OfficeHoursEnd {
		return nil, fmt.Errorf("invalid office hours window: %d-%d", cfg.OfficeHoursStart, cfg.OfficeHoursEnd)
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// Database settings
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTP settings
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// OpenAI settings
func (c *Config) GetOpenAIAPIKey() string         { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIDefaultModel() string   { return c.OpenAIDefaultModel }
func (c *Config) GetProviderTimeout() time.Duration { return c.ProviderTimeout }

// Twilio settings
func (c *Config) GetTwilioAccountSID() string  { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string   { return c.TwilioAuthToken }
func (c *Config) GetTwilioPhoneNumber() string { return c.TwilioPhoneNumber }
func (c *Config) GetTwilioBaseURL() string     { return c.TwilioBaseURL }
func (c *Config) GetPublicBaseURL() string     { return c.PublicBaseURL }

// Email settings
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Scheduler settings
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetFollowUpDelay() time.Duration { return c.FollowUpDelay }

// Office hours settings
func (c *Config) GetOfficeHoursStart() int           { return c.OfficeHoursStart }
func (c *Config) GetOfficeHoursEnd() int             { return c.OfficeHoursEnd }
func (c *Config) GetOfficeTimezone() *time.Location  { return c.OfficeTimezone }

// Storage settings
func (c *Config) GetMinIOEndpoint() string             { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string            { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string            { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                 { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketCallRecordings() string { return c.MinioBucketCallRecordings }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
