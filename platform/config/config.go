// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for the SMTP email channel.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// VoiceConfig provides settings for the outbound voice-call provider.
type VoiceConfig interface {
	GetVoiceServiceURL() string
	GetVoiceServiceKey() string
	GetVoiceDefaultAgentRef() string
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSServiceURL() string
	GetSMSServiceKey() string
	GetSMSFromNumber() string
}

// ResearchConfig provides settings for the lead enrichment provider.
type ResearchConfig interface {
	GetResearchServiceURL() string
	GetResearchServiceKey() string
}

// StorageConfig provides settings for MinIO S3-compatible storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketResearchReports() string
	IsMinIOEnabled() bool
}

// AppConfig provides general application settings.
type AppConfig interface {
	GetAppBaseURL() string
}

// =============================================================================
// Config Struct
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	JWTAccessSecret string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	VoiceServiceURL      string
	VoiceServiceKey      string
	VoiceDefaultAgentRef string

	SMSServiceURL string
	SMSServiceKey string
	SMSFromNumber string

	ResearchServiceURL string
	ResearchServiceKey string

	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinioBucketResearchReports string

	AppBaseURL string
}

// Load reads configuration from the environment, loading .env when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: os.Getenv("JWT_ACCESS_SECRET"),

		CORSAllowAll:   getBoolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
		CORSAllowCreds: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),

		RedisURL:         os.Getenv("REDIS_URL"),
		RedisTLSInsecure: getBoolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getIntEnv("ASYNQ_CONCURRENCY", 10),

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getIntEnv("SMTP_PORT", 587),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Outreach"),
		EmailFromAddress: os.Getenv("EMAIL_FROM_ADDRESS"),

		VoiceServiceURL:      os.Getenv("VOICE_SERVICE_URL"),
		VoiceServiceKey:      os.Getenv("VOICE_SERVICE_KEY"),
		VoiceDefaultAgentRef: os.Getenv("VOICE_DEFAULT_AGENT_REF"),

		SMSServiceURL: os.Getenv("SMS_SERVICE_URL"),
		SMSServiceKey: os.Getenv("SMS_SERVICE_KEY"),
		SMSFromNumber: os.Getenv("SMS_FROM_NUMBER"),

		ResearchServiceURL: os.Getenv("RESEARCH_SERVICE_URL"),
		ResearchServiceKey: os.Getenv("RESEARCH_SERVICE_KEY"),

		MinIOEndpoint:              os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:             os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:             os.Getenv("MINIO_SECRET_KEY"),
		MinIOUseSSL:                getBoolEnv("MINIO_USE_SSL", false),
		MinioBucketResearchReports: getEnv("MINIO_BUCKET_RESEARCH_REPORTS", "research-reports"),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" && !strings.EqualFold(cfg.Env, "development") {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required outside development")
	}

	return cfg, nil
}

// Database
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWT
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTP
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// Scheduler
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Email
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Voice
func (c *Config) GetVoiceServiceURL() string      { return c.VoiceServiceURL }
func (c *Config) GetVoiceServiceKey() string      { return c.VoiceServiceKey }
func (c *Config) GetVoiceDefaultAgentRef() string { return c.VoiceDefaultAgentRef }

// SMS
func (c *Config) GetSMSServiceURL() string { return c.SMSServiceURL }
func (c *Config) GetSMSServiceKey() string { return c.SMSServiceKey }
func (c *Config) GetSMSFromNumber() string { return c.SMSFromNumber }

// Research
func (c *Config) GetResearchServiceURL() string { return c.ResearchServiceURL }
func (c *Config) GetResearchServiceKey() string { return c.ResearchServiceKey }

// Storage
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketResearchReports() string {
	return c.MinioBucketResearchReports
}
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

// App
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
