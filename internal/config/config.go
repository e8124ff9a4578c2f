package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	LogFormat          string
	DatabaseURL        string
	CORSAllowedOrigins []string

	// Lead notification email
	ContactEmail        string
	EmailFrom           string
	EmailFromName       string
	EmailProvider       string
	EmailMaxRetries     int
	EmailRetryBaseDelay time.Duration
	NotifyTimeout       time.Duration
	BusinessTimezone    string

	// AWS (SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// SendGrid Email Configuration
	SendGridAPIKey string

	// SMTP Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Lead rate limiting
	RateLimitBackend       string
	RateLimitMax           int
	RateLimitWindow        time.Duration
	RateLimitSweepInterval time.Duration
	RedisAddr              string
	RedisPassword          string
	RedisTLS               bool

	// Probe endpoint throttling
	ProbeRatePerSecond float64
	ProbeBurst         int

	HoneypotDelay time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		ContactEmail:        getEnv("CONTACT_EMAIL", "info@t5fueling.com"),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@t5fueling.com"),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Texas Five Fueling"),
		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		EmailMaxRetries:     getEnvAsInt("EMAIL_MAX_RETRIES", 3),
		EmailRetryBaseDelay: getEnvAsDuration("EMAIL_RETRY_BASE_DELAY", time.Second),
		NotifyTimeout:       getEnvAsDuration("NOTIFY_TIMEOUT", 30*time.Second),
		BusinessTimezone:    getEnv("BUSINESS_TIMEZONE", "America/Chicago"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		RateLimitBackend:       strings.ToLower(strings.TrimSpace(getEnv("RATE_LIMIT_BACKEND", "memory"))),
		RateLimitMax:           getEnvAsInt("RATE_LIMIT_MAX", 5),
		RateLimitWindow:        getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour),
		RateLimitSweepInterval: getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 10*time.Minute),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisTLS:               getEnvAsBool("REDIS_TLS", false),

		ProbeRatePerSecond: getEnvAsFloat("PROBE_RATE_PER_SECOND", 1),
		ProbeBurst:         getEnvAsInt("PROBE_BURST", 10),

		HoneypotDelay: getEnvAsDuration("HONEYPOT_DELAY", 1500*time.Millisecond),
	}
}

// Rate limit backends accepted by RATE_LIMIT_BACKEND.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// IsProduction reports whether the process runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// Validate reports settings that would leave the lead pipeline unable to
// store or deliver submissions. Outside production only structural problems
// are rejected so local runs can fall back to in-memory storage and the stub
// email sender.
func (c *Config) Validate() error {
	var missing []string

	if c.RateLimitMax <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	if c.EmailMaxRetries < 0 {
		return fmt.Errorf("config: EMAIL_MAX_RETRIES must not be negative, got %d", c.EmailMaxRetries)
	}
	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	default:
		return fmt.Errorf("config: unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	switch c.EmailProvider {
	case "ses", "sendgrid", "smtp", "stub":
	default:
		return fmt.Errorf("config: unknown EMAIL_PROVIDER %q", c.EmailProvider)
	}

	if c.IsProduction() {
		if strings.TrimSpace(c.DatabaseURL) == "" {
			missing = append(missing, "DATABASE_URL")
		}
		switch c.EmailProvider {
		case "ses":
			if c.AWSAccessKeyID == "" || c.AWSSecretAccessKey == "" {
				missing = append(missing, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY")
			}
		case "sendgrid":
			if c.SendGridAPIKey == "" {
				missing = append(missing, "SENDGRID_API_KEY")
			}
		case "smtp":
			if c.SMTPHost == "" {
				missing = append(missing, "SMTP_HOST")
			}
		case "stub":
			return errors.New("config: EMAIL_PROVIDER=stub is not allowed in production")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
