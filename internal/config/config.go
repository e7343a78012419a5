package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLinkedInAPIURL = "https://www.linkedin.com/voyager/api/me"

type Config struct {
	HTTPPort           string
	LogLevel           string
	LinkedInAPIURL     string
	UpstreamTimeout    time.Duration
	AllowedOrigins     []string
	RateLimitPerMinute int
	RateLimitBurst     int
	TrustedProxy       bool

	// Agent CLI settings
	AgentServerURL  string
	AgentStorePath  string
	AgentReplyDelay time.Duration
}

var AppConfig Config

func LoadConfig() error {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := fromEnv()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func fromEnv() (Config, error) {
	upstreamTimeout, err := getEnvAsDuration("UPSTREAM_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	replyDelay, err := getEnvAsDuration("AGENT_REPLY_DELAY", time.Second)
	if err != nil {
		return Config{}, err
	}
	ratePerMinute, err := getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return Config{}, err
	}
	rateBurst, err := getEnvAsInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return Config{}, err
	}
	trustedProxy, err := getEnvAsBool("TRUSTED_PROXY", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		LogLevel:           strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LinkedInAPIURL:     getEnv("LINKEDIN_API_URL", DefaultLinkedInAPIURL),
		UpstreamTimeout:    upstreamTimeout,
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute: ratePerMinute,
		RateLimitBurst:     rateBurst,
		TrustedProxy:       trustedProxy,
		AgentServerURL:     strings.TrimRight(getEnv("AGENT_SERVER_URL", "http://localhost:8080"), "/"),
		AgentStorePath:     getEnv("AGENT_STORE_PATH", "linkedin_agent.db"),
		AgentReplyDelay:    replyDelay,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.LinkedInAPIURL == "" {
		return fmt.Errorf("LINKEDIN_API_URL cannot be empty")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be > 0")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	if c.RateLimitPerMinute > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0 when rate limiting is enabled")
	}
	if c.AgentReplyDelay < 0 {
		return fmt.Errorf("AGENT_REPLY_DELAY must be >= 0")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// NewLogger builds the production zap logger at the configured level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valueStr) == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valueStr) == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valueStr) == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
