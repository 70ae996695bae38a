package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the assistant process.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string
	LogLevel         string

	BotToken      string
	ApplicationID string
	APIBaseURL    string
	GatewayURL    string

	GuildID          string
	StaffRoleID      string
	VerifyRoleID     string
	GreeterChannelID string

	CaptchaTimeLimit time.Duration

	QuizTimeLimit  time.Duration
	QuizMaxRetry   int
	PokeAPIBaseURL string

	ProxyListURL  string
	ProxyCheckURL string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "ayanamist"),
		LogLevel:         envOrDefault("APP_LOG_LEVEL", "info"),
		BotToken:         envTrimmed("DISCORD_BOT_TOKEN"),
		ApplicationID:    envTrimmed("DISCORD_APPLICATION_ID"),
		APIBaseURL:       envOrDefault("DISCORD_API_BASE_URL", "https://discord.com/api/v10"),
		GatewayURL:       envOrDefault("DISCORD_GATEWAY_URL", "wss://gateway.discord.gg/?v=10&encoding=json"),
		GuildID:          envTrimmed("GUILD_ID"),
		StaffRoleID:      envTrimmed("STAFF_ROLE_ID"),
		VerifyRoleID:     envTrimmed("VERIFY_ROLE_ID"),
		GreeterChannelID: envTrimmed("GREETER_CHANNEL_ID"),
		PokeAPIBaseURL:   envOrDefault("POKEAPI_BASE_URL", "https://pokeapi.co/api/v2"),
		ProxyListURL:     envOrDefault("PROXY_LIST_URL", "https://api.proxyscrape.com/?request=displayproxies&proxytype=all&timeout=1500"),
		ProxyCheckURL:    envOrDefault("PROXY_CHECK_URL", "https://api.proxyscrape.com/v2/online_check.php"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
		CaptchaTimeLimit: 20 * time.Second,
		QuizTimeLimit:    5 * time.Minute,
		QuizMaxRetry:     5,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CaptchaTimeLimit, err = durationFromEnv("CAPTCHA_TIME_LIMIT", cfg.CaptchaTimeLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.QuizTimeLimit, err = durationFromEnv("QUIZ_TIME_LIMIT", cfg.QuizTimeLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.QuizMaxRetry, err = intFromEnv("QUIZ_MAX_RETRY", cfg.QuizMaxRetry)
	if err != nil {
		return Config{}, err
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.GuildID == "" {
		return Config{}, fmt.Errorf("GUILD_ID is required")
	}
	if cfg.CaptchaTimeLimit < time.Second {
		return Config{}, fmt.Errorf("CAPTCHA_TIME_LIMIT must be at least 1s")
	}
	if cfg.QuizTimeLimit < 10*time.Second {
		return Config{}, fmt.Errorf("QUIZ_TIME_LIMIT must be at least 10s")
	}
	if cfg.QuizMaxRetry <= 0 {
		return Config{}, fmt.Errorf("QUIZ_MAX_RETRY must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
