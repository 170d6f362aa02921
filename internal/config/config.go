package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// StorageDriver selects the key/value backend: memory, sqlite, postgres or redis.
	StorageDriver string
	SQLitePath    string
	Postgres      PostgresConfig
	Redis         RedisConfig

	// Question bank location. QuestionsBaseURL wins over QuestionsRoot when set.
	QuestionsRoot    string
	QuestionsBaseURL string
	ManifestPath     string
	FetchTimeout     time.Duration

	HistoryLimit       int
	WeakTopicCount     int
	DailyChallengeSize int
	ReviewInterval     time.Duration

	FeedbackSink     string
	SuggestionTriage bool
	AnthropicAPIKey  string
	AnthropicModel   string
	TriageCLIPath    string

	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string

	AllowedOrigins []string
	Location       *time.Location
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		SQLitePath:    getEnv("SQLITE_PATH", "data/smartstudy.db"),
		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "smartstudy"),
			Password: getEnv("DB_PASSWORD", "smartstudy"),
			Name:     getEnv("DB_NAME", "smartstudy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Prefix:   getEnv("REDIS_PREFIX", "smartstudy:"),
		},
		QuestionsRoot:     getEnv("QUESTIONS_ROOT", "."),
		QuestionsBaseURL:  getEnv("QUESTIONS_BASE_URL", ""),
		ManifestPath:      getEnv("MANIFEST_PATH", "questions/manifestquestions.json"),
		FeedbackSink:      strings.ToLower(getEnv("FEEDBACK_SINK", "storage")),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		TriageCLIPath:     getEnv("CLAUDE_CLI_PATH", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationEnv("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReviewInterval, err = durationEnv("REVIEW_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = intEnv("HISTORY_LIMIT", 200); err != nil {
		return nil, err
	}
	if cfg.WeakTopicCount, err = intEnv("WEAK_TOPIC_COUNT", 3); err != nil {
		return nil, err
	}
	if cfg.DailyChallengeSize, err = intEnv("DAILY_CHALLENGE_SIZE", 5); err != nil {
		return nil, err
	}
	if cfg.SuggestionTriage, err = boolEnv("SUGGESTION_TRIAGE", false); err != nil {
		return nil, err
	}

	tz := getEnv("TZ_NAME", "Local")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("TZ_NAME: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("STORAGE_DRIVER: unknown driver %q", c.StorageDriver)
	}
	switch c.FeedbackSink {
	case "storage", "postgres":
	default:
		return fmt.Errorf("FEEDBACK_SINK: unknown sink %q", c.FeedbackSink)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.DailyChallengeSize < 1 {
		return fmt.Errorf("DAILY_CHALLENGE_SIZE must be positive, got %d", c.DailyChallengeSize)
	}
	if c.WeakTopicCount < 1 {
		return fmt.Errorf("WEAK_TOPIC_COUNT must be positive, got %d", c.WeakTopicCount)
	}
	return nil
}

// AdminEnabled reports whether moderation endpoints can issue tokens.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" && c.JWTSecret != ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
