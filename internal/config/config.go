package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"mbti-quest/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	Port        string `envconfig:"PORT" default:"4000"`

	// AI narrative
	AIProvider      string        `envconfig:"AI_PROVIDER" default:"gemini"`
	AIModel         string        `envconfig:"AI_MODEL"`
	AIBaseURL       string        `envconfig:"AI_BASE_URL"`
	AITimeout       time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AITemperature   float32       `envconfig:"AI_TEMPERATURE" default:"0"`
	InsightCacheTTL time.Duration `envconfig:"INSIGHT_CACHE_TTL" default:"24h"`
	// Секретные поля БЕЗ envconfig тега
	GeminiAPIKey string
	OpenAIAPIKey string

	// Voice synthesis
	ElevenLabsVoiceID string        `envconfig:"ELEVENLABS_VOICE_ID" default:"pFZP5JQG7iQjIQuC4Bku"`
	ElevenLabsModelID string        `envconfig:"ELEVENLABS_MODEL_ID" default:"eleven_multilingual_v2"`
	ElevenLabsBaseURL string        `envconfig:"ELEVENLABS_BASE_URL" default:"https://api.elevenlabs.io"`
	ElevenLabsTimeout time.Duration `envconfig:"ELEVENLABS_TIMEOUT" default:"30s"`
	VoiceCooldown     time.Duration `envconfig:"VOICE_COOLDOWN" default:"3s"`
	ElevenLabsAPIKey  string

	// Database: persistence is enabled only when DB_HOST is set
	DBHost        string        `envconfig:"DB_HOST"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"mbti"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	DBPassword    string

	// Redis: cache, voice cooldown and rate limiting; enabled when REDIS_ADDR is set
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string

	// RabbitMQ: quiz.completed events; enabled when RABBITMQ_URL is set
	RabbitMQURL        string `envconfig:"RABBITMQ_URL"`
	QuizCompletedQueue string `envconfig:"QUIZ_COMPLETED_QUEUE" default:"quiz.completed"`

	// Quiz flow
	QuizLoadingDelay   time.Duration `envconfig:"QUIZ_LOADING_DELAY" default:"2s"`
	QuizTickInterval   time.Duration `envconfig:"QUIZ_TICK_INTERVAL" default:"50ms"`
	QuizQuestionLimit  int           `envconfig:"QUIZ_QUESTION_LIMIT" default:"0"`
	QuizHandoffTimeout time.Duration `envconfig:"QUIZ_HANDOFF_TIMEOUT" default:"10s"`
	NarrativeTimeout   time.Duration `envconfig:"QUIZ_NARRATIVE_TIMEOUT" default:"60s"`
	SessionIdleTTL     time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	SessionMaxCount    int           `envconfig:"SESSION_MAX_COUNT" default:"10000"`

	// Rate limiting of /api/gemini and /api/voice/speak per client IP
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitRequests uint          `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`

	// CORS Settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// GetAllowedOrigins splits CORSAllowedOrigins. nil means every origin.
func (c *Config) GetAllowedOrigins() []string {
	raw := strings.ReplaceAll(c.CORSAllowedOrigins, " ", "")
	if raw == "" || raw == "*" {
		return nil
	}
	return strings.Split(raw, ",")
}

// DatabaseEnabled reports whether results are persisted.
func (c *Config) DatabaseEnabled() bool { return c.DBHost != "" }

// RedisEnabled reports whether Redis backed components are used.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

// RabbitMQEnabled reports whether completion events are published.
func (c *Config) RabbitMQEnabled() bool { return c.RabbitMQURL != "" }

// DatabaseDSN builds the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// AIAPIKey returns the key of the selected provider.
func (c *Config) AIAPIKey() string {
	if strings.EqualFold(c.AIProvider, "openai") {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// LoadConfig loads configuration from environment variables and secrets.
// Missing API keys are not an error here: the dependent endpoints answer
// "<KEY> not configured" instead.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	// Загружаем НЕсекретные переменные из окружения
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Секреты: Docker secret или переменная окружения
	secrets := []struct {
		target *string
		secret string
		env    string
	}{
		{&cfg.GeminiAPIKey, "gemini_api_key", "GEMINI_API_KEY"},
		{&cfg.OpenAIAPIKey, "openai_api_key", "OPENAI_API_KEY"},
		{&cfg.ElevenLabsAPIKey, "elevenlabs_api_key", "ELEVENLABS_API_KEY"},
		{&cfg.DBPassword, "db_password", "DB_PASSWORD"},
		{&cfg.RedisPassword, "redis_password", "REDIS_PASSWORD"},
	}
	for _, s := range secrets {
		value, err := utils.ReadSecretOrEnv(s.secret, s.env)
		if err != nil {
			if errors.Is(err, utils.ErrSecretNotFound) {
				continue
			}
			return nil, err
		}
		*s.target = value
	}

	if cfg.Port == "" {
		return nil, fmt.Errorf("PORT must not be empty")
	}
	if cfg.QuizTickInterval <= 0 {
		return nil, fmt.Errorf("QUIZ_TICK_INTERVAL must be positive, got %s", cfg.QuizTickInterval)
	}
	if cfg.QuizQuestionLimit < 0 {
		return nil, fmt.Errorf("QUIZ_QUESTION_LIMIT must not be negative, got %d", cfg.QuizQuestionLimit)
	}
	return &cfg, nil
}
