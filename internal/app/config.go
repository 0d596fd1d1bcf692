package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the client configuration, read from the environment.
type Config struct {
	// Backend base URL and versioned route prefix.
	APIURL    string `env:"STUDIO_API_URL" envDefault:"http://localhost:8000"`
	APIPrefix string `env:"STUDIO_API_PREFIX" envDefault:"/v1"`

	// Local sqlite file; ":memory:" keeps nothing between runs.
	DataFile string `env:"STUDIO_DATA_FILE" envDefault:"studio.db"`
	Locale   string `env:"STUDIO_LOCALE" envDefault:"en-US"`

	CacheRetention  time.Duration `env:"STUDIO_CACHE_RETENTION" envDefault:"60s"`
	CacheGCInterval time.Duration `env:"STUDIO_CACHE_GC_INTERVAL" envDefault:"30s"`
	NotificationTTL time.Duration `env:"STUDIO_NOTIFICATION_TTL" envDefault:"5s"`
	ResendCooldown  time.Duration `env:"STUDIO_RESEND_COOLDOWN" envDefault:"60s"`
	ForgotCooldown  time.Duration `env:"STUDIO_FORGOT_COOLDOWN" envDefault:"60s"`

	// Client side pacing; zero requests per second disables it.
	RequestsPerSecond float64 `env:"STUDIO_REQUESTS_PER_SECOND" envDefault:"0"`
	RequestBurst      int     `env:"STUDIO_REQUEST_BURST" envDefault:"10"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// EnvFileVar names the dotenv file loaded before parsing.
const EnvFileVar = "STUDIO_ENV_FILE"

// LoadConfig loads the dotenv file, when present, then parses the
// environment. Variables already set win over the file.
func LoadConfig() (Config, error) {
	file := os.Getenv(EnvFileVar)
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load %s: %w", file, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
