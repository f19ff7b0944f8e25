// Package config loads the server configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	Server    Server    `envPrefix:"SERVER_"`
	Store     Store     `envPrefix:"STORE_"`
	JWT       JWT       `envPrefix:"JWT_"`
	Google    OAuth     `envPrefix:"GOOGLE_"`
	GitHub    OAuth     `envPrefix:"GITHUB_"`
	News      News      `envPrefix:"NEWS_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	MinIO     MinIO     `envPrefix:"MINIO_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

// Server contains HTTP server parameters.
type Server struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	TimeZone     string `env:"TIME_ZONE" envDefault:"Local"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`
	// Where the browser lands after a successful sign-in.
	RedirectURL string `env:"REDIRECT_URL" envDefault:"/"`
	// Prefix for the provider callback URLs, e.g. https://editorialchain.app
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
}

// Store selects and configures the profile/preference store.
type Store struct {
	Driver       string        `env:"DRIVER" envDefault:"sqlite"`
	SQLitePath   string        `env:"SQLITE_PATH" envDefault:"data/editorialchain.db"`
	MongoURI     string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string        `env:"MONGO_DATABASE" envDefault:"editorialchain"`
	MongoTimeout time.Duration `env:"MONGO_TIMEOUT" envDefault:"10s"`
}

// JWT contains session token parameters.
type JWT struct {
	Secret string        `env:"SECRET"`
	TTL    time.Duration `env:"TTL" envDefault:"168h"`
}

// OAuth contains the credentials of one sign-in provider. A provider with
// no client id is disabled.
type OAuth struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Enabled reports whether the provider is configured.
func (o OAuth) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// News contains the news API parameters.
type News struct {
	BaseURL  string        `env:"BASE_URL" envDefault:"https://newsdata.io"`
	APIKey   string        `env:"API_KEY"`
	RPS      float64       `env:"RPS" envDefault:"1"`
	Burst    int           `env:"BURST" envDefault:"5"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`
}

// Redis contains the news cache connection. Empty Addr disables the cache.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// MinIO contains settings export storage parameters. Empty Endpoint
// disables exports.
type MinIO struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"editorialchain-exports"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// RateLimit contains the per-client limit of the /api routes.
type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

// NewConfig loads configuration from a .env file, when there is one, and
// environment variables. Variables already set in the environment win.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Location resolves the time zone used to count streak days.
func (s Server) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_TIME_ZONE %q: %w", s.TimeZone, err)
	}
	return loc, nil
}

// SlogLevel maps LogLevel onto a slog level; unknown names mean info.
func (s Server) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
