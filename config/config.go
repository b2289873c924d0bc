package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me"

// Config holds all configuration for the application
type Config struct {
	Env Environment `mapstructure:"-"`

	Server struct {
		Host string `mapstructure:"host"`
		Port string `mapstructure:"port"`
		// BaseURL is the public origin used to build short links and
		// canonical recipe URLs.
		BaseURL     string   `mapstructure:"base_url"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`

	Database struct {
		Driver     string `mapstructure:"driver"`
		Host       string `mapstructure:"host"`
		Port       string `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		SSLMode    string `mapstructure:"ssl_mode"`
		SQLitePath string `mapstructure:"sqlite_path"`
	} `mapstructure:"database"`

	Redis struct {
		URL      string `mapstructure:"url"`
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Storage struct {
		Driver   string `mapstructure:"driver"`
		Bucket   string `mapstructure:"bucket"`
		Region   string `mapstructure:"region"`
		Endpoint string `mapstructure:"endpoint"`
		LocalDir string `mapstructure:"local_dir"`
		MediaURL string `mapstructure:"media_url"`
	} `mapstructure:"storage"`

	ShortLink struct {
		Length      int           `mapstructure:"length"`
		MaxAttempts int           `mapstructure:"max_attempts"`
		CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"short_link"`

	Pagination struct {
		DefaultLimit int `mapstructure:"default_limit"`
		MaxLimit     int `mapstructure:"max_limit"`
	} `mapstructure:"pagination"`

	RateLimit struct {
		RecipeCreationPerHour int `mapstructure:"recipe_creation_per_hour"`
	} `mapstructure:"rate_limit"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// RedisEnabled reports whether a Redis endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.URL != "" || c.Redis.Host != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "foodgram")
	v.SetDefault("database.name", "foodgram")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sqlite_path", "foodgram.db")

	// keys without a meaningful default still need registering so that
	// AutomaticEnv picks them up during Unmarshal
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.local_dir", "media")
	v.SetDefault("storage.media_url", "/media")

	v.SetDefault("short_link.length", 6)
	v.SetDefault("short_link.max_attempts", 16)
	v.SetDefault("short_link.cache_ttl", 24*time.Hour)

	v.SetDefault("pagination.default_limit", 6)
	v.SetDefault("pagination.max_limit", 100)

	v.SetDefault("rate_limit.recipe_creation_per_hour", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")
}

// LoadConfig builds the configuration from defaults, an optional config file,
// environment variables and Docker secrets, in that order of precedence.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	if IsDevelopment() {
		// a missing .env is fine
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Env = env

	// CORS origins arrive as a single comma separated string from the environment
	if len(cfg.Server.CORSOrigins) == 1 && strings.Contains(cfg.Server.CORSOrigins[0], ",") {
		cfg.Server.CORSOrigins = strings.Split(cfg.Server.CORSOrigins[0], ",")
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
		if IsProduction() {
			cfg.Log.Format = "json"
		}
	}

	applySecrets(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applySecrets overrides sensitive values with Docker secrets when present.
func applySecrets(cfg *Config) {
	if s := readSecret("db_password"); s != "" {
		cfg.Database.Password = s
	}
	if s := readSecret("jwt_secret"); s != "" {
		cfg.Auth.JWTSecret = s
	}
	if s := readSecret("redis_password"); s != "" {
		cfg.Redis.Password = s
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
