package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const DefaultSecret = "default-secret"

var (
	ErrDatabaseURLRequired = errors.New("database url is required")
	ErrConfigNotFound      = errors.New("config file not found")
)

type OAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

type Config struct {
	Debug                  bool          `yaml:"debug"`
	Dev                    bool          `yaml:"dev"`
	Host                   string        `yaml:"host"`
	Port                   string        `yaml:"port"`
	BaseURL                string        `yaml:"base_url"`
	Secret                 string        `yaml:"secret"`
	DatabaseURL            string        `yaml:"database_url"`
	MigrationSource        string        `yaml:"migration_source"`
	OtelCollectorUrl       string        `yaml:"otel_collector_url"`
	AllowOrigins           []string      `yaml:"allow_origins"`
	AccessTokenExpiration  time.Duration `yaml:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `yaml:"refresh_token_expiration"`
	GoogleOauth            OAuthConfig   `yaml:"google_oauth"`
	KakaoOauth             OAuthConfig   `yaml:"kakao_oauth"`
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	return nil
}

// Log buffers configuration-loading events until a zap logger exists.
type Log struct {
	entries []entry
}

type entry struct {
	level zapcore.Level
	msg   string
	err   error
}

func (l *Log) warn(msg string, err error) {
	l.entries = append(l.entries, entry{level: zapcore.WarnLevel, msg: msg, err: err})
}

func (l *Log) info(msg string) {
	l.entries = append(l.entries, entry{level: zapcore.InfoLevel, msg: msg})
}

func (l *Log) FlushToZap(logger *zap.Logger) {
	for _, e := range l.entries {
		switch e.level {
		case zapcore.WarnLevel:
			logger.Warn(e.msg, zap.Error(e.err))
		default:
			logger.Info(e.msg)
		}
	}
	l.entries = nil
}

func defaultConfig() Config {
	return Config{
		Host:                   "localhost",
		Port:                   "8080",
		BaseURL:                "http://localhost:8080",
		Secret:                 DefaultSecret,
		MigrationSource:        "file://migrations",
		AllowOrigins:           []string{"http://localhost:3000"},
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour * 7,
	}
}

// Load resolves configuration from, in increasing precedence:
// built-in defaults, an optional YAML file, an optional .env file, and
// process environment variables.
func Load() (Config, *Log) {
	cfgLog := &Log{}
	cfg := defaultConfig()

	cfg = loadYamlFile(cfg, cfgLog)
	cfg = loadEnv(cfg, cfgLog)

	return cfg, cfgLog
}

func loadYamlFile(cfg Config, cfgLog *Log) Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			cfgLog.warn("Failed to read config file", err)
		}
		return cfg
	}

	err = yaml.Unmarshal(content, &cfg)
	if err != nil {
		cfgLog.warn("Failed to parse config file, ignoring it", err)
		return cfg
	}

	cfgLog.info("Loaded config file from " + path)
	return cfg
}

func loadEnv(cfg Config, cfgLog *Log) Config {
	err := godotenv.Load()
	if err == nil {
		cfgLog.info("Loaded .env file")
	}

	cfg.Debug = boolEnv("DEBUG", cfg.Debug)
	cfg.Dev = boolEnv("DEV", cfg.Dev)
	cfg.Host = stringEnv("HOST", cfg.Host)
	cfg.Port = stringEnv("PORT", cfg.Port)
	cfg.BaseURL = stringEnv("BASE_URL", cfg.BaseURL)
	cfg.Secret = stringEnv("SECRET", cfg.Secret)
	cfg.DatabaseURL = stringEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationSource = stringEnv("MIGRATION_SOURCE", cfg.MigrationSource)
	cfg.OtelCollectorUrl = stringEnv("OTEL_COLLECTOR_URL", cfg.OtelCollectorUrl)
	cfg.GoogleOauth.ClientID = stringEnv("GOOGLE_OAUTH_CLIENT_ID", cfg.GoogleOauth.ClientID)
	cfg.GoogleOauth.ClientSecret = stringEnv("GOOGLE_OAUTH_CLIENT_SECRET", cfg.GoogleOauth.ClientSecret)
	cfg.KakaoOauth.ClientID = stringEnv("KAKAO_OAUTH_CLIENT_ID", cfg.KakaoOauth.ClientID)
	cfg.KakaoOauth.ClientSecret = stringEnv("KAKAO_OAUTH_CLIENT_SECRET", cfg.KakaoOauth.ClientSecret)

	if raw := os.Getenv("ALLOW_ORIGINS"); raw != "" {
		cfg.AllowOrigins = splitAndTrim(raw)
	}
	if raw := os.Getenv("ACCESS_TOKEN_EXPIRATION"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			cfgLog.warn("Invalid ACCESS_TOKEN_EXPIRATION, keeping previous value", err)
		} else {
			cfg.AccessTokenExpiration = d
		}
	}
	if raw := os.Getenv("REFRESH_TOKEN_EXPIRATION"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			cfgLog.warn("Invalid REFRESH_TOKEN_EXPIRATION, keeping previous value", err)
		} else {
			cfg.RefreshTokenExpiration = d
		}
	}

	return cfg
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
