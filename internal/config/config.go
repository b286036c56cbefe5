package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivankudzin/tgapp/reviewdesk/internal/services/decisions"
)

const DefaultBackendURL = "https://super-app-backend-production.up.railway.app"

type Config struct {
	Env      string         `yaml:"env"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Backend  BackendConfig  `yaml:"backend"`
	Review   ReviewConfig   `yaml:"review"`
	SignIn   SignInConfig   `yaml:"signin"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Bot      BotConfig      `yaml:"bot"`
}

type HTTPConfig struct {
	Addr               string        `yaml:"addr"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ReviewConfig struct {
	ReasonPolicy decisions.ReasonPolicy `yaml:"reason_policy"`
	LockTTL      time.Duration          `yaml:"lock_ttl"`
}

type SignInConfig struct {
	AttemptsPerMinute int `yaml:"attempts_per_minute"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type BotConfig struct {
	Token              string  `yaml:"token"`
	PollTimeoutSeconds int     `yaml:"poll_timeout_seconds"`
	OperatorIDs        []int64 `yaml:"operator_ids"`
}

func Default() Config {
	return Config{
		Env: "dev",
		HTTP: HTTPConfig{
			Addr:               ":8080",
			ReadTimeout:        5 * time.Second,
			WriteTimeout:       60 * time.Second,
			IdleTimeout:        60 * time.Second,
			RateLimitPerMinute: 300,
		},
		Log: LogConfig{Level: "info"},
		Backend: BackendConfig{
			BaseURL: DefaultBackendURL,
			Timeout: 15 * time.Second,
		},
		Review: ReviewConfig{
			ReasonPolicy: decisions.PolicyLegacy,
			LockTTL:      30 * time.Second,
		},
		SignIn: SignInConfig{AttemptsPerMinute: 10},
		Bot: BotConfig{
			PollTimeoutSeconds: 30,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if err := overrideDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return err
	}
	if err := overrideDuration("HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return err
	}
	if err := overrideInt("HTTP_RATE_LIMIT_PER_MINUTE", &cfg.HTTP.RateLimitPerMinute); err != nil {
		return err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if err := overrideDuration("BACKEND_TIMEOUT", &cfg.Backend.Timeout); err != nil {
		return err
	}

	if v := os.Getenv("REVIEW_REASON_POLICY"); v != "" {
		cfg.Review.ReasonPolicy = decisions.ReasonPolicy(v)
	}
	if err := overrideDuration("REVIEW_LOCK_TTL", &cfg.Review.LockTTL); err != nil {
		return err
	}

	if err := overrideInt("SIGNIN_ATTEMPTS_PER_MINUTE", &cfg.SignIn.AttemptsPerMinute); err != nil {
		return err
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if err := overrideInt("BOT_POLL_TIMEOUT_SECONDS", &cfg.Bot.PollTimeoutSeconds); err != nil {
		return err
	}
	if err := overrideInt64List("BOT_OPERATOR_IDS", &cfg.Bot.OperatorIDs); err != nil {
		return err
	}

	return nil
}

const maxBackendCallsPerRequest = 3

func (c *Config) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.Backend.BaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute url, got %q", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	// A confirm on the listing page makes up to three backend calls in one
	// request: the membership refresh, the update and the post-update refresh.
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= maxBackendCallsPerRequest*c.Backend.Timeout {
		return fmt.Errorf("http.write_timeout %s must exceed %d x backend.timeout (%s)",
			c.HTTP.WriteTimeout, maxBackendCallsPerRequest, c.Backend.Timeout)
	}

	policy, err := decisions.ParseReasonPolicy(string(c.Review.ReasonPolicy))
	if err != nil {
		return fmt.Errorf("review.reason_policy: %w", err)
	}
	c.Review.ReasonPolicy = policy

	if c.Review.LockTTL <= 0 {
		return fmt.Errorf("review.lock_ttl must be positive")
	}
	if c.SignIn.AttemptsPerMinute < 0 {
		return fmt.Errorf("signin.attempts_per_minute must not be negative")
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		return fmt.Errorf("http.rate_limit_per_minute must not be negative")
	}
	if c.Bot.PollTimeoutSeconds <= 0 {
		c.Bot.PollTimeoutSeconds = 30
	}
	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideInt64List(key string, target *[]int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	result := make([]int64, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s list item %q: %w", key, part, err)
		}
		result = append(result, n)
	}
	*target = result
	return nil
}
