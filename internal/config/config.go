package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/identity/gotrue"
	"github.com/MrEthical07/goConsole/identity/local"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Identity backends.
const (
	ProviderLocal  = "local"
	ProviderGoTrue = "gotrue"
)

// EnvPrefix prefixes every environment override, e.g.
// GOCONSOLE_ACCESS_ALLOWED_EMAIL.
const EnvPrefix = "GOCONSOLE"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	Provider  string          `mapstructure:"provider"`
	Profile   string          `mapstructure:"profile"`
	Access    AccessConfig    `mapstructure:"access"`
	Session   SessionConfig   `mapstructure:"session"`
	UI        UIConfig        `mapstructure:"ui"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Local     LocalConfig     `mapstructure:"local"`
	GoTrue    GoTrueConfig    `mapstructure:"gotrue"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AccessConfig struct {
	// AllowedEmail must be lowercase with the local provider.
	AllowedEmail          string `mapstructure:"allowed_email"`
	AllowAnyAuthenticated bool   `mapstructure:"allow_any_authenticated"`
}

type SessionConfig struct {
	RestoreTimeout time.Duration `mapstructure:"restore_timeout"`
	LoginTimeout   time.Duration `mapstructure:"login_timeout"`
	LogoutTimeout  time.Duration `mapstructure:"logout_timeout"`
}

type UIConfig struct {
	DarkMode bool `mapstructure:"dark_mode"`
}

// AuditConfig sends audit events as JSON lines to File, or to the log when
// File is empty.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
	Buffer  int    `mapstructure:"buffer"`
}

// MetricsConfig serves Prometheus text on Addr when it is set.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LocalConfig configures the embedded redis-backed identity service.
type LocalConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Issuer      string        `mapstructure:"issuer"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
}

// GoTrueConfig configures the hosted auth API client.
type GoTrueConfig struct {
	URL           string        `mapstructure:"url"`
	APIKey        string        `mapstructure:"api_key"`
	RefreshMargin time.Duration `mapstructure:"refresh_margin"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives log output. Empty discards; the terminal belongs to the UI.
	File string `mapstructure:"file"`
}

type TelemetryConfig struct {
	// Endpoint is an OTLP/HTTP traces URL. Empty disables tracing.
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderLocal)
	v.SetDefault("profile", "default")
	v.SetDefault("access.allowed_email", "")
	v.SetDefault("access.allow_any_authenticated", false)
	v.SetDefault("session.restore_timeout", 10*time.Second)
	v.SetDefault("session.login_timeout", 15*time.Second)
	v.SetDefault("session.logout_timeout", 10*time.Second)
	v.SetDefault("ui.dark_mode", false)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.file", "")
	v.SetDefault("audit.buffer", 256)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "gc")
	v.SetDefault("local.token_secret", "")
	v.SetDefault("local.token_ttl", time.Hour)
	v.SetDefault("local.issuer", "goconsole")
	v.SetDefault("local.max_attempts", 5)
	v.SetDefault("local.window", 15*time.Minute)
	v.SetDefault("gotrue.url", "")
	v.SetDefault("gotrue.api_key", "")
	v.SetDefault("gotrue.refresh_margin", time.Minute)
	v.SetDefault("gotrue.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "goconsole")
}

// DefaultPath is where Load looks when neither path nor GOCONSOLE_CONFIG is set.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "goconsole", "config.yaml")
}

// Load reads a YAML file and GOCONSOLE_* env overrides. An explicit path (or
// GOCONSOLE_CONFIG) must exist; the default path is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	explicit := true
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}
	v.SetConfigFile(path)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Validate checks the settings the selected provider needs. Console policy is
// checked separately by goConsole.Config.Validate.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if len(c.Local.TokenSecret) < 32 {
			return fmt.Errorf("%w: local.token_secret must be at least 32 bytes", ErrInvalid)
		}
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required", ErrInvalid)
		}
		// Local accounts are stored lowercased and the gate compares exactly.
		if c.Access.AllowedEmail != strings.ToLower(c.Access.AllowedEmail) {
			return fmt.Errorf("%w: access.allowed_email must be lowercase with the local provider", ErrInvalid)
		}
	case ProviderGoTrue:
		if c.GoTrue.URL == "" || c.GoTrue.APIKey == "" {
			return fmt.Errorf("%w: gotrue.url and gotrue.api_key are required", ErrInvalid)
		}
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalid, c.Provider)
	}
	if c.Audit.Enabled && c.Audit.Buffer <= 0 {
		return fmt.Errorf("%w: audit.buffer must be > 0", ErrInvalid)
	}
	return nil
}

// Console maps the settings onto a console configuration.
func (c Config) Console() goConsole.Config {
	out := goConsole.DefaultConfig()
	out.Access.AllowedEmail = c.Access.AllowedEmail
	out.Access.AllowAnyAuthenticated = c.Access.AllowAnyAuthenticated
	out.Session.RestoreTimeout = c.Session.RestoreTimeout
	out.Session.LoginTimeout = c.Session.LoginTimeout
	out.Session.LogoutTimeout = c.Session.LogoutTimeout
	out.UI.DarkMode = c.UI.DarkMode
	out.Audit.Enabled = c.Audit.Enabled
	if c.Audit.Buffer > 0 {
		out.Audit.BufferSize = c.Audit.Buffer
	}
	out.Metrics.Enabled = c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = c.Metrics.Enabled
	return out
}

func (c Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Username: c.Redis.Username,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

func (c Config) LocalProvider() local.Config {
	return local.Config{
		Prefix:  c.Redis.Prefix,
		Profile: c.Profile,
		Tokens: jwt.Config{
			AccessTTL:     c.Local.TokenTTL,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    []byte(c.Local.TokenSecret),
			Issuer:        c.Local.Issuer,
		},
		MaxAttempts: c.Local.MaxAttempts,
		Window:      c.Local.Window,
	}
}

func (c Config) GoTrueProvider() gotrue.Config {
	return gotrue.Config{
		URL:           strings.TrimRight(c.GoTrue.URL, "/"),
		APIKey:        c.GoTrue.APIKey,
		Profile:       c.Profile,
		RefreshMargin: c.GoTrue.RefreshMargin,
		Timeout:       c.GoTrue.Timeout,
	}
}
