package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                    = "JOTTER"
	defaultHTTPHost              = "0.0.0.0"
	defaultHTTPPort              = 3000
	defaultDatabaseDriver        = DriverSQLite
	defaultDatabaseURL           = "jotter.db"
	defaultDatabaseName          = "jotter"
	defaultConnectTimeoutSeconds = 10
	defaultTokenTTLMinutes       = 1440
	defaultLogLevel              = "info"
)

// Supported storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPHost       string
	HTTPPort       int
	AllowedOrigins []string
	DatabaseDriver string
	DatabaseURL    string
	DatabaseName   string
	ConnectTimeout time.Duration
	SigningSecret  string
	TokenTTL       time.Duration
	PasswordCost   int
	LogLevel       string
	WebEnabled     bool
}

// HTTPAddress joins host and port into a listen address.
func (c AppConfig) HTTPAddress() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	// Variable names used by earlier deployments.
	_ = configViper.BindEnv("http.port", envPrefix+"_HTTP_PORT", "PORT")
	_ = configViper.BindEnv("database.url", envPrefix+"_DATABASE_URL", "MONGODB_URL")
	_ = configViper.BindEnv("auth.signing_secret", envPrefix+"_AUTH_SIGNING_SECRET", "JWT_SECRET")

	configViper.SetDefault("http.host", defaultHTTPHost)
	configViper.SetDefault("http.port", defaultHTTPPort)
	configViper.SetDefault("http.allowed_origins", []string{"*"})
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.url", defaultDatabaseURL)
	configViper.SetDefault("database.name", defaultDatabaseName)
	configViper.SetDefault("database.connect_timeout_seconds", defaultConnectTimeoutSeconds)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("auth.password_cost", 0)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("web.enabled", true)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPHost:       strings.TrimSpace(configViper.GetString("http.host")),
		HTTPPort:       configViper.GetInt("http.port"),
		AllowedOrigins: normalizeOrigins(configViper.GetStringSlice("http.allowed_origins")),
		DatabaseDriver: strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabaseURL:    strings.TrimSpace(configViper.GetString("database.url")),
		DatabaseName:   strings.TrimSpace(configViper.GetString("database.name")),
		ConnectTimeout: time.Duration(configViper.GetInt("database.connect_timeout_seconds")) * time.Second,
		SigningSecret:  configViper.GetString("auth.signing_secret"),
		TokenTTL:       time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		PasswordCost:   configViper.GetInt("auth.password_cost"),
		LogLevel:       configViper.GetString("log.level"),
		WebEnabled:     configViper.GetBool("web.enabled"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverMongo:
		if c.DatabaseName == "" {
			return fmt.Errorf("database.name is required for the mongo driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	return nil
}

func normalizeOrigins(values []string) []string {
	origins := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
