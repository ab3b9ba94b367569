package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile    = "file"
	BackendMongoDB = "mongodb"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. STUDENTMARKS_STORAGE_FILE for storage.file.
const EnvPrefix = "STUDENTMARKS"

// Config holds application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig selects where student records are persisted.
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	File          string `mapstructure:"file"`
	MongoURL      string `mapstructure:"mongo_url"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port              string `mapstructure:"port"`
	AdminUsername     string `mapstructure:"admin_username"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	// LoginRateLimit is the number of login attempts allowed per minute
	// from one IP.
	LoginRateLimit int `mapstructure:"login_rate_limit"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// New returns a viper instance with defaults, env overrides and the config
// file location set. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.file", filepath.Join("resources", "studentMarks.txt"))
	v.SetDefault("storage.mongo_url", "")
	v.SetDefault("storage.mongo_database", "studentmarks")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.admin_username", "admin")
	v.SetDefault("server.admin_password_hash", "")
	v.SetDefault("server.login_rate_limit", 10)
	v.SetDefault("log.verbose", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv(EnvPrefix + "_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "studentmarks"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file if present and returns the validated
// configuration.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit STUDENTMARKS_CONFIG that does not exist surfaces as a
		// path error rather than ConfigFileNotFoundError.
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks that c is usable.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.File == "" {
			return errors.New("storage.file is required for the file backend")
		}
	case BackendMongoDB:
		if c.Storage.MongoURL == "" {
			return errors.New("storage.mongo_url is required for the mongodb backend")
		}
		if c.Storage.MongoDatabase == "" {
			return errors.New("storage.mongo_database is required for the mongodb backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q, expected %s or %s", c.Storage.Backend, BackendFile, BackendMongoDB)
	}

	if c.Server.LoginRateLimit < 1 {
		return fmt.Errorf("server.login_rate_limit must be positive, got %d", c.Server.LoginRateLimit)
	}

	return nil
}
