// Package config handles the configuration directory, file paths and settings.
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

const (
	// AppName is the application directory name.
	AppName = "taskmgr"

	// ConfigFile is the optional settings file name (without extension).
	ConfigFile = "config"

	// SessionFile is the persisted session database filename.
	SessionFile = "session.db"

	// EnvPrefix prefixes environment variable overrides (TASKMGR_SERVICES_AUTH_URL, ...).
	EnvPrefix = "TASKMGR"
)

// Default service base addresses.
const (
	DefaultAuthURL    = "http://localhost:9090/api"
	DefaultTaskURL    = "http://localhost:9091/api"
	DefaultCommentURL = "http://localhost:9092/api"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Services ServicesConfig
	HTTP     HTTPConfig
	Comments CommentsConfig
	Logger   LoggerConfig
	Google   GoogleConfig
}

// ServicesConfig holds the base addresses of the three backend services.
type ServicesConfig struct {
	AuthURL    string
	TaskURL    string
	CommentURL string

	// AuthenticateAll attaches the bearer token to task and comment
	// requests as well as auth requests.
	AuthenticateAll bool
}

type HTTPConfig struct {
	// Timeout of zero leaves the transport default in place.
	Timeout time.Duration
}

type CommentsConfig struct {
	CacheSize int
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type GoogleConfig struct {
	// ClientFile is the OAuth client credentials filename, relative to Dir
	// unless absolute.
	ClientFile string
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskmgr or $HOME/.config/taskmgr.
// Settings are read from config.yaml in that directory when present, then
// overridden by TASKMGR_* environment variables (a .env file in the working
// directory is loaded first).
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigName(ConfigFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{Dir: dir}
	cfg.Services.AuthURL = strings.TrimRight(v.GetString("services.auth_url"), "/")
	cfg.Services.TaskURL = strings.TrimRight(v.GetString("services.task_url"), "/")
	cfg.Services.CommentURL = strings.TrimRight(v.GetString("services.comment_url"), "/")
	cfg.Services.AuthenticateAll = v.GetBool("services.authenticate_all")
	cfg.HTTP.Timeout = v.GetDuration("http.timeout")
	cfg.Comments.CacheSize = v.GetInt("comments.cache_size")
	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	cfg.Google.ClientFile = v.GetString("google.client_file")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("services.auth_url", DefaultAuthURL)
	v.SetDefault("services.task_url", DefaultTaskURL)
	v.SetDefault("services.comment_url", DefaultCommentURL)
	v.SetDefault("services.authenticate_all", true)
	v.SetDefault("http.timeout", time.Duration(0))
	v.SetDefault("comments.cache_size", 256)
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("google.client_file", "oauth_client.json")
}

func (c *Config) validate() error {
	if c.Services.AuthURL == "" || c.Services.TaskURL == "" || c.Services.CommentURL == "" {
		return fmt.Errorf("service base addresses must not be empty")
	}
	if c.Comments.CacheSize <= 0 {
		return fmt.Errorf("comments.cache_size must be positive, got %d", c.Comments.CacheSize)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	if filepath.IsAbs(c.Google.ClientFile) {
		return c.Google.ClientFile
	}
	name := c.Google.ClientFile
	if name == "" {
		name = "oauth_client.json"
	}
	return filepath.Join(c.Dir, name)
}

// SessionPath returns the path to the session database.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}
