package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RemoteConfig locates the authoritative document.
type RemoteConfig struct {
	// DocumentURL serves the whole document as JSON.
	DocumentURL string `mapstructure:"document_url" yaml:"document_url"`

	// ContentsURL is the contents API endpoint used to read the version
	// token and write the document. Empty disables remote writes.
	ContentsURL string `mapstructure:"contents_url" yaml:"contents_url"`

	// Branch is sent with writes when set.
	Branch string `mapstructure:"branch" yaml:"branch"`

	// CommitMessage labels every remote write.
	CommitMessage string `mapstructure:"commit_message" yaml:"commit_message"`

	// Timeout bounds every remote call.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// PollInterval is how often the open inbox reloads the document.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// CacheConfig holds the local durable cache settings.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// BootstrapConfig is the account created when the document has no users.
type BootstrapConfig struct {
	AdminUsername string `mapstructure:"admin_username" yaml:"admin_username"`
	AdminPassword string `mapstructure:"admin_password" yaml:"admin_password"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`

	// File receives log output while the terminal UI owns the screen.
	// "stderr" and "stdout" are accepted as well.
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Remote    RemoteConfig    `mapstructure:"remote" yaml:"remote"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap" yaml:"bootstrap"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// EnvPrefix is the prefix for environment overrides, e.g.
// TASKREWARDS_REMOTE_DOCUMENT_URL.
const EnvPrefix = "TASKREWARDS"

// DefaultConfigPath returns ~/.config/taskrewards/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskrewards", "config.yaml")
}

// DefaultLogPath returns ~/.config/taskrewards/taskrewards.log.
func DefaultLogPath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "taskrewards.log")
}

// DefaultCachePath returns ~/.config/taskrewards/cache.db.
func DefaultCachePath() string {
	return filepath.Join(filepath.Dir(DefaultConfigPath()), "cache.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.document_url", "")
	v.SetDefault("remote.contents_url", "")
	v.SetDefault("remote.branch", "")
	v.SetDefault("remote.commit_message", "Update task rewards data")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("remote.poll_interval", 30*time.Second)
	v.SetDefault("cache.path", DefaultCachePath())
	v.SetDefault("bootstrap.admin_username", "admin")
	v.SetDefault("bootstrap.admin_password", "admin")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", DefaultLogPath())
}

// LoadConfig reads configuration from the given YAML file using Viper.
// A missing file yields the defaults. Environment variables prefixed
// with EnvPrefix override file values.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Remote.Timeout <= 0 {
		cfg.Remote.Timeout = 10 * time.Second
	}

	return &cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("remote.document_url", cfg.Remote.DocumentURL)
	v.Set("remote.contents_url", cfg.Remote.ContentsURL)
	v.Set("remote.branch", cfg.Remote.Branch)
	v.Set("remote.commit_message", cfg.Remote.CommitMessage)
	v.Set("remote.timeout", cfg.Remote.Timeout.String())
	v.Set("remote.poll_interval", cfg.Remote.PollInterval.String())
	v.Set("cache.path", cfg.Cache.Path)
	v.Set("bootstrap.admin_username", cfg.Bootstrap.AdminUsername)
	v.Set("bootstrap.admin_password", cfg.Bootstrap.AdminPassword)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
