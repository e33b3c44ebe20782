package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ex2code/internal/ai"
	"ex2code/pkg/binder"
)

const (
	configName = "config"
	configType = "yaml"
	appName    = "ex2code"
	envPrefix  = "EX2CODE"
	dbFileName = "artifacts.db"
)

// Config holds the application's configuration.
type Config struct {
	Provider  string        `mapstructure:"provider"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Proxy     string        `mapstructure:"proxy"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Policy    string        `mapstructure:"policy"`
	Allow     []string      `mapstructure:"allow"`
	Timeout   time.Duration `mapstructure:"timeout"`
	DBPath    string        `mapstructure:"db_path"`
	LogLevel  string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ai.ProviderOllama)
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("proxy", "")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("policy", binder.PolicyRestricted.String())
	v.SetDefault("allow", []string{})
	v.SetDefault("timeout", binder.DefaultTimeout)
	v.SetDefault("db_path", "")
	v.SetDefault("log_level", "info")
}

// Dir returns the directory holding the config file and the database.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// InitConfig initializes viper to read from the config file, creating it on
// first run. Values from .env and EX2CODE_* variables override the file.
func InitConfig() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return initConfig(viper.GetViper(), dir, ".env")
}

func initConfig(v *viper.Viper, dir, dotenv string) error {
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName(configName)
	v.SetConfigType(configType)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create config directory: %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	// Environment is bound after the file is written so secrets never land in it.
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not load %s: %w", dotenv, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

// Load decodes the current configuration.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return load(viper.GetViper(), dir)
}

func load(v *viper.Viper, dir string) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	if _, err := binder.ParsePolicy(c.Policy); err != nil {
		return nil, err
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, dbFileName)
	}
	return &c, nil
}

// Keys lists the configuration keys.
func Keys() []string {
	return []string{"provider", "model", "base_url", "api_key", "proxy", "max_tokens", "policy", "allow", "timeout", "db_path", "log_level"}
}

// Set stores a key in the config file. Only the file is rewritten, so values
// from flags and the environment are never persisted.
func Set(key, value string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return set(dir, key, value)
}

func set(dir, key, value string) error {
	if !slices.Contains(Keys(), key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configName+"."+configType))
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	v.Set(key, value)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	return nil
}

// AI returns the provider settings.
func (c *Config) AI() ai.Settings {
	return ai.Settings{
		Provider:  c.Provider,
		Model:     c.Model,
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey,
		Proxy:     c.Proxy,
		MaxTokens: c.MaxTokens,
	}
}

// Binder returns the evaluation options. Policy must already be valid.
func (c *Config) Binder() binder.Options {
	p, _ := binder.ParsePolicy(c.Policy)
	return binder.Options{
		Policy:  p,
		Allow:   c.Allow,
		Timeout: c.Timeout,
	}
}
