package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// secretKeys may never appear in a config file.
var secretKeys = []string{
	"hmac_secret",
	"server.hmac_secret",
	"api.password",
	"api.client_secret",
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the commands after loading.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.username", def.API.Username)
	v.SetDefault("api.client_id", def.API.ClientID)
	v.SetDefault("api.timeout", def.API.Timeout.String())
	v.SetDefault("store.db_url", def.Store.DatabaseURL)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.request_timeout", def.Server.RequestTimeout.String())
	v.SetDefault("server.max_body_bytes", def.Server.MaxBodyBytes)
	v.SetDefault("export.dir", def.ExportDir)
	v.SetDefault("recent.max_files", def.RecentMaxFiles)

	// Bind environment variables with ADJ_ prefix
	v.SetEnvPrefix("ADJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := validateNoSecretsInConfig(v); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:  strings.TrimRight(v.GetString("api.base_url"), "/"),
			Username: v.GetString("api.username"),
			ClientID: v.GetString("api.client_id"),
			Timeout:  v.GetDuration("api.timeout"),
		},
		Store: StoreConfig{
			DatabaseURL: v.GetString("store.db_url"),
		},
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxBodyBytes:   v.GetInt64("server.max_body_bytes"),
		},
		ExportDir:      v.GetString("export.dir"),
		RecentMaxFiles: v.GetInt("recent.max_files"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks port range and positive durations and sizes.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %v", cfg.API.Timeout)
	}
	if cfg.RecentMaxFiles <= 0 {
		return fmt.Errorf("recent.max_files must be positive, got %d", cfg.RecentMaxFiles)
	}
	if cfg.Store.DatabaseURL == "" {
		return fmt.Errorf("store.db_url must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
// Only the file is inspected; AutomaticEnv would otherwise make every
// ADJ_* secret look like a file key.
func validateNoSecretsInConfig(v *viper.Viper) error {
	settings := v.ConfigFileUsed()
	fileOnly := viper.New()
	fileOnly.SetConfigFile(settings)
	if err := fileOnly.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	for _, key := range secretKeys {
		if !fileOnly.IsSet(key) {
			continue
		}
		switch key {
		case "api.password":
			return fmt.Errorf("API password not allowed in config files (use %s environment variable)", EnvAPIPassword)
		case "api.client_secret":
			return fmt.Errorf("API client secret not allowed in config files (use %s environment variable)", EnvAPIClientSecret)
		default:
			return fmt.Errorf("HMAC secrets not allowed in config files (use %s environment variable)", EnvHMACSecret)
		}
	}
	return nil
}
