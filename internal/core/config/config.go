// Package config provides configuration management for adjrules commands.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variables holding secrets. Secrets are never read from files.
const (
	EnvAPIPassword     = "ADJ_API_PASSWORD"
	EnvAPIClientSecret = "ADJ_API_CLIENT_SECRET"
	EnvHMACSecret      = "ADJ_HMAC_SECRET"
)

// APIConfig locates and identifies the workforce-management tenant.
type APIConfig struct {
	BaseURL  string
	Username string
	ClientID string
	Timeout  time.Duration
}

// StoreConfig locates the local database.
type StoreConfig struct {
	DatabaseURL string
}

// ServerConfig holds configuration for the local HTTP service.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Config is the full adjrules configuration.
type Config struct {
	API            APIConfig
	Store          StoreConfig
	Server         ServerConfig
	ExportDir      string
	RecentMaxFiles int
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			DatabaseURL: "sqlite://./adjrules.db",
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8087,
			RequestTimeout: 30 * time.Second,
			MaxBodyBytes:   4 << 20,
		},
		ExportDir:      ".",
		RecentMaxFiles: 10,
	}
}

// Credentials are the secrets for the password grant.
type Credentials struct {
	Password     string
	ClientSecret string
}

// APICredentials reads the API secrets from the environment.
// Missing values are returned empty; callers decide whether they are required.
func APICredentials() Credentials {
	return Credentials{
		Password:     os.Getenv(EnvAPIPassword),
		ClientSecret: os.Getenv(EnvAPIClientSecret),
	}
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports ADJ_HMAC_SECRET (single) and ADJ_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are UUIDv7 (32 hex chars without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s and %s_* for conflicts)", secretID, EnvHMACSecret, EnvHMACSecret)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv(EnvHMACSecret); val != "" {
		if err := add(EnvHMACSecret, val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets stop at the first gap.
	for i := 1; ; i++ {
		key := fmt.Sprintf("%s_%d", EnvHMACSecret, i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes a base64-encoded HMAC secret.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}

	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(parts[1])
	if err != nil {
		return "", nil, err
	}
	return secretID, secret, nil
}
