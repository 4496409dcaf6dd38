package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ridgeline-dev/ridgeline-cli/internal/apiclient"
	"github.com/ridgeline-dev/ridgeline-cli/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TokenStorageType represents the different storage types supported for stored tokens.
type TokenStorageType string

const (
	TokenStorageTypeDB      TokenStorageType = "db"
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat    = LogFormatText
	DefaultConfigDomain       = "https://app.ridgeline.dev"
	DefaultConfigAuthStorage  = TokenStorageTypeDB
	DefaultConfigLoginTimeout = 5 * time.Minute
)

// keyringService identifies this CLI's entries in the OS keyring.
const keyringService = "ridgeline-cli"

// LoginConfig holds browser login behavior configuration.
type LoginConfig struct {
	// Port for the local redirect listener; 0 picks an ephemeral port.
	Port int `json:"port" validate:"gte=0,lte=65535"`

	// Timeout bounds the wait for the browser redirect. Unset means the
	// default; a negative value waits forever.
	Timeout time.Duration `json:"timeout"`
}

// AuthConfig describes where the CLI keeps its token between invocations.
type AuthConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=db file keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	DBPath      string `json:"db_path,omitempty"`      // For db storage: database directory
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewTokenStore creates a TokenStore from the authentication configuration.
func (a *AuthConfig) NewTokenStore() (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeDB:
		return tokenstore.NewDBStore(a.DBPath)
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(a.File)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(keyringService, a.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level `json:"log_level"`
	LogFormat LogFormat  `json:"log_format" validate:"oneof=text json"`

	// Domain is the Ridgeline deployment the CLI talks to.
	Domain string `json:"domain" validate:"required,url"`

	// AuthToken bypasses stored credentials when set, typically through
	// RIDGELINE_AUTH_TOKEN in automation.
	AuthToken string `json:"auth_token,omitempty"`

	// Scheduled marks invocations driven by a scheduler rather than a person.
	Scheduled bool `json:"scheduled"`

	Login LoginConfig `json:"login"`
	Auth  AuthConfig  `json:"auth"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Domain == "" {
		c.Domain = DefaultConfigDomain
	}
	if c.Login.Timeout == 0 {
		c.Login.Timeout = DefaultConfigLoginTimeout
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeDB:
		if c.Auth.DBPath == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.db_path required (auto-detect failed: %w)", err)
			}
			c.Auth.DBPath = filepath.Join(configDir, "ridgeline", "tokendb")
		}
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "ridgeline", "auth")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeDB:
		if c.Auth.DBPath == "" {
			return errors.New("db_path required for db storage")
		}
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	}

	return nil
}

// AuthHeader returns the header name requests carry the token under. An
// override token outside scheduled runs authenticates as an API key; every
// other combination uses the standard auth header.
func (c *Config) AuthHeader() string {
	if c.AuthToken != "" && !c.Scheduled {
		return apiclient.HeaderAPIKey
	}
	return apiclient.HeaderAuth
}
