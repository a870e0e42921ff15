package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// SecretKeyEnv overrides [StoreConfig.SecretKey] when set.
const SecretKeyEnv = "NOWPLAYING_SECRET_KEY"

const (
	BackendSQLite = "sqlite"
	BackendAWS    = "aws"
	BackendGCP    = "gcp"
	BackendAzure  = "azure"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Poll    PollConfig    `toml:"poll"`
	HTTP    HTTPConfig    `toml:"http"`
	Log     LogConfig     `toml:"log"`
}

// SpotifyConfig contains the public client registration and provider endpoints.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
	AuthURL     string   `toml:"auth_url"`
	TokenURL    string   `toml:"token_url"`
	APIURL      string   `toml:"api_url"`
}

// ServerConfig contains loopback HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig selects and configures the credential store backend.
type StoreConfig struct {
	Backend   string      `toml:"backend"`
	Key       string      `toml:"key"`
	Path      string      `toml:"path"`
	SecretKey string      `toml:"secret_key"`
	AWS       AWSConfig   `toml:"aws"`
	GCP       GCPConfig   `toml:"gcp"`
	Azure     AzureConfig `toml:"azure"`
}

type AWSConfig struct {
	Region   string `toml:"region"`
	Prefix   string `toml:"prefix"`
	Endpoint string `toml:"endpoint"` // LocalStack and similar
}

type GCPConfig struct {
	ProjectID       string `toml:"project_id"`
	Prefix          string `toml:"prefix"`
	CredentialsFile string `toml:"credentials_file"`
}

type AzureConfig struct {
	VaultURL string `toml:"vault_url"`
	Prefix   string `toml:"prefix"`
}

// PollConfig controls the now-playing polling cadence.
type PollConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// Interval returns the poll cadence as a [time.Duration].
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// HTTPConfig bounds outbound requests to the provider.
type HTTPConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 disables limiting
}

// Timeout returns the per-request timeout as a [time.Duration].
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // TUI log destination
}

// LoadConfig reads a TOML configuration file from path, layered over [DefaultConfig].
//
// Keys absent from the file keep their default values. [SecretKeyEnv] is applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(SecretKeyEnv); v != "" {
		c.Store.SecretKey = v
	}
}

// Validate rejects configurations that cannot drive a session.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("%w: spotify.client_id is required", ErrInvalidConfig)
	}
	if c.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: spotify.redirect_uri is required", ErrInvalidConfig)
	}
	if c.Spotify.TokenURL == "" || c.Spotify.AuthURL == "" {
		return fmt.Errorf("%w: spotify.auth_url and spotify.token_url are required", ErrInvalidConfig)
	}
	if c.Store.Key == "" {
		return fmt.Errorf("%w: store.key is required", ErrInvalidConfig)
	}

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the sqlite backend", ErrInvalidConfig)
		}
	case BackendAWS:
	case BackendGCP:
		if c.Store.GCP.ProjectID == "" {
			return fmt.Errorf("%w: store.gcp.project_id is required", ErrInvalidConfig)
		}
	case BackendAzure:
		if c.Store.Azure.VaultURL == "" {
			return fmt.Errorf("%w: store.azure.vault_url is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Poll.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: poll.interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: http.timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: http.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
