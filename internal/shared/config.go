package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Export      ExportConfig      `toml:"export"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Tidal TidalConfig `toml:"tidal"`
}

// TidalConfig contains Tidal API credentials and session tokens.
//
// Tokens are written back to the config file after a successful login so
// subsequent commands can reuse the session without reauthenticating.
type TidalConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	ExpiresAt    int64  `toml:"expires_at"`
	UserID       string `toml:"user_id"`
	CountryCode  string `toml:"country_code"`
}

// DatabaseConfig contains local cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address for the callback server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ExportConfig contains default export settings.
type ExportConfig struct {
	Fields string `toml:"fields"`
	Format string `toml:"format"`
}

// Token converts the stored credentials into an [oauth2.Token].
func (t *TidalConfig) Token() *oauth2.Token {
	if t.AccessToken == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
	}
	if t.ExpiresAt > 0 {
		tok.Expiry = time.Unix(t.ExpiresAt, 0)
	}
	return tok
}

// Update stores a freshly issued [oauth2.Token] in the config.
func (t *TidalConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidArgument)
	}
	t.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		t.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		t.ExpiresAt = token.Expiry.Unix()
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingConfig, path, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
