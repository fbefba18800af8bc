package internal

import (
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/ansuz/internal/directory"
	"github.com/starford/ansuz/internal/nodeinfo"
	"github.com/starford/ansuz/internal/resolver"
)

// Networking protocols.
const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app" toml:"app"`
	Networking NetworkingConfig  `yaml:"networking" toml:"networking"`
	Branding   BrandingConfig    `yaml:"branding" toml:"branding"`
	Data       DataConfig        `yaml:"data" toml:"data"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Networking.Validate(); err != nil {
		return err
	}
	if err := c.Branding.Validate(); err != nil {
		return err
	}
	return c.Data.Validate()
}

// ApplyEnv overrides file values with ANSUZ_* environment variables.
// DATABASE_URL is honoured when ANSUZ_DATABASE_URL is unset.
func (c *Config) ApplyEnv() {
	setString(&c.Networking.Host, "ANSUZ_HOST")
	setString(&c.Networking.BindAddr, "ANSUZ_BIND_ADDR")
	if v, ok := os.LookupEnv("ANSUZ_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Networking.Port = port
		} else {
			// Out of range, so Validate reports it.
			c.Networking.Port = -1
		}
	}
	if v, ok := os.LookupEnv("ANSUZ_PROTOCOL"); ok {
		c.Networking.Protocol = strings.ToLower(v)
	}

	setString(&c.Branding.Name, "ANSUZ_BR_NAME")
	setString(&c.Branding.Version, "ANSUZ_BR_VERSION")
	setString(&c.Branding.Homepage, "ANSUZ_BR_HOMEPAGE")
	setString(&c.Branding.Repository, "ANSUZ_BR_REPOSITORY")

	if !setString(&c.Data.DatabaseURL, "ANSUZ_DATABASE_URL") {
		setString(&c.Data.DatabaseURL, "DATABASE_URL")
	}
	setString(&c.Data.RosterPath, "ANSUZ_ROSTER_PATH")
}

func setString(dst *string, key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return false
	}
	*dst = v
	return true
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
}

// NetworkingConfig holds how the server listens and how it is reached.
type NetworkingConfig struct {
	// Host is the public host name, as it appears in account tags.
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	BindAddr string `yaml:"bind_addr" toml:"bind_addr"`
	Protocol string `yaml:"protocol" toml:"protocol"`
}

// Address returns HTTP server address.
func (c *NetworkingConfig) Address() string {
	return net.JoinHostPort(c.BindAddr, strconv.Itoa(c.Port))
}

// Public returns the resolver view of the configuration.
func (c *NetworkingConfig) Public() resolver.Networking {
	return resolver.Networking{Host: c.Host, Protocol: c.Protocol}
}

// Validate validates the networking configuration.
func (c *NetworkingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.BindAddr, validation.Required, is.IP),
		validation.Field(&c.Protocol, validation.Required, validation.In(ProtocolHTTP, ProtocolHTTPS)),
	)
}

// BrandingConfig identifies the software in NodeInfo and the actor stubs.
type BrandingConfig struct {
	Name       string `yaml:"name" toml:"name"`
	Version    string `yaml:"version" toml:"version"`
	Homepage   string `yaml:"homepage" toml:"homepage"`
	Repository string `yaml:"repository" toml:"repository"`
}

// NodeInfo returns the branding as NodeInfo software fields.
func (c *BrandingConfig) NodeInfo() nodeinfo.Branding {
	return nodeinfo.Branding{
		Name:       c.Name,
		Version:    c.Version,
		Homepage:   c.Homepage,
		Repository: c.Repository,
	}
}

// Validate validates the branding configuration.
func (c *BrandingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Version, validation.Required),
		validation.Field(&c.Homepage, is.URL),
		validation.Field(&c.Repository, is.URL),
	)
}

// DataConfig holds the user directory configuration.
type DataConfig struct {
	// DatabaseURL is a postgres:// URL or a SQLite path, optionally sqlite: prefixed.
	DatabaseURL string `yaml:"database_url" toml:"database_url"`
	// RosterPath is the YAML roster synced into the directory. Empty disables it.
	RosterPath string `yaml:"roster_path" toml:"roster_path"`
	MinConns   int    `yaml:"min_conns" toml:"min_conns"`
	MaxConns   int    `yaml:"max_conns" toml:"max_conns"`
}

// Pool returns the connection pool bounds.
func (c *DataConfig) Pool() directory.Pool {
	return directory.Pool{MinConns: c.MinConns, MaxConns: c.MaxConns}
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.MinConns, validation.Min(0)),
		validation.Field(&c.MaxConns, validation.Min(c.MinConns)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Networking: NetworkingConfig{
			Port:     4939,
			BindAddr: "::",
			Protocol: ProtocolHTTPS,
		},
		Branding: BrandingConfig{
			Name:       "ansuz",
			Version:    Version,
			Homepage:   "https://github.com/starford/ansuz",
			Repository: "https://github.com/starford/ansuz",
		},
		Data: DataConfig{
			DatabaseURL: "sqlite:ansuz.db",
			RosterPath:  "config/roster.yaml",
			MinConns:    1,
			MaxConns:    10,
		},
	}
}
