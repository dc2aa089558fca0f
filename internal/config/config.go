package config

import (
	"time"

	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/logger"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	SearchAd SearchAdConfig `mapstructure:"searchad"`
	DataLab  DataLabConfig  `mapstructure:"datalab"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Export   ExportConfig   `mapstructure:"export"`
	Logger   logger.Config  `mapstructure:"logger"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SearchAdConfig holds the keyword tool credentials. The secret is used verbatim as the
// HMAC key.
type SearchAdConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	SecretKey  string `mapstructure:"secret_key"`
	CustomerID string `mapstructure:"customer_id"`
}

type DataLabConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type HTTPConfig struct {
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxInFlight    int                  `mapstructure:"max_in_flight"`
	AcquireTimeout time.Duration        `mapstructure:"acquire_timeout"`
	Connection     api.ConnectionConfig `mapstructure:"connection"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// Enabled reports whether keyword tool credentials are present.
func (c SearchAdConfig) Enabled() bool {
	return c.APIKey != "" && c.SecretKey != "" && c.CustomerID != ""
}

// Enabled reports whether DataLab credentials are present.
func (c DataLabConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}
