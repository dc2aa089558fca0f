package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"keyword-volume-go/pkg/api"
)

// EnvPrefix namespaces every environment override, e.g. KEYWORD_SEARCHAD_SECRET_KEY.
const EnvPrefix = "KEYWORD"

var ErrMissingSearchAd = errors.New("searchad.api_key, searchad.secret_key and searchad.customer_id are required")

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
	loaded bool
}

func NewManager() Manager {
	return NewManagerWithViper(viper.New())
}

// NewManagerWithViper lets the CLI share the viper instance its flags are bound to.
func NewManagerWithViper(v *viper.Viper) Manager {
	return &manager{viper: v}
}

// Load reads configPath when given; otherwise only defaults and environment apply.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setupViper(configPath)

	if configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return nil, err
	}

	m.config = config
	m.loaded = true
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return fmt.Errorf("config not loaded")
	}

	if m.viper.ConfigFileUsed() != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	SetDefaults(m.viper)
}

// SetDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func SetDefaults(v *viper.Viper) {
	conn := api.DefaultConnectionConfig()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("searchad.base_url", api.DefaultKeywordToolBaseURL)
	v.SetDefault("searchad.api_key", "")
	v.SetDefault("searchad.secret_key", "")
	v.SetDefault("searchad.customer_id", "")

	v.SetDefault("datalab.base_url", api.DefaultDataLabBaseURL)
	v.SetDefault("datalab.client_id", "")
	v.SetDefault("datalab.client_secret", "")

	v.SetDefault("http.timeout", api.DefaultTimeout)
	v.SetDefault("http.max_in_flight", 4)
	v.SetDefault("http.acquire_timeout", 2*time.Second)
	v.SetDefault("http.connection.max_conns_per_host", conn.MaxConnsPerHost)
	v.SetDefault("http.connection.max_idle_conn_duration", conn.MaxIdleConnDuration)
	v.SetDefault("http.connection.read_timeout", conn.ReadTimeout)
	v.SetDefault("http.connection.write_timeout", conn.WriteTimeout)
	v.SetDefault("http.connection.max_response_body_size", conn.MaxResponseBodySize)

	v.SetDefault("export.dir", ".")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.time_format", "")
}

// Validate checks structural settings. Credentials are checked where they are needed
// (RequireSearchAd) so a trend-only or export-only run does not need keyword tool keys.
func Validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}

	if config.HTTP.MaxInFlight <= 0 {
		return fmt.Errorf("http.max_in_flight must be positive")
	}

	if config.SearchAd.BaseURL == "" || config.DataLab.BaseURL == "" {
		return fmt.Errorf("upstream base URLs cannot be empty")
	}

	return nil
}

// RequireSearchAd fails unless the keyword tool credentials are complete.
func RequireSearchAd(config *Config) error {
	if !config.SearchAd.Enabled() {
		return ErrMissingSearchAd
	}
	return nil
}
