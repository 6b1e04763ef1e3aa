// internal/common/config/config.go
package config

import "fmt"

// Store backends. An empty backend after defaults means no store credentials
// were supplied and the kiosk runs without persistence.
const (
	BackendNone          = "none"
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
	BackendRedis         = "redis"
	BackendMemory        = "memory"
)

// Identity providers.
const (
	IdentityNone     = "none"
	IdentityKeycloak = "keycloak"
	IdentityLocal    = "local"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Survey        SurveyConfig       `mapstructure:"survey"`
	Store         StoreConfig        `mapstructure:"store"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Identity      IdentityConfig     `mapstructure:"identity"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	KioskID     string `mapstructure:"kiosk_id"`
}

// SurveyConfig holds the kiosk flow settings.
type SurveyConfig struct {
	Collection   string `mapstructure:"collection"`
	ConfirmDelay int    `mapstructure:"confirm_delay"` // milliseconds
	BankPath     string `mapstructure:"bank_path"`
	UserAgent    string `mapstructure:"user_agent"`
	Seed         uint64 `mapstructure:"seed"` // 0 = random per process
}

// StoreConfig selects where completed sessions are written.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	URL            string `mapstructure:"url"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// Configured reports whether any postgres credentials were supplied.
func (p PostgresConfig) Configured() bool {
	return p.URL != "" || p.Host != ""
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
	Pipeline  string   `mapstructure:"pipeline"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IdentityConfig holds anonymous identity issuance settings.
type IdentityConfig struct {
	Provider     string `mapstructure:"provider"`
	ReadyTimeout int    `mapstructure:"ready_timeout"` // milliseconds
	CacheTTL     int    `mapstructure:"cache_ttl"`     // hours

	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		Timeout      int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"keycloak"`
}

// NotificationConfig holds settings for completion notifications.
type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		Enabled   bool              `mapstructure:"enabled"`
		FromEmail string            `mapstructure:"from_email"`
		FrontDesk map[string]string `mapstructure:"front_desk"` // location -> email
	} `mapstructure:"ses"`
}

// MetricsConfig controls the /metrics listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Persisting reports whether completed sessions are written anywhere.
func (c *Config) Persisting() bool {
	return c.Store.Backend != BackendNone
}
