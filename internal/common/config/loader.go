// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envKeys are bound explicitly so environment-only deployments (no config file)
// still reach Unmarshal.
var envKeys = []string{
	"app.name", "app.version", "app.environment", "app.kiosk_id",
	"survey.collection", "survey.confirm_delay", "survey.bank_path", "survey.user_agent", "survey.seed",
	"store.backend",
	"database.postgres.url", "database.postgres.host", "database.postgres.port",
	"database.postgres.database", "database.postgres.user", "database.postgres.password",
	"database.postgres.max_connections", "database.postgres.max_idle", "database.postgres.sslmode",
	"database.elasticsearch.addresses", "database.elasticsearch.username",
	"database.elasticsearch.password", "database.elasticsearch.url", "database.elasticsearch.pipeline",
	"database.redis.address", "database.redis.password", "database.redis.db",
	"identity.provider", "identity.ready_timeout", "identity.cache_ttl",
	"identity.keycloak.url", "identity.keycloak.realm", "identity.keycloak.client_id",
	"identity.keycloak.client_secret", "identity.keycloak.timeout",
	"notifications.aws.region", "notifications.sns.enabled", "notifications.sns.topic_arn",
	"notifications.ses.enabled", "notifications.ses.from_email",
	"metrics.addr",
	"logging.level", "logging.format", "logging.output",
}

// Load reads configuration. When path is empty the usual config directories are
// searched and a missing file is not an error: the environment alone is a valid
// configuration, including one with no store credentials at all.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading base config: %w", err)
			}
		}

		env := os.Getenv("APP_ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		_ = v.MergeInConfig() // ignore error if not found
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 0 is a valid delay (no pause), so only an absent key gets the default
	if !v.IsSet("survey.confirm_delay") {
		cfg.Survey.ConfirmDelay = DefaultConfirmDelay
	}
	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig maps the short, conventional variable names used by
// container platforms onto the nested keys.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.URL == "" {
		cfg.Database.Postgres.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("DB_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("DB_PASSWORD")
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = os.Getenv("REDIS_ADDR")
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		cfg.Database.Elasticsearch.URL = os.Getenv("ELASTICSEARCH_URL")
	}
	if cfg.Identity.Keycloak.ClientSecret == "" {
		cfg.Identity.Keycloak.ClientSecret = os.Getenv("KEYCLOAK_CLIENT_SECRET")
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = os.Getenv("AWS_REGION")
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "survey-kiosk"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.KioskID == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.App.KioskID = host
		} else {
			cfg.App.KioskID = cfg.App.Name
		}
	}

	if cfg.Survey.Collection == "" {
		cfg.Survey.Collection = "rumble_responses"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 4
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 1
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}
	if cfg.Database.Elasticsearch.Pipeline == "" {
		cfg.Database.Elasticsearch.Pipeline = "survey-completed-at"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = inferBackend(cfg)
	}

	if cfg.Identity.Provider == "" {
		switch {
		case cfg.Identity.Keycloak.URL != "":
			cfg.Identity.Provider = IdentityKeycloak
		case cfg.Store.Backend != BackendNone:
			cfg.Identity.Provider = IdentityLocal
		default:
			cfg.Identity.Provider = IdentityNone
		}
	}
	if cfg.Identity.ReadyTimeout == 0 {
		cfg.Identity.ReadyTimeout = 20000
	}
	if cfg.Identity.CacheTTL == 0 {
		cfg.Identity.CacheTTL = 24 * 30
	}
	if cfg.Identity.Keycloak.Timeout == 0 {
		cfg.Identity.Keycloak.Timeout = 10000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "survey-kiosk.log"
	}
}

// inferBackend picks the first store whose credentials are present.
func inferBackend(cfg *Config) string {
	switch {
	case cfg.Database.Postgres.Configured():
		return BackendPostgres
	case cfg.Database.Elasticsearch.GetURL() != "":
		return BackendElasticsearch
	case cfg.Database.Redis.Address != "":
		return BackendRedis
	default:
		return BackendNone
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case BackendNone, BackendMemory:
	case BackendPostgres:
		if !cfg.Database.Postgres.Configured() {
			return fmt.Errorf("database.postgres.url or database.postgres.host is required for the postgres store")
		}
		if cfg.Database.Postgres.URL == "" && cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	case BackendElasticsearch:
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for the elasticsearch store")
		}
	case BackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}

	switch cfg.Identity.Provider {
	case IdentityNone, IdentityLocal:
	case IdentityKeycloak:
		if cfg.Identity.Keycloak.URL == "" || cfg.Identity.Keycloak.Realm == "" || cfg.Identity.Keycloak.ClientID == "" {
			return fmt.Errorf("identity.keycloak.url, realm and client_id are required for the keycloak provider")
		}
	default:
		return fmt.Errorf("unknown identity.provider %q", cfg.Identity.Provider)
	}
	if cfg.Identity.Provider == IdentityNone && cfg.Store.Backend != BackendNone {
		return fmt.Errorf("identity.provider none cannot be used with the %s store: stored submissions need a respondent identity", cfg.Store.Backend)
	}

	if cfg.Survey.ConfirmDelay < 0 {
		return fmt.Errorf("survey.confirm_delay must not be negative")
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	if cfg.Notifications.SES.Enabled && cfg.Notifications.SES.FromEmail == "" {
		return fmt.Errorf("notifications.ses.from_email is required when ses is enabled")
	}

	return nil
}

// DefaultConfirmDelay is the answer confirmation pause in milliseconds.
const DefaultConfirmDelay = 250

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
