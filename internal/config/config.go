package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Database
		HTTP
		Sync
		Global
		Feeds []Feed
	}

	Database struct {
		Host            string
		Port            int
		Username        string
		Password        string
		Name            string
		ConnectTimeout  time.Duration
		PingTimeout     time.Duration
		SocketTimeout   time.Duration
		MaxPoolSize     uint64
		MinPoolSize     uint64
		AuditCollection string
	}
	HTTP struct {
		Port int32
		Host string
	}
	Sync struct {
		Enabled  bool
		Schedule string // Cron format: "30 16 * * *" = daily at 16:30
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		Timezone                 string
	}

	// Feed describes one remote report to fetch and where to store it.
	// IntCols lists technical columns coerced to integers after transform.
	Feed struct {
		Name        string   `mapstructure:"name"`
		URLTemplate string   `mapstructure:"url_template"`
		Collection  string   `mapstructure:"collection"`
		IntCols     []string `mapstructure:"int_cols"`
		Enabled     bool     `mapstructure:"enabled"`
	}
)

// DefaultFeeds returns the built-in feed set, used when the config file does
// not define its own. Covers the PK5L day-ahead coordination plan report.
func DefaultFeeds() []Feed {
	return []Feed{
		{
			Name:        "pk5l-wp",
			URLTemplate: DefaultPK5LURLTemplate,
			Collection:  DefaultPK5LCollection,
			IntCols: []string{
				"Prognozowane_zapotrzebowanie_sieci",
				"Wymagana_rezerwa_mocy_OSP",
			},
			Enabled: true,
		},
	}
}

// NewConfig loads configuration from the environment layered over an optional
// YAML config file. An empty configPath means environment and defaults only.
func NewConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Database defaults mirror the legacy config.json / MONGODB_* CI secrets.
	v.SetDefault("mongodb_host", "localhost")
	v.SetDefault("mongodb_port", 27017)
	v.SetDefault("mongodb_username", "")
	v.SetDefault("mongodb_password", "")
	v.SetDefault("mongodb_db_name", "pse_data")
	v.SetDefault("mongodb_connect_timeout", "10s")
	v.SetDefault("mongodb_ping_timeout", "5s")
	v.SetDefault("mongodb_socket_timeout", "30s")
	v.SetDefault("mongodb_max_pool_size", 10)
	v.SetDefault("mongodb_min_pool_size", 1)
	v.SetDefault("audit_collection", DefaultAuditCollection)

	v.SetDefault("http_port", 8189)
	v.SetDefault("http_host", "0.0.0.0")

	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_schedule", "30 16 * * *") // Daily, after PSE publishes the plan

	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("timezone", DefaultTimezone)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
	}

	cfg := &Config{
		Database: Database{
			Host:            v.GetString("MONGODB_HOST"),
			Port:            v.GetInt("MONGODB_PORT"),
			Username:        v.GetString("MONGODB_USERNAME"),
			Password:        v.GetString("MONGODB_PASSWORD"),
			Name:            v.GetString("MONGODB_DB_NAME"),
			ConnectTimeout:  v.GetDuration("MONGODB_CONNECT_TIMEOUT"),
			PingTimeout:     v.GetDuration("MONGODB_PING_TIMEOUT"),
			SocketTimeout:   v.GetDuration("MONGODB_SOCKET_TIMEOUT"),
			MaxPoolSize:     v.GetUint64("MONGODB_MAX_POOL_SIZE"),
			MinPoolSize:     v.GetUint64("MONGODB_MIN_POOL_SIZE"),
			AuditCollection: v.GetString("AUDIT_COLLECTION"),
		},
		HTTP: HTTP{
			Port: v.GetInt32("HTTP_PORT"),
			Host: v.GetString("HTTP_HOST"),
		},
		Sync: Sync{
			Enabled:  v.GetBool("SYNC_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			Timezone:                 v.GetString("TIMEZONE"),
		},
	}

	if v.IsSet("feeds") {
		if err := v.UnmarshalKey("feeds", &cfg.Feeds); err != nil {
			return nil, fmt.Errorf("parse feeds: %w", err)
		}
	} else {
		cfg.Feeds = DefaultFeeds()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the parts of the configuration the pipeline cannot run
// without. Called by NewConfig; exported for tests and the check command.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	enabled := 0
	for i, f := range c.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed %d: name is required", i)
		}
		if f.URLTemplate == "" {
			return fmt.Errorf("feed %q: url_template is required", f.Name)
		}
		if f.Collection == "" {
			return fmt.Errorf("feed %q: collection is required", f.Name)
		}
		if f.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("no enabled feeds configured")
	}

	if _, err := time.LoadLocation(c.Global.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Global.Timezone, err)
	}

	return nil
}

// EnabledFeeds returns the feeds the pipeline should process, in config order.
func (c *Config) EnabledFeeds() []Feed {
	feeds := make([]Feed, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		if f.Enabled {
			feeds = append(feeds, f)
		}
	}
	return feeds
}
