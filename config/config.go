package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logging.level"`
	LogFormat   string `mapstructure:"logging.format"`
	Backend     BackendConfig
	Report      ReportConfig
	Redis       RedisConfig
	Elastic     ElasticConfig
	Archive     ArchiveConfig
	Server      ServerConfig
}

// BackendConfig holds the Pimcore admin API configuration. Cookie and
// CSRFToken are the per-session credentials the operator copies out of an
// authenticated browser session; they are never refreshed at runtime.
type BackendConfig struct {
	BaseURL      string        `mapstructure:"backend.base_url"`
	Cookie       string        `mapstructure:"backend.cookie"`
	CSRFToken    string        `mapstructure:"backend.csrf_token"`
	FolderID     int64         `mapstructure:"backend.folder_id"`
	TourClassID  string        `mapstructure:"backend.tour_class_id"`
	EventClassID string        `mapstructure:"backend.event_class_id"`
	ProbeID      int64         `mapstructure:"backend.probe_id"`
	ProbeType    string        `mapstructure:"backend.probe_type"`
	PageLimit    int           `mapstructure:"backend.page_limit"`
	RequestDelay time.Duration `mapstructure:"backend.request_delay"`
	Timeout      time.Duration `mapstructure:"backend.timeout"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	OutputDir string `mapstructure:"report.output_dir"`
	Title     string `mapstructure:"report.title"`
}

// RedisConfig holds the optional detail-cache configuration
type RedisConfig struct {
	Host     string        `mapstructure:"redis.host"`
	Port     int           `mapstructure:"redis.port"`
	Password string        `mapstructure:"redis.password"`
	DB       int           `mapstructure:"redis.db"`
	Enabled  bool          `mapstructure:"redis.enabled"`
	TTL      time.Duration `mapstructure:"redis.ttl"`
}

// ElasticConfig holds the optional Elasticsearch indexing configuration
type ElasticConfig struct {
	URL      string `mapstructure:"elastic.url"`
	Username string `mapstructure:"elastic.username"`
	Password string `mapstructure:"elastic.password"`
	Prefix   string `mapstructure:"elastic.prefix"`
	Index    string `mapstructure:"elastic.index"`
	Enabled  bool   `mapstructure:"elastic.enabled"`
}

// ArchiveConfig holds the optional run-archive database configuration
type ArchiveConfig struct {
	DSN     string `mapstructure:"archive.dsn"`
	Enabled bool   `mapstructure:"archive.enabled"`
}

// ServerConfig holds serve-mode configuration
type ServerConfig struct {
	Address         string        `mapstructure:"server.address"`
	RefreshInterval time.Duration `mapstructure:"server.refresh_interval"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Setup configuration paths
	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Try to read the YAML config first
	if err := v.ReadInConfig(); err != nil {
		// If YAML not found, try ENV file
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			v.SetConfigName("app")
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				// Continue even if no config file is found - we'll use ENV vars and defaults
				fmt.Printf("Warning: No configuration file found: %v\n", err)
			}
		} else {
			// Return if there's an error reading the found config file
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Enable environment variables to override config
	v.SetEnvPrefix("DAV_PIMCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Core settings
	v.SetDefault("environment", "development")

	// Backend settings. The class and folder ids match the Sektion's Pimcore
	// installation; override them when the backend changes.
	v.SetDefault("backend.base_url", "https://www.alpenverein-sektion.de")
	v.SetDefault("backend.folder_id", 67)
	v.SetDefault("backend.tour_class_id", "5")
	v.SetDefault("backend.event_class_id", "9")
	v.SetDefault("backend.probe_id", 1)
	v.SetDefault("backend.probe_type", "document")
	v.SetDefault("backend.page_limit", 100000)
	v.SetDefault("backend.request_delay", "100ms")
	v.SetDefault("backend.timeout", "30s")

	// Report settings
	v.SetDefault("report.output_dir", "./reports")
	v.SetDefault("report.title", "Gruppentermine")

	// Redis settings
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.ttl", "15m")

	// Elasticsearch settings
	v.SetDefault("elastic.url", "http://localhost:9200")
	v.SetDefault("elastic.prefix", "dav")
	v.SetDefault("elastic.index", "gruppentermine")
	v.SetDefault("elastic.enabled", false)

	// Archive settings
	v.SetDefault("archive.enabled", false)

	// Serve-mode settings
	v.SetDefault("server.address", "0.0.0.0:8080")
	v.SetDefault("server.refresh_interval", "30m")

	// Logging settings
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// FormatIndex formats an Elasticsearch index name with the configured prefix
func FormatIndex(cfg ElasticConfig, index string) string {
	return cfg.Prefix + "-" + index
}
