// Package config loads partprice configuration from YAML, .env files and
// environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jonesrussell/partprice/internal/logger"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Default configuration values.
const (
	defaultServerHost      = "0.0.0.0"
	defaultServerPort      = 8000
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	defaultDBHost         = "localhost"
	defaultDBPort         = 5432
	defaultDBUser         = "postgres"
	defaultDBName         = "partprice"
	defaultDBSSLMode      = "disable"
	defaultSQLitePath     = "partprice.db"
	defaultMaxOpenConns   = 10
	defaultMaxIdleConns   = 5
	defaultConnMaxLife    = 5 * time.Minute
	defaultRedisAddress   = "localhost:6379"
	defaultRedisStream    = "partprice:prices"
	defaultMetricsPath    = "/metrics"
	defaultPacingDelay    = 2 * time.Second
	defaultPassInterval   = 6 * time.Hour
	defaultStopGrace      = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 10 * 1024 * 1024
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
)

// DefaultParts is the fixed search catalog, in visiting order.
var DefaultParts = []string{
	"oil filter",
	"air filter",
	"brake pads",
	"spark plugs",
	"fuel filter",
	"timing belt",
	"water pump",
	"radiator",
	"clutch kit",
	"shock absorber",
	"wheel bearing",
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logger.Config  `yaml:"logging"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST"             yaml:"host"`
	Port            int           `env:"SERVER_PORT"             yaml:"port"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     yaml:"read_timeout"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    yaml:"write_timeout"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"            yaml:"cors_origins"`
	Debug           bool          `env:"APP_DEBUG"               yaml:"debug"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the catalog store.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER"            yaml:"driver"`
	Host            string        `env:"DB_HOST"              yaml:"host"`
	Port            int           `env:"DB_PORT"              yaml:"port"`
	User            string        `env:"DB_USER"              yaml:"user"`
	Password        string        `env:"DB_PASSWORD"          yaml:"password"`
	Name            string        `env:"DB_NAME"              yaml:"name"`
	SSLMode         string        `env:"DB_SSLMODE"           yaml:"sslmode"`
	Path            string        `env:"DB_PATH"              yaml:"path"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"    yaml:"max_open_conns"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"    yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE"      yaml:"auto_migrate"`
	Seed            bool          `env:"DB_SEED"              yaml:"seed"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// ScraperConfig configures the ingestion scheduler and the retailer fetch session.
type ScraperConfig struct {
	AutoStart         bool          `env:"SCRAPER_AUTOSTART"           yaml:"autostart"`
	PacingDelay       time.Duration `env:"SCRAPER_PACING_DELAY"        yaml:"pacing_delay"`
	PassInterval      time.Duration `env:"SCRAPER_PASS_INTERVAL"       yaml:"pass_interval"`
	StopGrace         time.Duration `env:"SCRAPER_STOP_GRACE"          yaml:"stop_grace"`
	RequestTimeout    time.Duration `env:"SCRAPER_REQUEST_TIMEOUT"     yaml:"request_timeout"`
	MaxBodyBytes      int64         `env:"SCRAPER_MAX_BODY_BYTES"      yaml:"max_body_bytes"`
	RequestsPerSecond float64       `env:"SCRAPER_REQUESTS_PER_SECOND" yaml:"requests_per_second"`
	UserAgent         string        `env:"SCRAPER_USER_AGENT"          yaml:"user_agent"`
	Accept            string        `env:"SCRAPER_ACCEPT"              yaml:"accept"`
	Parts             []string      `env:"SCRAPER_PARTS"               yaml:"parts"`
	RetailersFile     string        `env:"SCRAPER_RETAILERS_FILE"      yaml:"retailers_file"`
}

// RedisConfig configures the optional price event stream.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED"  yaml:"enabled"`
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
	Stream   string `env:"REDIS_STREAM"   yaml:"stream"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" yaml:"enabled"`
	Path    string `env:"METRICS_PATH"    yaml:"path"`
}

// Load reads path (missing file allowed), applies defaults and environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := &Config{}
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	setServerDefaults(&cfg.Server)
	setDatabaseDefaults(&cfg.Database)
	setScraperDefaults(&cfg.Scraper)
	cfg.Logging.SetDefaults()

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Redis.Stream == "" {
		cfg.Redis.Stream = defaultRedisStream
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}

func setServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = defaultServerHost
	}
	if s.Port == 0 {
		s.Port = defaultServerPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultWriteTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownTimeout
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Name == "" {
		d.Name = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.Path == "" {
		d.Path = defaultSQLitePath
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = defaultMaxOpenConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = defaultConnMaxLife
	}
}

func setScraperDefaults(s *ScraperConfig) {
	if s.PacingDelay == 0 {
		s.PacingDelay = defaultPacingDelay
	}
	if s.PassInterval == 0 {
		s.PassInterval = defaultPassInterval
	}
	if s.StopGrace == 0 {
		s.StopGrace = defaultStopGrace
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = defaultRequestTimeout
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = defaultMaxBodyBytes
	}
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.Accept == "" {
		s.Accept = defaultAccept
	}
	if len(s.Parts) == 0 {
		s.Parts = append([]string(nil), DefaultParts...)
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Name == "" {
			return invalid("database.name", "is required")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return invalid("database.path", "is required")
		}
	default:
		return invalid("database.driver", "must be one of: postgres, sqlite")
	}
	switch c.Logging.Format {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		return invalid("logging.format", "must be one of: json, console")
	}
	if c.Scraper.PacingDelay < 0 {
		return invalid("scraper.pacing_delay", "must not be negative")
	}
	if c.Scraper.StopGrace < 0 {
		return invalid("scraper.stop_grace", "must not be negative")
	}
	if c.Scraper.RequestsPerSecond < 0 {
		return invalid("scraper.requests_per_second", "must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return invalid("redis.address", "is required when redis is enabled")
	}
	return nil
}
