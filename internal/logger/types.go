package logger

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Defaults applied by SetDefaults.
const (
	DefaultLevel  = "info"
	DefaultFormat = FormatJSON
)

// Config configures the logger.
type Config struct {
	Level       string   `env:"LOG_LEVEL"       yaml:"level"`
	Format      string   `env:"LOG_FORMAT"      yaml:"format"`
	Development bool     `env:"LOG_DEVELOPMENT" yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
