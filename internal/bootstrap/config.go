package bootstrap

import (
	"fmt"

	"github.com/jonesrussell/partprice/internal/config"
	"github.com/jonesrussell/partprice/internal/logger"
)

// LoadConfig loads configuration from path, falling back to CONFIG_PATH.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger builds the root logger, forcing debug output when debug is set.
func CreateLogger(cfg *config.Config, debug bool) (logger.Logger, error) {
	logCfg := cfg.Logging
	if debug || cfg.Server.Debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", "partprice")), nil
}
