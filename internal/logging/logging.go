package logging

import (
	"fmt"
	"os"

	"FlowSpectra/internal/config"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger from the config.
func Setup(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", cfg.Level, err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format '%s'", cfg.Format)
	}
	return nil
}
