package logging

import (
	"testing"

	"FlowSpectra/internal/config"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	if err := Setup(config.LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", logrus.StandardLogger().Formatter)
	}
	if err := Setup(config.LogConfig{Level: "loud"}); err == nil {
		t.Errorf("Expected error for unknown level")
	}
	if err := Setup(config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}
