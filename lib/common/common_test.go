package common

import (
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for input, expected := range cases {
		level, err := ParseLogLevel(input)
		if err != nil {
			t.Errorf("Unexpected error for %s: %v", input, err)
		}
		if level != expected {
			t.Errorf("Expected %v for %s, got %v", expected, input, level)
		}
	}

	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	out := cfg.String()

	for _, expected := range []string{"ENGINE", "STORAGE", "LOGGING", "isam.snapshot", "(default)"} {
		if !strings.Contains(out, expected) {
			t.Errorf("Expected the config string to contain %q, got:\n%s", expected, out)
		}
	}
	if !strings.Contains(out, "  Data File             : isam.snapshot\n") {
		t.Errorf("Expected aligned fields, got:\n%s", out)
	}
}

func TestCreateLogger(t *testing.T) {
	l := CreateLogger("test")
	l.SetLevel(logger.ERROR)
	// below the level, nothing is written
	l.Debugf("hidden %d", 1)
	l.Errorf("shown %d", 2)
}

func TestLoggerPanicf(t *testing.T) {
	l := CreateLogger("test")
	defer func() {
		if r := recover(); r != "test: failed 3" {
			t.Errorf("Expected panic with package name, got %v", r)
		}
	}()
	l.Panicf("failed %d", 3)
}
