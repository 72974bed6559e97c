package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	MaxAttempts int `env:"HIGHROLL_TEST_MAX_ATTEMPTS" envDefault:"3"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxAttempts != 3 {
		t.Fatalf("expected default max attempts 3, got %d", cfg.MaxAttempts)
	}
}

func TestParseEnvOverride(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("HIGHROLL_TEST_MAX_ATTEMPTS", "5")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("expected max attempts 5, got %d", cfg.MaxAttempts)
	}
}

func TestParseEnvRequiresTarget(t *testing.T) {
	if err := ParseEnv(nil); err == nil {
		t.Fatal("expected error for nil target")
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("HIGHROLL_TEST_MAX_ATTEMPTS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
