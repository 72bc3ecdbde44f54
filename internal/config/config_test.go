package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %q", c.Server.Port)
	}
	if c.Server.RequestTimeout != 30*time.Second {
		t.Errorf("expected request timeout 30s, got %v", c.Server.RequestTimeout)
	}
	if c.Redis.TTL != 30*time.Second {
		t.Errorf("expected redis ttl 30s, got %v", c.Redis.TTL)
	}
	if c.Valuation.RiskFreeRate != 0.045 {
		t.Errorf("expected risk-free 0.045, got %v", c.Valuation.RiskFreeRate)
	}
	dcf := c.Valuation.Params.DCF
	if dcf.HorizonYears != 5 || dcf.TerminalGrowth != 0.025 || dcf.EquityRiskPremium != 0.055 {
		t.Errorf("unexpected dcf defaults: %+v", dcf)
	}
	if c.Valuation.Params.EPV.Window != 3 {
		t.Errorf("expected epv window 3, got %d", c.Valuation.Params.EPV.Window)
	}
	if c.SlogLevel() != slog.LevelInfo {
		t.Errorf("expected info level, got %v", c.SlogLevel())
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
environment: production
server:
  port: "9090"
  request_timeout: 5s
log:
  level: debug
valuation:
  risk_free_rate: 0.03
  params:
    dcf:
      horizon_years: 10
      terminal_growth: 0.02
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Environment != "production" || c.Server.Port != "9090" {
		t.Errorf("yaml values not applied: %+v", c)
	}
	if c.Server.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", c.Server.RequestTimeout)
	}
	if c.Valuation.Params.DCF.HorizonYears != 10 || c.Valuation.Params.DCF.TerminalGrowth != 0.02 {
		t.Errorf("dcf params not applied: %+v", c.Valuation.Params.DCF)
	}
	// Untouched keys keep their defaults.
	if c.Valuation.Params.DCF.MaxWACC != 0.20 {
		t.Errorf("expected default max wacc, got %v", c.Valuation.Params.DCF.MaxWACC)
	}
	if c.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", c.SlogLevel())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad level":       "log:\n  level: loud\n",
		"bad environment": "environment: moon\n",
		"negative rate":   "valuation:\n  risk_free_rate: -0.01\n",
		"terminal growth": "valuation:\n  params:\n    dcf:\n      terminal_growth: 0.07\n",
		"wacc bounds":     "valuation:\n  params:\n    dcf:\n      min_wacc: 0.3\n",
		"bad port":        "server:\n  port: http\n",
		"not yaml":        "server: [",
	}
	for name, content := range tests {
		path := writeFile(t, "config.yaml", content)
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	// RISK_FREE_RATE comes from the .env file.
	os.Unsetenv("RISK_FREE_RATE")
	t.Cleanup(func() { os.Unsetenv("RISK_FREE_RATE") })
	env := writeFile(t, ".env", "RISK_FREE_RATE=0.051\n")

	c, err := LoadWithEnv("", env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != "7070" {
		t.Errorf("expected env port 7070, got %q", c.Server.Port)
	}
	if c.Log.Level != "warn" {
		t.Errorf("expected warn, got %q", c.Log.Level)
	}
	if c.Valuation.RiskFreeRate != 0.051 {
		t.Errorf("expected .env risk-free 0.051, got %v", c.Valuation.RiskFreeRate)
	}
}

func TestLoadWithEnv_MissingEnvFileIsSkipped(t *testing.T) {
	if _, err := LoadWithEnv("", filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadWithEnv_BadRate(t *testing.T) {
	t.Setenv("RISK_FREE_RATE", "four percent")
	_, err := LoadWithEnv("", filepath.Join(t.TempDir(), ".env"))
	if err == nil || !strings.Contains(err.Error(), "RISK_FREE_RATE") {
		t.Fatalf("expected RISK_FREE_RATE error, got %v", err)
	}
}
