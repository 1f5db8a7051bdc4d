package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "ADMIN_PORT", "LOG_LEVEL", "PRICE_LOWER_LIMIT", "PRICE_UPPER_LIMIT",
	"ORPHAN_POLICY", "OUTBOUND_QUEUE", "BOOK_DEPTH", "READ_TIMEOUT",
	"WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
}

// clearEnv unsets every config key and restores it when the test ends,
// including keys later set by a .env file.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.AdminPort != 8081 {
		t.Errorf("AdminPort = %d, want 8081", cfg.AdminPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.PriceLowerLimit != 1.0 || cfg.PriceUpperLimit != 10.0 {
		t.Errorf("price limits = [%v, %v], want [1, 10]", cfg.PriceLowerLimit, cfg.PriceUpperLimit)
	}
	if cfg.OrphanPolicy != OrphanRetain {
		t.Errorf("OrphanPolicy = %q, want %q", cfg.OrphanPolicy, OrphanRetain)
	}
	if cfg.OutboundQueue != 256 {
		t.Errorf("OutboundQueue = %d, want 256", cfg.OutboundQueue)
	}
	if cfg.BookDepth != 5 {
		t.Errorf("BookDepth = %d, want 5", cfg.BookDepth)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v, want 5s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", cfg.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_PORT", "9091")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PRICE_LOWER_LIMIT", "0.5")
	t.Setenv("PRICE_UPPER_LIMIT", "250.25")
	t.Setenv("ORPHAN_POLICY", "cancel")
	t.Setenv("OUTBOUND_QUEUE", "16")
	t.Setenv("BOOK_DEPTH", "10")
	t.Setenv("WRITE_TIMEOUT", "250ms")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 || cfg.AdminPort != 9091 {
		t.Errorf("ports = %d/%d, want 9090/9091", cfg.Port, cfg.AdminPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.PriceLowerLimit != 0.5 || cfg.PriceUpperLimit != 250.25 {
		t.Errorf("price limits = [%v, %v], want [0.5, 250.25]", cfg.PriceLowerLimit, cfg.PriceUpperLimit)
	}
	if cfg.OrphanPolicy != OrphanCancel {
		t.Errorf("OrphanPolicy = %q, want cancel", cfg.OrphanPolicy)
	}
	if cfg.OutboundQueue != 16 || cfg.BookDepth != 10 {
		t.Errorf("OutboundQueue/BookDepth = %d/%d, want 16/10", cfg.OutboundQueue, cfg.BookDepth)
	}
	if cfg.WriteTimeout != 250*time.Millisecond {
		t.Errorf("WriteTimeout = %v, want 250ms", cfg.WriteTimeout)
	}
}

func TestLoadFile_DotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=7000\nPRICE_UPPER_LIMIT=20\nORPHAN_POLICY=cancel\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// The environment wins over the file.
	t.Setenv("PORT", "7001")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7001 {
		t.Errorf("Port = %d, want 7001 from environment", cfg.Port)
	}
	if cfg.PriceUpperLimit != 20 {
		t.Errorf("PriceUpperLimit = %v, want 20 from .env", cfg.PriceUpperLimit)
	}
	if cfg.OrphanPolicy != OrphanCancel {
		t.Errorf("OrphanPolicy = %q, want cancel from .env", cfg.OrphanPolicy)
	}
}

func TestLoadFile_MissingDotEnvIsFine(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"PORT":              "not-a-number",
		"ADMIN_PORT":        "x",
		"LOG_LEVEL":         "verbose",
		"PRICE_LOWER_LIMIT": "cheap",
		"PRICE_UPPER_LIMIT": "NaN",
		"ORPHAN_POLICY":     "forget",
		"OUTBOUND_QUEUE":    "0",
		"BOOK_DEPTH":        "-1",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			if _, err := LoadFile(""); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}

func TestLoad_LowerAboveUpper(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICE_LOWER_LIMIT", "11")

	if _, err := LoadFile(""); err == nil {
		t.Fatal("expected error when lower limit is above upper limit")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	keys := []string{
		"READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "not-a-duration")

			_, err := LoadFile("")
			if err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}
