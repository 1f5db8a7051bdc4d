package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Orphan policies decide what happens to the resting orders of a client
// whose connection is gone.
const (
	OrphanRetain = "retain"
	OrphanCancel = "cancel"
)

// Config holds all runtime configuration for the matching server.
type Config struct {
	Port            int
	AdminPort       int
	LogLevel        string
	PriceLowerLimit float64
	PriceUpperLimit float64
	OrphanPolicy    string
	OutboundQueue   int
	BookDepth       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads an optional .env file from the working directory, then the
// environment. See LoadFile.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile reads variables from envFile (if it exists) without overriding
// ones already set in the environment, then reads configuration from the
// environment, applies defaults, and validates values.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	adminPort, err := getInt("ADMIN_PORT", 8081)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	lower, err := getFloat("PRICE_LOWER_LIMIT", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_LOWER_LIMIT: %w", err)
	}

	upper, err := getFloat("PRICE_UPPER_LIMIT", 10.0)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_UPPER_LIMIT: %w", err)
	}
	if lower > upper {
		return nil, fmt.Errorf("PRICE_LOWER_LIMIT %v is above PRICE_UPPER_LIMIT %v", lower, upper)
	}

	orphanPolicy := getStr("ORPHAN_POLICY", OrphanRetain)
	if orphanPolicy != OrphanRetain && orphanPolicy != OrphanCancel {
		return nil, fmt.Errorf("invalid ORPHAN_POLICY: %q, must be one of: retain, cancel", orphanPolicy)
	}

	outboundQueue, err := getInt("OUTBOUND_QUEUE", 256)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTBOUND_QUEUE: %w", err)
	}
	if outboundQueue < 1 {
		return nil, fmt.Errorf("invalid OUTBOUND_QUEUE: %d, must be >= 1", outboundQueue)
	}

	bookDepth, err := getInt("BOOK_DEPTH", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOK_DEPTH: %w", err)
	}
	if bookDepth < 1 {
		return nil, fmt.Errorf("invalid BOOK_DEPTH: %d, must be >= 1", bookDepth)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		AdminPort:       adminPort,
		LogLevel:        logLevel,
		PriceLowerLimit: lower,
		PriceUpperLimit: upper,
		OrphanPolicy:    orphanPolicy,
		OutboundQueue:   outboundQueue,
		BookDepth:       bookDepth,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", v)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
