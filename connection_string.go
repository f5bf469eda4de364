package hintdb

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardKnop/hintdb/internal/sqldb"
)

// ConnectionConfig holds parsed connection string parameters
type ConnectionConfig struct {
	FilePath     string // Database file path
	LogLevel     string // Log level: debug, info, warn, error (default: warn)
	MaxVariables int    // Maximum bound parameters per query (default: 999)
	Readers      int    // Reader connection pool size (default: 4)
}

// DefaultConnectionConfig returns default configuration
func DefaultConnectionConfig(filePath string) *ConnectionConfig {
	return &ConnectionConfig{
		FilePath:     filePath,
		LogLevel:     "warn",
		MaxVariables: sqldb.DefaultMaxVariables,
		Readers:      sqldb.DefaultReaders,
	}
}

// ParseConnectionString parses a connection string with optional query parameters.
//
// Format: /path/to/database.db?param1=value1&param2=value2
//
// Supported parameters:
//   - log_level=debug|info|warn|error : Set logging level (default: warn)
//   - max_variables=N : Bound-parameter ceiling per query (default: 999)
//   - readers=N : Reader connection pool size (default: 4)
//
// Examples:
//   - "./hints.db"                          : Default settings
//   - "./hints.db?log_level=debug"          : Enable debug logging
//   - "./hints.db?max_variables=500&readers=8" : Both settings
func ParseConnectionString(connStr string) (*ConnectionConfig, error) {
	// Split on first '?' to separate path from query params
	parts := strings.SplitN(connStr, "?", 2)

	config := DefaultConnectionConfig(parts[0])

	// No query parameters
	if len(parts) == 1 {
		return config, nil
	}

	queryParams, err := url.ParseQuery(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid connection string query parameters: %w", err)
	}

	if logLevel := queryParams.Get("log_level"); logLevel != "" {
		logLevel = strings.ToLower(logLevel)
		switch logLevel {
		case "debug", "info", "warn", "error":
			config.LogLevel = logLevel
		default:
			return nil, fmt.Errorf("invalid log_level parameter: must be 'debug', 'info', 'warn', or 'error', got %q", logLevel)
		}
	}

	if maxVarsStr := queryParams.Get("max_variables"); maxVarsStr != "" {
		maxVars, err := strconv.Atoi(maxVarsStr)
		if err != nil {
			return nil, fmt.Errorf("invalid max_variables parameter: must be a positive integer, got %q", maxVarsStr)
		}
		if maxVars <= 0 {
			return nil, fmt.Errorf("invalid max_variables parameter: must be positive, got %d", maxVars)
		}
		config.MaxVariables = maxVars
	}

	if readersStr := queryParams.Get("readers"); readersStr != "" {
		readers, err := strconv.Atoi(readersStr)
		if err != nil {
			return nil, fmt.Errorf("invalid readers parameter: must be a positive integer, got %q", readersStr)
		}
		if readers <= 0 {
			return nil, fmt.Errorf("invalid readers parameter: must be positive, got %d", readers)
		}
		config.Readers = readers
	}

	return config, nil
}

// GetZapLevel converts log level string to zap.Level
func (c *ConnectionConfig) GetZapLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	}
}
