package commands

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/config"
)

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory holding the SQLite database
	DataDir string `help:"Path to data directory" default:"./data"`
	// Config is an optional YAML settings file
	Config string `help:"Path to YAML config file" type:"path" env:"LOAN_SEARCH_CONFIG"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
	// DatabaseDriver overrides the configured database driver
	DatabaseDriver string `help:"Database driver (sqlite3, postgres)" env:"LOAN_SEARCH_DB_DRIVER"`
	// DatabaseDSN overrides the configured database connection string
	DatabaseDSN string `help:"Database connection string" env:"LOAN_SEARCH_DB_DSN"`
}

// SourceConfig selects where loan records are loaded from
type SourceConfig struct {
	// File loads records from a JSON or CSV file instead of the database
	File string `help:"Load loans from a JSON or CSV file instead of the database" type:"existingfile" short:"f"`
}

// Logger creates a stderr logger at the configured level
func (c CommonConfig) Logger() *log.Logger {
	logger := log.New(os.Stderr)

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		logger.Fatal("Invalid log level", "error", err)
	}
	logger.SetLevel(level)

	return logger
}

// LoadConfig reads the config file, applying any database flags on top
func (c CommonConfig) LoadConfig() (config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return cfg, err
	}

	if c.DatabaseDriver != "" {
		cfg.Database.Driver = c.DatabaseDriver
	}
	if c.DatabaseDSN != "" {
		cfg.Database.DSN = c.DatabaseDSN
	}
	return cfg, cfg.Validate()
}
