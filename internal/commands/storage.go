package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/config"
	"github.com/lox/loan-record-search/internal/db"
	"github.com/lox/loan-record-search/internal/loader"
	"github.com/lox/loan-record-search/internal/metrics"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/store"
	"github.com/lox/loan-record-search/internal/types"
)

// OpenDatabase opens the configured database. An empty SQLite DSN uses the file in
// dataDir.
func OpenDatabase(cfg config.Config, dataDir string, logger *log.Logger) (*db.DB, error) {
	if cfg.Database.Driver == db.DriverSQLite && cfg.Database.DSN == "" {
		return db.New(dataDir, logger)
	}
	return db.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
}

// Components are the pieces every search command needs
type Components struct {
	Logger *log.Logger
	Config config.Config
	Policy query.Policy
	Store  *store.Store
	Engine *search.Engine
}

// AsOf returns the date analytics are computed against
func (c *Components) AsOf() types.Date {
	return c.Config.AsOf(time.Now())
}

// Setup loads configuration and fills the store from file, or from the database when
// file is empty
func Setup(ctx context.Context, common CommonConfig, file string) (*Components, error) {
	logger := common.Logger()

	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	records, err := loadRecords(ctx, cfg, common.DataDir, file, logger)
	if err != nil {
		return nil, err
	}

	s := store.New(logger)
	if err := s.Load(records); err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}
	metrics.SetRecordsLoaded(len(records))

	return &Components{
		Logger: logger,
		Config: cfg,
		Policy: policy,
		Store:  s,
		Engine: search.New(s, logger, cfg.SearchOptions()...),
	}, nil
}

func loadRecords(ctx context.Context, cfg config.Config, dataDir, file string, logger *log.Logger) ([]types.LoanRecord, error) {
	if file != "" {
		records, err := loader.DefaultRegistry().ParseFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		logger.Debug("Loaded loans from file", "path", file, "records", len(records))
		return records, nil
	}

	database, err := OpenDatabase(cfg, dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	records, err := database.AllLoans(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded loans from database", "records", len(records))
	return records, nil
}
