package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lox/loan-record-search/internal/commands"
	"github.com/lox/loan-record-search/internal/importer"
	"github.com/lox/loan-record-search/internal/loader"
	"github.com/lox/loan-record-search/internal/types"
)

type CLI struct {
	commands.CommonConfig

	Files       []string `arg:"" help:"JSON or CSV loan files to import" type:"existingfile"`
	Concurrency int      `help:"Number of files to parse concurrently (0 = config)" default:"0"`
	BatchSize   int      `help:"Loans stored per transaction (0 = config)" default:"0"`
	NoProgress  bool     `help:"Disable progress bar" default:"false"`
	DryRun      bool     `help:"Parse and validate the files without storing them" default:"false"`
}

func (c *CLI) Run() error {
	logger := c.Logger()

	cfg, err := c.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	database, err := commands.OpenDatabase(cfg, c.DataDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	importConfig := importer.Config{
		BatchSize:     cfg.Import.BatchSize,
		RetryAttempts: cfg.Import.RetryAttempts,
		Concurrency:   cfg.Import.Concurrency,
		Progress:      !c.NoProgress,
		DryRun:        c.DryRun,
	}
	if c.Concurrency > 0 {
		importConfig.Concurrency = c.Concurrency
	}
	if c.BatchSize > 0 {
		importConfig.BatchSize = c.BatchSize
	}

	logger.Info("Importing loans", "files", len(c.Files), "formats", loader.DefaultRegistry().List())

	start := time.Now()
	result, err := importer.New(database, loader.DefaultRegistry(), logger).Import(ctx, c.Files, importConfig)
	if err != nil {
		return err
	}

	stats, err := database.Statistics(ctx, types.Filters{})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d loans from %d files in %s\n", result.Records, result.Files, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Database now holds %d loans totalling $%.2f\n", stats.TotalLoans, stats.TotalLoanAmount)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("loan-import"),
		kong.Description("Import loan records from JSON or CSV files into the database"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
