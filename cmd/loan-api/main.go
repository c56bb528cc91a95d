package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lox/loan-record-search/internal/commands"
	"github.com/lox/loan-record-search/internal/server"
)

type CLI struct {
	commands.CommonConfig
	commands.SourceConfig

	Addr string `help:"Address to listen on (overrides config)"`
}

func (c *CLI) Run() error {
	comp, err := commands.Setup(context.Background(), c.CommonConfig, c.File)
	if err != nil {
		return err
	}
	logger := comp.Logger
	cfg := comp.Config.HTTP

	addr := cfg.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	api := server.New(comp.Store, comp.Engine, comp.Policy, comp.AsOf, logger)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", "addr", addr, "records", comp.Store.Snapshot().Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", "error", err)
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("loan-api"),
		kong.Description("Serve the loan search HTTP API"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
