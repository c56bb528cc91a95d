package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lox/loan-record-search/internal/commands"
	"github.com/lox/loan-record-search/internal/mcp"
)

type CLI struct {
	commands.CommonConfig
	commands.SourceConfig
}

func (c *CLI) Run() error {
	comp, err := commands.Setup(context.Background(), c.CommonConfig, c.File)
	if err != nil {
		return err
	}

	s := mcp.New(comp.Store, comp.Engine, comp.Policy, comp.AsOf, comp.Logger)
	return s.Run()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("loan-mcp-server"),
		kong.Description("Serve loan search tools over the Model Context Protocol on stdio"),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
