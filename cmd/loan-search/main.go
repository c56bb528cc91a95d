package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lox/loan-record-search/internal/analytics"
	"github.com/lox/loan-record-search/internal/commands"
	"github.com/lox/loan-record-search/internal/db"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/types"
)

// FilterFlags are the structured search filters
type FilterFlags struct {
	LoanID         string  `help:"Loan id, or part of one" name:"loan-id"`
	Customer       string  `help:"Customer name"`
	Status         string  `help:"Exact loan status"`
	ProductName    string  `help:"Text contained in the product name"`
	ProductType    string  `help:"Exact product type"`
	Servicer       string  `help:"Text contained in the servicer name"`
	State          string  `help:"Two letter state code of the property"`
	Address        string  `help:"Text contained in the property address"`
	MinAmount      float64 `help:"Minimum loan amount" default:"-1"`
	MaxAmount      float64 `help:"Maximum loan amount" default:"-1"`
	MinRate        float64 `help:"Minimum interest rate" default:"-1"`
	MaxRate        float64 `help:"Maximum interest rate" default:"-1"`
	OriginatedFrom string  `help:"Earliest origination date (YYYY-MM-DD)"`
	OriginatedTo   string  `help:"Latest origination date (YYYY-MM-DD)"`
}

// Filters converts the flags, treating negative numbers and empty dates as unset
func (f FilterFlags) Filters() (types.Filters, error) {
	filters := types.Filters{
		LoanID:      f.LoanID,
		Customer:    f.Customer,
		Status:      f.Status,
		ProductName: f.ProductName,
		ProductType: f.ProductType,
		Servicer:    f.Servicer,
		State:       f.State,
		Address:     f.Address,
		MinAmount:   nonNegative(f.MinAmount),
		MaxAmount:   nonNegative(f.MaxAmount),
		MinRate:     nonNegative(f.MinRate),
		MaxRate:     nonNegative(f.MaxRate),
	}

	var err error
	if filters.OriginatedFrom, err = optionalDate(f.OriginatedFrom); err != nil {
		return filters, fmt.Errorf("invalid --originated-from: %w", err)
	}
	if filters.OriginatedTo, err = optionalDate(f.OriginatedTo); err != nil {
		return filters, fmt.Errorf("invalid --originated-to: %w", err)
	}
	return filters, nil
}

func nonNegative(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}

func optionalDate(s string) (*types.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type SearchCmd struct {
	commands.SourceConfig
	FilterFlags

	Sort    string `help:"Sort by amount, rate, origination_date, balance or customer_name"`
	Order   string `help:"Sort order" default:"asc" enum:"asc,desc"`
	Limit   int    `help:"Maximum number of results to return (0 = no limit)" default:"20"`
	Backend string `help:"Search the in-memory index or query the database directly" default:"memory" enum:"memory,sql"`
	Page    int    `help:"Result page when using the sql backend; the limit is the page size" default:"1"`
}

func (c *SearchCmd) Run(common *commands.CommonConfig) error {
	ctx := context.Background()

	filters, err := c.Filters()
	if err != nil {
		return err
	}
	if c.Backend == "sql" {
		return c.runSQL(ctx, common, filters)
	}

	sortBy, ok := search.ParseSortField(c.Sort)
	if !ok {
		return fmt.Errorf("unknown sort field %q", c.Sort)
	}

	comp, err := commands.Setup(ctx, *common, c.File)
	if err != nil {
		return err
	}

	result := comp.Engine.Search(types.SearchQuery{
		Criteria: query.FromFilters(filters, comp.Policy),
		Limit:    c.Limit,
		SortBy:   sortBy,
		Order:    search.ParseSortOrder(c.Order),
	})
	commands.PrintResult(os.Stdout, result)
	return nil
}

func (c *SearchCmd) runSQL(ctx context.Context, common *commands.CommonConfig, filters types.Filters) error {
	logger := common.Logger()
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}

	database, err := commands.OpenDatabase(cfg, common.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	records, total, err := database.SearchLoans(ctx, filters, c.Page, c.Limit)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("No loans found")
		return nil
	}

	fmt.Printf("Found %d loans (page %d, showing %d):\n\n", total, c.Page, len(records))
	commands.PrintRecords(os.Stdout, records)

	stats, err := database.Statistics(ctx, filters)
	if err != nil {
		return err
	}
	printStatistics(stats)
	return nil
}

func printStatistics(stats db.Statistics) {
	fmt.Printf("Total Loan Amount:       $%.2f\n", stats.TotalLoanAmount)
	fmt.Printf("Total Remaining Balance: $%.2f\n", stats.TotalRemainingBalance)
	fmt.Printf("Average Interest Rate:   %.3f%%\n", stats.AverageInterestRate)
}

type AskCmd struct {
	commands.SourceConfig

	Question []string `arg:"" help:"Question in plain English, e.g. 'current fha loans amount 100000 to 500000'"`
}

func (c *AskCmd) Run(common *commands.CommonConfig) error {
	comp, err := commands.Setup(context.Background(), *common, c.File)
	if err != nil {
		return err
	}

	question := strings.Join(c.Question, " ")
	q := query.NewInterpreter(comp.Policy, comp.Logger).Interpret(question)
	result := comp.Engine.Search(q)
	commands.PrintResult(os.Stdout, result)

	if result.TotalMatches == 0 {
		if suggestions := query.Suggest(question, comp.Store.Snapshot()); len(suggestions) > 0 {
			fmt.Printf("\nDid you mean: %s\n", strings.Join(suggestions, ", "))
		}
	}
	return nil
}

type GetCmd struct {
	commands.SourceConfig

	LoanID string `arg:"" help:"Loan id"`
}

func (c *GetCmd) Run(common *commands.CommonConfig) error {
	comp, err := commands.Setup(context.Background(), *common, c.File)
	if err != nil {
		return err
	}

	record, err := comp.Store.Snapshot().ByID(c.LoanID)
	if err != nil {
		return err
	}

	commands.PrintRecords(os.Stdout, []types.LoanRecord{record})
	commands.PrintAnalytics(os.Stdout, analytics.Compute(record, comp.AsOf()))
	return nil
}

type SimilarCmd struct {
	commands.SourceConfig

	LoanID string `arg:"" help:"Loan id to compare against"`
	Limit  int    `help:"Maximum number of results to return" default:"5"`
}

func (c *SimilarCmd) Run(common *commands.CommonConfig) error {
	comp, err := commands.Setup(context.Background(), *common, c.File)
	if err != nil {
		return err
	}

	related, err := analytics.FindRelated(comp.Store.Snapshot(), c.LoanID, c.Limit, comp.AsOf())
	if err != nil {
		return err
	}
	if len(related) == 0 {
		fmt.Println("No similar loans found")
		return nil
	}

	fmt.Printf("Loans similar to %s:\n\n", c.LoanID)
	for _, r := range related {
		fmt.Printf("%s (similarity: %.3f, risk: %s)\n", r.Record, r.Similarity, r.Analytics.RiskCategory)
	}
	return nil
}

type SummaryCmd struct {
	commands.SourceConfig
}

func (c *SummaryCmd) Run(common *commands.CommonConfig) error {
	comp, err := commands.Setup(context.Background(), *common, c.File)
	if err != nil {
		return err
	}

	commands.PrintSummary(os.Stdout, analytics.Summarize(comp.Store.Snapshot().Records(), comp.AsOf()))
	return nil
}

type SuggestCmd struct {
	commands.SourceConfig

	Input string `arg:"" optional:"" help:"Partial query"`
}

func (c *SuggestCmd) Run(common *commands.CommonConfig) error {
	comp, err := commands.Setup(context.Background(), *common, c.File)
	if err != nil {
		return err
	}

	for _, s := range query.Suggest(c.Input, comp.Store.Snapshot()) {
		fmt.Println(s)
	}
	return nil
}

type CLI struct {
	commands.CommonConfig

	Search  SearchCmd  `cmd:"" help:"Search loans with structured filters"`
	Ask     AskCmd     `cmd:"" help:"Search loans with a plain English question"`
	Get     GetCmd     `cmd:"" help:"Show a loan and its risk analytics"`
	Similar SimilarCmd `cmd:"" help:"Find loans similar to a loan"`
	Summary SummaryCmd `cmd:"" help:"Summarize the loan portfolio"`
	Suggest SuggestCmd `cmd:"" help:"Suggest query completions"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("loan-search"),
		kong.Description("Search, filter and analyze loan records"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli.CommonConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
