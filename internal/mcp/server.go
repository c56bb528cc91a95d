package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/loan-record-search/internal/analytics"
	"github.com/lox/loan-record-search/internal/metrics"
	"github.com/lox/loan-record-search/internal/query"
	"github.com/lox/loan-record-search/internal/search"
	"github.com/lox/loan-record-search/internal/store"
	"github.com/lox/loan-record-search/internal/types"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultSearchLimit  = 10
	defaultSimilarLimit = 5
)

type Server struct {
	store       *store.Store
	engine      *search.Engine
	interpreter *query.Interpreter
	policy      query.Policy
	asOf        func() types.Date
	logger      *log.Logger
}

func New(s *store.Store, engine *search.Engine, policy query.Policy, asOf func() types.Date, logger *log.Logger) *Server {
	return &Server{
		store:       s,
		engine:      engine,
		interpreter: query.NewInterpreter(policy, logger),
		policy:      policy,
		asOf:        asOf,
		logger:      logger,
	}
}

// MCPServer builds the MCP server with every loan tool registered
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"Loan Record Search",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("search_loans",
		mcp.WithDescription("Search loan records with structured filters. All filters must match."),
		mcp.WithString("loan_id", mcp.Description("Loan id, or part of one")),
		mcp.WithString("customer", mcp.Description("Customer name")),
		mcp.WithString("status", mcp.Description("Exact status, e.g. Current, Default, Paid Off")),
		mcp.WithString("product_type", mcp.Description("Exact product type, e.g. Conventional, FHA, Jumbo")),
		mcp.WithString("product_name", mcp.Description("Text contained in the product name")),
		mcp.WithString("servicer", mcp.Description("Text contained in the servicer name")),
		mcp.WithString("state", mcp.Description("Two letter state code of the property")),
		mcp.WithNumber("min_amount", mcp.Description("Minimum loan amount")),
		mcp.WithNumber("max_amount", mcp.Description("Maximum loan amount")),
		mcp.WithNumber("min_rate", mcp.Description("Minimum interest rate (percent)")),
		mcp.WithNumber("max_rate", mcp.Description("Maximum interest rate (percent)")),
		mcp.WithString("sort", mcp.Description("Sort by amount, rate, origination_date, balance or customer_name")),
		mcp.WithString("order", mcp.Description("asc or desc (default: asc)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results to return (default: 10)")),
	), s.searchLoansHandler)

	mcpServer.AddTool(mcp.NewTool("ask_loans",
		mcp.WithDescription("Search loan records with a plain English question, e.g. 'current FHA loans amount 100000 to 500000'"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	), s.askLoansHandler)

	mcpServer.AddTool(mcp.NewTool("get_loan",
		mcp.WithDescription("Get a single loan with its risk analytics"),
		mcp.WithString("loan_id",
			mcp.Required(),
			mcp.Description("The loan id"),
		),
	), s.getLoanHandler)

	mcpServer.AddTool(mcp.NewTool("similar_loans",
		mcp.WithDescription("Find the loans most similar to a given loan by payment, balance, risk and age"),
		mcp.WithString("loan_id",
			mcp.Required(),
			mcp.Description("The loan id to compare against"),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results to return (default: 5)")),
	), s.similarLoansHandler)

	mcpServer.AddTool(mcp.NewTool("portfolio_summary",
		mcp.WithDescription("Summarize the whole loan portfolio: totals, averages and distributions"),
	), s.portfolioSummaryHandler)

	return mcpServer
}

// Run serves the tools over stdio until the client disconnects
func (s *Server) Run() error {
	s.logger.Info("Starting MCP server", "records", s.store.Snapshot().Len())
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) searchLoansHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	f := types.Filters{
		LoanID:      stringArgument(args, "loan_id"),
		Customer:    stringArgument(args, "customer"),
		Status:      stringArgument(args, "status"),
		ProductType: stringArgument(args, "product_type"),
		ProductName: stringArgument(args, "product_name"),
		Servicer:    stringArgument(args, "servicer"),
		State:       stringArgument(args, "state"),
	}
	var err error
	if f.MinAmount, err = optionalFloat(args, "min_amount"); err != nil {
		return nil, err
	}
	if f.MaxAmount, err = optionalFloat(args, "max_amount"); err != nil {
		return nil, err
	}
	if f.MinRate, err = optionalFloat(args, "min_rate"); err != nil {
		return nil, err
	}
	if f.MaxRate, err = optionalFloat(args, "max_rate"); err != nil {
		return nil, err
	}

	sortBy, ok := search.ParseSortField(stringArgument(args, "sort"))
	if !ok {
		return nil, fmt.Errorf("unknown sort field %q", stringArgument(args, "sort"))
	}
	limit, err := intArgument(args, "limit", defaultSearchLimit)
	if err != nil {
		return nil, err
	}

	result := s.engine.Search(types.SearchQuery{
		Criteria: query.FromFilters(f, s.policy),
		Limit:    limit,
		SortBy:   sortBy,
		Order:    search.ParseSortOrder(stringArgument(args, "order")),
	})
	metrics.ObserveSearch(metrics.KindStructured, result)

	return mcp.NewToolResultText(formatResult(result)), nil
}

func (s *Server) askLoansHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, ok := request.Params.Arguments["question"].(string)
	if !ok {
		return nil, errors.New("question must be a string")
	}

	result := s.engine.Search(s.interpreter.Interpret(question))
	metrics.ObserveSearch(metrics.KindNatural, result)

	text := formatResult(result)
	if result.TotalMatches == 0 {
		if suggestions := query.Suggest(question, s.store.Snapshot()); len(suggestions) > 0 {
			text += "\nTry: " + strings.Join(suggestions, ", ") + "\n"
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) getLoanHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loanID, ok := request.Params.Arguments["loan_id"].(string)
	if !ok {
		return nil, errors.New("loan_id must be a string")
	}

	record, err := s.store.Snapshot().ByID(loanID)
	if errors.Is(err, types.ErrRecordNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Loan %s not found", loanID)), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	a := analytics.Compute(record, s.asOf())

	var result strings.Builder
	writeLoan(&result, record)
	fmt.Fprintf(&result, "  Loan Age: %d days\n", a.LoanAgeDays)
	fmt.Fprintf(&result, "  Remaining Term: %d days\n", a.RemainingTermDays)
	fmt.Fprintf(&result, "  Payment Ratio: %.4f\n", a.PaymentRatio)
	fmt.Fprintf(&result, "  Balance Ratio: %.4f\n", a.BalanceRatio)
	fmt.Fprintf(&result, "  Risk: %.0f (%s)\n", a.RiskScore, a.RiskCategory)

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) similarLoansHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loanID, ok := request.Params.Arguments["loan_id"].(string)
	if !ok {
		return nil, errors.New("loan_id must be a string")
	}
	limit, err := intArgument(request.Params.Arguments, "limit", defaultSimilarLimit)
	if err != nil {
		return nil, err
	}

	related, err := analytics.FindRelated(s.store.Snapshot(), loanID, limit, s.asOf())
	if errors.Is(err, types.ErrRecordNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Loan %s not found", loanID)), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to find similar loans: %w", err)
	}
	metrics.CountSearch(metrics.KindSimilar)

	var result strings.Builder
	fmt.Fprintf(&result, "Loans similar to %s (%d)\n\n", loanID, len(related))
	for _, r := range related {
		fmt.Fprintf(&result, "%s (similarity: %.3f, risk: %s)\n", r.Record, r.Similarity, r.Analytics.RiskCategory)
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (s *Server) portfolioSummaryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := analytics.Summarize(s.store.Snapshot().Records(), s.asOf())

	var result strings.Builder
	result.WriteString("Loan Portfolio Summary\n\n")
	fmt.Fprintf(&result, "Total Loans: %d\n", summary.TotalLoans)
	fmt.Fprintf(&result, "Total Loan Amount: %.2f\n", summary.TotalLoanAmount)
	fmt.Fprintf(&result, "Total Remaining Balance: %.2f\n", summary.TotalRemainingBalance)
	fmt.Fprintf(&result, "Average Interest Rate: %.3f%%\n", summary.AverageInterestRate)
	fmt.Fprintf(&result, "Average Risk Score: %.1f\n", summary.AverageRiskScore)

	writeDistribution(&result, "By Status", summary.StatusDistribution)
	writeDistribution(&result, "By Product Type", summary.ProductTypeDistribution)
	writeDistribution(&result, "By Risk Category", summary.RiskCategoryDistribution)

	return mcp.NewToolResultText(result.String()), nil
}

func formatResult(result types.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d loans", result.TotalMatches)
	if len(result.Records) < result.TotalMatches {
		fmt.Fprintf(&b, " (showing %d)", len(result.Records))
	}
	b.WriteString("\n\n")

	for _, r := range result.Records {
		writeLoan(&b, r)
		b.WriteString("\n")
	}

	if count := result.Aggregations[types.AggCount]; count > 0 {
		fmt.Fprintf(&b, "Total Loan Amount: %.2f\n", result.Aggregations[types.AggTotalLoanAmount])
		fmt.Fprintf(&b, "Total Remaining Balance: %.2f\n", result.Aggregations[types.AggTotalRemainingBalance])
		fmt.Fprintf(&b, "Average Interest Rate: %.3f%%\n", result.Aggregations[types.AggAvgInterestRate])
		fmt.Fprintf(&b, "Average Monthly Payment: %.2f\n", result.Aggregations[types.AggAvgMonthlyPayment])
	}
	return b.String()
}

func writeLoan(b *strings.Builder, r types.LoanRecord) {
	fmt.Fprintf(b, "%s: %s - %.2f\n", r.LoanID, r.CustomerName, r.LoanAmount)
	fmt.Fprintf(b, "  Status: %s\n", r.Status)
	fmt.Fprintf(b, "  Product: %s (%s)\n", r.ProductName, r.ProductType)
	fmt.Fprintf(b, "  Rate: %.3f%%\n", r.InterestRate)
	fmt.Fprintf(b, "  Balance: %.2f\n", r.RemainingBalance)
	fmt.Fprintf(b, "  Originated: %s, Matures: %s\n", r.OriginationDate, r.MaturityDate)
	if r.PropertyAddress != "" {
		fmt.Fprintf(b, "  Property: %s\n", r.PropertyAddress)
	}
	if r.ServicerName != "" {
		fmt.Fprintf(b, "  Servicer: %s\n", r.ServicerName)
	}
}

func writeDistribution(b *strings.Builder, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-30s %d\n", k, counts[k])
	}
}

func stringArgument(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

// intArgument accepts numbers or numeric strings, returning def when absent
func intArgument(args map[string]interface{}, name string, def int) (int, error) {
	val, ok := args[name]
	if !ok {
		return def, nil
	}
	switch v := val.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number or string", name)
	}
}

func optionalFloat(args map[string]interface{}, name string) (*float64, error) {
	val, ok := args[name]
	if !ok {
		return nil, nil
	}
	var f float64
	switch v := val.(type) {
	case int:
		f = float64(v)
	case float64:
		f = v
	case string:
		var err error
		if f, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("%s must be a valid number: %w", name, err)
		}
	default:
		return nil, fmt.Errorf("%s must be a number or string", name)
	}
	return &f, nil
}
