package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lox/loan-record-search/internal/types"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSV parses loan records from a CSV file with a header row. Headers may be snake_case
// or CamelCase; column order is free.
type CSV struct{}

// NewCSV creates the csv format
func NewCSV() *CSV {
	return &CSV{}
}

// Name returns the name of the format
func (c *CSV) Name() string {
	return "csv"
}

type column int

const (
	colLoanID column = iota
	colCustomerName
	colPropertyAddress
	colOriginationDate
	colMaturityDate
	colLoanAmount
	colRemainingBalance
	colInterestRate
	colMonthlyPayment
	colStatus
	colProductName
	colProductType
	colSecurityName
	colServicerName
	colCurrentStatus
	numColumns
)

// columnNames are the canonical header names, indexed by column
var columnNames = [numColumns]string{
	"loan_id",
	"customer_name",
	"property_address",
	"origination_date",
	"maturity_date",
	"loan_amount",
	"remaining_balance",
	"interest_rate",
	"monthly_payment",
	"status",
	"product_name",
	"product_type",
	"security_name",
	"servicer_name",
	"current_status",
}

// headerColumns maps a folded header name to its column
var headerColumns = func() map[string]column {
	m := make(map[string]column, numColumns)
	for i, name := range columnNames {
		m[foldHeader(name)] = column(i)
	}
	return m
}()

var requiredColumns = []column{colLoanID, colLoanAmount, colOriginationDate, colMaturityDate}

// foldHeader reduces "Loan ID", "loan_id" and "LoanID" to "loanid"
func foldHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if r == '_' || r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Parse reads every data row. A UTF-8 or UTF-16 byte order mark selects the encoding;
// input without one is read as UTF-8.
func (c *CSV) Parse(ctx context.Context, r io.Reader) ([]types.LoanRecord, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &types.LoadError{Row: -1, Err: errors.New("empty file: no header row found")}
		}
		return nil, &types.LoadError{Row: -1, Err: fmt.Errorf("failed to read header row: %w", err)}
	}

	positions := make([]int, numColumns)
	for i := range positions {
		positions[i] = -1
	}
	for i, h := range header {
		if col, ok := headerColumns[foldHeader(h)]; ok {
			positions[col] = i
		}
	}
	for _, col := range requiredColumns {
		if positions[col] < 0 {
			return nil, &types.LoadError{Row: -1, Err: fmt.Errorf("missing required column %s", columnName(col))}
		}
	}

	var records []types.LoanRecord
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &types.LoadError{Row: row, Err: err}
		}

		get := func(col column) string {
			p := positions[col]
			if p < 0 || p >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[p])
		}

		record, err := parseRow(get)
		if err != nil {
			return nil, &types.LoadError{Row: row, LoanID: get(colLoanID), Err: err}
		}
		records = append(records, record)
	}

	return finish(records)
}

func parseRow(get func(column) string) (types.LoanRecord, error) {
	record := types.LoanRecord{
		LoanID:          get(colLoanID),
		CustomerName:    get(colCustomerName),
		PropertyAddress: get(colPropertyAddress),
		Status:          get(colStatus),
		ProductName:     get(colProductName),
		ProductType:     get(colProductType),
		SecurityName:    get(colSecurityName),
		ServicerName:    get(colServicerName),
		CurrentStatus:   get(colCurrentStatus),
	}

	var err error
	if record.OriginationDate, err = types.ParseDate(get(colOriginationDate)); err != nil {
		return record, fmt.Errorf("origination_date: %w", err)
	}
	if record.MaturityDate, err = types.ParseDate(get(colMaturityDate)); err != nil {
		return record, fmt.Errorf("maturity_date: %w", err)
	}

	numbers := []struct {
		col  column
		dest *float64
	}{
		{colLoanAmount, &record.LoanAmount},
		{colRemainingBalance, &record.RemainingBalance},
		{colInterestRate, &record.InterestRate},
		{colMonthlyPayment, &record.MonthlyPayment},
	}
	for _, n := range numbers {
		v, err := parseNumber(get(n.col))
		if err != nil {
			return record, fmt.Errorf("%s: %w", columnName(n.col), err)
		}
		*n.dest = v
	}

	return record, nil
}

// parseNumber parses money and percentages such as "$1,250,000.00" or "6.5%". Empty
// cells are zero.
func parseNumber(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", "%", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return d.InexactFloat64(), nil
}

func columnName(col column) string {
	return columnNames[col]
}

var _ Format = (*CSV)(nil)
