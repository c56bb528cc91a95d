package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/lox/loan-record-search/internal/types"
)

// queryBuilder accumulates the WHERE clause for a filtered loan query
type queryBuilder struct {
	conditions []string
	args       []any
}

func (b *queryBuilder) where(condition string, args ...any) {
	b.conditions = append(b.conditions, condition)
	b.args = append(b.args, args...)
}

func (b *queryBuilder) equalFold(column, value string) {
	if value = strings.TrimSpace(value); value != "" {
		b.where("LOWER("+column+") = LOWER(?)", value)
	}
}

func (b *queryBuilder) contains(column, value string) {
	if value = strings.TrimSpace(value); value != "" {
		b.where("LOWER("+column+`) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(value))+"%")
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes LIKE wildcards in value match literally
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func (b *queryBuilder) clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

// buildFilters translates filters into SQL predicates with the same meaning as the
// in-memory criteria built from them: status and product type compare exactly, text
// fields by case-insensitive containment. State is derived from the address and is
// matched as a standalone token.
func buildFilters(f types.Filters) *queryBuilder {
	b := &queryBuilder{}

	b.contains("loan_id", f.LoanID)
	b.contains("customer_name", f.Customer)
	b.equalFold("status", f.Status)
	b.equalFold("product_type", f.ProductType)
	b.contains("product_name", f.ProductName)
	b.contains("servicer_name", f.Servicer)
	b.contains("property_address", f.Address)
	if state := strings.TrimSpace(f.State); state != "" {
		state = escapeLike(strings.ToUpper(state))
		b.where(`(property_address LIKE ? ESCAPE '\' OR property_address LIKE ? ESCAPE '\')`,
			"% "+state+" %", "% "+state)
	}

	if f.MinAmount != nil {
		b.where("loan_amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		b.where("loan_amount <= ?", *f.MaxAmount)
	}
	if f.MinRate != nil {
		b.where("interest_rate >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		b.where("interest_rate <= ?", *f.MaxRate)
	}
	if f.OriginatedFrom != nil {
		b.where("origination_date >= ?", f.OriginatedFrom.String())
	}
	if f.OriginatedTo != nil {
		b.where("origination_date <= ?", f.OriginatedTo.String())
	}

	return b
}

// SearchLoans returns one page of loans matching filters, ordered by loan id, along with
// the total number of matches. Pages start at 1. A page size of zero or less returns
// every match.
func (d *DB) SearchLoans(ctx context.Context, f types.Filters, page, pageSize int) ([]types.LoanRecord, int, error) {
	if page < 1 {
		page = 1
	}
	b := buildFilters(f)
	where := b.clause()

	var total int
	countQuery := d.dialect.rebind(`SELECT COUNT(*) FROM loans` + where)
	if err := d.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matching loans: %w", err)
	}

	query := `SELECT ` + loanColumns + ` FROM loans` + where + ` ORDER BY loan_id`
	args := append([]any{}, b.args...)
	if pageSize > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, pageSize, (page-1)*pageSize)
	}
	query = d.dialect.rebind(query)

	d.logger.Debug("Searching loans", "conditions", len(b.conditions), "page", page, "page_size", pageSize)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search loans: %w", err)
	}
	defer rows.Close()

	records, err := scanLoans(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Statistics summarizes the loans matching a set of filters
type Statistics struct {
	TotalLoans            int            `json:"total_loans"`
	TotalLoanAmount       float64        `json:"total_loan_amount"`
	TotalRemainingBalance float64        `json:"total_remaining_balance"`
	AverageInterestRate   float64        `json:"average_interest_rate"`
	StatusDistribution    map[string]int `json:"status_distribution"`
}

// Statistics computes totals and the status distribution of the loans matching f
func (d *DB) Statistics(ctx context.Context, f types.Filters) (Statistics, error) {
	b := buildFilters(f)
	where := b.clause()

	stats := Statistics{StatusDistribution: make(map[string]int)}
	err := d.db.QueryRowContext(ctx, d.dialect.rebind(`
		SELECT COUNT(*),
			COALESCE(SUM(loan_amount), 0),
			COALESCE(SUM(remaining_balance), 0),
			COALESCE(AVG(interest_rate), 0)
		FROM loans`+where), b.args...).Scan(
		&stats.TotalLoans, &stats.TotalLoanAmount, &stats.TotalRemainingBalance, &stats.AverageInterestRate,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to compute statistics: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, d.dialect.rebind(`SELECT status, COUNT(*) FROM loans`+where+` GROUP BY status`), b.args...)
	if err != nil {
		return stats, fmt.Errorf("failed to query status distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.StatusDistribution[status] = count
	}
	return stats, rows.Err()
}
