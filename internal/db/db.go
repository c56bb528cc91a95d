package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/lox/loan-record-search/internal/types"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DB is the persistent loan table, backed by SQLite or PostgreSQL
type DB struct {
	db      *sql.DB
	logger  *log.Logger
	dialect dialect
}

// New opens (creating if needed) the SQLite database in dataDir
func New(dataDir string, logger *log.Logger) (*DB, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return Open(DriverSQLite, filepath.Join(dataDir, "loans.db"), logger)
}

// Open connects to a database with the given driver and data source, creating the
// schema and applying pending migrations
func Open(driver, dsn string, logger *log.Logger) (*DB, error) {
	var d dialect
	switch driver {
	case DriverSQLite:
		d = sqliteDialect
	case DriverPostgres:
		d = postgresDialect
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY during bulk imports
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	l := &DB{
		db:      db,
		logger:  logger,
		dialect: d,
	}

	if err := l.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := ApplyMigrations(ctx, db, d, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Debug("Opened loan database", "driver", driver)

	return l, nil
}

// createTables creates the loans table and its indexes
func (d *DB) createTables(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS loans (
			loan_id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			property_address TEXT NOT NULL,
			origination_date TEXT NOT NULL,
			maturity_date TEXT NOT NULL,
			loan_amount DOUBLE PRECISION NOT NULL,
			remaining_balance DOUBLE PRECISION NOT NULL,
			interest_rate DOUBLE PRECISION NOT NULL,
			monthly_payment DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			product_name TEXT NOT NULL,
			product_type TEXT NOT NULL,
			security_name TEXT NOT NULL,
			servicer_name TEXT NOT NULL,
			current_status TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create loans table: %w", err)
	}

	// Create indexes for faster lookups
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_loans_status ON loans(status)",
		"CREATE INDEX IF NOT EXISTS idx_loans_product_type ON loans(product_type)",
		"CREATE INDEX IF NOT EXISTS idx_loans_amount ON loans(loan_amount)",
		"CREATE INDEX IF NOT EXISTS idx_loans_origination_date ON loans(origination_date)",
	}

	for _, index := range indexes {
		if _, err := d.db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

const loanColumns = `loan_id, customer_name, property_address, origination_date, maturity_date,
	loan_amount, remaining_balance, interest_rate, monthly_payment, status,
	product_name, product_type, security_name, servicer_name, current_status`

// StoreLoans inserts or replaces records in a single transaction
func (d *DB) StoreLoans(ctx context.Context, records []types.LoanRecord) error {
	return d.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, d.dialect.rebind(`
			INSERT INTO loans (`+loanColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (loan_id) DO UPDATE SET
				customer_name = excluded.customer_name,
				property_address = excluded.property_address,
				origination_date = excluded.origination_date,
				maturity_date = excluded.maturity_date,
				loan_amount = excluded.loan_amount,
				remaining_balance = excluded.remaining_balance,
				interest_rate = excluded.interest_rate,
				monthly_payment = excluded.monthly_payment,
				status = excluded.status,
				product_name = excluded.product_name,
				product_type = excluded.product_type,
				security_name = excluded.security_name,
				servicer_name = excluded.servicer_name,
				current_status = excluded.current_status
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			_, err := stmt.ExecContext(ctx,
				r.LoanID, r.CustomerName, r.PropertyAddress, r.OriginationDate.String(), r.MaturityDate.String(),
				r.LoanAmount, r.RemainingBalance, r.InterestRate, r.MonthlyPayment, r.Status,
				r.ProductName, r.ProductType, r.SecurityName, r.ServicerName, r.CurrentStatus,
			)
			if err != nil {
				return fmt.Errorf("failed to store loan %s: %w", r.LoanID, err)
			}
		}

		d.logger.Debug("Stored loans", "count", len(records))
		return nil
	})
}

// GetLoan returns the loan with the given id
func (d *DB) GetLoan(ctx context.Context, loanID string) (types.LoanRecord, error) {
	row := d.db.QueryRowContext(ctx, d.dialect.rebind(`SELECT `+loanColumns+` FROM loans WHERE loan_id = ?`), loanID)
	r, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.LoanRecord{}, fmt.Errorf("loan %q: %w", loanID, types.ErrRecordNotFound)
		}
		return types.LoanRecord{}, fmt.Errorf("failed to get loan: %w", err)
	}
	return r, nil
}

// AllLoans returns every loan ordered by loan id
func (d *DB) AllLoans(ctx context.Context) ([]types.LoanRecord, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY loan_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// Count returns the number of loans in the database
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count loans: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Transaction executes fn within a database transaction
func (d *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(s scanner) (types.LoanRecord, error) {
	var r types.LoanRecord
	var origination, maturity string
	if err := s.Scan(
		&r.LoanID, &r.CustomerName, &r.PropertyAddress, &origination, &maturity,
		&r.LoanAmount, &r.RemainingBalance, &r.InterestRate, &r.MonthlyPayment, &r.Status,
		&r.ProductName, &r.ProductType, &r.SecurityName, &r.ServicerName, &r.CurrentStatus,
	); err != nil {
		return r, err
	}

	var err error
	if r.OriginationDate, err = types.ParseDate(origination); err != nil {
		return r, fmt.Errorf("loan %s: %w", r.LoanID, err)
	}
	if r.MaturityDate, err = types.ParseDate(maturity); err != nil {
		return r, fmt.Errorf("loan %s: %w", r.LoanID, err)
	}
	return r, nil
}

func scanLoans(rows *sql.Rows) ([]types.LoanRecord, error) {
	var records []types.LoanRecord
	for rows.Next() {
		r, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}
	return records, nil
}

// dialect covers the SQL differences between the supported drivers
type dialect struct {
	name string
	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var (
	sqliteDialect   = dialect{name: DriverSQLite}
	postgresDialect = dialect{name: DriverPostgres, numbered: true}
)

// rebind rewrites ? placeholders for the dialect. Queries must not contain a literal ?.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
