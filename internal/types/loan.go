package types

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day component, always held at UTC midnight
type Date struct {
	time.Time
}

// NewDate creates a date from its calendar components
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's own location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Format(DateLayout)
}

// DaysSince returns the number of whole days from other to d
func (d Date) DaysSince(other Date) int {
	return int(d.Sub(other.Time).Hours() / 24)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// LoanRecord is a single loan in the portfolio. Records are never mutated once loaded.
type LoanRecord struct {
	LoanID           string  `json:"loan_id"`
	CustomerName     string  `json:"customer_name"`
	PropertyAddress  string  `json:"property_address"`
	OriginationDate  Date    `json:"origination_date"`
	MaturityDate     Date    `json:"maturity_date"`
	LoanAmount       float64 `json:"loan_amount"`
	RemainingBalance float64 `json:"remaining_balance"`
	InterestRate     float64 `json:"interest_rate"`
	MonthlyPayment   float64 `json:"monthly_payment"`
	Status           string  `json:"status"`
	ProductName      string  `json:"product_name"`
	ProductType      string  `json:"product_type"`
	SecurityName     string  `json:"security_name"`
	ServicerName     string  `json:"servicer_name"`
	CurrentStatus    string  `json:"current_status"`
}

func (r LoanRecord) String() string {
	return fmt.Sprintf("Loan ID: %s | Customer: %s | Amount: $%.2f | Status: %s | Rate: %.2f%%",
		r.LoanID, r.CustomerName, r.LoanAmount, r.Status, r.InterestRate)
}

// Validate checks the invariants a record must satisfy to be loaded
func (r LoanRecord) Validate() error {
	var invalids []string
	if strings.TrimSpace(r.LoanID) == "" {
		invalids = append(invalids, "loan_id is empty")
	}
	if r.LoanAmount <= 0 {
		invalids = append(invalids, fmt.Sprintf("loan_amount=%v must be positive", r.LoanAmount))
	}
	if r.InterestRate < 0 {
		invalids = append(invalids, fmt.Sprintf("interest_rate=%v is negative", r.InterestRate))
	}
	if r.MonthlyPayment < 0 {
		invalids = append(invalids, fmt.Sprintf("monthly_payment=%v is negative", r.MonthlyPayment))
	}
	if r.MaturityDate.Before(r.OriginationDate.Time) {
		invalids = append(invalids, fmt.Sprintf("maturity_date %s is before origination_date %s", r.MaturityDate, r.OriginationDate))
	}
	if len(invalids) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(invalids, ", "))
	}
	return nil
}

// Field names a searchable attribute of a loan record
type Field string

const (
	FieldLoanID          Field = "loan_id"
	FieldCustomerName    Field = "customer_name"
	FieldPropertyAddress Field = "property_address"
	FieldStatus          Field = "status"
	FieldProductName     Field = "product_name"
	FieldProductType     Field = "product_type"
	FieldSecurityName    Field = "security_name"
	FieldServicerName    Field = "servicer_name"
	FieldCurrentStatus   Field = "current_status"
	// FieldState is derived from the property address
	FieldState Field = "state"

	FieldLoanAmount       Field = "loan_amount"
	FieldRemainingBalance Field = "remaining_balance"
	FieldInterestRate     Field = "interest_rate"
	FieldMonthlyPayment   Field = "monthly_payment"

	FieldOriginationDate Field = "origination_date"
	FieldMaturityDate    Field = "maturity_date"
)

// Text returns the value of a stored string field. The derived state field is not
// stored on the record and reports false.
func (r LoanRecord) Text(f Field) (string, bool) {
	switch f {
	case FieldLoanID:
		return r.LoanID, true
	case FieldCustomerName:
		return r.CustomerName, true
	case FieldPropertyAddress:
		return r.PropertyAddress, true
	case FieldStatus:
		return r.Status, true
	case FieldProductName:
		return r.ProductName, true
	case FieldProductType:
		return r.ProductType, true
	case FieldSecurityName:
		return r.SecurityName, true
	case FieldServicerName:
		return r.ServicerName, true
	case FieldCurrentStatus:
		return r.CurrentStatus, true
	}
	return "", false
}

// Number returns the value of a numeric field
func (r LoanRecord) Number(f Field) (float64, bool) {
	switch f {
	case FieldLoanAmount:
		return r.LoanAmount, true
	case FieldRemainingBalance:
		return r.RemainingBalance, true
	case FieldInterestRate:
		return r.InterestRate, true
	case FieldMonthlyPayment:
		return r.MonthlyPayment, true
	}
	return 0, false
}

// DateValue returns the value of a date field
func (r LoanRecord) DateValue(f Field) (Date, bool) {
	switch f {
	case FieldOriginationDate:
		return r.OriginationDate, true
	case FieldMaturityDate:
		return r.MaturityDate, true
	}
	return Date{}, false
}
