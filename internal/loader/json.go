package loader

import (
	"context"
	"encoding/json"
	"io"

	"github.com/lox/loan-record-search/internal/types"
)

// JSON parses a JSON array of loan records
type JSON struct{}

// NewJSON creates the json format
func NewJSON() *JSON {
	return &JSON{}
}

// Name returns the name of the format
func (j *JSON) Name() string {
	return "json"
}

// Parse decodes a JSON array of loan records
func (j *JSON) Parse(ctx context.Context, r io.Reader) ([]types.LoanRecord, error) {
	var records []types.LoanRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, &types.LoadError{Row: -1, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return finish(records)
}

var _ Format = (*JSON)(nil)
