// Package loader parses loan records from files in the supported formats.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lox/loan-record-search/internal/types"
	"golang.org/x/text/unicode/norm"
)

// Format parses loan records from one input encoding
type Format interface {
	// Name returns the format name, which is also the file extension it handles
	Name() string

	// Parse reads every record from r. Records are validated; the first invalid one
	// fails the whole parse with a *types.LoadError.
	Parse(ctx context.Context, r io.Reader) ([]types.LoanRecord, error)
}

// Registry maintains the available formats
type Registry struct {
	formats map[string]Format
}

// NewRegistry creates an empty format registry
func NewRegistry() *Registry {
	return &Registry{
		formats: make(map[string]Format),
	}
}

// DefaultRegistry returns a registry with the json and csv formats
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewJSON())
	r.Register(NewCSV())
	return r
}

// Register adds a format to the registry
func (r *Registry) Register(f Format) {
	r.formats[f.Name()] = f
}

// Get returns a format by name
func (r *Registry) Get(name string) (Format, bool) {
	f, ok := r.formats[strings.ToLower(name)]
	return f, ok
}

// List returns the sorted names of all registered formats
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForPath picks the format matching a file's extension
func (r *Registry) ForPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q (supported: %s)", ext, strings.Join(r.List(), ", "))
	}
	return f, nil
}

// ParseFile opens path and parses it with the format chosen by its extension
func (r *Registry) ParseFile(ctx context.Context, path string) ([]types.LoanRecord, error) {
	f, err := r.ForPath(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := f.Parse(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// normalize cleans the free-text fields of a record
func normalize(r *types.LoanRecord) {
	for _, s := range []*string{
		&r.LoanID, &r.CustomerName, &r.PropertyAddress, &r.Status, &r.ProductName,
		&r.ProductType, &r.SecurityName, &r.ServicerName, &r.CurrentStatus,
	} {
		*s = norm.NFC.String(strings.TrimSpace(*s))
	}
}

// finish normalizes and validates parsed records
func finish(records []types.LoanRecord) ([]types.LoanRecord, error) {
	for i := range records {
		normalize(&records[i])
		if err := records[i].Validate(); err != nil {
			return nil, &types.LoadError{Row: i, LoanID: records[i].LoanID, Err: err}
		}
	}
	return records, nil
}
