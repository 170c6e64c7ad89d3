// Package source catalogs the statement formats of every supported
// institution: column layout, date layout and details grammar.
package source

import (
	"fmt"

	"github.com/kbhatt/khata/internal/domain"
)

// Columns maps the canonical row fields onto an institution's export
// headers. Amount is either a single signed-amount column or empty,
// meaning amount = debit − credit. Details may name several columns;
// their non-empty values are joined with "/".
type Columns struct {
	Date    string
	Details []string
	Credit  string
	Debit   string
	Amount  string
}

// ParseFunc decomposes a normalized pre-record's details string.
type ParseFunc func(pre domain.PreRecord) (domain.Transaction, error)

// Source is one institution's immutable statement definition.
type Source struct {
	// Name is the registry key, e.g. "axis" or "cash".
	Name string

	Columns Columns

	// DateLayout is the Go reference layout for the date column. All
	// supported feeds are day-first.
	DateLayout string

	// CatchPhrase, when non-empty, identifies the header row of the
	// tabular block inside an export that wraps it in preamble junk.
	CatchPhrase string

	// Parse decomposes a details string. When nil the source uses the
	// base behavior: an empty transaction, signalling "no grammar yet"
	// without crashing ingest.
	Parse ParseFunc
}

// ParseDetails runs the source's grammar over a pre-record, falling
// back to the safe base behavior for sources without one.
func (s *Source) ParseDetails(pre domain.PreRecord) (domain.Transaction, error) {
	if s.Parse == nil {
		return domain.Transaction{}, nil
	}
	return s.Parse(pre)
}

// Registry holds registered sources keyed by name. Registration happens
// once at startup; lookups afterwards are read-only.
type Registry struct {
	order   []string
	sources map[string]*Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

// Register adds a source definition. Names are unique.
func (r *Registry) Register(s *Source) error {
	if s == nil || s.Name == "" {
		return fmt.Errorf("source must have a name")
	}
	if s.Columns.Date == "" || len(s.Columns.Details) == 0 {
		return fmt.Errorf("source %q must map date and details columns", s.Name)
	}
	if s.Columns.Amount == "" && (s.Columns.Credit == "" || s.Columns.Debit == "") {
		return fmt.Errorf("source %q must map an amount column or both credit and debit", s.Name)
	}
	if _, ok := r.sources[s.Name]; ok {
		return fmt.Errorf("source %q already registered", s.Name)
	}
	r.sources[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (*Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, name)
	}
	return s, nil
}

// Names returns registered source names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
