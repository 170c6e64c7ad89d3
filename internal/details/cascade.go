// Package details decomposes institution-specific transaction
// description strings into structured transactions.
//
// Each institution gets a Cascade: a priority-ordered list of matchers
// tried against the details string. The first matcher whose predicate
// accepts the string wins and its extractor runs; later matchers are
// never consulted. A string no matcher accepts is an error, never a
// default transaction, so a new statement dialect surfaces for triage
// instead of corrupting counterparty data invisibly.
package details

import (
	"strings"

	"github.com/kbhatt/khata/internal/domain"
)

// Matcher pairs a predicate with an extractor for one dialect of a
// source's description grammar.
type Matcher struct {
	// Name identifies the dialect, e.g. "upi" or "atm-cash".
	Name string

	// Match reports whether this dialect owns the details string.
	Match func(details string) bool

	// Extract decomposes the details string. It runs only after Match
	// accepted the string, but may still fail on unexpected arity.
	Extract func(details string) (domain.Transaction, error)
}

// Cascade is an ordered matcher list for one source. Order matters:
// dialects share prefixes (UPI/CRADJ/ must be tried before UPI/), so
// more specific matchers are declared first.
type Cascade struct {
	source   string
	prepare  func(string) string
	matchers []Matcher
}

// NewCascade builds a cascade for the named source. The optional
// prepare hook rewrites the details string before any matching, for
// grammars where a literal substring would otherwise confuse the
// tokenizer.
func NewCascade(source string, prepare func(string) string, matchers []Matcher) *Cascade {
	return &Cascade{source: source, prepare: prepare, matchers: matchers}
}

// Source returns the source name the cascade was built for.
func (c *Cascade) Source() string { return c.source }

// MatcherNames returns the matcher names in priority order.
func (c *Cascade) MatcherNames() []string {
	names := make([]string, len(c.matchers))
	for i, m := range c.matchers {
		names[i] = m.Name
	}
	return names
}

// Parse runs the cascade over a details string. The first matching
// dialect wins; no match yields an UnrecognizedFormatError carrying the
// original string verbatim.
func (c *Cascade) Parse(details string) (domain.Transaction, error) {
	s := strings.TrimSpace(details)
	if c.prepare != nil {
		s = c.prepare(s)
	}

	for _, m := range c.matchers {
		if m.Match(s) {
			return m.Extract(s)
		}
	}

	return domain.Transaction{}, &domain.UnrecognizedFormatError{Source: c.source, Details: details}
}

// hasPrefix returns a predicate matching a fixed prefix.
func hasPrefix(prefix string) func(string) bool {
	return func(details string) bool {
		return strings.HasPrefix(details, prefix)
	}
}

// splitFields splits details on "/" into exactly n fields (the last one
// keeps any remaining slashes) and trims each. Fewer tokens than the
// dialect's arity is a named failure, not an index panic.
func splitFields(source, details string, n int) ([]string, error) {
	parts := strings.SplitN(details, "/", n)
	if len(parts) < n {
		return nil, &domain.UnrecognizedFormatError{Source: source, Details: details}
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, nil
}

// mapCounterpartyType folds the wire tokens for counterparty class into
// the canonical enum. Unknown tokens map to empty rather than leaking
// raw wire values into the ledger.
func mapCounterpartyType(token string) domain.CounterpartyType {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "P2M", "M":
		return domain.CounterpartyMerchant
	case "P2A", "P2P", "A":
		return domain.CounterpartyPerson
	default:
		return ""
	}
}
