// Package reconcile backfills counterparty-name corrections and
// category hints across fresh ledger entries.
//
// Both passes are best-effort and majority-vote based, and both are
// pure: they take an explicit snapshot of the existing ledger and
// return lookup tables, so nothing here holds ambient state between
// batches. Running a pass twice produces the same result as once.
package reconcile

import (
	"strings"

	"github.com/kbhatt/khata/internal/domain"
)

// NameKey identifies a group of entries that parsed to the same
// counterparty name within one source.
type NameKey struct {
	Source string
	Parsed string
}

// NameRow is one existing ledger row in the snapshot fed to NameLookup:
// the as-parsed name shadow and the possibly human-edited current name.
type NameRow struct {
	Source string
	Parsed string
	Name   string
}

// NameLookup builds the correction table: for each (source, parsed
// name) group where a human edit differs from the parse, the most
// frequent edited name. Ties break toward the name encountered first in
// the snapshot, so callers should feed rows in a stable order.
func NameLookup(rows []NameRow) map[NameKey]string {
	type vote struct {
		count int
		order int
	}
	votes := make(map[NameKey]map[string]*vote)
	seen := 0

	for _, row := range rows {
		if row.Parsed == "" || row.Parsed == row.Name {
			continue
		}
		key := NameKey{Source: row.Source, Parsed: row.Parsed}
		if votes[key] == nil {
			votes[key] = make(map[string]*vote)
		}
		v := votes[key][row.Name]
		if v == nil {
			seen++
			votes[key][row.Name] = &vote{count: 1, order: seen}
		} else {
			v.count++
		}
	}

	lookup := make(map[NameKey]string, len(votes))
	for key, candidates := range votes {
		var (
			best      string
			bestCount int
			bestOrder int
		)
		for name, v := range candidates {
			if v.count > bestCount || (v.count == bestCount && v.order < bestOrder) {
				best, bestCount, bestOrder = name, v.count, v.order
			}
		}
		lookup[key] = best
	}
	return lookup
}

// CategoryLookup builds the case-insensitive name→id table for category
// hinting.
func CategoryLookup(categories []domain.Category) map[string]int64 {
	lookup := make(map[string]int64, len(categories))
	for _, c := range categories {
		lookup[strings.ToLower(strings.TrimSpace(c.Name))] = c.ID
	}
	return lookup
}

// Apply runs both passes over a freshly parsed entry, in place.
//
// Name stabilization replaces the parsed counterparty name with the
// majority human-corrected one for the same (source, parsed-name) key.
// Category hinting sets the category id when the parser's hint (or,
// failing that, the remarks) exactly matches a category name; it only
// fills a missing category, never overwrites one a human already set.
func Apply(e *domain.Entry, names map[NameKey]string, categories map[string]int64) {
	if e.CounterpartyNameP != "" {
		if name, ok := names[NameKey{Source: e.Source, Parsed: e.CounterpartyNameP}]; ok {
			e.CounterpartyName = name
		}
	}

	if e.CategoryID == nil {
		hint := e.CategoryName
		if strings.TrimSpace(hint) == "" {
			hint = e.Remarks
		}
		if id, ok := categories[strings.ToLower(strings.TrimSpace(hint))]; ok {
			categoryID := id
			e.CategoryID = &categoryID
		}
	}
}
