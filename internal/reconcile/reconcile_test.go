package reconcile

import (
	"testing"

	"github.com/kbhatt/khata/internal/domain"
)

func TestNameLookupMajorityVote(t *testing.T) {
	rows := []NameRow{
		{Source: "axis", Parsed: "Zomato Media P", Name: "Zomato"},
		{Source: "axis", Parsed: "Zomato Media P", Name: "Zomato"},
		{Source: "axis", Parsed: "Zomato Media P", Name: "Zomato Media"},
		// Uncorrected rows carry no vote.
		{Source: "axis", Parsed: "Zomato Media P", Name: "Zomato Media P"},
		// The same parsed name under another source is a separate group.
		{Source: "axis-cc", Parsed: "Zomato Media P", Name: "Zomato Online"},
	}

	lookup := NameLookup(rows)

	if got := lookup[NameKey{Source: "axis", Parsed: "Zomato Media P"}]; got != "Zomato" {
		t.Errorf("axis group = %q; want majority name %q", got, "Zomato")
	}
	if got := lookup[NameKey{Source: "axis-cc", Parsed: "Zomato Media P"}]; got != "Zomato Online" {
		t.Errorf("axis-cc group = %q; want %q", got, "Zomato Online")
	}
}

func TestNameLookupTieBreaksTowardFirstSeen(t *testing.T) {
	rows := []NameRow{
		{Source: "axis", Parsed: "Acme Stores", Name: "Acme"},
		{Source: "axis", Parsed: "Acme Stores", Name: "ACME Retail"},
	}

	lookup := NameLookup(rows)
	if got := lookup[NameKey{Source: "axis", Parsed: "Acme Stores"}]; got != "Acme" {
		t.Errorf("tie broke to %q; want first-seen %q", got, "Acme")
	}
}

func TestNameLookupSkipsEmptyParsedNames(t *testing.T) {
	rows := []NameRow{
		{Source: "axis", Parsed: "", Name: "Somebody"},
	}
	if lookup := NameLookup(rows); len(lookup) != 0 {
		t.Errorf("lookup = %v; want empty", lookup)
	}
}

func TestApplyNameStabilization(t *testing.T) {
	names := map[NameKey]string{
		{Source: "axis", Parsed: "Zomato Media P"}: "Zomato",
	}

	e := &domain.Entry{
		Source: "axis",
		Transaction: domain.Transaction{
			CounterpartyName: "Zomato Media P",
		},
		CounterpartyNameP: "Zomato Media P",
	}
	Apply(e, names, nil)

	if e.CounterpartyName != "Zomato" {
		t.Errorf("name = %q; want stabilized %q", e.CounterpartyName, "Zomato")
	}
	if e.CounterpartyNameP != "Zomato Media P" {
		t.Errorf("parsed shadow changed to %q; must stay untouched", e.CounterpartyNameP)
	}
}

func TestApplyCategoryHint(t *testing.T) {
	categories := CategoryLookup([]domain.Category{
		{ID: 7, Name: "Eating Out"},
		{ID: 9, Name: "Fuel"},
	})

	tests := []struct {
		name string
		e    domain.Entry
		want *int64
	}{
		{
			name: "direct hint wins",
			e: domain.Entry{Transaction: domain.Transaction{
				CategoryName: "eating out",
				Remarks:      "Fuel",
			}},
			want: ptr(int64(7)),
		},
		{
			name: "remarks fallback",
			e: domain.Entry{Transaction: domain.Transaction{
				Remarks: "FUEL",
			}},
			want: ptr(int64(9)),
		},
		{
			name: "no match leaves category unset",
			e: domain.Entry{Transaction: domain.Transaction{
				Remarks: "something else",
			}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Apply(&tt.e, nil, categories)
			switch {
			case tt.want == nil && tt.e.CategoryID != nil:
				t.Errorf("category id = %d; want unset", *tt.e.CategoryID)
			case tt.want != nil && (tt.e.CategoryID == nil || *tt.e.CategoryID != *tt.want):
				t.Errorf("category id = %v; want %d", tt.e.CategoryID, *tt.want)
			}
		})
	}
}

func TestApplyNeverOverwritesExistingCategory(t *testing.T) {
	categories := CategoryLookup([]domain.Category{{ID: 7, Name: "Eating Out"}})

	human := int64(42)
	e := &domain.Entry{
		Transaction: domain.Transaction{CategoryName: "Eating Out"},
		CategoryID:  &human,
	}
	Apply(e, nil, categories)

	if *e.CategoryID != 42 {
		t.Errorf("category id = %d; a human assignment must survive reconciliation", *e.CategoryID)
	}
}

func TestApplyIdempotent(t *testing.T) {
	names := map[NameKey]string{
		{Source: "axis", Parsed: "Acme Stores"}: "Acme",
	}
	categories := CategoryLookup([]domain.Category{{ID: 7, Name: "Eating Out"}})

	e := &domain.Entry{
		Source: "axis",
		Transaction: domain.Transaction{
			CounterpartyName: "Acme Stores",
			Remarks:          "Eating Out",
		},
		CounterpartyNameP: "Acme Stores",
	}
	Apply(e, names, categories)
	first := *e
	Apply(e, names, categories)

	if e.CounterpartyName != first.CounterpartyName || *e.CategoryID != *first.CategoryID {
		t.Errorf("second pass changed the entry: %+v vs %+v", *e, first)
	}
}

func ptr[T any](v T) *T { return &v }
