package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kbhatt/khata/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(id, source, name string) *domain.Entry {
	e, _ := domain.NewEntry(
		domain.PreRecord{
			ID:         id,
			Date:       time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC),
			Details:    "UPI/P2M/1/" + name + "/HDFC0001/x",
			Amount:     decimal.RequireFromString("540.50"),
			SourceFile: "stmt.csv",
		},
		source,
		domain.Transaction{
			TransactionType:  "UPI",
			CounterpartyName: name,
			CounterpartyType: domain.CounterpartyMerchant,
		},
	)
	return e
}

func appendEntries(t *testing.T, s *Store, entries ...*domain.Entry) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		return tx.Append(context.Background(), entries)
	})
	require.NoError(t, err)
}

func TestFilterNewGate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	appendEntries(t, s, testEntry("aaa", "axis", "Acme"))

	err := s.WithTx(ctx, func(tx *Tx) error {
		novel, err := tx.FilterNew(ctx, "batch-1", []string{"aaa", "bbb", "bbb", "ccc"})
		require.NoError(t, err)

		// The existing id is filtered, in-batch duplicates collapse.
		require.Equal(t, map[string]bool{"bbb": true, "ccc": true}, novel)
		return nil
	})
	require.NoError(t, err)

	// The gate must leave no scratch rows behind.
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM staging_id`).Scan(&n))
	require.Zero(t, n)
}

func TestAppendAndEntriesRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := testEntry("aaa", "axis", "Acme Stores")
	e.Remarks = "Purchase"
	appendEntries(t, s, e)

	entries, err := s.Entries(ctx, Filter{Source: "axis"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	require.Equal(t, "aaa", got.ID)
	require.Equal(t, "Acme Stores", got.CounterpartyName)
	require.Equal(t, "Acme Stores", got.CounterpartyNameP)
	require.Equal(t, domain.CounterpartyMerchant, got.CounterpartyType)
	require.True(t, got.Amount.Equal(decimal.RequireFromString("540.50")))
	require.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), got.Date)
	require.Nil(t, got.CategoryID)
	require.Nil(t, got.Parent)
}

func TestEntriesFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := testEntry("aaa", "axis", "Acme")
	b := testEntry("bbb", "axis", "Zomato")
	b.Date = b.Date.AddDate(0, 1, 0)
	c := testEntry("ccc", "cash", "Acme")
	appendEntries(t, s, a, b, c)

	bySource, err := s.Entries(ctx, Filter{Source: "cash"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	require.Equal(t, "ccc", bySource[0].ID)

	byName, err := s.Entries(ctx, Filter{Counterparty: "Zoma"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "bbb", byName[0].ID)

	byDate, err := s.Entries(ctx, Filter{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	require.Equal(t, "bbb", byDate[0].ID)
}

func TestUpdateWhitelist(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	appendEntries(t, s, testEntry("aaa", "axis", "Acme"))

	require.NoError(t, s.Update(ctx, "aaa", "counterparty_name", "Acme Retail"))
	require.NoError(t, s.Update(ctx, "aaa", "reviewed", true))

	entries, err := s.Entries(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, "Acme Retail", entries[0].CounterpartyName)
	require.Equal(t, "Acme", entries[0].CounterpartyNameP)
	require.True(t, entries[0].Reviewed)

	// The parsed shadow and identity columns must be rejected.
	require.Error(t, s.Update(ctx, "aaa", "counterparty_name_p", "X"))
	require.Error(t, s.Update(ctx, "aaa", "id", "zzz"))
	require.Error(t, s.Update(ctx, "missing", "remarks", "x"))
}

func TestSetParent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	appendEntries(t, s, testEntry("aaa", "axis", "Acme"), testEntry("bbb", "axis", "Acme"))

	parent := "aaa"
	require.NoError(t, s.SetParent(ctx, "bbb", &parent))

	missing := "zzz"
	require.Error(t, s.SetParent(ctx, "bbb", &missing))

	entries, err := s.Entries(ctx, Filter{})
	require.NoError(t, err)
	var child domain.Entry
	for _, e := range entries {
		if e.ID == "bbb" {
			child = e
		}
	}
	require.NotNil(t, child.Parent)
	require.Equal(t, "aaa", *child.Parent)
}

func TestSyncCategories(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SyncCategories(ctx, []string{"Fuel", "Groceries"}))
	categories, err := s.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	// Removing a configured category clears references to it.
	var fuelID int64
	for _, c := range categories {
		if c.Name == "Fuel" {
			fuelID = c.ID
		}
	}
	e := testEntry("aaa", "axis", "Acme")
	e.CategoryID = &fuelID
	appendEntries(t, s, e)

	require.NoError(t, s.SyncCategories(ctx, []string{"Groceries"}))

	categories, err = s.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, "Groceries", categories[0].Name)

	entries, err := s.Entries(ctx, Filter{})
	require.NoError(t, err)
	require.Nil(t, entries[0].CategoryID)

	// Syncing the same list again changes nothing.
	require.NoError(t, s.SyncCategories(ctx, []string{"Groceries"}))
	categories, err = s.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
}

func TestSyncTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SyncTags(ctx, []string{"work", "family"}))
	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.Equal(t, "family", tags[0].Name)

	require.NoError(t, s.SyncTags(ctx, []string{"work"}))
	tags, err = s.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "work", tags[0].Name)
}

func TestEntryTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SyncTags(ctx, []string{"work", "family"}))
	tags, err := s.Tags(ctx)
	require.NoError(t, err)

	appendEntries(t, s, testEntry("aaa", "axis", "Acme"))

	require.NoError(t, s.TagEntry(ctx, "aaa", tags[0].ID))
	require.NoError(t, s.TagEntry(ctx, "aaa", tags[0].ID)) // duplicate is a no-op
	require.NoError(t, s.TagEntry(ctx, "aaa", tags[1].ID))

	got, err := s.EntryTags(ctx, "aaa")
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NoError(t, s.UntagEntry(ctx, "aaa", tags[0].ID))
	got, err = s.EntryTags(ctx, "aaa")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, tags[1].Name, got[0].Name)

	// Removing a tag from configuration detaches it everywhere.
	require.NoError(t, s.SyncTags(ctx, []string{"family"}))
	got, err = s.EntryTags(ctx, "aaa")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExistingIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ids, err := s.ExistingIDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)

	appendEntries(t, s, testEntry("aaa", "axis", "Acme"), testEntry("bbb", "cash", "Acme"))

	ids, err = s.ExistingIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"aaa": true, "bbb": true}, ids)
}

func TestCategorizeBulk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SyncCategories(ctx, []string{"Eating Out"}))
	categories, err := s.Categories(ctx)
	require.NoError(t, err)
	id := categories[0].ID

	appendEntries(t, s,
		testEntry("aaa", "axis", "Zomato"),
		testEntry("bbb", "axis", "Zomato"),
		testEntry("ccc", "axis", "Acme"),
	)

	n, err := s.Categorize(ctx, Filter{Counterparty: "Zomato"}, id)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	entries, err := s.Entries(ctx, Filter{CategoryID: &id})
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestCounterpartySnapshotOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := testEntry("aaa", "axis", "Acme")
	second := testEntry("bbb", "axis", "Zomato")
	appendEntries(t, s, first, second)

	err := s.WithTx(ctx, func(tx *Tx) error {
		snapshot, err := tx.CounterpartySnapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snapshot, 2)
		require.Equal(t, "Acme", snapshot[0].Parsed)
		require.Equal(t, "Zomato", snapshot[1].Parsed)
		return nil
	})
	require.NoError(t, err)
}

func TestCountBySource(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	appendEntries(t, s,
		testEntry("aaa", "axis", "Acme"),
		testEntry("bbb", "axis", "Zomato"),
		testEntry("ccc", "cash", "Acme"),
	)

	counts, err := s.CountBySource(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"axis": 2, "cash": 1}, counts)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := context.Canceled
	err := s.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Append(ctx, []*domain.Entry{testEntry("aaa", "axis", "Acme")}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	entries, err := s.Entries(ctx, Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}
