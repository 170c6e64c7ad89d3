// Package store persists the ledger in a local sqlite database and
// implements the staging-table dedup gate.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/kbhatt/khata/internal/domain"
	"github.com/kbhatt/khata/internal/reconcile"
)

// dateLayout is the TEXT rendering of dates in sqlite; lexicographic
// order matches chronological order.
const dateLayout = "2006-01-02 15:04:05"

const schema = `
CREATE TABLE IF NOT EXISTS entry (
	id                  TEXT PRIMARY KEY,
	source              TEXT NOT NULL,
	date                TEXT NOT NULL,
	details             TEXT NOT NULL,
	amount              TEXT NOT NULL,
	source_file         TEXT NOT NULL,
	source_line         INTEGER NOT NULL,
	transaction_id      TEXT NOT NULL DEFAULT '',
	transaction_type    TEXT NOT NULL DEFAULT '',
	counterparty_name   TEXT NOT NULL DEFAULT '',
	counterparty_type   TEXT NOT NULL DEFAULT '',
	counterparty_bank   TEXT NOT NULL DEFAULT '',
	counterparty_name_p TEXT NOT NULL DEFAULT '',
	counterparty_bank_p TEXT NOT NULL DEFAULT '',
	remarks             TEXT NOT NULL DEFAULT '',
	category_id         INTEGER,
	parent              TEXT,
	"ignore"            INTEGER NOT NULL DEFAULT 0,
	reviewed            INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_entry_source_date ON entry (source, date);
CREATE INDEX IF NOT EXISTS idx_entry_counterparty ON entry (source, counterparty_name_p);

CREATE TABLE IF NOT EXISTS category (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tag (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS entry_tag (
	entry_id TEXT NOT NULL REFERENCES entry (id),
	tag_id   INTEGER NOT NULL REFERENCES tag (id),
	PRIMARY KEY (entry_id, tag_id)
);

CREATE TABLE IF NOT EXISTS staging_id (
	batch TEXT NOT NULL,
	id    TEXT NOT NULL
);
`

// editableColumns are the ledger columns a human (or the review
// surface) may change. The _p shadow columns are deliberately absent:
// only ingest writes them, once.
var editableColumns = map[string]bool{
	"counterparty_name": true,
	"counterparty_bank": true,
	"counterparty_type": true,
	"remarks":           true,
	"category_id":       true,
	"parent":            true,
	"ignore":            true,
	"reviewed":          true,
}

// Store wraps the sqlite database holding the ledger.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists. Use ":memory:" for an ephemeral store in tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	// The staging-table gate relies on a single connection seeing its
	// own uncommitted writes.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	// A crashed batch must not leave scratch ids behind to block the
	// next run.
	if _, err := db.ExecContext(ctx, `DELETE FROM staging_id`); err != nil {
		db.Close()
		return nil, fmt.Errorf("clearing stale staging ids: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a batch transaction over the ledger. All ingest writes go
// through one Tx so a failed batch rolls back in full.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction: commit on nil, rollback on
// error.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FilterNew is the dedup gate: it stages the candidate ids under the
// batch id, diffs them against the ledger and clears the scratch rows,
// returning the set of ids not already present. Duplicates inside the
// candidate batch collapse too. Runs inside the batch transaction, so
// a failed ingest leaves no orphaned scratch entries.
func (t *Tx) FilterNew(ctx context.Context, batchID string, ids []string) (map[string]bool, error) {
	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO staging_id (batch, id) VALUES (?, ?)`, batchID, id); err != nil {
			return nil, fmt.Errorf("staging id %s: %w", id, err)
		}
	}

	rows, err := t.tx.QueryContext(ctx,
		`SELECT DISTINCT id FROM staging_id
		 WHERE batch = ? AND id NOT IN (SELECT id FROM entry)`, batchID)
	if err != nil {
		return nil, fmt.Errorf("diffing staged ids: %w", err)
	}
	defer rows.Close()

	novel := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning staged id: %w", err)
		}
		novel[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading staged ids: %w", err)
	}

	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM staging_id WHERE batch = ?`, batchID); err != nil {
		return nil, fmt.Errorf("clearing staged ids: %w", err)
	}
	return novel, nil
}

// Append inserts freshly ingested entries. The primary key enforces id
// uniqueness at the storage boundary; the gate should already have
// filtered duplicates, so a conflict here is an error, not a skip.
func (t *Tx) Append(ctx context.Context, entries []*domain.Entry) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO entry (
			id, source, date, details, amount, source_file, source_line,
			transaction_id, transaction_type,
			counterparty_name, counterparty_type, counterparty_bank,
			counterparty_name_p, counterparty_bank_p,
			remarks, category_id, parent, "ignore", reviewed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Source, e.Date.Format(dateLayout), e.Details, e.Amount.String(),
			e.SourceFile, e.SourceLine,
			e.TransactionID, e.TransactionType,
			e.CounterpartyName, string(e.CounterpartyType), e.CounterpartyBank,
			e.CounterpartyNameP, e.CounterpartyBankP,
			e.Remarks, e.CategoryID, e.Parent, e.Ignore, e.Reviewed,
		); err != nil {
			return fmt.Errorf("inserting entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// CounterpartySnapshot returns the (source, parsed, current) name
// triples for the whole ledger, in insertion order so majority-vote
// tie-breaking is stable across runs.
func (t *Tx) CounterpartySnapshot(ctx context.Context) ([]reconcile.NameRow, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT source, counterparty_name_p, counterparty_name
		FROM entry ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying counterparty snapshot: %w", err)
	}
	defer rows.Close()

	var snapshot []reconcile.NameRow
	for rows.Next() {
		var r reconcile.NameRow
		if err := rows.Scan(&r.Source, &r.Parsed, &r.Name); err != nil {
			return nil, fmt.Errorf("scanning counterparty row: %w", err)
		}
		snapshot = append(snapshot, r)
	}
	return snapshot, rows.Err()
}

// Categories returns all categories ordered by name.
func (t *Tx) Categories(ctx context.Context) ([]domain.Category, error) {
	return scanCategories(t.tx.QueryContext(ctx, `SELECT id, name FROM category ORDER BY name`))
}

// Categories returns all categories ordered by name.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	return scanCategories(s.db.QueryContext(ctx, `SELECT id, name FROM category ORDER BY name`))
}

func scanCategories(rows *sql.Rows, err error) ([]domain.Category, error) {
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ExistingIDs returns every ledger id.
func (s *Store) ExistingIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM entry`)
	if err != nil {
		return nil, fmt.Errorf("querying ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// SyncCategories reconciles the category table with the configured
// list: missing names are created, names no longer configured are
// removed and references to them cleared.
func (s *Store) SyncCategories(ctx context.Context, names []string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			want[n] = true
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanCategories(tx.QueryContext(ctx, `SELECT id, name FROM category`))
		if err != nil {
			return err
		}

		have := make(map[string]bool, len(existing))
		for _, c := range existing {
			have[c.Name] = true
			if !want[c.Name] {
				if _, err := tx.ExecContext(ctx,
					`UPDATE entry SET category_id = NULL WHERE category_id = ?`, c.ID); err != nil {
					return fmt.Errorf("clearing category %q: %w", c.Name, err)
				}
				if _, err := tx.ExecContext(ctx, `DELETE FROM category WHERE id = ?`, c.ID); err != nil {
					return fmt.Errorf("deleting category %q: %w", c.Name, err)
				}
			}
		}
		for name := range want {
			if !have[name] {
				if _, err := tx.ExecContext(ctx, `INSERT INTO category (name) VALUES (?)`, name); err != nil {
					return fmt.Errorf("creating category %q: %w", name, err)
				}
			}
		}
		return nil
	})
}

// SyncTags mirrors SyncCategories for tags.
func (s *Store) SyncTags(ctx context.Context, names []string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			want[n] = true
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, name FROM tag`)
		if err != nil {
			return fmt.Errorf("querying tags: %w", err)
		}
		defer rows.Close()

		var existing []domain.Tag
		for rows.Next() {
			var t domain.Tag
			if err := rows.Scan(&t.ID, &t.Name); err != nil {
				return fmt.Errorf("scanning tag: %w", err)
			}
			existing = append(existing, t)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		have := make(map[string]bool, len(existing))
		for _, t := range existing {
			have[t.Name] = true
			if !want[t.Name] {
				if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tag WHERE tag_id = ?`, t.ID); err != nil {
					return fmt.Errorf("clearing tag %q: %w", t.Name, err)
				}
				if _, err := tx.ExecContext(ctx, `DELETE FROM tag WHERE id = ?`, t.ID); err != nil {
					return fmt.Errorf("deleting tag %q: %w", t.Name, err)
				}
			}
		}
		for name := range want {
			if !have[name] {
				if _, err := tx.ExecContext(ctx, `INSERT INTO tag (name) VALUES (?)`, name); err != nil {
					return fmt.Errorf("creating tag %q: %w", name, err)
				}
			}
		}
		return nil
	})
}

// TagEntry attaches a tag to an entry. Attaching an already attached
// tag is a no-op.
func (s *Store) TagEntry(ctx context.Context, entryID string, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO entry_tag (entry_id, tag_id) VALUES (?, ?)`, entryID, tagID)
	if err != nil {
		return fmt.Errorf("tagging entry %s: %w", entryID, err)
	}
	return nil
}

// UntagEntry detaches a tag from an entry.
func (s *Store) UntagEntry(ctx context.Context, entryID string, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM entry_tag WHERE entry_id = ? AND tag_id = ?`, entryID, tagID)
	if err != nil {
		return fmt.Errorf("untagging entry %s: %w", entryID, err)
	}
	return nil
}

// EntryTags returns the tags attached to an entry, ordered by name.
func (s *Store) EntryTags(ctx context.Context, entryID string) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name FROM tag t
		JOIN entry_tag et ON et.tag_id = t.id
		WHERE et.entry_id = ? ORDER BY t.name`, entryID)
	if err != nil {
		return nil, fmt.Errorf("querying entry tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning entry tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Tags returns all tags ordered by name.
func (s *Store) Tags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tag ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Filter selects ledger entries for queries and bulk review.
type Filter struct {
	Source       string
	From, To     time.Time // half-open [From, To)
	Counterparty string    // substring match on the current name
	CategoryID   *int64
	Ignore       *bool
	Reviewed     *bool
}

// Entries returns ledger entries matching the filter, ordered by date.
func (s *Store) Entries(ctx context.Context, f Filter) ([]domain.Entry, error) {
	query := `
		SELECT id, source, date, details, amount, source_file, source_line,
		       transaction_id, transaction_type,
		       counterparty_name, counterparty_type, counterparty_bank,
		       counterparty_name_p, counterparty_bank_p,
		       remarks, category_id, parent, "ignore", reviewed
		FROM entry`
	where, args := buildWhere(f)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY date, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func buildWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, f.Source)
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date < ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Counterparty != "" {
		conds = append(conds, "counterparty_name LIKE ?")
		args = append(args, "%"+f.Counterparty+"%")
	}
	if f.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Ignore != nil {
		conds = append(conds, `"ignore" = ?`)
		args = append(args, *f.Ignore)
	}
	if f.Reviewed != nil {
		conds = append(conds, "reviewed = ?")
		args = append(args, *f.Reviewed)
	}
	return strings.Join(conds, " AND "), args
}

func scanEntry(rows *sql.Rows) (domain.Entry, error) {
	var (
		e          domain.Entry
		date       string
		amount     string
		ctype      string
		categoryID sql.NullInt64
		parent     sql.NullString
	)
	if err := rows.Scan(
		&e.ID, &e.Source, &date, &e.Details, &amount, &e.SourceFile, &e.SourceLine,
		&e.TransactionID, &e.TransactionType,
		&e.CounterpartyName, &ctype, &e.CounterpartyBank,
		&e.CounterpartyNameP, &e.CounterpartyBankP,
		&e.Remarks, &categoryID, &parent, &e.Ignore, &e.Reviewed,
	); err != nil {
		return domain.Entry{}, fmt.Errorf("scanning entry: %w", err)
	}

	var err error
	e.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("parsing stored date %q: %w", date, err)
	}
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("parsing stored amount %q: %w", amount, err)
	}
	e.CounterpartyType = domain.CounterpartyType(ctype)
	if categoryID.Valid {
		e.CategoryID = &categoryID.Int64
	}
	if parent.Valid {
		e.Parent = &parent.String
	}
	return e, nil
}

// Update changes one human-editable field of one entry. The parsed
// shadow columns are not editable through any path.
func (s *Store) Update(ctx context.Context, id, column string, value any) error {
	if !editableColumns[column] {
		return fmt.Errorf("column %q is not editable", column)
	}
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE entry SET %q = ? WHERE id = ?`, column), value, id)
	if err != nil {
		return fmt.Errorf("updating %s of entry %s: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry %s not found", id)
	}
	return nil
}

// SetParent links an entry to a logically related one, e.g. a refund
// to its original purchase. A nil parent clears the link.
func (s *Store) SetParent(ctx context.Context, id string, parent *string) error {
	if parent != nil {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entry WHERE id = ?`, *parent).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking parent %s: %w", *parent, err)
		}
		if exists == 0 {
			return fmt.Errorf("parent entry %s not found", *parent)
		}
	}
	return s.Update(ctx, id, "parent", parent)
}

// Categorize assigns a category to every entry matching the filter, in
// one transaction. It backs the bulk re-categorization review surface.
func (s *Store) Categorize(ctx context.Context, f Filter, categoryID int64) (int64, error) {
	where, args := buildWhere(f)
	query := `UPDATE entry SET category_id = ?`
	args = append([]any{categoryID}, args...)
	if where != "" {
		query += " WHERE " + where
	}

	var affected int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("bulk categorize: %w", err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// CountBySource reports ledger row counts per source.
func (s *Store) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM entry GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
