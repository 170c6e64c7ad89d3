// Package ingest drives a statement file end to end: extract the
// tabular block, normalize rows, drop duplicates, parse descriptions,
// reconcile counterparties and append to the ledger.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kbhatt/khata/internal/domain"
	"github.com/kbhatt/khata/internal/extract"
	"github.com/kbhatt/khata/internal/normalize"
	"github.com/kbhatt/khata/internal/reconcile"
	"github.com/kbhatt/khata/internal/source"
	"github.com/kbhatt/khata/internal/store"
)

// Result reports what one ingest run did.
type Result struct {
	BatchID string
	Seen    int // rows in the file after normalization
	Written int // rows that survived the dedup gate
}

// Ingestor ingests statement files into the ledger.
type Ingestor struct {
	store    *store.Store
	registry *source.Registry
	log      zerolog.Logger
}

// New returns an Ingestor writing to st for the sources in reg.
func New(st *store.Store, reg *source.Registry, log zerolog.Logger) *Ingestor {
	return &Ingestor{store: st, registry: reg, log: log}
}

// IngestFile ingests one statement file under the named source. The
// whole batch commits or rolls back as a unit: a malformed row or an
// unrecognized description aborts the file with nothing written.
// Re-ingesting the same file is a no-op with Written == 0.
func (in *Ingestor) IngestFile(ctx context.Context, path, sourceName string) (Result, error) {
	src, err := in.registry.Lookup(sourceName)
	if err != nil {
		return Result{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	data := string(raw)
	if src.CatchPhrase != "" {
		data, err = extract.Table(strings.NewReader(data), src.CatchPhrase)
		if err != nil {
			return Result{}, fmt.Errorf("extracting table from %s: %w", path, err)
		}
	}

	// Content ids key on the statement's file name, never the path as
	// typed, so the same file ingested from different directories or
	// path spellings still hits the dedup gate.
	pres, err := normalize.File(strings.NewReader(data), src, filepath.Base(path))
	if err != nil {
		return Result{}, err
	}

	result := Result{
		BatchID: uuid.NewString(),
		Seen:    len(pres),
	}
	in.log.Debug().
		Str("source", sourceName).
		Str("file", path).
		Str("batch", result.BatchID).
		Int("rows", len(pres)).
		Msg("normalized statement")

	err = in.store.WithTx(ctx, func(tx *store.Tx) error {
		ids := make([]string, len(pres))
		for i, p := range pres {
			ids[i] = p.ID
		}
		novel, err := tx.FilterNew(ctx, result.BatchID, ids)
		if err != nil {
			return err
		}
		if len(novel) == 0 {
			return nil
		}

		snapshot, err := tx.CounterpartySnapshot(ctx)
		if err != nil {
			return err
		}
		categories, err := tx.Categories(ctx)
		if err != nil {
			return err
		}
		names := reconcile.NameLookup(snapshot)
		lookup := reconcile.CategoryLookup(categories)

		var entries []*domain.Entry
		for _, p := range pres {
			if !novel[p.ID] {
				continue
			}
			txn, err := src.ParseDetails(p)
			if err != nil {
				return err
			}
			e, err := domain.NewEntry(p, sourceName, txn)
			if err != nil {
				return err
			}
			reconcile.Apply(e, names, lookup)
			entries = append(entries, e)
		}
		if err := tx.Append(ctx, entries); err != nil {
			return err
		}
		result.Written = len(entries)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	in.log.Info().
		Str("source", sourceName).
		Str("file", path).
		Int("seen", result.Seen).
		Int("written", result.Written).
		Msg("ingested statement")
	return result, nil
}
