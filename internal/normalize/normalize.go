// Package normalize reduces raw statement rows to canonical
// pre-records: stable content id, date, joined details and a signed
// decimal amount.
package normalize

import (
	"crypto/sha1"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kbhatt/khata/internal/domain"
	"github.com/kbhatt/khata/internal/source"
)

// hashDateLayout fixes the date rendering inside the content hash.
// Changing it would re-key every ledger row, so it never changes.
const hashDateLayout = "2006-01-02 15:04:05"

// Hash computes the content id of a row: a sha1 over the source file
// name, the row's position in the date-sorted table, the details text,
// the date and the signed amount. File and position are included
// deliberately so identical transactions from different files or
// positions do not collide, while re-parsing the same file always
// reproduces the same id.
func Hash(file string, position int, details string, date time.Time, amount decimal.Decimal) string {
	text := fmt.Sprintf("%s-%d-%s-%s-%s", file, position, details, date.Format(hashDateLayout), amount.String())
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ReadTable reads a header-mapped CSV table. Each row becomes a
// header→cell map; short rows leave missing columns absent.
func ReadTable(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, cell := range rec {
			if i < len(headers) {
				row[headers[i]] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// File normalizes a whole statement table against a source definition.
// Rows are sorted by date (stable) before positions are assigned, so
// the content ids do not depend on the export's row order. An empty
// table yields zero records and no error; a bad amount or date aborts
// the file with a MalformedRowError rather than coercing silently.
func File(r io.Reader, src *source.Source, filename string) ([]domain.PreRecord, error) {
	rows, err := ReadTable(r)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.PreRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := Row(row, i+1, src, filename)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date.Before(recs[j].Date)
	})
	for i := range recs {
		recs[i].SourceLine = i
		recs[i].ID = Hash(filename, i, recs[i].Details, recs[i].Date, recs[i].Amount)
	}
	return recs, nil
}

// Row normalizes one raw row. rowNum is the 1-based data row within
// the tabular block, used only for error context; the hashed position
// is assigned later by File from the sorted order.
func Row(row map[string]string, rowNum int, src *source.Source, filename string) (domain.PreRecord, error) {
	malformed := func(column string, err error) error {
		return &domain.MalformedRowError{File: filename, Row: rowNum, Column: column, Err: err}
	}

	dateCell := strings.TrimSpace(row[src.Columns.Date])
	date, err := time.Parse(src.DateLayout, dateCell)
	if err != nil {
		return domain.PreRecord{}, malformed(src.Columns.Date, err)
	}

	details := joinDetails(row, src.Columns.Details)

	var amount decimal.Decimal
	if src.Columns.Amount != "" {
		amount, err = parseAmount(row[src.Columns.Amount])
		if err != nil {
			return domain.PreRecord{}, malformed(src.Columns.Amount, err)
		}
	} else {
		debit, err := parseAmount(row[src.Columns.Debit])
		if err != nil {
			return domain.PreRecord{}, malformed(src.Columns.Debit, err)
		}
		credit, err := parseAmount(row[src.Columns.Credit])
		if err != nil {
			return domain.PreRecord{}, malformed(src.Columns.Credit, err)
		}
		amount = debit.Sub(credit)
	}

	return domain.PreRecord{
		Date:       date,
		Details:    details,
		Amount:     amount,
		SourceFile: filename,
	}, nil
}

// joinDetails joins the non-empty, trimmed details cells with "/".
func joinDetails(row map[string]string, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		if v := strings.TrimSpace(row[c]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "/")
}

// parseAmount parses a numeric cell, tolerating thousands separators
// and treating blank cells as zero. Anything else is an error: silent
// zero-coercion would hide header-detection drift in the export.
func parseAmount(cell string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", cell)
	}
	return d, nil
}
