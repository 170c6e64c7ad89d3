package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownSource is returned by the registry when a source name has
// never been registered. Fatal for the file being ingested.
var ErrUnknownSource = errors.New("unknown source")

// ErrNotImplementedSource is returned by a registered source whose
// details grammar has been stubbed but not built. It aborts the file but
// other sources in the same run are unaffected.
var ErrNotImplementedSource = errors.New("source parser not implemented")

// MalformedRowError reports a row whose amount or date columns did not
// parse as the expected types. Rows are never silently coerced: the
// whole file is aborted so no transaction is lost to header drift.
// Row is the 1-based data row within the tabular block, counted after
// the header; exports that wrap the block in preamble junk would make
// a raw line number point at the wrong line.
type MalformedRowError struct {
	File   string
	Row    int
	Column string
	Err    error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d in %s: column %q: %v", e.Row, e.File, e.Column, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// UnrecognizedFormatError reports a details string that matched none of
// a source's matchers. It carries the offending string verbatim so a
// human can extend the cascade; it is never swallowed into a default
// Transaction.
type UnrecognizedFormatError struct {
	Source  string
	Details string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unrecognized transaction format for source %q: %s", e.Source, e.Details)
}
