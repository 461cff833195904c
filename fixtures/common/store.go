package common

import (
	"context"
	"sort"
)

// TableStore is the capability set shared by the table/collection-backed
// fixture contexts. Every operation blocks until the store responds; a single
// context instance owns one live connection and must not be shared between
// goroutines.
type TableStore interface {
	// CreateTable materializes a table/collection from the abstract schema
	// under a fresh generated name and returns that name. Re-creation is
	// idempotent. When addAuditColumns is set the changelog envelope columns
	// (time, diff) are appended after the user fields.
	CreateTable(ctx context.Context, schema Schema, addAuditColumns bool) (string, error)

	// Insert writes a single record. Store errors propagate unmodified.
	Insert(ctx context.Context, table string, rec Record) error

	// ReadAll fetches exactly the requested fields of every row. With sort
	// keys the result is ordered ascending by the key tuple; without, the
	// order is store-defined.
	ReadAll(ctx context.Context, table string, fields []string, sortBy ...string) ([]Record, error)
}

// SortRecords orders records ascending by the named keys with tuple ordering.
func SortRecords(recs []Record, keys ...string) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, key := range keys {
			if c := recs[i][key].Compare(recs[j][key]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}
