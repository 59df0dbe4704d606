// Package store is the persistence layer for scraped procurement records.
//
// Two record shapes share the same structural pattern: open bid notices
// keyed by reference_number and awarded contracts keyed by
// award_notice_number. Each owns line items and document references that
// live and die with the parent. The natural key is the sole
// de-duplication key: Upsert* updates in place, never duplicates.
package store

import (
	"database/sql"
	"errors"
)

// ErrMissingNaturalKey is returned by Upsert* when the record carries no
// natural key. A record without identity is unusable and is never stored.
var ErrMissingNaturalKey = errors.New("store: record has no natural key")

// Store wraps the bidwatch database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
