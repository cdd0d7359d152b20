// Package idmap records which target id each migrated legacy row received.
// Every foreign key the importer writes is resolved through it.
package idmap

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTable is the mapping table created by the embedded migration.
const DefaultTable = "sabercon_id_mappings"

// ErrMappingConflict is returned by Put when (table, sourceID) is already
// mapped to another target id. It means the migration state is corrupt.
var ErrMappingConflict = errors.New("id mapping conflict")

// ConflictError carries the details of an ErrMappingConflict.
type ConflictError struct {
	Table     string
	SourceID  string
	Existing  string
	Attempted string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s/%s is mapped to %s, refusing to remap to %s",
		ErrMappingConflict, e.Table, e.SourceID, e.Existing, e.Attempted)
}

func (e *ConflictError) Unwrap() error { return ErrMappingConflict }

// Store is the id translation contract. Get reports ok=false on a miss;
// callers treat a miss as "parent not migrated", never as a failure.
// Put is idempotent for an identical pair and fails with a *ConflictError
// for a different target id.
type Store interface {
	Get(ctx context.Context, table, sourceID string) (targetID string, ok bool, err error)
	Put(ctx context.Context, table, sourceID, targetID string) error
	All(ctx context.Context, table string) (map[string]string, error)
}

