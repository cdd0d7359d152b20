package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"sabercon-migrate/internal/dump"
	"sabercon-migrate/internal/idmap"
	"sabercon-migrate/internal/naming"
	"sabercon-migrate/internal/target"
)

// Target is the write side of the migration.
type Target interface {
	Ping(ctx context.Context) error
	Exists(ctx context.Context, table, id string) (bool, error)
	FindBySourceID(ctx context.Context, table, sourceID string) (string, bool, error)
	// InsertMapped writes the row and its id mapping atomically.
	InsertMapped(ctx context.Context, entity string, rec target.Record) error
	Count(ctx context.Context, table string) (int, error)
}

// EntityResult counts what happened to the rows of one entity.
type EntityResult struct {
	Entity               string
	Table                string
	Extracted            int
	Imported             int
	SkippedDeleted       int
	SkippedExisting      int
	SkippedMissingParent int
	SkippedMissingUser   int
	Recovered            int
	Conflicts            int
	Erred                int
	Verified             int // imported rows present in the target after the stage, -1 if unknown
	Status               string
}

// Skipped sums every skip reason.
func (r EntityResult) Skipped() int {
	return r.SkippedDeleted + r.SkippedExisting + r.SkippedMissingParent + r.SkippedMissingUser
}

// RowSource yields the dumped rows of an entity.
type RowSource func(e *Entity) []dump.Row

// DumpDir reads rows from <dir>/<entity>.sql, leniently.
func DumpDir(dir string, logger *slog.Logger) RowSource {
	return func(e *Entity) []dump.Row {
		return dump.ReadFile(logger, dir, e.Source)
	}
}

// Pipeline imports legacy entities into the target store, translating every
// foreign key through the id mapping store.
type Pipeline struct {
	Target Target
	IDs    idmap.Store
	Rows   RowSource
	Logger *slog.Logger
	NewID  func() string

	// OnEntityStart is called before the rows of an entity are processed.
	OnEntityStart func(e *Entity, rows int)
	// OnRow is called after every row, whatever its outcome.
	OnRow func(e *Entity)

	index *idmap.Index
}

type outcome int

const (
	imported outcome = iota
	skippedDeleted
	skippedExisting
	skippedMissingParent
	skippedMissingUser
	recovered
	conflicted
	erred
)

// Run imports entities in dependency order. Only an unreachable target is
// an error; everything that goes wrong with a row or a dump is counted and
// logged, and the run moves on.
func (p *Pipeline) Run(ctx context.Context, entities []*Entity) ([]EntityResult, error) {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.NewID == nil {
		p.NewID = uuid.NewString
	}
	if err := p.Target.Ping(ctx); err != nil {
		return nil, err
	}
	p.index = idmap.NewIndex(p.IDs)

	var results []EntityResult
	for _, e := range Order(entities) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, p.runEntity(ctx, e))
	}
	return results, nil
}

func (p *Pipeline) runEntity(ctx context.Context, e *Entity) EntityResult {
	log := p.Logger.With("entity", e.Source, "table", e.Target)
	res := EntityResult{Entity: e.Source, Table: e.Target, Verified: -1}

	// prefetch the mappings this stage reads
	for _, name := range append([]string{e.Source}, e.NodeDependencies()...) {
		if p.index.Loaded(name) {
			continue
		}
		if err := p.index.Load(ctx, name); err != nil {
			log.Warn("failed to prefetch id mappings, falling back to lookups", "mapping", name, "error", err)
			continue
		}
		log.Debug("prefetched id mappings", "mapping", name, "count", p.index.Len(name))
	}

	rows := p.Rows(e)
	res.Extracted = len(rows)
	if p.OnEntityStart != nil {
		p.OnEntityStart(e, len(rows))
	}
	log.Info("importing entity", "rows", len(rows))

	for i, row := range rows {
		switch p.importRow(ctx, log, e, i, row) {
		case imported:
			res.Imported++
		case skippedDeleted:
			res.SkippedDeleted++
		case skippedExisting:
			res.SkippedExisting++
		case skippedMissingParent:
			res.SkippedMissingParent++
		case skippedMissingUser:
			res.SkippedMissingUser++
		case recovered:
			res.Recovered++
		case conflicted:
			res.Conflicts++
		case erred:
			res.Erred++
		}
		if p.OnRow != nil {
			p.OnRow(e)
		}
	}

	if n, err := p.Target.Count(ctx, e.Target); err != nil {
		log.Warn("failed to verify imported rows", "error", err)
	} else {
		res.Verified = n
	}
	res.Status = status(res)

	log.Info("entity done",
		"imported", res.Imported, "skipped", res.Skipped(), "recovered", res.Recovered,
		"conflicts", res.Conflicts, "erred", res.Erred, "verified", res.Verified)
	return res
}

func status(r EntityResult) string {
	switch {
	case r.Extracted == 0:
		return "NO DATA"
	case r.Conflicts > 0:
		return "CONFLICT"
	case r.Erred > 0 && r.Imported+r.Recovered == 0:
		return "FAILED"
	case r.Erred > 0:
		return "PARTIAL"
	default:
		return "OK"
	}
}

func (p *Pipeline) importRow(ctx context.Context, log *slog.Logger, e *Entity, n int, row dump.Row) outcome {
	d := e.Decode(row)
	if d.SourceID == "" {
		log.Error("row without source id", "row", n)
		return erred
	}
	log = log.With("source_id", d.SourceID)

	if d.Deleted {
		log.Debug("skipping soft-deleted row")
		return skippedDeleted
	}

	if _, ok, err := p.index.Lookup(ctx, e.Source, d.SourceID); err != nil {
		log.Error("failed to look up mapping", "error", err)
		return erred
	} else if ok {
		return skippedExisting
	}

	cols := append([]string(nil), d.Columns...)
	vals := append([]any(nil), d.Values...)
	for _, parent := range e.Parents {
		legacyID := d.Parents[parent.Column]
		var resolved string
		if legacyID != "" {
			id, ok, err := p.index.Lookup(ctx, parent.Entity, legacyID)
			if err != nil {
				log.Error("failed to resolve parent", "parent", parent.Entity, "parent_id", legacyID, "error", err)
				return erred
			}
			if ok {
				resolved = id
			}
		}

		if resolved == "" {
			if parent.Required {
				log.Debug("skipping row with unresolved parent", "parent", parent.Entity, "parent_id", legacyID)
				return skippedMissingParent
			}
			cols = append(cols, parent.Target)
			vals = append(vals, nil)
			continue
		}

		if parent.Guard {
			exists, err := p.Target.Exists(ctx, naming.NormalizeTableName(parent.Entity), resolved)
			if err != nil {
				log.Error("failed to verify parent", "parent", parent.Entity, "error", err)
				return erred
			}
			if !exists {
				log.Warn("skipping row whose mapped parent is gone from the target",
					"parent", parent.Entity, "parent_id", legacyID, "target_id", resolved)
				return skippedMissingUser
			}
		}
		cols = append(cols, parent.Target)
		vals = append(vals, resolved)
	}

	// a row written by an interrupted run only lacks its mapping
	if existing, ok, err := p.Target.FindBySourceID(ctx, e.Target, d.SourceID); err != nil {
		log.Error("failed to look up target row", "error", err)
		return erred
	} else if ok {
		if err := p.IDs.Put(ctx, e.Source, d.SourceID, existing); err != nil {
			return p.failed(log, err)
		}
		p.index.Remember(e.Source, d.SourceID, existing)
		log.Info("recovered mapping of previously imported row", "target_id", existing)
		return recovered
	}

	rec := target.Record{
		Table:    e.Target,
		ID:       p.NewID(),
		SourceID: d.SourceID,
		Columns:  cols,
		Values:   vals,
	}
	if err := p.Target.InsertMapped(ctx, e.Source, rec); err != nil {
		return p.failed(log, err)
	}
	p.index.Remember(e.Source, d.SourceID, rec.ID)
	return imported
}

func (p *Pipeline) failed(log *slog.Logger, err error) outcome {
	var ce *idmap.ConflictError
	if errors.As(err, &ce) {
		log.Error("id mapping conflict, row not imported",
			"existing", ce.Existing, "attempted", ce.Attempted, "error", err)
		return conflicted
	}
	log.Error("failed to import row", "error", err)
	return erred
}
