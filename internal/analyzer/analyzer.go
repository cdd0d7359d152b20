// Package analyzer inspects the legacy schema, proposes a target type for
// every column and samples rows for data that would not survive the move.
// It never writes to either database.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"sabercon-migrate/internal/naming"
	"sabercon-migrate/internal/schema"
	"sabercon-migrate/internal/typemap"
)

// Source samples rows of the legacy database. schema.Catalog implements it.
type Source interface {
	Sample(ctx context.Context, table string, limit int) ([][]any, error)
}

type ProblemKind string

const (
	NullChar        ProblemKind = "nullChar"
	InvalidDate     ProblemKind = "invalidDate"
	OversizedText   ProblemKind = "oversizedText"
	NonFiniteNumber ProblemKind = "nonFiniteNumber"
)

// DataProblem is a defect found in a sampled row. Advisory only.
type DataProblem struct {
	Kind        ProblemKind
	Table       string
	Column      string
	RowIndex    int
	Description string
}

// Issue is a table- or column-level finding.
type Issue struct {
	Severity typemap.Severity
	Column   string // empty for table-level issues
	Message  string
}

type ColumnAnalysis struct {
	Column  *schema.Column
	Mapping typemap.TypeMapping
}

// TableReport is the analysis of one source table.
type TableReport struct {
	SourceName     string
	TargetName     string
	RowCount       int64
	ByteSize       int64
	ExistsInTarget bool
	Sampled        bool
	Columns        []ColumnAnalysis
	DataProblems   []DataProblem
	Warnings       []Issue
}

// Status is the worst severity found in the table. Data problems count as
// warnings.
func (r *TableReport) Status() typemap.Severity {
	s := typemap.SeverityOK
	for _, w := range r.Warnings {
		if w.Severity > s {
			s = w.Severity
		}
	}
	if len(r.DataProblems) > 0 && s < typemap.SeverityWarning {
		s = typemap.SeverityWarning
	}
	return s
}

type Options struct {
	SampleSize       int // rows sampled per table
	SampleRowCeiling int // tables with more rows are not sampled
	OversizedText    int // bytes
}

func DefaultOptions() Options {
	return Options{SampleSize: 100, SampleRowCeiling: 100000, OversizedText: 65535}
}

type Analyzer struct {
	src    Source
	opts   Options
	logger *slog.Logger
}

func New(src Source, opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{src: src, opts: opts, logger: logger}
}

// Analyze produces one report per table, ordered by source name. Sampling
// failures are recorded on the report and never abort the analysis.
func (a *Analyzer) Analyze(ctx context.Context, tables []*schema.Table, targetTables []string) []TableReport {
	inTarget := make(map[string]bool, len(targetTables))
	for _, name := range targetTables {
		inTarget[strings.ToLower(name)] = true
	}

	sorted := append([]*schema.Table(nil), tables...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	reports := make([]TableReport, 0, len(sorted))
	for _, t := range sorted {
		reports = append(reports, a.analyzeTable(ctx, t, inTarget))
	}
	return reports
}

func (a *Analyzer) analyzeTable(ctx context.Context, t *schema.Table, inTarget map[string]bool) TableReport {
	r := TableReport{
		SourceName: t.Name,
		TargetName: naming.NormalizeTableName(t.Name),
		RowCount:   t.RowCount,
		ByteSize:   t.ByteSize,
	}
	r.ExistsInTarget = inTarget[r.TargetName]

	if !t.HasPrimaryKey() {
		r.Warnings = append(r.Warnings, Issue{
			Severity: typemap.SeverityWarning,
			Message:  "no primary key: imported rows need a synthetic id",
		})
	}
	if !r.ExistsInTarget {
		r.Warnings = append(r.Warnings, Issue{
			Severity: typemap.SeverityWarning,
			Message:  fmt.Sprintf("target table %s does not exist", r.TargetName),
		})
	}

	for _, c := range t.Columns {
		m := typemap.MapType(c)
		r.Columns = append(r.Columns, ColumnAnalysis{Column: c, Mapping: m})
		if m.Severity != typemap.SeverityOK {
			r.Warnings = append(r.Warnings, Issue{Severity: m.Severity, Column: c.Name, Message: m.Note})
		}
	}

	switch {
	case a.opts.SampleSize <= 0:
	case t.RowCount > int64(a.opts.SampleRowCeiling):
		a.logger.Debug("table too large to sample", "table", t.Name, "rows", t.RowCount)
	default:
		rows, err := a.src.Sample(ctx, t.Name, a.opts.SampleSize)
		if err != nil {
			a.logger.Warn("failed to sample table", "table", t.Name, "error", err)
			r.Warnings = append(r.Warnings, Issue{
				Severity: typemap.SeverityWarning,
				Message:  fmt.Sprintf("sampling failed: %v", err),
			})
			break
		}
		r.Sampled = true
		r.DataProblems = a.classify(t, rows)
	}
	return r
}

// classify inspects sampled rows positionally against the table's columns.
func (a *Analyzer) classify(t *schema.Table, rows [][]any) []DataProblem {
	var problems []DataProblem
	for i, row := range rows {
		for j, v := range row {
			if j >= len(t.Columns) || v == nil {
				continue
			}
			col := t.Columns[j]
			if kind, desc, bad := a.check(col, v); bad {
				problems = append(problems, DataProblem{
					Kind:        kind,
					Table:       t.Name,
					Column:      col.Name,
					RowIndex:    i,
					Description: desc,
				})
			}
		}
	}
	return problems
}

func (a *Analyzer) check(col *schema.Column, v any) (ProblemKind, string, bool) {
	switch x := v.(type) {
	case string:
		if strings.ContainsRune(x, 0) {
			return NullChar, "text contains a NUL byte, which PostgreSQL rejects", true
		}
		if col.IsTemporal() && strings.HasPrefix(x, "0000-00-00") {
			return InvalidDate, fmt.Sprintf("zero date %q has no PostgreSQL equivalent", x), true
		}
		if a.opts.OversizedText > 0 && col.IsTextual() && len(x) > a.opts.OversizedText {
			return OversizedText, fmt.Sprintf("text of %d bytes exceeds %d", len(x), a.opts.OversizedText), true
		}
		if col.IsFloating() {
			switch strings.ToLower(x) {
			case "nan", "inf", "-inf", "infinity", "-infinity":
				return NonFiniteNumber, fmt.Sprintf("non-finite value %s", x), true
			}
		}
	case time.Time:
		if x.IsZero() || x.Year() <= 0 {
			return InvalidDate, "zero date has no PostgreSQL equivalent", true
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return NonFiniteNumber, fmt.Sprintf("non-finite value %v", x), true
		}
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return NonFiniteNumber, fmt.Sprintf("non-finite value %v", x), true
		}
	}
	return "", "", false
}
