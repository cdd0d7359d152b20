package analyzer

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"sabercon-migrate/internal/typemap"
)

// Summary aggregates a set of reports for the console.
type Summary struct {
	Tables    int
	OK        int
	Warning   int
	Error     int
	Missing   int // tables without a target counterpart
	TotalRows int64
	Estimate  time.Duration
}

// Summarize counts tables per status and estimates the import time from the
// total row count at rowsPerSecond.
func Summarize(reports []TableReport, rowsPerSecond int) Summary {
	s := Summary{Tables: len(reports)}
	for i := range reports {
		r := &reports[i]
		switch r.Status() {
		case typemap.SeverityOK:
			s.OK++
		case typemap.SeverityWarning:
			s.Warning++
		default:
			s.Error++
		}
		if !r.ExistsInTarget {
			s.Missing++
		}
		s.TotalRows += r.RowCount
	}
	if rowsPerSecond > 0 {
		s.Estimate = time.Duration(float64(s.TotalRows) / float64(rowsPerSecond) * float64(time.Second)).Round(time.Second)
	}
	return s
}

// Render writes the human-readable analysis report.
func Render(w io.Writer, reports []TableReport, rowsPerSecond int) {
	s := Summarize(reports, rowsPerSecond)

	_, _ = fmt.Fprintf(w, "Schema analysis: %d tables (%d ok, %d warning, %d error)\n\n",
		s.Tables, s.OK, s.Warning, s.Error)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Target", "Rows", "Size", "In target", "Columns", "Status"})
	for i := range reports {
		r := &reports[i]
		t.AppendRow(table.Row{
			r.SourceName, r.TargetName, r.RowCount, humanBytes(r.ByteSize),
			yesNo(r.ExistsInTarget), len(r.Columns), r.Status(),
		})
	}
	t.AppendFooter(table.Row{"", "", s.TotalRows, "", fmt.Sprintf("%d missing", s.Missing), "", ""})
	t.Render()

	renderIssues(w, reports)

	_, _ = fmt.Fprintln(w, "\nTable name mapping:")
	for i := range reports {
		_, _ = fmt.Fprintf(w, "  %s -> %s\n", reports[i].SourceName, reports[i].TargetName)
	}

	_, _ = fmt.Fprintf(w, "\nEstimated import time: %d rows at %d rows/s, about %s\n",
		s.TotalRows, rowsPerSecond, s.Estimate)
}

func renderIssues(w io.Writer, reports []TableReport) {
	header := false
	for i := range reports {
		r := &reports[i]
		if len(r.Warnings) == 0 && len(r.DataProblems) == 0 {
			continue
		}
		if !header {
			_, _ = fmt.Fprintln(w, "\nIssues:")
			header = true
		}
		_, _ = fmt.Fprintf(w, "  %s\n", r.SourceName)
		for _, is := range r.Warnings {
			if is.Column != "" {
				_, _ = fmt.Fprintf(w, "    [%s] %s: %s\n", is.Severity, is.Column, is.Message)
			} else {
				_, _ = fmt.Fprintf(w, "    [%s] %s\n", is.Severity, is.Message)
			}
		}
		for _, line := range problemLines(r.DataProblems) {
			_, _ = fmt.Fprintf(w, "    [data] %s\n", line)
		}
	}
}

// problemLines folds data problems into one line per column and kind.
func problemLines(problems []DataProblem) []string {
	type key struct {
		column string
		kind   ProblemKind
	}
	counts := make(map[key]int)
	first := make(map[key]DataProblem)
	var order []key
	for _, p := range problems {
		k := key{p.Column, p.Kind}
		if _, seen := first[k]; !seen {
			first[k] = p
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].column < order[j].column })

	lines := make([]string, 0, len(order))
	for _, k := range order {
		p := first[k]
		lines = append(lines, fmt.Sprintf("%s: %s in %d sampled row(s), first at row %d: %s",
			k.column, k.kind, counts[k], p.RowIndex, p.Description))
	}
	return lines
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
