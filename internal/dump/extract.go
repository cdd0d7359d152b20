package dump

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ExtractRows is the lenient entry point used by the import pipeline: it
// never fails, logging the problem and returning no rows instead. Rows of
// every INSERT statement in text are concatenated in file order.
func ExtractRows(logger *slog.Logger, name, text string) []Row {
	stmts, err := Parse(text)
	if err != nil {
		logger.Error("failed to parse dump", "dump", name, "error", err)
		return nil
	}
	if len(stmts) == 0 {
		logger.Warn("no INSERT statement in dump", "dump", name)
		return nil
	}
	var rows []Row
	for _, s := range stmts {
		rows = append(rows, s.Rows...)
	}
	logger.Debug("extracted rows", "dump", name, "statements", len(stmts), "rows", len(rows))
	return rows
}

// Path returns the location of the dump file for a source table.
func Path(dir, table string) string {
	return filepath.Join(dir, table+".sql")
}

// ReadFile loads and leniently extracts the dump of a source table. A missing
// file yields no rows.
func ReadFile(logger *slog.Logger, dir, table string) []Row {
	path := Path(dir, table)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("dump file not found", "table", table, "path", path)
		} else {
			logger.Error("failed to read dump file", "table", table, "path", path, "error", err)
		}
		return nil
	}
	return ExtractRows(logger, table, string(data))
}

// ParseFile is the strict counterpart of ReadFile.
func ParseFile(dir, table string) ([]Statement, error) {
	path := Path(dir, table)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump %s: %w", path, err)
	}
	stmts, err := Parse(string(data))
	if err != nil {
		return stmts, fmt.Errorf("failed to parse dump %s: %w", path, err)
	}
	return stmts, nil
}
