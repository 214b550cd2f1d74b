// Package import_pkg loads the police directory from CSV exports.
package import_pkg

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rakshak-ai/internal/db"
)

// Stats summarizes one import.
type Stats struct {
	Imported int
	Errors   int
}

// CSVImporter handles importing CSV files into the directory tables
type CSVImporter struct {
	conn *db.Connection
	log  *slog.Logger
}

// NewCSVImporter creates a new CSV importer
func NewCSVImporter(conn *db.Connection, log *slog.Logger) *CSVImporter {
	if log == nil {
		log = slog.Default()
	}
	return &CSVImporter{conn: conn, log: log}
}

// ImportCSV reads records after the header row and hands each to insert.
// Bad rows are counted and skipped; only a missing header is fatal.
func (ci *CSVImporter) ImportCSV(ctx context.Context, r io.Reader, kind string, insert func(ctx context.Context, record []string) error) (Stats, error) {
	var stats Stats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		return stats, fmt.Errorf("failed to read %s header: %w", kind, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			ci.log.Warn("bad csv record", "kind", kind, "err", err)
			stats.Errors++
			continue
		}

		if err := insert(ctx, record); err != nil {
			ci.log.Warn("record skipped", "kind", kind, "err", err)
			stats.Errors++
			continue
		}

		stats.Imported++
		if stats.Imported%1000 == 0 {
			ci.log.Info("import progress", "kind", kind, "imported", stats.Imported)
		}
	}

	ci.log.Info("import complete", "kind", kind, "imported", stats.Imported, "errors", stats.Errors)
	return stats, nil
}

func (ci *CSVImporter) importFile(ctx context.Context, filename, kind string, insert func(ctx context.Context, record []string) error) (Stats, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()
	return ci.ImportCSV(ctx, file, kind, insert)
}

// field returns the trimmed column i, or "" when the row is short.
func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseFloat safely converts string to float64 pointer
func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
