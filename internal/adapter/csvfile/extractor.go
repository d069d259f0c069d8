// Package csvfile streams raw rows out of a CRZ vehicle-entries CSV export.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/crzdata/congestion-etl/internal/domain"
)

// Required source columns. Missing any of these is a fatal startup error;
// unexpected extra columns are ignored.
const (
	ColTimestamp    = "Toll 10 Minute Block"
	ColEntryCount   = "CRZ Entries"
	ColRegion       = "Detection Region"
	ColVehicleClass = "Vehicle Class"

	// Optional columns.
	ColExcluded   = "Excluded Roadway Entries"
	ColTimePeriod = "Time Period"
)

// columns holds resolved header indexes; -1 marks an absent optional column.
type columns struct {
	timestamp int
	entries   int
	excluded  int
	region    int
	class     int
	period    int
}

// Extractor reads a CSV export in bounded batches.
// It implements pipeline.BatchExtractor.
type Extractor struct {
	path   string
	logger *slog.Logger

	file   *os.File
	reader *csv.Reader
	cols   columns
	offset int64
	done   bool
}

// NewExtractor creates an extractor for the given file path. The file is
// opened and its header validated on the first ExtractBatch call.
func NewExtractor(path string, logger *slog.Logger) *Extractor {
	return &Extractor{path: path, logger: logger}
}

// ExtractBatch reads up to batchSize raw rows. An empty batch signals end
// of input. Rows the CSV reader cannot parse at all are skipped with a
// warning; short rows pass through with empty fields and fail
// normalization instead.
func (e *Extractor) ExtractBatch(_ context.Context, batchSize int) ([]domain.RawRow, error) {
	if e.done {
		return nil, nil
	}
	if e.reader == nil {
		if err := e.open(); err != nil {
			return nil, err
		}
	}

	batch := make([]domain.RawRow, 0, batchSize)
	for len(batch) < batchSize {
		row, err := e.reader.Read()
		if errors.Is(err, io.EOF) {
			e.done = true
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			e.offset++
			e.logger.Warn("skipping unreadable csv row", "row", e.offset, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		e.offset++
		batch = append(batch, e.mapRow(row))
	}
	return batch, nil
}

// DistinctVehicleClasses scans the whole file once and returns the sorted
// set of trimmed class labels. The loader's dimension snapshot is built
// from this before any fact row is written.
func (e *Extractor) DistinctVehicleClasses() ([]string, error) {
	file, reader, cols, err := openAndValidate(e.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	seen := make(map[string]struct{})
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan vehicle classes: %w", err)
		}
		name := strings.TrimSpace(get(row, cols.class))
		if name != "" {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the underlying file handle.
func (e *Extractor) Close() error {
	if e.file == nil {
		return nil
	}
	return e.file.Close()
}

func (e *Extractor) open() error {
	file, reader, cols, err := openAndValidate(e.path)
	if err != nil {
		return err
	}
	e.file = file
	e.reader = reader
	e.cols = cols
	return nil
}

func (e *Extractor) mapRow(row []string) domain.RawRow {
	raw := domain.RawRow{
		Timestamp:    get(row, e.cols.timestamp),
		EntryCount:   get(row, e.cols.entries),
		Location:     get(row, e.cols.region),
		VehicleClass: get(row, e.cols.class),
		Offset:       e.offset,
	}
	if e.cols.excluded >= 0 {
		raw.ExcludedCount = get(row, e.cols.excluded)
		raw.HasExcluded = true
	}
	if e.cols.period >= 0 {
		raw.TimePeriod = get(row, e.cols.period)
	}
	return raw
}

func openAndValidate(path string) (*os.File, *csv.Reader, columns, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, columns{}, fmt.Errorf("open csv: %w", err)
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // the export has ragged rows

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, nil, columns{}, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}

	cols := columns{
		timestamp: indexOf(idx, ColTimestamp),
		entries:   indexOf(idx, ColEntryCount),
		excluded:  indexOf(idx, ColExcluded),
		region:    indexOf(idx, ColRegion),
		class:     indexOf(idx, ColVehicleClass),
		period:    indexOf(idx, ColTimePeriod),
	}
	for _, required := range []struct {
		name string
		pos  int
	}{
		{ColTimestamp, cols.timestamp},
		{ColEntryCount, cols.entries},
		{ColRegion, cols.region},
		{ColVehicleClass, cols.class},
	} {
		if required.pos < 0 {
			file.Close()
			return nil, nil, columns{}, fmt.Errorf("csv missing required column %q", required.name)
		}
	}

	return file, reader, cols, nil
}

func indexOf(idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return -1
}

func get(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
