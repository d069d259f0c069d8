// Command validate dry-runs a CRZ vehicle-entries CSV through the extractor,
// normalizer, and resolver without touching a database. It reports what a
// real load would commit, skip, and reject, and exits non-zero when the file
// fails a fatal check or the skip ratio exceeds the threshold.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/crz_entries.csv -max-skip-ratio 0.05
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/crzdata/congestion-etl/internal/adapter/csvfile"
	"github.com/crzdata/congestion-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the CRZ entries CSV")
	layout := flag.String("timestamp-layout", "", "primary timestamp layout (default: export's native layout)")
	maxSkipRatio := flag.Float64("max-skip-ratio", 0.05, "fail when more than this fraction of rows would be skipped")
	batchSize := flag.Int("batch-size", 1000, "rows per extractor batch")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *layout, *maxSkipRatio, *batchSize); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, layout string, maxSkipRatio float64, batchSize int) int {
	fmt.Println("=== CRZ Entries CSV Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	extractor := csvfile.NewExtractor(csvPath, logger)
	defer extractor.Close()

	header := &phase{name: "Phase 1: Header and class labels"}
	classes, err := extractor.DistinctVehicleClasses()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	if len(classes) == 0 {
		header.errorf("file has no rows with a vehicle class")
	}

	stats, err := scanRows(extractor, layout, batchSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		header,
		validateRows(stats, maxSkipRatio),
		validateCoverage(stats),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d read, %d loadable, %d skipped\n", stats.read, stats.loadable, stats.skippedTotal())
	fmt.Printf("Vehicle classes: %d, entry points seen: %d of %d\n",
		len(classes), len(stats.perEntryPoint), len(domain.DefaultAliasTable()))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// scanStats accumulates what a real load would do with the file.
type scanStats struct {
	read          int
	loadable      int
	skipped       map[domain.RejectReason]int
	perEntryPoint map[string]int
	dates         map[string]struct{}
}

func (s *scanStats) skippedTotal() int {
	n := 0
	for _, c := range s.skipped {
		n += c
	}
	return n
}

func scanRows(extractor *csvfile.Extractor, layout string, batchSize int) (*scanStats, error) {
	resolver := domain.NewResolver(domain.DefaultAliasTable())
	stats := &scanStats{
		skipped:       map[domain.RejectReason]int{},
		perEntryPoint: map[string]int{},
		dates:         map[string]struct{}{},
	}

	ctx := context.Background()
	for {
		batch, err := extractor.ExtractBatch(ctx, batchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return stats, nil
		}
		stats.read += len(batch)

		for _, raw := range batch {
			rec, err := domain.Normalize(raw, layout)
			if err != nil {
				stats.skipped[domain.ReasonOf(err)]++
				continue
			}
			def, ok := resolver.Resolve(rec.Location)
			if !ok {
				stats.skipped[domain.RejectUnknownLocation]++
				continue
			}
			stats.loadable++
			stats.perEntryPoint[def.Name] += rec.EntryCount
			stats.dates[rec.Date.Format("2006-01-02")] = struct{}{}
		}
	}
}

func validateRows(stats *scanStats, maxSkipRatio float64) *phase {
	p := &phase{name: "Phase 2: Row normalization"}

	if stats.read == 0 {
		p.errorf("file has no data rows")
		return p
	}

	ratio := float64(stats.skippedTotal()) / float64(stats.read)
	if ratio > maxSkipRatio {
		p.errorf("skip ratio %.2f%% exceeds threshold %.2f%%", ratio*100, maxSkipRatio*100)
	}
	// A handful of bad rows is normal for this export; a single reason
	// dominating the skips usually means a layout mismatch.
	for reason, count := range stats.skipped {
		if float64(count)/float64(stats.read) > 0.01 {
			p.errorf("%s: %d rows (%.2f%%), likely a systematic issue", reason, count, float64(count)/float64(stats.read)*100)
		}
	}
	return p
}

func validateCoverage(stats *scanStats) *phase {
	p := &phase{name: "Phase 3: Entry point coverage"}

	if stats.loadable == 0 {
		p.errorf("no loadable rows")
		return p
	}
	if len(stats.dates) == 0 {
		p.errorf("no calendar dates derived")
	}
	for name, total := range stats.perEntryPoint {
		if total == 0 {
			p.errorf("%s: present but all counts are zero", name)
		}
	}
	return p
}
