// Command genfixture writes a deterministic mock CRZ vehicle-entries CSV for
// tests and local pipeline runs. It mixes clean rows with the malformed
// shapes the normalizer must reject, and uses the actual domain package to
// print the counts the fixture will produce, so test assertions can be
// updated from its output.
//
// Usage:
//
//	go run ./cmd/genfixture -out data/mock/crz_entries.csv -days 3
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/crzdata/congestion-etl/internal/domain"
)

var vehicleClasses = []string{
	"1 - Cars, Pickups and Vans",
	"2 - Single-Unit Trucks",
	"3 - Multi-Unit Trucks",
	"4 - Buses",
	"5 - Motorcycles",
	"TLC Taxi/FHV",
}

// Hourly demand profile: overnight trickle, AM and PM peaks.
var hourlyBase = [24]int{
	12, 8, 6, 5, 8, 20, 60, 110, 140, 120, 90, 85,
	88, 90, 95, 110, 130, 150, 140, 100, 70, 50, 35, 20,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the CSV fixture")
	days := flag.Int("days", 3, "number of consecutive days to generate")
	start := flag.String("start", "2025-03-24", "first date (YYYY-MM-DD)")
	seed := flag.Int64("seed", 42, "random seed; fixed seed means fixed output")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	rows := generate(startDate, *days, rand.New(rand.NewSource(*seed)))

	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d data rows: %s", len(rows), *out)

	printStats(rows)
	return nil
}

// generate produces one row per (10-minute block, entry point, class pick),
// with alias labels and malformed shapes injected at fixed cadences.
func generate(startDate time.Time, days int, rng *rand.Rand) [][]string {
	table := domain.DefaultAliasTable()
	var rows [][]string

	for d := 0; d < days; d++ {
		day := startDate.AddDate(0, 0, d)
		for hour := 0; hour < 24; hour++ {
			for block := 0; block < 60; block += 10 {
				ts := day.Add(time.Duration(hour)*time.Hour + time.Duration(block)*time.Minute)
				for _, def := range table {
					label := def.Name
					if len(def.Aliases) > 0 && rng.Intn(13) == 0 {
						label = def.Aliases[rng.Intn(len(def.Aliases))]
					}
					class := vehicleClasses[rng.Intn(len(vehicleClasses))]
					count := hourlyBase[hour] + rng.Intn(hourlyBase[hour]+1)
					excluded := rng.Intn(count/10 + 1)

					rows = append(rows, []string{
						ts.Format(domain.DefaultTimestampLayout),
						fmt.Sprintf("%d", count),
						fmt.Sprintf("%d", excluded),
						label,
						class,
						timePeriod(day.Weekday(), hour),
					})
				}
			}
		}
	}

	// Replace every 97th row with a malformed shape, cycling through the
	// rejection cases the pipeline must count.
	for i := 96; i < len(rows); i += 97 {
		ts := rows[i][0]
		switch (i / 97) % 5 {
		case 0:
			rows[i][0] = "not a toll block"
		case 1:
			rows[i][1] = "-5"
		case 2:
			rows[i][1] = "abc"
		case 3:
			rows[i][3] = ""
		case 4:
			rows[i] = []string{ts, "40", "0", "Staten Island Expressway", "4 - Buses", "Peak"}
		}
	}

	return rows
}

func timePeriod(weekday time.Weekday, hour int) string {
	peakStart := 5
	if weekday == time.Saturday || weekday == time.Sunday {
		peakStart = 9
	}
	if hour >= peakStart && hour < 21 {
		return "Peak"
	}
	return "Overnight"
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"Toll 10 Minute Block", "CRZ Entries", "Excluded Roadway Entries",
		"Detection Region", "Vehicle Class", "Time Period",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// printStats replays the fixture through the real normalizer and resolver so
// the printed numbers match what a pipeline run over this file will report.
func printStats(rows [][]string) {
	resolver := domain.NewResolver(domain.DefaultAliasTable())

	skipped := map[domain.RejectReason]int{}
	perEntryPoint := map[string]int{}
	total := 0

	for i, row := range rows {
		raw := domain.RawRow{
			Timestamp:  row[0],
			EntryCount: row[1],
			Offset:     int64(i + 1),
		}
		if len(row) > 2 {
			raw.ExcludedCount = row[2]
			raw.HasExcluded = true
		}
		if len(row) > 3 {
			raw.Location = row[3]
		}
		if len(row) > 4 {
			raw.VehicleClass = row[4]
		}

		rec, err := domain.Normalize(raw, "")
		if err != nil {
			skipped[domain.ReasonOf(err)]++
			continue
		}
		def, ok := resolver.Resolve(rec.Location)
		if !ok {
			skipped[domain.RejectUnknownLocation]++
			continue
		}
		perEntryPoint[def.Name] += rec.EntryCount
		total++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Data rows: %d\n", len(rows))
	fmt.Printf("Loadable rows: %d\n", total)
	fmt.Printf("Skipped: unparseable_timestamp=%d invalid_entry_count=%d empty_location=%d unknown_location=%d\n",
		skipped[domain.RejectBadTimestamp], skipped[domain.RejectBadEntryCount],
		skipped[domain.RejectEmptyLocation], skipped[domain.RejectUnknownLocation])

	fmt.Println("\nEntries by entry point:")
	for _, def := range domain.DefaultAliasTable() {
		fmt.Printf("  %s: %d\n", def.Name, perEntryPoint[def.Name])
	}
}
