// Package pipeline orchestrates the CSV-to-warehouse load as a staged run:
// scan the source, upsert reference data, normalize and insert fact rows in
// batches, then recompute the daily aggregates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/crzdata/congestion-etl/internal/domain"
	"github.com/crzdata/congestion-etl/internal/observability"
	"github.com/crzdata/congestion-etl/internal/store"
)

// Stage identifies where a run currently is, or where it ended.
type Stage string

const (
	StageStart       Stage = "START"
	StageLoadRaw     Stage = "LOAD_RAW"
	StageNormalize   Stage = "NORMALIZE"
	StageResolveRefs Stage = "RESOLVE_REFS"
	StageBatchInsert Stage = "BATCH_INSERT"
	StageAggregate   Stage = "AGGREGATE"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// Source streams raw rows out of the input file. DistinctVehicleClasses
// validates the header and prescans class labels before any row is loaded.
type Source interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRow, error)
	DistinctVehicleClasses() ([]string, error)
}

// ReferenceStore upserts reference rows and exposes their ID snapshots.
type ReferenceStore interface {
	EnsureEntryPoints(ctx context.Context, defs []domain.EntryPointDef) error
	EnsureVehicleClasses(ctx context.Context, names []string) error
	EntryPointIDs(ctx context.Context) (map[string]uint, error)
	VehicleClassIDs(ctx context.Context) (map[string]uint, error)
}

// FactStore writes fact batches and streams them back for aggregation.
type FactStore interface {
	InsertEntries(ctx context.Context, entries []store.CongestionEntry) (int, error)
	ScanEntries(ctx context.Context, batchSize int, fn func([]store.CongestionEntry) error) error
}

// AggregateStore atomically swaps in a freshly computed aggregate set.
type AggregateStore interface {
	ReplaceDailyAggregates(ctx context.Context, totals []domain.DailyTotal) error
}

// Settings are the per-run knobs.
type Settings struct {
	BatchSize       int
	FailFast        bool
	TimestampLayout string // empty means the source's native layout
}

// Report summarizes one run. Counters follow the conservation rule
// RowsRead = RowsNormalized + sum(RowsSkipped), and
// RowsNormalized = RowsCommitted + RowsDuplicate + RowsFailed.
type Report struct {
	Stage             Stage                       `json:"stage"`
	RowsRead          int                         `json:"rows_read"`
	RowsNormalized    int                         `json:"rows_normalized"`
	RowsCommitted     int                         `json:"rows_committed"`
	RowsDuplicate     int                         `json:"rows_duplicate"`
	RowsFailed        int                         `json:"rows_failed"` // rows lost to rolled-back batches
	RowsSkipped       map[domain.RejectReason]int `json:"rows_skipped"`
	BatchesFailed     int                         `json:"batches_failed"`
	AggregatesWritten int                         `json:"aggregates_written"`
	Duration          time.Duration               `json:"duration_ns"`
}

// Pipeline runs the staged load against a source file and the warehouse.
type Pipeline struct {
	source   Source
	refs     ReferenceStore
	facts    FactStore
	aggs     AggregateStore
	resolver *domain.Resolver
	logger   *slog.Logger
	metrics  *observability.Metrics
	settings Settings
	ready    atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(src Source, refs ReferenceStore, facts FactStore, aggs AggregateStore, resolver *domain.Resolver, logger *slog.Logger, metrics *observability.Metrics, settings Settings) *Pipeline {
	return &Pipeline{
		source:   src,
		refs:     refs,
		facts:    facts,
		aggs:     aggs,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		settings: settings,
	}
}

// CheckReadiness returns nil once the reference snapshot is in place and the
// warehouse can serve lookups, or an error describing why it cannot yet.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("reference data has not been loaded yet")
	}
	return nil
}

// Run executes the full load. The returned Report is always populated;
// a non-nil error means the run ended in the FAILED stage and the
// warehouse may hold a partial load (safe to re-run: committed rows are
// keyed and will not duplicate).
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := domain.Now()
	report := &Report{
		Stage:       StageStart,
		RowsSkipped: make(map[domain.RejectReason]int),
	}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer func() { report.Duration = domain.Now().Sub(start) }()

	p.logger.Info("pipeline started", "batch_size", p.settings.BatchSize, "fail_fast", p.settings.FailFast)

	if err := p.run(ctx, report); err != nil {
		p.logger.Error("pipeline failed", "stage", report.Stage, "error", err)
		report.Stage = StageFailed
		return report, err
	}

	report.Stage = StageDone
	p.logger.Info("pipeline finished",
		"rows_read", report.RowsRead,
		"rows_committed", report.RowsCommitted,
		"rows_duplicate", report.RowsDuplicate,
		"rows_skipped", skippedTotal(report.RowsSkipped),
		"batches_failed", report.BatchesFailed,
		"aggregates_written", report.AggregatesWritten,
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	// LOAD_RAW validates the header and prescans the class labels, so the
	// reference snapshot below covers every class the file mentions.
	report.Stage = StageLoadRaw
	classes, err := p.source.DistinctVehicleClasses()
	if err != nil {
		return fmt.Errorf("scan source file: %w", err)
	}

	report.Stage = StageResolveRefs
	epIDs, vcIDs, err := p.loadReferences(ctx, classes)
	if err != nil {
		return err
	}
	p.ready.Store(true)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raws, err := p.source.ExtractBatch(ctx, p.settings.BatchSize)
		if err != nil {
			return fmt.Errorf("extract batch: %w", err)
		}
		if len(raws) == 0 {
			break
		}

		report.Stage = StageNormalize
		report.RowsRead += len(raws)
		p.metrics.RowsRead.Add(float64(len(raws)))

		rows := p.normalizeBatch(raws, epIDs, vcIDs, report)
		if len(rows) == 0 {
			continue
		}

		report.Stage = StageBatchInsert
		if err := p.insertBatch(ctx, rows, report); err != nil {
			return err
		}
	}

	report.Stage = StageAggregate
	return p.aggregate(ctx, report)
}

// loadReferences upserts entry points and vehicle classes, then snapshots
// their IDs. Rows are resolved against this point-in-time snapshot for the
// whole run.
func (p *Pipeline) loadReferences(ctx context.Context, classes []string) (map[string]uint, map[string]uint, error) {
	if err := p.refs.EnsureEntryPoints(ctx, p.resolver.EntryPoints()); err != nil {
		return nil, nil, fmt.Errorf("upsert entry points: %w", err)
	}
	if err := p.refs.EnsureVehicleClasses(ctx, classes); err != nil {
		return nil, nil, fmt.Errorf("upsert vehicle classes: %w", err)
	}

	epIDs, err := p.refs.EntryPointIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot entry points: %w", err)
	}
	vcIDs, err := p.refs.VehicleClassIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot vehicle classes: %w", err)
	}

	p.logger.Info("reference data loaded", "entry_points", len(epIDs), "vehicle_classes", len(vcIDs))
	return epIDs, vcIDs, nil
}

// normalizeBatch converts raw rows to fact rows, skipping and counting
// rejects. A skipped row never stops the run.
func (p *Pipeline) normalizeBatch(raws []domain.RawRow, epIDs, vcIDs map[string]uint, report *Report) []store.CongestionEntry {
	rows := make([]store.CongestionEntry, 0, len(raws))
	for _, raw := range raws {
		rec, err := domain.Normalize(raw, p.settings.TimestampLayout)
		if err != nil {
			p.skipRow(report, raw.Offset, err)
			continue
		}

		def, ok := p.resolver.Resolve(rec.Location)
		if !ok {
			p.skipRow(report, raw.Offset, &domain.RejectError{Reason: domain.RejectUnknownLocation, Detail: rec.Location})
			continue
		}
		epID, ok := epIDs[def.Name]
		if !ok {
			p.skipRow(report, raw.Offset, &domain.RejectError{Reason: domain.RejectUnknownLocation, Detail: def.Name})
			continue
		}
		vcID, ok := vcIDs[rec.VehicleClass]
		if !ok {
			p.skipRow(report, raw.Offset, &domain.RejectError{Reason: domain.RejectUnknownVehicleClass, Detail: rec.VehicleClass})
			continue
		}

		rows = append(rows, store.CongestionEntry{
			Timestamp:      rec.Timestamp,
			HourOfDay:      rec.HourOfDay,
			DayOfWeek:      rec.DayOfWeek,
			EntryPointID:   epID,
			VehicleClassID: vcID,
			EntryCount:     rec.EntryCount,
			ExcludedCount:  rec.ExcludedCount,
			TimePeriod:     rec.TimePeriod,
			SourceKey:      domain.SourceKey(rec.Timestamp, rec.Location, rec.VehicleClass, rec.Offset),
		})
	}

	report.RowsNormalized += len(rows)
	p.metrics.RowsNormalized.Add(float64(len(rows)))
	return rows
}

func (p *Pipeline) skipRow(report *Report, offset int64, err error) {
	reason := domain.ReasonOf(err)
	report.RowsSkipped[reason]++
	p.metrics.RowsSkipped.WithLabelValues(string(reason)).Inc()
	p.logger.Warn("skipping row", "row", offset, "error", err)
}

// insertBatch writes one batch in a single transaction. A failed batch is
// counted and logged; it aborts the run only when fail-fast is set.
func (p *Pipeline) insertBatch(ctx context.Context, rows []store.CongestionEntry, report *Report) error {
	start := time.Now()

	inserted, err := p.facts.InsertEntries(ctx, rows)
	if err != nil {
		report.BatchesFailed++
		report.RowsFailed += len(rows)
		p.metrics.BatchesFailed.Inc()
		if p.settings.FailFast {
			return fmt.Errorf("insert batch: %w", err)
		}
		p.logger.Error("batch insert failed, continuing", "rows", len(rows), "error", err)
		return nil
	}

	duplicates := len(rows) - inserted
	report.RowsCommitted += inserted
	report.RowsDuplicate += duplicates
	p.metrics.RowsCommitted.Add(float64(inserted))
	p.metrics.RowsDuplicate.Add(float64(duplicates))
	p.metrics.BatchSize.Observe(float64(len(rows)))
	p.metrics.BatchCommitDuration.Observe(time.Since(start).Seconds())
	return nil
}

// aggregate recomputes the daily rollups from the full fact table and swaps
// them in atomically. It always runs over everything the warehouse holds,
// not just this run's rows, so reruns converge on the same aggregates.
func (p *Pipeline) aggregate(ctx context.Context, report *Report) error {
	start := time.Now()

	acc := domain.NewAccumulator()
	err := p.facts.ScanEntries(ctx, p.settings.BatchSize, func(entries []store.CongestionEntry) error {
		for _, e := range entries {
			acc.Add(e.Timestamp, e.HourOfDay, e.EntryPointID, e.VehicleClassID, e.EntryCount)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan facts for aggregation: %w", err)
	}

	totals := acc.Totals()
	if err := p.aggs.ReplaceDailyAggregates(ctx, totals); err != nil {
		return fmt.Errorf("replace daily aggregates: %w", err)
	}

	report.AggregatesWritten = len(totals)
	p.metrics.AggregatesWritten.Set(float64(len(totals)))
	p.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	return nil
}

func skippedTotal(skipped map[domain.RejectReason]int) int {
	total := 0
	for _, n := range skipped {
		total += n
	}
	return total
}
