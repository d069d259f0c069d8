package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crzdata/congestion-etl/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A single connection keeps every statement on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := New(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedDimensions(t *testing.T, s *Store) (map[string]uint, map[string]uint) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.EnsureEntryPoints(ctx, domain.DefaultAliasTable()))
	require.NoError(t, s.EnsureVehicleClasses(ctx, []string{"Cars", "Trucks"}))

	eps, err := s.EntryPointIDs(ctx)
	require.NoError(t, err)
	vcs, err := s.VehicleClassIDs(ctx)
	require.NoError(t, err)
	return eps, vcs
}

func makeEntry(ts time.Time, epID, vcID uint, count int, offset int64) CongestionEntry {
	return CongestionEntry{
		Timestamp:      ts,
		HourOfDay:      ts.Hour(),
		DayOfWeek:      ts.Weekday().String(),
		EntryPointID:   epID,
		VehicleClassID: vcID,
		EntryCount:     count,
		SourceKey:      domain.SourceKey(ts, "ep", "vc", offset),
	}
}

func TestEnsureDimensions_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureEntryPoints(ctx, domain.DefaultAliasTable()))
	require.NoError(t, s.EnsureEntryPoints(ctx, domain.DefaultAliasTable()))

	eps, err := s.ListEntryPoints(ctx)
	require.NoError(t, err)
	assert.Len(t, eps, len(domain.DefaultAliasTable()))

	require.NoError(t, s.EnsureVehicleClasses(ctx, []string{"Cars", "Trucks", ""}))
	require.NoError(t, s.EnsureVehicleClasses(ctx, []string{"Cars", "Trucks"}))

	vcs, err := s.ListVehicleClasses(ctx)
	require.NoError(t, err)
	assert.Len(t, vcs, 2)
}

func TestEnsureVehicleClasses_KeepsExistingRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureVehicleClasses(ctx, []string{"Cars"}))
	before, err := s.VehicleClassIDs(ctx)
	require.NoError(t, err)

	require.NoError(t, s.EnsureVehicleClasses(ctx, []string{"Cars", "Motorcycles"}))
	after, err := s.VehicleClassIDs(ctx)
	require.NoError(t, err)

	assert.Equal(t, before["Cars"], after["Cars"])
	assert.Contains(t, after, "Motorcycles")
}

func TestInsertEntries_SkipsDuplicateSourceKeys(t *testing.T) {
	s := newTestStore(t)
	eps, vcs := seedDimensions(t, s)
	ctx := context.Background()
	ts := time.Date(2025, 3, 29, 8, 10, 0, 0, time.UTC)

	batch := []CongestionEntry{
		makeEntry(ts, eps["Lincoln Tunnel"], vcs["Cars"], 100, 1),
		makeEntry(ts, eps["Holland Tunnel"], vcs["Cars"], 50, 2),
	}
	inserted, err := s.InsertEntries(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Re-running the loader over the same rows is a no-op.
	rerun := []CongestionEntry{
		makeEntry(ts, eps["Lincoln Tunnel"], vcs["Cars"], 100, 1),
		makeEntry(ts, eps["Holland Tunnel"], vcs["Cars"], 50, 2),
	}
	inserted, err = s.InsertEntries(ctx, rerun)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	var count int64
	require.NoError(t, s.db.Model(&CongestionEntry{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestQueryEntries_Filters(t *testing.T) {
	s := newTestStore(t)
	eps, vcs := seedDimensions(t, s)
	ctx := context.Background()

	day1 := time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	entries := []CongestionEntry{
		makeEntry(day1.Add(8*time.Hour), eps["Lincoln Tunnel"], vcs["Cars"], 100, 1),
		makeEntry(day1.Add(17*time.Hour), eps["Lincoln Tunnel"], vcs["Trucks"], 40, 2),
		makeEntry(day2.Add(9*time.Hour), eps["Holland Tunnel"], vcs["Cars"], 60, 3),
	}
	entries[1].TimePeriod = "Peak"
	_, err := s.InsertEntries(ctx, entries)
	require.NoError(t, err)

	t.Run("date range inclusive of end date", func(t *testing.T) {
		rows, total, err := s.QueryEntries(ctx, EntryFilter{StartDate: &day1, EndDate: &day1})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, rows, 2)
	})

	t.Run("hour range", func(t *testing.T) {
		start, end := 8, 9
		rows, total, err := s.QueryEntries(ctx, EntryFilter{StartHour: &start, EndHour: &end})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, row := range rows {
			assert.GreaterOrEqual(t, row.HourOfDay, 8)
			assert.LessOrEqual(t, row.HourOfDay, 9)
		}
	})

	t.Run("entry point and vehicle class sets", func(t *testing.T) {
		_, total, err := s.QueryEntries(ctx, EntryFilter{
			EntryPointIDs:   []uint{eps["Lincoln Tunnel"]},
			VehicleClassIDs: []uint{vcs["Cars"]},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("time period", func(t *testing.T) {
		rows, total, err := s.QueryEntries(ctx, EntryFilter{TimePeriod: "Peak"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, 40, rows[0].EntryCount)
	})

	t.Run("pagination ordered by timestamp", func(t *testing.T) {
		page1, total, err := s.QueryEntries(ctx, EntryFilter{Limit: 2, Page: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, page1, 2)

		page2, _, err := s.QueryEntries(ctx, EntryFilter{Limit: 2, Page: 2})
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.True(t, page1[1].Timestamp.Before(page2[0].Timestamp))
	})
}

func TestReplaceDailyAggregates_FullReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	first := []domain.DailyTotal{
		{Date: day1, EntryPointID: 1, VehicleClassID: 1, TotalEntries: 150, PeakHour: 8, PeakHourCount: 100},
		{Date: day1, EntryPointID: 2, VehicleClassID: 1, TotalEntries: 60, PeakHour: 9, PeakHourCount: 60},
	}
	require.NoError(t, s.ReplaceDailyAggregates(ctx, first))

	second := []domain.DailyTotal{
		{Date: day2, EntryPointID: 1, VehicleClassID: 1, TotalEntries: 75, PeakHour: 17, PeakHourCount: 40},
	}
	require.NoError(t, s.ReplaceDailyAggregates(ctx, second))

	rows, err := s.QueryDailyAggregates(ctx, AggregateFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 75, rows[0].TotalEntries)
	assert.Equal(t, 17, rows[0].PeakHour)
}

func TestQueryDailyAggregates_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day1 := time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	require.NoError(t, s.ReplaceDailyAggregates(ctx, []domain.DailyTotal{
		{Date: day1, EntryPointID: 1, VehicleClassID: 1, TotalEntries: 10},
		{Date: day2, EntryPointID: 1, VehicleClassID: 2, TotalEntries: 20},
		{Date: day2, EntryPointID: 2, VehicleClassID: 1, TotalEntries: 30},
	}))

	rows, err := s.QueryDailyAggregates(ctx, AggregateFilter{StartDate: &day2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.QueryDailyAggregates(ctx, AggregateFilter{
		EntryPointIDs:   []uint{1},
		VehicleClassIDs: []uint{2},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 20, rows[0].TotalEntries)
}

func TestScanEntries_VisitsAllRowsInBatches(t *testing.T) {
	s := newTestStore(t)
	eps, vcs := seedDimensions(t, s)
	ctx := context.Background()
	base := time.Date(2025, 3, 29, 8, 0, 0, 0, time.UTC)

	var batch []CongestionEntry
	for i := 0; i < 5; i++ {
		batch = append(batch, makeEntry(base.Add(time.Duration(i)*10*time.Minute), eps["Lincoln Tunnel"], vcs["Cars"], 10, int64(i)))
	}
	_, err := s.InsertEntries(ctx, batch)
	require.NoError(t, err)

	var seen, calls int
	err = s.ScanEntries(ctx, 2, func(entries []CongestionEntry) error {
		calls++
		seen += len(entries)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, calls)
}

func TestLatestEntryDate(t *testing.T) {
	s := newTestStore(t)
	eps, vcs := seedDimensions(t, s)
	ctx := context.Background()

	_, ok, err := s.LatestEntryDate(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Date(2025, 3, 29, 23, 50, 0, 0, time.UTC)
	_, err = s.InsertEntries(ctx, []CongestionEntry{makeEntry(ts, eps["Lincoln Tunnel"], vcs["Cars"], 1, 1)})
	require.NoError(t, err)

	date, ok, err := s.LatestEntryDate(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC), date)
}
