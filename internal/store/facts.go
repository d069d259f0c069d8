package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultPageSize bounds unfiltered entry queries.
	DefaultPageSize = 1000
	// MaxPageSize caps the per-page row count a caller may request.
	MaxPageSize = 10000
)

// InsertEntries writes one batch of fact rows as a single atomic unit.
// Rows whose source key already exists are skipped (ON CONFLICT DO
// NOTHING), which is what makes reruns over the same file safe. Returns
// the number of rows actually inserted.
func (s *Store) InsertEntries(ctx context.Context, entries []CongestionEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "source_key"}}, DoNothing: true}).
		Create(&entries)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// ScanEntries streams the whole fact table to fn in bounded batches.
// The aggregator uses this to recompute rollups without loading every row
// at once.
func (s *Store) ScanEntries(ctx context.Context, batchSize int, fn func(entries []CongestionEntry) error) error {
	var batch []CongestionEntry
	res := s.db.WithContext(ctx).
		Model(&CongestionEntry{}).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		})
	return res.Error
}

// LatestEntryDate returns the calendar date of the most recent fact row,
// or false if the fact table is empty.
func (s *Store) LatestEntryDate(ctx context.Context) (time.Time, bool, error) {
	var entry CongestionEntry
	err := s.db.WithContext(ctx).Order("timestamp DESC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ts := entry.Timestamp
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location()), true, nil
}

// EntryFilter selects fact rows for the dashboard query interface. Nil or
// zero fields are not applied. EndDate is inclusive of the whole day.
type EntryFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	StartHour       *int
	EndHour         *int
	EntryPointIDs   []uint
	VehicleClassIDs []uint
	TimePeriod      string
	Page            int
	Limit           int
}

// QueryEntries returns one page of fact rows ordered by timestamp, plus
// the total match count.
func (s *Store) QueryEntries(ctx context.Context, f EntryFilter) ([]CongestionEntry, int64, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	query := s.db.WithContext(ctx).Model(&CongestionEntry{})
	if f.StartDate != nil {
		query = query.Where("timestamp >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("timestamp < ?", f.EndDate.AddDate(0, 0, 1))
	}
	if f.StartHour != nil {
		query = query.Where("hour_of_day >= ?", *f.StartHour)
	}
	if f.EndHour != nil {
		query = query.Where("hour_of_day <= ?", *f.EndHour)
	}
	if len(f.EntryPointIDs) > 0 {
		query = query.Where("entry_point_id IN ?", f.EntryPointIDs)
	}
	if len(f.VehicleClassIDs) > 0 {
		query = query.Where("vehicle_class_id IN ?", f.VehicleClassIDs)
	}
	if f.TimePeriod != "" {
		query = query.Where("time_period = ?", f.TimePeriod)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []CongestionEntry
	err := query.Order("timestamp").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error
	return rows, total, err
}
