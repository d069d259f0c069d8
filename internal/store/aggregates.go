package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/crzdata/congestion-etl/internal/domain"
)

// ReplaceDailyAggregates swaps the whole aggregate table for the given
// rollups inside one transaction: readers observe either the old set or
// the new one, never a mix, and a mid-recompute failure rolls back to the
// previous set.
func (s *Store) ReplaceDailyAggregates(ctx context.Context, totals []domain.DailyTotal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&DailyAggregate{}).Error; err != nil {
			return err
		}
		if len(totals) == 0 {
			return nil
		}
		rows := make([]DailyAggregate, len(totals))
		for i, t := range totals {
			rows[i] = DailyAggregate{
				Date:           t.Date,
				EntryPointID:   t.EntryPointID,
				VehicleClassID: t.VehicleClassID,
				TotalEntries:   t.TotalEntries,
				PeakHour:       t.PeakHour,
				PeakHourCount:  t.PeakHourCount,
			}
		}
		return tx.CreateInBatches(&rows, 500).Error
	})
}

// AggregateFilter selects aggregate rows. Nil fields are not applied;
// both date bounds are inclusive.
type AggregateFilter struct {
	StartDate       *time.Time
	EndDate         *time.Time
	EntryPointIDs   []uint
	VehicleClassIDs []uint
}

// QueryDailyAggregates returns matching aggregate rows ordered by date.
// Aggregates are bounded by days, so no pagination.
func (s *Store) QueryDailyAggregates(ctx context.Context, f AggregateFilter) ([]DailyAggregate, error) {
	query := s.db.WithContext(ctx).Model(&DailyAggregate{})
	if f.StartDate != nil {
		query = query.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("date <= ?", *f.EndDate)
	}
	if len(f.EntryPointIDs) > 0 {
		query = query.Where("entry_point_id IN ?", f.EntryPointIDs)
	}
	if len(f.VehicleClassIDs) > 0 {
		query = query.Where("vehicle_class_id IN ?", f.VehicleClassIDs)
	}

	var rows []DailyAggregate
	err := query.Order("date").Find(&rows).Error
	return rows, err
}
