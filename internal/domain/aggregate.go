package domain

import (
	"sort"
	"time"
)

// DailyTotal is one recomputed aggregate row: total entries and the peak
// hour for a (date, entry point, vehicle class) key.
type DailyTotal struct {
	Date           time.Time
	EntryPointID   uint
	VehicleClassID uint
	TotalEntries   int
	PeakHour       int
	PeakHourCount  int
}

type groupKey struct {
	date           string
	entryPointID   uint
	vehicleClassID uint
}

type groupState struct {
	date   time.Time
	total  int
	hourly [24]int
}

// Accumulator folds fact rows into per-(date, entry point, vehicle class)
// groups with hourly sub-sums. It is the portable replacement for a
// window-function aggregate query: group first, then pick the peak hour
// within each group.
type Accumulator struct {
	groups map[groupKey]*groupState
}

func NewAccumulator() *Accumulator {
	return &Accumulator{groups: make(map[groupKey]*groupState)}
}

// Add folds one fact row into its group. Hours outside 0-23 are ignored;
// they cannot occur for rows that passed normalization.
func (a *Accumulator) Add(date time.Time, hour int, entryPointID, vehicleClassID uint, count int) {
	if hour < 0 || hour > 23 {
		return
	}
	key := groupKey{date: date.Format("2006-01-02"), entryPointID: entryPointID, vehicleClassID: vehicleClassID}
	g, ok := a.groups[key]
	if !ok {
		g = &groupState{date: time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)}
		a.groups[key] = g
	}
	g.total += count
	g.hourly[hour] += count
}

// Len returns the number of distinct groups accumulated so far.
func (a *Accumulator) Len() int {
	return len(a.groups)
}

// Totals materializes the aggregate rows, ordered by date, entry point,
// vehicle class. Peak-hour ties break toward the smaller hour.
func (a *Accumulator) Totals() []DailyTotal {
	totals := make([]DailyTotal, 0, len(a.groups))
	for key, g := range a.groups {
		peakHour, peakCount := 0, g.hourly[0]
		for h := 1; h < 24; h++ {
			if g.hourly[h] > peakCount {
				peakHour, peakCount = h, g.hourly[h]
			}
		}
		totals = append(totals, DailyTotal{
			Date:           g.date,
			EntryPointID:   key.entryPointID,
			VehicleClassID: key.vehicleClassID,
			TotalEntries:   g.total,
			PeakHour:       peakHour,
			PeakHourCount:  peakCount,
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].Date.Equal(totals[j].Date) {
			return totals[i].Date.Before(totals[j].Date)
		}
		if totals[i].EntryPointID != totals[j].EntryPointID {
			return totals[i].EntryPointID < totals[j].EntryPointID
		}
		return totals[i].VehicleClassID < totals[j].VehicleClassID
	})
	return totals
}
