package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// HeatmapSample is one coordinate with its summed entry count for a time
// interval.
type HeatmapSample struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	EntryCount int     `json:"entry_count"`
}

// Heatmap is the time-animated projection consumed by the dashboard map:
// one frame of coordinate samples per interval, with the sorted interval
// boundaries alongside.
type Heatmap struct {
	Date      time.Time         `json:"date"`
	Intervals []time.Time       `json:"intervals"`
	Frames    [][]HeatmapSample `json:"frames"`
}

type heatmapRow struct {
	Timestamp  time.Time
	Latitude   float64
	Longitude  float64
	EntryCount int
}

// Heatmap buckets one day of fact rows by truncated interval and sums
// entries per coordinate. Bucketing happens in Go so the projection works
// on any engine gorm can open. Interval must evenly divide an hour
// (1h, 30m, 15m, ...).
func (s *Store) Heatmap(ctx context.Context, date time.Time, interval time.Duration) (Heatmap, error) {
	if interval <= 0 || interval > time.Hour || time.Hour%interval != 0 {
		return Heatmap{}, fmt.Errorf("invalid heatmap interval %s", interval)
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var rows []heatmapRow
	err := s.db.WithContext(ctx).
		Model(&CongestionEntry{}).
		Select("congestion_entries.timestamp, entry_points.latitude, entry_points.longitude, congestion_entries.entry_count").
		Joins("JOIN entry_points ON entry_points.id = congestion_entries.entry_point_id").
		Where("congestion_entries.timestamp >= ? AND congestion_entries.timestamp < ?", start, end).
		Scan(&rows).Error
	if err != nil {
		return Heatmap{}, err
	}

	type coord struct{ lat, lon float64 }
	buckets := make(map[time.Time]map[coord]int)
	for _, row := range rows {
		bucket := row.Timestamp.UTC().Truncate(interval)
		if buckets[bucket] == nil {
			buckets[bucket] = make(map[coord]int)
		}
		buckets[bucket][coord{row.Latitude, row.Longitude}] += row.EntryCount
	}

	intervals := make([]time.Time, 0, len(buckets))
	for bucket := range buckets {
		intervals = append(intervals, bucket)
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Before(intervals[j]) })

	frames := make([][]HeatmapSample, len(intervals))
	for i, bucket := range intervals {
		samples := make([]HeatmapSample, 0, len(buckets[bucket]))
		for c, count := range buckets[bucket] {
			samples = append(samples, HeatmapSample{Latitude: c.lat, Longitude: c.lon, EntryCount: count})
		}
		sort.Slice(samples, func(a, b int) bool {
			if samples[a].Latitude != samples[b].Latitude {
				return samples[a].Latitude < samples[b].Latitude
			}
			return samples[a].Longitude < samples[b].Longitude
		})
		frames[i] = samples
	}

	return Heatmap{Date: start, Intervals: intervals, Frames: frames}, nil
}
