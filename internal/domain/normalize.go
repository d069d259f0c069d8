package domain

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTimestampLayout matches the current MTA CRZ export, e.g.
// "03/29/2025 08:10:00 AM".
const DefaultTimestampLayout = "01/02/2006 03:04:05 PM"

// isoTimestampLayout matches older extracts with minute-resolution ISO-style
// toll blocks, e.g. "2025-03-29 08:10".
const isoTimestampLayout = "2006-01-02 15:04"

// Normalize validates a raw row and derives its calendar fields. The layout
// argument is the primary timestamp layout; pass "" for
// [DefaultTimestampLayout]. The ISO-style layout is always tried as a
// fallback.
//
// Failures return a *RejectError; callers skip and count, they do not abort.
// The excluded count never rejects: absent or unparseable values become 0.
func Normalize(raw RawRow, layout string) (Record, error) {
	if layout == "" {
		layout = DefaultTimestampLayout
	}

	ts, err := parseTimestamp(raw.Timestamp, layout)
	if err != nil {
		return Record{}, &RejectError{Reason: RejectBadTimestamp, Detail: strings.TrimSpace(raw.Timestamp)}
	}

	entries, ok := parseCount(raw.EntryCount)
	if !ok {
		return Record{}, &RejectError{Reason: RejectBadEntryCount, Detail: strings.TrimSpace(raw.EntryCount)}
	}

	excluded := 0
	if raw.HasExcluded {
		if v, ok := parseCount(raw.ExcludedCount); ok {
			excluded = v
		}
	}

	location := strings.TrimSpace(raw.Location)
	if location == "" {
		return Record{}, &RejectError{Reason: RejectEmptyLocation}
	}

	return Record{
		Timestamp:     ts,
		Date:          time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location()),
		HourOfDay:     ts.Hour(),
		DayOfWeek:     ts.Weekday().String(),
		EntryCount:    entries,
		ExcludedCount: excluded,
		Location:      location,
		VehicleClass:  strings.TrimSpace(raw.VehicleClass),
		TimePeriod:    strings.TrimSpace(raw.TimePeriod),
		Offset:        raw.Offset,
	}, nil
}

func parseTimestamp(value, layout string) (time.Time, error) {
	value = strings.TrimSpace(value)
	ts, err := time.Parse(layout, value)
	if err != nil {
		ts, err = time.Parse(isoTimestampLayout, value)
	}
	return ts, err
}

// parseCount parses a non-negative integer count. The export sometimes
// renders counts as floats ("150.0"); those are truncated toward zero.
func parseCount(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}
