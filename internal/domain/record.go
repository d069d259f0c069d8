package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// RawRow is a typed snapshot of one CSV row before normalization. Every
// field holds the raw column text; optional columns carry a presence flag
// so absence and emptiness stay distinguishable.
type RawRow struct {
	Timestamp     string // "Toll 10 Minute Block"
	EntryCount    string // "CRZ Entries"
	ExcludedCount string // "Excluded Roadway Entries", optional
	HasExcluded   bool
	Location      string // "Detection Region"
	VehicleClass  string // "Vehicle Class"
	TimePeriod    string // "Time Period", optional
	Offset        int64  // 1-based data row number in the source file
}

// Record is a normalized row. Calendar fields are derived from Timestamp
// and always consistent with it.
type Record struct {
	Timestamp     time.Time
	Date          time.Time // midnight on the timestamp's calendar date
	HourOfDay     int       // 0-23
	DayOfWeek     string    // "Monday" .. "Sunday"
	EntryCount    int
	ExcludedCount int
	Location      string // trimmed detection region label
	VehicleClass  string // trimmed class label
	TimePeriod    string
	Offset        int64
}

// RejectReason classifies why a row failed normalization or resolution.
// Reasons are stable strings used as metric labels and report keys.
type RejectReason string

const (
	RejectBadTimestamp        RejectReason = "unparseable_timestamp"
	RejectBadEntryCount       RejectReason = "invalid_entry_count"
	RejectEmptyLocation       RejectReason = "empty_location"
	RejectUnknownLocation     RejectReason = "unknown_location"
	RejectUnknownVehicleClass RejectReason = "unknown_vehicle_class"
)

// RejectError marks a row-level failure. Rows carrying it are skipped and
// counted, never fatal to the run.
type RejectError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// ReasonOf extracts the rejection reason from an error, or "" if the error
// is not a row-level rejection.
func ReasonOf(err error) RejectReason {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}

// SourceKey produces a deterministic ID for a fact row from its source
// coordinates. Deterministic keys back the fact table's unique column, so
// replaying the same file is a no-op (ON CONFLICT DO NOTHING).
func SourceKey(ts time.Time, location, vehicleClass string, offset int64) string {
	input := fmt.Sprintf("%s|%s|%s|%d", ts.UTC().Format(time.RFC3339), location, vehicleClass, offset)
	hash := sha256.Sum256([]byte(input))
	return "crz-" + hex.EncodeToString(hash[:12])
}
