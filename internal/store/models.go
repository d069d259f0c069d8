package store

import "time"

// EntryPoint is a dimension row for a fixed congestion-zone crossing.
// Created once from the alias table; immutable afterwards except for the
// description.
type EntryPoint struct {
	ID          uint    `gorm:"column:id;primaryKey" json:"id"`
	Name        string  `gorm:"column:name;size:100;not null;uniqueIndex" json:"name"`
	Latitude    float64 `gorm:"column:latitude;not null" json:"latitude"`
	Longitude   float64 `gorm:"column:longitude;not null" json:"longitude"`
	Description string  `gorm:"column:description" json:"description"`
}

func (EntryPoint) TableName() string { return "entry_points" }

// VehicleClass is a dimension row for a vehicle category discovered from
// the input data.
type VehicleClass struct {
	ID          uint   `gorm:"column:id;primaryKey" json:"id"`
	Name        string `gorm:"column:name;size:100;not null;uniqueIndex" json:"name"`
	Description string `gorm:"column:description" json:"description"`
}

func (VehicleClass) TableName() string { return "vehicle_classes" }

// CongestionEntry is one fact row: vehicle entries for a ten-minute toll
// block at one entry point for one vehicle class. Rows are immutable once
// written; the source key makes reloading the same file a no-op.
// HourOfDay and DayOfWeek are denormalized from the timestamp so hour
// filters stay portable across storage engines.
type CongestionEntry struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Timestamp      time.Time `gorm:"column:timestamp;not null;index" json:"timestamp"`
	HourOfDay      int       `gorm:"column:hour_of_day;not null;index" json:"hour_of_day"`
	DayOfWeek      string    `gorm:"column:day_of_week;size:10" json:"day_of_week"`
	EntryPointID   uint      `gorm:"column:entry_point_id;not null;index" json:"entry_point_id"`
	VehicleClassID uint      `gorm:"column:vehicle_class_id;not null;index" json:"vehicle_class_id"`
	EntryCount     int       `gorm:"column:entry_count;not null" json:"entry_count"`
	ExcludedCount  int       `gorm:"column:excluded_count;default:0" json:"excluded_count"`
	TimePeriod     string    `gorm:"column:time_period;size:20" json:"time_period"`
	SourceKey      string    `gorm:"column:source_key;size:64;not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (CongestionEntry) TableName() string { return "congestion_entries" }

// DailyAggregate is a precomputed per-day rollup, fully derived from the
// fact table and regenerated wholesale by the aggregator.
type DailyAggregate struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Date           time.Time `gorm:"column:date;not null;index;uniqueIndex:idx_daily_unique" json:"date"`
	EntryPointID   uint      `gorm:"column:entry_point_id;not null;uniqueIndex:idx_daily_unique" json:"entry_point_id"`
	VehicleClassID uint      `gorm:"column:vehicle_class_id;not null;uniqueIndex:idx_daily_unique" json:"vehicle_class_id"`
	TotalEntries   int       `gorm:"column:total_entries;not null" json:"total_entries"`
	PeakHour       int       `gorm:"column:peak_hour" json:"peak_hour"`
	PeakHourCount  int       `gorm:"column:peak_hour_count" json:"peak_hour_count"`
}

func (DailyAggregate) TableName() string { return "daily_aggregates" }
