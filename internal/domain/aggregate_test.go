package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggDate = time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)

func TestAccumulator_TotalAndPeakHour(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(aggDate, 8, 1, 1, 100)
	acc.Add(aggDate, 9, 1, 1, 50)

	totals := acc.Totals()
	require.Len(t, totals, 1)

	expected := DailyTotal{
		Date:           aggDate,
		EntryPointID:   1,
		VehicleClassID: 1,
		TotalEntries:   150,
		PeakHour:       8,
		PeakHourCount:  100,
	}
	if diff := cmp.Diff(expected, totals[0]); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAccumulator_PeakHourTieBreaksLow(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(aggDate, 17, 1, 1, 75)
	acc.Add(aggDate, 8, 1, 1, 75)

	totals := acc.Totals()
	require.Len(t, totals, 1)
	assert.Equal(t, 8, totals[0].PeakHour)
	assert.Equal(t, 75, totals[0].PeakHourCount)
}

func TestAccumulator_SumsWithinHour(t *testing.T) {
	// Six ten-minute blocks in the same hour sum into one hourly bucket.
	acc := NewAccumulator()
	for i := 0; i < 6; i++ {
		acc.Add(aggDate, 8, 1, 1, 10)
	}
	acc.Add(aggDate, 9, 1, 1, 55)

	totals := acc.Totals()
	require.Len(t, totals, 1)
	assert.Equal(t, 115, totals[0].TotalEntries)
	assert.Equal(t, 8, totals[0].PeakHour)
	assert.Equal(t, 60, totals[0].PeakHourCount)
}

func TestAccumulator_GroupsByKey(t *testing.T) {
	nextDay := aggDate.AddDate(0, 0, 1)

	acc := NewAccumulator()
	acc.Add(aggDate, 8, 1, 1, 10)
	acc.Add(aggDate, 8, 2, 1, 20)
	acc.Add(aggDate, 8, 1, 2, 30)
	acc.Add(nextDay, 8, 1, 1, 40)

	totals := acc.Totals()
	require.Len(t, totals, 4)
	assert.Equal(t, 4, acc.Len())

	// Ordered by date, then entry point, then vehicle class.
	assert.Equal(t, uint(1), totals[0].EntryPointID)
	assert.Equal(t, uint(1), totals[0].VehicleClassID)
	assert.Equal(t, uint(1), totals[1].EntryPointID)
	assert.Equal(t, uint(2), totals[1].VehicleClassID)
	assert.Equal(t, uint(2), totals[2].EntryPointID)
	assert.True(t, totals[3].Date.After(totals[2].Date))
	assert.Equal(t, 40, totals[3].TotalEntries)
}

func TestAccumulator_IgnoresOutOfRangeHours(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(aggDate, -1, 1, 1, 10)
	acc.Add(aggDate, 24, 1, 1, 10)
	assert.Zero(t, acc.Len())
}
