package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected Week
	}{
		{
			name:     "first week holds January 1st",
			date:     time.Date(2020, time.January, 1, 10, 0, 0, 0, time.UTC),
			expected: Week{Number: 1, Year: 2020},
		},
		{
			name:     "late December Sunday belongs to the next year",
			date:     time.Date(2019, time.December, 29, 8, 0, 0, 0, time.UTC),
			expected: Week{Number: 1, Year: 2020},
		},
		{
			name:     "Sunday starts a new week",
			date:     time.Date(2020, time.April, 5, 8, 0, 0, 0, time.UTC),
			expected: Week{Number: 15, Year: 2020},
		},
		{
			name:     "Saturday closes the week",
			date:     time.Date(2020, time.April, 11, 23, 0, 0, 0, time.UTC),
			expected: Week{Number: 15, Year: 2020},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeekOf(tt.date))
		})
	}
}

func TestWeekCurrent(t *testing.T) {
	now := Week{Number: 15, Year: 2020}
	assert.True(t, Week{Number: 15, Year: 2020}.Current(now))
	assert.False(t, Week{Number: 14, Year: 2020}.Current(now))
	assert.False(t, Week{Number: 52, Year: 2019}.Current(now))
}

func TestSlotOf(t *testing.T) {
	tests := []struct {
		date     time.Time
		expected int
	}{
		{time.Date(2020, time.April, 5, 8, 0, 0, 0, time.UTC), 0},
		{time.Date(2020, time.April, 5, 18, 0, 0, 0, time.UTC), 0},
		{time.Date(2020, time.April, 6, 9, 0, 0, 0, time.UTC), 2},
		{time.Date(2020, time.April, 6, 12, 0, 0, 0, time.UTC), 3},
		{time.Date(2020, time.April, 11, 21, 0, 0, 0, time.UTC), 13},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(time.RFC3339), func(t *testing.T) {
			assert.Equal(t, tt.expected, SlotOf(tt.date))
		})
	}
}

func TestParseDayAndHalf(t *testing.T) {
	day, err := ParseDay("wed")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, day)

	day, err = ParseDay(" Thursday ")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, day)

	_, err = ParseDay("someday")
	assert.Error(t, err)

	half, err := ParseHalf("pm")
	require.NoError(t, err)
	assert.Equal(t, PM, half)

	_, err = ParseHalf("noon")
	assert.Error(t, err)

	assert.Equal(t, 7, SlotFor(time.Wednesday, PM))
	assert.Equal(t, 0, SlotFor(time.Sunday, PM))
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "Sun", SlotLabel(1))
	assert.Equal(t, "Mon AM", SlotLabel(2))
	assert.Equal(t, "Wed PM", SlotLabel(7))
	assert.Equal(t, "Sat PM", SlotLabel(13))
}
