package database

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Turnips/internal/turnips"
	"github.com/Alias1177/Turnips/models"
)

func TestConnectionParamsDSN(t *testing.T) {
	params := ConnectionParams{
		Host: "localhost", Port: "5432", User: "nook", Password: "secret", DBName: "islands", SSLMode: "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=nook password=secret dbname=islands sslmode=disable", params.DSN())
}

func TestTurnipColumns(t *testing.T) {
	week := models.NewTurnipWeek(models.Week{Number: 15, Year: 2020})
	week.Prices = [turnips.SlotCount]int{100, 100, 86, 82}
	week.BuyPrice = 100
	week.PastPattern = turnips.Decreasing

	cols := columnsOf(week)
	assert.Equal(t, sql.NullInt16{Int16: 2, Valid: true}, cols.PastPattern)
	assert.Len(t, cols.Prices, turnips.SlotCount)

	back, err := cols.week()
	require.NoError(t, err)
	assert.Equal(t, week, back)
}

func TestTurnipColumns_Empty(t *testing.T) {
	cols := columnsOf(nil)
	assert.Nil(t, cols.Prices)

	week, err := cols.week()
	require.NoError(t, err)
	assert.Nil(t, week)
}

func TestTurnipColumns_NoBuyPrice(t *testing.T) {
	cols := columnsOf(models.NewTurnipWeek(models.Week{Number: 1, Year: 2021}))
	assert.False(t, cols.BuyPrice.Valid)

	week, err := cols.week()
	require.NoError(t, err)
	assert.Equal(t, turnips.Unknown, week.PastPattern)
	assert.Zero(t, week.BuyPrice)
}

func TestTurnipColumns_ShortAndLongArrays(t *testing.T) {
	cols := turnipColumns{
		Prices:   []int64{97, 97},
		Week:     sql.NullInt32{Int32: 3, Valid: true},
		WeekYear: sql.NullInt32{Int32: 2021, Valid: true},
	}
	week, err := cols.week()
	require.NoError(t, err)
	assert.Equal(t, 97, week.Prices[1])
	assert.Equal(t, turnips.Unknown, week.PastPattern)

	cols.Prices = make([]int64, turnips.SlotCount+1)
	_, err = cols.week()
	assert.Error(t, err)
}
