package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthOf(t *testing.T) {
	in := time.Date(2024, 3, 17, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), MonthOf(in))
}

func TestNextMonthRollsYear(t *testing.T) {
	dec := time.Date(2024, 12, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), NextMonth(dec))
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseMonth("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseMonth("March 2024")
	require.Error(t, err)
}
