package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	def := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := parseTime("", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = parseTime("2024-06-01", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTime("2024-06-01T12:30:00Z", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), got)

	_, err = parseTime("last week", def)
	assert.Error(t, err)
}
