package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/property-booking/internal/booking"
)

func TestParseDay(t *testing.T) {
	d, err := booking.ParseDay("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = booking.ParseDay("2024-06-01T17:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = booking.ParseDay("2024-06-01T23:00:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d)

	_, err = booking.ParseDay("01/06/2024")
	assert.ErrorIs(t, err, booking.ErrValidation)
}

func TestDateRange(t *testing.T) {
	r := booking.NewDateRange(time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC), time.Date(2024, 6, 4, 11, 0, 0, 0, time.UTC))
	assert.Equal(t, 3, r.Nights())
	assert.True(t, r.Contains(day("2024-06-01")))
	assert.True(t, r.Contains(day("2024-06-03")))
	assert.False(t, r.Contains(day("2024-06-04")))
	assert.NoError(t, r.Validate())
	assert.ErrorIs(t, booking.NewDateRange(day("2024-06-04"), day("2024-06-04")).Validate(), booking.ErrInvalidRange)
}
