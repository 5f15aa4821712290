// api/dao/helpers_test.go
package dao

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stored timestamps are compared as strings in Cypher (expiry checks, ORDER
// BY createdAt), so their string order must match their chronological order
// regardless of the offset the caller supplied.
func TestFormatTimeNormalizesToUTC(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)

	// 09:00+05:30 is 03:30 UTC, well before 08:00 UTC. A naive RFC3339
	// rendering would sort "09:00:00+05:30" after "08:00:00Z".
	earlier := time.Date(2026, 3, 1, 9, 0, 0, 0, kolkata)
	later := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.True(t, earlier.Before(later))

	assert.Less(t, formatTime(earlier), formatTime(later))
	assert.Equal(t, "2026-03-01T03:30:00Z", formatTime(earlier))
}

func TestFormatNullableTime(t *testing.T) {
	assert.Nil(t, formatNullableTime(nil))

	offset := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "2026-03-01T03:30:00Z", formatNullableTime(&offset))
}

func TestParseTimeRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC)
	parsed := parseTime(formatTime(now))
	assert.True(t, parsed.Equal(now))

	assert.True(t, parseTime(nil).IsZero())
	assert.True(t, parseTime("not a timestamp").IsZero())
}
