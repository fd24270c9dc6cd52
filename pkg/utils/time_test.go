package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	assert.WithinDuration(t, time.Now().UTC(), Now(), 10*time.Millisecond)
	assert.Equal(t, time.UTC, Now().Location())
}

func TestFormatISO8601(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*60*60)
	ts := time.Date(2025, 3, 1, 17, 30, 0, 0, loc)

	assert.Equal(t, "2025-03-01T10:30:00Z", FormatISO8601(ts))
}

func TestLoadLocationOrUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocationOrUTC(""))
	assert.Equal(t, time.UTC, LoadLocationOrUTC("Mars/Olympus_Mons"))
	assert.Equal(t, "America/New_York", LoadLocationOrUTC("America/New_York").String())
}
