package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCause(t *testing.T) {
	tests := []struct {
		in, primary, secondary string
	}{
		{"WX_VIS: fog over threshold", "WX", "VIS"},
		{"ATC_SEP", "ATC", "SEP"},
		{"TECH", "TECH", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		p, s := SplitCause(tt.in)
		assert.Equal(t, tt.primary, p, tt.in)
		assert.Equal(t, tt.secondary, s, tt.in)
	}
}

func TestFilterGoArounds(t *testing.T) {
	day := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	records := []GoAroundRecord{
		{Callsign: "IBE123", Time: day.Add(8 * time.Hour), Runway: "32L", Cause: "WX_VIS: fog"},
		{Callsign: "VLG45", Time: day.Add(9 * time.Hour), Runway: "RWY32L", Cause: "ATC_SEP"},
		{Callsign: "RYR9", Time: day.Add(9 * time.Hour), Runway: "32R", Cause: "WX_WIND"},
		{Callsign: "AEA1", Time: day.AddDate(0, 0, 2), Runway: "32L", Cause: "WX_WIND"},
	}

	out := FilterGoArounds(records, "32L", day, day.AddDate(0, 0, 1))
	require.Len(t, out, 2)
	assert.Equal(t, "WX", out[0].PrimaryCause)
	assert.Equal(t, "VIS", out[0].SecondaryCause)
	assert.Equal(t, "SEP", out[1].SecondaryCause)
}
