package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluatedAt(times []time.Time, favored string) []EvaluatedObservation {
	out := make([]EvaluatedObservation, len(times))
	for i, ts := range times {
		out[i] = EvaluatedObservation{DerivedObservation: DerivedObservation{Time: ts, FavoredRunway: favored}}
	}
	return out
}

func TestMerge_NearestArrivalThenFavored(t *testing.T) {
	obs := evaluatedAt([]time.Time{t0, t0.Add(30 * time.Minute), t0.Add(3 * time.Hour)}, "14R")
	arrivals := []JoinedArrival{
		{ArrivalRecord: ArrivalRecord{Time: t0.Add(50 * time.Minute), RunwayKey: "LEMD-32L"}},
		{ArrivalRecord: ArrivalRecord{Time: t0.Add(-10 * time.Minute), RunwayKey: "LEMD-32R"}},
	}

	out := Merge(obs, arrivals, nil, "LEMD")
	require.Len(t, out, 3)

	assert.Equal(t, "LEMD-32R", out[0].RunwayInUse)
	assert.Equal(t, "LEMD-32L", out[1].RunwayInUse)
	assert.Equal(t, "LEMD-14R", out[2].RunwayInUse)
}

func TestMerge_TieBreaksToEarlierArrival(t *testing.T) {
	obs := evaluatedAt([]time.Time{t0}, "")
	arrivals := []JoinedArrival{
		{ArrivalRecord: ArrivalRecord{Time: t0.Add(20 * time.Minute), RunwayKey: "LEMD-32L"}},
		{ArrivalRecord: ArrivalRecord{Time: t0.Add(-20 * time.Minute), RunwayKey: "LEMD-18R"}},
	}

	out := Merge(obs, arrivals, nil, "LEMD")
	assert.Equal(t, "LEMD-18R", out[0].RunwayInUse)
}

func TestMerge_ToleranceIsInclusive(t *testing.T) {
	obs := evaluatedAt([]time.Time{t0, t0.Add(4 * time.Hour)}, "")
	arrivals := []JoinedArrival{
		{ArrivalRecord: ArrivalRecord{Time: t0.Add(NearestTolerance), RunwayKey: "LEMD-32L"}},
	}

	out := Merge(obs, arrivals, nil, "LEMD")
	assert.Equal(t, "LEMD-32L", out[0].RunwayInUse)
	assert.Equal(t, "LEMD-32L", out[1].RunwayInUse, "forward filled")
}

func TestMerge_ForwardFillNeverBridgesLongGaps(t *testing.T) {
	times := make([]time.Time, 6)
	for i := range times {
		times[i] = t0.Add(time.Duration(i) * 2 * time.Hour)
	}
	obs := evaluatedAt(times, "")
	arrivals := []JoinedArrival{
		{ArrivalRecord: ArrivalRecord{Time: t0, RunwayKey: "LEMD-32L"}},
	}

	out := Merge(obs, arrivals, nil, "LEMD")
	got := make([]string, len(out))
	for i, r := range out {
		got[i] = r.RunwayInUse
	}
	assert.Equal(t, []string{"LEMD-32L", "LEMD-32L", "LEMD-32L", "LEMD-32L", "", ""}, got)
}

func TestMerge_TrafficJoin(t *testing.T) {
	obs := evaluatedAt([]time.Time{t0, t0.Add(30 * time.Minute), t0.Add(45 * time.Minute)}, "32L")
	traffic := []TrafficCounts{
		{Start: t0, Ops: [5]int{1, 0, 3, 0, 0}},
		{Start: t0.Add(30 * time.Minute), Ops: [5]int{0, 0, 0, 2, 1}},
	}

	out := Merge(obs, nil, traffic, "LEMD")
	assert.Equal(t, [5]int{1, 0, 3, 0, 0}, out[0].Ops)
	assert.Equal(t, [5]int{0, 0, 0, 2, 1}, out[1].Ops)
	assert.Equal(t, [5]int{}, out[2].Ops)
}

func TestMerge_Empty(t *testing.T) {
	out := Merge(nil, nil, nil, "LEMD")
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Empty(t, FilterRunway(out, "LEMD-32L"))
}

func TestFilterRunway(t *testing.T) {
	records := []MergedRecord{
		{RunwayInUse: "LEMD-32L"},
		{RunwayInUse: "LEMD-14R"},
		{RunwayInUse: "LEMD-32L"},
		{},
	}
	assert.Len(t, FilterRunway(records, "LEMD-32L"), 2)
}
