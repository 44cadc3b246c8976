package domain

import (
	"sort"
	"time"
)

const (
	// NearestTolerance is the widest gap between an observation and the arrival
	// whose runway it adopts.
	NearestTolerance = time.Hour
	// ForwardFillLimit is the number of consecutive unassigned rows that inherit
	// the last runway assignment.
	ForwardFillLimit = 3
)

// MergedRecord is one evaluated observation with the runway in use and the
// traffic counted in the bucket starting at the observation time.
type MergedRecord struct {
	EvaluatedObservation
	RunwayInUse string
	Ops         [trafficColumns]int
}

// Merge attaches runway-in-use evidence and traffic counts to each observation.
//
// The runway comes from the nearest arrival within NearestTolerance, else from
// the wind-favored runway, else from the previous assignment for at most
// ForwardFillLimit rows. Observations are expected in time order, as Derive
// produces them.
func Merge(obs []EvaluatedObservation, arrivals []JoinedArrival, traffic []TrafficCounts, airport string) []MergedRecord {
	sorted := make([]JoinedArrival, len(arrivals))
	copy(sorted, arrivals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	counts := make(map[time.Time][trafficColumns]int, len(traffic))
	for _, tc := range traffic {
		counts[tc.Start.UTC()] = tc.Ops
	}

	out := make([]MergedRecord, len(obs))
	for i, o := range obs {
		r := MergedRecord{EvaluatedObservation: o}
		if a, ok := nearestArrival(sorted, o.Time); ok {
			r.RunwayInUse = a.RunwayKey
		} else if o.FavoredRunway != "" {
			r.RunwayInUse = RunwayKey(airport, o.FavoredRunway)
		}
		r.Ops = counts[o.Time.UTC()]
		out[i] = r
	}

	forwardFill(out, ForwardFillLimit)
	return out
}

// nearestArrival finds the arrival closest to t within NearestTolerance.
// On equal distance the earlier arrival wins.
func nearestArrival(sorted []JoinedArrival, t time.Time) (JoinedArrival, bool) {
	if len(sorted) == 0 {
		return JoinedArrival{}, false
	}

	idx := sort.Search(len(sorted), func(i int) bool {
		return !sorted[i].Time.Before(t)
	})

	best := -1
	var bestDist time.Duration
	for _, k := range []int{idx - 1, idx} {
		if k < 0 || k >= len(sorted) {
			continue
		}
		d := absDuration(sorted[k].Time.Sub(t))
		if d > NearestTolerance {
			continue
		}
		if best < 0 || d < bestDist {
			best = k
			bestDist = d
		}
	}

	if best < 0 {
		return JoinedArrival{}, false
	}
	return sorted[best], true
}

func forwardFill(records []MergedRecord, limit int) {
	last := ""
	gap := 0
	for i := range records {
		if records[i].RunwayInUse != "" {
			last = records[i].RunwayInUse
			gap = 0
			continue
		}
		if last == "" {
			continue
		}
		gap++
		if gap <= limit {
			records[i].RunwayInUse = last
		}
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// FilterRunway returns the records whose runway in use equals key.
func FilterRunway(records []MergedRecord, key string) []MergedRecord {
	out := make([]MergedRecord, 0)
	for _, r := range records {
		if r.RunwayInUse == key {
			out = append(out, r)
		}
	}
	return out
}
