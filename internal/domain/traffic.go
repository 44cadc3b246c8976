package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// BucketSize is the width of the traffic time buckets.
const BucketSize = 30 * time.Minute

// Uncategorized is the traffic category of aircraft types missing from the catalog.
const Uncategorized = "UNCAT"

// trafficColumns is the number of pivot columns: A..D plus uncategorized.
const trafficColumns = 5

// ErrNoTraffic is returned by Bucketize when no arrival falls in range.
var ErrNoTraffic = errors.New("no traffic data for the requested range")

// ArrivalRecord is one arrival from the historical traffic log.
type ArrivalRecord struct {
	Time         time.Time `msgpack:"time"`
	AircraftType string    `msgpack:"aircraft_type"`
	FlightRules  string    `msgpack:"flight_rules"`
	RunwayKey    string    `msgpack:"runway_key"` // e.g. "LEMD-32L"
}

// IsVisual reports whether the arrival flew under visual flight rules.
func (a ArrivalRecord) IsVisual() bool {
	return strings.EqualFold(strings.TrimSpace(a.FlightRules), "V")
}

// JoinedArrival is an arrival with its bucket and approach category.
type JoinedArrival struct {
	ArrivalRecord
	Bucket   time.Time
	Category string // "A".."D" or Uncategorized
}

// TrafficBucket is the long-form count of arrivals per bucket and category.
type TrafficBucket struct {
	Start    time.Time
	Category string
	Count    int
}

// TrafficCounts is one pivoted bucket: counts for A..D then uncategorized.
type TrafficCounts struct {
	Start time.Time
	Ops   [trafficColumns]int
}

// TrafficSummary is the output of Bucketize.
type TrafficSummary struct {
	Arrivals []JoinedArrival
	Buckets  []TrafficBucket
	Counts   []TrafficCounts
}

// TrafficCategories lists the pivot column labels in order.
func TrafficCategories() []string {
	return []string{"A", "B", "C", "D", Uncategorized}
}

func trafficColumn(category string) int {
	if c, ok := ParseCategory(category); ok {
		return int(c)
	}
	return trafficColumns - 1
}

// Bucketize filters arrivals to the airport, the inclusive date range and
// instrument flights, joins each to its approach category and counts them per
// 30-minute bucket. When nothing is left it returns an empty, well-formed
// summary together with ErrNoTraffic.
func Bucketize(arrivals []ArrivalRecord, catalog AircraftCatalog, airport string, start, end time.Time) (TrafficSummary, error) {
	from, to := DayRange(start, end)
	airport = strings.ToUpper(airport)

	summary := TrafficSummary{
		Arrivals: make([]JoinedArrival, 0),
		Buckets:  make([]TrafficBucket, 0),
		Counts:   make([]TrafficCounts, 0),
	}

	for _, a := range arrivals {
		if a.Time.IsZero() || a.RunwayKey == "" || a.IsVisual() {
			continue
		}
		if !strings.HasPrefix(a.RunwayKey, airport) {
			continue
		}
		if a.Time.Before(from) || a.Time.After(to) {
			continue
		}

		category, ok := catalog.Category(a.AircraftType)
		if !ok {
			category = Uncategorized
		}
		if _, known := ParseCategory(category); !known {
			category = Uncategorized
		}

		summary.Arrivals = append(summary.Arrivals, JoinedArrival{
			ArrivalRecord: a,
			Bucket:        a.Time.Truncate(BucketSize),
			Category:      category,
		})
	}

	if len(summary.Arrivals) == 0 {
		return summary, ErrNoTraffic
	}

	sort.SliceStable(summary.Arrivals, func(i, j int) bool {
		return summary.Arrivals[i].Time.Before(summary.Arrivals[j].Time)
	})

	pivot := make(map[time.Time]*TrafficCounts)
	for _, a := range summary.Arrivals {
		tc, ok := pivot[a.Bucket]
		if !ok {
			tc = &TrafficCounts{Start: a.Bucket}
			pivot[a.Bucket] = tc
		}
		tc.Ops[trafficColumn(a.Category)]++
	}

	for _, tc := range pivot {
		summary.Counts = append(summary.Counts, *tc)
	}
	sort.Slice(summary.Counts, func(i, j int) bool {
		return summary.Counts[i].Start.Before(summary.Counts[j].Start)
	})

	labels := TrafficCategories()
	for _, tc := range summary.Counts {
		for col, n := range tc.Ops {
			if n == 0 {
				continue
			}
			summary.Buckets = append(summary.Buckets, TrafficBucket{
				Start:    tc.Start,
				Category: labels[col],
				Count:    n,
			})
		}
	}

	return summary, nil
}

// DayRange expands two dates to [start 00:00:00, end 23:59:59.999999999] UTC.
func DayRange(start, end time.Time) (time.Time, time.Time) {
	s := start.UTC()
	e := end.UTC()
	from := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	return from, to
}
