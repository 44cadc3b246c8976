package domain

import (
	"strings"
	"time"
)

// GoAroundRecord is one missed approach from the go-around log.
type GoAroundRecord struct {
	Callsign       string
	Time           time.Time
	Runway         string
	AircraftType   string
	Cause          string
	PrimaryCause   string
	SecondaryCause string
}

// SplitCause separates a coded cause such as "WX_VIS: low visibility" into its
// primary and secondary parts. The free text after the first ':' is ignored.
func SplitCause(cause string) (string, string) {
	code := cause
	if i := strings.Index(code, ":"); i >= 0 {
		code = code[:i]
	}
	code = strings.TrimSpace(code)

	primary, secondary, _ := strings.Cut(code, "_")
	return primary, secondary
}

// FilterGoArounds keeps the records on runway inside the inclusive date range
// and fills in their cause split.
func FilterGoArounds(records []GoAroundRecord, runway string, start, end time.Time) []GoAroundRecord {
	from, to := DayRange(start, end)
	want := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(runway)), "RWY")

	out := make([]GoAroundRecord, 0)
	for _, r := range records {
		got := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(r.Runway)), "RWY")
		if got != want {
			continue
		}
		if r.Time.Before(from) || r.Time.After(to) {
			continue
		}
		r.PrimaryCause, r.SecondaryCause = SplitCause(r.Cause)
		out = append(out, r)
	}
	return out
}
