package domain

import "time"

const (
	// NoCeilingFt is the ceiling height reported when no BKN, OVC or VV layer exists.
	NoCeilingFt = 10000.0

	// RVRNotReported is the decoder sentinel for a report without a usable RVR group
	// for the study runway. Derive replaces it with visibility.
	RVRNotReported = 2000
)

// CloudLayer is one (coverage, base) pair of a station report.
type CloudLayer struct {
	Type     string   // FEW, SCT, BKN, OVC, VV, ...
	HeightFt *float64 // nil when the archive reports no base
}

// Observation is a single decoded station report.
type Observation struct {
	Time        time.Time // zero when the archive timestamp could not be parsed
	Raw         string
	VisibilityM *float64
	Clouds      [4]CloudLayer
	CeilingType string
	CeilingFt   *float64
	WindDirDeg  *float64
	WindSpeedKt *float64
	RVRM        int
}

// DerivedObservation is an Observation after interpolation and runway-relative
// derivation. Nil pointers mark values the series could not provide.
type DerivedObservation struct {
	Time          time.Time
	CeilingFt     *float64
	CloudType     string
	RVRM          *float64
	WindDirDeg    *float64
	VisibilityM   *float64
	WindSpeedKt   *float64
	HeadwindKt    *float64
	CrosswindKt   *float64
	CAVOK         bool
	FavoredRunway string
}

// Ceiling returns the first BKN, OVC or VV layer in positional order, or
// ("", NoCeilingFt) when none qualifies.
func Ceiling(layers [4]CloudLayer) (string, *float64) {
	for _, l := range layers {
		switch l.Type {
		case "BKN", "OVC", "VV":
			return l.Type, l.HeightFt
		}
	}
	h := NoCeilingFt
	return "", &h
}
