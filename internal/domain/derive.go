package domain

import (
	"math"
	"sort"
	"strings"

	"go.ngs.io/opstudy/internal/adapter/interp"
)

// FavoredHeadwindKt is the headwind component at or above which the study runway
// is considered wind-favored; below it traffic is assumed on the reciprocal end.
const FavoredHeadwindKt = 10.0

// Derive turns decoded observations into runway-relative derived observations.
//
// Observations without a timestamp are dropped and the rest are ordered by time
// before wind and visibility gaps are interpolated. Derive only reads the raw
// decoded fields, so calling it again on the same input yields the same output.
func Derive(obs []Observation, rwy Runway) []DerivedObservation {
	series := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Time.IsZero() {
			continue
		}
		series = append(series, o)
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Time.Before(series[j].Time)
	})

	n := len(series)
	dirs := make([]*float64, n)
	speeds := make([]*float64, n)
	vis := make([]*float64, n)
	for i, o := range series {
		dirs[i] = o.WindDirDeg
		speeds[i] = o.WindSpeedKt
		vis[i] = o.VisibilityM
	}
	dirs = interp.Linear(dirs)
	speeds = interp.Linear(speeds)
	vis = interp.Linear(vis)

	heading := rwy.Heading()
	primary := rwy.String()
	reciprocal := rwy.Reciprocal().String()

	out := make([]DerivedObservation, n)
	for i, o := range series {
		d := DerivedObservation{
			Time:        o.Time,
			CeilingFt:   o.CeilingFt,
			CloudType:   o.CeilingType,
			WindDirDeg:  dirs[i],
			VisibilityM: vis[i],
			WindSpeedKt: speeds[i],
			CAVOK:       strings.Contains(strings.ToUpper(o.Raw), "CAVOK"),
		}

		if dirs[i] != nil && speeds[i] != nil {
			rad := (heading - *dirs[i]) * math.Pi / 180
			head := *speeds[i] * math.Cos(rad)
			cross := *speeds[i] * math.Sin(rad)
			d.HeadwindKt = &head
			d.CrosswindKt = &cross
		}

		d.FavoredRunway = reciprocal
		if d.HeadwindKt != nil && *d.HeadwindKt >= FavoredHeadwindKt {
			d.FavoredRunway = primary
		}

		if o.RVRM == RVRNotReported {
			d.RVRM = vis[i]
		} else {
			rvr := float64(o.RVRM)
			d.RVRM = &rvr
		}

		out[i] = d
	}

	return out
}
