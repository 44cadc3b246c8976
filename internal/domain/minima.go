package domain

import "time"

// Category is an aircraft approach category.
type Category int

const (
	CategoryA Category = iota
	CategoryB
	CategoryC
	CategoryD
)

// Categories lists the approach categories in report order.
var Categories = [4]Category{CategoryA, CategoryB, CategoryC, CategoryD}

func (c Category) String() string {
	switch c {
	case CategoryA:
		return "A"
	case CategoryB:
		return "B"
	case CategoryC:
		return "C"
	case CategoryD:
		return "D"
	default:
		return "?"
	}
}

// ParseCategory maps "A".."D" to a Category.
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "A":
		return CategoryA, true
	case "B":
		return CategoryB, true
	case "C":
		return CategoryC, true
	case "D":
		return CategoryD, true
	}
	return 0, false
}

// Regime selects the minima set in force.
type Regime int

const (
	RegimeCurrent Regime = iota
	RegimeProposed
)

// Regimes lists both regimes.
var Regimes = [2]Regime{RegimeCurrent, RegimeProposed}

func (r Regime) String() string {
	if r == RegimeProposed {
		return "proposed"
	}
	return "current"
}

// Metric is an observed quantity compared against minima.
type Metric int

const (
	MetricVisibility Metric = iota
	MetricRVR
	MetricCeiling
)

// Metrics lists the evaluated metrics.
var Metrics = [3]Metric{MetricVisibility, MetricRVR, MetricCeiling}

func (m Metric) String() string {
	switch m {
	case MetricVisibility:
		return "visibility"
	case MetricRVR:
		return "rvr"
	default:
		return "ceiling"
	}
}

// Threshold is one category's minima: the lighting-resolved visibility/RVR
// equivalent and the decision height used as ceiling.
type Threshold struct {
	VisibilityM float64
	CeilingFt   float64
}

// MinimaSet holds current and proposed thresholds per category.
type MinimaSet struct {
	Current  [4]Threshold
	Proposed [4]Threshold
}

// Threshold returns the threshold for a regime and category.
func (m MinimaSet) Threshold(r Regime, c Category) Threshold {
	if r == RegimeProposed {
		return m.Proposed[c]
	}
	return m.Current[c]
}

// EvaluationFlags indexes pass/fail by metric, regime and category.
type EvaluationFlags [3][2][4]bool

// Get returns a single flag.
func (f EvaluationFlags) Get(m Metric, r Regime, c Category) bool {
	return f[m][r][c]
}

// EvaluatedObservation is a derived observation with its minima flags.
type EvaluatedObservation struct {
	DerivedObservation
	Flags EvaluationFlags
}

// Evaluate flags, for every observation, whether each metric strictly exceeds
// the threshold of each regime and category. Absent values never pass.
func Evaluate(obs []DerivedObservation, m MinimaSet) []EvaluatedObservation {
	out := make([]EvaluatedObservation, len(obs))
	for i, o := range obs {
		e := EvaluatedObservation{DerivedObservation: o}
		for _, r := range Regimes {
			for _, c := range Categories {
				t := m.Threshold(r, c)
				e.Flags[MetricVisibility][r][c] = exceeds(o.VisibilityM, t.VisibilityM)
				e.Flags[MetricRVR][r][c] = exceeds(o.RVRM, t.VisibilityM)
				e.Flags[MetricCeiling][r][c] = exceeds(o.CeilingFt, t.CeilingFt)
			}
		}
		out[i] = e
	}
	return out
}

func exceeds(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}

// StudyConfiguration summarises the inputs and resolved minima of a study run.
type StudyConfiguration struct {
	ID            string
	Airport       string
	Runway        string
	Lighting      string
	Start         time.Time
	End           time.Time
	Current       [4]float64 // decision heights as entered
	Proposed      [4]float64
	Minima        MinimaSet
	Name          string
	EffectiveDate string
}
