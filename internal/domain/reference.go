package domain

import (
	"fmt"
	"sort"
	"strings"
)

// maxEquivalenceHops bounds substitution chains in the aircraft catalog.
const maxEquivalenceHops = 8

// LightingEntry assigns an approach lighting class to an airport runway.
type LightingEntry struct {
	Airport string `msgpack:"airport"`
	Runway  string `msgpack:"runway"` // designator without the RWY prefix
	Class   string `msgpack:"class"`  // column name in the decision-height band table
}

// DecisionHeightBand maps a decision-height interval to the RVR minimum for
// each lighting class.
type DecisionHeightBand struct {
	MinFt float64            `msgpack:"min_ft"`
	MaxFt float64            `msgpack:"max_ft"`
	RVRM  map[string]float64 `msgpack:"rvr_m"`
}

// AircraftCatalog resolves aircraft types to approach categories. Types not
// listed directly may resolve through a substitute type.
type AircraftCatalog struct {
	Categories  map[string]string `msgpack:"categories"`
	Substitutes map[string]string `msgpack:"substitutes"`
}

// Category returns the category for an aircraft type and whether one was found.
func (a AircraftCatalog) Category(aircraftType string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(aircraftType))
	for hop := 0; hop <= maxEquivalenceHops && t != ""; hop++ {
		if c, ok := a.Categories[t]; ok {
			return c, true
		}
		next, ok := a.Substitutes[t]
		if !ok || next == t {
			break
		}
		t = next
	}
	return "", false
}

// ReferenceData is the read-only set of lookup tables shared by all study runs
// of a session.
type ReferenceData struct {
	Lighting []LightingEntry     `msgpack:"lighting"`
	Bands    []DecisionHeightBand `msgpack:"bands"`
	Aircraft AircraftCatalog     `msgpack:"aircraft"`
}

// Airports returns the sorted distinct airports of the lighting table.
func (r *ReferenceData) Airports() []string {
	seen := make(map[string]bool)
	airports := make([]string, 0)
	for _, e := range r.Lighting {
		if !seen[e.Airport] {
			seen[e.Airport] = true
			airports = append(airports, e.Airport)
		}
	}
	sort.Strings(airports)
	return airports
}

// Runways returns the runways listed for an airport in table order.
func (r *ReferenceData) Runways(airport string) []string {
	runways := make([]string, 0)
	for _, e := range r.Lighting {
		if e.Airport == airport {
			runways = append(runways, e.Runway)
		}
	}
	return runways
}

// LightingClass returns the lighting class of an airport runway.
func (r *ReferenceData) LightingClass(airport, runway string) (string, error) {
	for _, e := range r.Lighting {
		if e.Airport == airport && e.Runway == runway {
			return e.Class, nil
		}
	}
	return "", fmt.Errorf("%w: %s %s has no lighting entry", ErrUnknownRunway, airport, runway)
}

// ResolveRVR returns the RVR minimum of the first band containing the decision height.
func (r *ReferenceData) ResolveRVR(class string, decisionHeightFt float64) (float64, error) {
	for _, b := range r.Bands {
		if b.MinFt <= decisionHeightFt && b.MaxFt >= decisionHeightFt {
			v, ok := b.RVRM[class]
			if !ok {
				return 0, fmt.Errorf("lighting class %q not present in decision height table", class)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("no decision height band contains %.0f ft", decisionHeightFt)
}

// BuildMinima resolves current and proposed decision heights into a MinimaSet
// and returns the lighting class used.
func (r *ReferenceData) BuildMinima(airport, runway string, current, proposed [4]float64) (MinimaSet, string, error) {
	class, err := r.LightingClass(airport, runway)
	if err != nil {
		return MinimaSet{}, "", err
	}

	var m MinimaSet
	for _, c := range Categories {
		cur, err := r.ResolveRVR(class, current[c])
		if err != nil {
			return MinimaSet{}, "", fmt.Errorf("current minima CAT %s: %w", c, err)
		}
		prop, err := r.ResolveRVR(class, proposed[c])
		if err != nil {
			return MinimaSet{}, "", fmt.Errorf("proposed minima CAT %s: %w", c, err)
		}
		m.Current[c] = Threshold{VisibilityM: cur, CeilingFt: current[c]}
		m.Proposed[c] = Threshold{VisibilityM: prop, CeilingFt: proposed[c]}
	}

	return m, class, nil
}
