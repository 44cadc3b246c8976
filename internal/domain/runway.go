package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownRunway is returned when a runway designator cannot be parsed or is
// not listed for an airport.
var ErrUnknownRunway = errors.New("unknown runway")

// Runway is a runway end designator such as "32L".
type Runway struct {
	Number int    // 1..36
	Suffix string // "", "L", "C" or "R"
}

// ParseRunway parses a designator of the form NN[L|C|R]. A leading "RWY" is accepted.
func ParseRunway(designator string) (Runway, error) {
	s := strings.ToUpper(strings.TrimSpace(designator))
	s = strings.TrimPrefix(s, "RWY")
	if len(s) < 2 || len(s) > 3 {
		return Runway{}, fmt.Errorf("%w: %q", ErrUnknownRunway, designator)
	}

	n, err := strconv.Atoi(s[:2])
	if err != nil || n < 1 || n > 36 {
		return Runway{}, fmt.Errorf("%w: %q", ErrUnknownRunway, designator)
	}

	suffix := s[2:]
	switch suffix {
	case "", "L", "C", "R":
	default:
		return Runway{}, fmt.Errorf("%w: %q", ErrUnknownRunway, designator)
	}

	return Runway{Number: n, Suffix: suffix}, nil
}

// String returns the zero-padded designator.
func (r Runway) String() string {
	return fmt.Sprintf("%02d%s", r.Number, r.Suffix)
}

// Heading returns the magnetic heading in degrees implied by the runway number.
func (r Runway) Heading() float64 {
	return float64(r.Number * 10)
}

// Reciprocal returns the opposite end of the same runway. Parallel suffixes swap
// (L<->R) and C stays C.
func (r Runway) Reciprocal() Runway {
	n := r.Number + 18
	if r.Number > 18 {
		n = r.Number - 18
	}

	suffix := r.Suffix
	switch r.Suffix {
	case "L":
		suffix = "R"
	case "R":
		suffix = "L"
	}

	return Runway{Number: n, Suffix: suffix}
}

// RunwayKey builds the airport-runway key used by the arrivals log, e.g. "LEMD-32L".
func RunwayKey(airport, runway string) string {
	return strings.ToUpper(airport) + "-" + runway
}
