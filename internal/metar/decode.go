// Package metar decodes the comma-delimited station archive returned by the
// weather fetcher into domain observations.
package metar

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/opstudy/internal/domain"
)

const (
	// headerLines is the number of preamble lines preceding the CSV header.
	headerLines = 5

	metresPerStatuteMile = 1609.34

	validLayout = "2006-01-02 15:04"
)

var requiredColumns = []string{
	"valid", "vsby",
	"skyc1", "skyc2", "skyc3", "skyc4",
	"skyl1", "skyl2", "skyl3", "skyl4",
	"drct", "sknt", "metar",
}

var rvrDigits = regexp.MustCompile(`^\d+$`)

// Decode parses an archive block into observations for the given runway
// designator, which selects the RVR group. Rows with an unparseable timestamp
// are returned with a zero Time.
func Decode(block string, runway string) ([]domain.Observation, error) {
	body := stripPreamble(block)
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q in archive header", col)
		}
	}

	observations := make([]domain.Observation, 0)
	lineNum := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		cell := func(name string) string {
			i := idx[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		o := domain.Observation{
			Raw:         cell("metar"),
			WindDirDeg:  parseValue(cell("drct")),
			WindSpeedKt: parseValue(cell("sknt")),
		}

		if ts, err := time.Parse(validLayout, cell("valid")); err == nil {
			o.Time = ts
		}

		if v := parseValue(cell("vsby")); v != nil {
			m := math.Round(*v * metresPerStatuteMile)
			o.VisibilityM = &m
		}

		for i := range o.Clouds {
			n := strconv.Itoa(i + 1)
			typ := cell("skyc" + n)
			if typ == "null" {
				typ = ""
			}
			o.Clouds[i] = domain.CloudLayer{
				Type:     typ,
				HeightFt: parseValue(cell("skyl" + n)),
			}
		}
		o.CeilingType, o.CeilingFt = domain.Ceiling(o.Clouds)
		o.RVRM = ExtractRVR(o.Raw, runway)

		observations = append(observations, o)
	}

	return observations, nil
}

// stripPreamble drops the first headerLines lines of block.
func stripPreamble(block string) string {
	rest := block
	for i := 0; i < headerLines; i++ {
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return ""
		}
		rest = rest[nl+1:]
	}
	return rest
}

// parseValue returns nil for empty, "null" or non-numeric cells.
func parseValue(s string) *float64 {
	if s == "" || s == "null" || s == "M" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ExtractRVR returns the runway visual range in metres reported for runway in
// a raw METAR, or domain.RVRNotReported when no well-formed group exists.
//
// A group qualifies when it has exactly one '/', the text between its first
// character and the '/' is the runway and it is exactly len(runway)+7 long,
// as in R28/M0600 or R28/0600N.
func ExtractRVR(report, runway string) int {
	for _, token := range strings.Fields(report) {
		slash := strings.IndexByte(token, '/')
		if slash < 1 || strings.Count(token, "/") != 1 {
			continue
		}
		if token[1:slash] != runway || len(token) != len(runway)+7 {
			continue
		}

		var digits string
		if c := token[slash+1]; (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
			digits = token[slash+2:]
		} else {
			digits = token[slash+1 : len(token)-1]
		}
		if !rvrDigits.MatchString(digits) {
			continue
		}

		v, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		return v
	}
	return domain.RVRNotReported
}
