// Package csv provides CSV-based loading of reference tables, arrivals and
// go-around logs from an object source.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/opstudy/internal/adapter/store"
	"go.ngs.io/opstudy/internal/domain"
)

// Object names relative to the source root.
const (
	LightingObject    = "reference/lighting.csv"
	AirOpsObject      = "reference/air_ops.csv"
	CategoriesObject  = "reference/aircraft_categories.csv"
	EquivalenceObject = "reference/aircraft_equivalences.csv"
	ArrivalsPrefix    = "arrivals/"
	GoAroundsPrefix   = "go_arounds/"
)

// runwayKeyLen truncates arrival runway fields such as "LEMD-32L/32R" to the key.
const runwayKeyLen = 8

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
}

// Store loads every table from a single object source.
type Store struct {
	src store.ObjectSource
}

// NewStore creates a CSV store reading from src.
func NewStore(src store.ObjectSource) *Store {
	return &Store{src: src}
}

// LoadReference loads the lighting, decision-height and aircraft tables.
func (s *Store) LoadReference(ctx context.Context) (*domain.ReferenceData, error) {
	lighting, err := s.loadLighting(ctx)
	if err != nil {
		return nil, err
	}

	bands, err := s.loadBands(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return nil, err
	}

	substitutes, err := s.loadEquivalences(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.ReferenceData{
		Lighting: lighting,
		Bands:    bands,
		Aircraft: domain.AircraftCatalog{
			Categories:  categories,
			Substitutes: substitutes,
		},
	}, nil
}

func (s *Store) loadLighting(ctx context.Context) ([]domain.LightingEntry, error) {
	header, rows, err := s.readTable(ctx, LightingObject, ';')
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, LightingObject, "airport", "runway", "air_ops")
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LightingEntry, 0, len(rows))
	for _, row := range rows {
		airport := strings.ToUpper(field(row, cols[0]))
		runway := strings.TrimPrefix(strings.ToUpper(field(row, cols[1])), "RWY")
		if airport == "" || runway == "" {
			continue
		}
		entries = append(entries, domain.LightingEntry{
			Airport: airport,
			Runway:  runway,
			Class:   field(row, cols[2]),
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no lighting entries found in %s", LightingObject)
	}
	return entries, nil
}

func (s *Store) loadBands(ctx context.Context) ([]domain.DecisionHeightBand, error) {
	header, rows, err := s.readTable(ctx, AirOpsObject, ',')
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, AirOpsObject, "dh_min", "dh_max")
	if err != nil {
		return nil, err
	}

	bands := make([]domain.DecisionHeightBand, 0, len(rows))
	for i, row := range rows {
		minFt, err := strconv.ParseFloat(field(row, cols[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid dh_min: %w", AirOpsObject, i+2, err)
		}
		maxFt, err := strconv.ParseFloat(field(row, cols[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid dh_max: %w", AirOpsObject, i+2, err)
		}

		b := domain.DecisionHeightBand{MinFt: minFt, MaxFt: maxFt, RVRM: make(map[string]float64)}
		for j, name := range header {
			if j == cols[0] || j == cols[1] {
				continue
			}
			v, err := strconv.ParseFloat(field(row, j), 64)
			if err != nil {
				continue
			}
			b.RVRM[strings.TrimSpace(name)] = v
		}
		bands = append(bands, b)
	}

	return bands, nil
}

func (s *Store) loadCategories(ctx context.Context) (map[string]string, error) {
	header, rows, err := s.readTable(ctx, CategoriesObject, ',')
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, CategoriesObject, "aircraft", "category")
	if err != nil {
		return nil, err
	}

	categories := make(map[string]string, len(rows))
	for _, row := range rows {
		t := strings.ToUpper(field(row, cols[0]))
		if t == "" {
			continue
		}
		categories[t] = strings.ToUpper(field(row, cols[1]))
	}
	return categories, nil
}

func (s *Store) loadEquivalences(ctx context.Context) (map[string]string, error) {
	header, rows, err := s.readTable(ctx, EquivalenceObject, ',')
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("csv: %s not found, continuing without aircraft equivalences", EquivalenceObject)
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, EquivalenceObject, "aircraft", "substitute")
	if err != nil {
		return nil, err
	}

	substitutes := make(map[string]string, len(rows))
	for _, row := range rows {
		t := strings.ToUpper(field(row, cols[0]))
		sub := strings.ToUpper(field(row, cols[1]))
		if t == "" || sub == "" {
			continue
		}
		substitutes[t] = sub
	}
	return substitutes, nil
}

// LoadArrivals concatenates every arrivals file below ArrivalsPrefix. Rows
// without arrival time or runway are skipped.
func (s *Store) LoadArrivals(ctx context.Context) ([]domain.ArrivalRecord, error) {
	names, err := s.src.List(ctx, ArrivalsPrefix)
	if err != nil {
		return nil, err
	}

	arrivals := make([]domain.ArrivalRecord, 0)
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}

		header, rows, err := s.readTable(ctx, name, ',')
		if err != nil {
			return nil, err
		}
		cols, err := columnIndex(header, name, "arrival_time", "aircraft_type", "flight_rules", "runway")
		if err != nil {
			return nil, err
		}

		skipped := 0
		for _, row := range rows {
			ts, ok := parseTime(field(row, cols[0]))
			rwy := field(row, cols[3])
			if !ok || rwy == "" {
				skipped++
				continue
			}
			if len(rwy) > runwayKeyLen {
				rwy = rwy[:runwayKeyLen]
			}
			arrivals = append(arrivals, domain.ArrivalRecord{
				Time:         ts,
				AircraftType: strings.ToUpper(field(row, cols[1])),
				FlightRules:  field(row, cols[2]),
				RunwayKey:    strings.ToUpper(rwy),
			})
		}
		if skipped > 0 {
			log.Printf("csv: %s: skipped %d rows without arrival time or runway", name, skipped)
		}
	}

	return arrivals, nil
}

// LoadGoArounds loads go_arounds/<AIRPORT>.csv.
func (s *Store) LoadGoArounds(ctx context.Context, airport string) ([]domain.GoAroundRecord, error) {
	name := GoAroundsPrefix + strings.ToUpper(airport) + ".csv"

	header, rows, err := s.readTable(ctx, name, ',')
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", store.ErrNoCoverage, strings.ToUpper(airport))
	}
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, name, "callsign", "time_utc", "runway", "cause")
	if err != nil {
		return nil, err
	}
	typeCol := optionalColumn(header, "aircraft_type")

	records := make([]domain.GoAroundRecord, 0, len(rows))
	for _, row := range rows {
		ts, ok := parseTime(field(row, cols[1]))
		if !ok {
			continue
		}
		r := domain.GoAroundRecord{
			Callsign: field(row, cols[0]),
			Time:     ts,
			Runway:   strings.ToUpper(field(row, cols[2])),
			Cause:    field(row, cols[3]),
		}
		if typeCol >= 0 {
			r.AircraftType = field(row, typeCol)
		}
		records = append(records, r)
	}

	return records, nil
}

// readTable reads a whole delimited object, returning its header and rows.
func (s *Store) readTable(ctx context.Context, name string, comma rune) ([]string, [][]string, error) {
	rc, err := s.src.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rc.Close() }()

	reader := csv.NewReader(rc)
	reader.Comma = comma
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header of %s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV record of %s: %w", name, err)
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

// columnIndex locates required columns by case-insensitive name.
func columnIndex(header []string, name string, required ...string) ([]int, error) {
	idx := make([]int, len(required))
	for i, col := range required {
		idx[i] = optionalColumn(header, col)
		if idx[i] < 0 {
			return nil, fmt.Errorf("invalid CSV header in %s: missing column %s, got %v", name, col, header)
		}
	}
	return idx, nil
}

func optionalColumn(header []string, col string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}
	return -1
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
