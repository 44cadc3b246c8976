// Package report packages a completed study into a zip of CSV tables.
package report

import (
	"archive/zip"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"go.ngs.io/opstudy/internal/domain"
)

// File names inside the bundle.
const (
	ConfigurationFile = "configuration.csv"
	MergedFile        = "metar_filtered.csv"
	RunwayFile        = "metar_runway.csv"
	TrafficFile       = "traffic.csv"
	GoAroundsFile     = "go_arounds.csv"
)

const timeLayout = "2006-01-02 15:04:05"

// Bundle is everything written to a study archive.
type Bundle struct {
	Config    domain.StudyConfiguration
	Merged    []domain.MergedRecord
	Runway    []domain.MergedRecord
	Traffic   []domain.JoinedArrival
	GoArounds []domain.GoAroundRecord
}

// table is a column-oriented string table.
type table struct {
	names   []string
	columns [][]string
}

func newTable(names ...string) *table {
	return &table{names: names, columns: make([][]string, len(names))}
}

func (t *table) append(values ...string) {
	for i := range t.columns {
		t.columns[i] = append(t.columns[i], values[i])
	}
}

func (t *table) frame() dataframe.DataFrame {
	cols := make([]series.Series, len(t.names))
	for i, name := range t.names {
		values := t.columns[i]
		if values == nil {
			values = []string{}
		}
		cols[i] = series.New(values, series.String, name)
	}
	return dataframe.New(cols...)
}

// WriteZip writes the five bundle tables to w. Empty inputs produce
// header-only files.
func WriteZip(w io.Writer, b Bundle) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name  string
		table *table
	}{
		{ConfigurationFile, configurationTable(b.Config)},
		{MergedFile, mergedTable(b.Merged)},
		{RunwayFile, mergedTable(b.Runway)},
		{TrafficFile, trafficTable(b.Traffic)},
		{GoAroundsFile, goAroundTable(b.GoArounds)},
	}

	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", f.name, err)
		}
		if err := writeTable(fw, f.table); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	return zw.Close()
}

func writeTable(w io.Writer, t *table) error {
	df := t.frame()
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(w)
}

func configurationTable(c domain.StudyConfiguration) *table {
	t := newTable(
		"airport", "runway", "lighting", "category",
		"current_minima_ft", "proposed_minima_ft", "rvr_current_m", "rvr_proposed_m",
		"study_name", "effective_date", "study_id",
	)
	for _, cat := range domain.Categories {
		t.append(
			c.Airport, c.Runway, c.Lighting, cat.String(),
			formatFloat(c.Current[cat]), formatFloat(c.Proposed[cat]),
			formatFloat(c.Minima.Current[cat].VisibilityM), formatFloat(c.Minima.Proposed[cat].VisibilityM),
			c.Name, c.EffectiveDate, c.ID,
		)
	}
	return t
}

// FlagColumn names the pass/fail column for a metric, regime and category,
// e.g. ok_rvr_proposed_cat_c.
func FlagColumn(m domain.Metric, r domain.Regime, c domain.Category) string {
	return fmt.Sprintf("ok_%s_%s_cat_%s", m, r, strings.ToLower(c.String()))
}

func mergedTable(records []domain.MergedRecord) *table {
	names := []string{
		"time", "ceiling_ft", "cloud_type", "rvr_m", "wind_dir_deg", "visibility_m",
		"wind_speed_kt", "headwind_kt", "crosswind_kt", "cavok", "favored_runway",
	}
	for _, m := range domain.Metrics {
		for _, r := range domain.Regimes {
			for _, c := range domain.Categories {
				names = append(names, FlagColumn(m, r, c))
			}
		}
	}
	names = append(names, "runway_in_use")
	for _, cat := range domain.TrafficCategories() {
		names = append(names, "ops_cat_"+strings.ToLower(cat))
	}

	t := newTable(names...)
	for _, rec := range records {
		row := []string{
			rec.Time.UTC().Format(timeLayout),
			formatPtr(rec.CeilingFt),
			orZero(rec.CloudType),
			formatPtr(rec.RVRM),
			formatPtr(rec.WindDirDeg),
			formatPtr(rec.VisibilityM),
			formatPtr(rec.WindSpeedKt),
			formatPtr(rec.HeadwindKt),
			formatPtr(rec.CrosswindKt),
			formatBool(rec.CAVOK),
			orZero(rec.FavoredRunway),
		}
		for _, m := range domain.Metrics {
			for _, r := range domain.Regimes {
				for _, c := range domain.Categories {
					row = append(row, formatBool(rec.Flags.Get(m, r, c)))
				}
			}
		}
		row = append(row, orZero(rec.RunwayInUse))
		for _, n := range rec.Ops {
			row = append(row, strconv.Itoa(n))
		}
		t.append(row...)
	}
	return t
}

func trafficTable(arrivals []domain.JoinedArrival) *table {
	t := newTable("arrival_time", "aircraft_type", "runway", "bucket", "category")
	for _, a := range arrivals {
		t.append(
			a.Time.UTC().Format(timeLayout),
			a.AircraftType,
			a.RunwayKey,
			a.Bucket.UTC().Format(timeLayout),
			a.Category,
		)
	}
	return t
}

func goAroundTable(records []domain.GoAroundRecord) *table {
	t := newTable("callsign", "time_utc", "aircraft_type", "primary_cause", "secondary_cause")
	for _, r := range records {
		t.append(
			r.Callsign,
			r.Time.UTC().Format(timeLayout),
			r.AircraftType,
			r.PrimaryCause,
			r.SecondaryCause,
		)
	}
	return t
}

// Missing values are written as 0 in the merged tables.
func formatPtr(v *float64) string {
	if v == nil {
		return "0"
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
