package csv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/opstudy/internal/adapter/store"
	"go.ngs.io/opstudy/internal/adapter/store/objects"
)

func writeFixture(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func fixtureStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()

	writeFixture(t, root, LightingObject, "airport;runway;system;air_ops\n"+
		"LEMD;RWY32L;ALS 900;FALS\n"+
		"LEMD;RWY18R;ALS 720;IALS\n"+
		"LEBL;RWY24R;ALS 900;FALS\n")
	writeFixture(t, root, AirOpsObject, "dh_min,dh_max,FALS,IALS,BALS,NALS\n"+
		"200,250,550,750,1000,1200\n"+
		"251,300,700,900,1100,1400\n")
	writeFixture(t, root, CategoriesObject, "aircraft,category\nA320,C\nB744,D\nc172,a\n")
	writeFixture(t, root, EquivalenceObject, "aircraft,substitute\nA20N,A320\n")
	writeFixture(t, root, "arrivals/2023-01.csv", "arrival_time,aircraft_type,flight_rules,runway\n"+
		"2023-01-15 10:05:00,A320,I,LEMD-32L/32R\n"+
		"2023-01-15 10:40:00,a20n,I,LEMD-32L\n"+
		",A320,I,LEMD-32L\n")
	writeFixture(t, root, "arrivals/2023-02.csv", "arrival_time,aircraft_type,flight_rules,runway\n"+
		"2023-02-01T06:00:00Z,B744,V,LEBL-24R\n")
	writeFixture(t, root, "arrivals/README.txt", "ignored")
	writeFixture(t, root, "go_arounds/LEMD.csv", "callsign,time_utc,runway,cause,aircraft_type\n"+
		"IBE123,2023-01-15 08:12,32l,WX_VIS: fog,A320\n"+
		"VLG45,not a date,32L,ATC_SEP,A320\n")

	return NewStore(objects.NewDirSource(root))
}

func TestLoadReference(t *testing.T) {
	ref, err := fixtureStore(t).LoadReference(context.Background())
	require.NoError(t, err)

	require.Len(t, ref.Lighting, 3)
	assert.Equal(t, "32L", ref.Lighting[0].Runway)
	assert.Equal(t, "FALS", ref.Lighting[0].Class)

	require.Len(t, ref.Bands, 2)
	assert.Equal(t, 750.0, ref.Bands[0].RVRM["IALS"])
	assert.Equal(t, 1400.0, ref.Bands[1].RVRM["NALS"])

	c, ok := ref.Aircraft.Category("A20N")
	assert.True(t, ok)
	assert.Equal(t, "C", c)
	c, _ = ref.Aircraft.Category("C172")
	assert.Equal(t, "A", c)

	m, class, err := ref.BuildMinima("LEMD", "18R", [4]float64{200, 200, 260, 260}, [4]float64{260, 260, 260, 260})
	require.NoError(t, err)
	assert.Equal(t, "IALS", class)
	assert.Equal(t, 900.0, m.Current[2].VisibilityM)
}

func TestLoadReference_BadHeader(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, LightingObject, "aeropuerto;pista\nLEMD;RWY32L\n")

	_, err := NewStore(objects.NewDirSource(root)).LoadReference(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column airport")
}

func TestLoadArrivals(t *testing.T) {
	arrivals, err := fixtureStore(t).LoadArrivals(context.Background())
	require.NoError(t, err)
	require.Len(t, arrivals, 3)

	assert.Equal(t, time.Date(2023, 1, 15, 10, 5, 0, 0, time.UTC), arrivals[0].Time)
	assert.Equal(t, "LEMD-32L", arrivals[0].RunwayKey)
	assert.Equal(t, "A20N", arrivals[1].AircraftType)
	assert.True(t, arrivals[2].IsVisual())
}

func TestLoadGoArounds(t *testing.T) {
	s := fixtureStore(t)

	records, err := s.LoadGoArounds(context.Background(), "lemd")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "IBE123", records[0].Callsign)
	assert.Equal(t, "32L", records[0].Runway)
	assert.Equal(t, "A320", records[0].AircraftType)

	_, err = s.LoadGoArounds(context.Background(), "GCXO")
	assert.True(t, errors.Is(err, store.ErrNoCoverage))
}
