package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.ngs.io/opstudy/internal/adapter/cache"
	"go.ngs.io/opstudy/internal/adapter/store"
	"go.ngs.io/opstudy/internal/domain"
)

var studyDay = time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

const weatherBlock = `#1
#2
#3
#4
#5
station,valid,vsby,skyc1,skyc2,skyc3,skyc4,skyl1,skyl2,skyl3,skyl4,drct,sknt,metar
LEMD,2023-01-15 10:00,0.25,BKN,null,null,null,200,null,null,null,320,15,LEMD 151000Z 32015KT 0400 R32L/0350N BKN002
LEMD,2023-01-15 10:30,6.00,FEW,null,null,null,3000,null,null,null,140,12,LEMD 151030Z 14012KT 9999 FEW030
LEMD,2023-01-15 14:00,6.00,null,null,null,null,null,null,null,null,140,12,LEMD 151400Z 14012KT CAVOK
`

type fakeWeather struct {
	block string
	err   error
	calls int
}

func (f *fakeWeather) Fetch(_ context.Context, _ string, _, _ time.Time) (string, error) {
	f.calls++
	return f.block, f.err
}

type fakeGoArounds struct {
	records []domain.GoAroundRecord
	err     error
}

func (f *fakeGoArounds) LoadGoArounds(_ context.Context, _ string) ([]domain.GoAroundRecord, error) {
	return f.records, f.err
}

type fakeLoaders struct {
	ref      *domain.ReferenceData
	arrivals []domain.ArrivalRecord
	loads    int
}

func (f *fakeLoaders) LoadReference(context.Context) (*domain.ReferenceData, error) {
	f.loads++
	return f.ref, nil
}

func (f *fakeLoaders) LoadArrivals(context.Context) ([]domain.ArrivalRecord, error) {
	return f.arrivals, nil
}

func testReference() *domain.ReferenceData {
	return &domain.ReferenceData{
		Lighting: []domain.LightingEntry{
			{Airport: "LEMD", Runway: "32L", Class: "FALS"},
			{Airport: "LEMD", Runway: "14R", Class: "IALS"},
		},
		Bands: []domain.DecisionHeightBand{
			{MinFt: 100, MaxFt: 250, RVRM: map[string]float64{"FALS": 550, "IALS": 750}},
			{MinFt: 251, MaxFt: 9999, RVRM: map[string]float64{"FALS": 800, "IALS": 1000}},
		},
		Aircraft: domain.AircraftCatalog{Categories: map[string]string{"A320": "C"}},
	}
}

func testArrivals() []domain.ArrivalRecord {
	return []domain.ArrivalRecord{
		{Time: studyDay.Add(10*time.Hour + 5*time.Minute), AircraftType: "A320", FlightRules: "I", RunwayKey: "LEMD-32L"},
		{Time: studyDay.Add(10*time.Hour + 20*time.Minute), AircraftType: "E190", FlightRules: "I", RunwayKey: "LEMD-32L"},
	}
}

func validRequest() StudyRequest {
	return StudyRequest{
		Airport:  "LEMD",
		Runway:   "32L",
		Start:    studyDay,
		End:      studyDay,
		Current:  [4]float64{200, 200, 200, 200},
		Proposed: [4]float64{300, 300, 300, 300},
	}
}

func TestStudyRequestValidate(t *testing.T) {
	ok := validRequest()
	require.NoError(t, ok.Validate())

	tests := map[string]func(r *StudyRequest){
		"short airport":    func(r *StudyRequest) { r.Airport = "MAD" },
		"numeric airport":  func(r *StudyRequest) { r.Airport = "LE1D" },
		"bad runway":       func(r *StudyRequest) { r.Runway = "40" },
		"missing end":      func(r *StudyRequest) { r.End = time.Time{} },
		"reversed range":   func(r *StudyRequest) { r.End = r.Start.AddDate(0, 0, -1) },
		"too early":        func(r *StudyRequest) { r.Start = time.Date(2009, 12, 31, 0, 0, 0, 0, time.UTC) },
		"minima too low":   func(r *StudyRequest) { r.Current[1] = 99 },
		"minima too high":  func(r *StudyRequest) { r.Proposed[3] = 10000 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := validRequest()
			mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestExecute(t *testing.T) {
	weather := &fakeWeather{block: weatherBlock}
	goArounds := &fakeGoArounds{records: []domain.GoAroundRecord{
		{Callsign: "IBE1", Time: studyDay.Add(10 * time.Hour), Runway: "32L", Cause: "WX_VIS: fog"},
		{Callsign: "IBE2", Time: studyDay.Add(11 * time.Hour), Runway: "14R", Cause: "WX_WIND"},
	}}
	uc := NewStudyUseCase(NewSessionFromData(testReference(), testArrivals()), weather, goArounds)
	uc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	res, err := uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, res.Config.ID)
	assert.Equal(t, "LEMD-32L", res.Config.Name)
	assert.Equal(t, "March_2024", res.Config.EffectiveDate)
	assert.Equal(t, "FALS", res.Config.Lighting)
	assert.Equal(t, 550.0, res.Config.Minima.Current[0].VisibilityM)
	assert.Equal(t, 800.0, res.Config.Minima.Proposed[0].VisibilityM)
	assert.Empty(t, res.Warnings)

	require.Len(t, res.Merged, 3)
	first := res.Merged[0]
	assert.Equal(t, "LEMD-32L", first.RunwayInUse)
	assert.Equal(t, [5]int{0, 0, 1, 0, 1}, first.Ops)
	assert.Equal(t, 350.0, *first.RVRM)
	assert.False(t, first.Flags.Get(domain.MetricRVR, domain.RegimeCurrent, domain.CategoryA))

	// 14:00 is more than an hour from any arrival, the reciprocal wind decides.
	assert.Equal(t, "LEMD-14R", res.Merged[2].RunwayInUse)
	assert.True(t, res.Merged[2].CAVOK)

	assert.Len(t, res.Runway, 2)
	assert.Len(t, res.Traffic, 2)
	require.Len(t, res.GoArounds, 1)
	assert.Equal(t, "VIS", res.GoArounds[0].SecondaryCause)

	bundle := res.Bundle()
	assert.Equal(t, res.Config.ID, bundle.Config.ID)
}

func TestExecute_DegradesWithoutData(t *testing.T) {
	weather := &fakeWeather{block: ""}
	goArounds := &fakeGoArounds{err: fmt.Errorf("%w: LEMD", store.ErrNoCoverage)}
	uc := NewStudyUseCase(NewSessionFromData(testReference(), nil), weather, goArounds)

	req := validRequest()
	req.Name = "custom"
	res, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "custom", res.Config.Name)
	assert.NotNil(t, res.Merged)
	assert.Empty(t, res.Merged)
	assert.Empty(t, res.Runway)
	assert.Empty(t, res.Traffic)
	assert.NotNil(t, res.GoArounds)
	assert.Len(t, res.Warnings, 3)
}

func TestExecute_InvalidRequest(t *testing.T) {
	weather := &fakeWeather{}
	uc := NewStudyUseCase(NewSessionFromData(testReference(), nil), weather, &fakeGoArounds{})

	req := validRequest()
	req.End = req.Start.AddDate(0, 0, -2)
	_, err := uc.Execute(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, 0, weather.calls)

	req = validRequest()
	req.Runway = "18L"
	_, err = uc.Execute(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.True(t, errors.Is(err, domain.ErrUnknownRunway))
	assert.Equal(t, 0, weather.calls)
}

func TestExecute_WeatherCancelled(t *testing.T) {
	weather := &fakeWeather{err: context.Canceled}
	uc := NewStudyUseCase(NewSessionFromData(testReference(), nil), weather, &fakeGoArounds{})

	_, err := uc.Execute(context.Background(), validRequest())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSession_LoadsOnceAndSnapshots(t *testing.T) {
	loaders := &fakeLoaders{ref: testReference(), arrivals: testArrivals()}
	path := filepath.Join(t.TempDir(), "session.msgpack.zst")

	s := NewSession(loaders, loaders, WithSnapshot(path, time.Hour))
	ref, err := s.Reference(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"LEMD"}, ref.Airports())

	_, err = s.Arrivals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaders.loads)

	snap, err := cache.Load(path, time.Hour)
	require.NoError(t, err)
	assert.Len(t, snap.Arrivals, 2)

	// A second session starts from the snapshot.
	again := NewSession(loaders, loaders, WithSnapshot(path, time.Hour))
	arrivals, err := again.Arrivals(context.Background())
	require.NoError(t, err)
	assert.Len(t, arrivals, 2)
	assert.Equal(t, 1, loaders.loads)
}

func TestAirportsAndRunways(t *testing.T) {
	uc := NewStudyUseCase(NewSessionFromData(testReference(), nil), &fakeWeather{}, &fakeGoArounds{})

	airports, err := uc.Airports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"LEMD"}, airports)

	runways, err := uc.Runways(context.Background(), "lemd")
	require.NoError(t, err)
	assert.Equal(t, "32L,14R", strings.Join(runways, ","))
}
