package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/opstudy/internal/adapter/store"
	"go.ngs.io/opstudy/internal/domain"
	"go.ngs.io/opstudy/internal/metar"
	"go.ngs.io/opstudy/internal/report"
)

const (
	// MinDecisionHeightFt and MaxDecisionHeightFt bound the minima inputs.
	MinDecisionHeightFt = 100
	MaxDecisionHeightFt = 9999

	effectiveDateLayout = "January_2006"
)

// EarliestStudyDate is the first date the archives cover.
var EarliestStudyDate = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrInvalidRequest marks errors caused by the study inputs.
var ErrInvalidRequest = errors.New("invalid request")

// WeatherFetcher downloads an archive block for a station.
type WeatherFetcher interface {
	Fetch(ctx context.Context, station string, start, end time.Time) (string, error)
}

// StudyRequest encapsulates one study submission.
type StudyRequest struct {
	Airport  string
	Runway   string
	Start    time.Time
	End      time.Time
	Current  [4]float64 // decision heights per category A..D
	Proposed [4]float64

	// Optional
	Name          string
	EffectiveDate string
}

// Validate checks if the request is valid.
func (r *StudyRequest) Validate() error {
	if len(r.Airport) != 4 || strings.IndexFunc(r.Airport, func(c rune) bool {
		return (c < 'A' || c > 'Z') && (c < 'a' || c > 'z')
	}) >= 0 {
		return fmt.Errorf("airport must be a 4-letter ICAO code, got %q", r.Airport)
	}

	if _, err := domain.ParseRunway(r.Runway); err != nil {
		return err
	}

	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("both start and end dates are required")
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("end date must not be before start date")
	}
	if r.Start.Before(EarliestStudyDate) {
		return fmt.Errorf("start date must not be before %s", EarliestStudyDate.Format("2006-01-02"))
	}

	for _, c := range domain.Categories {
		if err := checkMinima("current", c, r.Current[c]); err != nil {
			return err
		}
		if err := checkMinima("proposed", c, r.Proposed[c]); err != nil {
			return err
		}
	}

	return nil
}

func checkMinima(regime string, c domain.Category, v float64) error {
	if v < MinDecisionHeightFt || v > MaxDecisionHeightFt {
		return fmt.Errorf("%s minima CAT %s must be between %d and %d ft, got %.0f",
			regime, c, MinDecisionHeightFt, MaxDecisionHeightFt, v)
	}
	return nil
}

// StudyResult is the outcome of one study run.
type StudyResult struct {
	Config    domain.StudyConfiguration
	Merged    []domain.MergedRecord
	Runway    []domain.MergedRecord
	Traffic   []domain.JoinedArrival
	GoArounds []domain.GoAroundRecord
	Warnings  []string
}

// Bundle returns the report tables of the result.
func (r *StudyResult) Bundle() report.Bundle {
	return report.Bundle{
		Config:    r.Config,
		Merged:    r.Merged,
		Runway:    r.Runway,
		Traffic:   r.Traffic,
		GoArounds: r.GoArounds,
	}
}

// StudyUseCase orchestrates a study run.
type StudyUseCase struct {
	session   *Session
	weather   WeatherFetcher
	goArounds store.GoAroundLoader
	now       func() time.Time
}

// NewStudyUseCase creates a new study use case.
func NewStudyUseCase(session *Session, weather WeatherFetcher, goArounds store.GoAroundLoader) *StudyUseCase {
	return &StudyUseCase{
		session:   session,
		weather:   weather,
		goArounds: goArounds,
		now:       time.Now,
	}
}

// Airports lists the airports available for study.
func (uc *StudyUseCase) Airports(ctx context.Context) ([]string, error) {
	ref, err := uc.session.Reference(ctx)
	if err != nil {
		return nil, err
	}
	return ref.Airports(), nil
}

// Runways lists the runways of an airport.
func (uc *StudyUseCase) Runways(ctx context.Context, airport string) ([]string, error) {
	ref, err := uc.session.Reference(ctx)
	if err != nil {
		return nil, err
	}
	return ref.Runways(strings.ToUpper(airport)), nil
}

// Execute runs the study pipeline. Only invalid input, unresolvable minima and
// session load failures return an error. Missing weather, traffic or go-around
// data yield empty tables and a warning.
func (uc *StudyUseCase) Execute(ctx context.Context, req StudyRequest) (*StudyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	airport := strings.ToUpper(req.Airport)
	rwy, _ := domain.ParseRunway(req.Runway)
	runway := rwy.String()

	ref, err := uc.session.Reference(ctx)
	if err != nil {
		return nil, err
	}
	arrivals, err := uc.session.Arrivals(ctx)
	if err != nil {
		return nil, err
	}

	minima, lighting, err := ref.BuildMinima(airport, runway, req.Current, req.Proposed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	cfg := domain.StudyConfiguration{
		ID:            uuid.NewString(),
		Airport:       airport,
		Runway:        runway,
		Lighting:      lighting,
		Start:         req.Start,
		End:           req.End,
		Current:       req.Current,
		Proposed:      req.Proposed,
		Minima:        minima,
		Name:          req.Name,
		EffectiveDate: req.EffectiveDate,
	}
	if cfg.Name == "" {
		cfg.Name = domain.RunwayKey(airport, runway)
	}
	if cfg.EffectiveDate == "" {
		cfg.EffectiveDate = uc.now().Format(effectiveDateLayout)
	}

	result := &StudyResult{Config: cfg}

	var (
		evaluated []domain.EvaluatedObservation
		traffic   domain.TrafficSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		block, err := uc.weather.Fetch(gctx, airport, req.Start, req.End)
		if err != nil {
			return fmt.Errorf("failed to fetch weather for %s: %w", airport, err)
		}
		obs, err := metar.Decode(block, runway)
		if err != nil {
			log.Printf("study %s: discarding undecodable weather block: %v", cfg.ID, err)
			obs = nil
		}
		evaluated = domain.Evaluate(domain.Derive(obs, rwy), minima)
		return nil
	})
	g.Go(func() error {
		var err error
		traffic, err = domain.Bucketize(arrivals, ref.Aircraft, airport, req.Start, req.End)
		if err != nil && !errors.Is(err, domain.ErrNoTraffic) {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(evaluated) == 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no weather data for %s in the requested range", airport))
	}
	if len(traffic.Arrivals) == 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no traffic data for %s in the requested range", airport))
	}

	result.Merged = domain.Merge(evaluated, traffic.Arrivals, traffic.Counts, airport)
	result.Runway = domain.FilterRunway(result.Merged, domain.RunwayKey(airport, runway))
	result.Traffic = traffic.Arrivals

	records, err := uc.goArounds.LoadGoArounds(ctx, airport)
	switch {
	case errors.Is(err, store.ErrNoCoverage):
		result.Warnings = append(result.Warnings, fmt.Sprintf("go-around log does not cover %s", airport))
		result.GoArounds = []domain.GoAroundRecord{}
	case err != nil:
		log.Printf("study %s: go-around log unavailable: %v", cfg.ID, err)
		result.Warnings = append(result.Warnings, "go-around log unavailable")
		result.GoArounds = []domain.GoAroundRecord{}
	default:
		result.GoArounds = domain.FilterGoArounds(records, runway, req.Start, req.End)
	}

	log.Printf("study %s: %s %d rows, %d on runway, %d arrivals, %d go-arounds, %d warnings",
		cfg.ID, cfg.Name, len(result.Merged), len(result.Runway), len(result.Traffic), len(result.GoArounds), len(result.Warnings))

	return result, nil
}
