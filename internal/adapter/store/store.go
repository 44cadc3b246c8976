// Package store defines the loaders that feed reference tables and historical
// logs into a study session.
package store

import (
	"context"
	"errors"
	"io"

	"go.ngs.io/opstudy/internal/domain"
)

var (
	// ErrNotFound is returned by an ObjectSource for a missing object.
	ErrNotFound = errors.New("object not found")

	// ErrNoCoverage is returned when a log has no data for an airport at all.
	ErrNoCoverage = errors.New("no coverage for airport")
)

// ObjectSource reads named objects from a local directory or a bucket.
// Names use forward slashes relative to the source root.
type ObjectSource interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the names under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// ReferenceLoader loads the lighting, decision-height and aircraft tables.
type ReferenceLoader interface {
	LoadReference(ctx context.Context) (*domain.ReferenceData, error)
}

// TrafficLoader loads the historical arrivals log.
type TrafficLoader interface {
	LoadArrivals(ctx context.Context) ([]domain.ArrivalRecord, error)
}

// GoAroundLoader loads the go-around log of one airport.
// It returns ErrNoCoverage when the airport has no log.
type GoAroundLoader interface {
	LoadGoArounds(ctx context.Context, airport string) ([]domain.GoAroundRecord, error)
}
