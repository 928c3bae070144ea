// Package routing resolves road distance and duration between two points.
package routing

import (
	"context"
	"errors"
	"math"

	"drivemate/internal/domain"
)

const (
	earthRadiusKm = 6371.0

	// AverageSpeedKmh is the assumed speed used to estimate duration locally.
	AverageSpeedKmh = 40.0
)

// Source tags which path produced a route.
type Source string

const (
	SourceOSRM      Source = "osrm"
	SourceHaversine Source = "haversine"
)

var (
	// ErrMissingCoordinates is returned when either endpoint is absent.
	ErrMissingCoordinates = errors.New("missing coordinates")

	// ErrInvalidCoordinates is returned when an endpoint is out of range or not finite.
	ErrInvalidCoordinates = errors.New("invalid coordinate values")
)

// Route is a resolved distance and duration.
type Route struct {
	DistanceKm  float64
	DurationMin float64
	Source      Source
}

// Provider resolves routes. Implementations only fail on bad input.
type Provider interface {
	Route(ctx context.Context, from, to *domain.Coordinate) (Route, error)
}

// HaversineProvider estimates routes from great-circle distance.
type HaversineProvider struct{}

// Route implements Provider.
func (HaversineProvider) Route(_ context.Context, from, to *domain.Coordinate) (Route, error) {
	if err := checkPoints(from, to); err != nil {
		return Route{}, err
	}
	return haversineRoute(*from, *to), nil
}

// HaversineKm returns the great-circle distance in kilometres between a and b.
func HaversineKm(a, b domain.Coordinate) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Rounded returns the route with distance to two decimals and duration to one.
func (r Route) Rounded() Route {
	r.DistanceKm = math.Round(r.DistanceKm*100) / 100
	r.DurationMin = math.Round(r.DurationMin*10) / 10
	return r
}

func haversineRoute(from, to domain.Coordinate) Route {
	km := HaversineKm(from, to)
	return Route{
		DistanceKm:  km,
		DurationMin: km / AverageSpeedKmh * 60,
		Source:      SourceHaversine,
	}
}

func checkPoints(from, to *domain.Coordinate) error {
	if from == nil || to == nil {
		return ErrMissingCoordinates
	}
	if !from.Valid() || !to.Valid() {
		return ErrInvalidCoordinates
	}
	return nil
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
