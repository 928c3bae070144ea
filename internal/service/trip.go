package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
	"drivemate/internal/fare"
	"drivemate/internal/repository"
	"drivemate/internal/routing"
)

// RideEndedMessage is returned to the driver once a ride is closed.
const RideEndedMessage = "Ride ended. Payment pending."

// TripService handles the driver side of a ride once it has been accepted.
type TripService struct {
	store  repository.Store
	router routing.Provider
	fares  *fare.Calculator
	log    logrus.FieldLogger
}

// NewTripService creates a new TripService.
func NewTripService(store repository.Store, router routing.Provider, fares *fare.Calculator, log logrus.FieldLogger) *TripService {
	return &TripService{
		store:  store,
		router: router,
		fares:  fares,
		log:    log,
	}
}

// StartRide marks the accepted request as consumed and the ride as ongoing.
func (s *TripService) StartRide(ctx context.Context, p domain.Principal, requestID string) (*domain.Ride, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}
	existing, err := ownedRequest(ctx, repos.Requests, driver, requestID)
	if err != nil {
		return nil, err
	}

	var ride *domain.Ride
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ride, err = repos.Rides.GetByIDForUpdate(ctx, existing.RideID)
		if err != nil {
			return err
		}
		req, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestStatusAccepted || req.Consumed {
			return ErrRequestNotAccepted
		}
		if ride.Status != domain.RideStatusAccepted || !domain.CanTransition(ride.Status, domain.RideStatusOngoing) {
			return ErrRideNotAccepted
		}

		now := time.Now()
		req.Consumed = true
		req.ConsumedAt = &now
		if err := repos.Requests.Update(ctx, req); err != nil {
			return err
		}

		ride.Status = domain.RideStatusOngoing
		if ride.StartTime.IsZero() {
			ride.StartTime = now
		}
		ride.UpdatedAt = now
		return repos.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"ride_id": ride.ID, "driver_id": driver.ID}).Info("ride started")
	return ride, nil
}

// EndRideRequest contains the driver's ride-end inputs.
type EndRideRequest struct {
	AdditionalCharges string // decimal amount; empty means zero
	ReturnTrip        bool
}

// EndRideResult is a completed ride with the route it was billed on.
type EndRideResult struct {
	Ride    *domain.Ride
	Route   routing.Route
	Message string
}

// EndRide closes an ongoing ride: it resolves the route, records distance
// and duration, and computes the final fare.
func (s *TripService) EndRide(ctx context.Context, p domain.Principal, requestID string, req EndRideRequest) (*EndRideResult, error) {
	additional, err := parseAdditionalCharges(req.AdditionalCharges)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}
	existing, err := ownedRequest(ctx, repos.Requests, driver, requestID)
	if err != nil {
		return nil, err
	}
	current, err := repos.Rides.GetByID(ctx, existing.RideID)
	if err != nil {
		return nil, err
	}
	if !current.HasAllCoordinates() {
		return nil, ErrMissingCoordinates
	}

	// The provider may call out over the network, so it runs before any row is locked.
	route, err := s.router.Route(ctx, current.Start, current.End)
	if err != nil {
		return nil, invalid(err)
	}

	var ride *domain.Ride
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ride, err = repos.Rides.GetByIDForUpdate(ctx, existing.RideID)
		if err != nil {
			return err
		}
		rq, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if ride.Ended() {
			return ErrRideAlreadyEnded
		}
		if rq.Status != domain.RequestStatusAccepted || !rq.Consumed || ride.Status != domain.RideStatusOngoing {
			return ErrRideNotStarted
		}

		rateDriver, vehicle, err := rateCard(ctx, repos, ride)
		if err != nil {
			return err
		}

		now := time.Now()
		km := math.Round(route.DistanceKm*100) / 100
		minutes := int(route.DurationMin)
		ride.ActualDistanceKm = &km
		ride.ActualDurationMin = &minutes
		ride.EndTime = &now

		s.fares.Calculate(ride, rateDriver, vehicle)
		s.fares.Finalize(ride, req.ReturnTrip, additional)

		ride.Status = domain.RideStatusCompleted
		ride.UpdatedAt = now
		return repos.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":      ride.ID,
		"distance_km":  *ride.ActualDistanceKm,
		"route_source": route.Source,
		"total":        ride.Total().String(),
	}).Info("ride ended")

	return &EndRideResult{Ride: ride, Route: route, Message: RideEndedMessage}, nil
}

// PreviewRoute returns the rounded route of the request's ride without
// touching any state.
func (s *TripService) PreviewRoute(ctx context.Context, p domain.Principal, requestID string) (routing.Route, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return routing.Route{}, err
	}
	req, err := ownedRequest(ctx, repos.Requests, driver, requestID)
	if err != nil {
		return routing.Route{}, err
	}
	ride, err := repos.Rides.GetByID(ctx, req.RideID)
	if err != nil {
		return routing.Route{}, err
	}
	if !ride.HasAllCoordinates() {
		return routing.Route{}, ErrMissingCoordinates
	}

	route, err := s.router.Route(ctx, ride.Start, ride.End)
	if err != nil {
		return routing.Route{}, invalid(err)
	}
	return route.Rounded(), nil
}

func parseAdditionalCharges(s string) (domain.Money, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	m, err := domain.ParseMoney(s)
	if err != nil || m < 0 {
		return 0, ErrInvalidAdditionalCharges
	}
	return m, nil
}

// rateCard loads the driver and vehicle a ride is priced from. Either may be
// nil when the ride has no such assignment.
func rateCard(ctx context.Context, repos repository.Repositories, ride *domain.Ride) (*domain.Driver, *domain.Vehicle, error) {
	var driver *domain.Driver
	var vehicle *domain.Vehicle
	var err error
	if ride.DriverID != "" {
		if driver, err = repos.Drivers.GetByID(ctx, ride.DriverID); err != nil {
			return nil, nil, err
		}
	}
	if ride.VehicleID != "" {
		if vehicle, err = repos.Vehicles.GetByID(ctx, ride.VehicleID); err != nil {
			return nil, nil, err
		}
	}
	return driver, vehicle, nil
}
