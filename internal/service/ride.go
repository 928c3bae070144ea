package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

// RideService handles the customer side of the ride lifecycle.
type RideService struct {
	store repository.Store
	log   logrus.FieldLogger
}

// NewRideService creates a new RideService.
func NewRideService(store repository.Store, log logrus.FieldLogger) *RideService {
	return &RideService{
		store: store,
		log:   log,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
type CreateRideRequest struct {
	StartLocation          string
	EndLocation            string
	Start                  *domain.Coordinate
	End                    *domain.Coordinate
	Mode                   string // Optional: defaults to car_with_driver
	StartTime              string // Optional RFC3339: defaults to now
	FemaleDriverPreference bool
	PurposeID              string
}

// RideDetail is a ride as seen by one viewer. Requests and Rating are only
// filled for the ride's customer.
type RideDetail struct {
	Ride     *domain.Ride
	Requests []*domain.RideRequest
	Rating   *domain.Rating
}

// CreateRide creates a ride in the requested state.
func (s *RideService) CreateRide(ctx context.Context, p domain.Principal, req CreateRideRequest) (*domain.Ride, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	startTime := now
	if req.StartTime != "" {
		t, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return nil, ErrInvalidStartTime
		}
		startTime = t
	}

	repos := s.store.Repos()
	if req.PurposeID != "" {
		if _, err := repos.Purposes.GetByID(ctx, req.PurposeID); err != nil {
			return nil, err
		}
	}

	start, end := *req.Start, *req.End
	ride := &domain.Ride{
		ID:                     uuid.New().String(),
		CustomerID:             p.UserID,
		Mode:                   domain.ParseRideMode(req.Mode),
		StartLocation:          strings.TrimSpace(req.StartLocation),
		EndLocation:            strings.TrimSpace(req.EndLocation),
		Start:                  &start,
		End:                    &end,
		StartTime:              startTime,
		Status:                 domain.RideStatusRequested,
		FemaleDriverPreference: req.FemaleDriverPreference,
		PurposeID:              req.PurposeID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	if err := repos.Rides.Create(ctx, ride); err != nil {
		return nil, err
	}
	return ride, nil
}

func validateCreateRequest(req CreateRideRequest) error {
	if strings.TrimSpace(req.StartLocation) == "" || strings.TrimSpace(req.EndLocation) == "" {
		return ErrMissingLocations
	}
	if req.Start == nil || req.End == nil {
		return ErrMissingCoordinates
	}
	if !req.Start.Valid() || !req.End.Valid() {
		return ErrInvalidCoordinates
	}
	return nil
}

// GetRide returns a ride to its customer, its assigned driver, or any
// driver holding a request on it.
func (s *RideService) GetRide(ctx context.Context, p domain.Principal, rideID string) (*RideDetail, error) {
	repos := s.store.Repos()

	ride, err := repos.Rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsCustomer() && ride.CustomerID == p.UserID:
		requests, err := repos.Requests.ListByRide(ctx, ride.ID)
		if err != nil {
			return nil, err
		}
		detail := &RideDetail{Ride: ride, Requests: requests}
		if ride.Status == domain.RideStatusCompleted {
			rating, err := repos.Ratings.GetByRide(ctx, ride.ID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
			detail.Rating = rating
		}
		return detail, nil

	case p.IsDriver():
		driver, err := resolveDriver(ctx, repos.Drivers, p)
		if err != nil {
			return nil, err
		}
		if ride.DriverID == driver.ID {
			return &RideDetail{Ride: ride}, nil
		}
		_, err = repos.Requests.GetByRideAndDriver(ctx, ride.ID, driver.ID)
		if err == nil {
			return &RideDetail{Ride: ride}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	return nil, repository.ErrNotFound
}

// ListRides returns the customer's rides, newest first, optionally filtered by status.
func (s *RideService) ListRides(ctx context.Context, p domain.Principal, status string) ([]*domain.Ride, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	st := domain.RideStatus(status)
	switch st {
	case "", domain.RideStatusRequested, domain.RideStatusAccepted, domain.RideStatusOngoing,
		domain.RideStatusCompleted, domain.RideStatusCancelled:
	default:
		return nil, ErrInvalidRideStatus
	}
	return s.store.Repos().Rides.ListByCustomer(ctx, p.UserID, st)
}

// ListPurposes returns the selectable ride purposes.
func (s *RideService) ListPurposes(ctx context.Context) ([]*domain.RidePurpose, error) {
	return s.store.Repos().Purposes.List(ctx)
}

// CancelRide cancels a requested or accepted ride and auto-cancels its
// pending requests.
func (s *RideService) CancelRide(ctx context.Context, p domain.Principal, rideID string) (*domain.Ride, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	var ride *domain.Ride
	var cancelled int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ride, err = lockOwnedRide(ctx, repos, p, rideID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(ride.Status, domain.RideStatusCancelled) {
			return ErrRideCannotBeCancelled
		}

		now := time.Now()
		ride.ClearAssignment()
		ride.Status = domain.RideStatusCancelled
		ride.UpdatedAt = now
		if err := repos.Rides.Update(ctx, ride); err != nil {
			return err
		}

		cancelled, err = repos.Requests.AutoCancel(ctx, ride.ID, domain.RequestStatusPending, "", now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":        ride.ID,
		"auto_cancelled": cancelled,
	}).Info("ride cancelled")
	return ride, nil
}

// ReopenRide puts an accepted ride back to requested, releasing its driver.
func (s *RideService) ReopenRide(ctx context.Context, p domain.Principal, rideID string) (*domain.Ride, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	var ride *domain.Ride
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ride, err = lockOwnedRide(ctx, repos, p, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusAccepted {
			return ErrRideCannotBeReopened
		}

		now := time.Now()
		if _, err := repos.Requests.AutoCancel(ctx, ride.ID, domain.RequestStatusAccepted, "", now); err != nil {
			return err
		}

		ride.ClearAssignment()
		ride.Status = domain.RideStatusRequested
		ride.UpdatedAt = now
		return repos.Rides.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("ride_id", ride.ID).Info("ride reopened")
	return ride, nil
}

// CloseRequest withdraws one pending request from the customer's ride.
func (s *RideService) CloseRequest(ctx context.Context, p domain.Principal, requestID string) (*domain.RideRequest, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	existing, err := s.store.Repos().Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var req *domain.RideRequest
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := lockOwnedRide(ctx, repos, p, existing.RideID); err != nil {
			return err
		}

		var err error
		req, err = repos.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestStatusPending {
			return ErrRequestNotPending
		}

		req.Respond(domain.RequestStatusAutoCancelled, time.Now())
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// lockOwnedRide locks a ride and checks that the customer owns it.
func lockOwnedRide(ctx context.Context, repos repository.Repositories, p domain.Principal, rideID string) (*domain.Ride, error) {
	ride, err := repos.Rides.GetByIDForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return ownedRide(ride, p)
}

// ownedRide returns ErrNotFound for another customer's ride.
func ownedRide(ride *domain.Ride, p domain.Principal) (*domain.Ride, error) {
	if ride.CustomerID != p.UserID {
		return nil, repository.ErrNotFound
	}
	return ride, nil
}
