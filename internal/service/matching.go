package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
	"drivemate/internal/redis"
	"drivemate/internal/repository"
)

const (
	defaultDriverLockTTL = 10 * time.Second
	maxCandidates        = 20
)

// MatchingOptions tunes the matching service. Zero values use the defaults.
type MatchingOptions struct {
	DriverLockTTL     time.Duration
	CandidateCacheTTL time.Duration
}

// MatchingService surfaces candidate drivers and arbitrates ride requests.
type MatchingService struct {
	store      repository.Store
	lockStore  redis.LockStoreInterface
	cacheStore redis.CandidateCacheInterface
	opts       MatchingOptions
	log        logrus.FieldLogger
}

// NewMatchingService creates a new MatchingService. lockStore and cacheStore
// may be nil, in which case the accept guard and the candidate cache are skipped.
func NewMatchingService(
	store repository.Store,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CandidateCacheInterface,
	opts MatchingOptions,
	log logrus.FieldLogger,
) *MatchingService {
	if opts.DriverLockTTL <= 0 {
		opts.DriverLockTTL = defaultDriverLockTTL
	}
	if opts.CandidateCacheTTL <= 0 {
		opts.CandidateCacheTTL = redis.DefaultCandidateTTL
	}
	return &MatchingService{
		store:      store,
		lockStore:  lockStore,
		cacheStore: cacheStore,
		opts:       opts,
		log:        log,
	}
}

// RequestDriver records the customer's selection of a driver for a ride.
// A previously rejected request is reset to pending.
func (s *MatchingService) RequestDriver(ctx context.Context, p domain.Principal, rideID, driverID string) (*domain.RideRequest, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if driverID == "" {
		return nil, ErrMissingDriverID
	}

	var req *domain.RideRequest
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := lockOwnedRide(ctx, repos, p, rideID)
		if err != nil {
			return err
		}
		if ride.Status != domain.RideStatusRequested {
			return ErrRideNotAvailable
		}
		if _, err := repos.Drivers.GetByID(ctx, driverID); err != nil {
			return err
		}

		now := time.Now()
		existing, err := repos.Requests.GetByRideAndDriver(ctx, ride.ID, driverID)
		switch {
		case err == nil:
			if existing.Status != domain.RequestStatusRejected {
				return ErrDriverAlreadyRequested
			}
			existing.Status = domain.RequestStatusPending
			existing.RequestedAt = now
			existing.RespondedAt = nil
			req = existing
			return repos.Requests.Update(ctx, req)

		case errors.Is(err, repository.ErrNotFound):
			req = &domain.RideRequest{
				ID:          uuid.New().String(),
				RideID:      ride.ID,
				DriverID:    driverID,
				Status:      domain.RequestStatusPending,
				RequestedAt: now,
			}
			err = repos.Requests.Create(ctx, req)
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDriverAlreadyRequested
			}
			return err

		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// AcceptResult is the outcome of a successful arbitration.
type AcceptResult struct {
	Ride          *domain.Ride
	Request       *domain.RideRequest
	AutoCancelled int64
}

// AcceptRequest lets a driver accept their pending request. Exactly one
// request per ride can win: the ride, request, driver and vehicle rows are
// locked in that order, and every sibling pending request is auto-cancelled
// in the same transaction.
func (s *MatchingService) AcceptRequest(ctx context.Context, p domain.Principal, requestID, vehicleID string) (*AcceptResult, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}
	existing, err := ownedRequest(ctx, repos.Requests, driver, requestID)
	if err != nil {
		return nil, err
	}

	if s.lockStore != nil {
		token, ok, err := s.lockStore.AcquireDriverLock(ctx, driver.ID, s.opts.DriverLockTTL)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("driver_id", driver.ID).Warn("driver lock unavailable, relying on row locks")
		case !ok:
			return nil, ErrAcceptInProgress
		default:
			defer func() {
				if err := s.lockStore.ReleaseDriverLock(context.WithoutCancel(ctx), driver.ID, token); err != nil {
					s.log.WithError(err).WithField("driver_id", driver.ID).Warn("failed to release driver lock")
				}
			}()
		}
	}

	var result AcceptResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByIDForUpdate(ctx, existing.RideID)
		if err != nil {
			return err
		}
		req, err := repos.Requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if _, err := repos.Drivers.GetByIDForUpdate(ctx, driver.ID); err != nil {
			return err
		}

		busy, err := repos.Requests.HasActiveForDriver(ctx, driver.ID, req.ID)
		if err != nil {
			return err
		}
		if busy {
			return ErrDriverHasActiveRide
		}
		if ride.Status != domain.RideStatusRequested {
			return ErrRideNotAvailable
		}
		if req.Status != domain.RequestStatusPending {
			return ErrRequestNotPending
		}

		assigned := ""
		if ride.Mode == domain.RideModeCarWithDriver {
			vehicle, err := lockVehicle(ctx, repos.Vehicles, driver.ID, vehicleID)
			if err != nil {
				return err
			}
			assigned = vehicle.ID
		}

		now := time.Now()
		req.Respond(domain.RequestStatusAccepted, now)
		if err := repos.Requests.Update(ctx, req); err != nil {
			return err
		}

		ride.DriverID = driver.ID
		ride.VehicleID = assigned
		ride.Status = domain.RideStatusAccepted
		ride.UpdatedAt = now
		if err := repos.Rides.Update(ctx, ride); err != nil {
			return err
		}

		n, err := repos.Requests.AutoCancel(ctx, ride.ID, domain.RequestStatusPending, req.ID, now)
		if err != nil {
			return err
		}

		result = AcceptResult{Ride: ride, Request: req, AutoCancelled: n}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"ride_id":        result.Ride.ID,
		"request_id":     result.Request.ID,
		"driver_id":      driver.ID,
		"vehicle_id":     result.Ride.VehicleID,
		"auto_cancelled": result.AutoCancelled,
	}).Info("ride accepted")
	return &result, nil
}

// lockVehicle resolves the vehicle for a car_with_driver accept. An explicit
// vehicleID must be eligible; otherwise the driver's lowest-id eligible
// vehicle is used.
func lockVehicle(ctx context.Context, vehicles repository.VehicleRepository, driverID, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID != "" {
		v, err := vehicles.GetByIDForUpdate(ctx, vehicleID)
		if err != nil {
			return nil, err
		}
		if !v.EligibleFor(driverID) {
			return nil, ErrVehicleNotEligible
		}
		return v, nil
	}

	v, err := vehicles.FirstEligibleForDriverForUpdate(ctx, driverID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoEligibleVehicle
	}
	return v, err
}

// RejectRequest lets a driver decline their pending request.
func (s *MatchingService) RejectRequest(ctx context.Context, p domain.Principal, requestID string) (*domain.RideRequest, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}
	existing, err := ownedRequest(ctx, repos.Requests, driver, requestID)
	if err != nil {
		return nil, err
	}

	var req *domain.RideRequest
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Rides.GetByIDForUpdate(ctx, existing.RideID); err != nil {
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
		req.Respond(domain.RequestStatusRejected, time.Now())
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RequestWithRide is a request together with the ride it targets.
type RequestWithRide struct {
	Request *domain.RideRequest
	Ride    *domain.Ride
}

// DriverRequests is a driver's request inbox.
type DriverRequests struct {
	Items         []RequestWithRide
	HasActiveRide bool
}

// ListDriverRequests returns the driver's requests, newest first.
func (s *MatchingService) ListDriverRequests(ctx context.Context, p domain.Principal) (*DriverRequests, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}

	requests, err := repos.Requests.ListByDriver(ctx, driver.ID)
	if err != nil {
		return nil, err
	}

	out := &DriverRequests{Items: make([]RequestWithRide, 0, len(requests))}
	for _, req := range requests {
		ride, err := repos.Rides.GetByID(ctx, req.RideID)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, RequestWithRide{Request: req, Ride: ride})
	}

	out.HasActiveRide, err = repos.Requests.HasActiveForDriver(ctx, driver.ID, "")
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetRequest returns one of the driver's requests with its ride.
func (s *MatchingService) GetRequest(ctx context.Context, p domain.Principal, requestID string) (*RequestWithRide, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}
	req, err := ownedRequest(ctx, repos.Requests, driver, requestID)
	if err != nil {
		return nil, err
	}
	ride, err := repos.Rides.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	return &RequestWithRide{Request: req, Ride: ride}, nil
}
