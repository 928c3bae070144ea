package repository

import (
	"context"
	"time"

	"drivemate/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIDForUpdate retrieves a ride and holds an exclusive lock on it
	// until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// ListByCustomer retrieves a customer's rides, newest first. An empty
	// status matches every status.
	ListByCustomer(ctx context.Context, customerID string, status domain.RideStatus) ([]*domain.Ride, error)

	// Update updates an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error
}

// RideRequestRepository defines the persistence operations for ride requests.
type RideRequestRepository interface {
	// Create persists a new request. Returns ErrDuplicate if the driver
	// already has a request on the ride.
	Create(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// GetByIDForUpdate retrieves a request under an exclusive lock.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.RideRequest, error)

	// GetByRideAndDriver retrieves the request a driver holds on a ride.
	GetByRideAndDriver(ctx context.Context, rideID, driverID string) (*domain.RideRequest, error)

	// HasConsumedForRide reports whether the ride's accepted request has been consumed.
	HasConsumedForRide(ctx context.Context, rideID string) (bool, error)

	// HasActiveForDriver reports whether the driver holds an accepted request,
	// other than excludeID, whose ride is still requested, accepted or ongoing.
	HasActiveForDriver(ctx context.Context, driverID, excludeID string) (bool, error)

	// ListByRide retrieves all requests of a ride, oldest first.
	ListByRide(ctx context.Context, rideID string) ([]*domain.RideRequest, error)

	// ListByDriver retrieves a driver's requests, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.RideRequest, error)

	// AutoCancel moves every request of the ride that is in status, other
	// than exceptID, to auto_cancelled. Returns the number of rows changed.
	AutoCancel(ctx context.Context, rideID string, status domain.RequestStatus, exceptID string, at time.Time) (int64, error)

	// Update updates an existing request.
	Update(ctx context.Context, req *domain.RideRequest) error
}

// PurposeRepository reads ride purposes.
type PurposeRepository interface {
	// List retrieves all purposes ordered by name.
	List(ctx context.Context) ([]*domain.RidePurpose, error)

	// GetByID retrieves a purpose by ID.
	GetByID(ctx context.Context, id string) (*domain.RidePurpose, error)
}
