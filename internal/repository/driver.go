package repository

import (
	"context"

	"drivemate/internal/domain"
)

// CandidateFilter narrows the drivers or vehicles offered for a ride.
type CandidateFilter struct {
	FemaleOnly   bool
	MinRating    float64
	VehicleType  domain.VehicleType
	Transmission domain.Transmission
	FuelType     domain.FuelType

	// Strict additionally requires availability, verification and a passed
	// background check, and for vehicles an active, verified vehicle. When
	// Strict is false vehicles must still be active.
	Strict bool

	// ExcludeIDs skips these driver IDs (or vehicle IDs for vehicle queries).
	ExcludeIDs []string

	// Limit caps the result. Zero means no limit.
	Limit int
}

// VehicleCandidate is a vehicle together with the driver currently assigned to it.
type VehicleCandidate struct {
	Vehicle *domain.Vehicle
	Driver  *domain.Driver
}

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByIDForUpdate retrieves a driver under an exclusive lock.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Driver, error)

	// GetByUserID retrieves the driver profile of a user.
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)

	// ListCandidates retrieves drivers matching the filter, highest rated first.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*domain.Driver, error)

	// Update updates availability, location and rating fields.
	Update(ctx context.Context, driver *domain.Driver) error
}

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetByIDForUpdate retrieves a vehicle under an exclusive lock.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error)

	// FirstEligibleForDriverForUpdate locks and returns the active, verified
	// vehicle currently assigned to the driver with the lowest ID.
	FirstEligibleForDriverForUpdate(ctx context.Context, driverID string) (*domain.Vehicle, error)

	// ListCandidates retrieves vehicles with an assigned driver matching the
	// filter, ordered by driver rating descending.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]VehicleCandidate, error)
}
