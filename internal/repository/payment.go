package repository

import (
	"context"

	"drivemate/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByIDForUpdate retrieves a payment under an exclusive lock.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error)

	// SumSuccessfulForRide totals the successful payments of a ride.
	SumSuccessfulForRide(ctx context.Context, rideID string) (domain.Money, error)

	// ListByCustomer retrieves a customer's payments, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Payment, error)

	// ListByDriver retrieves payments on rides driven by the driver, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Payment, error)

	// Update updates an existing payment.
	Update(ctx context.Context, payment *domain.Payment) error
}

// RatingRepository defines the persistence operations for ratings.
type RatingRepository interface {
	// Create persists a rating. Returns ErrDuplicate if the ride is already rated.
	Create(ctx context.Context, rating *domain.Rating) error

	// GetByRide retrieves the rating of a ride.
	GetByRide(ctx context.Context, rideID string) (*domain.Rating, error)

	// ListByDriver retrieves a driver's ratings, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.Rating, error)

	// DriverAverage returns the mean score and number of ratings of a driver.
	DriverAverage(ctx context.Context, driverID string) (float64, int, error)
}
