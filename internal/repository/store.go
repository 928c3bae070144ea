package repository

import "context"

// Repositories groups every repository bound to the same connection or transaction.
type Repositories struct {
	Rides    RideRepository
	Requests RideRequestRepository
	Drivers  DriverRepository
	Vehicles VehicleRepository
	Payments PaymentRepository
	Ratings  RatingRepository
	Purposes PurposeRepository
}

// Transactor runs fn inside a single transaction. The repositories passed
// to fn are bound to that transaction; ForUpdate reads hold their locks
// until fn returns. Any error returned by fn rolls the transaction back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store gives access to non-transactional repositories and transactions.
type Store interface {
	Transactor
	Repos() Repositories
}
