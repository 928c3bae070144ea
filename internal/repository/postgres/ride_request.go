package postgres

import (
	"context"
	"database/sql"
	"time"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

const requestColumns = `id, ride_id, driver_id, status, consumed, consumed_at, requested_at, responded_at`

// RideRequestRepository is a PostgreSQL implementation of repository.RideRequestRepository.
type RideRequestRepository struct {
	q Querier
}

var _ repository.RideRequestRepository = (*RideRequestRepository)(nil)

// NewRideRequestRepository creates a new PostgreSQL ride request repository.
func NewRideRequestRepository(q Querier) *RideRequestRepository {
	return &RideRequestRepository{q: q}
}

// Create persists a new request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `INSERT INTO ride_requests (` + requestColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.RideID,
		req.DriverID,
		req.Status,
		req.Consumed,
		nullTime(req.ConsumedAt),
		req.RequestedAt,
		nullTime(req.RespondedAt),
	)
	return mapError(err)
}

// GetByID retrieves a request by ID.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE id = $1`
	return scanRequest(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a request and locks its row.
func (r *RideRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE id = $1 FOR UPDATE`
	return scanRequest(r.q.QueryRowContext(ctx, query, id))
}

// GetByRideAndDriver retrieves the request a driver holds on a ride.
func (r *RideRequestRepository) GetByRideAndDriver(ctx context.Context, rideID, driverID string) (*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE ride_id = $1 AND driver_id = $2`
	return scanRequest(r.q.QueryRowContext(ctx, query, rideID, driverID))
}

// HasConsumedForRide reports whether the ride's accepted request has been consumed.
func (r *RideRequestRepository) HasConsumedForRide(ctx context.Context, rideID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ride_requests WHERE ride_id = $1 AND status = $2 AND consumed)`

	var ok bool
	err := r.q.QueryRowContext(ctx, query, rideID, domain.RequestStatusAccepted).Scan(&ok)
	return ok, err
}

// HasActiveForDriver reports whether the driver is already committed to a live ride.
func (r *RideRequestRepository) HasActiveForDriver(ctx context.Context, driverID, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ride_requests rr
			JOIN rides r ON r.id = rr.ride_id
			WHERE rr.driver_id = $1
			  AND rr.status = $2
			  AND r.status IN ($3, $4, $5)
			  AND ($6 = '' OR rr.id::text <> $6)
		)
	`

	var ok bool
	err := r.q.QueryRowContext(ctx, query,
		driverID,
		domain.RequestStatusAccepted,
		domain.RideStatusRequested,
		domain.RideStatusAccepted,
		domain.RideStatusOngoing,
		excludeID,
	).Scan(&ok)
	return ok, err
}

// ListByRide retrieves all requests of a ride, oldest first.
func (r *RideRequestRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE ride_id = $1 ORDER BY requested_at, id`
	return r.list(ctx, query, rideID)
}

// ListByDriver retrieves a driver's requests, newest first.
func (r *RideRequestRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE driver_id = $1 ORDER BY requested_at DESC, id LIMIT 100`
	return r.list(ctx, query, driverID)
}

// AutoCancel moves matching requests of a ride to auto_cancelled in one statement.
func (r *RideRequestRepository) AutoCancel(ctx context.Context, rideID string, status domain.RequestStatus, exceptID string, at time.Time) (int64, error) {
	query := `
		UPDATE ride_requests
		SET status = $1, responded_at = $2
		WHERE ride_id = $3 AND status = $4 AND ($5 = '' OR id::text <> $5)
	`

	res, err := r.q.ExecContext(ctx, query, domain.RequestStatusAutoCancelled, at, rideID, status, exceptID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Update updates an existing request.
func (r *RideRequestRepository) Update(ctx context.Context, req *domain.RideRequest) error {
	query := `
		UPDATE ride_requests
		SET status = $1, consumed = $2, consumed_at = $3, requested_at = $4, responded_at = $5
		WHERE id = $6
	`

	res, err := r.q.ExecContext(ctx, query,
		req.Status,
		req.Consumed,
		nullTime(req.ConsumedAt),
		req.RequestedAt,
		nullTime(req.RespondedAt),
		req.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *RideRequestRepository) list(ctx context.Context, query string, arg string) ([]*domain.RideRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.RideRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func scanRequest(row scanner) (*domain.RideRequest, error) {
	var req domain.RideRequest
	var consumedAt, respondedAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.RideID,
		&req.DriverID,
		&req.Status,
		&req.Consumed,
		&consumedAt,
		&req.RequestedAt,
		&respondedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	req.ConsumedAt = timePtr(consumedAt)
	req.RespondedAt = timePtr(respondedAt)
	return &req, nil
}
