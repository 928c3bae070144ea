package postgres

import (
	"context"
	"database/sql"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

var _ repository.RatingRepository = (*RatingRepository)(nil)

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(q Querier) *RatingRepository {
	return &RatingRepository{q: q}
}

// Create persists a rating.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, ride_id, customer_id, driver_id, vehicle_id, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.RideID,
		rating.CustomerID,
		rating.DriverID,
		nullString(rating.VehicleID),
		rating.Score,
		rating.Feedback,
		rating.CreatedAt,
	)
	return mapError(err)
}

const ratingColumns = `id, ride_id, customer_id, driver_id, vehicle_id, score, feedback, created_at`

// GetByRide retrieves the rating of a ride.
func (r *RatingRepository) GetByRide(ctx context.Context, rideID string) (*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE ride_id = $1`
	return scanRating(r.q.QueryRowContext(ctx, query, rideID))
}

// ListByDriver retrieves a driver's ratings, newest first.
func (r *RatingRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE driver_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.q.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rating)
	}
	return out, rows.Err()
}

// DriverAverage returns the mean score and number of ratings of a driver.
func (r *RatingRepository) DriverAverage(ctx context.Context, driverID string) (float64, int, error) {
	query := `SELECT COALESCE(AVG(score), 0), COUNT(*) FROM ratings WHERE driver_id = $1`

	var avg float64
	var count int
	if err := r.q.QueryRowContext(ctx, query, driverID).Scan(&avg, &count); err != nil {
		return 0, 0, err
	}
	return avg, count, nil
}

func scanRating(row scanner) (*domain.Rating, error) {
	var rating domain.Rating
	var vehicleID sql.NullString
	err := row.Scan(
		&rating.ID,
		&rating.RideID,
		&rating.CustomerID,
		&rating.DriverID,
		&vehicleID,
		&rating.Score,
		&rating.Feedback,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	rating.VehicleID = vehicleID.String
	return &rating, nil
}

// PurposeRepository is a PostgreSQL implementation of repository.PurposeRepository.
type PurposeRepository struct {
	q Querier
}

var _ repository.PurposeRepository = (*PurposeRepository)(nil)

// NewPurposeRepository creates a new PostgreSQL purpose repository.
func NewPurposeRepository(q Querier) *PurposeRepository {
	return &PurposeRepository{q: q}
}

// List retrieves all purposes ordered by name.
func (r *PurposeRepository) List(ctx context.Context) ([]*domain.RidePurpose, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, slug, name FROM ride_purposes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purposes []*domain.RidePurpose
	for rows.Next() {
		var p domain.RidePurpose
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name); err != nil {
			return nil, err
		}
		purposes = append(purposes, &p)
	}
	return purposes, rows.Err()
}

// GetByID retrieves a purpose by ID.
func (r *PurposeRepository) GetByID(ctx context.Context, id string) (*domain.RidePurpose, error) {
	var p domain.RidePurpose
	err := r.q.QueryRowContext(ctx, `SELECT id, slug, name FROM ride_purposes WHERE id = $1`, id).Scan(&p.ID, &p.Slug, &p.Name)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}
