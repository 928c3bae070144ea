package postgres

import (
	"context"
	"database/sql"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

const rideColumns = `id, customer_id, driver_id, vehicle_id, mode, start_location, end_location,
	start_lat, start_lng, end_lat, end_lng, start_time, end_time, status, female_driver_preference,
	purpose_id, actual_distance_km, actual_duration_min, return_trip, additional_charges,
	base_fare, tax_amount, discount_amount, total_amount, created_at, updated_at`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

var _ repository.RideRepository = (*RideRepository)(nil)

// NewRideRepository creates a ride repository over a pool or a transaction.
func NewRideRepository(q Querier) *RideRepository {
	return &RideRepository{q: q}
}

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	startLat, startLng := coordArgs(ride.Start)
	endLat, endLng := coordArgs(ride.End)

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.CustomerID,
		nullString(ride.DriverID),
		nullString(ride.VehicleID),
		ride.Mode,
		ride.StartLocation,
		ride.EndLocation,
		startLat, startLng,
		endLat, endLng,
		ride.StartTime,
		nullTime(ride.EndTime),
		ride.Status,
		ride.FemaleDriverPreference,
		nullString(ride.PurposeID),
		nullFloat(ride.ActualDistanceKm),
		nullInt(ride.ActualDurationMin),
		ride.ReturnTrip,
		ride.AdditionalCharges,
		ride.BaseFare,
		ride.TaxAmount,
		ride.DiscountAmount,
		nullMoney(ride.TotalAmount),
		ride.CreatedAt,
		ride.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a ride and locks its row.
func (r *RideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`
	return scanRide(r.q.QueryRowContext(ctx, query, id))
}

// ListByCustomer retrieves a customer's rides, newest first.
func (r *RideRepository) ListByCustomer(ctx context.Context, customerID string, status domain.RideStatus) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE customer_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, customerID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// Update updates every mutable column of a ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET driver_id = $1, vehicle_id = $2, start_time = $3, end_time = $4, status = $5,
			actual_distance_km = $6, actual_duration_min = $7, return_trip = $8, additional_charges = $9,
			base_fare = $10, tax_amount = $11, discount_amount = $12, total_amount = $13, updated_at = $14
		WHERE id = $15
	`

	res, err := r.q.ExecContext(ctx, query,
		nullString(ride.DriverID),
		nullString(ride.VehicleID),
		ride.StartTime,
		nullTime(ride.EndTime),
		ride.Status,
		nullFloat(ride.ActualDistanceKm),
		nullInt(ride.ActualDurationMin),
		ride.ReturnTrip,
		ride.AdditionalCharges,
		ride.BaseFare,
		ride.TaxAmount,
		ride.DiscountAmount,
		nullMoney(ride.TotalAmount),
		ride.UpdatedAt,
		ride.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func scanRide(row scanner) (*domain.Ride, error) {
	var ride domain.Ride
	var driverID, vehicleID, purposeID sql.NullString
	var startLat, startLng, endLat, endLng, distance sql.NullFloat64
	var duration, total sql.NullInt64
	var endTime sql.NullTime

	err := row.Scan(
		&ride.ID,
		&ride.CustomerID,
		&driverID,
		&vehicleID,
		&ride.Mode,
		&ride.StartLocation,
		&ride.EndLocation,
		&startLat, &startLng,
		&endLat, &endLng,
		&ride.StartTime,
		&endTime,
		&ride.Status,
		&ride.FemaleDriverPreference,
		&purposeID,
		&distance,
		&duration,
		&ride.ReturnTrip,
		&ride.AdditionalCharges,
		&ride.BaseFare,
		&ride.TaxAmount,
		&ride.DiscountAmount,
		&total,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	ride.DriverID = driverID.String
	ride.VehicleID = vehicleID.String
	ride.PurposeID = purposeID.String
	ride.Start = coordFrom(startLat, startLng)
	ride.End = coordFrom(endLat, endLng)
	ride.EndTime = timePtr(endTime)
	if distance.Valid {
		d := distance.Float64
		ride.ActualDistanceKm = &d
	}
	if duration.Valid {
		m := int(duration.Int64)
		ride.ActualDurationMin = &m
	}
	if total.Valid {
		t := domain.Money(total.Int64)
		ride.TotalAmount = &t
	}
	return &ride, nil
}
