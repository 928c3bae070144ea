package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

const vehicleColumns = `v.id, v.registration_number, v.make, v.model, v.vehicle_type, v.transmission,
	v.fuel_type, v.per_km_rate, v.per_min_rate, v.verified, v.active, v.current_driver_id`

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(q Querier) *VehicleRepository {
	return &VehicleRepository{q: q}
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles v WHERE v.id = $1`
	return scanVehicle(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a vehicle and locks its row.
func (r *VehicleRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles v WHERE v.id = $1 FOR UPDATE`
	return scanVehicle(r.q.QueryRowContext(ctx, query, id))
}

// FirstEligibleForDriverForUpdate locks the driver's lowest-ID active, verified vehicle.
func (r *VehicleRepository) FirstEligibleForDriverForUpdate(ctx context.Context, driverID string) (*domain.Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + ` FROM vehicles v
		WHERE v.current_driver_id = $1 AND v.active AND v.verified
		ORDER BY v.id
		LIMIT 1
		FOR UPDATE
	`
	return scanVehicle(r.q.QueryRowContext(ctx, query, driverID))
}

// ListCandidates retrieves vehicles with an assigned driver matching the filter.
func (r *VehicleRepository) ListCandidates(ctx context.Context, filter repository.CandidateFilter) ([]repository.VehicleCandidate, error) {
	where, args := candidateWhere(filter, true)
	query := `SELECT ` + vehicleColumns + `, ` + driverColumns + `
		FROM vehicles v
		JOIN drivers d ON d.id = v.current_driver_id
		JOIN users u ON u.id = d.user_id` + where + `
		ORDER BY d.rating DESC, v.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.VehicleCandidate
	for rows.Next() {
		var v domain.Vehicle
		var d domain.Driver
		var currentDriver sql.NullString
		var lat, lng sql.NullFloat64
		if err := rows.Scan(
			&v.ID, &v.RegistrationNumber, &v.Make, &v.Model, &v.Type, &v.Transmission,
			&v.FuelType, &v.PerKmRate, &v.PerMinRate, &v.Verified, &v.Active, &currentDriver,
			&d.ID, &d.UserID, &d.Name, &d.Gender, &d.Rating, &d.RatingCount, &d.IsAvailable,
			&d.Verified, &d.BackgroundCheckPassed, &d.DayFixedCharge, &d.NightFixedCharge,
			&d.NightStart, &d.NightEnd, &lat, &lng, &d.LocationLabel, &d.ExperienceYears,
			&d.LicenseNumber, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		v.CurrentDriverID = currentDriver.String
		d.Location = coordFrom(lat, lng)
		out = append(out, repository.VehicleCandidate{Vehicle: &v, Driver: &d})
	}
	return out, rows.Err()
}

func scanVehicle(row scanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var currentDriver sql.NullString

	err := row.Scan(
		&v.ID,
		&v.RegistrationNumber,
		&v.Make,
		&v.Model,
		&v.Type,
		&v.Transmission,
		&v.FuelType,
		&v.PerKmRate,
		&v.PerMinRate,
		&v.Verified,
		&v.Active,
		&currentDriver,
	)
	if err != nil {
		return nil, mapError(err)
	}
	v.CurrentDriverID = currentDriver.String
	return &v, nil
}
