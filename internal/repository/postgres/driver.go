package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

const driverColumns = `d.id, d.user_id, u.name, u.gender, d.rating, d.rating_count, d.is_available,
	d.verified, d.background_check_passed, d.day_fixed_charge, d.night_fixed_charge,
	d.night_start, d.night_end, d.latitude, d.longitude, d.location_label, d.experience_years,
	d.license_number, d.updated_at`

const driverFrom = ` FROM drivers d JOIN users u ON u.id = d.user_id`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

var _ repository.DriverRepository = (*DriverRepository)(nil)

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(q Querier) *DriverRepository {
	return &DriverRepository{q: q}
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + driverFrom + ` WHERE d.id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a driver and locks the driver row.
func (r *DriverRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + driverFrom + ` WHERE d.id = $1 FOR UPDATE OF d`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByUserID retrieves the driver profile of a user.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + driverFrom + ` WHERE d.user_id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, userID))
}

// ListCandidates retrieves drivers matching the filter, highest rated first.
func (r *DriverRepository) ListCandidates(ctx context.Context, filter repository.CandidateFilter) ([]*domain.Driver, error) {
	where, args := candidateWhere(filter, false)
	query := `SELECT ` + driverColumns + driverFrom + where + ` ORDER BY d.rating DESC, d.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// Update updates availability, location and rating fields.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers
		SET rating = $1, rating_count = $2, is_available = $3, latitude = $4, longitude = $5,
			location_label = $6, updated_at = $7
		WHERE id = $8
	`

	lat, lng := coordArgs(driver.Location)
	res, err := r.q.ExecContext(ctx, query,
		driver.Rating,
		driver.RatingCount,
		driver.IsAvailable,
		lat, lng,
		driver.LocationLabel,
		driver.UpdatedAt,
		driver.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// candidateWhere builds the WHERE clause shared by driver and vehicle
// candidate queries. Vehicle queries exclude by vehicle ID.
func candidateWhere(f repository.CandidateFilter, vehicles bool) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.FemaleOnly {
		add("u.gender = $%d", domain.GenderFemale)
	}
	if f.MinRating > 0 {
		add("d.rating >= $%d", f.MinRating)
	}
	if f.Strict {
		conds = append(conds, "d.is_available", "d.verified", "d.background_check_passed")
	}
	if vehicles {
		if f.VehicleType != "" {
			add("v.vehicle_type = $%d", f.VehicleType)
		}
		if f.Transmission != "" {
			add("v.transmission = $%d", f.Transmission)
		}
		if f.FuelType != "" {
			add("v.fuel_type = $%d", f.FuelType)
		}
		conds = append(conds, "v.active")
		if f.Strict {
			conds = append(conds, "v.verified")
		}
	}
	if len(f.ExcludeIDs) > 0 {
		col := "d.id"
		if vehicles {
			col = "v.id"
		}
		add("NOT ("+col+"::text = ANY($%d))", pq.Array(f.ExcludeIDs))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanDriver(row scanner) (*domain.Driver, error) {
	var d domain.Driver
	var lat, lng sql.NullFloat64

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Gender,
		&d.Rating,
		&d.RatingCount,
		&d.IsAvailable,
		&d.Verified,
		&d.BackgroundCheckPassed,
		&d.DayFixedCharge,
		&d.NightFixedCharge,
		&d.NightStart,
		&d.NightEnd,
		&lat, &lng,
		&d.LocationLabel,
		&d.ExperienceYears,
		&d.LicenseNumber,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	d.Location = coordFrom(lat, lng)
	return &d, nil
}
