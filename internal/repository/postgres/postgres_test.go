package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var (
	rideCols = []string{
		"id", "customer_id", "driver_id", "vehicle_id", "mode", "start_location", "end_location",
		"start_lat", "start_lng", "end_lat", "end_lng", "start_time", "end_time", "status",
		"female_driver_preference", "purpose_id", "actual_distance_km", "actual_duration_min",
		"return_trip", "additional_charges", "base_fare", "tax_amount", "discount_amount",
		"total_amount", "created_at", "updated_at",
	}
	requestCols = []string{"id", "ride_id", "driver_id", "status", "consumed", "consumed_at", "requested_at", "responded_at"}
)

func rideRow(id, status string, total driver.Value) []driver.Value {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "cust-1", "drv-1", nil, "driver_only", "Home", "Office",
		12.97, 77.59, 12.93, 77.62, now, nil, status,
		false, nil, nil, nil,
		false, int64(0), int64(10000), int64(500), int64(0),
		total, now, now,
	}
}

func TestRideRepository_GetByIDForUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1 FOR UPDATE")).
		WithArgs("ride-1").
		WillReturnRows(sqlmock.NewRows(rideCols).AddRow(rideRow("ride-1", "accepted", int64(10500))...))

	ride, err := repo.GetByIDForUpdate(context.Background(), "ride-1")
	require.NoError(t, err)

	assert.Equal(t, "ride-1", ride.ID)
	assert.Equal(t, domain.RideStatusAccepted, ride.Status)
	assert.Equal(t, domain.RideModeDriverOnly, ride.Mode)
	assert.Equal(t, "drv-1", ride.DriverID)
	assert.Empty(t, ride.VehicleID)
	require.NotNil(t, ride.Start)
	assert.Equal(t, 12.97, ride.Start.Lat)
	require.NotNil(t, ride.TotalAmount)
	assert.Equal(t, domain.Money(10500), *ride.TotalAmount)
	assert.Nil(t, ride.EndTime)
	assert.Nil(t, ride.ActualDistanceKm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(rideCols))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRideRepository_UpdateNoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE rides")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Ride{ID: "ride-1", Status: domain.RideStatusCancelled})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRideRequestRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ride_requests")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ride_requests_ride_driver_key"})

	err := repo.Create(context.Background(), &domain.RideRequest{ID: "rq-1", RideID: "ride-1", DriverID: "drv-1", Status: domain.RequestStatusPending, RequestedAt: time.Now()})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestRideRequestRepository_AutoCancel(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRequestRepository(db)
	at := time.Now()

	mock.ExpectExec(`UPDATE ride_requests\s+SET status = \$1, responded_at = \$2\s+WHERE ride_id = \$3 AND status = \$4`).
		WithArgs("auto_cancelled", at, "ride-1", "pending", "rq-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.AutoCancel(context.Background(), "ride-1", domain.RequestStatusPending, "rq-1", at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRideRequestRepository_HasActiveForDriver(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("drv-1", "accepted", "requested", "accepted", "ongoing", "rq-9").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasActiveForDriver(context.Background(), "drv-1", "rq-9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRideRequestRepository_HasActiveForDriverPropagatesErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRideRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WillReturnError(errors.New("connection reset"))

	_, err := repo.HasActiveForDriver(context.Background(), "drv-1", "")
	assert.EqualError(t, err, "connection reset")
}

func TestPaymentRepository_SumSuccessfulForRide(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM payments WHERE ride_id = $1 AND status = $2")).
		WithArgs("ride-1", "success").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(26250)))

	sum, err := repo.SumSuccessfulForRide(context.Background(), "ride-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(26250), sum)
}

func TestCandidateWhere(t *testing.T) {
	where, args := candidateWhere(repository.CandidateFilter{
		FemaleOnly:  true,
		MinRating:   4,
		Strict:      true,
		VehicleType: domain.VehicleTypeSedan,
		ExcludeIDs:  []string{"v-1"},
	}, true)

	assert.Equal(t, " WHERE u.gender = $1 AND d.rating >= $2 AND d.is_available AND d.verified AND d.background_check_passed"+
		" AND v.vehicle_type = $3 AND v.active AND v.verified AND NOT (v.id::text = ANY($4))", where)
	require.Len(t, args, 4)
	assert.Equal(t, "female", args[0])

	where, args = candidateWhere(repository.CandidateFilter{}, false)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestStore_WithinTxLocksRideThenRequestAndCommits(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = $1 FOR UPDATE")).
		WithArgs("ride-1").
		WillReturnRows(sqlmock.NewRows(rideCols).AddRow(rideRow("ride-1", "requested", nil)...))
	mock.ExpectQuery(regexp.QuoteMeta("FROM ride_requests WHERE id = $1 FOR UPDATE")).
		WithArgs("rq-1").
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow("rq-1", "ride-1", "drv-1", "pending", false, nil, time.Now(), nil))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Rides.GetByIDForUpdate(ctx, "ride-1"); err != nil {
			return err
		}
		_, err := repos.Requests.GetByIDForUpdate(ctx, "rq-1")
		return err
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ride_requests")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Requests.AutoCancel(ctx, "ride-1", domain.RequestStatusPending, "", time.Now()); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ADD COLUMN IF NOT EXISTS experience_years")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_ListByDriverNewestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRatingRepository(db)

	cols := []string{"id", "ride_id", "customer_id", "driver_id", "vehicle_id", "score", "feedback", "created_at"}
	later := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	earlier := later.Add(-24 * time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("FROM ratings WHERE driver_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs("drv-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("rt-2", "ride-2", "cust-1", "drv-1", "veh-1", 4, "", later).
			AddRow("rt-1", "ride-1", "cust-1", "drv-1", nil, 5, "smooth", earlier))

	ratings, err := repo.ListByDriver(context.Background(), "drv-1")
	require.NoError(t, err)
	require.Len(t, ratings, 2)
	assert.Equal(t, "rt-2", ratings[0].ID)
	assert.Equal(t, "veh-1", ratings[0].VehicleID)
	assert.Equal(t, "", ratings[1].VehicleID)
	assert.Equal(t, "smooth", ratings[1].Feedback)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_GetByRideNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRatingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ratings WHERE ride_id = $1")).
		WithArgs("ride-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByRide(context.Background(), "ride-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverRepository_GetByIDReadsProfileDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDriverRepository(db)

	cols := []string{
		"id", "user_id", "name", "gender", "rating", "rating_count", "is_available", "verified",
		"background_check_passed", "day_fixed_charge", "night_fixed_charge", "night_start", "night_end",
		"latitude", "longitude", "location_label", "experience_years", "license_number", "updated_at",
	}
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM drivers d JOIN users u ON u.id = d.user_id WHERE d.id = $1")).
		WithArgs("drv-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"drv-1", "user-1", "Ravi", "male", 4.8, 120, true, true,
			true, int64(10000), int64(15000), "18:00", "06:00",
			nil, nil, "", 8, "KA0120150012345", now,
		))

	d, err := repo.GetByID(context.Background(), "drv-1")
	require.NoError(t, err)
	assert.Equal(t, 8, d.ExperienceYears)
	assert.Equal(t, "KA0120150012345", d.LicenseNumber)
	assert.Nil(t, d.Location)
	assert.Equal(t, domain.Rupees(100), d.DayFixedCharge)
	assert.NoError(t, mock.ExpectationsWereMet())
}
