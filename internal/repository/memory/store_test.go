package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Rides.Create(ctx, &domain.Ride{ID: "ride-1", CustomerID: "c-1", Status: domain.RideStatusRequested}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Repos().Rides.GetByID(ctx, "ride-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_ = repos.Rides.Create(ctx, &domain.Ride{ID: "ride-1"})
			panic("boom")
		})
	})

	_, err := s.Repos().Rides.GetByID(ctx, "ride-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestCreateDuplicate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repos()

	require.NoError(t, repos.Requests.Create(ctx, &domain.RideRequest{ID: "rq-1", RideID: "ride-1", DriverID: "drv-1"}))
	err := repos.Requests.Create(ctx, &domain.RideRequest{ID: "rq-2", RideID: "ride-1", DriverID: "drv-1"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestAutoCancelSkipsExcludedAndOtherStatuses(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repos()
	now := time.Now()

	for _, rq := range []domain.RideRequest{
		{ID: "rq-1", RideID: "ride-1", DriverID: "d1", Status: domain.RequestStatusPending},
		{ID: "rq-2", RideID: "ride-1", DriverID: "d2", Status: domain.RequestStatusPending},
		{ID: "rq-3", RideID: "ride-1", DriverID: "d3", Status: domain.RequestStatusRejected},
		{ID: "rq-4", RideID: "ride-2", DriverID: "d1", Status: domain.RequestStatusPending},
	} {
		rq := rq
		require.NoError(t, repos.Requests.Create(ctx, &rq))
	}

	n, err := repos.Requests.AutoCancel(ctx, "ride-1", domain.RequestStatusPending, "rq-1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rq2, _ := repos.Requests.GetByID(ctx, "rq-2")
	assert.Equal(t, domain.RequestStatusAutoCancelled, rq2.Status)
	rq1, _ := repos.Requests.GetByID(ctx, "rq-1")
	assert.Equal(t, domain.RequestStatusPending, rq1.Status)
	rq4, _ := repos.Requests.GetByID(ctx, "rq-4")
	assert.Equal(t, domain.RequestStatusPending, rq4.Status)
}

func TestVehicleCandidatesAndFirstEligible(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.AddDriver(&domain.Driver{ID: "d1", Rating: 4.2, IsAvailable: true, Verified: true, BackgroundCheckPassed: true})
	s.AddDriver(&domain.Driver{ID: "d2", Rating: 4.8, Gender: domain.GenderFemale})
	s.AddVehicle(&domain.Vehicle{ID: "v-b", CurrentDriverID: "d1", Active: true, Verified: true, Type: domain.VehicleTypeSedan})
	s.AddVehicle(&domain.Vehicle{ID: "v-a", CurrentDriverID: "d1", Active: true, Verified: true, Type: domain.VehicleTypeSedan})
	s.AddVehicle(&domain.Vehicle{ID: "v-c", CurrentDriverID: "d2", Active: true, Type: domain.VehicleTypeSUV})
	s.AddVehicle(&domain.Vehicle{ID: "v-d", Active: true})

	repos := s.Repos()
	strict, err := repos.Vehicles.ListCandidates(ctx, repository.CandidateFilter{Strict: true})
	require.NoError(t, err)
	require.Len(t, strict, 2)
	assert.Equal(t, "v-a", strict[0].Vehicle.ID)

	loose, err := repos.Vehicles.ListCandidates(ctx, repository.CandidateFilter{ExcludeIDs: []string{"v-a"}})
	require.NoError(t, err)
	require.Len(t, loose, 2)
	assert.Equal(t, "v-c", loose[0].Vehicle.ID, "higher rated driver first")
	assert.Equal(t, "v-b", loose[1].Vehicle.ID)

	v, err := repos.Vehicles.FirstEligibleForDriverForUpdate(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "v-a", v.ID)

	_, err = repos.Vehicles.FirstEligibleForDriverForUpdate(ctx, "d9")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRatingUniquePerRide(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repos()

	require.NoError(t, repos.Ratings.Create(ctx, &domain.Rating{ID: "r1", RideID: "ride-1", DriverID: "d1", Score: 4}))
	assert.ErrorIs(t, repos.Ratings.Create(ctx, &domain.Rating{ID: "r2", RideID: "ride-1", DriverID: "d1", Score: 5}), repository.ErrDuplicate)
	require.NoError(t, repos.Ratings.Create(ctx, &domain.Rating{ID: "r3", RideID: "ride-2", DriverID: "d1", Score: 5}))

	avg, n, err := repos.Ratings.DriverAverage(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 4.5, avg, 1e-9)
}
