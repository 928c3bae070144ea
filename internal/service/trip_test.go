package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
	"drivemate/internal/routing"
)

func TestEndRide_Fares(t *testing.T) {
	tests := []struct {
		name      string
		mode      domain.RideMode
		startTime string
		req       EndRideRequest
		wantBase  domain.Money
		wantTax   domain.Money
		wantTotal domain.Money
	}{
		{
			name:      "driver_only day charge",
			mode:      domain.RideModeDriverOnly,
			startTime: "2026-03-14T10:00:00Z",
			wantBase:  10000,
			wantTax:   500,
			wantTotal: 10500,
		},
		{
			name:      "driver_only night charge",
			mode:      domain.RideModeDriverOnly,
			startTime: "2026-03-14T22:00:00Z",
			wantBase:  15000,
			wantTax:   750,
			wantTotal: 15750,
		},
		{
			name:      "car_with_driver distance and time",
			mode:      domain.RideModeCarWithDriver,
			startTime: "2026-03-14T10:00:00Z",
			wantBase:  19000,
			wantTax:   950,
			wantTotal: 19950,
		},
		{
			name:      "return trip with additional charges",
			mode:      domain.RideModeDriverOnly,
			startTime: "2026-03-14T10:00:00Z",
			req:       EndRideRequest{ReturnTrip: true, AdditionalCharges: "50"},
			wantBase:  25000,
			wantTax:   1250,
			wantTotal: 26250,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addDriver("1", 4.5, nil)
			f.addVehicle("v-1", "drv-1")
			ride := f.createRide(t, tt.mode, tt.startTime)
			req := f.request(t, ride.ID, "drv-1")
			f.acceptAndStart(t, "1", req)

			res, err := f.trips.EndRide(context.Background(), driverPrincipal("1"), req.ID, tt.req)
			require.NoError(t, err)

			assert.Equal(t, RideEndedMessage, res.Message)
			assert.Equal(t, domain.RideStatusCompleted, res.Ride.Status)
			assert.Equal(t, tt.wantBase, res.Ride.BaseFare)
			assert.Equal(t, tt.wantTax, res.Ride.TaxAmount)
			assert.Equal(t, tt.wantTotal, res.Ride.Total())
			require.NotNil(t, res.Ride.ActualDistanceKm)
			assert.Equal(t, 10.0, *res.Ride.ActualDistanceKm)
			require.NotNil(t, res.Ride.ActualDurationMin)
			assert.Equal(t, 20, *res.Ride.ActualDurationMin)
			assert.NotNil(t, res.Ride.EndTime)
			assert.Equal(t, tt.req.ReturnTrip, res.Ride.ReturnTrip)
		})
	}
}

func TestEndRide_RoundsDistanceAndTruncatesMinutes(t *testing.T) {
	f := newFixture(t)
	f.router.route = routing.Route{DistanceKm: 12.3456, DurationMin: 18.9, Source: routing.SourceHaversine}
	f.addDriver("1", 4.5, nil)
	ride := f.createRide(t, domain.RideModeDriverOnly, "")
	req := f.request(t, ride.ID, "drv-1")
	f.acceptAndStart(t, "1", req)

	res, err := f.trips.EndRide(context.Background(), driverPrincipal("1"), req.ID, EndRideRequest{})
	require.NoError(t, err)
	assert.Equal(t, 12.35, *res.Ride.ActualDistanceKm)
	assert.Equal(t, 18, *res.Ride.ActualDurationMin)
	assert.Equal(t, routing.SourceHaversine, res.Route.Source)
}

func TestEndRide_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid additional charges", func(t *testing.T) {
		f := newFixture(t)
		f.addDriver("1", 4.5, nil)
		ride := f.createRide(t, domain.RideModeDriverOnly, "")
		req := f.request(t, ride.ID, "drv-1")
		f.acceptAndStart(t, "1", req)

		for _, charges := range []string{"abc", "-5", "90000000000000000"} {
			_, err := f.trips.EndRide(ctx, driverPrincipal("1"), req.ID, EndRideRequest{AdditionalCharges: charges})
			assert.ErrorIs(t, err, ErrInvalidAdditionalCharges, charges)
		}
		assert.Zero(t, f.router.calls, "input is rejected before routing")
	})

	t.Run("not started", func(t *testing.T) {
		f := newFixture(t)
		f.addDriver("1", 4.5, nil)
		ride := f.createRide(t, domain.RideModeDriverOnly, "")
		req := f.request(t, ride.ID, "drv-1")
		_, err := f.matching.AcceptRequest(ctx, driverPrincipal("1"), req.ID, "")
		require.NoError(t, err)

		_, err = f.trips.EndRide(ctx, driverPrincipal("1"), req.ID, EndRideRequest{})
		assert.ErrorIs(t, err, ErrRideNotStarted)
	})

	t.Run("ended twice", func(t *testing.T) {
		f := newFixture(t)
		f.addDriver("1", 4.5, nil)
		ride := f.createRide(t, domain.RideModeDriverOnly, "")
		req := f.request(t, ride.ID, "drv-1")
		f.acceptAndStart(t, "1", req)

		first, err := f.trips.EndRide(ctx, driverPrincipal("1"), req.ID, EndRideRequest{})
		require.NoError(t, err)

		_, err = f.trips.EndRide(ctx, driverPrincipal("1"), req.ID, EndRideRequest{AdditionalCharges: "10"})
		assert.ErrorIs(t, err, ErrRideAlreadyEnded)

		stored, err := f.store.Repos().Rides.GetByID(ctx, ride.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Ride.Total(), stored.Total(), "the second end changes nothing")
	})

	t.Run("routing failure", func(t *testing.T) {
		f := newFixture(t)
		f.router.err = routing.ErrMissingCoordinates
		f.addDriver("1", 4.5, nil)
		ride := f.createRide(t, domain.RideModeDriverOnly, "")
		req := f.request(t, ride.ID, "drv-1")
		f.acceptAndStart(t, "1", req)

		_, err := f.trips.EndRide(ctx, driverPrincipal("1"), req.ID, EndRideRequest{})
		assert.ErrorIs(t, err, ErrValidation)
		assert.True(t, errors.Is(err, routing.ErrMissingCoordinates))

		stored, err := f.store.Repos().Rides.GetByID(ctx, ride.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RideStatusOngoing, stored.Status)
	})

	t.Run("another driver's request", func(t *testing.T) {
		f := newFixture(t)
		f.addDriver("1", 4.5, nil)
		f.addDriver("2", 4.5, nil)
		ride := f.createRide(t, domain.RideModeDriverOnly, "")
		req := f.request(t, ride.ID, "drv-1")
		f.acceptAndStart(t, "1", req)

		_, err := f.trips.EndRide(ctx, driverPrincipal("2"), req.ID, EndRideRequest{})
		assert.ErrorIs(t, err, ErrNotRequestOwner)
	})
}

func TestStartRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver("1", 4.5, nil)
	f.addDriver("2", 4.5, nil)
	ride := f.createRide(t, domain.RideModeDriverOnly, "")
	r1 := f.request(t, ride.ID, "drv-1")
	r2 := f.request(t, ride.ID, "drv-2")

	_, err := f.trips.StartRide(ctx, driverPrincipal("1"), r1.ID)
	assert.ErrorIs(t, err, ErrRequestNotAccepted, "pending requests cannot start")

	_, err = f.matching.AcceptRequest(ctx, driverPrincipal("1"), r1.ID, "")
	require.NoError(t, err)

	_, err = f.trips.StartRide(ctx, driverPrincipal("2"), r2.ID)
	assert.ErrorIs(t, err, ErrRequestNotAccepted, "auto-cancelled requests cannot start")

	started, err := f.trips.StartRide(ctx, driverPrincipal("1"), r1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RideStatusOngoing, started.Status)

	stored, err := f.store.Repos().Requests.GetByID(ctx, r1.ID)
	require.NoError(t, err)
	assert.True(t, stored.Consumed)
	assert.NotNil(t, stored.ConsumedAt)

	_, err = f.trips.StartRide(ctx, driverPrincipal("1"), r1.ID)
	assert.ErrorIs(t, err, ErrRequestNotAccepted, "a consumed request cannot start again")
}

func TestPreviewRoute(t *testing.T) {
	f := newFixture(t)
	f.router.route = routing.Route{DistanceKm: 12.3456, DurationMin: 18.5183, Source: routing.SourceOSRM}
	f.addDriver("1", 4.5, nil)
	ride := f.createRide(t, domain.RideModeDriverOnly, "")
	req := f.request(t, ride.ID, "drv-1")

	route, err := f.trips.PreviewRoute(context.Background(), driverPrincipal("1"), req.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.35, route.DistanceKm)
	assert.Equal(t, 18.5, route.DurationMin)
	assert.Equal(t, routing.SourceOSRM, route.Source)

	stored, err := f.store.Repos().Rides.GetByID(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ActualDistanceKm, "preview does not persist")
}
