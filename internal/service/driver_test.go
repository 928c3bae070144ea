package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

func TestSetAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver("1", 4.5, nil)

	d, err := f.drivers.SetAvailability(ctx, driverPrincipal("1"), nil)
	require.NoError(t, err)
	assert.False(t, d.IsAvailable, "nil toggles")

	d, err = f.drivers.SetAvailability(ctx, driverPrincipal("1"), nil)
	require.NoError(t, err)
	assert.True(t, d.IsAvailable)

	off := false
	d, err = f.drivers.SetAvailability(ctx, driverPrincipal("1"), &off)
	require.NoError(t, err)
	assert.False(t, d.IsAvailable)

	profile, err := f.drivers.Profile(ctx, driverPrincipal("1"))
	require.NoError(t, err)
	assert.False(t, profile.IsAvailable)

	_, err = f.drivers.SetAvailability(ctx, customer, &off)
	assert.ErrorIs(t, err, ErrDriverOnly)

	_, err = f.drivers.Profile(ctx, driverPrincipal("9"))
	assert.ErrorIs(t, err, ErrNoDriverProfile)
}

func TestUpdateLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDriver("1", 4.5, nil)

	d, err := f.drivers.UpdateLocation(ctx, driverPrincipal("1"), UpdateLocationRequest{Lat: 12.98, Lng: 77.6, Label: " Indiranagar "})
	require.NoError(t, err)
	require.NotNil(t, d.Location)
	assert.Equal(t, domain.Coordinate{Lat: 12.98, Lng: 77.6}, *d.Location)
	assert.Equal(t, "Indiranagar", d.LocationLabel)

	_, err = f.drivers.UpdateLocation(ctx, driverPrincipal("1"), UpdateLocationRequest{Lat: 12.98, Lng: 181})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	ride := f.createRide(t, domain.RideModeDriverOnly, "")
	got, err := f.matching.ListCandidates(ctx, customer, ride.ID, CandidateQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].DistanceKm, 0.2, "candidates rank on the stored location")
}

func TestPublicProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.addDriver("1", 4.6, nil)
	d.ExperienceYears = 7
	d.LicenseNumber = "KA0120190001111"
	f.store.AddDriver(d)

	offline := f.addDriver("2", 4.9, nil)
	offline.IsAvailable = false
	f.store.AddDriver(offline)

	unverified := f.addDriver("3", 4.9, nil)
	unverified.Verified = false
	f.store.AddDriver(unverified)

	got, err := f.drivers.PublicProfile(ctx, customer, "drv-1")
	require.NoError(t, err)
	assert.Equal(t, "Driver 1", got.Name)
	assert.Equal(t, 4.6, got.Rating)
	assert.Equal(t, 7, got.ExperienceYears)
	assert.Equal(t, "KA0120190001111", got.LicenseNumber)

	for _, id := range []string{"drv-2", "drv-3", "drv-missing"} {
		_, err := f.drivers.PublicProfile(ctx, customer, id)
		assert.ErrorIs(t, err, repository.ErrNotFound, id)
	}

	_, err = f.drivers.PublicProfile(ctx, driverPrincipal("1"), "drv-1")
	assert.ErrorIs(t, err, ErrCustomerOnly)
}
