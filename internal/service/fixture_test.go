package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
	"drivemate/internal/fare"
	"drivemate/internal/repository/memory"
	"drivemate/internal/routing"
)

var (
	customer      = domain.Principal{UserID: "cust-1", Role: domain.RoleCustomer}
	otherCustomer = domain.Principal{UserID: "cust-2", Role: domain.RoleCustomer}
)

func driverPrincipal(n string) domain.Principal {
	return domain.Principal{UserID: "user-" + n, Role: domain.RoleDriver}
}

// stubRouter returns a fixed route and counts calls.
type stubRouter struct {
	route routing.Route
	err   error
	calls int
}

func (r *stubRouter) Route(_ context.Context, from, to *domain.Coordinate) (routing.Route, error) {
	r.calls++
	if r.err != nil {
		return routing.Route{}, r.err
	}
	if from == nil || to == nil {
		return routing.Route{}, routing.ErrMissingCoordinates
	}
	return r.route, nil
}

type fixture struct {
	store    *memory.Store
	router   *stubRouter
	hook     *test.Hook
	log      *logrus.Logger
	rides    *RideService
	matching *MatchingService
	trips    *TripService
	payments *PaymentService
	receipts *ReceiptService
	ratings  *RatingService
	drivers  *DriverService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	store := memory.NewStore()
	router := &stubRouter{route: routing.Route{DistanceKm: 10, DurationMin: 20, Source: routing.SourceOSRM}}
	calc := fare.NewCalculator(time.UTC)

	f := &fixture{
		store:    store,
		router:   router,
		hook:     hook,
		log:      log,
		rides:    NewRideService(store, log),
		matching: NewMatchingService(store, nil, nil, MatchingOptions{}, log),
		trips:    NewTripService(store, router, calc, log),
		payments: NewPaymentService(store, calc, NewSimulatedPSP(), log),
		receipts: NewReceiptService(store),
		ratings:  NewRatingService(store, log),
		drivers:  NewDriverService(store, log),
	}
	return f
}

// addDriver seeds an available, verified driver "drv-<n>" owned by "user-<n>".
func (f *fixture) addDriver(n string, rating float64, loc *domain.Coordinate) *domain.Driver {
	d := &domain.Driver{
		ID:                    "drv-" + n,
		UserID:                "user-" + n,
		Name:                  "Driver " + n,
		Gender:                domain.GenderMale,
		Rating:                rating,
		IsAvailable:           true,
		Verified:              true,
		BackgroundCheckPassed: true,
		DayFixedCharge:        domain.Rupees(100),
		NightFixedCharge:      domain.Rupees(150),
		Location:              loc,
	}
	f.store.AddDriver(d)
	return d
}

// addVehicle seeds an active, verified vehicle at 15/km and 2/min.
func (f *fixture) addVehicle(id, driverID string) *domain.Vehicle {
	v := &domain.Vehicle{
		ID:                 id,
		RegistrationNumber: "KA01-" + id,
		Type:               domain.VehicleTypeSedan,
		Transmission:       domain.TransmissionManual,
		FuelType:           domain.FuelPetrol,
		PerKmRate:          domain.Rupees(15),
		PerMinRate:         domain.Rupees(2),
		Active:             true,
		Verified:           true,
		CurrentDriverID:    driverID,
	}
	f.store.AddVehicle(v)
	return v
}

func (f *fixture) createRide(t *testing.T, mode domain.RideMode, startTime string) *domain.Ride {
	t.Helper()
	ride, err := f.rides.CreateRide(context.Background(), customer, CreateRideRequest{
		StartLocation: "MG Road",
		EndLocation:   "Airport",
		Start:         &domain.Coordinate{Lat: 12.9716, Lng: 77.5946},
		End:           &domain.Coordinate{Lat: 13.1986, Lng: 77.7066},
		Mode:          string(mode),
		StartTime:     startTime,
	})
	require.NoError(t, err)
	return ride
}

func (f *fixture) request(t *testing.T, rideID, driverID string) *domain.RideRequest {
	t.Helper()
	req, err := f.matching.RequestDriver(context.Background(), customer, rideID, driverID)
	require.NoError(t, err)
	return req
}

// acceptAndStart arbitrates req for driver n and marks the ride ongoing.
func (f *fixture) acceptAndStart(t *testing.T, n string, req *domain.RideRequest) {
	t.Helper()
	ctx := context.Background()
	_, err := f.matching.AcceptRequest(ctx, driverPrincipal(n), req.ID, "")
	require.NoError(t, err)
	_, err = f.trips.StartRide(ctx, driverPrincipal(n), req.ID)
	require.NoError(t, err)
}

func (f *fixture) requestStatus(t *testing.T, id string) domain.RequestStatus {
	t.Helper()
	req, err := f.store.Repos().Requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	return req.Status
}

func (f *fixture) loggedMessages() []string {
	var out []string
	for _, e := range f.hook.AllEntries() {
		out = append(out, e.Message)
	}
	return out
}
