package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := map[string]Money{
		"50":     5000,
		"12.5":   1250,
		"199.50": 19950,
		" 0.01 ": 1,
		"0":      0,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "NaN", "Inf", "90000000000000000", "-1000000000000.01"} {
		_, err := ParseMoney(bad)
		assert.ErrorIs(t, err, ErrInvalidMoney, bad)
	}
}

func TestMoneyPercentRoundsHalfUp(t *testing.T) {
	assert.Equal(t, Money(500), Rupees(100).Percent(5))
	assert.Equal(t, Money(950), Rupees(190).Percent(5))
	assert.Equal(t, Money(1250), Rupees(250).Percent(5))
	// 0.05 * 0.10 = 0.005 rounds up to 0.01
	assert.Equal(t, Money(1), Money(10).Percent(5))
	assert.Equal(t, Money(0), Money(9).Percent(5))
	assert.Equal(t, Money(-500), Rupees(-100).Percent(5))
	assert.Equal(t, Money(-1), Money(-10).Percent(5))
}

func TestMoneyLargeAmounts(t *testing.T) {
	limit, err := ParseMoney("1000000000000")
	require.NoError(t, err)
	assert.Equal(t, Money(100_000_000_000_000), limit)

	// 5% of a value whose product with 5 exceeds int64.
	big := Money(math.MaxInt64 / 4)
	tax := big.Percent(5)
	assert.Equal(t, Money(int64(big)/100*5+(int64(big)%100*5+50)/100), tax)
	assert.Positive(t, int64(tax))

	assert.Equal(t, Money(100_000_000_000_000), MoneyFromFloat(1e20))
	assert.Equal(t, Money(-100_000_000_000_000), MoneyFromFloat(-1e20))
	assert.Equal(t, Money(0), MoneyFromFloat(math.NaN()))
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{Total: 19950})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":199.50}`, string(b))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"50.25","b":12}`), &in))
	assert.Equal(t, Money(5025), in.A)
	assert.Equal(t, Money(1200), in.B)
	assert.Equal(t, "-1.05", Money(-105).String())
}

func TestParseRideModeDefaultsToCarWithDriver(t *testing.T) {
	assert.Equal(t, RideModeDriverOnly, ParseRideMode("driver_only"))
	assert.Equal(t, RideModeCarWithDriver, ParseRideMode("car_with_driver"))
	assert.Equal(t, RideModeCarWithDriver, ParseRideMode(""))
	assert.Equal(t, RideModeCarWithDriver, ParseRideMode("helicopter"))
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]RideStatus{
		{RideStatusRequested, RideStatusAccepted},
		{RideStatusRequested, RideStatusCancelled},
		{RideStatusAccepted, RideStatusOngoing},
		{RideStatusAccepted, RideStatusCancelled},
		{RideStatusAccepted, RideStatusRequested},
		{RideStatusOngoing, RideStatusCompleted},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]RideStatus{
		{RideStatusRequested, RideStatusOngoing},
		{RideStatusOngoing, RideStatusCancelled},
		{RideStatusCompleted, RideStatusRequested},
		{RideStatusCancelled, RideStatusRequested},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Lat: 12.97, Lng: 77.59}.Valid())
	assert.False(t, Coordinate{Lat: 91, Lng: 0}.Valid())
	assert.False(t, Coordinate{Lat: 0, Lng: -181}.Valid())
	assert.False(t, Coordinate{Lat: math.NaN(), Lng: 0}.Valid())
}

func TestRideRequestState(t *testing.T) {
	now := time.Now()
	req := &RideRequest{Status: RequestStatusPending}
	assert.Equal(t, "pending", req.State())

	req.Respond(RequestStatusAccepted, now)
	assert.Equal(t, "accepted", req.State())
	require.NotNil(t, req.RespondedAt)

	req.Consumed = true
	assert.Equal(t, "completed", req.State())
}

func TestPaymentValidate(t *testing.T) {
	assert.NoError(t, (&Payment{RideID: "r1"}).Validate())
	assert.NoError(t, (&Payment{SubscriptionID: "s1"}).Validate())
	assert.ErrorIs(t, (&Payment{}).Validate(), ErrPaymentTarget)
	assert.ErrorIs(t, (&Payment{RideID: "r1", SubscriptionID: "s1"}).Validate(), ErrPaymentTarget)
}
