package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivemate/internal/domain"
	"drivemate/internal/logger"
	"drivemate/internal/repository"
	"drivemate/internal/routing"
	"drivemate/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrMissingLocations, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", service.ErrInvalidScore), http.StatusBadRequest},
		{routing.ErrInvalidCoordinates, http.StatusBadRequest},
		{routing.ErrMissingCoordinates, http.StatusBadRequest},
		{service.ErrNotRequestOwner, http.StatusForbidden},
		{service.ErrDriverOnly, http.StatusForbidden},
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrRequestNotPending, http.StatusConflict},
		{repository.ErrDuplicate, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, mapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	log, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(logger.GinMiddleware(log))
	r.GET("/boom", func(c *gin.Context) {
		respondError(c, errors.New("pq: relation \"rides\" does not exist"))
	})
	r.GET("/conflict", func(c *gin.Context) {
		respondError(c, service.ErrRideAlreadyPaid)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Message == "request failed" {
			logged = true
			assert.Equal(t, "/boom", e.Data["path"])
		}
	}
	assert.True(t, logged, "internal error should be logged")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"ride already paid"}`, w.Body.String())
}

func TestHandlersWithoutIdentity(t *testing.T) {
	h := NewTripHandler(nil)

	r := gin.New()
	r.POST("/start/:id", h.StartRide)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/start/req-1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChargesString(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{nil, "", true},
		{"50", "50", true},
		{12.5, "12.5", true},
		{float64(0), "0", true},
		{true, "", false},
		{map[string]any{}, "", false},
	}
	for _, tt := range tests {
		got, ok := chargesString(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestToCandidateResponses(t *testing.T) {
	out := toCandidateResponses([]service.Candidate{
		{Driver: &domain.Driver{ID: "a"}, DistanceKm: 1.23456},
		{Driver: &domain.Driver{ID: "b"}, DistanceKm: math.Inf(1), AlreadyRequested: true},
	})
	require.Len(t, out, 2)
	require.NotNil(t, out[0].DistanceKm)
	assert.Equal(t, 1.23, *out[0].DistanceKm)
	assert.Nil(t, out[1].DistanceKm)
	assert.True(t, out[1].AlreadyRequested)

	b, err := json.Marshal(out[1])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"distance_km":null`)
}

func TestToRideResponse_Money(t *testing.T) {
	total := domain.Money(26250)
	km := 12.35
	ride := &domain.Ride{
		ID:                "ride-1",
		Mode:              domain.RideModeCarWithDriver,
		Status:            domain.RideStatusCompleted,
		ActualDistanceKm:  &km,
		BaseFare:          domain.Money(25000),
		AdditionalCharges: domain.Rupees(50),
		TotalAmount:       &total,
	}

	b, err := json.Marshal(toRideResponse(ride))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 262.5, got["total_amount"])
	assert.Equal(t, 50.0, got["additional_charges"])
	assert.Equal(t, 12.35, got["actual_distance_km"])
	assert.NotContains(t, got, "end_time")
	assert.NotContains(t, got, "start")
}
