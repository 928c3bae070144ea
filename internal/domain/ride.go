package domain

import (
	"math"
	"time"
)

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusOngoing   RideStatus = "ongoing"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// RideMode selects how a ride is priced.
type RideMode string

const (
	// RideModeDriverOnly is a flat day or night fixed fare for a driver driving the customer's car.
	RideModeDriverOnly RideMode = "driver_only"
	// RideModeCarWithDriver is metered by distance and duration on the driver's vehicle.
	RideModeCarWithDriver RideMode = "car_with_driver"
)

// ParseRideMode returns the mode for s, defaulting to car_with_driver for
// empty or unknown values.
func ParseRideMode(s string) RideMode {
	switch RideMode(s) {
	case RideModeDriverOnly:
		return RideModeDriverOnly
	default:
		return RideModeCarWithDriver
	}
}

// allowedRideTransitions lists every legal status change of a ride.
var allowedRideTransitions = map[RideStatus][]RideStatus{
	RideStatusRequested: {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:  {RideStatusOngoing, RideStatusCancelled, RideStatusRequested},
	RideStatusOngoing:   {RideStatusCompleted},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to RideStatus) bool {
	for _, s := range allowedRideTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActive reports whether a ride still occupies its driver.
func (s RideStatus) IsActive() bool {
	return s == RideStatusRequested || s == RideStatusAccepted || s == RideStatusOngoing
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is finite and within range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Ride represents one trip engagement between a customer and a driver.
type Ride struct {
	ID                     string
	CustomerID             string
	DriverID               string // empty until a request is accepted
	VehicleID              string // empty for driver_only rides
	Mode                   RideMode
	StartLocation          string
	EndLocation            string
	Start                  *Coordinate
	End                    *Coordinate
	StartTime              time.Time
	EndTime                *time.Time
	Status                 RideStatus
	FemaleDriverPreference bool
	PurposeID              string
	ActualDistanceKm       *float64
	ActualDurationMin      *int
	ReturnTrip             bool
	AdditionalCharges      Money
	BaseFare               Money
	TaxAmount              Money
	DiscountAmount         Money
	TotalAmount            *Money
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasAllCoordinates reports whether both endpoints carry coordinates.
func (r *Ride) HasAllCoordinates() bool {
	return r.Start != nil && r.End != nil
}

// Ended reports whether the ride has been closed by its driver.
func (r *Ride) Ended() bool {
	return r.EndTime != nil
}

// Total returns the computed total, or zero if it has not been computed.
func (r *Ride) Total() Money {
	if r.TotalAmount == nil {
		return 0
	}
	return *r.TotalAmount
}

// ClearAssignment drops the driver and vehicle references.
func (r *Ride) ClearAssignment() {
	r.DriverID = ""
	r.VehicleID = ""
}

// RidePurpose is a reference label a customer may attach to a ride.
type RidePurpose struct {
	ID   string
	Slug string
	Name string
}
