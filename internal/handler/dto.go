package handler

import (
	"math"
	"time"

	"drivemate/internal/domain"
	"drivemate/internal/routing"
	"drivemate/internal/service"
)

// CoordinateDTO is a lat/lng pair on the wire.
type CoordinateDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID                     string         `json:"id"`
	CustomerID             string         `json:"customer_id"`
	DriverID               string         `json:"driver_id,omitempty"`
	VehicleID              string         `json:"vehicle_id,omitempty"`
	Mode                   string         `json:"mode"`
	Status                 string         `json:"status"`
	StartLocation          string         `json:"start_location"`
	EndLocation            string         `json:"end_location"`
	Start                  *CoordinateDTO `json:"start,omitempty"`
	End                    *CoordinateDTO `json:"end,omitempty"`
	StartTime              string         `json:"start_time"`
	EndTime                string         `json:"end_time,omitempty"`
	FemaleDriverPreference bool           `json:"female_driver_preference"`
	PurposeID              string         `json:"purpose_id,omitempty"`
	ActualDistanceKm       *float64       `json:"actual_distance_km,omitempty"`
	ActualDurationMin      *int           `json:"actual_duration_min,omitempty"`
	ReturnTrip             bool           `json:"return_trip"`
	AdditionalCharges      domain.Money   `json:"additional_charges"`
	BaseFare               domain.Money   `json:"base_fare"`
	TaxAmount              domain.Money   `json:"tax_amount"`
	DiscountAmount         domain.Money   `json:"discount_amount"`
	TotalAmount            *domain.Money  `json:"total_amount"`
	CreatedAt              string         `json:"created_at"`
}

// RequestResponse is the HTTP representation of a ride request.
type RequestResponse struct {
	ID          string `json:"id"`
	RideID      string `json:"ride_id"`
	DriverID    string `json:"driver_id"`
	Status      string `json:"status"`
	State       string `json:"state"`
	Consumed    bool   `json:"consumed"`
	RequestedAt string `json:"requested_at"`
	RespondedAt string `json:"responded_at,omitempty"`
	ConsumedAt  string `json:"consumed_at,omitempty"`
}

// DriverResponse is the HTTP representation of a driver profile.
type DriverResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Gender           string         `json:"gender,omitempty"`
	Rating           float64        `json:"rating"`
	RatingCount      int            `json:"rating_count"`
	IsAvailable      bool           `json:"is_available"`
	Verified         bool           `json:"verified"`
	DayFixedCharge   domain.Money   `json:"day_fixed_charge"`
	NightFixedCharge domain.Money   `json:"night_fixed_charge"`
	Location         *CoordinateDTO `json:"location,omitempty"`
	LocationLabel    string         `json:"location_label,omitempty"`
}

// VehicleResponse is the HTTP representation of a vehicle.
type VehicleResponse struct {
	ID                 string       `json:"id"`
	RegistrationNumber string       `json:"registration_number"`
	Make               string       `json:"make,omitempty"`
	Model              string       `json:"model,omitempty"`
	Type               string       `json:"type"`
	Transmission       string       `json:"transmission"`
	FuelType           string       `json:"fuel_type"`
	PerKmRate          domain.Money `json:"per_km_rate"`
	PerMinRate         domain.Money `json:"per_min_rate"`
	Verified           bool         `json:"verified"`
}

// CandidateResponse is one ranked candidate. DistanceKm is null when the
// driver has no known location.
type CandidateResponse struct {
	Driver           DriverResponse   `json:"driver"`
	Vehicle          *VehicleResponse `json:"vehicle,omitempty"`
	DistanceKm       *float64         `json:"distance_km"`
	AlreadyRequested bool             `json:"already_requested"`
}

// RouteResponse is a distance/duration estimate.
type RouteResponse struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Source      string  `json:"source"`
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID            string       `json:"id"`
	RideID        string       `json:"ride_id,omitempty"`
	Amount        domain.Money `json:"amount"`
	Currency      string       `json:"currency"`
	Status        string       `json:"status"`
	Method        string       `json:"method"`
	OrderID       string       `json:"order_id"`
	TransactionID string       `json:"transaction_id,omitempty"`
	ReceiptNumber string       `json:"receipt_number,omitempty"`
	PaidAt        string       `json:"paid_at,omitempty"`
	CreatedAt     string       `json:"created_at"`
}

// PurposeResponse is a ride purpose.
type PurposeResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// RatingResponse is a recorded rating.
type RatingResponse struct {
	ID        string `json:"id"`
	RideID    string `json:"ride_id"`
	DriverID  string `json:"driver_id"`
	Score     int    `json:"score"`
	Feedback  string `json:"feedback,omitempty"`
	CreatedAt string `json:"created_at"`
}

// DriverDetailsResponse is the profile a customer sees before requesting a driver.
type DriverDetailsResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Rating          float64 `json:"rating"`
	RatingCount     int     `json:"rating_count"`
	ExperienceYears int     `json:"experience_years"`
	LicenseNumber   string  `json:"license_number"`
}

// DriverRatingsResponse is a driver's mean score and ratings, newest first.
type DriverRatingsResponse struct {
	DriverID    string           `json:"driver_id"`
	Name        string           `json:"name"`
	AvgRating   float64          `json:"avg_rating"`
	RatingCount int              `json:"rating_count"`
	Ratings     []RatingResponse `json:"ratings"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func toCoordinateDTO(c *domain.Coordinate) *CoordinateDTO {
	if c == nil {
		return nil
	}
	return &CoordinateDTO{Lat: c.Lat, Lng: c.Lng}
}

func toRideResponse(r *domain.Ride) RideResponse {
	return RideResponse{
		ID:                     r.ID,
		CustomerID:             r.CustomerID,
		DriverID:               r.DriverID,
		VehicleID:              r.VehicleID,
		Mode:                   string(r.Mode),
		Status:                 string(r.Status),
		StartLocation:          r.StartLocation,
		EndLocation:            r.EndLocation,
		Start:                  toCoordinateDTO(r.Start),
		End:                    toCoordinateDTO(r.End),
		StartTime:              formatTime(r.StartTime),
		EndTime:                formatTimePtr(r.EndTime),
		FemaleDriverPreference: r.FemaleDriverPreference,
		PurposeID:              r.PurposeID,
		ActualDistanceKm:       r.ActualDistanceKm,
		ActualDurationMin:      r.ActualDurationMin,
		ReturnTrip:             r.ReturnTrip,
		AdditionalCharges:      r.AdditionalCharges,
		BaseFare:               r.BaseFare,
		TaxAmount:              r.TaxAmount,
		DiscountAmount:         r.DiscountAmount,
		TotalAmount:            r.TotalAmount,
		CreatedAt:              formatTime(r.CreatedAt),
	}
}

func toRideResponses(rides []*domain.Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		out = append(out, toRideResponse(r))
	}
	return out
}

func toRequestResponse(r *domain.RideRequest) RequestResponse {
	return RequestResponse{
		ID:          r.ID,
		RideID:      r.RideID,
		DriverID:    r.DriverID,
		Status:      string(r.Status),
		State:       r.State(),
		Consumed:    r.Consumed,
		RequestedAt: formatTime(r.RequestedAt),
		RespondedAt: formatTimePtr(r.RespondedAt),
		ConsumedAt:  formatTimePtr(r.ConsumedAt),
	}
}

func toRequestResponses(reqs []*domain.RideRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestResponse(r))
	}
	return out
}

func toDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:               d.ID,
		Name:             d.Name,
		Gender:           d.Gender,
		Rating:           d.Rating,
		RatingCount:      d.RatingCount,
		IsAvailable:      d.IsAvailable,
		Verified:         d.Verified,
		DayFixedCharge:   d.DayFixedCharge,
		NightFixedCharge: d.NightFixedCharge,
		Location:         toCoordinateDTO(d.Location),
		LocationLabel:    d.LocationLabel,
	}
}

func toRatingResponse(r *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID,
		RideID:    r.RideID,
		DriverID:  r.DriverID,
		Score:     r.Score,
		Feedback:  r.Feedback,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

func toVehicleResponse(v *domain.Vehicle) *VehicleResponse {
	if v == nil {
		return nil
	}
	return &VehicleResponse{
		ID:                 v.ID,
		RegistrationNumber: v.RegistrationNumber,
		Make:               v.Make,
		Model:              v.Model,
		Type:               string(v.Type),
		Transmission:       string(v.Transmission),
		FuelType:           string(v.FuelType),
		PerKmRate:          v.PerKmRate,
		PerMinRate:         v.PerMinRate,
		Verified:           v.Verified,
	}
}

func toCandidateResponses(cs []service.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(cs))
	for _, c := range cs {
		resp := CandidateResponse{
			Driver:           toDriverResponse(c.Driver),
			Vehicle:          toVehicleResponse(c.Vehicle),
			AlreadyRequested: c.AlreadyRequested,
		}
		if !math.IsInf(c.DistanceKm, 0) && !math.IsNaN(c.DistanceKm) {
			km := math.Round(c.DistanceKm*100) / 100
			resp.DistanceKm = &km
		}
		out = append(out, resp)
	}
	return out
}

func toRouteResponse(r routing.Route) RouteResponse {
	return RouteResponse{
		DistanceKm:  r.DistanceKm,
		DurationMin: r.DurationMin,
		Source:      string(r.Source),
	}
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		RideID:        p.RideID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Status:        string(p.Status),
		Method:        string(p.Method),
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		ReceiptNumber: p.ReceiptNumber,
		PaidAt:        formatTimePtr(p.PaidAt),
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func toPaymentResponses(ps []*domain.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPaymentResponse(p))
	}
	return out
}
