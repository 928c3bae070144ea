package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

// ReceiptService renders receipts for successful ride payments.
type ReceiptService struct {
	store repository.Store
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(store repository.Store) *ReceiptService {
	return &ReceiptService{store: store}
}

// Receipt is the printable record of a paid ride.
type Receipt struct {
	Number             string
	PaymentID          string
	RideID             string
	Mode               domain.RideMode
	StartLocation      string
	EndLocation        string
	DriverName         string
	RegistrationNumber string
	DistanceKm         float64
	DurationMin        int
	ReturnTrip         bool
	BaseFare           domain.Money
	AdditionalCharges  domain.Money
	TaxAmount          domain.Money
	DiscountAmount     domain.Money
	TotalAmount        domain.Money
	AmountPaid         domain.Money
	Method             domain.PaymentMethod
	TransactionID      string
	PaidAt             time.Time
}

// GenerateReceipt builds the receipt of one of the customer's successful payments.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, p domain.Principal, paymentID string) (*Receipt, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	payment, err := repos.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != p.UserID {
		return nil, repository.ErrNotFound
	}
	if payment.Status != domain.PaymentStatusSuccess || payment.RideID == "" {
		return nil, ErrReceiptNotAvailable
	}

	ride, err := repos.Rides.GetByID(ctx, payment.RideID)
	if err != nil {
		return nil, err
	}
	driver, vehicle, err := rateCard(ctx, repos, ride)
	if err != nil {
		return nil, err
	}

	r := &Receipt{
		Number:            payment.ReceiptNumber,
		PaymentID:         payment.ID,
		RideID:            ride.ID,
		Mode:              ride.Mode,
		StartLocation:     ride.StartLocation,
		EndLocation:       ride.EndLocation,
		ReturnTrip:        ride.ReturnTrip,
		BaseFare:          ride.BaseFare,
		AdditionalCharges: ride.AdditionalCharges,
		TaxAmount:         ride.TaxAmount,
		DiscountAmount:    ride.DiscountAmount,
		TotalAmount:       ride.Total(),
		AmountPaid:        payment.Amount,
		Method:            payment.Method,
		TransactionID:     payment.TransactionID,
	}
	if payment.PaidAt != nil {
		r.PaidAt = *payment.PaidAt
	}
	if ride.ActualDistanceKm != nil {
		r.DistanceKm = *ride.ActualDistanceKm
	}
	if ride.ActualDurationMin != nil {
		r.DurationMin = *ride.ActualDurationMin
	}
	if driver != nil {
		r.DriverName = driver.Name
	}
	if vehicle != nil {
		r.RegistrationNumber = vehicle.RegistrationNumber
	}
	return r, nil
}

// FormatReceipt formats the receipt as plain text.
func FormatReceipt(r *Receipt) string {
	var b strings.Builder
	line := strings.Repeat("=", 37)
	rule := strings.Repeat("-", 37)

	fmt.Fprintf(&b, "%s\n            RIDE RECEIPT\n%s\n", line, line)
	fmt.Fprintf(&b, "Receipt No: %s\n", r.Number)
	fmt.Fprintf(&b, "Ride ID:    %s\n", r.RideID)
	fmt.Fprintf(&b, "Date:       %s\n\n", r.PaidAt.Format("Jan 02, 2006 3:04 PM"))

	fmt.Fprintf(&b, "TRIP DETAILS\n%s\n", rule)
	fmt.Fprintf(&b, "From:     %s\n", r.StartLocation)
	fmt.Fprintf(&b, "To:       %s\n", r.EndLocation)
	fmt.Fprintf(&b, "Mode:     %s\n", r.Mode)
	if r.DriverName != "" {
		fmt.Fprintf(&b, "Driver:   %s\n", r.DriverName)
	}
	if r.RegistrationNumber != "" {
		fmt.Fprintf(&b, "Vehicle:  %s\n", r.RegistrationNumber)
	}
	fmt.Fprintf(&b, "Distance: %.2f km\n", r.DistanceKm)
	fmt.Fprintf(&b, "Duration: %d min\n\n", r.DurationMin)

	fmt.Fprintf(&b, "FARE BREAKDOWN\n%s\n", rule)
	fmt.Fprintf(&b, "Base Fare:       INR %s\n", r.BaseFare)
	if r.ReturnTrip {
		b.WriteString("  (includes return trip)\n")
	}
	if r.AdditionalCharges > 0 {
		fmt.Fprintf(&b, "  (includes additional INR %s)\n", r.AdditionalCharges)
	}
	fmt.Fprintf(&b, "Tax (5%%):        INR %s\n", r.TaxAmount)
	if r.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Discount:       -INR %s\n", r.DiscountAmount)
	}
	fmt.Fprintf(&b, "%s\nTOTAL:           INR %s\n\n", rule, r.TotalAmount)

	fmt.Fprintf(&b, "PAYMENT\n%s\n", rule)
	fmt.Fprintf(&b, "Paid:        INR %s\n", r.AmountPaid)
	fmt.Fprintf(&b, "Method:      %s\n", r.Method)
	fmt.Fprintf(&b, "Transaction: %s\n\n", r.TransactionID)

	fmt.Fprintf(&b, "%s\n     Thank you for riding with us!\n%s\n", line, line)
	return b.String()
}
