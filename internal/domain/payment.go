package domain

import (
	"errors"
	"time"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod represents how the customer pays.
type PaymentMethod string

const (
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodNetbanking PaymentMethod = "netbanking"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodCash       PaymentMethod = "cash"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodUPI, PaymentMethodCard, PaymentMethodNetbanking, PaymentMethodWallet, PaymentMethodCash:
		return true
	}
	return false
}

// ErrPaymentTarget is returned when a payment does not reference exactly one
// of a ride or a subscription.
var ErrPaymentTarget = errors.New("payment must reference exactly one of ride or subscription")

// Payment is one payment attempt against a ride or a subscription.
type Payment struct {
	ID             string
	CustomerID     string
	RideID         string
	SubscriptionID string
	Amount         Money
	TipAmount      Money
	DiscountAmount Money
	RefundedAmount Money
	Currency       string
	Status         PaymentStatus
	Method         PaymentMethod
	OrderID        string
	TransactionID  string
	ReceiptNumber  string
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the single-target invariant.
func (p *Payment) Validate() error {
	if (p.RideID == "") == (p.SubscriptionID == "") {
		return ErrPaymentTarget
	}
	return nil
}

// Rating is a customer's score for a completed ride.
type Rating struct {
	ID         string
	RideID     string
	CustomerID string
	DriverID   string
	VehicleID  string
	Score      int
	Feedback   string
	CreatedAt  time.Time
}
