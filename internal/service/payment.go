package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
	"drivemate/internal/fare"
	"drivemate/internal/repository"
)

const (
	upiPayee     = "merchant@upi"
	upiPayeeName = "Ride+Payment"
)

// PSP confirms a payment with the payment service provider and returns the
// provider's transaction reference.
type PSP interface {
	Confirm(ctx context.Context, payment *domain.Payment, providerRef string) (string, error)
}

// SimulatedPSP is a record-only PSP. It accepts the caller's reference, or
// mints a SIM- reference when none is given.
type SimulatedPSP struct{}

// NewSimulatedPSP creates a new simulated PSP.
func NewSimulatedPSP() *SimulatedPSP {
	return &SimulatedPSP{}
}

// Confirm always succeeds.
func (SimulatedPSP) Confirm(_ context.Context, _ *domain.Payment, providerRef string) (string, error) {
	if ref := strings.TrimSpace(providerRef); ref != "" {
		return ref, nil
	}
	return "SIM-" + hexToken(10), nil
}

// PaymentService gates and records payments against rides.
type PaymentService struct {
	store repository.Store
	fares *fare.Calculator
	psp   PSP
	log   logrus.FieldLogger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(store repository.Store, fares *fare.Calculator, psp PSP, log logrus.FieldLogger) *PaymentService {
	return &PaymentService{
		store: store,
		fares: fares,
		psp:   psp,
		log:   log,
	}
}

// PaymentSummary is what a customer owes on a ride.
type PaymentSummary struct {
	Ride     *domain.Ride
	Total    domain.Money
	Paid     domain.Money
	Due      domain.Money
	Currency string
	Payments []*domain.Payment
}

// Summary returns the amount due on the customer's ride. A missing total is
// computed and persisted.
func (s *PaymentService) Summary(ctx context.Context, p domain.Principal, rideID string) (*PaymentSummary, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}

	var out PaymentSummary
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := lockOwnedRide(ctx, repos, p, rideID)
		if err != nil {
			return err
		}
		consumed, err := repos.Requests.HasConsumedForRide(ctx, ride.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return ErrPaymentNotAvailable
		}

		if ride.TotalAmount == nil {
			driver, vehicle, err := rateCard(ctx, repos, ride)
			if err != nil {
				return err
			}
			s.fares.Calculate(ride, driver, vehicle)
			ride.UpdatedAt = time.Now()
			if err := repos.Rides.Update(ctx, ride); err != nil {
				return err
			}
		}

		paid, err := repos.Payments.SumSuccessfulForRide(ctx, ride.ID)
		if err != nil {
			return err
		}
		history, err := repos.Payments.ListByCustomer(ctx, p.UserID)
		if err != nil {
			return err
		}

		out = PaymentSummary{Ride: ride, Total: ride.Total(), Paid: paid, Currency: domain.Currency}
		if due := out.Total - paid; due > 0 {
			out.Due = due
		}
		for _, pay := range history {
			if pay.RideID == ride.ID {
				out.Payments = append(out.Payments, pay)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentRequest contains the parameters for starting a payment.
type CreatePaymentRequest struct {
	RideID string
	Method domain.PaymentMethod
	Amount domain.Money
}

// PaymentIntent is a pending payment plus what the client needs to pay it.
type PaymentIntent struct {
	Payment     *domain.Payment
	UPIDeepLink string
}

// CreateTransaction opens a pending payment on a completed ride.
func (s *PaymentService) CreateTransaction(ctx context.Context, p domain.Principal, req CreatePaymentRequest) (*PaymentIntent, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	if !req.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	ride, err := s.store.Repos().Rides.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedRide(ride, p); err != nil {
		return nil, err
	}

	var payment *domain.Payment
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return err
		}
		consumed, err := repos.Requests.HasConsumedForRide(ctx, ride.ID)
		if err != nil {
			return err
		}
		if !consumed || ride.Status != domain.RideStatusCompleted {
			return ErrPaymentNotAvailable
		}

		paid, err := repos.Payments.SumSuccessfulForRide(ctx, ride.ID)
		if err != nil {
			return err
		}
		if paid >= req.Amount {
			return ErrRideAlreadyPaid
		}

		now := time.Now()
		payment = &domain.Payment{
			ID:         uuid.New().String(),
			CustomerID: p.UserID,
			RideID:     ride.ID,
			Amount:     req.Amount,
			Currency:   domain.Currency,
			Status:     domain.PaymentStatusPending,
			Method:     req.Method,
			OrderID:    "ORD-" + hexToken(12),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return repos.Payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	return &PaymentIntent{Payment: payment, UPIDeepLink: upiDeepLink(payment)}, nil
}

// FinalizeTransaction marks the customer's payment successful. Finalizing
// an already successful payment returns it unchanged with alreadyPaid set.
func (s *PaymentService) FinalizeTransaction(ctx context.Context, p domain.Principal, paymentID, providerRef string) (payment *domain.Payment, alreadyPaid bool, err error) {
	if err := requireCustomer(p); err != nil {
		return nil, false, err
	}

	existing, err := s.ownedPayment(ctx, s.store.Repos(), p, paymentID)
	if err != nil {
		return nil, false, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if existing.RideID != "" {
			if _, err := repos.Rides.GetByIDForUpdate(ctx, existing.RideID); err != nil {
				return err
			}
		}
		var err error
		payment, err = repos.Payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == domain.PaymentStatusSuccess {
			alreadyPaid = true
			return nil
		}

		ref, err := s.psp.Confirm(ctx, payment, providerRef)
		if err != nil {
			return err
		}

		now := time.Now()
		payment.Status = domain.PaymentStatusSuccess
		payment.TransactionID = ref
		payment.ReceiptNumber = receiptNumber(now)
		payment.PaidAt = &now
		payment.UpdatedAt = now
		return repos.Payments.Update(ctx, payment)
	})
	if err != nil {
		return nil, false, err
	}

	if !alreadyPaid {
		s.log.WithFields(logrus.Fields{
			"payment_id":     payment.ID,
			"ride_id":        payment.RideID,
			"amount":         payment.Amount.String(),
			"transaction_id": payment.TransactionID,
		}).Info("payment finalized")
	}
	return payment, alreadyPaid, nil
}

// GetPayment returns one of the customer's payments.
func (s *PaymentService) GetPayment(ctx context.Context, p domain.Principal, paymentID string) (*domain.Payment, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	return s.ownedPayment(ctx, s.store.Repos(), p, paymentID)
}

// ListCustomerPayments returns the customer's payments, newest first.
func (s *PaymentService) ListCustomerPayments(ctx context.Context, p domain.Principal) ([]*domain.Payment, error) {
	if err := requireCustomer(p); err != nil {
		return nil, err
	}
	return s.store.Repos().Payments.ListByCustomer(ctx, p.UserID)
}

// ListDriverPayments returns payments on rides the driver drove, newest first.
func (s *PaymentService) ListDriverPayments(ctx context.Context, p domain.Principal) ([]*domain.Payment, error) {
	repos := s.store.Repos()
	driver, err := resolveDriver(ctx, repos.Drivers, p)
	if err != nil {
		return nil, err
	}
	return repos.Payments.ListByDriver(ctx, driver.ID)
}

// ownedPayment hides payments of other customers behind ErrNotFound.
func (s *PaymentService) ownedPayment(ctx context.Context, repos repository.Repositories, p domain.Principal, paymentID string) (*domain.Payment, error) {
	payment, err := repos.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != p.UserID {
		return nil, repository.ErrNotFound
	}
	return payment, nil
}

func upiDeepLink(p *domain.Payment) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=%s&tr=%s", upiPayee, upiPayeeName, p.Amount, p.Currency, p.ID)
}

// hexToken returns n upper-case hex characters taken from a fresh uuid.
func hexToken(n int) string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:n])
}

func receiptNumber(at time.Time) string {
	return fmt.Sprintf("RCPT-%s-%s", at.UTC().Format("20060102"), hexToken(6))
}
