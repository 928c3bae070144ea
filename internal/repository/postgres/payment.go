package postgres

import (
	"context"
	"database/sql"

	"drivemate/internal/domain"
	"drivemate/internal/repository"
)

const paymentColumns = `p.id, p.customer_id, p.ride_id, p.subscription_id, p.amount, p.tip_amount,
	p.discount_amount, p.refunded_amount, p.currency, p.status, p.method, p.order_id,
	p.transaction_id, p.receipt_number, p.paid_at, p.created_at, p.updated_at`

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(q Querier) *PaymentRepository {
	return &PaymentRepository{q: q}
}

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, customer_id, ride_id, subscription_id, amount, tip_amount, discount_amount,
			refunded_amount, currency, status, method, order_id, transaction_id, receipt_number, paid_at,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query,
		p.ID,
		p.CustomerID,
		nullString(p.RideID),
		nullString(p.SubscriptionID),
		p.Amount,
		p.TipAmount,
		p.DiscountAmount,
		p.RefundedAmount,
		p.Currency,
		p.Status,
		p.Method,
		p.OrderID,
		p.TransactionID,
		p.ReceiptNumber,
		nullTime(p.PaidAt),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a payment and locks its row.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 FOR UPDATE`
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// SumSuccessfulForRide totals the successful payments of a ride.
func (r *PaymentRepository) SumSuccessfulForRide(ctx context.Context, rideID string) (domain.Money, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE ride_id = $1 AND status = $2`

	var sum int64
	if err := r.q.QueryRowContext(ctx, query, rideID, domain.PaymentStatusSuccess).Scan(&sum); err != nil {
		return 0, err
	}
	return domain.Money(sum), nil
}

// ListByCustomer retrieves a customer's payments, newest first.
func (r *PaymentRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.customer_id = $1 ORDER BY p.created_at DESC LIMIT 100`
	return r.list(ctx, query, customerID)
}

// ListByDriver retrieves payments on rides driven by the driver, newest first.
func (r *PaymentRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + ` FROM payments p
		JOIN rides r ON r.id = p.ride_id
		WHERE r.driver_id = $1
		ORDER BY p.created_at DESC LIMIT 100
	`
	return r.list(ctx, query, driverID)
}

// Update updates the mutable fields of a payment.
func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, transaction_id = $2, receipt_number = $3, paid_at = $4, refunded_amount = $5, updated_at = $6
		WHERE id = $7
	`

	res, err := r.q.ExecContext(ctx, query,
		p.Status,
		p.TransactionID,
		p.ReceiptNumber,
		nullTime(p.PaidAt),
		p.RefundedAmount,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PaymentRepository) list(ctx context.Context, query, arg string) ([]*domain.Payment, error) {
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row scanner) (*domain.Payment, error) {
	var p domain.Payment
	var rideID, subscriptionID sql.NullString
	var paidAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&p.CustomerID,
		&rideID,
		&subscriptionID,
		&p.Amount,
		&p.TipAmount,
		&p.DiscountAmount,
		&p.RefundedAmount,
		&p.Currency,
		&p.Status,
		&p.Method,
		&p.OrderID,
		&p.TransactionID,
		&p.ReceiptNumber,
		&paidAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	p.RideID = rideID.String
	p.SubscriptionID = subscriptionID.String
	p.PaidAt = timePtr(paidAt)
	return &p, nil
}
