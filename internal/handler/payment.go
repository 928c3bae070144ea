package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drivemate/internal/domain"
	"drivemate/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	payments *service.PaymentService
	receipts *service.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, receipts *service.ReceiptService) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		receipts: receipts,
	}
}

// CreatePaymentRequest is the HTTP request body for starting a payment.
type CreatePaymentRequest struct {
	RideID string       `json:"ride_id"`
	Method string       `json:"method"`
	Amount domain.Money `json:"amount"`
}

// FinalizePaymentRequest is the HTTP request body for finalizing a payment.
type FinalizePaymentRequest struct {
	ProviderRef string `json:"provider_ref,omitempty"`
}

// CreatePaymentResponse is a pending payment with its UPI deep link.
type CreatePaymentResponse struct {
	Payment     PaymentResponse `json:"payment"`
	UPIDeepLink string          `json:"upi_deep_link,omitempty"`
}

// FinalizePaymentResponse is the HTTP response for finalizing a payment.
type FinalizePaymentResponse struct {
	Payment     PaymentResponse `json:"payment"`
	AlreadyPaid bool            `json:"already_paid"`
}

// SummaryResponse is what a customer owes on a ride.
type SummaryResponse struct {
	RideID   string            `json:"ride_id"`
	Total    domain.Money      `json:"total"`
	Paid     domain.Money      `json:"paid"`
	Due      domain.Money      `json:"due"`
	Currency string            `json:"currency"`
	Ride     RideResponse      `json:"ride"`
	Payments []PaymentResponse `json:"payments"`
}

// Summary handles GET /v1/rides/:id/payment
func (h *PaymentHandler) Summary(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	s, err := h.payments.Summary(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, SummaryResponse{
		RideID:   s.Ride.ID,
		Total:    s.Total,
		Paid:     s.Paid,
		Due:      s.Due,
		Currency: s.Currency,
		Ride:     toRideResponse(s.Ride),
		Payments: toPaymentResponses(s.Payments),
	})
}

// CreatePayment handles POST /v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.RideID == "" {
		respondBadRequest(c, "ride_id is required")
		return
	}

	intent, err := h.payments.CreateTransaction(c.Request.Context(), p, service.CreatePaymentRequest{
		RideID: req.RideID,
		Method: domain.PaymentMethod(req.Method),
		Amount: req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := CreatePaymentResponse{Payment: toPaymentResponse(intent.Payment)}
	if intent.Payment.Method == domain.PaymentMethodUPI {
		resp.UPIDeepLink = intent.UPIDeepLink
	}
	respondJSON(c, http.StatusCreated, resp)
}

// ListPayments handles GET /v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	payments, err := h.payments.ListCustomerPayments(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"payments": toPaymentResponses(payments)})
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	payment, err := h.payments.GetPayment(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// FinalizePayment handles POST /v1/payments/:id/finalize
func (h *PaymentHandler) FinalizePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req FinalizePaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	payment, alreadyPaid, err := h.payments.FinalizeTransaction(c.Request.Context(), p, c.Param("id"), req.ProviderRef)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, FinalizePaymentResponse{
		Payment:     toPaymentResponse(payment),
		AlreadyPaid: alreadyPaid,
	})
}

// GetReceipt handles GET /v1/payments/:id/receipt. The receipt is plain
// text unless the client asks for JSON.
func (h *PaymentHandler) GetReceipt(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	r, err := h.receipts.GenerateReceipt(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.NegotiateFormat(gin.MIMEPlain, gin.MIMEJSON) == gin.MIMEJSON {
		respondJSON(c, http.StatusOK, gin.H{
			"receipt_number": r.Number,
			"payment_id":     r.PaymentID,
			"ride_id":        r.RideID,
			"total_amount":   r.TotalAmount,
			"amount_paid":    r.AmountPaid,
			"paid_at":        formatTime(r.PaidAt),
			"text":           service.FormatReceipt(r),
		})
		return
	}
	c.String(http.StatusOK, service.FormatReceipt(r))
}
