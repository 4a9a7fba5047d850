package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	appfinance "github.com/pos/backend/internal/application/finance"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// PaymentService is the application service behind the payment endpoints
type PaymentService interface {
	ProcessPayment(ctx context.Context, req appfinance.ProcessPaymentRequest) (*appfinance.ProcessPaymentResult, error)
	GetPayment(ctx context.Context, id int64) (*appfinance.PaymentResponse, error)
	ListPayments(ctx context.Context, filter appfinance.PaymentListFilter) ([]appfinance.PaymentResponse, int64, error)
	GetOutstanding(ctx context.Context, customerID int64) (*appfinance.CustomerOutstandingResponse, error)
}

// CreatePaymentRequest is the body of POST /finance/payments.
// Value checks (positive amount, known payment type) happen in the service.
type CreatePaymentRequest struct {
	CustomerID  *int64           `json:"customer_id" binding:"required"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	PaymentType string           `json:"payment_type" binding:"required"`
	AutoDist    *bool            `json:"auto_dist"`
}

// autoDistribute defaults to true when the field is omitted
func (r CreatePaymentRequest) autoDistribute() bool {
	return r.AutoDist == nil || *r.AutoDist
}

// PaymentHandler serves the credit payment endpoints
type PaymentHandler struct {
	BaseHandler
	service PaymentService
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(service PaymentService, exposeErrorDetail bool) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler: BaseHandler{ExposeErrorDetail: exposeErrorDetail},
		service:     service,
	}
}

// Create records a customer payment and distributes it over the customer's
// outstanding sales oldest first.
//
// POST /api/v1/finance/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	actorID := middleware.GetActorID(c)
	if actorID <= 0 {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	result, err := h.service.ProcessPayment(c.Request.Context(), appfinance.ProcessPaymentRequest{
		CustomerID:     *req.CustomerID,
		Amount:         *req.Amount,
		PaymentMethod:  req.PaymentType,
		AutoDistribute: req.autoDistribute(),
		ActorID:        actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, paymentMessage(result), result)
}

func paymentMessage(r *appfinance.ProcessPaymentResult) string {
	switch {
	case !r.AutoDistribute:
		return "Payment recorded without distribution"
	case r.Unallocated.IsPositive():
		return "Payment processed, " + r.Unallocated.StringFixed(2) + " left unallocated"
	default:
		return "Payment processed successfully"
	}
}

// Get returns one payment with its allocations
//
// GET /api/v1/finance/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// List returns payments newest first, optionally for one customer
//
// GET /api/v1/finance/payments
func (h *PaymentHandler) List(c *gin.Context) {
	var filter appfinance.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindError(c, err)
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}

	payments, total, err := h.service.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// Outstanding lists the customer's unpaid sales in allocation order
//
// GET /api/v1/finance/customers/:id/outstanding
func (h *PaymentHandler) Outstanding(c *gin.Context) {
	customerID, ok := h.parseID(c, "id", "customer")
	if !ok {
		return
	}

	outstanding, err := h.service.GetOutstanding(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outstanding)
}

func (h *PaymentHandler) parseID(c *gin.Context, param, entity string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Invalid "+entity+" ID format")
		return 0, false
	}
	return id, true
}
