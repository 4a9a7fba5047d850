package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	appfinance "github.com/pos/backend/internal/application/finance"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, req appfinance.ProcessPaymentRequest) (*appfinance.ProcessPaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.ProcessPaymentResult), args.Error(1)
}

func (m *mockPaymentService) GetPayment(ctx context.Context, id int64) (*appfinance.PaymentResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.PaymentResponse), args.Error(1)
}

func (m *mockPaymentService) ListPayments(ctx context.Context, filter appfinance.PaymentListFilter) ([]appfinance.PaymentResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]appfinance.PaymentResponse), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentService) GetOutstanding(ctx context.Context, customerID int64) (*appfinance.CustomerOutstandingResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.CustomerOutstandingResponse), args.Error(1)
}

const testActorID int64 = 9

func newPaymentRouter(svc PaymentService, authenticated bool) *gin.Engine {
	h := NewPaymentHandler(svc, true)
	router := gin.New()
	router.Use(middleware.RequestID())
	if authenticated {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.JWTActorIDKey, testActorID)
			c.Next()
		})
	}
	router.POST("/payments", h.Create)
	router.GET("/payments", h.List)
	router.GET("/payments/:id", h.Get)
	router.GET("/customers/:id/outstanding", h.Outstanding)
	return router
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_Create(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)

	result := &appfinance.ProcessPaymentResult{
		PaymentID:      11,
		CustomerID:     42,
		Amount:         decimal.RequireFromString("40"),
		PaymentMethod:  "CASH",
		AutoDistribute: true,
		Allocations: []appfinance.AllocationResponse{
			{SaleID: 1, Amount: decimal.RequireFromString("30")},
			{SaleID: 2, Amount: decimal.RequireFromString("10")},
		},
		TotalAllocated: decimal.RequireFromString("40"),
		Unallocated:    decimal.Zero,
	}
	svc.On("ProcessPayment", mock.Anything, mock.MatchedBy(func(req appfinance.ProcessPaymentRequest) bool {
		return req.CustomerID == 42 &&
			req.Amount.Equal(decimal.RequireFromString("40")) &&
			req.PaymentMethod == "cash" &&
			req.AutoDistribute &&
			req.ActorID == testActorID
	})).Return(result, nil)

	w := doRequest(router, http.MethodPost, "/payments", `{"customer_id":42,"amount":40,"payment_type":"cash"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Success bool                            `json:"success"`
		Message string                          `json:"message"`
		Data    appfinance.ProcessPaymentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Payment processed successfully", resp.Message)
	assert.Equal(t, int64(11), resp.Data.PaymentID)
	assert.Len(t, resp.Data.Allocations, 2)
	assert.True(t, resp.Data.TotalAllocated.Equal(decimal.RequireFromString("40")))
	svc.AssertExpectations(t)
}

func TestPaymentHandler_Create_AutoDistFalse(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)

	svc.On("ProcessPayment", mock.Anything, mock.MatchedBy(func(req appfinance.ProcessPaymentRequest) bool {
		return !req.AutoDistribute
	})).Return(&appfinance.ProcessPaymentResult{
		PaymentID:   12,
		Amount:      decimal.RequireFromString("5.50"),
		Unallocated: decimal.RequireFromString("5.50"),
		Allocations: []appfinance.AllocationResponse{},
	}, nil)

	w := doRequest(router, http.MethodPost, "/payments",
		`{"customer_id":42,"amount":"5.50","payment_type":"CARD","auto_dist":false}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Payment recorded without distribution", decodeResponse(t, w).Message)
	svc.AssertExpectations(t)
}

func TestPaymentHandler_Create_UnallocatedMessage(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)

	svc.On("ProcessPayment", mock.Anything, mock.Anything).Return(&appfinance.ProcessPaymentResult{
		PaymentID:      13,
		AutoDistribute: true,
		Amount:         decimal.RequireFromString("100"),
		TotalAllocated: decimal.RequireFromString("80"),
		Unallocated:    decimal.RequireFromString("20"),
	}, nil)

	w := doRequest(router, http.MethodPost, "/payments", `{"customer_id":42,"amount":100,"payment_type":"CASH"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Payment processed, 20.00 left unallocated", decodeResponse(t, w).Message)
}

func TestPaymentHandler_Create_RequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing customer", `{"amount":10,"payment_type":"CASH"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing amount", `{"customer_id":1,"payment_type":"CASH"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing payment type", `{"customer_id":1,"amount":10}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"amount not a number", `{"customer_id":1,"amount":"ten","payment_type":"CASH"}`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"malformed json", `{"customer_id":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPaymentService)
			router := newPaymentRouter(svc, true)

			w := doRequest(router, http.MethodPost, "/payments", tt.body)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			svc.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentHandler_Create_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"non-positive amount", finance.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown payment type", finance.ErrInvalidPaymentMethod, http.StatusBadRequest, "INVALID_PAYMENT_METHOD"},
		{"unknown customer", finance.ErrCustomerNotFound, http.StatusNotFound, "CUSTOMER_NOT_FOUND"},
		{"datastore failure", errors.New("connection reset by peer"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPaymentService)
			router := newPaymentRouter(svc, true)
			svc.On("ProcessPayment", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doRequest(router, http.MethodPost, "/payments", `{"customer_id":1,"amount":-5,"payment_type":"CASH"}`)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestPaymentHandler_Create_DatastoreDetailInMessage(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)
	svc.On("ProcessPayment", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset by peer"))

	w := doRequest(router, http.MethodPost, "/payments", `{"customer_id":1,"amount":5,"payment_type":"CASH"}`)

	assert.Contains(t, decodeResponse(t, w).Message, "connection reset by peer")
}

func TestPaymentHandler_Create_Unauthenticated(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, false)

	w := doRequest(router, http.MethodPost, "/payments", `{"customer_id":1,"amount":5,"payment_type":"CASH"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "ProcessPayment", mock.Anything, mock.Anything)
}

func TestPaymentHandler_Get(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)

	svc.On("GetPayment", mock.Anything, int64(11)).Return(&appfinance.PaymentResponse{
		ID:         11,
		CustomerID: 42,
		Amount:     decimal.RequireFromString("40"),
	}, nil)
	svc.On("GetPayment", mock.Anything, int64(404)).Return(nil, finance.ErrPaymentNotFound)

	w := doRequest(router, http.MethodGet, "/payments/11", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(11), data["id"])

	w = doRequest(router, http.MethodGet, "/payments/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)

	w = doRequest(router, http.MethodGet, "/payments/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestPaymentHandler_List(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)

	customerID := int64(42)
	svc.On("ListPayments", mock.Anything, appfinance.PaymentListFilter{CustomerID: &customerID, Page: 2, PageSize: 5}).
		Return([]appfinance.PaymentResponse{{ID: 6}, {ID: 7}}, int64(7), nil)
	svc.On("ListPayments", mock.Anything, appfinance.PaymentListFilter{Page: 1, PageSize: 20}).
		Return([]appfinance.PaymentResponse{}, int64(0), nil)

	w := doRequest(router, http.MethodGet, "/payments?customer_id=42&page=2&page_size=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(7), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	w = doRequest(router, http.MethodGet, "/payments", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/payments?page_size=500", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}

func TestPaymentHandler_Outstanding(t *testing.T) {
	svc := new(mockPaymentService)
	router := newPaymentRouter(svc, true)

	svc.On("GetOutstanding", mock.Anything, int64(42)).Return(&appfinance.CustomerOutstandingResponse{
		CustomerID: 42,
		Documents: []appfinance.OutstandingDocumentResponse{
			{ID: 1, Balance: decimal.RequireFromString("30")},
		},
		TotalOutstanding: decimal.RequireFromString("30"),
	}, nil)

	w := doRequest(router, http.MethodGet, "/customers/42/outstanding", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "30", data["total_outstanding"])

	w = doRequest(router, http.MethodGet, "/customers/0/outstanding", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}
