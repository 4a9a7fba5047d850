package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pos/backend/internal/domain/finance"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/domain/shared/strategy"
	"github.com/pos/backend/internal/infrastructure/strategy/allocation"
	"github.com/pos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// invalidMethodLabel is recorded for payment methods outside the accepted set
const invalidMethodLabel = "invalid"

// PaymentService records customer payments and spreads them over the
// customer's outstanding sale documents
type PaymentService struct {
	txScope          TransactionScope
	paymentRepo      finance.PaymentRepository
	saleRepo         finance.SaleDocumentRepository
	strategy         strategy.PaymentAllocationStrategy
	validateCustomer bool
	validate         *validator.Validate
	metrics          *telemetry.PaymentMetrics
	logger           *zap.Logger
}

// PaymentServiceOption is a functional option for configuring PaymentService
type PaymentServiceOption func(*PaymentService)

// WithCustomerValidation makes ProcessPayment reject customers that do not exist
func WithCustomerValidation(enabled bool) PaymentServiceOption {
	return func(s *PaymentService) {
		s.validateCustomer = enabled
	}
}

// WithAllocationStrategy replaces the default FIFO strategy
func WithAllocationStrategy(st strategy.PaymentAllocationStrategy) PaymentServiceOption {
	return func(s *PaymentService) {
		if st != nil {
			s.strategy = st
		}
	}
}

// WithPaymentMetrics enables metric recording
func WithPaymentMetrics(m *telemetry.PaymentMetrics) PaymentServiceOption {
	return func(s *PaymentService) {
		s.metrics = m
	}
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) PaymentServiceOption {
	return func(s *PaymentService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txScope TransactionScope,
	paymentRepo finance.PaymentRepository,
	saleRepo finance.SaleDocumentRepository,
	opts ...PaymentServiceOption,
) *PaymentService {
	s := &PaymentService{
		txScope:     txScope,
		paymentRepo: paymentRepo,
		saleRepo:    saleRepo,
		strategy:    allocation.NewFIFOAllocationStrategy(),
		validate:    validator.New(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessPayment records a payment and, when AutoDistribute is set, applies
// it to the customer's outstanding documents oldest first. The payment, the
// balance updates and the allocation rows commit together or not at all.
// Whatever the documents cannot absorb is reported as Unallocated.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*ProcessPaymentResult, error) {
	start := time.Now()

	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "process",
		telemetry.SpanAttrCustomerID, req.CustomerID,
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrAutoDistribute, req.AutoDistribute,
	)
	defer span.End()

	method, err := s.validateRequest(req)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordFailure(ctx, methodLabel(req.PaymentMethod), errorCode(err), time.Since(start))
		return nil, err
	}

	payment, err := finance.NewPayment(req.CustomerID, req.Amount, method, req.ActorID)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordFailure(ctx, method.String(), errorCode(err), time.Since(start))
		return nil, err
	}

	var (
		result *ProcessPaymentResult
		opErr  error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.PaymentOperationLabels(telemetry.OperationProcessPayment, method.String()), func(c context.Context) {
		opErr = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			var txErr error
			result, txErr = s.processInTx(c, repos, payment, req.AutoDistribute)
			return txErr
		})
	})

	if opErr != nil {
		telemetry.RecordError(span, opErr)
		s.metrics.RecordFailure(ctx, method.String(), errorCode(opErr), time.Since(start))
		s.logger.Warn("Payment rolled back",
			zap.Int64("customer_id", req.CustomerID),
			zap.String("amount", req.Amount.String()),
			zap.String("payment_method", method.String()),
			zap.Error(opErr),
		)
		return nil, opErr
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, result.PaymentID,
		telemetry.SpanAttrAllocations, len(result.Allocations),
		telemetry.SpanAttrUnallocated, result.Unallocated.String(),
	)
	s.metrics.RecordPayment(ctx, method.String(), req.AutoDistribute, len(result.Allocations),
		result.Amount, result.Unallocated, time.Since(start))

	fields := []zap.Field{
		zap.Int64("payment_id", result.PaymentID),
		zap.Int64("customer_id", result.CustomerID),
		zap.String("amount", result.Amount.String()),
		zap.Int("allocations", len(result.Allocations)),
		zap.String("unallocated", result.Unallocated.String()),
		zap.Int64("actor_id", req.ActorID),
	}
	if req.AutoDistribute && result.Unallocated.IsPositive() {
		s.logger.Info("Payment recorded with unallocated remainder", fields...)
	} else {
		s.logger.Info("Payment recorded", fields...)
	}

	return result, nil
}

func (s *PaymentService) processInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	payment *finance.Payment,
	autoDistribute bool,
) (*ProcessPaymentResult, error) {
	if s.validateCustomer {
		exists, err := repos.CustomerRepo().Exists(ctx, payment.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("check customer: %w", err)
		}
		if !exists {
			return nil, finance.ErrCustomerNotFound
		}
	}

	if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	result := &ProcessPaymentResult{
		PaymentID:      payment.ID,
		CustomerID:     payment.CustomerID,
		Amount:         payment.Amount,
		PaymentMethod:  payment.PaymentMethod.String(),
		AutoDistribute: autoDistribute,
		Allocations:    make([]AllocationResponse, 0),
	}

	if autoDistribute {
		allocations, err := s.distribute(ctx, repos, payment)
		if err != nil {
			return nil, err
		}
		result.Allocations = allocations
	}

	result.TotalAllocated = payment.AllocatedAmount()
	result.Unallocated = payment.UnallocatedAmount()
	return result, nil
}

// distribute must run inside the payment's transaction: the outstanding rows
// stay locked from the read until commit.
func (s *PaymentService) distribute(
	ctx context.Context,
	repos TransactionalRepositories,
	payment *finance.Payment,
) ([]AllocationResponse, error) {
	docs, err := repos.SaleRepo().FindOutstandingForUpdate(ctx, payment.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load outstanding documents: %w", err)
	}
	if len(docs) == 0 {
		return []AllocationResponse{}, nil
	}

	byID := make(map[int64]*finance.SaleDocument, len(docs))
	candidates := make([]strategy.Document, 0, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
		candidates = append(candidates, docs[i].ToStrategyDocument())
	}

	plan, err := s.strategy.Allocate(ctx, strategy.AllocationContext{
		CustomerID:    payment.CustomerID,
		PaymentAmount: payment.Amount,
	}, candidates)
	if err != nil {
		return nil, fmt.Errorf("allocate payment: %w", err)
	}

	responses := make([]AllocationResponse, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		doc, ok := byID[a.DocumentID]
		if !ok {
			return nil, fmt.Errorf("allocation strategy %s returned unknown document %d", s.strategy.Name(), a.DocumentID)
		}
		balanceBefore := doc.Balance()
		if err := doc.ApplyPayment(a.AllocatedAmount); err != nil {
			return nil, fmt.Errorf("apply payment to sale %d: %w", doc.ID, err)
		}
		if err := repos.SaleRepo().UpdatePaidAmount(ctx, doc); err != nil {
			return nil, fmt.Errorf("update sale %d: %w", doc.ID, err)
		}
		if err := payment.AddAllocation(doc.ID, a.AllocatedAmount); err != nil {
			return nil, err
		}
		responses = append(responses, AllocationResponse{
			SaleID:         doc.ID,
			DocumentNumber: doc.DocumentNumber,
			Amount:         a.AllocatedAmount,
			BalanceBefore:  balanceBefore,
			BalanceAfter:   doc.Balance(),
		})
	}

	if len(payment.Allocations) > 0 {
		if err := repos.AllocationRepo().CreateBatch(ctx, payment.Allocations); err != nil {
			return nil, fmt.Errorf("insert allocations: %w", err)
		}
		for i := range responses {
			responses[i].ID = payment.Allocations[i].ID
		}
	}

	return responses, nil
}

// methodLabel keeps metric attributes to the accepted method set.
func methodLabel(raw string) string {
	method, err := finance.ParsePaymentMethod(raw)
	if err != nil {
		return invalidMethodLabel
	}
	return method.String()
}

func (s *PaymentService) validateRequest(req ProcessPaymentRequest) (finance.PaymentMethod, error) {
	failed := make(map[string]bool)
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		for _, fe := range verrs {
			failed[fe.StructField()] = true
		}
	}

	switch {
	case failed["CustomerID"]:
		return "", finance.ErrInvalidCustomer
	case finance.ValidateAmount(req.Amount) != nil:
		return "", finance.ErrInvalidAmount
	case failed["PaymentMethod"]:
		return "", finance.ErrInvalidPaymentMethod
	}

	method, err := finance.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return "", err
	}
	if failed["ActorID"] {
		return "", finance.ErrInvalidActor
	}
	return method, nil
}

// GetPayment returns a payment with its allocations
func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "get", telemetry.SpanAttrPaymentID, id)
	defer span.End()

	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if payment == nil {
		return nil, finance.ErrPaymentNotFound
	}

	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// ListPayments returns a page of payments, newest first, and the total count
func (s *PaymentService) ListPayments(ctx context.Context, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	domainFilter := finance.PaymentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
		}.Normalize(),
		CustomerID: filter.CustomerID,
	}

	payments, err := s.paymentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.paymentRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses, total, nil
}

// GetOutstanding lists the customer's unpaid documents in allocation order
func (s *PaymentService) GetOutstanding(ctx context.Context, customerID int64) (*CustomerOutstandingResponse, error) {
	if customerID <= 0 {
		return nil, finance.ErrInvalidCustomer
	}

	docs, err := s.saleRepo.FindOutstanding(ctx, customerID)
	if err != nil {
		return nil, err
	}

	resp := ToOutstandingResponse(customerID, docs)
	return &resp, nil
}

// StrategyName returns the name of the active allocation strategy
func (s *PaymentService) StrategyName() string {
	return s.strategy.Name()
}

func errorCode(err error) string {
	if de, ok := shared.AsDomainError(err); ok {
		return de.Code
	}
	return "ERR_INTERNAL"
}
