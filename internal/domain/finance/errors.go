package finance

import "github.com/pos/backend/internal/domain/shared"

// Payment ledger errors
var (
	ErrInvalidCustomer      = shared.NewDomainError("INVALID_CUSTOMER", "Customer id must be a positive integer")
	ErrInvalidAmount        = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive, below 10^13 and have at most two decimal places")
	ErrInvalidPaymentMethod = shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is missing or not supported")
	ErrInvalidActor         = shared.NewDomainError("INVALID_ACTOR", "Authenticated actor is required")
	ErrCustomerNotFound     = shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	ErrPaymentNotFound      = shared.NewDomainError("NOT_FOUND", "Payment not found")
	ErrOverpayment          = shared.NewDomainError("OVERPAYMENT", "Applied amount exceeds the document balance")
	ErrOverAllocation       = shared.NewDomainError("OVER_ALLOCATION", "Allocations exceed the payment amount")
)
