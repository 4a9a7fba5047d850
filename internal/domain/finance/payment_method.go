package finance

import "strings"

// PaymentMethod represents the method of payment
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"          // Cash payment
	PaymentMethodCard         PaymentMethod = "CARD"          // Debit/credit card
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER" // Bank transfer
	PaymentMethodCheck        PaymentMethod = "CHECK"         // Check/Cheque
	PaymentMethodMobile       PaymentMethod = "MOBILE"        // Mobile wallet
	PaymentMethodCreditNote   PaymentMethod = "CREDIT_NOTE"   // Offset against a credit note
	PaymentMethodOther        PaymentMethod = "OTHER"         // Other methods
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCheck,
		PaymentMethodMobile, PaymentMethodCreditNote, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ParsePaymentMethod normalizes free-form input ("cash ", "Bank_Transfer")
// into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if m == "" || !m.IsValid() {
		return "", ErrInvalidPaymentMethod
	}
	return m, nil
}

// AllPaymentMethods returns the accepted payment methods
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodCard,
		PaymentMethodBankTransfer,
		PaymentMethodCheck,
		PaymentMethodMobile,
		PaymentMethodCreditNote,
		PaymentMethodOther,
	}
}
