package finance

import "github.com/pos/backend/internal/domain/shared"

// Customer is the party that owes on sale documents. Customers are
// maintained by the contacts module; the ledger only reads them.
type Customer struct {
	shared.BaseEntity
	Name string
}
