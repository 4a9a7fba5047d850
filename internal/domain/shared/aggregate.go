package shared

import "time"

// BaseAggregateRoot adds the update timestamp and the optimistic lock token.
// The repository bumps Version on every successful update.
type BaseAggregateRoot struct {
	BaseEntity
	UpdatedAt time.Time
	Version   int
}
