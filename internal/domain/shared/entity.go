package shared

import "time"

// BaseEntity carries the identity every ledger row has. IDs are assigned by
// the store on insert, so a fresh entity has ID zero.
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
}

// IsNew reports whether the entity has not been persisted yet
func (e *BaseEntity) IsNew() bool {
	return e.ID == 0
}

// NewBaseEntity creates an unsaved entity stamped with the current time
func NewBaseEntity() BaseEntity {
	return BaseEntity{CreatedAt: time.Now()}
}
