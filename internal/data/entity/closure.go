package entity

import (
	"time"

	"github.com/google/uuid"
)

// Closure marks a date on which a field is unavailable. A nil FieldID
// closes every field (public holiday).
type Closure struct {
	BaseSimple
	FieldID     *uuid.UUID `db:"field_id"`
	ClosureDate time.Time  `db:"closure_date"`
	Reason      string     `db:"reason"`
}
