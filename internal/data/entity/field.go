package entity

import (
	"github.com/google/uuid"
)

type Field struct {
	Base
	Name         string    `db:"name"`
	Location     string    `db:"location"`
	PricePerHour float64   `db:"price_per_hour"`
	OwnerID      uuid.UUID `db:"owner_id"`
	Active       bool      `db:"active"`
}
