package entity

import (
	"time"

	"github.com/google/uuid"
)

// TimeSlot is a bookable template for a field. Newer slots carry a
// [DateFrom, DateTo] range; legacy rows have no range and match on
// DayOfWeek instead (0 = Sunday, matching time.Weekday).
type TimeSlot struct {
	Base
	FieldID   uuid.UUID  `db:"field_id"`
	DateFrom  *time.Time `db:"date_from"`
	DateTo    *time.Time `db:"date_to"`
	DayOfWeek *int       `db:"day_of_week"`
	StartTime string     `db:"start_time"` // "HH:MM"
	EndTime   string     `db:"end_time"`   // "HH:MM"
	Price     *float64   `db:"price"`
	Available bool       `db:"available"`
}
