package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/response"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotRequest identifies one concrete slot occurrence a user wants.
type SlotRequest struct {
	FieldID    uuid.UUID
	TimeSlotID uuid.UUID
	Date       time.Time
	// StartTime is "HH:MM" or the compact "HH:MM-HH:MM" range form.
	StartTime string
}

// SlotCheck is the result of a passed availability check: the resolved
// entities plus the normalized time window.
type SlotCheck struct {
	Field     *entity.Field
	Slot      *entity.TimeSlot
	StartTime string
	EndTime   string
}

type AvailabilityService interface {
	// CheckSlot runs the ordered validation chain and returns the
	// normalized window, or the first failure. It never writes.
	CheckSlot(ctx context.Context, req SlotRequest) (*SlotCheck, error)

	// ListFields returns the fields currently open for booking.
	ListFields(ctx context.Context) ([]response.FieldResponse, error)

	// ListFieldSlots reports each of a field's slots with whether it
	// can still be booked on the given date.
	ListFieldSlots(ctx context.Context, fieldID string, date time.Time) ([]response.SlotAvailabilityResponse, error)
}

type availabilityService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo: repo,
		log:  log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) CheckSlot(ctx context.Context, req SlotRequest) (*SlotCheck, error) {
	// 1. Field exists and is active
	field, err := s.repo.Field.FindByID(ctx, req.FieldID)
	if err != nil {
		return nil, apperror.Internal("look up field", err)
	}
	if field == nil {
		return nil, apperror.NotFound("field %s not found", req.FieldID.String())
	}
	if !field.Active {
		return nil, apperror.Validation("field %s is not open for bookings", field.Name)
	}

	// 2. Slot exists, is available, belongs to the field
	slot, err := s.repo.TimeSlot.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		return nil, apperror.Internal("look up time slot", err)
	}
	if slot == nil {
		return nil, apperror.NotFound("time slot %s not found", req.TimeSlotID.String())
	}
	if !slot.Available {
		return nil, apperror.Validation("time slot is not available for booking")
	}
	if slot.FieldID != field.ID {
		return nil, apperror.Validation("time slot does not belong to field %s", field.Name)
	}

	// 3. Date within the slot's range, or day-of-week for legacy slots
	if err := checkSlotDate(slot, req.Date); err != nil {
		return nil, err
	}

	// 4. Normalize the requested window
	startTime, endTime, err := normalizeWindow(req.StartTime, slot)
	if err != nil {
		return nil, err
	}

	// 5. No non-cancelled reservation already holds the slot. This is
	// the fast-path check; the partial unique index settles races.
	existing, err := s.repo.Reservation.FindActiveBySlot(ctx, field.ID, req.Date, startTime)
	if err != nil {
		return nil, apperror.Internal("check existing reservations", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("this slot is already reserved")
	}

	// 6. No closure covers the date for this field
	closed, err := s.repo.Closure.ExistsForDate(ctx, field.ID, req.Date)
	if err != nil {
		return nil, apperror.Internal("check closures", err)
	}
	if closed {
		return nil, apperror.Validation("field %s is closed on %s", field.Name, req.Date.Format("2006-01-02"))
	}

	return &SlotCheck{
		Field:     field,
		Slot:      slot,
		StartTime: startTime,
		EndTime:   endTime,
	}, nil
}

func (s *availabilityService) ListFields(ctx context.Context) ([]response.FieldResponse, error) {
	fields, err := s.repo.Field.FindAllActive(ctx)
	if err != nil {
		return nil, apperror.Internal("list fields", err)
	}

	out := make([]response.FieldResponse, 0, len(fields))
	for _, field := range fields {
		out = append(out, response.FieldToResponse(field))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *availabilityService) ListFieldSlots(ctx context.Context, fieldID string, date time.Time) ([]response.SlotAvailabilityResponse, error) {
	id, err := uuid.Parse(fieldID)
	if err != nil {
		return nil, apperror.Validation("invalid field ID format %s", fieldID)
	}

	field, err := s.repo.Field.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("look up field", err)
	}
	if field == nil {
		return nil, apperror.NotFound("field %s not found", fieldID)
	}
	if !field.Active {
		return nil, apperror.Validation("field %s is not open for bookings", field.Name)
	}

	closed, err := s.repo.Closure.ExistsForDate(ctx, field.ID, date)
	if err != nil {
		return nil, apperror.Internal("check closures", err)
	}

	slots, err := s.repo.TimeSlot.FindByFieldID(ctx, field.ID)
	if err != nil {
		return nil, apperror.Internal("list time slots", err)
	}

	out := make([]response.SlotAvailabilityResponse, 0, len(slots))
	for _, slot := range slots {
		available := slot.Available && !closed && checkSlotDate(slot, date) == nil
		if available {
			count, err := s.repo.Reservation.CountActiveBySlot(ctx, field.ID, date, slot.StartTime)
			if err != nil {
				return nil, apperror.Internal("count reservations for slot", err)
			}
			available = count == 0
		}

		price := field.PricePerHour
		if slot.Price != nil && *slot.Price > 0 {
			price = *slot.Price
		}

		out = append(out, response.SlotAvailabilityResponse{
			ID:        slot.ID.String(),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Price:     price,
			Available: available,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })

	return out, nil
}

func checkSlotDate(slot *entity.TimeSlot, date time.Time) error {
	if slot.DateFrom != nil && slot.DateTo != nil {
		if date.Before(*slot.DateFrom) || date.After(*slot.DateTo) {
			return apperror.Validation("date %s is outside the slot's booking window", date.Format("2006-01-02"))
		}
		return nil
	}

	// Legacy slot without a date range: match on day-of-week when set.
	if slot.DayOfWeek != nil && int(date.Weekday()) != *slot.DayOfWeek {
		return apperror.Validation("slot is only bookable on %s", time.Weekday(*slot.DayOfWeek).String())
	}

	return nil
}

// normalizeWindow parses "HH:MM" or "HH:MM-HH:MM" into a canonical
// (start, end) pair. A missing end defaults to start plus one hour; an
// unparsable end falls back to the slot's own end time.
func normalizeWindow(input string, slot *entity.TimeSlot) (string, string, error) {
	input = strings.TrimSpace(input)

	startPart := input
	endPart := ""
	if idx := strings.Index(input, "-"); idx >= 0 {
		startPart = strings.TrimSpace(input[:idx])
		endPart = strings.TrimSpace(input[idx+1:])
	}

	start, err := time.Parse("15:04", startPart)
	if err != nil {
		return "", "", apperror.Validation("invalid start time %q, expected HH:MM", input)
	}
	startTime := start.Format("15:04")

	if endPart == "" {
		return startTime, start.Add(time.Hour).Format("15:04"), nil
	}

	end, err := time.Parse("15:04", endPart)
	if err != nil {
		return startTime, slot.EndTime, nil
	}

	return startTime, end.Format("15:04"), nil
}
