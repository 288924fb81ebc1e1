// internal/booking/availability.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jkoster/courtbook/internal/db"
)

// AvailabilityRequest describes one multi-resource availability question.
// ExcludeBookingID removes a booking from every overlap test (used by
// reschedules); ExcludeUserID removes that user's own soft holds from the
// court test.
type AvailabilityRequest struct {
	CourtID          int64
	CoachID          *int64
	Equipment        []EquipmentLine
	Start            time.Time
	End              time.Time
	ExcludeBookingID int64
	ExcludeUserID    int64
}

// AvailabilityResult reports whether the full bundle is free. Reason is set
// only when Available is false and names the first failing resource.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// CheckAvailability answers a read-path availability question. The result
// is advisory: allocation re-runs the same checks inside its own
// transaction because time passes between preview and commit.
func (s *Service) CheckAvailability(ctx context.Context, req AvailabilityRequest) (AvailabilityResult, error) {
	start, end, err := normalizeWindow(req.Start, req.End)
	if err != nil {
		return AvailabilityResult{}, err
	}
	req.Start, req.End = start, end
	return s.checkAvailability(ctx, s.store.Queries, req, s.clock.Now().UTC())
}

// checkAvailability runs the court, coach, and equipment checks in order
// and short-circuits on the first conflict. Callers that are about to write
// must pass a transactional Queries so the check and the write share one
// atomic scope.
func (s *Service) checkAvailability(ctx context.Context, q *db.Queries, req AvailabilityRequest, now time.Time) (AvailabilityResult, error) {
	result, err := s.checkCourt(ctx, q, req, now)
	if err != nil || !result.Available {
		return result, err
	}

	if req.CoachID != nil {
		result, err = s.checkCoach(ctx, q, *req.CoachID, req)
		if err != nil || !result.Available {
			return result, err
		}
	}

	if len(req.Equipment) > 0 {
		result, err = s.checkEquipment(ctx, q, req)
		if err != nil || !result.Available {
			return result, err
		}
	}

	return AvailabilityResult{Available: true}, nil
}

func (s *Service) checkCourt(ctx context.Context, q *db.Queries, req AvailabilityRequest, now time.Time) (AvailabilityResult, error) {
	court, err := q.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AvailabilityResult{}, NotFoundf("court %d not found", req.CourtID)
		}
		return AvailabilityResult{}, internalf(err, "load court %d", req.CourtID)
	}
	if court.Status == CourtMaintenance || court.Status == CourtDisabled {
		return AvailabilityResult{Reason: "court is not bookable"}, nil
	}

	conflicts, err := q.ListCourtBookingsOverlapping(ctx, db.ListCourtBookingsOverlappingParams{
		CourtID:          req.CourtID,
		StartTime:        req.Start,
		EndTime:          req.End,
		ExcludeBookingID: req.ExcludeBookingID,
	})
	if err != nil {
		return AvailabilityResult{}, internalf(err, "check court bookings")
	}
	if len(conflicts) > 0 {
		return AvailabilityResult{Reason: "court is not available for the selected time slot"}, nil
	}

	holds, err := q.ListCourtReservationsOverlapping(ctx, db.ListCourtReservationsOverlappingParams{
		CourtID:       req.CourtID,
		Now:           now,
		StartTime:     req.Start,
		EndTime:       req.End,
		ExcludeUserID: req.ExcludeUserID,
	})
	if err != nil {
		return AvailabilityResult{}, internalf(err, "check court reservations")
	}
	if len(holds) > 0 {
		return AvailabilityResult{Reason: "court is temporarily held for the selected time slot"}, nil
	}

	return AvailabilityResult{Available: true}, nil
}

func (s *Service) checkCoach(ctx context.Context, q *db.Queries, coachID int64, req AvailabilityRequest) (AvailabilityResult, error) {
	if _, err := q.GetCoach(ctx, coachID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AvailabilityResult{}, NotFoundf("coach %d not found", coachID)
		}
		return AvailabilityResult{}, internalf(err, "load coach %d", coachID)
	}

	conflicts, err := q.ListCoachBookingsOverlapping(ctx, db.ListCoachBookingsOverlappingParams{
		CoachID:          coachID,
		StartTime:        req.Start,
		EndTime:          req.End,
		ExcludeBookingID: req.ExcludeBookingID,
	})
	if err != nil {
		return AvailabilityResult{}, internalf(err, "check coach bookings")
	}
	if len(conflicts) > 0 {
		return AvailabilityResult{Reason: "coach is not available for the selected time slot"}, nil
	}

	return AvailabilityResult{Available: true}, nil
}

func (s *Service) checkEquipment(ctx context.Context, q *db.Queries, req AvailabilityRequest) (AvailabilityResult, error) {
	for _, line := range req.Equipment {
		if line.Quantity <= 0 {
			return AvailabilityResult{}, Invalidf("equipment quantity must be greater than 0")
		}

		item, err := q.GetEquipment(ctx, line.EquipmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return AvailabilityResult{}, NotFoundf("equipment %d not found", line.EquipmentID)
			}
			return AvailabilityResult{}, internalf(err, "load equipment %d", line.EquipmentID)
		}

		booked, err := q.SumEquipmentBooked(ctx, db.SumEquipmentBookedParams{
			EquipmentID:      line.EquipmentID,
			StartTime:        req.Start,
			EndTime:          req.End,
			ExcludeBookingID: req.ExcludeBookingID,
		})
		if err != nil {
			return AvailabilityResult{}, internalf(err, "sum booked equipment %d", line.EquipmentID)
		}

		remaining := item.TotalQuantity - booked
		if remaining < line.Quantity {
			return AvailabilityResult{
				Reason: fmt.Sprintf("insufficient %s available: requested %d, available %d", item.Name, line.Quantity, remaining),
			}, nil
		}
	}

	return AvailabilityResult{Available: true}, nil
}

// DaySlot is one hour-grid cell in a court's day view.
type DaySlot struct {
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

const (
	dayGridOpenHour  = 6
	dayGridCloseHour = 22
)

// AvailableSlots returns the 1-hour grid for a court on a calendar day,
// marking each slot that conflicts with a confirmed or pending booking.
// The grid is a client convenience; it does not constrain what windows the
// allocator accepts.
func (s *Service) AvailableSlots(ctx context.Context, courtID int64, day time.Time) ([]DaySlot, error) {
	q := s.store.Queries
	if _, err := q.GetCourt(ctx, courtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundf("court %d not found", courtID)
		}
		return nil, internalf(err, "load court %d", courtID)
	}

	day = day.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), dayGridOpenHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), dayGridCloseHour, 0, 0, 0, time.UTC)

	bookings, err := q.ListCourtBookingsOverlapping(ctx, db.ListCourtBookingsOverlappingParams{
		CourtID:   courtID,
		StartTime: dayStart,
		EndTime:   dayEnd,
	})
	if err != nil {
		return nil, internalf(err, "list court bookings")
	}

	slots := make([]DaySlot, 0, dayGridCloseHour-dayGridOpenHour)
	for hour := dayGridOpenHour; hour < dayGridCloseHour; hour++ {
		slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
		slotEnd := slotStart.Add(time.Hour)

		booked := false
		for _, b := range bookings {
			if b.StartTime.Before(slotEnd) && b.EndTime.After(slotStart) {
				booked = true
				break
			}
		}

		slots = append(slots, DaySlot{Start: slotStart, End: slotEnd, Available: !booked})
	}
	return slots, nil
}
