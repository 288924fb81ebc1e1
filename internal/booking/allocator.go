// internal/booking/allocator.go
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/db"
	"github.com/jkoster/courtbook/internal/email"
	"github.com/jkoster/courtbook/internal/phone"
)

// CreateBookingParams is the caller-facing request for a new booking.
type CreateBookingParams struct {
	CourtID   int64
	CoachID   *int64
	Equipment []EquipmentLine
	Start     time.Time
	End       time.Time
	Notes     string
	Phone     string
}

// CreateBooking allocates the full resource bundle atomically: the
// availability re-check, the price snapshot, and the inserts share one
// transaction, so two clients racing for the same slot cannot both win.
func (s *Service) CreateBooking(ctx context.Context, userID int64, params CreateBookingParams) (*Booking, error) {
	start, end, err := normalizeWindow(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	params.Start, params.End = start, end

	now := s.clock.Now().UTC()

	var row db.Booking
	err = s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		user, err := q.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("user %d not found", userID)
			}
			return internalf(err, "load user %d", userID)
		}

		result, err := s.checkAvailability(ctx, q, AvailabilityRequest{
			CourtID:       params.CourtID,
			CoachID:       params.CoachID,
			Equipment:     params.Equipment,
			Start:         params.Start,
			End:           params.End,
			ExcludeUserID: userID,
		}, now)
		if err != nil {
			return err
		}
		if !result.Available {
			return Conflictf("%s", result.Reason)
		}

		quote, err := s.quote(ctx, q, PriceRequest{
			CourtID:   params.CourtID,
			CoachID:   params.CoachID,
			Equipment: params.Equipment,
			Start:     params.Start,
			End:       params.End,
		})
		if err != nil {
			return err
		}

		contactPhone := s.writeBackPhone(ctx, q, user, params.Phone)

		appliedJSON, err := json.Marshal(quote.AppliedRules)
		if err != nil {
			return internalf(err, "encode pricing snapshot")
		}

		row, err = q.CreateBooking(ctx, db.CreateBookingParams{
			UserID:        userID,
			CourtID:       params.CourtID,
			CoachID:       nullableID(params.CoachID),
			StartTime:     params.Start,
			EndTime:       params.End,
			DurationHours: quote.DurationHours,
			CourtFee:      quote.CourtFee,
			EquipmentFee:  quote.EquipmentFee,
			CoachFee:      quote.CoachFee,
			BaseTotal:     quote.BaseTotal,
			FinalTotal:    quote.FinalTotal,
			AppliedRules:  string(appliedJSON),
			Status:        StatusConfirmed,
			Phone:         contactPhone,
			Notes:         params.Notes,
		})
		if err != nil {
			return internalf(err, "insert booking")
		}

		for _, line := range params.Equipment {
			if err := q.AddBookingEquipment(ctx, db.AddBookingEquipmentParams{
				BookingID:   row.ID,
				EquipmentID: line.EquipmentID,
				Quantity:    line.Quantity,
			}); err != nil {
				return internalf(err, "attach equipment %d", line.EquipmentID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking, err := s.loadBooking(ctx, row)
	if err != nil {
		return nil, err
	}
	s.sendConfirmation(ctx, userID, booking)
	return booking, nil
}

// writeBackPhone normalizes the supplied contact number and persists it to
// the user profile when it differs from the stored one. Normalization
// failures are logged and the raw number is dropped rather than failing
// the booking.
func (s *Service) writeBackPhone(ctx context.Context, q *db.Queries, user db.User, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return user.Phone
	}
	normalized, err := phone.Normalize(raw, s.phoneRegion)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("invalid contact phone, keeping profile number")
		return user.Phone
	}
	if normalized != user.Phone {
		if err := q.UpdateUserPhone(ctx, db.UpdateUserPhoneParams{Phone: normalized, ID: user.ID}); err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("failed to update profile phone")
		}
	}
	return normalized
}

// CancelBooking cancels a booking and then offers its slot to the front of
// the waitlist. Promotion happens after the cancellation commits so a
// failed promotion never un-cancels the booking.
func (s *Service) CancelBooking(ctx context.Context, bookingID, actorID int64, isAdmin bool) (*Booking, error) {
	var row db.Booking
	err := s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		var err error
		row, err = q.GetBookingByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("booking %d not found", bookingID)
			}
			return internalf(err, "load booking %d", bookingID)
		}
		if !isAdmin && row.UserID != actorID {
			return Forbiddenf("booking %d does not belong to you", bookingID)
		}
		switch row.Status {
		case StatusCancelled:
			return Conflictf("booking %d is already cancelled", bookingID)
		case StatusCompleted:
			return Conflictf("booking %d is already completed", bookingID)
		}

		if err := q.UpdateBookingStatus(ctx, db.UpdateBookingStatusParams{
			Status: StatusCancelled,
			ID:     bookingID,
		}); err != nil {
			return internalf(err, "cancel booking %d", bookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.promoteNext(ctx, row); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Int64("booking_id", row.ID).
			Int64("court_id", row.CourtID).
			Msg("waitlist promotion failed after cancellation")
	}

	cancelled, err := s.store.Queries.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, internalf(err, "reload booking %d", bookingID)
	}
	return s.loadBooking(ctx, cancelled)
}

// UpdateBookingParams carries a reschedule and/or notes change. Version,
// when supplied, is the version the caller last saw; a mismatch means
// someone else changed the booking first.
type UpdateBookingParams struct {
	Start   *time.Time
	End     *time.Time
	Notes   *string
	Version *int64
}

// UpdateBooking reschedules a booking with optimistic concurrency. The new
// window is re-checked against every resource the booking holds, excluding
// the booking itself, and the price snapshot is recomputed for the new
// window.
func (s *Service) UpdateBooking(ctx context.Context, bookingID, actorID int64, params UpdateBookingParams, isAdmin bool) (*Booking, error) {
	err := s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		row, err := q.GetBookingByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("booking %d not found", bookingID)
			}
			return internalf(err, "load booking %d", bookingID)
		}
		if !isAdmin && row.UserID != actorID {
			return Forbiddenf("booking %d does not belong to you", bookingID)
		}
		if params.Version != nil && *params.Version != row.Version {
			return Conflictf("booking %d was modified by another request, reload and retry", bookingID)
		}
		if row.Status != StatusConfirmed && row.Status != StatusPending {
			return Conflictf("booking %d is %s and cannot be modified", bookingID, row.Status)
		}

		notes := row.Notes
		if params.Notes != nil {
			notes = *params.Notes
		}

		if params.Start == nil && params.End == nil {
			if params.Notes == nil {
				return Invalidf("nothing to update")
			}
			affected, err := q.UpdateBookingNotes(ctx, db.UpdateBookingNotesParams{
				Notes:           notes,
				ID:              bookingID,
				ExpectedVersion: row.Version,
			})
			if err != nil {
				return internalf(err, "update booking %d notes", bookingID)
			}
			if affected == 0 {
				return Conflictf("booking %d was modified by another request, reload and retry", bookingID)
			}
			return nil
		}

		newStart, newEnd := row.StartTime, row.EndTime
		if params.Start != nil {
			newStart = *params.Start
		}
		if params.End != nil {
			newEnd = *params.End
		}
		newStart, newEnd, err = normalizeWindow(newStart, newEnd)
		if err != nil {
			return err
		}

		lines, err := q.ListBookingEquipment(ctx, bookingID)
		if err != nil {
			return internalf(err, "load booking %d equipment", bookingID)
		}
		equipment := make([]EquipmentLine, 0, len(lines))
		for _, line := range lines {
			equipment = append(equipment, EquipmentLine{EquipmentID: line.EquipmentID, Quantity: line.Quantity})
		}
		var coachID *int64
		if row.CoachID.Valid {
			id := row.CoachID.Int64
			coachID = &id
		}

		result, err := s.checkAvailability(ctx, q, AvailabilityRequest{
			CourtID:          row.CourtID,
			CoachID:          coachID,
			Equipment:        equipment,
			Start:            newStart,
			End:              newEnd,
			ExcludeBookingID: bookingID,
			ExcludeUserID:    row.UserID,
		}, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		if !result.Available {
			return Conflictf("%s", result.Reason)
		}

		quote, err := s.quote(ctx, q, PriceRequest{
			CourtID:   row.CourtID,
			CoachID:   coachID,
			Equipment: equipment,
			Start:     newStart,
			End:       newEnd,
		})
		if err != nil {
			return err
		}
		appliedJSON, err := json.Marshal(quote.AppliedRules)
		if err != nil {
			return internalf(err, "encode pricing snapshot")
		}

		affected, err := q.RescheduleBooking(ctx, db.RescheduleBookingParams{
			StartTime:       newStart,
			EndTime:         newEnd,
			DurationHours:   quote.DurationHours,
			CourtFee:        quote.CourtFee,
			EquipmentFee:    quote.EquipmentFee,
			CoachFee:        quote.CoachFee,
			BaseTotal:       quote.BaseTotal,
			FinalTotal:      quote.FinalTotal,
			AppliedRules:    string(appliedJSON),
			Notes:           notes,
			ID:              bookingID,
			ExpectedVersion: row.Version,
		})
		if err != nil {
			return internalf(err, "reschedule booking %d", bookingID)
		}
		if affected == 0 {
			return Conflictf("booking %d was modified by another request, reload and retry", bookingID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	row, err := s.store.Queries.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, internalf(err, "reload booking %d", bookingID)
	}
	return s.loadBooking(ctx, row)
}

// GetBooking returns one booking, visible to its owner or an admin.
func (s *Service) GetBooking(ctx context.Context, bookingID, actorID int64, isAdmin bool) (*Booking, error) {
	row, err := s.store.Queries.GetBookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundf("booking %d not found", bookingID)
		}
		return nil, internalf(err, "load booking %d", bookingID)
	}
	if !isAdmin && row.UserID != actorID {
		return nil, Forbiddenf("booking %d does not belong to you", bookingID)
	}
	return s.loadBooking(ctx, row)
}

// ListBookingsFilter narrows a user's booking history.
type ListBookingsFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
}

func (s *Service) ListUserBookings(ctx context.Context, userID int64, filter ListBookingsFilter) ([]*Booking, error) {
	arg := db.ListUserBookingsParams{
		UserID: userID,
		Status: filter.Status,
	}
	if filter.From != nil {
		arg.From = filter.From.UTC()
		arg.HasFrom = true
	}
	if filter.To != nil {
		arg.To = filter.To.UTC()
		arg.HasTo = true
	}

	rows, err := s.store.Queries.ListUserBookings(ctx, arg)
	if err != nil {
		return nil, internalf(err, "list bookings for user %d", userID)
	}

	bookings := make([]*Booking, 0, len(rows))
	for _, row := range rows {
		b, err := s.loadBooking(ctx, row)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (s *Service) loadBooking(ctx context.Context, row db.Booking) (*Booking, error) {
	lines, err := s.store.Queries.ListBookingEquipment(ctx, row.ID)
	if err != nil {
		return nil, internalf(err, "load booking %d equipment", row.ID)
	}
	return toBooking(row, lines)
}

func (s *Service) sendConfirmation(ctx context.Context, userID int64, booking *Booking) {
	q := s.store.Queries

	user, err := q.GetUser(ctx, userID)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("skipping confirmation email, user lookup failed")
		return
	}

	details := email.BookingDetails{Total: booking.Pricing.FinalTotal}
	details.Date, details.TimeRange = email.FormatDateTimeRange(booking.Start, booking.End)
	if court, err := q.GetCourt(ctx, booking.CourtID); err == nil {
		details.CourtName = court.Name
	}
	if booking.CoachID != nil {
		if coach, err := q.GetCoach(ctx, *booking.CoachID); err == nil {
			details.Coach = coach.Name
		}
	}
	if len(booking.Equipment) > 0 {
		parts := make([]string, 0, len(booking.Equipment))
		for _, line := range booking.Equipment {
			name := fmt.Sprintf("item %d", line.EquipmentID)
			if item, err := q.GetEquipment(ctx, line.EquipmentID); err == nil {
				name = item.Name
			}
			parts = append(parts, fmt.Sprintf("%s x%d", name, line.Quantity))
		}
		details.Equipment = strings.Join(parts, ", ")
	}

	email.SendAsync(ctx, s.sender, user.Email, email.BuildBookingConfirmation(details), &s.logger)
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
