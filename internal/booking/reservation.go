// internal/booking/reservation.go
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jkoster/courtbook/internal/db"
)

// CreateReservation places a short-lived soft hold on a court slot. The
// hold blocks other users from booking or holding the slot until it
// expires or is released; re-requesting an identical live hold returns the
// existing one with its original expiry.
func (s *Service) CreateReservation(ctx context.Context, userID, courtID int64, start, end time.Time) (*Reservation, error) {
	start, end, err := normalizeWindow(start, end)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	if !start.After(now) {
		return nil, Invalidf("cannot reserve a time slot that has already passed")
	}

	var row db.Reservation
	err = s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		if _, err := q.GetUser(ctx, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("user %d not found", userID)
			}
			return internalf(err, "load user %d", userID)
		}

		existing, err := q.GetActiveReservationForSlot(ctx, db.GetActiveReservationForSlotParams{
			UserID:    userID,
			CourtID:   courtID,
			StartTime: start,
			EndTime:   end,
			Now:       now,
		})
		if err == nil {
			row = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return internalf(err, "check existing reservation")
		}

		result, err := s.checkAvailability(ctx, q, AvailabilityRequest{
			CourtID:       courtID,
			Start:         start,
			End:           end,
			ExcludeUserID: userID,
		}, now)
		if err != nil {
			return err
		}
		if !result.Available {
			return Conflictf("%s", result.Reason)
		}

		row, err = q.CreateReservation(ctx, db.CreateReservationParams{
			UserID:    userID,
			CourtID:   courtID,
			StartTime: start,
			EndTime:   end,
			ExpiresAt: now.Add(s.holdTTL),
		})
		if err != nil {
			return internalf(err, "insert reservation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toReservation(row), nil
}

// ExtendReservation resets a live hold's expiry to a full TTL from now.
func (s *Service) ExtendReservation(ctx context.Context, reservationID, userID int64) (*Reservation, error) {
	now := s.clock.Now().UTC()

	var row db.Reservation
	err := s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		var err error
		row, err = q.GetReservationByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("reservation %d not found", reservationID)
			}
			return internalf(err, "load reservation %d", reservationID)
		}
		if row.UserID != userID {
			return Forbiddenf("reservation %d does not belong to you", reservationID)
		}
		if row.Status != ReservationActive || !row.ExpiresAt.After(now) {
			return Conflictf("reservation %d is no longer active", reservationID)
		}

		row.ExpiresAt = now.Add(s.holdTTL)
		if err := q.ExtendReservation(ctx, db.ExtendReservationParams{
			ExpiresAt: row.ExpiresAt,
			ID:        reservationID,
		}); err != nil {
			return internalf(err, "extend reservation %d", reservationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toReservation(row), nil
}

// ReleaseReservation frees a hold early. Releasing an already released or
// expired hold is a no-op.
func (s *Service) ReleaseReservation(ctx context.Context, reservationID, userID int64) error {
	return s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		row, err := q.GetReservationByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("reservation %d not found", reservationID)
			}
			return internalf(err, "load reservation %d", reservationID)
		}
		if row.UserID != userID {
			return Forbiddenf("reservation %d does not belong to you", reservationID)
		}

		if err := q.ReleaseReservation(ctx, reservationID); err != nil {
			return internalf(err, "release reservation %d", reservationID)
		}
		return nil
	})
}
