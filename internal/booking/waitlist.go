// internal/booking/waitlist.go
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/db"
	"github.com/jkoster/courtbook/internal/email"
)

// JoinWaitlistParams identifies the slot a user wants to wait for. Dates
// and times are wall-clock strings so the queue survives independent of
// any concrete booking row.
type JoinWaitlistParams struct {
	CourtID   int64
	Date      string // 2006-01-02
	StartTime string // 15:04
	EndTime   string // 15:04
	CoachID   *int64
	Equipment []EquipmentLine
	Notes     string
	Phone     string
}

// JoinWaitlist appends a user to the FIFO queue for a slot. Positions are
// dense and 1-based per slot; joining twice while still waiting is a
// conflict.
func (s *Service) JoinWaitlist(ctx context.Context, userID int64, params JoinWaitlistParams) (*WaitlistEntry, error) {
	date, err := time.ParseInLocation(dateLayout, params.Date, time.UTC)
	if err != nil {
		return nil, Invalidf("date must be in YYYY-MM-DD format")
	}
	startAt, err := time.ParseInLocation(timeLayout, params.StartTime, time.UTC)
	if err != nil {
		return nil, Invalidf("start_time must be in HH:MM format")
	}
	endAt, err := time.ParseInLocation(timeLayout, params.EndTime, time.UTC)
	if err != nil {
		return nil, Invalidf("end_time must be in HH:MM format")
	}
	if !endAt.After(startAt) {
		return nil, Invalidf("end time must be after start time")
	}

	var row db.WaitlistEntry
	err = s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		user, err := q.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("user %d not found", userID)
			}
			return internalf(err, "load user %d", userID)
		}
		if _, err := q.GetCourt(ctx, params.CourtID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("court %d not found", params.CourtID)
			}
			return internalf(err, "load court %d", params.CourtID)
		}

		_, err = q.GetUserWaitingEntryForSlot(ctx, db.GetUserWaitingEntryForSlotParams{
			UserID:     userID,
			CourtID:    params.CourtID,
			TargetDate: params.Date,
			StartTime:  params.StartTime,
			EndTime:    params.EndTime,
		})
		if err == nil {
			return Conflictf("you are already on the waitlist for this slot")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return internalf(err, "check existing waitlist entry")
		}

		count, err := q.CountWaitingForSlot(ctx, db.WaitlistSlot{
			CourtID:    params.CourtID,
			TargetDate: params.Date,
			StartTime:  params.StartTime,
			EndTime:    params.EndTime,
		})
		if err != nil {
			return internalf(err, "count waitlist entries")
		}

		contactPhone := s.writeBackPhone(ctx, q, user, params.Phone)

		equipmentJSON := ""
		if len(params.Equipment) > 0 {
			raw, err := json.Marshal(params.Equipment)
			if err != nil {
				return internalf(err, "encode equipment request")
			}
			equipmentJSON = string(raw)
		}

		row, err = q.CreateWaitlistEntry(ctx, db.CreateWaitlistEntryParams{
			UserID:     userID,
			CourtID:    params.CourtID,
			TargetDate: params.Date,
			StartTime:  params.StartTime,
			EndTime:    params.EndTime,
			CoachID:    nullableID(params.CoachID),
			Equipment:  equipmentJSON,
			Phone:      contactPhone,
			Notes:      params.Notes,
			Position:   count + 1,
			ExpiresAt:  date.Add(s.waitlistTTL),
		})
		if err != nil {
			return internalf(err, "insert waitlist entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toWaitlistEntry(row)
}

// ListUserWaitlist returns a user's waitlist entries, newest first,
// optionally filtered by status.
func (s *Service) ListUserWaitlist(ctx context.Context, userID int64, status string) ([]*WaitlistEntry, error) {
	rows, err := s.store.Queries.ListUserWaitlistEntries(ctx, db.ListUserWaitlistEntriesParams{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return nil, internalf(err, "list waitlist entries for user %d", userID)
	}

	entries := make([]*WaitlistEntry, 0, len(rows))
	for _, row := range rows {
		e, err := toWaitlistEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RemoveFromWaitlist deletes an entry. When a waiting entry departs, every
// entry behind it moves up one so positions stay a contiguous 1..N.
func (s *Service) RemoveFromWaitlist(ctx context.Context, entryID, actorID int64, isAdmin bool) error {
	return s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		row, err := q.GetWaitlistEntryByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return NotFoundf("waitlist entry %d not found", entryID)
			}
			return internalf(err, "load waitlist entry %d", entryID)
		}
		if !isAdmin && row.UserID != actorID {
			return Forbiddenf("waitlist entry %d does not belong to you", entryID)
		}

		if err := q.DeleteWaitlistEntry(ctx, entryID); err != nil {
			return internalf(err, "delete waitlist entry %d", entryID)
		}
		if row.Status == WaitlistWaiting {
			if err := q.ShiftWaitlistPositions(ctx, db.ShiftWaitlistPositionsParams{
				CourtID:       row.CourtID,
				TargetDate:    row.TargetDate,
				StartTime:     row.StartTime,
				EndTime:       row.EndTime,
				AfterPosition: row.Position,
			}); err != nil {
				return internalf(err, "renumber waitlist positions")
			}
		}
		return nil
	})
}

// NotifyNext emails the front of a slot's queue that the slot is open and
// marks the entry notified. The entry keeps its position; only conversion
// or removal consumes it.
func (s *Service) NotifyNext(ctx context.Context, slot db.WaitlistSlot) (*WaitlistEntry, error) {
	q := s.store.Queries

	waiting, err := q.ListWaitingForSlot(ctx, slot)
	if err != nil {
		return nil, internalf(err, "list waiting entries")
	}
	if len(waiting) == 0 {
		return nil, nil
	}
	front := waiting[0]

	user, err := q.GetUser(ctx, front.UserID)
	if err != nil {
		return nil, internalf(err, "load user %d", front.UserID)
	}
	courtName := ""
	if court, err := q.GetCourt(ctx, front.CourtID); err == nil {
		courtName = court.Name
	}

	msg := email.BuildWaitlistNotification(email.WaitlistDetails{
		CourtName: courtName,
		Date:      front.TargetDate,
		TimeRange: front.StartTime + " - " + front.EndTime,
		Position:  front.Position,
	})
	if err := s.sender.Send(ctx, user.Email, msg.Subject, msg.Body); err != nil {
		return nil, internalf(err, "send waitlist notification")
	}

	if err := q.MarkWaitlistNotified(ctx, db.MarkWaitlistNotifiedParams{
		NotifiedAt: s.clock.Now().UTC(),
		ID:         front.ID,
	}); err != nil {
		return nil, internalf(err, "mark waitlist entry %d notified", front.ID)
	}

	front.Status = WaitlistNotified
	return toWaitlistEntry(front)
}

// promoteNext tries to convert the front of the cancelled slot's queue
// into a real booking. The promoted entry goes through the ordinary
// allocation path, so pricing and conflicts are evaluated exactly as for a
// direct booking. Failures leave the entry waiting.
func (s *Service) promoteNext(ctx context.Context, cancelled db.Booking) error {
	start := cancelled.StartTime.UTC()
	end := cancelled.EndTime.UTC()
	slot := db.WaitlistSlot{
		CourtID:    cancelled.CourtID,
		TargetDate: start.Format(dateLayout),
		StartTime:  start.Format(timeLayout),
		EndTime:    end.Format(timeLayout),
	}

	q := s.store.Queries
	waiting, err := q.ListWaitingForSlot(ctx, slot)
	if err != nil {
		return internalf(err, "list waiting entries")
	}
	if len(waiting) == 0 {
		return nil
	}
	front := waiting[0]

	var equipment []EquipmentLine
	if front.Equipment != "" {
		if err := json.Unmarshal([]byte(front.Equipment), &equipment); err != nil {
			return internalf(err, "decode equipment for waitlist entry %d", front.ID)
		}
	}
	var coachID *int64
	if front.CoachID.Valid {
		id := front.CoachID.Int64
		coachID = &id
	}

	notes := "Auto-booked from waitlist"
	if extra := strings.TrimSpace(front.Notes); extra != "" {
		notes = notes + ": " + extra
	}

	booking, err := s.CreateBooking(ctx, front.UserID, CreateBookingParams{
		CourtID:   front.CourtID,
		CoachID:   coachID,
		Equipment: equipment,
		Start:     start,
		End:       end,
		Notes:     notes,
		Phone:     front.Phone,
	})
	if err != nil {
		// The entry stays waiting for the next opening.
		log.Ctx(ctx).Warn().Err(err).
			Int64("waitlist_entry_id", front.ID).
			Int64("court_id", front.CourtID).
			Msg("could not promote waitlist entry")
		return nil
	}

	err = s.store.RunInTx(ctx, func(tx *db.DB) error {
		if err := tx.Queries.UpdateWaitlistStatus(ctx, db.UpdateWaitlistStatusParams{
			Status: WaitlistConverted,
			ID:     front.ID,
		}); err != nil {
			return internalf(err, "mark waitlist entry %d converted", front.ID)
		}
		return tx.Queries.ShiftWaitlistPositions(ctx, db.ShiftWaitlistPositionsParams{
			CourtID:       slot.CourtID,
			TargetDate:    slot.TargetDate,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			AfterPosition: front.Position,
		})
	})
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Int64("waitlist_entry_id", front.ID).
		Int64("booking_id", booking.ID).
		Int64("user_id", front.UserID).
		Msg("waitlist entry promoted to booking")

	if user, err := q.GetUser(ctx, front.UserID); err == nil {
		courtName := ""
		if court, err := q.GetCourt(ctx, front.CourtID); err == nil {
			courtName = court.Name
		}
		msg := email.BuildWaitlistNotification(email.WaitlistDetails{
			CourtName: courtName,
			Date:      slot.TargetDate,
			TimeRange: slot.StartTime + " - " + slot.EndTime,
		})
		email.SendAsync(ctx, s.sender, user.Email, msg, &s.logger)
	}
	return nil
}

// ExpireWaitlistEntries marks stale waiting entries expired and renumbers
// each affected queue. Used by the hourly sweep.
func (s *Service) ExpireWaitlistEntries(ctx context.Context) (int64, error) {
	now := s.clock.Now().UTC()

	var expired int64
	err := s.store.RunInTx(ctx, func(tx *db.DB) error {
		q := tx.Queries

		entries, err := q.ListExpiredWaitingEntries(ctx, now)
		if err != nil {
			return internalf(err, "list expired waitlist entries")
		}
		for _, entry := range entries {
			// Earlier shifts in this sweep may have moved this entry up, so
			// renumber from its current position, not the snapshot.
			entry, err := q.GetWaitlistEntryByID(ctx, entry.ID)
			if err != nil {
				return internalf(err, "reload waitlist entry")
			}
			if err := q.UpdateWaitlistStatus(ctx, db.UpdateWaitlistStatusParams{
				Status: WaitlistExpired,
				ID:     entry.ID,
			}); err != nil {
				return internalf(err, "expire waitlist entry %d", entry.ID)
			}
			if err := q.ShiftWaitlistPositions(ctx, db.ShiftWaitlistPositionsParams{
				CourtID:       entry.CourtID,
				TargetDate:    entry.TargetDate,
				StartTime:     entry.StartTime,
				EndTime:       entry.EndTime,
				AfterPosition: entry.Position,
			}); err != nil {
				return internalf(err, "renumber waitlist positions")
			}
			expired++
		}
		return nil
	})
	return expired, err
}
