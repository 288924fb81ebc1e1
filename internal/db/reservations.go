// internal/db/reservations.go
package db

import (
	"context"
	"time"
)

const reservationColumns = `
id, user_id, court_id, start_time, end_time, status, expires_at, created_at
`

func scanReservation(row interface{ Scan(...any) error }) (Reservation, error) {
	var r Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.CourtID, &r.StartTime, &r.EndTime, &r.Status, &r.ExpiresAt, &r.CreatedAt)
	return r, err
}

const createReservation = `
INSERT INTO reservations (user_id, court_id, start_time, end_time, status, expires_at)
VALUES (?, ?, ?, ?, 'active', ?)
`

type CreateReservationParams struct {
	UserID    int64
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	ExpiresAt time.Time
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	result, err := q.db.ExecContext(ctx, createReservation,
		arg.UserID, arg.CourtID, arg.StartTime, arg.EndTime, arg.ExpiresAt)
	if err != nil {
		return Reservation{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Reservation{}, err
	}
	return q.GetReservationByID(ctx, id)
}

const getReservationByID = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE id = ?
`

func (q *Queries) GetReservationByID(ctx context.Context, id int64) (Reservation, error) {
	return scanReservation(q.db.QueryRowContext(ctx, getReservationByID, id))
}

const getActiveReservationForSlot = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE user_id = ?
  AND court_id = ?
  AND start_time = ?
  AND end_time = ?
  AND status = 'active'
  AND expires_at > ?
LIMIT 1
`

type GetActiveReservationForSlotParams struct {
	UserID    int64
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	Now       time.Time
}

// GetActiveReservationForSlot finds a user's own live hold on the exact
// slot, used for idempotent re-requests.
func (q *Queries) GetActiveReservationForSlot(ctx context.Context, arg GetActiveReservationForSlotParams) (Reservation, error) {
	return scanReservation(q.db.QueryRowContext(ctx, getActiveReservationForSlot,
		arg.UserID, arg.CourtID, arg.StartTime, arg.EndTime, arg.Now))
}

const listCourtReservationsOverlapping = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE court_id = ?
  AND status = 'active'
  AND expires_at > ?
  AND start_time < ?
  AND end_time > ?
  AND (? = 0 OR user_id <> ?)
ORDER BY start_time
`

type ListCourtReservationsOverlappingParams struct {
	CourtID       int64
	Now           time.Time
	StartTime     time.Time
	EndTime       time.Time
	ExcludeUserID int64
}

// ListCourtReservationsOverlapping returns live holds that block the window.
// Expired holds are filtered out here rather than garbage collected, and a
// user's own holds never block them.
func (q *Queries) ListCourtReservationsOverlapping(ctx context.Context, arg ListCourtReservationsOverlappingParams) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listCourtReservationsOverlapping,
		arg.CourtID, arg.Now, arg.EndTime, arg.StartTime, arg.ExcludeUserID, arg.ExcludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}

const extendReservation = `
UPDATE reservations SET expires_at = ? WHERE id = ?
`

type ExtendReservationParams struct {
	ExpiresAt time.Time
	ID        int64
}

func (q *Queries) ExtendReservation(ctx context.Context, arg ExtendReservationParams) error {
	_, err := q.db.ExecContext(ctx, extendReservation, arg.ExpiresAt, arg.ID)
	return err
}

const releaseReservation = `
UPDATE reservations SET status = 'released' WHERE id = ?
`

func (q *Queries) ReleaseReservation(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, releaseReservation, id)
	return err
}

const deleteDeadReservations = `
DELETE FROM reservations
WHERE status = 'released' OR expires_at <= ?
`

// DeleteDeadReservations removes released and expired holds. Hygiene only:
// readers already treat them as absent via the expires_at predicate.
func (q *Queries) DeleteDeadReservations(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteDeadReservations, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
