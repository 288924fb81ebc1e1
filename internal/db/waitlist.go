// internal/db/waitlist.go
package db

import (
	"context"
	"database/sql"
	"time"
)

const waitlistColumns = `
id, user_id, court_id, target_date, start_time, end_time, coach_id,
equipment, phone, notes, position, status, expires_at, notified_at, created_at
`

func scanWaitlistEntry(row interface{ Scan(...any) error }) (WaitlistEntry, error) {
	var e WaitlistEntry
	err := row.Scan(
		&e.ID, &e.UserID, &e.CourtID, &e.TargetDate, &e.StartTime, &e.EndTime, &e.CoachID,
		&e.Equipment, &e.Phone, &e.Notes, &e.Position, &e.Status, &e.ExpiresAt, &e.NotifiedAt, &e.CreatedAt,
	)
	return e, err
}

func (q *Queries) collectWaitlistEntries(ctx context.Context, query string, args ...any) ([]WaitlistEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []WaitlistEntry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const createWaitlistEntry = `
INSERT INTO waitlist_entries (
    user_id, court_id, target_date, start_time, end_time, coach_id,
    equipment, phone, notes, position, status, expires_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'waiting', ?)
`

type CreateWaitlistEntryParams struct {
	UserID     int64
	CourtID    int64
	TargetDate string
	StartTime  string
	EndTime    string
	CoachID    sql.NullInt64
	Equipment  string
	Phone      string
	Notes      string
	Position   int64
	ExpiresAt  time.Time
}

func (q *Queries) CreateWaitlistEntry(ctx context.Context, arg CreateWaitlistEntryParams) (WaitlistEntry, error) {
	result, err := q.db.ExecContext(ctx, createWaitlistEntry,
		arg.UserID, arg.CourtID, arg.TargetDate, arg.StartTime, arg.EndTime, arg.CoachID,
		arg.Equipment, arg.Phone, arg.Notes, arg.Position, arg.ExpiresAt,
	)
	if err != nil {
		return WaitlistEntry{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return WaitlistEntry{}, err
	}
	return q.GetWaitlistEntryByID(ctx, id)
}

const getWaitlistEntryByID = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE id = ?
`

func (q *Queries) GetWaitlistEntryByID(ctx context.Context, id int64) (WaitlistEntry, error) {
	return scanWaitlistEntry(q.db.QueryRowContext(ctx, getWaitlistEntryByID, id))
}

const getUserWaitingEntryForSlot = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE user_id = ?
  AND court_id = ?
  AND target_date = ?
  AND start_time = ?
  AND end_time = ?
  AND status = 'waiting'
LIMIT 1
`

type GetUserWaitingEntryForSlotParams struct {
	UserID     int64
	CourtID    int64
	TargetDate string
	StartTime  string
	EndTime    string
}

func (q *Queries) GetUserWaitingEntryForSlot(ctx context.Context, arg GetUserWaitingEntryForSlotParams) (WaitlistEntry, error) {
	return scanWaitlistEntry(q.db.QueryRowContext(ctx, getUserWaitingEntryForSlot,
		arg.UserID, arg.CourtID, arg.TargetDate, arg.StartTime, arg.EndTime))
}

const countWaitingForSlot = `
SELECT COUNT(*)
FROM waitlist_entries
WHERE court_id = ?
  AND target_date = ?
  AND start_time = ?
  AND end_time = ?
  AND status = 'waiting'
`

type WaitlistSlot struct {
	CourtID    int64
	TargetDate string
	StartTime  string
	EndTime    string
}

func (q *Queries) CountWaitingForSlot(ctx context.Context, arg WaitlistSlot) (int64, error) {
	row := q.db.QueryRowContext(ctx, countWaitingForSlot,
		arg.CourtID, arg.TargetDate, arg.StartTime, arg.EndTime)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listWaitingForSlot = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE court_id = ?
  AND target_date = ?
  AND start_time = ?
  AND end_time = ?
  AND status = 'waiting'
ORDER BY position ASC
`

// ListWaitingForSlot returns the waiting queue for a slot, front first.
func (q *Queries) ListWaitingForSlot(ctx context.Context, arg WaitlistSlot) ([]WaitlistEntry, error) {
	return q.collectWaitlistEntries(ctx, listWaitingForSlot,
		arg.CourtID, arg.TargetDate, arg.StartTime, arg.EndTime)
}

const listUserWaitlistEntries = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE user_id = ?
  AND (? = '' OR status = ?)
ORDER BY created_at DESC
`

type ListUserWaitlistEntriesParams struct {
	UserID int64
	Status string
}

func (q *Queries) ListUserWaitlistEntries(ctx context.Context, arg ListUserWaitlistEntriesParams) ([]WaitlistEntry, error) {
	return q.collectWaitlistEntries(ctx, listUserWaitlistEntries,
		arg.UserID, arg.Status, arg.Status)
}

const updateWaitlistStatus = `
UPDATE waitlist_entries SET status = ? WHERE id = ?
`

type UpdateWaitlistStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateWaitlistStatus(ctx context.Context, arg UpdateWaitlistStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateWaitlistStatus, arg.Status, arg.ID)
	return err
}

const markWaitlistNotified = `
UPDATE waitlist_entries SET status = 'notified', notified_at = ? WHERE id = ?
`

type MarkWaitlistNotifiedParams struct {
	NotifiedAt time.Time
	ID         int64
}

func (q *Queries) MarkWaitlistNotified(ctx context.Context, arg MarkWaitlistNotifiedParams) error {
	_, err := q.db.ExecContext(ctx, markWaitlistNotified, arg.NotifiedAt, arg.ID)
	return err
}

const shiftWaitlistPositions = `
UPDATE waitlist_entries
SET position = position - 1
WHERE court_id = ?
  AND target_date = ?
  AND start_time = ?
  AND end_time = ?
  AND status = 'waiting'
  AND position > ?
`

type ShiftWaitlistPositionsParams struct {
	CourtID       int64
	TargetDate    string
	StartTime     string
	EndTime       string
	AfterPosition int64
}

// ShiftWaitlistPositions closes the gap left by an entry that departed the
// waiting set, keeping positions a contiguous 1..N.
func (q *Queries) ShiftWaitlistPositions(ctx context.Context, arg ShiftWaitlistPositionsParams) error {
	_, err := q.db.ExecContext(ctx, shiftWaitlistPositions,
		arg.CourtID, arg.TargetDate, arg.StartTime, arg.EndTime, arg.AfterPosition)
	return err
}

const deleteWaitlistEntry = `
DELETE FROM waitlist_entries WHERE id = ?
`

func (q *Queries) DeleteWaitlistEntry(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteWaitlistEntry, id)
	return err
}

const listExpiredWaitingEntries = `
SELECT ` + waitlistColumns + `
FROM waitlist_entries
WHERE status = 'waiting'
  AND expires_at <= ?
ORDER BY id
`

func (q *Queries) ListExpiredWaitingEntries(ctx context.Context, now time.Time) ([]WaitlistEntry, error) {
	return q.collectWaitlistEntries(ctx, listExpiredWaitingEntries, now)
}
