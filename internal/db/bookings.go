// internal/db/bookings.go
package db

import (
	"context"
	"database/sql"
	"time"
)

const bookingColumns = `
id, user_id, court_id, coach_id, start_time, end_time, duration_hours,
court_fee, equipment_fee, coach_fee, base_total, final_total, applied_rules,
status, version, phone, notes, created_at, updated_at
`

func scanBooking(row interface{ Scan(...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.CourtID, &b.CoachID, &b.StartTime, &b.EndTime, &b.DurationHours,
		&b.CourtFee, &b.EquipmentFee, &b.CoachFee, &b.BaseTotal, &b.FinalTotal, &b.AppliedRules,
		&b.Status, &b.Version, &b.Phone, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (q *Queries) collectBookings(ctx context.Context, query string, args ...any) ([]Booking, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

const createBooking = `
INSERT INTO bookings (
    user_id, court_id, coach_id, start_time, end_time, duration_hours,
    court_fee, equipment_fee, coach_fee, base_total, final_total, applied_rules,
    status, version, phone, notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
`

type CreateBookingParams struct {
	UserID        int64
	CourtID       int64
	CoachID       sql.NullInt64
	StartTime     time.Time
	EndTime       time.Time
	DurationHours float64
	CourtFee      float64
	EquipmentFee  float64
	CoachFee      float64
	BaseTotal     float64
	FinalTotal    float64
	AppliedRules  string
	Status        string
	Phone         string
	Notes         string
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error) {
	result, err := q.db.ExecContext(ctx, createBooking,
		arg.UserID, arg.CourtID, arg.CoachID, arg.StartTime, arg.EndTime, arg.DurationHours,
		arg.CourtFee, arg.EquipmentFee, arg.CoachFee, arg.BaseTotal, arg.FinalTotal, arg.AppliedRules,
		arg.Status, arg.Phone, arg.Notes,
	)
	if err != nil {
		return Booking{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Booking{}, err
	}
	return q.GetBookingByID(ctx, id)
}

const addBookingEquipment = `
INSERT INTO booking_equipment (booking_id, equipment_id, quantity)
VALUES (?, ?, ?)
`

type AddBookingEquipmentParams struct {
	BookingID   int64
	EquipmentID int64
	Quantity    int64
}

func (q *Queries) AddBookingEquipment(ctx context.Context, arg AddBookingEquipmentParams) error {
	_, err := q.db.ExecContext(ctx, addBookingEquipment, arg.BookingID, arg.EquipmentID, arg.Quantity)
	return err
}

const getBookingByID = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE id = ?
`

func (q *Queries) GetBookingByID(ctx context.Context, id int64) (Booking, error) {
	return scanBooking(q.db.QueryRowContext(ctx, getBookingByID, id))
}

const listBookingEquipment = `
SELECT booking_id, equipment_id, quantity
FROM booking_equipment
WHERE booking_id = ?
ORDER BY equipment_id
`

func (q *Queries) ListBookingEquipment(ctx context.Context, bookingID int64) ([]BookingEquipment, error) {
	rows, err := q.db.QueryContext(ctx, listBookingEquipment, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []BookingEquipment
	for rows.Next() {
		var item BookingEquipment
		if err := rows.Scan(&item.BookingID, &item.EquipmentID, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Overlap tests use the half-open interval rule: an existing row conflicts
// when existing.start < new_end AND existing.end > new_start. Only
// confirmed and pending bookings hold resources.

const listCourtBookingsOverlapping = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE court_id = ?
  AND status IN ('confirmed', 'pending')
  AND start_time < ?
  AND end_time > ?
  AND (? = 0 OR id <> ?)
ORDER BY start_time
`

type ListCourtBookingsOverlappingParams struct {
	CourtID          int64
	StartTime        time.Time
	EndTime          time.Time
	ExcludeBookingID int64
}

func (q *Queries) ListCourtBookingsOverlapping(ctx context.Context, arg ListCourtBookingsOverlappingParams) ([]Booking, error) {
	return q.collectBookings(ctx, listCourtBookingsOverlapping,
		arg.CourtID, arg.EndTime, arg.StartTime, arg.ExcludeBookingID, arg.ExcludeBookingID)
}

const listCoachBookingsOverlapping = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE coach_id = ?
  AND status IN ('confirmed', 'pending')
  AND start_time < ?
  AND end_time > ?
  AND (? = 0 OR id <> ?)
ORDER BY start_time
`

type ListCoachBookingsOverlappingParams struct {
	CoachID          int64
	StartTime        time.Time
	EndTime          time.Time
	ExcludeBookingID int64
}

func (q *Queries) ListCoachBookingsOverlapping(ctx context.Context, arg ListCoachBookingsOverlappingParams) ([]Booking, error) {
	return q.collectBookings(ctx, listCoachBookingsOverlapping,
		arg.CoachID, arg.EndTime, arg.StartTime, arg.ExcludeBookingID, arg.ExcludeBookingID)
}

const sumEquipmentBooked = `
SELECT COALESCE(SUM(be.quantity), 0)
FROM booking_equipment be
JOIN bookings b ON b.id = be.booking_id
WHERE be.equipment_id = ?
  AND b.status IN ('confirmed', 'pending')
  AND b.start_time < ?
  AND b.end_time > ?
  AND (? = 0 OR b.id <> ?)
`

type SumEquipmentBookedParams struct {
	EquipmentID      int64
	StartTime        time.Time
	EndTime          time.Time
	ExcludeBookingID int64
}

// SumEquipmentBooked returns the total quantity of one equipment item
// claimed by bookings overlapping the window.
func (q *Queries) SumEquipmentBooked(ctx context.Context, arg SumEquipmentBookedParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumEquipmentBooked,
		arg.EquipmentID, arg.EndTime, arg.StartTime, arg.ExcludeBookingID, arg.ExcludeBookingID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const listUserBookings = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE user_id = ?
  AND (? = '' OR status = ?)
  AND (? = 0 OR start_time >= ?)
  AND (? = 0 OR start_time <= ?)
ORDER BY start_time DESC
`

type ListUserBookingsParams struct {
	UserID  int64
	Status  string
	From    time.Time
	To      time.Time
	HasFrom bool
	HasTo   bool
}

func (q *Queries) ListUserBookings(ctx context.Context, arg ListUserBookingsParams) ([]Booking, error) {
	fromFlag, toFlag := 0, 0
	if arg.HasFrom {
		fromFlag = 1
	}
	if arg.HasTo {
		toFlag = 1
	}
	return q.collectBookings(ctx, listUserBookings,
		arg.UserID,
		arg.Status, arg.Status,
		fromFlag, arg.From,
		toFlag, arg.To,
	)
}

const updateBookingStatus = `
UPDATE bookings
SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type UpdateBookingStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateBookingStatus, arg.Status, arg.ID)
	return err
}

const rescheduleBooking = `
UPDATE bookings
SET start_time = ?, end_time = ?, duration_hours = ?,
    court_fee = ?, equipment_fee = ?, coach_fee = ?,
    base_total = ?, final_total = ?, applied_rules = ?,
    notes = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND version = ?
`

type RescheduleBookingParams struct {
	StartTime       time.Time
	EndTime         time.Time
	DurationHours   float64
	CourtFee        float64
	EquipmentFee    float64
	CoachFee        float64
	BaseTotal       float64
	FinalTotal      float64
	AppliedRules    string
	Notes           string
	ID              int64
	ExpectedVersion int64
}

// RescheduleBooking performs a compare-and-swap on the version column.
// Returns the number of rows updated; zero means the stored version no
// longer matches ExpectedVersion.
func (q *Queries) RescheduleBooking(ctx context.Context, arg RescheduleBookingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, rescheduleBooking,
		arg.StartTime, arg.EndTime, arg.DurationHours,
		arg.CourtFee, arg.EquipmentFee, arg.CoachFee,
		arg.BaseTotal, arg.FinalTotal, arg.AppliedRules,
		arg.Notes, arg.ID, arg.ExpectedVersion,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateBookingNotes = `
UPDATE bookings
SET notes = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND version = ?
`

type UpdateBookingNotesParams struct {
	Notes           string
	ID              int64
	ExpectedVersion int64
}

func (q *Queries) UpdateBookingNotes(ctx context.Context, arg UpdateBookingNotesParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateBookingNotes, arg.Notes, arg.ID, arg.ExpectedVersion)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const completePastBookings = `
UPDATE bookings
SET status = 'completed', version = version + 1, updated_at = CURRENT_TIMESTAMP
WHERE status = 'confirmed' AND end_time <= ?
`

// CompletePastBookings flips confirmed bookings whose window has fully
// elapsed to completed. Used by the periodic sweep.
func (q *Queries) CompletePastBookings(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, completePastBookings, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
