// internal/booking/types.go
package booking

import (
	"encoding/json"
	"time"

	"github.com/jkoster/courtbook/internal/db"
)

// EquipmentLine is one requested equipment item with a quantity.
type EquipmentLine struct {
	EquipmentID int64 `json:"equipment_id"`
	Quantity    int64 `json:"quantity"`
}

// AppliedRule records one pricing rule that matched a booking, as frozen
// into the pricing snapshot.
type AppliedRule struct {
	RuleID     int64   `json:"rule_id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// Quote is a full pricing breakdown for a resource bundle and window. All
// monetary figures are rounded to two decimal places.
type Quote struct {
	CourtFee      float64       `json:"court_fee"`
	EquipmentFee  float64       `json:"equipment_fee"`
	CoachFee      float64       `json:"coach_fee"`
	BaseTotal     float64       `json:"base_total"`
	AppliedRules  []AppliedRule `json:"applied_rules"`
	FinalTotal    float64       `json:"final_total"`
	DurationHours float64       `json:"duration_hours"`
}

type Booking struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	CourtID   int64           `json:"court_id"`
	CoachID   *int64          `json:"coach_id,omitempty"`
	Equipment []EquipmentLine `json:"equipment,omitempty"`
	Start     time.Time       `json:"start_time"`
	End       time.Time       `json:"end_time"`
	Pricing   Quote           `json:"pricing"`
	Status    string          `json:"status"`
	Version   int64           `json:"version"`
	Phone     string          `json:"phone,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Reservation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CourtID   int64     `json:"court_id"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type WaitlistEntry struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	CourtID   int64           `json:"court_id"`
	Date      string          `json:"date"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	CoachID   *int64          `json:"coach_id,omitempty"`
	Equipment []EquipmentLine `json:"equipment,omitempty"`
	Position  int64           `json:"position"`
	Status    string          `json:"status"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
}

func toBooking(row db.Booking, lines []db.BookingEquipment) (*Booking, error) {
	var applied []AppliedRule
	if row.AppliedRules != "" {
		if err := json.Unmarshal([]byte(row.AppliedRules), &applied); err != nil {
			return nil, internalf(err, "decode pricing snapshot for booking %d", row.ID)
		}
	}

	b := &Booking{
		ID:      row.ID,
		UserID:  row.UserID,
		CourtID: row.CourtID,
		Start:   row.StartTime,
		End:     row.EndTime,
		Pricing: Quote{
			CourtFee:      row.CourtFee,
			EquipmentFee:  row.EquipmentFee,
			CoachFee:      row.CoachFee,
			BaseTotal:     row.BaseTotal,
			AppliedRules:  applied,
			FinalTotal:    row.FinalTotal,
			DurationHours: row.DurationHours,
		},
		Status:    row.Status,
		Version:   row.Version,
		Phone:     row.Phone,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.CoachID.Valid {
		coachID := row.CoachID.Int64
		b.CoachID = &coachID
	}
	for _, line := range lines {
		b.Equipment = append(b.Equipment, EquipmentLine{
			EquipmentID: line.EquipmentID,
			Quantity:    line.Quantity,
		})
	}
	return b, nil
}

func toReservation(row db.Reservation) *Reservation {
	return &Reservation{
		ID:        row.ID,
		UserID:    row.UserID,
		CourtID:   row.CourtID,
		Start:     row.StartTime,
		End:       row.EndTime,
		Status:    row.Status,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}
}

func toWaitlistEntry(row db.WaitlistEntry) (*WaitlistEntry, error) {
	var lines []EquipmentLine
	if row.Equipment != "" {
		if err := json.Unmarshal([]byte(row.Equipment), &lines); err != nil {
			return nil, internalf(err, "decode equipment for waitlist entry %d", row.ID)
		}
	}

	e := &WaitlistEntry{
		ID:        row.ID,
		UserID:    row.UserID,
		CourtID:   row.CourtID,
		Date:      row.TargetDate,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Equipment: lines,
		Position:  row.Position,
		Status:    row.Status,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}
	if row.CoachID.Valid {
		coachID := row.CoachID.Int64
		e.CoachID = &coachID
	}
	return e, nil
}
