// internal/db/models.go
package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Court struct {
	ID             int64
	Name           string
	CourtType      string
	HourlyBaseRate float64
	Status         string
	CreatedAt      time.Time
}

type Equipment struct {
	ID            int64
	Name          string
	TotalQuantity int64
	HourlyRate    float64
	CreatedAt     time.Time
}

type Coach struct {
	ID         int64
	Name       string
	Email      string
	HourlyRate float64
	CreatedAt  time.Time
}

type PricingRule struct {
	ID         int64
	Name       string
	RuleType   string
	Multiplier float64
	Priority   int64
	Active     bool
	StartHour  sql.NullInt64
	EndHour    sql.NullInt64
	DaysOfWeek sql.NullString
	CourtTypes sql.NullString
	StartDate  sql.NullString
	EndDate    sql.NullString
	CreatedAt  time.Time
}

type Booking struct {
	ID            int64
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
	Version       int64
	Phone         string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type BookingEquipment struct {
	BookingID   int64
	EquipmentID int64
	Quantity    int64
}

type Reservation struct {
	ID        int64
	UserID    int64
	CourtID   int64
	StartTime time.Time
	EndTime   time.Time
	Status    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type WaitlistEntry struct {
	ID         int64
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
	Status     string
	ExpiresAt  time.Time
	NotifiedAt sql.NullTime
	CreatedAt  time.Time
}
