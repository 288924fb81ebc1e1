// internal/booking/service.go
package booking

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jkoster/courtbook/internal/db"
	"github.com/jkoster/courtbook/internal/email"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"

	ReservationActive   = "active"
	ReservationReleased = "released"

	WaitlistWaiting   = "waiting"
	WaitlistNotified  = "notified"
	WaitlistConverted = "converted"
	WaitlistExpired   = "expired"

	CourtActive      = "active"
	CourtMaintenance = "maintenance"
	CourtDisabled    = "disabled"
)

const (
	defaultHoldTTL     = 5 * time.Minute
	defaultWaitlistTTL = 24 * time.Hour

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Service implements availability checks, pricing, booking allocation, soft
// holds, and waitlist promotion over a single transactional store.
type Service struct {
	store       *db.DB
	sender      email.Sender
	clock       Clock
	logger      zerolog.Logger
	holdTTL     time.Duration
	waitlistTTL time.Duration
	phoneRegion string
}

type Option func(*Service)

// WithClock overrides the time source, used by tests to freeze TTLs.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithHoldTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

func WithWaitlistTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.waitlistTTL = d
		}
	}
}

func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		if region != "" {
			s.phoneRegion = region
		}
	}
}

func NewService(store *db.DB, sender email.Sender, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:       store,
		sender:      sender,
		clock:       realClock{},
		logger:      logger,
		holdTTL:     defaultHoldTTL,
		waitlistTTL: defaultWaitlistTTL,
		phoneRegion: "US",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// normalizeWindow validates a half-open [start, end) window and normalizes
// both bounds to whole-second UTC, the storage resolution.
func normalizeWindow(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, Invalidf("start and end times are required")
	}
	start = start.UTC().Truncate(time.Second)
	end = end.UTC().Truncate(time.Second)
	if !end.After(start) {
		return time.Time{}, time.Time{}, Invalidf("end time must be after start time")
	}
	return start, end, nil
}
