// internal/testutil/db.go
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jkoster/courtbook/internal/db"
)

// NewTestDB opens a fresh migrated SQLite database in the test's temp
// directory and closes it when the test finishes.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	store, err := db.New(dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func exec(t *testing.T, store *db.DB, query string, args ...any) int64 {
	t.Helper()
	result, err := store.ExecContext(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("seed exec: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("seed last insert id: %v", err)
	}
	return id
}

func SeedUser(t *testing.T, store *db.DB, name, email, phone string) int64 {
	return exec(t, store,
		`INSERT INTO users (name, email, phone) VALUES (?, ?, ?)`,
		name, email, phone)
}

func SeedCourt(t *testing.T, store *db.DB, name, courtType string, rate float64, status string) int64 {
	return exec(t, store,
		`INSERT INTO courts (name, court_type, hourly_base_rate, status) VALUES (?, ?, ?, ?)`,
		name, courtType, rate, status)
}

func SeedEquipment(t *testing.T, store *db.DB, name string, quantity int64, rate float64) int64 {
	return exec(t, store,
		`INSERT INTO equipment (name, total_quantity, hourly_rate) VALUES (?, ?, ?)`,
		name, quantity, rate)
}

func SeedCoach(t *testing.T, store *db.DB, name, email string, rate float64) int64 {
	return exec(t, store,
		`INSERT INTO coaches (name, email, hourly_rate) VALUES (?, ?, ?)`,
		name, email, rate)
}

// SeedReservation inserts an active soft hold directly, bypassing the
// service's availability check. Useful for staging contention that the
// service itself would refuse to create.
func SeedReservation(t *testing.T, store *db.DB, userID, courtID int64, start, end, expiresAt time.Time) int64 {
	return exec(t, store,
		`INSERT INTO reservations (user_id, court_id, start_time, end_time, status, expires_at)
		 VALUES (?, ?, ?, ?, 'active', ?)`,
		userID, courtID, start, end, expiresAt)
}

// PricingRuleSeed mirrors the nullable condition columns of pricing_rules.
type PricingRuleSeed struct {
	Name       string
	RuleType   string
	Multiplier float64
	Priority   int64
	Active     bool
	StartHour  *int64
	EndHour    *int64
	DaysOfWeek string
	CourtTypes string
	StartDate  string
	EndDate    string
}

func SeedPricingRule(t *testing.T, store *db.DB, seed PricingRuleSeed) int64 {
	return exec(t, store,
		`INSERT INTO pricing_rules
		 (name, rule_type, multiplier, priority, active, start_hour, end_hour, days_of_week, court_types, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seed.Name, seed.RuleType, seed.Multiplier, seed.Priority, seed.Active,
		nullInt(seed.StartHour), nullInt(seed.EndHour),
		nullStr(seed.DaysOfWeek), nullStr(seed.CourtTypes),
		nullStr(seed.StartDate), nullStr(seed.EndDate))
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// Int64 returns a pointer to v, for seeding nullable columns inline.
func Int64(v int64) *int64 { return &v }

// FakeClock is a manually advanced time source.
type FakeClock struct {
	Current time.Time
}

func (c *FakeClock) Now() time.Time { return c.Current }

func (c *FakeClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// FakeSender records every message instead of delivering it. Safe for the
// detached goroutines that asynchronous sends run on.
type FakeSender struct {
	mu   sync.Mutex
	sent []SentMessage
}

type SentMessage struct {
	Recipient string
	Subject   string
	Body      string
}

func (s *FakeSender) Send(_ context.Context, recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentMessage{Recipient: recipient, Subject: subject, Body: body})
	return nil
}

func (s *FakeSender) Sent() []SentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SentMessage(nil), s.sent...)
}

// QueryRow is a convenience for asserting raw database state.
func QueryRow(t *testing.T, store *db.DB, query string, args []any, dest ...any) {
	t.Helper()
	if err := store.QueryRowContext(context.Background(), query, args...).Scan(dest...); err != nil {
		t.Fatalf("query row: %v", err)
	}
}
