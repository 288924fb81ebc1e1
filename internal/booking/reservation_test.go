// internal/booking/reservation_test.go
package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoster/courtbook/internal/booking"
	"github.com/jkoster/courtbook/internal/testutil"
)

func TestCreateReservationBlocksOtherUsers(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	held, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "active", held.Status)
	assert.True(t, held.ExpiresAt.Equal(clock.Current.Add(5*time.Minute)))

	// Bob cannot book or hold the slot while Ann's hold is live.
	_, err = svc.CreateBooking(context.Background(), bobID, booking.CreateBookingParams{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	assert.True(t, booking.IsConflict(err))

	_, err = svc.CreateReservation(context.Background(), bobID, courtID, start, start.Add(time.Hour))
	assert.True(t, booking.IsConflict(err))
}

func TestCreateReservationSelfExclusion(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)

	// The holder's own hold never blocks them from completing the booking.
	created, err := svc.CreateBooking(context.Background(), annID, booking.CreateBookingParams{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", created.Status)
}

func TestCreateReservationIdempotentSameSlot(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	first, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	second, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.ExpiresAt.Equal(second.ExpiresAt), "re-request must not extend the hold")
}

func TestReservationExpiryFreesSlot(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	held, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	// The expired hold no longer blocks Bob, and Ann cannot extend it.
	_, err = svc.CreateReservation(context.Background(), bobID, courtID, start, start.Add(time.Hour))
	assert.NoError(t, err)

	_, err = svc.ExtendReservation(context.Background(), held.ID, annID)
	assert.True(t, booking.IsConflict(err))
}

func TestExtendReservationResetsTTL(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	held, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	extended, err := svc.ExtendReservation(context.Background(), held.ID, annID)
	require.NoError(t, err)
	assert.True(t, extended.ExpiresAt.Equal(clock.Current.Add(5*time.Minute)))
}

func TestReleaseReservationFreesSlot(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	held, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	require.NoError(t, err)

	// Only the holder can release it.
	err = svc.ReleaseReservation(context.Background(), held.ID, bobID)
	assert.True(t, booking.IsForbidden(err))

	require.NoError(t, svc.ReleaseReservation(context.Background(), held.ID, annID))

	_, err = svc.CreateReservation(context.Background(), bobID, courtID, start, start.Add(time.Hour))
	assert.NoError(t, err)
}

func TestCreateReservationRejectsPastSlot(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CreateReservation(context.Background(), annID, courtID, start, start.Add(time.Hour))
	assert.True(t, booking.IsInvalid(err))
}
