// internal/booking/waitlist_test.go
package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkoster/courtbook/internal/booking"
	"github.com/jkoster/courtbook/internal/db"
	"github.com/jkoster/courtbook/internal/testutil"
)

func TestJoinWaitlistAssignsDensePositions(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	params := booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	}

	for i, name := range []string{"Ann", "Bob", "Cal"} {
		userID := testutil.SeedUser(t, store, name, name+"@example.com", "")
		entry, err := svc.JoinWaitlist(context.Background(), userID, params)
		require.NoError(t, err)
		assert.EqualValues(t, i+1, entry.Position)
		assert.Equal(t, "waiting", entry.Status)
	}
}

func TestJoinWaitlistRejectsDuplicate(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	userID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	params := booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	}
	_, err := svc.JoinWaitlist(context.Background(), userID, params)
	require.NoError(t, err)

	_, err = svc.JoinWaitlist(context.Background(), userID, params)
	assert.True(t, booking.IsConflict(err))

	// A different slot is a different queue.
	params.StartTime, params.EndTime = "11:00", "12:00"
	entry, err := svc.JoinWaitlist(context.Background(), userID, params)
	require.NoError(t, err)
	assert.EqualValues(t, 1, entry.Position)
}

func TestJoinWaitlistValidatesInput(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	userID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	cases := []struct {
		name   string
		params booking.JoinWaitlistParams
	}{
		{"bad date", booking.JoinWaitlistParams{CourtID: courtID, Date: "07/09/2026", StartTime: "10:00", EndTime: "11:00"}},
		{"bad time", booking.JoinWaitlistParams{CourtID: courtID, Date: "2026-09-07", StartTime: "10am", EndTime: "11:00"}},
		{"inverted window", booking.JoinWaitlistParams{CourtID: courtID, Date: "2026-09-07", StartTime: "11:00", EndTime: "10:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.JoinWaitlist(context.Background(), userID, tc.params)
			assert.True(t, booking.IsInvalid(err))
		})
	}
}

func TestRemoveFromWaitlistRenumbers(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")
	params := booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	}

	users := make([]int64, 3)
	entries := make([]*booking.WaitlistEntry, 3)
	for i, name := range []string{"Ann", "Bob", "Cal"} {
		users[i] = testutil.SeedUser(t, store, name, name+"@example.com", "")
		entry, err := svc.JoinWaitlist(context.Background(), users[i], params)
		require.NoError(t, err)
		entries[i] = entry
	}

	// Bob (position 2) leaves; Cal moves up to 2, Ann stays at 1.
	require.NoError(t, svc.RemoveFromWaitlist(context.Background(), entries[1].ID, users[1], false))

	annEntries, err := svc.ListUserWaitlist(context.Background(), users[0], "")
	require.NoError(t, err)
	require.Len(t, annEntries, 1)
	assert.EqualValues(t, 1, annEntries[0].Position)

	calEntries, err := svc.ListUserWaitlist(context.Background(), users[2], "")
	require.NoError(t, err)
	require.Len(t, calEntries, 1)
	assert.EqualValues(t, 2, calEntries[0].Position)
}

func TestRemoveFromWaitlistAuthorization(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	entry, err := svc.JoinWaitlist(context.Background(), annID, booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)

	err = svc.RemoveFromWaitlist(context.Background(), entry.ID, bobID, false)
	assert.True(t, booking.IsForbidden(err))

	assert.NoError(t, svc.RemoveFromWaitlist(context.Background(), entry.ID, bobID, true))
}

func TestCancellationPromotesFrontOfWaitlist(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, sender := newTestService(t, store)

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	calID := testutil.SeedUser(t, store, "Cal", "cal@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	held, err := svc.CreateBooking(context.Background(), annID, booking.CreateBookingParams{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)

	params := booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	}
	bobEntry, err := svc.JoinWaitlist(context.Background(), bobID, params)
	require.NoError(t, err)
	_, err = svc.JoinWaitlist(context.Background(), calID, params)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), held.ID, annID, false)
	require.NoError(t, err)

	// Bob, at the front, gets the slot as a new confirmed booking.
	bobBookings, err := svc.ListUserBookings(context.Background(), bobID, booking.ListBookingsFilter{Status: "confirmed"})
	require.NoError(t, err)
	require.Len(t, bobBookings, 1)
	assert.True(t, bobBookings[0].Start.Equal(start))
	assert.Contains(t, bobBookings[0].Notes, "Auto-booked from waitlist")

	bobEntries, err := svc.ListUserWaitlist(context.Background(), bobID, "")
	require.NoError(t, err)
	require.Len(t, bobEntries, 1)
	assert.Equal(t, "converted", bobEntries[0].Status)
	assert.Equal(t, bobEntry.ID, bobEntries[0].ID)

	// Cal moves to the front of the remaining queue.
	calEntries, err := svc.ListUserWaitlist(context.Background(), calID, "")
	require.NoError(t, err)
	require.Len(t, calEntries, 1)
	assert.Equal(t, "waiting", calEntries[0].Status)
	assert.EqualValues(t, 1, calEntries[0].Position)

	// Bob is told about it.
	require.Eventually(t, func() bool {
		for _, msg := range sender.Sent() {
			if msg.Recipient == "bob@example.com" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPromotionSkippedWhenSlotRetaken(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	calID := testutil.SeedUser(t, store, "Cal", "cal@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	held, err := svc.CreateBooking(context.Background(), annID, booking.CreateBookingParams{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.JoinWaitlist(context.Background(), bobID, booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)

	// Cal's soft hold lands on the slot before Ann cancels. The service
	// would refuse to create it while Ann's booking stands, so insert the
	// row directly; the promoter still has to lose to it.
	testutil.SeedReservation(t, store, calID, courtID, start, start.Add(time.Hour), clock.Current.Add(5*time.Minute))

	_, err = svc.CancelBooking(context.Background(), held.ID, annID, false)
	require.NoError(t, err)

	bobEntries, err := svc.ListUserWaitlist(context.Background(), bobID, "")
	require.NoError(t, err)
	require.Len(t, bobEntries, 1)
	assert.Equal(t, "waiting", bobEntries[0].Status)
	assert.EqualValues(t, 1, bobEntries[0].Position)
}

func TestNotifyNextKeepsPosition(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, sender := newTestService(t, store)

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	params := booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	}
	_, err := svc.JoinWaitlist(context.Background(), annID, params)
	require.NoError(t, err)
	_, err = svc.JoinWaitlist(context.Background(), bobID, params)
	require.NoError(t, err)

	notified, err := svc.NotifyNext(context.Background(), db.WaitlistSlot{
		CourtID:    courtID,
		TargetDate: "2026-09-07",
		StartTime:  "10:00",
		EndTime:    "11:00",
	})
	require.NoError(t, err)
	require.NotNil(t, notified)
	assert.Equal(t, "notified", notified.Status)
	assert.EqualValues(t, 1, notified.Position)

	require.Len(t, sender.Sent(), 1)
	assert.Equal(t, "ann@example.com", sender.Sent()[0].Recipient)

	// Bob keeps position 2: notification does not consume the queue slot.
	bobEntries, err := svc.ListUserWaitlist(context.Background(), bobID, "waiting")
	require.NoError(t, err)
	require.Len(t, bobEntries, 1)
	assert.EqualValues(t, 2, bobEntries[0].Position)
}

func TestExpireWaitlistEntries(t *testing.T) {
	store := testutil.NewTestDB(t)
	clock := &testutil.FakeClock{Current: time.Date(2026, 9, 6, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, store, booking.WithClock(clock))

	annID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	bobID := testutil.SeedUser(t, store, "Bob", "bob@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	// Ann waits for a slot tomorrow, Bob for one a week out.
	_, err := svc.JoinWaitlist(context.Background(), annID, booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)
	_, err = svc.JoinWaitlist(context.Background(), bobID, booking.JoinWaitlistParams{
		CourtID:   courtID,
		Date:      "2026-09-13",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)

	// Two days later Ann's entry has aged out, Bob's has not.
	clock.Advance(48 * time.Hour)
	expired, err := svc.ExpireWaitlistEntries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	annEntries, err := svc.ListUserWaitlist(context.Background(), annID, "")
	require.NoError(t, err)
	require.Len(t, annEntries, 1)
	assert.Equal(t, "expired", annEntries[0].Status)

	bobEntries, err := svc.ListUserWaitlist(context.Background(), bobID, "waiting")
	require.NoError(t, err)
	assert.Len(t, bobEntries, 1)
}
