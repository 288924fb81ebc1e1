// internal/booking/availability_test.go
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

func TestCheckAvailabilityOpenCourt(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	result, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Empty(t, result.Reason)
}

func TestCheckAvailabilityMaintenanceCourt(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "maintenance")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	result, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "court is not bookable", result.Reason)
}

func TestCheckAvailabilityUnknownCourt(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID: 42,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	assert.True(t, booking.IsNotFound(err))
}

func TestCheckAvailabilityOverlappingBooking(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	userID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CreateBooking(context.Background(), userID, booking.CreateBookingParams{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	cases := []struct {
		name       string
		start, end time.Time
		available  bool
	}{
		{"identical window", start, start.Add(2 * time.Hour), false},
		{"overlaps tail", start.Add(time.Hour), start.Add(3 * time.Hour), false},
		{"contained", start.Add(30 * time.Minute), start.Add(time.Hour), false},
		{"abuts end", start.Add(2 * time.Hour), start.Add(3 * time.Hour), true},
		{"abuts start", start.Add(-time.Hour), start, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
				CourtID: courtID,
				Start:   tc.start,
				End:     tc.end,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.available, result.Available)
		})
	}
}

func TestCheckAvailabilityCoachConflict(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	userID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtA := testutil.SeedCourt(t, store, "Court A", "indoor", 500, "active")
	courtB := testutil.SeedCourt(t, store, "Court B", "indoor", 500, "active")
	coachID := testutil.SeedCoach(t, store, "Coach Kim", "kim@example.com", 800)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CreateBooking(context.Background(), userID, booking.CreateBookingParams{
		CourtID: courtA,
		CoachID: &coachID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)

	// Same coach on a different court at the same time
	result, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID: courtB,
		CoachID: &coachID,
		Start:   start,
		End:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "coach is not available for the selected time slot", result.Reason)
}

func TestCheckAvailabilityEquipmentShortfall(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	userID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtA := testutil.SeedCourt(t, store, "Court A", "indoor", 500, "active")
	courtB := testutil.SeedCourt(t, store, "Court B", "indoor", 500, "active")
	racketID := testutil.SeedEquipment(t, store, "Racket", 3, 50)

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CreateBooking(context.Background(), userID, booking.CreateBookingParams{
		CourtID:   courtA,
		Equipment: []booking.EquipmentLine{{EquipmentID: racketID, Quantity: 2}},
		Start:     start,
		End:       start.Add(time.Hour),
	})
	require.NoError(t, err)

	result, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID:   courtB,
		Equipment: []booking.EquipmentLine{{EquipmentID: racketID, Quantity: 2}},
		Start:     start,
		End:       start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "insufficient Racket available: requested 2, available 1", result.Reason)

	// One racket is still free
	result, err = svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID:   courtB,
		Equipment: []booking.EquipmentLine{{EquipmentID: racketID, Quantity: 1}},
		Start:     start,
		End:       start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestAvailableSlotsGrid(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	userID := testutil.SeedUser(t, store, "Ann", "ann@example.com", "")
	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	day := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	start := day.Add(10 * time.Hour)
	_, err := svc.CreateBooking(context.Background(), userID, booking.CreateBookingParams{
		CourtID: courtID,
		Start:   start,
		End:     start.Add(90 * time.Minute),
	})
	require.NoError(t, err)

	slots, err := svc.AvailableSlots(context.Background(), courtID, day)
	require.NoError(t, err)
	require.Len(t, slots, 16)

	for _, slot := range slots {
		switch slot.Start.Hour() {
		case 10, 11:
			assert.False(t, slot.Available, "hour %d should be booked", slot.Start.Hour())
		default:
			assert.True(t, slot.Available, "hour %d should be free", slot.Start.Hour())
		}
	}
}

func TestCheckAvailabilityInvalidWindow(t *testing.T) {
	store := testutil.NewTestDB(t)
	svc, _ := newTestService(t, store)

	courtID := testutil.SeedCourt(t, store, "Court 1", "indoor", 500, "active")

	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	_, err := svc.CheckAvailability(context.Background(), booking.AvailabilityRequest{
		CourtID: courtID,
		Start:   start,
		End:     start,
	})
	assert.True(t, booking.IsInvalid(err))
}
