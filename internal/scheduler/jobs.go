// internal/scheduler/jobs.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/jkoster/courtbook/internal/booking"
	"github.com/jkoster/courtbook/internal/config"
	"github.com/jkoster/courtbook/internal/db"
)

const jobTimeout = 2 * time.Minute

// RegisterMaintenanceJobs wires the periodic hygiene sweeps: purging dead
// soft holds, completing elapsed bookings, and expiring stale waitlist
// entries.
func RegisterMaintenanceJobs(database *db.DB, svc *booking.Service, cfg config.SchedulerConfig) error {
	if database == nil || svc == nil {
		return fmt.Errorf("maintenance jobs require database and booking service")
	}

	purgeLogger := log.With().Str("component", "reservation_purge_job").Logger()
	_, err := AddJob("reservation_purge", cfg.ReservationPurgeCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = purgeLogger.WithContext(ctx)

		purged, err := database.Queries.DeleteDeadReservations(ctx, time.Now().UTC())
		if err != nil {
			purgeLogger.Error().Err(err).Msg("Failed to purge dead reservations")
			return
		}
		if purged > 0 {
			purgeLogger.Info().Int64("purged", purged).Msg("Purged dead reservations")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add reservation purge job: %w", err)
	}

	sweepLogger := log.With().Str("component", "completion_sweep_job").Logger()
	_, err = AddJob("completion_sweep", cfg.CompletionSweepCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = sweepLogger.WithContext(ctx)

		completed, err := database.Queries.CompletePastBookings(ctx, time.Now().UTC())
		if err != nil {
			sweepLogger.Error().Err(err).Msg("Failed to complete past bookings")
			return
		}
		if completed > 0 {
			sweepLogger.Info().Int64("completed", completed).Msg("Marked past bookings completed")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add completion sweep job: %w", err)
	}

	expiryLogger := log.With().Str("component", "waitlist_expiry_job").Logger()
	_, err = AddJob("waitlist_expiry", cfg.WaitlistExpiryCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		ctx = expiryLogger.WithContext(ctx)

		expired, err := svc.ExpireWaitlistEntries(ctx)
		if err != nil {
			expiryLogger.Error().Err(err).Msg("Failed to expire waitlist entries")
			return
		}
		if expired > 0 {
			expiryLogger.Info().Int64("expired", expired).Msg("Expired stale waitlist entries")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add waitlist expiry job: %w", err)
	}

	return nil
}
