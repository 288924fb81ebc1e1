// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: courtbook
  port: 8080
database:
  driver: sqlite
  filename: courtbook.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Booking.ReservationTTLMinutes != 5 {
		t.Errorf("expected default reservation TTL of 5 minutes, got %d", cfg.Booking.ReservationTTLMinutes)
	}
	if cfg.Booking.WaitlistExpiryHours != 24 {
		t.Errorf("expected default waitlist expiry of 24 hours, got %d", cfg.Booking.WaitlistExpiryHours)
	}
	if cfg.Booking.PhoneRegion != "US" {
		t.Errorf("expected default phone region US, got %q", cfg.Booking.PhoneRegion)
	}
	if cfg.Scheduler.ReservationPurgeCron == "" {
		t.Error("expected default reservation purge cron")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name     string
		contents string
	}{
		{"missing app name", "app:\n  port: 8080\ndatabase:\n  driver: sqlite\n  filename: a.db\n"},
		{"missing port", "app:\n  name: courtbook\ndatabase:\n  driver: sqlite\n  filename: a.db\n"},
		{"unsupported driver", "app:\n  name: courtbook\n  port: 8080\ndatabase:\n  driver: postgres\n"},
		{"sqlite without filename", "app:\n  name: courtbook\n  port: 8080\ndatabase:\n  driver: sqlite\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.contents)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  name: courtbook
  environment: production
  port: 9000
database:
  driver: sqlite
  filename: courtbook.db
booking:
  reservation_ttl_minutes: 10
  phone_region: NL
scheduler:
  waitlist_expiry_cron: "30 * * * *"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.App.Port)
	}
	if cfg.Booking.ReservationTTLMinutes != 10 {
		t.Errorf("expected reservation TTL of 10 minutes, got %d", cfg.Booking.ReservationTTLMinutes)
	}
	if cfg.Booking.PhoneRegion != "NL" {
		t.Errorf("expected phone region NL, got %q", cfg.Booking.PhoneRegion)
	}
	if cfg.Scheduler.WaitlistExpiryCron != "30 * * * *" {
		t.Errorf("unexpected waitlist cron %q", cfg.Scheduler.WaitlistExpiryCron)
	}
}
