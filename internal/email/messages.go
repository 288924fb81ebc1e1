package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type BookingDetails struct {
	CourtName string
	Date      string
	TimeRange string
	Coach     string
	Equipment string
	Total     float64
}

type WaitlistDetails struct {
	CourtName string
	Date      string
	TimeRange string
	Position  int64
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

// BuildBookingConfirmation builds the confirmation sent after a booking
// commits.
func BuildBookingConfirmation(details BookingDetails) Message {
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "Court"
	}

	lines := []string{
		"Your court booking is confirmed.",
		"",
		fmt.Sprintf("Court: %s", courtName),
		fmt.Sprintf("Date: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Time: %s", strings.TrimSpace(details.TimeRange)),
	}
	if coach := strings.TrimSpace(details.Coach); coach != "" {
		lines = append(lines, fmt.Sprintf("Coach: %s", coach))
	}
	if equipment := strings.TrimSpace(details.Equipment); equipment != "" {
		lines = append(lines, fmt.Sprintf("Equipment: %s", equipment))
	}
	lines = append(lines, fmt.Sprintf("Total: %.2f", details.Total))

	return Message{
		Subject: "Booking Confirmed",
		Body:    strings.Join(lines, "\n"),
	}
}

// BuildWaitlistNotification builds the "a slot opened up" message sent when
// a waitlist entry is promoted or the front of the queue is notified.
func BuildWaitlistNotification(details WaitlistDetails) Message {
	courtName := strings.TrimSpace(details.CourtName)
	if courtName == "" {
		courtName = "Court"
	}

	lines := []string{
		"A slot you were waiting for has become available.",
		"",
		fmt.Sprintf("Court: %s", courtName),
		fmt.Sprintf("Date: %s", strings.TrimSpace(details.Date)),
		fmt.Sprintf("Time: %s", strings.TrimSpace(details.TimeRange)),
	}
	if details.Position > 0 {
		lines = append(lines, fmt.Sprintf("Your queue position: %d", details.Position))
	}

	return Message{
		Subject: "Waitlist Slot Available",
		Body:    strings.Join(lines, "\n"),
	}
}
