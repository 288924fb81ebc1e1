package email

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogSender logs messages instead of delivering them. Used in development
// when SES credentials are not configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	log.Ctx(ctx).Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Msg("Email delivery skipped (log sender)")
	return nil
}
