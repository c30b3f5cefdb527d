package shared

import (
	"context"
	"log/slog"
)

// Mail is a transactional email.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers or enqueues mail.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Notify sends mail and logs failures without propagating them.
func Notify(ctx context.Context, mailer Mailer, logger *slog.Logger, mail Mail) {
	if mailer == nil || mail.To == "" {
		return
	}
	if err := mailer.Send(ctx, mail); err != nil && logger != nil {
		logger.WarnContext(ctx, "enqueue mail", slog.String("subject", mail.Subject), slog.Any("error", err))
	}
}
