package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tourdesk/tourdesk/internal/jobs"
	"github.com/tourdesk/tourdesk/internal/shared"
)

// MailSender delivers a message synchronously.
type MailSender interface {
	Deliver(ctx context.Context, mail shared.Mail) error
}

// SMTPSender delivers mail through a plain SMTP relay such as Mailpit.
type SMTPSender struct {
	addr string
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender constructs a sender for host:port.
func NewSMTPSender(host string, port int, from string) *SMTPSender {
	return &SMTPSender{addr: net.JoinHostPort(host, strconv.Itoa(port)), from: from, send: smtp.SendMail}
}

// Deliver sends mail as a single text/plain message.
func (s *SMTPSender) Deliver(_ context.Context, mail shared.Mail) error {
	if strings.ContainsAny(mail.To+mail.Subject, "\r\n") {
		return errors.New("smtp: header contains line break")
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", mail.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mail.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(mail.Body)
	if err := s.send(s.addr, nil, s.from, []string{mail.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", mail.To, err)
	}
	return nil
}

// LogSender writes mail to the log instead of delivering it.
type LogSender struct {
	Logger *slog.Logger
}

// Deliver logs mail.
func (s LogSender) Deliver(ctx context.Context, mail shared.Mail) error {
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "mail not delivered, no SMTP host configured",
			slog.String("to", mail.To), slog.String("subject", mail.Subject))
	}
	return nil
}

// MailJob processes TaskTypeSendEmail tasks.
type MailJob struct {
	Sender  MailSender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle delivers one queued mail. Malformed payloads are not retried.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskTypeSendEmail)
	defer func() { err = tracker.End(err) }()

	var mail shared.Mail
	if err := json.Unmarshal(t.Payload(), &mail); err != nil || mail.To == "" {
		return fmt.Errorf("mail: bad payload: %w", asynq.SkipRetry)
	}
	if err := j.Sender.Deliver(ctx, mail); err != nil {
		if j.Logger != nil {
			j.Logger.WarnContext(ctx, "deliver mail", slog.String("to", mail.To), slog.Any("error", err))
		}
		return err
	}
	return nil
}
