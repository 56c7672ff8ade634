// Package mailer handles outbound notification email. Dispatch is
// fire-and-forget: no request ever waits on or fails because of mail.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"soundwave/internal/tasks"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTP constructs an SMTP mailer. Empty username skips authentication.
func NewSMTP(addr, from, username, password string) *SMTP {
	m := &SMTP{addr: addr, from: from}
	if username != "" {
		host, _, _ := strings.Cut(addr, ":")
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send delivers one message synchronously.
func (m *SMTP) Send(_ context.Context, to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}

// LogMailer is used when no SMTP relay is configured: messages go to the log.
type LogMailer struct{ Log *zap.Logger }

// Send logs the message instead of delivering it.
func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Log.Info("mail (not configured, dropped)", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Dispatcher submits messages to a bounded worker pool and never reports
// delivery failures to the caller.
type Dispatcher struct {
	mailer Mailer
	pool   *tasks.Pool
	log    *zap.Logger
}

// NewDispatcher constructs a fire-and-forget dispatcher.
func NewDispatcher(m Mailer, pool *tasks.Pool, log *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: m, pool: pool, log: log}
}

// Go queues one message for background delivery.
func (d *Dispatcher) Go(to, subject, body string) {
	d.pool.Submit(func(ctx context.Context) {
		if err := d.mailer.Send(ctx, to, subject, body); err != nil {
			d.log.Warn("send mail failed", zap.String("to", to), zap.Error(err))
		}
	})
}
